package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"

	"github.com/estatehub/backend/internal/services"
)

type staticPropertyLookup struct{ exists bool }

func (s *staticPropertyLookup) Exists(string) (bool, error) { return s.exists, nil }

func newCampaignHandlerForTest(t *testing.T) *CampaignHandler {
	t.Helper()
	db, _, err := sqlmock.New()
	assert.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	ledger := services.NewWalletLedgerService(db)
	service := services.NewCampaignService(db, ledger, &staticPropertyLookup{exists: true})
	return NewCampaignHandler(service)
}

func TestCampaignHandler_SubmitCampaign(t *testing.T) {
	submit := func(t *testing.T, h *CampaignHandler, body map[string]any, userID string) *httptest.ResponseRecorder {
		t.Helper()
		payload, _ := json.Marshal(body)
		req := httptest.NewRequest(http.MethodPost, "/campaigns", bytes.NewReader(payload))
		if userID != "" {
			req = req.WithContext(context.WithValue(req.Context(), "userID", userID))
		}
		w := httptest.NewRecorder()
		h.SubmitCampaign(w, req)
		return w
	}

	t.Run("malformed start date rejected", func(t *testing.T) {
		h := newCampaignHandlerForTest(t)

		w := submit(t, h, map[string]any{
			"propertyId": "property1",
			"budget":     2000,
			"platforms":  []string{"facebook"},
			"startDate":  "2026-99-99",
		}, "owner1")

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("non-date start date rejected", func(t *testing.T) {
		h := newCampaignHandlerForTest(t)

		w := submit(t, h, map[string]any{
			"propertyId": "property1",
			"budget":     2000,
			"platforms":  []string{"facebook"},
			"startDate":  "next tuesday",
		}, "owner1")

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("missing identity", func(t *testing.T) {
		h := newCampaignHandlerForTest(t)

		w := submit(t, h, map[string]any{
			"propertyId": "property1",
			"budget":     2000,
			"platforms":  []string{"facebook"},
			"startDate":  "2026-09-01",
		}, "")

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}
