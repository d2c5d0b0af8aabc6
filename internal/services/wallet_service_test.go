package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"

	"github.com/estatehub/backend/internal/models"
)

func TestWalletService_GetMyWallet(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	service := NewWalletService(NewWalletLedgerService(db))

	t.Run("returns balance and history", func(t *testing.T) {
		mock.ExpectQuery("SELECT balance FROM accounts WHERE id = \\$1").
			WithArgs("account1").
			WillReturnRows(sqlmock.NewRows([]string{"balance"}).AddRow(2500))

		mock.ExpectQuery("FROM ledger_entries WHERE account_id = \\$1 ORDER BY id DESC LIMIT \\$2").
			WithArgs("account1", 50).
			WillReturnRows(sqlmock.NewRows([]string{"id", "account_id", "amount", "reason", "reference_id", "balance", "created_at"}).
				AddRow(1, "account1", 2500, models.ReasonTopUp, "pay1", 2500, time.Now()))

		req := httptest.NewRequest(http.MethodGet, "/wallet", nil)
		req = req.WithContext(context.WithValue(req.Context(), "userID", "account1"))
		w := httptest.NewRecorder()

		service.GetMyWallet(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var response map[string]json.RawMessage
		assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))

		var balance int64
		assert.NoError(t, json.Unmarshal(response["walletBalance"], &balance))
		assert.Equal(t, int64(2500), balance)

		var entries []models.LedgerEntry
		assert.NoError(t, json.Unmarshal(response["transactions"], &entries))
		assert.Len(t, entries, 1)
	})

	t.Run("unknown account", func(t *testing.T) {
		mock.ExpectQuery("SELECT balance FROM accounts WHERE id = \\$1").
			WithArgs("missing").
			WillReturnError(sql.ErrNoRows)

		req := httptest.NewRequest(http.MethodGet, "/wallet", nil)
		req = req.WithContext(context.WithValue(req.Context(), "userID", "missing"))
		w := httptest.NewRecorder()

		service.GetMyWallet(w, req)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("missing identity", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/wallet", nil)
		w := httptest.NewRecorder()

		service.GetMyWallet(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}
