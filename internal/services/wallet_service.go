package services

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

// WalletService is the read surface over the ledger for user dashboards.
type WalletService struct {
	ledger *WalletLedgerService
}

func NewWalletService(ledger *WalletLedgerService) *WalletService {
	return &WalletService{ledger: ledger}
}

// GetMyWallet returns the caller's balance and recent ledger history
// @Summary Get my wallet
// @Description Current wallet balance plus the 50 most recent ledger entries, newest first
// @Tags wallet
// @Produce json
// @Security BearerAuth
// @Success 200 {object} object{walletBalance=int64,transactions=[]models.LedgerEntry}
// @Failure 404 {object} ErrorResponse
// @Router /wallet [get]
func (ws *WalletService) GetMyWallet(w http.ResponseWriter, r *http.Request) {
	accountID, ok := r.Context().Value("userID").(string)
	if !ok || accountID == "" {
		SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	balance, err := ws.ledger.Balance(accountID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			SendErrorResponse(w, "Account not found", http.StatusNotFound, nil)
			return
		}
		log.Printf("[WALLET] Failed to fetch balance for %s: %v", accountID, err)
		SendErrorResponse(w, "Failed to fetch wallet", http.StatusInternalServerError, nil)
		return
	}

	entries, err := ws.ledger.History(accountID, 50)
	if err != nil {
		log.Printf("[WALLET] Failed to fetch history for %s: %v", accountID, err)
		SendErrorResponse(w, "Failed to fetch wallet", http.StatusInternalServerError, nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"walletBalance": balance,
		"transactions":  entries,
	})
}

// GetAccountLedger exposes an account's entry history for the admin audit view
// @Summary Get account ledger
// @Tags wallet
// @Produce json
// @Security BearerAuth
// @Param id path string true "Account ID"
// @Param limit query int false "Max entries (default 50, max 500)"
// @Success 200 {object} object{entries=[]models.LedgerEntry,count=int}
// @Failure 500 {object} ErrorResponse
// @Router /admin/accounts/{id}/ledger [get]
func (ws *WalletService) GetAccountLedger(w http.ResponseWriter, r *http.Request) {
	accountID := chi.URLParam(r, "id")

	limit := 50
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l <= 500 {
			limit = l
		}
	}

	entries, err := ws.ledger.History(accountID, limit)
	if err != nil {
		log.Printf("[WALLET] Failed to fetch ledger for %s: %v", accountID, err)
		SendErrorResponse(w, "Failed to fetch ledger", http.StatusInternalServerError, nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"entries": entries,
		"count":   len(entries),
	})
}
