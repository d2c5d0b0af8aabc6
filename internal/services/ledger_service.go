package services

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/estatehub/backend/internal/models"
)

// WalletLedgerService owns every balance change. Account balances are never
// written outside CreditTx/DebitTx, so replaying ledger_entries in order
// always reproduces the current balance.
type WalletLedgerService struct {
	db *sql.DB
}

func NewWalletLedgerService(db *sql.DB) *WalletLedgerService {
	return &WalletLedgerService{db: db}
}

// CreditTx appends a credit entry and updates the account balance inside the
// caller's transaction. It never commits on its own.
func (s *WalletLedgerService) CreditTx(tx *sql.Tx, accountID string, amount int64, reason string, referenceID *string) (*models.LedgerEntry, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("credit amount must be positive, got %d", amount)
	}

	account, err := s.lockAccount(tx, accountID)
	if err != nil {
		return nil, err
	}

	newBalance := account.Balance + amount
	entry, err := s.createLedgerEntry(tx, accountID, amount, reason, referenceID, newBalance)
	if err != nil {
		return nil, err
	}

	if err := s.updateAccountBalance(tx, accountID, newBalance, account.Version); err != nil {
		return nil, err
	}

	return entry, nil
}

// DebitTx appends a debit entry and updates the account balance inside the
// caller's transaction. The account row is locked before the balance check,
// so two concurrent debits cannot interleave check and deduction.
func (s *WalletLedgerService) DebitTx(tx *sql.Tx, accountID string, amount int64, reason string, referenceID *string) (*models.LedgerEntry, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("debit amount must be positive, got %d", amount)
	}

	account, err := s.lockAccount(tx, accountID)
	if err != nil {
		return nil, err
	}

	if account.Balance < amount {
		return nil, &InsufficientBalanceError{Balance: account.Balance, Required: amount}
	}

	newBalance := account.Balance - amount
	entry, err := s.createLedgerEntry(tx, accountID, -amount, reason, referenceID, newBalance)
	if err != nil {
		return nil, err
	}

	if err := s.updateAccountBalance(tx, accountID, newBalance, account.Version); err != nil {
		return nil, err
	}

	return entry, nil
}

func (s *WalletLedgerService) lockAccount(tx *sql.Tx, accountID string) (*models.Account, error) {
	var account models.Account
	err := tx.QueryRow(`
		SELECT id, balance, version, updated_at
		FROM accounts
		WHERE id = $1
		FOR UPDATE`, accountID).Scan(&account.ID, &account.Balance, &account.Version, &account.UpdatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	return &account, nil
}

func (s *WalletLedgerService) createLedgerEntry(tx *sql.Tx, accountID string, amount int64, reason string, referenceID *string, balance int64) (*models.LedgerEntry, error) {
	entry := &models.LedgerEntry{
		AccountID:   accountID,
		Amount:      amount,
		Reason:      reason,
		ReferenceID: referenceID,
		Balance:     balance,
		CreatedAt:   time.Now(),
	}

	err := tx.QueryRow(`
		INSERT INTO ledger_entries (account_id, amount, reason, reference_id, balance, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`,
		accountID, amount, reason, referenceID, balance, entry.CreatedAt).Scan(&entry.ID)
	if err != nil {
		return nil, err
	}

	return entry, nil
}

func (s *WalletLedgerService) updateAccountBalance(tx *sql.Tx, accountID string, newBalance int64, version int) error {
	result, err := tx.Exec(`
		UPDATE accounts
		SET balance = $1, version = version + 1, updated_at = $2
		WHERE id = $3 AND version = $4`,
		newBalance, time.Now(), accountID, version)

	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return fmt.Errorf("optimistic lock failed for account %s", accountID)
	}

	return nil
}

// History returns the account's ledger entries, newest first.
func (s *WalletLedgerService) History(accountID string, limit int) ([]models.LedgerEntry, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.Query(`
		SELECT id, account_id, amount, reason, reference_id, balance, created_at
		FROM ledger_entries
		WHERE account_id = $1
		ORDER BY id DESC
		LIMIT $2`, accountID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := []models.LedgerEntry{}
	for rows.Next() {
		var entry models.LedgerEntry
		if err := rows.Scan(&entry.ID, &entry.AccountID, &entry.Amount, &entry.Reason,
			&entry.ReferenceID, &entry.Balance, &entry.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}

	return entries, rows.Err()
}

// Balance reads the committed balance for display. State changes always go
// through CreditTx/DebitTx.
func (s *WalletLedgerService) Balance(accountID string) (int64, error) {
	var balance int64
	err := s.db.QueryRow(`SELECT balance FROM accounts WHERE id = $1`, accountID).Scan(&balance)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrNotFound
	}
	return balance, err
}
