package models

import (
	"time"
)

// Ledger entry reason codes.
const (
	ReasonRegistrationFee   = "REGISTRATION_FEE"
	ReasonTopUp             = "TOP_UP"
	ReasonAdBudgetDeduction = "AD_BUDGET_DEDUCTION"
	ReasonRefund            = "REFUND"
)

// LedgerEntry is an immutable record of one balance change. Corrections are
// new offsetting entries, never updates.
type LedgerEntry struct {
	ID          int       `json:"id" db:"id"`
	AccountID   string    `json:"account_id" db:"account_id"`
	Amount      int64     `json:"amount" db:"amount"` // signed, minor units
	Reason      string    `json:"reason" db:"reason"`
	ReferenceID *string   `json:"reference_id,omitempty" db:"reference_id"` // originating payment request or campaign
	Balance     int64     `json:"balance" db:"balance"`                     // balance after this entry
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}
