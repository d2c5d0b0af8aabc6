package models

import (
	"time"
)

// Payment purposes.
const (
	PurposeRegistration = "registration"
	PurposePromotion    = "promotion"
	PurposeRoleUpgrade  = "role-upgrade"
)

// Payment request statuses. pending is the only non-terminal state.
const (
	PaymentStatusPending  = "pending"
	PaymentStatusApproved = "approved"
	PaymentStatusRejected = "rejected"
)

// PaymentRequest is a user-submitted, admin-reviewed claim of payment.
// The proof is a screenshot URL and/or a UTR number; the UTR, when present,
// is unique across all requests.
type PaymentRequest struct {
	ID            string     `json:"id" db:"id"`
	AccountID     string     `json:"account_id" db:"account_id"`
	Purpose       string     `json:"purpose" db:"purpose"`
	Amount        int64      `json:"amount" db:"amount"`
	ScreenshotURL string     `json:"screenshot_url,omitempty" db:"screenshot_url"`
	UTRNumber     *string    `json:"utr_number,omitempty" db:"utr_number"`
	RequestedRole *Role      `json:"requested_role,omitempty" db:"requested_role"`
	Status        string     `json:"status" db:"status"`
	ReviewedBy    *string    `json:"reviewed_by,omitempty" db:"reviewed_by"`
	ReviewedAt    *time.Time `json:"reviewed_at,omitempty" db:"reviewed_at"`
	Reason        string     `json:"reason,omitempty" db:"reason"`
	CreatedAt     time.Time  `json:"created_at" db:"created_at"`
}
