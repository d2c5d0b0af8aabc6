package models

import (
	"time"
)

// Campaign statuses. Budget is reserved at submission, so approval and
// rejection only move the status; neither touches the ledger.
const (
	CampaignStatusPending   = "pending"
	CampaignStatusApproved  = "approved"
	CampaignStatusRejected  = "rejected"
	CampaignStatusActive    = "active"
	CampaignStatusCompleted = "completed"
	CampaignStatusCancelled = "cancelled"
)

// Supported ad platforms.
var CampaignPlatforms = []string{"facebook", "instagram", "google"}

// AdCampaign is a budgeted promotion request tied to a property, funded from
// the owner's wallet at submission time.
type AdCampaign struct {
	ID         string     `json:"id" db:"id"`
	PropertyID string     `json:"property_id" db:"property_id"`
	AccountID  string     `json:"account_id" db:"account_id"`
	Budget     int64      `json:"budget" db:"budget"` // minor units
	Platforms  []string   `json:"platforms" db:"platforms"`
	StartDate  time.Time  `json:"start_date" db:"start_date"`
	Status     string     `json:"status" db:"status"`
	ReviewedBy *string    `json:"reviewed_by,omitempty" db:"reviewed_by"`
	ReviewedAt *time.Time `json:"reviewed_at,omitempty" db:"reviewed_at"`
	Reason     string     `json:"reason,omitempty" db:"reason"`
	CreatedAt  time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at" db:"updated_at"`
}
