package services

import (
	"database/sql"
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/estatehub/backend/internal/audit"
	"github.com/estatehub/backend/internal/models"
)

// ErrBelowMinimumBudget rejects campaigns under the configured minimum.
var ErrBelowMinimumBudget = errors.New("budget below minimum")

// CampaignService reserves the ad budget from the owner's wallet at
// submission time. A later review only flips the campaign status; the ledger
// is never touched again, and rejection does not refund the reserved budget.
type CampaignService struct {
	db         *sql.DB
	ledger     *WalletLedgerService
	properties PropertyLookup
	audit      *audit.Logger
	minBudget  int64
}

// CampaignSubmission is what one successful submission produced, including
// the balance before and after the deduction for client display.
type CampaignSubmission struct {
	Campaign         *models.AdCampaign  `json:"campaign"`
	LedgerEntry      *models.LedgerEntry `json:"ledger_entry"`
	PreviousBalance  int64               `json:"previous_balance"`
	RemainingBalance int64               `json:"remaining_balance"`
}

func NewCampaignService(db *sql.DB, ledger *WalletLedgerService, properties PropertyLookup) *CampaignService {
	minBudget := int64(1500)
	if envBudget := os.Getenv("MIN_AD_BUDGET"); envBudget != "" {
		if val, err := strconv.ParseInt(envBudget, 10, 64); err == nil {
			minBudget = val
		}
	}
	return &CampaignService{
		db:         db,
		ledger:     ledger,
		properties: properties,
		audit:      audit.NewLogger(),
		minBudget:  minBudget,
	}
}

// MinBudget returns the configured minimum campaign budget.
func (cs *CampaignService) MinBudget() int64 {
	return cs.minBudget
}

// Submit validates and creates a campaign, debiting the budget from the
// owner's wallet in the same transaction. The property lookup happens before
// the transaction begins; its failure aborts the submission with no row written.
func (cs *CampaignService) Submit(ownerID, propertyID string, budget int64, platforms []string, startDate time.Time) (*CampaignSubmission, error) {
	if budget < cs.minBudget {
		return nil, ErrBelowMinimumBudget
	}

	for _, platform := range platforms {
		if !validPlatform(platform) {
			return nil, &valueError{msg: fmt.Sprintf("Unsupported platform %q", platform)}
		}
	}

	exists, err := cs.properties.Exists(propertyID)
	if err != nil {
		return nil, fmt.Errorf("property lookup failed: %w", err)
	}
	if !exists {
		return nil, ErrNotFound
	}

	campaign := &models.AdCampaign{
		ID:         uuid.NewString(),
		PropertyID: propertyID,
		AccountID:  ownerID,
		Budget:     budget,
		Platforms:  platforms,
		StartDate:  startDate,
		Status:     models.CampaignStatusPending,
		CreatedAt:  time.Now(),
		UpdatedAt:  time.Now(),
	}

	tx, err := cs.db.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	entry, err := cs.ledger.DebitTx(tx, ownerID, budget, models.ReasonAdBudgetDeduction, &campaign.ID)
	if err != nil {
		return nil, err
	}

	_, err = tx.Exec(`
		INSERT INTO ad_campaigns
		(id, property_id, account_id, budget, platforms, start_date, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		campaign.ID, campaign.PropertyID, campaign.AccountID, campaign.Budget,
		pq.Array(campaign.Platforms), campaign.StartDate, campaign.Status,
		campaign.CreatedAt, campaign.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	cs.audit.LogLedgerChange(campaign.ID, ownerID, entry.Reason, entry.Amount, entry.Balance)
	log.Printf("[CAMPAIGN] Submitted: id=%s owner=%s budget=%d remaining=%d",
		campaign.ID, ownerID, budget, entry.Balance)

	return &CampaignSubmission{
		Campaign:         campaign,
		LedgerEntry:      entry,
		PreviousBalance:  entry.Balance + budget,
		RemainingBalance: entry.Balance,
	}, nil
}

// Review transitions a pending campaign to approved or rejected. Budget was
// reserved at submission, so this is a status-only change either way.
func (cs *CampaignService) Review(campaignID, reviewerID, action, reason string) (*models.AdCampaign, error) {
	var status string
	switch action {
	case "approve":
		status = models.CampaignStatusApproved
	case "reject":
		status = models.CampaignStatusRejected
	default:
		return nil, &valueError{msg: "Invalid action. Allowed values: approve, reject"}
	}

	tx, err := cs.db.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	campaign, err := cs.lockCampaign(tx, campaignID)
	if err != nil {
		return nil, err
	}

	if campaign.Status != models.CampaignStatusPending {
		return nil, ErrAlreadyReviewed
	}

	now := time.Now()
	result, err := tx.Exec(`
		UPDATE ad_campaigns
		SET status = $1, reviewed_by = $2, reviewed_at = $3, reason = $4, updated_at = $5
		WHERE id = $6 AND status = $7`,
		status, reviewerID, now, reason, now, campaignID, models.CampaignStatusPending)
	if err != nil {
		return nil, err
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, err
	}
	if rowsAffected == 0 {
		return nil, ErrAlreadyReviewed
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	campaign.Status = status
	campaign.ReviewedBy = &reviewerID
	campaign.ReviewedAt = &now
	campaign.Reason = reason
	campaign.UpdatedAt = now

	cs.audit.LogReview(campaign.ID, campaign.AccountID, reviewerID, campaign.Budget, strings.ToUpper(status))
	log.Printf("[CAMPAIGN] Reviewed: id=%s reviewer=%s status=%s reason=%q",
		campaignID, reviewerID, status, reason)

	return campaign, nil
}

func (cs *CampaignService) lockCampaign(tx *sql.Tx, campaignID string) (*models.AdCampaign, error) {
	campaign := &models.AdCampaign{}
	var reviewedBy, reason sql.NullString
	var reviewedAt sql.NullTime
	err := tx.QueryRow(`
		SELECT id, property_id, account_id, budget, platforms, start_date, status,
		       reviewed_by, reviewed_at, reason, created_at, updated_at
		FROM ad_campaigns
		WHERE id = $1
		FOR UPDATE`, campaignID).Scan(
		&campaign.ID, &campaign.PropertyID, &campaign.AccountID, &campaign.Budget,
		pq.Array(&campaign.Platforms), &campaign.StartDate, &campaign.Status,
		&reviewedBy, &reviewedAt, &reason, &campaign.CreatedAt, &campaign.UpdatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if reviewedBy.Valid {
		campaign.ReviewedBy = &reviewedBy.String
	}
	if reviewedAt.Valid {
		campaign.ReviewedAt = &reviewedAt.Time
	}
	if reason.Valid {
		campaign.Reason = reason.String
	}

	return campaign, nil
}

// ListByAccount returns the account's campaigns, newest first.
func (cs *CampaignService) ListByAccount(accountID string) ([]models.AdCampaign, error) {
	return cs.fetchCampaigns("WHERE account_id = $1", []any{accountID})
}

// ListAll returns every campaign, newest first.
func (cs *CampaignService) ListAll() ([]models.AdCampaign, error) {
	return cs.fetchCampaigns("", nil)
}

func (cs *CampaignService) fetchCampaigns(where string, args []any) ([]models.AdCampaign, error) {
	query := `
		SELECT id, property_id, account_id, budget, platforms, start_date, status,
		       reviewed_by, reviewed_at, reason, created_at, updated_at
		FROM ad_campaigns `
	query += where
	query += " ORDER BY created_at DESC LIMIT 200"

	rows, err := cs.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	campaigns := []models.AdCampaign{}
	for rows.Next() {
		campaign := models.AdCampaign{}
		var reviewedBy, reason sql.NullString
		var reviewedAt sql.NullTime
		if err := rows.Scan(&campaign.ID, &campaign.PropertyID, &campaign.AccountID,
			&campaign.Budget, pq.Array(&campaign.Platforms), &campaign.StartDate,
			&campaign.Status, &reviewedBy, &reviewedAt, &reason,
			&campaign.CreatedAt, &campaign.UpdatedAt); err != nil {
			return nil, err
		}
		if reviewedBy.Valid {
			campaign.ReviewedBy = &reviewedBy.String
		}
		if reviewedAt.Valid {
			campaign.ReviewedAt = &reviewedAt.Time
		}
		if reason.Valid {
			campaign.Reason = reason.String
		}
		campaigns = append(campaigns, campaign)
	}

	return campaigns, rows.Err()
}

func validPlatform(platform string) bool {
	for _, p := range models.CampaignPlatforms {
		if p == platform {
			return true
		}
	}
	return false
}
