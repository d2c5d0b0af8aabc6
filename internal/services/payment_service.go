package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/estatehub/backend/internal/audit"
	"github.com/estatehub/backend/internal/models"
)

// PaymentService is the payment request registry plus the approval engine.
// Every mutating operation runs as one database transaction; the request row
// is locked before its status is re-checked, so a request can be reviewed
// exactly once.
type PaymentService struct {
	db              *sql.DB
	redis           *redis.Client
	ledger          *WalletLedgerService
	audit           *audit.Logger
	validator       *ValidationHelper
	registrationFee int64
}

// ApprovalResult is what one successful approval produced.
type ApprovalResult struct {
	Request     *models.PaymentRequest `json:"request"`
	LedgerEntry *models.LedgerEntry    `json:"ledger_entry,omitempty"`
	Effect      string                 `json:"effect"` // wallet-credited, account-activated, role-upgraded
}

func NewPaymentService(db *sql.DB, redisClient *redis.Client, ledger *WalletLedgerService) *PaymentService {
	registrationFee := int64(1500)
	if envFee := os.Getenv("REGISTRATION_FEE_MIN"); envFee != "" {
		if val, err := strconv.ParseInt(envFee, 10, 64); err == nil {
			registrationFee = val
		}
	}
	return &PaymentService{
		db:              db,
		redis:           redisClient,
		ledger:          ledger,
		audit:           audit.NewLogger(),
		validator:       NewValidationHelper(),
		registrationFee: registrationFee,
	}
}

type submitPaymentRequest struct {
	Amount        int64  `json:"amount" validate:"required,gt=0"`
	Purpose       string `json:"purpose" validate:"required,oneof=registration promotion role-upgrade"`
	ScreenshotURL string `json:"screenshotUrl" validate:"omitempty,url"`
	UTRNumber     string `json:"utrNumber" validate:"omitempty,min=8,max=32,alphanum"`
	RequestedRole string `json:"requestedRole" validate:"omitempty"`
}

// SubmitPaymentProof handles payment proof submission
// @Summary Submit a payment proof
// @Description Submit a manually verified payment proof (screenshot URL and/or UTR number) for admin review
// @Tags payments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payment body submitPaymentRequest true "Payment proof"
// @Success 201 {object} models.PaymentRequest
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /payments [post]
func (ps *PaymentService) SubmitPaymentProof(w http.ResponseWriter, r *http.Request) {
	accountID, ok := r.Context().Value("userID").(string)
	if !ok || accountID == "" {
		SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	var req submitPaymentRequest

	maxBytes := 1_048_576 // 1 MB
	r.Body = http.MaxBytesReader(w, r.Body, int64(maxBytes))

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(&req); err != nil {
		SendErrorResponse(w, "Invalid request body", http.StatusBadRequest, nil)
		return
	}

	if err := dec.Decode(&struct{}{}); err != io.EOF {
		SendErrorResponse(w, "Request body must only contain a single JSON object", http.StatusBadRequest, nil)
		return
	}

	if err := ps.validator.ValidateStruct(&req); err != nil {
		SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	payment, err := ps.submit(accountID, &req)
	if err != nil {
		if errors.Is(err, ErrDuplicateReference) {
			log.Printf("[PAYMENT] Duplicate UTR on submission from account %s", accountID)
			SendDomainError(w, err)
			return
		}
		var ve *valueError
		if errors.As(err, &ve) {
			SendErrorResponse(w, ve.msg, http.StatusBadRequest, nil)
			return
		}
		log.Printf("[PAYMENT] Submission failed for account %s: %v", accountID, err)
		SendErrorResponse(w, "Payment submission failed", http.StatusInternalServerError, nil)
		return
	}

	log.Printf("[PAYMENT] Proof submitted: id=%s account=%s purpose=%s amount=%d",
		payment.ID, accountID, payment.Purpose, payment.Amount)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]any{
		"message": "Payment proof submitted for approval",
		"payment": payment,
	})
}

// valueError is a request-level validation failure reported verbatim.
type valueError struct{ msg string }

func (e *valueError) Error() string { return e.msg }

func (ps *PaymentService) submit(accountID string, req *submitPaymentRequest) (*models.PaymentRequest, error) {
	payment := &models.PaymentRequest{
		ID:            uuid.NewString(),
		AccountID:     accountID,
		Purpose:       req.Purpose,
		Amount:        req.Amount,
		ScreenshotURL: strings.TrimSpace(req.ScreenshotURL),
		Status:        models.PaymentStatusPending,
		CreatedAt:     time.Now(),
	}

	if req.Amount <= 0 {
		return nil, &valueError{msg: "Amount must be greater than zero"}
	}

	if payment.ScreenshotURL == "" && req.UTRNumber == "" {
		return nil, &valueError{msg: "Proof is required: provide a screenshot URL or a UTR number"}
	}

	if req.Purpose == models.PurposeRegistration && req.Amount < ps.registrationFee {
		return nil, &valueError{msg: fmt.Sprintf("Registration fee must be %d or higher", ps.registrationFee)}
	}

	if req.Purpose == models.PurposeRegistration || req.Purpose == models.PurposeRoleUpgrade {
		roleStr := req.RequestedRole
		if roleStr == "" && req.Purpose == models.PurposeRegistration {
			// Registration proofs default to the role chosen at sign-up.
			stored, err := ps.storedRequestedRole(accountID)
			if err != nil {
				return nil, err
			}
			roleStr = stored
		}
		role, err := models.ParseRole(roleStr)
		if err != nil {
			return nil, &valueError{msg: "A valid requested role is required for this purpose"}
		}
		if role == models.RoleAdmin {
			return nil, &valueError{msg: "Cannot request the admin role"}
		}
		payment.RequestedRole = &role
	}

	if req.UTRNumber != "" {
		utr := strings.ToUpper(strings.TrimSpace(req.UTRNumber))
		payment.UTRNumber = &utr

		var exists bool
		err := ps.db.QueryRow(`
			SELECT EXISTS(SELECT 1 FROM payment_requests WHERE utr_number = $1)`,
			utr).Scan(&exists)
		if err != nil {
			return nil, err
		}
		if exists {
			return nil, ErrDuplicateReference
		}
	}

	_, err := ps.db.Exec(`
		INSERT INTO payment_requests
		(id, account_id, purpose, amount, screenshot_url, utr_number, requested_role, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		payment.ID, payment.AccountID, payment.Purpose, payment.Amount,
		payment.ScreenshotURL, payment.UTRNumber, payment.RequestedRole,
		payment.Status, payment.CreatedAt)

	if err != nil {
		// The unique index on utr_number closes the race the pre-check leaves open.
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return nil, ErrDuplicateReference
		}
		return nil, err
	}

	return payment, nil
}

func (ps *PaymentService) storedRequestedRole(accountID string) (string, error) {
	var requestedRole sql.NullString
	err := ps.db.QueryRow(`SELECT requested_role FROM accounts WHERE id = $1`,
		accountID).Scan(&requestedRole)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return requestedRole.String, nil
}

// ApprovePayment handles admin approval of a pending payment request
// @Summary Approve a payment request
// @Description Approve a pending payment request; credits the wallet, activates the account, or upgrades the role depending on purpose
// @Tags payments
// @Produce json
// @Security BearerAuth
// @Param id path string true "Payment request ID"
// @Success 200 {object} ApprovalResult
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /admin/payments/{id}/approve [post]
func (ps *PaymentService) ApprovePayment(w http.ResponseWriter, r *http.Request) {
	reviewerID, ok := r.Context().Value("userID").(string)
	if !ok || reviewerID == "" {
		SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	requestID := chi.URLParam(r, "id")

	result, err := ps.Approve(requestID, reviewerID)
	if err != nil {
		if errors.Is(err, ErrNotFound) || errors.Is(err, ErrAlreadyReviewed) {
			SendDomainError(w, err)
			return
		}
		log.Printf("[PAYMENT] Approval failed: id=%s reviewer=%s: %v", requestID, reviewerID, err)
		ps.audit.LogError(requestID, "", err)
		SendErrorResponse(w, "Approval failed", http.StatusInternalServerError, nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"message": "Payment approved",
		"result":  result,
	})
}

// Approve transitions a pending request to approved and applies its domain
// effect in the same transaction. A request that is no longer pending after
// the row lock is acquired fails with ErrAlreadyReviewed, which makes
// concurrent double-approval impossible.
func (ps *PaymentService) Approve(requestID, reviewerID string) (*ApprovalResult, error) {
	tx, err := ps.db.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	payment, err := ps.lockRequest(tx, requestID)
	if err != nil {
		return nil, err
	}

	if payment.Status != models.PaymentStatusPending {
		return nil, ErrAlreadyReviewed
	}

	result := &ApprovalResult{Request: payment}

	switch payment.Purpose {
	case models.PurposeRegistration:
		if payment.RequestedRole == nil {
			return nil, fmt.Errorf("registration request %s has no requested role", payment.ID)
		}
		if err := ps.activateAccount(tx, payment.AccountID, *payment.RequestedRole); err != nil {
			return nil, err
		}
		result.Effect = "account-activated"

	case models.PurposePromotion:
		entry, err := ps.ledger.CreditTx(tx, payment.AccountID, payment.Amount, models.ReasonTopUp, &payment.ID)
		if err != nil {
			return nil, err
		}
		result.LedgerEntry = entry
		result.Effect = "wallet-credited"

	case models.PurposeRoleUpgrade:
		if payment.RequestedRole == nil {
			return nil, fmt.Errorf("role-upgrade request %s has no requested role", payment.ID)
		}
		if err := ps.setAccountRole(tx, payment.AccountID, *payment.RequestedRole); err != nil {
			return nil, err
		}
		result.Effect = "role-upgraded"

	default:
		return nil, fmt.Errorf("unknown payment purpose %q", payment.Purpose)
	}

	now := time.Now()
	if err := ps.finalizeReview(tx, payment.ID, models.PaymentStatusApproved, reviewerID, now, ""); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	payment.Status = models.PaymentStatusApproved
	payment.ReviewedBy = &reviewerID
	payment.ReviewedAt = &now

	ps.audit.LogReview(payment.ID, payment.AccountID, reviewerID, payment.Amount, "APPROVED")
	if result.LedgerEntry != nil {
		ps.audit.LogLedgerChange(payment.ID, payment.AccountID, result.LedgerEntry.Reason,
			result.LedgerEntry.Amount, result.LedgerEntry.Balance)
	}
	ps.publishEvent("payment.approved", payment)

	return result, nil
}

type rejectPaymentRequest struct {
	Reason string `json:"reason" validate:"required,min=3,max=500"`
}

// RejectPayment handles admin rejection of a pending payment request
// @Summary Reject a payment request
// @Description Reject a pending payment request with a reason; no wallet or role effect
// @Tags payments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Payment request ID"
// @Param rejection body rejectPaymentRequest true "Rejection reason"
// @Success 200 {object} models.PaymentRequest
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /admin/payments/{id}/reject [post]
func (ps *PaymentService) RejectPayment(w http.ResponseWriter, r *http.Request) {
	reviewerID, ok := r.Context().Value("userID").(string)
	if !ok || reviewerID == "" {
		SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	requestID := chi.URLParam(r, "id")

	var req rejectPaymentRequest
	r.Body = http.MaxBytesReader(w, r.Body, 1_048_576)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(&req); err != nil {
		SendErrorResponse(w, "Invalid request body", http.StatusBadRequest, nil)
		return
	}

	if err := ps.validator.ValidateStruct(&req); err != nil {
		SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	payment, err := ps.Reject(requestID, reviewerID, req.Reason)
	if err != nil {
		if errors.Is(err, ErrNotFound) || errors.Is(err, ErrAlreadyReviewed) {
			SendDomainError(w, err)
			return
		}
		log.Printf("[PAYMENT] Rejection failed: id=%s reviewer=%s: %v", requestID, reviewerID, err)
		SendErrorResponse(w, "Rejection failed", http.StatusInternalServerError, nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"message": "Payment rejected",
		"payment": payment,
	})
}

// Reject transitions a pending request to rejected. It stores the reason and
// reviewer and touches nothing else; in particular no ledger entry is written.
func (ps *PaymentService) Reject(requestID, reviewerID, reason string) (*models.PaymentRequest, error) {
	tx, err := ps.db.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	payment, err := ps.lockRequest(tx, requestID)
	if err != nil {
		return nil, err
	}

	if payment.Status != models.PaymentStatusPending {
		return nil, ErrAlreadyReviewed
	}

	now := time.Now()
	if err := ps.finalizeReview(tx, payment.ID, models.PaymentStatusRejected, reviewerID, now, reason); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	payment.Status = models.PaymentStatusRejected
	payment.ReviewedBy = &reviewerID
	payment.ReviewedAt = &now
	payment.Reason = reason

	ps.audit.LogReview(payment.ID, payment.AccountID, reviewerID, payment.Amount, "REJECTED")
	ps.publishEvent("payment.rejected", payment)

	return payment, nil
}

func (ps *PaymentService) lockRequest(tx *sql.Tx, requestID string) (*models.PaymentRequest, error) {
	payment := &models.PaymentRequest{}
	var utr, requestedRole, reviewedBy sql.NullString
	var reviewedAt sql.NullTime
	var reason sql.NullString

	err := tx.QueryRow(`
		SELECT id, account_id, purpose, amount, screenshot_url, utr_number,
		       requested_role, status, reviewed_by, reviewed_at, reason, created_at
		FROM payment_requests
		WHERE id = $1
		FOR UPDATE`, requestID).Scan(
		&payment.ID, &payment.AccountID, &payment.Purpose, &payment.Amount,
		&payment.ScreenshotURL, &utr, &requestedRole, &payment.Status,
		&reviewedBy, &reviewedAt, &reason, &payment.CreatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if utr.Valid {
		payment.UTRNumber = &utr.String
	}
	if requestedRole.Valid {
		role := models.Role(requestedRole.String)
		payment.RequestedRole = &role
	}
	if reviewedBy.Valid {
		payment.ReviewedBy = &reviewedBy.String
	}
	if reviewedAt.Valid {
		payment.ReviewedAt = &reviewedAt.Time
	}
	if reason.Valid {
		payment.Reason = reason.String
	}

	return payment, nil
}

func (ps *PaymentService) finalizeReview(tx *sql.Tx, requestID, status, reviewerID string, reviewedAt time.Time, reason string) error {
	result, err := tx.Exec(`
		UPDATE payment_requests
		SET status = $1, reviewed_by = $2, reviewed_at = $3, reason = $4
		WHERE id = $5 AND status = $6`,
		status, reviewerID, reviewedAt, reason, requestID, models.PaymentStatusPending)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrAlreadyReviewed
	}

	return nil
}

func (ps *PaymentService) activateAccount(tx *sql.Tx, accountID string, role models.Role) error {
	result, err := tx.Exec(`
		UPDATE accounts
		SET role = $1, status = $2, updated_at = $3
		WHERE id = $4`,
		role, models.AccountStatusActive, time.Now(), accountID)
	if err != nil {
		return err
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (ps *PaymentService) setAccountRole(tx *sql.Tx, accountID string, role models.Role) error {
	result, err := tx.Exec(`
		UPDATE accounts
		SET role = $1, updated_at = $2
		WHERE id = $3`,
		role, time.Now(), accountID)
	if err != nil {
		return err
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// publishEvent pushes a review outcome onto the notification queue. The
// review is already committed; queue failures are logged, never propagated.
func (ps *PaymentService) publishEvent(eventType string, payment *models.PaymentRequest) {
	if ps.redis == nil {
		return
	}

	data, err := json.Marshal(map[string]any{
		"type":      eventType,
		"requestId": payment.ID,
		"accountId": payment.AccountID,
		"purpose":   payment.Purpose,
		"amount":    payment.Amount,
		"timestamp": time.Now().Unix(),
	})
	if err != nil {
		return
	}

	if err := ps.redis.RPush(context.Background(), "wallet_events", data).Err(); err != nil {
		log.Printf("[PAYMENT] Failed to queue wallet event for %s: %v", payment.ID, err)
	}
}

// ListMyPayments lists the caller's payment requests
// @Summary List my payments
// @Description List the authenticated user's payment requests, newest first
// @Tags payments
// @Produce json
// @Security BearerAuth
// @Success 200 {object} object{payments=[]models.PaymentRequest,count=int}
// @Failure 500 {object} ErrorResponse
// @Router /payments [get]
func (ps *PaymentService) ListMyPayments(w http.ResponseWriter, r *http.Request) {
	accountID, ok := r.Context().Value("userID").(string)
	if !ok || accountID == "" {
		SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	payments, err := ps.fetchPayments(accountID, "", 100)
	if err != nil {
		log.Printf("[PAYMENT] Failed to fetch payments for account %s: %v", accountID, err)
		SendErrorResponse(w, "Failed to fetch payments", http.StatusInternalServerError, nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"payments": payments,
		"count":    len(payments),
	})
}

// ListAllPayments lists payment requests across all accounts
// @Summary List all payments
// @Description Admin view of payment requests with optional status filter
// @Tags payments
// @Produce json
// @Security BearerAuth
// @Param status query string false "Filter by status (pending, approved, rejected)"
// @Success 200 {object} object{payments=[]models.PaymentRequest,count=int}
// @Failure 500 {object} ErrorResponse
// @Router /admin/payments [get]
func (ps *PaymentService) ListAllPayments(w http.ResponseWriter, r *http.Request) {
	status := strings.TrimSpace(r.URL.Query().Get("status"))
	if status != "" && status != models.PaymentStatusPending &&
		status != models.PaymentStatusApproved && status != models.PaymentStatusRejected {
		SendErrorResponse(w, "Invalid status filter", http.StatusBadRequest, nil)
		return
	}

	payments, err := ps.fetchPayments("", status, 200)
	if err != nil {
		log.Printf("[PAYMENT] Failed to fetch payments: %v", err)
		SendErrorResponse(w, "Failed to fetch payments", http.StatusInternalServerError, nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"payments": payments,
		"count":    len(payments),
	})
}

// GetPayment retrieves one payment request, visible only to its owner or admins
// @Summary Get payment by ID
// @Tags payments
// @Produce json
// @Security BearerAuth
// @Param id path string true "Payment request ID"
// @Success 200 {object} models.PaymentRequest
// @Failure 404 {object} ErrorResponse
// @Router /payments/{id} [get]
func (ps *PaymentService) GetPayment(w http.ResponseWriter, r *http.Request) {
	accountID, ok := r.Context().Value("userID").(string)
	if !ok || accountID == "" {
		SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}
	role, _ := r.Context().Value("role").(string)

	requestID := chi.URLParam(r, "id")

	payments, err := ps.fetchPaymentsWhere("id = $1", []any{requestID}, 1)
	if err != nil {
		log.Printf("[PAYMENT] Failed to fetch payment %s: %v", requestID, err)
		SendErrorResponse(w, "Failed to fetch payment", http.StatusInternalServerError, nil)
		return
	}
	// Requests owned by others are reported as missing, not forbidden, so the
	// id space leaks nothing.
	if len(payments) == 0 || (payments[0].AccountID != accountID && role != "admin") {
		SendErrorResponse(w, "Payment not found", http.StatusNotFound, nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(payments[0])
}

func (ps *PaymentService) fetchPayments(accountID, status string, limit int) ([]models.PaymentRequest, error) {
	var conditions []string
	var args []any
	argIndex := 1

	if accountID != "" {
		conditions = append(conditions, fmt.Sprintf("account_id = $%d", argIndex))
		args = append(args, accountID)
		argIndex++
	}
	if status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argIndex))
		args = append(args, status)
		argIndex++
	}

	where := ""
	if len(conditions) > 0 {
		where = strings.Join(conditions, " AND ")
	}

	return ps.fetchPaymentsWhere(where, args, limit)
}

func (ps *PaymentService) fetchPaymentsWhere(where string, args []any, limit int) ([]models.PaymentRequest, error) {
	query := `
		SELECT id, account_id, purpose, amount, screenshot_url, utr_number,
		       requested_role, status, reviewed_by, reviewed_at, reason, created_at
		FROM payment_requests`
	if where != "" {
		query += " WHERE " + where
	}
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d", len(args)+1)
	args = append(args, limit)

	rows, err := ps.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	payments := []models.PaymentRequest{}
	for rows.Next() {
		payment := models.PaymentRequest{}
		var utr, requestedRole, reviewedBy, reason sql.NullString
		var reviewedAt sql.NullTime

		if err := rows.Scan(&payment.ID, &payment.AccountID, &payment.Purpose, &payment.Amount,
			&payment.ScreenshotURL, &utr, &requestedRole, &payment.Status,
			&reviewedBy, &reviewedAt, &reason, &payment.CreatedAt); err != nil {
			return nil, err
		}

		if utr.Valid {
			payment.UTRNumber = &utr.String
		}
		if requestedRole.Valid {
			role := models.Role(requestedRole.String)
			payment.RequestedRole = &role
		}
		if reviewedBy.Valid {
			payment.ReviewedBy = &reviewedBy.String
		}
		if reviewedAt.Valid {
			payment.ReviewedAt = &reviewedAt.Time
		}
		if reason.Valid {
			payment.Reason = reason.String
		}

		payments = append(payments, payment)
	}

	return payments, rows.Err()
}
