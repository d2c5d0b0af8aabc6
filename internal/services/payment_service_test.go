package services

import (
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-chi/chi/v5"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"

	"github.com/estatehub/backend/internal/models"
)

func newPaymentServiceForTest(t *testing.T) (*PaymentService, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	ledger := NewWalletLedgerService(db)
	return NewPaymentService(db, nil, ledger), mock, db
}

func pendingPaymentRows(id, accountID, purpose string, amount int64, requestedRole any) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "account_id", "purpose", "amount", "screenshot_url", "utr_number",
		"requested_role", "status", "reviewed_by", "reviewed_at", "reason", "created_at",
	}).AddRow(id, accountID, purpose, amount, "https://img.example/proof.png", nil,
		requestedRole, models.PaymentStatusPending, nil, nil, nil, time.Now())
}

func TestPaymentService_Submit(t *testing.T) {
	service, mock, db := newPaymentServiceForTest(t)
	defer db.Close()

	t.Run("promotion proof with screenshot", func(t *testing.T) {
		mock.ExpectExec("INSERT INTO payment_requests").
			WithArgs(sqlmock.AnyArg(), "account1", models.PurposePromotion, int64(2000),
				"https://img.example/proof.png", nil, nil, models.PaymentStatusPending, sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(1, 1))

		payment, err := service.submit("account1", &submitPaymentRequest{
			Amount:        2000,
			Purpose:       models.PurposePromotion,
			ScreenshotURL: "https://img.example/proof.png",
		})
		assert.NoError(t, err)
		assert.Equal(t, models.PaymentStatusPending, payment.Status)
		assert.NotEmpty(t, payment.ID)
	})

	t.Run("registration below minimum fee", func(t *testing.T) {
		_, err := service.submit("account1", &submitPaymentRequest{
			Amount:        1499,
			Purpose:       models.PurposeRegistration,
			ScreenshotURL: "https://img.example/proof.png",
			RequestedRole: "broker",
		})
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "1500")
	})

	t.Run("registration at minimum fee succeeds", func(t *testing.T) {
		mock.ExpectExec("INSERT INTO payment_requests").
			WithArgs(sqlmock.AnyArg(), "account1", models.PurposeRegistration, int64(1500),
				"https://img.example/proof.png", nil, models.RoleBroker, models.PaymentStatusPending, sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(1, 1))

		payment, err := service.submit("account1", &submitPaymentRequest{
			Amount:        1500,
			Purpose:       models.PurposeRegistration,
			ScreenshotURL: "https://img.example/proof.png",
			RequestedRole: "broker",
		})
		assert.NoError(t, err)
		assert.Equal(t, models.RoleBroker, *payment.RequestedRole)
	})

	t.Run("registration defaults to the role chosen at sign-up", func(t *testing.T) {
		mock.ExpectQuery("SELECT requested_role FROM accounts WHERE id = \\$1").
			WithArgs("account1").
			WillReturnRows(sqlmock.NewRows([]string{"requested_role"}).AddRow("builder"))

		mock.ExpectExec("INSERT INTO payment_requests").
			WithArgs(sqlmock.AnyArg(), "account1", models.PurposeRegistration, int64(1500),
				"https://img.example/proof.png", nil, models.RoleBuilder, models.PaymentStatusPending, sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(1, 1))

		payment, err := service.submit("account1", &submitPaymentRequest{
			Amount:        1500,
			Purpose:       models.PurposeRegistration,
			ScreenshotURL: "https://img.example/proof.png",
		})
		assert.NoError(t, err)
		assert.Equal(t, models.RoleBuilder, *payment.RequestedRole)
	})

	t.Run("registration fails without a role anywhere", func(t *testing.T) {
		mock.ExpectQuery("SELECT requested_role FROM accounts WHERE id = \\$1").
			WithArgs("account1").
			WillReturnRows(sqlmock.NewRows([]string{"requested_role"}).AddRow(nil))

		_, err := service.submit("account1", &submitPaymentRequest{
			Amount:        1500,
			Purpose:       models.PurposeRegistration,
			ScreenshotURL: "https://img.example/proof.png",
		})
		assert.Error(t, err)
	})

	t.Run("proof is required", func(t *testing.T) {
		_, err := service.submit("account1", &submitPaymentRequest{
			Amount:  2000,
			Purpose: models.PurposePromotion,
		})
		assert.Error(t, err)
	})

	t.Run("admin role cannot be requested", func(t *testing.T) {
		_, err := service.submit("account1", &submitPaymentRequest{
			Amount:        1500,
			Purpose:       models.PurposeRoleUpgrade,
			ScreenshotURL: "https://img.example/proof.png",
			RequestedRole: "admin",
		})
		assert.Error(t, err)
	})

	t.Run("duplicate UTR caught by pre-check", func(t *testing.T) {
		mock.ExpectQuery("SELECT EXISTS").
			WithArgs("UTR12345").
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

		_, err := service.submit("account1", &submitPaymentRequest{
			Amount:    2000,
			Purpose:   models.PurposePromotion,
			UTRNumber: "utr12345",
		})
		assert.ErrorIs(t, err, ErrDuplicateReference)
	})

	t.Run("duplicate UTR caught by unique index", func(t *testing.T) {
		mock.ExpectQuery("SELECT EXISTS").
			WithArgs("UTR12345").
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

		mock.ExpectExec("INSERT INTO payment_requests").
			WillReturnError(&pq.Error{Code: "23505"})

		_, err := service.submit("account1", &submitPaymentRequest{
			Amount:    2000,
			Purpose:   models.PurposePromotion,
			UTRNumber: "utr12345",
		})
		assert.ErrorIs(t, err, ErrDuplicateReference)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPaymentService_Approve(t *testing.T) {
	t.Run("promotion approval credits the wallet", func(t *testing.T) {
		service, mock, db := newPaymentServiceForTest(t)
		defer db.Close()

		mock.ExpectBegin()
		mock.ExpectQuery("SELECT id, account_id, purpose, amount, screenshot_url, utr_number, requested_role, status, reviewed_by, reviewed_at, reason, created_at FROM payment_requests WHERE id = \\$1 FOR UPDATE").
			WithArgs("pay1").
			WillReturnRows(pendingPaymentRows("pay1", "account1", models.PurposePromotion, 2000, nil))

		mock.ExpectQuery("SELECT id, balance, version, updated_at FROM accounts WHERE id = \\$1 FOR UPDATE").
			WithArgs("account1").
			WillReturnRows(sqlmock.NewRows([]string{"id", "balance", "version", "updated_at"}).
				AddRow("account1", 0, 1, time.Now()))

		mock.ExpectQuery("INSERT INTO ledger_entries").
			WithArgs("account1", int64(2000), models.ReasonTopUp, "pay1", int64(2000), sqlmock.AnyArg()).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))

		mock.ExpectExec("UPDATE accounts SET balance = \\$1, version = version \\+ 1, updated_at = \\$2 WHERE id = \\$3 AND version = \\$4").
			WithArgs(int64(2000), sqlmock.AnyArg(), "account1", 1).
			WillReturnResult(sqlmock.NewResult(1, 1))

		mock.ExpectExec("UPDATE payment_requests SET status = \\$1, reviewed_by = \\$2, reviewed_at = \\$3, reason = \\$4 WHERE id = \\$5 AND status = \\$6").
			WithArgs(models.PaymentStatusApproved, "admin1", sqlmock.AnyArg(), "", "pay1", models.PaymentStatusPending).
			WillReturnResult(sqlmock.NewResult(1, 1))

		mock.ExpectCommit()

		result, err := service.Approve("pay1", "admin1")
		assert.NoError(t, err)
		assert.Equal(t, "wallet-credited", result.Effect)
		assert.Equal(t, int64(2000), result.LedgerEntry.Amount)
		assert.Equal(t, int64(2000), result.LedgerEntry.Balance)
		assert.Equal(t, models.PaymentStatusApproved, result.Request.Status)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("registration approval activates the account", func(t *testing.T) {
		service, mock, db := newPaymentServiceForTest(t)
		defer db.Close()

		mock.ExpectBegin()
		mock.ExpectQuery("FROM payment_requests WHERE id = \\$1 FOR UPDATE").
			WithArgs("pay2").
			WillReturnRows(pendingPaymentRows("pay2", "account2", models.PurposeRegistration, 1500, "broker"))

		mock.ExpectExec("UPDATE accounts SET role = \\$1, status = \\$2, updated_at = \\$3 WHERE id = \\$4").
			WithArgs(models.RoleBroker, models.AccountStatusActive, sqlmock.AnyArg(), "account2").
			WillReturnResult(sqlmock.NewResult(1, 1))

		mock.ExpectExec("UPDATE payment_requests SET").
			WithArgs(models.PaymentStatusApproved, "admin1", sqlmock.AnyArg(), "", "pay2", models.PaymentStatusPending).
			WillReturnResult(sqlmock.NewResult(1, 1))

		mock.ExpectCommit()

		result, err := service.Approve("pay2", "admin1")
		assert.NoError(t, err)
		assert.Equal(t, "account-activated", result.Effect)
		assert.Nil(t, result.LedgerEntry)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("role upgrade approval changes the role only", func(t *testing.T) {
		service, mock, db := newPaymentServiceForTest(t)
		defer db.Close()

		mock.ExpectBegin()
		mock.ExpectQuery("FROM payment_requests WHERE id = \\$1 FOR UPDATE").
			WithArgs("pay3").
			WillReturnRows(pendingPaymentRows("pay3", "account3", models.PurposeRoleUpgrade, 1000, "builder"))

		mock.ExpectExec("UPDATE accounts SET role = \\$1, updated_at = \\$2 WHERE id = \\$3").
			WithArgs(models.RoleBuilder, sqlmock.AnyArg(), "account3").
			WillReturnResult(sqlmock.NewResult(1, 1))

		mock.ExpectExec("UPDATE payment_requests SET").
			WithArgs(models.PaymentStatusApproved, "admin1", sqlmock.AnyArg(), "", "pay3", models.PaymentStatusPending).
			WillReturnResult(sqlmock.NewResult(1, 1))

		mock.ExpectCommit()

		result, err := service.Approve("pay3", "admin1")
		assert.NoError(t, err)
		assert.Equal(t, "role-upgraded", result.Effect)
		assert.Nil(t, result.LedgerEntry)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("already reviewed request is refused", func(t *testing.T) {
		service, mock, db := newPaymentServiceForTest(t)
		defer db.Close()

		rows := sqlmock.NewRows([]string{
			"id", "account_id", "purpose", "amount", "screenshot_url", "utr_number",
			"requested_role", "status", "reviewed_by", "reviewed_at", "reason", "created_at",
		}).AddRow("pay4", "account4", models.PurposePromotion, 2000, "", nil,
			nil, models.PaymentStatusApproved, "admin1", time.Now(), nil, time.Now())

		mock.ExpectBegin()
		mock.ExpectQuery("FROM payment_requests WHERE id = \\$1 FOR UPDATE").
			WithArgs("pay4").
			WillReturnRows(rows)
		mock.ExpectRollback()

		_, err := service.Approve("pay4", "admin2")
		assert.ErrorIs(t, err, ErrAlreadyReviewed)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown request", func(t *testing.T) {
		service, mock, db := newPaymentServiceForTest(t)
		defer db.Close()

		mock.ExpectBegin()
		mock.ExpectQuery("FROM payment_requests WHERE id = \\$1 FOR UPDATE").
			WithArgs("missing").
			WillReturnError(sql.ErrNoRows)
		mock.ExpectRollback()

		_, err := service.Approve("missing", "admin1")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestPaymentService_GetPayment(t *testing.T) {
	paymentRow := func() *sqlmock.Rows {
		return sqlmock.NewRows([]string{
			"id", "account_id", "purpose", "amount", "screenshot_url", "utr_number",
			"requested_role", "status", "reviewed_by", "reviewed_at", "reason", "created_at",
		}).AddRow("pay1", "account1", models.PurposePromotion, 2000, "", "UTR12345",
			nil, models.PaymentStatusPending, nil, nil, nil, time.Now())
	}

	fetch := func(t *testing.T, service *PaymentService, callerID, role string) *httptest.ResponseRecorder {
		t.Helper()
		req := httptest.NewRequest(http.MethodGet, "/payments/pay1", nil)
		rctx := chi.NewRouteContext()
		rctx.URLParams.Add("id", "pay1")
		ctx := context.WithValue(req.Context(), chi.RouteCtxKey, rctx)
		ctx = context.WithValue(ctx, "userID", callerID)
		ctx = context.WithValue(ctx, "role", role)
		w := httptest.NewRecorder()
		service.GetPayment(w, req.WithContext(ctx))
		return w
	}

	t.Run("owner can fetch their request", func(t *testing.T) {
		service, mock, db := newPaymentServiceForTest(t)
		defer db.Close()

		mock.ExpectQuery("FROM payment_requests WHERE id = \\$1").
			WithArgs("pay1", 1).
			WillReturnRows(paymentRow())

		w := fetch(t, service, "account1", "owner")
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("other accounts see not found", func(t *testing.T) {
		service, mock, db := newPaymentServiceForTest(t)
		defer db.Close()

		mock.ExpectQuery("FROM payment_requests WHERE id = \\$1").
			WithArgs("pay1", 1).
			WillReturnRows(paymentRow())

		w := fetch(t, service, "account2", "broker")
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("admins can fetch any request", func(t *testing.T) {
		service, mock, db := newPaymentServiceForTest(t)
		defer db.Close()

		mock.ExpectQuery("FROM payment_requests WHERE id = \\$1").
			WithArgs("pay1", 1).
			WillReturnRows(paymentRow())

		w := fetch(t, service, "admin1", "admin")
		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestPaymentService_Reject(t *testing.T) {
	t.Run("rejection stores the reason and writes no ledger entry", func(t *testing.T) {
		service, mock, db := newPaymentServiceForTest(t)
		defer db.Close()

		mock.ExpectBegin()
		mock.ExpectQuery("FROM payment_requests WHERE id = \\$1 FOR UPDATE").
			WithArgs("pay1").
			WillReturnRows(pendingPaymentRows("pay1", "account1", models.PurposePromotion, 2000, nil))

		mock.ExpectExec("UPDATE payment_requests SET status = \\$1, reviewed_by = \\$2, reviewed_at = \\$3, reason = \\$4 WHERE id = \\$5 AND status = \\$6").
			WithArgs(models.PaymentStatusRejected, "admin1", sqlmock.AnyArg(), "blurry proof", "pay1", models.PaymentStatusPending).
			WillReturnResult(sqlmock.NewResult(1, 1))

		mock.ExpectCommit()

		payment, err := service.Reject("pay1", "admin1", "blurry proof")
		assert.NoError(t, err)
		assert.Equal(t, models.PaymentStatusRejected, payment.Status)
		assert.Equal(t, "blurry proof", payment.Reason)
		assert.Equal(t, "admin1", *payment.ReviewedBy)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("reject after approve is refused", func(t *testing.T) {
		service, mock, db := newPaymentServiceForTest(t)
		defer db.Close()

		rows := sqlmock.NewRows([]string{
			"id", "account_id", "purpose", "amount", "screenshot_url", "utr_number",
			"requested_role", "status", "reviewed_by", "reviewed_at", "reason", "created_at",
		}).AddRow("pay1", "account1", models.PurposePromotion, 2000, "", nil,
			nil, models.PaymentStatusApproved, "admin1", time.Now(), nil, time.Now())

		mock.ExpectBegin()
		mock.ExpectQuery("FROM payment_requests WHERE id = \\$1 FOR UPDATE").
			WithArgs("pay1").
			WillReturnRows(rows)
		mock.ExpectRollback()

		_, err := service.Reject("pay1", "admin2", "late rejection")
		assert.ErrorIs(t, err, ErrAlreadyReviewed)
	})

	t.Run("status flip between lock and update is refused", func(t *testing.T) {
		service, mock, db := newPaymentServiceForTest(t)
		defer db.Close()

		mock.ExpectBegin()
		mock.ExpectQuery("FROM payment_requests WHERE id = \\$1 FOR UPDATE").
			WithArgs("pay1").
			WillReturnRows(pendingPaymentRows("pay1", "account1", models.PurposePromotion, 2000, nil))

		mock.ExpectExec("UPDATE payment_requests SET").
			WithArgs(models.PaymentStatusRejected, "admin1", sqlmock.AnyArg(), "reason", "pay1", models.PaymentStatusPending).
			WillReturnResult(sqlmock.NewResult(1, 0)) // No rows affected

		mock.ExpectRollback()

		_, err := service.Reject("pay1", "admin1", "reason")
		assert.ErrorIs(t, err, ErrAlreadyReviewed)
	})
}
