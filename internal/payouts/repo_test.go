package payouts

import (
	"context"
	"testing"
	"time"

	"github.com/agricorus/agricorus-backend/pkg/db/models"
	"github.com/agricorus/agricorus-backend/pkg/enums"
	"github.com/agricorus/agricorus-backend/pkg/pagination"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupPayoutsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	ddl := []string{`
CREATE TABLE IF NOT EXISTS lease_payments (
  id TEXT PRIMARY KEY,
  lease_id TEXT NOT NULL,
  farmer_id TEXT NOT NULL,
  owner_id TEXT NOT NULL,
  land_id TEXT NOT NULL,
  amount_paise INTEGER NOT NULL,
  method TEXT NOT NULL DEFAULT 'razorpay',
  status TEXT NOT NULL DEFAULT 'pending',
  installment_number INTEGER NOT NULL,
  gateway_order_id TEXT NOT NULL,
  transaction_id TEXT,
  paid_at DATETIME,
  failure_reason TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`, `
CREATE TABLE IF NOT EXISTS payout_requests (
  id TEXT PRIMARY KEY,
  lease_id TEXT NOT NULL,
  land_id TEXT NOT NULL,
  farmer_id TEXT NOT NULL,
  owner_id TEXT NOT NULL,
  payout_method_id TEXT NOT NULL,
  amount_paise INTEGER NOT NULL,
  status TEXT NOT NULL DEFAULT 'pending',
  requested_at DATETIME NOT NULL,
  reviewed_at DATETIME,
  admin_note TEXT,
  history TEXT,
  transaction_id TEXT,
  payment_date DATETIME,
  receipt_url TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`, `
CREATE UNIQUE INDEX IF NOT EXISTS uq_payout_requests_pending
  ON payout_requests (lease_id)
  WHERE status = 'pending';`}
	for _, stmt := range ddl {
		require.NoError(t, db.Exec(stmt).Error)
	}
	return db
}

func seedPayment(t *testing.T, db *gorm.DB, leaseID uuid.UUID, installment int, amountPaise int64, status enums.LeasePaymentStatus) {
	t.Helper()
	now := time.Now()
	require.NoError(t, db.Create(&models.LeasePayment{
		ID:                uuid.New(),
		LeaseID:           leaseID,
		FarmerID:          uuid.New(),
		OwnerID:           uuid.New(),
		LandID:            uuid.New(),
		AmountPaise:       amountPaise,
		Method:            enums.PaymentMethodRazorpay,
		Status:            status,
		InstallmentNumber: installment,
		GatewayOrderID:    uuid.NewString(),
		CreatedAt:         now,
		UpdatedAt:         now,
	}).Error)
}

func seedPayout(t *testing.T, db *gorm.DB, leaseID, ownerID uuid.UUID, amountPaise int64, status enums.PayoutRequestStatus) *models.PayoutRequest {
	t.Helper()
	now := time.Now()
	request := &models.PayoutRequest{
		ID:             uuid.New(),
		LeaseID:        leaseID,
		LandID:         uuid.New(),
		FarmerID:       uuid.New(),
		OwnerID:        ownerID,
		PayoutMethodID: uuid.New(),
		AmountPaise:    amountPaise,
		Status:         status,
		RequestedAt:    now,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	require.NoError(t, db.Create(request).Error)
	return request
}

func TestSumSuccessfulPaymentsIgnoresNonSuccess(t *testing.T) {
	db := setupPayoutsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	leaseID := uuid.New()

	seedPayment(t, db, leaseID, 1, 100000, enums.LeasePaymentStatusSuccess)
	seedPayment(t, db, leaseID, 2, 100000, enums.LeasePaymentStatusSuccess)
	seedPayment(t, db, leaseID, 3, 100000, enums.LeasePaymentStatusFailed)
	seedPayment(t, db, uuid.New(), 1, 100000, enums.LeasePaymentStatusSuccess)

	total, err := repo.SumSuccessfulPayments(ctx, leaseID)
	require.NoError(t, err)
	assert.Equal(t, int64(200000), total)

	empty, err := repo.SumSuccessfulPayments(ctx, uuid.New())
	require.NoError(t, err)
	assert.Zero(t, empty)
}

func TestSumCommittedPayoutsExcludesRowUnderReview(t *testing.T) {
	db := setupPayoutsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	leaseID := uuid.New()
	ownerID := uuid.New()

	approved := seedPayout(t, db, leaseID, ownerID, 100000, enums.PayoutRequestStatusApproved)
	seedPayout(t, db, leaseID, ownerID, 50000, enums.PayoutRequestStatusPaid)
	seedPayout(t, db, leaseID, ownerID, 70000, enums.PayoutRequestStatusRejected)
	pending := seedPayout(t, db, leaseID, ownerID, 30000, enums.PayoutRequestStatusPending)

	total, err := repo.SumCommittedPayouts(ctx, leaseID, pending.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(150000), total)

	totalExcludingApproved, err := repo.SumCommittedPayouts(ctx, leaseID, approved.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(50000), totalExcludingApproved)
}

func TestHasPendingForLeaseScoping(t *testing.T) {
	db := setupPayoutsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	leaseID := uuid.New()

	seedPayout(t, db, leaseID, uuid.New(), 100000, enums.PayoutRequestStatusApproved)

	pending, err := repo.HasPendingForLease(ctx, leaseID)
	require.NoError(t, err)
	assert.False(t, pending)

	seedPayout(t, db, leaseID, uuid.New(), 100000, enums.PayoutRequestStatusPending)

	pending, err = repo.HasPendingForLease(ctx, leaseID)
	require.NoError(t, err)
	assert.True(t, pending)
}

func TestListFiltersByOwnerAndStatus(t *testing.T) {
	db := setupPayoutsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	ownerID := uuid.New()

	seedPayout(t, db, uuid.New(), ownerID, 100000, enums.PayoutRequestStatusPending)
	seedPayout(t, db, uuid.New(), ownerID, 50000, enums.PayoutRequestStatusPaid)
	seedPayout(t, db, uuid.New(), uuid.New(), 70000, enums.PayoutRequestStatusPending)

	result, err := repo.List(ctx, payoutListQuery{
		OwnerID:    &ownerID,
		Pagination: pagination.Params{Limit: 10},
	})
	require.NoError(t, err)
	assert.Len(t, result.Items, 2)

	status := enums.PayoutRequestStatusPending
	result, err = repo.List(ctx, payoutListQuery{
		OwnerID:    &ownerID,
		Status:     &status,
		Pagination: pagination.Params{Limit: 10},
	})
	require.NoError(t, err)
	require.Len(t, result.Items, 1)
	assert.Equal(t, enums.PayoutRequestStatusPending, result.Items[0].Status)
}

func TestUpdateIfStatusPersistsHistory(t *testing.T) {
	db := setupPayoutsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	request := seedPayout(t, db, uuid.New(), uuid.New(), 100000, enums.PayoutRequestStatusPending)

	adminID := uuid.New()
	now := time.Now().UTC()
	request.Status = enums.PayoutRequestStatusApproved
	request.ReviewedAt = &now
	request.History = append(request.History, models.PayoutReviewEntry{
		Status:    enums.PayoutRequestStatusApproved,
		AdminNote: "verified",
		ChangedBy: adminID,
		ChangedAt: now,
	})
	moved, err := repo.UpdateIfStatus(ctx, request, enums.PayoutRequestStatusPending)
	require.NoError(t, err)
	require.True(t, moved)

	reloaded, err := repo.FindByID(ctx, request.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.PayoutRequestStatusApproved, reloaded.Status)
	require.Len(t, reloaded.History, 1)
	assert.Equal(t, adminID, reloaded.History[0].ChangedBy)
}

func TestUpdateIfStatusSkipsDecidedRows(t *testing.T) {
	db := setupPayoutsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	request := seedPayout(t, db, uuid.New(), uuid.New(), 100000, enums.PayoutRequestStatusCancelled)

	request.Status = enums.PayoutRequestStatusApproved
	moved, err := repo.UpdateIfStatus(ctx, request, enums.PayoutRequestStatusPending)
	require.NoError(t, err)
	assert.False(t, moved)

	reloaded, err := repo.FindByID(ctx, request.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.PayoutRequestStatusCancelled, reloaded.Status)
}

func TestSecondPendingPayoutRejectedByIndex(t *testing.T) {
	db := setupPayoutsTestDB(t)

	leaseID := uuid.New()
	seedPayout(t, db, leaseID, uuid.New(), 100000, enums.PayoutRequestStatusPending)

	rival := &models.PayoutRequest{
		ID:             uuid.New(),
		LeaseID:        leaseID,
		LandID:         uuid.New(),
		FarmerID:       uuid.New(),
		OwnerID:        uuid.New(),
		PayoutMethodID: uuid.New(),
		AmountPaise:    50000,
		Status:         enums.PayoutRequestStatusPending,
		RequestedAt:    time.Now(),
	}
	assert.Error(t, db.Create(rival).Error)

	// decided rows do not block a fresh request
	rival.ID = uuid.New()
	rival.Status = enums.PayoutRequestStatusCancelled
	require.NoError(t, db.Create(rival).Error)

	rival.ID = uuid.New()
	rival.Status = enums.PayoutRequestStatusPending
	assert.Error(t, db.Create(rival).Error)
}
