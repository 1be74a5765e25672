package leasepayments

import (
	"context"
	"time"

	"github.com/agricorus/agricorus-backend/pkg/db/models"
	"github.com/agricorus/agricorus-backend/pkg/enums"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository defines persistence operations for installment payments.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	FindLeaseForUpdate(ctx context.Context, leaseID uuid.UUID) (*models.Lease, error)
	FindLease(ctx context.Context, leaseID uuid.UUID) (*models.Lease, error)
	CountSuccessful(ctx context.Context, leaseID uuid.UUID) (int, error)
	HasPending(ctx context.Context, leaseID uuid.UUID) (bool, error)
	SuccessfulPayments(ctx context.Context, leaseID uuid.UUID) ([]models.LeasePayment, error)
	ListByLease(ctx context.Context, leaseID uuid.UUID) ([]models.LeasePayment, error)
	Create(ctx context.Context, payment *models.LeasePayment) (*models.LeasePayment, error)
	FindByGatewayOrderID(ctx context.Context, gatewayOrderID string) (*models.LeasePayment, error)
	MarkSuccess(ctx context.Context, id uuid.UUID, transactionID string, paidAt time.Time) (bool, error)
	MarkFailed(ctx context.Context, id uuid.UUID, reason string) (bool, error)
	ListCompletableLeases(ctx context.Context, limit int) ([]models.Lease, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	return &repository{db: tx}
}

// FindLeaseForUpdate takes a row lock so concurrent initiations serialize on
// the lease.
func (r *repository) FindLeaseForUpdate(ctx context.Context, leaseID uuid.UUID) (*models.Lease, error) {
	var lease models.Lease
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&lease, "id = ?", leaseID).Error
	if err != nil {
		return nil, err
	}
	return &lease, nil
}

func (r *repository) FindLease(ctx context.Context, leaseID uuid.UUID) (*models.Lease, error) {
	var lease models.Lease
	if err := r.db.WithContext(ctx).First(&lease, "id = ?", leaseID).Error; err != nil {
		return nil, err
	}
	return &lease, nil
}

func (r *repository) CountSuccessful(ctx context.Context, leaseID uuid.UUID) (int, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.LeasePayment{}).
		Where("lease_id = ? AND status = ?", leaseID, enums.LeasePaymentStatusSuccess).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return int(count), nil
}

func (r *repository) HasPending(ctx context.Context, leaseID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.LeasePayment{}).
		Where("lease_id = ? AND status = ?", leaseID, enums.LeasePaymentStatusPending).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *repository) SuccessfulPayments(ctx context.Context, leaseID uuid.UUID) ([]models.LeasePayment, error) {
	var rows []models.LeasePayment
	err := r.db.WithContext(ctx).
		Where("lease_id = ? AND status = ?", leaseID, enums.LeasePaymentStatusSuccess).
		Order("installment_number ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) ListByLease(ctx context.Context, leaseID uuid.UUID) ([]models.LeasePayment, error) {
	var rows []models.LeasePayment
	err := r.db.WithContext(ctx).
		Where("lease_id = ?", leaseID).
		Order("created_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) Create(ctx context.Context, payment *models.LeasePayment) (*models.LeasePayment, error) {
	if err := r.db.WithContext(ctx).Create(payment).Error; err != nil {
		return nil, err
	}
	return payment, nil
}

func (r *repository) FindByGatewayOrderID(ctx context.Context, gatewayOrderID string) (*models.LeasePayment, error) {
	var payment models.LeasePayment
	err := r.db.WithContext(ctx).
		First(&payment, "gateway_order_id = ?", gatewayOrderID).Error
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

// MarkSuccess settles a pending attempt. The status guard keeps terminal
// rows immutable.
func (r *repository) MarkSuccess(ctx context.Context, id uuid.UUID, transactionID string, paidAt time.Time) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.LeasePayment{}).
		Where("id = ? AND status = ?", id, enums.LeasePaymentStatusPending).
		Updates(map[string]any{
			"status":         enums.LeasePaymentStatusSuccess,
			"transaction_id": transactionID,
			"paid_at":        paidAt,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *repository) MarkFailed(ctx context.Context, id uuid.UUID, reason string) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.LeasePayment{}).
		Where("id = ? AND status = ?", id, enums.LeasePaymentStatusPending).
		Updates(map[string]any{
			"status":         enums.LeasePaymentStatusFailed,
			"failure_reason": reason,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// ListCompletableLeases returns active leases whose successful payment count
// has reached the full duration.
func (r *repository) ListCompletableLeases(ctx context.Context, limit int) ([]models.Lease, error) {
	var rows []models.Lease
	err := r.db.WithContext(ctx).
		Model(&models.Lease{}).
		Where("status = ?", enums.LeaseStatusActive).
		Where(`duration_months <= (
			SELECT COUNT(*) FROM lease_payments lp
			WHERE lp.lease_id = leases.id AND lp.status = ?
		)`, enums.LeasePaymentStatusSuccess).
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
