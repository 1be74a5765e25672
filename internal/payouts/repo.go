package payouts

import (
	"context"

	"github.com/agricorus/agricorus-backend/pkg/db/models"
	"github.com/agricorus/agricorus-backend/pkg/enums"
	"github.com/agricorus/agricorus-backend/pkg/pagination"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository defines persistence operations for payout requests.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, request *models.PayoutRequest) (*models.PayoutRequest, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.PayoutRequest, error)
	HasPendingForLease(ctx context.Context, leaseID uuid.UUID) (bool, error)
	UpdateIfStatus(ctx context.Context, request *models.PayoutRequest, from enums.PayoutRequestStatus) (bool, error)
	SumSuccessfulPayments(ctx context.Context, leaseID uuid.UUID) (int64, error)
	SumCommittedPayouts(ctx context.Context, leaseID, excludeID uuid.UUID) (int64, error)
	List(ctx context.Context, query payoutListQuery) (*PayoutListResult, error)
}

type payoutListQuery struct {
	OwnerID    *uuid.UUID
	Status     *enums.PayoutRequestStatus
	Pagination pagination.Params
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

func (r *repository) Create(ctx context.Context, request *models.PayoutRequest) (*models.PayoutRequest, error) {
	if err := r.db.WithContext(ctx).Create(request).Error; err != nil {
		return nil, err
	}
	return request, nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.PayoutRequest, error) {
	var request models.PayoutRequest
	if err := r.db.WithContext(ctx).First(&request, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &request, nil
}

func (r *repository) HasPendingForLease(ctx context.Context, leaseID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.PayoutRequest{}).
		Where("lease_id = ? AND status = ?", leaseID, enums.PayoutRequestStatusPending).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// UpdateIfStatus persists the request only while its stored status still
// matches from. Racing transitions lose the write and see zero rows affected,
// so a decided request is never overwritten.
func (r *repository) UpdateIfStatus(ctx context.Context, request *models.PayoutRequest, from enums.PayoutRequestStatus) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.PayoutRequest{}).
		Where("id = ? AND status = ?", request.ID, from).
		Select("status", "reviewed_at", "admin_note", "history", "transaction_id", "payment_date", "receipt_url").
		Updates(request)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// SumSuccessfulPayments totals the rent actually collected on a lease.
func (r *repository) SumSuccessfulPayments(ctx context.Context, leaseID uuid.UUID) (int64, error) {
	var total *int64
	err := r.db.WithContext(ctx).
		Model(&models.LeasePayment{}).
		Select("SUM(amount_paise)").
		Where("lease_id = ? AND status = ?", leaseID, enums.LeasePaymentStatusSuccess).
		Scan(&total).Error
	if err != nil {
		return 0, err
	}
	if total == nil {
		return 0, nil
	}
	return *total, nil
}

// SumCommittedPayouts totals approved and paid payout requests on a lease,
// excluding the row under review.
func (r *repository) SumCommittedPayouts(ctx context.Context, leaseID, excludeID uuid.UUID) (int64, error) {
	var total *int64
	err := r.db.WithContext(ctx).
		Model(&models.PayoutRequest{}).
		Select("SUM(amount_paise)").
		Where("lease_id = ? AND id <> ?", leaseID, excludeID).
		Where("status IN ?", []enums.PayoutRequestStatus{
			enums.PayoutRequestStatusApproved,
			enums.PayoutRequestStatusPaid,
		}).
		Scan(&total).Error
	if err != nil {
		return 0, err
	}
	if total == nil {
		return 0, nil
	}
	return *total, nil
}

func (r *repository) List(ctx context.Context, query payoutListQuery) (*PayoutListResult, error) {
	pageSize := pagination.NormalizeLimit(query.Pagination.Limit)
	limitWithBuffer := pagination.LimitWithBuffer(query.Pagination.Limit)

	cursor, err := pagination.ParseCursor(query.Pagination.Cursor)
	if err != nil {
		return nil, err
	}

	qb := r.db.WithContext(ctx).Model(&models.PayoutRequest{})
	if query.OwnerID != nil {
		qb = qb.Where("owner_id = ?", *query.OwnerID)
	}
	if query.Status != nil {
		qb = qb.Where("status = ?", *query.Status)
	}
	if cursor != nil {
		qb = qb.Where("(created_at < ?) OR (created_at = ? AND id < ?)", cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}

	var rows []models.PayoutRequest
	if err := qb.Order("created_at DESC").Order("id DESC").Limit(limitWithBuffer).Find(&rows).Error; err != nil {
		return nil, err
	}

	nextCursor := ""
	if len(rows) > pageSize {
		rows = rows[:pageSize]
		last := rows[len(rows)-1]
		nextCursor = pagination.EncodeCursor(pagination.Cursor{
			CreatedAt: last.CreatedAt,
			ID:        last.ID,
		})
	}

	items := make([]PayoutDTO, 0, len(rows))
	for i := range rows {
		items = append(items, *FromModel(&rows[i]))
	}
	return &PayoutListResult{Items: items, NextCursor: nextCursor}, nil
}
