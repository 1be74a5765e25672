package leasing

import (
	"context"
	"time"

	"github.com/agricorus/agricorus-backend/pkg/db/models"
	"github.com/agricorus/agricorus-backend/pkg/enums"
	"github.com/agricorus/agricorus-backend/pkg/pagination"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository defines persistence operations for lease requests and leases.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	CreateRequest(ctx context.Context, req *models.LeaseRequest) (*models.LeaseRequest, error)
	FindRequestByID(ctx context.Context, id uuid.UUID) (*models.LeaseRequest, error)
	HasPendingRequest(ctx context.Context, landID, farmerID uuid.UUID) (bool, error)
	ListPendingRequestsByLand(ctx context.Context, landID uuid.UUID) ([]models.LeaseRequest, error)
	UpdateRequestStatusIf(ctx context.Context, id uuid.UUID, from, to enums.LeaseRequestStatus) (bool, error)
	ListExpirablePendingRequests(ctx context.Context, limit int) ([]models.LeaseRequest, error)
	ListRequestsByFarmer(ctx context.Context, farmerID uuid.UUID, params pagination.Params) (*RequestListResult, error)
	ListRequestsByOwner(ctx context.Context, ownerID uuid.UUID, params pagination.Params) (*RequestListResult, error)

	CreateLease(ctx context.Context, lease *models.Lease) (*models.Lease, error)
	FindLeaseByID(ctx context.Context, id uuid.UUID) (*models.Lease, error)
	UpdateLeaseStatusIf(ctx context.Context, id uuid.UUID, from, to enums.LeaseStatus, endedAt *time.Time) (bool, error)
	ListLeases(ctx context.Context, query leaseListQuery) (*LeaseListResult, error)
}

type leaseListQuery struct {
	FarmerID   *uuid.UUID
	OwnerID    *uuid.UUID
	Status     *enums.LeaseStatus
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

func (r *repository) CreateRequest(ctx context.Context, req *models.LeaseRequest) (*models.LeaseRequest, error) {
	if err := r.db.WithContext(ctx).Create(req).Error; err != nil {
		return nil, err
	}
	return req, nil
}

func (r *repository) FindRequestByID(ctx context.Context, id uuid.UUID) (*models.LeaseRequest, error) {
	var req models.LeaseRequest
	if err := r.db.WithContext(ctx).First(&req, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *repository) HasPendingRequest(ctx context.Context, landID, farmerID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.LeaseRequest{}).
		Where("land_id = ? AND farmer_id = ? AND status = ?", landID, farmerID, enums.LeaseRequestStatusPending).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *repository) ListPendingRequestsByLand(ctx context.Context, landID uuid.UUID) ([]models.LeaseRequest, error) {
	var rows []models.LeaseRequest
	err := r.db.WithContext(ctx).
		Where("land_id = ? AND status = ?", landID, enums.LeaseRequestStatusPending).
		Order("created_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// ListExpirablePendingRequests returns pending requests whose land can no
// longer host them, either because it was leased to someone else or pulled
// from the marketplace.
func (r *repository) ListExpirablePendingRequests(ctx context.Context, limit int) ([]models.LeaseRequest, error) {
	var rows []models.LeaseRequest
	err := r.db.WithContext(ctx).
		Joins("JOIN lands ON lands.id = lease_requests.land_id").
		Where("lease_requests.status = ?", enums.LeaseRequestStatusPending).
		Where("lands.status <> ? OR lands.is_approved = ?", enums.LandStatusAvailable, false).
		Order("lease_requests.created_at ASC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// UpdateRequestStatusIf performs a compare-and-set on the request status.
func (r *repository) UpdateRequestStatusIf(ctx context.Context, id uuid.UUID, from, to enums.LeaseRequestStatus) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.LeaseRequest{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *repository) ListRequestsByFarmer(ctx context.Context, farmerID uuid.UUID, params pagination.Params) (*RequestListResult, error) {
	qb := r.db.WithContext(ctx).
		Model(&models.LeaseRequest{}).
		Where("farmer_id = ?", farmerID)
	return r.pageRequests(qb, params)
}

func (r *repository) ListRequestsByOwner(ctx context.Context, ownerID uuid.UUID, params pagination.Params) (*RequestListResult, error) {
	qb := r.db.WithContext(ctx).
		Model(&models.LeaseRequest{}).
		Joins("JOIN lands ON lands.id = lease_requests.land_id").
		Where("lands.owner_id = ?", ownerID)
	return r.pageRequests(qb, params)
}

func (r *repository) pageRequests(qb *gorm.DB, params pagination.Params) (*RequestListResult, error) {
	pageSize := pagination.NormalizeLimit(params.Limit)
	limitWithBuffer := pagination.LimitWithBuffer(params.Limit)

	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, err
	}
	if cursor != nil {
		qb = qb.Where("(lease_requests.created_at < ?) OR (lease_requests.created_at = ? AND lease_requests.id < ?)",
			cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}

	var rows []models.LeaseRequest
	if err := qb.Order("lease_requests.created_at DESC").
		Order("lease_requests.id DESC").
		Limit(limitWithBuffer).
		Find(&rows).Error; err != nil {
		return nil, err
	}

	nextCursor := ""
	if len(rows) > pageSize {
		rows = rows[:pageSize]
		last := rows[len(rows)-1]
		nextCursor = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}

	items := make([]LeaseRequestDTO, 0, len(rows))
	for i := range rows {
		items = append(items, *RequestFromModel(&rows[i]))
	}
	return &RequestListResult{Items: items, NextCursor: nextCursor}, nil
}

func (r *repository) CreateLease(ctx context.Context, lease *models.Lease) (*models.Lease, error) {
	if err := r.db.WithContext(ctx).Create(lease).Error; err != nil {
		return nil, err
	}
	return lease, nil
}

func (r *repository) FindLeaseByID(ctx context.Context, id uuid.UUID) (*models.Lease, error) {
	var lease models.Lease
	if err := r.db.WithContext(ctx).First(&lease, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &lease, nil
}

// UpdateLeaseStatusIf performs a compare-and-set on the lease status and
// optionally stamps the end time in the same update.
func (r *repository) UpdateLeaseStatusIf(ctx context.Context, id uuid.UUID, from, to enums.LeaseStatus, endedAt *time.Time) (bool, error) {
	updates := map[string]any{"status": to}
	if endedAt != nil {
		updates["ended_at"] = *endedAt
	}
	result := r.db.WithContext(ctx).
		Model(&models.Lease{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *repository) ListLeases(ctx context.Context, query leaseListQuery) (*LeaseListResult, error) {
	pageSize := pagination.NormalizeLimit(query.Pagination.Limit)
	limitWithBuffer := pagination.LimitWithBuffer(query.Pagination.Limit)

	cursor, err := pagination.ParseCursor(query.Pagination.Cursor)
	if err != nil {
		return nil, err
	}

	qb := r.db.WithContext(ctx).Model(&models.Lease{})
	if query.FarmerID != nil {
		qb = qb.Where("farmer_id = ?", *query.FarmerID)
	}
	if query.OwnerID != nil {
		qb = qb.Where("owner_id = ?", *query.OwnerID)
	}
	if query.Status != nil {
		qb = qb.Where("status = ?", *query.Status)
	}
	if cursor != nil {
		qb = qb.Where("(created_at < ?) OR (created_at = ? AND id < ?)", cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}

	var rows []models.Lease
	if err := qb.Order("created_at DESC").Order("id DESC").Limit(limitWithBuffer).Find(&rows).Error; err != nil {
		return nil, err
	}

	nextCursor := ""
	if len(rows) > pageSize {
		rows = rows[:pageSize]
		last := rows[len(rows)-1]
		nextCursor = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}

	items := make([]LeaseDTO, 0, len(rows))
	for i := range rows {
		items = append(items, *LeaseFromModel(&rows[i]))
	}
	return &LeaseListResult{Items: items, NextCursor: nextCursor}, nil
}
