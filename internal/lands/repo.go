package lands

import (
	"context"
	"strings"

	"github.com/agricorus/agricorus-backend/pkg/db/models"
	"github.com/agricorus/agricorus-backend/pkg/enums"
	"github.com/agricorus/agricorus-backend/pkg/pagination"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository defines persistence operations for land listings.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, land *models.Land) (*models.Land, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Land, error)
	Update(ctx context.Context, land *models.Land) error
	UpdateStatusIf(ctx context.Context, id uuid.UUID, from, to enums.LandStatus) (bool, error)
	SetReview(ctx context.Context, id uuid.UUID, approved bool, reason *string) error
	List(ctx context.Context, query landListQuery) (*LandListResult, error)
}

type landListQuery struct {
	Filters      LandListFilters
	Pagination   pagination.Params
	OwnerID      *uuid.UUID
	PublicOnly   bool
	ApprovedOnly *bool
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

func (r *repository) Create(ctx context.Context, land *models.Land) (*models.Land, error) {
	if err := r.db.WithContext(ctx).Create(land).Error; err != nil {
		return nil, err
	}
	return land, nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Land, error) {
	var land models.Land
	if err := r.db.WithContext(ctx).First(&land, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &land, nil
}

func (r *repository) Update(ctx context.Context, land *models.Land) error {
	return r.db.WithContext(ctx).Save(land).Error
}

// UpdateStatusIf performs a compare-and-set on the land status. It reports
// whether a row actually transitioned.
func (r *repository) UpdateStatusIf(ctx context.Context, id uuid.UUID, from, to enums.LandStatus) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Land{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *repository) SetReview(ctx context.Context, id uuid.UUID, approved bool, reason *string) error {
	updates := map[string]any{
		"is_approved":      approved,
		"rejection_reason": reason,
	}
	return r.db.WithContext(ctx).
		Model(&models.Land{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *repository) List(ctx context.Context, query landListQuery) (*LandListResult, error) {
	pageSize := pagination.NormalizeLimit(query.Pagination.Limit)
	limitWithBuffer := pagination.LimitWithBuffer(query.Pagination.Limit)

	cursor, err := pagination.ParseCursor(query.Pagination.Cursor)
	if err != nil {
		return nil, err
	}

	qb := r.db.WithContext(ctx).Model(&models.Land{})

	if query.OwnerID != nil {
		qb = qb.Where("owner_id = ?", *query.OwnerID)
	}
	if query.PublicOnly {
		qb = qb.Where("is_approved = ?", true)
		qb = qb.Where("status = ?", enums.LandStatusAvailable)
	}
	if query.ApprovedOnly != nil {
		qb = qb.Where("is_approved = ?", *query.ApprovedOnly)
	}

	filter := query.Filters
	if filter.SoilType != nil {
		qb = qb.Where("soil_type = ?", *filter.SoilType)
	}
	if filter.MinAcres != nil {
		qb = qb.Where("size_in_acres >= ?", *filter.MinAcres)
	}
	if filter.MaxAcres != nil {
		qb = qb.Where("size_in_acres <= ?", *filter.MaxAcres)
	}
	if filter.PriceMinPaise != nil {
		qb = qb.Where("lease_price_per_month_paise >= ?", *filter.PriceMinPaise)
	}
	if filter.PriceMaxPaise != nil {
		qb = qb.Where("lease_price_per_month_paise <= ?", *filter.PriceMaxPaise)
	}
	if filter.Status != nil {
		qb = qb.Where("status = ?", *filter.Status)
	}
	if search := strings.TrimSpace(filter.Query); search != "" {
		pattern := "%" + strings.ToLower(search) + "%"
		qb = qb.Where("(LOWER(title) LIKE ? OR LOWER(address) LIKE ?)", pattern, pattern)
	}

	if cursor != nil {
		qb = qb.Where("(created_at < ?) OR (created_at = ? AND id < ?)", cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}

	var rows []models.Land
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

	items := make([]LandDTO, 0, len(rows))
	for i := range rows {
		items = append(items, *FromModel(&rows[i]))
	}
	return &LandListResult{Items: items, NextCursor: nextCursor}, nil
}
