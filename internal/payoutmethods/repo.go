package payoutmethods

import (
	"context"

	"github.com/agricorus/agricorus-backend/pkg/db/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository defines persistence operations for payout methods.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, method *models.PayoutMethod) (*models.PayoutMethod, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.PayoutMethod, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.PayoutMethod, error)
	Update(ctx context.Context, method *models.PayoutMethod) error
	Delete(ctx context.Context, id uuid.UUID) error
	ClearDefault(ctx context.Context, userID uuid.UUID) error
	SetDefault(ctx context.Context, id uuid.UUID) error
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

func (r *repository) Create(ctx context.Context, method *models.PayoutMethod) (*models.PayoutMethod, error) {
	if err := r.db.WithContext(ctx).Create(method).Error; err != nil {
		return nil, err
	}
	return method, nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.PayoutMethod, error) {
	var method models.PayoutMethod
	if err := r.db.WithContext(ctx).First(&method, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &method, nil
}

func (r *repository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.PayoutMethod, error) {
	var rows []models.PayoutMethod
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("is_default DESC, created_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) Update(ctx context.Context, method *models.PayoutMethod) error {
	return r.db.WithContext(ctx).Save(method).Error
}

func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.PayoutMethod{}, "id = ?", id).Error
}

func (r *repository) ClearDefault(ctx context.Context, userID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.PayoutMethod{}).
		Where("user_id = ? AND is_default", userID).
		Update("is_default", false).Error
}

func (r *repository) SetDefault(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.PayoutMethod{}).
		Where("id = ?", id).
		Update("is_default", true).Error
}
