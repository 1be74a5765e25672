package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/agricorus/agricorus-backend/pkg/enums"
)

// Lease is the binding agreement spawned when an owner approves a request.
// The installment schedule is derived from DurationMonths and
// PricePerMonthPaise rather than stored.
type Lease struct {
	ID                 uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	LandID             uuid.UUID         `gorm:"column:land_id;type:uuid;not null;index"`
	FarmerID           uuid.UUID         `gorm:"column:farmer_id;type:uuid;not null;index"`
	OwnerID            uuid.UUID         `gorm:"column:owner_id;type:uuid;not null;index"`
	RequestID          uuid.UUID         `gorm:"column:request_id;type:uuid;not null;uniqueIndex"`
	DurationMonths     int               `gorm:"column:duration_months;not null"`
	PricePerMonthPaise int64             `gorm:"column:price_per_month_paise;not null"`
	Status             enums.LeaseStatus `gorm:"column:status;type:lease_status;not null;default:'active'"`
	AgreementURL       *string           `gorm:"column:agreement_url;type:text"`
	StartedAt          time.Time         `gorm:"column:started_at;not null"`
	EndedAt            *time.Time        `gorm:"column:ended_at"`
	Land               *Land             `gorm:"foreignKey:LandID"`
	Farmer             *User             `gorm:"foreignKey:FarmerID"`
	Owner              *User             `gorm:"foreignKey:OwnerID"`
	CreatedAt          time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}
