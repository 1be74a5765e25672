package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/agricorus/agricorus-backend/pkg/enums"
)

// Land represents a landowner-listed parcel. Listings stay hidden from
// farmers until an admin approves them; status tracks availability
// independently of the approval gate.
type Land struct {
	ID                      uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OwnerID                 uuid.UUID        `gorm:"column:owner_id;type:uuid;not null;index"`
	Title                   string           `gorm:"column:title;type:text;not null"`
	Address                 string           `gorm:"column:address;type:text"`
	Latitude                *float64         `gorm:"column:latitude"`
	Longitude               *float64         `gorm:"column:longitude"`
	SoilType                string           `gorm:"column:soil_type;type:text;not null"`
	WaterSource             *string          `gorm:"column:water_source;type:text"`
	Accessibility           *string          `gorm:"column:accessibility;type:text"`
	SizeInAcres             float64          `gorm:"column:size_in_acres;not null"`
	LeasePricePerMonthPaise int64            `gorm:"column:lease_price_per_month_paise;not null"`
	LeaseDurationMonths     int              `gorm:"column:lease_duration_months;not null"`
	LandPhotos              pq.StringArray   `gorm:"column:land_photos;type:text[]"`
	LandDocuments           pq.StringArray   `gorm:"column:land_documents;type:text[]"`
	Status                  enums.LandStatus `gorm:"column:status;type:land_status;not null;default:'available'"`
	IsApproved              bool             `gorm:"column:is_approved;not null;default:false"`
	RejectionReason         *string          `gorm:"column:rejection_reason;type:text"`
	Owner                   *User            `gorm:"foreignKey:OwnerID"`
	CreatedAt               time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt               time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}
