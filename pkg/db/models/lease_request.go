package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/agricorus/agricorus-backend/pkg/enums"
)

// LeaseRequest is a farmer's application for a land parcel, pre-acceptance.
// A partial unique index keeps one pending request per (land, farmer).
type LeaseRequest struct {
	ID          uuid.UUID                `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	LandID      uuid.UUID                `gorm:"column:land_id;type:uuid;not null;index"`
	FarmerID    uuid.UUID                `gorm:"column:farmer_id;type:uuid;not null;index"`
	StartDate   *time.Time               `gorm:"column:start_date"`
	EndDate     *time.Time               `gorm:"column:end_date"`
	Terms       *string                  `gorm:"column:terms;type:text"`
	AmountPaise int64                    `gorm:"column:amount_paise;not null"`
	Status      enums.LeaseRequestStatus `gorm:"column:status;type:lease_request_status;not null;default:'pending'"`
	EscrowID    *string                  `gorm:"column:escrow_id;type:text"`
	Land        *Land                    `gorm:"foreignKey:LandID"`
	Farmer      *User                    `gorm:"foreignKey:FarmerID"`
	CreatedAt   time.Time                `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time                `gorm:"column:updated_at;autoUpdateTime"`
}
