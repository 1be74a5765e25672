package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/agricorus/agricorus-backend/pkg/enums"
)

// Dispute is an escalation ticket raised by one lease party against the
// other, optionally anchored to a lease or an installment payment.
type Dispute struct {
	ID                  uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	RaisedByID          uuid.UUID             `gorm:"column:raised_by_id;type:uuid;not null;index"`
	AgainstID           uuid.UUID             `gorm:"column:against_id;type:uuid;not null;index"`
	LeaseID             *uuid.UUID            `gorm:"column:lease_id;type:uuid;index"`
	PaymentID           *uuid.UUID            `gorm:"column:payment_id;type:uuid"`
	Reason              string                `gorm:"column:reason;type:text;not null"`
	Details             *string               `gorm:"column:details;type:text"`
	Category            enums.DisputeCategory `gorm:"column:category;type:dispute_category;not null"`
	Attachments         pq.StringArray        `gorm:"column:attachments;type:text[]"`
	DateOfIncident      *time.Time            `gorm:"column:date_of_incident"`
	AmountInvolvedPaise *int64                `gorm:"column:amount_involved_paise"`
	PreferredResolution *string               `gorm:"column:preferred_resolution;type:text"`
	Status              enums.DisputeStatus   `gorm:"column:status;type:dispute_status;not null;default:'open'"`
	ResolutionNote      *string               `gorm:"column:resolution_note;type:text"`
	AdminRemarks        *string               `gorm:"column:admin_remarks;type:text"`
	ActionTakenByID     *uuid.UUID            `gorm:"column:action_taken_by_id;type:uuid"`
	ActionTakenAt       *time.Time            `gorm:"column:action_taken_at"`
	RaisedBy            *User                 `gorm:"foreignKey:RaisedByID"`
	Against             *User                 `gorm:"foreignKey:AgainstID"`
	CreatedAt           time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt           time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}
