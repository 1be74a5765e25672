package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/agricorus/agricorus-backend/pkg/enums"
)

// PayoutReviewEntry is one admin action appended to a payout request's
// history column.
type PayoutReviewEntry struct {
	Status    enums.PayoutRequestStatus `json:"status"`
	AdminNote string                    `json:"admin_note,omitempty"`
	ChangedBy uuid.UUID                 `json:"changed_by"`
	ChangedAt time.Time                 `json:"changed_at"`
}

// PayoutRequest is a landowner's ask to withdraw accrued lease income via a
// registered payout method. Approval records authorization only; the bank
// transfer happens out of band and its settlement record is attached via
// MarkPaid.
type PayoutRequest struct {
	ID             uuid.UUID                 `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	LeaseID        uuid.UUID                 `gorm:"column:lease_id;type:uuid;not null;index"`
	LandID         uuid.UUID                 `gorm:"column:land_id;type:uuid;not null"`
	FarmerID       uuid.UUID                 `gorm:"column:farmer_id;type:uuid;not null"`
	OwnerID        uuid.UUID                 `gorm:"column:owner_id;type:uuid;not null;index"`
	PayoutMethodID uuid.UUID                 `gorm:"column:payout_method_id;type:uuid;not null"`
	AmountPaise    int64                     `gorm:"column:amount_paise;not null"`
	Status         enums.PayoutRequestStatus `gorm:"column:status;type:payout_request_status;not null;default:'pending'"`
	RequestedAt    time.Time                 `gorm:"column:requested_at;not null"`
	ReviewedAt     *time.Time                `gorm:"column:reviewed_at"`
	AdminNote      *string                   `gorm:"column:admin_note;type:text"`
	History        []PayoutReviewEntry       `gorm:"column:history;type:jsonb;serializer:json"`
	TransactionID  *string                   `gorm:"column:transaction_id;type:text"`
	PaymentDate    *time.Time                `gorm:"column:payment_date"`
	ReceiptURL     *string                   `gorm:"column:receipt_url;type:text"`
	Lease          *Lease                    `gorm:"foreignKey:LeaseID"`
	PayoutMethod   *PayoutMethod             `gorm:"foreignKey:PayoutMethodID"`
	CreatedAt      time.Time                 `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time                 `gorm:"column:updated_at;autoUpdateTime"`
}
