package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/agricorus/agricorus-backend/pkg/enums"
)

// LeasePayment records one installment attempt. Rows never mutate after a
// terminal status; partial unique indexes enforce one success and at most
// one in-flight attempt per (lease, installment).
type LeasePayment struct {
	ID                uuid.UUID                `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	LeaseID           uuid.UUID                `gorm:"column:lease_id;type:uuid;not null;index"`
	FarmerID          uuid.UUID                `gorm:"column:farmer_id;type:uuid;not null;index"`
	OwnerID           uuid.UUID                `gorm:"column:owner_id;type:uuid;not null;index"`
	LandID            uuid.UUID                `gorm:"column:land_id;type:uuid;not null"`
	AmountPaise       int64                    `gorm:"column:amount_paise;not null"`
	Method            enums.PaymentMethod      `gorm:"column:method;type:payment_method;not null;default:'razorpay'"`
	Status            enums.LeasePaymentStatus `gorm:"column:status;type:lease_payment_status;not null;default:'pending'"`
	InstallmentNumber int                      `gorm:"column:installment_number;not null"`
	GatewayOrderID    string                   `gorm:"column:gateway_order_id;type:text;not null;uniqueIndex"`
	TransactionID     *string                  `gorm:"column:transaction_id;type:text"`
	PaidAt            *time.Time               `gorm:"column:paid_at"`
	FailureReason     *string                  `gorm:"column:failure_reason;type:text"`
	Lease             *Lease                   `gorm:"foreignKey:LeaseID"`
	CreatedAt         time.Time                `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time                `gorm:"column:updated_at;autoUpdateTime"`
}
