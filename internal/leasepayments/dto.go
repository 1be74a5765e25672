package leasepayments

import (
	"time"

	"github.com/agricorus/agricorus-backend/pkg/db/models"
	"github.com/agricorus/agricorus-backend/pkg/enums"
	"github.com/google/uuid"
)

// PaymentDTO is the API shape of one installment attempt.
type PaymentDTO struct {
	ID                uuid.UUID                `json:"id"`
	LeaseID           uuid.UUID                `json:"lease_id"`
	FarmerID          uuid.UUID                `json:"farmer_id"`
	OwnerID           uuid.UUID                `json:"owner_id"`
	AmountPaise       int64                    `json:"amount_paise"`
	Method            enums.PaymentMethod      `json:"method"`
	Status            enums.LeasePaymentStatus `json:"status"`
	InstallmentNumber int                      `json:"installment_number"`
	GatewayOrderID    string                   `json:"gateway_order_id"`
	TransactionID     *string                  `json:"transaction_id,omitempty"`
	PaidAt            *time.Time               `json:"paid_at,omitempty"`
	FailureReason     *string                  `json:"failure_reason,omitempty"`
	CreatedAt         time.Time                `json:"created_at"`
}

// FromModel converts a payment row into its API shape.
func FromModel(payment *models.LeasePayment) *PaymentDTO {
	if payment == nil {
		return nil
	}
	return &PaymentDTO{
		ID:                payment.ID,
		LeaseID:           payment.LeaseID,
		FarmerID:          payment.FarmerID,
		OwnerID:           payment.OwnerID,
		AmountPaise:       payment.AmountPaise,
		Method:            payment.Method,
		Status:            payment.Status,
		InstallmentNumber: payment.InstallmentNumber,
		GatewayOrderID:    payment.GatewayOrderID,
		TransactionID:     payment.TransactionID,
		PaidAt:            payment.PaidAt,
		FailureReason:     payment.FailureReason,
		CreatedAt:         payment.CreatedAt,
	}
}

// InstallmentStatus is the derived state of one schedule slot.
type InstallmentStatus string

const (
	InstallmentStatusPaid     InstallmentStatus = "paid"
	InstallmentStatusPending  InstallmentStatus = "pending"
	InstallmentStatusUpcoming InstallmentStatus = "upcoming"
)

// InstallmentDTO is one derived slot in the lease schedule.
type InstallmentDTO struct {
	Number      int               `json:"number"`
	AmountPaise int64             `json:"amount_paise"`
	Status      InstallmentStatus `json:"status"`
	PaidAt      *time.Time        `json:"paid_at,omitempty"`
}

// ScheduleDTO is the derived installment schedule for a lease. Nothing here
// is stored; it is computed from the lease terms and the payment rows.
type ScheduleDTO struct {
	LeaseID          uuid.UUID        `json:"lease_id"`
	Installments     []InstallmentDTO `json:"installments"`
	PaymentsMade     int              `json:"payments_made"`
	TotalPayments    int              `json:"total_payments"`
	NextInstallment  *int             `json:"next_installment,omitempty"`
	TotalPaise       int64            `json:"total_paise"`
	PaidPaise        int64            `json:"paid_paise"`
	OutstandingPaise int64            `json:"outstanding_paise"`
}

// InitiateResult carries what the client needs to drive the gateway checkout.
type InitiateResult struct {
	PaymentID         uuid.UUID `json:"payment_id"`
	GatewayOrderID    string    `json:"gateway_order_id"`
	GatewayKeyID      string    `json:"gateway_key_id"`
	AmountPaise       int64     `json:"amount_paise"`
	Currency          string    `json:"currency"`
	InstallmentNumber int       `json:"installment_number"`
}

// ConfirmInput is the gateway callback payload the client posts back.
type ConfirmInput struct {
	GatewayOrderID   string `json:"gateway_order_id" validate:"required"`
	GatewayPaymentID string `json:"gateway_payment_id" validate:"required"`
	Signature        string `json:"signature" validate:"required"`
}
