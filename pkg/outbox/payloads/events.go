package payloads

import (
	"time"

	"github.com/agricorus/agricorus-backend/pkg/enums"
	"github.com/google/uuid"
)

// LandSubmittedEvent signals a new listing awaiting admin review.
type LandSubmittedEvent struct {
	LandID  uuid.UUID `json:"land_id"`
	OwnerID uuid.UUID `json:"owner_id"`
	Title   string    `json:"title"`
}

// LandReviewedEvent is emitted when an admin approves or rejects a listing.
type LandReviewedEvent struct {
	LandID          uuid.UUID `json:"land_id"`
	OwnerID         uuid.UUID `json:"owner_id"`
	Approved        bool      `json:"approved"`
	RejectionReason string    `json:"rejection_reason,omitempty"`
}

// LeaseRequestedEvent signals a farmer application the owner must decide.
type LeaseRequestedEvent struct {
	RequestID uuid.UUID `json:"request_id"`
	LandID    uuid.UUID `json:"land_id"`
	FarmerID  uuid.UUID `json:"farmer_id"`
	OwnerID   uuid.UUID `json:"owner_id"`
}

// LeaseRequestDecidedEvent is emitted when the owner approves or rejects
// a lease request, or when the farmer withdraws it.
type LeaseRequestDecidedEvent struct {
	RequestID uuid.UUID                `json:"request_id"`
	LandID    uuid.UUID                `json:"land_id"`
	FarmerID  uuid.UUID                `json:"farmer_id"`
	OwnerID   uuid.UUID                `json:"owner_id"`
	Status    enums.LeaseRequestStatus `json:"status"`
	LeaseID   *uuid.UUID               `json:"lease_id,omitempty"`
}

// LeaseRequestExpiredEvent reports a pending request swept after its land
// was leased to someone else.
type LeaseRequestExpiredEvent struct {
	RequestID uuid.UUID `json:"requestId"`
	LandID    uuid.UUID `json:"landId"`
	FarmerID  uuid.UUID `json:"farmerId"`
	ExpiredAt time.Time `json:"expiredAt"`
}

// LeaseActivatedEvent is emitted when an approved request becomes a lease.
type LeaseActivatedEvent struct {
	LeaseID            uuid.UUID `json:"lease_id"`
	RequestID          uuid.UUID `json:"request_id"`
	LandID             uuid.UUID `json:"land_id"`
	FarmerID           uuid.UUID `json:"farmer_id"`
	OwnerID            uuid.UUID `json:"owner_id"`
	DurationMonths     int       `json:"duration_months"`
	PricePerMonthPaise int64     `json:"price_per_month_paise"`
}

// LeaseCompletedEvent fires once every installment of a lease has settled.
type LeaseCompletedEvent struct {
	LeaseID     uuid.UUID `json:"leaseId"`
	LandID      uuid.UUID `json:"landId"`
	FarmerID    uuid.UUID `json:"farmerId"`
	OwnerID     uuid.UUID `json:"ownerId"`
	CompletedAt time.Time `json:"completedAt"`
}

// LeaseTerminatedEvent reports an admin-forced early termination.
type LeaseTerminatedEvent struct {
	LeaseID      uuid.UUID `json:"lease_id"`
	LandID       uuid.UUID `json:"land_id"`
	FarmerID     uuid.UUID `json:"farmer_id"`
	OwnerID      uuid.UUID `json:"owner_id"`
	Reason       string    `json:"reason,omitempty"`
	TerminatedAt time.Time `json:"terminated_at"`
}

// LeasePaymentSucceededEvent is emitted when a gateway payment verifies.
type LeasePaymentSucceededEvent struct {
	PaymentID         uuid.UUID `json:"payment_id"`
	LeaseID           uuid.UUID `json:"lease_id"`
	FarmerID          uuid.UUID `json:"farmer_id"`
	OwnerID           uuid.UUID `json:"owner_id"`
	InstallmentNumber int       `json:"installment_number"`
	AmountPaise       int64     `json:"amount_paise"`
	PaidAt            time.Time `json:"paid_at"`
}

// LeasePaymentFailedEvent is emitted when a gateway payment is rejected.
type LeasePaymentFailedEvent struct {
	PaymentID         uuid.UUID `json:"payment_id"`
	LeaseID           uuid.UUID `json:"lease_id"`
	FarmerID          uuid.UUID `json:"farmer_id"`
	InstallmentNumber int       `json:"installment_number"`
	FailureReason     string    `json:"failure_reason,omitempty"`
}

// PayoutRequestedEvent signals a withdrawal awaiting admin review.
type PayoutRequestedEvent struct {
	PayoutID    uuid.UUID `json:"payout_id"`
	LeaseID     uuid.UUID `json:"lease_id"`
	OwnerID     uuid.UUID `json:"owner_id"`
	AmountPaise int64     `json:"amount_paise"`
}

// PayoutReviewedEvent is emitted when an admin approves or rejects a payout.
type PayoutReviewedEvent struct {
	PayoutID  uuid.UUID                 `json:"payout_id"`
	OwnerID   uuid.UUID                 `json:"owner_id"`
	Status    enums.PayoutRequestStatus `json:"status"`
	AdminNote string                    `json:"admin_note,omitempty"`
}

// PayoutPaidEvent is emitted when settlement details are attached.
type PayoutPaidEvent struct {
	PayoutID      uuid.UUID `json:"payout_id"`
	OwnerID       uuid.UUID `json:"owner_id"`
	AmountPaise   int64     `json:"amount_paise"`
	TransactionID string    `json:"transaction_id"`
	PaymentDate   time.Time `json:"payment_date"`
}

// DisputeOpenedEvent signals a new dispute awaiting triage.
type DisputeOpenedEvent struct {
	DisputeID  uuid.UUID             `json:"dispute_id"`
	RaisedByID uuid.UUID             `json:"raised_by_id"`
	AgainstID  uuid.UUID             `json:"against_id"`
	LeaseID    *uuid.UUID            `json:"lease_id,omitempty"`
	Category   enums.DisputeCategory `json:"category"`
}

// DisputeResolvedEvent is emitted when an admin closes a dispute.
type DisputeResolvedEvent struct {
	DisputeID  uuid.UUID           `json:"dispute_id"`
	RaisedByID uuid.UUID           `json:"raised_by_id"`
	AgainstID  uuid.UUID           `json:"against_id"`
	Status     enums.DisputeStatus `json:"status"`
	Resolution string              `json:"resolution,omitempty"`
}
