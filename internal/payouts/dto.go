package payouts

import (
	"time"

	"github.com/agricorus/agricorus-backend/pkg/db/models"
	"github.com/agricorus/agricorus-backend/pkg/enums"
	"github.com/agricorus/agricorus-backend/pkg/pagination"
	"github.com/google/uuid"
)

// ReviewEntryDTO is one admin action in a payout request's audit trail.
type ReviewEntryDTO struct {
	Status    enums.PayoutRequestStatus `json:"status"`
	AdminNote string                    `json:"admin_note,omitempty"`
	ChangedBy uuid.UUID                 `json:"changed_by"`
	ChangedAt time.Time                 `json:"changed_at"`
}

// PayoutDTO is the API shape of a payout request.
type PayoutDTO struct {
	ID             uuid.UUID                 `json:"id"`
	LeaseID        uuid.UUID                 `json:"lease_id"`
	LandID         uuid.UUID                 `json:"land_id"`
	FarmerID       uuid.UUID                 `json:"farmer_id"`
	OwnerID        uuid.UUID                 `json:"owner_id"`
	PayoutMethodID uuid.UUID                 `json:"payout_method_id"`
	AmountPaise    int64                     `json:"amount_paise"`
	Status         enums.PayoutRequestStatus `json:"status"`
	RequestedAt    time.Time                 `json:"requested_at"`
	ReviewedAt     *time.Time                `json:"reviewed_at,omitempty"`
	AdminNote      *string                   `json:"admin_note,omitempty"`
	History        []ReviewEntryDTO          `json:"history,omitempty"`
	TransactionID  *string                   `json:"transaction_id,omitempty"`
	PaymentDate    *time.Time                `json:"payment_date,omitempty"`
	ReceiptURL     *string                   `json:"receipt_url,omitempty"`
	CreatedAt      time.Time                 `json:"created_at"`
	UpdatedAt      time.Time                 `json:"updated_at"`
}

// FromModel converts a payout request row into its API shape.
func FromModel(request *models.PayoutRequest) *PayoutDTO {
	if request == nil {
		return nil
	}
	history := make([]ReviewEntryDTO, 0, len(request.History))
	for _, entry := range request.History {
		history = append(history, ReviewEntryDTO{
			Status:    entry.Status,
			AdminNote: entry.AdminNote,
			ChangedBy: entry.ChangedBy,
			ChangedAt: entry.ChangedAt,
		})
	}
	return &PayoutDTO{
		ID:             request.ID,
		LeaseID:        request.LeaseID,
		LandID:         request.LandID,
		FarmerID:       request.FarmerID,
		OwnerID:        request.OwnerID,
		PayoutMethodID: request.PayoutMethodID,
		AmountPaise:    request.AmountPaise,
		Status:         request.Status,
		RequestedAt:    request.RequestedAt,
		ReviewedAt:     request.ReviewedAt,
		AdminNote:      request.AdminNote,
		History:        history,
		TransactionID:  request.TransactionID,
		PaymentDate:    request.PaymentDate,
		ReceiptURL:     request.ReceiptURL,
		CreatedAt:      request.CreatedAt,
		UpdatedAt:      request.UpdatedAt,
	}
}

// RequestPayoutInput is the validated payload for a withdrawal ask.
type RequestPayoutInput struct {
	LeaseID        uuid.UUID
	PayoutMethodID uuid.UUID
	AmountPaise    int64
}

// ReviewDecision is the admin verdict on a pending payout.
type ReviewDecision string

const (
	ReviewDecisionApprove ReviewDecision = "approve"
	ReviewDecisionReject  ReviewDecision = "reject"
)

// ReviewInput carries an admin's decision and optional note.
type ReviewInput struct {
	Decision ReviewDecision
	Note     string
}

// SettlementInput attaches out-of-band transfer details to an approved
// payout.
type SettlementInput struct {
	TransactionID string
	PaymentDate   time.Time
	ReceiptURL    *string
}

// ListPayoutsInput filters a payout listing.
type ListPayoutsInput struct {
	Status     *enums.PayoutRequestStatus
	Pagination pagination.Params
}

// PayoutListResult is one page of payout requests.
type PayoutListResult struct {
	Items      []PayoutDTO `json:"items"`
	NextCursor string      `json:"next_cursor,omitempty"`
}
