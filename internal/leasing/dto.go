package leasing

import (
	"time"

	"github.com/agricorus/agricorus-backend/pkg/db/models"
	"github.com/agricorus/agricorus-backend/pkg/enums"
	"github.com/agricorus/agricorus-backend/pkg/pagination"
	"github.com/google/uuid"
)

// LeaseRequestDTO is the API shape of a farmer's application.
type LeaseRequestDTO struct {
	ID          uuid.UUID                `json:"id"`
	LandID      uuid.UUID                `json:"land_id"`
	FarmerID    uuid.UUID                `json:"farmer_id"`
	StartDate   *time.Time               `json:"start_date,omitempty"`
	EndDate     *time.Time               `json:"end_date,omitempty"`
	Terms       *string                  `json:"terms,omitempty"`
	AmountPaise int64                    `json:"amount_paise"`
	Status      enums.LeaseRequestStatus `json:"status"`
	CreatedAt   time.Time                `json:"created_at"`
	UpdatedAt   time.Time                `json:"updated_at"`
}

// RequestFromModel converts a lease request row into its API shape.
func RequestFromModel(req *models.LeaseRequest) *LeaseRequestDTO {
	if req == nil {
		return nil
	}
	return &LeaseRequestDTO{
		ID:          req.ID,
		LandID:      req.LandID,
		FarmerID:    req.FarmerID,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		Terms:       req.Terms,
		AmountPaise: req.AmountPaise,
		Status:      req.Status,
		CreatedAt:   req.CreatedAt,
		UpdatedAt:   req.UpdatedAt,
	}
}

// LeaseDTO is the API shape of a signed lease.
type LeaseDTO struct {
	ID                 uuid.UUID         `json:"id"`
	LandID             uuid.UUID         `json:"land_id"`
	FarmerID           uuid.UUID         `json:"farmer_id"`
	OwnerID            uuid.UUID         `json:"owner_id"`
	RequestID          uuid.UUID         `json:"request_id"`
	DurationMonths     int               `json:"duration_months"`
	PricePerMonthPaise int64             `json:"price_per_month_paise"`
	Status             enums.LeaseStatus `json:"status"`
	AgreementURL       *string           `json:"agreement_url,omitempty"`
	StartedAt          time.Time         `json:"started_at"`
	EndedAt            *time.Time        `json:"ended_at,omitempty"`
	CreatedAt          time.Time         `json:"created_at"`
	UpdatedAt          time.Time         `json:"updated_at"`
}

// LeaseFromModel converts a lease row into its API shape.
func LeaseFromModel(lease *models.Lease) *LeaseDTO {
	if lease == nil {
		return nil
	}
	return &LeaseDTO{
		ID:                 lease.ID,
		LandID:             lease.LandID,
		FarmerID:           lease.FarmerID,
		OwnerID:            lease.OwnerID,
		RequestID:          lease.RequestID,
		DurationMonths:     lease.DurationMonths,
		PricePerMonthPaise: lease.PricePerMonthPaise,
		Status:             lease.Status,
		AgreementURL:       lease.AgreementURL,
		StartedAt:          lease.StartedAt,
		EndedAt:            lease.EndedAt,
		CreatedAt:          lease.CreatedAt,
		UpdatedAt:          lease.UpdatedAt,
	}
}

// CreateRequestInput holds the validated payload to apply for a land parcel.
type CreateRequestInput struct {
	LandID      uuid.UUID
	StartDate   *time.Time
	EndDate     *time.Time
	Terms       *string
	AmountPaise *int64
}

// RequestDecision is the owner's answer to a pending request.
type RequestDecision string

const (
	RequestDecisionApprove RequestDecision = "approve"
	RequestDecisionReject  RequestDecision = "reject"
)

// RespondResult carries the decided request plus the lease spawned on approval.
type RespondResult struct {
	Request *LeaseRequestDTO `json:"request"`
	Lease   *LeaseDTO        `json:"lease,omitempty"`
}

// RequestListResult is one page of lease requests.
type RequestListResult struct {
	Items      []LeaseRequestDTO `json:"items"`
	NextCursor string            `json:"next_cursor,omitempty"`
}

// LeaseListResult is one page of leases.
type LeaseListResult struct {
	Items      []LeaseDTO `json:"items"`
	NextCursor string     `json:"next_cursor,omitempty"`
}

// ListLeasesInput captures actor scoping plus pagination for lease listings.
type ListLeasesInput struct {
	Status     *enums.LeaseStatus
	Pagination pagination.Params
}
