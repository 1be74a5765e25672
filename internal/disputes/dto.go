package disputes

import (
	"time"

	"github.com/agricorus/agricorus-backend/pkg/db/models"
	"github.com/agricorus/agricorus-backend/pkg/enums"
	"github.com/agricorus/agricorus-backend/pkg/pagination"
	"github.com/google/uuid"
)

// DisputeDTO is the API shape of an escalation ticket.
type DisputeDTO struct {
	ID                  uuid.UUID             `json:"id"`
	RaisedByID          uuid.UUID             `json:"raised_by_id"`
	AgainstID           uuid.UUID             `json:"against_id"`
	LeaseID             *uuid.UUID            `json:"lease_id,omitempty"`
	PaymentID           *uuid.UUID            `json:"payment_id,omitempty"`
	Reason              string                `json:"reason"`
	Details             *string               `json:"details,omitempty"`
	Category            enums.DisputeCategory `json:"category"`
	Attachments         []string              `json:"attachments,omitempty"`
	DateOfIncident      *time.Time            `json:"date_of_incident,omitempty"`
	AmountInvolvedPaise *int64                `json:"amount_involved_paise,omitempty"`
	PreferredResolution *string               `json:"preferred_resolution,omitempty"`
	Status              enums.DisputeStatus   `json:"status"`
	ResolutionNote      *string               `json:"resolution_note,omitempty"`
	AdminRemarks        *string               `json:"admin_remarks,omitempty"`
	ActionTakenByID     *uuid.UUID            `json:"action_taken_by_id,omitempty"`
	ActionTakenAt       *time.Time            `json:"action_taken_at,omitempty"`
	CreatedAt           time.Time             `json:"created_at"`
	UpdatedAt           time.Time             `json:"updated_at"`
}

// FromModel converts a dispute row into its API shape.
func FromModel(dispute *models.Dispute) *DisputeDTO {
	if dispute == nil {
		return nil
	}
	return &DisputeDTO{
		ID:                  dispute.ID,
		RaisedByID:          dispute.RaisedByID,
		AgainstID:           dispute.AgainstID,
		LeaseID:             dispute.LeaseID,
		PaymentID:           dispute.PaymentID,
		Reason:              dispute.Reason,
		Details:             dispute.Details,
		Category:            dispute.Category,
		Attachments:         dispute.Attachments,
		DateOfIncident:      dispute.DateOfIncident,
		AmountInvolvedPaise: dispute.AmountInvolvedPaise,
		PreferredResolution: dispute.PreferredResolution,
		Status:              dispute.Status,
		ResolutionNote:      dispute.ResolutionNote,
		AdminRemarks:        dispute.AdminRemarks,
		ActionTakenByID:     dispute.ActionTakenByID,
		ActionTakenAt:       dispute.ActionTakenAt,
		CreatedAt:           dispute.CreatedAt,
		UpdatedAt:           dispute.UpdatedAt,
	}
}

// RaiseDisputeInput is the validated payload for opening a ticket.
type RaiseDisputeInput struct {
	AgainstID           uuid.UUID
	LeaseID             *uuid.UUID
	PaymentID           *uuid.UUID
	Reason              string
	Details             *string
	Category            enums.DisputeCategory
	Attachments         []string
	DateOfIncident      *time.Time
	AmountInvolvedPaise *int64
	PreferredResolution *string
}

// ResolveDecision is the admin verdict closing a dispute.
type ResolveDecision string

const (
	ResolveDecisionResolved ResolveDecision = "resolved"
	ResolveDecisionRejected ResolveDecision = "rejected"
)

// ResolveInput carries the closing decision and notes.
type ResolveInput struct {
	Decision       ResolveDecision
	ResolutionNote string
	AdminRemarks   *string
}

// ListDisputesInput filters a dispute listing.
type ListDisputesInput struct {
	Status     *enums.DisputeStatus
	Category   *enums.DisputeCategory
	Pagination pagination.Params
}

// DisputeListResult is one page of disputes.
type DisputeListResult struct {
	Items      []DisputeDTO `json:"items"`
	NextCursor string       `json:"next_cursor,omitempty"`
}
