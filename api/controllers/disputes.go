package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/agricorus/agricorus-backend/api/responses"
	"github.com/agricorus/agricorus-backend/api/validators"
	disputesvc "github.com/agricorus/agricorus-backend/internal/disputes"
	"github.com/agricorus/agricorus-backend/pkg/enums"
	pkgerrors "github.com/agricorus/agricorus-backend/pkg/errors"
	"github.com/agricorus/agricorus-backend/pkg/logger"
)

type raiseDisputeRequest struct {
	AgainstID           *string    `json:"against_id,omitempty" validate:"omitempty,uuid4"`
	LeaseID             *string    `json:"lease_id,omitempty" validate:"omitempty,uuid4"`
	PaymentID           *string    `json:"payment_id,omitempty" validate:"omitempty,uuid4"`
	Reason              string     `json:"reason" validate:"required"`
	Details             *string    `json:"details,omitempty"`
	Category            string     `json:"category" validate:"required"`
	Attachments         []string   `json:"attachments,omitempty"`
	DateOfIncident      *time.Time `json:"date_of_incident,omitempty"`
	AmountInvolvedPaise *int64     `json:"amount_involved_paise,omitempty" validate:"omitempty,gt=0"`
	PreferredResolution *string    `json:"preferred_resolution,omitempty"`
}

// RaiseDispute opens a dispute, deriving the counterparty from the lease
// when one is referenced.
func RaiseDispute(svc disputesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "dispute service unavailable"))
			return
		}

		actorID, _, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload raiseDisputeRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		category, err := enums.ParseDisputeCategory(strings.TrimSpace(payload.Category))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid category"))
			return
		}

		input := disputesvc.RaiseDisputeInput{
			Reason:              strings.TrimSpace(payload.Reason),
			Details:             payload.Details,
			Category:            category,
			Attachments:         payload.Attachments,
			DateOfIncident:      payload.DateOfIncident,
			AmountInvolvedPaise: payload.AmountInvolvedPaise,
			PreferredResolution: payload.PreferredResolution,
		}

		if payload.AgainstID != nil {
			id, err := uuid.Parse(strings.TrimSpace(*payload.AgainstID))
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid against id"))
				return
			}
			input.AgainstID = id
		}
		if payload.LeaseID != nil {
			id, err := uuid.Parse(strings.TrimSpace(*payload.LeaseID))
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid lease id"))
				return
			}
			input.LeaseID = &id
		}
		if payload.PaymentID != nil {
			id, err := uuid.Parse(strings.TrimSpace(*payload.PaymentID))
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment id"))
				return
			}
			input.PaymentID = &id
		}

		dispute, err := svc.Raise(r.Context(), actorID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, dispute)
	}
}

// GetDispute returns one dispute if the caller is party to it or an admin.
func GetDispute(svc disputesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "dispute service unavailable"))
			return
		}

		actorID, role, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		disputeID, err := pathUUID(r, "disputeId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		dispute, err := svc.Get(r.Context(), actorID, role, disputeID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, dispute)
	}
}

// ListMyDisputes returns disputes the caller raised or is accused in.
func ListMyDisputes(svc disputesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "dispute service unavailable"))
			return
		}

		actorID, _, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := parseDisputeListInput(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.ListMine(r.Context(), actorID, *input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

// AdminListDisputes returns the moderation queue across all parties.
func AdminListDisputes(svc disputesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "dispute service unavailable"))
			return
		}

		input, err := parseDisputeListInput(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.AdminList(r.Context(), *input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

// AdminDisputeInReview moves an open dispute into active investigation.
func AdminDisputeInReview(svc disputesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "dispute service unavailable"))
			return
		}

		adminID, _, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		disputeID, err := pathUUID(r, "disputeId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		dispute, err := svc.MarkInReview(r.Context(), adminID, disputeID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, dispute)
	}
}

type resolveDisputeRequest struct {
	Decision       string  `json:"decision" validate:"required,oneof=resolved rejected"`
	ResolutionNote string  `json:"resolution_note" validate:"required"`
	AdminRemarks   *string `json:"admin_remarks,omitempty"`
}

// AdminResolveDispute closes a dispute with a verdict.
func AdminResolveDispute(svc disputesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "dispute service unavailable"))
			return
		}

		adminID, _, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		disputeID, err := pathUUID(r, "disputeId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload resolveDisputeRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		dispute, err := svc.Resolve(r.Context(), adminID, disputeID, disputesvc.ResolveInput{
			Decision:       disputesvc.ResolveDecision(strings.TrimSpace(payload.Decision)),
			ResolutionNote: strings.TrimSpace(payload.ResolutionNote),
			AdminRemarks:   payload.AdminRemarks,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, dispute)
	}
}

func parseDisputeListInput(r *http.Request) (*disputesvc.ListDisputesInput, error) {
	params, err := pageParams(r)
	if err != nil {
		return nil, err
	}

	input := disputesvc.ListDisputesInput{Pagination: params}
	q := r.URL.Query()

	if raw := strings.TrimSpace(q.Get("status")); raw != "" {
		status, err := enums.ParseDisputeStatus(raw)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status")
		}
		input.Status = &status
	}
	if raw := strings.TrimSpace(q.Get("category")); raw != "" {
		category, err := enums.ParseDisputeCategory(raw)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid category")
		}
		input.Category = &category
	}
	return &input, nil
}
