package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/agricorus/agricorus-backend/api/responses"
	"github.com/agricorus/agricorus-backend/api/validators"
	leasesvc "github.com/agricorus/agricorus-backend/internal/leasing"
	pkgerrors "github.com/agricorus/agricorus-backend/pkg/errors"
	"github.com/agricorus/agricorus-backend/pkg/logger"
)

type createLeaseRequestRequest struct {
	LandID      string     `json:"land_id" validate:"required,uuid4"`
	StartDate   *time.Time `json:"start_date,omitempty"`
	EndDate     *time.Time `json:"end_date,omitempty"`
	Terms       *string    `json:"terms,omitempty"`
	AmountPaise *int64     `json:"amount_paise,omitempty" validate:"omitempty,gt=0"`
}

// CreateLeaseRequest lets a farmer apply for an available parcel.
func CreateLeaseRequest(svc leasesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "leasing service unavailable"))
			return
		}

		farmerID, _, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload createLeaseRequestRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		landID, err := uuid.Parse(strings.TrimSpace(payload.LandID))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid land id"))
			return
		}

		request, err := svc.Request(r.Context(), farmerID, leasesvc.CreateRequestInput{
			LandID:      landID,
			StartDate:   payload.StartDate,
			EndDate:     payload.EndDate,
			Terms:       payload.Terms,
			AmountPaise: payload.AmountPaise,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, request)
	}
}

// CancelLeaseRequest withdraws the farmer's own pending request.
func CancelLeaseRequest(svc leasesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "leasing service unavailable"))
			return
		}

		farmerID, _, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		requestID, err := pathUUID(r, "requestId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		request, err := svc.Cancel(r.Context(), farmerID, requestID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, request)
	}
}

type respondLeaseRequestRequest struct {
	Decision string `json:"decision" validate:"required,oneof=approve reject"`
}

// RespondLeaseRequest records the owner's decision. Approval activates the
// lease and returns it alongside the decided request.
func RespondLeaseRequest(svc leasesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "leasing service unavailable"))
			return
		}

		ownerID, _, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		requestID, err := pathUUID(r, "requestId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload respondLeaseRequestRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Respond(r.Context(), ownerID, requestID, leasesvc.RequestDecision(strings.TrimSpace(payload.Decision)))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// ListMyLeaseRequests returns requests the farmer has filed.
func ListMyLeaseRequests(svc leasesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "leasing service unavailable"))
			return
		}

		farmerID, _, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		params, err := pageParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.ListMyRequests(r.Context(), farmerID, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

// ListIncomingLeaseRequests returns requests against the owner's parcels.
func ListIncomingLeaseRequests(svc leasesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "leasing service unavailable"))
			return
		}

		ownerID, _, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		params, err := pageParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.ListIncomingRequests(r.Context(), ownerID, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}
