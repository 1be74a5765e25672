package controllers

import (
	"net/http"
	"strings"

	"github.com/agricorus/agricorus-backend/api/responses"
	"github.com/agricorus/agricorus-backend/api/validators"
	methodsvc "github.com/agricorus/agricorus-backend/internal/payoutmethods"
	"github.com/agricorus/agricorus-backend/pkg/enums"
	pkgerrors "github.com/agricorus/agricorus-backend/pkg/errors"
	"github.com/agricorus/agricorus-backend/pkg/logger"
)

type createPayoutMethodRequest struct {
	Type              string  `json:"type" validate:"required,oneof=bank upi"`
	UPIID             *string `json:"upi_id,omitempty"`
	UPIName           *string `json:"upi_name,omitempty"`
	AccountHolderName *string `json:"account_holder_name,omitempty"`
	AccountNumber     *string `json:"account_number,omitempty"`
	IFSCCode          *string `json:"ifsc_code,omitempty"`
	BankName          *string `json:"bank_name,omitempty"`
	IsDefault         bool    `json:"is_default,omitempty"`
}

// CreatePayoutMethod registers a bank account or UPI handle for settlements.
func CreatePayoutMethod(svc methodsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payout method service unavailable"))
			return
		}

		userID, _, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload createPayoutMethodRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		methodType, err := enums.ParsePayoutMethodType(strings.TrimSpace(payload.Type))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid type"))
			return
		}

		method, err := svc.Create(r.Context(), userID, methodsvc.CreateMethodInput{
			Type:              methodType,
			UPIID:             payload.UPIID,
			UPIName:           payload.UPIName,
			AccountHolderName: payload.AccountHolderName,
			AccountNumber:     payload.AccountNumber,
			IFSCCode:          payload.IFSCCode,
			BankName:          payload.BankName,
			IsDefault:         payload.IsDefault,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, method)
	}
}

// ListPayoutMethods returns the caller's saved methods, default first.
func ListPayoutMethods(svc methodsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payout method service unavailable"))
			return
		}

		userID, _, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		methods, err := svc.List(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"items": methods})
	}
}

type updatePayoutMethodRequest struct {
	UPIID             *string `json:"upi_id,omitempty"`
	UPIName           *string `json:"upi_name,omitempty"`
	AccountHolderName *string `json:"account_holder_name,omitempty"`
	AccountNumber     *string `json:"account_number,omitempty"`
	IFSCCode          *string `json:"ifsc_code,omitempty"`
	BankName          *string `json:"bank_name,omitempty"`
}

// UpdatePayoutMethod edits the caller's own method.
func UpdatePayoutMethod(svc methodsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payout method service unavailable"))
			return
		}

		userID, _, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		methodID, err := pathUUID(r, "methodId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updatePayoutMethodRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		method, err := svc.Update(r.Context(), userID, methodID, methodsvc.UpdateMethodInput{
			UPIID:             payload.UPIID,
			UPIName:           payload.UPIName,
			AccountHolderName: payload.AccountHolderName,
			AccountNumber:     payload.AccountNumber,
			IFSCCode:          payload.IFSCCode,
			BankName:          payload.BankName,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, method)
	}
}

// DeletePayoutMethod removes the caller's own method.
func DeletePayoutMethod(svc methodsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payout method service unavailable"))
			return
		}

		userID, _, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		methodID, err := pathUUID(r, "methodId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Delete(r.Context(), userID, methodID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}

// SetDefaultPayoutMethod promotes one method to be the settlement default.
func SetDefaultPayoutMethod(svc methodsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payout method service unavailable"))
			return
		}

		userID, _, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		methodID, err := pathUUID(r, "methodId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		method, err := svc.SetDefault(r.Context(), userID, methodID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, method)
	}
}
