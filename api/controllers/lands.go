package controllers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/agricorus/agricorus-backend/api/responses"
	"github.com/agricorus/agricorus-backend/api/validators"
	landsvc "github.com/agricorus/agricorus-backend/internal/lands"
	"github.com/agricorus/agricorus-backend/pkg/enums"
	pkgerrors "github.com/agricorus/agricorus-backend/pkg/errors"
	"github.com/agricorus/agricorus-backend/pkg/logger"
)

// SubmitLand handles listing submission by landowners.
func SubmitLand(svc landsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "land service unavailable"))
			return
		}

		ownerID, _, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload createLandRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		land, err := svc.Submit(r.Context(), ownerID, payload.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, land)
	}
}

type createLandRequest struct {
	Title                   string   `json:"title" validate:"required"`
	Address                 string   `json:"address" validate:"required"`
	Latitude                *float64 `json:"latitude,omitempty" validate:"omitempty,gte=-90,lte=90"`
	Longitude               *float64 `json:"longitude,omitempty" validate:"omitempty,gte=-180,lte=180"`
	SoilType                string   `json:"soil_type" validate:"required"`
	WaterSource             *string  `json:"water_source,omitempty"`
	Accessibility           *string  `json:"accessibility,omitempty"`
	SizeInAcres             float64  `json:"size_in_acres" validate:"required,gt=0"`
	LeasePricePerMonthPaise int64    `json:"lease_price_per_month_paise" validate:"required,gt=0"`
	LeaseDurationMonths     int      `json:"lease_duration_months" validate:"required,min=1"`
	LandPhotos              []string `json:"land_photos,omitempty"`
	LandDocuments           []string `json:"land_documents,omitempty"`
}

func (p createLandRequest) toInput() landsvc.CreateLandInput {
	return landsvc.CreateLandInput{
		Title:                   strings.TrimSpace(p.Title),
		Address:                 strings.TrimSpace(p.Address),
		Latitude:                p.Latitude,
		Longitude:               p.Longitude,
		SoilType:                strings.TrimSpace(p.SoilType),
		WaterSource:             p.WaterSource,
		Accessibility:           p.Accessibility,
		SizeInAcres:             p.SizeInAcres,
		LeasePricePerMonthPaise: p.LeasePricePerMonthPaise,
		LeaseDurationMonths:     p.LeaseDurationMonths,
		LandPhotos:              p.LandPhotos,
		LandDocuments:           p.LandDocuments,
	}
}

// UpdateLand applies a partial edit to an owned listing.
func UpdateLand(svc landsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "land service unavailable"))
			return
		}

		ownerID, _, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		landID, err := pathUUID(r, "landId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updateLandRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		land, err := svc.Update(r.Context(), ownerID, landID, payload.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, land)
	}
}

type updateLandRequest struct {
	Title                   *string   `json:"title,omitempty"`
	Address                 *string   `json:"address,omitempty"`
	Latitude                *float64  `json:"latitude,omitempty" validate:"omitempty,gte=-90,lte=90"`
	Longitude               *float64  `json:"longitude,omitempty" validate:"omitempty,gte=-180,lte=180"`
	SoilType                *string   `json:"soil_type,omitempty"`
	WaterSource             *string   `json:"water_source,omitempty"`
	Accessibility           *string   `json:"accessibility,omitempty"`
	SizeInAcres             *float64  `json:"size_in_acres,omitempty" validate:"omitempty,gt=0"`
	LeasePricePerMonthPaise *int64    `json:"lease_price_per_month_paise,omitempty" validate:"omitempty,gt=0"`
	LeaseDurationMonths     *int      `json:"lease_duration_months,omitempty" validate:"omitempty,min=1"`
	LandPhotos              *[]string `json:"land_photos,omitempty"`
	LandDocuments           *[]string `json:"land_documents,omitempty"`
}

func (p updateLandRequest) toInput() landsvc.UpdateLandInput {
	return landsvc.UpdateLandInput{
		Title:                   p.Title,
		Address:                 p.Address,
		Latitude:                p.Latitude,
		Longitude:               p.Longitude,
		SoilType:                p.SoilType,
		WaterSource:             p.WaterSource,
		Accessibility:           p.Accessibility,
		SizeInAcres:             p.SizeInAcres,
		LeasePricePerMonthPaise: p.LeasePricePerMonthPaise,
		LeaseDurationMonths:     p.LeaseDurationMonths,
		LandPhotos:              p.LandPhotos,
		LandDocuments:           p.LandDocuments,
	}
}

// DeactivateLand takes an owned listing off the marketplace.
func DeactivateLand(svc landsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "land service unavailable"))
			return
		}

		ownerID, _, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		landID, err := pathUUID(r, "landId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Deactivate(r.Context(), ownerID, landID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "inactive"})
	}
}

// GetLand returns one listing, scoped to what the actor may see.
func GetLand(svc landsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "land service unavailable"))
			return
		}

		actorID, role, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		landID, err := pathUUID(r, "landId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		land, err := svc.Get(r.Context(), actorID, role, landID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, land)
	}
}

// ListLands serves the approved, available marketplace browse.
func ListLands(svc landsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "land service unavailable"))
			return
		}

		input, err := parseLandListInput(r, false)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.ListPublic(r.Context(), *input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

// ListMyLands returns the caller's own listings regardless of status.
func ListMyLands(svc landsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "land service unavailable"))
			return
		}

		ownerID, _, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := parseLandListInput(r, true)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.ListMine(r.Context(), ownerID, *input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

// AdminListLands returns listings for the review queue.
func AdminListLands(svc landsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "land service unavailable"))
			return
		}

		input, err := parseLandListInput(r, true)
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

// AdminApproveLand publishes a pending listing.
func AdminApproveLand(svc landsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "land service unavailable"))
			return
		}

		adminID, _, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		landID, err := pathUUID(r, "landId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		land, err := svc.AdminApprove(r.Context(), adminID, landID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, land)
	}
}

type rejectLandRequest struct {
	Reason string `json:"reason" validate:"required"`
}

// AdminRejectLand declines a pending listing with a reason for the owner.
func AdminRejectLand(svc landsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "land service unavailable"))
			return
		}

		adminID, _, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		landID, err := pathUUID(r, "landId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload rejectLandRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		land, err := svc.AdminReject(r.Context(), adminID, landID, strings.TrimSpace(payload.Reason))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, land)
	}
}

// parseLandListInput builds filters from query parameters. Status filtering
// is only honored on owner and admin listings.
func parseLandListInput(r *http.Request, allowStatus bool) (*landsvc.ListLandsInput, error) {
	params, err := pageParams(r)
	if err != nil {
		return nil, err
	}

	input := landsvc.ListLandsInput{Pagination: params}
	q := r.URL.Query()

	if soil := strings.TrimSpace(q.Get("soil_type")); soil != "" {
		input.Filters.SoilType = &soil
	}
	if query := strings.TrimSpace(q.Get("q")); query != "" {
		input.Filters.Query = query
	}

	if v, err := queryFloat(q.Get("min_acres")); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid min_acres")
	} else if v != nil {
		input.Filters.MinAcres = v
	}
	if v, err := queryFloat(q.Get("max_acres")); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid max_acres")
	} else if v != nil {
		input.Filters.MaxAcres = v
	}
	if v, err := queryPaise(q.Get("price_min_paise")); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid price_min_paise")
	} else if v != nil {
		input.Filters.PriceMinPaise = v
	}
	if v, err := queryPaise(q.Get("price_max_paise")); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid price_max_paise")
	} else if v != nil {
		input.Filters.PriceMaxPaise = v
	}

	if allowStatus {
		if raw := strings.TrimSpace(q.Get("status")); raw != "" {
			status, err := enums.ParseLandStatus(raw)
			if err != nil {
				return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status")
			}
			input.Filters.Status = &status
		}
	}

	return &input, nil
}

func queryFloat(raw string) (*float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func queryPaise(raw string) (*int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, err
	}
	return &v, nil
}
