package lands

import (
	"time"

	"github.com/agricorus/agricorus-backend/pkg/db/models"
	"github.com/agricorus/agricorus-backend/pkg/enums"
	"github.com/agricorus/agricorus-backend/pkg/pagination"
	"github.com/google/uuid"
)

// LandDTO is the API shape of a listing.
type LandDTO struct {
	ID                      uuid.UUID        `json:"id"`
	OwnerID                 uuid.UUID        `json:"owner_id"`
	Title                   string           `json:"title"`
	Address                 string           `json:"address,omitempty"`
	Latitude                *float64         `json:"latitude,omitempty"`
	Longitude               *float64         `json:"longitude,omitempty"`
	SoilType                string           `json:"soil_type"`
	WaterSource             *string          `json:"water_source,omitempty"`
	Accessibility           *string          `json:"accessibility,omitempty"`
	SizeInAcres             float64          `json:"size_in_acres"`
	LeasePricePerMonthPaise int64            `json:"lease_price_per_month_paise"`
	LeaseDurationMonths     int              `json:"lease_duration_months"`
	LandPhotos              []string         `json:"land_photos,omitempty"`
	LandDocuments           []string         `json:"land_documents,omitempty"`
	Status                  enums.LandStatus `json:"status"`
	IsApproved              bool             `json:"is_approved"`
	RejectionReason         *string          `json:"rejection_reason,omitempty"`
	CreatedAt               time.Time        `json:"created_at"`
	UpdatedAt               time.Time        `json:"updated_at"`
}

// FromModel converts a land row into its API shape.
func FromModel(land *models.Land) *LandDTO {
	if land == nil {
		return nil
	}
	return &LandDTO{
		ID:                      land.ID,
		OwnerID:                 land.OwnerID,
		Title:                   land.Title,
		Address:                 land.Address,
		Latitude:                land.Latitude,
		Longitude:               land.Longitude,
		SoilType:                land.SoilType,
		WaterSource:             land.WaterSource,
		Accessibility:           land.Accessibility,
		SizeInAcres:             land.SizeInAcres,
		LeasePricePerMonthPaise: land.LeasePricePerMonthPaise,
		LeaseDurationMonths:     land.LeaseDurationMonths,
		LandPhotos:              append([]string(nil), land.LandPhotos...),
		LandDocuments:           append([]string(nil), land.LandDocuments...),
		Status:                  land.Status,
		IsApproved:              land.IsApproved,
		RejectionReason:         land.RejectionReason,
		CreatedAt:               land.CreatedAt,
		UpdatedAt:               land.UpdatedAt,
	}
}

// CreateLandInput holds the validated payload to submit a listing.
type CreateLandInput struct {
	Title                   string
	Address                 string
	Latitude                *float64
	Longitude               *float64
	SoilType                string
	WaterSource             *string
	Accessibility           *string
	SizeInAcres             float64
	LeasePricePerMonthPaise int64
	LeaseDurationMonths     int
	LandPhotos              []string
	LandDocuments           []string
}

// UpdateLandInput holds optional mutation values for a listing.
type UpdateLandInput struct {
	Title                   *string
	Address                 *string
	Latitude                *float64
	Longitude               *float64
	SoilType                *string
	WaterSource             *string
	Accessibility           *string
	SizeInAcres             *float64
	LeasePricePerMonthPaise *int64
	LeaseDurationMonths     *int
	LandPhotos              *[]string
	LandDocuments           *[]string
}

// LandListFilters describe the supported filter knobs for the browse endpoint.
type LandListFilters struct {
	SoilType      *string           `json:"soil_type,omitempty"`
	MinAcres      *float64          `json:"min_acres,omitempty"`
	MaxAcres      *float64          `json:"max_acres,omitempty"`
	PriceMinPaise *int64            `json:"price_min_paise,omitempty"`
	PriceMaxPaise *int64            `json:"price_max_paise,omitempty"`
	Status        *enums.LandStatus `json:"status,omitempty"`
	Query         string            `json:"q,omitempty"`
}

// ListLandsInput captures the inputs needed to paginate/filter listings.
type ListLandsInput struct {
	Filters    LandListFilters
	Pagination pagination.Params
}

// LandListResult is one page of listings plus the cursor for the next page.
type LandListResult struct {
	Items      []LandDTO `json:"items"`
	NextCursor string    `json:"next_cursor,omitempty"`
}
