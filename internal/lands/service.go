package lands

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/agricorus/agricorus-backend/pkg/db/models"
	"github.com/agricorus/agricorus-backend/pkg/enums"
	pkgerrors "github.com/agricorus/agricorus-backend/pkg/errors"
	"github.com/agricorus/agricorus-backend/pkg/outbox"
	"github.com/agricorus/agricorus-backend/pkg/outbox/payloads"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service exposes listing management for landowners, farmers, and admins.
type Service interface {
	Submit(ctx context.Context, ownerID uuid.UUID, input CreateLandInput) (*LandDTO, error)
	Update(ctx context.Context, ownerID, landID uuid.UUID, input UpdateLandInput) (*LandDTO, error)
	Deactivate(ctx context.Context, ownerID, landID uuid.UUID) error
	Get(ctx context.Context, actorID uuid.UUID, actorRole enums.UserRole, landID uuid.UUID) (*LandDTO, error)
	ListPublic(ctx context.Context, input ListLandsInput) (*LandListResult, error)
	ListMine(ctx context.Context, ownerID uuid.UUID, input ListLandsInput) (*LandListResult, error)
	AdminList(ctx context.Context, input ListLandsInput) (*LandListResult, error)
	AdminApprove(ctx context.Context, adminID, landID uuid.UUID) (*LandDTO, error)
	AdminReject(ctx context.Context, adminID, landID uuid.UUID, reason string) (*LandDTO, error)
}

type service struct {
	repo   Repository
	tx     txRunner
	outbox outboxPublisher
}

// NewService builds a land service with the required dependencies.
func NewService(repo Repository, tx txRunner, outboxPub outboxPublisher) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("lands repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if outboxPub == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	return &service{repo: repo, tx: tx, outbox: outboxPub}, nil
}

func (s *service) Submit(ctx context.Context, ownerID uuid.UUID, input CreateLandInput) (*LandDTO, error) {
	if ownerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if err := validateListingTerms(input.SizeInAcres, input.LeasePricePerMonthPaise, input.LeaseDurationMonths); err != nil {
		return nil, err
	}
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "title is required")
	}
	soil := strings.TrimSpace(input.SoilType)
	if soil == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "soil_type is required")
	}

	var created *models.Land
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		land := &models.Land{
			OwnerID:                 ownerID,
			Title:                   title,
			Address:                 strings.TrimSpace(input.Address),
			Latitude:                input.Latitude,
			Longitude:               input.Longitude,
			SoilType:                soil,
			WaterSource:             input.WaterSource,
			Accessibility:           input.Accessibility,
			SizeInAcres:             input.SizeInAcres,
			LeasePricePerMonthPaise: input.LeasePricePerMonthPaise,
			LeaseDurationMonths:     input.LeaseDurationMonths,
			LandPhotos:              input.LandPhotos,
			LandDocuments:           input.LandDocuments,
			Status:                  enums.LandStatusAvailable,
			IsApproved:              false,
		}
		row, err := repo.Create(ctx, land)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert land")
		}
		created = row

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventLandSubmitted,
			AggregateType: enums.AggregateLand,
			AggregateID:   row.ID,
			Version:       1,
			Actor:         actorRef(ownerID, enums.UserRoleLandowner),
			Data: payloads.LandSubmittedEvent{
				LandID:  row.ID,
				OwnerID: ownerID,
				Title:   row.Title,
			},
		})
	})
	if err != nil {
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "submit land")
	}
	return FromModel(created), nil
}

func (s *service) Update(ctx context.Context, ownerID, landID uuid.UUID, input UpdateLandInput) (*LandDTO, error) {
	land, err := s.loadOwnedLand(ctx, ownerID, landID)
	if err != nil {
		return nil, err
	}
	if land.Status == enums.LandStatusLeased {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "leased land cannot be edited")
	}

	applyUpdateToLand(land, input)
	if err := validateListingTerms(land.SizeInAcres, land.LeasePricePerMonthPaise, land.LeaseDurationMonths); err != nil {
		return nil, err
	}

	// Edits to a listing send it back through admin review.
	land.IsApproved = false
	land.RejectionReason = nil

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.Update(ctx, land); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: update land")
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventLandSubmitted,
			AggregateType: enums.AggregateLand,
			AggregateID:   land.ID,
			Version:       1,
			Actor:         actorRef(ownerID, enums.UserRoleLandowner),
			Data: payloads.LandSubmittedEvent{
				LandID:  land.ID,
				OwnerID: ownerID,
				Title:   land.Title,
			},
		})
	})
	if err != nil {
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update land")
	}
	return FromModel(land), nil
}

func (s *service) Deactivate(ctx context.Context, ownerID, landID uuid.UUID) error {
	land, err := s.loadOwnedLand(ctx, ownerID, landID)
	if err != nil {
		return err
	}
	if land.Status == enums.LandStatusLeased {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "leased land cannot be deactivated")
	}
	if land.Status == enums.LandStatusInactive {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "land already inactive")
	}

	moved, err := s.repo.UpdateStatusIf(ctx, landID, enums.LandStatusAvailable, enums.LandStatusInactive)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: deactivate land")
	}
	if !moved {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "land status changed concurrently")
	}
	return nil
}

func (s *service) Get(ctx context.Context, actorID uuid.UUID, actorRole enums.UserRole, landID uuid.UUID) (*LandDTO, error) {
	land, err := s.repo.FindByID(ctx, landID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "land not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load land")
	}

	// Unapproved listings stay visible to their owner and to admins only.
	if !land.IsApproved && actorRole != enums.UserRoleAdmin && land.OwnerID != actorID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "land not found")
	}
	return FromModel(land), nil
}

func (s *service) ListPublic(ctx context.Context, input ListLandsInput) (*LandListResult, error) {
	result, err := s.repo.List(ctx, landListQuery{
		Filters:    input.Filters,
		Pagination: input.Pagination,
		PublicOnly: true,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list lands")
	}
	return result, nil
}

func (s *service) ListMine(ctx context.Context, ownerID uuid.UUID, input ListLandsInput) (*LandListResult, error) {
	if ownerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	result, err := s.repo.List(ctx, landListQuery{
		Filters:    input.Filters,
		Pagination: input.Pagination,
		OwnerID:    &ownerID,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list own lands")
	}
	return result, nil
}

func (s *service) AdminList(ctx context.Context, input ListLandsInput) (*LandListResult, error) {
	result, err := s.repo.List(ctx, landListQuery{
		Filters:    input.Filters,
		Pagination: input.Pagination,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list lands for admin")
	}
	return result, nil
}

func (s *service) AdminApprove(ctx context.Context, adminID, landID uuid.UUID) (*LandDTO, error) {
	return s.review(ctx, adminID, landID, true, nil)
}

func (s *service) AdminReject(ctx context.Context, adminID, landID uuid.UUID, reason string) (*LandDTO, error) {
	trimmed := strings.TrimSpace(reason)
	if trimmed == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "rejection reason is required")
	}
	return s.review(ctx, adminID, landID, false, &trimmed)
}

func (s *service) review(ctx context.Context, adminID, landID uuid.UUID, approved bool, reason *string) (*LandDTO, error) {
	if adminID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	var reviewed *models.Land
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		land, err := repo.FindByID(ctx, landID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "land not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load land")
		}
		if land.IsApproved && approved {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "land already approved")
		}

		if err := repo.SetReview(ctx, land.ID, approved, reason); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: set review")
		}
		land.IsApproved = approved
		land.RejectionReason = reason
		reviewed = land

		rejection := ""
		if reason != nil {
			rejection = *reason
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventLandReviewed,
			AggregateType: enums.AggregateLand,
			AggregateID:   land.ID,
			Version:       1,
			Actor:         actorRef(adminID, enums.UserRoleAdmin),
			Data: payloads.LandReviewedEvent{
				LandID:          land.ID,
				OwnerID:         land.OwnerID,
				Approved:        approved,
				RejectionReason: rejection,
			},
		})
	})
	if err != nil {
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "review land")
	}
	return FromModel(reviewed), nil
}

func (s *service) loadOwnedLand(ctx context.Context, ownerID, landID uuid.UUID) (*models.Land, error) {
	if ownerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	land, err := s.repo.FindByID(ctx, landID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "land not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load land")
	}
	if land.OwnerID != ownerID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "land does not belong to user")
	}
	return land, nil
}

func validateListingTerms(acres float64, pricePaise int64, durationMonths int) error {
	if acres <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "size_in_acres must be positive")
	}
	if pricePaise <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "lease_price_per_month_paise must be positive")
	}
	if durationMonths <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "lease_duration_months must be positive")
	}
	return nil
}

func applyUpdateToLand(land *models.Land, input UpdateLandInput) {
	if input.Title != nil {
		land.Title = strings.TrimSpace(*input.Title)
	}
	if input.Address != nil {
		land.Address = strings.TrimSpace(*input.Address)
	}
	if input.Latitude != nil {
		land.Latitude = input.Latitude
	}
	if input.Longitude != nil {
		land.Longitude = input.Longitude
	}
	if input.SoilType != nil {
		land.SoilType = strings.TrimSpace(*input.SoilType)
	}
	if input.WaterSource != nil {
		land.WaterSource = input.WaterSource
	}
	if input.Accessibility != nil {
		land.Accessibility = input.Accessibility
	}
	if input.SizeInAcres != nil {
		land.SizeInAcres = *input.SizeInAcres
	}
	if input.LeasePricePerMonthPaise != nil {
		land.LeasePricePerMonthPaise = *input.LeasePricePerMonthPaise
	}
	if input.LeaseDurationMonths != nil {
		land.LeaseDurationMonths = *input.LeaseDurationMonths
	}
	if input.LandPhotos != nil {
		land.LandPhotos = append([]string(nil), *input.LandPhotos...)
	}
	if input.LandDocuments != nil {
		land.LandDocuments = append([]string(nil), *input.LandDocuments...)
	}
}

func actorRef(userID uuid.UUID, role enums.UserRole) *outbox.ActorRef {
	return &outbox.ActorRef{
		UserID: userID,
		Role:   role.String(),
	}
}
