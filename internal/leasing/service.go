package leasing

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/agricorus/agricorus-backend/internal/lands"
	"github.com/agricorus/agricorus-backend/pkg/db/models"
	"github.com/agricorus/agricorus-backend/pkg/enums"
	pkgerrors "github.com/agricorus/agricorus-backend/pkg/errors"
	"github.com/agricorus/agricorus-backend/pkg/outbox"
	"github.com/agricorus/agricorus-backend/pkg/outbox/payloads"
	"github.com/agricorus/agricorus-backend/pkg/pagination"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type landRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Land, error)
	UpdateStatusIf(ctx context.Context, id uuid.UUID, from, to enums.LandStatus) (bool, error)
}

// LandRepoFactory binds a land repository to the active transaction.
type LandRepoFactory func(tx *gorm.DB) landRepository

// Service exposes the lease request workflow and lease lifecycle.
type Service interface {
	Request(ctx context.Context, farmerID uuid.UUID, input CreateRequestInput) (*LeaseRequestDTO, error)
	Cancel(ctx context.Context, farmerID, requestID uuid.UUID) (*LeaseRequestDTO, error)
	Respond(ctx context.Context, ownerID, requestID uuid.UUID, decision RequestDecision) (*RespondResult, error)
	ListMyRequests(ctx context.Context, farmerID uuid.UUID, params pagination.Params) (*RequestListResult, error)
	ListIncomingRequests(ctx context.Context, ownerID uuid.UUID, params pagination.Params) (*RequestListResult, error)

	GetLease(ctx context.Context, actorID uuid.UUID, actorRole enums.UserRole, leaseID uuid.UUID) (*LeaseDTO, error)
	ListLeases(ctx context.Context, actorID uuid.UUID, actorRole enums.UserRole, input ListLeasesInput) (*LeaseListResult, error)
	Terminate(ctx context.Context, adminID, leaseID uuid.UUID, reason string) (*LeaseDTO, error)
}

type service struct {
	repo        Repository
	landRepoFor LandRepoFactory
	tx          txRunner
	outbox      outboxPublisher
}

// NewService builds a leasing service with the required dependencies. A nil
// landRepoFor falls back to the lands package repository.
func NewService(repo Repository, landRepoFor LandRepoFactory, tx txRunner, outboxPub outboxPublisher) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("leasing repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if outboxPub == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if landRepoFor == nil {
		landRepoFor = func(tx *gorm.DB) landRepository {
			return lands.NewRepository(tx)
		}
	}
	return &service{repo: repo, landRepoFor: landRepoFor, tx: tx, outbox: outboxPub}, nil
}

func (s *service) Request(ctx context.Context, farmerID uuid.UUID, input CreateRequestInput) (*LeaseRequestDTO, error) {
	if farmerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if input.LandID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "land id required")
	}
	if input.AmountPaise != nil && *input.AmountPaise <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "amount_paise must be positive")
	}

	var created *models.LeaseRequest
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		landRepo := s.landRepoFor(tx)

		land, err := landRepo.FindByID(ctx, input.LandID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "land not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load land")
		}
		if land.OwnerID == farmerID {
			return pkgerrors.New(pkgerrors.CodeValidation, "cannot request own land")
		}
		if !land.IsApproved || land.Status != enums.LandStatusAvailable {
			return pkgerrors.New(pkgerrors.CodeNotAvailable, "land is not available for lease")
		}

		pending, err := repo.HasPendingRequest(ctx, land.ID, farmerID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check pending request")
		}
		if pending {
			return pkgerrors.New(pkgerrors.CodeConflict, "a pending request already exists for this land")
		}

		amount := land.LeasePricePerMonthPaise
		if input.AmountPaise != nil {
			amount = *input.AmountPaise
		}
		row, err := repo.CreateRequest(ctx, &models.LeaseRequest{
			LandID:      land.ID,
			FarmerID:    farmerID,
			StartDate:   input.StartDate,
			EndDate:     input.EndDate,
			Terms:       input.Terms,
			AmountPaise: amount,
			Status:      enums.LeaseRequestStatusPending,
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert lease request")
		}
		created = row

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventLeaseRequested,
			AggregateType: enums.AggregateLeaseRequest,
			AggregateID:   row.ID,
			Version:       1,
			Actor:         actorRef(farmerID, enums.UserRoleFarmer),
			Data: payloads.LeaseRequestedEvent{
				RequestID: row.ID,
				LandID:    land.ID,
				FarmerID:  farmerID,
				OwnerID:   land.OwnerID,
			},
		})
	})
	if err != nil {
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create lease request")
	}
	return RequestFromModel(created), nil
}

func (s *service) Cancel(ctx context.Context, farmerID, requestID uuid.UUID) (*LeaseRequestDTO, error) {
	if farmerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	var cancelled *models.LeaseRequest
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		req, err := repo.FindRequestByID(ctx, requestID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "lease request not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load lease request")
		}
		if req.FarmerID != farmerID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "request does not belong to user")
		}
		if req.Status != enums.LeaseRequestStatusPending {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "only pending requests can be cancelled")
		}

		moved, err := repo.UpdateRequestStatusIf(ctx, req.ID, enums.LeaseRequestStatusPending, enums.LeaseRequestStatusCancelled)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: cancel lease request")
		}
		if !moved {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "request status changed concurrently")
		}
		req.Status = enums.LeaseRequestStatusCancelled
		cancelled = req

		ownerID, err := s.landOwnerID(ctx, tx, req.LandID)
		if err != nil {
			return err
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventLeaseRequestDecided,
			AggregateType: enums.AggregateLeaseRequest,
			AggregateID:   req.ID,
			Version:       1,
			Actor:         actorRef(farmerID, enums.UserRoleFarmer),
			Data: payloads.LeaseRequestDecidedEvent{
				RequestID: req.ID,
				LandID:    req.LandID,
				FarmerID:  req.FarmerID,
				OwnerID:   ownerID,
				Status:    enums.LeaseRequestStatusCancelled,
			},
		})
	})
	if err != nil {
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cancel lease request")
	}
	return RequestFromModel(cancelled), nil
}

func (s *service) Respond(ctx context.Context, ownerID, requestID uuid.UUID, decision RequestDecision) (*RespondResult, error) {
	if ownerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if decision != RequestDecisionApprove && decision != RequestDecisionReject {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "decision must be approve or reject")
	}

	result := &RespondResult{}
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		landRepo := s.landRepoFor(tx)

		req, err := repo.FindRequestByID(ctx, requestID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "lease request not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load lease request")
		}

		land, err := landRepo.FindByID(ctx, req.LandID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "land not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load land")
		}
		if land.OwnerID != ownerID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "request does not target an owned land")
		}
		if req.Status != enums.LeaseRequestStatusPending {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "request already decided")
		}

		if decision == RequestDecisionReject {
			return s.rejectRequest(ctx, tx, repo, req, land.OwnerID, result)
		}
		return s.approveRequest(ctx, tx, repo, landRepo, req, land, result)
	})
	if err != nil {
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "respond to lease request")
	}
	return result, nil
}

func (s *service) rejectRequest(ctx context.Context, tx *gorm.DB, repo Repository, req *models.LeaseRequest, ownerID uuid.UUID, result *RespondResult) error {
	moved, err := repo.UpdateRequestStatusIf(ctx, req.ID, enums.LeaseRequestStatusPending, enums.LeaseRequestStatusRejected)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: reject lease request")
	}
	if !moved {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "request status changed concurrently")
	}
	req.Status = enums.LeaseRequestStatusRejected
	result.Request = RequestFromModel(req)

	return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventLeaseRequestDecided,
		AggregateType: enums.AggregateLeaseRequest,
		AggregateID:   req.ID,
		Version:       1,
		Actor:         actorRef(ownerID, enums.UserRoleLandowner),
		Data: payloads.LeaseRequestDecidedEvent{
			RequestID: req.ID,
			LandID:    req.LandID,
			FarmerID:  req.FarmerID,
			OwnerID:   ownerID,
			Status:    enums.LeaseRequestStatusRejected,
		},
	})
}

// approveRequest performs the whole acceptance atomically: the land CAS to
// leased, the lease row, the request decision, and the sibling auto-rejects.
func (s *service) approveRequest(ctx context.Context, tx *gorm.DB, repo Repository, landRepo landRepository, req *models.LeaseRequest, land *models.Land, result *RespondResult) error {
	moved, err := landRepo.UpdateStatusIf(ctx, land.ID, enums.LandStatusAvailable, enums.LandStatusLeased)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: mark land leased")
	}
	if !moved {
		return pkgerrors.New(pkgerrors.CodeNotAvailable, "land is no longer available")
	}

	decided, err := repo.UpdateRequestStatusIf(ctx, req.ID, enums.LeaseRequestStatusPending, enums.LeaseRequestStatusApproved)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: approve lease request")
	}
	if !decided {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "request status changed concurrently")
	}
	req.Status = enums.LeaseRequestStatusApproved

	startedAt := time.Now().UTC()
	if req.StartDate != nil {
		startedAt = *req.StartDate
	}
	pricePerMonth := land.LeasePricePerMonthPaise
	if req.AmountPaise > 0 {
		pricePerMonth = req.AmountPaise
	}
	lease, err := repo.CreateLease(ctx, &models.Lease{
		LandID:             land.ID,
		FarmerID:           req.FarmerID,
		OwnerID:            land.OwnerID,
		RequestID:          req.ID,
		DurationMonths:     land.LeaseDurationMonths,
		PricePerMonthPaise: pricePerMonth,
		Status:             enums.LeaseStatusActive,
		StartedAt:          startedAt,
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert lease")
	}

	result.Request = RequestFromModel(req)
	result.Lease = LeaseFromModel(lease)

	// Sibling pending requests lose the race and are rejected in the same tx.
	siblings, err := repo.ListPendingRequestsByLand(ctx, land.ID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list sibling requests")
	}
	actor := actorRef(land.OwnerID, enums.UserRoleLandowner)
	for i := range siblings {
		sibling := &siblings[i]
		if sibling.ID == req.ID {
			continue
		}
		if _, err := repo.UpdateRequestStatusIf(ctx, sibling.ID, enums.LeaseRequestStatusPending, enums.LeaseRequestStatusRejected); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: auto-reject sibling request")
		}
		event := outbox.DomainEvent{
			EventType:     enums.EventLeaseRequestDecided,
			AggregateType: enums.AggregateLeaseRequest,
			AggregateID:   sibling.ID,
			Version:       1,
			Actor:         actor,
			Data: payloads.LeaseRequestDecidedEvent{
				RequestID: sibling.ID,
				LandID:    land.ID,
				FarmerID:  sibling.FarmerID,
				OwnerID:   land.OwnerID,
				Status:    enums.LeaseRequestStatusRejected,
			},
		}
		if err := s.outbox.Emit(ctx, tx, event); err != nil {
			return err
		}
	}

	leaseID := lease.ID
	decidedEvent := outbox.DomainEvent{
		EventType:     enums.EventLeaseRequestDecided,
		AggregateType: enums.AggregateLeaseRequest,
		AggregateID:   req.ID,
		Version:       1,
		Actor:         actor,
		Data: payloads.LeaseRequestDecidedEvent{
			RequestID: req.ID,
			LandID:    land.ID,
			FarmerID:  req.FarmerID,
			OwnerID:   land.OwnerID,
			Status:    enums.LeaseRequestStatusApproved,
			LeaseID:   &leaseID,
		},
	}
	if err := s.outbox.Emit(ctx, tx, decidedEvent); err != nil {
		return err
	}

	return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventLeaseActivated,
		AggregateType: enums.AggregateLease,
		AggregateID:   lease.ID,
		Version:       1,
		Actor:         actor,
		Data: payloads.LeaseActivatedEvent{
			LeaseID:            lease.ID,
			RequestID:          req.ID,
			LandID:             land.ID,
			FarmerID:           req.FarmerID,
			OwnerID:            land.OwnerID,
			DurationMonths:     lease.DurationMonths,
			PricePerMonthPaise: lease.PricePerMonthPaise,
		},
	})
}

func (s *service) ListMyRequests(ctx context.Context, farmerID uuid.UUID, params pagination.Params) (*RequestListResult, error) {
	if farmerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	result, err := s.repo.ListRequestsByFarmer(ctx, farmerID, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list own requests")
	}
	return result, nil
}

func (s *service) ListIncomingRequests(ctx context.Context, ownerID uuid.UUID, params pagination.Params) (*RequestListResult, error) {
	if ownerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	result, err := s.repo.ListRequestsByOwner(ctx, ownerID, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list incoming requests")
	}
	return result, nil
}

func (s *service) GetLease(ctx context.Context, actorID uuid.UUID, actorRole enums.UserRole, leaseID uuid.UUID) (*LeaseDTO, error) {
	lease, err := s.loadLeaseForActor(ctx, s.repo, actorID, actorRole, leaseID)
	if err != nil {
		return nil, err
	}
	return LeaseFromModel(lease), nil
}

func (s *service) ListLeases(ctx context.Context, actorID uuid.UUID, actorRole enums.UserRole, input ListLeasesInput) (*LeaseListResult, error) {
	if actorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	query := leaseListQuery{Status: input.Status, Pagination: input.Pagination}
	switch actorRole {
	case enums.UserRoleFarmer:
		query.FarmerID = &actorID
	case enums.UserRoleLandowner:
		query.OwnerID = &actorID
	case enums.UserRoleAdmin:
		// admins see everything
	default:
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "unsupported role")
	}

	result, err := s.repo.ListLeases(ctx, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list leases")
	}
	return result, nil
}

func (s *service) Terminate(ctx context.Context, adminID, leaseID uuid.UUID, reason string) (*LeaseDTO, error) {
	if adminID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	var terminated *models.Lease
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		landRepo := s.landRepoFor(tx)

		lease, err := repo.FindLeaseByID(ctx, leaseID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "lease not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load lease")
		}
		if lease.Status != enums.LeaseStatusActive {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "only active leases can be terminated")
		}

		endedAt := time.Now().UTC()
		moved, err := repo.UpdateLeaseStatusIf(ctx, lease.ID, enums.LeaseStatusActive, enums.LeaseStatusTerminated, &endedAt)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: terminate lease")
		}
		if !moved {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "lease status changed concurrently")
		}
		lease.Status = enums.LeaseStatusTerminated
		lease.EndedAt = &endedAt
		terminated = lease

		// Release the land so the owner can relist.
		if _, err := landRepo.UpdateStatusIf(ctx, lease.LandID, enums.LandStatusLeased, enums.LandStatusAvailable); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: release land")
		}

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventLeaseTerminated,
			AggregateType: enums.AggregateLease,
			AggregateID:   lease.ID,
			Version:       1,
			Actor:         actorRef(adminID, enums.UserRoleAdmin),
			Data: payloads.LeaseTerminatedEvent{
				LeaseID:      lease.ID,
				LandID:       lease.LandID,
				FarmerID:     lease.FarmerID,
				OwnerID:      lease.OwnerID,
				Reason:       strings.TrimSpace(reason),
				TerminatedAt: endedAt,
			},
		})
	})
	if err != nil {
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "terminate lease")
	}
	return LeaseFromModel(terminated), nil
}

func (s *service) loadLeaseForActor(ctx context.Context, repo Repository, actorID uuid.UUID, actorRole enums.UserRole, leaseID uuid.UUID) (*models.Lease, error) {
	if actorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	lease, err := repo.FindLeaseByID(ctx, leaseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "lease not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load lease")
	}
	if actorRole != enums.UserRoleAdmin && lease.FarmerID != actorID && lease.OwnerID != actorID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "lease does not involve user")
	}
	return lease, nil
}

func (s *service) landOwnerID(ctx context.Context, tx *gorm.DB, landID uuid.UUID) (uuid.UUID, error) {
	land, err := s.landRepoFor(tx).FindByID(ctx, landID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return uuid.Nil, pkgerrors.New(pkgerrors.CodeNotFound, "land not found")
		}
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load land")
	}
	return land.OwnerID, nil
}

func actorRef(userID uuid.UUID, role enums.UserRole) *outbox.ActorRef {
	return &outbox.ActorRef{
		UserID: userID,
		Role:   role.String(),
	}
}
