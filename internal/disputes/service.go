package disputes

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/agricorus/agricorus-backend/internal/leasing"
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

type leaseRepository interface {
	FindLeaseByID(ctx context.Context, id uuid.UUID) (*models.Lease, error)
}

// LeaseRepoFactory yields a lease reader bound to the given transaction.
type LeaseRepoFactory func(tx *gorm.DB) leaseRepository

// Service exposes dispute handling for lease parties and admins.
type Service interface {
	Raise(ctx context.Context, actorID uuid.UUID, input RaiseDisputeInput) (*DisputeDTO, error)
	Get(ctx context.Context, actorID uuid.UUID, actorRole enums.UserRole, disputeID uuid.UUID) (*DisputeDTO, error)
	ListMine(ctx context.Context, actorID uuid.UUID, input ListDisputesInput) (*DisputeListResult, error)
	AdminList(ctx context.Context, input ListDisputesInput) (*DisputeListResult, error)
	MarkInReview(ctx context.Context, adminID, disputeID uuid.UUID) (*DisputeDTO, error)
	Resolve(ctx context.Context, adminID, disputeID uuid.UUID, input ResolveInput) (*DisputeDTO, error)
}

type service struct {
	repo         Repository
	leaseRepoFor LeaseRepoFactory
	tx           txRunner
	outbox       outboxPublisher
	now          func() time.Time
}

// NewService builds a dispute service. A nil factory defaults to the real
// lease repository.
func NewService(repo Repository, leaseRepoFor LeaseRepoFactory, tx txRunner, outboxPub outboxPublisher) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("disputes repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if outboxPub == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if leaseRepoFor == nil {
		leaseRepoFor = func(tx *gorm.DB) leaseRepository {
			return leasing.NewRepository(tx)
		}
	}
	return &service{
		repo:         repo,
		leaseRepoFor: leaseRepoFor,
		tx:           tx,
		outbox:       outboxPub,
		now:          time.Now,
	}, nil
}

func (s *service) Raise(ctx context.Context, actorID uuid.UUID, input RaiseDisputeInput) (*DisputeDTO, error) {
	if actorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if strings.TrimSpace(input.Reason) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "reason is required")
	}
	if !input.Category.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid dispute category")
	}
	if input.PaymentID != nil && input.LeaseID == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment disputes must reference the lease")
	}
	if input.LeaseID == nil {
		if input.AgainstID == uuid.Nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "against_id is required without a lease reference")
		}
		if input.AgainstID == actorID {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "cannot raise a dispute against yourself")
		}
	}

	var created *models.Dispute
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		againstID := input.AgainstID
		if input.LeaseID != nil {
			lease, err := s.leaseRepoFor(tx).FindLeaseByID(ctx, *input.LeaseID)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return pkgerrors.New(pkgerrors.CodeNotFound, "lease not found")
				}
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load lease")
			}
			// The counterparty is derived from the lease, never trusted
			// from the payload.
			switch actorID {
			case lease.FarmerID:
				againstID = lease.OwnerID
			case lease.OwnerID:
				againstID = lease.FarmerID
			default:
				return pkgerrors.New(pkgerrors.CodeForbidden, "only a lease party can raise a dispute on it")
			}
		}

		row, err := repo.Create(ctx, &models.Dispute{
			RaisedByID:          actorID,
			AgainstID:           againstID,
			LeaseID:             input.LeaseID,
			PaymentID:           input.PaymentID,
			Reason:              strings.TrimSpace(input.Reason),
			Details:             input.Details,
			Category:            input.Category,
			Attachments:         input.Attachments,
			DateOfIncident:      input.DateOfIncident,
			AmountInvolvedPaise: input.AmountInvolvedPaise,
			PreferredResolution: input.PreferredResolution,
			Status:              enums.DisputeStatusOpen,
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert dispute")
		}
		created = row

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventDisputeOpened,
			AggregateType: enums.AggregateDispute,
			AggregateID:   row.ID,
			Version:       1,
			Actor:         &outbox.ActorRef{UserID: actorID},
			Data: payloads.DisputeOpenedEvent{
				DisputeID:  row.ID,
				RaisedByID: row.RaisedByID,
				AgainstID:  row.AgainstID,
				LeaseID:    row.LeaseID,
				Category:   row.Category,
			},
		})
	})
	if err != nil {
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "raise dispute")
	}
	return FromModel(created), nil
}

func (s *service) Get(ctx context.Context, actorID uuid.UUID, actorRole enums.UserRole, disputeID uuid.UUID) (*DisputeDTO, error) {
	if actorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	dispute, err := s.loadDispute(ctx, s.repo, disputeID)
	if err != nil {
		return nil, err
	}
	if actorRole != enums.UserRoleAdmin && dispute.RaisedByID != actorID && dispute.AgainstID != actorID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "dispute not found")
	}
	return FromModel(dispute), nil
}

func (s *service) ListMine(ctx context.Context, actorID uuid.UUID, input ListDisputesInput) (*DisputeListResult, error) {
	if actorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	result, err := s.repo.List(ctx, disputeListQuery{
		PartyID:    &actorID,
		Status:     input.Status,
		Category:   input.Category,
		Pagination: input.Pagination,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list disputes")
	}
	return result, nil
}

func (s *service) AdminList(ctx context.Context, input ListDisputesInput) (*DisputeListResult, error) {
	result, err := s.repo.List(ctx, disputeListQuery{
		Status:     input.Status,
		Category:   input.Category,
		Pagination: input.Pagination,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list disputes")
	}
	return result, nil
}

func (s *service) MarkInReview(ctx context.Context, adminID, disputeID uuid.UUID) (*DisputeDTO, error) {
	if adminID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	var updated *models.Dispute
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		dispute, err := s.loadDispute(ctx, repo, disputeID)
		if err != nil {
			return err
		}
		moved, err := repo.UpdateStatusIf(ctx, dispute.ID, enums.DisputeStatusOpen, enums.DisputeStatusInReview)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: update dispute status")
		}
		if !moved {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "dispute is not open")
		}
		dispute.Status = enums.DisputeStatusInReview
		updated = dispute
		return nil
	})
	if err != nil {
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark dispute in review")
	}
	return FromModel(updated), nil
}

// Resolve closes a dispute. The ticket may be resolved straight from open
// or after triage; closed tickets never reopen.
func (s *service) Resolve(ctx context.Context, adminID, disputeID uuid.UUID, input ResolveInput) (*DisputeDTO, error) {
	if adminID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if input.Decision != ResolveDecisionResolved && input.Decision != ResolveDecisionRejected {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "decision must be resolved or rejected")
	}
	note := strings.TrimSpace(input.ResolutionNote)
	if note == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "resolution_note is required")
	}

	var updated *models.Dispute
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		dispute, err := s.loadDispute(ctx, repo, disputeID)
		if err != nil {
			return err
		}
		if dispute.Status.IsTerminal() {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "dispute already closed")
		}

		status := enums.DisputeStatusResolved
		if input.Decision == ResolveDecisionRejected {
			status = enums.DisputeStatusRejected
		}
		now := s.now().UTC()
		dispute.Status = status
		dispute.ResolutionNote = &note
		dispute.AdminRemarks = input.AdminRemarks
		dispute.ActionTakenByID = &adminID
		dispute.ActionTakenAt = &now
		if err := repo.Update(ctx, dispute); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: update dispute")
		}
		updated = dispute

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventDisputeResolved,
			AggregateType: enums.AggregateDispute,
			AggregateID:   dispute.ID,
			Version:       1,
			Actor:         &outbox.ActorRef{UserID: adminID, Role: enums.UserRoleAdmin.String()},
			Data: payloads.DisputeResolvedEvent{
				DisputeID:  dispute.ID,
				RaisedByID: dispute.RaisedByID,
				AgainstID:  dispute.AgainstID,
				Status:     status,
				Resolution: note,
			},
		})
	})
	if err != nil {
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "resolve dispute")
	}
	return FromModel(updated), nil
}

func (s *service) loadDispute(ctx context.Context, repo Repository, disputeID uuid.UUID) (*models.Dispute, error) {
	dispute, err := repo.FindByID(ctx, disputeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "dispute not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load dispute")
	}
	return dispute, nil
}
