package payouts

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/agricorus/agricorus-backend/internal/leasing"
	"github.com/agricorus/agricorus-backend/internal/payoutmethods"
	dbpkg "github.com/agricorus/agricorus-backend/pkg/db"
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

type methodRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.PayoutMethod, error)
}

// LeaseRepoFactory yields a lease reader bound to the given transaction.
type LeaseRepoFactory func(tx *gorm.DB) leaseRepository

// MethodRepoFactory yields a payout method reader bound to the given
// transaction.
type MethodRepoFactory func(tx *gorm.DB) methodRepository

// Service exposes payout request handling for landowners and admins.
type Service interface {
	Request(ctx context.Context, ownerID uuid.UUID, input RequestPayoutInput) (*PayoutDTO, error)
	Cancel(ctx context.Context, ownerID, requestID uuid.UUID) (*PayoutDTO, error)
	Get(ctx context.Context, actorID uuid.UUID, actorRole enums.UserRole, requestID uuid.UUID) (*PayoutDTO, error)
	ListMine(ctx context.Context, ownerID uuid.UUID, input ListPayoutsInput) (*PayoutListResult, error)
	AdminList(ctx context.Context, input ListPayoutsInput) (*PayoutListResult, error)
	Review(ctx context.Context, adminID, requestID uuid.UUID, input ReviewInput) (*PayoutDTO, error)
	MarkPaid(ctx context.Context, adminID, requestID uuid.UUID, settlement SettlementInput) (*PayoutDTO, error)
}

type service struct {
	repo         Repository
	leaseRepoFor LeaseRepoFactory
	methodsFor   MethodRepoFactory
	tx           txRunner
	outbox       outboxPublisher
	now          func() time.Time
}

// NewService builds a payout service. Nil factories default to the real
// lease and payout method repositories.
func NewService(repo Repository, leaseRepoFor LeaseRepoFactory, methodsFor MethodRepoFactory, tx txRunner, outboxPub outboxPublisher) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("payouts repository required")
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
	if methodsFor == nil {
		methodsFor = func(tx *gorm.DB) methodRepository {
			return payoutmethods.NewRepository(tx)
		}
	}
	return &service{
		repo:         repo,
		leaseRepoFor: leaseRepoFor,
		methodsFor:   methodsFor,
		tx:           tx,
		outbox:       outboxPub,
		now:          time.Now,
	}, nil
}

func (s *service) Request(ctx context.Context, ownerID uuid.UUID, input RequestPayoutInput) (*PayoutDTO, error) {
	if ownerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if input.AmountPaise <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "amount must be positive")
	}

	var created *models.PayoutRequest
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		lease, err := s.leaseRepoFor(tx).FindLeaseByID(ctx, input.LeaseID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "lease not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load lease")
		}
		if lease.OwnerID != ownerID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "lease does not belong to user")
		}

		method, err := s.methodsFor(tx).FindByID(ctx, input.PayoutMethodID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeValidation, "payout method not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load payout method")
		}
		if method.UserID != ownerID {
			return pkgerrors.New(pkgerrors.CodeValidation, "payout method does not belong to user")
		}

		pending, err := repo.HasPendingForLease(ctx, lease.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: check pending payouts")
		}
		if pending {
			return pkgerrors.New(pkgerrors.CodeConflict, "a payout request is already pending for this lease")
		}

		row, err := repo.Create(ctx, &models.PayoutRequest{
			LeaseID:        lease.ID,
			LandID:         lease.LandID,
			FarmerID:       lease.FarmerID,
			OwnerID:        lease.OwnerID,
			PayoutMethodID: method.ID,
			AmountPaise:    input.AmountPaise,
			Status:         enums.PayoutRequestStatusPending,
			RequestedAt:    s.now().UTC(),
		})
		if err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) || dbpkg.IsUniqueViolation(err, "uq_payout_requests_pending") {
				return pkgerrors.New(pkgerrors.CodeConflict, "a payout request is already pending for this lease")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert payout request")
		}
		created = row

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventPayoutRequested,
			AggregateType: enums.AggregatePayout,
			AggregateID:   row.ID,
			Version:       1,
			Actor:         actorRef(ownerID, enums.UserRoleLandowner),
			Data: payloads.PayoutRequestedEvent{
				PayoutID:    row.ID,
				LeaseID:     row.LeaseID,
				OwnerID:     row.OwnerID,
				AmountPaise: row.AmountPaise,
			},
		})
	})
	if err != nil {
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "request payout")
	}
	return FromModel(created), nil
}

func (s *service) Cancel(ctx context.Context, ownerID, requestID uuid.UUID) (*PayoutDTO, error) {
	if ownerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	var updated *models.PayoutRequest
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		request, err := loadRequest(ctx, repo, requestID)
		if err != nil {
			return err
		}
		if request.OwnerID != ownerID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "payout request does not belong to user")
		}
		if request.Status != enums.PayoutRequestStatusPending {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "only pending payout requests can be cancelled")
		}

		request.Status = enums.PayoutRequestStatusCancelled
		request.History = append(request.History, models.PayoutReviewEntry{
			Status:    enums.PayoutRequestStatusCancelled,
			ChangedBy: ownerID,
			ChangedAt: s.now().UTC(),
		})
		moved, err := repo.UpdateIfStatus(ctx, request, enums.PayoutRequestStatusPending)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: update payout request")
		}
		if !moved {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "only pending payout requests can be cancelled")
		}
		updated = request
		return nil
	})
	if err != nil {
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cancel payout")
	}
	return FromModel(updated), nil
}

func (s *service) Get(ctx context.Context, actorID uuid.UUID, actorRole enums.UserRole, requestID uuid.UUID) (*PayoutDTO, error) {
	if actorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	request, err := loadRequest(ctx, s.repo, requestID)
	if err != nil {
		return nil, err
	}
	if actorRole != enums.UserRoleAdmin && request.OwnerID != actorID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "payout request not found")
	}
	return FromModel(request), nil
}

func (s *service) ListMine(ctx context.Context, ownerID uuid.UUID, input ListPayoutsInput) (*PayoutListResult, error) {
	if ownerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	result, err := s.repo.List(ctx, payoutListQuery{
		OwnerID:    &ownerID,
		Status:     input.Status,
		Pagination: input.Pagination,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list payouts")
	}
	return result, nil
}

func (s *service) AdminList(ctx context.Context, input ListPayoutsInput) (*PayoutListResult, error) {
	result, err := s.repo.List(ctx, payoutListQuery{
		Status:     input.Status,
		Pagination: input.Pagination,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list payouts")
	}
	return result, nil
}

// Review applies an admin verdict. Approval re-checks the accrued balance
// inside the transaction so concurrent approvals cannot overdraw a lease.
func (s *service) Review(ctx context.Context, adminID, requestID uuid.UUID, input ReviewInput) (*PayoutDTO, error) {
	if adminID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if input.Decision != ReviewDecisionApprove && input.Decision != ReviewDecisionReject {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "decision must be approve or reject")
	}
	if input.Decision == ReviewDecisionReject && strings.TrimSpace(input.Note) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "a note is required when rejecting")
	}

	var updated *models.PayoutRequest
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		request, err := loadRequest(ctx, repo, requestID)
		if err != nil {
			return err
		}
		if request.Status != enums.PayoutRequestStatusPending {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "payout request already reviewed")
		}

		status := enums.PayoutRequestStatusRejected
		if input.Decision == ReviewDecisionApprove {
			accrued, err := repo.SumSuccessfulPayments(ctx, request.LeaseID)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: sum lease payments")
			}
			committed, err := repo.SumCommittedPayouts(ctx, request.LeaseID, request.ID)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: sum committed payouts")
			}
			available := accrued - committed
			if request.AmountPaise > available {
				return pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf(
					"requested %d paise exceeds available balance %d paise (accrued %d, committed %d)",
					request.AmountPaise, available, accrued, committed))
			}
			status = enums.PayoutRequestStatusApproved
		}

		now := s.now().UTC()
		note := strings.TrimSpace(input.Note)
		request.Status = status
		request.ReviewedAt = &now
		if note != "" {
			request.AdminNote = &note
		}
		request.History = append(request.History, models.PayoutReviewEntry{
			Status:    status,
			AdminNote: note,
			ChangedBy: adminID,
			ChangedAt: now,
		})
		moved, err := repo.UpdateIfStatus(ctx, request, enums.PayoutRequestStatusPending)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: update payout request")
		}
		if !moved {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "payout request already reviewed")
		}
		updated = request

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventPayoutReviewed,
			AggregateType: enums.AggregatePayout,
			AggregateID:   request.ID,
			Version:       1,
			Actor:         actorRef(adminID, enums.UserRoleAdmin),
			Data: payloads.PayoutReviewedEvent{
				PayoutID:  request.ID,
				OwnerID:   request.OwnerID,
				Status:    status,
				AdminNote: note,
			},
		})
	})
	if err != nil {
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "review payout")
	}
	return FromModel(updated), nil
}

func (s *service) MarkPaid(ctx context.Context, adminID, requestID uuid.UUID, settlement SettlementInput) (*PayoutDTO, error) {
	if adminID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if strings.TrimSpace(settlement.TransactionID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "transaction_id is required")
	}
	if settlement.PaymentDate.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment_date is required")
	}

	var updated *models.PayoutRequest
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		request, err := loadRequest(ctx, repo, requestID)
		if err != nil {
			return err
		}
		if request.Status != enums.PayoutRequestStatusApproved {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "only approved payout requests can be marked paid")
		}

		now := s.now().UTC()
		transactionID := strings.TrimSpace(settlement.TransactionID)
		paymentDate := settlement.PaymentDate.UTC()
		request.Status = enums.PayoutRequestStatusPaid
		request.TransactionID = &transactionID
		request.PaymentDate = &paymentDate
		request.ReceiptURL = settlement.ReceiptURL
		request.History = append(request.History, models.PayoutReviewEntry{
			Status:    enums.PayoutRequestStatusPaid,
			ChangedBy: adminID,
			ChangedAt: now,
		})
		moved, err := repo.UpdateIfStatus(ctx, request, enums.PayoutRequestStatusApproved)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: update payout request")
		}
		if !moved {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "only approved payout requests can be marked paid")
		}
		updated = request

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventPayoutPaid,
			AggregateType: enums.AggregatePayout,
			AggregateID:   request.ID,
			Version:       1,
			Actor:         actorRef(adminID, enums.UserRoleAdmin),
			Data: payloads.PayoutPaidEvent{
				PayoutID:      request.ID,
				OwnerID:       request.OwnerID,
				AmountPaise:   request.AmountPaise,
				TransactionID: transactionID,
				PaymentDate:   paymentDate,
			},
		})
	})
	if err != nil {
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark payout paid")
	}
	return FromModel(updated), nil
}

func loadRequest(ctx context.Context, repo Repository, requestID uuid.UUID) (*models.PayoutRequest, error) {
	request, err := repo.FindByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "payout request not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load payout request")
	}
	return request, nil
}

func actorRef(userID uuid.UUID, role enums.UserRole) *outbox.ActorRef {
	return &outbox.ActorRef{
		UserID: userID,
		Role:   role.String(),
	}
}
