package leasepayments

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/agricorus/agricorus-backend/internal/lands"
	"github.com/agricorus/agricorus-backend/internal/leasing"
	dbpkg "github.com/agricorus/agricorus-backend/pkg/db"
	"github.com/agricorus/agricorus-backend/pkg/db/models"
	"github.com/agricorus/agricorus-backend/pkg/enums"
	pkgerrors "github.com/agricorus/agricorus-backend/pkg/errors"
	"github.com/agricorus/agricorus-backend/pkg/outbox"
	"github.com/agricorus/agricorus-backend/pkg/outbox/payloads"
	"github.com/agricorus/agricorus-backend/pkg/razorpay"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const completionSweepBatch = 100

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type paymentGateway interface {
	CreateOrder(ctx context.Context, params razorpay.OrderParams) (*razorpay.Order, error)
	VerifyPaymentSignature(orderID, paymentID, signature string) bool
	KeyID() string
}

type landRepository interface {
	UpdateStatusIf(ctx context.Context, id uuid.UUID, from, to enums.LandStatus) (bool, error)
}

type leaseStatusRepository interface {
	UpdateLeaseStatusIf(ctx context.Context, id uuid.UUID, from, to enums.LeaseStatus, endedAt *time.Time) (bool, error)
}

// LandRepoFactory binds a land repository to the active transaction.
type LandRepoFactory func(tx *gorm.DB) landRepository

// LeaseRepoFactory binds a lease status repository to the active transaction.
type LeaseRepoFactory func(tx *gorm.DB) leaseStatusRepository

// Service exposes the installment payment workflow.
type Service interface {
	Schedule(ctx context.Context, actorID uuid.UUID, actorRole enums.UserRole, leaseID uuid.UUID) (*ScheduleDTO, error)
	ListPayments(ctx context.Context, actorID uuid.UUID, actorRole enums.UserRole, leaseID uuid.UUID) ([]PaymentDTO, error)
	Initiate(ctx context.Context, farmerID, leaseID uuid.UUID) (*InitiateResult, error)
	Confirm(ctx context.Context, farmerID uuid.UUID, input ConfirmInput) (*PaymentDTO, error)
	SweepCompleted(ctx context.Context) (int, error)
}

type service struct {
	repo         Repository
	gateway      paymentGateway
	tx           txRunner
	outbox       outboxPublisher
	landRepoFor  LandRepoFactory
	leaseRepoFor LeaseRepoFactory
}

// NewService builds a lease payment service. Nil factories fall back to the
// lands and leasing package repositories.
func NewService(repo Repository, gateway paymentGateway, tx txRunner, outboxPub outboxPublisher, landRepoFor LandRepoFactory, leaseRepoFor LeaseRepoFactory) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("lease payments repository required")
	}
	if gateway == nil {
		return nil, fmt.Errorf("payment gateway required")
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
	if leaseRepoFor == nil {
		leaseRepoFor = func(tx *gorm.DB) leaseStatusRepository {
			return leasing.NewRepository(tx)
		}
	}
	return &service{
		repo:         repo,
		gateway:      gateway,
		tx:           tx,
		outbox:       outboxPub,
		landRepoFor:  landRepoFor,
		leaseRepoFor: leaseRepoFor,
	}, nil
}

func (s *service) Schedule(ctx context.Context, actorID uuid.UUID, actorRole enums.UserRole, leaseID uuid.UUID) (*ScheduleDTO, error) {
	lease, err := s.loadLeaseForActor(ctx, actorID, actorRole, leaseID)
	if err != nil {
		return nil, err
	}

	succeeded, err := s.repo.SuccessfulPayments(ctx, lease.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load successful payments")
	}
	pendingExists, err := s.repo.HasPending(ctx, lease.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check pending payments")
	}

	return buildSchedule(lease, succeeded, pendingExists), nil
}

// buildSchedule derives the installment view; nothing about the schedule is
// stored beyond the payment rows themselves.
func buildSchedule(lease *models.Lease, succeeded []models.LeasePayment, pendingExists bool) *ScheduleDTO {
	paidBy := make(map[int]*models.LeasePayment, len(succeeded))
	var paidPaise int64
	for i := range succeeded {
		row := &succeeded[i]
		paidBy[row.InstallmentNumber] = row
		paidPaise += row.AmountPaise
	}

	total := lease.DurationMonths
	schedule := &ScheduleDTO{
		LeaseID:       lease.ID,
		Installments:  make([]InstallmentDTO, 0, total),
		PaymentsMade:  len(succeeded),
		TotalPayments: total,
		TotalPaise:    lease.PricePerMonthPaise * int64(total),
		PaidPaise:     paidPaise,
	}
	schedule.OutstandingPaise = schedule.TotalPaise - paidPaise

	nextAssigned := false
	for number := 1; number <= total; number++ {
		slot := InstallmentDTO{
			Number:      number,
			AmountPaise: lease.PricePerMonthPaise,
			Status:      InstallmentStatusUpcoming,
		}
		if paid, ok := paidBy[number]; ok {
			slot.Status = InstallmentStatusPaid
			slot.PaidAt = paid.PaidAt
		} else if !nextAssigned {
			nextAssigned = true
			next := number
			schedule.NextInstallment = &next
			if pendingExists {
				slot.Status = InstallmentStatusPending
			}
		}
		schedule.Installments = append(schedule.Installments, slot)
	}
	return schedule
}

func (s *service) ListPayments(ctx context.Context, actorID uuid.UUID, actorRole enums.UserRole, leaseID uuid.UUID) ([]PaymentDTO, error) {
	lease, err := s.loadLeaseForActor(ctx, actorID, actorRole, leaseID)
	if err != nil {
		return nil, err
	}
	rows, err := s.repo.ListByLease(ctx, lease.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list lease payments")
	}
	items := make([]PaymentDTO, 0, len(rows))
	for i := range rows {
		items = append(items, *FromModel(&rows[i]))
	}
	return items, nil
}

func (s *service) Initiate(ctx context.Context, farmerID, leaseID uuid.UUID) (*InitiateResult, error) {
	if farmerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	// Validate and compute the next installment on plain reads first. The
	// gateway call must never run while the lease row lock is held, so the
	// claim is re-verified under the lock after the order exists.
	claimed, installment, err := s.nextInstallment(ctx, farmerID, leaseID)
	if err != nil {
		return nil, err
	}

	order, err := s.gateway.CreateOrder(ctx, razorpay.OrderParams{
		AmountPaise: claimed.PricePerMonthPaise,
		Currency:    enums.CurrencyINR.String(),
		Receipt:     fmt.Sprintf("lease-%s-inst-%d", leaseID, installment),
		Notes: map[string]string{
			"lease_id":    leaseID.String(),
			"installment": fmt.Sprintf("%d", installment),
		},
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "gateway: create order")
	}

	var result *InitiateResult
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		lease, err := repo.FindLeaseForUpdate(ctx, leaseID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "lease not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lock lease")
		}
		if lease.Status != enums.LeaseStatusActive {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "lease is not active")
		}

		paymentsMade, err := repo.CountSuccessful(ctx, lease.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count payments")
		}
		if paymentsMade+1 != installment {
			return pkgerrors.New(pkgerrors.CodeConflict, "payment schedule changed, retry initiation")
		}

		pendingExists, err := repo.HasPending(ctx, lease.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check pending payments")
		}
		if pendingExists {
			return pkgerrors.New(pkgerrors.CodeConflict, "a payment attempt is already in flight")
		}

		payment, err := repo.Create(ctx, &models.LeasePayment{
			LeaseID:           lease.ID,
			FarmerID:          lease.FarmerID,
			OwnerID:           lease.OwnerID,
			LandID:            lease.LandID,
			AmountPaise:       lease.PricePerMonthPaise,
			Method:            enums.PaymentMethodRazorpay,
			Status:            enums.LeasePaymentStatusPending,
			InstallmentNumber: installment,
			GatewayOrderID:    order.ID,
		})
		if err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) || dbpkg.IsUniqueViolation(err, "uq_lease_payments_pending") {
				return pkgerrors.New(pkgerrors.CodeConflict, "a payment attempt is already in flight")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert lease payment")
		}

		result = &InitiateResult{
			PaymentID:         payment.ID,
			GatewayOrderID:    order.ID,
			GatewayKeyID:      s.gateway.KeyID(),
			AmountPaise:       payment.AmountPaise,
			Currency:          order.Currency,
			InstallmentNumber: installment,
		}
		return nil
	})
	if err != nil {
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "initiate payment")
	}
	return result, nil
}

// nextInstallment runs the initiation checks without locking and reports the
// installment number the farmer is about to pay.
func (s *service) nextInstallment(ctx context.Context, farmerID, leaseID uuid.UUID) (*models.Lease, int, error) {
	lease, err := s.repo.FindLease(ctx, leaseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, 0, pkgerrors.New(pkgerrors.CodeNotFound, "lease not found")
		}
		return nil, 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load lease")
	}
	if lease.FarmerID != farmerID {
		return nil, 0, pkgerrors.New(pkgerrors.CodeForbidden, "lease does not belong to user")
	}
	if lease.Status != enums.LeaseStatusActive {
		return nil, 0, pkgerrors.New(pkgerrors.CodeStateConflict, "lease is not active")
	}

	paymentsMade, err := s.repo.CountSuccessful(ctx, lease.ID)
	if err != nil {
		return nil, 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count payments")
	}
	if paymentsMade >= lease.DurationMonths {
		return nil, 0, pkgerrors.New(pkgerrors.CodeComplete, "payment schedule already complete")
	}

	pendingExists, err := s.repo.HasPending(ctx, lease.ID)
	if err != nil {
		return nil, 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check pending payments")
	}
	if pendingExists {
		return nil, 0, pkgerrors.New(pkgerrors.CodeConflict, "a payment attempt is already in flight")
	}

	return lease, paymentsMade + 1, nil
}

func (s *service) Confirm(ctx context.Context, farmerID uuid.UUID, input ConfirmInput) (*PaymentDTO, error) {
	if farmerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if input.GatewayOrderID == "" || input.GatewayPaymentID == "" || input.Signature == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id, payment id, and signature are required")
	}

	var confirmed *models.LeasePayment
	var verificationFailed bool
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		payment, err := repo.FindByGatewayOrderID(ctx, input.GatewayOrderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "payment not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load payment")
		}
		if payment.FarmerID != farmerID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "payment does not belong to user")
		}
		if payment.Status != enums.LeasePaymentStatusPending {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "payment already settled")
		}

		if !s.gateway.VerifyPaymentSignature(input.GatewayOrderID, input.GatewayPaymentID, input.Signature) {
			verificationFailed = true
			moved, err := repo.MarkFailed(ctx, payment.ID, "signature verification failed")
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: mark payment failed")
			}
			if !moved {
				return pkgerrors.New(pkgerrors.CodeStateConflict, "payment settled concurrently")
			}
			return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
				EventType:     enums.EventLeasePaymentFailed,
				AggregateType: enums.AggregateLeasePayment,
				AggregateID:   payment.ID,
				Version:       1,
				Actor:         actorRef(farmerID, enums.UserRoleFarmer),
				Data: payloads.LeasePaymentFailedEvent{
					PaymentID:         payment.ID,
					LeaseID:           payment.LeaseID,
					FarmerID:          payment.FarmerID,
					InstallmentNumber: payment.InstallmentNumber,
					FailureReason:     "signature verification failed",
				},
			})
		}

		paidAt := time.Now().UTC()
		moved, err := repo.MarkSuccess(ctx, payment.ID, input.GatewayPaymentID, paidAt)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: mark payment success")
		}
		if !moved {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "payment settled concurrently")
		}
		payment.Status = enums.LeasePaymentStatusSuccess
		payment.TransactionID = &input.GatewayPaymentID
		payment.PaidAt = &paidAt
		confirmed = payment

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventLeasePaymentSucceeded,
			AggregateType: enums.AggregateLeasePayment,
			AggregateID:   payment.ID,
			Version:       1,
			Actor:         actorRef(farmerID, enums.UserRoleFarmer),
			Data: payloads.LeasePaymentSucceededEvent{
				PaymentID:         payment.ID,
				LeaseID:           payment.LeaseID,
				FarmerID:          payment.FarmerID,
				OwnerID:           payment.OwnerID,
				InstallmentNumber: payment.InstallmentNumber,
				AmountPaise:       payment.AmountPaise,
				PaidAt:            paidAt,
			},
		})
	})
	if err != nil {
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "confirm payment")
	}
	if verificationFailed {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment signature verification failed")
	}
	return FromModel(confirmed), nil
}

// SweepCompleted moves fully paid leases to completed and releases their
// land. It is invoked by the completion cron job.
func (s *service) SweepCompleted(ctx context.Context) (int, error) {
	leases, err := s.repo.ListCompletableLeases(ctx, completionSweepBatch)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list completable leases")
	}

	completed := 0
	for i := range leases {
		lease := leases[i]
		err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			leaseRepo := s.leaseRepoFor(tx)
			landRepo := s.landRepoFor(tx)

			endedAt := time.Now().UTC()
			moved, err := leaseRepo.UpdateLeaseStatusIf(ctx, lease.ID, enums.LeaseStatusActive, enums.LeaseStatusCompleted, &endedAt)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: complete lease")
			}
			if !moved {
				return nil
			}
			if _, err := landRepo.UpdateStatusIf(ctx, lease.LandID, enums.LandStatusLeased, enums.LandStatusAvailable); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: release land")
			}
			completed++

			return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
				EventType:     enums.EventLeaseCompleted,
				AggregateType: enums.AggregateLease,
				AggregateID:   lease.ID,
				Version:       1,
				Data: payloads.LeaseCompletedEvent{
					LeaseID:     lease.ID,
					LandID:      lease.LandID,
					FarmerID:    lease.FarmerID,
					OwnerID:     lease.OwnerID,
					CompletedAt: endedAt,
				},
			})
		})
		if err != nil {
			return completed, err
		}
	}
	return completed, nil
}

func (s *service) loadLeaseForActor(ctx context.Context, actorID uuid.UUID, actorRole enums.UserRole, leaseID uuid.UUID) (*models.Lease, error) {
	if actorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	lease, err := s.repo.FindLease(ctx, leaseID)
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

func actorRef(userID uuid.UUID, role enums.UserRole) *outbox.ActorRef {
	return &outbox.ActorRef{
		UserID: userID,
		Role:   role.String(),
	}
}
