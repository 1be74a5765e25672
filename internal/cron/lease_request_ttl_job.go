package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/agricorus/agricorus-backend/internal/leasing"
	"github.com/agricorus/agricorus-backend/pkg/db/models"
	"github.com/agricorus/agricorus-backend/pkg/enums"
	"github.com/agricorus/agricorus-backend/pkg/logger"
	"github.com/agricorus/agricorus-backend/pkg/outbox"
	"github.com/agricorus/agricorus-backend/pkg/outbox/payloads"
	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"
)

const requestExpireBatch = 200

// LeaseRequestTTLJobParams configure the stale request sweeper.
type LeaseRequestTTLJobParams struct {
	Logger             *logger.Logger
	DB                 txRunner
	ExpirableReader    expirableRequestReader
	Outbox             outboxEmitter
	OutboxRepo         outboxExistenceChecker
	RequestRepoFactory requestRepoFactory
}

type expirableRequestReader interface {
	ListExpirablePendingRequests(ctx context.Context, limit int) ([]models.LeaseRequest, error)
}

type transactionalRequestRepo interface {
	UpdateRequestStatusIf(ctx context.Context, id uuid.UUID, from, to enums.LeaseRequestStatus) (bool, error)
}

type requestRepoFactory func(tx *gorm.DB) transactionalRequestRepo

func defaultRequestRepo(tx *gorm.DB) transactionalRequestRepo {
	return leasing.NewRepository(tx)
}

// NewLeaseRequestTTLJob builds the cron job that rejects pending requests
// stranded on lands that were leased out or withdrawn.
func NewLeaseRequestTTLJob(params LeaseRequestTTLJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.DB == nil {
		return nil, fmt.Errorf("db runner required")
	}
	if params.ExpirableReader == nil {
		return nil, fmt.Errorf("expirable request reader required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox service required")
	}
	if params.OutboxRepo == nil {
		return nil, fmt.Errorf("outbox repository required")
	}
	repoFactory := params.RequestRepoFactory
	if repoFactory == nil {
		repoFactory = defaultRequestRepo
	}
	return &leaseRequestTTLJob{
		logg:            params.Logger,
		db:              params.DB,
		expirableReader: params.ExpirableReader,
		outbox:          params.Outbox,
		outboxRepo:      params.OutboxRepo,
		repoFactory:     repoFactory,
		now:             time.Now,
	}, nil
}

type leaseRequestTTLJob struct {
	logg            *logger.Logger
	db              txRunner
	expirableReader expirableRequestReader
	outbox          outboxEmitter
	outboxRepo      outboxExistenceChecker
	repoFactory     requestRepoFactory
	now             func() time.Time
}

func (j *leaseRequestTTLJob) Name() string { return "lease-request-ttl" }

func (j *leaseRequestTTLJob) Run(ctx context.Context) error {
	requests, err := j.expirableReader.ListExpirablePendingRequests(ctx, requestExpireBatch)
	if err != nil {
		return fmt.Errorf("query expirable lease requests: %w", err)
	}

	var errs []error
	count := 0
	for _, request := range requests {
		if err := j.expireRequest(ctx, request); err != nil {
			errs = append(errs, err)
			continue
		}
		count++
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{"count": count})
	j.logg.Info(logCtx, "lease request expiration loop complete")
	return multierr.Combine(errs...)
}

func (j *leaseRequestTTLJob) expireRequest(ctx context.Context, request models.LeaseRequest) error {
	exists, err := j.outboxRepo.Exists(ctx, enums.EventLeaseRequestExpired, enums.AggregateLeaseRequest, request.ID)
	if err != nil {
		return fmt.Errorf("check expiration event existence: %w", err)
	}
	if exists {
		return nil
	}
	return j.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := j.repoFactory(tx)
		moved, err := repo.UpdateRequestStatusIf(ctx, request.ID, enums.LeaseRequestStatusPending, enums.LeaseRequestStatusRejected)
		if err != nil {
			return err
		}
		// Someone decided the request between the scan and the sweep.
		if !moved {
			return nil
		}
		now := j.now().UTC()
		return j.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventLeaseRequestExpired,
			AggregateType: enums.AggregateLeaseRequest,
			AggregateID:   request.ID,
			Version:       1,
			OccurredAt:    now,
			Data: payloads.LeaseRequestExpiredEvent{
				RequestID: request.ID,
				LandID:    request.LandID,
				FarmerID:  request.FarmerID,
				ExpiredAt: now,
			},
		})
	})
}
