package cron

import (
	"context"
	"fmt"

	"github.com/agricorus/agricorus-backend/pkg/logger"
)

type completionSweeper interface {
	SweepCompleted(ctx context.Context) (int, error)
}

// NewLeaseCompletionJob builds the cron job that closes fully paid leases
// and releases their land.
func NewLeaseCompletionJob(logg *logger.Logger, sweeper completionSweeper) (Job, error) {
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if sweeper == nil {
		return nil, fmt.Errorf("completion sweeper required")
	}
	return &leaseCompletionJob{logg: logg, sweeper: sweeper}, nil
}

type leaseCompletionJob struct {
	logg    *logger.Logger
	sweeper completionSweeper
}

func (j *leaseCompletionJob) Name() string { return "lease-completion" }

func (j *leaseCompletionJob) Run(ctx context.Context) error {
	count, err := j.sweeper.SweepCompleted(ctx)
	if err != nil {
		return fmt.Errorf("sweep completable leases: %w", err)
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{"count": count})
	j.logg.Info(logCtx, "lease completion sweep complete")
	return nil
}
