package cron

import (
	"context"

	"github.com/agricorus/agricorus-backend/pkg/enums"
	"github.com/agricorus/agricorus-backend/pkg/outbox"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type outboxEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type outboxExistenceChecker interface {
	Exists(ctx context.Context, eventType enums.OutboxEventType, aggregateType enums.OutboxAggregateType, aggregateID uuid.UUID) (bool, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}
