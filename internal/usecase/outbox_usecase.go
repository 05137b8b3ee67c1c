package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/iho/ledgersaga/internal/domain"
)

// OutboxUseCase exposes operator actions on the outbox and the retention of
// delivered and consumed event rows.
type OutboxUseCase struct {
	outboxRepo    OutboxRepository
	processedRepo ProcessedEventRepository
	clock         Clock
	logger        *slog.Logger
}

// NewOutboxUseCase creates a new OutboxUseCase.
func NewOutboxUseCase(outboxRepo OutboxRepository, processedRepo ProcessedEventRepository, clock Clock, logger *slog.Logger) *OutboxUseCase {
	if clock == nil {
		clock = SystemClock()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &OutboxUseCase{
		outboxRepo:    outboxRepo,
		processedRepo: processedRepo,
		clock:         clock,
		logger:        logger,
	}
}

// ListEvents lists outbox events in status, oldest first.
func (uc *OutboxUseCase) ListEvents(ctx context.Context, status domain.OutboxStatus, limit int) ([]*domain.OutboxEvent, error) {
	limit, _, _ = domain.ValidatePagination(limit, 0)
	return uc.outboxRepo.ListByStatus(ctx, status, limit)
}

// Requeue hands a FAILED event back to the publisher with a fresh attempt
// budget.
func (uc *OutboxUseCase) Requeue(ctx context.Context, id string) error {
	if err := uc.outboxRepo.Requeue(ctx, id); err != nil {
		return err
	}
	uc.logger.Info("outbox event requeued", "event_id", id)
	return nil
}

// RetentionPolicy controls how long delivered and consumed rows are kept.
// A zero duration disables that purge.
type RetentionPolicy struct {
	SentOutbox      time.Duration
	ProcessedEvents time.Duration
}

// DefaultRetentionPolicy returns the default retention windows.
func DefaultRetentionPolicy() RetentionPolicy {
	return RetentionPolicy{
		SentOutbox:      SentOutboxRetention,
		ProcessedEvents: ProcessedEventRetention,
	}
}

// Purge deletes SENT outbox rows and processed-event rows older than policy.
// PENDING and FAILED outbox rows are never purged.
func (uc *OutboxUseCase) Purge(ctx context.Context, policy RetentionPolicy) error {
	now := uc.clock.Now()

	if policy.SentOutbox > 0 {
		n, err := uc.outboxRepo.DeleteSentBefore(ctx, now.Add(-policy.SentOutbox))
		if err != nil {
			return err
		}
		if n > 0 {
			uc.logger.Info("purged sent outbox events", "count", n)
		}
	}

	if policy.ProcessedEvents > 0 {
		n, err := uc.processedRepo.DeleteBefore(ctx, now.Add(-policy.ProcessedEvents))
		if err != nil {
			return err
		}
		if n > 0 {
			uc.logger.Info("purged processed events", "count", n)
		}
	}

	return nil
}
