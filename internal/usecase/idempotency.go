package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/iho/ledgersaga/internal/domain"
)

// ApplyFunc applies the side effects of one inbound event inside tx.
type ApplyFunc func(ctx context.Context, tx Transaction) error

// IdempotencyGuard turns at-least-once delivery into effectively-once side
// effects. The processed-event row is written in the same commit as the side
// effects it guards.
type IdempotencyGuard struct {
	txManager TransactionManager
	processed ProcessedEventRepository
	cache     ProcessedEventCache
	retrier   Retrier
	metrics   Metrics
	clock     Clock
	logger    *slog.Logger
}

// NewIdempotencyGuard creates a new IdempotencyGuard.
func NewIdempotencyGuard(txManager TransactionManager, processed ProcessedEventRepository, logger *slog.Logger) *IdempotencyGuard {
	if logger == nil {
		logger = slog.Default()
	}
	return &IdempotencyGuard{
		txManager: txManager,
		processed: processed,
		retrier:   noRetry{},
		metrics:   NopMetrics(),
		clock:     SystemClock(),
		logger:    logger,
	}
}

// WithCache sets the fast-path cache.
func (g *IdempotencyGuard) WithCache(cache ProcessedEventCache) *IdempotencyGuard {
	g.cache = cache
	return g
}

// WithRetrier sets the retrier for deadlocks and serialization failures.
func (g *IdempotencyGuard) WithRetrier(r Retrier) *IdempotencyGuard {
	if r != nil {
		g.retrier = r
	}
	return g
}

// WithMetrics sets the metrics sink.
func (g *IdempotencyGuard) WithMetrics(m Metrics) *IdempotencyGuard {
	if m != nil {
		g.metrics = m
	}
	return g
}

// WithClock sets the clock.
func (g *IdempotencyGuard) WithClock(c Clock) *IdempotencyGuard {
	if c != nil {
		g.clock = c
	}
	return g
}

// Run applies the event described by meta exactly once. It returns false with
// a nil error when the event had already been applied.
func (g *IdempotencyGuard) Run(ctx context.Context, meta domain.EventMeta, apply ApplyFunc) (bool, error) {
	if meta.EventID == "" {
		return false, domain.ErrMissingEventID
	}

	if g.cache != nil {
		seen, err := g.cache.Seen(ctx, meta.EventID)
		if err != nil {
			g.logger.Warn("processed event cache lookup failed", "event_id", meta.EventID, "error", err)
		} else if seen {
			g.skipped(meta)
			return false, nil
		}
	}

	var applied bool
	err := g.retrier.Retry(ctx, func() error {
		var err error
		applied, err = g.runOnce(ctx, meta, apply)
		return err
	})
	if err != nil {
		return false, err
	}

	if !applied {
		g.skipped(meta)
		return false, nil
	}

	if g.cache != nil {
		if err := g.cache.Remember(ctx, meta.EventID); err != nil {
			g.logger.Warn("failed to cache processed event", "event_id", meta.EventID, "error", err)
		}
	}

	return true, nil
}

func (g *IdempotencyGuard) runOnce(ctx context.Context, meta domain.EventMeta, apply ApplyFunc) (bool, error) {
	tx, err := g.txManager.Begin(ctx)
	if err != nil {
		return false, err
	}
	defer tx.Rollback(ctx)

	exists, err := g.processed.Exists(ctx, tx, meta.EventID)
	if err != nil {
		return false, err
	}
	if exists {
		return false, nil
	}

	if err := apply(ctx, tx); err != nil {
		return false, err
	}

	if err := g.processed.Insert(ctx, tx, meta.ToProcessedEvent(g.clock.Now())); err != nil {
		// A concurrent delivery of the same event committed first.
		if errors.Is(err, domain.ErrDuplicateEvent) {
			return false, nil
		}
		return false, err
	}

	if err := tx.Commit(ctx); err != nil {
		return false, err
	}

	return true, nil
}

func (g *IdempotencyGuard) skipped(meta domain.EventMeta) {
	g.metrics.DuplicateEventSkipped(meta.Topic)
	g.logger.Info("skipping already processed event",
		"event_id", meta.EventID,
		"event_type", meta.EventType,
		"topic", meta.Topic,
		"partition", meta.Partition,
		"offset", meta.Offset,
	)
}
