package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/iho/ledgersaga/internal/domain"
)

// ReplicaUseCase keeps the transfer service's account copies in step with
// account events published by the ledger.
type ReplicaUseCase struct {
	guard       *IdempotencyGuard
	replicaRepo AccountReplicaRepository
	metrics     Metrics
	clock       Clock
	logger      *slog.Logger
}

// NewReplicaUseCase creates a new ReplicaUseCase.
func NewReplicaUseCase(guard *IdempotencyGuard, replicaRepo AccountReplicaRepository, metrics Metrics, clock Clock, logger *slog.Logger) *ReplicaUseCase {
	if metrics == nil {
		metrics = NopMetrics()
	}
	if clock == nil {
		clock = SystemClock()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ReplicaUseCase{
		guard:       guard,
		replicaRepo: replicaRepo,
		metrics:     metrics,
		clock:       clock,
		logger:      logger,
	}
}

// ApplyAccountEvent upserts the replica from an account.created or
// account.updated event. Events that are not newer than the stored copy are
// recorded as processed but change nothing.
func (uc *ReplicaUseCase) ApplyAccountEvent(ctx context.Context, meta domain.EventMeta, event domain.AccountEvent) (bool, error) {
	if event.AccountID == "" || event.AccountNumber == "" {
		return false, domain.ErrMalformedEvent
	}
	if !event.Status.IsValid() {
		return false, fmt.Errorf("%w: unknown account status %q", domain.ErrMalformedEvent, event.Status)
	}

	var written bool
	applied, err := uc.guard.Run(ctx, meta, func(ctx context.Context, tx Transaction) error {
		var err error
		written, err = uc.replicaRepo.Upsert(ctx, tx, &domain.AccountReplica{
			ID:            event.AccountID,
			AccountNumber: event.AccountNumber,
			Status:        event.Status,
			Version:       event.Version,
			UpdatedAt:     uc.clock.Now(),
		})
		return err
	})
	if err != nil {
		return false, err
	}

	if applied {
		uc.metrics.ReplicaUpdated(written)
		if !written {
			uc.logger.Debug("stale account event ignored",
				"event_id", meta.EventID,
				"account_id", event.AccountID,
				"version", event.Version,
			)
		}
	}

	return applied, nil
}

// GetReplica retrieves the replica of an account.
func (uc *ReplicaUseCase) GetReplica(ctx context.Context, id string) (*domain.AccountReplica, error) {
	return uc.replicaRepo.GetByID(ctx, id)
}

// ListReplicas lists known account replicas.
func (uc *ReplicaUseCase) ListReplicas(ctx context.Context, limit, offset int) ([]*domain.AccountReplica, error) {
	limit, offset, _ = domain.ValidatePagination(limit, offset)
	return uc.replicaRepo.List(ctx, limit, offset)
}
