package postgres

import (
	"context"
	"time"

	"github.com/iho/ledgersaga/internal/domain"
	"github.com/iho/ledgersaga/internal/infrastructure/postgres/generated"
	"github.com/iho/ledgersaga/internal/usecase"
)

// ProcessedEventRepository implements usecase.ProcessedEventRepository.
type ProcessedEventRepository struct {
	queries *generated.Queries
}

// NewProcessedEventRepository creates a new ProcessedEventRepository.
func NewProcessedEventRepository(db generated.DBTX) *ProcessedEventRepository {
	return &ProcessedEventRepository{queries: generated.New(db)}
}

// Exists reports whether eventID has been recorded.
func (r *ProcessedEventRepository) Exists(ctx context.Context, tx usecase.Transaction, eventID string) (bool, error) {
	q, err := queriesIn(tx)
	if err != nil {
		return false, err
	}
	return q.ProcessedEventExists(ctx, eventID)
}

// Insert records event. A concurrent insert of the same id yields
// domain.ErrDuplicateEvent without aborting tx.
func (r *ProcessedEventRepository) Insert(ctx context.Context, tx usecase.Transaction, event *domain.ProcessedEvent) error {
	q, err := queriesIn(tx)
	if err != nil {
		return err
	}

	n, err := q.InsertProcessedEvent(ctx, generated.InsertProcessedEventParams{
		EventID:     event.EventID,
		EventType:   event.EventType,
		Topic:       event.Topic,
		Partition:   int32(event.Partition),
		Offset:      event.Offset,
		ProcessedAt: timeToPgTimestamptz(event.ProcessedAt),
	})
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrDuplicateEvent
	}
	return nil
}

// DeleteBefore purges rows processed before the cutoff.
func (r *ProcessedEventRepository) DeleteBefore(ctx context.Context, before time.Time) (int64, error) {
	return r.queries.DeleteProcessedEventsBefore(ctx, timeToPgTimestamptz(before))
}
