package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/iho/ledgersaga/internal/domain"
	"github.com/iho/ledgersaga/internal/infrastructure/postgres/generated"
	"github.com/iho/ledgersaga/internal/usecase"
)

// OutboxRepository implements usecase.OutboxRepository.
type OutboxRepository struct {
	queries *generated.Queries
}

// NewOutboxRepository creates a new OutboxRepository.
func NewOutboxRepository(db generated.DBTX) *OutboxRepository {
	return &OutboxRepository{queries: generated.New(db)}
}

// Append inserts event within tx.
func (r *OutboxRepository) Append(ctx context.Context, tx usecase.Transaction, event *domain.OutboxEvent) error {
	q, err := queriesIn(tx)
	if err != nil {
		return err
	}

	return q.InsertOutboxEvent(ctx, generated.InsertOutboxEventParams{
		ID:            event.ID,
		AggregateType: event.AggregateType,
		AggregateID:   event.AggregateID,
		EventType:     event.EventType,
		Topic:         event.Topic,
		Payload:       event.Payload,
		Status:        string(event.Status),
		Attempts:      int32(event.Attempts),
		CreatedAt:     timeToPgTimestamptz(event.CreatedAt),
	})
}

// NextPending returns up to limit PENDING events, oldest first.
func (r *OutboxRepository) NextPending(ctx context.Context, limit int) ([]*domain.OutboxEvent, error) {
	rows, err := r.queries.GetPendingOutboxEvents(ctx, clampInt32(limit))
	if err != nil {
		return nil, err
	}
	return rowsToOutboxEvents(rows), nil
}

// MarkSent marks an event SENT. Marking an already SENT event is a no-op.
func (r *OutboxRepository) MarkSent(ctx context.Context, id string, sentAt time.Time) error {
	n, err := r.queries.MarkOutboxEventSent(ctx, generated.MarkOutboxEventSentParams{
		ID:     id,
		SentAt: timeToPgTimestamptz(sentAt),
	})
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	_, err = r.get(ctx, id)
	return err
}

// RecordFailure counts one failed delivery attempt.
func (r *OutboxRepository) RecordFailure(ctx context.Context, id, reason string, maxAttempts int) (domain.OutboxStatus, int, error) {
	row, err := r.queries.RecordOutboxFailure(ctx, generated.RecordOutboxFailureParams{
		ID:          id,
		LastError:   reason,
		MaxAttempts: clampInt32(maxAttempts),
	})
	if err == nil {
		return domain.OutboxStatus(row.Status), int(row.Attempts), nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return "", 0, err
	}

	// no longer PENDING: report where it is
	current, err := r.get(ctx, id)
	if err != nil {
		return "", 0, err
	}
	return current.Status, current.Attempts, nil
}

// ListByStatus lists events in status, oldest first.
func (r *OutboxRepository) ListByStatus(ctx context.Context, status domain.OutboxStatus, limit int) ([]*domain.OutboxEvent, error) {
	rows, err := r.queries.ListOutboxEventsByStatus(ctx, generated.ListOutboxEventsByStatusParams{
		Status: string(status),
		Limit:  clampInt32(limit),
	})
	if err != nil {
		return nil, err
	}
	return rowsToOutboxEvents(rows), nil
}

// Requeue moves a FAILED event back to PENDING with its attempts reset.
func (r *OutboxRepository) Requeue(ctx context.Context, id string) error {
	n, err := r.queries.RequeueOutboxEvent(ctx, id)
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	if _, err := r.get(ctx, id); err != nil {
		return err
	}
	return domain.ErrOutboxNotRequeuable
}

// DeleteSentBefore purges SENT events delivered before the cutoff.
func (r *OutboxRepository) DeleteSentBefore(ctx context.Context, before time.Time) (int64, error) {
	return r.queries.DeleteSentOutboxEvents(ctx, timeToPgTimestamptz(before))
}

func (r *OutboxRepository) get(ctx context.Context, id string) (*domain.OutboxEvent, error) {
	row, err := r.queries.GetOutboxEventByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrOutboxEventNotFound
		}
		return nil, err
	}
	return rowToOutboxEvent(row), nil
}

func rowsToOutboxEvents(rows []generated.OutboxEvent) []*domain.OutboxEvent {
	events := make([]*domain.OutboxEvent, 0, len(rows))
	for _, row := range rows {
		events = append(events, rowToOutboxEvent(row))
	}
	return events
}

func rowToOutboxEvent(row generated.OutboxEvent) *domain.OutboxEvent {
	return &domain.OutboxEvent{
		ID:            row.ID,
		AggregateType: row.AggregateType,
		AggregateID:   row.AggregateID,
		EventType:     row.EventType,
		Topic:         row.Topic,
		Payload:       row.Payload,
		Status:        domain.OutboxStatus(row.Status),
		Attempts:      int(row.Attempts),
		LastError:     row.LastError,
		CreatedAt:     row.CreatedAt.Time,
		SentAt:        pgTimestamptzToPtr(row.SentAt),
	}
}
