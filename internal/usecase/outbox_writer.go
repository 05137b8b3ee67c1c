package usecase

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/iho/ledgersaga/internal/domain"
)

// OutboxWriter serializes events and appends them to the outbox inside the
// caller's transaction.
type OutboxWriter struct {
	repo  OutboxRepository
	idGen IDGenerator
	clock Clock
}

// NewOutboxWriter creates a new OutboxWriter.
func NewOutboxWriter(repo OutboxRepository, idGen IDGenerator, clock Clock) *OutboxWriter {
	if clock == nil {
		clock = SystemClock()
	}
	return &OutboxWriter{repo: repo, idGen: idGen, clock: clock}
}

// OutboxMessage describes an event to append.
type OutboxMessage struct {
	AggregateType string
	AggregateID   string
	EventType     string
	Topic         string
	Payload       any
}

// Append writes msg as a PENDING outbox event in tx.
func (w *OutboxWriter) Append(ctx context.Context, tx Transaction, msg OutboxMessage) (*domain.OutboxEvent, error) {
	payload, err := json.Marshal(msg.Payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrEventSerialization, msg.EventType, err)
	}

	event := &domain.OutboxEvent{
		ID:            w.idGen.Generate(),
		AggregateType: msg.AggregateType,
		AggregateID:   msg.AggregateID,
		EventType:     msg.EventType,
		Topic:         msg.Topic,
		Payload:       payload,
		Status:        domain.OutboxStatusPending,
		CreatedAt:     w.clock.Now(),
	}

	if err := w.repo.Append(ctx, tx, event); err != nil {
		return nil, fmt.Errorf("append outbox event: %w", err)
	}

	return event, nil
}

// AppendAccountEvent appends an account.created or account.updated event
// carrying the account's current snapshot.
func (w *OutboxWriter) AppendAccountEvent(ctx context.Context, tx Transaction, topic, eventType string, account *domain.Account) error {
	_, err := w.Append(ctx, tx, OutboxMessage{
		AggregateType: domain.AggregateTypeAccount,
		AggregateID:   account.ID,
		EventType:     eventType,
		Topic:         topic,
		Payload:       domain.NewAccountEvent(account),
	})
	return err
}
