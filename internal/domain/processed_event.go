package domain

import "time"

// ProcessedEvent records that the side effects of an inbound event have been
// durably applied. It is keyed by the producing outbox event id.
type ProcessedEvent struct {
	EventID     string
	EventType   string
	Topic       string
	Partition   int
	Offset      int64
	ProcessedAt time.Time
}

// EventMeta identifies one delivery of an inbound event.
type EventMeta struct {
	EventID       string
	EventType     string
	AggregateID   string
	AggregateType string
	Topic         string
	Partition     int
	Offset        int64
	OccurredAt    time.Time
}

// ToProcessedEvent builds the processed-event row for this delivery.
func (m EventMeta) ToProcessedEvent(now time.Time) *ProcessedEvent {
	return &ProcessedEvent{
		EventID:     m.EventID,
		EventType:   m.EventType,
		Topic:       m.Topic,
		Partition:   m.Partition,
		Offset:      m.Offset,
		ProcessedAt: now,
	}
}
