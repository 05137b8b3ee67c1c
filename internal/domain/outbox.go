package domain

import (
	"fmt"
	"time"
)

// OutboxStatus is the delivery state of an outbox event.
type OutboxStatus string

const (
	OutboxStatusPending OutboxStatus = "PENDING"
	OutboxStatusSent    OutboxStatus = "SENT"
	OutboxStatusFailed  OutboxStatus = "FAILED"
)

// DefaultMaxDeliveryAttempts is the attempt ceiling after which an outbox
// event is given up on and left FAILED for an operator.
const DefaultMaxDeliveryAttempts = 5

// ParseOutboxStatus validates and converts a raw string status.
func ParseOutboxStatus(raw string) (OutboxStatus, error) {
	status := OutboxStatus(raw)
	switch status {
	case OutboxStatusPending, OutboxStatusSent, OutboxStatusFailed:
		return status, nil
	default:
		return "", fmt.Errorf("invalid outbox status %q", raw)
	}
}

// OutboxEvent is an event recorded in the same local commit as the state
// change it announces, waiting to be shipped to the event log.
type OutboxEvent struct {
	ID            string
	AggregateType string
	AggregateID   string
	EventType     string
	Topic         string
	Payload       []byte
	Status        OutboxStatus
	Attempts      int
	LastError     string
	CreatedAt     time.Time
	SentAt        *time.Time
}

// StatusAfterFailure returns the status an event moves to once attempts
// failed deliveries have been counted.
func StatusAfterFailure(attempts, maxAttempts int) OutboxStatus {
	if attempts >= maxAttempts {
		return OutboxStatusFailed
	}
	return OutboxStatusPending
}
