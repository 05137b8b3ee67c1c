// Package consumer maps event log messages onto use case calls.
package consumer

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/iho/ledgersaga/internal/domain"
	"github.com/iho/ledgersaga/internal/infrastructure/messaging"
)

// MetaFromMessage reads the transport headers of msg. Only the event id is
// mandatory; it is the idempotency key.
func MetaFromMessage(msg messaging.Message) (domain.EventMeta, error) {
	meta := domain.EventMeta{
		EventID:       msg.Header(domain.HeaderEventID),
		EventType:     msg.Header(domain.HeaderEventType),
		AggregateID:   msg.Header(domain.HeaderAggregateID),
		AggregateType: msg.Header(domain.HeaderAggregateType),
		Topic:         msg.Topic,
		Partition:     msg.Partition,
		Offset:        msg.Offset,
	}
	if meta.EventID == "" {
		return meta, domain.ErrMissingEventID
	}

	if raw := msg.Header(domain.HeaderTimestamp); raw != "" {
		if ts, err := time.Parse(time.RFC3339Nano, raw); err == nil {
			meta.OccurredAt = ts
		}
	}

	return meta, nil
}

func decode(msg messaging.Message, v any) error {
	if err := json.Unmarshal(msg.Value, v); err != nil {
		return fmt.Errorf("%w: %s: %v", domain.ErrMalformedEvent, msg.Topic, err)
	}
	return nil
}

var nonRetryable = []error{
	domain.ErrMalformedEvent,
	domain.ErrEventSerialization,
	domain.ErrMissingEventID,
	domain.ErrAccountNotFound,
	domain.ErrTransactionNotFound,
	domain.ErrInvalidTransactionData,
	domain.ErrInvalidAccountData,
	domain.ErrInvalidAmount,
}

// Classifier marks errors that retrying cannot fix: bad payloads, missing
// entities and invalid data.
var Classifier = messaging.RetryClassifierFunc(func(err error) bool {
	for _, target := range nonRetryable {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
})
