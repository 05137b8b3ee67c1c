// Package messaging defines the transport-neutral message model used between
// the outbox publisher, the event log and the consumers.
package messaging

import (
	"context"
	"time"
)

// Message is one record on a topic.
type Message struct {
	Topic     string
	Partition int
	Offset    int64
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Time      time.Time
}

// Header returns the header value for key, or "" if absent.
func (m Message) Header(key string) string {
	if m.Headers == nil {
		return ""
	}
	return m.Headers[key]
}

// Clone returns a deep copy of m.
func (m Message) Clone() Message {
	c := m
	c.Key = append([]byte(nil), m.Key...)
	c.Value = append([]byte(nil), m.Value...)
	if m.Headers != nil {
		c.Headers = make(map[string]string, len(m.Headers))
		for k, v := range m.Headers {
			c.Headers[k] = v
		}
	}
	return c
}

// Producer sends messages to their topics. Send returns only after the log
// acknowledged every message.
type Producer interface {
	Send(ctx context.Context, msgs ...Message) error
	Close() error
}

// Source delivers messages of one consumer group member. Offsets are only
// advanced by an explicit Commit.
type Source interface {
	Fetch(ctx context.Context) (Message, error)
	Commit(ctx context.Context, msg Message) error
	Close() error
}

// Handler processes one message.
type Handler interface {
	Handle(ctx context.Context, msg Message) error
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, msg Message) error

// Handle calls fn.
func (fn HandlerFunc) Handle(ctx context.Context, msg Message) error {
	return fn(ctx, msg)
}

// Recoverer is invoked once retries for a message are exhausted, before the
// message is dead-lettered.
type Recoverer interface {
	Recover(ctx context.Context, msg Message, cause error) error
}

// RetryClassifier determines whether an error should not be retried.
type RetryClassifier interface {
	IsNonRetryable(err error) bool
}

// RetryClassifierFunc adapts a function to RetryClassifier.
type RetryClassifierFunc func(err error) bool

// IsNonRetryable calls fn.
func (fn RetryClassifierFunc) IsNonRetryable(err error) bool {
	if fn == nil {
		return false
	}
	return fn(err)
}
