package usecase

import (
	"context"
	"time"

	"github.com/iho/ledgersaga/internal/domain"
)

const (
	// DefaultTransactionTimeout is the maximum duration for a database transaction
	// This prevents long-running transactions from blocking tables
	DefaultTransactionTimeout = 10 * time.Second

	// IdempotencyKeyTTL is how long idempotency keys are cached
	IdempotencyKeyTTL = 24 * time.Hour

	// ProcessedEventRetention is how long consumed-event rows are kept. It must
	// exceed any redelivery window of the event log.
	ProcessedEventRetention = 30 * 24 * time.Hour

	// SentOutboxRetention is how long delivered outbox rows are kept.
	SentOutboxRetention = 7 * 24 * time.Hour
)

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

// SystemClock returns a Clock backed by time.Now in UTC.
func SystemClock() Clock { return systemClock{} }

type nopMetrics struct{}

func (nopMetrics) TransferApplied(domain.TransactionStatus)      {}
func (nopMetrics) ObserveTransferDuration(time.Duration)         {}
func (nopMetrics) TransactionCreated()                           {}
func (nopMetrics) TransactionCompleted(domain.TransactionStatus) {}
func (nopMetrics) ReplicaUpdated(bool)                           {}
func (nopMetrics) DuplicateEventSkipped(string)                  {}
func (nopMetrics) OutboxSent(string)                             {}
func (nopMetrics) OutboxRequeued(string)                         {}
func (nopMetrics) OutboxFailed(string)                           {}
func (nopMetrics) ObserveOutboxPass(time.Duration)               {}

// NopMetrics returns a Metrics that records nothing.
func NopMetrics() Metrics { return nopMetrics{} }

type noRetry struct{}

func (noRetry) Retry(_ context.Context, operation func() error) error { return operation() }
