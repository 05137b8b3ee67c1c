package postgres

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/iho/ledgersaga/internal/domain"
)

// PostgreSQL error codes for retryable errors.
const (
	pgErrDeadlock             = "40P01"
	pgErrSerializationFailure = "40001"
)

// Retrier implements usecase.Retrier with exponential backoff.
type Retrier struct {
	maxRetries      int
	initialInterval time.Duration
	maxInterval     time.Duration
	maxElapsedTime  time.Duration
	logger          *slog.Logger
}

// RetrierOption configures a Retrier.
type RetrierOption func(*Retrier)

// WithMaxRetries sets how many times an operation is re-run.
func WithMaxRetries(n int) RetrierOption {
	return func(r *Retrier) { r.maxRetries = n }
}

// WithBackoff sets the initial and maximum wait between attempts.
func WithBackoff(initial, max time.Duration) RetrierOption {
	return func(r *Retrier) {
		r.initialInterval = initial
		r.maxInterval = max
	}
}

// WithRetrierLogger sets the logger.
func WithRetrierLogger(logger *slog.Logger) RetrierOption {
	return func(r *Retrier) { r.logger = logger }
}

// NewRetrier creates a new PostgreSQL retrier.
func NewRetrier(opts ...RetrierOption) *Retrier {
	r := &Retrier{
		maxRetries:      3,
		initialInterval: 50 * time.Millisecond,
		maxInterval:     1 * time.Second,
		maxElapsedTime:  10 * time.Second,
		logger:          slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Retry executes an operation with exponential backoff on retryable errors.
func (r *Retrier) Retry(ctx context.Context, operation func() error) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = r.initialInterval
	b.MaxInterval = r.maxInterval
	b.MaxElapsedTime = r.maxElapsedTime

	retryCount := 0

	err := backoff.Retry(func() error {
		err := operation()
		if err == nil {
			return nil
		}

		if !isRetryableError(err) {
			return backoff.Permanent(err)
		}

		retryCount++
		if retryCount > r.maxRetries {
			return backoff.Permanent(err)
		}

		r.logger.Warn("retryable database error, retrying",
			"error", err,
			"retry", retryCount,
		)

		return err
	}, backoff.WithContext(b, ctx))

	var permanent *backoff.PermanentError
	if errors.As(err, &permanent) {
		return permanent.Err
	}
	return err
}

// isRetryableError reports whether re-running the whole unit of work may
// succeed. A lost optimistic-lock race counts: the retry re-reads the row.
func isRetryableError(err error) bool {
	if errors.Is(err, domain.ErrConcurrentUpdate) {
		return true
	}

	switch pgErrorCode(err) {
	case pgErrDeadlock, pgErrSerializationFailure:
		return true
	}
	return false
}
