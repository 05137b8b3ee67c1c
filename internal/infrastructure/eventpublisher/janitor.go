package eventpublisher

import (
	"context"
	"log/slog"
	"time"

	"github.com/iho/ledgersaga/internal/usecase"
)

// Purger deletes delivered and consumed event rows past their retention.
type Purger interface {
	Purge(ctx context.Context, policy usecase.RetentionPolicy) error
}

// Janitor runs Purger periodically.
type Janitor struct {
	purger   Purger
	policy   usecase.RetentionPolicy
	interval time.Duration
	logger   *slog.Logger
}

// NewJanitor creates a new Janitor.
func NewJanitor(purger Purger, policy usecase.RetentionPolicy, interval time.Duration, logger *slog.Logger) *Janitor {
	if interval == 0 {
		interval = time.Hour
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Janitor{purger: purger, policy: policy, interval: interval, logger: logger}
}

// Start purges once per interval until ctx is cancelled.
func (j *Janitor) Start(ctx context.Context) error {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := j.purger.Purge(ctx, j.policy); err != nil {
				j.logger.Error("retention purge failed", slog.String("error", err.Error()))
			}
		}
	}
}
