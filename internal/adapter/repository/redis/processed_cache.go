package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultProcessedTTL bounds how long a processed-event marker is kept.
const DefaultProcessedTTL = 24 * time.Hour

// ProcessedEventCache implements usecase.ProcessedEventCache. A marker only
// ever says "already applied"; a miss is answered by the database.
type ProcessedEventCache struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

// NewProcessedEventCache creates a new ProcessedEventCache. service namespaces
// the keys so the ledger and transfer services can share one Redis.
func NewProcessedEventCache(client redis.UniversalClient, service string, ttl time.Duration) *ProcessedEventCache {
	if ttl <= 0 {
		ttl = DefaultProcessedTTL
	}
	return &ProcessedEventCache{
		client: client,
		prefix: "processed:" + service + ":",
		ttl:    ttl,
	}
}

// Seen reports whether eventID has a marker.
func (c *ProcessedEventCache) Seen(ctx context.Context, eventID string) (bool, error) {
	n, err := c.client.Exists(ctx, c.prefix+eventID).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Remember stores a marker for eventID.
func (c *ProcessedEventCache) Remember(ctx context.Context, eventID string) error {
	return c.client.SetNX(ctx, c.prefix+eventID, "1", c.ttl).Err()
}
