package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultTrackTTL = 30 * time.Minute

// EngagementTracker remembers which user already viewed or marked interest
// in which item, backed by Redis keys with a TTL.
// Key format: seen:<kind>:<item_id>:<user_id>
type EngagementTracker struct {
	client *redis.Client
	ttl    time.Duration
}

// NewEngagementTracker wraps the given Redis client. A non-positive ttl
// falls back to the default window.
func NewEngagementTracker(client *redis.Client, ttl time.Duration) *EngagementTracker {
	if ttl <= 0 {
		ttl = defaultTrackTTL
	}
	return &EngagementTracker{client: client, ttl: ttl}
}

// Seen reports whether this user already produced this signal for this item
// within the tracking window.
func (t *EngagementTracker) Seen(ctx context.Context, kind, itemID, userID string) (bool, error) {
	n, err := t.client.Exists(ctx, t.key(kind, itemID, userID)).Result()
	if err != nil {
		return false, fmt.Errorf("engagement check: %w", err)
	}
	return n > 0, nil
}

// Mark records the signal; the key expires after the tracking window.
func (t *EngagementTracker) Mark(ctx context.Context, kind, itemID, userID string) error {
	return t.client.Set(ctx, t.key(kind, itemID, userID), "1", t.ttl).Err()
}

func (t *EngagementTracker) key(kind, itemID, userID string) string {
	return fmt.Sprintf("seen:%s:%s:%s", kind, itemID, userID)
}
