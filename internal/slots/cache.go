package slots

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/willowtherapy/booking-platform/pkg/logging"
)

// Cache keeps resolved slot lists in Redis for a short TTL. A nil *Cache is
// valid and always misses, so the resolver runs without Redis in local
// setups. Cache failures degrade to direct resolution, never to a request
// failure.
type Cache struct {
	redis  *redis.Client
	ttl    time.Duration
	logger *logging.Logger
}

func NewCache(client *redis.Client, ttl time.Duration, logger *logging.Logger) *Cache {
	if client == nil {
		panic("slots: redis client cannot be nil")
	}
	if ttl <= 0 {
		ttl = time.Minute
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Cache{redis: client, ttl: ttl, logger: logger}
}

func slotKey(providerID, date string) string {
	return fmt.Sprintf("slots:%s:%s", providerID, date)
}

// Get returns the cached slot list and whether it was present. An empty
// cached list is a hit, not a miss.
func (c *Cache) Get(ctx context.Context, providerID, date string) ([]string, bool) {
	if c == nil {
		return nil, false
	}
	data, err := c.redis.Get(ctx, slotKey(providerID, date)).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn("slot cache read failed", "error", err, "provider_id", providerID, "date", date)
		}
		return nil, false
	}
	var slots []string
	if err := json.Unmarshal(data, &slots); err != nil {
		c.logger.Warn("slot cache entry corrupt", "error", err, "provider_id", providerID, "date", date)
		return nil, false
	}
	return slots, true
}

func (c *Cache) Set(ctx context.Context, providerID, date string, slots []string) {
	if c == nil {
		return
	}
	if slots == nil {
		slots = []string{}
	}
	data, err := json.Marshal(slots)
	if err != nil {
		return
	}
	if err := c.redis.Set(ctx, slotKey(providerID, date), data, c.ttl).Err(); err != nil {
		c.logger.Warn("slot cache write failed", "error", err, "provider_id", providerID, "date", date)
	}
}

// Invalidate drops the cached list after a booking or status change.
func (c *Cache) Invalidate(ctx context.Context, providerID, date string) {
	if c == nil {
		return
	}
	if err := c.redis.Del(ctx, slotKey(providerID, date)).Err(); err != nil {
		c.logger.Warn("slot cache invalidation failed", "error", err, "provider_id", providerID, "date", date)
	}
}
