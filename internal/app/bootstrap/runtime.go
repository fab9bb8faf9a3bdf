// Package bootstrap wires optional runtime dependencies from configuration so
// every binary shares the same construction rules.
package bootstrap

import (
	"context"
	"crypto/tls"
	"database/sql"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/redis/go-redis/v9"

	appconfig "github.com/willowtherapy/booking-platform/internal/config"
	"github.com/willowtherapy/booking-platform/internal/slots"
	"github.com/willowtherapy/booking-platform/pkg/logging"
)

// BuildRedisClient returns a configured Redis client or nil when disabled.
// When verify is true, a ping is issued and failures return nil.
func BuildRedisClient(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger, verify bool) *redis.Client {
	if cfg == nil || strings.TrimSpace(cfg.RedisAddr) == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	if ctx == nil {
		ctx = context.Background()
	}

	redisOptions := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}
	if cfg.RedisTLS {
		redisOptions.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	client := redis.NewClient(redisOptions)
	if !verify {
		return client
	}
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("redis not available, slot caching disabled", "error", err)
		return nil
	}
	return client
}

// BuildSlotCache returns the Redis-backed slot cache, or nil when Redis is
// not configured. Slot resolution works without it.
func BuildSlotCache(client *redis.Client, cfg *appconfig.Config, logger *logging.Logger) *slots.Cache {
	if client == nil {
		return nil
	}
	ttl := cfg.SlotCacheTTL
	return slots.NewCache(client, ttl, logger)
}

// BuildAgendaDB opens the database/sql handle backing the agenda read model.
// Returns nil when the database is unreachable; the agenda endpoint degrades
// to 503 rather than blocking startup.
func BuildAgendaDB(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) *sql.DB {
	if cfg == nil || strings.TrimSpace(cfg.DatabaseURL) == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}

	db, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		logger.Warn("agenda database unavailable", "error", err)
		return nil
	}
	if err := db.PingContext(ctx); err != nil {
		logger.Warn("agenda database unreachable", "error", err)
		_ = db.Close()
		return nil
	}
	return db
}
