package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mmynk/splitledger/internal/calculator"
)

// RedisConfig is the redis connection configuration.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// RedisPlanCache shares plans between server instances. Redis errors are
// logged and treated as misses; the ledger recomputes the plan.
type RedisPlanCache struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
}

// NewRedisPlanCache connects to redis and verifies the connection.
func NewRedisPlanCache(ctx context.Context, cfg RedisConfig, ttl time.Duration) (*RedisPlanCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return NewRedisPlanCacheWithClient(client, ttl), nil
}

// NewRedisPlanCacheWithClient wraps an existing client.
func NewRedisPlanCacheWithClient(client *redis.Client, ttl time.Duration) *RedisPlanCache {
	return &RedisPlanCache{client: client, ttl: ttl, prefix: "splitledger:plan:"}
}

func (c *RedisPlanCache) key(groupID string) string {
	return c.prefix + groupID
}

func (c *RedisPlanCache) Get(ctx context.Context, groupID string, version int64) ([]calculator.Transfer, bool) {
	val, err := c.client.Get(ctx, c.key(groupID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false
	}
	if err != nil {
		slog.Warn("Plan cache read failed", "group_id", groupID, "error", err)
		return nil, false
	}

	var entry planEntry
	if err := json.Unmarshal(val, &entry); err != nil {
		slog.Warn("Plan cache entry is corrupt", "group_id", groupID, "error", err)
		return nil, false
	}
	if entry.Version != version {
		return nil, false
	}
	return entry.Plan, true
}

func (c *RedisPlanCache) Set(ctx context.Context, groupID string, version int64, plan []calculator.Transfer) {
	value, err := json.Marshal(planEntry{Version: version, Plan: plan})
	if err != nil {
		slog.Warn("Failed to encode plan", "group_id", groupID, "error", err)
		return
	}
	if err := c.client.Set(ctx, c.key(groupID), value, c.ttl).Err(); err != nil {
		slog.Warn("Plan cache write failed", "group_id", groupID, "error", err)
	}
}

func (c *RedisPlanCache) Invalidate(ctx context.Context, groupID string) {
	if err := c.client.Del(ctx, c.key(groupID)).Err(); err != nil {
		slog.Warn("Plan cache invalidation failed", "group_id", groupID, "error", err)
	}
}

// Close closes the redis client.
func (c *RedisPlanCache) Close() error {
	return c.client.Close()
}
