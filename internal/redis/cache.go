package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/wordle-tracker/internal/config"
	"github.com/wordle-tracker/internal/domain"
)

// Cache memoizes computed stats snapshots and leaderboard standings per
// guild. Entries are invalidated whenever a new result is recorded for the
// guild; a miss always falls through to a full recompute, so the cache is
// never load-bearing for correctness.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewCache creates a Redis-backed cache
func NewCache(cfg *config.RedisConfig, ttl time.Duration, logger *slog.Logger) (*Cache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})

	// Test connection
	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connecting to redis: %w", err)
	}

	return &Cache{
		client: client,
		ttl:    ttl,
		logger: logger,
	}, nil
}

// Close closes the Redis connection
func (c *Cache) Close() error {
	return c.client.Close()
}

// Ping checks cache availability.
func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *Cache) snapshotKey(guildID, playerID string) string {
	return fmt.Sprintf("wordle:snapshot:%s:%s", guildID, playerID)
}

func (c *Cache) boardKey(guildID string, metric domain.Metric) string {
	return fmt.Sprintf("wordle:board:%s:%s", guildID, metric)
}

// guildIndexKey tracks every cache key written for a guild, so invalidation
// never needs a SCAN.
func (c *Cache) guildIndexKey(guildID string) string {
	return fmt.Sprintf("wordle:guild:%s:keys", guildID)
}

// GetSnapshot returns a cached snapshot, or nil on a miss.
func (c *Cache) GetSnapshot(ctx context.Context, guildID, playerID string) (*domain.StatsSnapshot, error) {
	data, err := c.client.Get(ctx, c.snapshotKey(guildID, playerID)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting snapshot: %w", err)
	}

	var snap domain.StatsSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("decoding snapshot: %w", err)
	}
	return &snap, nil
}

// SetSnapshot caches a snapshot for its TTL and indexes the key for
// guild-wide invalidation.
func (c *Cache) SetSnapshot(ctx context.Context, guildID string, snap *domain.StatsSnapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}
	return c.setIndexed(ctx, guildID, c.snapshotKey(guildID, snap.PlayerID), data)
}

// GetStandings returns cached leaderboard standings, or nil on a miss.
func (c *Cache) GetStandings(ctx context.Context, guildID string, metric domain.Metric) ([]domain.Standing, error) {
	data, err := c.client.Get(ctx, c.boardKey(guildID, metric)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting standings: %w", err)
	}

	var standings []domain.Standing
	if err := json.Unmarshal(data, &standings); err != nil {
		return nil, fmt.Errorf("decoding standings: %w", err)
	}
	return standings, nil
}

// SetStandings caches leaderboard standings for a guild and metric.
func (c *Cache) SetStandings(ctx context.Context, guildID string, metric domain.Metric, standings []domain.Standing) error {
	data, err := json.Marshal(standings)
	if err != nil {
		return fmt.Errorf("encoding standings: %w", err)
	}
	return c.setIndexed(ctx, guildID, c.boardKey(guildID, metric), data)
}

func (c *Cache) setIndexed(ctx context.Context, guildID, key string, data []byte) error {
	indexKey := c.guildIndexKey(guildID)
	pipe := c.client.Pipeline()
	pipe.Set(ctx, key, data, c.ttl)
	pipe.SAdd(ctx, indexKey, key)
	pipe.Expire(ctx, indexKey, c.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("caching %s: %w", key, err)
	}
	return nil
}

// InvalidateGuild drops every cached entry for a guild. Called by the
// ingestion pipeline after each recorded result.
func (c *Cache) InvalidateGuild(ctx context.Context, guildID string) error {
	indexKey := c.guildIndexKey(guildID)
	keys, err := c.client.SMembers(ctx, indexKey).Result()
	if err != nil {
		return fmt.Errorf("listing guild cache keys: %w", err)
	}

	keys = append(keys, indexKey)
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("invalidating guild cache: %w", err)
	}
	c.logger.Debug("guild cache invalidated", "guild_id", guildID, "keys", len(keys))
	return nil
}
