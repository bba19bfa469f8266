package storage

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"mediatrust-hq/orchestrator/pkg/audit"
)

// DefaultCacheTTL is how long a cached record lives in Redis.
const DefaultCacheTTL = 10 * time.Minute

// RedisClient is the subset of the go-redis client used by CachedStore.
type RedisClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
	Ping(ctx context.Context) *redis.StatusCmd
	Close() error
}

// RedisConfig configures the Redis read-through cache.
type RedisConfig struct {
	Address   string
	Password  string
	DB        int
	TTL       time.Duration
	KeyPrefix string
}

// NewRedisClient opens a go-redis client for cfg.
func NewRedisClient(cfg RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
}

// CachedStore decorates an audit.Store with a Redis read-through cache.
// The backing store is authoritative; cache failures are logged and ignored.
// Only Find fills the cache. Save drops the entry instead of writing it, so
// concurrent saves for one asset cannot leave the loser's record cached.
type CachedStore struct {
	next   audit.Store
	client RedisClient
	ttl    time.Duration
	prefix string
	logger *slog.Logger
}

// NewCachedStore wraps next with a cache held in client.
func NewCachedStore(next audit.Store, client RedisClient, ttl time.Duration, prefix string) *CachedStore {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if prefix == "" {
		prefix = "inspection:"
	}
	return &CachedStore{
		next:   next,
		client: client,
		ttl:    ttl,
		prefix: prefix,
		logger: slog.Default().With("component", "audit.storage.cache"),
	}
}

func (c *CachedStore) key(assetID string) string {
	return c.prefix + assetID
}

// Save writes the backing store, then invalidates the cache entry.
func (c *CachedStore) Save(ctx context.Context, rec *audit.Record) error {
	if err := c.next.Save(ctx, rec); err != nil {
		return err
	}
	if err := c.client.Del(ctx, c.key(rec.AssetID)).Err(); err != nil {
		c.logger.Error("cache invalidation failed; entry may be stale until it expires",
			"asset_id", rec.AssetID,
			"ttl", c.ttl.String(),
			"error", err,
		)
	}
	return nil
}

// Find serves from the cache when possible and fills it on a miss.
func (c *CachedStore) Find(ctx context.Context, assetID string) (*audit.Record, error) {
	raw, err := c.client.Get(ctx, c.key(assetID)).Bytes()
	switch {
	case err == nil:
		var rec audit.Record
		jerr := json.Unmarshal(raw, &rec)
		if jerr == nil {
			rec.Evidence = rec.Evidence.Normalize()
			return &rec, nil
		}
		c.logger.Warn("discarding undecodable cache entry", "asset_id", assetID, "error", jerr)
	case errors.Is(err, redis.Nil):
	default:
		c.logger.Warn("cache read failed", "asset_id", assetID, "error", err)
	}

	rec, err := c.next.Find(ctx, assetID)
	if err != nil {
		return nil, err
	}
	c.fill(ctx, rec)
	return rec, nil
}

func (c *CachedStore) fill(ctx context.Context, rec *audit.Record) {
	data, err := json.Marshal(rec)
	if err != nil {
		c.logger.Warn("cache encode failed", "asset_id", rec.AssetID, "error", err)
		return
	}
	if err := c.client.Set(ctx, c.key(rec.AssetID), data, c.ttl).Err(); err != nil {
		c.logger.Warn("cache write failed", "asset_id", rec.AssetID, "error", err)
	}
}

// Ping checks the backing store and, if reachable, Redis.
func (c *CachedStore) Ping(ctx context.Context) error {
	if p, ok := c.next.(audit.Pinger); ok {
		if err := p.Ping(ctx); err != nil {
			return err
		}
	}
	if err := c.client.Ping(ctx).Err(); err != nil {
		return audit.NewStorageError("redis", "ping", err)
	}
	return nil
}

// Close closes both Redis and the backing store.
func (c *CachedStore) Close() error {
	cerr := c.client.Close()
	if err := c.next.Close(); err != nil {
		return err
	}
	if cerr != nil {
		return audit.NewStorageError("redis", "close", cerr)
	}
	return nil
}
