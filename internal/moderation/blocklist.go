package moderation

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"townsquare/internal/models"
	"townsquare/internal/observability"

	"github.com/redis/go-redis/v9"
)

// DefaultTTL bounds how stale a cached blocklist may get.
const DefaultTTL = 5 * time.Minute

// BlocklistSource lists every blocked word, in a stable order.
type BlocklistSource interface {
	ListBlockedWords(ctx context.Context) ([]models.BlockedWord, error)
}

// Blocklist serves the words the gate matches against.
type Blocklist interface {
	Words(ctx context.Context) ([]models.BlockedWord, error)
}

// Invalidator is implemented by caching blocklists that can drop their
// current snapshot on demand.
type Invalidator interface {
	Invalidate(ctx context.Context) error
}

// SourceBlocklist reads straight from the source on every call.
type SourceBlocklist struct {
	Source BlocklistSource
}

// Words implements Blocklist.
func (b SourceBlocklist) Words(ctx context.Context) ([]models.BlockedWord, error) {
	return b.Source.ListBlockedWords(ctx)
}

// TTLCache keeps an in-process snapshot of the blocklist for at most ttl.
// Concurrent refreshes may race; the last one to finish wins.
type TTLCache struct {
	source BlocklistSource
	ttl    time.Duration
	now    func() time.Time

	mu        sync.RWMutex
	words     []models.BlockedWord
	fetchedAt time.Time
	loaded    bool
	// gen advances on every Invalidate. A reload that started under an
	// older generation is not stored.
	gen uint64
}

// TTLOption configures a TTLCache.
type TTLOption func(*TTLCache)

// WithClock overrides the clock used to judge freshness.
func WithClock(now func() time.Time) TTLOption {
	return func(c *TTLCache) { c.now = now }
}

// NewTTLCache wraps source with an in-memory cache. A non-positive ttl
// falls back to DefaultTTL.
func NewTTLCache(source BlocklistSource, ttl time.Duration, opts ...TTLOption) *TTLCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	c := &TTLCache{source: source, ttl: ttl, now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Words implements Blocklist.
func (c *TTLCache) Words(ctx context.Context) ([]models.BlockedWord, error) {
	c.mu.RLock()
	if c.loaded && c.now().Sub(c.fetchedAt) < c.ttl {
		words := c.words
		c.mu.RUnlock()
		return words, nil
	}
	gen := c.gen
	c.mu.RUnlock()

	words, err := c.source.ListBlockedWords(ctx)
	if err != nil {
		return nil, err
	}
	observability.BlocklistRefreshes.WithLabelValues("memory").Inc()

	c.mu.Lock()
	if c.gen == gen {
		c.words = words
		c.fetchedAt = c.now()
		c.loaded = true
	}
	c.mu.Unlock()
	return words, nil
}

// Invalidate drops the snapshot so the next call reloads from the source.
func (c *TTLCache) Invalidate(context.Context) error {
	c.mu.Lock()
	c.words = nil
	c.loaded = false
	c.gen++
	c.mu.Unlock()
	return nil
}

// BlocklistKey is the Redis key holding the shared blocklist snapshot.
const BlocklistKey = "moderation:blocklist"

// RedisCache shares one blocklist snapshot between instances through Redis.
// Redis failures fall through to the source so moderation keeps working.
type RedisCache struct {
	client *redis.Client
	source BlocklistSource
	ttl    time.Duration
}

// NewRedisCache wraps source with a Redis-backed cache.
func NewRedisCache(client *redis.Client, source BlocklistSource, ttl time.Duration) *RedisCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisCache{client: client, source: source, ttl: ttl}
}

// Words implements Blocklist.
func (c *RedisCache) Words(ctx context.Context) ([]models.BlockedWord, error) {
	raw, err := c.client.Get(ctx, BlocklistKey).Bytes()
	if err == nil {
		var words []models.BlockedWord
		if jsonErr := json.Unmarshal(raw, &words); jsonErr == nil {
			return words, nil
		}
		slog.WarnContext(ctx, "discarding unreadable blocklist snapshot", "key", BlocklistKey)
	} else if !errors.Is(err, redis.Nil) {
		slog.WarnContext(ctx, "blocklist cache read failed", "err", err)
	}

	words, err := c.source.ListBlockedWords(ctx)
	if err != nil {
		return nil, err
	}
	observability.BlocklistRefreshes.WithLabelValues("redis").Inc()

	if payload, err := json.Marshal(words); err == nil {
		if err := c.client.Set(ctx, BlocklistKey, payload, c.ttl).Err(); err != nil {
			slog.WarnContext(ctx, "blocklist cache write failed", "err", err)
		}
	}
	return words, nil
}

// Invalidate deletes the shared snapshot.
func (c *RedisCache) Invalidate(ctx context.Context) error {
	return c.client.Del(ctx, BlocklistKey).Err()
}
