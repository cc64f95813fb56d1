// Package cache memoizes generated captions in Redis so identical prompts are
// not sent to the provider twice within the TTL.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/db8labs/db8-agent/internal/caption"
	"github.com/db8labs/db8-agent/internal/metrics"
)

// backend is the subset of Redis the cache needs.
type backend interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, val string, ttl time.Duration) error
	Ping(ctx context.Context) error
	Close() error
}

type redisBackend struct{ rdb *redis.Client }

func (r redisBackend) Get(ctx context.Context, key string) (string, error) {
	return r.rdb.Get(ctx, key).Result()
}

func (r redisBackend) Set(ctx context.Context, key, val string, ttl time.Duration) error {
	return r.rdb.Set(ctx, key, val, ttl).Err()
}

func (r redisBackend) Ping(ctx context.Context) error { return r.rdb.Ping(ctx).Err() }

func (r redisBackend) Close() error { return r.rdb.Close() }

// CaptionCache stores GeneratedCaption JSON under a prompt-derived key. A nil
// *CaptionCache is valid and never hits.
type CaptionCache struct {
	b   backend
	ttl time.Duration
}

// NewRedis connects to Redis at addr. It does not dial until first use.
func NewRedis(addr, password string, db int, ttl time.Duration) *CaptionCache {
	rdb := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})
	return &CaptionCache{b: redisBackend{rdb: rdb}, ttl: ttl}
}

// Scope holds the generation settings a cached caption was produced under.
// Changing any of them yields different keys.
type Scope struct {
	Provider     string
	Model        string
	SystemPrompt string
	Temperature  float64
	MaxTokens    int
}

// Key derives the cache key for a prompt generated under scope.
func Key(scope Scope, prompt string) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s|%s|%q|%s|%d|", scope.Provider, scope.Model, scope.SystemPrompt,
		strconv.FormatFloat(scope.Temperature, 'g', -1, 64), scope.MaxTokens)
	h.Write([]byte(prompt))
	return "caption:" + hex.EncodeToString(h.Sum(nil))
}

// Get returns the cached caption for key. Redis errors count as a miss.
func (c *CaptionCache) Get(ctx context.Context, key string) (*caption.GeneratedCaption, bool) {
	if c == nil {
		return nil, false
	}
	raw, err := c.b.Get(ctx, key)
	if errors.Is(err, redis.Nil) {
		metrics.CaptionCacheTotal.WithLabelValues("miss").Inc()
		return nil, false
	}
	if err != nil {
		metrics.CaptionCacheTotal.WithLabelValues("error").Inc()
		zerolog.Ctx(ctx).Warn().Err(err).Str("key", key).Msg("caption cache read failed")
		return nil, false
	}
	var g caption.GeneratedCaption
	if err := json.Unmarshal([]byte(raw), &g); err != nil {
		metrics.CaptionCacheTotal.WithLabelValues("error").Inc()
		zerolog.Ctx(ctx).Warn().Err(err).Str("key", key).Msg("caption cache entry is corrupt")
		return nil, false
	}
	metrics.CaptionCacheTotal.WithLabelValues("hit").Inc()
	return &g, true
}

// Put stores g under key. Failures are logged and otherwise ignored.
func (c *CaptionCache) Put(ctx context.Context, key string, g *caption.GeneratedCaption) {
	if c == nil || g == nil {
		return
	}
	b, err := json.Marshal(g)
	if err != nil {
		return
	}
	if err := c.b.Set(ctx, key, string(b), c.ttl); err != nil {
		metrics.CaptionCacheTotal.WithLabelValues("error").Inc()
		zerolog.Ctx(ctx).Warn().Err(err).Str("key", key).Msg("caption cache write failed")
	}
}

// Ping checks connectivity.
func (c *CaptionCache) Ping(ctx context.Context) error {
	if c == nil {
		return nil
	}
	return c.b.Ping(ctx)
}

func (c *CaptionCache) Close() error {
	if c == nil {
		return nil
	}
	return c.b.Close()
}
