// Package cache provides an optional Redis-backed transcription result
// cache keyed by a digest of the audio content and request options.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"ai-batch-transcription-service/internal/models"
	"ai-batch-transcription-service/internal/observability/metrics"
)

// Config holds cache configuration.
type Config struct {
	Enabled bool
	Addr    string
	Prefix  string
	TTL     time.Duration
}

// Cache looks up and stores transcription results. When disabled, every
// lookup is a miss and stores are no-ops.
type Cache struct {
	client  *redis.Client
	prefix  string
	ttl     time.Duration
	enabled bool
	metrics *metrics.Metrics
}

// New creates a result cache.
func New(cfg *Config) *Cache {
	m := metrics.DefaultMetrics
	if cfg == nil || !cfg.Enabled {
		log.Info().Msg("Result cache disabled")
		return &Cache{metrics: m}
	}

	client := redis.NewClient(&redis.Options{Addr: cfg.Addr})
	log.Info().Str("addr", cfg.Addr).Str("prefix", cfg.Prefix).Msg("Result cache enabled")
	return &Cache{
		client:  client,
		prefix:  cfg.Prefix,
		ttl:     cfg.TTL,
		enabled: true,
		metrics: m,
	}
}

// Enabled reports whether lookups can ever hit.
func (c *Cache) Enabled() bool { return c.enabled }

// Key derives the cache key for one audio payload under the given
// decode options.
func Key(audio []byte, language, textnorm string, timestamps bool) string {
	h := sha256.New()
	h.Write(audio)
	fmt.Fprintf(h, "|%s|%s|%t", language, textnorm, timestamps)
	return hex.EncodeToString(h.Sum(nil))
}

// Get looks up a cached transcription. Lookup failures count as misses;
// the pipeline never depends on the cache being reachable.
func (c *Cache) Get(ctx context.Context, key string) (models.Transcription, bool) {
	if !c.enabled {
		return models.Transcription{}, false
	}

	val, err := c.client.Get(ctx, c.prefix+key).Result()
	if err != nil {
		if err != redis.Nil {
			log.Warn().Err(err).Msg("Cache lookup failed")
		}
		c.metrics.RecordCacheLookup(false)
		return models.Transcription{}, false
	}

	var t models.Transcription
	if err := json.Unmarshal([]byte(val), &t); err != nil {
		log.Warn().Err(err).Msg("Cache entry corrupt, ignoring")
		c.metrics.RecordCacheLookup(false)
		return models.Transcription{}, false
	}
	c.metrics.RecordCacheLookup(true)
	return t, true
}

// Put stores a transcription, best effort.
func (c *Cache) Put(ctx context.Context, key string, t models.Transcription) {
	if !c.enabled {
		return
	}
	payload, err := json.Marshal(t)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, c.prefix+key, payload, c.ttl).Err(); err != nil {
		log.Warn().Err(err).Msg("Cache store failed")
	}
}

// Close releases the Redis connection.
func (c *Cache) Close() error {
	if c.client == nil {
		return nil
	}
	return c.client.Close()
}
