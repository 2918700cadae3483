package ai

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/danielgaio/moto-advisor/internal/domain"
)

// embedCache wraps an Embedder and caches vectors in Redis keyed by text
// hash. Query texts repeat heavily across turns of the same conversation, so
// the hit rate is high. Cache failures degrade to calling the base embedder.
type embedCache struct {
	base domain.Embedder
	rdb  *redis.Client
	ttl  time.Duration
	log  *slog.Logger
}

// NewEmbedCache wraps base with a Redis-backed embedding cache. A nil client
// or non-positive TTL returns base unmodified.
func NewEmbedCache(base domain.Embedder, rdb *redis.Client, ttl time.Duration, log *slog.Logger) domain.Embedder {
	if base == nil || rdb == nil || ttl <= 0 {
		return base
	}
	if log == nil {
		log = slog.Default()
	}
	return &embedCache{base: base, rdb: rdb, ttl: ttl, log: log}
}

func (c *embedCache) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	res := make([][]float32, len(texts))
	missIdx := make([]int, 0, len(texts))
	missTexts := make([]string, 0, len(texts))

	for i, t := range texts {
		vec, ok := c.get(ctx, t)
		if ok {
			res[i] = vec
			continue
		}
		missIdx = append(missIdx, i)
		missTexts = append(missTexts, t)
	}
	if len(missIdx) == 0 {
		return res, nil
	}

	vecs, err := c.base.Embed(ctx, missTexts)
	if err != nil {
		return nil, err
	}
	for j, idx := range missIdx {
		res[idx] = vecs[j]
		c.put(ctx, missTexts[j], vecs[j])
	}
	return res, nil
}

func (c *embedCache) get(ctx context.Context, text string) ([]float32, bool) {
	raw, err := c.rdb.Get(ctx, cacheKey(text)).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.log.Warn("embed cache read failed", slog.Any("error", err))
		}
		return nil, false
	}
	var vec []float32
	if err := json.Unmarshal(raw, &vec); err != nil {
		return nil, false
	}
	return vec, true
}

func (c *embedCache) put(ctx context.Context, text string, vec []float32) {
	raw, err := json.Marshal(vec)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, cacheKey(text), raw, c.ttl).Err(); err != nil {
		c.log.Warn("embed cache write failed", slog.Any("error", err))
	}
}

func cacheKey(text string) string {
	h := sha256.Sum256([]byte(strings.TrimSpace(text)))
	return "embed:" + hex.EncodeToString(h[:])
}
