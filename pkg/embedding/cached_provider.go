package embedding

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/vmihailenco/msgpack/v5"
)

// Cache stores encoded vectors by key. A miss returns found=false and no error.
type Cache interface {
	Get(ctx context.Context, key string) (value []byte, found bool, err error)
	Set(ctx context.Context, key string, value []byte) error
}

// CachedProvider serves repeated texts (re-uploads of the same PDF, repeated
// questions) from a cache instead of the gateway. Cache failures degrade to
// calling the wrapped provider.
type CachedProvider struct {
	inner EmbeddingProvider
	cache Cache
}

func NewCachedProvider(inner EmbeddingProvider, cache Cache) *CachedProvider {
	return &CachedProvider{inner: inner, cache: cache}
}

func (p *CachedProvider) Model() string { return p.inner.Model() }

func (p *CachedProvider) Generate(ctx context.Context, text string) ([]float32, error) {
	vectors, err := p.GenerateBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

func (p *CachedProvider) GenerateBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	var missIdx []int
	var missTexts []string

	for i, text := range texts {
		if vec, ok := p.lookup(ctx, text); ok {
			out[i] = vec
			continue
		}
		missIdx = append(missIdx, i)
		missTexts = append(missTexts, text)
	}

	if len(missTexts) == 0 {
		return out, nil
	}

	fresh, err := p.inner.GenerateBatch(ctx, missTexts)
	if err != nil {
		return nil, err
	}
	if len(fresh) != len(missTexts) {
		return nil, fmt.Errorf("embedding provider returned %d vectors for %d texts", len(fresh), len(missTexts))
	}

	for j, idx := range missIdx {
		out[idx] = fresh[j]
		if data, err := msgpack.Marshal(fresh[j]); err == nil {
			_ = p.cache.Set(ctx, p.key(missTexts[j]), data)
		}
	}
	return out, nil
}

func (p *CachedProvider) lookup(ctx context.Context, text string) ([]float32, bool) {
	data, found, err := p.cache.Get(ctx, p.key(text))
	if err != nil || !found {
		return nil, false
	}
	var vec []float32
	if err := msgpack.Unmarshal(data, &vec); err != nil || len(vec) == 0 {
		return nil, false
	}
	return vec, true
}

func (p *CachedProvider) key(text string) string {
	sum := sha256.Sum256([]byte(text))
	return "embedding:" + p.inner.Model() + ":" + hex.EncodeToString(sum[:])
}

// RedisCache is a Cache backed by a redis client with a fixed TTL per entry.
type RedisCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisCache(rdb *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{rdb: rdb, ttl: ttl}
}

func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := c.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, value []byte) error {
	return c.rdb.Set(ctx, key, value, c.ttl).Err()
}
