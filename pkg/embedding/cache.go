package embedding

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache stores embeddings keyed by provider and content hash.
type Cache interface {
	Get(ctx context.Context, key string) ([]float32, bool, error)
	Set(ctx context.Context, key string, values []float32) error
}

type RedisCache struct {
	rdb    *redis.Client
	prefix string
	ttl    time.Duration
}

func NewRedisCache(rdb *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{
		rdb:    rdb,
		prefix: "emb:",
		ttl:    ttl,
	}
}

func (c *RedisCache) Get(ctx context.Context, key string) ([]float32, bool, error) {
	raw, err := c.rdb.Get(ctx, c.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	values, err := decodeFloat32s(raw)
	if err != nil {
		return nil, false, err
	}
	return values, true, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, values []float32) error {
	return c.rdb.Set(ctx, c.prefix+key, encodeFloat32s(values), c.ttl).Err()
}

// CachedProvider consults the cache before delegating. Cache failures are
// treated as misses.
type CachedProvider struct {
	inner EmbeddingProvider
	cache Cache
}

func NewCachedProvider(inner EmbeddingProvider, cache Cache) *CachedProvider {
	return &CachedProvider{inner: inner, cache: cache}
}

func (p *CachedProvider) Name() string {
	return p.inner.Name()
}

func (p *CachedProvider) Generate(ctx context.Context, text string, taskType string) (*EmbeddingResponse, error) {
	key := CacheKey(p.inner.Name(), taskType, text)
	if values, found, err := p.cache.Get(ctx, key); err == nil && found {
		return newResponse(values), nil
	}

	res, err := p.inner.Generate(ctx, text, taskType)
	if err != nil {
		return nil, err
	}
	_ = p.cache.Set(ctx, key, res.Embedding.Values)
	return res, nil
}

func CacheKey(provider, taskType, text string) string {
	sum := sha256.Sum256([]byte(text))
	return fmt.Sprintf("%s:%s:%s", provider, taskType, hex.EncodeToString(sum[:]))
}

func encodeFloat32s(values []float32) []byte {
	buf := make([]byte, 4*len(values))
	for i, v := range values {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return buf
}

func decodeFloat32s(raw []byte) ([]float32, error) {
	if len(raw)%4 != 0 {
		return nil, fmt.Errorf("corrupt cached embedding: %d bytes", len(raw))
	}
	values := make([]float32, len(raw)/4)
	for i := range values {
		values[i] = math.Float32frombits(binary.LittleEndian.Uint32(raw[i*4:]))
	}
	return values, nil
}
