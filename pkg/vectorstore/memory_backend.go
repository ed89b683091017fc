package vectorstore

import (
	"context"
	"fmt"

	"github.com/patrickmn/go-cache"
)

const MemoryBackendName = "memory"

type memoryRecord struct {
	vector  []float32
	payload []byte
}

// MemoryBackend keeps points in process memory. Items never expire.
type MemoryBackend struct {
	cache *cache.Cache
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{
		cache: cache.New(cache.NoExpiration, 0),
	}
}

func (b *MemoryBackend) Name() string {
	return MemoryBackendName
}

func (b *MemoryBackend) Connect(ctx context.Context) error {
	return nil
}

func (b *MemoryBackend) EnsureCollection(ctx context.Context, name string, dimension int) error {
	return nil
}

func (b *MemoryBackend) Upsert(ctx context.Context, collection string, point Point) error {
	record := memoryRecord{
		vector:  append([]float32(nil), point.Vector...),
		payload: append([]byte(nil), point.Payload...),
	}
	b.cache.Set(memoryKey(collection, point.Key), record, cache.NoExpiration)
	return nil
}

func (b *MemoryBackend) Get(ctx context.Context, collection string, key Key) ([]byte, bool, error) {
	x, found := b.cache.Get(memoryKey(collection, key))
	if !found {
		return nil, false, nil
	}
	record := x.(memoryRecord)
	return append([]byte(nil), record.payload...), true, nil
}

func (b *MemoryBackend) Ping(ctx context.Context) (bool, string) {
	return true, "ok:" + MemoryBackendName
}

func (b *MemoryBackend) Close() error {
	b.cache.Flush()
	return nil
}

func (b *MemoryBackend) Len() int {
	return b.cache.ItemCount()
}

func memoryKey(collection string, key Key) string {
	return fmt.Sprintf("%s/%s", collection, key)
}
