package vectorstore

import (
	"context"
	"errors"
)

var (
	// ErrClientUnavailable is returned by a Dialer when the remote backend cannot
	// even be constructed (no DSN, unsupported driver).
	ErrClientUnavailable = errors.New("vector client unavailable")
	ErrStoreClosed       = errors.New("vector store closed")
)

// Point is one keyed record: an embedding plus an opaque JSON payload.
type Point struct {
	Key     Key
	Vector  []float32
	Payload []byte
}

// Backend is a single physical store. Store wraps one with connection state and fallback.
type Backend interface {
	Name() string
	Connect(ctx context.Context) error
	EnsureCollection(ctx context.Context, name string, dimension int) error
	Upsert(ctx context.Context, collection string, point Point) error
	Get(ctx context.Context, collection string, key Key) ([]byte, bool, error)
	Ping(ctx context.Context) (bool, string)
	Close() error
}

// Dialer builds the remote backend.
type Dialer func() (Backend, error)
