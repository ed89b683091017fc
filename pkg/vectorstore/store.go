package vectorstore

import (
	"context"
	"errors"
	"sync"

	"doc-review-be/internal/apperror"
	"doc-review-be/internal/pkg/logger"
)

type State string

const (
	StateDisconnected State = "disconnected"
	StateConnecting   State = "connecting"
	StateConnected    State = "connected"
	StateDegraded     State = "degraded"
	StateFailed       State = "failed"
	StateClosed       State = "closed"
)

type Options struct {
	// Backend is "memory" or the remote backend name.
	Backend      string
	AutoFallback bool
	Dimension    int
	Collections  []string
}

// Store is the keyed record store used by the review repository. It owns the
// connection lifecycle and silently swaps in a MemoryBackend when the remote
// backend cannot be reached and AutoFallback is set.
type Store struct {
	opts   Options
	dial   Dialer
	logger logger.ILogger

	mu              sync.Mutex
	state           State
	active          Backend
	clientAvailable bool
	lastError       string
	connectErr      error
}

func NewStore(opts Options, dial Dialer, log logger.ILogger) *Store {
	if opts.Backend == "" {
		opts.Backend = MemoryBackendName
	}
	return &Store{
		opts:            opts,
		dial:            dial,
		logger:          log,
		state:           StateDisconnected,
		clientAvailable: opts.Backend == MemoryBackendName || dial != nil,
	}
}

// Connect is idempotent. From Failed it keeps returning the original fault.
func (s *Store) Connect(ctx context.Context) error {
	_, err := s.ready(ctx)
	return err
}

func (s *Store) ready(ctx context.Context) (Backend, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case StateConnected, StateDegraded:
		return s.active, nil
	case StateFailed:
		return nil, s.connectErr
	case StateClosed:
		return nil, apperror.BackendFault(ErrStoreClosed, "vector store closed")
	}

	s.state = StateConnecting

	if s.opts.Backend == MemoryBackendName {
		s.active = NewMemoryBackend()
		s.state = StateConnected
		return s.active, s.ensureCollections(ctx)
	}

	remote, err := s.dialRemote(ctx)
	if err == nil {
		s.active = remote
		if err = s.ensureCollections(ctx); err == nil {
			s.state = StateConnected
			s.logger.Info("VectorStore", "Connected to vector backend", map[string]interface{}{
				"backend": remote.Name(),
			})
			return s.active, nil
		}
		// Collection setup is part of connecting.
		s.active = nil
		_ = remote.Close()
	}

	s.lastError = err.Error()
	if s.opts.AutoFallback {
		s.logger.Warn("VectorStore", "Remote vector backend unavailable, falling back to memory", map[string]interface{}{
			"backend": s.opts.Backend,
			"error":   err.Error(),
		})
		s.active = NewMemoryBackend()
		s.state = StateDegraded
		return s.active, s.ensureCollections(ctx)
	}

	s.logger.Error("VectorStore", "Remote vector backend unavailable", map[string]interface{}{
		"backend": s.opts.Backend,
		"error":   err.Error(),
	})
	s.state = StateFailed
	s.connectErr = apperror.BackendFault(err, "vector backend %s unavailable", s.opts.Backend)
	return nil, s.connectErr
}

func (s *Store) dialRemote(ctx context.Context) (Backend, error) {
	if s.dial == nil {
		s.clientAvailable = false
		return nil, ErrClientUnavailable
	}
	remote, err := s.dial()
	if err != nil {
		if errors.Is(err, ErrClientUnavailable) {
			s.clientAvailable = false
		}
		return nil, err
	}
	if err := remote.Connect(ctx); err != nil {
		return nil, err
	}
	return remote, nil
}

func (s *Store) ensureCollections(ctx context.Context) error {
	for _, name := range s.opts.Collections {
		if err := s.active.EnsureCollection(ctx, name, s.opts.Dimension); err != nil {
			return apperror.BackendFault(err, "ensure collection %s", name)
		}
	}
	return nil
}

// Put upserts the payload under key. Re-putting a key replaces the whole record.
func (s *Store) Put(ctx context.Context, collection string, key Key, vector []float32, payload []byte) error {
	backend, err := s.ready(ctx)
	if err != nil {
		return err
	}
	if err := backend.Upsert(ctx, collection, Point{Key: key, Vector: vector, Payload: payload}); err != nil {
		s.recordError(err)
		return apperror.BackendFault(err, "put %s/%s", collection, key)
	}
	return nil
}

// Get returns found=false without error when the key has never been written.
func (s *Store) Get(ctx context.Context, collection string, key Key) ([]byte, bool, error) {
	backend, err := s.ready(ctx)
	if err != nil {
		return nil, false, err
	}
	payload, found, err := backend.Get(ctx, collection, key)
	if err != nil {
		s.recordError(err)
		return nil, false, apperror.BackendFault(err, "get %s/%s", collection, key)
	}
	return payload, found, nil
}

func (s *Store) Ping(ctx context.Context) (bool, string) {
	backend, err := s.ready(ctx)
	if err != nil {
		return false, err.Error()
	}
	return backend.Ping(ctx)
}

// Close releases the active backend. A closed store never reconnects.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = StateClosed
	if s.active == nil {
		return nil
	}
	err := s.active.Close()
	s.active = nil
	return err
}

func (s *Store) recordError(err error) {
	s.mu.Lock()
	s.lastError = err.Error()
	s.mu.Unlock()
}

func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// BackendName is the backend currently serving requests, or the configured one
// before the first connection.
func (s *Store) BackendName() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active != nil {
		return s.active.Name()
	}
	return s.opts.Backend
}

func (s *Store) ConfiguredBackend() string {
	return s.opts.Backend
}

func (s *Store) ClientAvailable() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.clientAvailable
}

func (s *Store) LastError() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastError
}
