package vectorstore

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sync"
	"time"

	"doc-review-be/pkg/database"

	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const PgVectorBackendName = "pgvector"

var collectionNamePattern = regexp.MustCompile(`^[a-z][a-z0-9_]{0,62}$`)

type pointRow struct {
	PointID   int64            `gorm:"column:point_id;primaryKey"`
	Embedding *pgvector.Vector `gorm:"column:embedding"`
	Payload   datatypes.JSON   `gorm:"column:payload"`
	UpdatedAt time.Time        `gorm:"column:updated_at"`
}

// PgVectorBackend stores each collection in its own table with a vector column
// sized at EnsureCollection time.
type PgVectorBackend struct {
	dsn   string
	debug bool
	db    *gorm.DB

	mu    sync.RWMutex
	known map[string]int
}

func NewPgVectorBackend(dsn string, debug bool) (*PgVectorBackend, error) {
	if dsn == "" {
		return nil, fmt.Errorf("%w: empty postgres dsn", ErrClientUnavailable)
	}
	return &PgVectorBackend{
		dsn:   dsn,
		debug: debug,
		known: make(map[string]int),
	}, nil
}

// PgVectorDialer adapts NewPgVectorBackend to a Dialer.
func PgVectorDialer(dsn string, debug bool) Dialer {
	return func() (Backend, error) {
		b, err := NewPgVectorBackend(dsn, debug)
		if err != nil {
			return nil, err
		}
		return b, nil
	}
}

func (b *PgVectorBackend) Name() string {
	return PgVectorBackendName
}

func (b *PgVectorBackend) Connect(ctx context.Context) error {
	db, err := database.NewGormDBFromDSN(b.dsn, b.debug)
	if err != nil {
		return err
	}
	if err := db.WithContext(ctx).Exec("CREATE EXTENSION IF NOT EXISTS vector").Error; err != nil {
		return fmt.Errorf("enable pgvector extension: %w", err)
	}
	b.db = db
	return nil
}

func (b *PgVectorBackend) EnsureCollection(ctx context.Context, name string, dimension int) error {
	if !collectionNamePattern.MatchString(name) {
		return fmt.Errorf("invalid collection name %q", name)
	}
	if dimension <= 0 {
		return fmt.Errorf("invalid vector dimension %d", dimension)
	}

	b.mu.RLock()
	_, exists := b.known[name]
	b.mu.RUnlock()
	if exists {
		return nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if _, exists := b.known[name]; exists {
		return nil
	}

	ddl := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		point_id BIGINT PRIMARY KEY,
		embedding vector(%d),
		payload JSONB NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`, tableName(name), dimension)
	if err := b.db.WithContext(ctx).Exec(ddl).Error; err != nil {
		return fmt.Errorf("create collection %s: %w", name, err)
	}
	b.known[name] = dimension
	return nil
}

func (b *PgVectorBackend) Upsert(ctx context.Context, collection string, point Point) error {
	if err := b.requireCollection(collection); err != nil {
		return err
	}

	row := pointRow{
		PointID:   int64(point.Key),
		Payload:   datatypes.JSON(point.Payload),
		UpdatedAt: time.Now().UTC(),
	}
	if len(point.Vector) > 0 {
		v := pgvector.NewVector(point.Vector)
		row.Embedding = &v
	}

	return b.db.WithContext(ctx).
		Table(tableName(collection)).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "point_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"embedding", "payload", "updated_at"}),
		}).
		Create(&row).Error
}

func (b *PgVectorBackend) Get(ctx context.Context, collection string, key Key) ([]byte, bool, error) {
	if err := b.requireCollection(collection); err != nil {
		return nil, false, err
	}

	var row pointRow
	err := b.db.WithContext(ctx).
		Table(tableName(collection)).
		Select("point_id", "payload").
		Where("point_id = ?", int64(key)).
		Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return []byte(row.Payload), true, nil
}

func (b *PgVectorBackend) Ping(ctx context.Context) (bool, string) {
	if b.db == nil {
		return false, "not_connected"
	}
	sqlDB, err := b.db.DB()
	if err != nil {
		return false, err.Error()
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return false, err.Error()
	}
	return true, "ok:" + PgVectorBackendName
}

func (b *PgVectorBackend) Close() error {
	if b.db == nil {
		return nil
	}
	sqlDB, err := b.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (b *PgVectorBackend) requireCollection(name string) error {
	if b.db == nil {
		return errors.New("pgvector backend not connected")
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	if _, ok := b.known[name]; !ok {
		return fmt.Errorf("collection %s has not been ensured", name)
	}
	return nil
}

func tableName(collection string) string {
	return "vs_" + collection
}
