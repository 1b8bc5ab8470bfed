// Package postgres persists entity stores in Postgres through the pgx
// database/sql driver. Each entity is kept as one JSONB snapshot row.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver

	"github.com/mesh-intelligence/backoffice/pkg/types"
)

const defaultDriver = "pgx"

const (
	createStateTable = `CREATE TABLE IF NOT EXISTS entity_state (
		entity TEXT PRIMARY KEY,
		payload JSONB NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`
	selectState = `SELECT payload FROM entity_state WHERE entity = $1`
	upsertState = `INSERT INTO entity_state(entity,payload,updated_at) VALUES($1,$2,$3) ON CONFLICT(entity) DO UPDATE SET payload=EXCLUDED.payload, updated_at=EXCLUDED.updated_at`
)

var (
	sqlOpen = sql.Open
	openMu  sync.Mutex
)

// Backend implements types.Persister on a Postgres database.
type Backend struct {
	db     *sql.DB
	seed   types.SeedFunc
	logger *slog.Logger
	now    func() time.Time
}

// Option configures a Backend.
type Option func(*Backend)

// WithSeed sets the seed used for entities without a snapshot row.
func WithSeed(f types.SeedFunc) Option {
	return func(b *Backend) { b.seed = f }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(b *Backend) { b.logger = l }
}

// Open connects to dsn and ensures the snapshot table exists.
func Open(ctx context.Context, dsn string, opts ...Option) (*Backend, error) {
	if dsn == "" {
		return nil, types.ErrPostgresDSNRequired
	}
	openMu.Lock()
	db, err := sqlOpen(defaultDriver, dsn)
	openMu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	b := &Backend{db: db, logger: slog.New(slog.DiscardHandler), now: time.Now}
	for _, opt := range opts {
		opt(b)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if _, err := db.ExecContext(ctx, createStateTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure entity_state table: %w", err)
	}
	return b, nil
}

// LoadInitial returns the snapshot of entity. A missing row is created from
// the seed.
func (b *Backend) LoadInitial(ctx context.Context, entity types.Entity) ([]types.Record, error) {
	var payload []byte
	err := b.db.QueryRowContext(ctx, selectState, string(entity)).Scan(&payload)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return b.seedEntity(ctx, entity)
	case err != nil:
		return nil, fmt.Errorf("select %s state: %w", entity, err)
	}

	var records []types.Record
	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &records); err != nil {
			return nil, fmt.Errorf("decode %s state: %w", entity, err)
		}
	}
	b.logger.Debug("entity loaded", "entity", string(entity), "records", len(records))
	return records, nil
}

// Persist replaces the snapshot row of the mutated entity.
func (b *Backend) Persist(ctx context.Context, m types.Mutation) error {
	if err := b.write(ctx, m.Entity, m.Records); err != nil {
		return err
	}
	b.logger.Debug("mutation persisted", "entity", string(m.Entity), "kind", string(m.Kind), "ids", m.IDs)
	return nil
}

// Ping checks the connection.
func (b *Backend) Ping(ctx context.Context) error { return b.db.PingContext(ctx) }

// Close closes the database handle.
func (b *Backend) Close() error { return b.db.Close() }

func (b *Backend) seedEntity(ctx context.Context, entity types.Entity) ([]types.Record, error) {
	var records []types.Record
	if b.seed != nil {
		seeded, err := b.seed(entity)
		if err != nil {
			return nil, fmt.Errorf("seeding %s: %w", entity, err)
		}
		records = seeded
	}
	if err := b.write(ctx, entity, records); err != nil {
		return nil, err
	}
	b.logger.Info("entity seeded", "entity", string(entity), "records", len(records))
	return records, nil
}

func (b *Backend) write(ctx context.Context, entity types.Entity, records []types.Record) error {
	if records == nil {
		records = []types.Record{}
	}
	data, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("encode %s state: %w", entity, err)
	}
	if _, err := b.db.ExecContext(ctx, upsertState, string(entity), data, b.now().UTC()); err != nil {
		return fmt.Errorf("upsert %s state: %w", entity, err)
	}
	return nil
}

// OverrideSQLOpen swaps the sql.Open used by Open and returns a restore
// function. Tests use it to inject sqlmock connections.
func OverrideSQLOpen(fn func(driverName, dsn string) (*sql.DB, error)) func() {
	openMu.Lock()
	prev := sqlOpen
	sqlOpen = fn
	openMu.Unlock()
	return func() {
		openMu.Lock()
		sqlOpen = prev
		openMu.Unlock()
	}
}
