// Package sqlite persists entity stores as JSONL files with a SQLite query
// cache. Each entity has one <entity>.jsonl file in the data directory; the
// file is the source of truth and is rewritten atomically on every mutation.
// backoffice.db is rebuilt from the files the first time an entity is loaded
// after open, and every read is served from it.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite"

	"github.com/mesh-intelligence/backoffice/pkg/types"
)

// Backend implements types.Persister on a data directory.
type Backend struct {
	mu      sync.Mutex
	dataDir string
	db      *sql.DB
	seed    types.SeedFunc
	logger  *slog.Logger
	closed  bool

	// loaded marks entities whose cache rows were built from JSONL.
	loaded map[types.Entity]bool
}

// commitTx commits a cache transaction. Tests replace it to simulate a
// failing commit.
var commitTx = (*sql.Tx).Commit

// Option configures a Backend.
type Option func(*Backend)

// WithSeed sets the seed used for entities without a JSONL file. Without
// one, such entities start empty.
func WithSeed(f types.SeedFunc) Option {
	return func(b *Backend) { b.seed = f }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(b *Backend) { b.logger = l }
}

// Open creates dataDir if needed and builds a fresh query cache in it.
func Open(dataDir string, opts ...Option) (*Backend, error) {
	if dataDir == "" {
		dataDir = "."
	}
	b := &Backend{
		dataDir: dataDir,
		logger:  slog.New(slog.DiscardHandler),
		loaded:  make(map[types.Entity]bool),
	}
	for _, opt := range opts {
		opt(b)
	}

	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data dir: %w", err)
	}

	dbPath := filepath.Join(dataDir, dbFile)
	// The cache is derived state; start from an empty file every time.
	_ = os.Remove(dbPath)

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", dbPath, err)
	}
	db.SetMaxOpenConns(1)

	for _, ddl := range schemaDDL {
		if _, err := db.Exec(ddl); err != nil {
			db.Close()
			return nil, fmt.Errorf("creating schema: %w", err)
		}
	}

	b.db = db
	b.logger.Debug("sqlite backend opened", "data_dir", dataDir)
	return b, nil
}

// DataDir returns the directory holding the JSONL files.
func (b *Backend) DataDir() string { return b.dataDir }

// LoadInitial returns the records of entity from the cache. The first load
// after open rebuilds the cache rows from <entity>.jsonl, creating a missing
// file from the seed.
func (b *Backend) LoadInitial(ctx context.Context, entity types.Entity) ([]types.Record, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil, types.ErrBackendClosed
	}

	if !b.loaded[entity] {
		if err := b.rebuild(ctx, entity); err != nil {
			return nil, err
		}
		b.loaded[entity] = true
	}

	records, err := b.records(ctx, entity)
	if err != nil {
		return nil, err
	}
	b.logger.Debug("entity loaded", "entity", string(entity), "records", len(records))
	return records, nil
}

// Persist writes the mutation's snapshot to the cache and the JSONL file.
// The file is written inside the cache transaction; if the commit fails the
// previous file content is put back, so file and cache never disagree.
func (b *Backend) Persist(ctx context.Context, m types.Mutation) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return types.ErrBackendClosed
	}

	lines, err := encodeRecords(m.Records)
	if err != nil {
		return err
	}
	path := filepath.Join(b.dataDir, jsonlFile(m.Entity))
	prev, err := os.ReadFile(path)
	hadFile := err == nil
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("reading %s: %w", jsonlFile(m.Entity), err)
	}

	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning persist transaction: %w", err)
	}
	defer tx.Rollback()

	if err := replaceEntity(ctx, tx, m.Entity, m.Records); err != nil {
		return err
	}
	if err := writeJSONL(path, lines); err != nil {
		return fmt.Errorf("writing %s: %w", jsonlFile(m.Entity), err)
	}
	if err := commitTx(tx); err != nil {
		if rerr := restoreFile(path, prev, hadFile); rerr != nil {
			b.logger.Error("restoring jsonl failed", "entity", string(m.Entity), "error", rerr)
		}
		return fmt.Errorf("committing persist transaction: %w", err)
	}
	b.loaded[m.Entity] = true

	b.logger.Debug("mutation persisted", "entity", string(m.Entity), "kind", string(m.Kind), "ids", m.IDs, "records", len(m.Records))
	return nil
}

func restoreFile(path string, prev []byte, existed bool) error {
	if !existed {
		return os.Remove(path)
	}
	return writeFileAtomic(path, prev)
}

// records returns the cached records of entity in stored order.
func (b *Backend) records(ctx context.Context, entity types.Entity) ([]types.Record, error) {
	rows, err := b.db.QueryContext(ctx,
		"SELECT payload FROM records WHERE entity = ? ORDER BY position ASC", string(entity))
	if err != nil {
		return nil, fmt.Errorf("querying %s: %w", entity, err)
	}
	defer rows.Close()

	records := []types.Record{}
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scanning %s: %w", entity, err)
		}
		var rec types.Record
		if err := json.Unmarshal([]byte(payload), &rec); err != nil {
			return nil, fmt.Errorf("decoding %s: %w", entity, err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Ping checks the cache connection.
func (b *Backend) Ping(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return types.ErrBackendClosed
	}
	return b.db.PingContext(ctx)
}

// Close releases the cache. Close is idempotent.
func (b *Backend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	return b.db.Close()
}

// rebuild replaces the cache rows of entity with the content of its JSONL
// file.
func (b *Backend) rebuild(ctx context.Context, entity types.Entity) error {
	path := filepath.Join(b.dataDir, jsonlFile(entity))
	ok, err := fileExists(path)
	if err != nil {
		return fmt.Errorf("checking %s: %w", path, err)
	}
	if !ok {
		if err := b.seedFile(entity, path); err != nil {
			return err
		}
	}

	lines, err := readJSONL(path)
	if err != nil {
		return err
	}
	records := decodeRecords(lines, b.logger.With("entity", string(entity)))

	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning load transaction: %w", err)
	}
	defer tx.Rollback()

	if err := replaceEntity(ctx, tx, entity, records); err != nil {
		return fmt.Errorf("loading %s: %w", jsonlFile(entity), err)
	}
	if err := commitTx(tx); err != nil {
		return fmt.Errorf("committing load transaction: %w", err)
	}
	return nil
}
