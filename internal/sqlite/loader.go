package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/mesh-intelligence/backoffice/pkg/types"
)

// decodeRecords turns JSONL lines into records in file order. Lines that
// are not objects with a usable id, or repeat an id already seen, are
// skipped and logged.
func decodeRecords(lines []json.RawMessage, logger *slog.Logger) []types.Record {
	records := make([]types.Record, 0, len(lines))
	seen := make(map[string]bool, len(lines))
	for i, line := range lines {
		var rec types.Record
		if err := json.Unmarshal(line, &rec); err != nil {
			logger.Warn("skipping malformed record", "line", i+1, "error", err)
			continue
		}
		if seen[rec.ID] {
			logger.Warn("skipping duplicate record", "line", i+1, "id", rec.ID)
			continue
		}
		seen[rec.ID] = true
		records = append(records, rec)
	}
	return records
}

// replaceEntity swaps the cached rows of entity for records inside tx.
func replaceEntity(ctx context.Context, tx *sql.Tx, entity types.Entity, records []types.Record) error {
	if _, err := tx.ExecContext(ctx, "DELETE FROM records WHERE entity = ?", string(entity)); err != nil {
		return fmt.Errorf("clearing %s: %w", entity, err)
	}
	stmt, err := tx.PrepareContext(ctx, "INSERT INTO records (entity, id, position, payload) VALUES (?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for i, r := range records {
		payload, err := json.Marshal(r)
		if err != nil {
			return fmt.Errorf("encoding %s %s: %w", entity, r.ID, err)
		}
		if _, err := stmt.ExecContext(ctx, string(entity), r.ID, i, string(payload)); err != nil {
			return fmt.Errorf("inserting %s %s: %w", entity, r.ID, err)
		}
	}
	return nil
}

func fileExists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return false, err
}
