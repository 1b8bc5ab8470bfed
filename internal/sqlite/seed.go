package sqlite

import (
	"fmt"

	"github.com/mesh-intelligence/backoffice/pkg/types"
)

// seedFile creates the JSONL file of entity from the seed, or empty when the
// backend has no seed.
func (b *Backend) seedFile(entity types.Entity, path string) error {
	var records []types.Record
	if b.seed != nil {
		seeded, err := b.seed(entity)
		if err != nil {
			return fmt.Errorf("seeding %s: %w", entity, err)
		}
		records = seeded
	}
	lines, err := encodeRecords(records)
	if err != nil {
		return err
	}
	if err := writeJSONL(path, lines); err != nil {
		return fmt.Errorf("writing %s: %w", jsonlFile(entity), err)
	}
	b.logger.Info("entity seeded", "entity", string(entity), "records", len(records))
	return nil
}
