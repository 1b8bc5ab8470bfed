// Package reorder repositions records within an entity store. Move and Reset
// are pure functions over record slices; Controller applies them through a
// mutation controller so the new order is persisted and announced.
package reorder

import (
	"fmt"
	"sort"

	"github.com/mesh-intelligence/backoffice/pkg/types"
)

// Move removes the record with id and reinserts it at target, where target
// indexes the sequence with the record already removed. When priorityField
// is set, priorities are renumbered 1-based to match the new order.
// Moving a record to its current index returns an unchanged copy.
func Move(records []types.Record, id string, target int, priorityField string) ([]types.Record, error) {
	from := indexOf(records, id)
	if from < 0 {
		return nil, fmt.Errorf("record %q: %w", id, types.ErrNotFound)
	}
	if target < 0 || target >= len(records) {
		return nil, fmt.Errorf("index %d of %d records: %w", target, len(records), types.ErrInvalidPosition)
	}

	out := cloneAll(records)
	if from == target {
		return out, nil
	}

	moved := out[from]
	rest := append(out[:from:from], out[from+1:]...)
	next := make([]types.Record, 0, len(out))
	next = append(next, rest[:target]...)
	next = append(next, moved)
	next = append(next, rest[target:]...)
	Renumber(next, priorityField)
	return next, nil
}

// Reset orders records ascending by id and renumbers priorities.
func Reset(records []types.Record, priorityField string) []types.Record {
	out := cloneAll(records)
	sort.SliceStable(out, func(i, j int) bool {
		return types.CompareIDs(out[i].ID, out[j].ID) < 0
	})
	Renumber(out, priorityField)
	return out
}

// Renumber sets field to i+1 on records[i]. An empty field is a no-op.
func Renumber(records []types.Record, field string) {
	if field == "" {
		return
	}
	for i := range records {
		if records[i].Fields == nil {
			records[i].Fields = make(map[string]any)
		}
		records[i].Fields[field] = int64(i + 1)
	}
}

func indexOf(records []types.Record, id string) int {
	for i, r := range records {
		if r.ID == id {
			return i
		}
	}
	return -1
}

func cloneAll(records []types.Record) []types.Record {
	out := make([]types.Record, len(records))
	for i, r := range records {
		out[i] = r.Clone()
	}
	return out
}
