// Package catalog holds the demo records every store starts from when its
// persistence backend has nothing yet.
package catalog

import (
	_ "embed"
	"fmt"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/backoffice/pkg/types"
)

//go:embed seed.yaml
var seedYAML []byte

var (
	once    sync.Once
	parsed  map[types.Entity][]types.Record
	errSeed error
)

// Seed returns a fresh copy of the demo records of entity. Unknown entities
// return ErrUnknownEntity; known entities without demo data return nil.
func Seed(entity types.Entity) ([]types.Record, error) {
	if _, err := types.LookupSchema(entity); err != nil {
		return nil, err
	}
	once.Do(func() { parsed, errSeed = parse(seedYAML) })
	if errSeed != nil {
		return nil, errSeed
	}
	src := parsed[entity]
	if src == nil {
		return nil, nil
	}
	out := make([]types.Record, len(src))
	for i, r := range src {
		out[i] = r.Clone()
	}
	return out, nil
}

func parse(data []byte) (map[types.Entity][]types.Record, error) {
	var raw map[string][]map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decoding seed catalog: %w", err)
	}
	out := make(map[types.Entity][]types.Record, len(raw))
	for name, rows := range raw {
		entity := types.Entity(name)
		if _, err := types.LookupSchema(entity); err != nil {
			return nil, fmt.Errorf("seed catalog: %w", err)
		}
		records := make([]types.Record, 0, len(rows))
		for i, row := range rows {
			rec, err := types.RecordFromMap(row)
			if err != nil {
				return nil, fmt.Errorf("seed catalog %s[%d]: %w", name, i, err)
			}
			records = append(records, rec)
		}
		out[entity] = records
	}
	return out, nil
}
