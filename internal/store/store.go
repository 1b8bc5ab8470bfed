// Package store implements the in-memory entity store: an ordered sequence of
// records of one entity with unique IDs. Reads hand out deep copies, and every
// write bumps a version so derived views know when to recompute.
package store

import (
	"fmt"
	"strings"

	"github.com/mesh-intelligence/backoffice/pkg/types"
)

// Store is the ordered record collection of one entity. It is owned by a
// single page and is not safe for concurrent use.
type Store struct {
	entity  types.Entity
	records []types.Record
	index   map[string]int
	version uint64
}

// New builds a store from seed records, copying them.
// Returns ErrInvalidID for a blank id and ErrDuplicateID for a repeated one.
func New(entity types.Entity, seed []types.Record) (*Store, error) {
	s := &Store{entity: entity}
	if err := s.load(seed); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) load(records []types.Record) error {
	index := make(map[string]int, len(records))
	copied := make([]types.Record, len(records))
	for i, r := range records {
		if strings.TrimSpace(r.ID) == "" {
			return fmt.Errorf("%s record %d: %w", s.entity, i, types.ErrInvalidID)
		}
		if _, dup := index[r.ID]; dup {
			return fmt.Errorf("%s record %q: %w", s.entity, r.ID, types.ErrDuplicateID)
		}
		index[r.ID] = i
		copied[i] = r.Clone()
	}
	s.records = copied
	s.index = index
	return nil
}

// Entity returns the entity the store holds.
func (s *Store) Entity() types.Entity { return s.entity }

// Version increases on every successful write.
func (s *Store) Version() uint64 { return s.version }

// Len returns the number of records.
func (s *Store) Len() int { return len(s.records) }

// Has reports whether a record with id exists.
func (s *Store) Has(id string) bool {
	_, ok := s.index[id]
	return ok
}

// IndexOf returns the position of id, or -1.
func (s *Store) IndexOf(id string) int {
	if i, ok := s.index[id]; ok {
		return i
	}
	return -1
}

// Get returns a copy of the record with id.
func (s *Store) Get(id string) (types.Record, error) {
	i, ok := s.index[id]
	if !ok {
		return types.Record{}, fmt.Errorf("%s %q: %w", s.entity, id, types.ErrNotFound)
	}
	return s.records[i].Clone(), nil
}

// Records returns copies of all records in order.
func (s *Store) Records() []types.Record {
	out := make([]types.Record, len(s.records))
	for i, r := range s.records {
		out[i] = r.Clone()
	}
	return out
}

// IDs returns the record ids in order.
func (s *Store) IDs() []string {
	out := make([]string, len(s.records))
	for i, r := range s.records {
		out[i] = r.ID
	}
	return out
}

// Insert adds rec at the start or end of the store.
func (s *Store) Insert(rec types.Record, pos types.Position) error {
	if strings.TrimSpace(rec.ID) == "" {
		return types.ErrInvalidID
	}
	if s.Has(rec.ID) {
		return fmt.Errorf("%s %q: %w", s.entity, rec.ID, types.ErrDuplicateID)
	}
	rec = rec.Clone()
	if pos == types.Prepend {
		s.records = append([]types.Record{rec}, s.records...)
	} else {
		s.records = append(s.records, rec)
	}
	s.reindex()
	s.version++
	return nil
}

// Replace swaps the stored record that has rec.ID, keeping its position.
func (s *Store) Replace(rec types.Record) error {
	i, ok := s.index[rec.ID]
	if !ok {
		return fmt.Errorf("%s %q: %w", s.entity, rec.ID, types.ErrNotFound)
	}
	s.records[i] = rec.Clone()
	s.version++
	return nil
}

// Delete removes the record with id and returns it.
func (s *Store) Delete(id string) (types.Record, error) {
	i, ok := s.index[id]
	if !ok {
		return types.Record{}, fmt.Errorf("%s %q: %w", s.entity, id, types.ErrNotFound)
	}
	removed := s.records[i]
	s.records = append(s.records[:i:i], s.records[i+1:]...)
	s.reindex()
	s.version++
	return removed, nil
}

// Reset replaces the whole ordered content. The same uniqueness rules as New
// apply; on error the store is left unchanged.
func (s *Store) Reset(records []types.Record) error {
	prev, prevIndex := s.records, s.index
	if err := s.load(records); err != nil {
		s.records, s.index = prev, prevIndex
		return err
	}
	s.version++
	return nil
}

// Clone returns an independent copy of the store with the same version.
func (s *Store) Clone() *Store {
	c := &Store{entity: s.entity, version: s.version}
	_ = c.load(s.records)
	return c
}

func (s *Store) reindex() {
	index := make(map[string]int, len(s.records))
	for i, r := range s.records {
		index[r.ID] = i
	}
	s.index = index
}

// Renumber sets field to the 1-based position of every record. It reports
// whether any value changed; the version only moves when one did.
func (s *Store) Renumber(field string) bool {
	if field == "" {
		return false
	}
	changed := false
	for i := range s.records {
		want := int64(i + 1)
		if got, ok := s.records[i].Fields[field].(int64); ok && got == want {
			continue
		}
		if s.records[i].Fields == nil {
			s.records[i].Fields = make(map[string]any)
		}
		s.records[i].Fields[field] = want
		changed = true
	}
	if changed {
		s.version++
	}
	return changed
}
