// Package selection tracks which records are selected for bulk operations.
package selection

import (
	"sort"

	"github.com/mesh-intelligence/backoffice/pkg/types"
)

// Tracker is a set of selected record ids.
type Tracker struct {
	ids map[string]struct{}
}

// New returns an empty tracker.
func New() *Tracker {
	return &Tracker{ids: make(map[string]struct{})}
}

// Toggle adds id when absent and removes it when present.
func (t *Tracker) Toggle(id string) {
	if _, ok := t.ids[id]; ok {
		delete(t.ids, id)
		return
	}
	t.ids[id] = struct{}{}
}

// SelectAll selects exactly visible, or clears the selection when it already
// equals visible as a set.
func (t *Tracker) SelectAll(visible []string) {
	want := make(map[string]struct{}, len(visible))
	for _, id := range visible {
		want[id] = struct{}{}
	}
	if sameSet(t.ids, want) {
		t.ids = make(map[string]struct{})
		return
	}
	t.ids = want
}

// Clear empties the selection.
func (t *Tracker) Clear() {
	t.ids = make(map[string]struct{})
}

// Drop removes ids from the selection. It is the removal hook wired to the
// mutation controller.
func (t *Tracker) Drop(ids ...string) {
	for _, id := range ids {
		delete(t.ids, id)
	}
}

// Prune keeps only ids that still exist.
func (t *Tracker) Prune(existing []string) {
	keep := make(map[string]struct{}, len(existing))
	for _, id := range existing {
		keep[id] = struct{}{}
	}
	for id := range t.ids {
		if _, ok := keep[id]; !ok {
			delete(t.ids, id)
		}
	}
}

// Has reports whether id is selected.
func (t *Tracker) Has(id string) bool {
	_, ok := t.ids[id]
	return ok
}

// Len returns the number of selected ids.
func (t *Tracker) Len() int { return len(t.ids) }

// IDs returns the selected ids in id order.
func (t *Tracker) IDs() []string {
	out := make([]string, 0, len(t.ids))
	for id := range t.ids {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool {
		return types.CompareIDs(out[i], out[j]) < 0
	})
	return out
}

func sameSet(a, b map[string]struct{}) bool {
	if len(a) != len(b) {
		return false
	}
	for id := range a {
		if _, ok := b[id]; !ok {
			return false
		}
	}
	return true
}
