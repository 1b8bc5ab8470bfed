// Package query derives filtered, sorted views of an entity store.
package query

import (
	"sort"
	"strings"

	"github.com/mesh-intelligence/backoffice/pkg/types"
)

// Filter returns the records that match the search text and every facet
// selection, in their original order unless a sort applies. The input is not
// modified.
func Filter(records []types.Record, schema types.Schema, filter types.FilterState) []types.Record {
	out := make([]types.Record, 0, len(records))
	for _, r := range records {
		if Matches(r, schema, filter) {
			out = append(out, r)
		}
	}
	sortRecords(out, schema, filter.SortBy)
	return out
}

// Matches reports whether a single record passes the filter.
func Matches(r types.Record, schema types.Schema, filter types.FilterState) bool {
	needle := strings.ToLower(strings.TrimSpace(filter.Search))
	return matchesSearch(r, schema.Searchable, needle) && matchesFacets(r, filter.Facets)
}

func matchesSearch(r types.Record, fields []string, needle string) bool {
	if needle == "" {
		return true
	}
	parts := make([]string, len(fields))
	for i, f := range fields {
		parts[i] = r.Text(f)
	}
	return strings.Contains(strings.ToLower(strings.Join(parts, " ")), needle)
}

func matchesFacets(r types.Record, facets map[string]string) bool {
	for field, selected := range facets {
		if types.IsUnconstrained(field, selected) {
			continue
		}
		v, ok := r.Get(field)
		if !ok {
			return false
		}
		text, ok := types.ScalarText(v)
		if !ok || text != selected {
			return false
		}
	}
	return true
}

// sortRecords applies sortBy, or the schema's default sort when sortBy is
// empty. The sort is stable.
func sortRecords(records []types.Record, schema types.Schema, sortBy string) {
	field := sortBy
	if field == "" {
		field = schema.SortField
	}
	if field == "" {
		return
	}
	if field == schema.SortField && len(schema.SortOrder) > 0 {
		rank := make(map[string]int, len(schema.SortOrder))
		for i, v := range schema.SortOrder {
			rank[v] = i
		}
		key := func(r types.Record) int {
			if i, ok := rank[r.Text(field)]; ok {
				return i
			}
			return len(rank)
		}
		sort.SliceStable(records, func(i, j int) bool {
			return key(records[i]) < key(records[j])
		})
		return
	}
	sort.SliceStable(records, func(i, j int) bool {
		return compareValues(records[i], records[j], field) < 0
	})
}

func compareValues(a, b types.Record, field string) int {
	if field == types.FieldID {
		return types.CompareIDs(a.ID, b.ID)
	}
	av, _ := a.Get(field)
	bv, _ := b.Get(field)
	af, aok := number(av)
	bf, bok := number(bv)
	if aok && bok {
		switch {
		case af < bf:
			return -1
		case af > bf:
			return 1
		}
		return 0
	}
	return strings.Compare(strings.ToLower(types.Text(av)), strings.ToLower(types.Text(bv)))
}

func number(v any) (float64, bool) {
	switch x := types.NormalizeValue(v).(type) {
	case int64:
		return float64(x), true
	case float64:
		return x, true
	}
	return 0, false
}
