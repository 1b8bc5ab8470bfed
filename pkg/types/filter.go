package types

import (
	"sort"
	"strconv"
	"strings"

	"github.com/ettle/strcase"
)

// FacetAll is the canonical unconstrained facet selection.
const FacetAll = "all"

// FilterState is the ephemeral search, facet, and sort state of a list view.
type FilterState struct {
	Search string            `json:"search,omitempty"`
	Facets map[string]string `json:"facets,omitempty"`
	SortBy string            `json:"sort_by,omitempty"`
}

// WithFacet returns a copy of f with the facet selection set.
func (f FilterState) WithFacet(name, value string) FilterState {
	facets := make(map[string]string, len(f.Facets)+1)
	for k, v := range f.Facets {
		facets[k] = v
	}
	facets[name] = value
	f.Facets = facets
	return f
}

// Key returns a deterministic cache key for the filter.
func (f FilterState) Key() string {
	names := make([]string, 0, len(f.Facets))
	for name := range f.Facets {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString(strconv.Quote(strings.ToLower(strings.TrimSpace(f.Search))))
	for _, name := range names {
		v := f.Facets[name]
		if IsUnconstrained(name, v) {
			continue
		}
		b.WriteByte('|')
		b.WriteString(strconv.Quote(name))
		b.WriteByte('=')
		b.WriteString(strconv.Quote(v))
	}
	b.WriteString("|sort=")
	b.WriteString(f.SortBy)
	return b.String()
}

// IsUnconstrained reports whether a facet selection means "any value":
// empty, "all", or an "All <facet>" label naming the facet itself, such as
// "All Categories" for category. Other "All ..." values are real values.
func IsUnconstrained(facet, selection string) bool {
	s := strings.ToLower(strings.TrimSpace(selection))
	if s == "" || s == FacetAll {
		return true
	}
	rest, ok := strings.CutPrefix(s, FacetAll+" ")
	if !ok {
		return false
	}
	label := strcase.ToSnake(strings.TrimSpace(rest))
	facet = strcase.ToSnake(facet)
	for _, form := range singulars(label) {
		if form == facet {
			return true
		}
	}
	return false
}

// singulars returns label with the common English plural endings removed.
func singulars(label string) []string {
	forms := []string{label}
	if stem, ok := strings.CutSuffix(label, "ies"); ok {
		forms = append(forms, stem+"y")
	}
	if stem, ok := strings.CutSuffix(label, "es"); ok {
		forms = append(forms, stem)
	}
	if stem, ok := strings.CutSuffix(label, "s"); ok {
		forms = append(forms, stem)
	}
	return forms
}
