package query

import "github.com/mesh-intelligence/backoffice/pkg/types"

// Source is the part of an entity store a View reads.
type Source interface {
	Version() uint64
	Records() []types.Record
}

// View memoizes Filter for one source. It recomputes only when the source
// version or the filter key changes.
type View struct {
	schema types.Schema

	valid   bool
	version uint64
	key     string
	result  []types.Record

	computations int
}

// NewView returns an empty view for schema.
func NewView(schema types.Schema) *View {
	return &View{schema: schema}
}

// Compute returns the filtered records of src, reusing the previous result
// when nothing it depends on changed. Callers must not modify the result.
func (v *View) Compute(src Source, filter types.FilterState) []types.Record {
	key := filter.Key()
	if v.valid && v.version == src.Version() && v.key == key {
		return v.result
	}
	v.result = Filter(src.Records(), v.schema, filter)
	v.version = src.Version()
	v.key = key
	v.valid = true
	v.computations++
	return v.result
}

// IDs returns the ids of the last computed result.
func (v *View) IDs() []string {
	out := make([]string, len(v.result))
	for i, r := range v.result {
		out[i] = r.ID
	}
	return out
}

// Computations reports how many times the view recomputed.
func (v *View) Computations() int { return v.computations }

// Invalidate forces the next Compute to recompute.
func (v *View) Invalidate() { v.valid = false }
