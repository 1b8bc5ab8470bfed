package types

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// FieldID is the reserved field name that carries a record's identifier in
// flattened (JSON, YAML, form) representations.
const FieldID = "id"

// Record is one row of an entity store: a unique ID plus an open set of
// named fields. Field values are normalized by NormalizeValue so numbers are
// int64 or float64 and lists are []any.
type Record struct {
	ID     string
	Fields map[string]any
}

// NewRecord builds a record with normalized copies of the given fields.
// An "id" entry in fields is ignored.
func NewRecord(id string, fields map[string]any) Record {
	return Record{ID: id, Fields: NormalizeFields(fields)}
}

// RecordFromMap builds a record from a flattened map whose "id" entry holds
// the identifier. Returns ErrInvalidID when the id is missing or blank.
func RecordFromMap(m map[string]any) (Record, error) {
	raw, ok := m[FieldID]
	if !ok {
		return Record{}, ErrInvalidID
	}
	id, ok := IDString(raw)
	if !ok {
		return Record{}, fmt.Errorf("%w: %v", ErrInvalidID, raw)
	}
	return NewRecord(id, m), nil
}

// IDString converts a raw identifier value (string or integral number) to
// its string form.
func IDString(v any) (string, bool) {
	switch x := NormalizeValue(v).(type) {
	case string:
		s := strings.TrimSpace(x)
		return s, s != ""
	case int64:
		return strconv.FormatInt(x, 10), true
	default:
		return "", false
	}
}

// Get returns the value of a field and whether it is present.
func (r Record) Get(field string) (any, bool) {
	if field == FieldID {
		return r.ID, r.ID != ""
	}
	v, ok := r.Fields[field]
	return v, ok
}

// Text returns the searchable text of a field; missing fields are empty.
func (r Record) Text(field string) string {
	v, _ := r.Get(field)
	return Text(v)
}

// Clone returns a deep copy of the record.
func (r Record) Clone() Record {
	return Record{ID: r.ID, Fields: cloneMap(r.Fields)}
}

// Map returns the flattened representation with the id under "id".
func (r Record) Map() map[string]any {
	m := cloneMap(r.Fields)
	if m == nil {
		m = make(map[string]any, 1)
	}
	m[FieldID] = r.ID
	return m
}

// MarshalJSON writes the record as a flat JSON object.
func (r Record) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.Map())
}

// UnmarshalJSON reads a flat JSON object with an "id" member.
func (r *Record) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var m map[string]any
	if err := dec.Decode(&m); err != nil {
		return err
	}
	rec, err := RecordFromMap(m)
	if err != nil {
		return err
	}
	*r = rec
	return nil
}

// NormalizeFields returns a normalized deep copy of fields without the id key.
func NormalizeFields(fields map[string]any) map[string]any {
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		if k == FieldID {
			continue
		}
		out[k] = NormalizeValue(v)
	}
	return out
}

// NormalizeValue converts decoded values into the canonical field types:
// integral numbers become int64, other numbers float64, lists []any and
// objects map[string]any.
func NormalizeValue(v any) any {
	switch x := v.(type) {
	case nil, string, bool, int64:
		return x
	case int:
		return int64(x)
	case int8:
		return int64(x)
	case int16:
		return int64(x)
	case int32:
		return int64(x)
	case uint:
		return int64(x)
	case uint8:
		return int64(x)
	case uint16:
		return int64(x)
	case uint32:
		return int64(x)
	case uint64:
		if x > math.MaxInt64 {
			return float64(x)
		}
		return int64(x)
	case float32:
		return normalizeFloat(float64(x))
	case float64:
		return normalizeFloat(x)
	case json.Number:
		if i, err := x.Int64(); err == nil {
			return i
		}
		if f, err := x.Float64(); err == nil {
			return normalizeFloat(f)
		}
		return x.String()
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = NormalizeValue(e)
		}
		return out
	case []string:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = e
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, e := range x {
			out[k] = NormalizeValue(e)
		}
		return out
	default:
		return x
	}
}

func normalizeFloat(f float64) any {
	if f == math.Trunc(f) && !math.IsInf(f, 0) && math.Abs(f) < 1<<53 {
		return int64(f)
	}
	return f
}

// Text renders a field value for substring search. Lists are joined with
// spaces, nil renders empty.
func Text(v any) string {
	if s, ok := ScalarText(v); ok {
		return s
	}
	switch x := v.(type) {
	case nil:
		return ""
	case []any:
		parts := make([]string, 0, len(x))
		for _, e := range x {
			parts = append(parts, Text(e))
		}
		return strings.Join(parts, " ")
	case []string:
		return strings.Join(x, " ")
	default:
		return fmt.Sprint(x)
	}
}

// ScalarText returns the canonical text form of a scalar value. It reports
// false for nil, lists, and objects.
func ScalarText(v any) (string, bool) {
	switch x := NormalizeValue(v).(type) {
	case string:
		return x, true
	case bool:
		return strconv.FormatBool(x), true
	case int64:
		return strconv.FormatInt(x, 10), true
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64), true
	default:
		return "", false
	}
}

// IsBlank reports whether a value counts as empty for required fields.
func IsBlank(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(x) == ""
	case []any:
		return len(x) == 0
	case []string:
		return len(x) == 0
	case map[string]any:
		return len(x) == 0
	default:
		return false
	}
}

// CompareIDs orders identifiers: numeric ids compare as numbers and sort
// before non-numeric ones, everything else compares lexicographically.
func CompareIDs(a, b string) int {
	ai, aerr := strconv.ParseInt(a, 10, 64)
	bi, berr := strconv.ParseInt(b, 10, 64)
	switch {
	case aerr == nil && berr == nil:
		switch {
		case ai < bi:
			return -1
		case ai > bi:
			return 1
		}
		return 0
	case aerr == nil:
		return -1
	case berr == nil:
		return 1
	}
	return strings.Compare(a, b)
}

func cloneMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch x := v.(type) {
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = cloneValue(e)
		}
		return out
	case []string:
		return append([]string(nil), x...)
	case map[string]any:
		return cloneMap(x)
	default:
		return x
	}
}
