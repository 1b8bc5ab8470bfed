// Package validation checks drafts and patches against an entity schema:
// required fields must be non-blank and field values must satisfy the
// schema's JSON-schema property types.
package validation

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/mesh-intelligence/backoffice/pkg/types"
)

// Validator compiles entity schemas once and validates field maps.
type Validator struct {
	mu       sync.RWMutex
	compiled map[types.Entity]*jsonschema.Schema
}

// New returns an empty validator.
func New() *Validator {
	return &Validator{compiled: make(map[types.Entity]*jsonschema.Schema)}
}

// Create validates a complete draft: every required field must be present
// and non-blank.
func (v *Validator) Create(schema types.Schema, draft map[string]any) error {
	return v.check(schema, draft, schema.Required)
}

// Update validates a partial patch applied to current: required fields the
// patch touches must stay non-blank, and the merged record must type-check.
func (v *Validator) Update(schema types.Schema, current, patch map[string]any) error {
	var touched []string
	for _, f := range schema.Required {
		if _, ok := patch[f]; ok {
			touched = append(touched, f)
		}
	}
	merged := make(map[string]any, len(current)+len(patch))
	for k, val := range current {
		merged[k] = val
	}
	for k, val := range patch {
		merged[k] = val
	}
	return v.check(schema, merged, touched)
}

func (v *Validator) check(schema types.Schema, fields map[string]any, required []string) error {
	var blank []string
	for _, f := range required {
		if types.IsBlank(fields[f]) {
			blank = append(blank, f)
		}
	}
	if len(blank) > 0 {
		return &types.ValidationError{
			Entity: schema.Entity,
			Fields: blank,
			Reason: "required",
		}
	}
	return v.checkTypes(schema, fields)
}

func (v *Validator) checkTypes(schema types.Schema, fields map[string]any) error {
	if len(schema.Properties) == 0 {
		return nil
	}
	compiled, err := v.schemaFor(schema)
	if err != nil {
		return err
	}
	payload, err := normalize(fields)
	if err != nil {
		return fmt.Errorf("validation: normalize %s fields: %w", schema.Entity, err)
	}
	if err := compiled.Validate(payload); err != nil {
		return &types.ValidationError{
			Entity: schema.Entity,
			Fields: failedFields(err),
			Reason: "invalid value",
			Cause:  err,
		}
	}
	return nil
}

func (v *Validator) schemaFor(schema types.Schema) (*jsonschema.Schema, error) {
	v.mu.RLock()
	compiled, ok := v.compiled[schema.Entity]
	v.mu.RUnlock()
	if ok {
		return compiled, nil
	}
	data, err := json.Marshal(schema.JSONSchema())
	if err != nil {
		return nil, fmt.Errorf("validation: marshal schema %s: %w", schema.Entity, err)
	}
	compiler := jsonschema.NewCompiler()
	name := string(schema.Entity) + ".json"
	if err := compiler.AddResource(name, bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("validation: load schema %s: %w", schema.Entity, err)
	}
	compiled, err = compiler.Compile(name)
	if err != nil {
		return nil, fmt.Errorf("validation: compile schema %s: %w", schema.Entity, err)
	}
	v.mu.Lock()
	v.compiled[schema.Entity] = compiled
	v.mu.Unlock()
	return compiled, nil
}

// normalize round-trips fields through JSON so the validator sees the same
// shapes it would see from a request body.
func normalize(fields map[string]any) (any, error) {
	data, err := json.Marshal(fields)
	if err != nil {
		return nil, err
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var out any
	if err := dec.Decode(&out); err != nil {
		return nil, err
	}
	return out, nil
}

// failedFields extracts the top-level property names from a validation error.
func failedFields(err error) []string {
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return nil
	}
	set := make(map[string]struct{})
	var walk func(*jsonschema.ValidationError)
	walk = func(e *jsonschema.ValidationError) {
		if len(e.Causes) == 0 {
			loc := strings.TrimPrefix(e.InstanceLocation, "/")
			if loc != "" {
				set[strings.SplitN(loc, "/", 2)[0]] = struct{}{}
			}
		}
		for _, c := range e.Causes {
			walk(c)
		}
	}
	walk(ve)
	out := make([]string, 0, len(set))
	for f := range set {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}
