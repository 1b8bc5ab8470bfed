package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ettle/strcase"
)

// parseAssignments turns key=value arguments into a field map. Values that
// parse as JSON keep their structure; anything else is a plain string. Keys
// are normalized to snake_case so --field imageUrl=... sets image_url.
func parseAssignments(args []string) (map[string]any, error) {
	out := make(map[string]any, len(args))
	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid assignment %q (expected key=value)", arg)
		}
		out[strcase.ToSnake(key)] = parseValue(value)
	}
	return out, nil
}

func parseValue(s string) any {
	dec := json.NewDecoder(bytes.NewReader([]byte(s)))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil || dec.More() {
		return s
	}
	return v
}

// parseFacets turns name=value arguments into facet selections.
func parseFacets(args []string) (map[string]string, error) {
	if len(args) == 0 {
		return nil, nil
	}
	out := make(map[string]string, len(args))
	for _, arg := range args {
		name, value, ok := strings.Cut(arg, "=")
		if !ok || strings.TrimSpace(name) == "" {
			return nil, fmt.Errorf("invalid facet %q (expected name=value)", arg)
		}
		out[strcase.ToSnake(strings.TrimSpace(name))] = value
	}
	return out, nil
}
