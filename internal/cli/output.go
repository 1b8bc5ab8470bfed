package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"

	"github.com/mesh-intelligence/backoffice/internal/mutation"
	"github.com/mesh-intelligence/backoffice/pkg/types"
)

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	return nil
}

// columns returns the fields shown for an entity in text mode.
func columns(schema types.Schema) []string {
	seen := map[string]bool{types.FieldID: true}
	cols := []string{types.FieldID}
	add := func(fields ...string) {
		for _, f := range fields {
			if f != "" && !seen[f] {
				seen[f] = true
				cols = append(cols, f)
			}
		}
	}
	add(schema.Searchable...)
	add(schema.Facets...)
	add(schema.SortField, schema.PriorityField)
	return cols
}

// writeRecords prints records as a JSON array or an aligned table.
func writeRecords(w io.Writer, schema types.Schema, records []types.Record, jsonMode bool) error {
	if jsonMode {
		if records == nil {
			records = []types.Record{}
		}
		return writeJSON(w, records)
	}
	cols := columns(schema)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.ToUpper(strings.Join(cols, "\t")))
	for _, r := range records {
		vals := make([]string, len(cols))
		for i, c := range cols {
			if c == types.FieldID {
				vals[i] = r.ID
				continue
			}
			vals[i] = r.Text(c)
		}
		fmt.Fprintln(tw, strings.Join(vals, "\t"))
	}
	return tw.Flush()
}

// writeRecord prints one record as JSON or as field: value lines.
func writeRecord(w io.Writer, schema types.Schema, r types.Record, jsonMode bool) error {
	if jsonMode {
		return writeJSON(w, r)
	}
	tw := tabwriter.NewWriter(w, 0, 0, 1, ' ', 0)
	fmt.Fprintf(tw, "%s:\t%s\n", types.FieldID, r.ID)
	for _, c := range columns(schema)[1:] {
		if _, ok := r.Get(c); ok {
			fmt.Fprintf(tw, "%s:\t%s\n", c, r.Text(c))
		}
	}
	for _, k := range otherFields(r, columns(schema)) {
		fmt.Fprintf(tw, "%s:\t%s\n", k, r.Text(k))
	}
	return tw.Flush()
}

func otherFields(r types.Record, shown []string) []string {
	skip := make(map[string]bool, len(shown))
	for _, s := range shown {
		skip[s] = true
	}
	var out []string
	for k := range r.Fields {
		if !skip[k] {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}

var (
	okColor   = color.New(color.FgGreen)
	failColor = color.New(color.FgRed)
)

// writeNotifications prints the confirmations collected during a command.
func writeNotifications(w io.Writer, notes []mutation.Notification) {
	for _, n := range notes {
		if n.Kind == mutation.KindFailed {
			fmt.Fprintln(w, failColor.Sprint(n.Message))
			continue
		}
		fmt.Fprintln(w, okColor.Sprint(n.Message))
	}
}
