package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStandardSchemasAreConsistent(t *testing.T) {
	seen := make(map[Entity]bool)
	for _, s := range StandardSchemas {
		t.Run(string(s.Entity), func(t *testing.T) {
			assert.False(t, seen[s.Entity], "duplicate schema")
			seen[s.Entity] = true
			assert.NotEmpty(t, s.Label)
			assert.NotEmpty(t, s.Searchable)
			for _, f := range s.Required {
				assert.NotEqual(t, FieldID, f, "id is assigned, never required")
			}
			if s.Orderable() {
				assert.Contains(t, s.Properties, s.PriorityField)
			}
		})
	}
}

func TestParseEntity(t *testing.T) {
	tests := []struct {
		in   string
		want Entity
	}{
		{"items", EntityItems},
		{"promo_codes", EntityPromoCodes},
		{"promo-codes", EntityPromoCodes},
		{"PromoCodes", EntityPromoCodes},
		{" faqs ", EntityFAQs},
	}
	for _, tt := range tests {
		got, err := ParseEntity(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	_, err := ParseEntity("invoices")
	assert.ErrorIs(t, err, ErrUnknownEntity)
}

func TestParsePosition(t *testing.T) {
	p, err := ParsePosition("", Prepend)
	require.NoError(t, err)
	assert.Equal(t, Prepend, p)

	p, err = ParsePosition("APPEND", Prepend)
	require.NoError(t, err)
	assert.Equal(t, Append, p)

	_, err = ParsePosition("middle", Append)
	assert.ErrorIs(t, err, ErrInvalidPosition)
}

func TestFilterStateKey(t *testing.T) {
	a := FilterState{Search: " Shoes ", Facets: map[string]string{"status": "Active", "category": "All Categories"}}
	b := FilterState{Search: "shoes", Facets: map[string]string{"status": "Active"}}
	c := FilterState{Search: "shoes", Facets: map[string]string{"status": "Inactive"}}

	assert.Equal(t, a.Key(), b.Key(), "unconstrained facets and case do not change the key")
	assert.NotEqual(t, b.Key(), c.Key())
}

func TestIsUnconstrained(t *testing.T) {
	tests := []struct {
		facet     string
		selection string
		want      bool
	}{
		{"category", "", true},
		{"category", "all", true},
		{"category", "All", true},
		{"category", "All Categories", true},
		{"subcategory", "All Subcategories", true},
		{"status", "all status", true},
		{"status", "All Statuses", true},
		{"audience", "All Audiences", true},
		{"placement", "All Placements", true},
		{"audience", "All Customers", false},
		{"category", "All Statuses", false},
		{"category", "Allergy", false},
		{"status", "Active", false},
		{"status", "A", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, IsUnconstrained(tt.facet, tt.selection), "%s=%q", tt.facet, tt.selection)
	}
}
