package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/backoffice/internal/store"
	"github.com/mesh-intelligence/backoffice/pkg/types"
)

var facetSchema = types.Schema{
	Entity:     "things",
	Searchable: []string{"name"},
	Facets:     []string{"cat", "sub"},
}

func ids(records []types.Record) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.ID
	}
	return out
}

func TestFacetANDSemantics(t *testing.T) {
	records := []types.Record{
		types.NewRecord("1", map[string]any{"cat": "A", "sub": "X"}),
		types.NewRecord("2", map[string]any{"cat": "A", "sub": "Y"}),
		types.NewRecord("3", map[string]any{"cat": "B", "sub": "X"}),
	}

	got := Filter(records, facetSchema, types.FilterState{
		Facets: map[string]string{"cat": "A", "sub": "X"},
	})
	assert.Equal(t, []string{"1"}, ids(got))
}

func TestFacetSentinelAndMissingFields(t *testing.T) {
	records := []types.Record{
		types.NewRecord("1", map[string]any{"cat": "A"}),
		types.NewRecord("2", map[string]any{}),
		types.NewRecord("3", map[string]any{"cat": nil}),
		types.NewRecord("4", map[string]any{"cat": []any{"A"}}),
	}

	tests := []struct {
		name      string
		selection string
		want      []string
	}{
		{name: "all label is unconstrained", selection: "All Cats", want: []string{"1", "2", "3", "4"}},
		{name: "empty is unconstrained", selection: "", want: []string{"1", "2", "3", "4"}},
		{name: "missing, nil and list values fail a constraint", selection: "A", want: []string{"1"}},
		{name: "equality is strict", selection: "a", want: []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Filter(records, facetSchema, types.FilterState{Facets: map[string]string{"cat": tt.selection}})
			assert.Equal(t, tt.want, ids(got))
		})
	}
}

func TestAllPrefixedValueIsStillAValue(t *testing.T) {
	schema := types.Schema{Entity: types.EntityNotifications, Searchable: []string{"title"}, Facets: []string{"audience"}}
	records := []types.Record{
		types.NewRecord("1", map[string]any{"title": "Spring Sale Live", "audience": "All Customers"}),
		types.NewRecord("2", map[string]any{"title": "Order Delayed", "audience": "Recent Buyers"}),
	}

	tests := []struct {
		selection string
		want      []string
	}{
		{"All Customers", []string{"1"}},
		{"Recent Buyers", []string{"2"}},
		{"All Audiences", []string{"1", "2"}},
		{"all", []string{"1", "2"}},
	}
	for _, tt := range tests {
		t.Run(tt.selection, func(t *testing.T) {
			got := Filter(records, schema, types.FilterState{Facets: map[string]string{"audience": tt.selection}})
			assert.Equal(t, tt.want, ids(got))
		})
	}
}

func TestNumericFacetMatchesCanonicalText(t *testing.T) {
	schema := types.Schema{Entity: types.EntityReviews, Searchable: []string{"comment"}, Facets: []string{"rating"}}
	records := []types.Record{
		types.NewRecord("1", map[string]any{"rating": 5}),
		types.NewRecord("2", map[string]any{"rating": 3}),
	}
	got := Filter(records, schema, types.FilterState{Facets: map[string]string{"rating": "5"}})
	assert.Equal(t, []string{"1"}, ids(got))
}

func TestSearchIsCaseInsensitiveAcrossFields(t *testing.T) {
	schema := types.Schema{Searchable: []string{"title", "category"}}
	records := []types.Record{
		types.NewRecord("1", map[string]any{"title": "Running Shoe", "category": "Footwear"}),
		types.NewRecord("2", map[string]any{"title": "Cap", "category": "Accessories"}),
		types.NewRecord("3", map[string]any{"title": "Sock"}),
	}

	assert.Equal(t, []string{"1"}, ids(Filter(records, schema, types.FilterState{Search: "FOOT"})))
	assert.Equal(t, []string{"1", "2", "3"}, ids(Filter(records, schema, types.FilterState{Search: "   "})))
	assert.Equal(t, []string{"1"}, ids(Filter(records, schema, types.FilterState{Search: "shoe footwear"})))
	assert.Empty(t, Filter(records, schema, types.FilterState{Search: "hat"}))
}

func TestFilterIsIdempotentAndStable(t *testing.T) {
	schema := types.Schema{Searchable: []string{"title"}, Facets: []string{"status"}}
	records := []types.Record{
		types.NewRecord("9", map[string]any{"title": "blue shirt", "status": "Active"}),
		types.NewRecord("2", map[string]any{"title": "blue hat", "status": "Inactive"}),
		types.NewRecord("5", map[string]any{"title": "blue scarf", "status": "Active"}),
		types.NewRecord("1", map[string]any{"title": "red scarf", "status": "Active"}),
	}
	filter := types.FilterState{Search: "blue", Facets: map[string]string{"status": "Active"}}

	once := Filter(records, schema, filter)
	twice := Filter(once, schema, filter)
	assert.Equal(t, once, twice)
	assert.Equal(t, []string{"9", "5"}, ids(once), "original relative order preserved")
}

func TestOrdersSortByStatusRank(t *testing.T) {
	schema, err := types.LookupSchema(types.EntityOrders)
	require.NoError(t, err)
	records := []types.Record{
		types.NewRecord("1", map[string]any{"customer": "a", "status": "Delivered"}),
		types.NewRecord("2", map[string]any{"customer": "b", "status": "Pending"}),
		types.NewRecord("3", map[string]any{"customer": "c", "status": "Unknown"}),
		types.NewRecord("4", map[string]any{"customer": "d", "status": "Pending"}),
		types.NewRecord("5", map[string]any{"customer": "e", "status": "Shipped"}),
	}

	got := Filter(records, schema, types.FilterState{})
	assert.Equal(t, []string{"2", "4", "5", "1", "3"}, ids(got))
	assert.Equal(t, ids(got), ids(Filter(got, schema, types.FilterState{})))
}

func TestExplicitSortBy(t *testing.T) {
	schema := types.Schema{Searchable: []string{"title"}}
	records := []types.Record{
		types.NewRecord("10", map[string]any{"title": "b", "price": 20}),
		types.NewRecord("2", map[string]any{"title": "a", "price": 5.5}),
		types.NewRecord("3", map[string]any{"title": "C", "price": 100}),
	}

	assert.Equal(t, []string{"2", "10", "3"}, ids(Filter(records, schema, types.FilterState{SortBy: "price"})))
	assert.Equal(t, []string{"2", "10", "3"}, ids(Filter(records, schema, types.FilterState{SortBy: "title"})))
	assert.Equal(t, []string{"2", "3", "10"}, ids(Filter(records, schema, types.FilterState{SortBy: "id"})))
}

func TestFAQSearchScenario(t *testing.T) {
	schema, err := types.LookupSchema(types.EntityFAQs)
	require.NoError(t, err)
	st, err := store.New(types.EntityFAQs, []types.Record{
		types.NewRecord("1", map[string]any{"title": "HOW LONG DOES SHIPPING TAKE?", "detail": "3-5 business days."}),
		types.NewRecord("2", map[string]any{"title": "Can I return an item?", "detail": "Within 30 days."}),
	})
	require.NoError(t, err)

	got := Filter(st.Records(), schema, types.FilterState{Search: "shipping"})
	require.Len(t, got, 1)
	assert.Equal(t, "1", got[0].ID)
}

func TestMatchesSingleRecord(t *testing.T) {
	schema := types.Schema{Searchable: []string{"title"}, Facets: []string{"status"}}
	r := types.NewRecord("1", map[string]any{"title": "Summer Dress", "status": "Inactive"})

	assert.True(t, Matches(r, schema, types.FilterState{Search: "dress"}))
	assert.True(t, Matches(r, schema, types.FilterState{Facets: map[string]string{"status": "All Statuses"}}))
	assert.False(t, Matches(r, schema, types.FilterState{Search: "dress", Facets: map[string]string{"status": "Active"}}))
}
