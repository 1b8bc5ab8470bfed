package types

import (
	"fmt"
	"strings"

	"github.com/ettle/strcase"
)

// Entity names one record collection of the admin dashboard.
type Entity string

// Standard entities, one per list screen.
const (
	EntityItems         Entity = "items"
	EntityOrders        Entity = "orders"
	EntityCategories    Entity = "categories"
	EntitySubcategories Entity = "subcategories"
	EntityFilters       Entity = "filters"
	EntityPromoCodes    Entity = "promo_codes"
	EntityFAQs          Entity = "faqs"
	EntityBanners       Entity = "banners"
	EntityPartners      Entity = "partners"
	EntityReviews       Entity = "reviews"
	EntityNotifications Entity = "notifications"
)

// Position selects where a created record is inserted.
type Position int

const (
	Append Position = iota
	Prepend
)

func (p Position) String() string {
	if p == Prepend {
		return "prepend"
	}
	return "append"
}

// ParsePosition parses "append" or "prepend". An empty string yields def.
func ParsePosition(s string, def Position) (Position, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return def, nil
	case "append", "end", "last":
		return Append, nil
	case "prepend", "start", "first":
		return Prepend, nil
	}
	return def, fmt.Errorf("%w: %q", ErrInvalidPosition, s)
}

// Schema describes how the controllers treat one entity's records.
type Schema struct {
	Entity Entity
	Label  string

	// Searchable fields are concatenated for case-insensitive substring search.
	Searchable []string
	// Facets are categorical fields filtered by exact match.
	Facets []string
	// Required fields must be non-blank on create and update.
	Required []string

	// PriorityField, when set, is kept equal to the 1-based position.
	PriorityField string
	// Insert is the default position for created records.
	Insert Position

	// SortField and SortOrder define the default explicit sort; values are
	// ranked by their index in SortOrder.
	SortField string
	SortOrder []string

	// Properties holds JSON-schema property definitions keyed by field.
	Properties map[string]any
}

// Orderable reports whether the entity tracks an explicit priority.
func (s Schema) Orderable() bool { return s.PriorityField != "" }

// ListPath is the navigation target of the entity's list view.
func (s Schema) ListPath() string { return "/" + string(s.Entity) }

// HasFacet reports whether name is one of the schema's facets.
func (s Schema) HasFacet(name string) bool {
	for _, f := range s.Facets {
		if f == name {
			return true
		}
	}
	return false
}

// JSONSchema returns the draft-07 object schema used for field type checks.
// Required fields are enforced separately so partial patches validate.
func (s Schema) JSONSchema() map[string]any {
	props := make(map[string]any, len(s.Properties))
	for k, v := range s.Properties {
		props[k] = v
	}
	return map[string]any{
		"$schema":    "http://json-schema.org/draft-07/schema#",
		"type":       "object",
		"properties": props,
	}
}

var (
	typeString  = map[string]any{"type": "string"}
	typeURL     = map[string]any{"type": "string", "maxLength": 2048}
	typePrice   = map[string]any{"type": "number", "minimum": 0}
	typeCount   = map[string]any{"type": "integer", "minimum": 0}
	typeRank    = map[string]any{"type": "integer", "minimum": 1}
	typeStrings = map[string]any{"type": "array", "items": map[string]any{"type": "string"}}
	typeStatus  = map[string]any{"type": "string", "enum": []any{"Active", "Inactive"}}
)

var orderStatuses = []string{"Pending", "Processing", "Shipped", "Delivered", "Cancelled"}

// StandardSchemas lists every entity of the dashboard in menu order.
var StandardSchemas = []Schema{
	{
		Entity:     EntityItems,
		Label:      "Items",
		Searchable: []string{"title", "category", "subcategory"},
		Facets:     []string{"category", "subcategory", "status"},
		Required:   []string{"title", "category", "price"},
		Insert:     Prepend,
		Properties: map[string]any{
			"title": typeString, "category": typeString, "subcategory": typeString,
			"price": typePrice, "stock": typeCount, "status": typeStatus, "image": typeURL,
			"description": typeString,
		},
	},
	{
		Entity:     EntityOrders,
		Label:      "Orders",
		Searchable: []string{FieldID, "customer", "email", "item"},
		Facets:     []string{"status"},
		Required:   []string{"customer", "item"},
		Insert:     Prepend,
		SortField:  "status",
		SortOrder:  orderStatuses,
		Properties: map[string]any{
			"customer": typeString, "email": typeString, "item": typeString,
			"quantity": typeCount, "total": typePrice, "date": typeString,
			"status": map[string]any{"type": "string", "enum": toAny(orderStatuses)},
		},
	},
	{
		Entity:        EntityCategories,
		Label:         "Categories",
		Searchable:    []string{"name"},
		Facets:        []string{"status"},
		Required:      []string{"name"},
		PriorityField: "priority",
		Insert:        Append,
		Properties: map[string]any{
			"name": typeString, "image": typeURL, "status": typeStatus, "priority": typeRank,
		},
	},
	{
		Entity:        EntitySubcategories,
		Label:         "Subcategories",
		Searchable:    []string{"name", "category"},
		Facets:        []string{"category"},
		Required:      []string{"name", "category"},
		PriorityField: "priority",
		Insert:        Append,
		Properties: map[string]any{
			"name": typeString, "category": typeString, "image": typeURL, "priority": typeRank,
		},
	},
	{
		Entity:     EntityFilters,
		Label:      "Filters",
		Searchable: []string{"name", "values"},
		Facets:     []string{"category", "subcategory", "status"},
		Required:   []string{"name", "category"},
		Insert:     Append,
		Properties: map[string]any{
			"name": typeString, "category": typeString, "subcategory": typeString,
			"values": typeStrings, "status": typeStatus,
		},
	},
	{
		Entity:     EntityPromoCodes,
		Label:      "Promo Codes",
		Searchable: []string{"code", "description"},
		Facets:     []string{"status", "type"},
		Required:   []string{"code", "discount"},
		Insert:     Prepend,
		Properties: map[string]any{
			"code": typeString, "description": typeString, "discount": typePrice,
			"type":   map[string]any{"type": "string", "enum": []any{"Percentage", "Fixed"}},
			"status": typeStatus, "expires": typeString, "usage_limit": typeCount,
		},
	},
	{
		Entity:     EntityFAQs,
		Label:      "FAQs",
		Searchable: []string{"title", "detail"},
		Required:   []string{"title", "detail"},
		Insert:     Append,
		Properties: map[string]any{"title": typeString, "detail": typeString},
	},
	{
		Entity:        EntityBanners,
		Label:         "Banners",
		Searchable:    []string{"title", "link"},
		Facets:        []string{"placement"},
		Required:      []string{"title", "image"},
		PriorityField: "priority",
		Insert:        Append,
		Properties: map[string]any{
			"title": typeString, "image": typeURL, "link": typeURL,
			"placement": typeString, "priority": typeRank,
		},
	},
	{
		Entity:        EntityPartners,
		Label:         "Partners",
		Searchable:    []string{"name", "website"},
		Facets:        []string{"status"},
		Required:      []string{"name"},
		PriorityField: "priority",
		Insert:        Append,
		Properties: map[string]any{
			"name": typeString, "logo": typeURL, "website": typeURL,
			"status": typeStatus, "priority": typeRank,
		},
	},
	{
		Entity:     EntityReviews,
		Label:      "Reviews",
		Searchable: []string{"customer", "item", "comment"},
		Facets:     []string{"status", "rating"},
		Required:   []string{"customer", "rating"},
		Insert:     Prepend,
		Properties: map[string]any{
			"customer": typeString, "item": typeString, "comment": typeString,
			"rating": map[string]any{"type": "integer", "minimum": 1, "maximum": 5},
			"status": map[string]any{"type": "string", "enum": []any{"Published", "Hidden", "Pending"}},
		},
	},
	{
		Entity:     EntityNotifications,
		Label:      "Notifications",
		Searchable: []string{"title", "message"},
		Facets:     []string{"audience"},
		Required:   []string{"title", "message"},
		Insert:     Prepend,
		Properties: map[string]any{
			"title": typeString, "message": typeString, "audience": typeString, "sent_at": typeString,
		},
	},
}

// LookupSchema returns the standard schema of an entity.
func LookupSchema(e Entity) (Schema, error) {
	for _, s := range StandardSchemas {
		if s.Entity == e {
			return s, nil
		}
	}
	return Schema{}, fmt.Errorf("%w: %q", ErrUnknownEntity, string(e))
}

// ParseEntity resolves a user-supplied entity name in any case style
// ("promo-codes", "PromoCodes", "promo_codes").
func ParseEntity(name string) (Entity, error) {
	e := Entity(strcase.ToSnake(strings.TrimSpace(name)))
	if _, err := LookupSchema(e); err != nil {
		return "", err
	}
	return e, nil
}

// EntityNames lists the standard entity names.
func EntityNames() []string {
	names := make([]string, len(StandardSchemas))
	for i, s := range StandardSchemas {
		names[i] = string(s.Entity)
	}
	return names
}

func toAny(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}
