// Package types defines the records, entity schemas, filter state, persistence
// contract, and standard error types shared by every backoffice controller.
//
// A Record is an open field map with a unique ID. A Schema tells the
// controllers which fields are searched, which act as facets, which are
// required, and whether the entity keeps an explicit priority order.
package types
