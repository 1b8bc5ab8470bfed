package admin

import (
	"context"
	"fmt"

	"github.com/mesh-intelligence/backoffice/internal/flow"
	"github.com/mesh-intelligence/backoffice/internal/mutation"
	"github.com/mesh-intelligence/backoffice/internal/query"
	"github.com/mesh-intelligence/backoffice/internal/reorder"
	"github.com/mesh-intelligence/backoffice/internal/selection"
	"github.com/mesh-intelligence/backoffice/internal/store"
	"github.com/mesh-intelligence/backoffice/pkg/types"
)

// Page is one list screen: it owns the store of its entity together with
// the filter, selection, and controllers acting on it.
type Page struct {
	Schema    types.Schema
	Store     *store.Store
	View      *query.View
	Selection *selection.Tracker
	Mutations *mutation.Controller
	Reorder   *reorder.Controller
	Dialog    *flow.Dialog

	filter types.FilterState
}

// Filter returns the current filter.
func (p *Page) Filter() types.FilterState { return p.filter }

// SetFilter replaces the current filter.
func (p *Page) SetFilter(f types.FilterState) { p.filter = f }

// Visible returns the records that pass the current filter.
func (p *Page) Visible() []types.Record {
	return p.View.Compute(p.Store, p.filter)
}

// VisibleIDs returns the ids of Visible in order.
func (p *Page) VisibleIDs() []string {
	p.Visible()
	return p.View.IDs()
}

// SelectAllVisible toggles the selection between every visible record and
// nothing.
func (p *Page) SelectAllVisible() {
	p.Selection.SelectAll(p.VisibleIDs())
}

// Selected returns the selected records in store order.
func (p *Page) Selected() []types.Record {
	var out []types.Record
	for _, r := range p.Store.Records() {
		if p.Selection.Has(r.ID) {
			out = append(out, r)
		}
	}
	return out
}

// SelectedIDs returns the sorted selected ids after dropping any that no
// longer exist in the store.
func (p *Page) SelectedIDs() []string {
	p.Selection.Prune(p.Store.IDs())
	return p.Selection.IDs()
}

// RemoveSelected deletes every selected record.
func (p *Page) RemoveSelected(ctx context.Context) error {
	ids := p.SelectedIDs()
	if len(ids) == 0 {
		return fmt.Errorf("%s: empty selection: %w", p.Schema.Entity, types.ErrNothingPending)
	}
	return p.Mutations.Remove(ctx, ids...)
}
