package flow

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/backoffice/internal/mutation"
	"github.com/mesh-intelligence/backoffice/internal/store"
	"github.com/mesh-intelligence/backoffice/pkg/types"
)

func faqs(t *testing.T) (*mutation.Controller, *store.Store) {
	t.Helper()
	st, err := store.New(types.EntityFAQs, []types.Record{
		types.NewRecord("1", map[string]any{"title": "Shipping", "detail": "3-5 days"}),
		types.NewRecord("2", map[string]any{"title": "Returns", "detail": "30 days"}),
	})
	require.NoError(t, err)
	schema, err := types.LookupSchema(types.EntityFAQs)
	require.NoError(t, err)
	return mutation.New(st, schema), st
}

func TestStageNext(t *testing.T) {
	assert.Equal(t, []Stage{Confirming}, Idle.Next())
	assert.ElementsMatch(t, []Stage{Idle, Succeeded}, Confirming.Next())
	assert.Equal(t, []Stage{Idle}, Succeeded.Next())
}

// Every transition method is tried from every stage; only the edges listed
// by Next may succeed.
func TestTransitionsMatchNext(t *testing.T) {
	type step struct {
		name string
		to   Stage
		do   func(*Dialog) error
	}
	ctx := context.Background()
	steps := []step{
		{"begin delete", Confirming, func(d *Dialog) error {
			return d.BeginDelete(types.NewRecord("1", nil))
		}},
		{"confirm", Succeeded, func(d *Dialog) error { return d.Confirm(ctx) }},
		{"cancel", Idle, func(d *Dialog) error { return d.Cancel() }},
		{"dismiss", Idle, func(d *Dialog) error { return d.Dismiss() }},
	}
	reach := map[Stage]func(*Dialog){
		Idle: func(*Dialog) {},
		Confirming: func(d *Dialog) {
			require.NoError(t, d.BeginDelete(types.NewRecord("1", nil)))
		},
		Succeeded: func(d *Dialog) {
			require.NoError(t, d.BeginDelete(types.NewRecord("1", nil)))
			require.NoError(t, d.Confirm(ctx))
		},
	}

	for from, setup := range reach {
		for _, s := range steps {
			t.Run(from.String()+" "+s.name, func(t *testing.T) {
				c, _ := faqs(t)
				d := New(types.EntityFAQs, c)
				setup(d)
				require.Equal(t, from, d.Stage())

				err := s.do(d)
				allowed := false
				for _, n := range from.Next() {
					if n == s.to {
						allowed = true
					}
				}
				// Cancel and Dismiss both target Idle but from different stages.
				if s.name == "cancel" && from != Confirming || s.name == "dismiss" && from != Succeeded {
					allowed = false
				}
				if allowed {
					require.NoError(t, err)
					assert.Equal(t, s.to, d.Stage())
				} else {
					assert.ErrorIs(t, err, types.ErrInvalidTransition)
					assert.Equal(t, from, d.Stage())
				}
			})
		}
	}
}

func TestDeleteFlow(t *testing.T) {
	ctx := context.Background()
	c, st := faqs(t)
	d := New(types.EntityFAQs, c)

	target, err := st.Get("1")
	require.NoError(t, err)
	require.NoError(t, d.BeginDelete(target))

	// Nothing happens until Confirm.
	assert.Equal(t, 2, st.Len())
	p, ok := d.Pending()
	require.True(t, ok)
	assert.Equal(t, []string{"1"}, p.IDs())

	require.NoError(t, d.Confirm(ctx))
	assert.Equal(t, Succeeded, d.Stage())
	assert.False(t, st.Has("1"))

	// A second confirm is rejected, so the mutation ran exactly once.
	assert.ErrorIs(t, d.Confirm(ctx), types.ErrInvalidTransition)
	assert.Equal(t, 1, st.Len())

	require.NoError(t, d.Dismiss())
	assert.Equal(t, Idle, d.Stage())
	_, ok = d.Pending()
	assert.False(t, ok)
}

func TestCancelNeverMutates(t *testing.T) {
	c, st := faqs(t)
	d := New(types.EntityFAQs, c)
	version := st.Version()

	target, _ := st.Get("2")
	require.NoError(t, d.BeginEdit(target, map[string]any{"detail": "60 days"}))
	require.NoError(t, d.Cancel())

	assert.Equal(t, Idle, d.Stage())
	assert.Equal(t, version, st.Version())
	got, _ := st.Get("2")
	assert.Equal(t, "30 days", got.Fields["detail"])
}

func TestSnapshotIsIndependent(t *testing.T) {
	c, st := faqs(t)
	d := New(types.EntityFAQs, c)

	target, _ := st.Get("1")
	require.NoError(t, d.BeginEdit(target, map[string]any{"detail": "soon"}))
	target.Fields["title"] = "mutated by caller"

	p, _ := d.Pending()
	assert.Equal(t, "Shipping", p.Targets[0].Fields["title"])
	p.Targets[0].Fields["title"] = "mutated again"

	again, _ := d.Pending()
	assert.Equal(t, "Shipping", again.Targets[0].Fields["title"])
}

func TestInvalidDraftKeepsDialogOpen(t *testing.T) {
	ctx := context.Background()
	c, st := faqs(t)
	d := New(types.EntityFAQs, c)

	require.NoError(t, d.BeginCreate(map[string]any{"title": "", "detail": "non-empty"}, types.Append))
	err := d.Confirm(ctx)
	assert.ErrorIs(t, err, types.ErrValidation)
	assert.Equal(t, Confirming, d.Stage())
	assert.Equal(t, 2, st.Len())

	p, _ := d.Pending()
	assert.Equal(t, "non-empty", p.Draft["detail"])

	require.NoError(t, d.SetDraft(map[string]any{"title": "Gift wrap?", "detail": "non-empty"}))
	require.NoError(t, d.Confirm(ctx))
	assert.Equal(t, 3, st.Len())

	rec, ok := d.Result()
	require.True(t, ok)
	assert.Equal(t, "Gift wrap?", rec.Fields["title"])
}

func TestEditOfVanishedRecord(t *testing.T) {
	ctx := context.Background()
	c, st := faqs(t)
	d := New(types.EntityFAQs, c)

	target, _ := st.Get("1")
	require.NoError(t, d.BeginEdit(target, map[string]any{"detail": "x"}))
	require.NoError(t, c.Remove(ctx, "1"))

	assert.ErrorIs(t, d.Confirm(ctx), types.ErrNotFound)
	assert.Equal(t, Confirming, d.Stage())
	require.NoError(t, d.Cancel())
}

func TestBeginDeleteNeedsTargets(t *testing.T) {
	c, _ := faqs(t)
	d := New(types.EntityFAQs, c)
	assert.ErrorIs(t, d.BeginDelete(), types.ErrNothingPending)
	assert.Equal(t, Idle, d.Stage())
}
