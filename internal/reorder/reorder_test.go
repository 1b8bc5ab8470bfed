package reorder

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/backoffice/internal/mutation"
	"github.com/mesh-intelligence/backoffice/internal/store"
	"github.com/mesh-intelligence/backoffice/pkg/types"
)

func abc() []types.Record {
	return []types.Record{
		types.NewRecord("1", map[string]any{"name": "A", "priority": 1}),
		types.NewRecord("2", map[string]any{"name": "B", "priority": 2}),
		types.NewRecord("3", map[string]any{"name": "C", "priority": 3}),
	}
}

func ids(records []types.Record) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.ID
	}
	return out
}

func TestMove(t *testing.T) {
	tests := []struct {
		name   string
		id     string
		target int
		want   []string
		err    error
	}{
		{name: "last to first", id: "3", target: 0, want: []string{"3", "1", "2"}},
		{name: "first to last", id: "1", target: 2, want: []string{"2", "3", "1"}},
		{name: "first to middle", id: "1", target: 1, want: []string{"2", "1", "3"}},
		{name: "same index", id: "2", target: 1, want: []string{"1", "2", "3"}},
		{name: "unknown id", id: "9", target: 0, err: types.ErrNotFound},
		{name: "negative target", id: "1", target: -1, err: types.ErrInvalidPosition},
		{name: "target past end", id: "1", target: 3, err: types.ErrInvalidPosition},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Move(abc(), tt.id, tt.target, "priority")
			if tt.err != nil {
				assert.ErrorIs(t, err, tt.err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(got))
			for i, r := range got {
				assert.Equal(t, int64(i+1), r.Fields["priority"])
			}
		})
	}
}

func TestMoveToCurrentIndexIsIdentity(t *testing.T) {
	in := abc()
	for i, r := range in {
		got, err := Move(in, r.ID, i, "priority")
		require.NoError(t, err)
		assert.Equal(t, in, got)
	}
}

func TestMoveDoesNotTouchInput(t *testing.T) {
	in := abc()
	_, err := Move(in, "3", 0, "priority")
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2", "3"}, ids(in))
	assert.Equal(t, int64(3), in[2].Fields["priority"])
}

func TestMoveWithoutPriority(t *testing.T) {
	in := []types.Record{
		types.NewRecord("1", map[string]any{"title": "a"}),
		types.NewRecord("2", map[string]any{"title": "b"}),
	}
	got, err := Move(in, "2", 0, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"2", "1"}, ids(got))
	assert.NotContains(t, got[0].Fields, "priority")
}

func TestReset(t *testing.T) {
	in := []types.Record{
		types.NewRecord("10", nil),
		types.NewRecord("2", nil),
		types.NewRecord("b", nil),
		types.NewRecord("1", nil),
		types.NewRecord("a", nil),
	}
	got := Reset(in, "priority")
	assert.Equal(t, []string{"1", "2", "10", "a", "b"}, ids(got))
	for i, r := range got {
		assert.Equal(t, int64(i+1), r.Fields["priority"])
	}
	assert.Equal(t, ids(got), ids(Reset(got, "priority")))
}

type failingPersister struct{ err error }

func (p failingPersister) LoadInitial(context.Context, types.Entity) ([]types.Record, error) {
	return nil, nil
}
func (p failingPersister) Persist(context.Context, types.Mutation) error { return p.err }
func (p failingPersister) Close() error                                  { return nil }

func newController(t *testing.T, opts ...mutation.Option) (*Controller, *store.Store, *mutation.Inbox) {
	t.Helper()
	st, err := store.New(types.EntityCategories, abc())
	require.NoError(t, err)
	schema, err := types.LookupSchema(types.EntityCategories)
	require.NoError(t, err)
	inbox := &mutation.Inbox{}
	opts = append(opts, mutation.WithNotifier(inbox))
	return NewController(mutation.New(st, schema, opts...)), st, inbox
}

func TestControllerMove(t *testing.T) {
	ctx := context.Background()

	t.Run("moves and notifies", func(t *testing.T) {
		c, st, inbox := newController(t)

		moved, err := c.Move(ctx, "3", 0)
		require.NoError(t, err)
		assert.True(t, moved)
		assert.Equal(t, []string{"3", "1", "2"}, st.IDs())
		for i, r := range st.Records() {
			assert.Equal(t, int64(i+1), r.Fields["priority"])
		}
		last, _ := inbox.Last()
		assert.Equal(t, mutation.KindMoved, last.Kind)
	})

	t.Run("current index is a silent no-op", func(t *testing.T) {
		c, st, inbox := newController(t)
		version := st.Version()

		moved, err := c.Move(ctx, "2", 1)
		require.NoError(t, err)
		assert.False(t, moved)
		assert.Equal(t, version, st.Version())
		assert.Empty(t, inbox.All())
	})

	t.Run("unknown id", func(t *testing.T) {
		c, _, inbox := newController(t)

		_, err := c.Move(ctx, "9", 0)
		assert.ErrorIs(t, err, types.ErrNotFound)
		last, _ := inbox.Last()
		assert.Equal(t, mutation.KindFailed, last.Kind)
	})

	t.Run("persistence failure keeps the old order", func(t *testing.T) {
		c, st, _ := newController(t, mutation.WithPersister(failingPersister{err: errors.New("boom")}))

		_, err := c.Move(ctx, "3", 0)
		require.Error(t, err)
		assert.Equal(t, []string{"1", "2", "3"}, st.IDs())
	})
}

func TestControllerReset(t *testing.T) {
	ctx := context.Background()
	c, st, inbox := newController(t)

	_, err := c.Move(ctx, "1", 2)
	require.NoError(t, err)
	require.NoError(t, c.Reset(ctx))

	assert.Equal(t, []string{"1", "2", "3"}, st.IDs())
	last, _ := inbox.Last()
	assert.Equal(t, mutation.KindReset, last.Kind)
}
