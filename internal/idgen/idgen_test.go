package idgen

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/backoffice/pkg/types"
)

func TestSequenceStartsAboveExisting(t *testing.T) {
	s := NewSequence("3", "17", "abc", "2")
	id, err := s.NewID()
	require.NoError(t, err)
	assert.Equal(t, "18", id)

	id, _ = s.NewID()
	assert.Equal(t, "19", id)

	s.Observe("40")
	id, _ = s.NewID()
	assert.Equal(t, "41", id)
}

func TestGeneratorsProduceUniqueOrderedIDs(t *testing.T) {
	for _, strategy := range []string{types.IDSequence, types.IDUUID, types.IDULID} {
		t.Run(strategy, func(t *testing.T) {
			g, err := New(strategy, nil)
			require.NoError(t, err)

			seen := make(map[string]bool)
			prev := ""
			for i := 0; i < 500; i++ {
				id, err := g.NewID()
				require.NoError(t, err)
				require.False(t, seen[id], "duplicate id %s", id)
				seen[id] = true
				if prev != "" && strategy != types.IDUUID {
					assert.Equal(t, 1, types.CompareIDs(id, prev), "ids must increase")
				}
				prev = id
			}
		})
	}
}

func TestNewRejectsUnknownStrategy(t *testing.T) {
	_, err := New("timestamp", nil)
	assert.ErrorIs(t, err, types.ErrIDStrategyUnknown)
}
