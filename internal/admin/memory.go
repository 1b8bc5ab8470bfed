package admin

import (
	"context"
	"log/slog"

	"github.com/mesh-intelligence/backoffice/pkg/types"
)

// memoryPersister serves the seed and keeps nothing.
type memoryPersister struct {
	seed   types.SeedFunc
	logger *slog.Logger
}

func (p memoryPersister) LoadInitial(_ context.Context, entity types.Entity) ([]types.Record, error) {
	if p.seed == nil {
		return nil, nil
	}
	return p.seed(entity)
}

func (p memoryPersister) Persist(_ context.Context, m types.Mutation) error {
	p.logger.Debug("mutation not persisted", "backend", types.BackendMemory,
		"entity", string(m.Entity), "kind", string(m.Kind), "ids", m.IDs)
	return nil
}

func (memoryPersister) Close() error { return nil }
