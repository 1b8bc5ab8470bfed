package reorder

import (
	"context"
	"log/slog"

	"github.com/mesh-intelligence/backoffice/internal/metrics"
	"github.com/mesh-intelligence/backoffice/internal/mutation"
	"github.com/mesh-intelligence/backoffice/internal/store"
	"github.com/mesh-intelligence/backoffice/pkg/types"
)

// Controller reorders the store owned by a mutation controller.
type Controller struct {
	mutations *mutation.Controller
	logger    *slog.Logger
	metrics   *metrics.Recorder
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) { c.logger = l }
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m *metrics.Recorder) Option {
	return func(c *Controller) { c.metrics = m }
}

// NewController returns a reorder controller committing through m.
func NewController(m *mutation.Controller, opts ...Option) *Controller {
	c := &Controller{mutations: m, logger: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With("entity", string(m.Schema().Entity))
	return c
}

// Move drags the record with id to target. It reports whether the order
// changed; a move to the current index changes nothing and persists nothing.
func (c *Controller) Move(ctx context.Context, id string, target int) (bool, error) {
	st := c.mutations.Store()
	entity := string(c.mutations.Schema().Entity)

	next, err := Move(st.Records(), id, target, c.mutations.Schema().PriorityField)
	if err != nil {
		c.metrics.Reorder(entity, err)
		c.mutations.Fail(err)
		return false, err
	}
	if st.IndexOf(id) == target {
		return false, nil
	}

	err = c.mutations.Apply(ctx, types.MutationMove, []string{id}, func(s *store.Store) error {
		return s.Reset(next)
	})
	c.metrics.Reorder(entity, err)
	if err != nil {
		c.mutations.Fail(err)
		return false, err
	}
	c.logger.Debug("record moved", "id", id, "index", target)
	c.mutations.Notify(mutation.KindMoved, []string{id})
	return true, nil
}

// Reset restores ascending id order.
func (c *Controller) Reset(ctx context.Context) error {
	st := c.mutations.Store()
	entity := string(c.mutations.Schema().Entity)

	next := Reset(st.Records(), c.mutations.Schema().PriorityField)
	err := c.mutations.Apply(ctx, types.MutationReset, nil, func(s *store.Store) error {
		return s.Reset(next)
	})
	c.metrics.Reorder(entity, err)
	if err != nil {
		c.mutations.Fail(err)
		return err
	}
	c.logger.Debug("order reset", "records", len(next))
	c.mutations.Notify(mutation.KindReset, nil)
	return nil
}
