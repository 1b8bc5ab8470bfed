// Package mutation applies create, update, and delete operations to an entity
// store. Every operation validates first, commits to the store and the
// persister together (rolling the store back if persistence fails), and then
// emits a notification.
package mutation

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mesh-intelligence/backoffice/internal/idgen"
	"github.com/mesh-intelligence/backoffice/internal/metrics"
	"github.com/mesh-intelligence/backoffice/internal/store"
	"github.com/mesh-intelligence/backoffice/internal/validation"
	"github.com/mesh-intelligence/backoffice/pkg/types"
)

// maxIDAttempts bounds retries when a generated id is already taken.
const maxIDAttempts = 8

// RemoveHook is told which ids a successful remove deleted.
type RemoveHook func(ids ...string)

// Controller mutates one entity store.
type Controller struct {
	schema    types.Schema
	store     *store.Store
	ids       idgen.Generator
	validator *validation.Validator
	persister types.Persister
	notifiers fanout
	navigator types.Navigator
	onRemove  []RemoveHook
	logger    *slog.Logger
	metrics   *metrics.Recorder
}

// Option configures a Controller.
type Option func(*Controller)

// WithIDGenerator sets the id strategy. The default is a sequence starting
// above the store's numeric ids.
func WithIDGenerator(g idgen.Generator) Option {
	return func(c *Controller) { c.ids = g }
}

// WithValidator shares a compiled-schema cache between controllers.
func WithValidator(v *validation.Validator) Option {
	return func(c *Controller) { c.validator = v }
}

// WithPersister writes every committed mutation through p.
func WithPersister(p types.Persister) Option {
	return func(c *Controller) { c.persister = p }
}

// WithNotifier adds a notification receiver.
func WithNotifier(n Notifier) Option {
	return func(c *Controller) { c.notifiers = append(c.notifiers, n) }
}

// WithNavigator sets the routing collaborator used after creates.
func WithNavigator(n types.Navigator) Option {
	return func(c *Controller) { c.navigator = n }
}

// OnRemove registers a hook called with the ids of every successful remove.
func OnRemove(h RemoveHook) Option {
	return func(c *Controller) { c.onRemove = append(c.onRemove, h) }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) { c.logger = l }
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m *metrics.Recorder) Option {
	return func(c *Controller) { c.metrics = m }
}

// New returns a controller for st described by schema.
func New(st *store.Store, schema types.Schema, opts ...Option) *Controller {
	c := &Controller{
		schema: schema,
		store:  st,
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.ids == nil {
		c.ids = idgen.NewSequence(st.IDs()...)
	}
	if c.validator == nil {
		c.validator = validation.New()
	}
	c.logger = c.logger.With("entity", string(schema.Entity))
	return c
}

// Schema returns the entity schema.
func (c *Controller) Schema() types.Schema { return c.schema }

// Store returns the controlled store.
func (c *Controller) Store() *store.Store { return c.store }

// Create validates draft, assigns a fresh id, and inserts the record at pos.
func (c *Controller) Create(ctx context.Context, draft map[string]any, pos types.Position) (types.Record, error) {
	fields := types.NormalizeFields(draft)
	if err := c.validator.Create(c.schema, fields); err != nil {
		c.metrics.Mutation(string(c.schema.Entity), string(types.MutationCreate), err)
		return types.Record{}, err
	}

	id, err := c.newID()
	if err != nil {
		c.metrics.Mutation(string(c.schema.Entity), string(types.MutationCreate), err)
		return types.Record{}, err
	}

	rec := types.Record{ID: id, Fields: fields}
	err = c.Apply(ctx, types.MutationCreate, []string{id}, func(st *store.Store) error {
		if err := st.Insert(rec, pos); err != nil {
			return err
		}
		st.Renumber(c.schema.PriorityField)
		return nil
	})
	c.metrics.Mutation(string(c.schema.Entity), string(types.MutationCreate), err)
	if err != nil {
		c.Fail(err)
		return types.Record{}, err
	}

	created, _ := c.store.Get(id)
	c.logger.Debug("record created", "id", id, "position", pos.String())
	c.Notify(KindCreated, []string{id})
	if c.navigator != nil {
		c.navigator.Navigate(c.schema.ListPath())
	}
	return created, nil
}

// Update merges patch into the record with id. Fields absent from patch keep
// their values. The priority of orderable entities is owned by the reorder
// controller and cannot be patched. A patch left empty changes nothing: the
// current record is returned without persisting or notifying.
func (c *Controller) Update(ctx context.Context, id string, patch map[string]any) (types.Record, error) {
	current, err := c.store.Get(id)
	if err != nil {
		c.metrics.Mutation(string(c.schema.Entity), string(types.MutationUpdate), err)
		c.Fail(err)
		return types.Record{}, err
	}

	fields := types.NormalizeFields(patch)
	if c.schema.Orderable() {
		delete(fields, c.schema.PriorityField)
	}
	if len(fields) == 0 {
		return current, nil
	}
	if err := c.validator.Update(c.schema, current.Fields, fields); err != nil {
		c.metrics.Mutation(string(c.schema.Entity), string(types.MutationUpdate), err)
		return types.Record{}, err
	}

	next := current.Clone()
	if next.Fields == nil {
		next.Fields = make(map[string]any, len(fields))
	}
	for k, v := range fields {
		next.Fields[k] = v
	}

	err = c.Apply(ctx, types.MutationUpdate, []string{id}, func(st *store.Store) error {
		return st.Replace(next)
	})
	c.metrics.Mutation(string(c.schema.Entity), string(types.MutationUpdate), err)
	if err != nil {
		c.Fail(err)
		return types.Record{}, err
	}

	c.logger.Debug("record updated", "id", id, "fields", len(fields))
	c.Notify(KindUpdated, []string{id})
	updated, _ := c.store.Get(id)
	return updated, nil
}

// Remove deletes every record in ids. It is all-or-nothing: an unknown id
// fails the whole call with ErrNotFound and nothing is removed.
func (c *Controller) Remove(ctx context.Context, ids ...string) error {
	ids = dedupe(ids)
	if len(ids) == 0 {
		return fmt.Errorf("%s remove: %w", c.schema.Entity, types.ErrInvalidID)
	}
	for _, id := range ids {
		if !c.store.Has(id) {
			err := fmt.Errorf("%s %q: %w", c.schema.Entity, id, types.ErrNotFound)
			c.metrics.Mutation(string(c.schema.Entity), string(types.MutationDelete), err)
			c.Fail(err)
			return err
		}
	}

	err := c.Apply(ctx, types.MutationDelete, ids, func(st *store.Store) error {
		for _, id := range ids {
			if _, err := st.Delete(id); err != nil {
				return err
			}
		}
		st.Renumber(c.schema.PriorityField)
		return nil
	})
	c.metrics.Mutation(string(c.schema.Entity), string(types.MutationDelete), err)
	if err != nil {
		c.Fail(err)
		return err
	}

	for _, h := range c.onRemove {
		h(ids...)
	}
	c.logger.Debug("records removed", "ids", ids)
	c.Notify(KindDeleted, ids)
	return nil
}

// Apply runs change against the store and persists the resulting snapshot.
// If change or persistence fails, the store is restored to its prior
// content and the error is returned.
func (c *Controller) Apply(ctx context.Context, kind types.MutationKind, ids []string, change func(*store.Store) error) error {
	snapshot := c.store.Records()
	if err := change(c.store); err != nil {
		c.rollback(snapshot)
		return err
	}
	if c.persister != nil {
		m := types.Mutation{
			Entity:  c.schema.Entity,
			Kind:    kind,
			IDs:     append([]string(nil), ids...),
			Records: c.store.Records(),
		}
		if err := c.persister.Persist(ctx, m); err != nil {
			c.rollback(snapshot)
			c.logger.Error("persist failed", "kind", string(kind), "ids", ids, "error", err)
			return fmt.Errorf("persisting %s %s: %w", c.schema.Entity, kind, err)
		}
	}
	c.metrics.Records(string(c.schema.Entity), c.store.Len())
	return nil
}

// Notify emits a notification of kind for ids.
func (c *Controller) Notify(kind Kind, ids []string) {
	if len(c.notifiers) == 0 {
		return
	}
	c.notifiers.Notify(Notification{
		Entity:  c.schema.Entity,
		Kind:    kind,
		IDs:     append([]string(nil), ids...),
		Message: message(c.schema, kind, ids),
	})
}

// Fail logs err and emits a failed notification with the generic message.
func (c *Controller) Fail(err error) {
	c.logger.Warn("mutation failed", "error", err)
	if len(c.notifiers) == 0 {
		return
	}
	c.notifiers.Notify(Notification{
		Entity:  c.schema.Entity,
		Kind:    KindFailed,
		Message: GenericFailure,
		Err:     err,
	})
}

func (c *Controller) rollback(snapshot []types.Record) {
	if err := c.store.Reset(snapshot); err != nil {
		c.logger.Error("rollback failed", "error", err)
	}
}

func (c *Controller) newID() (string, error) {
	for i := 0; i < maxIDAttempts; i++ {
		id, err := c.ids.NewID()
		if err != nil {
			return "", err
		}
		if !c.store.Has(id) {
			return id, nil
		}
		c.logger.Warn("generated id already taken", "id", id)
	}
	return "", fmt.Errorf("%s: %w after %d attempts", c.schema.Entity, types.ErrDuplicateID, maxIDAttempts)
}

func message(schema types.Schema, kind Kind, ids []string) string {
	label := schema.Label
	if label == "" {
		label = string(schema.Entity)
	}
	switch kind {
	case KindReset:
		return fmt.Sprintf("%s order reset", label)
	case KindMoved:
		return fmt.Sprintf("%s order saved", label)
	}
	return fmt.Sprintf("%s %s %s", label, strings.Join(ids, ", "), kind)
}

func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
