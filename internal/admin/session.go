// Package admin assembles an admin session: one page per entity, each with
// its own store and controllers, all persisted through the configured
// backend.
package admin

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/mesh-intelligence/backoffice/internal/catalog"
	"github.com/mesh-intelligence/backoffice/internal/flow"
	"github.com/mesh-intelligence/backoffice/internal/idgen"
	"github.com/mesh-intelligence/backoffice/internal/metrics"
	"github.com/mesh-intelligence/backoffice/internal/mutation"
	"github.com/mesh-intelligence/backoffice/internal/postgres"
	"github.com/mesh-intelligence/backoffice/internal/query"
	"github.com/mesh-intelligence/backoffice/internal/reorder"
	"github.com/mesh-intelligence/backoffice/internal/selection"
	"github.com/mesh-intelligence/backoffice/internal/sqlite"
	"github.com/mesh-intelligence/backoffice/internal/store"
	"github.com/mesh-intelligence/backoffice/internal/validation"
	"github.com/mesh-intelligence/backoffice/pkg/types"
)

// Session holds every page of one admin user.
type Session struct {
	mu        sync.Mutex
	cfg       types.Config
	persister types.Persister
	pages     map[types.Entity]*Page
	inbox     *mutation.Inbox
	metrics   *metrics.Recorder
	logger    *slog.Logger
}

type options struct {
	logger    *slog.Logger
	registry  prometheus.Registerer
	persister types.Persister
	navigator types.Navigator
	notifiers []mutation.Notifier
	seed      types.SeedFunc
}

// Option configures Open.
type Option func(*options)

// WithLogger sets the logger shared by every component.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithRegistry registers the session metrics on reg.
func WithRegistry(reg prometheus.Registerer) Option {
	return func(o *options) { o.registry = reg }
}

// WithPersister bypasses the configured backend.
func WithPersister(p types.Persister) Option {
	return func(o *options) { o.persister = p }
}

// WithNavigator sets the routing collaborator.
func WithNavigator(n types.Navigator) Option {
	return func(o *options) { o.navigator = n }
}

// WithNotifier adds a notification receiver next to the session inbox.
func WithNotifier(n mutation.Notifier) Option {
	return func(o *options) { o.notifiers = append(o.notifiers, n) }
}

// WithSeed replaces the demo catalog as the seed of new backends.
func WithSeed(f types.SeedFunc) Option {
	return func(o *options) { o.seed = f }
}

// Open validates cfg, opens its backend, and loads every entity.
func Open(ctx context.Context, cfg types.Config, opts ...Option) (*Session, error) {
	o := options{logger: slog.New(slog.DiscardHandler), seed: catalog.Seed}
	for _, opt := range opts {
		opt(&o)
	}

	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	p := o.persister
	if p == nil {
		var err error
		if p, err = openPersister(ctx, cfg, o.seed, o.logger); err != nil {
			return nil, err
		}
	}

	s := &Session{
		cfg:       cfg,
		persister: p,
		pages:     make(map[types.Entity]*Page, len(types.StandardSchemas)),
		inbox:     &mutation.Inbox{},
		metrics:   metrics.NewRecorder(o.registry),
		logger:    o.logger,
	}

	validator := validation.New()
	for _, schema := range types.StandardSchemas {
		page, err := s.openPage(ctx, schema, validator, o)
		if err != nil {
			return nil, errors.Join(err, p.Close())
		}
		s.pages[schema.Entity] = page
	}

	o.logger.Debug("session opened", "backend", cfg.Backend, "entities", len(s.pages))
	return s, nil
}

func openPersister(ctx context.Context, cfg types.Config, seed types.SeedFunc, logger *slog.Logger) (types.Persister, error) {
	switch cfg.Backend {
	case types.BackendMemory:
		return memoryPersister{seed: seed, logger: logger}, nil
	case types.BackendSQLite:
		return sqlite.Open(cfg.DataDir, sqlite.WithSeed(seed), sqlite.WithLogger(logger))
	case types.BackendPostgres:
		return postgres.Open(ctx, cfg.PostgresDSN, postgres.WithSeed(seed), postgres.WithLogger(logger))
	}
	return nil, fmt.Errorf("%w: %q", types.ErrBackendUnknown, cfg.Backend)
}

func (s *Session) openPage(ctx context.Context, schema types.Schema, v *validation.Validator, o options) (*Page, error) {
	records, err := s.persister.LoadInitial(ctx, schema.Entity)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", schema.Entity, err)
	}
	st, err := store.New(schema.Entity, records)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", schema.Entity, err)
	}
	ids, err := idgen.New(s.cfg.IDStrategy, st.IDs())
	if err != nil {
		return nil, err
	}

	sel := selection.New()
	mopts := []mutation.Option{
		mutation.WithIDGenerator(ids),
		mutation.WithValidator(v),
		mutation.WithPersister(s.persister),
		mutation.WithNotifier(s.inbox),
		mutation.WithLogger(s.logger),
		mutation.WithMetrics(s.metrics),
		mutation.OnRemove(sel.Drop),
	}
	for _, n := range o.notifiers {
		mopts = append(mopts, mutation.WithNotifier(n))
	}
	if o.navigator != nil {
		mopts = append(mopts, mutation.WithNavigator(o.navigator))
	}
	m := mutation.New(st, schema, mopts...)

	s.metrics.Records(string(schema.Entity), st.Len())
	return &Page{
		Schema:    schema,
		Store:     st,
		View:      query.NewView(schema),
		Selection: sel,
		Mutations: m,
		Reorder:   reorder.NewController(m, reorder.WithLogger(s.logger), reorder.WithMetrics(s.metrics)),
		Dialog:    flow.New(schema.Entity, m, flow.WithLogger(s.logger), flow.WithMetrics(s.metrics)),
	}, nil
}

// Config returns the effective configuration.
func (s *Session) Config() types.Config { return s.cfg }

// Page returns the page of entity.
func (s *Session) Page(entity types.Entity) (*Page, error) {
	p, ok := s.pages[entity]
	if !ok {
		return nil, fmt.Errorf("%w: %q", types.ErrUnknownEntity, string(entity))
	}
	return p, nil
}

// Pages returns every page in menu order.
func (s *Session) Pages() []*Page {
	out := make([]*Page, 0, len(types.StandardSchemas))
	for _, schema := range types.StandardSchemas {
		if p, ok := s.pages[schema.Entity]; ok {
			out = append(out, p)
		}
	}
	return out
}

// Notifications returns the session inbox.
func (s *Session) Notifications() *mutation.Inbox { return s.inbox }

// Do runs fn with exclusive access to the session. Callers that may run
// concurrently, such as HTTP handlers, go through Do.
func (s *Session) Do(fn func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn()
}

// Ping checks the backend when it supports health checks.
func (s *Session) Ping(ctx context.Context) error {
	if p, ok := s.persister.(interface{ Ping(context.Context) error }); ok {
		return p.Ping(ctx)
	}
	return nil
}

// Close releases the backend.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.persister.Close()
}
