// Package httpapi serves an admin session over HTTP with fiber. Every
// handler runs inside the session lock, so requests are applied one at a
// time in arrival order.
package httpapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mesh-intelligence/backoffice/internal/admin"
	"github.com/mesh-intelligence/backoffice/pkg/types"
)

type server struct {
	session  *admin.Session
	logger   *slog.Logger
	gatherer prometheus.Gatherer
}

// Option configures the app.
type Option func(*server)

// WithLogger sets the request logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *server) { s.logger = l }
}

// WithGatherer exposes the metrics of g on /metrics.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(s *server) { s.gatherer = g }
}

// New builds the fiber app for session.
func New(session *admin.Session, opts ...Option) *fiber.App {
	s := &server{session: session, logger: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		opt(s)
	}

	app := fiber.New(fiber.Config{
		AppName:               "backoffice",
		DisableStartupMessage: true,
		Immutable:             true,
		ErrorHandler:          s.handleError,
	})
	app.Use(recover.New())
	app.Use(s.logRequests)

	app.Get("/healthz", s.health)
	if s.gatherer != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})))
	}

	api := app.Group("/api")
	api.Get("/entities", s.listEntities)
	api.Get("/notifications", s.drainNotifications)

	api.Get("/:entity", s.listRecords)
	api.Post("/:entity", s.createRecord)
	api.Post("/:entity/reset-order", s.resetOrder)

	api.Get("/:entity/selection", s.getSelection)
	api.Delete("/:entity/selection", s.clearSelection)
	api.Post("/:entity/selection/all", s.selectAll)
	api.Post("/:entity/selection/delete", s.deleteSelection)
	api.Post("/:entity/selection/:id", s.toggleSelection)

	api.Get("/:entity/:id", s.getRecord)
	api.Patch("/:entity/:id", s.updateRecord)
	api.Delete("/:entity/:id", s.deleteRecord)
	api.Post("/:entity/:id/move", s.moveRecord)

	return app
}

func (s *server) logRequests(c *fiber.Ctx) error {
	start := time.Now()
	err := c.Next()
	status := c.Response().StatusCode()
	if err != nil {
		status = statusOf(err)
	}
	s.logger.Debug("request", "method", c.Method(), "path", c.Path(), "status", status, "duration", time.Since(start))
	return err
}

// page resolves the :entity parameter.
func (s *server) page(c *fiber.Ctx) (*admin.Page, error) {
	entity, err := types.ParseEntity(c.Params("entity"))
	if err != nil {
		return nil, err
	}
	return s.session.Page(entity)
}

// filterFromQuery reads q, sort and facet parameters. Parameters that are
// not facets of the entity are ignored.
func filterFromQuery(c *fiber.Ctx, schema types.Schema) types.FilterState {
	f := types.FilterState{Search: c.Query("q"), SortBy: c.Query("sort")}
	for k, v := range c.Queries() {
		if schema.HasFacet(k) {
			f = f.WithFacet(k, v)
		}
	}
	return f
}

// decodeFields reads a JSON object body.
func decodeFields(c *fiber.Ctx) (map[string]any, error) {
	body := c.Body()
	if len(bytes.TrimSpace(body)) == 0 {
		return map[string]any{}, nil
	}
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var fields map[string]any
	if err := dec.Decode(&fields); err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, fmt.Sprintf("request body must be a JSON object: %v", err))
	}
	return fields, nil
}
