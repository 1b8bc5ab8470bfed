package httpapi

import (
	"github.com/gofiber/fiber/v2"

	"github.com/mesh-intelligence/backoffice/internal/admin"
	"github.com/mesh-intelligence/backoffice/internal/mutation"
	"github.com/mesh-intelligence/backoffice/pkg/types"
)

type entitySummary struct {
	Entity    types.Entity `json:"entity"`
	Label     string       `json:"label"`
	Path      string       `json:"path"`
	Records   int          `json:"records"`
	Facets    []string     `json:"facets,omitempty"`
	Orderable bool         `json:"orderable"`
}

type listResponse struct {
	Records  []types.Record `json:"records"`
	Total    int            `json:"total"`
	Selected []string       `json:"selected"`
}

type moveRequest struct {
	Index *int `json:"index"`
}

type moveResponse struct {
	Moved bool     `json:"moved"`
	IDs   []string `json:"ids"`
}

type selectionResponse struct {
	Selected []string `json:"selected"`
}

func (s *server) health(c *fiber.Ctx) error {
	if err := s.session.Ping(c.UserContext()); err != nil {
		return fiber.NewError(fiber.StatusServiceUnavailable, err.Error())
	}
	return c.JSON(fiber.Map{"status": "ok"})
}

func (s *server) listEntities(c *fiber.Ctx) error {
	var out []entitySummary
	err := s.session.Do(func() error {
		for _, p := range s.session.Pages() {
			out = append(out, entitySummary{
				Entity:    p.Schema.Entity,
				Label:     p.Schema.Label,
				Path:      p.Schema.ListPath(),
				Records:   p.Store.Len(),
				Facets:    p.Schema.Facets,
				Orderable: p.Schema.Orderable(),
			})
		}
		return nil
	})
	if err != nil {
		return err
	}
	return c.JSON(out)
}

func (s *server) drainNotifications(c *fiber.Ctx) error {
	notes := s.session.Notifications().Drain()
	if notes == nil {
		notes = []mutation.Notification{}
	}
	return c.JSON(notes)
}

func (s *server) listRecords(c *fiber.Ctx) error {
	var resp listResponse
	err := s.withPage(c, func(p *admin.Page) error {
		p.SetFilter(filterFromQuery(c, p.Schema))
		resp = listResponse{
			Records:  nonNil(p.Visible()),
			Total:    p.Store.Len(),
			Selected: p.SelectedIDs(),
		}
		return nil
	})
	if err != nil {
		return err
	}
	return c.JSON(resp)
}

func (s *server) getRecord(c *fiber.Ctx) error {
	var rec types.Record
	err := s.withPage(c, func(p *admin.Page) (err error) {
		rec, err = p.Store.Get(c.Params("id"))
		return err
	})
	if err != nil {
		return err
	}
	return c.JSON(rec)
}

func (s *server) createRecord(c *fiber.Ctx) error {
	fields, err := decodeFields(c)
	if err != nil {
		return err
	}
	var rec types.Record
	err = s.withPage(c, func(p *admin.Page) error {
		pos, err := types.ParsePosition(c.Query("position"), p.Schema.Insert)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		rec, err = p.Mutations.Create(c.UserContext(), fields, pos)
		return err
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(rec)
}

func (s *server) updateRecord(c *fiber.Ctx) error {
	patch, err := decodeFields(c)
	if err != nil {
		return err
	}
	var rec types.Record
	err = s.withPage(c, func(p *admin.Page) (err error) {
		rec, err = p.Mutations.Update(c.UserContext(), c.Params("id"), patch)
		return err
	})
	if err != nil {
		return err
	}
	return c.JSON(rec)
}

func (s *server) deleteRecord(c *fiber.Ctx) error {
	err := s.withPage(c, func(p *admin.Page) error {
		return p.Mutations.Remove(c.UserContext(), c.Params("id"))
	})
	if err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (s *server) moveRecord(c *fiber.Ctx) error {
	var req moveRequest
	if err := c.BodyParser(&req); err != nil || req.Index == nil {
		return fiber.NewError(fiber.StatusBadRequest, `request body must be {"index": <n>}`)
	}
	var resp moveResponse
	err := s.withPage(c, func(p *admin.Page) error {
		moved, err := p.Reorder.Move(c.UserContext(), c.Params("id"), *req.Index)
		if err != nil {
			return err
		}
		resp = moveResponse{Moved: moved, IDs: p.Store.IDs()}
		return nil
	})
	if err != nil {
		return err
	}
	return c.JSON(resp)
}

func (s *server) resetOrder(c *fiber.Ctx) error {
	var ids []string
	err := s.withPage(c, func(p *admin.Page) error {
		if err := p.Reorder.Reset(c.UserContext()); err != nil {
			return err
		}
		ids = p.Store.IDs()
		return nil
	})
	if err != nil {
		return err
	}
	return c.JSON(moveResponse{Moved: true, IDs: ids})
}

func (s *server) getSelection(c *fiber.Ctx) error {
	return s.selection(c, func(*admin.Page) error { return nil })
}

func (s *server) toggleSelection(c *fiber.Ctx) error {
	return s.selection(c, func(p *admin.Page) error {
		id := c.Params("id")
		if !p.Store.Has(id) && !p.Selection.Has(id) {
			return fiber.NewError(fiber.StatusNotFound, "record "+id+" not found")
		}
		p.Selection.Toggle(id)
		return nil
	})
}

func (s *server) selectAll(c *fiber.Ctx) error {
	return s.selection(c, func(p *admin.Page) error {
		p.SetFilter(filterFromQuery(c, p.Schema))
		p.SelectAllVisible()
		return nil
	})
}

func (s *server) clearSelection(c *fiber.Ctx) error {
	return s.selection(c, func(p *admin.Page) error {
		p.Selection.Clear()
		return nil
	})
}

func (s *server) deleteSelection(c *fiber.Ctx) error {
	return s.selection(c, func(p *admin.Page) error {
		return p.RemoveSelected(c.UserContext())
	})
}

func (s *server) selection(c *fiber.Ctx, fn func(*admin.Page) error) error {
	var resp selectionResponse
	err := s.withPage(c, func(p *admin.Page) error {
		if err := fn(p); err != nil {
			return err
		}
		resp.Selected = p.SelectedIDs()
		return nil
	})
	if err != nil {
		return err
	}
	return c.JSON(resp)
}

// withPage runs fn on the page of the request under the session lock.
func (s *server) withPage(c *fiber.Ctx, fn func(*admin.Page) error) error {
	return s.session.Do(func() error {
		p, err := s.page(c)
		if err != nil {
			return err
		}
		return fn(p)
	})
}

func nonNil(records []types.Record) []types.Record {
	if records == nil {
		return []types.Record{}
	}
	return records
}
