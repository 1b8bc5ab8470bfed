package httpapi

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/mesh-intelligence/backoffice/pkg/types"
)

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Error  string   `json:"error"`
	Fields []string `json:"fields,omitempty"`
}

// statusOf maps domain errors to HTTP status codes.
func statusOf(err error) int {
	var fe *fiber.Error
	switch {
	case errors.As(err, &fe):
		return fe.Code
	case errors.Is(err, types.ErrValidation):
		return fiber.StatusUnprocessableEntity
	case errors.Is(err, types.ErrNotFound), errors.Is(err, types.ErrUnknownEntity):
		return fiber.StatusNotFound
	case errors.Is(err, types.ErrInvalidPosition),
		errors.Is(err, types.ErrInvalidID),
		errors.Is(err, types.ErrInvalidTransition),
		errors.Is(err, types.ErrNothingPending):
		return fiber.StatusBadRequest
	}
	return fiber.StatusInternalServerError
}

func (s *server) handleError(c *fiber.Ctx, err error) error {
	code := statusOf(err)
	body := errorBody{Error: err.Error()}
	var verr *types.ValidationError
	if errors.As(err, &verr) {
		body.Fields = verr.Fields
	}
	if code >= fiber.StatusInternalServerError {
		s.logger.Error("request failed", "method", c.Method(), "path", c.Path(), "error", err)
		body.Error = "internal error"
	}
	return c.Status(code).JSON(body)
}
