package handler

import (
	"errors"

	"pos-backoffice/pkg/apperr"
	"pos-backoffice/pkg/validator"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// respondError maps the service error taxonomy onto status codes.
func respondError(c *fiber.Ctx, err error) error {
	var verr *apperr.ValidationError
	var serr *apperr.InsufficientStockError
	var perr *apperr.PersistenceError

	switch {
	case errors.As(err, &serr):
		return c.Status(400).JSON(fiber.Map{
			"error":        serr.Error(),
			"code":         "insufficient_stock",
			"product_id":   serr.ProductID,
			"product_name": serr.ProductName,
			"requested":    serr.Requested,
			"available":    serr.Available,
		})
	case errors.As(err, &verr):
		return c.Status(400).JSON(fiber.Map{
			"error": verr.Error(),
			"code":  "validation_error",
			"field": verr.Field,
		})
	case errors.Is(err, apperr.ErrNotFound):
		return c.Status(404).JSON(fiber.Map{"error": err.Error(), "code": "not_found"})
	case errors.As(err, &perr):
		return c.Status(500).JSON(fiber.Map{
			"error":   "Internal Server Error",
			"details": perr.Error(),
		})
	default:
		return c.Status(500).JSON(fiber.Map{
			"error":   "Internal Server Error",
			"details": err.Error(),
		})
	}
}

// pathID reads a canonical uuid route parameter.
func pathID(c *fiber.Ctx) (uuid.UUID, error) {
	return validator.ParseID("id", c.Params("id"))
}
