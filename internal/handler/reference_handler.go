package handler

import (
	"pos-backoffice/internal/repository"
	"pos-backoffice/pkg/apperr"

	"github.com/gofiber/fiber/v2"
)

// ReferenceHandler serves the read-only lists the sale form picks from.
type ReferenceHandler struct {
	repo repository.ReferenceRepository
}

func NewReferenceHandler(repo repository.ReferenceRepository) *ReferenceHandler {
	return &ReferenceHandler{repo: repo}
}

func (h *ReferenceHandler) GetCustomers(c *fiber.Ctx) error {
	customers, err := h.repo.ListCustomers()
	if err != nil {
		return respondError(c, apperr.Persistence("list customers", err))
	}
	return c.JSON(customers)
}

func (h *ReferenceHandler) GetStores(c *fiber.Ctx) error {
	stores, err := h.repo.ListStores()
	if err != nil {
		return respondError(c, apperr.Persistence("list stores", err))
	}
	return c.JSON(stores)
}
