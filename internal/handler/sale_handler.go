package handler

import (
	"pos-backoffice/internal/middleware"
	"pos-backoffice/internal/service"

	"github.com/gofiber/fiber/v2"
)

type SaleHandler struct {
	service service.SaleService
}

func NewSaleHandler(s service.SaleService) *SaleHandler {
	return &SaleHandler{service: s}
}

// GET /api/sales
func (h *SaleHandler) GetSales(c *fiber.Ctx) error {
	sales, err := h.service.ListSales()
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(sales)
}

// GET /api/sales/:id
func (h *SaleHandler) GetSale(c *fiber.Ctx) error {
	sale, err := h.service.GetSaleWithItems(c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(sale)
}

// CreateSale stores a sale and its items and takes their quantities out of stock.
// POST /api/sales
func (h *SaleHandler) CreateSale(c *fiber.Ctx) error {
	var req service.SaleRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON", "details": err.Error()})
	}

	sale, err := h.service.CreateSale(c.UserContext(), &req, middleware.Actor(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(201).JSON(sale)
}

// PUT /api/sales/:id
func (h *SaleHandler) UpdateSale(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return respondError(c, err)
	}

	var req service.SaleRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON", "details": err.Error()})
	}

	sale, err := h.service.UpdateSale(c.UserContext(), id, &req, middleware.Actor(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(sale)
}

// DELETE /api/sales/:id
func (h *SaleHandler) DeleteSale(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return respondError(c, err)
	}

	if err := h.service.DeleteSale(c.UserContext(), id, middleware.Actor(c)); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Sale deleted", "id": id})
}
