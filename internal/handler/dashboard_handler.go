package handler

import (
	"time"

	"pos-backoffice/internal/service"

	"github.com/gofiber/fiber/v2"
)

type DashboardHandler struct {
	service service.DashboardService
}

func NewDashboardHandler(s service.DashboardService) *DashboardHandler {
	return &DashboardHandler{service: s}
}

// GetSalesReport returns revenue, daily sales and best sellers.
// Query params: range (7d, 1m, 3m, 6m, 12m; default 7d)
func (h *DashboardHandler) GetSalesReport(c *fiber.Ctx) error {
	now := time.Now()
	var startDate time.Time

	switch c.Query("range", "7d") {
	case "1m":
		startDate = now.AddDate(0, -1, 0)
	case "3m":
		startDate = now.AddDate(0, -3, 0)
	case "6m":
		startDate = now.AddDate(0, -6, 0)
	case "12m":
		startDate = now.AddDate(0, -12, 0)
	default:
		startDate = now.AddDate(0, 0, -7)
	}

	report, err := h.service.GetSalesReport(startDate, now)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(report)
}

// GetStockStats returns overview statistics
func (h *DashboardHandler) GetStockStats(c *fiber.Ctx) error {
	stats, err := h.service.GetStockStats()
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(stats)
}
