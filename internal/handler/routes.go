package handler

import (
	"pos-backoffice/internal/middleware"
	"pos-backoffice/internal/model"
	"pos-backoffice/internal/service"
	"pos-backoffice/internal/ws"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Routes struct {
	AuthService service.AuthService
	Hub         *ws.Hub

	Auth      *AuthHandler
	Sales     *SaleHandler
	Products  *ProductHandler
	Reference *ReferenceHandler
	Dashboard *DashboardHandler
}

func (r *Routes) Register(app *fiber.App) {
	app.Get("/", func(c *fiber.Ctx) error {
		return c.SendString("POS Backend API is running")
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	api := app.Group("/api")
	requireAuth := middleware.RequireAuth(r.AuthService)

	// ============ PUBLIC ROUTES ============
	auth := api.Group("/auth")
	auth.Post("/login", r.Auth.Login)
	auth.Get("/me", requireAuth, r.Auth.Me)
	auth.Post("/heartbeat", requireAuth, r.Auth.Heartbeat)

	// ============ PROTECTED ROUTES ============
	protected := api.Group("", requireAuth)

	protected.Get("/sales", middleware.RequirePrivilege(model.PrivSaleView), r.Sales.GetSales)
	protected.Get("/sales/:id", middleware.RequirePrivilege(model.PrivSaleView), r.Sales.GetSale)
	protected.Post("/sales", middleware.RequirePrivilege(model.PrivSaleCreate), r.Sales.CreateSale)
	protected.Put("/sales/:id", middleware.RequirePrivilege(model.PrivSaleUpdate), r.Sales.UpdateSale)
	protected.Delete("/sales/:id", middleware.RequirePrivilege(model.PrivSaleDelete), r.Sales.DeleteSale)

	protected.Get("/products", middleware.RequirePrivilege(model.PrivProductView), r.Products.GetProducts)
	protected.Get("/products/:id", middleware.RequirePrivilege(model.PrivProductView), r.Products.GetProduct)
	protected.Post("/products", middleware.RequirePrivilege(model.PrivProductCreate), r.Products.CreateProduct)
	protected.Put("/products/:id", middleware.RequirePrivilege(model.PrivProductUpdate), r.Products.UpdateProduct)
	protected.Post("/products/:id/restock", middleware.RequirePrivilege(model.PrivProductUpdate), r.Products.Restock)

	protected.Get("/dashboard/sales", middleware.RequirePrivilege(model.PrivSaleView), r.Dashboard.GetSalesReport)
	protected.Get("/dashboard/stock", middleware.RequirePrivilege(model.PrivProductView), r.Dashboard.GetStockStats)

	protected.Get("/customers", r.Reference.GetCustomers)
	protected.Get("/stores", r.Reference.GetStores)

	if r.Hub != nil {
		app.Use("/ws", func(c *fiber.Ctx) error {
			if websocket.IsWebSocketUpgrade(c) {
				return c.Next()
			}
			return c.SendStatus(fiber.StatusUpgradeRequired)
		})
		app.Get("/ws", websocket.New(func(c *websocket.Conn) {
			r.Hub.Register <- c
			defer func() { r.Hub.Unregister <- c }()

			for {
				if _, _, err := c.ReadMessage(); err != nil {
					break
				}
			}
		}))
	}
}
