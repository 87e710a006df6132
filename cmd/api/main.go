package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"pos-backoffice/internal/config"
	"pos-backoffice/internal/handler"
	"pos-backoffice/internal/metrics"
	"pos-backoffice/internal/middleware"
	"pos-backoffice/internal/model"
	"pos-backoffice/internal/notify"
	"pos-backoffice/internal/repository"
	"pos-backoffice/internal/service"
	"pos-backoffice/internal/ws"
	"pos-backoffice/pkg/database"
	"pos-backoffice/pkg/jwt"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"gorm.io/gorm"
)

func main() {
	// 1. Load config
	cfg := config.Load()
	jwt.SetSecret(cfg.JWTSecret)

	// 2. Setup Database
	db, err := database.Connect(cfg.DBDriver, cfg.DatabaseURL)
	if err != nil {
		log.Fatal(err)
	}
	if err := repository.Migrate(db); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	// 3. Seed admin user and reference rows
	seedDefaults(db, cfg)

	// 4. Event fan-out: websocket hub, plus redis when configured
	wsHub := ws.NewHub()
	go wsHub.Run()

	publishers := notify.Multi{wsHub}
	if cfg.RedisAddr != "" {
		client, err := notify.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			log.Printf("Warning: redis unavailable, events stay local: %v", err)
		} else {
			rp := notify.NewRedisPublisher(client, cfg.RedisChannel)
			defer rp.Close()
			publishers = append(publishers, rp)
			log.Printf("Publishing events to redis channel %s", cfg.RedisChannel)
		}
	}

	metrics.Init()
	appLog := log.New(os.Stdout, "[pos] ", log.LstdFlags)

	// 5. Dependency Injection (Wiring Layers)
	productRepo := repository.NewProductRepo(db)
	saleRepo := repository.NewSaleRepo(db)
	refRepo := repository.NewReferenceRepo(db)
	userRepo := repository.NewUserRepo(db)
	reportRepo := repository.NewReportRepo(db)

	saleService := service.NewSaleService(saleRepo, productRepo, refRepo, db, publishers, appLog,
		service.SaleServiceOptions{RestoreStockOnDelete: cfg.RestoreStockOnDelete})
	productService := service.NewProductService(productRepo, db, publishers, appLog)
	authService := service.NewAuthService(userRepo)

	routes := &handler.Routes{
		AuthService: authService,
		Hub:         wsHub,
		Auth:        handler.NewAuthHandler(authService),
		Sales:       handler.NewSaleHandler(saleService),
		Products:    handler.NewProductHandler(productService),
		Reference:   handler.NewReferenceHandler(refRepo),
		Dashboard:   handler.NewDashboardHandler(service.NewDashboardService(reportRepo)),
	}

	// 6. Setup Fiber
	app := fiber.New(fiber.Config{
		AppName: cfg.AppName,
	})

	app.Use(logger.New())
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{AllowOrigins: cfg.CORSOrigins}))
	app.Use(middleware.PrometheusMiddleware())

	// 7. Routes
	routes.Register(app)

	// 8. Graceful Shutdown
	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Panic(err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	if err := app.Shutdown(); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exited")
}

// seedDefaults creates the admin account, a walk-in customer and a main store
// when they do not exist yet.
func seedDefaults(db *gorm.DB, cfg *config.Config) {
	userRepo := repository.NewUserRepo(db)
	refRepo := repository.NewReferenceRepo(db)

	if _, err := userRepo.FindByEmail(cfg.SeedAdminEmail); err != nil {
		admin := &model.User{
			Email:    cfg.SeedAdminEmail,
			FullName: "Administrator",
			Role:     model.RoleAdmin,
			IsActive: true,
		}
		admin.CreatedBy = "system"
		admin.UpdatedBy = "system"

		if err := admin.SetPassword(cfg.SeedAdminPassword); err != nil {
			log.Printf("Warning: Failed to hash admin password: %v", err)
		} else if err := userRepo.Create(admin); err != nil {
			log.Printf("Warning: Failed to create admin user: %v", err)
		} else {
			log.Printf("✅ Admin user created: %s", cfg.SeedAdminEmail)
		}
	}

	if _, err := refRepo.FindStoreByCode("MAIN"); err != nil {
		store := &model.Store{Name: "Main Store", Code: "MAIN"}
		store.CreatedBy = "system"
		if err := refRepo.CreateStore(store); err != nil {
			log.Printf("Warning: Failed to create default store: %v", err)
		}
	}

	if _, err := refRepo.FindCustomerByName("Walk-in Customer"); err != nil {
		customer := &model.Customer{Name: "Walk-in Customer"}
		customer.CreatedBy = "system"
		if err := refRepo.CreateCustomer(customer); err != nil {
			log.Printf("Warning: Failed to create walk-in customer: %v", err)
		}
	}
}
