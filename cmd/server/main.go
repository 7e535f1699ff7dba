package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"bilet-lending/internal/adapters/http/middleware"
	"bilet-lending/internal/adapters/http/routes"
	"bilet-lending/internal/adapters/persistence/models"
	"bilet-lending/internal/adapters/persistence/repositories"
	"bilet-lending/internal/config"
	"bilet-lending/internal/core/services"

	"github.com/gofiber/fiber/v2"
	jsoniter "github.com/json-iterator/go"

	_ "bilet-lending/docs" // Swagger docs
)

// @title Bilet Lending API
// @version 1.0
// @description Library lending, renewals, inventory and events API

// @contact.name API Support
// @contact.email support@bilet.example.org

// @license.name Apache 2.0
// @license.url http://www.apache.org/licenses/LICENSE-2.0.html

// @BasePath /api/v1
// @schemes http https

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Failed to load configuration: %v", err)
	}

	// Connect to database
	db, err := config.ConnectDatabase(cfg)
	if err != nil {
		log.Fatalf("❌ Failed to connect to database: %v", err)
	}
	defer config.CloseDatabase()

	// Auto migrate (creates tables if not exist)
	if err := models.AutoMigrate(db); err != nil {
		log.Fatalf("❌ Failed to auto migrate: %v", err)
	}
	log.Println("✅ Database migration completed")

	store := repositories.NewGormStore(db)
	svc := services.NewContainer(store, services.Options{
		JWTSecret:        cfg.JWT.Secret,
		RefreshSecret:    cfg.JWT.RefreshSecret,
		TokenMinutes:     cfg.JWT.AccessTokenMins,
		RefreshDays:      cfg.JWT.RefreshTokenDays,
		LoanDays:         cfg.Lending.LoanDays,
		RenewalMax:       cfg.Lending.RenewalMax,
		RenewalDays:      cfg.Lending.RenewalDays,
		NotifyWorkers:    cfg.Notification.Workers,
		NotifyQueueSize:  cfg.Notification.QueueSize,
		NotifyWebhookURL: cfg.Notification.WebhookURL,
		RefreshSpec:      cfg.Cron.RefreshSpec,
		ReminderSpec:     cfg.Cron.ReminderSpec,
		CleanupSpec:      cfg.Cron.CleanupSpec,
	})
	defer svc.Close()

	if cfg.IsDev() {
		if err := config.NewSeeder(store, svc.Users).Run(context.Background(), true); err != nil {
			log.Printf("⚠️ Warning: Failed to seed data: %v", err)
		}
	}

	// Nightly status refresh and due-soon reminders
	if cfg.Cron.Enabled {
		if err := svc.Cron.Start(); err != nil {
			log.Fatalf("❌ Failed to start cron: %v", err)
		}
		defer svc.Cron.Stop()
	}

	// Create Fiber app
	app := fiber.New(fiber.Config{
		AppName:      "Bilet Lending API v1.0",
		ErrorHandler: middleware.CustomErrorHandler,
		JSONEncoder:  jsoniter.ConfigCompatibleWithStandardLibrary.Marshal,
		JSONDecoder:  jsoniter.ConfigCompatibleWithStandardLibrary.Unmarshal,
	})

	// Setup middlewares
	middleware.Setup(app, cfg)

	// Setup routes
	routes.Setup(app, store, svc, cfg)

	// Graceful shutdown
	go gracefulShutdown(app)

	// Start server
	log.Printf("🚀 Server starting on port %s [MODE: %s]", cfg.Port, cfg.AppMode)
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatalf("❌ Failed to start server: %v", err)
	}
}

// gracefulShutdown handles graceful shutdown
func gracefulShutdown(app *fiber.App) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("🛑 Shutting down server...")
	if err := app.Shutdown(); err != nil {
		log.Printf("❌ Error during shutdown: %v", err)
	}
	log.Println("✅ Server stopped gracefully")
}
