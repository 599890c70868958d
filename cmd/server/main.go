package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	swagger "github.com/gofiber/swagger"
	_ "github.com/joho/godotenv/autoload"
	"golang.org/x/sync/errgroup"

	"github.com/localnerve/compliance-registry/internal/config"
	"github.com/localnerve/compliance-registry/internal/database"
	"github.com/localnerve/compliance-registry/internal/handlers"
	"github.com/localnerve/compliance-registry/internal/middleware"
	"github.com/localnerve/compliance-registry/internal/notify"
	"github.com/localnerve/compliance-registry/internal/services"
	"github.com/localnerve/compliance-registry/internal/types"

	_ "github.com/localnerve/compliance-registry/docs/api" // Swagger docs
)

// @title Compliance Registry API
// @version 1.0.0
// @description Go Fiber compliance tracking data service with email reminders
// @termsOfService http://swagger.io/terms/

// @contact.name API Support
// @contact.url https://github.com/localnerve/compliance-registry
// @contact.email info@localnerve.com

// @license.name AGPL-3.0
// @license.url https://www.gnu.org/licenses/agpl-3.0.html

// @host localhost:3001
// @BasePath /
// @schemes http https

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Connect to database
	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close(db)

	// Run auto-migrations and seed default categories
	if err := database.AutoMigrate(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	if err := database.SeedCategories(db); err != nil {
		log.Fatalf("Failed to seed categories: %v", err)
	}

	// Process-lifetime session store; sessions do not survive restart.
	sessions := services.NewSessionStore()

	// Reminder pipeline
	mailer := notify.NewSMTPMailer(cfg)
	if !cfg.MailConfigured() {
		log.Println("SMTP not configured; reminder mail will be logged only")
	}
	dispatcher := notify.NewDispatcher(db, mailer, cfg.ReminderWindow)
	scheduler := notify.NewScheduler(db, dispatcher, cfg.ReminderInterval)

	// Create Fiber app
	app := fiber.New(fiber.Config{
		ErrorHandler: customErrorHandler,
	})

	// Global middleware
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(compress.New())

	// Prometheus metrics
	prometheus := fiberprometheus.New("compliance_registry")
	prometheus.RegisterAt(app, "/metrics")
	app.Use(prometheus.Middleware)

	// Swagger documentation
	app.Get("/swagger/*", swagger.HandlerDefault)

	// Create handlers
	authHandler := &handlers.AuthHandler{DB: db, Sessions: sessions}
	categoryHandler := &handlers.CategoryHandler{DB: db}
	itemHandler := &handlers.ItemHandler{DB: db}
	healthHandler := &handlers.HealthHandler{Config: cfg, DB: db}

	authRequired := middleware.AuthRequired(sessions)

	// Auth routes
	auth := app.Group("/auth")
	auth.Post("/signup", authHandler.Signup)
	auth.Post("/login", authHandler.Login)
	auth.Post("/logout", authRequired, authHandler.Logout)
	auth.Get("/user", authRequired, authHandler.CurrentUser)

	// Category routes
	app.Get("/categories", authRequired, categoryHandler.GetCategories)
	app.Post("/categories", authRequired, categoryHandler.CreateCategory)

	// Item routes
	app.Get("/items", authRequired, itemHandler.GetItems)
	app.Get("/items/export", authRequired, itemHandler.ExportItems)
	app.Post("/items", authRequired, itemHandler.CreateItem)
	app.Patch("/items", authRequired, itemHandler.UpdateItem)
	app.Delete("/items", authRequired, itemHandler.DeleteItem)

	// Liveness, no auth
	app.Get("/health", healthHandler.Health)

	// 404 handler
	app.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"status":    fiber.StatusNotFound,
			"message":   "[404] Resource Not Found",
			"ok":        false,
			"timestamp": time.Now().UTC().Format(time.RFC3339),
			"url":       c.OriginalURL(),
		})
	})

	// Run the server and the reminder scheduler until a signal arrives
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Printf("Starting server on port %s", cfg.Port)
		return app.Listen(":" + cfg.Port)
	})

	g.Go(func() error {
		return scheduler.Run(gctx)
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Println("Gracefully shutting down...")
		return app.Shutdown()
	})

	if err := g.Wait(); err != nil {
		log.Fatalf("Server error: %v", err)
	}

	log.Println("Server stopped")
}

// customErrorHandler handles errors globally
func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := err.Error()
	errorType := "unknown"

	// Check if it's a Fiber error
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	// Middleware raises typed errors
	if e, ok := err.(*types.CustomError); ok {
		code = e.Code
		message = e.Message
		errorType = e.Type
	}

	return c.Status(code).JSON(fiber.Map{
		"status":    code,
		"message":   message,
		"ok":        false,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"url":       c.OriginalURL(),
		"type":      errorType,
	})
}
