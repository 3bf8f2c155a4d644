package main

import (
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"filesystem-api/internal/config"
	"filesystem-api/internal/constants"
	"filesystem-api/internal/database"
	"filesystem-api/internal/routes"
	"filesystem-api/internal/services"
	"filesystem-api/internal/storage"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/healthcheck"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
	pkgConfig "github.com/kerimovok/go-pkg-utils/config"
	pkgValidator "github.com/kerimovok/go-pkg-utils/validator"
)

func init() {
	// Load all configs
	if err := config.LoadConfig(); err != nil {
		log.Fatalf("failed to load configs: %v", err)
	}

	// Validate environment variables
	if err := pkgValidator.ValidateConfig(constants.EnvValidationRules); err != nil {
		log.Fatalf("configuration validation failed: %v", err)
	}

	// Connect to database
	if err := database.ConnectDB(); err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	// Register backing stores
	if err := storage.Setup(config.GetConfig().Storage); err != nil {
		log.Fatalf("failed to set up storage: %v", err)
	}
}

func setupApp() *fiber.App {
	app := fiber.New(fiber.Config{
		BodyLimit: 100 * 1024 * 1024, // 100MB limit for file uploads
	})

	// Middleware
	app.Use(helmet.New())
	app.Use(cors.New())
	app.Use(compress.New())
	app.Use(healthcheck.New())
	app.Use(requestid.New(requestid.Config{
		Generator: func() string {
			return uuid.New().String()
		},
	}))
	app.Use(logger.New())

	return app
}

// runOptimize is the maintenance entrypoint: optimize every image entity
// that has no derivative yet. Per-file failures are logged and skipped.
func runOptimize() {
	service := services.NewFileService(
		database.DB,
		storage.Disks,
		config.GetConfig().Storage,
		pkgConfig.GetEnv("GO_ENV"),
	)

	if err := service.OptimizeAll(log.Printf); err != nil {
		log.Fatalf("failed to run optimization batch: %v", err)
	}
	log.Println("Done!")
}

func main() {
	if len(os.Args) > 1 && os.Args[1] == "optimize" {
		runOptimize()
		return
	}

	// Setup Fiber app
	app := setupApp()

	// Setup routes
	routes.SetupRoutes(app)

	// Setup graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-quit
		log.Println("Gracefully shutting down...")

		// Shutdown the server
		if err := app.Shutdown(); err != nil {
			log.Printf("error during server shutdown: %v", err)
		}

		log.Println("Server gracefully stopped")
		os.Exit(0)
	}()

	// Start server
	if err := app.Listen(":" + pkgConfig.GetEnv("PORT")); err != nil && err != http.ErrServerClosed {
		log.Fatalf("failed to start server: %v", err)
	}
}
