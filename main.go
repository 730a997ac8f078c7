package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/streadway/amqp"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"bunga/internal/config"
	"bunga/internal/handlers"
	"bunga/internal/middleware"
	"bunga/internal/models"
	"bunga/internal/repositories"
	"bunga/internal/services"
	"bunga/pkg/blob"
	"bunga/pkg/mailer"
	"bunga/pkg/metrics"
	"bunga/pkg/rabbitmq"
)

func main() {
	cfg := config.Load()

	// --- Database ---
	db, err := openDatabase(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	if err := db.AutoMigrate(
		&models.User{},
		&models.Address{},
		&models.Product{},
		&models.ProductVariant{},
		&models.Order{},
		&models.OrderItem{},
	); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// --- Metrics recorder (per-process, injected into the repositories) ---
	recorder := metrics.NewRecorder()

	// --- RabbitMQ (optional: the app runs without a broker) ---
	var mqClient *rabbitmq.Client
	if cfg.RabbitMQURL != "" {
		mqClient, err = rabbitmq.NewClient(rabbitmq.Config{URL: cfg.RabbitMQURL})
		if err != nil {
			log.Printf("Warning: RabbitMQ unavailable, order events disabled: %v", err)
			mqClient = nil
		} else {
			defer mqClient.Close()
		}
	}

	// --- Blob storage (optional: image uploads fail gracefully without it) ---
	var blobStore services.BlobStore
	if cfg.S3Bucket != "" {
		store, err := blob.NewS3Store(context.Background(), blob.Config{
			Bucket:   cfg.S3Bucket,
			Region:   cfg.S3Region,
			Key:      cfg.S3Key,
			Secret:   cfg.S3Secret,
			Endpoint: cfg.S3Endpoint,
			BaseURL:  cfg.S3BaseURL,
		})
		if err != nil {
			log.Printf("Warning: blob storage unavailable, image uploads disabled: %v", err)
		} else {
			blobStore = store
		}
	}

	// --- Outbound mail (optional) ---
	var orderMailer services.OrderMailer
	if m := mailer.New(mailer.Config{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		From:     cfg.SMTPFrom,
	}); m != nil {
		orderMailer = m
	}

	// --- Repositories ---
	userRepo := repositories.NewGORMUserRepository(db, recorder)
	productRepo := repositories.NewGORMProductRepository(db, recorder)
	orderRepo := repositories.NewGORMOrderRepository(db, recorder)

	// --- Services ---
	var publisher services.EventPublisher
	if mqClient != nil {
		publisher = mqClient
	}
	authService := services.NewAuthService(userRepo, cfg.JWTSecret)
	userService := services.NewUserService(userRepo)
	productService := services.NewProductService(productRepo, blobStore)
	cartService := services.NewCartService(orderRepo, productRepo)
	orderService := services.NewOrderService(orderRepo, userRepo, publisher, orderMailer)

	// --- Handlers ---
	authHandler := handlers.NewAuthHandler(authService)
	userHandler := handlers.NewUserHandler(userService)
	adminHandler := handlers.NewAdminHandler(userService)
	productHandler := handlers.NewProductHandler(productService)
	cartHandler := handlers.NewCartHandler(cartService)
	orderHandler := handlers.NewOrderHandler(orderService)

	// --- Fiber app ---
	app := fiber.New()
	app.Use(recover.New())
	app.Use(logger.New()) // Request logger

	apiV1 := app.Group("/api/v1")

	// Public routes
	authHandler.RegisterRoutes(apiV1)
	productHandler.RegisterPublicRoutes(
		apiV1.Group("", middleware.OptionalAuth(authService, userRepo)))

	// Authenticated routes
	protected := apiV1.Group("", middleware.AuthRequired(authService, userRepo))
	userHandler.RegisterRoutes(protected)
	cartHandler.RegisterRoutes(protected)
	orderHandler.RegisterRoutes(protected)

	// Admin routes
	admin := apiV1.Group("/admin",
		middleware.AuthRequired(authService, userRepo), middleware.AdminRequired())
	adminHandler.RegisterRoutes(admin)
	productHandler.RegisterAdminRoutes(admin)

	// --- Health Check Endpoint ---
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	// --- Prometheus scrape endpoint ---
	app.Get("/metrics", adaptor.HTTPHandler(recorder.Handler()))

	// --- Development-only metrics inspection ---
	if !cfg.IsProduction() {
		app.Get("/debug/metrics", func(c *fiber.Ctx) error {
			if types := c.Query("types"); types != "" {
				return c.JSON(recorder.ByTypes(strings.Split(types, ",")...))
			}
			return c.JSON(recorder.All())
		})
		app.Delete("/debug/metrics", func(c *fiber.Ctx) error {
			recorder.Clear()
			return c.SendStatus(fiber.StatusNoContent)
		})
	}

	// --- Order events consumer ---
	if mqClient != nil {
		log.Println("Starting RabbitMQ consumer for order events...")
		messageHandler := func(msg amqp.Delivery) error {
			log.Printf("Received order event %s: %s", msg.RoutingKey, string(msg.Body))
			return nil
		}
		if consumerErr := mqClient.ConsumeOrderEvents(messageHandler); consumerErr != nil {
			log.Printf("Failed to start RabbitMQ consumer: %v", consumerErr)
		}
	}

	// --- Start HTTP Server ---
	log.Printf("Starting server on port %s", cfg.AppPort)

	// Graceful shutdown handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := app.Listen(cfg.AppPort); err != nil {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	<-quit
	log.Println("Shutting down server...")

	if err := app.Shutdown(); err != nil {
		log.Printf("Error during Fiber shutdown: %v", err)
	}
	log.Println("Server gracefully stopped")
}

// openDatabase connects to PostgreSQL when DATABASE_URL is set and falls back
// to a local SQLite file for development.
func openDatabase(cfg *config.Config) (*gorm.DB, error) {
	if cfg.DatabaseURL != "" {
		return gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{})
	}
	log.Println("DATABASE_URL not set, using local SQLite database bunga.db")
	return gorm.Open(sqlite.Open("bunga.db"), &gorm.Config{})
}
