// Package app wires configuration, storage, brokers and HTTP handlers into a
// runnable API server.
package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"storefront/internal/config"
	"storefront/internal/database"
	"storefront/internal/handlers"
	"storefront/internal/middleware"
	"storefront/internal/repositories"
	"storefront/internal/services"
	"storefront/pkg/rabbitmq"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/plutov/paypal/v4"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Deps are the external collaborators of the server. Nil fields are filled
// in from the configuration by New; tests inject their own.
type Deps struct {
	DB        *gorm.DB
	Gateway   services.PaymentGateway
	Blocklist repositories.TokenBlocklist
	Events    services.EventPublisher
}

// App is a fully wired API server.
type App struct {
	Fiber   *fiber.App
	DB      *gorm.DB
	cfg     *config.Config
	mq      *rabbitmq.Client
	closers []func() error
}

// New connects to every backing service named in cfg and builds the server.
func New(cfg *config.Config) (*App, error) {
	var (
		deps    Deps
		closers []func() error
		mq      *rabbitmq.Client
	)
	fail := func(err error) (*App, error) {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
		return nil, err
	}

	db, err := database.Open(cfg.DatabaseDriver, cfg.DatabaseDSN)
	if err != nil {
		return fail(err)
	}
	if err := database.Migrate(db); err != nil {
		return fail(err)
	}
	deps.DB = db
	closers = append(closers, func() error {
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		return sqlDB.Close()
	})

	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return fail(fmt.Errorf("invalid REDIS_URL: %w", err))
		}
		rdb := redis.NewClient(opts)
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err = rdb.Ping(ctx).Err()
		cancel()
		if err != nil {
			rdb.Close()
			return fail(fmt.Errorf("failed to connect to Redis: %w", err))
		}
		log.Println("Connected to Redis token blocklist")
		deps.Blocklist = repositories.NewRedisTokenBlocklist(rdb)
		closers = append(closers, rdb.Close)
	}

	gateway, err := newPayPalGateway(cfg)
	if err != nil {
		return fail(err)
	}
	deps.Gateway = gateway

	if cfg.RabbitMQURL != "" {
		mq, err = rabbitmq.NewClient(rabbitmq.Config{URL: cfg.RabbitMQURL})
		if err != nil {
			return fail(err)
		}
		deps.Events = mq
		closers = append(closers, mq.Close)
	} else {
		log.Println("RABBITMQ_URL is not set. Order events are disabled.")
	}

	a := NewWithDeps(cfg, deps)
	a.mq = mq
	a.closers = closers
	return a, nil
}

func newPayPalGateway(cfg *config.Config) (services.PaymentGateway, error) {
	if cfg.PayPalClientID == "" || cfg.PayPalSecret == "" {
		log.Println("PayPal credentials are not set. PayPal checkout is disabled.")
		return disabledGateway{}, nil
	}
	base := paypal.APIBaseSandBox
	if cfg.PayPalMode == "live" {
		base = paypal.APIBaseLive
	}
	client, err := paypal.NewClient(cfg.PayPalClientID, cfg.PayPalSecret, base)
	if err != nil {
		return nil, fmt.Errorf("failed to create PayPal client: %w", err)
	}
	return client, nil
}

var errPayPalDisabled = errors.New("PayPal checkout is not configured")

type disabledGateway struct{}

func (disabledGateway) CreateOrder(context.Context, string, []paypal.PurchaseUnitRequest, *paypal.CreateOrderPayer, *paypal.ApplicationContext) (*paypal.Order, error) {
	return nil, errPayPalDisabled
}

func (disabledGateway) CaptureOrder(context.Context, string, paypal.CaptureOrderRequest) (*paypal.CaptureOrderResponse, error) {
	return nil, errPayPalDisabled
}

// NewWithDeps builds the server on top of deps. deps.DB must be migrated.
func NewWithDeps(cfg *config.Config, deps Deps) *App {
	if deps.Blocklist == nil {
		deps.Blocklist = repositories.NewMemoryTokenBlocklist()
	}
	if deps.Gateway == nil {
		deps.Gateway = disabledGateway{}
	}

	// --- Repositories ---
	userRepo := repositories.NewGORMUserRepository(deps.DB)
	productRepo := repositories.NewGORMProductRepository(deps.DB)
	orderRepo := repositories.NewGORMOrderRepository(deps.DB)
	voucherRepo := repositories.NewGORMVoucherRepository(deps.DB)
	paymentRepo := repositories.NewGORMPaymentRepository(deps.DB)
	reviewRepo := repositories.NewGORMReviewRepository(deps.DB)

	// --- Services ---
	authService := services.NewAuthService(userRepo, deps.Blocklist, cfg.JWTSecret, cfg.JWTTTL)
	productService := services.NewProductService(productRepo)
	orderService := services.NewOrderService(orderRepo, productRepo, voucherRepo, paymentRepo, userRepo, deps.Events)
	paymentService := services.NewPaymentService(deps.Gateway, paymentRepo, cfg.PayPalCurrency)
	reviewService := services.NewReviewService(reviewRepo, productRepo, orderRepo)

	// --- Fiber ---
	f := fiber.New(fiber.Config{
		AppName:      "storefront",
		ErrorHandler: errorHandler,
	})
	f.Use(recover.New())
	f.Use(logger.New())
	f.Use(cors.New(cors.Config{
		AllowOrigins: cfg.CORSOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))

	a := &App{Fiber: f, DB: deps.DB, cfg: cfg}
	f.Get("/health", a.handleHealth)

	apiV1 := f.Group("/api/v1")
	handlers.NewAuthHandler(authService).RegisterRoutes(apiV1)

	protected := apiV1.Group("", middleware.AuthRequired(authService))
	handlers.NewProductHandler(productService).RegisterRoutes(protected)
	handlers.NewReviewHandler(reviewService).RegisterRoutes(protected)
	handlers.NewOrderHandler(orderService).RegisterRoutes(protected)
	handlers.NewPaymentHandler(paymentService, cfg.PaymentRateLimit).RegisterRoutes(protected)

	return a
}

// errorHandler renders errors that escape handlers, such as unknown routes,
// in the same shape as handler errors.
func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Something went wrong"
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
		message = fe.Message
	} else {
		log.Printf("Unhandled error on %s %s: %v", c.Method(), c.Path(), err)
	}
	status := "fail"
	if code >= fiber.StatusInternalServerError {
		status = "error"
	}
	return c.Status(code).JSON(fiber.Map{"status": status, "message": message})
}

func (a *App) handleHealth(c *fiber.Ctx) error {
	dbStatus := "up"
	if sqlDB, err := a.DB.DB(); err != nil || sqlDB.PingContext(c.UserContext()) != nil {
		dbStatus = "down"
	}
	mqStatus := "disabled"
	if a.mq != nil {
		mqStatus = "connected"
	}

	code, health := fiber.StatusOK, "healthy"
	if dbStatus != "up" {
		code, health = fiber.StatusServiceUnavailable, "unhealthy"
	}
	return c.Status(code).JSON(fiber.Map{
		"status":   health,
		"time":     time.Now().Format(time.RFC3339),
		"database": dbStatus,
		"rabbitMQ": mqStatus,
	})
}

// StartConsumers starts the order event consumer when a broker is configured.
func (a *App) StartConsumers() error {
	if a.mq == nil {
		return nil
	}
	log.Println("Starting RabbitMQ consumer for orders...")
	return a.mq.ConsumeOrderEvents(services.NewOrderNotifier().HandleDelivery)
}

// Listen serves HTTP on the configured port until Shutdown is called.
func (a *App) Listen() error {
	log.Printf("Starting server on port %s", a.cfg.AppPort)
	return a.Fiber.Listen(a.cfg.AppPort)
}

// Shutdown stops the HTTP server and releases every backing connection.
func (a *App) Shutdown() error {
	var errs []error
	if err := a.Fiber.Shutdown(); err != nil {
		errs = append(errs, fmt.Errorf("fiber shutdown: %w", err))
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
