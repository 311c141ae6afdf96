package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/greenfields-vn/chomart/internal"
	"github.com/greenfields-vn/chomart/internal/address"
	"github.com/greenfields-vn/chomart/internal/catalog"
	"github.com/greenfields-vn/chomart/internal/handler"
	"github.com/greenfields-vn/chomart/internal/inventory"
	"github.com/greenfields-vn/chomart/internal/middleware"
	"github.com/greenfields-vn/chomart/internal/notify"
	"github.com/greenfields-vn/chomart/internal/payment"
	"github.com/greenfields-vn/chomart/internal/promotion"
	"github.com/greenfields-vn/chomart/internal/repository"
	"github.com/greenfields-vn/chomart/internal/service"
	"github.com/greenfields-vn/chomart/internal/shipping"
	"github.com/greenfields-vn/chomart/internal/telemetry"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/nats-io/nats.go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func run() error {
	ctx := context.Background()

	// Load configuration
	cfg, err := internal.NewConfig()
	if err != nil {
		return fmt.Errorf("config initialization failed: %w", err)
	}

	// Configure logger
	logger := internal.NewLogger(os.Stdout, cfg.Env, cfg.LogLevel)

	// Initialize database/sql connection for migrations
	logger.Info("Connecting to database...")
	sqlDB, err := sql.Open("pgx", cfg.DatabaseUrl)
	if err != nil {
		return fmt.Errorf("database connection failed: %w", err)
	}
	defer sqlDB.Close()

	// Verify database connection
	if err := sqlDB.Ping(); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}
	logger.Info("Database connection established")

	// Run migrations
	logger.Info("Running database migrations...")
	if err := internal.RunMigrations(sqlDB); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	logger.Info("Database migrations completed successfully")

	// Initialize pgx connection pool for application
	pool, err := pgxpool.New(ctx, cfg.DatabaseUrl)
	if err != nil {
		return fmt.Errorf("failed to create connection pool: %w", err)
	}
	defer pool.Close()

	// Initialize repository and transaction manager
	repo := repository.NewPostgres(pool)
	txManager := repository.NewPgxTxManager(pool)

	// Initialize notification publisher. Without a NATS URL order events
	// go to the log so the service still runs standalone.
	var notifier notify.Sender
	if cfg.NATS.URL != "" {
		logger.Info("Connecting to NATS...", "url", cfg.NATS.URL)
		nc, err := nats.Connect(cfg.NATS.URL,
			nats.MaxReconnects(-1),
			nats.ReconnectWait(2*time.Second),
		)
		if err != nil {
			return fmt.Errorf("NATS connection failed: %w", err)
		}
		defer nc.Drain()
		notifier = notify.NewNATSSender(nc, cfg.NATS.SubjectPrefix)
		logger.Info("NATS connection established")
	} else {
		logger.Info("NATS_URL not set, order events will be logged")
		notifier = notify.NewLogSender(logger)
	}

	// Initialize business metrics
	metrics := telemetry.NewBusinessMetrics(prometheus.DefaultRegisterer)

	// Initialize product catalog with a short read cache for cart views
	productCatalog := catalog.NewCached(catalog.New(repo), 30*time.Second)

	// Initialize address provider
	addressProvider := address.NewPostgresProvider(pool)

	// Initialize shipping calculator
	logger.Info("Initializing shipping calculator...",
		"home_region", cfg.Shipping.HomeRegionCode,
		"out_of_region_mode", cfg.Shipping.OutOfRegionMode)
	shippingCalc := shipping.NewFlatRateCalculator(
		map[string]int64{cfg.Shipping.HomeRegionCode: cfg.Shipping.HomeRegionFee},
		cfg.Shipping.DefaultFee,
		shipping.OutOfRegionMode(cfg.Shipping.OutOfRegionMode),
	)

	// Initialize inventory ledger
	ledger := inventory.NewLedger(repo, logger)

	// Initialize services
	retryCfg := service.CheckoutConfig{
		MaxAttempts: cfg.Checkout.MaxAttempts,
		RetryDelay:  cfg.Checkout.RetryDelay,
	}

	cartService := service.NewCartService(repo, productCatalog, logger)

	checkoutService := service.NewCheckoutService(service.CheckoutServiceParams{
		Querier:    repo,
		Tx:         txManager,
		Ledger:     ledger,
		Addresses:  addressProvider,
		Shipping:   shippingCalc,
		Promotions: promotion.None{},
		Notifier:   notifier,
		Metrics:    metrics,
		Logger:     logger,
		Config:     retryCfg,
	})

	orderService := service.NewOrderService(service.OrderServiceParams{
		Querier:  repo,
		Tx:       txManager,
		Ledger:   ledger,
		Gateway:  payment.NoopGateway{},
		Notifier: notifier,
		Metrics:  metrics,
		Logger:   logger,
		Retry:    retryCfg,
	})
	logger.Info("Services initialized")

	// Configure HTTP server
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.JSONSerializer = handler.JSONSerializer{}
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = handler.ErrorHandler(logger)

	httpMetrics := middleware.NewMetrics(prometheus.DefaultRegisterer)
	rateLimiter := middleware.NewRateLimiter(middleware.DefaultRateLimiterConfig())

	e.Use(echomw.Recover())
	e.Use(middleware.RequestID())
	e.Use(httpMetrics.Middleware())
	e.Use(middleware.RequestLogger(logger))
	e.Use(rateLimiter.Middleware())

	// Metrics endpoint (should be protected in production via firewall)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// Health check endpoint
	e.GET("/health", func(c echo.Context) error {
		return c.String(http.StatusOK, "OK")
	})

	h := handler.New(cartService, checkoutService, orderService, logger)
	h.RegisterRoutes(e, cfg.JWTSecret)

	// Start server with graceful shutdown
	shutdownCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Port)
		logger.Info("Server starting", "addr", addr, "env", cfg.Env)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-shutdownCtx.Done():
	}

	logger.Info("Shutting down...")
	timeoutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(timeoutCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	logger.Info("Server stopped")

	return nil
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}
