package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"table-booking/internal/catalog"
	"table-booking/internal/config"
	"table-booking/internal/database"
	"table-booking/internal/handler"
	"table-booking/internal/notify"
	"table-booking/internal/payment"
	"table-booking/internal/repository"
	"table-booking/internal/router"
	"table-booking/internal/service"

	"github.com/redis/go-redis/v9"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Initialize logger
	logger := config.NewLogger(cfg.Logger, "table-booking-api")
	logger.Info().Msg("starting table-booking API server")

	// Create context for application lifecycle
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize database connection pool
	pool, err := database.NewPool(ctx, cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer pool.Close()

	if cfg.Database.AutoMigrate {
		if err := database.Migrate(ctx, pool); err != nil {
			return fmt.Errorf("failed to migrate database: %w", err)
		}
		logger.Info().Msg("database schema applied")
	}

	// Initialize repositories
	txr := repository.NewTransactor(pool, logger)
	cartRepo := repository.NewCartRepository(pool, logger)
	orderRepo := repository.NewOrderRepository(pool, logger)
	productRepo := repository.NewProductRepository(pool, logger)
	bookingRepo := repository.NewBookingRepository(pool, logger)
	verificationRepo := repository.NewVerificationRepository(pool, logger)

	// Initialize event catalog with S3 and local fallback
	fileLoader := catalog.NewFileLoader(logger)
	var s3Loader catalog.Loader
	if cfg.Catalog.S3Enabled {
		s3Loader, err = catalog.NewS3Loader(ctx, cfg.Catalog.S3Bucket, cfg.Catalog.S3Region, logger)
		if err != nil {
			logger.Warn().
				Err(err).
				Msg("failed to initialise S3 loader, falling back to local file system only")
			s3Loader = nil
		}
	} else {
		logger.Info().Msg("using local file system for event files (S3 disabled)")
	}
	loader := catalog.NewFallbackLoader(s3Loader, fileLoader, cfg.Catalog.S3Prefix, cfg.Catalog.S3Enabled, logger)

	events, err := catalog.NewCatalog(ctx, cfg.Catalog.EventFiles, loader, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize event catalog: %w", err)
	}
	defer events.Close()

	// Initialize notification channel
	var publisher notify.Publisher
	if cfg.AMQP.Enabled {
		publisher = notify.NewAMQPPublisher(cfg.AMQP.URL, cfg.AMQP.Queue, logger)
	} else {
		logger.Info().Msg("AMQP disabled, notifications are logged only")
		publisher = notify.NewLogPublisher(logger)
	}
	defer publisher.Close()
	notifier := notify.NewNotifier(publisher, cfg.Notify.AdminEmail, logger)

	// Initialize rate limiter backend
	var limiter redis.Scripter
	if cfg.Redis.Enabled {
		rdb, err := database.NewRedisClient(ctx, cfg.Redis, logger)
		if err != nil {
			return fmt.Errorf("failed to initialize redis: %w", err)
		}
		defer rdb.Close()
		limiter = rdb
	} else {
		logger.Info().Msg("redis disabled, rate limiting is off")
	}

	gateway := payment.NewHTTPGateway(cfg.Gateway, logger)

	// Initialize services
	tokens := service.NewTokenStore(verificationRepo, bookingRepo, logger)
	materializer := service.NewBookingMaterializer(bookingRepo, logger)
	cartService := service.NewCartService(txr, cartRepo, productRepo, events, logger)
	orderService := service.NewOrderService(
		txr, cartRepo, orderRepo, productRepo, bookingRepo,
		materializer, gateway, notifier, cfg.Gateway, logger,
	)
	bookingService := service.NewBookingService(
		txr, bookingRepo, tokens, events, notifier, cfg.Server, cfg.Verification, logger,
	)
	confirmationService := service.NewConfirmationService(
		txr, cartRepo, orderRepo, bookingRepo, tokens, orderService, notifier,
		cfg.Server, cfg.Verification, logger,
	)

	// Initialize HTTP handlers
	handlers := router.Handlers{
		Cart:    handler.NewCartHandler(cartService, logger),
		Order:   handler.NewOrderHandler(orderService, confirmationService, logger),
		Booking: handler.NewBookingHandler(bookingService, logger),
		Confirm: handler.NewConfirmHandler(confirmationService, cfg.Server, cfg.Verification, logger),
	}

	// Initialize router
	mux := router.New(handlers, cfg.Auth.APIKey, limiter, cfg.RateLimit, logger)

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15*time.Second + cfg.Gateway.Timeout,
		IdleTimeout:  60 * time.Second,
	}

	// Channel to listen for errors from the server
	serverErrors := make(chan error, 1)

	// Start HTTP server in a goroutine
	go func() {
		logger.Info().
			Str("address", cfg.Server.Address()).
			Int("events", events.Size()).
			Msg("HTTP server started")
		serverErrors <- server.ListenAndServe()
	}()

	// Channel to listen for interrupt signals
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Block until we receive a signal or an error
	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		logger.Info().
			Str("signal", sig.String()).
			Msg("shutdown signal received, starting graceful shutdown")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("failed to shutdown server gracefully")
			if closeErr := server.Close(); closeErr != nil {
				logger.Error().Err(closeErr).Msg("failed to close server")
			}
			return fmt.Errorf("server shutdown failed: %w", err)
		}

		logger.Info().Msg("server shutdown completed")
	}

	return nil
}
