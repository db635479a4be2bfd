package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"table-booking/internal/config"
	"table-booking/internal/notify"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := config.NewLogger(cfg.Logger, "table-booking-notifier")

	if !cfg.AMQP.Enabled {
		return fmt.Errorf("AMQP must be enabled to run the notification consumer")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	consumer := notify.NewConsumer(cfg.AMQP.URL, cfg.AMQP.Queue, notify.NewLogDispatcher(logger), logger)

	logger.Info().Str("queue", cfg.AMQP.Queue).Msg("notification consumer started")

	if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("consumer stopped: %w", err)
	}

	logger.Info().Msg("notification consumer stopped")
	return nil
}
