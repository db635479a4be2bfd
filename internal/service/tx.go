package service

import (
	"context"
	"fmt"

	"table-booking/internal/repository"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

// withTx runs fn inside a transaction, committing on success and rolling back on error.
func withTx(ctx context.Context, txr repository.Transactor, logger zerolog.Logger, fn func(tx pgx.Tx) error) error {
	tx, err := txr.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			logger.Error().Err(rbErr).Msg("failed to rollback transaction")
		}
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		logger.Error().Err(err).Msg("failed to commit transaction")
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}
