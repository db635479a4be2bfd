package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"table-booking/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// verificationRepository implements the VerificationRepository interface using PostgreSQL.
type verificationRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewVerificationRepository creates a new PostgreSQL-backed verification repository.
func NewVerificationRepository(pool *pgxpool.Pool, logger zerolog.Logger) VerificationRepository {
	return &verificationRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "verification").Logger(),
	}
}

// Create inserts a verification row within the provided transaction.
func (r *verificationRepository) Create(ctx context.Context, tx pgx.Tx, v *model.BookingVerification) error {
	query := `
		INSERT INTO booking_verifications (id, booking_id, token_hash, email, expires_at, used_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := tx.Exec(ctx, query, v.ID, v.BookingID, v.TokenHash, v.Email, v.ExpiresAt, v.UsedAt, v.CreatedAt)
	if err != nil {
		r.logger.Error().Err(err).Str("booking_id", v.BookingID.String()).Msg("failed to create verification")
		return fmt.Errorf("failed to create verification: %w", err)
	}

	return nil
}

// GetByTokenHashForUpdate retrieves and row-locks a verification by token hash.
func (r *verificationRepository) GetByTokenHashForUpdate(ctx context.Context, tx pgx.Tx, tokenHash string) (*model.BookingVerification, error) {
	query := `
		SELECT id, booking_id, token_hash, email, expires_at, used_at, created_at
		FROM booking_verifications
		WHERE token_hash = $1
		FOR UPDATE
	`

	var v model.BookingVerification
	err := tx.QueryRow(ctx, query, tokenHash).Scan(
		&v.ID, &v.BookingID, &v.TokenHash, &v.Email, &v.ExpiresAt, &v.UsedAt, &v.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error().Err(err).Msg("failed to query verification")
		return nil, fmt.Errorf("failed to query verification: %w", err)
	}

	return &v, nil
}

// MarkUsed sets used_at only while it is still NULL; zero affected rows means
// another redemption got there first.
func (r *verificationRepository) MarkUsed(ctx context.Context, tx pgx.Tx, id uuid.UUID, usedAt time.Time) (bool, error) {
	query := `UPDATE booking_verifications SET used_at = $2 WHERE id = $1 AND used_at IS NULL`

	tag, err := tx.Exec(ctx, query, id, usedAt)
	if err != nil {
		r.logger.Error().Err(err).Str("verification_id", id.String()).Msg("failed to mark verification used")
		return false, fmt.Errorf("failed to mark verification used: %w", err)
	}

	return tag.RowsAffected() == 1, nil
}

// DeleteSiblings removes every other token for the booking.
func (r *verificationRepository) DeleteSiblings(ctx context.Context, tx pgx.Tx, bookingID, keepID uuid.UUID) (int64, error) {
	query := `DELETE FROM booking_verifications WHERE booking_id = $1 AND id <> $2`

	tag, err := tx.Exec(ctx, query, bookingID, keepID)
	if err != nil {
		r.logger.Error().Err(err).Str("booking_id", bookingID.String()).Msg("failed to delete sibling verifications")
		return 0, fmt.Errorf("failed to delete sibling verifications: %w", err)
	}

	return tag.RowsAffected(), nil
}
