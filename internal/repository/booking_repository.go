package repository

import (
	"context"
	"errors"
	"fmt"

	"table-booking/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// bookingRepository implements the BookingRepository interface using PostgreSQL.
type bookingRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewBookingRepository creates a new PostgreSQL-backed booking repository.
func NewBookingRepository(pool *pgxpool.Pool, logger zerolog.Logger) BookingRepository {
	return &bookingRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "booking").Logger(),
	}
}

const bookingColumns = `
	id, order_id, status, booking_type, booking_date, people, label, tier, total_cents,
	event_ref, email, name, phone, notes, agree_privacy, agree_marketing, created_at, updated_at
`

// Create inserts a booking within the provided transaction.
func (r *bookingRepository) Create(ctx context.Context, tx pgx.Tx, b *model.Booking) error {
	query := `
		INSERT INTO bookings (` + bookingColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
	`

	_, err := tx.Exec(ctx, query,
		b.ID, b.OrderID, b.Status, b.Type, b.Date, b.People, b.Label, b.Tier, b.TotalCents,
		b.EventRef, b.Email, b.Name, b.Phone, b.Notes, b.AgreePrivacy, b.AgreeMarketing, b.CreatedAt, b.UpdatedAt,
	)
	if err != nil {
		r.logger.Error().Err(err).Str("booking_id", b.ID.String()).Msg("failed to create booking")
		return fmt.Errorf("failed to create booking: %w", err)
	}

	r.logger.Debug().
		Str("booking_id", b.ID.String()).
		Str("status", string(b.Status)).
		Msg("booking created")

	return nil
}

// GetByID retrieves a booking.
func (r *bookingRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Booking, error) {
	return r.get(ctx, r.pool, `WHERE id = $1`, id)
}

// GetByIDForUpdate retrieves and row-locks a booking.
func (r *bookingRepository) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*model.Booking, error) {
	return r.get(ctx, tx, `WHERE id = $1 FOR UPDATE`, id)
}

// GetByOrderID retrieves the booking linked to an order.
func (r *bookingRepository) GetByOrderID(ctx context.Context, orderID uuid.UUID) (*model.Booking, error) {
	return r.get(ctx, r.pool, `WHERE order_id = $1`, orderID)
}

// GetByOrderIDForUpdate retrieves and row-locks the booking linked to an order.
func (r *bookingRepository) GetByOrderIDForUpdate(ctx context.Context, tx pgx.Tx, orderID uuid.UUID) (*model.Booking, error) {
	return r.get(ctx, tx, `WHERE order_id = $1 FOR UPDATE`, orderID)
}

func (r *bookingRepository) get(ctx context.Context, q querier, where string, arg uuid.UUID) (*model.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings ` + where

	var b model.Booking
	err := q.QueryRow(ctx, query, arg).Scan(
		&b.ID, &b.OrderID, &b.Status, &b.Type, &b.Date, &b.People, &b.Label, &b.Tier, &b.TotalCents,
		&b.EventRef, &b.Email, &b.Name, &b.Phone, &b.Notes, &b.AgreePrivacy, &b.AgreeMarketing, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error().Err(err).Str("key", arg.String()).Msg("failed to query booking")
		return nil, fmt.Errorf("failed to query booking: %w", err)
	}

	return &b, nil
}

// Update writes the mutable fields of an existing booking.
func (r *bookingRepository) Update(ctx context.Context, tx pgx.Tx, b *model.Booking) error {
	query := `
		UPDATE bookings
		SET status = $2, people = $3, total_cents = $4, email = $5, name = $6, phone = $7,
		    notes = $8, updated_at = NOW()
		WHERE id = $1
	`

	_, err := tx.Exec(ctx, query, b.ID, b.Status, b.People, b.TotalCents, b.Email, b.Name, b.Phone, b.Notes)
	if err != nil {
		r.logger.Error().Err(err).Str("booking_id", b.ID.String()).Msg("failed to update booking")
		return fmt.Errorf("failed to update booking: %w", err)
	}

	return nil
}

// Confirm moves a pending booking to confirmed. Bookings in any other status
// are left untouched and report false.
func (r *bookingRepository) Confirm(ctx context.Context, tx pgx.Tx, id uuid.UUID) (bool, error) {
	query := `
		UPDATE bookings
		SET status = 'confirmed', updated_at = NOW()
		WHERE id = $1 AND status IN ('pending', 'pending_payment')
	`

	tag, err := tx.Exec(ctx, query, id)
	if err != nil {
		r.logger.Error().Err(err).Str("booking_id", id.String()).Msg("failed to confirm booking")
		return false, fmt.Errorf("failed to confirm booking: %w", err)
	}

	return tag.RowsAffected() == 1, nil
}
