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

// cartRepository implements the CartRepository interface using PostgreSQL.
type cartRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewCartRepository creates a new PostgreSQL-backed cart repository.
func NewCartRepository(pool *pgxpool.Pool, logger zerolog.Logger) CartRepository {
	return &cartRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "cart").Logger(),
	}
}

// Create inserts an empty cart.
func (r *cartRepository) Create(ctx context.Context, cart *model.Cart) error {
	query := `
		INSERT INTO carts (id, status, total_cents, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := r.pool.Exec(ctx, query, cart.ID, cart.Status, cart.TotalCents, cart.CreatedAt, cart.UpdatedAt)
	if err != nil {
		r.logger.Error().Err(err).Str("cart_id", cart.ID.String()).Msg("failed to create cart")
		return fmt.Errorf("failed to create cart: %w", err)
	}

	return nil
}

// GetByID retrieves a cart with its items.
func (r *cartRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Cart, error) {
	return r.get(ctx, r.pool, id, false)
}

// GetForUpdate retrieves and row-locks a cart with its items.
func (r *cartRepository) GetForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*model.Cart, error) {
	return r.get(ctx, tx, id, true)
}

func (r *cartRepository) get(ctx context.Context, q querier, id uuid.UUID, lock bool) (*model.Cart, error) {
	cartQuery := `
		SELECT id, status, total_cents, created_at, updated_at
		FROM carts
		WHERE id = $1
	`
	if lock {
		cartQuery += ` FOR UPDATE`
	}

	var cart model.Cart
	err := q.QueryRow(ctx, cartQuery, id).Scan(
		&cart.ID,
		&cart.Status,
		&cart.TotalCents,
		&cart.CreatedAt,
		&cart.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug().Str("cart_id", id.String()).Msg("cart not found")
			return nil, nil
		}
		r.logger.Error().Err(err).Str("cart_id", id.String()).Msg("failed to query cart")
		return nil, fmt.Errorf("failed to query cart: %w", err)
	}

	itemsQuery := `
		SELECT id, cart_id, ` + lineItemColumns + `
		FROM cart_items
		WHERE cart_id = $1
		ORDER BY created_at, id
	`

	rows, err := q.Query(ctx, itemsQuery, id)
	if err != nil {
		r.logger.Error().Err(err).Str("cart_id", id.String()).Msg("failed to query cart items")
		return nil, fmt.Errorf("failed to query cart items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var item model.CartItem
		err := rows.Scan(
			&item.ID, &item.CartID,
			&item.Kind, &item.ProductID, &item.EventRef, &item.EventDate, &item.EmailOnly,
			&item.Label, &item.Tier, &item.UnitPriceCents, &item.Quantity,
		)
		if err != nil {
			r.logger.Error().Err(err).Msg("failed to scan cart item row")
			return nil, fmt.Errorf("failed to scan cart item: %w", err)
		}
		cart.Items = append(cart.Items, item)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating cart item rows")
		return nil, fmt.Errorf("error iterating cart items: %w", err)
	}

	return &cart, nil
}

// AddItem inserts a line item.
func (r *cartRepository) AddItem(ctx context.Context, item *model.CartItem) error {
	query := `
		INSERT INTO cart_items (id, cart_id, ` + lineItemColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := r.pool.Exec(ctx, query,
		item.ID, item.CartID,
		item.Kind, item.ProductID, item.EventRef, item.EventDate, item.EmailOnly,
		item.Label, item.Tier, item.UnitPriceCents, item.Quantity,
	)
	if err != nil {
		r.logger.Error().
			Err(err).
			Str("cart_id", item.CartID.String()).
			Str("kind", string(item.Kind)).
			Msg("failed to add cart item")
		return fmt.Errorf("failed to add cart item: %w", err)
	}

	return nil
}

// UpdateItemQuantity changes an item's quantity.
func (r *cartRepository) UpdateItemQuantity(ctx context.Context, cartID, itemID uuid.UUID, quantity int) (bool, error) {
	query := `UPDATE cart_items SET quantity = $3 WHERE cart_id = $1 AND id = $2`

	tag, err := r.pool.Exec(ctx, query, cartID, itemID, quantity)
	if err != nil {
		r.logger.Error().Err(err).Str("item_id", itemID.String()).Msg("failed to update cart item")
		return false, fmt.Errorf("failed to update cart item: %w", err)
	}

	return tag.RowsAffected() == 1, nil
}

// RemoveItem deletes an item.
func (r *cartRepository) RemoveItem(ctx context.Context, cartID, itemID uuid.UUID) (bool, error) {
	query := `DELETE FROM cart_items WHERE cart_id = $1 AND id = $2`

	tag, err := r.pool.Exec(ctx, query, cartID, itemID)
	if err != nil {
		r.logger.Error().Err(err).Str("item_id", itemID.String()).Msg("failed to remove cart item")
		return false, fmt.Errorf("failed to remove cart item: %w", err)
	}

	return tag.RowsAffected() == 1, nil
}

// RecalculateTotal stores the item sum on the cart in a single statement.
func (r *cartRepository) RecalculateTotal(ctx context.Context, tx pgx.Tx, cartID uuid.UUID) (int64, error) {
	query := `
		UPDATE carts
		SET total_cents = (
			SELECT COALESCE(SUM(unit_price_cents * quantity), 0)
			FROM cart_items
			WHERE cart_id = $1
		), updated_at = NOW()
		WHERE id = $1
		RETURNING total_cents
	`

	var total int64
	if err := tx.QueryRow(ctx, query, cartID).Scan(&total); err != nil {
		r.logger.Error().Err(err).Str("cart_id", cartID.String()).Msg("failed to recalculate cart total")
		return 0, fmt.Errorf("failed to recalculate cart total: %w", err)
	}

	r.logger.Debug().Str("cart_id", cartID.String()).Int64("total_cents", total).Msg("cart total recalculated")

	return total, nil
}

// AdvanceStatus moves the cart forward when it is currently in one of from.
func (r *cartRepository) AdvanceStatus(ctx context.Context, tx pgx.Tx, cartID uuid.UUID, from []model.CartStatus, to model.CartStatus) (bool, error) {
	allowed := make([]string, 0, len(from))
	for _, s := range from {
		if s.Rank() < to.Rank() {
			allowed = append(allowed, string(s))
		}
	}
	if len(allowed) == 0 {
		return false, nil
	}

	query := `
		UPDATE carts
		SET status = $2, updated_at = NOW()
		WHERE id = $1 AND status = ANY($3)
	`

	tag, err := tx.Exec(ctx, query, cartID, to, allowed)
	if err != nil {
		r.logger.Error().Err(err).Str("cart_id", cartID.String()).Str("to", string(to)).Msg("failed to advance cart status")
		return false, fmt.Errorf("failed to advance cart status: %w", err)
	}

	return tag.RowsAffected() == 1, nil
}

// Complete marks the cart completed and clears its total.
func (r *cartRepository) Complete(ctx context.Context, tx pgx.Tx, cartID uuid.UUID) error {
	query := `
		UPDATE carts
		SET status = 'completed', total_cents = 0, updated_at = NOW()
		WHERE id = $1
	`

	if _, err := tx.Exec(ctx, query, cartID); err != nil {
		r.logger.Error().Err(err).Str("cart_id", cartID.String()).Msg("failed to complete cart")
		return fmt.Errorf("failed to complete cart: %w", err)
	}

	return nil
}
