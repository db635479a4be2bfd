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

// orderRepository implements the OrderRepository interface using PostgreSQL.
type orderRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewOrderRepository creates a new PostgreSQL-backed order repository.
func NewOrderRepository(pool *pgxpool.Pool, logger zerolog.Logger) OrderRepository {
	return &orderRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "order").Logger(),
	}
}

const orderColumns = `
	id, cart_id, email, name, phone, notes, status, total_cents, currency,
	payment_ref, failure_reason, finalized_at, created_at, updated_at
`

// Create inserts a new order within the provided transaction.
func (r *orderRepository) Create(ctx context.Context, tx pgx.Tx, order *model.Order) error {
	query := `
		INSERT INTO orders (` + orderColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`

	_, err := tx.Exec(ctx, query,
		order.ID, order.CartID, order.Email, order.Name, order.Phone, order.Notes,
		order.Status, order.TotalCents, order.Currency,
		order.PaymentRef, order.FailureReason, order.FinalizedAt, order.CreatedAt, order.UpdatedAt,
	)
	if err != nil {
		r.logger.Error().
			Err(err).
			Str("order_id", order.ID.String()).
			Str("cart_id", order.CartID.String()).
			Msg("failed to create order")
		return fmt.Errorf("failed to create order: %w", err)
	}

	r.logger.Debug().
		Str("order_id", order.ID.String()).
		Msg("order created successfully")

	return nil
}

// CreateItems inserts multiple order items within the provided transaction.
func (r *orderRepository) CreateItems(ctx context.Context, tx pgx.Tx, items []model.OrderItem) error {
	if len(items) == 0 {
		return nil
	}

	query := `
		INSERT INTO order_items (id, order_id, ` + lineItemColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	batch := &pgx.Batch{}
	for _, item := range items {
		batch.Queue(query,
			item.ID, item.OrderID,
			item.Kind, item.ProductID, item.EventRef, item.EventDate, item.EmailOnly,
			item.Label, item.Tier, item.UnitPriceCents, item.Quantity,
		)
	}

	results := tx.SendBatch(ctx, batch)
	defer results.Close()

	for i := 0; i < len(items); i++ {
		_, err := results.Exec()
		if err != nil {
			r.logger.Error().
				Err(err).
				Str("order_id", items[i].OrderID.String()).
				Str("label", items[i].Label).
				Msg("failed to create order item")
			return fmt.Errorf("failed to create order item: %w", err)
		}
	}

	r.logger.Debug().
		Int("count", len(items)).
		Msg("order items created successfully")

	return nil
}

// GetByID retrieves an order by its ID along with its items.
func (r *orderRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Order, []model.OrderItem, error) {
	return r.get(ctx, r.pool, `WHERE id = $1`, id)
}

// GetByIDForUpdate retrieves and row-locks an order inside tx.
func (r *orderRepository) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*model.Order, []model.OrderItem, error) {
	return r.get(ctx, tx, `WHERE id = $1 FOR UPDATE`, id)
}

// GetLatestByCartID retrieves the most recent order created from a cart.
func (r *orderRepository) GetLatestByCartID(ctx context.Context, cartID uuid.UUID) (*model.Order, []model.OrderItem, error) {
	return r.get(ctx, r.pool, `WHERE cart_id = $1 ORDER BY created_at DESC LIMIT 1`, cartID)
}

func (r *orderRepository) get(ctx context.Context, q querier, where string, arg uuid.UUID) (*model.Order, []model.OrderItem, error) {
	orderQuery := `SELECT ` + orderColumns + ` FROM orders ` + where

	var order model.Order
	err := q.QueryRow(ctx, orderQuery, arg).Scan(
		&order.ID, &order.CartID, &order.Email, &order.Name, &order.Phone, &order.Notes,
		&order.Status, &order.TotalCents, &order.Currency,
		&order.PaymentRef, &order.FailureReason, &order.FinalizedAt, &order.CreatedAt, &order.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug().Str("key", arg.String()).Msg("order not found")
			return nil, nil, nil
		}
		r.logger.Error().Err(err).Str("key", arg.String()).Msg("failed to query order")
		return nil, nil, fmt.Errorf("failed to query order: %w", err)
	}

	itemsQuery := `
		SELECT id, order_id, ` + lineItemColumns + `
		FROM order_items
		WHERE order_id = $1
		ORDER BY id
	`

	rows, err := q.Query(ctx, itemsQuery, order.ID)
	if err != nil {
		r.logger.Error().
			Err(err).
			Str("order_id", order.ID.String()).
			Msg("failed to query order items")
		return nil, nil, fmt.Errorf("failed to query order items: %w", err)
	}
	defer rows.Close()

	var items []model.OrderItem
	for rows.Next() {
		var item model.OrderItem
		err := rows.Scan(
			&item.ID, &item.OrderID,
			&item.Kind, &item.ProductID, &item.EventRef, &item.EventDate, &item.EmailOnly,
			&item.Label, &item.Tier, &item.UnitPriceCents, &item.Quantity,
		)
		if err != nil {
			r.logger.Error().Err(err).Msg("failed to scan order item row")
			return nil, nil, fmt.Errorf("failed to scan order item: %w", err)
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating order item rows")
		return nil, nil, fmt.Errorf("error iterating order items: %w", err)
	}

	return &order, items, nil
}

// HasPendingForCart reports whether the cart already has an order awaiting payment.
func (r *orderRepository) HasPendingForCart(ctx context.Context, tx pgx.Tx, cartID uuid.UUID) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM orders WHERE cart_id = $1 AND status = 'pending_payment')`

	var exists bool
	if err := tx.QueryRow(ctx, query, cartID).Scan(&exists); err != nil {
		r.logger.Error().Err(err).Str("cart_id", cartID.String()).Msg("failed to check pending orders")
		return false, fmt.Errorf("failed to check pending orders: %w", err)
	}

	return exists, nil
}

// SetPaymentRef stores the encoded payment reference.
func (r *orderRepository) SetPaymentRef(ctx context.Context, id uuid.UUID, ref string) error {
	query := `UPDATE orders SET payment_ref = $2, updated_at = NOW() WHERE id = $1`

	if _, err := r.pool.Exec(ctx, query, id, ref); err != nil {
		r.logger.Error().Err(err).Str("order_id", id.String()).Msg("failed to store payment reference")
		return fmt.Errorf("failed to store payment reference: %w", err)
	}

	return nil
}

// MarkFinalized is the compare-and-set guarding finalize: only the first caller
// sees an affected row.
func (r *orderRepository) MarkFinalized(ctx context.Context, tx pgx.Tx, id uuid.UUID) (bool, error) {
	query := `
		UPDATE orders
		SET status = CASE WHEN status = 'confirmed' THEN status ELSE 'paid' END,
		    finalized_at = NOW(),
		    updated_at = NOW()
		WHERE id = $1 AND finalized_at IS NULL AND status <> 'failed'
	`

	tag, err := tx.Exec(ctx, query, id)
	if err != nil {
		r.logger.Error().Err(err).Str("order_id", id.String()).Msg("failed to finalize order")
		return false, fmt.Errorf("failed to finalize order: %w", err)
	}

	return tag.RowsAffected() == 1, nil
}

// MarkFailed fails an order that is still awaiting payment.
func (r *orderRepository) MarkFailed(ctx context.Context, id uuid.UUID, reason string) (bool, error) {
	query := `
		UPDATE orders
		SET status = 'failed', failure_reason = $2, updated_at = NOW()
		WHERE id = $1 AND status = 'pending_payment'
	`

	tag, err := r.pool.Exec(ctx, query, id, reason)
	if err != nil {
		r.logger.Error().Err(err).Str("order_id", id.String()).Msg("failed to mark order failed")
		return false, fmt.Errorf("failed to mark order failed: %w", err)
	}

	return tag.RowsAffected() == 1, nil
}

// MarkConfirmed sets a non-failed order confirmed and copies the contact fields onto it.
func (r *orderRepository) MarkConfirmed(ctx context.Context, tx pgx.Tx, id uuid.UUID, contact model.Customer) (bool, error) {
	query := `
		UPDATE orders
		SET status = 'confirmed', email = $2, name = $3, phone = $4,
		    notes = COALESCE($5, notes), updated_at = NOW()
		WHERE id = $1 AND status <> 'failed'
	`

	tag, err := tx.Exec(ctx, query, id, contact.Email, contact.Name, contact.Phone, contact.Notes)
	if err != nil {
		r.logger.Error().Err(err).Str("order_id", id.String()).Msg("failed to confirm order")
		return false, fmt.Errorf("failed to confirm order: %w", err)
	}

	return tag.RowsAffected() == 1, nil
}
