package repository

import (
	"context"
	"time"

	"table-booking/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Transactor starts database transactions shared by several repositories.
type Transactor interface {
	// BeginTx starts a new database transaction.
	BeginTx(ctx context.Context) (pgx.Tx, error)
}

// ProductRepository defines data access for the read-only product catalog.
type ProductRepository interface {
	// GetByID retrieves a single product by its ID. Returns nil, nil when absent.
	GetByID(ctx context.Context, id string) (*model.Product, error)

	// DecrementStock reduces stock for stock-tracked products. Untracked products are left alone.
	DecrementStock(ctx context.Context, tx pgx.Tx, id string, quantity int) error
}

// CartRepository defines data access for carts and their items.
type CartRepository interface {
	// Create inserts an empty cart.
	Create(ctx context.Context, cart *model.Cart) error

	// GetByID retrieves a cart with its items. Returns nil, nil when absent.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Cart, error)

	// GetForUpdate retrieves and row-locks a cart with its items inside tx.
	GetForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*model.Cart, error)

	// AddItem inserts a line item.
	AddItem(ctx context.Context, item *model.CartItem) error

	// UpdateItemQuantity changes an item's quantity. Reports false when the item does not exist.
	UpdateItemQuantity(ctx context.Context, cartID, itemID uuid.UUID, quantity int) (bool, error)

	// RemoveItem deletes an item. Reports false when the item does not exist.
	RemoveItem(ctx context.Context, cartID, itemID uuid.UUID) (bool, error)

	// RecalculateTotal stores and returns the sum of unit price times quantity over the cart's items.
	RecalculateTotal(ctx context.Context, tx pgx.Tx, cartID uuid.UUID) (int64, error)

	// AdvanceStatus moves the cart to `to` only when its current status is one of `from`.
	AdvanceStatus(ctx context.Context, tx pgx.Tx, cartID uuid.UUID, from []model.CartStatus, to model.CartStatus) (bool, error)

	// Complete marks the cart completed and clears its total.
	Complete(ctx context.Context, tx pgx.Tx, cartID uuid.UUID) error
}

// OrderRepository defines data access for orders and their snapshot items.
type OrderRepository interface {
	// Create inserts a new order within the provided transaction.
	Create(ctx context.Context, tx pgx.Tx, order *model.Order) error

	// CreateItems inserts the snapshot items within the provided transaction.
	CreateItems(ctx context.Context, tx pgx.Tx, items []model.OrderItem) error

	// GetByID retrieves an order with its items. Returns nil, nil, nil when absent.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Order, []model.OrderItem, error)

	// GetByIDForUpdate retrieves and row-locks an order with its items inside tx.
	GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*model.Order, []model.OrderItem, error)

	// GetLatestByCartID retrieves the most recent order created from a cart.
	GetLatestByCartID(ctx context.Context, cartID uuid.UUID) (*model.Order, []model.OrderItem, error)

	// HasPendingForCart reports whether the cart already has an order awaiting payment.
	HasPendingForCart(ctx context.Context, tx pgx.Tx, cartID uuid.UUID) (bool, error)

	// SetPaymentRef stores the encoded payment reference.
	SetPaymentRef(ctx context.Context, id uuid.UUID, ref string) error

	// MarkFinalized sets the order paid once. Reports false when it was already finalized or failed.
	MarkFinalized(ctx context.Context, tx pgx.Tx, id uuid.UUID) (bool, error)

	// MarkFailed fails an order awaiting payment. Reports false when it was no longer pending.
	MarkFailed(ctx context.Context, id uuid.UUID, reason string) (bool, error)

	// MarkConfirmed sets a non-failed order confirmed and copies the contact fields onto it.
	MarkConfirmed(ctx context.Context, tx pgx.Tx, id uuid.UUID, contact model.Customer) (bool, error)
}

// BookingRepository defines data access for bookings.
type BookingRepository interface {
	// Create inserts a booking within the provided transaction.
	Create(ctx context.Context, tx pgx.Tx, booking *model.Booking) error

	// GetByID retrieves a booking. Returns nil, nil when absent.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Booking, error)

	// GetByIDForUpdate retrieves and row-locks a booking inside tx.
	GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*model.Booking, error)

	// GetByOrderID retrieves the booking linked to an order.
	GetByOrderID(ctx context.Context, orderID uuid.UUID) (*model.Booking, error)

	// GetByOrderIDForUpdate retrieves and row-locks the booking linked to an order inside tx.
	GetByOrderIDForUpdate(ctx context.Context, tx pgx.Tx, orderID uuid.UUID) (*model.Booking, error)

	// Update writes the mutable fields of an existing booking.
	Update(ctx context.Context, tx pgx.Tx, booking *model.Booking) error

	// Confirm sets the booking confirmed. Reports false when it already was.
	Confirm(ctx context.Context, tx pgx.Tx, id uuid.UUID) (bool, error)
}

// VerificationRepository defines data access for booking verification tokens.
type VerificationRepository interface {
	// Create inserts a verification row within the provided transaction.
	Create(ctx context.Context, tx pgx.Tx, v *model.BookingVerification) error

	// GetByTokenHashForUpdate retrieves and row-locks a verification by token hash.
	GetByTokenHashForUpdate(ctx context.Context, tx pgx.Tx, tokenHash string) (*model.BookingVerification, error)

	// MarkUsed sets used_at once. Reports false when the row was already used.
	MarkUsed(ctx context.Context, tx pgx.Tx, id uuid.UUID, usedAt time.Time) (bool, error)

	// DeleteSiblings removes every other token for the booking and returns how many were deleted.
	DeleteSiblings(ctx context.Context, tx pgx.Tx, bookingID, keepID uuid.UUID) (int64, error)
}
