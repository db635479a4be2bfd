package service

import (
	"context"
	"time"

	"table-booking/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// CartService defines operations for building a cart before ordering.
type CartService interface {
	// Create creates an empty open cart.
	Create(ctx context.Context) (*model.Cart, error)

	// Get retrieves a cart with its items.
	Get(ctx context.Context, id uuid.UUID) (*model.Cart, error)

	// AddItem snapshots a product or event price into a new line item.
	AddItem(ctx context.Context, cartID uuid.UUID, req *model.CartItemRequest) (*model.Cart, error)

	// UpdateItemQuantity changes the quantity of an existing line item.
	UpdateItemQuantity(ctx context.Context, cartID, itemID uuid.UUID, req *model.CartItemUpdateRequest) (*model.Cart, error)

	// RemoveItem deletes a line item.
	RemoveItem(ctx context.Context, cartID, itemID uuid.UUID) (*model.Cart, error)

	// RecalculateTotal recomputes and stores the cart total.
	RecalculateTotal(ctx context.Context, cartID uuid.UUID) (int64, error)
}

// OrderService defines the order lifecycle from cart to payment outcome.
type OrderService interface {
	// CreateOrder snapshots a cart into an order and starts payment when the total is positive.
	CreateOrder(ctx context.Context, req *model.CreateOrderRequest) (*model.CreateOrderResult, error)

	// Finalize marks the order paid and materializes its booking exactly once.
	Finalize(ctx context.Context, orderID uuid.UUID) (*model.FinalizeResult, error)

	// Fail marks a pending order failed and notifies the customer once.
	Fail(ctx context.Context, orderID uuid.UUID, reason string) (bool, error)

	// PollStatus reconciles the order with the gateway.
	PollStatus(ctx context.Context, orderID uuid.UUID) (*model.PollResponse, error)

	// GetByID retrieves an order with its items and booking.
	GetByID(ctx context.Context, id uuid.UUID) (*model.OrderResponse, error)
}

// BookingMaterializer creates or refreshes the booking linked to an order.
type BookingMaterializer interface {
	EnsureBooking(ctx context.Context, tx pgx.Tx, order *model.Order, items []model.OrderItem) (*model.Booking, error)
}

// TokenStore issues and redeems booking verification tokens.
type TokenStore interface {
	// Issue creates a token for the booking and returns its plaintext form.
	Issue(ctx context.Context, tx pgx.Tx, bookingID uuid.UUID, email string, ttl time.Duration) (string, error)

	// Redeem consumes a token inside tx.
	Redeem(ctx context.Context, tx pgx.Tx, token string) (*model.RedeemResult, error)
}

// BookingService defines operations for reservations that need no payment.
type BookingService interface {
	// CreateEmailOnly creates a pending booking and emails a verification link.
	CreateEmailOnly(ctx context.Context, req *model.EmailOnlyBookingRequest) (*model.EmailOnlyBookingResponse, error)
}

// ConfirmationService handles both confirmation-link flows.
type ConfirmationService interface {
	// ConfirmBooking redeems a booking verification token.
	ConfirmBooking(ctx context.Context, token string, bookingID *uuid.UUID) (*model.ConfirmationResult, error)

	// ConfirmLegacyOrder verifies a signed order-verification token.
	ConfirmLegacyOrder(ctx context.Context, token string) (*model.ConfirmationResult, error)

	// RequestOrderVerification emails a signed verification link for the order.
	RequestOrderVerification(ctx context.Context, orderID uuid.UUID) error

	// IssueLegacyToken signs a verification token for the cart and email.
	IssueLegacyToken(cartID uuid.UUID, email string) (string, error)
}
