package model

import (
	"time"

	"github.com/google/uuid"
)

// OrderStatus only moves forward.
type OrderStatus string

const (
	OrderStatusPendingPayment OrderStatus = "pending_payment"
	OrderStatusPaid           OrderStatus = "paid"
	OrderStatusConfirmed      OrderStatus = "confirmed"
	OrderStatusFailed         OrderStatus = "failed"
)

// Terminal reports whether no further payment transition is possible.
func (s OrderStatus) Terminal() bool {
	return s == OrderStatusPaid || s == OrderStatusConfirmed || s == OrderStatusFailed
}

// Customer holds the contact details captured at checkout.
type Customer struct {
	Email string  `json:"email" validate:"required,email,max=254"`
	Name  string  `json:"name" validate:"required,max=200"`
	Phone string  `json:"phone" validate:"required,max=40"`
	Notes *string `json:"notes,omitempty" validate:"omitempty,max=2000"`
}

// Order is a snapshot of a cart submitted for payment or confirmation.
// TotalCents is fixed at creation time.
type Order struct {
	ID            uuid.UUID   `json:"id" db:"id"`
	CartID        uuid.UUID   `json:"cartId" db:"cart_id"`
	Email         string      `json:"email" db:"email"`
	Name          string      `json:"name" db:"name"`
	Phone         string      `json:"phone" db:"phone"`
	Notes         *string     `json:"notes,omitempty" db:"notes"`
	Status        OrderStatus `json:"status" db:"status"`
	TotalCents    int64       `json:"totalCents" db:"total_cents"`
	Currency      string      `json:"currency" db:"currency"`
	PaymentRef    *string     `json:"-" db:"payment_ref"`
	FailureReason *string     `json:"failureReason,omitempty" db:"failure_reason"`
	FinalizedAt   *time.Time  `json:"finalizedAt,omitempty" db:"finalized_at"`
	CreatedAt     time.Time   `json:"createdAt" db:"created_at"`
	UpdatedAt     time.Time   `json:"updatedAt" db:"updated_at"`
}

// OrderItem is a line item copied from the cart when the order was created.
type OrderItem struct {
	ID      uuid.UUID `json:"-" db:"id"`
	OrderID uuid.UUID `json:"-" db:"order_id"`
	LineItem
}

// AllEmailOnly reports whether every item is flagged email-only.
func AllEmailOnly(items []OrderItem) bool {
	if len(items) == 0 {
		return false
	}
	for _, item := range items {
		if !item.EmailOnly {
			return false
		}
	}
	return true
}

// CreateOrderRequest represents the request payload for creating an order.
type CreateOrderRequest struct {
	CartID   uuid.UUID `json:"cartId" validate:"required"`
	Customer Customer  `json:"customer" validate:"required"`
}

// CreateOrderResult is returned by order creation. GatewayToken and CheckoutURL are
// only set for pending_payment orders.
type CreateOrderResult struct {
	Status       OrderStatus `json:"status"`
	OrderID      uuid.UUID   `json:"orderId"`
	TotalCents   int64       `json:"totalCents"`
	GatewayToken string      `json:"gatewayToken,omitempty"`
	CheckoutURL  string      `json:"checkoutUrl,omitempty"`
	BookingID    *uuid.UUID  `json:"bookingId,omitempty"`
}

// PaymentStatus is the caller-facing result of a poll.
type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "pending"
	PaymentStatusPaid    PaymentStatus = "paid"
	PaymentStatusFailed  PaymentStatus = "failed"
)

// PollResponse represents the response payload for a poll request.
type PollResponse struct {
	OrderID uuid.UUID     `json:"orderId"`
	Status  PaymentStatus `json:"status"`
}

// FinalizeResult describes the outcome of finalizing an order.
// Transitioned is false when the order had already been finalized.
type FinalizeResult struct {
	Order        *Order
	Booking      *Booking
	Transitioned bool
}

// OrderResponse represents the response payload for an order.
type OrderResponse struct {
	Order   *Order      `json:"order"`
	Items   []OrderItem `json:"items"`
	Booking *Booking    `json:"booking,omitempty"`
}
