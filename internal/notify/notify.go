// Package notify hands customer and admin notifications to a delivery
// channel. Rendering and sending the actual emails happens downstream.
package notify

import (
	"context"
	"time"

	"table-booking/internal/model"

	"github.com/google/uuid"
)

// Kind identifies the notification template a message is rendered with.
type Kind string

const (
	KindOrderConfirmation        Kind = "order_confirmation"
	KindOrderAdmin               Kind = "order_admin"
	KindOrderFailure             Kind = "order_failure"
	KindOrderVerify              Kind = "order_verify"
	KindBookingVerify            Kind = "booking_verify"
	KindBookingConfirmedCustomer Kind = "booking_confirmed_customer"
	KindBookingConfirmedAdmin    Kind = "booking_confirmed_admin"
)

// Message is the payload published for every notification.
type Message struct {
	ID         uuid.UUID  `json:"id"`
	Kind       Kind       `json:"kind"`
	To         string     `json:"to"`
	Name       string     `json:"name,omitempty"`
	OrderID    *uuid.UUID `json:"orderId,omitempty"`
	BookingID  *uuid.UUID `json:"bookingId,omitempty"`
	TotalCents int64      `json:"totalCents"`
	Currency   string     `json:"currency,omitempty"`
	Label      string     `json:"label,omitempty"`
	Date       *time.Time `json:"date,omitempty"`
	People     int        `json:"people,omitempty"`
	Link       string     `json:"link,omitempty"`
	Reason     string     `json:"reason,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"`
}

// Notifier sends workflow notifications. Callers treat every error as non-fatal.
type Notifier interface {
	SendOrderConfirmation(ctx context.Context, order *model.Order, booking *model.Booking) error
	SendOrderNotificationToAdmin(ctx context.Context, order *model.Order, booking *model.Booking) error
	SendOrderFailure(ctx context.Context, order *model.Order) error
	SendOrderVerifyEmail(ctx context.Context, order *model.Order, link string) error
	SendBookingVerifyEmail(ctx context.Context, booking *model.Booking, link string) error
	SendBookingConfirmedCustomer(ctx context.Context, booking *model.Booking) error
	SendBookingConfirmedAdmin(ctx context.Context, booking *model.Booking) error
}

// Publisher delivers a message to the notification channel.
type Publisher interface {
	Publish(ctx context.Context, msg Message) error
	Close() error
}
