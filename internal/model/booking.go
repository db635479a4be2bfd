package model

import (
	"time"

	"github.com/google/uuid"
)

// BookingStatus values. Confirmed is terminal for the confirmation workflow.
type BookingStatus string

const (
	BookingStatusPending        BookingStatus = "pending"
	BookingStatusPendingPayment BookingStatus = "pending_payment"
	BookingStatusConfirmed      BookingStatus = "confirmed"
	BookingStatusCancelled      BookingStatus = "cancelled"
	BookingStatusFailed         BookingStatus = "failed"
	BookingStatusExpired        BookingStatus = "expired"
)

// BookingType is the explicit discriminant for what was reserved.
type BookingType string

const (
	BookingTypeEvent BookingType = "event"
	BookingTypeOrder BookingType = "order"
)

// Booking is the reservation produced by the workflow. OrderID is nil for
// email-only bookings.
type Booking struct {
	ID             uuid.UUID     `json:"id" db:"id"`
	OrderID        *uuid.UUID    `json:"orderId,omitempty" db:"order_id"`
	Status         BookingStatus `json:"status" db:"status"`
	Type           BookingType   `json:"type" db:"booking_type"`
	Date           time.Time     `json:"date" db:"booking_date"`
	People         int           `json:"people" db:"people"`
	Label          string        `json:"label" db:"label"`
	Tier           string        `json:"tier,omitempty" db:"tier"`
	TotalCents     int64         `json:"totalCents" db:"total_cents"`
	EventRef       *string       `json:"eventRef,omitempty" db:"event_ref"`
	Email          string        `json:"email" db:"email"`
	Name           string        `json:"name" db:"name"`
	Phone          string        `json:"phone" db:"phone"`
	Notes          *string       `json:"notes,omitempty" db:"notes"`
	AgreePrivacy   bool          `json:"agreePrivacy" db:"agree_privacy"`
	AgreeMarketing bool          `json:"agreeMarketing" db:"agree_marketing"`
	CreatedAt      time.Time     `json:"createdAt" db:"created_at"`
	UpdatedAt      time.Time     `json:"updatedAt" db:"updated_at"`
}

// EmailOnlyBookingRequest represents the request payload for POST /bookings/email-only.
type EmailOnlyBookingRequest struct {
	EventRef       string   `json:"eventRef" validate:"required,max=100"`
	Customer       Customer `json:"customer" validate:"required"`
	People         int      `json:"people" validate:"gte=1,lte=50"`
	Notes          *string  `json:"notes,omitempty" validate:"omitempty,max=2000"`
	AgreePrivacy   bool     `json:"agreePrivacy" validate:"eq=true"`
	AgreeMarketing bool     `json:"agreeMarketing"`
}

// EmailOnlyBookingResponse represents the response payload for an email-only booking.
type EmailOnlyBookingResponse struct {
	BookingID uuid.UUID `json:"bookingId"`
}

// BookingVerification is a single-use, time-boxed token bound to a booking.
// Only the SHA-256 hash of the token is persisted.
type BookingVerification struct {
	ID        uuid.UUID  `db:"id"`
	BookingID uuid.UUID  `db:"booking_id"`
	TokenHash string     `db:"token_hash"`
	Email     string     `db:"email"`
	ExpiresAt time.Time  `db:"expires_at"`
	UsedAt    *time.Time `db:"used_at"`
	CreatedAt time.Time  `db:"created_at"`
}

// Expired reports whether the token is past its expiry at now.
func (v *BookingVerification) Expired(now time.Time) bool {
	return !now.Before(v.ExpiresAt)
}

// RedeemResult is the outcome of a successful token redemption.
// ShouldNotify is false when the booking was already confirmed.
type RedeemResult struct {
	Booking      *Booking
	ShouldNotify bool
}

// ConfirmationResult is the outcome of either confirmation flow.
// CheckoutCartID is set when the customer must go back to checkout to pay.
type ConfirmationResult struct {
	BookingID      *uuid.UUID
	OrderID        *uuid.UUID
	CheckoutCartID *uuid.UUID
	CheckoutToken  string
	Transitioned   bool
}
