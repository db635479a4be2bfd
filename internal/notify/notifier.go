package notify

import (
	"context"
	"fmt"
	"time"

	"table-booking/internal/model"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// publishingNotifier turns workflow events into messages for a Publisher.
type publishingNotifier struct {
	publisher  Publisher
	adminEmail string
	logger     zerolog.Logger
}

// NewNotifier creates a Notifier. Admin notifications are dropped when adminEmail is empty.
func NewNotifier(publisher Publisher, adminEmail string, logger zerolog.Logger) Notifier {
	return &publishingNotifier{
		publisher:  publisher,
		adminEmail: adminEmail,
		logger:     logger.With().Str("component", "notifier").Logger(),
	}
}

func (n *publishingNotifier) SendOrderConfirmation(ctx context.Context, order *model.Order, booking *model.Booking) error {
	msg := orderMessage(KindOrderConfirmation, order.Email, order)
	withBooking(&msg, booking)
	return n.publish(ctx, msg)
}

func (n *publishingNotifier) SendOrderNotificationToAdmin(ctx context.Context, order *model.Order, booking *model.Booking) error {
	if n.adminEmail == "" {
		n.logger.Debug().Str("order_id", order.ID.String()).Msg("no admin recipient configured")
		return nil
	}
	msg := orderMessage(KindOrderAdmin, n.adminEmail, order)
	withBooking(&msg, booking)
	return n.publish(ctx, msg)
}

func (n *publishingNotifier) SendOrderFailure(ctx context.Context, order *model.Order) error {
	msg := orderMessage(KindOrderFailure, order.Email, order)
	if order.FailureReason != nil {
		msg.Reason = *order.FailureReason
	}
	return n.publish(ctx, msg)
}

func (n *publishingNotifier) SendOrderVerifyEmail(ctx context.Context, order *model.Order, link string) error {
	msg := orderMessage(KindOrderVerify, order.Email, order)
	msg.Link = link
	return n.publish(ctx, msg)
}

func (n *publishingNotifier) SendBookingVerifyEmail(ctx context.Context, booking *model.Booking, link string) error {
	msg := bookingMessage(KindBookingVerify, booking.Email, booking)
	msg.Link = link
	return n.publish(ctx, msg)
}

func (n *publishingNotifier) SendBookingConfirmedCustomer(ctx context.Context, booking *model.Booking) error {
	return n.publish(ctx, bookingMessage(KindBookingConfirmedCustomer, booking.Email, booking))
}

func (n *publishingNotifier) SendBookingConfirmedAdmin(ctx context.Context, booking *model.Booking) error {
	if n.adminEmail == "" {
		n.logger.Debug().Str("booking_id", booking.ID.String()).Msg("no admin recipient configured")
		return nil
	}
	return n.publish(ctx, bookingMessage(KindBookingConfirmedAdmin, n.adminEmail, booking))
}

func (n *publishingNotifier) publish(ctx context.Context, msg Message) error {
	if err := n.publisher.Publish(ctx, msg); err != nil {
		n.logger.Error().
			Err(err).
			Str("kind", string(msg.Kind)).
			Str("message_id", msg.ID.String()).
			Msg("failed to publish notification")
		return fmt.Errorf("failed to publish %s notification: %w", msg.Kind, err)
	}

	n.logger.Debug().
		Str("kind", string(msg.Kind)).
		Str("message_id", msg.ID.String()).
		Msg("notification published")

	return nil
}

func orderMessage(kind Kind, to string, order *model.Order) Message {
	orderID := order.ID
	return Message{
		ID:         uuid.New(),
		Kind:       kind,
		To:         to,
		Name:       order.Name,
		OrderID:    &orderID,
		TotalCents: order.TotalCents,
		Currency:   order.Currency,
		CreatedAt:  time.Now().UTC(),
	}
}

func bookingMessage(kind Kind, to string, booking *model.Booking) Message {
	msg := Message{
		ID:         uuid.New(),
		Kind:       kind,
		To:         to,
		Name:       booking.Name,
		OrderID:    booking.OrderID,
		TotalCents: booking.TotalCents,
		CreatedAt:  time.Now().UTC(),
	}
	withBooking(&msg, booking)
	return msg
}

func withBooking(msg *Message, booking *model.Booking) {
	if booking == nil {
		return
	}
	bookingID := booking.ID
	date := booking.Date
	msg.BookingID = &bookingID
	msg.Label = booking.Label
	msg.Date = &date
	msg.People = booking.People
}
