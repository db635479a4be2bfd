package service

import (
	"context"
	"fmt"
	"time"

	"table-booking/internal/model"
	"table-booking/internal/repository"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

// bookingMaterializer implements BookingMaterializer.
type bookingMaterializer struct {
	bookingRepo repository.BookingRepository
	now         func() time.Time
	logger      zerolog.Logger
}

// NewBookingMaterializer creates a materializer that keeps exactly one booking per order.
func NewBookingMaterializer(bookingRepo repository.BookingRepository, logger zerolog.Logger) BookingMaterializer {
	return &bookingMaterializer{
		bookingRepo: bookingRepo,
		now:         time.Now,
		logger:      logger.With().Str("service", "booking_materializer").Logger(),
	}
}

// EnsureBooking creates the order's booking, or refreshes it when one already exists.
func (m *bookingMaterializer) EnsureBooking(ctx context.Context, tx pgx.Tx, order *model.Order, items []model.OrderItem) (*model.Booking, error) {
	existing, err := m.bookingRepo.GetByOrderIDForUpdate(ctx, tx, order.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get booking for order: %w", err)
	}

	people := peopleFor(items)
	now := m.now()

	if existing != nil {
		existing.Status = model.BookingStatusConfirmed
		existing.TotalCents = order.TotalCents
		existing.People = people
		existing.Email = order.Email
		existing.Name = order.Name
		existing.Phone = order.Phone
		existing.Notes = order.Notes
		existing.UpdatedAt = now

		if err := m.bookingRepo.Update(ctx, tx, existing); err != nil {
			return nil, fmt.Errorf("failed to update booking: %w", err)
		}

		m.logger.Debug().
			Str("booking_id", existing.ID.String()).
			Str("order_id", order.ID.String()).
			Msg("booking refreshed")
		return existing, nil
	}

	orderID := order.ID
	booking := &model.Booking{
		ID:           uuid.New(),
		OrderID:      &orderID,
		Status:       model.BookingStatusConfirmed,
		Type:         model.BookingTypeOrder,
		Date:         order.CreatedAt,
		People:       people,
		Label:        "Order " + order.ID.String()[:8],
		TotalCents:   order.TotalCents,
		Email:        order.Email,
		Name:         order.Name,
		Phone:        order.Phone,
		Notes:        order.Notes,
		AgreePrivacy: true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if event := firstEventItem(items); event != nil {
		booking.Type = model.BookingTypeEvent
		booking.Label = event.Label
		booking.Tier = event.Tier
		booking.EventRef = event.EventRef
		if event.EventDate != nil {
			booking.Date = *event.EventDate
		}
	}

	if err := m.bookingRepo.Create(ctx, tx, booking); err != nil {
		return nil, fmt.Errorf("failed to create booking: %w", err)
	}

	m.logger.Info().
		Str("booking_id", booking.ID.String()).
		Str("order_id", order.ID.String()).
		Str("type", string(booking.Type)).
		Int("people", booking.People).
		Msg("booking created")

	return booking, nil
}

// peopleFor sums item quantities, never returning less than one.
func peopleFor(items []model.OrderItem) int {
	people := 0
	for _, item := range items {
		people += item.Quantity
	}
	return max(people, 1)
}

func firstEventItem(items []model.OrderItem) *model.OrderItem {
	for i := range items {
		if items[i].Kind == model.ItemKindEvent {
			return &items[i]
		}
	}
	return nil
}
