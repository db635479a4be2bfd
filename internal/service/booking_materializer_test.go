package service

import (
	"context"
	"testing"
	"time"

	"table-booking/internal/model"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestBookingMaterializer_CreatesEventBooking(t *testing.T) {
	ctx := context.Background()
	bookings := new(MockBookingRepository)
	tx := new(MockTx)
	m := NewBookingMaterializer(bookings, zerolog.Nop())

	orderID, cartID := uuid.New(), uuid.New()
	order := &model.Order{
		ID:         orderID,
		CartID:     cartID,
		Email:      "ada@example.com",
		Name:       "Ada Lovelace",
		Phone:      "+44 20 7946 0000",
		TotalCents: 9500,
		CreatedAt:  time.Date(2030, 2, 1, 10, 0, 0, 0, time.UTC),
	}
	items := []model.OrderItem{
		{LineItem: productCartItem(cartID, "P001", 2500, 1).LineItem},
		{LineItem: eventCartItem(cartID, "wine-0501", 3500, 2, false).LineItem},
	}

	bookings.On("GetByOrderIDForUpdate", ctx, tx, orderID).Return(nil, nil)
	bookings.On("Create", ctx, tx, mock.AnythingOfType("*model.Booking")).Return(nil)

	booking, err := m.EnsureBooking(ctx, tx, order, items)

	require.NoError(t, err)
	assert.Equal(t, model.BookingStatusConfirmed, booking.Status)
	assert.Equal(t, model.BookingTypeEvent, booking.Type)
	assert.Equal(t, 3, booking.People)
	assert.Equal(t, "Wine evening", booking.Label)
	assert.Equal(t, time.Date(2030, 5, 1, 19, 30, 0, 0, time.UTC), booking.Date)
	require.NotNil(t, booking.EventRef)
	assert.Equal(t, "wine-0501", *booking.EventRef)
	assert.Equal(t, int64(9500), booking.TotalCents)
	assert.Equal(t, orderID, *booking.OrderID)
	assert.Equal(t, "ada@example.com", booking.Email)
	bookings.AssertExpectations(t)
}

func TestBookingMaterializer_OrderTypeUsesOrderDate(t *testing.T) {
	ctx := context.Background()
	bookings := new(MockBookingRepository)
	m := NewBookingMaterializer(bookings, zerolog.Nop())

	created := time.Date(2030, 2, 1, 10, 0, 0, 0, time.UTC)
	order := &model.Order{ID: uuid.New(), CreatedAt: created}

	bookings.On("GetByOrderIDForUpdate", ctx, mock.Anything, order.ID).Return(nil, nil)
	bookings.On("Create", ctx, mock.Anything, mock.AnythingOfType("*model.Booking")).Return(nil)

	booking, err := m.EnsureBooking(ctx, nil, order, nil)

	require.NoError(t, err)
	assert.Equal(t, model.BookingTypeOrder, booking.Type)
	assert.Equal(t, created, booking.Date)
	assert.Equal(t, 1, booking.People)
	assert.Nil(t, booking.EventRef)
}

func TestBookingMaterializer_RefreshesExisting(t *testing.T) {
	ctx := context.Background()
	bookings := new(MockBookingRepository)
	tx := new(MockTx)
	m := NewBookingMaterializer(bookings, zerolog.Nop())

	orderID := uuid.New()
	existing := &model.Booking{
		ID:      uuid.New(),
		OrderID: &orderID,
		Status:  model.BookingStatusPendingPayment,
		Type:    model.BookingTypeEvent,
		People:  1,
		Email:   "old@example.com",
	}
	order := &model.Order{ID: orderID, Email: "new@example.com", Name: "New Name", Phone: "123", TotalCents: 7000}
	items := []model.OrderItem{{LineItem: model.LineItem{Kind: model.ItemKindEvent, Quantity: 4}}}

	bookings.On("GetByOrderIDForUpdate", ctx, tx, orderID).Return(existing, nil)
	bookings.On("Update", ctx, tx, existing).Return(nil)

	booking, err := m.EnsureBooking(ctx, tx, order, items)

	require.NoError(t, err)
	assert.Same(t, existing, booking)
	assert.Equal(t, model.BookingStatusConfirmed, booking.Status)
	assert.Equal(t, 4, booking.People)
	assert.Equal(t, int64(7000), booking.TotalCents)
	assert.Equal(t, "new@example.com", booking.Email)
	bookings.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
}
