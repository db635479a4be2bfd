package handler

import (
	"context"

	"table-booking/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockCartService is a mock implementation of CartService.
type MockCartService struct {
	mock.Mock
}

func cartResult(args mock.Arguments) (*model.Cart, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Cart), args.Error(1)
}

func (m *MockCartService) Create(ctx context.Context) (*model.Cart, error) {
	return cartResult(m.Called(ctx))
}

func (m *MockCartService) Get(ctx context.Context, id uuid.UUID) (*model.Cart, error) {
	return cartResult(m.Called(ctx, id))
}

func (m *MockCartService) AddItem(ctx context.Context, cartID uuid.UUID, req *model.CartItemRequest) (*model.Cart, error) {
	return cartResult(m.Called(ctx, cartID, req))
}

func (m *MockCartService) UpdateItemQuantity(ctx context.Context, cartID, itemID uuid.UUID, req *model.CartItemUpdateRequest) (*model.Cart, error) {
	return cartResult(m.Called(ctx, cartID, itemID, req))
}

func (m *MockCartService) RemoveItem(ctx context.Context, cartID, itemID uuid.UUID) (*model.Cart, error) {
	return cartResult(m.Called(ctx, cartID, itemID))
}

func (m *MockCartService) RecalculateTotal(ctx context.Context, cartID uuid.UUID) (int64, error) {
	args := m.Called(ctx, cartID)
	return args.Get(0).(int64), args.Error(1)
}

// MockOrderService is a mock implementation of OrderService.
type MockOrderService struct {
	mock.Mock
}

func (m *MockOrderService) CreateOrder(ctx context.Context, req *model.CreateOrderRequest) (*model.CreateOrderResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.CreateOrderResult), args.Error(1)
}

func (m *MockOrderService) Finalize(ctx context.Context, orderID uuid.UUID) (*model.FinalizeResult, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.FinalizeResult), args.Error(1)
}

func (m *MockOrderService) Fail(ctx context.Context, orderID uuid.UUID, reason string) (bool, error) {
	args := m.Called(ctx, orderID, reason)
	return args.Bool(0), args.Error(1)
}

func (m *MockOrderService) PollStatus(ctx context.Context, orderID uuid.UUID) (*model.PollResponse, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.PollResponse), args.Error(1)
}

func (m *MockOrderService) GetByID(ctx context.Context, id uuid.UUID) (*model.OrderResponse, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.OrderResponse), args.Error(1)
}

// MockBookingService is a mock implementation of BookingService.
type MockBookingService struct {
	mock.Mock
}

func (m *MockBookingService) CreateEmailOnly(ctx context.Context, req *model.EmailOnlyBookingRequest) (*model.EmailOnlyBookingResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.EmailOnlyBookingResponse), args.Error(1)
}

// MockConfirmationService is a mock implementation of ConfirmationService.
type MockConfirmationService struct {
	mock.Mock
}

func (m *MockConfirmationService) ConfirmBooking(ctx context.Context, token string, bookingID *uuid.UUID) (*model.ConfirmationResult, error) {
	args := m.Called(ctx, token, bookingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ConfirmationResult), args.Error(1)
}

func (m *MockConfirmationService) ConfirmLegacyOrder(ctx context.Context, token string) (*model.ConfirmationResult, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ConfirmationResult), args.Error(1)
}

func (m *MockConfirmationService) RequestOrderVerification(ctx context.Context, orderID uuid.UUID) error {
	return m.Called(ctx, orderID).Error(0)
}

func (m *MockConfirmationService) IssueLegacyToken(cartID uuid.UUID, email string) (string, error) {
	args := m.Called(cartID, email)
	return args.String(0), args.Error(1)
}
