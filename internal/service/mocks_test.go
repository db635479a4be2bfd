package service

import (
	"context"
	"time"

	"table-booking/internal/model"
	"table-booking/internal/payment"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/mock"
)

// MockTx is a minimal mock implementation of pgx.Tx for testing.
type MockTx struct {
	mock.Mock
	committed  bool
	rolledBack bool
}

func (m *MockTx) Commit(ctx context.Context) error {
	args := m.Called(ctx)
	m.committed = true
	return args.Error(0)
}

func (m *MockTx) Rollback(ctx context.Context) error {
	args := m.Called(ctx)
	m.rolledBack = true
	return args.Error(0)
}

// Stub methods to satisfy pgx.Tx interface - these are not used in our tests
func (m *MockTx) Begin(ctx context.Context) (pgx.Tx, error) { return nil, nil }
func (m *MockTx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	return 0, nil
}
func (m *MockTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults { return nil }
func (m *MockTx) LargeObjects() pgx.LargeObjects                               { return pgx.LargeObjects{} }
func (m *MockTx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	return nil, nil
}
func (m *MockTx) Exec(ctx context.Context, sql string, arguments ...any) (commandTag pgconn.CommandTag, err error) {
	return
}
func (m *MockTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, nil
}
func (m *MockTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row { return nil }
func (m *MockTx) Conn() *pgx.Conn                                               { return nil }

// MockTransactor is a mock implementation of Transactor.
type MockTransactor struct {
	mock.Mock
}

func (m *MockTransactor) BeginTx(ctx context.Context) (pgx.Tx, error) {
	args := m.Called(ctx)
	// Return a MockTx interface value, not a pointer
	if tx, ok := args.Get(0).(pgx.Tx); ok {
		return tx, args.Error(1)
	}
	return nil, args.Error(1)
}

// MockCartRepository is a mock implementation of CartRepository.
type MockCartRepository struct {
	mock.Mock
}

func (m *MockCartRepository) Create(ctx context.Context, cart *model.Cart) error {
	return m.Called(ctx, cart).Error(0)
}

func (m *MockCartRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Cart, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Cart), args.Error(1)
}

func (m *MockCartRepository) GetForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*model.Cart, error) {
	args := m.Called(ctx, tx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Cart), args.Error(1)
}

func (m *MockCartRepository) AddItem(ctx context.Context, item *model.CartItem) error {
	return m.Called(ctx, item).Error(0)
}

func (m *MockCartRepository) UpdateItemQuantity(ctx context.Context, cartID, itemID uuid.UUID, quantity int) (bool, error) {
	args := m.Called(ctx, cartID, itemID, quantity)
	return args.Bool(0), args.Error(1)
}

func (m *MockCartRepository) RemoveItem(ctx context.Context, cartID, itemID uuid.UUID) (bool, error) {
	args := m.Called(ctx, cartID, itemID)
	return args.Bool(0), args.Error(1)
}

func (m *MockCartRepository) RecalculateTotal(ctx context.Context, tx pgx.Tx, cartID uuid.UUID) (int64, error) {
	args := m.Called(ctx, tx, cartID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockCartRepository) AdvanceStatus(ctx context.Context, tx pgx.Tx, cartID uuid.UUID, from []model.CartStatus, to model.CartStatus) (bool, error) {
	args := m.Called(ctx, tx, cartID, from, to)
	return args.Bool(0), args.Error(1)
}

func (m *MockCartRepository) Complete(ctx context.Context, tx pgx.Tx, cartID uuid.UUID) error {
	return m.Called(ctx, tx, cartID).Error(0)
}

// MockOrderRepository is a mock implementation of OrderRepository.
type MockOrderRepository struct {
	mock.Mock
}

func (m *MockOrderRepository) Create(ctx context.Context, tx pgx.Tx, order *model.Order) error {
	return m.Called(ctx, tx, order).Error(0)
}

func (m *MockOrderRepository) CreateItems(ctx context.Context, tx pgx.Tx, items []model.OrderItem) error {
	return m.Called(ctx, tx, items).Error(0)
}

func (m *MockOrderRepository) orderResult(args mock.Arguments) (*model.Order, []model.OrderItem, error) {
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	items, _ := args.Get(1).([]model.OrderItem)
	return args.Get(0).(*model.Order), items, args.Error(2)
}

func (m *MockOrderRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Order, []model.OrderItem, error) {
	return m.orderResult(m.Called(ctx, id))
}

func (m *MockOrderRepository) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*model.Order, []model.OrderItem, error) {
	return m.orderResult(m.Called(ctx, tx, id))
}

func (m *MockOrderRepository) GetLatestByCartID(ctx context.Context, cartID uuid.UUID) (*model.Order, []model.OrderItem, error) {
	return m.orderResult(m.Called(ctx, cartID))
}

func (m *MockOrderRepository) HasPendingForCart(ctx context.Context, tx pgx.Tx, cartID uuid.UUID) (bool, error) {
	args := m.Called(ctx, tx, cartID)
	return args.Bool(0), args.Error(1)
}

func (m *MockOrderRepository) SetPaymentRef(ctx context.Context, id uuid.UUID, ref string) error {
	return m.Called(ctx, id, ref).Error(0)
}

func (m *MockOrderRepository) MarkFinalized(ctx context.Context, tx pgx.Tx, id uuid.UUID) (bool, error) {
	args := m.Called(ctx, tx, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockOrderRepository) MarkFailed(ctx context.Context, id uuid.UUID, reason string) (bool, error) {
	args := m.Called(ctx, id, reason)
	return args.Bool(0), args.Error(1)
}

func (m *MockOrderRepository) MarkConfirmed(ctx context.Context, tx pgx.Tx, id uuid.UUID, contact model.Customer) (bool, error) {
	args := m.Called(ctx, tx, id, contact)
	return args.Bool(0), args.Error(1)
}

// MockProductRepository is a mock implementation of ProductRepository.
type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) GetByID(ctx context.Context, id string) (*model.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Product), args.Error(1)
}

func (m *MockProductRepository) DecrementStock(ctx context.Context, tx pgx.Tx, id string, quantity int) error {
	return m.Called(ctx, tx, id, quantity).Error(0)
}

// MockBookingRepository is a mock implementation of BookingRepository.
type MockBookingRepository struct {
	mock.Mock
}

func bookingResult(args mock.Arguments) (*model.Booking, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Booking), args.Error(1)
}

func (m *MockBookingRepository) Create(ctx context.Context, tx pgx.Tx, booking *model.Booking) error {
	return m.Called(ctx, tx, booking).Error(0)
}

func (m *MockBookingRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Booking, error) {
	return bookingResult(m.Called(ctx, id))
}

func (m *MockBookingRepository) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*model.Booking, error) {
	return bookingResult(m.Called(ctx, tx, id))
}

func (m *MockBookingRepository) GetByOrderID(ctx context.Context, orderID uuid.UUID) (*model.Booking, error) {
	return bookingResult(m.Called(ctx, orderID))
}

func (m *MockBookingRepository) GetByOrderIDForUpdate(ctx context.Context, tx pgx.Tx, orderID uuid.UUID) (*model.Booking, error) {
	return bookingResult(m.Called(ctx, tx, orderID))
}

func (m *MockBookingRepository) Update(ctx context.Context, tx pgx.Tx, booking *model.Booking) error {
	return m.Called(ctx, tx, booking).Error(0)
}

func (m *MockBookingRepository) Confirm(ctx context.Context, tx pgx.Tx, id uuid.UUID) (bool, error) {
	args := m.Called(ctx, tx, id)
	return args.Bool(0), args.Error(1)
}

// MockVerificationRepository is a mock implementation of VerificationRepository.
type MockVerificationRepository struct {
	mock.Mock
}

func (m *MockVerificationRepository) Create(ctx context.Context, tx pgx.Tx, v *model.BookingVerification) error {
	return m.Called(ctx, tx, v).Error(0)
}

func (m *MockVerificationRepository) GetByTokenHashForUpdate(ctx context.Context, tx pgx.Tx, tokenHash string) (*model.BookingVerification, error) {
	args := m.Called(ctx, tx, tokenHash)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.BookingVerification), args.Error(1)
}

func (m *MockVerificationRepository) MarkUsed(ctx context.Context, tx pgx.Tx, id uuid.UUID, usedAt time.Time) (bool, error) {
	args := m.Called(ctx, tx, id, usedAt)
	return args.Bool(0), args.Error(1)
}

func (m *MockVerificationRepository) DeleteSiblings(ctx context.Context, tx pgx.Tx, bookingID, keepID uuid.UUID) (int64, error) {
	args := m.Called(ctx, tx, bookingID, keepID)
	return args.Get(0).(int64), args.Error(1)
}

// MockMaterializer is a mock implementation of BookingMaterializer.
type MockMaterializer struct {
	mock.Mock
}

func (m *MockMaterializer) EnsureBooking(ctx context.Context, tx pgx.Tx, order *model.Order, items []model.OrderItem) (*model.Booking, error) {
	return bookingResult(m.Called(ctx, tx, order, items))
}

// MockTokenStore is a mock implementation of TokenStore.
type MockTokenStore struct {
	mock.Mock
}

func (m *MockTokenStore) Issue(ctx context.Context, tx pgx.Tx, bookingID uuid.UUID, email string, ttl time.Duration) (string, error) {
	args := m.Called(ctx, tx, bookingID, email, ttl)
	return args.String(0), args.Error(1)
}

func (m *MockTokenStore) Redeem(ctx context.Context, tx pgx.Tx, token string) (*model.RedeemResult, error) {
	args := m.Called(ctx, tx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.RedeemResult), args.Error(1)
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

// MockGateway is a mock implementation of payment.Gateway.
type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) Provider() string {
	return m.Called().String(0)
}

func (m *MockGateway) CreatePaymentOrder(ctx context.Context, req payment.CreateRequest) (*payment.CreateResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.CreateResponse), args.Error(1)
}

func (m *MockGateway) RetrievePaymentOrder(ctx context.Context, gatewayOrderID string) (*payment.RemoteOrder, error) {
	args := m.Called(ctx, gatewayOrderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.RemoteOrder), args.Error(1)
}

// MockNotifier is a mock implementation of notify.Notifier.
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) SendOrderConfirmation(ctx context.Context, order *model.Order, booking *model.Booking) error {
	return m.Called(ctx, order, booking).Error(0)
}

func (m *MockNotifier) SendOrderNotificationToAdmin(ctx context.Context, order *model.Order, booking *model.Booking) error {
	return m.Called(ctx, order, booking).Error(0)
}

func (m *MockNotifier) SendOrderFailure(ctx context.Context, order *model.Order) error {
	return m.Called(ctx, order).Error(0)
}

func (m *MockNotifier) SendOrderVerifyEmail(ctx context.Context, order *model.Order, link string) error {
	return m.Called(ctx, order, link).Error(0)
}

func (m *MockNotifier) SendBookingVerifyEmail(ctx context.Context, booking *model.Booking, link string) error {
	return m.Called(ctx, booking, link).Error(0)
}

func (m *MockNotifier) SendBookingConfirmedCustomer(ctx context.Context, booking *model.Booking) error {
	return m.Called(ctx, booking).Error(0)
}

func (m *MockNotifier) SendBookingConfirmedAdmin(ctx context.Context, booking *model.Booking) error {
	return m.Called(ctx, booking).Error(0)
}

// MockCatalog is a mock implementation of catalog.Catalog.
type MockCatalog struct {
	mock.Mock
}

func (m *MockCatalog) Event(ctx context.Context, ref string) (*model.Event, error) {
	args := m.Called(ctx, ref)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Event), args.Error(1)
}

func (m *MockCatalog) Size() int {
	return m.Called().Int(0)
}

func (m *MockCatalog) Close() error {
	return m.Called().Error(0)
}

// fixedClock returns a now func pinned to t.
func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}
