package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"table-booking/internal/config"
	"table-booking/internal/model"
	"table-booking/internal/notify"
	"table-booking/internal/payment"
	"table-booking/internal/repository"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

// persistTimeout bounds the writes that record a gateway outcome. They run
// detached from the request so a client disconnect cannot skip them.
const persistTimeout = 5 * time.Second

// orderService implements OrderService.
type orderService struct {
	txr          repository.Transactor
	cartRepo     repository.CartRepository
	orderRepo    repository.OrderRepository
	productRepo  repository.ProductRepository
	bookingRepo  repository.BookingRepository
	materializer BookingMaterializer
	gateway      payment.Gateway
	notifier     notify.Notifier
	cfg          config.GatewayConfig
	now          func() time.Time
	logger       zerolog.Logger
}

// NewOrderService creates a new order service.
func NewOrderService(
	txr repository.Transactor,
	cartRepo repository.CartRepository,
	orderRepo repository.OrderRepository,
	productRepo repository.ProductRepository,
	bookingRepo repository.BookingRepository,
	materializer BookingMaterializer,
	gateway payment.Gateway,
	notifier notify.Notifier,
	cfg config.GatewayConfig,
	logger zerolog.Logger,
) OrderService {
	return &orderService{
		txr:          txr,
		cartRepo:     cartRepo,
		orderRepo:    orderRepo,
		productRepo:  productRepo,
		bookingRepo:  bookingRepo,
		materializer: materializer,
		gateway:      gateway,
		notifier:     notifier,
		cfg:          cfg,
		now:          time.Now,
		logger:       logger.With().Str("service", "order").Logger(),
	}
}

// CreateOrder snapshots the cart into an order. A zero total is finalized in the
// same transaction; a positive total opens a hosted payment at the gateway.
func (s *orderService) CreateOrder(ctx context.Context, req *model.CreateOrderRequest) (*model.CreateOrderResult, error) {
	if req == nil {
		return nil, model.ErrInvalidPayload
	}
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	now := s.now()
	order := &model.Order{
		ID:        uuid.New(),
		CartID:    req.CartID,
		Email:     req.Customer.Email,
		Name:      req.Customer.Name,
		Phone:     req.Customer.Phone,
		Notes:     req.Customer.Notes,
		Currency:  s.cfg.Currency,
		CreatedAt: now,
		UpdatedAt: now,
	}
	var finalized *model.FinalizeResult

	err := withTx(ctx, s.txr, s.logger, func(tx pgx.Tx) error {
		cart, err := s.cartRepo.GetForUpdate(ctx, tx, req.CartID)
		if err != nil {
			return fmt.Errorf("failed to get cart: %w", err)
		}
		if cart == nil {
			return model.ErrCartNotFound
		}
		if len(cart.Items) == 0 {
			return model.ErrCartEmpty
		}
		if cart.Status != model.CartStatusOpen && cart.Status != model.CartStatusLocked {
			return model.ErrCartNotReady
		}

		pending, err := s.orderRepo.HasPendingForCart(ctx, tx, cart.ID)
		if err != nil {
			return fmt.Errorf("failed to check pending orders: %w", err)
		}
		if pending {
			return model.ErrOrderPending
		}

		total, err := s.cartRepo.RecalculateTotal(ctx, tx, cart.ID)
		if err != nil {
			return fmt.Errorf("failed to recalculate cart total: %w", err)
		}

		order.TotalCents = total
		order.Status = model.OrderStatusPendingPayment
		if total <= 0 {
			order.Status = model.OrderStatusPaid
		}

		if err := s.orderRepo.Create(ctx, tx, order); err != nil {
			return fmt.Errorf("failed to create order: %w", err)
		}

		items := snapshotItems(order.ID, cart.Items)
		if err := s.orderRepo.CreateItems(ctx, tx, items); err != nil {
			return fmt.Errorf("failed to create order items: %w", err)
		}

		if order.Status == model.OrderStatusPaid {
			finalized, err = s.finalizeInTx(ctx, tx, order, items)
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		s.logger.Warn().Err(err).Str("cart_id", req.CartID.String()).Msg("order creation rejected")
		return nil, err
	}

	if finalized != nil {
		s.notifyFinalized(ctx, finalized)

		s.logger.Info().
			Str("order_id", order.ID.String()).
			Msg("zero-total order finalized")

		result := &model.CreateOrderResult{
			Status:     model.OrderStatusPaid,
			OrderID:    order.ID,
			TotalCents: order.TotalCents,
		}
		if finalized.Booking != nil {
			result.BookingID = &finalized.Booking.ID
		}
		return result, nil
	}

	return s.startPayment(ctx, order)
}

// startPayment opens the remote payment order and records its reference.
// A gateway failure fails the local order; there is no retry.
func (s *orderService) startPayment(ctx context.Context, order *model.Order) (*model.CreateOrderResult, error) {
	gwCtx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	resp, err := s.gateway.CreatePaymentOrder(gwCtx, payment.CreateRequest{
		AmountMinor:     order.TotalCents,
		Currency:        order.Currency,
		MerchantOrderID: order.ID.String(),
		Customer: payment.Customer{
			Email: order.Email,
			Name:  order.Name,
			Phone: order.Phone,
		},
		Description: "Order " + order.ID.String(),
	})
	persistCtx, cancelPersist := context.WithTimeout(context.WithoutCancel(ctx), persistTimeout)
	defer cancelPersist()

	if err != nil {
		s.logger.Error().Err(err).Str("order_id", order.ID.String()).Msg("gateway order creation failed")

		if _, failErr := s.Fail(persistCtx, order.ID, "gateway_create_failed"); failErr != nil {
			s.logger.Error().Err(failErr).Str("order_id", order.ID.String()).Msg("failed to mark order failed")
		}
		return nil, fmt.Errorf("%w: %v", model.ErrPaymentGatewayError, err)
	}

	ref, err := payment.EncodeReference(payment.Reference{
		Provider:         s.gateway.Provider(),
		GatewayOrderID:   resp.GatewayOrderID,
		CheckoutToken:    resp.CheckoutToken,
		HostedPaymentURL: resp.HostedPaymentURL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode payment reference: %w", err)
	}

	if err := s.orderRepo.SetPaymentRef(persistCtx, order.ID, ref); err != nil {
		s.logger.Error().
			Err(err).
			Str("order_id", order.ID.String()).
			Str("gateway_order_id", resp.GatewayOrderID).
			Msg("remote payment order created but reference not stored")
		return nil, fmt.Errorf("failed to store payment reference: %w", err)
	}

	s.logger.Info().
		Str("order_id", order.ID.String()).
		Str("gateway_order_id", resp.GatewayOrderID).
		Int64("total_cents", order.TotalCents).
		Msg("order awaiting payment")

	return &model.CreateOrderResult{
		Status:       model.OrderStatusPendingPayment,
		OrderID:      order.ID,
		TotalCents:   order.TotalCents,
		GatewayToken: resp.CheckoutToken,
		CheckoutURL:  resp.HostedPaymentURL,
	}, nil
}

// Finalize marks the order paid and materializes its booking exactly once.
func (s *orderService) Finalize(ctx context.Context, orderID uuid.UUID) (*model.FinalizeResult, error) {
	var result *model.FinalizeResult

	err := withTx(ctx, s.txr, s.logger, func(tx pgx.Tx) error {
		order, items, err := s.orderRepo.GetByIDForUpdate(ctx, tx, orderID)
		if err != nil {
			return fmt.Errorf("failed to get order: %w", err)
		}
		if order == nil {
			return model.ErrOrderNotFound
		}

		result, err = s.finalizeInTx(ctx, tx, order, items)
		return err
	})
	if err != nil {
		return nil, err
	}

	if result.Transitioned {
		s.notifyFinalized(ctx, result)
	}

	return result, nil
}

// finalizeInTx applies the one-time paid transition and its side effects.
func (s *orderService) finalizeInTx(ctx context.Context, tx pgx.Tx, order *model.Order, items []model.OrderItem) (*model.FinalizeResult, error) {
	ok, err := s.orderRepo.MarkFinalized(ctx, tx, order.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to finalize order: %w", err)
	}
	if !ok {
		s.logger.Debug().Str("order_id", order.ID.String()).Msg("order already finalized")

		booking, err := s.bookingRepo.GetByOrderIDForUpdate(ctx, tx, order.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to get booking for order: %w", err)
		}
		return &model.FinalizeResult{Order: order, Booking: booking}, nil
	}

	now := s.now()
	if order.Status != model.OrderStatusConfirmed {
		order.Status = model.OrderStatusPaid
	}
	order.FinalizedAt = &now

	booking, err := s.materializer.EnsureBooking(ctx, tx, order, items)
	if err != nil {
		return nil, err
	}

	for _, item := range items {
		if item.Kind != model.ItemKindProduct || item.ProductID == nil {
			continue
		}
		if err := s.productRepo.DecrementStock(ctx, tx, *item.ProductID, item.Quantity); err != nil {
			return nil, fmt.Errorf("failed to decrement stock: %w", err)
		}
	}

	if err := s.cartRepo.Complete(ctx, tx, order.CartID); err != nil {
		return nil, fmt.Errorf("failed to complete cart: %w", err)
	}

	s.logger.Info().
		Str("order_id", order.ID.String()).
		Str("booking_id", booking.ID.String()).
		Msg("order finalized")

	return &model.FinalizeResult{Order: order, Booking: booking, Transitioned: true}, nil
}

// Fail marks a pending order failed and notifies the customer once.
func (s *orderService) Fail(ctx context.Context, orderID uuid.UUID, reason string) (bool, error) {
	ok, err := s.orderRepo.MarkFailed(ctx, orderID, reason)
	if err != nil {
		return false, fmt.Errorf("failed to mark order failed: %w", err)
	}
	if !ok {
		return false, nil
	}

	s.logger.Info().Str("order_id", orderID.String()).Str("reason", reason).Msg("order failed")

	order, _, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil || order == nil {
		s.logger.Error().Err(err).Str("order_id", orderID.String()).Msg("failed to load failed order for notification")
		return true, nil
	}
	if err := s.notifier.SendOrderFailure(ctx, order); err != nil {
		s.logger.Error().Err(err).Str("order_id", orderID.String()).Msg("failed to send order failure notification")
	}

	return true, nil
}

// PollStatus reconciles the order with the gateway. Concurrent callers race on
// the finalize and fail transitions; only one wins each.
func (s *orderService) PollStatus(ctx context.Context, orderID uuid.UUID) (*model.PollResponse, error) {
	order, _, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	if order == nil {
		return nil, model.ErrOrderNotFound
	}

	resp := &model.PollResponse{OrderID: orderID, Status: model.PaymentStatusPending}

	switch order.Status {
	case model.OrderStatusPaid, model.OrderStatusConfirmed:
		resp.Status = model.PaymentStatusPaid
		return resp, nil
	case model.OrderStatusFailed:
		resp.Status = model.PaymentStatusFailed
		return resp, nil
	}

	if order.PaymentRef == nil {
		return resp, nil
	}
	ref, err := payment.DecodeReference(*order.PaymentRef)
	if err != nil {
		if !errors.Is(err, payment.ErrNotGatewayBacked) {
			s.logger.Warn().Err(err).Str("order_id", orderID.String()).Msg("unreadable payment reference")
		}
		return resp, nil
	}

	gwCtx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	remote, err := s.gateway.RetrievePaymentOrder(gwCtx, ref.GatewayOrderID)
	if err != nil {
		s.logger.Warn().Err(err).Str("order_id", orderID.String()).Msg("gateway poll failed")
		return resp, nil
	}

	switch {
	case payment.IsPaid(remote.State):
		res, err := s.Finalize(ctx, orderID)
		if err != nil {
			return nil, err
		}
		resp.Status = model.PaymentStatusPaid
		if !res.Transitioned && res.Order.Status == model.OrderStatusFailed {
			resp.Status = model.PaymentStatusFailed
		}
	case payment.IsFailed(remote.State):
		ok, err := s.Fail(ctx, orderID, "gateway_"+remote.State)
		if err != nil {
			return nil, err
		}
		resp.Status = model.PaymentStatusFailed
		if !ok {
			resp.Status, err = s.currentStatus(ctx, orderID)
			if err != nil {
				return nil, err
			}
		}
	}

	s.logger.Debug().
		Str("order_id", orderID.String()).
		Str("remote_state", remote.State).
		Str("status", string(resp.Status)).
		Msg("order polled")

	return resp, nil
}

// currentStatus maps the stored order status after a lost race.
func (s *orderService) currentStatus(ctx context.Context, orderID uuid.UUID) (model.PaymentStatus, error) {
	order, _, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return "", fmt.Errorf("failed to get order: %w", err)
	}
	if order != nil && (order.Status == model.OrderStatusPaid || order.Status == model.OrderStatusConfirmed) {
		return model.PaymentStatusPaid, nil
	}
	return model.PaymentStatusFailed, nil
}

// GetByID retrieves an order with its items and booking.
func (s *orderService) GetByID(ctx context.Context, id uuid.UUID) (*model.OrderResponse, error) {
	order, items, err := s.orderRepo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error().Err(err).Str("order_id", id.String()).Msg("failed to get order")
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	if order == nil {
		return nil, model.ErrOrderNotFound
	}

	booking, err := s.bookingRepo.GetByOrderID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}

	if items == nil {
		items = []model.OrderItem{}
	}

	return &model.OrderResponse{Order: order, Items: items, Booking: booking}, nil
}

func (s *orderService) notifyFinalized(ctx context.Context, res *model.FinalizeResult) {
	ctx = context.WithoutCancel(ctx)
	if err := s.notifier.SendOrderConfirmation(ctx, res.Order, res.Booking); err != nil {
		s.logger.Error().Err(err).Str("order_id", res.Order.ID.String()).Msg("failed to send order confirmation")
	}
	if err := s.notifier.SendOrderNotificationToAdmin(ctx, res.Order, res.Booking); err != nil {
		s.logger.Error().Err(err).Str("order_id", res.Order.ID.String()).Msg("failed to send admin notification")
	}
}

// snapshotItems copies cart items into order items.
func snapshotItems(orderID uuid.UUID, cartItems []model.CartItem) []model.OrderItem {
	items := make([]model.OrderItem, len(cartItems))
	for i, ci := range cartItems {
		items[i] = model.OrderItem{
			ID:       uuid.New(),
			OrderID:  orderID,
			LineItem: ci.LineItem,
		}
	}
	return items
}
