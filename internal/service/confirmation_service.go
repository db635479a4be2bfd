package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"table-booking/internal/config"
	"table-booking/internal/model"
	"table-booking/internal/notify"
	"table-booking/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

const maxLegacyTokenTTL = 15 * time.Minute

// legacyClaims are carried by signed order-verification tokens.
type legacyClaims struct {
	CartID string `json:"cartId"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// confirmationService implements ConfirmationService.
type confirmationService struct {
	txr         repository.Transactor
	cartRepo    repository.CartRepository
	orderRepo   repository.OrderRepository
	bookingRepo repository.BookingRepository
	tokens      TokenStore
	orders      OrderService
	notifier    notify.Notifier
	publicURL   string
	secret      []byte
	legacyTTL   time.Duration
	now         func() time.Time
	logger      zerolog.Logger
}

// NewConfirmationService creates a new confirmation service.
func NewConfirmationService(
	txr repository.Transactor,
	cartRepo repository.CartRepository,
	orderRepo repository.OrderRepository,
	bookingRepo repository.BookingRepository,
	tokens TokenStore,
	orders OrderService,
	notifier notify.Notifier,
	serverCfg config.ServerConfig,
	verifyCfg config.VerificationConfig,
	logger zerolog.Logger,
) ConfirmationService {
	ttl := verifyCfg.LegacyTokenTTL
	if ttl <= 0 || ttl > maxLegacyTokenTTL {
		ttl = maxLegacyTokenTTL
	}

	return &confirmationService{
		txr:         txr,
		cartRepo:    cartRepo,
		orderRepo:   orderRepo,
		bookingRepo: bookingRepo,
		tokens:      tokens,
		orders:      orders,
		notifier:    notifier,
		publicURL:   serverCfg.PublicAPIURL,
		secret:      []byte(verifyCfg.SigningSecret),
		legacyTTL:   ttl,
		now:         time.Now,
		logger:      logger.With().Str("service", "confirmation").Logger(),
	}
}

// ConfirmBooking redeems a booking verification token and confirms the booking,
// its order and cart in one transaction. Emails go out only on the first confirmation.
func (s *confirmationService) ConfirmBooking(ctx context.Context, token string, bookingID *uuid.UUID) (*model.ConfirmationResult, error) {
	var (
		redeemed     *model.RedeemResult
		transitioned bool
	)

	err := withTx(ctx, s.txr, s.logger, func(tx pgx.Tx) error {
		var err error
		redeemed, err = s.tokens.Redeem(ctx, tx, token)
		if err != nil {
			return err
		}

		booking := redeemed.Booking
		if bookingID != nil && *bookingID != booking.ID {
			s.logger.Warn().
				Str("booking_id", booking.ID.String()).
				Str("requested_booking_id", bookingID.String()).
				Msg("verification token belongs to another booking")
			return model.ErrTokenInvalid
		}

		transitioned, err = s.bookingRepo.Confirm(ctx, tx, booking.ID)
		if err != nil {
			return fmt.Errorf("failed to confirm booking: %w", err)
		}
		booking.Status = model.BookingStatusConfirmed

		if booking.OrderID == nil {
			return nil
		}

		order, _, err := s.orderRepo.GetByIDForUpdate(ctx, tx, *booking.OrderID)
		if err != nil {
			return fmt.Errorf("failed to get order: %w", err)
		}
		if order == nil {
			return nil
		}

		contact := model.Customer{
			Email: booking.Email,
			Name:  booking.Name,
			Phone: booking.Phone,
			Notes: booking.Notes,
		}
		if _, err := s.orderRepo.MarkConfirmed(ctx, tx, order.ID, contact); err != nil {
			return fmt.Errorf("failed to confirm order: %w", err)
		}

		if _, err := s.cartRepo.AdvanceStatus(ctx, tx, order.CartID, []model.CartStatus{model.CartStatusOpen}, model.CartStatusLocked); err != nil {
			return fmt.Errorf("failed to lock cart: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	booking := redeemed.Booking
	if redeemed.ShouldNotify && transitioned {
		if err := s.notifier.SendBookingConfirmedCustomer(ctx, booking); err != nil {
			s.logger.Error().Err(err).Str("booking_id", booking.ID.String()).Msg("failed to send booking confirmation")
		}
		if err := s.notifier.SendBookingConfirmedAdmin(ctx, booking); err != nil {
			s.logger.Error().Err(err).Str("booking_id", booking.ID.String()).Msg("failed to send admin booking notification")
		}
	}

	s.logger.Info().
		Str("booking_id", booking.ID.String()).
		Bool("transitioned", transitioned).
		Msg("booking confirmed")

	return &model.ConfirmationResult{
		BookingID:    &booking.ID,
		OrderID:      booking.OrderID,
		Transitioned: transitioned,
	}, nil
}

// ConfirmLegacyOrder verifies a signed order-verification token. Orders that need
// no payment are finalized; the rest are sent back to checkout.
func (s *confirmationService) ConfirmLegacyOrder(ctx context.Context, token string) (*model.ConfirmationResult, error) {
	if len(s.secret) == 0 {
		return nil, model.ErrConfigError
	}
	if token == "" {
		return nil, model.ErrTokenMissing
	}

	claims, err := s.parseLegacyToken(token)
	if err != nil {
		return nil, err
	}

	cartID, err := uuid.Parse(claims.CartID)
	if err != nil {
		return nil, model.ErrTokenInvalid
	}

	order, items, err := s.orderRepo.GetLatestByCartID(ctx, cartID)
	if err != nil {
		return nil, fmt.Errorf("failed to get order for cart: %w", err)
	}
	if order == nil || order.Status == model.OrderStatusFailed {
		return nil, model.ErrOrderNotFound
	}

	if !strings.EqualFold(strings.TrimSpace(claims.Email), strings.TrimSpace(order.Email)) {
		s.logger.Warn().Str("order_id", order.ID.String()).Msg("verification email does not match order")
		return nil, model.ErrEmailMismatch
	}

	if order.TotalCents <= 0 || model.AllEmailOnly(items) {
		res, err := s.orders.Finalize(ctx, order.ID)
		if err != nil {
			return nil, err
		}

		result := &model.ConfirmationResult{OrderID: &order.ID, Transitioned: res.Transitioned}
		if res.Booking != nil {
			result.BookingID = &res.Booking.ID
		}
		return result, nil
	}

	s.logger.Debug().Str("order_id", order.ID.String()).Msg("order requires payment, returning to checkout")

	return &model.ConfirmationResult{
		OrderID:        &order.ID,
		CheckoutCartID: &cartID,
		CheckoutToken:  token,
	}, nil
}

// RequestOrderVerification emails a signed verification link for the order.
func (s *confirmationService) RequestOrderVerification(ctx context.Context, orderID uuid.UUID) error {
	order, _, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return fmt.Errorf("failed to get order: %w", err)
	}
	if order == nil || order.Status == model.OrderStatusFailed {
		return model.ErrOrderNotFound
	}

	token, err := s.IssueLegacyToken(order.CartID, order.Email)
	if err != nil {
		return err
	}

	q := url.Values{}
	q.Set("token", token)
	link := s.publicURL + "/confirm?" + q.Encode()

	if err := s.notifier.SendOrderVerifyEmail(ctx, order, link); err != nil {
		return fmt.Errorf("failed to send order verification email: %w", err)
	}

	s.logger.Info().Str("order_id", orderID.String()).Msg("order verification requested")
	return nil
}

// IssueLegacyToken signs an HS256 verification token for the cart and email.
func (s *confirmationService) IssueLegacyToken(cartID uuid.UUID, email string) (string, error) {
	if len(s.secret) == 0 {
		return "", model.ErrConfigError
	}

	now := s.now()
	claims := legacyClaims{
		CartID: cartID.String(),
		Email:  email,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.legacyTTL)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign verification token: %w", err)
	}
	return signed, nil
}

func (s *confirmationService) parseLegacyToken(token string) (*legacyClaims, error) {
	claims := &legacyClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, model.ErrTokenExpired
		}
		s.logger.Debug().Err(err).Msg("rejected verification token")
		return nil, model.ErrTokenInvalid
	}
	return claims, nil
}
