package service

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"table-booking/internal/catalog"
	"table-booking/internal/config"
	"table-booking/internal/model"
	"table-booking/internal/notify"
	"table-booking/internal/repository"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

// bookingService implements BookingService.
type bookingService struct {
	txr         repository.Transactor
	bookingRepo repository.BookingRepository
	tokens      TokenStore
	events      catalog.Catalog
	notifier    notify.Notifier
	publicURL   string
	tokenTTL    time.Duration
	now         func() time.Time
	logger      zerolog.Logger
}

// NewBookingService creates a new booking service.
func NewBookingService(
	txr repository.Transactor,
	bookingRepo repository.BookingRepository,
	tokens TokenStore,
	events catalog.Catalog,
	notifier notify.Notifier,
	serverCfg config.ServerConfig,
	verifyCfg config.VerificationConfig,
	logger zerolog.Logger,
) BookingService {
	return &bookingService{
		txr:         txr,
		bookingRepo: bookingRepo,
		tokens:      tokens,
		events:      events,
		notifier:    notifier,
		publicURL:   serverCfg.PublicAPIURL,
		tokenTTL:    verifyCfg.BookingTokenTTL,
		now:         time.Now,
		logger:      logger.With().Str("service", "booking").Logger(),
	}
}

// CreateEmailOnly creates a pending event booking and emails a verification link.
// The link never outlives the event start.
func (s *bookingService) CreateEmailOnly(ctx context.Context, req *model.EmailOnlyBookingRequest) (*model.EmailOnlyBookingResponse, error) {
	if req == nil {
		return nil, model.ErrInvalidPayload
	}
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	event, err := s.events.Event(ctx, req.EventRef)
	if err != nil {
		return nil, err
	}
	if !event.EmailOnly {
		return nil, model.NewDomainError(model.ErrCodeInvalidPayload, "Event requires payment")
	}

	now := s.now()
	ttl := min(s.tokenTTL, event.Date.Sub(now))
	if ttl <= 0 {
		return nil, model.NewDomainError(model.ErrCodeInvalidPayload, "Event has already started")
	}

	notes := req.Notes
	if notes == nil {
		notes = req.Customer.Notes
	}

	ref := event.Ref
	booking := &model.Booking{
		ID:             uuid.New(),
		Status:         model.BookingStatusPending,
		Type:           model.BookingTypeEvent,
		Date:           event.Date,
		People:         req.People,
		Label:          event.Label,
		Tier:           event.Tier,
		TotalCents:     event.PriceCents * int64(req.People),
		EventRef:       &ref,
		Email:          req.Customer.Email,
		Name:           req.Customer.Name,
		Phone:          req.Customer.Phone,
		Notes:          notes,
		AgreePrivacy:   req.AgreePrivacy,
		AgreeMarketing: req.AgreeMarketing,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	var token string
	err = withTx(ctx, s.txr, s.logger, func(tx pgx.Tx) error {
		if err := s.bookingRepo.Create(ctx, tx, booking); err != nil {
			return fmt.Errorf("failed to create booking: %w", err)
		}

		token, err = s.tokens.Issue(ctx, tx, booking.ID, booking.Email, ttl)
		return err
	})
	if err != nil {
		return nil, err
	}

	if err := s.notifier.SendBookingVerifyEmail(ctx, booking, s.confirmLink(token, booking.ID)); err != nil {
		s.logger.Error().Err(err).Str("booking_id", booking.ID.String()).Msg("failed to send booking verification email")
	}

	s.logger.Info().
		Str("booking_id", booking.ID.String()).
		Str("event_ref", event.Ref).
		Int("people", booking.People).
		Dur("token_ttl", ttl).
		Msg("email-only booking created")

	return &model.EmailOnlyBookingResponse{BookingID: booking.ID}, nil
}

func (s *bookingService) confirmLink(token string, bookingID uuid.UUID) string {
	q := url.Values{}
	q.Set("token", token)
	q.Set("bookingId", bookingID.String())
	return s.publicURL + "/confirm?" + q.Encode()
}
