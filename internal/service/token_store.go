package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"table-booking/internal/model"
	"table-booking/internal/repository"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

const tokenBytes = 32

// tokenStore implements TokenStore.
type tokenStore struct {
	verificationRepo repository.VerificationRepository
	bookingRepo      repository.BookingRepository
	now              func() time.Time
	logger           zerolog.Logger
}

// NewTokenStore creates a store for single-use booking verification tokens.
func NewTokenStore(
	verificationRepo repository.VerificationRepository,
	bookingRepo repository.BookingRepository,
	logger zerolog.Logger,
) TokenStore {
	return &tokenStore{
		verificationRepo: verificationRepo,
		bookingRepo:      bookingRepo,
		now:              time.Now,
		logger:           logger.With().Str("service", "token_store").Logger(),
	}
}

// Issue creates a token for the booking and returns its plaintext form.
// Only the hash is stored.
func (s *tokenStore) Issue(ctx context.Context, tx pgx.Tx, bookingID uuid.UUID, email string, ttl time.Duration) (string, error) {
	raw := make([]byte, tokenBytes)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	token := hex.EncodeToString(raw)

	now := s.now()
	v := &model.BookingVerification{
		ID:        uuid.New(),
		BookingID: bookingID,
		TokenHash: hashToken(token),
		Email:     email,
		ExpiresAt: now.Add(ttl),
		CreatedAt: now,
	}

	if err := s.verificationRepo.Create(ctx, tx, v); err != nil {
		return "", fmt.Errorf("failed to store verification: %w", err)
	}

	s.logger.Debug().
		Str("booking_id", bookingID.String()).
		Time("expires_at", v.ExpiresAt).
		Msg("verification token issued")

	return token, nil
}

// Redeem consumes a token inside tx. An expired token for a booking that is
// already confirmed resolves to that booking without notifying again. Tokens
// for cancelled, failed or expired bookings are rejected and left unused.
func (s *tokenStore) Redeem(ctx context.Context, tx pgx.Tx, token string) (*model.RedeemResult, error) {
	if token == "" {
		return nil, model.ErrTokenMissing
	}

	v, err := s.verificationRepo.GetByTokenHashForUpdate(ctx, tx, hashToken(token))
	if err != nil {
		return nil, fmt.Errorf("failed to get verification: %w", err)
	}
	if v == nil {
		return nil, model.ErrTokenInvalid
	}
	if v.UsedAt != nil {
		s.logger.Warn().Str("verification_id", v.ID.String()).Msg("verification token replayed")
		return nil, model.ErrTokenInvalid
	}

	booking, err := s.bookingRepo.GetByIDForUpdate(ctx, tx, v.BookingID)
	if err != nil {
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}
	if booking == nil {
		return nil, model.ErrTokenInvalid
	}

	switch booking.Status {
	case model.BookingStatusCancelled, model.BookingStatusFailed:
		s.logger.Warn().
			Str("booking_id", booking.ID.String()).
			Str("status", string(booking.Status)).
			Msg("verification token for closed booking")
		return nil, model.ErrTokenInvalid
	case model.BookingStatusExpired:
		return nil, model.ErrTokenExpired
	}

	alreadyConfirmed := booking.Status == model.BookingStatusConfirmed
	now := s.now()

	if v.Expired(now) {
		if !alreadyConfirmed {
			return nil, model.ErrTokenExpired
		}
		return &model.RedeemResult{Booking: booking, ShouldNotify: false}, nil
	}

	used, err := s.verificationRepo.MarkUsed(ctx, tx, v.ID, now)
	if err != nil {
		return nil, fmt.Errorf("failed to mark verification used: %w", err)
	}
	if !used {
		return nil, model.ErrTokenInvalid
	}

	deleted, err := s.verificationRepo.DeleteSiblings(ctx, tx, booking.ID, v.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to delete sibling verifications: %w", err)
	}

	s.logger.Info().
		Str("booking_id", booking.ID.String()).
		Int64("siblings_deleted", deleted).
		Bool("already_confirmed", alreadyConfirmed).
		Msg("verification token redeemed")

	return &model.RedeemResult{Booking: booking, ShouldNotify: !alreadyConfirmed}, nil
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
