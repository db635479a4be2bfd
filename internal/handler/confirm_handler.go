package handler

import (
	"net/http"
	"net/url"
	"strings"
	"time"

	"table-booking/internal/config"
	"table-booking/internal/model"
	"table-booking/internal/service"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const maxVerifyCookieAge = 15 * time.Minute

// ConfirmHandler serves the confirmation link that customers open from their email.
// Every outcome is a redirect to the booking site.
type ConfirmHandler struct {
	service     service.ConfirmationService
	frontendURL string
	cookie      config.VerificationConfig
	logger      zerolog.Logger
}

// NewConfirmHandler creates a new confirmation handler.
func NewConfirmHandler(
	service service.ConfirmationService,
	serverCfg config.ServerConfig,
	verifyCfg config.VerificationConfig,
	logger zerolog.Logger,
) *ConfirmHandler {
	return &ConfirmHandler{
		service:     service,
		frontendURL: serverCfg.FrontendURL,
		cookie:      verifyCfg,
		logger:      logger.With().Str("handler", "confirm").Logger(),
	}
}

// Confirm handles GET /confirm?token=&bookingId= requests. Signed order tokens
// (three dot-separated segments) take the legacy order flow; anything else is
// redeemed as a booking verification token.
func (h *ConfirmHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	token := strings.TrimSpace(q.Get("token"))

	var bookingID *uuid.UUID
	if raw := q.Get("bookingId"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			h.redirectError(w, r, model.ErrTokenInvalid, nil)
			return
		}
		bookingID = &id
	}

	if token == "" {
		h.redirectError(w, r, model.ErrTokenMissing, bookingID)
		return
	}

	if strings.Count(token, ".") == 2 {
		h.confirmLegacy(w, r, token, bookingID)
		return
	}

	result, err := h.service.ConfirmBooking(r.Context(), token, bookingID)
	if err != nil {
		h.redirectError(w, r, err, bookingID)
		return
	}

	h.redirectSuccess(w, r, result)
}

func (h *ConfirmHandler) confirmLegacy(w http.ResponseWriter, r *http.Request, token string, bookingID *uuid.UUID) {
	result, err := h.service.ConfirmLegacyOrder(r.Context(), token)
	if err != nil {
		h.redirectError(w, r, err, bookingID)
		return
	}

	if result.CheckoutCartID == nil {
		h.redirectSuccess(w, r, result)
		return
	}

	maxAge := min(h.cookie.LegacyTokenTTL, maxVerifyCookieAge)
	if maxAge <= 0 {
		maxAge = maxVerifyCookieAge
	}
	http.SetCookie(w, &http.Cookie{
		Name:     h.cookie.CookieName,
		Value:    result.CheckoutToken,
		Path:     "/",
		MaxAge:   int(maxAge.Seconds()),
		HttpOnly: true,
		Secure:   h.cookie.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})

	v := url.Values{}
	v.Set("cartId", result.CheckoutCartID.String())
	h.redirect(w, r, "/checkout", v)
}

func (h *ConfirmHandler) redirectSuccess(w http.ResponseWriter, r *http.Request, result *model.ConfirmationResult) {
	v := url.Values{}
	if result.OrderID != nil {
		v.Set("orderId", result.OrderID.String())
	}
	if result.BookingID != nil {
		v.Set("bookingId", result.BookingID.String())
	}
	h.redirect(w, r, "/success", v)
}

// confirmErrorCodes are the codes the error page understands.
var confirmErrorCodes = map[string]bool{
	model.ErrCodeTokenMissing:  true,
	model.ErrCodeTokenInvalid:  true,
	model.ErrCodeTokenExpired:  true,
	model.ErrCodeOrderNotFound: true,
	model.ErrCodeEmailMismatch: true,
	model.ErrCodeConfigError:   true,
}

// redirectError only echoes the booking id the caller supplied. Codes the
// error page does not know are reported as token_invalid.
func (h *ConfirmHandler) redirectError(w http.ResponseWriter, r *http.Request, err error, bookingID *uuid.UUID) {
	code := model.ErrorCode(err)
	if !confirmErrorCodes[code] {
		h.logger.Error().Err(err).Str("error", code).Msg("confirmation failed")
		code = model.ErrCodeTokenInvalid
	} else {
		h.logger.Warn().Str("error", code).Msg("confirmation rejected")
	}

	v := url.Values{}
	v.Set("error", code)
	if bookingID != nil {
		v.Set("bookingId", bookingID.String())
	}
	h.redirect(w, r, "/email-sent", v)
}

func (h *ConfirmHandler) redirect(w http.ResponseWriter, r *http.Request, path string, v url.Values) {
	target := h.frontendURL + path
	if len(v) > 0 {
		target += "?" + v.Encode()
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}
