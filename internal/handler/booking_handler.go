package handler

import (
	"net/http"

	"table-booking/internal/model"
	"table-booking/internal/service"

	"github.com/rs/zerolog"
)

// BookingHandler handles public booking requests.
type BookingHandler struct {
	service service.BookingService
	logger  zerolog.Logger
}

// NewBookingHandler creates a new booking handler.
func NewBookingHandler(service service.BookingService, logger zerolog.Logger) *BookingHandler {
	return &BookingHandler{
		service: service,
		logger:  logger.With().Str("handler", "booking").Logger(),
	}
}

// CreateEmailOnly handles POST /bookings/email-only requests.
func (h *BookingHandler) CreateEmailOnly(w http.ResponseWriter, r *http.Request) {
	var req model.EmailOnlyBookingRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	resp, err := h.service.CreateEmailOnly(r.Context(), &req)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusCreated, resp)
}
