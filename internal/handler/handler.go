package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"table-booking/internal/model"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const maxBodyBytes = 1 << 20

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		// Log the error but don't expose it to the client
		return
	}
}

// writeError writes an error response with the given status code, code and message.
func writeError(w http.ResponseWriter, status int, code, message string, logger zerolog.Logger) {
	event := logger.Warn()
	if status >= http.StatusInternalServerError {
		event = logger.Error()
	}
	event.Str("error", code).Str("message", message).Int("status", status).Msg("handler error")

	writeJSON(w, status, model.ErrorResponse{Error: code, Message: message})
}

// writeServiceError maps a service error to its HTTP status. Errors without a
// domain code are reported as internal errors without leaking their text.
func writeServiceError(w http.ResponseWriter, err error, logger zerolog.Logger) {
	var de *model.DomainError
	if !errors.As(err, &de) {
		logger.Error().Err(err).Msg("unexpected service error")
		writeError(w, http.StatusInternalServerError, model.ErrCodeInternalError, "Internal server error", logger)
		return
	}
	writeError(w, statusForCode(de.Code), de.Code, de.Message, logger)
}

// statusForCode returns the HTTP status for a domain error code.
func statusForCode(code string) int {
	switch code {
	case model.ErrCodeCartNotFound,
		model.ErrCodeItemNotFound,
		model.ErrCodeProductNotFound,
		model.ErrCodeEventNotFound,
		model.ErrCodeOrderNotFound:
		return http.StatusNotFound
	case model.ErrCodeCartNotReady, model.ErrCodeOrderPending:
		return http.StatusConflict
	case model.ErrCodePaymentGatewayError:
		return http.StatusBadGateway
	case model.ErrCodeUnauthorised:
		return http.StatusUnauthorized
	case model.ErrCodeConfigError, model.ErrCodeInternalError:
		return http.StatusInternalServerError
	default:
		return http.StatusBadRequest
	}
}

// decodeJSON reads a size-limited JSON body into dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return model.NewDomainError(model.ErrCodeInvalidPayload, "Request body is required")
		}
		return model.NewDomainError(model.ErrCodeInvalidPayload, fmt.Sprintf("Invalid request body: %v", err))
	}
	return nil
}

// pathUUID parses the named path segment as a UUID.
func pathUUID(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(r.PathValue(name))
	if err != nil {
		return uuid.Nil, model.NewDomainError(model.ErrCodeInvalidPayload, "Invalid "+name+" format")
	}
	return id, nil
}
