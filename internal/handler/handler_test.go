package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"table-booking/internal/model"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusForCode(t *testing.T) {
	tests := []struct {
		code string
		want int
	}{
		{model.ErrCodeInvalidPayload, http.StatusBadRequest},
		{model.ErrCodeCartEmpty, http.StatusBadRequest},
		{model.ErrCodeEmailMismatch, http.StatusBadRequest},
		{model.ErrCodeTokenExpired, http.StatusBadRequest},
		{model.ErrCodeCartNotFound, http.StatusNotFound},
		{model.ErrCodeItemNotFound, http.StatusNotFound},
		{model.ErrCodeEventNotFound, http.StatusNotFound},
		{model.ErrCodeOrderNotFound, http.StatusNotFound},
		{model.ErrCodeCartNotReady, http.StatusConflict},
		{model.ErrCodeOrderPending, http.StatusConflict},
		{model.ErrCodePaymentGatewayError, http.StatusBadGateway},
		{model.ErrCodeConfigError, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.want, statusForCode(tt.code))
		})
	}
}

func TestWriteServiceError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{name: "domain error", err: model.ErrOrderPending, wantStatus: http.StatusConflict, wantCode: model.ErrCodeOrderPending},
		{
			name:       "wrapped domain error",
			err:        fmt.Errorf("%w: timeout", model.ErrPaymentGatewayError),
			wantStatus: http.StatusBadGateway,
			wantCode:   model.ErrCodePaymentGatewayError,
		},
		{name: "internal error", err: errors.New("pq: connection refused"), wantStatus: http.StatusInternalServerError, wantCode: model.ErrCodeInternalError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()

			writeServiceError(w, tt.err, zerolog.Nop())

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

			var body model.ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tt.wantCode, body.Error)
			assert.NotContains(t, body.Message, "connection refused")
		})
	}
}

func TestDecodeJSON(t *testing.T) {
	var dst model.CartItemUpdateRequest

	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(""))
	err := decodeJSON(httptest.NewRecorder(), req, &dst)
	assert.Equal(t, model.ErrCodeInvalidPayload, model.ErrorCode(err))

	req = httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString("{bad"))
	err = decodeJSON(httptest.NewRecorder(), req, &dst)
	assert.Equal(t, model.ErrCodeInvalidPayload, model.ErrorCode(err))

	req = httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(`{"quantity": 3}`))
	require.NoError(t, decodeJSON(httptest.NewRecorder(), req, &dst))
	assert.Equal(t, 3, dst.Quantity)
}
