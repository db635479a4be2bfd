package model

import "errors"

// ErrorResponse represents a standardised error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// Error codes shared by the JSON API and the confirmation redirects.
const (
	ErrCodeInvalidPayload      = "invalid_payload"
	ErrCodeCartEmpty           = "cart_empty"
	ErrCodeCartNotReady        = "cart_not_ready"
	ErrCodeCartNotFound        = "cart_not_found"
	ErrCodeItemNotFound        = "item_not_found"
	ErrCodeProductNotFound     = "product_not_found"
	ErrCodeEventNotFound       = "event_not_found"
	ErrCodeOrderNotFound       = "order_not_found"
	ErrCodeOrderPending        = "order_pending"
	ErrCodeEmailMismatch       = "email_mismatch"
	ErrCodeTokenMissing        = "token_missing"
	ErrCodeTokenInvalid        = "token_invalid"
	ErrCodeTokenExpired        = "token_expired"
	ErrCodeConfigError         = "config_error"
	ErrCodePaymentGatewayError = "payment_gateway_error"
	ErrCodeUnauthorised        = "unauthorized"
	ErrCodeInternalError       = "internal_error"
)

// DomainError is a business-rule failure carrying a stable code.
type DomainError struct {
	Code    string
	Message string
}

func (e *DomainError) Error() string {
	return e.Message
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Common domain errors
var (
	ErrInvalidPayload      = NewDomainError(ErrCodeInvalidPayload, "Request payload is invalid")
	ErrCartEmpty           = NewDomainError(ErrCodeCartEmpty, "Cart has no items")
	ErrCartNotReady        = NewDomainError(ErrCodeCartNotReady, "Cart is not open for ordering")
	ErrCartNotFound        = NewDomainError(ErrCodeCartNotFound, "Cart not found")
	ErrItemNotFound        = NewDomainError(ErrCodeItemNotFound, "Cart item not found")
	ErrProductNotFound     = NewDomainError(ErrCodeProductNotFound, "Product not found")
	ErrEventNotFound       = NewDomainError(ErrCodeEventNotFound, "Event not found")
	ErrOrderNotFound       = NewDomainError(ErrCodeOrderNotFound, "Order not found")
	ErrOrderPending        = NewDomainError(ErrCodeOrderPending, "Cart already has an order awaiting payment")
	ErrEmailMismatch       = NewDomainError(ErrCodeEmailMismatch, "Email does not match the order")
	ErrTokenMissing        = NewDomainError(ErrCodeTokenMissing, "Verification token is missing")
	ErrTokenInvalid        = NewDomainError(ErrCodeTokenInvalid, "Verification token is invalid")
	ErrTokenExpired        = NewDomainError(ErrCodeTokenExpired, "Verification token has expired")
	ErrConfigError         = NewDomainError(ErrCodeConfigError, "Verification is not configured")
	ErrPaymentGatewayError = NewDomainError(ErrCodePaymentGatewayError, "Payment gateway request failed")
)

// ErrorCode extracts the domain code from err, or internal_error.
func ErrorCode(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ErrCodeInternalError
}
