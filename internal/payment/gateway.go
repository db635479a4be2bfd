// Package payment wraps the external card-payment gateway and the opaque
// payment reference stored on orders.
package payment

import (
	"context"
	"errors"
	"strings"
)

// ErrGateway is returned for every failed gateway call, including timeouts.
var ErrGateway = errors.New("payment gateway error")

// Customer is the payer information forwarded to the gateway.
type Customer struct {
	Email string
	Name  string
	Phone string
}

// CreateRequest captures what the gateway needs to open a hosted payment.
type CreateRequest struct {
	AmountMinor     int64
	Currency        string
	MerchantOrderID string
	Customer        Customer
	Description     string
}

// CreateResponse holds the identifiers returned when a remote payment order is created.
type CreateResponse struct {
	GatewayOrderID   string
	CheckoutToken    string
	HostedPaymentURL string
}

// RemoteOrder is the settlement state of a remote payment order.
type RemoteOrder struct {
	GatewayOrderID string
	State          string
}

// Gateway abstracts the operations required from the upstream payment provider.
type Gateway interface {
	// Provider names the gateway; it is recorded in payment references.
	Provider() string
	CreatePaymentOrder(ctx context.Context, req CreateRequest) (*CreateResponse, error)
	RetrievePaymentOrder(ctx context.Context, gatewayOrderID string) (*RemoteOrder, error)
}

// Remote states the gateway reports. Anything else is treated as still pending.
const (
	StateCreated    = "created"
	StateInProgress = "in_progress"
	StateAuthorised = "authorised"
	StateCompleted  = "completed"
	StateFailed     = "failed"
	StateCancelled  = "cancelled"
	StateDeclined   = "declined"
)

// IsPaid reports whether a remote state means the money is secured.
func IsPaid(state string) bool {
	switch strings.ToLower(state) {
	case StateCompleted, StateAuthorised:
		return true
	}
	return false
}

// IsFailed reports whether a remote state is in the failed family.
func IsFailed(state string) bool {
	switch strings.ToLower(state) {
	case StateFailed, StateCancelled, StateDeclined:
		return true
	}
	return false
}
