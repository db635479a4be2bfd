package payment

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

const referencePrefix = "v1."

// ErrNotGatewayBacked is returned when a stored reference was not produced by a gateway.
var ErrNotGatewayBacked = errors.New("payment reference is not gateway-backed")

// Reference records which gateway holds a payment and how to poll it.
// It is stored on the order as an opaque string and only decoded here.
type Reference struct {
	Provider         string `json:"provider"`
	GatewayOrderID   string `json:"gatewayOrderId"`
	CheckoutToken    string `json:"checkoutToken"`
	HostedPaymentURL string `json:"hostedPaymentUrl,omitempty"`
}

// EncodeReference returns the versioned string form of ref.
func EncodeReference(ref Reference) (string, error) {
	if ref.Provider == "" || ref.GatewayOrderID == "" {
		return "", fmt.Errorf("payment reference requires provider and gateway order id")
	}

	buf, err := json.Marshal(ref)
	if err != nil {
		return "", fmt.Errorf("failed to encode payment reference: %w", err)
	}

	return referencePrefix + base64.RawURLEncoding.EncodeToString(buf), nil
}

// DecodeReference parses a stored reference. Any other scheme, such as a
// manual marker, yields ErrNotGatewayBacked.
func DecodeReference(s string) (*Reference, error) {
	payload, ok := strings.CutPrefix(s, referencePrefix)
	if !ok || payload == "" {
		return nil, ErrNotGatewayBacked
	}

	buf, err := base64.RawURLEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotGatewayBacked, err)
	}

	var ref Reference
	if err := json.Unmarshal(buf, &ref); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotGatewayBacked, err)
	}

	if ref.GatewayOrderID == "" {
		return nil, ErrNotGatewayBacked
	}

	return &ref, nil
}
