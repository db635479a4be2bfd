package payment

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReference_RoundTrip(t *testing.T) {
	ref := Reference{
		Provider:         "hosted-checkout",
		GatewayOrderID:   "gw-1",
		CheckoutToken:    "tok-1",
		HostedPaymentURL: "https://pay.example/gw-1",
	}

	encoded, err := EncodeReference(ref)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(encoded, "v1."))
	assert.NotContains(t, encoded, "gw-1", "reference must be opaque")

	decoded, err := DecodeReference(encoded)
	require.NoError(t, err)
	assert.Equal(t, ref, *decoded)
}

func TestEncodeReference_RequiresIdentifiers(t *testing.T) {
	_, err := EncodeReference(Reference{Provider: "hosted-checkout"})
	assert.Error(t, err)
}

func TestDecodeReference_NotGatewayBacked(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "Empty", input: ""},
		{name: "Manual marker", input: "manual:cash-at-venue"},
		{name: "Prefix only", input: "v1."},
		{name: "Bad base64", input: "v1.!!!"},
		{name: "Not JSON", input: "v1.bm90LWpzb24"},
		{name: "Missing gateway order id", input: "v1.eyJwcm92aWRlciI6IngifQ"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ref, err := DecodeReference(tt.input)

			assert.Nil(t, ref)
			assert.True(t, errors.Is(err, ErrNotGatewayBacked))
		})
	}
}
