package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"table-booking/internal/config"

	"github.com/rs/zerolog"
)

// httpGateway talks to a hosted-checkout style REST API.
type httpGateway struct {
	provider string
	baseURL  string
	apiKey   string
	client   *http.Client
	logger   zerolog.Logger
}

// NewHTTPGateway creates a gateway client. Every call is bounded by cfg.Timeout.
func NewHTTPGateway(cfg config.GatewayConfig, logger zerolog.Logger) Gateway {
	return &httpGateway{
		provider: cfg.Provider,
		baseURL:  cfg.BaseURL,
		apiKey:   cfg.APIKey,
		client:   &http.Client{Timeout: cfg.Timeout},
		logger:   logger.With().Str("component", "payment_gateway").Logger(),
	}
}

type createOrderBody struct {
	Amount                 int64        `json:"amount"`
	Currency               string       `json:"currency"`
	MerchantOrderReference string       `json:"merchant_order_ext_ref"`
	Description            string       `json:"description,omitempty"`
	Customer               customerBody `json:"customer"`
}

type customerBody struct {
	Email string `json:"email"`
	Name  string `json:"full_name,omitempty"`
	Phone string `json:"phone,omitempty"`
}

type orderBody struct {
	ID          string `json:"id"`
	Token       string `json:"token"`
	State       string `json:"state"`
	CheckoutURL string `json:"checkout_url"`
}

func (g *httpGateway) Provider() string {
	return g.provider
}

// CreatePaymentOrder opens a remote payment order for the amount in minor units.
func (g *httpGateway) CreatePaymentOrder(ctx context.Context, req CreateRequest) (*CreateResponse, error) {
	body := createOrderBody{
		Amount:                 req.AmountMinor,
		Currency:               req.Currency,
		MerchantOrderReference: req.MerchantOrderID,
		Description:            req.Description,
		Customer: customerBody{
			Email: req.Customer.Email,
			Name:  req.Customer.Name,
			Phone: req.Customer.Phone,
		},
	}

	var out orderBody
	if err := g.do(ctx, http.MethodPost, "/orders", body, &out); err != nil {
		g.logger.Error().
			Err(err).
			Str("merchant_order_id", req.MerchantOrderID).
			Int64("amount", req.AmountMinor).
			Msg("failed to create payment order")
		return nil, err
	}

	if out.ID == "" {
		return nil, fmt.Errorf("%w: response missing order id", ErrGateway)
	}

	g.logger.Info().
		Str("merchant_order_id", req.MerchantOrderID).
		Str("gateway_order_id", out.ID).
		Msg("payment order created")

	return &CreateResponse{
		GatewayOrderID:   out.ID,
		CheckoutToken:    out.Token,
		HostedPaymentURL: out.CheckoutURL,
	}, nil
}

// RetrievePaymentOrder fetches the current state of a remote payment order.
func (g *httpGateway) RetrievePaymentOrder(ctx context.Context, gatewayOrderID string) (*RemoteOrder, error) {
	var out orderBody
	if err := g.do(ctx, http.MethodGet, "/orders/"+url.PathEscape(gatewayOrderID), nil, &out); err != nil {
		g.logger.Error().Err(err).Str("gateway_order_id", gatewayOrderID).Msg("failed to retrieve payment order")
		return nil, err
	}

	return &RemoteOrder{GatewayOrderID: gatewayOrderID, State: out.State}, nil
}

func (g *httpGateway) do(ctx context.Context, method, path string, in, out any) error {
	var payload io.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("%w: failed to encode request: %v", ErrGateway, err)
		}
		payload = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, g.baseURL+path, payload)
	if err != nil {
		return fmt.Errorf("%w: failed to build request: %v", ErrGateway, err)
	}
	req.Header.Set("Authorization", "Bearer "+g.apiKey)
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrGateway, err)
	}
	defer resp.Body.Close()

	g.logger.Debug().
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(start)).
		Msg("gateway call")

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%w: unexpected status %d: %s", ErrGateway, resp.StatusCode, bytes.TrimSpace(snippet))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: failed to decode response: %v", ErrGateway, err)
	}

	return nil
}
