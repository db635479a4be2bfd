package router

import (
	"net/http"

	"table-booking/internal/config"
	"table-booking/internal/handler"
	"table-booking/internal/middleware"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Handlers groups the HTTP handlers mounted by New.
type Handlers struct {
	Cart    *handler.CartHandler
	Order   *handler.OrderHandler
	Booking *handler.BookingHandler
	Confirm *handler.ConfirmHandler
}

// New creates a new HTTP router with all routes and middleware configured.
// limiter may be nil, which disables rate limiting.
func New(
	h Handlers,
	apiKey string,
	limiter redis.Scripter,
	rateCfg config.RateLimitConfig,
	logger zerolog.Logger,
) http.Handler {
	mux := http.NewServeMux()

	limited := func(route string, fn http.HandlerFunc) http.Handler {
		return middleware.RateLimit(rateCfg, limiter, route, logger)(fn)
	}

	// Health check endpoint (no authentication required)
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status": "healthy"}`))
	})

	// Public endpoints
	mux.Handle("GET /confirm", limited("confirm", h.Confirm.Confirm))
	mux.Handle("POST /bookings/email-only", limited("email-only", h.Booking.CreateEmailOnly))

	// Cart routes
	mux.HandleFunc("POST /api/carts", h.Cart.Create)
	mux.HandleFunc("GET /api/carts/{id}", h.Cart.Get)
	mux.HandleFunc("POST /api/carts/{id}/items", h.Cart.AddItem)
	mux.HandleFunc("PATCH /api/carts/{id}/items/{itemId}", h.Cart.UpdateItem)
	mux.HandleFunc("DELETE /api/carts/{id}/items/{itemId}", h.Cart.RemoveItem)

	// Order routes
	mux.HandleFunc("POST /api/orders", h.Order.Create)
	mux.HandleFunc("GET /api/orders/{id}", h.Order.GetByID)
	mux.Handle("POST /api/orders/{id}/poll", limited("poll", h.Order.Poll))
	mux.HandleFunc("POST /api/orders/{id}/verify-email", h.Order.RequestVerification)

	// Apply middleware in order: Recovery -> Logging -> CORS -> APIKeyAuth
	var handler http.Handler = mux
	handler = middleware.APIKeyAuth(apiKey, logger)(handler)
	handler = middleware.CORS(handler)
	handler = middleware.Logging(logger)(handler)
	handler = middleware.Recovery(logger)(handler)

	return handler
}
