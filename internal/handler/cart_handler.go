package handler

import (
	"net/http"

	"table-booking/internal/model"
	"table-booking/internal/service"

	"github.com/rs/zerolog"
)

// CartHandler handles cart-related HTTP requests.
type CartHandler struct {
	service service.CartService
	logger  zerolog.Logger
}

// NewCartHandler creates a new cart handler.
func NewCartHandler(service service.CartService, logger zerolog.Logger) *CartHandler {
	return &CartHandler{
		service: service,
		logger:  logger.With().Str("handler", "cart").Logger(),
	}
}

// Create handles POST /api/carts requests.
func (h *CartHandler) Create(w http.ResponseWriter, r *http.Request) {
	cart, err := h.service.Create(r.Context())
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusCreated, cart)
}

// Get handles GET /api/carts/{id} requests.
func (h *CartHandler) Get(w http.ResponseWriter, r *http.Request) {
	cartID, err := pathUUID(r, "id")
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	cart, err := h.service.Get(r.Context(), cartID)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, cart)
}

// AddItem handles POST /api/carts/{id}/items requests.
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	cartID, err := pathUUID(r, "id")
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	var req model.CartItemRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	cart, err := h.service.AddItem(r.Context(), cartID, &req)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusCreated, cart)
}

// UpdateItem handles PATCH /api/carts/{id}/items/{itemId} requests.
func (h *CartHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	cartID, err := pathUUID(r, "id")
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}
	itemID, err := pathUUID(r, "itemId")
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	var req model.CartItemUpdateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	cart, err := h.service.UpdateItemQuantity(r.Context(), cartID, itemID, &req)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, cart)
}

// RemoveItem handles DELETE /api/carts/{id}/items/{itemId} requests.
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	cartID, err := pathUUID(r, "id")
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}
	itemID, err := pathUUID(r, "itemId")
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	cart, err := h.service.RemoveItem(r.Context(), cartID, itemID)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, cart)
}
