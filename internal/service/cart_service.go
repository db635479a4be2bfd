package service

import (
	"context"
	"fmt"
	"time"

	"table-booking/internal/catalog"
	"table-booking/internal/model"
	"table-booking/internal/repository"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

// cartService implements CartService.
type cartService struct {
	txr         repository.Transactor
	cartRepo    repository.CartRepository
	productRepo repository.ProductRepository
	events      catalog.Catalog
	now         func() time.Time
	logger      zerolog.Logger
}

// NewCartService creates a new cart service.
func NewCartService(
	txr repository.Transactor,
	cartRepo repository.CartRepository,
	productRepo repository.ProductRepository,
	events catalog.Catalog,
	logger zerolog.Logger,
) CartService {
	return &cartService{
		txr:         txr,
		cartRepo:    cartRepo,
		productRepo: productRepo,
		events:      events,
		now:         time.Now,
		logger:      logger.With().Str("service", "cart").Logger(),
	}
}

// Create creates an empty open cart.
func (s *cartService) Create(ctx context.Context) (*model.Cart, error) {
	now := s.now()
	cart := &model.Cart{
		ID:        uuid.New(),
		Status:    model.CartStatusOpen,
		Items:     []model.CartItem{},
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.cartRepo.Create(ctx, cart); err != nil {
		return nil, fmt.Errorf("failed to create cart: %w", err)
	}

	s.logger.Info().Str("cart_id", cart.ID.String()).Msg("cart created")

	return cart, nil
}

// Get retrieves a cart with its items.
func (s *cartService) Get(ctx context.Context, id uuid.UUID) (*model.Cart, error) {
	cart, err := s.cartRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get cart: %w", err)
	}
	if cart == nil {
		return nil, model.ErrCartNotFound
	}
	if cart.Items == nil {
		cart.Items = []model.CartItem{}
	}
	return cart, nil
}

// AddItem snapshots the current product or event price into a new line item.
func (s *cartService) AddItem(ctx context.Context, cartID uuid.UUID, req *model.CartItemRequest) (*model.Cart, error) {
	if req == nil {
		return nil, model.ErrInvalidPayload
	}
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	if _, err := s.openCart(ctx, cartID); err != nil {
		return nil, err
	}

	item := &model.CartItem{ID: uuid.New(), CartID: cartID}
	item.Quantity = req.Quantity

	if req.ProductID != "" {
		product, err := s.productRepo.GetByID(ctx, req.ProductID)
		if err != nil {
			return nil, fmt.Errorf("failed to get product: %w", err)
		}
		if product == nil {
			return nil, model.ErrProductNotFound
		}
		if product.Stock != nil && *product.Stock < req.Quantity {
			s.logger.Warn().
				Str("product_id", product.ID).
				Int("stock", *product.Stock).
				Int("quantity", req.Quantity).
				Msg("insufficient stock")
			return nil, model.NewDomainError(model.ErrCodeInvalidPayload, "Not enough stock for "+product.Name)
		}

		productID := product.ID
		item.Kind = model.ItemKindProduct
		item.ProductID = &productID
		item.Label = product.Name
		item.UnitPriceCents = product.PriceCents
	} else {
		event, err := s.events.Event(ctx, req.EventRef)
		if err != nil {
			return nil, err
		}
		if !event.Date.After(s.now()) {
			return nil, model.NewDomainError(model.ErrCodeInvalidPayload, "Event has already started")
		}

		ref, date := event.Ref, event.Date
		item.Kind = model.ItemKindEvent
		item.EventRef = &ref
		item.EventDate = &date
		item.EmailOnly = event.EmailOnly
		item.Label = event.Label
		item.Tier = event.Tier
		item.UnitPriceCents = event.PriceCents
	}

	if err := s.cartRepo.AddItem(ctx, item); err != nil {
		return nil, fmt.Errorf("failed to add cart item: %w", err)
	}

	s.logger.Debug().
		Str("cart_id", cartID.String()).
		Str("kind", string(item.Kind)).
		Int64("unit_price_cents", item.UnitPriceCents).
		Msg("item added to cart")

	return s.refreshed(ctx, cartID)
}

// UpdateItemQuantity changes the quantity of an existing line item.
func (s *cartService) UpdateItemQuantity(ctx context.Context, cartID, itemID uuid.UUID, req *model.CartItemUpdateRequest) (*model.Cart, error) {
	if req == nil {
		return nil, model.ErrInvalidPayload
	}
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	if _, err := s.openCart(ctx, cartID); err != nil {
		return nil, err
	}

	ok, err := s.cartRepo.UpdateItemQuantity(ctx, cartID, itemID, req.Quantity)
	if err != nil {
		return nil, fmt.Errorf("failed to update cart item: %w", err)
	}
	if !ok {
		return nil, model.ErrItemNotFound
	}

	return s.refreshed(ctx, cartID)
}

// RemoveItem deletes a line item.
func (s *cartService) RemoveItem(ctx context.Context, cartID, itemID uuid.UUID) (*model.Cart, error) {
	if _, err := s.openCart(ctx, cartID); err != nil {
		return nil, err
	}

	ok, err := s.cartRepo.RemoveItem(ctx, cartID, itemID)
	if err != nil {
		return nil, fmt.Errorf("failed to remove cart item: %w", err)
	}
	if !ok {
		return nil, model.ErrItemNotFound
	}

	return s.refreshed(ctx, cartID)
}

// RecalculateTotal recomputes and stores the cart total.
func (s *cartService) RecalculateTotal(ctx context.Context, cartID uuid.UUID) (int64, error) {
	var total int64
	err := withTx(ctx, s.txr, s.logger, func(tx pgx.Tx) error {
		var err error
		total, err = s.cartRepo.RecalculateTotal(ctx, tx, cartID)
		return err
	})
	if err != nil {
		return 0, err
	}
	return total, nil
}

// openCart loads a cart that still accepts item changes.
func (s *cartService) openCart(ctx context.Context, cartID uuid.UUID) (*model.Cart, error) {
	cart, err := s.Get(ctx, cartID)
	if err != nil {
		return nil, err
	}
	if cart.Status != model.CartStatusOpen {
		s.logger.Debug().
			Str("cart_id", cartID.String()).
			Str("status", string(cart.Status)).
			Msg("cart no longer accepts changes")
		return nil, model.ErrCartNotReady
	}
	return cart, nil
}

// refreshed recomputes the total and returns the current cart.
func (s *cartService) refreshed(ctx context.Context, cartID uuid.UUID) (*model.Cart, error) {
	if _, err := s.RecalculateTotal(ctx, cartID); err != nil {
		return nil, err
	}
	return s.Get(ctx, cartID)
}
