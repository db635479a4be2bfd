package model

import (
	"time"

	"github.com/google/uuid"
)

// CartStatus only advances open -> locked -> completed.
type CartStatus string

const (
	CartStatusOpen      CartStatus = "open"
	CartStatusLocked    CartStatus = "locked"
	CartStatusCompleted CartStatus = "completed"
)

// Rank orders statuses so transitions can be checked for direction.
func (s CartStatus) Rank() int {
	switch s {
	case CartStatusOpen:
		return 0
	case CartStatusLocked:
		return 1
	case CartStatusCompleted:
		return 2
	default:
		return -1
	}
}

// ItemKind discriminates cart and order line items. It is set when the item is
// added and copied verbatim into order snapshots.
type ItemKind string

const (
	ItemKindProduct ItemKind = "product"
	ItemKindEvent   ItemKind = "event"
)

// Cart is the mutable collection of line items before ordering.
type Cart struct {
	ID         uuid.UUID  `json:"id" db:"id"`
	Status     CartStatus `json:"status" db:"status"`
	TotalCents int64      `json:"totalCents" db:"total_cents"`
	Items      []CartItem `json:"items"`
	CreatedAt  time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt  time.Time  `json:"updatedAt" db:"updated_at"`
}

// LineItem holds the fields shared by cart items and order snapshot items.
// ProductID is set for product items; EventRef, EventDate and EmailOnly for event items.
type LineItem struct {
	Kind           ItemKind   `json:"kind" db:"kind"`
	ProductID      *string    `json:"productId,omitempty" db:"product_id"`
	EventRef       *string    `json:"eventRef,omitempty" db:"event_ref"`
	EventDate      *time.Time `json:"eventDate,omitempty" db:"event_date"`
	EmailOnly      bool       `json:"emailOnly" db:"email_only"`
	Label          string     `json:"label" db:"label"`
	Tier           string     `json:"tier,omitempty" db:"tier"`
	UnitPriceCents int64      `json:"unitPriceCents" db:"unit_price_cents"`
	Quantity       int        `json:"quantity" db:"quantity"`
}

// Subtotal returns unit price times quantity.
func (li LineItem) Subtotal() int64 {
	return li.UnitPriceCents * int64(li.Quantity)
}

// CartItem is a line item in a cart.
type CartItem struct {
	ID     uuid.UUID `json:"id" db:"id"`
	CartID uuid.UUID `json:"-" db:"cart_id"`
	LineItem
}

// CartItemRequest adds either a product or an event to a cart.
type CartItemRequest struct {
	ProductID string `json:"productId" validate:"required_without=EventRef,excluded_with=EventRef"`
	EventRef  string `json:"eventRef" validate:"required_without=ProductID"`
	Quantity  int    `json:"quantity" validate:"gte=1,lte=100"`
}

// CartItemUpdateRequest changes the quantity of an existing cart item.
type CartItemUpdateRequest struct {
	Quantity int `json:"quantity" validate:"gte=1,lte=100"`
}
