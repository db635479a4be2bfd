package model

import "time"

// Product is a sellable menu entry. Stock is nil when the product is not stock-tracked.
type Product struct {
	ID         string    `json:"id" db:"id"`
	Name       string    `json:"name" db:"name"`
	PriceCents int64     `json:"priceCents" db:"price_cents"`
	Category   string    `json:"category" db:"category"`
	Stock      *int      `json:"stock,omitempty" db:"stock"`
	CreatedAt  time.Time `json:"createdAt" db:"created_at"`
}

// Event is a bookable slot from the event catalog.
type Event struct {
	Ref        string    `json:"ref"`
	Label      string    `json:"label"`
	Tier       string    `json:"tier,omitempty"`
	Date       time.Time `json:"date"`
	PriceCents int64     `json:"priceCents"`
	EmailOnly  bool      `json:"emailOnly"`
}
