package domain

import "time"

type Product struct {
	ID          string    `json:"id"`
	SKU         string    `json:"sku"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	PriceCents  int64     `json:"priceCents"`
	Currency    string    `json:"currency"`
	Quantity    int       `json:"quantity"`
	Sold        int       `json:"sold"`
	CreatedAt   time.Time `json:"createdAt"`
}

// StockChange is one product's share of a checkout batch: quantity goes
// down by Count, sold goes up by Count.
type StockChange struct {
	ProductID string
	Count     int
}
