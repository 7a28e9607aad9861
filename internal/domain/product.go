package domain

import "time"

// Product is a single-variant catalog item; its ID doubles as the merchandise id
// carried by cart lines.
type Product struct {
	ID                string    `json:"id"`
	ShopID            string    `json:"-"`
	Handle            string    `json:"handle"`
	SKU               string    `json:"sku"`
	Title             string    `json:"title"`
	Description       string    `json:"description,omitempty"`
	Vendor            string    `json:"vendor,omitempty"`
	PriceCents        int64     `json:"-"`
	Currency          string    `json:"-"`
	InventoryQuantity *int      `json:"-"`
	Images            []string  `json:"images,omitempty"`
	Tags              []string  `json:"tags,omitempty"`
	CreatedAt         time.Time `json:"createdAt"`
}

// Price returns the unit price as Money.
func (p Product) Price() Money {
	return MoneyFromCents(p.PriceCents, p.Currency)
}

// AvailableForSale is false only when inventory is tracked and exhausted.
func (p Product) AvailableForSale() bool {
	return p.CanFulfil(1)
}

// CanFulfil reports whether the requested quantity is in stock.
func (p Product) CanFulfil(quantity int) bool {
	return p.InventoryQuantity == nil || *p.InventoryQuantity >= quantity
}

// FeaturedImage is the first image URL or empty.
func (p Product) FeaturedImage() string {
	if len(p.Images) == 0 {
		return ""
	}
	return p.Images[0]
}

// Collection groups products for browsing.
type Collection struct {
	ID          string    `json:"id"`
	ShopID      string    `json:"-"`
	Handle      string    `json:"handle"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Image       string    `json:"image,omitempty"`
	Products    []Product `json:"products,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}
