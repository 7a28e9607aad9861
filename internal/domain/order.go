package domain

import "time"

const (
	OrderStatusPaid      = "paid"
	OrderStatusFulfilled = "fulfilled"
	OrderStatusCancelled = "cancelled"
)

type Order struct {
	ID         string      `json:"id"`
	ShopID     string      `json:"-"`
	CustomerID string      `json:"-"`
	Number     int         `json:"number"`
	Status     string      `json:"status"`
	Total      Money       `json:"total"`
	Lines      []OrderLine `json:"lines,omitempty"`
	CreatedAt  time.Time   `json:"processedAt"`
}

type OrderLine struct {
	Title    string `json:"title"`
	Quantity int    `json:"quantity"`
	Total    Money  `json:"total"`
}
