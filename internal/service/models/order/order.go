package order

import (
	"time"
)

// LineSnapshot is an order line frozen at checkout time.
type LineSnapshot struct {
	MenuID     string   `json:"menuId"`
	Name       string   `json:"name"`
	PriceMinor int64    `json:"price"`
	Quantity   int64    `json:"quantity"`
	Option1    *string  `json:"option1"`
	Option2    []string `json:"option2"`
	ImageRef   string   `json:"image"`
}

// Order represents a placed order.
type Order struct {
	ID              int64          `json:"orderId"`
	UserEmail       string         `json:"user"`
	Lines           []LineSnapshot `json:"items"`
	TotalPriceMinor int64          `json:"totalPrice"`
	Status          Status         `json:"status"`
	CreatedAt       time.Time      `json:"timestamp"`
}

// TotalOf sums price times quantity over the snapshots. Tax and discount are not included.
func TotalOf(lines []LineSnapshot) int64 {
	var total int64
	for _, l := range lines {
		total += l.PriceMinor * l.Quantity
	}

	return total
}
