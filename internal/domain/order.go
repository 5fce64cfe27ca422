package domain

import "time"

type OrderStatus string

const (
	StatusReceived   OrderStatus = "Received"
	StatusProcessing OrderStatus = "Processing"
	StatusShipped    OrderStatus = "Shipped"
	StatusDelivered  OrderStatus = "Delivered"
	StatusCancelled  OrderStatus = "Cancelled"
)

// OrderStatusValues lists every status in lifecycle order, for the
// admin status enumeration endpoint.
var OrderStatusValues = []OrderStatus{
	StatusReceived,
	StatusProcessing,
	StatusShipped,
	StatusDelivered,
	StatusCancelled,
}

var validNext = map[OrderStatus]map[OrderStatus]bool{
	StatusReceived:   {StatusProcessing: true, StatusShipped: true, StatusCancelled: true},
	StatusProcessing: {StatusShipped: true, StatusCancelled: true},
	StatusShipped:    {StatusDelivered: true},
	StatusDelivered:  {},
	StatusCancelled:  {},
}

func ValidOrderStatus(s OrderStatus) bool {
	_, ok := validNext[s]
	return ok
}

func CanTransition(from, to OrderStatus) bool {
	return validNext[from][to]
}

type Order struct {
	ID             string      `json:"id"`
	BuyerID        string      `json:"buyerId"`
	Lines          []LineItem  `json:"lineItems"`
	AmountCents    int64       `json:"amountCents"`
	TransactionID  string      `json:"transactionId"`
	IdempotencyKey string      `json:"-"`
	Status         OrderStatus `json:"status"`
	CreatedAt      time.Time   `json:"createdAt"`
}

type LineItem struct {
	ProductID  string `json:"productId"`
	Name       string `json:"name"`
	PriceCents int64  `json:"priceCents"`
	Count      int    `json:"count"`
}

// OrderTotalCents sums price x count across line items. Every persisted
// order must carry exactly this amount.
func OrderTotalCents(lines []LineItem) int64 {
	var total int64
	for _, l := range lines {
		total += l.PriceCents * int64(l.Count)
	}
	return total
}
