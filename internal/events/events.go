package events

import (
	"time"

	"storefront-backend/internal/domain"
)

const (
	TypeOrderPlaced    = "order.placed"
	TypeOrderCancelled = "order.cancelled"
)

// OrderEvent is the envelope published to the order topic after a
// checkout settles one way or the other. Consumers (fulfilment,
// analytics) treat it as a notification, never as the source of truth.
type OrderEvent struct {
	EventID       string             `json:"eventId"`
	EventType     string             `json:"eventType"`
	OrderID       string             `json:"orderId"`
	BuyerID       string             `json:"buyerId"`
	AmountCents   int64              `json:"amountCents"`
	TransactionID string             `json:"transactionId"`
	Status        domain.OrderStatus `json:"status"`
	OccurredAt    time.Time          `json:"occurredAt"`
}
