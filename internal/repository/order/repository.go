package order

import (
	"context"

	"storefront-backend/internal/domain"
)

type CreateOrderInput struct {
	BuyerID        string
	Lines          []domain.LineItem
	AmountCents    int64
	TransactionID  string
	IdempotencyKey string
}

type Repository interface {
	// Create persists the order and its lines. The returned bool is true
	// when an order for the same idempotency key already existed and was
	// returned instead of creating a duplicate.
	Create(ctx context.Context, in CreateOrderInput) (*domain.Order, bool, error)
	GetByID(ctx context.Context, id string) (*domain.Order, error)
	GetByIdempotencyKey(ctx context.Context, key string) (*domain.Order, error)
	UpdateStatus(ctx context.Context, id string, status domain.OrderStatus) (*domain.Order, error)
	List(ctx context.Context) ([]domain.Order, error)
	ListByBuyer(ctx context.Context, buyerID string) ([]domain.Order, error)
}
