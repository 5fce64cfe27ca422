package user

import (
	"context"

	"storefront-backend/internal/domain"
)

type Repository interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
	// AppendHistory records one purchase-history entry per order line.
	// Entries are append-only; nothing ever rewrites them.
	AppendHistory(ctx context.Context, userID string, order *domain.Order) error
	History(ctx context.Context, userID string) ([]domain.PurchaseHistoryEntry, error)
}
