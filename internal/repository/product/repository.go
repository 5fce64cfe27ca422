package product

import (
	"context"

	"storefront-backend/internal/domain"
)

type Repository interface {
	GetByID(ctx context.Context, id string) (*domain.Product, error)
	GetByIDs(ctx context.Context, ids []string) (map[string]domain.Product, error)
	ReserveStock(ctx context.Context, changes []domain.StockChange) error
	ReleaseStock(ctx context.Context, changes []domain.StockChange) error
}
