package order

import (
	"context"

	"storefront-backend/internal/domain"
)

// Service exposes the order read paths and the administrative status
// transition. Order creation happens exclusively in the checkout
// pipeline; this service never creates or deletes orders.
type Service struct {
	repo repo
}

type repo interface {
	GetByID(ctx context.Context, id string) (*domain.Order, error)
	UpdateStatus(ctx context.Context, id string, status domain.OrderStatus) (*domain.Order, error)
	List(ctx context.Context) ([]domain.Order, error)
	ListByBuyer(ctx context.Context, buyerID string) ([]domain.Order, error)
}

func New(r repo) *Service {
	return &Service{repo: r}
}

func (s *Service) Get(ctx context.Context, id string) (*domain.Order, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context) ([]domain.Order, error) {
	return s.repo.List(ctx)
}

func (s *Service) ListByBuyer(ctx context.Context, buyerID string) ([]domain.Order, error) {
	return s.repo.ListByBuyer(ctx, buyerID)
}

// StatusValues returns every order status, for admin dropdowns.
func (s *Service) StatusValues() []domain.OrderStatus {
	return domain.OrderStatusValues
}

func (s *Service) UpdateStatus(ctx context.Context, id string, status domain.OrderStatus) (*domain.Order, error) {
	if !domain.ValidOrderStatus(status) {
		return nil, &domain.ValidationError{Reason: "unknown order status " + string(status)}
	}
	return s.repo.UpdateStatus(ctx, id, status)
}
