package checkout

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"storefront-backend/internal/domain"
	"storefront-backend/internal/events"
	"storefront-backend/internal/metrics"
	"storefront-backend/internal/payment"
	orderrepo "storefront-backend/internal/repository/order"
)

// Service sequences a checkout: authorize payment, record the order,
// reserve stock, append purchase history. Payment and stock are scarce
// externally-visible resources, so every failure after funds capture
// triggers a compensating refund before the error surfaces. History is
// a denormalized convenience and its failure never fails the checkout.
type Service struct {
	payments  payment.Authorizer
	orders    orderRepo
	products  productRepo
	users     userRepo
	idemCache idemCache
	publisher eventPublisher
	metrics   *metrics.CheckoutMetrics
	logger    *zap.Logger
}

type orderRepo interface {
	Create(ctx context.Context, in orderrepo.CreateOrderInput) (*domain.Order, bool, error)
	GetByID(ctx context.Context, id string) (*domain.Order, error)
	GetByIdempotencyKey(ctx context.Context, key string) (*domain.Order, error)
	UpdateStatus(ctx context.Context, id string, status domain.OrderStatus) (*domain.Order, error)
}

type productRepo interface {
	GetByIDs(ctx context.Context, ids []string) (map[string]domain.Product, error)
	ReserveStock(ctx context.Context, changes []domain.StockChange) error
}

type userRepo interface {
	AppendHistory(ctx context.Context, userID string, order *domain.Order) error
}

type idemCache interface {
	Lookup(ctx context.Context, key string) string
	Store(ctx context.Context, key, orderID string)
}

type eventPublisher interface {
	PublishOrder(ctx context.Context, eventType string, order *domain.Order)
}

type Option func(*Service)

// WithIdempotencyCache fronts the database idempotency check with a
// shared cache.
func WithIdempotencyCache(cache idemCache) Option {
	return func(s *Service) { s.idemCache = cache }
}

// WithEventPublisher enables best-effort order event publishing.
func WithEventPublisher(pub eventPublisher) Option {
	return func(s *Service) { s.publisher = pub }
}

// WithMetrics records checkout outcome counters.
func WithMetrics(m *metrics.CheckoutMetrics) Option {
	return func(s *Service) { s.metrics = m }
}

func New(payments payment.Authorizer, orders orderRepo, products productRepo, users userRepo, logger *zap.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Service{
		payments: payments,
		orders:   orders,
		products: products,
		users:    users,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type Input struct {
	BuyerID        string
	Lines          []domain.LineItem
	PaymentNonce   string
	IdempotencyKey string
}

// Checkout runs the pipeline for one cart. The returned order has status
// Received on success. Errors carry the taxonomy the HTTP layer maps to
// status codes: ValidationError, PaymentDeclinedError,
// PaymentUnavailableError, InsufficientStockError.
func (s *Service) Checkout(ctx context.Context, in Input) (*domain.Order, error) {
	started := time.Now()

	lines, err := domain.NormalizeCart(in.Lines)
	if err != nil {
		s.metrics.Observe("invalid", started)
		return nil, err
	}
	if in.PaymentNonce == "" {
		s.metrics.Observe("invalid", started)
		return nil, &domain.ValidationError{Reason: "payment nonce required"}
	}
	if in.BuyerID == "" {
		s.metrics.Observe("invalid", started)
		return nil, &domain.ValidationError{Reason: "buyer required"}
	}

	// The payment nonce is single-use, so it doubles as the idempotency
	// key when the client does not supply one.
	key := in.IdempotencyKey
	if key == "" {
		key = in.PaymentNonce
	}

	if existing := s.shortCircuit(ctx, key); existing != nil {
		s.metrics.Observe("replayed", started)
		return existing, nil
	}

	lines = s.repriceFromCatalog(ctx, lines)
	amount := domain.OrderTotalCents(lines)

	txID, err := s.payments.Authorize(ctx, in.PaymentNonce, amount)
	if err != nil {
		s.metrics.Observe("payment_failed", started)
		return nil, err
	}

	// Funds are captured. From here on the workflow must run to
	// completion even if the client disconnects: an authorized payment
	// with no order or stock effect is the worst failure mode.
	ctx = context.WithoutCancel(ctx)

	order, existed, err := s.orders.Create(ctx, orderrepo.CreateOrderInput{
		BuyerID:        in.BuyerID,
		Lines:          lines,
		AmountCents:    amount,
		TransactionID:  txID,
		IdempotencyKey: key,
	})
	if err != nil {
		s.refund(ctx, txID)
		s.metrics.Observe("order_failed", started)
		return nil, err
	}
	if existed {
		// A concurrent request with the same key won the insert. Our
		// capture is the duplicate; give it back.
		if order.TransactionID != txID {
			s.refund(ctx, txID)
		}
		s.remember(ctx, key, order.ID)
		s.metrics.Observe("replayed", started)
		return order, nil
	}

	changes := make([]domain.StockChange, 0, len(lines))
	for _, l := range lines {
		changes = append(changes, domain.StockChange{ProductID: l.ProductID, Count: l.Count})
	}
	if err := s.products.ReserveStock(ctx, changes); err != nil {
		s.cancel(ctx, order)
		s.refund(ctx, txID)
		var insufficient *domain.InsufficientStockError
		if errors.As(err, &insufficient) {
			s.metrics.Observe("out_of_stock", started)
		} else {
			s.metrics.Observe("stock_failed", started)
		}
		return nil, err
	}

	if err := s.users.AppendHistory(ctx, in.BuyerID, order); err != nil {
		// Non-fatal: the order, payment and stock all stand. A missing
		// history entry is backfilled by manual reconciliation.
		s.logger.Error("purchase history append failed, needs reconciliation",
			zap.String("order_id", order.ID),
			zap.String("buyer_id", in.BuyerID),
			zap.Error(err))
	}

	s.remember(ctx, key, order.ID)
	s.publish(ctx, order)

	s.metrics.Observe("completed", started)
	s.logger.Info("checkout completed",
		zap.String("order_id", order.ID),
		zap.String("buyer_id", in.BuyerID),
		zap.String("transaction_id", txID),
		zap.Int64("amount_cents", amount))
	return order, nil
}

// shortCircuit returns the already-settled order for an idempotency key,
// or nil when the key is unseen.
func (s *Service) shortCircuit(ctx context.Context, key string) *domain.Order {
	if s.idemCache != nil {
		if orderID := s.idemCache.Lookup(ctx, key); orderID != "" {
			if order, err := s.orders.GetByID(ctx, orderID); err == nil {
				return order
			}
		}
	}
	order, err := s.orders.GetByIdempotencyKey(ctx, key)
	if err != nil {
		return nil
	}
	s.remember(ctx, key, order.ID)
	return order
}

func (s *Service) remember(ctx context.Context, key, orderID string) {
	if s.idemCache != nil {
		s.idemCache.Store(ctx, key, orderID)
	}
}

// repriceFromCatalog replaces each snapshot price and name with the
// catalog of record's current values when the product is found. Unknown
// products keep their snapshot and are left for the stock guard to
// reject.
func (s *Service) repriceFromCatalog(ctx context.Context, lines []domain.LineItem) []domain.LineItem {
	ids := make([]string, 0, len(lines))
	for _, l := range lines {
		ids = append(ids, l.ProductID)
	}
	catalog, err := s.products.GetByIDs(ctx, ids)
	if err != nil {
		s.logger.Warn("catalog reprice unavailable, using cart snapshots", zap.Error(err))
		return lines
	}
	for i, l := range lines {
		if p, ok := catalog[l.ProductID]; ok {
			lines[i].PriceCents = p.PriceCents
			lines[i].Name = p.Name
		}
	}
	return lines
}

func (s *Service) cancel(ctx context.Context, order *domain.Order) {
	cancelled, err := s.orders.UpdateStatus(ctx, order.ID, domain.StatusCancelled)
	if err != nil {
		s.logger.Error("order cancellation failed, needs reconciliation",
			zap.String("order_id", order.ID),
			zap.Error(err))
		return
	}
	*order = *cancelled
	if s.publisher != nil {
		s.publisher.PublishOrder(ctx, events.TypeOrderCancelled, order)
	}
}

func (s *Service) refund(ctx context.Context, txID string) {
	if err := s.payments.Refund(ctx, txID); err != nil {
		s.logger.Error("compensating refund failed, needs reconciliation",
			zap.String("transaction_id", txID),
			zap.Error(err))
		return
	}
	s.logger.Info("compensating refund issued", zap.String("transaction_id", txID))
}

func (s *Service) publish(ctx context.Context, order *domain.Order) {
	if s.publisher == nil {
		return
	}
	s.publisher.PublishOrder(ctx, events.TypeOrderPlaced, order)
}
