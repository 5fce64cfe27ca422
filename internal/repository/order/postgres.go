package order

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"storefront-backend/internal/domain"
)

const uniqueViolation = "23505"

type postgresRepo struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

func NewPostgres(pool *pgxpool.Pool, logger *zap.Logger) Repository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &postgresRepo{pool: pool, logger: logger}
}

func (r *postgresRepo) Create(ctx context.Context, in CreateOrderInput) (*domain.Order, bool, error) {
	computed := domain.OrderTotalCents(in.Lines)
	if computed != in.AmountCents {
		return nil, false, &domain.AmountMismatchError{DeclaredCents: in.AmountCents, ComputedCents: computed}
	}

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, false, err
	}
	defer tx.Rollback(ctx)

	order := &domain.Order{
		ID:             uuid.NewString(),
		BuyerID:        in.BuyerID,
		Lines:          in.Lines,
		AmountCents:    in.AmountCents,
		TransactionID:  in.TransactionID,
		IdempotencyKey: in.IdempotencyKey,
		Status:         domain.StatusReceived,
	}

	err = tx.QueryRow(ctx, `
INSERT INTO orders (id, buyer_id, amount_cents, transaction_id, idempotency_key, status)
VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6)
RETURNING created_at
`, order.ID, order.BuyerID, order.AmountCents, order.TransactionID, order.IdempotencyKey, order.Status).Scan(&order.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation && in.IdempotencyKey != "" {
			existing, lookupErr := r.GetByIdempotencyKey(ctx, in.IdempotencyKey)
			if lookupErr != nil {
				return nil, false, lookupErr
			}
			r.logger.Info("order create short-circuited by idempotency key",
				zap.String("order_id", existing.ID))
			return existing, true, nil
		}
		r.logger.Error("order repo: create", zap.String("buyer_id", in.BuyerID), zap.Error(err))
		return nil, false, err
	}

	for pos, line := range in.Lines {
		if _, err := tx.Exec(ctx, `
INSERT INTO order_lines (order_id, position, product_id, name, price_cents, count)
VALUES ($1, $2, $3, $4, $5, $6)
`, order.ID, pos, line.ProductID, line.Name, line.PriceCents, line.Count); err != nil {
			return nil, false, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, false, err
	}
	return order, false, nil
}

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	const q = `
SELECT id::text, buyer_id::text, amount_cents, transaction_id, COALESCE(idempotency_key, ''), status, created_at
FROM orders
WHERE id = $1
`
	return r.fetchOrder(ctx, q, id)
}

func (r *postgresRepo) GetByIdempotencyKey(ctx context.Context, key string) (*domain.Order, error) {
	const q = `
SELECT id::text, buyer_id::text, amount_cents, transaction_id, COALESCE(idempotency_key, ''), status, created_at
FROM orders
WHERE idempotency_key = $1
`
	return r.fetchOrder(ctx, q, key)
}

func (r *postgresRepo) UpdateStatus(ctx context.Context, id string, status domain.OrderStatus) (*domain.Order, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	var current domain.OrderStatus
	err = tx.QueryRow(ctx, `SELECT status FROM orders WHERE id = $1 FOR UPDATE`, id).Scan(&current)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	if !domain.CanTransition(current, status) {
		return nil, &domain.ValidationError{Reason: "cannot transition order from " + string(current) + " to " + string(status)}
	}

	if _, err := tx.Exec(ctx, `UPDATE orders SET status = $2 WHERE id = $1`, id, status); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

func (r *postgresRepo) List(ctx context.Context) ([]domain.Order, error) {
	const q = `
SELECT id::text, buyer_id::text, amount_cents, transaction_id, COALESCE(idempotency_key, ''), status, created_at
FROM orders
ORDER BY created_at DESC
`
	return r.fetchOrders(ctx, q)
}

func (r *postgresRepo) ListByBuyer(ctx context.Context, buyerID string) ([]domain.Order, error) {
	const q = `
SELECT id::text, buyer_id::text, amount_cents, transaction_id, COALESCE(idempotency_key, ''), status, created_at
FROM orders
WHERE buyer_id = $1
ORDER BY created_at DESC
`
	return r.fetchOrders(ctx, q, buyerID)
}

func (r *postgresRepo) fetchOrder(ctx context.Context, q string, args ...interface{}) (*domain.Order, error) {
	var o domain.Order
	err := r.pool.QueryRow(ctx, q, args...).Scan(
		&o.ID, &o.BuyerID, &o.AmountCents, &o.TransactionID, &o.IdempotencyKey, &o.Status, &o.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	lines, err := r.fetchLines(ctx, o.ID)
	if err != nil {
		return nil, err
	}
	o.Lines = lines
	return &o, nil
}

func (r *postgresRepo) fetchOrders(ctx context.Context, q string, args ...interface{}) ([]domain.Order, error) {
	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []domain.Order
	for rows.Next() {
		var o domain.Order
		if err := rows.Scan(&o.ID, &o.BuyerID, &o.AmountCents, &o.TransactionID, &o.IdempotencyKey, &o.Status, &o.CreatedAt); err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range orders {
		lines, err := r.fetchLines(ctx, orders[i].ID)
		if err != nil {
			return nil, err
		}
		orders[i].Lines = lines
	}
	return orders, nil
}

func (r *postgresRepo) fetchLines(ctx context.Context, orderID string) ([]domain.LineItem, error) {
	const q = `
SELECT product_id::text, name, price_cents, count
FROM order_lines
WHERE order_id = $1
ORDER BY position ASC
`
	rows, err := r.pool.Query(ctx, q, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lines []domain.LineItem
	for rows.Next() {
		var l domain.LineItem
		if err := rows.Scan(&l.ProductID, &l.Name, &l.PriceCents, &l.Count); err != nil {
			return nil, err
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}
