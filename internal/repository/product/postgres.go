package product

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"storefront-backend/internal/domain"
)

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

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	const q = `
SELECT id::text, sku, name, COALESCE(description, ''), price_cents, currency, quantity, sold, created_at
FROM products
WHERE id = $1
`
	var p domain.Product
	err := r.pool.QueryRow(ctx, q, id).Scan(&p.ID, &p.SKU, &p.Name, &p.Description, &p.PriceCents, &p.Currency, &p.Quantity, &p.Sold, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		r.logger.Error("product repo: get", zap.String("product_id", id), zap.Error(err))
		return nil, err
	}
	return &p, nil
}

func (r *postgresRepo) GetByIDs(ctx context.Context, ids []string) (map[string]domain.Product, error) {
	const q = `
SELECT id::text, sku, name, COALESCE(description, ''), price_cents, currency, quantity, sold, created_at
FROM products
WHERE id = ANY($1)
`
	rows, err := r.pool.Query(ctx, q, ids)
	if err != nil {
		r.logger.Error("product repo: get by ids", zap.Int("count", len(ids)), zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	result := make(map[string]domain.Product, len(ids))
	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(&p.ID, &p.SKU, &p.Name, &p.Description, &p.PriceCents, &p.Currency, &p.Quantity, &p.Sold, &p.CreatedAt); err != nil {
			return nil, err
		}
		result[p.ID] = p
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// ReserveStock decrements quantity and increments sold for every change
// in one transaction. Each decrement is guarded at write time
// (quantity >= count), so concurrent checkouts cannot drive stock
// negative. If any guard fails the transaction rolls back and the error
// names every failing product, not just the first.
func (r *postgresRepo) ReserveStock(ctx context.Context, changes []domain.StockChange) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var failed []string
	for _, ch := range changes {
		ct, err := tx.Exec(ctx, `
UPDATE products
SET quantity = quantity - $2, sold = sold + $2
WHERE id = $1 AND quantity >= $2
`, ch.ProductID, ch.Count)
		if err != nil {
			return err
		}
		if ct.RowsAffected() == 0 {
			failed = append(failed, ch.ProductID)
		}
	}

	if len(failed) > 0 {
		// rollback via defer: nothing in this batch sticks
		r.logger.Info("stock reservation rejected", zap.Strings("product_ids", failed))
		return &domain.InsufficientStockError{ProductIDs: failed}
	}
	return tx.Commit(ctx)
}

// ReleaseStock undoes a previously applied reservation. It is the
// manual-ops escape hatch; the checkout pipeline itself never needs it
// because a failed batch is rolled back before commit.
func (r *postgresRepo) ReleaseStock(ctx context.Context, changes []domain.StockChange) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for _, ch := range changes {
		if _, err := tx.Exec(ctx, `
UPDATE products
SET quantity = quantity + $2, sold = GREATEST(sold - $2, 0)
WHERE id = $1
`, ch.ProductID, ch.Count); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}
