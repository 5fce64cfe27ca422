package user

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

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	const q = `
SELECT id::text, name, email, role, created_at
FROM users
WHERE id = $1
`
	var u domain.User
	err := r.pool.QueryRow(ctx, q, id).Scan(&u.ID, &u.Name, &u.Email, &u.Role, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		r.logger.Error("user repo: get", zap.String("user_id", id), zap.Error(err))
		return nil, err
	}
	return &u, nil
}

func (r *postgresRepo) AppendHistory(ctx context.Context, userID string, order *domain.Order) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var exists bool
	if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)`, userID).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return domain.ErrNotFound
	}

	for _, line := range order.Lines {
		if _, err := tx.Exec(ctx, `
INSERT INTO purchase_history (user_id, product_id, name, description, count, transaction_id, amount_cents)
VALUES ($1, $2, $3, COALESCE((SELECT description FROM products WHERE id = $2), ''), $4, $5, $6)
`, userID, line.ProductID, line.Name, line.Count, order.TransactionID, order.AmountCents); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func (r *postgresRepo) History(ctx context.Context, userID string) ([]domain.PurchaseHistoryEntry, error) {
	const q = `
SELECT product_id::text, name, COALESCE(description, ''), count, transaction_id, amount_cents, created_at
FROM purchase_history
WHERE user_id = $1
ORDER BY created_at DESC
`
	rows, err := r.pool.Query(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []domain.PurchaseHistoryEntry
	for rows.Next() {
		var e domain.PurchaseHistoryEntry
		if err := rows.Scan(&e.ProductID, &e.Name, &e.Description, &e.Count, &e.TransactionID, &e.AmountCents, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
