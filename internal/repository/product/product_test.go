package product

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"

	"storefront-backend/internal/domain"
	"storefront-backend/internal/migrate"
)

func testPool(ctx context.Context, t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		t.Skip("TEST_DB_DSN not set")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}
	return pool
}

func resetTables(ctx context.Context, t *testing.T, pool *pgxpool.Pool) {
	t.Helper()
	if _, err := pool.Exec(ctx, `TRUNCATE purchase_history, order_lines, orders, products, users CASCADE`); err != nil {
		t.Fatalf("reset tables: %v", err)
	}
}

func insertProduct(ctx context.Context, t *testing.T, pool *pgxpool.Pool, sku string, priceCents int64, quantity int) string {
	t.Helper()
	var id string
	err := pool.QueryRow(ctx, `
INSERT INTO products (sku, name, price_cents, quantity)
VALUES ($1, $1, $2, $3)
RETURNING id::text
`, sku, priceCents, quantity).Scan(&id)
	if err != nil {
		t.Fatalf("insert product: %v", err)
	}
	return id
}

func stockOf(ctx context.Context, t *testing.T, pool *pgxpool.Pool, id string) (int, int) {
	t.Helper()
	var quantity, sold int
	if err := pool.QueryRow(ctx, `SELECT quantity, sold FROM products WHERE id = $1`, id).Scan(&quantity, &sold); err != nil {
		t.Fatalf("read stock: %v", err)
	}
	return quantity, sold
}

func TestReserveStockAppliesBatch(t *testing.T) {
	ctx := context.Background()
	pool := testPool(ctx, t)
	defer pool.Close()

	if err := migrate.Apply(ctx, pool); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}
	resetTables(ctx, t, pool)

	p1 := insertProduct(ctx, t, pool, "sku-1", 1000, 5)
	p2 := insertProduct(ctx, t, pool, "sku-2", 500, 3)

	repo := NewPostgres(pool, nil)
	err := repo.ReserveStock(ctx, []domain.StockChange{
		{ProductID: p1, Count: 2},
		{ProductID: p2, Count: 1},
	})
	if err != nil {
		t.Fatalf("ReserveStock: %v", err)
	}

	if q, s := stockOf(ctx, t, pool, p1); q != 3 || s != 2 {
		t.Fatalf("p1 stock = %d/%d, want 3/2", q, s)
	}
	if q, s := stockOf(ctx, t, pool, p2); q != 2 || s != 1 {
		t.Fatalf("p2 stock = %d/%d, want 2/1", q, s)
	}
}

func TestReserveStockBatchOrNothing(t *testing.T) {
	ctx := context.Background()
	pool := testPool(ctx, t)
	defer pool.Close()

	if err := migrate.Apply(ctx, pool); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}
	resetTables(ctx, t, pool)

	p1 := insertProduct(ctx, t, pool, "sku-1", 1000, 5)
	p2 := insertProduct(ctx, t, pool, "sku-2", 500, 0)

	repo := NewPostgres(pool, nil)
	err := repo.ReserveStock(ctx, []domain.StockChange{
		{ProductID: p1, Count: 2},
		{ProductID: p2, Count: 1},
	})

	var insufficient *domain.InsufficientStockError
	if !errors.As(err, &insufficient) {
		t.Fatalf("expected insufficient stock, got %v", err)
	}
	if len(insufficient.ProductIDs) != 1 || insufficient.ProductIDs[0] != p2 {
		t.Fatalf("expected failing product %s, got %v", p2, insufficient.ProductIDs)
	}

	// the batch rolled back: p1 is untouched
	if q, s := stockOf(ctx, t, pool, p1); q != 5 || s != 0 {
		t.Fatalf("p1 stock = %d/%d, want 5/0", q, s)
	}
}

func TestReserveStockListsEveryFailingProduct(t *testing.T) {
	ctx := context.Background()
	pool := testPool(ctx, t)
	defer pool.Close()

	if err := migrate.Apply(ctx, pool); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}
	resetTables(ctx, t, pool)

	p1 := insertProduct(ctx, t, pool, "sku-1", 1000, 0)
	p2 := insertProduct(ctx, t, pool, "sku-2", 500, 0)

	repo := NewPostgres(pool, nil)
	err := repo.ReserveStock(ctx, []domain.StockChange{
		{ProductID: p1, Count: 1},
		{ProductID: p2, Count: 1},
	})

	var insufficient *domain.InsufficientStockError
	if !errors.As(err, &insufficient) {
		t.Fatalf("expected insufficient stock, got %v", err)
	}
	if len(insufficient.ProductIDs) != 2 {
		t.Fatalf("expected both failing products, got %v", insufficient.ProductIDs)
	}
}

func TestReserveStockConcurrentNeverOversells(t *testing.T) {
	ctx := context.Background()
	pool := testPool(ctx, t)
	defer pool.Close()

	if err := migrate.Apply(ctx, pool); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}
	resetTables(ctx, t, pool)

	id := insertProduct(ctx, t, pool, "sku-hot", 1000, 5)
	repo := NewPostgres(pool, nil)

	const attempts = 12
	var wg sync.WaitGroup
	results := make(chan error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- repo.ReserveStock(ctx, []domain.StockChange{{ProductID: id, Count: 1}})
		}()
	}
	wg.Wait()
	close(results)

	var succeeded int
	for err := range results {
		if err == nil {
			succeeded++
			continue
		}
		var insufficient *domain.InsufficientStockError
		if !errors.As(err, &insufficient) {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if succeeded != 5 {
		t.Fatalf("expected exactly 5 reservations to win, got %d", succeeded)
	}
	if q, s := stockOf(ctx, t, pool, id); q != 0 || s != 5 {
		t.Fatalf("stock = %d/%d, want 0/5", q, s)
	}
}

func TestReleaseStockRestores(t *testing.T) {
	ctx := context.Background()
	pool := testPool(ctx, t)
	defer pool.Close()

	if err := migrate.Apply(ctx, pool); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}
	resetTables(ctx, t, pool)

	id := insertProduct(ctx, t, pool, "sku-1", 1000, 5)
	repo := NewPostgres(pool, nil)

	if err := repo.ReserveStock(ctx, []domain.StockChange{{ProductID: id, Count: 3}}); err != nil {
		t.Fatalf("ReserveStock: %v", err)
	}
	if err := repo.ReleaseStock(ctx, []domain.StockChange{{ProductID: id, Count: 3}}); err != nil {
		t.Fatalf("ReleaseStock: %v", err)
	}
	if q, s := stockOf(ctx, t, pool, id); q != 5 || s != 0 {
		t.Fatalf("stock = %d/%d, want 5/0", q, s)
	}
}
