package order

import (
	"context"
	"errors"
	"os"
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
	if err := migrate.Apply(ctx, pool); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}
	if _, err := pool.Exec(ctx, `TRUNCATE purchase_history, order_lines, orders, products, users CASCADE`); err != nil {
		t.Fatalf("reset tables: %v", err)
	}
	return pool
}

func insertUser(ctx context.Context, t *testing.T, pool *pgxpool.Pool, email string) string {
	t.Helper()
	var id string
	err := pool.QueryRow(ctx, `
INSERT INTO users (name, email) VALUES ($1, $1) RETURNING id::text
`, email).Scan(&id)
	if err != nil {
		t.Fatalf("insert user: %v", err)
	}
	return id
}

func testLines() []domain.LineItem {
	return []domain.LineItem{
		{ProductID: "5f9b1c2e-0000-4000-8000-000000000001", Name: "widget", PriceCents: 1000, Count: 2},
		{ProductID: "5f9b1c2e-0000-4000-8000-000000000002", Name: "gadget", PriceCents: 500, Count: 1},
	}
}

func TestCreateAndGet(t *testing.T) {
	ctx := context.Background()
	pool := testPool(ctx, t)
	defer pool.Close()

	buyer := insertUser(ctx, t, pool, "shopper@example.com")
	repo := NewPostgres(pool, nil)

	created, existed, err := repo.Create(ctx, CreateOrderInput{
		BuyerID:       buyer,
		Lines:         testLines(),
		AmountCents:   2500,
		TransactionID: "txn-1",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if existed {
		t.Fatal("fresh order reported as existing")
	}
	if created.Status != domain.StatusReceived {
		t.Fatalf("status = %s, want %s", created.Status, domain.StatusReceived)
	}

	got, err := repo.GetByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.AmountCents != 2500 || got.TransactionID != "txn-1" {
		t.Fatalf("unexpected order: %+v", got)
	}
	if len(got.Lines) != 2 || got.Lines[0].Name != "widget" || got.Lines[1].Name != "gadget" {
		t.Fatalf("lines lost order or content: %+v", got.Lines)
	}
}

func TestCreateRejectsAmountMismatch(t *testing.T) {
	ctx := context.Background()
	pool := testPool(ctx, t)
	defer pool.Close()

	buyer := insertUser(ctx, t, pool, "shopper@example.com")
	repo := NewPostgres(pool, nil)

	_, _, err := repo.Create(ctx, CreateOrderInput{
		BuyerID:       buyer,
		Lines:         testLines(),
		AmountCents:   2400,
		TransactionID: "txn-1",
	})
	var mismatch *domain.AmountMismatchError
	if !errors.As(err, &mismatch) {
		t.Fatalf("expected amount mismatch, got %v", err)
	}
	if mismatch.DeclaredCents != 2400 || mismatch.ComputedCents != 2500 {
		t.Fatalf("unexpected mismatch detail: %+v", mismatch)
	}

	var count int
	if err := pool.QueryRow(ctx, `SELECT count(*) FROM orders`).Scan(&count); err != nil {
		t.Fatalf("count orders: %v", err)
	}
	if count != 0 {
		t.Fatalf("mismatched order was persisted")
	}
}

func TestCreateDuplicateKeyReturnsExisting(t *testing.T) {
	ctx := context.Background()
	pool := testPool(ctx, t)
	defer pool.Close()

	buyer := insertUser(ctx, t, pool, "shopper@example.com")
	repo := NewPostgres(pool, nil)

	in := CreateOrderInput{
		BuyerID:        buyer,
		Lines:          testLines(),
		AmountCents:    2500,
		TransactionID:  "txn-1",
		IdempotencyKey: "key-1",
	}
	first, _, err := repo.Create(ctx, in)
	if err != nil {
		t.Fatalf("first Create: %v", err)
	}

	in.TransactionID = "txn-2"
	second, existed, err := repo.Create(ctx, in)
	if err != nil {
		t.Fatalf("second Create: %v", err)
	}
	if !existed {
		t.Fatal("duplicate key not reported as existing")
	}
	if second.ID != first.ID || second.TransactionID != "txn-1" {
		t.Fatalf("duplicate returned a different order: %+v", second)
	}

	var count int
	if err := pool.QueryRow(ctx, `SELECT count(*) FROM orders`).Scan(&count); err != nil {
		t.Fatalf("count orders: %v", err)
	}
	if count != 1 {
		t.Fatalf("order count = %d, want 1", count)
	}
}

func TestGetByIdempotencyKey(t *testing.T) {
	ctx := context.Background()
	pool := testPool(ctx, t)
	defer pool.Close()

	buyer := insertUser(ctx, t, pool, "shopper@example.com")
	repo := NewPostgres(pool, nil)

	created, _, err := repo.Create(ctx, CreateOrderInput{
		BuyerID:        buyer,
		Lines:          testLines(),
		AmountCents:    2500,
		TransactionID:  "txn-1",
		IdempotencyKey: "key-1",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, err := repo.GetByIdempotencyKey(ctx, "key-1")
	if err != nil {
		t.Fatalf("GetByIdempotencyKey: %v", err)
	}
	if got.ID != created.ID {
		t.Fatalf("got order %s, want %s", got.ID, created.ID)
	}

	if _, err := repo.GetByIdempotencyKey(ctx, "missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUpdateStatusEnforcesTransitions(t *testing.T) {
	ctx := context.Background()
	pool := testPool(ctx, t)
	defer pool.Close()

	buyer := insertUser(ctx, t, pool, "shopper@example.com")
	repo := NewPostgres(pool, nil)

	created, _, err := repo.Create(ctx, CreateOrderInput{
		BuyerID:       buyer,
		Lines:         testLines(),
		AmountCents:   2500,
		TransactionID: "txn-1",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	updated, err := repo.UpdateStatus(ctx, created.ID, domain.StatusProcessing)
	if err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	if updated.Status != domain.StatusProcessing {
		t.Fatalf("status = %s, want %s", updated.Status, domain.StatusProcessing)
	}

	// Processing cannot jump straight to Delivered
	if _, err := repo.UpdateStatus(ctx, created.ID, domain.StatusDelivered); err == nil {
		t.Fatal("expected invalid transition to be rejected")
	}

	if _, err := repo.UpdateStatus(ctx, "5f9b1c2e-0000-4000-8000-00000000dead", domain.StatusProcessing); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListByBuyerNewestFirst(t *testing.T) {
	ctx := context.Background()
	pool := testPool(ctx, t)
	defer pool.Close()

	buyer := insertUser(ctx, t, pool, "shopper@example.com")
	other := insertUser(ctx, t, pool, "other@example.com")
	repo := NewPostgres(pool, nil)

	for i, txn := range []string{"txn-1", "txn-2"} {
		in := CreateOrderInput{
			BuyerID:       buyer,
			Lines:         testLines(),
			AmountCents:   2500,
			TransactionID: txn,
		}
		if i == 1 {
			in.BuyerID = other
		}
		if _, _, err := repo.Create(ctx, in); err != nil {
			t.Fatalf("Create %s: %v", txn, err)
		}
	}

	orders, err := repo.ListByBuyer(ctx, buyer)
	if err != nil {
		t.Fatalf("ListByBuyer: %v", err)
	}
	if len(orders) != 1 || orders[0].TransactionID != "txn-1" {
		t.Fatalf("unexpected orders for buyer: %+v", orders)
	}

	all, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("List returned %d orders, want 2", len(all))
	}
}
