package domain

import "time"

// User represents a registered storefront account. Sign-up, sign-in and
// profile CRUD live in a separate auth service; this backend only reads
// users and appends to their purchase history.
type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

// PurchaseHistoryEntry is an append-only record of one purchased line
// item. Entries are never mutated or removed once written.
type PurchaseHistoryEntry struct {
	ProductID     string    `json:"productId"`
	Name          string    `json:"name"`
	Description   string    `json:"description,omitempty"`
	Count         int       `json:"count"`
	TransactionID string    `json:"transactionId"`
	AmountCents   int64     `json:"amountCents"`
	CreatedAt     time.Time `json:"createdAt"`
}
