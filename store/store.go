// Package store declares the persistence contract the engines and
// handlers are built against. Implementations live in mongostore
// (production) and memstore (tests, local dev). Nothing in this module
// reaches for a global database handle; a Store is injected instead.
package store

import (
	"context"

	"mithai/models"
)

// CartStore holds the per-(owner, item) quantity rows for both cart
// flavors. Every mutation is one atomic unit against the backend:
// UpsertLine must serialize concurrent calls on the same key (a
// conditional insert-or-increment, not read-then-write).
type CartStore interface {
	// UpsertLine increments the (owner, item) line by one, creating it
	// with quantity 1 when absent. Returns the resulting quantity.
	UpsertLine(ctx context.Context, owner models.OwnerKey, itemID string) (int, error)

	// DecrementLine decrements by one, deleting the line when its
	// quantity would reach zero. Returns the remaining quantity (0 when
	// the line was deleted) or models.ErrNotFound when no line exists.
	DecrementLine(ctx context.Context, owner models.OwnerKey, itemID string) (int, error)

	// RemoveLine deletes the line if present. Idempotent.
	RemoveLine(ctx context.Context, owner models.OwnerKey, itemID string) error

	// CartLines returns the owner's lines in insertion order.
	CartLines(ctx context.Context, owner models.OwnerKey) ([]models.CartLine, error)
}

// CatalogStore holds sellable items.
type CatalogStore interface {
	InsertItem(ctx context.Context, item models.Item) error
	Item(ctx context.Context, itemID string) (models.Item, error)
	Items(ctx context.Context) ([]models.Item, error)
	DeleteItem(ctx context.Context, itemID string) error
}

// IdentityStore holds accounts and the virtual customers agents manage.
type IdentityStore interface {
	// InsertAccount fails with models.ErrConflict when the phone number
	// is already registered.
	InsertAccount(ctx context.Context, acct models.Account) error
	Account(ctx context.Context, accountID string) (models.Account, error)
	AccountByPhone(ctx context.Context, phone string) (models.Account, error)
	TouchLastLogin(ctx context.Context, accountID string) error

	InsertVirtualCustomer(ctx context.Context, vc models.VirtualCustomer) error
	VirtualCustomer(ctx context.Context, customerID string) (models.VirtualCustomer, error)
	VirtualCustomers(ctx context.Context, agentID string) ([]models.VirtualCustomer, error)
}

// OrderStore reads order lines, newest first. Order lines are only
// ever written inside a checkout transaction (see Tx).
type OrderStore interface {
	OrderLines(ctx context.Context, owner models.OwnerKey) ([]models.OrderLine, error)
	AllOrderLines(ctx context.Context) ([]models.OrderLine, error)
}

// Tx is the store as seen from inside a checkout transaction. All
// reads and writes through it commit or roll back as one unit.
type Tx interface {
	CartLines(ctx context.Context, owner models.OwnerKey) ([]models.CartLine, error)
	Item(ctx context.Context, itemID string) (models.Item, error)
	InsertOrderLines(ctx context.Context, lines []models.OrderLine) error
	ClearCart(ctx context.Context, owner models.OwnerKey) error
}

// Store is the full persistence surface handed to the application.
type Store interface {
	CartStore
	CatalogStore
	IdentityStore
	OrderStore

	// RunTx runs fn inside one transaction. If fn returns an error the
	// transaction rolls back and RunTx returns that error unchanged.
	// The transaction spans only the rows fn touches; unrelated owners
	// are not blocked.
	RunTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error

	Close(ctx context.Context) error
}
