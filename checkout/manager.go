// Package checkout converts a cart into persisted order lines. The
// drain is the one genuinely dangerous operation in the system, so it
// runs inside a single store transaction: all order lines land and the
// cart empties, or nothing happens at all.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"mithai/models"
	"mithai/store"
)

type Manager struct {
	store store.Store
}

func NewManager(st store.Store) *Manager {
	return &Manager{store: st}
}

// Result distinguishes a completed checkout from the empty-cart
// outcome, which is a normal business result rather than an error.
type Result struct {
	Empty bool
	Lines []models.OrderLine
}

// Checkout drains the owner's cart. agentID is empty for
// self-checkout and the acting agent's id otherwise. A cart line whose
// item has been deleted from the catalog fails the whole checkout with
// ErrNotFound; nothing is drained until the stale line is removed.
func (m *Manager) Checkout(ctx context.Context, owner models.OwnerKey, agentID string) (*Result, error) {
	if owner.ID == "" {
		return nil, models.Invalid("owner", "missing owner identifier")
	}

	var out []models.OrderLine
	err := m.store.RunTx(ctx, func(ctx context.Context, tx store.Tx) error {
		lines, err := tx.CartLines(ctx, owner)
		if err != nil {
			return err
		}
		if len(lines) == 0 {
			return models.ErrEmptyCart
		}

		now := time.Now()
		out = make([]models.OrderLine, 0, len(lines))
		for _, ln := range lines {
			item, err := tx.Item(ctx, ln.ItemID)
			if err != nil {
				return fmt.Errorf("item %s: %w", ln.ItemID, err)
			}
			out = append(out, models.OrderLine{
				OrderID:   uuid.NewString(),
				Owner:     owner,
				ItemID:    item.ItemID,
				ItemName:  item.Name,
				Quantity:  ln.Quantity,
				UnitPrice: item.Price, // snapshot, not a reference
				AgentID:   agentID,
				CreatedAt: now,
			})
		}

		if err := tx.InsertOrderLines(ctx, out); err != nil {
			return err
		}
		return tx.ClearCart(ctx, owner)
	})

	if errors.Is(err, models.ErrEmptyCart) {
		return &Result{Empty: true}, nil
	}
	if err != nil {
		return nil, err
	}
	return &Result{Lines: out}, nil
}
