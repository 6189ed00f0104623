// Package cart implements the shared cart engine behind both the
// customer cart and the agent-managed cart. The two differ only in
// their owner key; every operation below works the same for either.
package cart

import (
	"context"
	"errors"

	"mithai/models"
	"mithai/store"
)

type Engine struct {
	store store.Store
}

func NewEngine(st store.Store) *Engine {
	return &Engine{store: st}
}

func validateKey(owner models.OwnerKey, itemID string) error {
	if owner.ID == "" {
		return models.Invalid("owner", "missing owner identifier")
	}
	if owner.Kind != models.OwnerAccount && owner.Kind != models.OwnerVirtual {
		return models.Invalid("owner", "unknown owner kind")
	}
	if itemID == "" {
		return models.Invalid("itemId", "missing item identifier")
	}
	return nil
}

// AddOrIncrement bumps the (owner, item) line by one, creating it at
// quantity 1 when absent. The item must exist in the catalog; unknown
// ids never enter a cart. The store serializes concurrent calls on the
// same key, so N calls always land a final quantity of N.
func (e *Engine) AddOrIncrement(ctx context.Context, owner models.OwnerKey, itemID string) (int, error) {
	if err := validateKey(owner, itemID); err != nil {
		return 0, err
	}
	if _, err := e.store.Item(ctx, itemID); err != nil {
		return 0, err
	}
	return e.store.UpsertLine(ctx, owner, itemID)
}

// Increment is the cart-detail-view alias of AddOrIncrement.
func (e *Engine) Increment(ctx context.Context, owner models.OwnerKey, itemID string) (int, error) {
	return e.AddOrIncrement(ctx, owner, itemID)
}

// Decrement lowers the line by one; at quantity 1 the line is deleted
// rather than stored at zero. Returns the remaining quantity and
// models.ErrNotFound when no line exists.
func (e *Engine) Decrement(ctx context.Context, owner models.OwnerKey, itemID string) (int, error) {
	if err := validateKey(owner, itemID); err != nil {
		return 0, err
	}
	return e.store.DecrementLine(ctx, owner, itemID)
}

// Remove deletes the line outright. Removing an absent line is a
// no-op, not an error.
func (e *Engine) Remove(ctx context.Context, owner models.OwnerKey, itemID string) error {
	if err := validateKey(owner, itemID); err != nil {
		return err
	}
	return e.store.RemoveLine(ctx, owner, itemID)
}

// List returns the owner's cart joined with item details, in insertion
// order. Lines whose item has been deleted from the catalog come back
// flagged Missing so the view can prompt for their removal.
func (e *Engine) List(ctx context.Context, owner models.OwnerKey) ([]models.CartEntry, error) {
	if owner.ID == "" {
		return nil, models.Invalid("owner", "missing owner identifier")
	}
	lines, err := e.store.CartLines(ctx, owner)
	if err != nil {
		return nil, err
	}

	entries := make([]models.CartEntry, 0, len(lines))
	for _, ln := range lines {
		entry := models.CartEntry{
			ItemID:   ln.ItemID,
			Quantity: ln.Quantity,
			AddedAt:  ln.AddedAt,
		}
		item, err := e.store.Item(ctx, ln.ItemID)
		switch {
		case err == nil:
			entry.Name = item.Name
			entry.Price = item.Price
			entry.ImageURL = item.ImageURL
		case errors.Is(err, models.ErrNotFound):
			entry.Missing = true
		default:
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, nil
}
