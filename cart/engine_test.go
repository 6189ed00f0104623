package cart

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mithai/memstore"
	"mithai/models"
)

func seedItem(t *testing.T, st *memstore.MemStore, id, name string, price float64) {
	t.Helper()
	err := st.InsertItem(context.Background(), models.Item{
		ItemID:    id,
		Name:      name,
		Price:     price,
		CreatedAt: time.Now(),
	})
	require.NoError(t, err)
}

func TestAddOrIncrement(t *testing.T) {
	st := memstore.New()
	seedItem(t, st, "barfi", "Kaju Barfi", 12.50)
	eng := NewEngine(st)
	owner := models.AccountOwner("cust-1")
	ctx := context.Background()

	qty, err := eng.AddOrIncrement(ctx, owner, "barfi")
	require.NoError(t, err)
	assert.Equal(t, 1, qty)

	qty, err = eng.AddOrIncrement(ctx, owner, "barfi")
	require.NoError(t, err)
	assert.Equal(t, 2, qty)

	entries, err := eng.List(ctx, owner)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, 2, entries[0].Quantity)
}

func TestAddUnknownItemRejected(t *testing.T) {
	st := memstore.New()
	eng := NewEngine(st)
	ctx := context.Background()

	_, err := eng.AddOrIncrement(ctx, models.AccountOwner("cust-1"), "no-such-item")
	assert.ErrorIs(t, err, models.ErrNotFound)

	entries, err := eng.List(ctx, models.AccountOwner("cust-1"))
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestAddValidation(t *testing.T) {
	st := memstore.New()
	seedItem(t, st, "barfi", "Kaju Barfi", 12.50)
	eng := NewEngine(st)
	ctx := context.Background()

	_, err := eng.AddOrIncrement(ctx, models.OwnerKey{}, "barfi")
	assert.True(t, models.IsValidation(err))

	_, err = eng.AddOrIncrement(ctx, models.OwnerKey{Kind: "ghost", ID: "x"}, "barfi")
	assert.True(t, models.IsValidation(err))

	_, err = eng.AddOrIncrement(ctx, models.AccountOwner("cust-1"), "")
	assert.True(t, models.IsValidation(err))
}

func TestDecrementDeletesAtOne(t *testing.T) {
	st := memstore.New()
	seedItem(t, st, "ladoo", "Motichoor Ladoo", 8.00)
	eng := NewEngine(st)
	owner := models.AccountOwner("cust-1")
	ctx := context.Background()

	_, err := eng.AddOrIncrement(ctx, owner, "ladoo")
	require.NoError(t, err)
	_, err = eng.AddOrIncrement(ctx, owner, "ladoo")
	require.NoError(t, err)

	qty, err := eng.Decrement(ctx, owner, "ladoo")
	require.NoError(t, err)
	assert.Equal(t, 1, qty)

	qty, err = eng.Decrement(ctx, owner, "ladoo")
	require.NoError(t, err)
	assert.Equal(t, 0, qty)

	entries, err := eng.List(ctx, owner)
	require.NoError(t, err)
	assert.Empty(t, entries, "line at quantity 1 is deleted, not stored at zero")

	_, err = eng.Decrement(ctx, owner, "ladoo")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestRemoveIsIdempotent(t *testing.T) {
	st := memstore.New()
	seedItem(t, st, "jalebi", "Jalebi", 5.00)
	eng := NewEngine(st)
	owner := models.AccountOwner("cust-1")
	ctx := context.Background()

	_, err := eng.AddOrIncrement(ctx, owner, "jalebi")
	require.NoError(t, err)

	require.NoError(t, eng.Remove(ctx, owner, "jalebi"))
	require.NoError(t, eng.Remove(ctx, owner, "jalebi"), "removing an absent line is a no-op")

	entries, err := eng.List(ctx, owner)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestConcurrentAddsLandExactly(t *testing.T) {
	st := memstore.New()
	seedItem(t, st, "peda", "Kesar Peda", 6.00)
	eng := NewEngine(st)
	owner := models.AccountOwner("cust-1")
	ctx := context.Background()

	const workers = 32
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := eng.AddOrIncrement(ctx, owner, "peda")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	entries, err := eng.List(ctx, owner)
	require.NoError(t, err)
	require.Len(t, entries, 1, "concurrent adds must not split into duplicate lines")
	assert.Equal(t, workers, entries[0].Quantity)
}

func TestOwnersAreIsolated(t *testing.T) {
	st := memstore.New()
	seedItem(t, st, "barfi", "Kaju Barfi", 12.50)
	eng := NewEngine(st)
	ctx := context.Background()

	// same id under both kinds stays two distinct carts
	acct := models.AccountOwner("shared-id")
	virt := models.VirtualOwner("shared-id")

	_, err := eng.AddOrIncrement(ctx, acct, "barfi")
	require.NoError(t, err)
	_, err = eng.AddOrIncrement(ctx, virt, "barfi")
	require.NoError(t, err)
	_, err = eng.AddOrIncrement(ctx, virt, "barfi")
	require.NoError(t, err)

	acctEntries, err := eng.List(ctx, acct)
	require.NoError(t, err)
	require.Len(t, acctEntries, 1)
	assert.Equal(t, 1, acctEntries[0].Quantity)

	virtEntries, err := eng.List(ctx, virt)
	require.NoError(t, err)
	require.Len(t, virtEntries, 1)
	assert.Equal(t, 2, virtEntries[0].Quantity)
}

func TestListJoinsAndFlagsMissing(t *testing.T) {
	st := memstore.New()
	seedItem(t, st, "barfi", "Kaju Barfi", 12.50)
	seedItem(t, st, "ladoo", "Motichoor Ladoo", 8.00)
	eng := NewEngine(st)
	owner := models.AccountOwner("cust-1")
	ctx := context.Background()

	_, err := eng.AddOrIncrement(ctx, owner, "barfi")
	require.NoError(t, err)
	_, err = eng.AddOrIncrement(ctx, owner, "ladoo")
	require.NoError(t, err)

	require.NoError(t, st.DeleteItem(ctx, "ladoo"))

	entries, err := eng.List(ctx, owner)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, "Kaju Barfi", entries[0].Name)
	assert.Equal(t, 12.50, entries[0].Price)
	assert.False(t, entries[0].Missing)

	assert.Equal(t, "ladoo", entries[1].ItemID)
	assert.True(t, entries[1].Missing, "deleted catalog item surfaces as missing")
	assert.Empty(t, entries[1].Name)
}
