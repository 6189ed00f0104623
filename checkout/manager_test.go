package checkout

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mithai/memstore"
	"mithai/models"
)

func seedStore(t *testing.T) *memstore.MemStore {
	t.Helper()
	st := memstore.New()
	ctx := context.Background()
	items := []models.Item{
		{ItemID: "barfi", Name: "Kaju Barfi", Price: 10.00, CreatedAt: time.Now()},
		{ItemID: "ladoo", Name: "Motichoor Ladoo", Price: 5.00, CreatedAt: time.Now()},
	}
	for _, it := range items {
		require.NoError(t, st.InsertItem(ctx, it))
	}
	return st
}

func fillCart(t *testing.T, st *memstore.MemStore, owner models.OwnerKey) {
	t.Helper()
	ctx := context.Background()
	// barfi x2, ladoo x1
	for i := 0; i < 2; i++ {
		_, err := st.UpsertLine(ctx, owner, "barfi")
		require.NoError(t, err)
	}
	_, err := st.UpsertLine(ctx, owner, "ladoo")
	require.NoError(t, err)
}

func TestCheckoutDrainsCart(t *testing.T) {
	st := seedStore(t)
	owner := models.AccountOwner("cust-1")
	fillCart(t, st, owner)
	mgr := NewManager(st)
	ctx := context.Background()

	res, err := mgr.Checkout(ctx, owner, "")
	require.NoError(t, err)
	assert.False(t, res.Empty)
	require.Len(t, res.Lines, 2)

	byItem := map[string]models.OrderLine{}
	for _, ln := range res.Lines {
		byItem[ln.ItemID] = ln
		assert.NotEmpty(t, ln.OrderID)
		assert.Equal(t, owner, ln.Owner)
		assert.Empty(t, ln.AgentID)
	}
	assert.Equal(t, 2, byItem["barfi"].Quantity)
	assert.Equal(t, 10.00, byItem["barfi"].UnitPrice)
	assert.Equal(t, "Kaju Barfi", byItem["barfi"].ItemName)
	assert.Equal(t, 1, byItem["ladoo"].Quantity)
	assert.Equal(t, 5.00, byItem["ladoo"].UnitPrice)

	lines, err := st.CartLines(ctx, owner)
	require.NoError(t, err)
	assert.Empty(t, lines, "checkout empties the cart")

	persisted, err := st.OrderLines(ctx, owner)
	require.NoError(t, err)
	assert.Len(t, persisted, 2)
}

func TestCheckoutEmptyCart(t *testing.T) {
	st := seedStore(t)
	mgr := NewManager(st)

	res, err := mgr.Checkout(context.Background(), models.AccountOwner("cust-1"), "")
	require.NoError(t, err)
	assert.True(t, res.Empty)
	assert.Empty(t, res.Lines)
}

func TestCheckoutPriceSnapshotSurvivesCatalogChange(t *testing.T) {
	st := seedStore(t)
	owner := models.AccountOwner("cust-1")
	fillCart(t, st, owner)
	mgr := NewManager(st)
	ctx := context.Background()

	_, err := mgr.Checkout(ctx, owner, "")
	require.NoError(t, err)

	// reprice the item after checkout; the order line keeps its snapshot
	require.NoError(t, st.DeleteItem(ctx, "barfi"))
	require.NoError(t, st.InsertItem(ctx, models.Item{ItemID: "barfi", Name: "Kaju Barfi", Price: 99.00}))

	persisted, err := st.OrderLines(ctx, owner)
	require.NoError(t, err)
	for _, ln := range persisted {
		if ln.ItemID == "barfi" {
			assert.Equal(t, 10.00, ln.UnitPrice)
		}
	}
}

func TestCheckoutRollsBackOnInsertFailure(t *testing.T) {
	st := seedStore(t)
	owner := models.AccountOwner("cust-1")
	fillCart(t, st, owner)
	mgr := NewManager(st)
	ctx := context.Background()

	boom := errors.New("write failed")
	st.FailNext("tx.InsertOrderLines", boom)

	_, err := mgr.Checkout(ctx, owner, "")
	require.ErrorIs(t, err, boom)

	lines, err := st.CartLines(ctx, owner)
	require.NoError(t, err)
	assert.Len(t, lines, 2, "cart untouched after failed checkout")

	persisted, err := st.OrderLines(ctx, owner)
	require.NoError(t, err)
	assert.Empty(t, persisted, "no partial order lines after failed checkout")
}

func TestCheckoutRollsBackOnClearFailure(t *testing.T) {
	st := seedStore(t)
	owner := models.AccountOwner("cust-1")
	fillCart(t, st, owner)
	mgr := NewManager(st)
	ctx := context.Background()

	boom := errors.New("clear failed")
	st.FailNext("tx.ClearCart", boom)

	_, err := mgr.Checkout(ctx, owner, "")
	require.ErrorIs(t, err, boom)

	lines, err := st.CartLines(ctx, owner)
	require.NoError(t, err)
	assert.Len(t, lines, 2)

	persisted, err := st.OrderLines(ctx, owner)
	require.NoError(t, err)
	assert.Empty(t, persisted, "order lines rolled back when the drain cannot complete")
}

func TestCheckoutRejectsDeletedItem(t *testing.T) {
	st := seedStore(t)
	owner := models.AccountOwner("cust-1")
	fillCart(t, st, owner)
	mgr := NewManager(st)
	ctx := context.Background()

	require.NoError(t, st.DeleteItem(ctx, "ladoo"))

	_, err := mgr.Checkout(ctx, owner, "")
	require.ErrorIs(t, err, models.ErrNotFound)

	lines, err := st.CartLines(ctx, owner)
	require.NoError(t, err)
	assert.Len(t, lines, 2, "nothing drained while a stale line remains")

	persisted, err := st.OrderLines(ctx, owner)
	require.NoError(t, err)
	assert.Empty(t, persisted)
}

func TestAgentCheckoutRecordsAgent(t *testing.T) {
	st := seedStore(t)
	owner := models.VirtualOwner("vc-1")
	fillCart(t, st, owner)
	mgr := NewManager(st)

	res, err := mgr.Checkout(context.Background(), owner, "agent-7")
	require.NoError(t, err)
	require.NotEmpty(t, res.Lines)
	for _, ln := range res.Lines {
		assert.Equal(t, "agent-7", ln.AgentID)
		assert.Equal(t, owner, ln.Owner)
	}
}

func TestCheckoutLeavesOtherOwnersAlone(t *testing.T) {
	st := seedStore(t)
	a := models.AccountOwner("cust-a")
	b := models.AccountOwner("cust-b")
	fillCart(t, st, a)
	fillCart(t, st, b)
	mgr := NewManager(st)
	ctx := context.Background()

	_, err := mgr.Checkout(ctx, a, "")
	require.NoError(t, err)

	bLines, err := st.CartLines(ctx, b)
	require.NoError(t, err)
	assert.Len(t, bLines, 2, "draining one cart must not touch another owner's")

	bOrders, err := st.OrderLines(ctx, b)
	require.NoError(t, err)
	assert.Empty(t, bOrders)
}

func TestCheckoutValidation(t *testing.T) {
	mgr := NewManager(seedStore(t))
	_, err := mgr.Checkout(context.Background(), models.OwnerKey{}, "")
	assert.True(t, models.IsValidation(err))
}
