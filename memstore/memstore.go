// Package memstore is an in-process store.Store used by the test suite
// and by local development (MITHAI_STORE=memory). A single mutex
// serializes every operation, which trivially satisfies the
// per-(owner,item) serialization the cart contract demands.
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"mithai/models"
	"mithai/store"
)

func now() time.Time { return time.Now() }

type lineKey struct {
	kind   models.OwnerKind
	owner  string
	itemID string
}

type memLine struct {
	models.CartLine
	seq int // insertion order for stable listing
}

type MemStore struct {
	mu       sync.Mutex
	items    map[string]models.Item
	accounts map[string]models.Account
	byPhone  map[string]string // phone -> accountID
	virtuals map[string]models.VirtualCustomer
	cart     map[lineKey]memLine
	orders   []models.OrderLine
	seq      int
	failures map[string]error // one-shot injected failures, keyed by op
}

func New() *MemStore {
	return &MemStore{
		items:    make(map[string]models.Item),
		accounts: make(map[string]models.Account),
		byPhone:  make(map[string]string),
		virtuals: make(map[string]models.VirtualCustomer),
		cart:     make(map[lineKey]memLine),
		failures: make(map[string]error),
	}
}

// FailNext makes the next call of the named operation return err.
// Operation names match the store method names. Used by tests to
// exercise rollback paths.
func (s *MemStore) FailNext(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[op] = err
}

func (s *MemStore) fail(op string) error {
	if err, ok := s.failures[op]; ok {
		delete(s.failures, op)
		return err
	}
	return nil
}

// --- CartStore ---

func (s *MemStore) UpsertLine(ctx context.Context, owner models.OwnerKey, itemID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("UpsertLine"); err != nil {
		return 0, err
	}
	k := lineKey{owner.Kind, owner.ID, itemID}
	ln, ok := s.cart[k]
	if !ok {
		s.seq++
		ln = memLine{
			CartLine: models.CartLine{Owner: owner, ItemID: itemID, Quantity: 0, AddedAt: now()},
			seq:      s.seq,
		}
	}
	ln.Quantity++
	s.cart[k] = ln
	return ln.Quantity, nil
}

func (s *MemStore) DecrementLine(ctx context.Context, owner models.OwnerKey, itemID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("DecrementLine"); err != nil {
		return 0, err
	}
	k := lineKey{owner.Kind, owner.ID, itemID}
	ln, ok := s.cart[k]
	if !ok {
		return 0, models.ErrNotFound
	}
	if ln.Quantity <= 1 {
		delete(s.cart, k)
		return 0, nil
	}
	ln.Quantity--
	s.cart[k] = ln
	return ln.Quantity, nil
}

func (s *MemStore) RemoveLine(ctx context.Context, owner models.OwnerKey, itemID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("RemoveLine"); err != nil {
		return err
	}
	delete(s.cart, lineKey{owner.Kind, owner.ID, itemID})
	return nil
}

func (s *MemStore) CartLines(ctx context.Context, owner models.OwnerKey) ([]models.CartLine, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("CartLines"); err != nil {
		return nil, err
	}
	return s.cartLinesLocked(owner), nil
}

func (s *MemStore) cartLinesLocked(owner models.OwnerKey) []models.CartLine {
	var lines []memLine
	for k, ln := range s.cart {
		if k.kind == owner.Kind && k.owner == owner.ID {
			lines = append(lines, ln)
		}
	}
	sort.Slice(lines, func(i, j int) bool { return lines[i].seq < lines[j].seq })
	out := make([]models.CartLine, 0, len(lines))
	for _, ln := range lines {
		out = append(out, ln.CartLine)
	}
	return out
}

// --- CatalogStore ---

func (s *MemStore) InsertItem(ctx context.Context, item models.Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("InsertItem"); err != nil {
		return err
	}
	if _, ok := s.items[item.ItemID]; ok {
		return models.ErrConflict
	}
	s.items[item.ItemID] = item
	return nil
}

func (s *MemStore) Item(ctx context.Context, itemID string) (models.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("Item"); err != nil {
		return models.Item{}, err
	}
	return s.itemLocked(itemID)
}

func (s *MemStore) itemLocked(itemID string) (models.Item, error) {
	item, ok := s.items[itemID]
	if !ok {
		return models.Item{}, models.ErrNotFound
	}
	return item, nil
}

func (s *MemStore) Items(ctx context.Context) ([]models.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("Items"); err != nil {
		return nil, err
	}
	out := make([]models.Item, 0, len(s.items))
	for _, it := range s.items {
		out = append(out, it)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ItemID < out[j].ItemID })
	return out, nil
}

func (s *MemStore) DeleteItem(ctx context.Context, itemID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("DeleteItem"); err != nil {
		return err
	}
	delete(s.items, itemID)
	return nil
}

// --- IdentityStore ---

func (s *MemStore) InsertAccount(ctx context.Context, acct models.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("InsertAccount"); err != nil {
		return err
	}
	if _, ok := s.byPhone[acct.Phone]; ok {
		return models.ErrConflict
	}
	s.accounts[acct.AccountID] = acct
	s.byPhone[acct.Phone] = acct.AccountID
	return nil
}

func (s *MemStore) Account(ctx context.Context, accountID string) (models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	acct, ok := s.accounts[accountID]
	if !ok {
		return models.Account{}, models.ErrNotFound
	}
	return acct, nil
}

func (s *MemStore) AccountByPhone(ctx context.Context, phone string) (models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.byPhone[phone]
	if !ok {
		return models.Account{}, models.ErrNotFound
	}
	return s.accounts[id], nil
}

func (s *MemStore) TouchLastLogin(ctx context.Context, accountID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	acct, ok := s.accounts[accountID]
	if !ok {
		return models.ErrNotFound
	}
	acct.LastLogin = now()
	s.accounts[accountID] = acct
	return nil
}

func (s *MemStore) InsertVirtualCustomer(ctx context.Context, vc models.VirtualCustomer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("InsertVirtualCustomer"); err != nil {
		return err
	}
	s.virtuals[vc.CustomerID] = vc
	return nil
}

func (s *MemStore) VirtualCustomer(ctx context.Context, customerID string) (models.VirtualCustomer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	vc, ok := s.virtuals[customerID]
	if !ok {
		return models.VirtualCustomer{}, models.ErrNotFound
	}
	return vc, nil
}

func (s *MemStore) VirtualCustomers(ctx context.Context, agentID string) ([]models.VirtualCustomer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.VirtualCustomer
	for _, vc := range s.virtuals {
		if vc.AgentID == agentID {
			out = append(out, vc)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CustomerID < out[j].CustomerID })
	return out, nil
}

// --- OrderStore ---

func (s *MemStore) OrderLines(ctx context.Context, owner models.OwnerKey) ([]models.OrderLine, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.OrderLine
	for _, ol := range s.orders {
		if ol.Owner == owner {
			out = append(out, ol)
		}
	}
	sortOrdersNewestFirst(out)
	return out, nil
}

func (s *MemStore) AllOrderLines(ctx context.Context) ([]models.OrderLine, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.OrderLine, len(s.orders))
	copy(out, s.orders)
	sortOrdersNewestFirst(out)
	return out, nil
}

func sortOrdersNewestFirst(lines []models.OrderLine) {
	sort.SliceStable(lines, func(i, j int) bool {
		return lines[i].CreatedAt.After(lines[j].CreatedAt)
	})
}

// --- transactions ---

// memTx operates on the store with the lock already held by RunTx.
type memTx struct {
	s *MemStore
}

func (t memTx) CartLines(ctx context.Context, owner models.OwnerKey) ([]models.CartLine, error) {
	if err := t.s.fail("tx.CartLines"); err != nil {
		return nil, err
	}
	return t.s.cartLinesLocked(owner), nil
}

func (t memTx) Item(ctx context.Context, itemID string) (models.Item, error) {
	if err := t.s.fail("tx.Item"); err != nil {
		return models.Item{}, err
	}
	return t.s.itemLocked(itemID)
}

func (t memTx) InsertOrderLines(ctx context.Context, lines []models.OrderLine) error {
	if err := t.s.fail("tx.InsertOrderLines"); err != nil {
		return err
	}
	t.s.orders = append(t.s.orders, lines...)
	return nil
}

func (t memTx) ClearCart(ctx context.Context, owner models.OwnerKey) error {
	if err := t.s.fail("tx.ClearCart"); err != nil {
		return err
	}
	for k := range t.s.cart {
		if k.kind == owner.Kind && k.owner == owner.ID {
			delete(t.s.cart, k)
		}
	}
	return nil
}

// RunTx holds the store lock for the duration of fn and restores the
// cart and order state when fn fails, so a failed checkout leaves no
// partial drain behind.
func (s *MemStore) RunTx(ctx context.Context, fn func(ctx context.Context, tx store.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cartBackup := make(map[lineKey]memLine, len(s.cart))
	for k, v := range s.cart {
		cartBackup[k] = v
	}
	ordersBackup := make([]models.OrderLine, len(s.orders))
	copy(ordersBackup, s.orders)

	if err := fn(ctx, memTx{s}); err != nil {
		s.cart = cartBackup
		s.orders = ordersBackup
		return err
	}
	return nil
}

func (s *MemStore) Close(ctx context.Context) error { return nil }

var _ store.Store = (*MemStore)(nil)
