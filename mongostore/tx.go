package mongostore

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo"

	"mithai/models"
	"mithai/store"
)

// mongoTx reuses the collection helpers; the session context passed
// into each call scopes them to the enclosing transaction.
type mongoTx struct {
	s *MongoStore
}

func (t mongoTx) CartLines(ctx context.Context, owner models.OwnerKey) ([]models.CartLine, error) {
	return t.s.cartLines(ctx, owner)
}

func (t mongoTx) Item(ctx context.Context, itemID string) (models.Item, error) {
	return t.s.item(ctx, itemID)
}

func (t mongoTx) InsertOrderLines(ctx context.Context, lines []models.OrderLine) error {
	docs := make([]interface{}, 0, len(lines))
	for _, ln := range lines {
		docs = append(docs, ln)
	}
	if _, err := t.s.orders.InsertMany(ctx, docs); err != nil {
		return storeErr("orders insert", err)
	}
	return nil
}

func (t mongoTx) ClearCart(ctx context.Context, owner models.OwnerKey) error {
	if _, err := t.s.cart.DeleteMany(ctx, ownerFilter(owner)); err != nil {
		return storeErr("cart clear", err)
	}
	return nil
}

// RunTx wraps fn in a causally-consistent session transaction. Any
// error out of fn aborts the transaction; the driver retries transient
// commit errors itself.
func (s *MongoStore) RunTx(ctx context.Context, fn func(ctx context.Context, tx store.Tx) error) error {
	sess, err := s.client.StartSession()
	if err != nil {
		return storeErr("session", err)
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc, mongoTx{s})
	})
	return err
}

var _ store.Store = (*MongoStore)(nil)
