// Package mongostore is the production store.Store backed by MongoDB.
// Cart mutations are single conditional updates so the database
// serializes concurrent calls on the same (owner, item) key, and
// checkout runs inside a session transaction.
package mongostore

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"mithai/models"
)

type MongoStore struct {
	client   *mongo.Client
	items    *mongo.Collection
	accounts *mongo.Collection
	virtuals *mongo.Collection
	cart     *mongo.Collection
	orders   *mongo.Collection
}

func New(client *mongo.Client, dbName string) *MongoStore {
	db := client.Database(dbName)
	return &MongoStore{
		client:   client,
		items:    db.Collection("items"),
		accounts: db.Collection("accounts"),
		virtuals: db.Collection("virtualcustomers"),
		cart:     db.Collection("cartlines"),
		orders:   db.Collection("orderlines"),
	}
}

// EnsureIndexes creates the unique indexes the cart and identity
// contracts rely on. The unique cart key is what turns a concurrent
// double-insert race into a retryable duplicate-key error.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	unique := options.Index().SetUnique(true)

	_, err := s.cart.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{
			{Key: "owner.kind", Value: 1},
			{Key: "owner.id", Value: 1},
			{Key: "itemId", Value: 1},
		},
		Options: unique,
	})
	if err != nil {
		return fmt.Errorf("cart index: %w", err)
	}

	if _, err := s.items.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "itemId", Value: 1}}, Options: unique,
	}); err != nil {
		return fmt.Errorf("items index: %w", err)
	}

	if _, err := s.accounts.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "phone", Value: 1}}, Options: unique,
	}); err != nil {
		return fmt.Errorf("accounts index: %w", err)
	}

	_, err = s.orders.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{
			{Key: "owner.kind", Value: 1},
			{Key: "owner.id", Value: 1},
			{Key: "createdAt", Value: -1},
		},
	})
	if err != nil {
		return fmt.Errorf("orders index: %w", err)
	}
	return nil
}

func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// storeErr maps driver errors onto the shared taxonomy.
func storeErr(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return models.ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return models.ErrConflict
	default:
		return fmt.Errorf("%s: %w: %v", op, models.ErrTransientStore, err)
	}
}
