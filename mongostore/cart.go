package mongostore

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"mithai/models"
)

func lineFilter(owner models.OwnerKey, itemID string) bson.M {
	return bson.M{
		"owner.kind": owner.Kind,
		"owner.id":   owner.ID,
		"itemId":     itemID,
	}
}

func ownerFilter(owner models.OwnerKey) bson.M {
	return bson.M{
		"owner.kind": owner.Kind,
		"owner.id":   owner.ID,
	}
}

// UpsertLine is one conditional insert-or-increment. Two concurrent
// calls on a missing line can both take the insert path; the unique
// cart index turns the loser into a duplicate-key error and we retry,
// which lands on the increment path.
func (s *MongoStore) UpsertLine(ctx context.Context, owner models.OwnerKey, itemID string) (int, error) {
	update := bson.M{
		"$inc": bson.M{"quantity": 1},
		"$setOnInsert": bson.M{
			"addedAt": time.Now(),
		},
	}
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	for attempt := 0; attempt < 2; attempt++ {
		var line models.CartLine
		err := s.cart.FindOneAndUpdate(ctx, lineFilter(owner, itemID), update, opts).Decode(&line)
		if err == nil {
			return line.Quantity, nil
		}
		if mongo.IsDuplicateKeyError(err) {
			continue
		}
		return 0, storeErr("cart upsert", err)
	}
	return 0, storeErr("cart upsert", models.ErrConflict)
}

// DecrementLine decrements while quantity > 1, otherwise deletes the
// quantity-1 line. Both steps are conditional, so a concurrent
// increment between them just means another pass round the loop.
func (s *MongoStore) DecrementLine(ctx context.Context, owner models.OwnerKey, itemID string) (int, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	for attempt := 0; attempt < 3; attempt++ {
		gtOne := lineFilter(owner, itemID)
		gtOne["quantity"] = bson.M{"$gt": 1}

		var line models.CartLine
		err := s.cart.FindOneAndUpdate(ctx, gtOne, bson.M{"$inc": bson.M{"quantity": -1}}, opts).Decode(&line)
		if err == nil {
			return line.Quantity, nil
		}
		if !errors.Is(err, mongo.ErrNoDocuments) {
			return 0, storeErr("cart decrement", err)
		}

		eqOne := lineFilter(owner, itemID)
		eqOne["quantity"] = 1
		res, err := s.cart.DeleteOne(ctx, eqOne)
		if err != nil {
			return 0, storeErr("cart decrement", err)
		}
		if res.DeletedCount == 1 {
			return 0, nil
		}
		// Neither branch matched: the line is absent, or its quantity
		// moved under us. Re-check before giving up.
		n, err := s.cart.CountDocuments(ctx, lineFilter(owner, itemID))
		if err != nil {
			return 0, storeErr("cart decrement", err)
		}
		if n == 0 {
			return 0, models.ErrNotFound
		}
	}
	return 0, storeErr("cart decrement", models.ErrConflict)
}

func (s *MongoStore) RemoveLine(ctx context.Context, owner models.OwnerKey, itemID string) error {
	if _, err := s.cart.DeleteOne(ctx, lineFilter(owner, itemID)); err != nil {
		return storeErr("cart remove", err)
	}
	return nil
}

func (s *MongoStore) CartLines(ctx context.Context, owner models.OwnerKey) ([]models.CartLine, error) {
	return s.cartLines(ctx, owner)
}

func (s *MongoStore) cartLines(ctx context.Context, owner models.OwnerKey) ([]models.CartLine, error) {
	opts := options.Find().SetSort(bson.D{
		{Key: "addedAt", Value: 1},
		{Key: "itemId", Value: 1},
	})
	cursor, err := s.cart.Find(ctx, ownerFilter(owner), opts)
	if err != nil {
		return nil, storeErr("cart find", err)
	}
	defer cursor.Close(ctx)

	var lines []models.CartLine
	if err := cursor.All(ctx, &lines); err != nil {
		return nil, storeErr("cart read", err)
	}
	return lines, nil
}
