package mongostore

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"mithai/models"
)

func (s *MongoStore) InsertItem(ctx context.Context, item models.Item) error {
	if _, err := s.items.InsertOne(ctx, item); err != nil {
		return storeErr("item insert", err)
	}
	return nil
}

func (s *MongoStore) Item(ctx context.Context, itemID string) (models.Item, error) {
	return s.item(ctx, itemID)
}

func (s *MongoStore) item(ctx context.Context, itemID string) (models.Item, error) {
	var item models.Item
	err := s.items.FindOne(ctx, bson.M{"itemId": itemID}).Decode(&item)
	if err != nil {
		return models.Item{}, storeErr("item find", err)
	}
	return item, nil
}

func (s *MongoStore) Items(ctx context.Context) ([]models.Item, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}})
	cursor, err := s.items.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, storeErr("items find", err)
	}
	defer cursor.Close(ctx)

	var items []models.Item
	if err := cursor.All(ctx, &items); err != nil {
		return nil, storeErr("items read", err)
	}
	return items, nil
}

func (s *MongoStore) DeleteItem(ctx context.Context, itemID string) error {
	if _, err := s.items.DeleteOne(ctx, bson.M{"itemId": itemID}); err != nil {
		return storeErr("item delete", err)
	}
	return nil
}
