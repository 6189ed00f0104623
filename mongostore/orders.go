package mongostore

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"mithai/models"
)

func (s *MongoStore) OrderLines(ctx context.Context, owner models.OwnerKey) ([]models.OrderLine, error) {
	return s.findOrders(ctx, ownerFilter(owner))
}

func (s *MongoStore) AllOrderLines(ctx context.Context) ([]models.OrderLine, error) {
	return s.findOrders(ctx, bson.M{})
}

func (s *MongoStore) findOrders(ctx context.Context, filter bson.M) ([]models.OrderLine, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := s.orders.Find(ctx, filter, opts)
	if err != nil {
		return nil, storeErr("orders find", err)
	}
	defer cursor.Close(ctx)

	var out []models.OrderLine
	if err := cursor.All(ctx, &out); err != nil {
		return nil, storeErr("orders read", err)
	}
	return out, nil
}
