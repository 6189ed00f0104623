package mongostore

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"mithai/models"
)

func (s *MongoStore) InsertAccount(ctx context.Context, acct models.Account) error {
	// The unique phone index reports a duplicate as ErrConflict.
	if _, err := s.accounts.InsertOne(ctx, acct); err != nil {
		return storeErr("account insert", err)
	}
	return nil
}

func (s *MongoStore) Account(ctx context.Context, accountID string) (models.Account, error) {
	var acct models.Account
	err := s.accounts.FindOne(ctx, bson.M{"accountId": accountID}).Decode(&acct)
	if err != nil {
		return models.Account{}, storeErr("account find", err)
	}
	return acct, nil
}

func (s *MongoStore) AccountByPhone(ctx context.Context, phone string) (models.Account, error) {
	var acct models.Account
	err := s.accounts.FindOne(ctx, bson.M{"phone": phone}).Decode(&acct)
	if err != nil {
		return models.Account{}, storeErr("account find", err)
	}
	return acct, nil
}

func (s *MongoStore) TouchLastLogin(ctx context.Context, accountID string) error {
	_, err := s.accounts.UpdateOne(ctx,
		bson.M{"accountId": accountID},
		bson.M{"$set": bson.M{"lastLogin": time.Now()}},
	)
	if err != nil {
		return storeErr("account update", err)
	}
	return nil
}

func (s *MongoStore) InsertVirtualCustomer(ctx context.Context, vc models.VirtualCustomer) error {
	if _, err := s.virtuals.InsertOne(ctx, vc); err != nil {
		return storeErr("virtual customer insert", err)
	}
	return nil
}

func (s *MongoStore) VirtualCustomer(ctx context.Context, customerID string) (models.VirtualCustomer, error) {
	var vc models.VirtualCustomer
	err := s.virtuals.FindOne(ctx, bson.M{"customerId": customerID}).Decode(&vc)
	if err != nil {
		return models.VirtualCustomer{}, storeErr("virtual customer find", err)
	}
	return vc, nil
}

func (s *MongoStore) VirtualCustomers(ctx context.Context, agentID string) ([]models.VirtualCustomer, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}})
	cursor, err := s.virtuals.Find(ctx, bson.M{"agentId": agentID}, opts)
	if err != nil {
		return nil, storeErr("virtual customers find", err)
	}
	defer cursor.Close(ctx)

	var out []models.VirtualCustomer
	if err := cursor.All(ctx, &out); err != nil {
		return nil, storeErr("virtual customers read", err)
	}
	return out, nil
}
