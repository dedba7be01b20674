package repositories

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/HSouheill/taskreward_backend/models"
)

func (s *MongoStore) GetUser(ctx context.Context, uid string) (*models.User, error) {
	var user models.User
	err := s.collection(usersCollection).FindOne(ctx, bson.M{"_id": uid}).Decode(&user)
	if err != nil {
		if isNoDocuments(err) {
			return nil, models.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return &user, nil
}

func (s *MongoStore) ListUsers(ctx context.Context, page, perPage int) ([]models.User, bool, error) {
	if page < 1 {
		page = 1
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: 1}}).
		SetSkip(int64((page - 1) * perPage)).
		SetLimit(int64(perPage + 1))

	cursor, err := s.collection(usersCollection).Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, false, fmt.Errorf("list users: %w", err)
	}
	var users []models.User
	if err := cursor.All(ctx, &users); err != nil {
		return nil, false, fmt.Errorf("decode users: %w", err)
	}

	hasNext := len(users) > perPage
	if hasNext {
		users = users[:perPage]
	}
	return users, hasNext, nil
}

func (s *MongoStore) ListReferrals(ctx context.Context, uid string) ([]models.User, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: 1}})
	cursor, err := s.collection(usersCollection).Find(ctx, bson.M{"referred_by": uid}, opts)
	if err != nil {
		return nil, fmt.Errorf("list referrals: %w", err)
	}
	var users []models.User
	if err := cursor.All(ctx, &users); err != nil {
		return nil, fmt.Errorf("decode referrals: %w", err)
	}
	return users, nil
}

func (s *MongoStore) SetBanned(ctx context.Context, uid string, banned bool) error {
	res, err := s.collection(usersCollection).UpdateOne(ctx,
		bson.M{"_id": uid},
		bson.M{"$set": bson.M{"is_banned": banned}},
	)
	if err != nil {
		return fmt.Errorf("update ban flag: %w", err)
	}
	if res.MatchedCount == 0 {
		return models.ErrUserNotFound
	}
	return nil
}

func (s *MongoStore) DeleteUser(ctx context.Context, uid string) error {
	res, err := s.collection(usersCollection).DeleteOne(ctx, bson.M{"_id": uid})
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if res.DeletedCount == 0 {
		return models.ErrUserNotFound
	}
	return nil
}

func (s *MongoStore) SaveKYC(ctx context.Context, uid, phone string, kyc models.KYC) error {
	res, err := s.collection(usersCollection).UpdateOne(ctx,
		bson.M{"_id": uid},
		bson.M{"$set": bson.M{
			"kyc_submitted": true,
			"phone":         phone,
			"kyc_data":      kyc,
		}},
	)
	if err != nil {
		return fmt.Errorf("save kyc: %w", err)
	}
	if res.MatchedCount == 0 {
		return models.ErrUserNotFound
	}
	return nil
}
