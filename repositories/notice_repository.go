package repositories

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/HSouheill/taskreward_backend/models"
)

func (s *MongoStore) PublishNotice(ctx context.Context, notice *models.Notice) error {
	if notice.ID.IsZero() {
		notice.ID = primitive.NewObjectID()
	}
	if notice.Date.IsZero() {
		notice.Date = time.Now()
	}
	if _, err := s.collection(noticesCollection).InsertOne(ctx, notice); err != nil {
		return fmt.Errorf("insert notice: %w", err)
	}
	return nil
}

func (s *MongoStore) ListNotices(ctx context.Context) ([]models.Notice, error) {
	opts := options.Find().SetSort(bson.D{{Key: "date", Value: -1}, {Key: "_id", Value: -1}})
	cursor, err := s.collection(noticesCollection).Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("list notices: %w", err)
	}
	var notices []models.Notice
	if err := cursor.All(ctx, &notices); err != nil {
		return nil, fmt.Errorf("decode notices: %w", err)
	}
	return notices, nil
}

func (s *MongoStore) SetSystemNotice(ctx context.Context, notice models.SystemNotice) error {
	_, err := s.collection(settingsCollection).UpdateOne(ctx,
		bson.M{"_id": systemNoticeID},
		bson.M{"$set": notice},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("update system notice: %w", err)
	}
	return nil
}

func (s *MongoStore) GetSystemNotice(ctx context.Context) (*models.SystemNotice, error) {
	var notice models.SystemNotice
	err := s.collection(settingsCollection).FindOne(ctx, bson.M{"_id": systemNoticeID}).Decode(&notice)
	if err != nil {
		if isNoDocuments(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("find system notice: %w", err)
	}
	return &notice, nil
}
