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

func (s *MongoStore) ListWithdrawalsByStatus(ctx context.Context, status models.WithdrawStatus) ([]models.WithdrawRequest, error) {
	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: 1}, {Key: "_id", Value: 1}})
	cursor, err := s.collection(withdrawalsCollection).Find(ctx, bson.M{"status": status}, opts)
	if err != nil {
		return nil, fmt.Errorf("list withdrawals: %w", err)
	}
	var reqs []models.WithdrawRequest
	if err := cursor.All(ctx, &reqs); err != nil {
		return nil, fmt.Errorf("decode withdrawals: %w", err)
	}
	return reqs, nil
}

func (s *MongoStore) ListUserWithdrawals(ctx context.Context, uid string, limit int) ([]models.WithdrawRequest, error) {
	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: -1}, {Key: "_id", Value: -1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	cursor, err := s.collection(withdrawalsCollection).Find(ctx, bson.M{"uid": uid}, opts)
	if err != nil {
		return nil, fmt.Errorf("list user withdrawals: %w", err)
	}
	var reqs []models.WithdrawRequest
	if err := cursor.All(ctx, &reqs); err != nil {
		return nil, fmt.Errorf("decode withdrawals: %w", err)
	}
	return reqs, nil
}

func (s *MongoStore) CreateActivationRequest(ctx context.Context, req *models.ActivationRequest) error {
	if req.ID.IsZero() {
		req.ID = primitive.NewObjectID()
	}
	if req.Timestamp.IsZero() {
		req.Timestamp = time.Now()
	}
	req.Status = models.ActivationPending
	if _, err := s.collection(activationsCollection).InsertOne(ctx, req); err != nil {
		return fmt.Errorf("insert activation request: %w", err)
	}
	return nil
}

func (s *MongoStore) ListActivationRequestsByStatus(ctx context.Context, status models.ActivationStatus) ([]models.ActivationRequest, error) {
	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: 1}, {Key: "_id", Value: 1}})
	cursor, err := s.collection(activationsCollection).Find(ctx, bson.M{"status": status}, opts)
	if err != nil {
		return nil, fmt.Errorf("list activation requests: %w", err)
	}
	var reqs []models.ActivationRequest
	if err := cursor.All(ctx, &reqs); err != nil {
		return nil, fmt.Errorf("decode activation requests: %w", err)
	}
	return reqs, nil
}
