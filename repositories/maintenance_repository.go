package repositories

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/HSouheill/taskreward_backend/models"
)

const carryForwardDescription = "Balance carried forward"

// Sweep deletes old submissions, settled withdraw requests and old history entries. Swept
// history amounts are added to a single carry-forward entry per user in the same transaction,
// so a user's balance still equals the sum of their history afterwards.
func (s *MongoStore) Sweep(ctx context.Context, cutoff time.Time, batch int) (models.SweepResult, error) {
	var result models.SweepResult
	old := bson.M{"$lt": cutoff}

	n, err := s.deleteBatch(ctx, submissionsCollection, bson.M{"timestamp": old}, batch)
	if err != nil {
		return result, err
	}
	result.Submissions = n

	n, err = s.deleteBatch(ctx, withdrawalsCollection, bson.M{
		"timestamp": old,
		"status":    bson.M{"$in": []models.WithdrawStatus{models.WithdrawPaid, models.WithdrawRejected}},
	}, batch)
	if err != nil {
		return result, err
	}
	result.Withdrawals = n

	err = s.withTransaction(ctx, func(sc mongo.SessionContext) error {
		result.History, result.CarryForwards = 0, 0

		opts := options.Find().SetLimit(int64(batch)).SetProjection(bson.M{"uid": 1, "amount": 1})
		cursor, err := s.collection(historyCollection).Find(sc, bson.M{
			"timestamp": old,
			"type":      bson.M{"$nin": []string{models.HistoryWithdrawHold, models.HistoryCarryForward}},
		}, opts)
		if err != nil {
			return fmt.Errorf("find old history: %w", err)
		}
		var entries []models.BalanceHistoryEntry
		if err := cursor.All(sc, &entries); err != nil {
			return fmt.Errorf("decode old history: %w", err)
		}
		if len(entries) == 0 {
			return nil
		}

		ids := make([]primitive.ObjectID, 0, len(entries))
		sums := make(map[string]float64)
		for _, e := range entries {
			ids = append(ids, e.ID)
			sums[e.UID] += e.Amount
		}

		res, err := s.collection(historyCollection).DeleteMany(sc, bson.M{"_id": bson.M{"$in": ids}})
		if err != nil {
			return fmt.Errorf("delete old history: %w", err)
		}
		result.History = int(res.DeletedCount)

		now := time.Now()
		for uid, sum := range sums {
			_, err := s.collection(historyCollection).UpdateOne(sc,
				bson.M{"uid": uid, "type": models.HistoryCarryForward},
				bson.M{
					"$inc":         bson.M{"amount": sum},
					"$set":         bson.M{"timestamp": now},
					"$setOnInsert": bson.M{"description": carryForwardDescription},
				},
				options.Update().SetUpsert(true),
			)
			if err != nil {
				return fmt.Errorf("carry forward %s: %w", uid, err)
			}
			result.CarryForwards++
		}
		return nil
	})
	return result, err
}

func (s *MongoStore) deleteBatch(ctx context.Context, coll string, filter bson.M, batch int) (int, error) {
	opts := options.Find().SetLimit(int64(batch)).SetProjection(bson.M{"_id": 1})
	cursor, err := s.collection(coll).Find(ctx, filter, opts)
	if err != nil {
		return 0, fmt.Errorf("find old %s: %w", coll, err)
	}
	var docs []struct {
		ID primitive.ObjectID `bson:"_id"`
	}
	if err := cursor.All(ctx, &docs); err != nil {
		return 0, fmt.Errorf("decode old %s: %w", coll, err)
	}
	if len(docs) == 0 {
		return 0, nil
	}
	ids := make([]primitive.ObjectID, len(docs))
	for i, d := range docs {
		ids[i] = d.ID
	}
	res, err := s.collection(coll).DeleteMany(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return 0, fmt.Errorf("delete old %s: %w", coll, err)
	}
	return int(res.DeletedCount), nil
}
