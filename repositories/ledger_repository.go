package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/HSouheill/taskreward_backend/models"
)

const deletedTaskTitle = "Deleted Task"

func (s *MongoStore) CreateUser(ctx context.Context, user *models.User, grant *models.ReferralGrant) (bool, error) {
	var granted bool
	now := time.Now()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}

	err := s.withTransaction(ctx, func(sc mongo.SessionContext) error {
		granted = false
		doc := *user

		if grant != nil && grant.ReferrerID != "" && grant.ReferrerID != user.ID {
			res, err := s.collection(usersCollection).UpdateOne(sc,
				bson.M{"_id": grant.ReferrerID},
				bson.M{"$inc": bson.M{"balance": grant.ReferralBonus, "referral_count": 1}},
			)
			if err != nil {
				return fmt.Errorf("credit referrer: %w", err)
			}
			granted = res.MatchedCount == 1
		}
		if granted {
			doc.Balance += grant.SignupBonus
			doc.ReferredBy = grant.ReferrerID
		}

		if _, err := s.collection(usersCollection).InsertOne(sc, doc); err != nil {
			if mongo.IsDuplicateKeyError(err) {
				return models.ErrUserExists
			}
			return fmt.Errorf("insert user: %w", err)
		}

		if !granted {
			return nil
		}
		entries := []interface{}{
			models.BalanceHistoryEntry{
				UID:         doc.ID,
				Type:        models.HistorySignupBonus,
				Amount:      grant.SignupBonus,
				Description: "Welcome Bonus",
				Timestamp:   now,
			},
			models.BalanceHistoryEntry{
				UID:         grant.ReferrerID,
				Type:        models.HistoryReferralBonus,
				Amount:      grant.ReferralBonus,
				Description: "Referral Bonus: " + doc.Name,
				Timestamp:   now,
			},
		}
		if _, err := s.collection(historyCollection).InsertMany(sc, entries); err != nil {
			return fmt.Errorf("insert bonus history: %w", err)
		}
		return nil
	})
	if err != nil {
		return false, err
	}
	if granted {
		user.Balance += grant.SignupBonus
		user.ReferredBy = grant.ReferrerID
	}
	return granted, nil
}

func (s *MongoStore) Credit(ctx context.Context, entry models.BalanceHistoryEntry) error {
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}
	return s.withTransaction(ctx, func(sc mongo.SessionContext) error {
		if err := s.incBalance(sc, entry.UID, entry.Amount); err != nil {
			return err
		}
		if _, err := s.collection(historyCollection).InsertOne(sc, entry); err != nil {
			return fmt.Errorf("insert history: %w", err)
		}
		return nil
	})
}

func (s *MongoStore) incBalance(sc mongo.SessionContext, uid string, amount float64) error {
	res, err := s.collection(usersCollection).UpdateOne(sc,
		bson.M{"_id": uid},
		bson.M{"$inc": bson.M{"balance": amount}},
	)
	if err != nil {
		return fmt.Errorf("update balance: %w", err)
	}
	if res.MatchedCount == 0 {
		return models.ErrUserNotFound
	}
	return nil
}

// claimPending flips a pending document to a new status, returning the updated document.
// A missing document yields notFound, an already processed one ErrNotPending.
func (s *MongoStore) claimPending(sc mongo.SessionContext, coll string, id primitive.ObjectID, set bson.M, notFound error, out interface{}) error {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	err := s.collection(coll).FindOneAndUpdate(sc,
		bson.M{"_id": id, "status": "pending"},
		bson.M{"$set": set},
		opts,
	).Decode(out)
	if err == nil {
		return nil
	}
	if !isNoDocuments(err) {
		return fmt.Errorf("claim %s: %w", coll, err)
	}
	n, err := s.collection(coll).CountDocuments(sc, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("count %s: %w", coll, err)
	}
	if n == 0 {
		return notFound
	}
	return models.ErrNotPending
}

func (s *MongoStore) ApproveSubmission(ctx context.Context, id string) (models.BalanceHistoryEntry, error) {
	oid, err := objectID(id, models.ErrSubmissionNotFound)
	if err != nil {
		return models.BalanceHistoryEntry{}, err
	}

	var entry models.BalanceHistoryEntry
	err = s.withTransaction(ctx, func(sc mongo.SessionContext) error {
		now := time.Now()
		var sub models.Submission
		set := bson.M{"status": models.SubmissionApproved, "reviewed_at": now}
		if err := s.claimPending(sc, submissionsCollection, oid, set, models.ErrSubmissionNotFound, &sub); err != nil {
			return err
		}

		title, reward := deletedTaskTitle, 0.0
		if taskID, err := primitive.ObjectIDFromHex(sub.TaskID); err == nil {
			var task models.Task
			err := s.collection(tasksCollection).FindOne(sc, bson.M{"_id": taskID}).Decode(&task)
			switch {
			case err == nil:
				title, reward = task.Title, task.Reward
			case !isNoDocuments(err):
				return fmt.Errorf("find task: %w", err)
			}
		}

		if err := s.incBalance(sc, sub.UID, reward); err != nil {
			return err
		}
		entry = models.BalanceHistoryEntry{
			ID:          primitive.NewObjectID(),
			UID:         sub.UID,
			Type:        models.HistoryTaskEarning,
			Amount:      reward,
			Description: title,
			Timestamp:   now,
		}
		if _, err := s.collection(historyCollection).InsertOne(sc, entry); err != nil {
			return fmt.Errorf("insert history: %w", err)
		}
		return nil
	})
	return entry, err
}

func (s *MongoStore) RejectSubmission(ctx context.Context, id string) error {
	oid, err := objectID(id, models.ErrSubmissionNotFound)
	if err != nil {
		return err
	}
	return s.withTransaction(ctx, func(sc mongo.SessionContext) error {
		var sub models.Submission
		set := bson.M{"status": models.SubmissionRejected, "reviewed_at": time.Now()}
		return s.claimPending(sc, submissionsCollection, oid, set, models.ErrSubmissionNotFound, &sub)
	})
}

func (s *MongoStore) HoldWithdrawal(ctx context.Context, req *models.WithdrawRequest) error {
	if req.ID.IsZero() {
		req.ID = primitive.NewObjectID()
	}
	if req.HoldEntryID.IsZero() {
		req.HoldEntryID = primitive.NewObjectID()
	}
	if req.Timestamp.IsZero() {
		req.Timestamp = time.Now()
	}
	req.Status = models.WithdrawPending

	return s.withTransaction(ctx, func(sc mongo.SessionContext) error {
		res, err := s.collection(usersCollection).UpdateOne(sc,
			bson.M{"_id": req.UID, "balance": bson.M{"$gte": req.Amount}},
			bson.M{"$inc": bson.M{"balance": -req.Amount}},
		)
		if err != nil {
			return fmt.Errorf("debit balance: %w", err)
		}
		if res.MatchedCount == 0 {
			n, err := s.collection(usersCollection).CountDocuments(sc, bson.M{"_id": req.UID})
			if err != nil {
				return fmt.Errorf("count user: %w", err)
			}
			if n == 0 {
				return models.ErrUserNotFound
			}
			return models.ErrInsufficientBalance
		}

		hold := models.BalanceHistoryEntry{
			ID:          req.HoldEntryID,
			UID:         req.UID,
			Type:        models.HistoryWithdrawHold,
			Amount:      -req.Amount,
			Description: fmt.Sprintf("Withdrawal request via %s (%s)", req.Method, req.Number),
			Timestamp:   req.Timestamp,
		}
		if _, err := s.collection(historyCollection).InsertOne(sc, hold); err != nil {
			return fmt.Errorf("insert hold entry: %w", err)
		}
		if _, err := s.collection(withdrawalsCollection).InsertOne(sc, req); err != nil {
			return fmt.Errorf("insert withdraw request: %w", err)
		}
		return nil
	})
}

func (s *MongoStore) ResolveWithdrawal(ctx context.Context, id string, status models.WithdrawStatus) (*models.WithdrawRequest, error) {
	if status != models.WithdrawPaid && status != models.WithdrawRejected {
		return nil, fmt.Errorf("resolve withdrawal: unsupported status %q", status)
	}
	oid, err := objectID(id, models.ErrWithdrawalNotFound)
	if err != nil {
		return nil, err
	}

	var req models.WithdrawRequest
	err = s.withTransaction(ctx, func(sc mongo.SessionContext) error {
		now := time.Now()
		set := bson.M{"status": status, "processed_at": now}
		if err := s.claimPending(sc, withdrawalsCollection, oid, set, models.ErrWithdrawalNotFound, &req); err != nil {
			return err
		}

		if status == models.WithdrawPaid {
			_, err := s.collection(historyCollection).UpdateOne(sc,
				bson.M{"_id": req.HoldEntryID},
				bson.M{"$set": bson.M{
					"type":        models.HistoryWithdrawPaid,
					"description": fmt.Sprintf("Paid via %s (%s)", req.Method, req.Number),
				}},
			)
			if err != nil {
				return fmt.Errorf("rewrite hold entry: %w", err)
			}
			return nil
		}

		// A deleted account has nothing to refund into; the request is still closed.
		err := s.incBalance(sc, req.UID, req.Amount)
		if errors.Is(err, models.ErrUserNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		refund := models.BalanceHistoryEntry{
			UID:         req.UID,
			Type:        models.HistoryWithdrawRefund,
			Amount:      req.Amount,
			Description: "Withdrawal rejected, amount refunded",
			Timestamp:   now,
		}
		if _, err := s.collection(historyCollection).InsertOne(sc, refund); err != nil {
			return fmt.Errorf("insert refund entry: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &req, nil
}

func (s *MongoStore) ApproveActivation(ctx context.Context, id string) (*models.ActivationRequest, error) {
	oid, err := objectID(id, models.ErrActivationNotFound)
	if err != nil {
		return nil, err
	}

	var req models.ActivationRequest
	err = s.withTransaction(ctx, func(sc mongo.SessionContext) error {
		set := bson.M{"status": models.ActivationApproved}
		if err := s.claimPending(sc, activationsCollection, oid, set, models.ErrActivationNotFound, &req); err != nil {
			return err
		}
		res, err := s.collection(usersCollection).UpdateOne(sc,
			bson.M{"_id": req.UID},
			bson.M{"$set": bson.M{"is_active": true}},
		)
		if err != nil {
			return fmt.Errorf("activate user: %w", err)
		}
		if res.MatchedCount == 0 {
			return models.ErrUserNotFound
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &req, nil
}

func (s *MongoStore) ListHistory(ctx context.Context, uid string, limit int) ([]models.BalanceHistoryEntry, error) {
	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: -1}, {Key: "_id", Value: -1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	cursor, err := s.collection(historyCollection).Find(ctx, bson.M{"uid": uid}, opts)
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	var entries []models.BalanceHistoryEntry
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, fmt.Errorf("decode history: %w", err)
	}
	return entries, nil
}

func (s *MongoStore) HistoryAmounts(ctx context.Context, uid string) ([]float64, error) {
	opts := options.Find().SetProjection(bson.M{"amount": 1})
	cursor, err := s.collection(historyCollection).Find(ctx, bson.M{"uid": uid}, opts)
	if err != nil {
		return nil, fmt.Errorf("list history amounts: %w", err)
	}
	defer cursor.Close(ctx)

	var amounts []float64
	for cursor.Next(ctx) {
		var doc struct {
			Amount float64 `bson:"amount"`
		}
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode amount: %w", err)
		}
		amounts = append(amounts, doc.Amount)
	}
	return amounts, cursor.Err()
}
