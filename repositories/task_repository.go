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

func (s *MongoStore) CreateTask(ctx context.Context, task *models.Task) error {
	if task.ID.IsZero() {
		task.ID = primitive.NewObjectID()
	}
	if task.CreatedAt.IsZero() {
		task.CreatedAt = time.Now()
	}
	if _, err := s.collection(tasksCollection).InsertOne(ctx, task); err != nil {
		return fmt.Errorf("insert task: %w", err)
	}
	return nil
}

func (s *MongoStore) GetTask(ctx context.Context, id string) (*models.Task, error) {
	oid, err := objectID(id, models.ErrTaskNotFound)
	if err != nil {
		return nil, err
	}
	var task models.Task
	if err := s.collection(tasksCollection).FindOne(ctx, bson.M{"_id": oid}).Decode(&task); err != nil {
		if isNoDocuments(err) {
			return nil, models.ErrTaskNotFound
		}
		return nil, fmt.Errorf("find task: %w", err)
	}
	return &task, nil
}

func (s *MongoStore) ListTasks(ctx context.Context, limit int) ([]models.Task, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	cursor, err := s.collection(tasksCollection).Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	var tasks []models.Task
	if err := cursor.All(ctx, &tasks); err != nil {
		return nil, fmt.Errorf("decode tasks: %w", err)
	}
	return tasks, nil
}

func (s *MongoStore) DeleteTask(ctx context.Context, id string) error {
	oid, err := objectID(id, models.ErrTaskNotFound)
	if err != nil {
		return err
	}
	res, err := s.collection(tasksCollection).DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	if res.DeletedCount == 0 {
		return models.ErrTaskNotFound
	}
	return nil
}

func (s *MongoStore) CreateSubmission(ctx context.Context, sub *models.Submission) error {
	if sub.ID.IsZero() {
		sub.ID = primitive.NewObjectID()
	}
	if sub.Timestamp.IsZero() {
		sub.Timestamp = time.Now()
	}
	if _, err := s.collection(submissionsCollection).InsertOne(ctx, sub); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return models.ErrDuplicateSubmission
		}
		return fmt.Errorf("insert submission: %w", err)
	}
	return nil
}

func (s *MongoStore) HasSubmission(ctx context.Context, uid, taskID string) (bool, error) {
	n, err := s.collection(submissionsCollection).CountDocuments(ctx,
		bson.M{"uid": uid, "task_id": taskID},
		options.Count().SetLimit(1),
	)
	if err != nil {
		return false, fmt.Errorf("count submissions: %w", err)
	}
	return n > 0, nil
}

func (s *MongoStore) SubmittedTaskIDs(ctx context.Context, uid string, taskIDs []string) (map[string]bool, error) {
	done := make(map[string]bool)
	if len(taskIDs) == 0 {
		return done, nil
	}
	opts := options.Find().SetProjection(bson.M{"task_id": 1})
	cursor, err := s.collection(submissionsCollection).Find(ctx,
		bson.M{"uid": uid, "task_id": bson.M{"$in": taskIDs}},
		opts,
	)
	if err != nil {
		return nil, fmt.Errorf("find submitted tasks: %w", err)
	}
	defer cursor.Close(ctx)

	for cursor.Next(ctx) {
		var doc struct {
			TaskID string `bson:"task_id"`
		}
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode submission: %w", err)
		}
		done[doc.TaskID] = true
	}
	return done, cursor.Err()
}

func (s *MongoStore) SubmissionStats(ctx context.Context, uid string) (models.SubmissionStats, error) {
	var stats models.SubmissionStats
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"uid": uid}}},
		{{Key: "$group", Value: bson.M{"_id": "$status", "count": bson.M{"$sum": 1}}}},
	}
	cursor, err := s.collection(submissionsCollection).Aggregate(ctx, pipeline)
	if err != nil {
		return stats, fmt.Errorf("aggregate submission stats: %w", err)
	}
	var rows []struct {
		Status models.SubmissionStatus `bson:"_id"`
		Count  int                     `bson:"count"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return stats, fmt.Errorf("decode submission stats: %w", err)
	}
	for _, row := range rows {
		switch row.Status {
		case models.SubmissionApproved:
			stats.Approved = row.Count
		case models.SubmissionPending:
			stats.Pending = row.Count
		case models.SubmissionRejected:
			stats.Rejected = row.Count
		}
	}
	return stats, nil
}

func (s *MongoStore) ListSubmissionsByStatus(ctx context.Context, status models.SubmissionStatus) ([]models.Submission, error) {
	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: 1}, {Key: "_id", Value: 1}})
	cursor, err := s.collection(submissionsCollection).Find(ctx, bson.M{"status": status}, opts)
	if err != nil {
		return nil, fmt.Errorf("list submissions: %w", err)
	}
	var subs []models.Submission
	if err := cursor.All(ctx, &subs); err != nil {
		return nil, fmt.Errorf("decode submissions: %w", err)
	}
	return subs, nil
}
