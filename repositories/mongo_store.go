package repositories

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/HSouheill/taskreward_backend/services"
)

const (
	usersCollection       = "users"
	tasksCollection       = "tasks"
	submissionsCollection = "task_submissions"
	withdrawalsCollection = "withdraw_requests"
	activationsCollection = "activation_requests"
	historyCollection     = "balance_history"
	noticesCollection     = "notices"
	settingsCollection    = "settings"

	systemNoticeID = "system_notice"
)

var _ services.Store = (*MongoStore)(nil)

// MongoStore implements services.Store on MongoDB. Ledger operations need a replica set
// because they run inside multi-document transactions.
type MongoStore struct {
	client *mongo.Client
	db     *mongo.Database
}

func NewMongoStore(client *mongo.Client, dbName string) *MongoStore {
	return &MongoStore{
		client: client,
		db:     client.Database(dbName),
	}
}

func (s *MongoStore) collection(name string) *mongo.Collection {
	return s.db.Collection(name)
}

// withTransaction runs fn inside a session transaction. fn may be retried by the driver, so
// it must not mutate state captured from outside except through its return.
func (s *MongoStore) withTransaction(ctx context.Context, fn func(sc mongo.SessionContext) error) error {
	session, err := s.client.StartSession()
	if err != nil {
		return err
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	return err
}

// objectID parses a hex id, reporting notFound for malformed input.
func objectID(id string, notFound error) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, notFound
	}
	return oid, nil
}

func isNoDocuments(err error) bool {
	return errors.Is(err, mongo.ErrNoDocuments)
}
