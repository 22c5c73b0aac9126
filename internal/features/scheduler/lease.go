package scheduler

import (
	"context"
	"errors"
	"time"

	"go-chms/internal/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrLeaseHeld means another dispatcher currently owns the automation.
var ErrLeaseHeld = errors.New("automation lease held by another dispatcher")

// LeaseStore serializes dispatch per automation. At most one live lease
// exists per automation id; a lease past its TTL counts as abandoned and can
// be taken over.
type LeaseStore interface {
	Acquire(ctx context.Context, automationID, owner string, ttl time.Duration) error
	Release(ctx context.Context, automationID, owner string) error
}

type leaseDoc struct {
	AutomationID string    `bson:"automation_id"`
	Owner        string    `bson:"owner"`
	ExpiresAt    time.Time `bson:"expires_at"`
}

type LeaseStoreImpl struct {
	Collection *mongo.Collection
}

func NewLeaseStore(mongodb *database.MongodbDB) LeaseStore {
	coll := mongodb.DB.Collection("automation_leases")

	// Uniqueness on automation_id is what makes Acquire race-free.
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_, _ = coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "automation_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	})

	return &LeaseStoreImpl{Collection: coll}
}

func (s *LeaseStoreImpl) Acquire(ctx context.Context, automationID, owner string, ttl time.Duration) error {
	now := time.Now()

	// Take over an expired lease, or create one if none exists. A live lease
	// owned by someone else makes the upsert collide with the unique index.
	_, err := s.Collection.UpdateOne(ctx,
		bson.M{
			"automation_id": automationID,
			"expires_at":    bson.M{"$lt": now},
		},
		bson.M{"$set": bson.M{
			"automation_id": automationID,
			"owner":         owner,
			"expires_at":    now.Add(ttl),
		}},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrLeaseHeld
		}
		return err
	}
	return nil
}

func (s *LeaseStoreImpl) Release(ctx context.Context, automationID, owner string) error {
	_, err := s.Collection.DeleteOne(ctx, bson.M{
		"automation_id": automationID,
		"owner":         owner,
	})
	return err
}
