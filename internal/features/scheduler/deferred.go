package scheduler

import (
	"context"
	"time"

	"go-chms/internal/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type DeferredStatus string

const (
	DeferredPending DeferredStatus = "PENDING"
	DeferredRunning DeferredStatus = "RUNNING"
	DeferredDone    DeferredStatus = "DONE"
	DeferredFailed  DeferredStatus = "FAILED"
)

// DeferredJob is a delayed delivery persisted so a restart cannot lose it.
// Key is a caller-supplied idempotency key; enqueueing the same key twice is
// a no-op.
type DeferredJob struct {
	ID           primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Key          string             `json:"key" bson:"key"`
	AutomationID string             `json:"automation_id" bson:"automation_id"`
	MemberID     string             `json:"member_id" bson:"member_id"`
	FireAt       time.Time          `json:"fire_at" bson:"fire_at"`
	Status       DeferredStatus     `json:"status" bson:"status"`
	ClaimedAt    *time.Time         `json:"claimed_at,omitempty" bson:"claimed_at,omitempty"`
	Error        string             `json:"error,omitempty" bson:"error,omitempty"`
	CreatedAt    time.Time          `json:"created_at" bson:"created_at"`
}

type DeferredJobRepository interface {
	Enqueue(ctx context.Context, job *DeferredJob) error
	// Claim atomically takes one due pending job, flipping it to RUNNING and
	// stamping claimed_at. Returns nil when nothing is due.
	Claim(ctx context.Context, now time.Time) (*DeferredJob, error)
	MarkDone(ctx context.Context, id primitive.ObjectID) error
	MarkFailed(ctx context.Context, id primitive.ObjectID, reason string) error
	// RequeueStale returns RUNNING jobs claimed before cutoff to PENDING so a
	// crashed dispatcher cannot strand them. Staleness is measured from the
	// claim, not fire_at: an overdue job claimed a moment ago is still live.
	RequeueStale(ctx context.Context, cutoff time.Time) (int64, error)
}

type DeferredJobRepositoryImpl struct {
	Collection *mongo.Collection
}

func NewDeferredJobRepository(mongodb *database.MongodbDB) DeferredJobRepository {
	coll := mongodb.DB.Collection("deferred_jobs")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_, _ = coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "key", Value: 1}},
		Options: options.Index().SetUnique(true),
	})

	return &DeferredJobRepositoryImpl{Collection: coll}
}

func (r *DeferredJobRepositoryImpl) Enqueue(ctx context.Context, job *DeferredJob) error {
	job.ID = primitive.NewObjectID()
	job.Status = DeferredPending
	job.CreatedAt = time.Now()
	_, err := r.Collection.InsertOne(ctx, job)
	if mongo.IsDuplicateKeyError(err) {
		return nil
	}
	return err
}

func (r *DeferredJobRepositoryImpl) Claim(ctx context.Context, now time.Time) (*DeferredJob, error) {
	var job DeferredJob
	err := r.Collection.FindOneAndUpdate(ctx,
		bson.M{
			"status":  DeferredPending,
			"fire_at": bson.M{"$lte": now},
		},
		bson.M{"$set": bson.M{"status": DeferredRunning, "claimed_at": now}},
		options.FindOneAndUpdate().
			SetSort(bson.D{{Key: "fire_at", Value: 1}}).
			SetReturnDocument(options.After),
	).Decode(&job)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &job, nil
}

func (r *DeferredJobRepositoryImpl) MarkDone(ctx context.Context, id primitive.ObjectID) error {
	_, err := r.Collection.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"status": DeferredDone}},
	)
	return err
}

func (r *DeferredJobRepositoryImpl) MarkFailed(ctx context.Context, id primitive.ObjectID, reason string) error {
	_, err := r.Collection.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"status": DeferredFailed, "error": reason}},
	)
	return err
}

func (r *DeferredJobRepositoryImpl) RequeueStale(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.Collection.UpdateMany(ctx,
		bson.M{
			"status":     DeferredRunning,
			"claimed_at": bson.M{"$lt": cutoff},
		},
		bson.M{"$set": bson.M{"status": DeferredPending}},
	)
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}
