package automation

import (
	"context"
	"time"

	"go-chms/internal/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type AutomationRepository interface {
	Create(ctx context.Context, cfg *AutomationConfig) error
	GetByID(ctx context.Context, id string) (*AutomationConfig, error)
	List(ctx context.Context) ([]AutomationConfig, error)
	ListEnabled(ctx context.Context) ([]AutomationConfig, error)
	Update(ctx context.Context, cfg *AutomationConfig) error
	Delete(ctx context.Context, id string) error
	SetEnabled(ctx context.Context, id string, enabled bool) error
	SetStatus(ctx context.Context, id string, status AutomationStatus) error
	UpdateRunTimes(ctx context.Context, id string, lastRun time.Time, nextRun *time.Time) error

	// BumpFailures increments the consecutive-failure counter and returns the
	// new count. ResetFailures zeroes it after any non-failed run.
	BumpFailures(ctx context.Context, id string) (int, error)
	ResetFailures(ctx context.Context, id string) error
}

type AutomationRepositoryImpl struct {
	Collection *mongo.Collection
}

func NewAutomationRepository(mongodb *database.MongodbDB) AutomationRepository {
	return &AutomationRepositoryImpl{
		Collection: mongodb.DB.Collection("automation_configs"),
	}
}

func (r *AutomationRepositoryImpl) Create(ctx context.Context, cfg *AutomationConfig) error {
	cfg.ID = primitive.NewObjectID()
	cfg.CreatedAt = time.Now()
	cfg.UpdatedAt = time.Now()
	_, err := r.Collection.InsertOne(ctx, cfg)
	return err
}

func (r *AutomationRepositoryImpl) GetByID(ctx context.Context, id string) (*AutomationConfig, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, err
	}
	var cfg AutomationConfig
	err = r.Collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&cfg)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &cfg, nil
}

func (r *AutomationRepositoryImpl) List(ctx context.Context) ([]AutomationConfig, error) {
	return r.find(ctx, bson.M{})
}

func (r *AutomationRepositoryImpl) ListEnabled(ctx context.Context) ([]AutomationConfig, error) {
	return r.find(ctx, bson.M{"is_enabled": true})
}

func (r *AutomationRepositoryImpl) find(ctx context.Context, filter bson.M) ([]AutomationConfig, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := r.Collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)
	var configs []AutomationConfig
	if err = cursor.All(ctx, &configs); err != nil {
		return nil, err
	}
	return configs, nil
}

func (r *AutomationRepositoryImpl) Update(ctx context.Context, cfg *AutomationConfig) error {
	cfg.UpdatedAt = time.Now()
	_, err := r.Collection.UpdateOne(ctx, bson.M{"_id": cfg.ID}, bson.M{"$set": cfg})
	return err
}

func (r *AutomationRepositoryImpl) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return err
	}
	_, err = r.Collection.DeleteOne(ctx, bson.M{"_id": oid})
	return err
}

func (r *AutomationRepositoryImpl) SetEnabled(ctx context.Context, id string, enabled bool) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return err
	}
	status := StatusActive
	if !enabled {
		status = StatusInactive
	}
	_, err = r.Collection.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": bson.M{
		"is_enabled": enabled,
		"status":     status,
		"updated_at": time.Now(),
	}})
	return err
}

func (r *AutomationRepositoryImpl) SetStatus(ctx context.Context, id string, status AutomationStatus) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return err
	}
	_, err = r.Collection.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": bson.M{
		"status":     status,
		"updated_at": time.Now(),
	}})
	return err
}

func (r *AutomationRepositoryImpl) UpdateRunTimes(ctx context.Context, id string, lastRun time.Time, nextRun *time.Time) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return err
	}
	set := bson.M{"last_run": lastRun}
	if nextRun != nil {
		set["next_run"] = *nextRun
	}
	_, err = r.Collection.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": set})
	return err
}

func (r *AutomationRepositoryImpl) BumpFailures(ctx context.Context, id string) (int, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return 0, err
	}
	var updated AutomationConfig
	after := options.After
	err = r.Collection.FindOneAndUpdate(ctx,
		bson.M{"_id": oid},
		bson.M{"$inc": bson.M{"consecutive_failures": 1}},
		options.FindOneAndUpdate().SetReturnDocument(after),
	).Decode(&updated)
	if err != nil {
		return 0, err
	}
	return updated.ConsecutiveFailures, nil
}

func (r *AutomationRepositoryImpl) ResetFailures(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return err
	}
	_, err = r.Collection.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": bson.M{"consecutive_failures": 0}})
	return err
}
