package run

import (
	"context"
	"time"

	"go-chms/internal/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// OccurrenceRepository tracks how many times an automation has fired for a
// member and whether the member currently matches a condition trigger.
type OccurrenceRepository interface {
	Get(ctx context.Context, automationID, memberID string) (*Occurrence, error)
	// RecordFire bumps the fire counter and stamps last_fired_at.
	RecordFire(ctx context.Context, automationID, memberID string) error
	// SetMatched flips the currently_matched flag without touching the counter.
	SetMatched(ctx context.Context, automationID, memberID string, matched bool) error
	// CurrentlyMatched returns the member ids flagged as matched for an automation.
	CurrentlyMatched(ctx context.Context, automationID string) (map[string]bool, error)
}

type OccurrenceRepositoryImpl struct {
	Collection *mongo.Collection
}

func NewOccurrenceRepository(mongodb *database.MongodbDB) OccurrenceRepository {
	return &OccurrenceRepositoryImpl{
		Collection: mongodb.DB.Collection("automation_occurrences"),
	}
}

func (r *OccurrenceRepositoryImpl) Get(ctx context.Context, automationID, memberID string) (*Occurrence, error) {
	var occ Occurrence
	err := r.Collection.FindOne(ctx, bson.M{
		"automation_id": automationID,
		"member_id":     memberID,
	}).Decode(&occ)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &occ, nil
}

func (r *OccurrenceRepositoryImpl) RecordFire(ctx context.Context, automationID, memberID string) error {
	now := time.Now()
	_, err := r.Collection.UpdateOne(ctx,
		bson.M{"automation_id": automationID, "member_id": memberID},
		bson.M{
			"$inc": bson.M{"count": 1},
			"$set": bson.M{"last_fired_at": now, "currently_matched": true},
		},
		options.Update().SetUpsert(true),
	)
	return err
}

func (r *OccurrenceRepositoryImpl) SetMatched(ctx context.Context, automationID, memberID string, matched bool) error {
	_, err := r.Collection.UpdateOne(ctx,
		bson.M{"automation_id": automationID, "member_id": memberID},
		bson.M{"$set": bson.M{"currently_matched": matched}},
		options.Update().SetUpsert(true),
	)
	return err
}

func (r *OccurrenceRepositoryImpl) CurrentlyMatched(ctx context.Context, automationID string) (map[string]bool, error) {
	cursor, err := r.Collection.Find(ctx, bson.M{
		"automation_id":     automationID,
		"currently_matched": true,
	})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var occs []Occurrence
	if err = cursor.All(ctx, &occs); err != nil {
		return nil, err
	}
	matched := make(map[string]bool, len(occs))
	for _, occ := range occs {
		matched[occ.MemberID] = true
	}
	return matched, nil
}
