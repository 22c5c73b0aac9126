package run

import (
	"context"
	"fmt"
	"time"

	"go-chms/internal/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// RunRepository is the append-only run ledger.
type RunRepository interface {
	// RecordAttempt creates a PENDING run and returns its id.
	RecordAttempt(ctx context.Context, automationID string) (string, error)
	// RecordOutcome appends one recipient result to an in-flight run.
	RecordOutcome(ctx context.Context, runID string, outcome RecipientOutcome) error
	// Finalize computes aggregate counts and freezes the run.
	Finalize(ctx context.Context, runID string) (*AutomationRun, error)
	GetByID(ctx context.Context, runID string) (*AutomationRun, error)
	ListForAutomation(ctx context.Context, automationID string, limit int64) ([]AutomationRun, error)
	// LastStatuses returns the statuses of the most recent runs, newest first.
	LastStatuses(ctx context.Context, automationID string, n int64) ([]RunStatus, error)
}

type RunRepositoryImpl struct {
	Collection *mongo.Collection
}

func NewRunRepository(mongodb *database.MongodbDB) RunRepository {
	return &RunRepositoryImpl{
		Collection: mongodb.DB.Collection("automation_runs"),
	}
}

func (r *RunRepositoryImpl) RecordAttempt(ctx context.Context, automationID string) (string, error) {
	run := AutomationRun{
		ID:           primitive.NewObjectID(),
		AutomationID: automationID,
		ExecutedAt:   time.Now(),
		Status:       RunPending,
	}
	if _, err := r.Collection.InsertOne(ctx, run); err != nil {
		return "", err
	}
	return run.ID.Hex(), nil
}

func (r *RunRepositoryImpl) RecordOutcome(ctx context.Context, runID string, outcome RecipientOutcome) error {
	oid, err := primitive.ObjectIDFromHex(runID)
	if err != nil {
		return err
	}
	if outcome.At.IsZero() {
		outcome.At = time.Now()
	}
	// Outcomes may only land on a run that is still pending.
	res, err := r.Collection.UpdateOne(ctx,
		bson.M{"_id": oid, "status": RunPending},
		bson.M{"$push": bson.M{"outcomes": outcome}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("run %s is not pending", runID)
	}
	return nil
}

func (r *RunRepositoryImpl) Finalize(ctx context.Context, runID string) (*AutomationRun, error) {
	run, err := r.GetByID(ctx, runID)
	if err != nil {
		return nil, err
	}
	if run == nil {
		return nil, fmt.Errorf("run %s not found", runID)
	}
	if run.Status != RunPending {
		return nil, fmt.Errorf("run %s is already finalized", runID)
	}

	Summarize(run)
	now := time.Now()
	run.CompletedAt = &now

	_, err = r.Collection.UpdateOne(ctx,
		bson.M{"_id": run.ID, "status": RunPending},
		bson.M{"$set": bson.M{
			"status":          run.Status,
			"recipient_count": run.RecipientCount,
			"success_count":   run.SuccessCount,
			"failure_count":   run.FailureCount,
			"error_message":   run.ErrorMessage,
			"completed_at":    run.CompletedAt,
		}},
	)
	if err != nil {
		return nil, err
	}
	return run, nil
}

func (r *RunRepositoryImpl) GetByID(ctx context.Context, runID string) (*AutomationRun, error) {
	oid, err := primitive.ObjectIDFromHex(runID)
	if err != nil {
		return nil, err
	}
	var run AutomationRun
	err = r.Collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&run)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &run, nil
}

func (r *RunRepositoryImpl) ListForAutomation(ctx context.Context, automationID string, limit int64) ([]AutomationRun, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "executed_at", Value: -1}}).
		SetLimit(limit)

	cursor, err := r.Collection.Find(ctx, bson.M{"automation_id": automationID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var runs []AutomationRun
	if err = cursor.All(ctx, &runs); err != nil {
		return nil, err
	}
	return runs, nil
}

func (r *RunRepositoryImpl) LastStatuses(ctx context.Context, automationID string, n int64) ([]RunStatus, error) {
	runs, err := r.ListForAutomation(ctx, automationID, n)
	if err != nil {
		return nil, err
	}
	statuses := make([]RunStatus, len(runs))
	for i := range runs {
		statuses[i] = runs[i].Status
	}
	return statuses, nil
}

// Summarize recomputes the aggregate fields of a run from its outcomes.
// A run with recipients and zero successes is FAILED, one with failures and
// successes is PARTIAL, everything else is SUCCESS.
func Summarize(run *AutomationRun) {
	run.RecipientCount = len(run.Outcomes)
	run.SuccessCount = 0
	run.FailureCount = 0
	run.ErrorMessage = ""
	for _, o := range run.Outcomes {
		if o.Success {
			run.SuccessCount++
		} else {
			run.FailureCount++
			if run.ErrorMessage == "" {
				run.ErrorMessage = o.Error
			}
		}
	}

	switch {
	case run.RecipientCount > 0 && run.SuccessCount == 0:
		run.Status = RunFailed
	case run.FailureCount > 0:
		run.Status = RunPartial
	default:
		run.Status = RunSuccess
	}
}
