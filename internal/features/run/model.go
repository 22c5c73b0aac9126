package run

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type RunStatus string

const (
	RunPending RunStatus = "PENDING"
	RunSuccess RunStatus = "SUCCESS"
	RunFailed  RunStatus = "FAILED"
	RunPartial RunStatus = "PARTIAL"
)

// RecipientOutcome is one recipient's result within a run.
type RecipientOutcome struct {
	MemberID string    `json:"member_id" bson:"member_id"`
	Success  bool      `json:"success" bson:"success"`
	Error    string    `json:"error,omitempty" bson:"error,omitempty"`
	At       time.Time `json:"at" bson:"at"`
}

// AutomationRun is one firing attempt of an automation. It is created
// PENDING when dispatch begins and is immutable once finalized.
type AutomationRun struct {
	ID             primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	AutomationID   string             `json:"automation_id" bson:"automation_id"`
	ExecutedAt     time.Time          `json:"executed_at" bson:"executed_at"`
	CompletedAt    *time.Time         `json:"completed_at,omitempty" bson:"completed_at,omitempty"`
	Status         RunStatus          `json:"status" bson:"status"`
	RecipientCount int                `json:"recipient_count" bson:"recipient_count"`
	SuccessCount   int                `json:"success_count" bson:"success_count"`
	FailureCount   int                `json:"failure_count" bson:"failure_count"`
	ErrorMessage   string             `json:"error_message,omitempty" bson:"error_message,omitempty"`
	Outcomes       []RecipientOutcome `json:"outcomes,omitempty" bson:"outcomes,omitempty"`
}

// Occurrence tracks how often an automation has fired for one member, and
// whether the member is currently inside a matched episode of a
// condition-based trigger.
type Occurrence struct {
	ID               primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	AutomationID     string             `json:"automation_id" bson:"automation_id"`
	MemberID         string             `json:"member_id" bson:"member_id"`
	Count            int                `json:"count" bson:"count"`
	LastFiredAt      *time.Time         `json:"last_fired_at,omitempty" bson:"last_fired_at,omitempty"`
	CurrentlyMatched bool               `json:"currently_matched" bson:"currently_matched"`
}
