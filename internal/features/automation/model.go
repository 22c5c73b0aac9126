package automation

import (
	"time"

	common_models "go-chms/internal/common/models"
	"go-chms/internal/features/event"
	"go-chms/pkg/condition"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AutomationType is descriptive only; it labels what the rule is for and
// never changes evaluation mechanics.
type AutomationType string

const (
	TypeBirthday                AutomationType = "birthday"
	TypeAnniversary             AutomationType = "anniversary"
	TypeSacramentalAnniversary  AutomationType = "sacramental_anniversary"
	TypeAbsence                 AutomationType = "absence"
	TypeFirstTimer              AutomationType = "first_timer"
	TypeVisitorFollowup         AutomationType = "visitor_followup"
	TypeNewConvert              AutomationType = "new_convert"
	TypePaymentReceipt          AutomationType = "payment_receipt"
	TypePaymentThankYou         AutomationType = "payment_thank_you"
	TypeRecurringGivingReminder AutomationType = "recurring_giving_reminder"
	TypeReturnWelcome           AutomationType = "return_welcome"
	TypeEventReminder           AutomationType = "event_reminder"
)

func (t AutomationType) Valid() bool {
	switch t {
	case TypeBirthday, TypeAnniversary, TypeSacramentalAnniversary,
		TypeAbsence, TypeFirstTimer, TypeVisitorFollowup, TypeNewConvert,
		TypePaymentReceipt, TypePaymentThankYou, TypeRecurringGivingReminder,
		TypeReturnWelcome, TypeEventReminder:
		return true
	default:
		return false
	}
}

type TriggerType string

const (
	TriggerTimeBased      TriggerType = "TIME_BASED"
	TriggerEventBased     TriggerType = "EVENT_BASED"
	TriggerConditionBased TriggerType = "CONDITION_BASED"
)

// AutomationStatus is observed state. The dispatcher owns ERROR; a user can
// only pause, resume or toggle.
type AutomationStatus string

const (
	StatusActive   AutomationStatus = "ACTIVE"
	StatusInactive AutomationStatus = "INACTIVE"
	StatusPaused   AutomationStatus = "PAUSED"
	StatusError    AutomationStatus = "ERROR"
)

// EventTriggerConfig reacts to one domain event aimed at one member.
type EventTriggerConfig struct {
	EventType      event.EventType  `json:"event_type" bson:"event_type"`
	Conditions     *condition.Group `json:"conditions,omitempty" bson:"conditions,omitempty"`
	DelayMinutes   int              `json:"delay_minutes" bson:"delay_minutes"`
	MaxOccurrences *int             `json:"max_occurrences,omitempty" bson:"max_occurrences,omitempty"`
}

// ConditionTriggerConfig polls the member set on a cron cadence and sends to
// members entering the matched state.
type ConditionTriggerConfig struct {
	Conditions    *condition.Group `json:"conditions" bson:"conditions"`
	CheckInterval string           `json:"check_interval" bson:"check_interval"`
	DelayMinutes  int              `json:"delay_minutes" bson:"delay_minutes"`
}

// TriggerConfig is the tagged union matching TriggerType. Time-based configs
// carry no TriggerConfig; their cron lives on AutomationConfig.Schedule.
type TriggerConfig struct {
	Event     *EventTriggerConfig     `json:"event,omitempty" bson:"event,omitempty"`
	Condition *ConditionTriggerConfig `json:"condition,omitempty" bson:"condition,omitempty"`
}

type AutomationConfig struct {
	ID                  primitive.ObjectID      `json:"id" bson:"_id,omitempty"`
	Name                string                  `json:"name" bson:"name"`
	Type                AutomationType          `json:"type" bson:"type"`
	TriggerType         TriggerType             `json:"trigger_type" bson:"trigger_type"`
	Schedule            string                  `json:"schedule,omitempty" bson:"schedule,omitempty"`
	TriggerConfig       *TriggerConfig          `json:"trigger_config,omitempty" bson:"trigger_config,omitempty"`
	Channels            []common_models.Channel `json:"channels" bson:"channels"`
	TemplateID          string                  `json:"template_id" bson:"template_id"`
	IsEnabled           bool                    `json:"is_enabled" bson:"is_enabled"`
	Status              AutomationStatus        `json:"status" bson:"status"`
	ConsecutiveFailures int                     `json:"consecutive_failures" bson:"consecutive_failures"`
	LastRun             *time.Time              `json:"last_run,omitempty" bson:"last_run,omitempty"`
	NextRun             *time.Time              `json:"next_run,omitempty" bson:"next_run,omitempty"`
	CreatedBy           string                  `json:"created_by" bson:"created_by"`
	CreatedAt           time.Time               `json:"created_at" bson:"created_at"`
	UpdatedAt           time.Time               `json:"updated_at" bson:"updated_at"`
}

// Conditions returns the condition tree of the active trigger variant, nil
// for time-based configs.
func (c *AutomationConfig) Conditions() *condition.Group {
	if c.TriggerConfig == nil {
		return nil
	}
	switch c.TriggerType {
	case TriggerEventBased:
		if c.TriggerConfig.Event != nil {
			return c.TriggerConfig.Event.Conditions
		}
	case TriggerConditionBased:
		if c.TriggerConfig.Condition != nil {
			return c.TriggerConfig.Condition.Conditions
		}
	}
	return nil
}
