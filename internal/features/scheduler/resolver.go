package scheduler

import (
	"context"
	"fmt"
	"time"

	"go-chms/internal/features/automation"
	"go-chms/internal/features/run"
	"go-chms/pkg/condition"

	"github.com/robfig/cron/v3"
)

// resolveRecipients turns the trigger config into a concrete recipient set.
func (d *Dispatcher) resolveRecipients(ctx context.Context, cfg *automation.AutomationConfig) (*resolution, error) {
	candidates, err := d.Members.QueryCandidates(ctx, string(cfg.Type))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve candidates: %w", err)
	}

	switch cfg.TriggerType {
	case automation.TriggerTimeBased:
		res := &resolution{}
		for _, record := range candidates {
			res.Recipients = append(res.Recipients, recipient{
				MemberID: recordMemberID(record),
				Record:   record,
			})
		}
		return res, nil

	case automation.TriggerConditionBased:
		return d.resolveConditionTrigger(ctx, cfg, candidates)

	case automation.TriggerEventBased:
		// Manual runs of event triggers sweep the whole candidate set
		// through the condition tree, honoring the occurrence cap.
		return d.resolveEventSweep(ctx, cfg, candidates)

	default:
		return nil, fmt.Errorf("unknown trigger type %q", cfg.TriggerType)
	}
}

// resolveConditionTrigger sends only to members entering the matched state:
// a member who matched on the previous poll and still matches is not sent to
// again until they stop matching for at least one poll.
func (d *Dispatcher) resolveConditionTrigger(ctx context.Context, cfg *automation.AutomationConfig, candidates []map[string]interface{}) (*resolution, error) {
	previouslyMatched, err := d.Occurrences.CurrentlyMatched(ctx, cfg.ID.Hex())
	if err != nil {
		return nil, fmt.Errorf("failed to load matched state: %w", err)
	}

	tree := cfg.Conditions()
	res := &resolution{}
	for _, record := range candidates {
		memberID := recordMemberID(record)
		matched, evalErr := condition.Evaluate(tree, record)
		if evalErr != nil {
			res.Errors = append(res.Errors, run.RecipientOutcome{
				MemberID: memberID,
				Success:  false,
				Error:    evalErr.Error(),
				At:       d.Clock.Now(),
			})
			continue
		}
		if matched {
			res.Matched = append(res.Matched, memberID)
			if !previouslyMatched[memberID] {
				res.Recipients = append(res.Recipients, recipient{MemberID: memberID, Record: record})
			}
		} else {
			res.Unmatched = append(res.Unmatched, memberID)
		}
	}
	return res, nil
}

func (d *Dispatcher) resolveEventSweep(ctx context.Context, cfg *automation.AutomationConfig, candidates []map[string]interface{}) (*resolution, error) {
	tree := cfg.Conditions()
	res := &resolution{}
	for _, record := range candidates {
		memberID := recordMemberID(record)
		matched, evalErr := condition.Evaluate(tree, record)
		if evalErr != nil {
			res.Errors = append(res.Errors, run.RecipientOutcome{
				MemberID: memberID,
				Success:  false,
				Error:    evalErr.Error(),
				At:       d.Clock.Now(),
			})
			continue
		}
		if !matched {
			continue
		}
		capped, err := d.occurrenceCapReached(ctx, cfg, memberID)
		if err != nil {
			return nil, err
		}
		if capped {
			continue
		}
		res.Recipients = append(res.Recipients, recipient{MemberID: memberID, Record: record})
	}
	return res, nil
}

func (d *Dispatcher) occurrenceCapReached(ctx context.Context, cfg *automation.AutomationConfig, memberID string) (bool, error) {
	trigger := cfg.TriggerConfig
	if trigger == nil || trigger.Event == nil || trigger.Event.MaxOccurrences == nil {
		return false, nil
	}
	occ, err := d.Occurrences.Get(ctx, cfg.ID.Hex(), memberID)
	if err != nil {
		return false, fmt.Errorf("failed to load occurrence: %w", err)
	}
	return occ != nil && occ.Count >= *trigger.Event.MaxOccurrences, nil
}

// nextRun computes the next fire time from the config's cron expression,
// nil for event-driven configs.
func (d *Dispatcher) nextRun(cfg *automation.AutomationConfig, from time.Time) *time.Time {
	var expr string
	switch cfg.TriggerType {
	case automation.TriggerTimeBased:
		expr = cfg.Schedule
	case automation.TriggerConditionBased:
		if cfg.TriggerConfig != nil && cfg.TriggerConfig.Condition != nil {
			expr = cfg.TriggerConfig.Condition.CheckInterval
		}
	}
	if expr == "" {
		return nil
	}
	schedule, err := cron.ParseStandard(expr)
	if err != nil {
		return nil
	}
	next := schedule.Next(from)
	return &next
}

func recordMemberID(record map[string]interface{}) string {
	if id, ok := record["member_id"].(string); ok {
		return id
	}
	return ""
}
