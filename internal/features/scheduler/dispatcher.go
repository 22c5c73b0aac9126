package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	common_models "go-chms/internal/common/models"
	"go-chms/internal/config"
	"go-chms/internal/features/audit"
	"go-chms/internal/features/automation"
	"go-chms/internal/features/event"
	"go-chms/internal/features/member"
	"go-chms/internal/features/messaging"
	"go-chms/internal/features/run"
	"go-chms/pkg/condition"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Clock and Sleeper are seams for tests; production uses the wall clock.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// recipient is one member resolved for delivery, carrying the flattened
// field record the message layer addresses from.
type recipient struct {
	MemberID string
	Record   map[string]interface{}
}

// resolution is the outcome of trigger resolution: who to send to, plus the
// members whose condition evaluation errored. Errors never abort the batch;
// they become failed outcomes on the run.
type resolution struct {
	Recipients []recipient
	Errors     []run.RecipientOutcome

	// matched/unmatched track condition-trigger state transitions so the
	// occurrence flags can be updated after the run.
	Matched   []string
	Unmatched []string
}

// Dispatcher executes one automation run end to end: lease, trigger
// resolution, delivery with retries, the run ledger, and failure escalation.
type Dispatcher struct {
	Automations automation.AutomationRepository
	Members     member.MemberService
	Sender      messaging.MessageSender
	Runs        run.RunRepository
	Occurrences run.OccurrenceRepository
	Leases      LeaseStore
	Deferred    DeferredJobRepository
	Audit       audit.AuditService
	Config      *config.Config
	Logger      *zap.Logger

	Clock Clock
	Sleep func(time.Duration)

	// Owner identifies this process in lease documents.
	Owner string
}

func NewDispatcher(
	automations automation.AutomationRepository,
	members member.MemberService,
	sender messaging.MessageSender,
	runs run.RunRepository,
	occurrences run.OccurrenceRepository,
	leases LeaseStore,
	deferred DeferredJobRepository,
	auditService audit.AuditService,
	cfg *config.Config,
	logger *zap.Logger,
) *Dispatcher {
	return &Dispatcher{
		Automations: automations,
		Members:     members,
		Sender:      sender,
		Runs:        runs,
		Occurrences: occurrences,
		Leases:      leases,
		Deferred:    deferred,
		Audit:       auditService,
		Config:      cfg,
		Logger:      logger,
		Clock:       realClock{},
		Sleep:       time.Sleep,
		Owner:       uuid.NewString(),
	}
}

// DispatchRun runs one automation now. It serves cron ticks for TIME_BASED
// and CONDITION_BASED configs and the manual run endpoint for all three
// trigger types.
func (d *Dispatcher) DispatchRun(ctx context.Context, cfg *automation.AutomationConfig) error {
	if !cfg.IsEnabled || cfg.Status == automation.StatusPaused {
		d.Logger.Debug("skipping run of disabled or paused automation",
			zap.String("automation", cfg.ID.Hex()))
		return nil
	}

	return d.withLease(ctx, cfg.ID.Hex(), func() error {
		res, err := d.resolveRecipients(ctx, cfg)
		if err != nil {
			return err
		}
		if err := d.deferConditionRecipients(ctx, cfg, res); err != nil {
			return err
		}
		return d.executeRun(ctx, cfg, res)
	})
}

// withLease serializes a block per automation. Every fire path (cron tick,
// manual run, event fire, deferred fire) funnels through here so two
// processes can never run the same automation at once.
func (d *Dispatcher) withLease(ctx context.Context, automationID string, fn func() error) error {
	ttl := time.Duration(d.Config.LeaseTTLSeconds) * time.Second
	if err := d.Leases.Acquire(ctx, automationID, d.Owner, ttl); err != nil {
		if errors.Is(err, ErrLeaseHeld) {
			d.Logger.Info("run skipped, lease held elsewhere",
				zap.String("automation", automationID))
			return err
		}
		return fmt.Errorf("failed to acquire lease: %w", err)
	}
	defer func() {
		if err := d.Leases.Release(ctx, automationID, d.Owner); err != nil {
			d.Logger.Warn("failed to release lease",
				zap.String("automation", automationID), zap.Error(err))
		}
	}()
	return fn()
}

// deferConditionRecipients moves the newly matched members of a delayed
// condition trigger into the durable deferred queue instead of delivering
// immediately. Matched-state flags are still settled by the run that follows,
// so a member is not re-enqueued on the next poll.
func (d *Dispatcher) deferConditionRecipients(ctx context.Context, cfg *automation.AutomationConfig, res *resolution) error {
	trigger := cfg.TriggerConfig
	if cfg.TriggerType != automation.TriggerConditionBased || trigger == nil ||
		trigger.Condition == nil || trigger.Condition.DelayMinutes <= 0 {
		return nil
	}

	fireAt := d.Clock.Now().Add(time.Duration(trigger.Condition.DelayMinutes) * time.Minute)
	for _, rcpt := range res.Recipients {
		seed := fmt.Sprintf("%s:%s:%d", cfg.ID.Hex(), rcpt.MemberID, fireAt.UnixNano())
		if err := d.Deferred.Enqueue(ctx, &DeferredJob{
			Key:          uuid.NewSHA1(uuid.NameSpaceOID, []byte(seed)).String(),
			AutomationID: cfg.ID.Hex(),
			MemberID:     rcpt.MemberID,
			FireAt:       fireAt,
		}); err != nil {
			return fmt.Errorf("failed to defer delivery: %w", err)
		}
	}
	res.Recipients = nil
	return nil
}

// executeRun writes a run to the ledger, delivers to every recipient, and
// settles the automation's failure counters.
func (d *Dispatcher) executeRun(ctx context.Context, cfg *automation.AutomationConfig, res *resolution) error {
	runID, err := d.Runs.RecordAttempt(ctx, cfg.ID.Hex())
	if err != nil {
		return fmt.Errorf("failed to open run: %w", err)
	}

	for _, outcome := range res.Errors {
		if err := d.Runs.RecordOutcome(ctx, runID, outcome); err != nil {
			d.Logger.Warn("failed to record evaluation error", zap.Error(err))
		}
	}

	for _, rcpt := range res.Recipients {
		outcome := d.deliver(ctx, cfg, rcpt)
		if err := d.Runs.RecordOutcome(ctx, runID, outcome); err != nil {
			d.Logger.Warn("failed to record outcome",
				zap.String("member", rcpt.MemberID), zap.Error(err))
		}
		if outcome.Success {
			if err := d.Occurrences.RecordFire(ctx, cfg.ID.Hex(), rcpt.MemberID); err != nil {
				d.Logger.Warn("failed to record occurrence",
					zap.String("member", rcpt.MemberID), zap.Error(err))
			}
		}
	}

	// Members who stopped matching become eligible again on a later poll.
	for _, memberID := range res.Unmatched {
		if err := d.Occurrences.SetMatched(ctx, cfg.ID.Hex(), memberID, false); err != nil {
			d.Logger.Warn("failed to clear matched flag",
				zap.String("member", memberID), zap.Error(err))
		}
	}
	for _, memberID := range res.Matched {
		if err := d.Occurrences.SetMatched(ctx, cfg.ID.Hex(), memberID, true); err != nil {
			d.Logger.Warn("failed to set matched flag",
				zap.String("member", memberID), zap.Error(err))
		}
	}

	finished, err := d.Runs.Finalize(ctx, runID)
	if err != nil {
		return fmt.Errorf("failed to finalize run: %w", err)
	}

	return d.settleRun(ctx, cfg, finished)
}

// deliver sends one recipient over every configured channel, retrying each
// channel with exponential backoff. A recipient succeeds only if every
// channel went through.
func (d *Dispatcher) deliver(ctx context.Context, cfg *automation.AutomationConfig, rcpt recipient) run.RecipientOutcome {
	outcome := run.RecipientOutcome{
		MemberID: rcpt.MemberID,
		Success:  true,
		At:       d.Clock.Now(),
	}

	for _, channel := range cfg.Channels {
		if err := d.sendWithRetry(ctx, channel, cfg.TemplateID, rcpt.Record); err != nil {
			outcome.Success = false
			outcome.Error = fmt.Sprintf("%s: %v", channel, err)
			break
		}
	}
	return outcome
}

func (d *Dispatcher) sendWithRetry(ctx context.Context, channel common_models.Channel, templateID string, record map[string]interface{}) error {
	var lastErr error
	for attempt := 0; attempt < d.Config.SendRetries; attempt++ {
		if attempt > 0 {
			d.Sleep(time.Second << uint(attempt-1))
		}
		if lastErr = d.Sender.Send(ctx, channel, templateID, record); lastErr == nil {
			return nil
		}
	}
	return lastErr
}

// settleRun updates run timestamps and the consecutive-failure counter, and
// flips the config to ERROR when too many runs fail back to back.
func (d *Dispatcher) settleRun(ctx context.Context, cfg *automation.AutomationConfig, finished *run.AutomationRun) error {
	now := d.Clock.Now()
	nextRun := d.nextRun(cfg, now)
	if err := d.Automations.UpdateRunTimes(ctx, cfg.ID.Hex(), now, nextRun); err != nil {
		d.Logger.Warn("failed to update run times",
			zap.String("automation", cfg.ID.Hex()), zap.Error(err))
	}

	d.Audit.LogChange(ctx, common_models.AuditActionRun, "automation", cfg.ID.Hex(), map[string]common_models.Change{
		"run": {New: map[string]interface{}{
			"run_id":     finished.ID.Hex(),
			"status":     finished.Status,
			"recipients": finished.RecipientCount,
			"failures":   finished.FailureCount,
		}},
	})

	if finished.Status != run.RunFailed {
		if err := d.Automations.ResetFailures(ctx, cfg.ID.Hex()); err != nil {
			d.Logger.Warn("failed to reset failure counter", zap.Error(err))
		}
		return nil
	}

	count, err := d.Automations.BumpFailures(ctx, cfg.ID.Hex())
	if err != nil {
		return fmt.Errorf("failed to bump failure counter: %w", err)
	}
	if count >= d.Config.FailureThreshold {
		d.Logger.Error("automation exceeded failure threshold, marking ERROR",
			zap.String("automation", cfg.ID.Hex()),
			zap.Int("consecutive_failures", count))
		if err := d.Automations.SetStatus(ctx, cfg.ID.Hex(), automation.StatusError); err != nil {
			return fmt.Errorf("failed to mark automation errored: %w", err)
		}
	}
	return nil
}

// HandleEvent reacts to one domain event: every enabled EVENT_BASED config
// listening for the event type gets a chance to fire for the subject member.
func (d *Dispatcher) HandleEvent(ctx context.Context, ev event.DomainEvent) {
	configs, err := d.Automations.ListEnabled(ctx)
	if err != nil {
		d.Logger.Error("failed to list automations for event", zap.Error(err))
		return
	}

	for i := range configs {
		cfg := &configs[i]
		if cfg.TriggerType != automation.TriggerEventBased || cfg.Status == automation.StatusPaused {
			continue
		}
		trigger := cfg.TriggerConfig
		if trigger == nil || trigger.Event == nil || trigger.Event.EventType != ev.Type {
			continue
		}
		if err := d.handleEventFor(ctx, cfg, ev); err != nil {
			d.Logger.Error("event handling failed",
				zap.String("automation", cfg.ID.Hex()),
				zap.String("event", string(ev.Type)),
				zap.Error(err))
		}
	}
}

func (d *Dispatcher) handleEventFor(ctx context.Context, cfg *automation.AutomationConfig, ev event.DomainEvent) error {
	trigger := cfg.TriggerConfig.Event

	record, err := d.Members.GetRecord(ctx, ev.SubjectMemberID)
	if err != nil {
		return fmt.Errorf("failed to load subject member: %w", err)
	}

	matched, evalErr := condition.Evaluate(trigger.Conditions, record)
	if evalErr != nil {
		// An evaluation error is a recorded failure for this member, not a
		// crash of the event pipeline.
		return d.recordEvaluationFailure(ctx, cfg, ev.SubjectMemberID, evalErr)
	}
	if !matched {
		return nil
	}

	capped, err := d.occurrenceCapReached(ctx, cfg, ev.SubjectMemberID)
	if err != nil {
		return err
	}
	if capped {
		d.Logger.Debug("occurrence cap reached, skipping",
			zap.String("automation", cfg.ID.Hex()),
			zap.String("member", ev.SubjectMemberID))
		return nil
	}

	if trigger.DelayMinutes > 0 {
		fireAt := ev.OccurredAt.Add(time.Duration(trigger.DelayMinutes) * time.Minute)
		return d.Deferred.Enqueue(ctx, &DeferredJob{
			Key:          deferredKey(cfg.ID.Hex(), ev),
			AutomationID: cfg.ID.Hex(),
			MemberID:     ev.SubjectMemberID,
			FireAt:       fireAt,
		})
	}

	return d.fireSingle(ctx, cfg, ev.SubjectMemberID, record)
}

// RunDeferredJob fires a claimed deferred job. Enablement and the occurrence
// cap are re-checked at fire time; the config may have changed during the
// delay.
func (d *Dispatcher) RunDeferredJob(ctx context.Context, job *DeferredJob) error {
	cfg, err := d.Automations.GetByID(ctx, job.AutomationID)
	if err != nil {
		return err
	}
	if cfg == nil || !cfg.IsEnabled || cfg.Status == automation.StatusPaused {
		d.Logger.Info("deferred job dropped, automation no longer runnable",
			zap.String("automation", job.AutomationID))
		return nil
	}

	record, err := d.Members.GetRecord(ctx, job.MemberID)
	if err != nil {
		return fmt.Errorf("failed to load member: %w", err)
	}
	return d.fireSingle(ctx, cfg, job.MemberID, record)
}

// fireSingle runs a one-recipient delivery through the normal run ledger,
// serialized by the automation lease. The occurrence cap is re-checked under
// the lease so concurrent fires cannot race past maxOccurrences.
func (d *Dispatcher) fireSingle(ctx context.Context, cfg *automation.AutomationConfig, memberID string, record map[string]interface{}) error {
	return d.withLease(ctx, cfg.ID.Hex(), func() error {
		capped, err := d.occurrenceCapReached(ctx, cfg, memberID)
		if err != nil {
			return err
		}
		if capped {
			d.Logger.Debug("occurrence cap reached, skipping",
				zap.String("automation", cfg.ID.Hex()),
				zap.String("member", memberID))
			return nil
		}
		return d.executeRun(ctx, cfg, &resolution{
			Recipients: []recipient{{MemberID: memberID, Record: record}},
		})
	})
}

func (d *Dispatcher) recordEvaluationFailure(ctx context.Context, cfg *automation.AutomationConfig, memberID string, evalErr error) error {
	return d.withLease(ctx, cfg.ID.Hex(), func() error {
		return d.executeRun(ctx, cfg, &resolution{
			Errors: []run.RecipientOutcome{{
				MemberID: memberID,
				Success:  false,
				Error:    evalErr.Error(),
				At:       d.Clock.Now(),
			}},
		})
	})
}

// deferredKey is deterministic per (automation, member, event instance) so a
// replayed event cannot enqueue a second copy of the same delayed delivery.
func deferredKey(automationID string, ev event.DomainEvent) string {
	seed := fmt.Sprintf("%s:%s:%s:%d", automationID, ev.Type, ev.SubjectMemberID, ev.OccurredAt.UnixNano())
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(seed)).String()
}
