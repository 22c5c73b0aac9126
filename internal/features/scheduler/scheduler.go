package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go-chms/internal/config"
	"go-chms/internal/features/automation"
	"go-chms/internal/features/event"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// TriggerScheduler owns the cron entries for TIME_BASED schedules and
// CONDITION_BASED check intervals, consumes the domain event feed, and
// sweeps the deferred-job queue. EVENT_BASED configs have no cron entry.
type TriggerScheduler struct {
	Automations automation.AutomationRepository
	Dispatcher  *Dispatcher
	Bus         *event.Bus
	Config      *config.Config
	Logger      *zap.Logger

	scheduler  *cron.Cron
	jobEntries map[string]cron.EntryID
	mu         sync.RWMutex

	stop chan struct{}
	wg   sync.WaitGroup
}

func NewTriggerScheduler(
	automations automation.AutomationRepository,
	dispatcher *Dispatcher,
	bus *event.Bus,
	cfg *config.Config,
	logger *zap.Logger,
) *TriggerScheduler {
	return &TriggerScheduler{
		Automations: automations,
		Dispatcher:  dispatcher,
		Bus:         bus,
		Config:      cfg,
		Logger:      logger,
		jobEntries:  make(map[string]cron.EntryID),
		stop:        make(chan struct{}),
	}
}

// InitializeScheduler loads every enabled automation, registers its cron
// entry if it has one, and starts the event consumer and deferred sweep.
func (s *TriggerScheduler) InitializeScheduler(ctx context.Context) error {
	s.Logger.Info("initializing trigger scheduler")

	s.scheduler = cron.New()

	configs, err := s.Automations.ListEnabled(ctx)
	if err != nil {
		return fmt.Errorf("failed to load enabled automations: %w", err)
	}
	s.Logger.Info("loaded automations to schedule", zap.Int("count", len(configs)))

	for i := range configs {
		cfg := &configs[i]
		if err := s.Register(cfg); err != nil {
			s.Logger.Error("failed to register automation",
				zap.String("automation", cfg.ID.Hex()), zap.Error(err))
		}
	}

	s.scheduler.Start()

	s.wg.Add(2)
	go s.consumeEvents()
	go s.sweepDeferred()

	s.Logger.Info("trigger scheduler started")
	return nil
}

func (s *TriggerScheduler) StopScheduler() error {
	close(s.stop)
	if s.scheduler != nil {
		s.Logger.Info("stopping trigger scheduler")
		ctx := s.scheduler.Stop()
		<-ctx.Done()
	}
	s.wg.Wait()
	s.Logger.Info("trigger scheduler stopped")
	return nil
}

// Register adds the cron entry for a config's schedule, if it has one.
func (s *TriggerScheduler) Register(cfg *automation.AutomationConfig) error {
	expr := cronExpr(cfg)
	if expr == "" {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.scheduler == nil {
		return fmt.Errorf("scheduler not initialized")
	}

	automationID := cfg.ID.Hex()

	// Re-registering replaces the existing entry; otherwise a repeated
	// enable would stack a second cron entry for the same automation.
	if existing, ok := s.jobEntries[automationID]; ok {
		s.scheduler.Remove(existing)
		delete(s.jobEntries, automationID)
	}

	jobFunc := func() {
		ctx := context.Background()

		// Always dispatch the stored version, not the one captured at
		// registration time.
		latest, err := s.Automations.GetByID(ctx, automationID)
		if err != nil {
			s.Logger.Error("failed to fetch automation for tick",
				zap.String("automation", automationID), zap.Error(err))
			return
		}
		if latest == nil || !latest.IsEnabled ||
			latest.Status == automation.StatusPaused || latest.Status == automation.StatusError {
			s.Logger.Debug("tick skipped, automation not runnable",
				zap.String("automation", automationID))
			return
		}

		if err := s.Dispatcher.DispatchRun(ctx, latest); err != nil {
			s.Logger.Error("scheduled run failed",
				zap.String("automation", automationID), zap.Error(err))
		}
	}

	entryID, err := s.scheduler.AddFunc(expr, jobFunc)
	if err != nil {
		return fmt.Errorf("failed to add automation to scheduler: %w", err)
	}

	s.jobEntries[automationID] = entryID
	s.Logger.Info("registered automation",
		zap.String("automation", automationID),
		zap.String("schedule", expr))
	return nil
}

func (s *TriggerScheduler) Unregister(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.scheduler == nil {
		return
	}
	if entryID, exists := s.jobEntries[id]; exists {
		s.scheduler.Remove(entryID)
		delete(s.jobEntries, id)
		s.Logger.Info("unregistered automation", zap.String("automation", id))
	}
}

// RunNow fires an automation outside of its schedule.
func (s *TriggerScheduler) RunNow(ctx context.Context, id string) error {
	cfg, err := s.Automations.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if cfg == nil {
		return fmt.Errorf("automation not found")
	}
	return s.Dispatcher.DispatchRun(ctx, cfg)
}

func (s *TriggerScheduler) consumeEvents() {
	defer s.wg.Done()
	for {
		select {
		case <-s.stop:
			return
		case ev := <-s.Bus.Events():
			s.Dispatcher.HandleEvent(context.Background(), ev)
		}
	}
}

// sweepDeferred drains due deferred jobs on a fixed cadence and requeues
// jobs stranded in RUNNING by a crashed dispatcher.
func (s *TriggerScheduler) sweepDeferred() {
	defer s.wg.Done()

	interval := time.Duration(s.Config.DeferredPollSeconds) * time.Second
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.drainDeferred()
		}
	}
}

func (s *TriggerScheduler) drainDeferred() {
	ctx := context.Background()

	staleCutoff := time.Now().Add(-time.Duration(s.Config.LeaseTTLSeconds) * time.Second)
	if n, err := s.Dispatcher.Deferred.RequeueStale(ctx, staleCutoff); err != nil {
		s.Logger.Warn("failed to requeue stale deferred jobs", zap.Error(err))
	} else if n > 0 {
		s.Logger.Info("requeued stale deferred jobs", zap.Int64("count", n))
	}

	for {
		job, err := s.Dispatcher.Deferred.Claim(ctx, time.Now())
		if err != nil {
			s.Logger.Error("failed to claim deferred job", zap.Error(err))
			return
		}
		if job == nil {
			return
		}

		if err := s.Dispatcher.RunDeferredJob(ctx, job); err != nil {
			s.Logger.Error("deferred job failed",
				zap.String("automation", job.AutomationID),
				zap.String("member", job.MemberID),
				zap.Error(err))
			if err := s.Dispatcher.Deferred.MarkFailed(ctx, job.ID, err.Error()); err != nil {
				s.Logger.Warn("failed to mark deferred job failed", zap.Error(err))
			}
			continue
		}
		if err := s.Dispatcher.Deferred.MarkDone(ctx, job.ID); err != nil {
			s.Logger.Warn("failed to mark deferred job done", zap.Error(err))
		}
	}
}

// cronExpr returns the cron expression driving a config, empty for
// event-driven configs.
func cronExpr(cfg *automation.AutomationConfig) string {
	switch cfg.TriggerType {
	case automation.TriggerTimeBased:
		return cfg.Schedule
	case automation.TriggerConditionBased:
		if cfg.TriggerConfig != nil && cfg.TriggerConfig.Condition != nil {
			return cfg.TriggerConfig.Condition.CheckInterval
		}
	}
	return ""
}
