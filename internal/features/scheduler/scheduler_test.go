package scheduler

import (
	"context"
	"testing"
	"time"

	"go-chms/internal/features/automation"
	"go-chms/internal/features/event"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

func newTestScheduler(f *fixture) *TriggerScheduler {
	s := NewTriggerScheduler(f.automations, f.dispatcher, nil, testConfig(), zap.NewNop())
	s.scheduler = cron.New()
	return s
}

func TestRegisterReplacesExistingEntry(t *testing.T) {
	cfg := timeBasedConfig()
	f := newFixture([]*automation.AutomationConfig{cfg})
	s := newTestScheduler(f)

	if err := s.Register(cfg); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	// A second enable of an already-enabled automation registers again; the
	// old entry must be replaced, not stacked.
	if err := s.Register(cfg); err != nil {
		t.Fatalf("second Register failed: %v", err)
	}

	if got := len(s.scheduler.Entries()); got != 1 {
		t.Errorf("expected 1 cron entry after re-register, got %d", got)
	}
	if got := len(s.jobEntries); got != 1 {
		t.Errorf("expected 1 tracked entry, got %d", got)
	}

	s.Unregister(cfg.ID.Hex())
	if got := len(s.scheduler.Entries()); got != 0 {
		t.Errorf("expected 0 cron entries after unregister, got %d", got)
	}
}

func TestRegisterSkipsEventConfigs(t *testing.T) {
	cfg := eventConfig(event.EventFirstVisit, 0, nil)
	f := newFixture([]*automation.AutomationConfig{cfg})
	s := newTestScheduler(f)

	if err := s.Register(cfg); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if got := len(s.scheduler.Entries()); got != 0 {
		t.Errorf("event configs have no schedule, expected 0 entries, got %d", got)
	}
}

func TestDrainDeferredFiresDueJobs(t *testing.T) {
	cfg := eventConfig(event.EventFirstVisit, 30, nil)
	f := newFixture([]*automation.AutomationConfig{cfg}, memberRecord("m1", 0))
	s := newTestScheduler(f)

	f.deferred.Enqueue(context.Background(), &DeferredJob{
		Key:          "k1",
		AutomationID: cfg.ID.Hex(),
		MemberID:     "m1",
		FireAt:       time.Now().Add(-time.Minute),
	})

	s.drainDeferred()

	if got := f.sender.sentTo("m1"); got != 1 {
		t.Errorf("expected 1 message after sweep, got %d", got)
	}
	if f.deferred.jobs[0].Status != DeferredDone {
		t.Errorf("expected job DONE, got %s", f.deferred.jobs[0].Status)
	}

	// A second sweep finds nothing left to do.
	s.drainDeferred()
	if got := f.sender.sentTo("m1"); got != 1 {
		t.Errorf("expected no second delivery, got %d", got)
	}
}

func TestDrainDeferredSparesFreshlyClaimedJobs(t *testing.T) {
	cfg := eventConfig(event.EventFirstVisit, 30, nil)
	f := newFixture([]*automation.AutomationConfig{cfg}, memberRecord("m1", 0))
	s := newTestScheduler(f)

	// A long-overdue job claimed by another dispatcher moments ago. Its
	// fire_at is far in the past, but the claim is fresh, so the sweep must
	// not treat it as stranded and fire it a second time.
	job := &DeferredJob{
		Key:          "k1",
		AutomationID: cfg.ID.Hex(),
		MemberID:     "m1",
		FireAt:       time.Now().Add(-2 * time.Hour),
	}
	f.deferred.Enqueue(context.Background(), job)
	claimed, err := f.deferred.Claim(context.Background(), time.Now())
	if err != nil || claimed == nil {
		t.Fatalf("Claim failed: %v", err)
	}

	s.drainDeferred()

	if got := f.sender.sentTo("m1"); got != 0 {
		t.Errorf("job still running elsewhere must not be re-fired, got %d sends", got)
	}
	if claimed.Status != DeferredRunning {
		t.Errorf("expected job to stay RUNNING, got %s", claimed.Status)
	}

	// Once the claim is older than the lease TTL the job really is
	// stranded and the sweep reclaims it.
	stale := time.Now().Add(-time.Duration(testConfig().LeaseTTLSeconds+60) * time.Second)
	claimed.ClaimedAt = &stale

	s.drainDeferred()

	if got := f.sender.sentTo("m1"); got != 1 {
		t.Errorf("expected stranded job to fire once reclaimed, got %d sends", got)
	}
	if claimed.Status != DeferredDone {
		t.Errorf("expected reclaimed job DONE, got %s", claimed.Status)
	}
}
