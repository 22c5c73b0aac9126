package automation

import (
	"context"
	"fmt"

	common_models "go-chms/internal/common/models"
	"go-chms/internal/features/audit"
	"go-chms/internal/features/member"

	"go.uber.org/zap"
)

// Scheduler is the slice of the trigger scheduler the CRUD service needs: it
// re-registers a config after writes so cron entries stay in sync.
type Scheduler interface {
	Register(cfg *AutomationConfig) error
	Unregister(id string)
	RunNow(ctx context.Context, id string) error
}

type AutomationService interface {
	CreateConfig(ctx context.Context, cfg *AutomationConfig) error
	GetConfig(ctx context.Context, id string) (*AutomationConfig, error)
	ListConfigs(ctx context.Context) ([]AutomationConfig, error)
	UpdateConfig(ctx context.Context, cfg *AutomationConfig) error
	DeleteConfig(ctx context.Context, id string) error
	SetEnabled(ctx context.Context, id string, enabled bool) error
	Pause(ctx context.Context, id string) error
	Resume(ctx context.Context, id string) error
	RunNow(ctx context.Context, id string) error
}

type AutomationServiceImpl struct {
	Repo         AutomationRepository
	Scheduler    Scheduler
	AuditService audit.AuditService
	Logger       *zap.Logger
}

func NewAutomationService(repo AutomationRepository, scheduler Scheduler, auditService audit.AuditService, logger *zap.Logger) AutomationService {
	return &AutomationServiceImpl{
		Repo:         repo,
		Scheduler:    scheduler,
		AuditService: auditService,
		Logger:       logger,
	}
}

func (s *AutomationServiceImpl) CreateConfig(ctx context.Context, cfg *AutomationConfig) error {
	if err := Validate(cfg, member.FieldTypes()); err != nil {
		return err
	}

	if cfg.IsEnabled {
		cfg.Status = StatusActive
	} else {
		cfg.Status = StatusInactive
	}

	if err := s.Repo.Create(ctx, cfg); err != nil {
		return err
	}

	s.AuditService.LogChange(ctx, common_models.AuditActionAutomation, "automation", cfg.ID.Hex(), map[string]common_models.Change{
		"config": {New: cfg},
	})

	if cfg.IsEnabled {
		if err := s.Scheduler.Register(cfg); err != nil {
			s.Logger.Error("failed to register automation", zap.String("id", cfg.ID.Hex()), zap.Error(err))
		}
	}
	return nil
}

func (s *AutomationServiceImpl) GetConfig(ctx context.Context, id string) (*AutomationConfig, error) {
	return s.Repo.GetByID(ctx, id)
}

func (s *AutomationServiceImpl) ListConfigs(ctx context.Context) ([]AutomationConfig, error) {
	return s.Repo.List(ctx)
}

func (s *AutomationServiceImpl) UpdateConfig(ctx context.Context, cfg *AutomationConfig) error {
	if err := Validate(cfg, member.FieldTypes()); err != nil {
		return err
	}

	oldCfg, _ := s.GetConfig(ctx, cfg.ID.Hex())

	if err := s.Repo.Update(ctx, cfg); err != nil {
		return err
	}

	s.AuditService.LogChange(ctx, common_models.AuditActionAutomation, "automation", cfg.ID.Hex(), map[string]common_models.Change{
		"config": {Old: oldCfg, New: cfg},
	})

	s.Scheduler.Unregister(cfg.ID.Hex())
	if cfg.IsEnabled {
		if err := s.Scheduler.Register(cfg); err != nil {
			s.Logger.Error("failed to re-register automation", zap.String("id", cfg.ID.Hex()), zap.Error(err))
		}
	}
	return nil
}

func (s *AutomationServiceImpl) DeleteConfig(ctx context.Context, id string) error {
	oldCfg, _ := s.GetConfig(ctx, id)

	s.Scheduler.Unregister(id)
	err := s.Repo.Delete(ctx, id)
	if err == nil {
		name := id
		if oldCfg != nil {
			name = oldCfg.Name
		}
		s.AuditService.LogChange(ctx, common_models.AuditActionAutomation, "automation", name, map[string]common_models.Change{
			"config": {Old: oldCfg, New: "DELETED"},
		})
	}
	return err
}

func (s *AutomationServiceImpl) SetEnabled(ctx context.Context, id string, enabled bool) error {
	if err := s.Repo.SetEnabled(ctx, id, enabled); err != nil {
		return err
	}

	s.AuditService.LogChange(ctx, common_models.AuditActionAutomation, "automation", id, map[string]common_models.Change{
		"is_enabled": {New: enabled},
	})

	if !enabled {
		s.Scheduler.Unregister(id)
		return nil
	}

	cfg, err := s.GetConfig(ctx, id)
	if err != nil {
		return err
	}
	if cfg == nil {
		return fmt.Errorf("automation %s not found", id)
	}
	return s.Scheduler.Register(cfg)
}

func (s *AutomationServiceImpl) Pause(ctx context.Context, id string) error {
	if err := s.Repo.SetStatus(ctx, id, StatusPaused); err != nil {
		return err
	}
	s.Scheduler.Unregister(id)
	s.AuditService.LogChange(ctx, common_models.AuditActionAutomation, "automation", id, map[string]common_models.Change{
		"status": {New: StatusPaused},
	})
	return nil
}

func (s *AutomationServiceImpl) Resume(ctx context.Context, id string) error {
	cfg, err := s.GetConfig(ctx, id)
	if err != nil {
		return err
	}
	if cfg == nil {
		return fmt.Errorf("automation %s not found", id)
	}
	if !cfg.IsEnabled {
		return fmt.Errorf("automation %s is disabled; enable it instead", id)
	}
	if err := s.Repo.SetStatus(ctx, id, StatusActive); err != nil {
		return err
	}
	s.AuditService.LogChange(ctx, common_models.AuditActionAutomation, "automation", id, map[string]common_models.Change{
		"status": {New: StatusActive},
	})
	return s.Scheduler.Register(cfg)
}

func (s *AutomationServiceImpl) RunNow(ctx context.Context, id string) error {
	return s.Scheduler.RunNow(ctx, id)
}
