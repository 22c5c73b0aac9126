package template

import (
	"context"
	"fmt"

	common_models "go-chms/internal/common/models"
	"go-chms/internal/features/audit"
	"go-chms/pkg/utils"
)

type TemplateService interface {
	CreateTemplate(ctx context.Context, tpl *MessageTemplate) error
	GetTemplate(ctx context.Context, id string) (*MessageTemplate, error)
	ListTemplates(ctx context.Context) ([]MessageTemplate, error)
	UpdateTemplate(ctx context.Context, tpl *MessageTemplate) error
	DeleteTemplate(ctx context.Context, id string) error
}

type TemplateServiceImpl struct {
	Repo         TemplateRepository
	AuditService audit.AuditService
}

func NewTemplateService(repo TemplateRepository, auditService audit.AuditService) TemplateService {
	return &TemplateServiceImpl{
		Repo:         repo,
		AuditService: auditService,
	}
}

func (s *TemplateServiceImpl) CreateTemplate(ctx context.Context, tpl *MessageTemplate) error {
	if tpl.Name == "" {
		return fmt.Errorf("template name is required")
	}
	if tpl.Slug == "" {
		tpl.Slug = utils.Slugify(tpl.Name)
	}
	for _, ch := range tpl.Channels {
		if !ch.Valid() {
			return fmt.Errorf("unknown channel %q", ch)
		}
	}

	err := s.Repo.Create(ctx, tpl)
	if err == nil {
		s.AuditService.LogChange(ctx, common_models.AuditActionTemplate, "template", tpl.ID.Hex(), map[string]common_models.Change{
			"template": {New: tpl},
		})
	}
	return err
}

func (s *TemplateServiceImpl) GetTemplate(ctx context.Context, id string) (*MessageTemplate, error) {
	return s.Repo.GetByID(ctx, id)
}

func (s *TemplateServiceImpl) ListTemplates(ctx context.Context) ([]MessageTemplate, error) {
	return s.Repo.List(ctx)
}

func (s *TemplateServiceImpl) UpdateTemplate(ctx context.Context, tpl *MessageTemplate) error {
	oldTpl, _ := s.GetTemplate(ctx, tpl.ID.Hex())

	err := s.Repo.Update(ctx, tpl)
	if err == nil {
		s.AuditService.LogChange(ctx, common_models.AuditActionTemplate, "template", tpl.ID.Hex(), map[string]common_models.Change{
			"template": {Old: oldTpl, New: tpl},
		})
	}
	return err
}

func (s *TemplateServiceImpl) DeleteTemplate(ctx context.Context, id string) error {
	oldTpl, _ := s.GetTemplate(ctx, id)

	err := s.Repo.Delete(ctx, id)
	if err == nil {
		s.AuditService.LogChange(ctx, common_models.AuditActionTemplate, "template", id, map[string]common_models.Change{
			"template": {Old: oldTpl, New: "DELETED"},
		})
	}
	return err
}
