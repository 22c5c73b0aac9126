package audit

import (
	"go-chms/internal/common/api"
	"go-chms/internal/config"
	"go-chms/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type AuditApi struct {
	service AuditService
	config  *config.Config
}

func NewAuditApi(service AuditService, config *config.Config) api.Route {
	return &AuditApi{service: service, config: config}
}

func (h *AuditApi) Setup(app *fiber.App) {
	group := app.Group("/api/audit", middleware.AuthMiddleware(h.config.SkipAuth))

	group.Get("/logs", h.listLogs)
}

func (h *AuditApi) listLogs(c *fiber.Ctx) error {
	filters := map[string]interface{}{}
	if module := c.Query("module"); module != "" {
		filters["module"] = module
	}
	if action := c.Query("action"); action != "" {
		filters["action"] = action
	}

	page := int64(c.QueryInt("page", 1))
	limit := int64(c.QueryInt("limit", 50))

	logs, err := h.service.ListLogs(c.UserContext(), filters, page, limit)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(logs)
}
