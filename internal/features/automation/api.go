package automation

import (
	"go-chms/internal/common/api"
	"go-chms/internal/config"
	"go-chms/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type AutomationApi struct {
	controller *AutomationController
	config     *config.Config
}

func NewAutomationApi(controller *AutomationController, config *config.Config) api.Route {
	return &AutomationApi{
		controller: controller,
		config:     config,
	}
}

func (h *AutomationApi) Setup(app *fiber.App) {
	group := app.Group("/api/automations", middleware.AuthMiddleware(h.config.SkipAuth))

	group.Get("/", h.controller.ListConfigs)
	group.Get("/:id", h.controller.GetConfig)
	group.Post("/", h.controller.CreateConfig)
	group.Put("/:id", h.controller.UpdateConfig)
	group.Delete("/:id", h.controller.DeleteConfig)
	group.Post("/:id/toggle", h.controller.ToggleEnabled)
	group.Post("/:id/pause", h.controller.Pause)
	group.Post("/:id/resume", h.controller.Resume)
	group.Post("/:id/run", h.controller.RunNow)
}
