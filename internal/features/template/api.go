package template

import (
	"go-chms/internal/common/api"
	"go-chms/internal/config"
	"go-chms/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type TemplateApi struct {
	controller *TemplateController
	config     *config.Config
}

func NewTemplateApi(controller *TemplateController, config *config.Config) api.Route {
	return &TemplateApi{
		controller: controller,
		config:     config,
	}
}

func (h *TemplateApi) Setup(app *fiber.App) {
	group := app.Group("/api/templates", middleware.AuthMiddleware(h.config.SkipAuth))

	group.Get("/", h.controller.ListTemplates)
	group.Get("/:id", h.controller.GetTemplate)
	group.Post("/", h.controller.CreateTemplate)
	group.Put("/:id", h.controller.UpdateTemplate)
	group.Delete("/:id", h.controller.DeleteTemplate)
}
