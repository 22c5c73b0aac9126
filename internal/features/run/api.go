package run

import (
	"go-chms/internal/common/api"
	"go-chms/internal/config"
	"go-chms/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type RunApi struct {
	controller *RunController
	config     *config.Config
}

func NewRunApi(controller *RunController, config *config.Config) api.Route {
	return &RunApi{
		controller: controller,
		config:     config,
	}
}

func (h *RunApi) Setup(app *fiber.App) {
	auth := middleware.AuthMiddleware(h.config.SkipAuth)

	app.Get("/api/automations/:id/runs", auth, h.controller.ListRuns)
	app.Get("/api/runs/:runId", auth, h.controller.GetRun)
}
