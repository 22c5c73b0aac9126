package run

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
)

type RunController struct {
	Repo RunRepository
}

func NewRunController(repo RunRepository) *RunController {
	return &RunController{Repo: repo}
}

// ListRuns godoc
// @Summary List runs for an automation
// @Description Run history newest first, per-recipient outcomes included
// @Tags runs
// @Produce json
// @Param id path string true "Automation ID"
// @Param limit query int false "Max runs to return" default(50)
// @Success 200 {array} AutomationRun
// @Router /api/automations/{id}/runs [get]
func (ctrl *RunController) ListRuns(c *fiber.Ctx) error {
	limit, err := strconv.ParseInt(c.Query("limit", "50"), 10, 64)
	if err != nil || limit <= 0 || limit > 500 {
		limit = 50
	}

	runs, err := ctrl.Repo.ListForAutomation(c.UserContext(), c.Params("id"), limit)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	if runs == nil {
		runs = []AutomationRun{}
	}
	return c.JSON(runs)
}

// GetRun godoc
// @Summary Get a single run
// @Tags runs
// @Produce json
// @Param runId path string true "Run ID"
// @Success 200 {object} AutomationRun
// @Failure 404 {object} map[string]interface{}
// @Router /api/runs/{runId} [get]
func (ctrl *RunController) GetRun(c *fiber.Ctx) error {
	r, err := ctrl.Repo.GetByID(c.UserContext(), c.Params("runId"))
	if err != nil || r == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Run not found"})
	}
	return c.JSON(r)
}
