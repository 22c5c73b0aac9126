package automation

import (
	"github.com/gofiber/fiber/v2"
)

type AutomationController struct {
	Service AutomationService
}

func NewAutomationController(service AutomationService) *AutomationController {
	return &AutomationController{Service: service}
}

// CreateConfig godoc
// @Summary Create automation config
// @Description Create a new automation; the trigger config is validated against the field catalog before it is stored
// @Tags automation
// @Accept json
// @Produce json
// @Param config body AutomationConfig true "Automation Config"
// @Success 201 {object} AutomationConfig
// @Failure 400 {object} map[string]interface{}
// @Router /api/automations [post]
func (ctrl *AutomationController) CreateConfig(c *fiber.Ctx) error {
	var cfg AutomationConfig
	if err := c.BodyParser(&cfg); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	if err := ctrl.Service.CreateConfig(c.UserContext(), &cfg); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	return c.Status(fiber.StatusCreated).JSON(cfg)
}

// GetConfig godoc
// @Summary Get automation config
// @Tags automation
// @Produce json
// @Param id path string true "Automation ID"
// @Success 200 {object} AutomationConfig
// @Failure 404 {object} map[string]interface{}
// @Router /api/automations/{id} [get]
func (ctrl *AutomationController) GetConfig(c *fiber.Ctx) error {
	cfg, err := ctrl.Service.GetConfig(c.UserContext(), c.Params("id"))
	if err != nil || cfg == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Automation not found"})
	}
	return c.JSON(cfg)
}

// ListConfigs godoc
// @Summary List automation configs
// @Tags automation
// @Produce json
// @Success 200 {array} AutomationConfig
// @Router /api/automations [get]
func (ctrl *AutomationController) ListConfigs(c *fiber.Ctx) error {
	configs, err := ctrl.Service.ListConfigs(c.UserContext())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(configs)
}

// UpdateConfig godoc
// @Summary Update automation config
// @Tags automation
// @Accept json
// @Produce json
// @Param id path string true "Automation ID"
// @Param config body AutomationConfig true "Automation Config"
// @Success 200 {object} AutomationConfig
// @Failure 400 {object} map[string]interface{}
// @Router /api/automations/{id} [put]
func (ctrl *AutomationController) UpdateConfig(c *fiber.Ctx) error {
	var cfg AutomationConfig
	if err := c.BodyParser(&cfg); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	if err := ctrl.Service.UpdateConfig(c.UserContext(), &cfg); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(cfg)
}

// DeleteConfig godoc
// @Summary Delete automation config
// @Tags automation
// @Param id path string true "Automation ID"
// @Success 204 {object} nil
// @Router /api/automations/{id} [delete]
func (ctrl *AutomationController) DeleteConfig(c *fiber.Ctx) error {
	if err := ctrl.Service.DeleteConfig(c.UserContext(), c.Params("id")); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ToggleEnabled godoc
// @Summary Enable or disable an automation
// @Tags automation
// @Accept json
// @Param id path string true "Automation ID"
// @Success 204 {object} nil
// @Router /api/automations/{id}/toggle [post]
func (ctrl *AutomationController) ToggleEnabled(c *fiber.Ctx) error {
	var body struct {
		Enabled bool `json:"enabled"`
	}
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	if err := ctrl.Service.SetEnabled(c.UserContext(), c.Params("id"), body.Enabled); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Pause godoc
// @Summary Pause an automation
// @Tags automation
// @Param id path string true "Automation ID"
// @Success 204 {object} nil
// @Router /api/automations/{id}/pause [post]
func (ctrl *AutomationController) Pause(c *fiber.Ctx) error {
	if err := ctrl.Service.Pause(c.UserContext(), c.Params("id")); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Resume godoc
// @Summary Resume a paused automation
// @Tags automation
// @Param id path string true "Automation ID"
// @Success 204 {object} nil
// @Router /api/automations/{id}/resume [post]
func (ctrl *AutomationController) Resume(c *fiber.Ctx) error {
	if err := ctrl.Service.Resume(c.UserContext(), c.Params("id")); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// RunNow godoc
// @Summary Fire an automation immediately
// @Tags automation
// @Param id path string true "Automation ID"
// @Success 202 {object} nil
// @Router /api/automations/{id}/run [post]
func (ctrl *AutomationController) RunNow(c *fiber.Ctx) error {
	if err := ctrl.Service.RunNow(c.UserContext(), c.Params("id")); err != nil {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
	}
	return c.SendStatus(fiber.StatusAccepted)
}
