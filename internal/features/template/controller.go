package template

import (
	"github.com/gofiber/fiber/v2"
)

type TemplateController struct {
	Service TemplateService
}

func NewTemplateController(service TemplateService) *TemplateController {
	return &TemplateController{Service: service}
}

// CreateTemplate godoc
// @Summary Create message template
// @Tags templates
// @Accept json
// @Produce json
// @Param template body MessageTemplate true "Message Template"
// @Success 201 {object} MessageTemplate
// @Router /api/templates [post]
func (ctrl *TemplateController) CreateTemplate(c *fiber.Ctx) error {
	var tpl MessageTemplate
	if err := c.BodyParser(&tpl); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	if err := ctrl.Service.CreateTemplate(c.UserContext(), &tpl); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	return c.Status(fiber.StatusCreated).JSON(tpl)
}

// GetTemplate godoc
// @Summary Get message template
// @Tags templates
// @Produce json
// @Param id path string true "Template ID"
// @Success 200 {object} MessageTemplate
// @Router /api/templates/{id} [get]
func (ctrl *TemplateController) GetTemplate(c *fiber.Ctx) error {
	tpl, err := ctrl.Service.GetTemplate(c.UserContext(), c.Params("id"))
	if err != nil || tpl == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Template not found"})
	}
	return c.JSON(tpl)
}

// ListTemplates godoc
// @Summary List message templates
// @Tags templates
// @Produce json
// @Success 200 {array} MessageTemplate
// @Router /api/templates [get]
func (ctrl *TemplateController) ListTemplates(c *fiber.Ctx) error {
	templates, err := ctrl.Service.ListTemplates(c.UserContext())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(templates)
}

// UpdateTemplate godoc
// @Summary Update message template
// @Tags templates
// @Accept json
// @Produce json
// @Param id path string true "Template ID"
// @Success 200 {object} MessageTemplate
// @Router /api/templates/{id} [put]
func (ctrl *TemplateController) UpdateTemplate(c *fiber.Ctx) error {
	var tpl MessageTemplate
	if err := c.BodyParser(&tpl); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	if err := ctrl.Service.UpdateTemplate(c.UserContext(), &tpl); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(tpl)
}

// DeleteTemplate godoc
// @Summary Delete message template
// @Tags templates
// @Param id path string true "Template ID"
// @Success 204 {object} nil
// @Router /api/templates/{id} [delete]
func (ctrl *TemplateController) DeleteTemplate(c *fiber.Ctx) error {
	if err := ctrl.Service.DeleteTemplate(c.UserContext(), c.Params("id")); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.SendStatus(fiber.StatusNoContent)
}
