package member

import (
	"github.com/gofiber/fiber/v2"
)

type MemberController struct {
	Service MemberService
}

func NewMemberController(service MemberService) *MemberController {
	return &MemberController{Service: service}
}

// CreateMember godoc
// @Summary Create member
// @Tags members
// @Accept json
// @Produce json
// @Param member body Member true "Member"
// @Success 201 {object} Member
// @Router /api/members [post]
func (ctrl *MemberController) CreateMember(c *fiber.Ctx) error {
	var member Member
	if err := c.BodyParser(&member); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	if err := ctrl.Service.CreateMember(c.UserContext(), &member); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.Status(fiber.StatusCreated).JSON(member)
}

// GetMember godoc
// @Summary Get member by ID
// @Tags members
// @Produce json
// @Param id path string true "Member ID"
// @Success 200 {object} Member
// @Router /api/members/{id} [get]
func (ctrl *MemberController) GetMember(c *fiber.Ctx) error {
	member, err := ctrl.Service.GetMember(c.UserContext(), c.Params("id"))
	if err != nil || member == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Member not found"})
	}
	return c.JSON(member)
}

// ListMembers godoc
// @Summary List members
// @Tags members
// @Produce json
// @Success 200 {array} Member
// @Router /api/members [get]
func (ctrl *MemberController) ListMembers(c *fiber.Ctx) error {
	filter := map[string]interface{}{}
	if status := c.Query("membership_status"); status != "" {
		filter["membership_status"] = status
	}

	members, err := ctrl.Service.ListMembers(c.UserContext(), filter)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(members)
}

// UpdateMember godoc
// @Summary Update member
// @Tags members
// @Accept json
// @Produce json
// @Param id path string true "Member ID"
// @Success 200 {object} Member
// @Router /api/members/{id} [put]
func (ctrl *MemberController) UpdateMember(c *fiber.Ctx) error {
	var member Member
	if err := c.BodyParser(&member); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	if err := ctrl.Service.UpdateMember(c.UserContext(), &member); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(member)
}

// DeleteMember godoc
// @Summary Delete member
// @Tags members
// @Param id path string true "Member ID"
// @Success 204 {object} nil
// @Router /api/members/{id} [delete]
func (ctrl *MemberController) DeleteMember(c *fiber.Ctx) error {
	if err := ctrl.Service.DeleteMember(c.UserContext(), c.Params("id")); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// GetFieldCatalog godoc
// @Summary Field catalog for the condition builder
// @Tags members
// @Produce json
// @Success 200 {array} FieldDef
// @Router /api/members/fields [get]
func (ctrl *MemberController) GetFieldCatalog(c *fiber.Ctx) error {
	return c.JSON(FieldCatalog())
}
