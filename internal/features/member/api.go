package member

import (
	"go-chms/internal/common/api"
	"go-chms/internal/config"
	"go-chms/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type MemberApi struct {
	controller *MemberController
	config     *config.Config
}

func NewMemberApi(controller *MemberController, config *config.Config) api.Route {
	return &MemberApi{
		controller: controller,
		config:     config,
	}
}

func (h *MemberApi) Setup(app *fiber.App) {
	group := app.Group("/api/members", middleware.AuthMiddleware(h.config.SkipAuth))

	group.Get("/fields", h.controller.GetFieldCatalog)
	group.Get("/", h.controller.ListMembers)
	group.Get("/:id", h.controller.GetMember)
	group.Post("/", h.controller.CreateMember)
	group.Put("/:id", h.controller.UpdateMember)
	group.Delete("/:id", h.controller.DeleteMember)
}
