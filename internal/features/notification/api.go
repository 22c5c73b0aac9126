package notification

import (
	"go-chms/internal/common/api"
	"go-chms/internal/config"
	"go-chms/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type NotificationApi struct {
	service NotificationService
	config  *config.Config
}

func NewNotificationApi(service NotificationService, config *config.Config) api.Route {
	return &NotificationApi{service: service, config: config}
}

func (h *NotificationApi) Setup(app *fiber.App) {
	group := app.Group("/api/notifications", middleware.AuthMiddleware(h.config.SkipAuth))

	group.Get("/member/:memberId", h.listForMember)
	group.Post("/:id/read", h.markRead)
}

func (h *NotificationApi) listForMember(c *fiber.Ctx) error {
	notifications, err := h.service.ListForMember(c.UserContext(), c.Params("memberId"), int64(c.QueryInt("limit", 50)))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(notifications)
}

func (h *NotificationApi) markRead(c *fiber.Ctx) error {
	if err := h.service.MarkRead(c.UserContext(), c.Params("id")); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.SendStatus(fiber.StatusNoContent)
}
