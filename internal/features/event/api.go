package event

import (
	"go-chms/internal/common/api"
	"go-chms/internal/config"
	"go-chms/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type EventApi struct {
	bus    *Bus
	config *config.Config
}

func NewEventApi(bus *Bus, config *config.Config) api.Route {
	return &EventApi{bus: bus, config: config}
}

func (h *EventApi) Setup(app *fiber.App) {
	group := app.Group("/api/events", middleware.AuthMiddleware(h.config.SkipAuth))

	group.Post("/", h.ingest)
}

// ingest accepts a domain event from the upstream API layer and feeds it to
// the automation scheduler.
func (h *EventApi) ingest(c *fiber.Ctx) error {
	var ev DomainEvent
	if err := c.BodyParser(&ev); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if !ev.Type.Valid() {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Unknown event type"})
	}
	if ev.SubjectMemberID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "subject_member_id is required"})
	}

	h.bus.Publish(ev)
	return c.SendStatus(fiber.StatusAccepted)
}
