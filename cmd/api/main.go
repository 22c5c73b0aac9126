package main

import (
	"context"
	"fmt"
	common_api "go-chms/internal/common/api"
	"go-chms/internal/config"
	"go-chms/internal/database"
	"go-chms/internal/features/audit"
	"go-chms/internal/features/automation"
	"go-chms/internal/features/event"
	"go-chms/internal/features/member"
	"go-chms/internal/features/messaging"
	"go-chms/internal/features/notification"
	"go-chms/internal/features/run"
	"go-chms/internal/features/scheduler"
	"go-chms/internal/features/template"
	"go-chms/internal/logger"
	"go-chms/internal/middleware"
	"go-chms/pkg/utils"
	"log"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

// NewFiberServer creates a new Fiber app instance
func NewFiberServer() *fiber.App {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error": err.Error(),
			})
		},
	})

	app.Use(middleware.CORSMiddleware())

	return app
}

// AsRoute is a helper function to reduce boilerplate.
// It tags the constructor so Fx knows to add it to the "routes" group.
func AsRoute(f any) any {
	return fx.Annotate(
		f,
		fx.As(new(common_api.Route)),
		fx.ResultTags(`group:"routes"`),
	)
}

// RegisterAllRoutes takes the group "routes" (slice of interfaces)
// and calls Setup() on each one.
func RegisterAllRoutes(app *fiber.App, routes []common_api.Route) {
	log.Printf("Registering %d routes...\n", len(routes))
	for _, route := range routes {
		route.Setup(app)
	}
	log.Println("All routes registered successfully")
}

// RegisterAllRoutesWithAnnotation wraps RegisterAllRoutes with fx annotations
var RegisterAllRoutesWithAnnotation = fx.Annotate(
	RegisterAllRoutes,
	fx.ParamTags(``, `group:"routes"`),
)

// StartServer creates a lifecycle hook to start Fiber in a goroutine
// and shut it down when the app exits.
func StartServer(lc fx.Lifecycle, app *fiber.App, cfg *config.Config) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			utils.SetSecret(cfg.JWTSecret)
			go func() {
				port := fmt.Sprintf(":%s", cfg.Port)
				if err := app.Listen(port); err != nil {
					log.Fatalf("Server failed to start: %v", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return app.Shutdown()
		},
	})
}

func main() {
	app := fx.New(
		fx.Provide(
			// Load Config
			config.LoadConfig,

			// Initialize Logger
			logger.NewLogger,

			// Initialize Fiber Server
			NewFiberServer,

			// Initialize Database
			database.NewDatabase,

			// Initialize Repository
			audit.NewAuditRepository,
			member.NewMemberRepository,
			template.NewTemplateRepository,
			notification.NewNotificationRepository,
			automation.NewAutomationRepository,
			run.NewRunRepository,
			run.NewOccurrenceRepository,
			scheduler.NewLeaseStore,
			scheduler.NewDeferredJobRepository,

			// Initialize Service
			audit.NewAuditService,
			member.NewMemberService,
			template.NewTemplateService,
			notification.NewNotificationService,
			automation.NewAutomationService,
			event.NewBus,

			// Delivery gateways; both satisfy messaging.Provider so they
			// carry names for Fx to tell them apart.
			fx.Annotate(messaging.NewSMSProvider, fx.ResultTags(`name:"smsProvider"`)),
			fx.Annotate(messaging.NewPushProvider, fx.ResultTags(`name:"pushProvider"`)),
			fx.Annotate(messaging.NewMessageSender,
				fx.ParamTags(``, ``, `name:"smsProvider"`, `name:"pushProvider"`, ``, ``)),

			// Trigger engine
			scheduler.NewDispatcher,
			scheduler.NewTriggerScheduler,

			// Interface Adapters to break circular dependencies and satisfy Fx
			func(s *scheduler.TriggerScheduler) automation.Scheduler { return s },

			// Initialize Controller
			member.NewMemberController,
			template.NewTemplateController,
			automation.NewAutomationController,
			run.NewRunController,

			// Initialize API Routes
			AsRoute(member.NewMemberApi),
			AsRoute(template.NewTemplateApi),
			AsRoute(notification.NewNotificationApi),
			AsRoute(audit.NewAuditApi),
			AsRoute(automation.NewAutomationApi),
			AsRoute(run.NewRunApi),
			AsRoute(event.NewEventApi),
		),
		fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: log}
		}),
		fx.Invoke(
			// Register Routes & Start
			RegisterAllRoutesWithAnnotation,
			StartServer,
			func(lc fx.Lifecycle, s *scheduler.TriggerScheduler) {
				lc.Append(fx.Hook{
					OnStart: func(ctx context.Context) error {
						return s.InitializeScheduler(ctx)
					},
					OnStop: func(ctx context.Context) error {
						return s.StopScheduler()
					},
				})
			},
		),
	)

	app.Run()
}
