package main

import (
	"context"
	"fmt"
	"log"
	"time"

	common_api "facility-report/internal/common/api"
	"facility-report/internal/config"
	"facility-report/internal/database"
	"facility-report/internal/events"
	"facility-report/internal/features/auth"
	"facility-report/internal/features/report"
	"facility-report/internal/features/system"
	"facility-report/internal/features/upload"
	"facility-report/internal/features/user"
	"facility-report/internal/logger"
	"facility-report/internal/middleware"
	"facility-report/pkg/utils"

	_ "facility-report/docs" // Import swagger docs

	"github.com/gofiber/fiber/v2"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

// NewFiberServer creates a new Fiber app instance
func NewFiberServer(cfg *config.Config) *fiber.App {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		BodyLimit:             12 * 1024 * 1024,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"message": err.Error(),
			})
		},
	})

	app.Use(middleware.CORSMiddleware(cfg.AllowOrigins))

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
	for _, route := range routes {
		route.Setup(app)
	}
	log.Printf("Registered %d routes\n", len(routes))
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

// InitializeIndexes ensures that necessary database indexes are created
func InitializeIndexes(lc fx.Lifecycle, reportRepo report.ReportRepository, userRepo user.UserRepository) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
				defer cancel()

				if err := reportRepo.EnsureIndexes(ctx); err != nil {
					log.Printf("Failed to ensure report indexes: %v", err)
				}
				if err := userRepo.EnsureIndexes(ctx); err != nil {
					log.Printf("Failed to ensure user indexes: %v", err)
				}
			}()
			return nil
		},
	})
}

// @title           Facility Report API
// @version         1.0
// @description     University facility-maintenance reporting portal

// @host            localhost:5000
// @BasePath        /

// @securityDefinitions.apikey BearerAuth
// @in              header
// @name            Authorization
func main() {
	app := fx.New(
		fx.Provide(
			config.LoadConfig,
			logger.NewLogger,
			NewFiberServer,
			database.NewDatabase,

			events.NewBus,
			upload.NewStorage,
			upload.NewSweeper,

			user.NewUserRepository,
			report.NewReportRepository,

			auth.NewAuthService,
			report.NewReportService,

			// Interface adapter: the report repository backs the orphan sweep
			func(r report.ReportRepository) upload.ImageRefLister { return r },

			auth.NewAuthController,
			report.NewReportController,
			system.NewWebSocketController,

			AsRoute(auth.NewAuthApi),
			AsRoute(report.NewReportApi),
			AsRoute(system.NewWebSocketApi),
			AsRoute(system.NewHealthApi),
			AsRoute(system.NewSwaggerApi),
		),
		fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: log}
		}),
		fx.Invoke(
			func(cfg *config.Config) {
				utils.SetSecret(cfg.JWTSecret)
			},
			RegisterAllRoutesWithAnnotation,
			StartServer,
			func(lc fx.Lifecycle, sweeper *upload.Sweeper) {
				lc.Append(fx.Hook{
					OnStart: func(ctx context.Context) error {
						return sweeper.Start(ctx)
					},
					OnStop: func(ctx context.Context) error {
						return sweeper.Stop()
					},
				})
			},
			InitializeIndexes,
		),
	)

	app.Run()
}
