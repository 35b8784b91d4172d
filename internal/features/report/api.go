package report

import (
	"facility-report/internal/common/api"
	"facility-report/internal/config"
	"facility-report/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type ReportApi struct {
	controller *ReportController
	config     *config.Config
}

func NewReportApi(controller *ReportController, config *config.Config) api.Route {
	return &ReportApi{
		controller: controller,
		config:     config,
	}
}

func (h *ReportApi) Setup(app *fiber.App) {
	auth := middleware.AuthMiddleware(h.config.SkipAuth)
	admin := middleware.AdminMiddleware()

	group := app.Group("/api/reports")

	group.Get("/", h.controller.List)
	group.Get("/counts", h.controller.Counts)
	group.Get("/export", auth, admin, h.controller.Export)
	group.Post("/", auth, h.controller.Create)
	group.Get("/:id", auth, h.controller.Get)
	group.Patch("/:id/status", auth, admin, h.controller.UpdateStatus)
	group.Patch("/:id", auth, h.controller.Update)
	group.Delete("/:id", auth, h.controller.Delete)

	// Uploaded images are served straight off disk
	app.Static(h.config.FSURL, h.config.FSPath)
}
