package auth

import (
	"facility-report/internal/common/api"
	"facility-report/internal/config"
	"facility-report/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type AuthApi struct {
	controller *AuthController
	config     *config.Config
}

func NewAuthApi(controller *AuthController, config *config.Config) api.Route {
	return &AuthApi{
		controller: controller,
		config:     config,
	}
}

// Setup registers all auth-related routes
func (h *AuthApi) Setup(app *fiber.App) {
	group := app.Group("/api/auth")

	group.Post("/register", h.controller.Register)
	group.Post("/login", h.controller.Login)
	group.Post("/check-email", h.controller.CheckEmail)
	group.Get("/verify", middleware.AuthMiddleware(h.config.SkipAuth), h.controller.Verify)
}
