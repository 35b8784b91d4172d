package auth

import (
	"errors"

	"facility-report/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type AuthController struct {
	AuthService AuthService
}

func NewAuthController(authService AuthService) *AuthController {
	return &AuthController{
		AuthService: authService,
	}
}

type CredentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type CheckEmailRequest struct {
	Email string `json:"email"`
}

// Register godoc
// @Summary      Register a new user
// @Description  Register with email and password; new accounts get the user role
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        input body CredentialsRequest true "Credentials"
// @Success      201  {object} map[string]interface{}
// @Failure      400  {object} map[string]interface{}
// @Failure      409  {object} map[string]interface{}
// @Router       /api/auth/register [post]
func (ctrl *AuthController) Register(c *fiber.Ctx) error {
	var req CredentialsRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
		})
	}

	if req.Email == "" || req.Password == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Email and password are required",
		})
	}

	usr, err := ctrl.AuthService.Register(c.UserContext(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, ErrEmailTaken) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"message": "Email already registered",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Failed to create user",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "User registered successfully",
		"user":    usr,
	})
}

// Login godoc
// @Summary      Login
// @Description  Login with email and password
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        input body CredentialsRequest true "Credentials"
// @Success      200  {object} map[string]interface{}
// @Failure      400  {object} map[string]interface{}
// @Failure      401  {object} map[string]interface{}
// @Router       /api/auth/login [post]
func (ctrl *AuthController) Login(c *fiber.Ctx) error {
	var req CredentialsRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
		})
	}

	token, usr, err := ctrl.AuthService.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"message": "Invalid credentials",
		})
	}

	return c.JSON(fiber.Map{
		"token": token,
		"user":  usr,
	})
}

// Verify godoc
// @Summary      Verify token
// @Description  Resolve the bearer token to the current user; the SPA calls this on mount
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object} map[string]interface{}
// @Failure      401  {object} map[string]interface{}
// @Router       /api/auth/verify [get]
func (ctrl *AuthController) Verify(c *fiber.Ctx) error {
	claims := middleware.Claims(c)

	usr, err := ctrl.AuthService.Verify(c.UserContext(), claims.UserID)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"message": "User not found",
		})
	}

	return c.JSON(fiber.Map{"user": usr})
}

// CheckEmail godoc
// @Summary      Check email availability
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        input body CheckEmailRequest true "Email"
// @Success      200  {object} map[string]interface{}
// @Failure      400  {object} map[string]interface{}
// @Router       /api/auth/check-email [post]
func (ctrl *AuthController) CheckEmail(c *fiber.Ctx) error {
	var req CheckEmailRequest
	if err := c.BodyParser(&req); err != nil || req.Email == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Email is required",
		})
	}

	exists, err := ctrl.AuthService.EmailExists(c.UserContext(), req.Email)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Failed to check email",
		})
	}

	return c.JSON(fiber.Map{"exists": exists})
}
