package handlers

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/localnerve/compliance-registry/internal/middleware"
	"github.com/localnerve/compliance-registry/internal/models"
	"github.com/localnerve/compliance-registry/internal/services"
	"github.com/localnerve/compliance-registry/internal/utils"
	"gorm.io/gorm"
)

// AuthHandler handles signup, login, logout and identity routes
type AuthHandler struct {
	DB       *gorm.DB
	Sessions *services.SessionStore
}

// credentials is the signup/login request payload.
type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// sessionResponse matches the auth response shape the client expects.
type sessionResponse struct {
	User    models.AuthUser `json:"user"`
	Session struct {
		AccessToken string          `json:"access_token"`
		User        models.AuthUser `json:"user"`
	} `json:"session"`
}

func newSessionResponse(user models.AuthUser, token string) sessionResponse {
	var resp sessionResponse
	resp.User = user
	resp.Session.AccessToken = token
	resp.Session.User = user
	return resp
}

// Signup handles POST /auth/signup
// @Summary Register a new account
// @Description Register an email/password account and open a session
// @Tags Auth
// @Accept json
// @Produce json
// @Param body body credentials true "Email and password"
// @Success 200 {object} sessionResponse
// @Failure 400 {object} utils.ErrorResponseStruct
// @Router /auth/signup [post]
func (h *AuthHandler) Signup(c *fiber.Ctx) error {
	var body credentials
	if err := c.BodyParser(&body); err != nil {
		return utils.ErrorResponse(c, "Invalid input", fiber.StatusBadRequest, "auth.validation.input")
	}

	body.Email = strings.TrimSpace(body.Email)
	if body.Email == "" || body.Password == "" {
		return utils.ErrorResponse(c, "Email and password are required", fiber.StatusBadRequest, "auth.validation.input")
	}

	user, token, err := services.Signup(h.DB, h.Sessions, body.Email, body.Password)
	if err != nil {
		if errors.Is(err, services.ErrEmailTaken) {
			return utils.ErrorResponse(c, "User already exists", fiber.StatusBadRequest, "auth.signup.conflict")
		}
		return utils.ErrorResponse(c, err.Error(), fiber.StatusInternalServerError, "signup")
	}

	return c.Status(fiber.StatusOK).JSON(newSessionResponse(user, token))
}

// Login handles POST /auth/login
// @Summary Log in
// @Description Verify credentials and open a session
// @Tags Auth
// @Accept json
// @Produce json
// @Param body body credentials true "Email and password"
// @Success 200 {object} sessionResponse
// @Failure 401 {object} utils.ErrorResponseStruct
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var body credentials
	if err := c.BodyParser(&body); err != nil {
		return utils.ErrorResponse(c, "Invalid input", fiber.StatusBadRequest, "auth.validation.input")
	}

	user, token, err := services.Login(h.DB, h.Sessions, strings.TrimSpace(body.Email), body.Password)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			return utils.ErrorResponse(c, "Invalid credentials", fiber.StatusUnauthorized, "auth.login")
		}
		return utils.ErrorResponse(c, err.Error(), fiber.StatusInternalServerError, "login")
	}

	return c.Status(fiber.StatusOK).JSON(newSessionResponse(user, token))
}

// Logout handles POST /auth/logout
// @Summary Log out
// @Description Invalidate the presented bearer token
// @Tags Auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} utils.MessageResponseStruct
// @Failure 401 {object} utils.ErrorResponseStruct
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	services.Logout(h.Sessions, middleware.BearerToken(c))
	return utils.MessageResponse(c, "Logged out")
}

// CurrentUser handles GET /auth/user
// @Summary Current identity
// @Description Return the identity bound to the presented bearer token
// @Tags Auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} utils.ErrorResponseStruct
// @Router /auth/user [get]
func (h *AuthHandler) CurrentUser(c *fiber.Ctx) error {
	user, err := getAuthUser(c)
	if err != nil {
		return utils.ErrorResponse(c, err.Error(), fiber.StatusUnauthorized, "auth.authorization")
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"user": user})
}
