package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/stayhub/service-desk/internal/api/dto"
	"github.com/stayhub/service-desk/internal/auth"
	"github.com/stayhub/service-desk/internal/service"
	apperrors "github.com/stayhub/service-desk/pkg/util"
)

// UsersHandler covers registration, login and account endpoints.
type UsersHandler struct {
	auth *service.AuthService
}

// NewUsersHandler constructs handler.
func NewUsersHandler(authService *service.AuthService) *UsersHandler {
	return &UsersHandler{auth: authService}
}

// Register POST /auth/register.
func (h *UsersHandler) Register(c *fiber.Ctx) error {
	var req dto.UserRegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	user, token, expiresAt, err := h.auth.Register(c.UserContext(), req.Name, req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.AuthResponse{
		Token:     token,
		ExpiresAt: expiresAt,
		User:      dto.UserFromDomain(user),
	}})
}

// Login POST /auth/login.
func (h *UsersHandler) Login(c *fiber.Ctx) error {
	var req dto.UserLoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	user, token, expiresAt, err := h.auth.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.AuthResponse{
		Token:     token,
		ExpiresAt: expiresAt,
		User:      dto.UserFromDomain(user),
	}})
}

// Me GET /users/me.
func (h *UsersHandler) Me(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("authentication required")
	}
	return c.JSON(fiber.Map{"data": dto.UserFromDomain(principal.User)})
}

// CreateStaff POST /users/staff. Admin only at the route level.
func (h *UsersHandler) CreateStaff(c *fiber.Ctx) error {
	var req dto.CreateStaffRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	user, err := h.auth.CreateStaff(c.UserContext(), req.Name, req.Email, req.Password, req.Role)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.UserFromDomain(user)})
}

// ChangePassword POST /auth/password/change.
func (h *UsersHandler) ChangePassword(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.ChangePasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := h.auth.ChangePassword(c.UserContext(), principal.User.ID, req.CurrentPassword, req.NewPassword); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// RequestPasswordReset POST /auth/password/reset/request.
func (h *UsersHandler) RequestPasswordReset(c *fiber.Ctx) error {
	var req dto.PasswordResetRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if _, err := h.auth.RequestPasswordReset(c.UserContext(), req.Email); err != nil {
		return err
	}
	// Same answer whether or not the email has an account.
	return c.JSON(fiber.Map{"data": fiber.Map{"status": "reset requested"}})
}

// ConfirmPasswordReset POST /auth/password/reset/confirm.
func (h *UsersHandler) ConfirmPasswordReset(c *fiber.Ctx) error {
	var req dto.PasswordResetConfirmRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := h.auth.ConfirmPasswordReset(c.UserContext(), req.Token, req.NewPassword); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}
