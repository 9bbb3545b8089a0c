package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/identity-service/internal/api/dto"
	"github.com/spec-kit/identity-service/internal/domain"
	"github.com/spec-kit/identity-service/internal/service"
	apperrors "github.com/spec-kit/identity-service/pkg/util/errorutil"
)

// PasswordHandler exposes the password reset endpoints.
type PasswordHandler struct {
	accounts *service.AccountService
}

// NewPasswordHandler constructs the handler.
func NewPasswordHandler(accounts *service.AccountService) *PasswordHandler {
	return &PasswordHandler{accounts: accounts}
}

// RequestReset handles POST /auth/password/reset-password-request.
func (h *PasswordHandler) RequestReset(c *fiber.Ctx) error {
	var req dto.ResetPasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := req.Validate(); err != nil {
		return apperrors.NewValidationError(err.Error(), nil)
	}

	if err := h.accounts.RequestPasswordReset(c.UserContext(), req.Email); err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"message": "Reset password link sent to your email.",
	})
}

// ChangePassword handles POST /auth/password/change-password.
func (h *PasswordHandler) ChangePassword(c *fiber.Ctx) error {
	var req dto.ChangePasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := req.Validate(); err != nil {
		return apperrors.NewValidationError(err.Error(), nil)
	}

	if err := h.accounts.ValidateToken(c.UserContext(), req.Token, domain.PurposePasswordReset, req.Password); err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"message": "Password has been successfully reset.",
	})
}
