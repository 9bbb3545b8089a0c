package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/identity-service/internal/api/dto"
	"github.com/spec-kit/identity-service/internal/domain"
	"github.com/spec-kit/identity-service/internal/service"
	apperrors "github.com/spec-kit/identity-service/pkg/util/errorutil"
)

// AuthHandler exposes registration, login and activation endpoints.
type AuthHandler struct {
	accounts *service.AccountService
}

// NewAuthHandler constructs the handler.
func NewAuthHandler(accounts *service.AccountService) *AuthHandler {
	return &AuthHandler{accounts: accounts}
}

// Register handles POST /auth/register.
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := req.Validate(); err != nil {
		return apperrors.NewValidationError(err.Error(), nil)
	}

	_, err := h.accounts.Register(c.UserContext(), service.RegisterInput{
		Email:                req.Email,
		Password:             req.Password,
		FirstName:            req.FirstName,
		LastName:             req.LastName,
		IdentificationNumber: req.IdentificationNumber,
		BirthDate:            req.ParsedBirthDate(),
		Gender:               domain.Gender(req.Gender),
	})
	if err != nil {
		return err
	}

	return c.Status(http.StatusOK).JSON(fiber.Map{
		"message": "Activation link sent to your email. Please check your inbox and activate your account.",
	})
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := req.Validate(); err != nil {
		return apperrors.NewValidationError(err.Error(), nil)
	}

	token, expiresAt, err := h.accounts.Authenticate(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"data": dto.SessionResponse{Token: token, ExpiresAt: expiresAt},
	})
}

// ActivateAccount handles GET /auth/activate-account?token=.
func (h *AuthHandler) ActivateAccount(c *fiber.Ctx) error {
	token := c.Query("token")
	if token == "" {
		return apperrors.NewValidationError("token query parameter required", nil)
	}

	if err := h.accounts.ValidateToken(c.UserContext(), token, domain.PurposeActivation, ""); err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"message": "Your account has been activated. You can now log in.",
	})
}
