package dto

import (
	"regexp"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
)

var (
	upperRe = regexp.MustCompile(`[A-Z]`)
	digitRe = regexp.MustCompile(`[0-9]`)
)

func passwordRules() []validation.Rule {
	return []validation.Rule{
		validation.Required.Error("password should not be empty"),
		validation.Length(8, 0).Error("password must be at least 8 characters long"),
		validation.Match(upperRe).Error("password must contain at least one uppercase letter"),
		validation.Match(digitRe).Error("password must contain at least one digit"),
	}
}

// RegisterRequest payload for new accounts.
type RegisterRequest struct {
	Email                string `json:"email"`
	Password             string `json:"password"`
	FirstName            string `json:"firstName"`
	LastName             string `json:"lastName"`
	IdentificationNumber string `json:"identificationNumber"`
	BirthDate            string `json:"birthDate"`
	Gender               string `json:"gender"`
}

// Validate enforces the registration input policy.
func (r RegisterRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email,
			validation.Required.Error("email should not be empty"),
			is.Email.Error("email should have a valid format")),
		validation.Field(&r.Password, passwordRules()...),
		validation.Field(&r.FirstName, validation.Required.Error("first name should not be empty")),
		validation.Field(&r.LastName, validation.Required.Error("last name should not be empty")),
		validation.Field(&r.BirthDate, validation.Date("2006-01-02")),
		validation.Field(&r.Gender, validation.In("MALE", "FEMALE")),
	)
}

// ParsedBirthDate returns the birth date as a time value, nil when absent.
func (r RegisterRequest) ParsedBirthDate() *time.Time {
	if r.BirthDate == "" {
		return nil
	}
	parsed, err := time.Parse("2006-01-02", r.BirthDate)
	if err != nil {
		return nil
	}
	return &parsed
}

// LoginRequest payload for authentication.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate checks the login payload.
func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email,
			validation.Required.Error("email should not be empty"),
			is.Email.Error("email should have a valid format")),
		validation.Field(&r.Password, validation.Required.Error("password should not be empty")),
	)
}

// ResetPasswordRequest payload to start a password reset.
type ResetPasswordRequest struct {
	Email string `json:"email"`
}

// Validate checks the reset request payload.
func (r ResetPasswordRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email,
			validation.Required.Error("email should not be empty"),
			is.Email.Error("email should have a valid format")),
	)
}

// ChangePasswordRequest payload to complete a password reset.
type ChangePasswordRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

// Validate checks the change-password payload.
func (r ChangePasswordRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Token, validation.Required.Error("token should not be empty")),
		validation.Field(&r.Password, passwordRules()...),
	)
}

// SessionResponse carries the signed session credential.
type SessionResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}
