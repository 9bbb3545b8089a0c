package errorutil

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/identity-service/internal/domain"
)

// DomainError standardizes application errors.
type DomainError struct {
	Code       string
	Message    string
	HTTPStatus int
	Details    map[string]any
	Err        error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError constructs a DomainError.
func NewDomainError(code, message string, status int, details map[string]any) *DomainError {
	return &DomainError{Code: code, Message: message, HTTPStatus: status, Details: details}
}

func NewValidationError(message string, details map[string]any) error {
	return NewDomainError("VALIDATION_FAILED", message, http.StatusBadRequest, details)
}

func NewNotFound(message string) error {
	return NewDomainError("NOT_FOUND", message, http.StatusNotFound, nil)
}

func NewUnauthorized(message string) error {
	return NewDomainError("UNAUTHORIZED", message, http.StatusUnauthorized, nil)
}

func NewForbidden(message string) error {
	return NewDomainError("FORBIDDEN", message, http.StatusForbidden, nil)
}

func NewConflict(code, message string) error {
	return NewDomainError(code, message, http.StatusConflict, nil)
}

func NewInternalError(err error) error {
	return &DomainError{
		Code:       "INTERNAL_ERROR",
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// ToDomainError converts service errors to DomainError. Business-rule errors
// keep their caller-visible message; anything unrecognized becomes a generic
// internal error so database details never leak.
func ToDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}

	switch {
	case errors.Is(err, domain.ErrDuplicateIdentity):
		return asDomain(NewConflict("DUPLICATE_IDENTITY", err.Error()))
	case errors.Is(err, domain.ErrTokenAlreadyPending):
		return asDomain(NewConflict("TOKEN_ALREADY_PENDING", err.Error()))
	case errors.Is(err, domain.ErrInvalidCredentials):
		return asDomain(NewUnauthorized(err.Error()))
	case errors.Is(err, domain.ErrIdentityNotFound):
		return asDomain(NewNotFound(err.Error()))
	case errors.Is(err, domain.ErrTokenNotFound):
		return asDomain(NewNotFound(err.Error()))
	case errors.Is(err, domain.ErrTokenExpired):
		return asDomain(NewForbidden(err.Error()))
	case errors.Is(err, domain.ErrSignerUnavailable):
		return asDomain(NewInternalError(err))
	case errors.Is(err, pgx.ErrNoRows):
		return asDomain(NewNotFound("resource not found"))
	}

	return asDomain(NewInternalError(err))
}

func asDomain(err error) *DomainError {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	return &DomainError{
		Code:       "INTERNAL_ERROR",
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}
