package handlers

import (
	"errors"
	"fmt"
	"log"
	"strconv"

	"bilet-lending/internal/adapters/http/middleware"
	"bilet-lending/internal/core/domain"
	"bilet-lending/internal/core/services"
	"bilet-lending/internal/pkg/response"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

var validate = validator.New()

// bindError is a malformed or invalid request body
type bindError struct {
	message string
	details []string
}

func (e *bindError) Error() string {
	return e.message
}

// bind parses the JSON body into out and validates its struct tags
func bind(c *fiber.Ctx, out interface{}) error {
	if err := c.BodyParser(out); err != nil {
		return &bindError{message: "Invalid request body"}
	}
	if err := validate.Struct(out); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			details := make([]string, 0, len(fieldErrs))
			for _, fe := range fieldErrs {
				details = append(details, fmt.Sprintf("%s: failed on '%s'", fe.Field(), fe.Tag()))
			}
			return &bindError{message: "Validation failed", details: details}
		}
		return &bindError{message: err.Error()}
	}
	return nil
}

// principal returns the caller set by the auth middleware
func principal(c *fiber.Ctx) domain.Principal {
	return middleware.GetPrincipal(c)
}

func paramUint(c *fiber.Ctx, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Params(name), 10, 32)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

func paramInt64(c *fiber.Ctx, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Params(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// fail maps a core error onto the HTTP status and envelope
func fail(c *fiber.Ctx, err error) error {
	var be *bindError
	if errors.As(err, &be) {
		if len(be.details) > 0 {
			return response.ValidationFailed(c, be.details)
		}
		return response.BadRequest(c, be.message)
	}

	switch {
	case errors.Is(err, domain.ErrNotFound):
		return response.NotFound(c, err.Error())
	case errors.Is(err, domain.ErrUnauthorized),
		errors.Is(err, domain.ErrInvalidCredentials),
		errors.Is(err, domain.ErrTokenExpired),
		errors.Is(err, domain.ErrTokenRevoked):
		return response.Unauthorized(c, err.Error())
	case errors.Is(err, domain.ErrForbidden),
		errors.Is(err, domain.ErrUserInactive):
		return response.Forbidden(c, err.Error())
	case errors.Is(err, domain.ErrCopyUnavailable),
		errors.Is(err, domain.ErrEventFull),
		errors.Is(err, domain.ErrStaleRequest),
		errors.Is(err, domain.ErrDuplicateEntry):
		return response.Conflict(c, err.Error())
	case errors.Is(err, domain.ErrAgeRestricted),
		errors.Is(err, domain.ErrNoActiveLoan),
		errors.Is(err, domain.ErrRenewalLimitExceeded),
		errors.Is(err, domain.ErrInvalidTransition),
		errors.Is(err, domain.ErrInvalidInput),
		errors.Is(err, services.ErrWeakPassword),
		errors.Is(err, services.ErrCannotDeleteSelf),
		errors.Is(err, services.ErrProtectedAccount):
		return response.BadRequest(c, err.Error())
	default:
		log.Printf("❌ %s %s failed: %v", c.Method(), c.Path(), err)
		return response.InternalServerError(c, "Internal server error")
	}
}
