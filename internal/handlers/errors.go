package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/example/authcore/internal/apperror"
	"github.com/example/authcore/internal/logging"
)

// StatusFor maps an error kind to its HTTP status.
func StatusFor(kind apperror.Kind) int {
	switch kind {
	case apperror.KindValidation,
		apperror.KindDuplicateEmail,
		apperror.KindPasswordMismatch,
		apperror.KindMissingCredentials,
		apperror.KindOTPExpired,
		apperror.KindOTPMismatch,
		apperror.KindInvalidToken,
		apperror.KindExpiredToken:
		return fiber.StatusBadRequest
	case apperror.KindInvalidCredentials:
		return fiber.StatusUnauthorized
	case apperror.KindUserNotFound:
		return fiber.StatusNotFound
	default:
		return fiber.StatusInternalServerError
	}
}

// ErrorHandler renders every error returned by a handler as
// {status: "fail", message, errors?}.
func ErrorHandler(log logging.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		status := fiber.StatusInternalServerError
		body := fiber.Map{"status": "fail", "message": "internal server error"}

		var appErr *apperror.Error
		var fiberErr *fiber.Error
		switch {
		case errors.As(err, &appErr):
			status = StatusFor(appErr.Kind)
			switch appErr.Kind {
			case apperror.KindInternal, apperror.KindCorruptCredential:
				log.Error(c.UserContext(), "request failed", "path", c.Path(), "error", err)
			default:
				body["message"] = appErr.Message
			}
			if len(appErr.Fields) > 0 {
				body["errors"] = appErr.Fields
			}
		case errors.As(err, &fiberErr):
			status = fiberErr.Code
			body["message"] = fiberErr.Message
		default:
			log.Error(c.UserContext(), "request failed", "path", c.Path(), "error", err)
		}

		return c.Status(status).JSON(body)
	}
}
