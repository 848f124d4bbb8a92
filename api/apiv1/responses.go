package apiv1

import (
	"github.com/gofiber/fiber/v2"
	log "github.com/sirupsen/logrus"
)

// Every error leaving the API is a structured body with a short
// description; internal detail stays in the logs.

func errorResponse(c *fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(fiber.Map{"error": msg})
}

func unauthorized(c *fiber.Ctx) error {
	return errorResponse(c, fiber.StatusUnauthorized, "Unauthorized")
}

func forbidden(c *fiber.Ctx) error {
	return errorResponse(c, fiber.StatusForbidden, "Forbidden")
}

func invalidCredentials(c *fiber.Ctx) error {
	return errorResponse(c, fiber.StatusUnauthorized, "Invalid credentials")
}

func invalidCSRF(c *fiber.Ctx) error {
	return errorResponse(c, fiber.StatusForbidden, "Invalid CSRF token")
}

func validationError(c *fiber.Ctx, msg string) error {
	return errorResponse(c, fiber.StatusBadRequest, msg)
}

func notFound(c *fiber.Ctx, msg string) error {
	return errorResponse(c, fiber.StatusNotFound, msg)
}

func conflict(c *fiber.Ctx, msg string) error {
	return errorResponse(c, fiber.StatusConflict, msg)
}

// serverError logs the fault and answers with a generic message; stack
// traces and storage errors never reach the client.
func serverError(c *fiber.Ctx, err error) error {
	log.WithError(err).WithField("action", c.Query(actionParam)).Error("request failed")
	return errorResponse(c, fiber.StatusInternalServerError, "Server error")
}
