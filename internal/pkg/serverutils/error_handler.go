package serverutils

import (
	"errors"

	"ai-agent-be/pkg/agent"

	"github.com/gofiber/fiber/v2"
)

// ErrorHandlerMiddleware turns errors returned by handlers into the JSON envelope
func ErrorHandlerMiddleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}
		code, body := MapError(err)
		return ctx.Status(code).JSON(body)
	}
}

// MapError picks the status code and envelope for a handler error
func MapError(err error) (int, Response) {
	var validationErr *ValidationError
	if errors.As(err, &validationErr) {
		return fiber.StatusBadRequest, ValidationErrorResponse(validationErr.Fields)
	}

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return fiberErr.Code, ErrorResponse(fiberErr.Code, fiberErr.Message)
	}

	switch {
	case errors.Is(err, agent.ErrAgentNotFound):
		return fiber.StatusNotFound, ErrorResponse(fiber.StatusNotFound, err.Error())
	case errors.Is(err, agent.ErrSessionSetup):
		return fiber.StatusFailedDependency, ErrorResponse(fiber.StatusFailedDependency, err.Error())
	}

	var dispatchErr *agent.DispatchError
	if errors.As(err, &dispatchErr) {
		// Upstream model or store failure
		return fiber.StatusBadGateway, ErrorResponse(fiber.StatusBadGateway, dispatchErr.Error())
	}

	return fiber.StatusInternalServerError, ErrorResponse(fiber.StatusInternalServerError, err.Error())
}
