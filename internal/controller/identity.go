package controller

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// currentUserId reads the user_id claim set by JwtMiddleware. With auth
// disabled (empty secret) it is uuid.Nil and nothing is user-scoped.
func currentUserId(ctx *fiber.Ctx, jwtSecret string) (uuid.UUID, error) {
	if jwtSecret == "" {
		return uuid.Nil, nil
	}
	raw, _ := ctx.Locals("user_id").(string)
	userId, err := uuid.Parse(raw)
	if err != nil || userId == uuid.Nil {
		return uuid.Nil, fiber.NewError(fiber.StatusUnauthorized, "Invalid token subject")
	}
	return userId, nil
}

func idParam(ctx *fiber.Ctx) (uuid.UUID, error) {
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return uuid.Nil, fiber.NewError(fiber.StatusBadRequest, "Invalid id")
	}
	return id, nil
}
