package serverutils

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

const RoleAdmin = "admin"

var errMissingToken = errors.New("missing token")

// JwtMiddleware checks the bearer token and stores the user_id and role
// claims in Locals. An empty secret disables the check, for local development.
func JwtMiddleware(secret string) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		if secret == "" {
			return ctx.Next()
		}

		claims, err := parseToken(ctx, secret)
		if err != nil {
			return ctx.Status(fiber.StatusUnauthorized).JSON(ErrorResponse(401, tokenMessage(err)))
		}

		ctx.Locals("user_id", claims["user_id"])
		ctx.Locals("role", claims["role"])
		return ctx.Next()
	}
}

// AdminMiddleware is JwtMiddleware plus a "role": "admin" claim check
func AdminMiddleware(secret string) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		if secret == "" {
			return ctx.Next()
		}

		claims, err := parseToken(ctx, secret)
		if err != nil {
			return ctx.Status(fiber.StatusUnauthorized).JSON(ErrorResponse(401, tokenMessage(err)))
		}

		role, _ := claims["role"].(string)
		if role != RoleAdmin {
			return ctx.Status(fiber.StatusForbidden).JSON(ErrorResponse(403, "Access denied: Admins only"))
		}

		ctx.Locals("user_id", claims["user_id"])
		ctx.Locals("role", role)
		return ctx.Next()
	}
}

func parseToken(ctx *fiber.Ctx, secret string) (jwt.MapClaims, error) {
	authHeader := ctx.Get("Authorization")
	tokenStr := ""
	if len(authHeader) >= 7 && authHeader[:7] == "Bearer " {
		tokenStr = authHeader[7:]
	} else {
		// Browsers cannot set headers on websocket upgrades
		tokenStr = ctx.Query("token")
	}
	if tokenStr == "" {
		return nil, errMissingToken
	}

	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("invalid token: %w", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.New("invalid claims")
	}
	return claims, nil
}

func tokenMessage(err error) string {
	if errors.Is(err, errMissingToken) {
		return "Missing token"
	}
	return "Invalid token"
}
