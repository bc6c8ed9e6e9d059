package serverutils

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http/httptest"
	"testing"

	"ai-agent-be/pkg/agent"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type chatRequest struct {
	AgentId string `json:"agent_id" validate:"required,uuid"`
	Input   string `json:"input" validate:"required,max=10"`
}

func TestValidateRequest(t *testing.T) {
	err := ValidateRequest(chatRequest{AgentId: "nope", Input: ""})
	require.Error(t, err)

	var validationErr *ValidationError
	require.True(t, errors.As(err, &validationErr))
	assert.Equal(t, "must be a valid UUID", validationErr.Fields["agent_id"])
	assert.Equal(t, "is required", validationErr.Fields["input"])

	assert.NoError(t, ValidateRequest(chatRequest{
		AgentId: "7b0c3a8e-5a0e-4c2a-9a53-0d7c1f1f8f11",
		Input:   "hello",
	}))
}

func TestMapError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code int
	}{
		{"validation", &ValidationError{Fields: map[string]string{"input": "is required"}}, 400},
		{"fiber", fiber.NewError(fiber.StatusForbidden, "nope"), 403},
		{"agent not found", fmt.Errorf("open: %w", agent.ErrAgentNotFound), 404},
		{"session setup", fmt.Errorf("%w: mcp", agent.ErrSessionSetup), 424},
		{"dispatch", &agent.DispatchError{Stage: agent.StageContextGather, Err: agent.ErrContextGather}, 502},
		{"other", errors.New("boom"), 500},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, body := MapError(tt.err)
			assert.Equal(t, tt.code, code)
			assert.Equal(t, tt.code, body.Code)
			assert.False(t, body.Success)
		})
	}
}

func TestErrorHandlerMiddleware(t *testing.T) {
	app := fiber.New()
	app.Use(ErrorHandlerMiddleware())
	app.Get("/fail", func(ctx *fiber.Ctx) error {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/fail", nil))
	require.NoError(t, err)
	assert.Equal(t, 400, resp.StatusCode)

	raw, _ := io.ReadAll(resp.Body)
	var body Response
	require.NoError(t, json.Unmarshal(raw, &body))
	assert.Equal(t, "Invalid request body", body.Message)
}

func TestJwtMiddleware(t *testing.T) {
	app := fiber.New()
	app.Use(JwtMiddleware("secret"))
	app.Get("/me", func(ctx *fiber.Ctx) error {
		return ctx.SendString(fmt.Sprint(ctx.Locals("user_id")))
	})

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"user_id": "u-1"})
	signed, err := token.SignedString([]byte("secret"))
	require.NoError(t, err)

	req := httptest.NewRequest("GET", "/me", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
	raw, _ := io.ReadAll(resp.Body)
	assert.Equal(t, "u-1", string(raw))

	resp, err = app.Test(httptest.NewRequest("GET", "/me?token="+signed, nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest("GET", "/me", nil))
	require.NoError(t, err)
	assert.Equal(t, 401, resp.StatusCode)
}

func TestAdminMiddleware(t *testing.T) {
	app := fiber.New()
	app.Use(AdminMiddleware("secret"))
	app.Get("/stats", func(ctx *fiber.Ctx) error { return ctx.SendStatus(200) })

	sign := func(claims jwt.MapClaims) string {
		signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
		require.NoError(t, err)
		return signed
	}

	tests := []struct {
		name  string
		token string
		code  int
	}{
		{"admin", sign(jwt.MapClaims{"user_id": "u-1", "role": "admin"}), 200},
		{"member", sign(jwt.MapClaims{"user_id": "u-2", "role": "member"}), 403},
		{"missing", "", 401},
		{"garbage", "not-a-jwt", 401},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/stats", nil)
			if tt.token != "" {
				req.Header.Set("Authorization", "Bearer "+tt.token)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.code, resp.StatusCode)
		})
	}
}

func TestJwtMiddlewareDisabledWithoutSecret(t *testing.T) {
	app := fiber.New()
	app.Use(JwtMiddleware(""))
	app.Get("/me", func(ctx *fiber.Ctx) error { return ctx.SendStatus(204) })

	resp, err := app.Test(httptest.NewRequest("GET", "/me", nil))
	require.NoError(t, err)
	assert.Equal(t, 204, resp.StatusCode)
}
