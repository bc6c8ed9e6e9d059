package controller

import (
	"ai-agent-be/internal/dto"
	"ai-agent-be/internal/pkg/serverutils"
	"ai-agent-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IMcpServerController interface {
	RegisterRoutes(r fiber.Router)
	List(ctx *fiber.Ctx) error
	Create(ctx *fiber.Ctx) error
	Update(ctx *fiber.Ctx) error
	Delete(ctx *fiber.Ctx) error
}

type mcpServerController struct {
	service   service.IMcpServerService
	jwtSecret string
}

func NewMcpServerController(service service.IMcpServerService, jwtSecret string) IMcpServerController {
	return &mcpServerController{service: service, jwtSecret: jwtSecret}
}

func (c *mcpServerController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/mcp/v1")
	h.Use(serverutils.JwtMiddleware(c.jwtSecret))
	h.Get("", c.List)
	// Create and Update connect to the server before saving
	h.Post("", c.Create)
	h.Put("/:id", c.Update)
	h.Delete("/:id", c.Delete)
}

func (c *mcpServerController) List(ctx *fiber.Ctx) error {
	userId, err := currentUserId(ctx, c.jwtSecret)
	if err != nil {
		return err
	}

	res, err := c.service.List(ctx.UserContext(), userId)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("MCP servers", res))
}

func (c *mcpServerController) Create(ctx *fiber.Ctx) error {
	userId, err := currentUserId(ctx, c.jwtSecret)
	if err != nil {
		return err
	}

	var req dto.CreateMcpServerRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.Create(ctx.UserContext(), userId, &req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success create MCP server", res))
}

func (c *mcpServerController) Update(ctx *fiber.Ctx) error {
	userId, err := currentUserId(ctx, c.jwtSecret)
	if err != nil {
		return err
	}
	id, err := idParam(ctx)
	if err != nil {
		return err
	}

	var req dto.UpdateMcpServerRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.Update(ctx.UserContext(), userId, id, &req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success update MCP server", res))
}

func (c *mcpServerController) Delete(ctx *fiber.Ctx) error {
	userId, err := currentUserId(ctx, c.jwtSecret)
	if err != nil {
		return err
	}
	id, err := idParam(ctx)
	if err != nil {
		return err
	}

	if err := c.service.Delete(ctx.UserContext(), userId, id); err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success delete MCP server", nil))
}
