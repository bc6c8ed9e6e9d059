package controller

import (
	"ai-agent-be/internal/dto"
	"ai-agent-be/internal/pkg/serverutils"
	"ai-agent-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IAgentController interface {
	RegisterRoutes(r fiber.Router)
	List(ctx *fiber.Ctx) error
	Search(ctx *fiber.Ctx) error
	Create(ctx *fiber.Ctx) error
	Show(ctx *fiber.Ctx) error
	Update(ctx *fiber.Ctx) error
	Delete(ctx *fiber.Ctx) error
}

type agentController struct {
	service   service.IAgentService
	jwtSecret string
}

func NewAgentController(service service.IAgentService, jwtSecret string) IAgentController {
	return &agentController{service: service, jwtSecret: jwtSecret}
}

func (c *agentController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/agent/v1")
	h.Use(serverutils.JwtMiddleware(c.jwtSecret))
	h.Get("", c.List)
	h.Post("", c.Create)
	h.Get("/search", c.Search)
	h.Get("/:id", c.Show)
	h.Put("/:id", c.Update)
	h.Delete("/:id", c.Delete)
}

func (c *agentController) List(ctx *fiber.Ctx) error {
	userId, err := currentUserId(ctx, c.jwtSecret)
	if err != nil {
		return err
	}

	res, err := c.service.List(ctx.UserContext(), userId)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Agents", res))
}

func (c *agentController) Search(ctx *fiber.Ctx) error {
	userId, err := currentUserId(ctx, c.jwtSecret)
	if err != nil {
		return err
	}

	res, err := c.service.Search(ctx.UserContext(), userId, ctx.Query("name"))
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Agents", res))
}

func (c *agentController) Create(ctx *fiber.Ctx) error {
	userId, err := currentUserId(ctx, c.jwtSecret)
	if err != nil {
		return err
	}

	var req dto.CreateAgentRequest
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
	return ctx.JSON(serverutils.SuccessResponse("Success create agent", res))
}

func (c *agentController) Show(ctx *fiber.Ctx) error {
	userId, err := currentUserId(ctx, c.jwtSecret)
	if err != nil {
		return err
	}
	id, err := idParam(ctx)
	if err != nil {
		return err
	}

	res, err := c.service.Show(ctx.UserContext(), userId, id)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Agent", res))
}

func (c *agentController) Update(ctx *fiber.Ctx) error {
	userId, err := currentUserId(ctx, c.jwtSecret)
	if err != nil {
		return err
	}
	id, err := idParam(ctx)
	if err != nil {
		return err
	}

	var req dto.UpdateAgentRequest
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
	return ctx.JSON(serverutils.SuccessResponse("Success update agent", res))
}

func (c *agentController) Delete(ctx *fiber.Ctx) error {
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
	return ctx.JSON(serverutils.SuccessResponse("Success delete agent", nil))
}
