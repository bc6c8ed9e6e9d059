package controller

import (
	"ai-agent-be/internal/dto"
	"ai-agent-be/internal/pkg/serverutils"
	"ai-agent-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IKnowledgeController interface {
	RegisterRoutes(r fiber.Router)
	Retrieve(ctx *fiber.Ctx) error
}

type knowledgeController struct {
	service   service.IKnowledgeService
	jwtSecret string
}

func NewKnowledgeController(service service.IKnowledgeService, jwtSecret string) IKnowledgeController {
	return &knowledgeController{service: service, jwtSecret: jwtSecret}
}

func (c *knowledgeController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/knowledge/v1")
	h.Use(serverutils.JwtMiddleware(c.jwtSecret))
	h.Post("/retrieve", c.Retrieve)
}

func (c *knowledgeController) Retrieve(ctx *fiber.Ctx) error {
	var req dto.RetrieveRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.Retrieve(ctx.UserContext(), &req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success retrieve", res))
}
