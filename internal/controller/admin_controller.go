package controller

import (
	"ai-agent-be/internal/pkg/serverutils"
	"ai-agent-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IAdminController interface {
	RegisterRoutes(r fiber.Router)
	GetLogs(ctx *fiber.Ctx) error
	GetLogDetail(ctx *fiber.Ctx) error
	GetStats(ctx *fiber.Ctx) error
}

type adminController struct {
	service   service.IAdminService
	jwtSecret string
}

func NewAdminController(service service.IAdminService, jwtSecret string) IAdminController {
	return &adminController{service: service, jwtSecret: jwtSecret}
}

func (c *adminController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/admin/v1")
	h.Use(serverutils.AdminMiddleware(c.jwtSecret))

	// Logs; ?source=tools reads the tool audit log
	h.Get("/logs", c.GetLogs)
	h.Get("/logs/:id", c.GetLogDetail)

	h.Get("/stats", c.GetStats)
}

func (c *adminController) GetLogs(ctx *fiber.Ctx) error {
	page := ctx.QueryInt("page", 1)
	limit := ctx.QueryInt("limit", 10)
	level := ctx.Query("level", "")
	source := ctx.Query("source", service.LogSourceApp)

	logs, err := c.service.GetSystemLogs(ctx.UserContext(), source, page, limit, level)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("System logs", logs))
}

func (c *adminController) GetLogDetail(ctx *fiber.Ctx) error {
	logId := ctx.Params("id") // MD5 of the log line, not a UUID
	source := ctx.Query("source", service.LogSourceApp)

	l, err := c.service.GetLogDetail(ctx.UserContext(), source, logId)
	if err != nil {
		return ctx.Status(fiber.StatusNotFound).JSON(serverutils.ErrorResponse(404, "Log not found"))
	}
	return ctx.JSON(serverutils.SuccessResponse("Log detail", l))
}

func (c *adminController) GetStats(ctx *fiber.Ctx) error {
	stats, err := c.service.GetIndexStats(ctx.UserContext())
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Index stats", stats))
}
