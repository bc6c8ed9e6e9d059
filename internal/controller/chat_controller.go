package controller

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"ai-agent-be/internal/dto"
	"ai-agent-be/internal/pkg/logger"
	"ai-agent-be/internal/pkg/serverutils"
	"ai-agent-be/internal/service"
	"ai-agent-be/pkg/agent"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

type IChatController interface {
	RegisterRoutes(r fiber.Router)
	Stream(ctx *fiber.Ctx) error
	ServeWs(ctx *fiber.Ctx) error
	GetHistory(ctx *fiber.Ctx) error
	EndDialog(ctx *fiber.Ctx) error
}

type chatController struct {
	service   service.IChatService
	jwtSecret string
	logger    logger.ILogger
}

func NewChatController(service service.IChatService, jwtSecret string, log logger.ILogger) IChatController {
	return &chatController{
		service:   service,
		jwtSecret: jwtSecret,
		logger:    log,
	}
}

func (c *chatController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/chat/v1")
	h.Use(serverutils.JwtMiddleware(c.jwtSecret))
	h.Post("/stream", c.Stream)
	h.Get("/ws", c.ServeWs)
	h.Get("/:agentId/:dialogId/history", c.GetHistory)
	h.Delete("/:agentId/:dialogId", c.EndDialog)
}

// Stream answers one turn as server-sent events, one ChatFrame per event
func (c *chatController) Stream(ctx *fiber.Ctx) error {
	var req dto.ChatRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	// The body writer runs after this handler returns
	turnCtx := context.WithoutCancel(ctx.UserContext())
	stream, err := c.service.Stream(turnCtx, &req)
	if err != nil {
		return err
	}

	ctx.Set("Content-Type", "text/event-stream")
	ctx.Set("Cache-Control", "no-cache")
	ctx.Set("Connection", "keep-alive")
	ctx.Set("X-Accel-Buffering", "no")

	ctx.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		defer stream.Close()
		pump(stream, func(frame dto.ChatFrame) error {
			raw, err := json.Marshal(frame)
			if err != nil {
				return err
			}
			if _, err := fmt.Fprintf(w, "data: %s\n\n", raw); err != nil {
				return err
			}
			return w.Flush()
		}, c.logger, req.DialogId)
	})
	return nil
}

// ServeWs keeps one connection per dialog; every inbound text message is a
// ChatRequest and is answered with fragment frames and a done frame
func (c *chatController) ServeWs(ctx *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(ctx) {
		return fiber.ErrUpgradeRequired
	}

	return websocket.New(func(conn *websocket.Conn) {
		for {
			var req dto.ChatRequest
			if err := conn.ReadJSON(&req); err != nil {
				if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					c.logger.Debug("ChatController", "WebSocket read ended", map[string]interface{}{
						"error": err.Error(),
					})
				}
				return
			}

			send := func(frame dto.ChatFrame) error { return conn.WriteJSON(frame) }

			if err := serverutils.ValidateRequest(req); err != nil {
				if send(dto.ChatFrame{Type: dto.ChatFrameError, Error: err.Error()}) != nil {
					return
				}
				continue
			}

			stream, err := c.service.Stream(context.Background(), &req)
			if err != nil {
				_, body := serverutils.MapError(err)
				if send(dto.ChatFrame{Type: dto.ChatFrameError, Error: body.Message}) != nil {
					return
				}
				continue
			}

			ok := pump(stream, send, c.logger, req.DialogId)
			_ = stream.Close()
			if !ok {
				return
			}
		}
	})(ctx)
}

// pump forwards a turn to the client. It reports false when the client went
// away, after which the turn is cancelled by the caller's Close.
func pump(stream agent.Stream, send func(dto.ChatFrame) error, log logger.ILogger, dialogId uuid.UUID) bool {
	for {
		fragment, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			return send(dto.ChatFrame{Type: dto.ChatFrameDone}) == nil
		}
		if err != nil {
			log.Warn("ChatController", "Turn failed mid-stream", map[string]interface{}{
				"dialog_id": dialogId.String(),
				"error":     err.Error(),
			})
			_, body := serverutils.MapError(err)
			return send(dto.ChatFrame{Type: dto.ChatFrameError, Error: body.Message}) == nil
		}

		if err := send(dto.ChatFrame{
			Type:    dto.ChatFrameFragment,
			Id:      fragment.ID,
			Content: fragment.Content,
		}); err != nil {
			log.Info("ChatController", "Client disconnected", map[string]interface{}{
				"dialog_id": dialogId.String(),
			})
			return false
		}
	}
}

func (c *chatController) GetHistory(ctx *fiber.Ctx) error {
	dialogId, err := uuid.Parse(ctx.Params("dialogId"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid dialog id")
	}

	res, err := c.service.GetHistory(ctx.UserContext(), dialogId, ctx.QueryInt("limit", 50))
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get history", res))
}

func (c *chatController) EndDialog(ctx *fiber.Ctx) error {
	agentId, err := uuid.Parse(ctx.Params("agentId"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid agent id")
	}
	dialogId, err := uuid.Parse(ctx.Params("dialogId"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid dialog id")
	}

	c.service.EndDialog(agentId, dialogId)
	return ctx.JSON(serverutils.SuccessResponse("Success end dialog", nil))
}
