package controller

import (
	"context"
	"encoding/json"

	"chat-with-pdf-be/internal/dto"
	"chat-with-pdf-be/internal/pkg/logger"
	"chat-with-pdf-be/internal/pkg/serverutils"
	"chat-with-pdf-be/internal/service"
	internalWS "chat-with-pdf-be/internal/websocket"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

type IChatController interface {
	RegisterRoutes(r fiber.Router, middleware ...fiber.Handler)
	GetMessages(ctx *fiber.Ctx) error
	SendMessage(ctx *fiber.Ctx) error
	Stream(ctx *fiber.Ctx) error
}

type chatController struct {
	service service.ISessionService
	hub     *internalWS.Hub
	logger  logger.ILogger
}

func NewChatController(service service.ISessionService, hub *internalWS.Hub, log logger.ILogger) IChatController {
	return &chatController{
		service: service,
		hub:     hub,
		logger:  log,
	}
}

func (c *chatController) RegisterRoutes(r fiber.Router, middleware ...fiber.Handler) {
	h := r.Group("/chat/v1", middleware...)
	h.Get("/messages", c.GetMessages)
	h.Post("/messages", c.SendMessage)
	h.Get("/ws", c.Stream)
}

func (c *chatController) GetMessages(ctx *fiber.Ctx) error {
	res, err := c.service.Messages(ctx.UserContext(), serverutils.SessionID(ctx))
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get messages", res))
}

func (c *chatController) SendMessage(ctx *fiber.Ctx) error {
	var req dto.SendChatRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.Chat(ctx.UserContext(), serverutils.SessionID(ctx), &req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success send chat", res))
}

// Stream runs chat turns over a websocket. Answers and pipeline events are
// pushed to every socket of the session; errors only to the sender.
func (c *chatController) Stream(ctx *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(ctx) {
		return fiber.ErrUpgradeRequired
	}
	sessionID := serverutils.SessionID(ctx)

	return websocket.New(func(conn *websocket.Conn) {
		c.logger.Info("CHAT", "Socket opened", map[string]interface{}{"session_id": sessionID})
		internalWS.ServeWs(context.Background(), c.hub, conn, sessionID, c.handleFrame)
		c.logger.Info("CHAT", "Socket closed", map[string]interface{}{"session_id": sessionID})
	})(ctx)
}

func (c *chatController) handleFrame(ctx context.Context, sessionID string, frame []byte) ([]byte, bool) {
	var req dto.ChatSocketRequest
	if err := json.Unmarshal(frame, &req); err != nil {
		return socketError("Invalid message"), false
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return socketError(err.Error()), false
	}

	res, err := c.service.Chat(ctx, sessionID, &dto.SendChatRequest{Question: req.Question})
	if err != nil {
		_, message := serverutils.StatusFor(err)
		c.logger.Warn("CHAT", "Socket chat turn failed", map[string]interface{}{
			"session_id": sessionID,
			"error":      err.Error(),
		})
		return socketError(message), false
	}

	out, _ := json.Marshal(dto.ChatSocketResponse{Type: "answer", Turn: res})
	return out, true
}

func socketError(message string) []byte {
	out, _ := json.Marshal(dto.ChatSocketResponse{Type: "error", Message: message})
	return out
}
