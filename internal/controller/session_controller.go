package controller

import (
	"chat-with-pdf-be/internal/pkg/serverutils"
	"chat-with-pdf-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type ISessionController interface {
	RegisterRoutes(r fiber.Router, middleware ...fiber.Handler)
	Show(ctx *fiber.Ctx) error
	Reset(ctx *fiber.Ctx) error
}

type sessionController struct {
	service service.ISessionService
}

func NewSessionController(service service.ISessionService) ISessionController {
	return &sessionController{service: service}
}

func (c *sessionController) RegisterRoutes(r fiber.Router, middleware ...fiber.Handler) {
	h := r.Group("/session/v1", middleware...)
	h.Get("", c.Show)
	h.Post("/reset", c.Reset)
}

func (c *sessionController) Show(ctx *fiber.Ctx) error {
	res, err := c.service.Status(ctx.UserContext(), serverutils.SessionID(ctx))
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get session", res))
}

func (c *sessionController) Reset(ctx *fiber.Ctx) error {
	res, err := c.service.Reset(ctx.UserContext(), serverutils.SessionID(ctx))
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Session reset", res))
}
