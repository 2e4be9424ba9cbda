package controller

import (
	"chat-with-pdf-be/internal/dto"
	"chat-with-pdf-be/internal/pkg/serverutils"
	"chat-with-pdf-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IDocumentController interface {
	RegisterRoutes(r fiber.Router, middleware ...fiber.Handler)
	Process(ctx *fiber.Ctx) error
}

type documentController struct {
	service service.ISessionService
}

func NewDocumentController(service service.ISessionService) IDocumentController {
	return &documentController{service: service}
}

func (c *documentController) RegisterRoutes(r fiber.Router, middleware ...fiber.Handler) {
	h := r.Group("/document/v1", middleware...)
	h.Post("/process", c.Process)
}

// Process accepts a multipart upload: file, backend and an optional submit
// flag (defaults to true; "false" only stages the upload).
func (c *documentController) Process(ctx *fiber.Ctx) error {
	req, done, err := parseUpload(ctx, ctx.FormValue("submit", "true") != "false")
	if err != nil {
		return err
	}
	defer done()

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.Process(ctx.UserContext(), serverutils.SessionID(ctx), req)
	if err != nil {
		return err
	}

	message := "Document processed"
	if res.Outcome == dto.ProcessOutcomeSkipped {
		message = "Nothing to process"
	}
	return ctx.JSON(serverutils.SuccessResponse(message, res))
}
