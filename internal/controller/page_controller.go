package controller

import (
	"errors"

	"chat-with-pdf-be/internal/dto"
	"chat-with-pdf-be/internal/pkg/logger"
	"chat-with-pdf-be/internal/pkg/serverutils"
	"chat-with-pdf-be/internal/service"
	"chat-with-pdf-be/internal/web"

	"github.com/gofiber/fiber/v2"
)

type IPageController interface {
	RegisterRoutes(r fiber.Router, middleware ...fiber.Handler)
	Index(ctx *fiber.Ctx) error
	Process(ctx *fiber.Ctx) error
	Chat(ctx *fiber.Ctx) error
	Reset(ctx *fiber.Ctx) error
}

// pageController serves the browser UI. Every form posts back and
// redirects to the page; outcomes show up as the session notice.
type pageController struct {
	service service.ISessionService
	logger  logger.ILogger
}

func NewPageController(service service.ISessionService, log logger.ILogger) IPageController {
	return &pageController{service: service, logger: log}
}

// RegisterRoutes mounts the page at the root. Middleware is attached per
// route so it does not leak onto the API group.
func (c *pageController) RegisterRoutes(r fiber.Router, middleware ...fiber.Handler) {
	with := func(h fiber.Handler) []fiber.Handler {
		return append(append([]fiber.Handler{}, middleware...), h)
	}
	r.Get("/", with(c.Index)...)
	r.Post("/process", with(c.Process)...)
	r.Post("/chat", with(c.Chat)...)
	r.Post("/reset", with(c.Reset)...)
}

func (c *pageController) Index(ctx *fiber.Ctx) error {
	sessionID := serverutils.SessionID(ctx)
	status, err := c.service.Status(ctx.UserContext(), sessionID)
	if err != nil {
		return err
	}
	messages, err := c.service.Messages(ctx.UserContext(), sessionID)
	if err != nil {
		return err
	}

	ctx.Type("html", "utf-8")
	return web.RenderIndex(ctx.Response().BodyWriter(), web.NewIndexPage(*status, messages))
}

func (c *pageController) Process(ctx *fiber.Ctx) error {
	req, done, err := parseUpload(ctx, ctx.FormValue("submit") != "")
	if err != nil {
		return err
	}
	defer done()

	_, err = c.service.Process(ctx.UserContext(), serverutils.SessionID(ctx), req)
	return c.backToPage(ctx, err)
}

func (c *pageController) Chat(ctx *fiber.Ctx) error {
	req := dto.SendChatRequest{Question: ctx.FormValue("question")}
	if err := serverutils.ValidateRequest(req); err != nil {
		return c.backToPage(ctx, err)
	}

	_, err := c.service.Chat(ctx.UserContext(), serverutils.SessionID(ctx), &req)
	return c.backToPage(ctx, err)
}

func (c *pageController) Reset(ctx *fiber.Ctx) error {
	_, err := c.service.Reset(ctx.UserContext(), serverutils.SessionID(ctx))
	return c.backToPage(ctx, err)
}

// backToPage redirects to the page. Pipeline failures already left a notice
// on the session, so only unexpected errors are returned.
func (c *pageController) backToPage(ctx *fiber.Ctx, err error) error {
	if err != nil {
		var validationErr *serverutils.ValidationError
		_, isStage := service.StageOf(err)
		switch {
		case isStage,
			errors.As(err, &validationErr),
			errors.Is(err, service.ErrInvalidFile),
			errors.Is(err, service.ErrInvalidBackend),
			errors.Is(err, service.ErrSessionBusy),
			errors.Is(err, service.ErrNotReady),
			errors.Is(err, service.ErrEmptyQuestion):
			c.logger.Debug("PAGE", "Form action rejected", map[string]interface{}{
				"path":  ctx.Path(),
				"error": err.Error(),
			})
		default:
			return err
		}
	}
	return ctx.Redirect("/", fiber.StatusSeeOther)
}
