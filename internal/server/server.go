package server

import (
	"context"
	"time"

	"chat-with-pdf-be/internal/bootstrap"
	"chat-with-pdf-be/internal/config"
	"chat-with-pdf-be/internal/pkg/serverutils"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
)

const uploadLimit = 50 * 1024 * 1024

type Server struct {
	app       *fiber.App
	cfg       *config.Config
	container *bootstrap.Container
}

func New(cfg *config.Config, container *bootstrap.Container) *Server {
	app := fiber.New(fiber.Config{
		AppName:   "chat-with-pdf",
		BodyLimit: uploadLimit,
	})

	// Middleware
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.App.CorsAllowedOrigins,
		AllowCredentials: cfg.App.CorsAllowedOrigins != "*",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, " + serverutils.SessionTokenHeader,
		AllowMethods:     "GET, POST, OPTIONS",
		ExposeHeaders:    "Content-Length, Content-Type, " + serverutils.SessionTokenHeader,
	}))

	if cfg.App.OtelEnabled {
		app.Use(otelfiber.Middleware())
	}

	app.Use(serverutils.ErrorHandlerMiddleware(container.Logger))

	registerRoutes(app, cfg, container)

	return &Server{
		app:       app,
		cfg:       cfg,
		container: container,
	}
}

func (s *Server) GetApp() *fiber.App {
	return s.app
}

func (s *Server) Run() error {
	s.container.Logger.Info("SERVER", "Server is running", map[string]interface{}{
		"address": "http://localhost:" + s.cfg.App.Port,
	})
	return s.app.Listen(":" + s.cfg.App.Port)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

func registerRoutes(app *fiber.App, cfg *config.Config, c *bootstrap.Container) {
	sessions := serverutils.SessionMiddleware(serverutils.SessionConfig{
		Secret: cfg.Keys.SessionSecret,
		TTL:    time.Duration(cfg.App.SessionTTLMinutes) * time.Minute,
		Secure: cfg.IsProduction(),
	}, c.SessionService)

	api := app.Group("/api")
	api.Get("/health", func(ctx *fiber.Ctx) error {
		return ctx.JSON(serverutils.SuccessResponse("OK", fiber.Map{"status": "up"}))
	})

	c.DocumentController.RegisterRoutes(api, sessions)
	c.SessionController.RegisterRoutes(api, sessions)
	c.ChatController.RegisterRoutes(api, sessions)

	c.PageController.RegisterRoutes(app, sessions)
}
