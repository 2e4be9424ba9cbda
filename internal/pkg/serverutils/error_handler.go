package serverutils

import (
	"errors"
	"fmt"

	"chat-with-pdf-be/internal/constant"
	"chat-with-pdf-be/internal/pkg/logger"
	"chat-with-pdf-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

// ErrorHandlerMiddleware turns errors returned by handlers into JSON error
// responses. The raw error is logged; clients only get a safe message.
func ErrorHandlerMiddleware(log logger.ILogger) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}

		code, message := StatusFor(err)
		details := map[string]interface{}{
			"method": ctx.Method(),
			"path":   ctx.Path(),
			"status": code,
			"error":  err.Error(),
		}
		if code >= fiber.StatusInternalServerError {
			log.Error("HTTP", "Request failed", details)
		} else {
			log.Warn("HTTP", "Request rejected", details)
		}

		return ctx.Status(code).JSON(ErrorResponse(code, message))
	}
}

// StatusFor maps an error to its HTTP status and client-facing message.
func StatusFor(err error) (int, string) {
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return fiberErr.Code, fiberErr.Message
	}

	var validationErr *ValidationError
	if errors.As(err, &validationErr) {
		return fiber.StatusBadRequest, validationErr.Error()
	}

	var stageErr *service.StageError
	if errors.As(err, &stageErr) {
		label := constant.BackendLabel(stageErr.Backend)
		switch stageErr.Stage {
		case service.StageExtraction:
			return fiber.StatusUnprocessableEntity, constant.NoticeExtractionFailed
		case service.StageChunking:
			return fiber.StatusUnprocessableEntity, fmt.Sprintf(constant.NoticeProcessFailedFmt, label)
		case service.StageIndexing:
			return fiber.StatusBadGateway, fmt.Sprintf(constant.NoticeIndexingFailed, label)
		case service.StageGeneration:
			return fiber.StatusBadGateway, constant.NoticeGenerationFailed
		}
	}

	switch {
	case errors.Is(err, service.ErrSessionBusy):
		return fiber.StatusConflict, constant.NoticeSessionBusy
	case errors.Is(err, service.ErrNotReady):
		return fiber.StatusConflict, "Please upload and process a PDF first."
	case errors.Is(err, service.ErrSessionNotFound):
		return fiber.StatusNotFound, "Session not found"
	case errors.Is(err, service.ErrInvalidFile):
		return fiber.StatusBadRequest, constant.NoticeInvalidFile
	case errors.Is(err, service.ErrInvalidBackend):
		return fiber.StatusBadRequest, "Unknown vector store backend"
	case errors.Is(err, service.ErrEmptyQuestion):
		return fiber.StatusBadRequest, "question is required"
	}

	return fiber.StatusInternalServerError, "Internal server error"
}
