package controller

import (
	"errors"

	"chat-with-pdf-be/internal/dto"

	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"
)

// parseUpload reads the multipart form of a process request. A missing file
// is not an error: the request then carries no reader. The returned
// function closes the opened file.
func parseUpload(ctx *fiber.Ctx, submitted bool) (*dto.ProcessDocumentRequest, func(), error) {
	req := &dto.ProcessDocumentRequest{
		Backend:   ctx.FormValue("backend"),
		Submitted: submitted,
	}
	noop := func() {}

	fileHeader, err := ctx.FormFile("file")
	if err != nil {
		if errors.Is(err, fasthttp.ErrMissingFile) || errors.Is(err, fasthttp.ErrNoMultipartForm) {
			return req, noop, nil
		}
		return nil, noop, fiber.NewError(fiber.StatusBadRequest, "Invalid upload")
	}

	file, err := fileHeader.Open()
	if err != nil {
		return nil, noop, err
	}

	req.FileName = fileHeader.Filename
	req.ContentType = fileHeader.Header.Get("Content-Type")
	req.Size = fileHeader.Size
	req.Reader = file
	return req, func() { _ = file.Close() }, nil
}
