package api

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/edulearn/edulearn-api/internal/errors"
	"github.com/edulearn/edulearn-api/internal/logger"
)

// DownloadQuestionPaper handles GET /api/question_paper/:pk/download
func (c *Controller) DownloadQuestionPaper(ctx echo.Context) error {
	pk := ctx.Param("pk")
	id, err := strconv.ParseUint(pk, 10, strconv.IntSize)
	if err != nil || id == 0 {
		return c.HandleError(ctx,
			errors.Newf("Question paper not found").
				Component("api").
				Category(errors.CategoryNotFound).
				Context("pk", pk).
				Build(),
			"download_question_paper", "Question paper not found")
	}

	file, err := c.papers.Open(ctx.Request().Context(), uint(id))
	if err != nil {
		return c.HandleError(ctx, err, "download_question_paper", "Error downloading file",
			logger.String("pk", pk))
	}
	defer func() {
		if err := file.Content.Close(); err != nil {
			GetLogger().Warn("failed to close question paper", logger.Error(err))
		}
	}()

	h := ctx.Response().Header()
	h.Set(echo.HeaderContentType, file.ContentType)
	h.Set(echo.HeaderContentDisposition, contentDisposition(file.Name))

	http.ServeContent(ctx.Response(), ctx.Request(), file.Name, file.ModTime, file.Content)
	return nil
}
