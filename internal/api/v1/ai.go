package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	mw "github.com/edulearn/edulearn-api/internal/api/middleware"
	"github.com/edulearn/edulearn-api/internal/errors"
)

// invalidJSONMessage is returned for any body that does not decode
const invalidJSONMessage = "Invalid JSON format in request body"

// AskRequest is the body of POST /api/ai
type AskRequest struct {
	Question string `json:"question"`
}

// AskResponse carries the generated or cached answer
type AskResponse struct {
	Answer string `json:"answer"`
}

// AskAI handles POST /api/ai
func (c *Controller) AskAI(ctx echo.Context) error {
	var req AskRequest
	if err := ctx.Echo().JSONSerializer.Deserialize(ctx, &req); err != nil {
		return c.HandleError(ctx,
			errors.Newf("%s", invalidJSONMessage).
				Component("api").
				Category(errors.CategoryValidation).
				Context("operation", "decode_question").
				Context("cause", err.Error()).
				Build(),
			"ask_ai", invalidJSONMessage)
	}

	result, err := c.answers.Answer(ctx.Request().Context(), req.Question)
	if err != nil {
		return c.HandleError(ctx, err, "ask_ai", "Failed to generate answer")
	}

	if result.Cached {
		ctx.Response().Header().Set(mw.HeaderXCache, "HIT")
	} else {
		ctx.Response().Header().Set(mw.HeaderXCache, "MISS")
	}

	return ctx.JSON(http.StatusOK, AskResponse{Answer: result.Answer})
}
