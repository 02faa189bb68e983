package http

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/cvtoletter/backend/internal/middleware/auth"
	"github.com/cvtoletter/backend/internal/usecase"
)

// LetterGenerator charges a credit and generates a cover letter.
type LetterGenerator interface {
	Generate(ctx context.Context, principal usecase.Principal, req usecase.GenerateRequest) (*usecase.GenerationResult, error)
}

type GenerationHandler struct {
	generator LetterGenerator
	logger    *zap.Logger
}

func NewGenerationHandler(generator LetterGenerator, logger *zap.Logger) *GenerationHandler {
	return &GenerationHandler{
		generator: generator,
		logger:    logger,
	}
}

// Generate handles POST /api/v1/generations
func (h *GenerationHandler) Generate(c echo.Context) error {
	user, err := auth.RequireAuth(c)
	if err != nil {
		return err
	}

	var req usecase.GenerateRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	result, err := h.generator.Generate(c.Request().Context(), principalOf(user), req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, result)
}
