package http

import (
	"context"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/cvtoletter/backend/internal/usecase"
)

// WebhookProcessor verifies and records a provider delivery.
type WebhookProcessor interface {
	HandleDelivery(ctx context.Context, payload []byte, signature string) (*usecase.WebhookReceipt, error)
}

type WebhookHandler struct {
	webhooks WebhookProcessor
	logger   *zap.Logger
}

func NewWebhookHandler(webhooks WebhookProcessor, logger *zap.Logger) *WebhookHandler {
	return &WebhookHandler{
		webhooks: webhooks,
		logger:   logger,
	}
}

// HandleWebhook handles POST /webhooks/payment. The body is read raw; the
// signature covers the exact bytes.
func (h *WebhookHandler) HandleWebhook(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		h.logger.Error("Error reading request body", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Error reading request body"})
	}

	receipt, err := h.webhooks.HandleDelivery(c.Request().Context(), body, c.Request().Header.Get("Stripe-Signature"))
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"received": true,
		"event_id": receipt.EventID,
		"outcome":  receipt.Outcome,
	})
}
