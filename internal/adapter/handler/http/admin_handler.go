package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/cvtoletter/backend/internal/usecase"
)

const defaultPendingAge = 30 * time.Minute

// AdminHandler exposes the operator endpoints under /api/v1/admin.
type AdminHandler struct {
	admin  *usecase.AdminService
	logger *zap.Logger
}

func NewAdminHandler(admin *usecase.AdminService, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{
		admin:  admin,
		logger: logger,
	}
}

// ReprocessPayment handles POST /api/v1/admin/payments/:session_id/reprocess
func (h *AdminHandler) ReprocessPayment(c echo.Context) error {
	sessionID := c.Param("session_id")

	result, err := h.admin.Reprocess(c.Request().Context(), sessionID)
	if err != nil {
		h.logger.Warn("Manual reprocess failed",
			zap.String("session_id", sessionID),
			zap.Error(err))
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, result)
}

// ListPendingPayments handles GET /api/v1/admin/payments/pending?older_than=30m&limit=100
func (h *AdminHandler) ListPendingPayments(c echo.Context) error {
	olderThan := defaultPendingAge
	if raw := c.QueryParam("older_than"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil || d < 0 {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid older_than parameter"})
		}
		olderThan = d
	}

	limit, err := intQuery(c, "limit")
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid limit parameter"})
	}

	sessions, err := h.admin.ListPending(c.Request().Context(), olderThan, limit)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"sessions": sessions,
		"count":    len(sessions),
	})
}

// RetryWebhooks handles POST /api/v1/admin/webhooks/retry?limit=50
func (h *AdminHandler) RetryWebhooks(c echo.Context) error {
	limit, err := intQuery(c, "limit")
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid limit parameter"})
	}

	summary, err := h.admin.RetryWebhooks(c.Request().Context(), limit)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, summary)
}

func intQuery(c echo.Context, name string) (int, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return 0, nil
	}
	return strconv.Atoi(raw)
}
