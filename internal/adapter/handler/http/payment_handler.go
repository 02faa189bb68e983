package http

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	domainerrors "github.com/cvtoletter/backend/internal/domain/errors"
	"github.com/cvtoletter/backend/internal/domain/model"
	"github.com/cvtoletter/backend/internal/middleware/auth"
	"github.com/cvtoletter/backend/internal/usecase"
)

// PaymentHandler serves the redirect-return verification endpoint.
type PaymentHandler struct {
	reconciler usecase.Reconciler
	logger     *zap.Logger
}

type VerifyPaymentRequest struct {
	SessionID string `json:"session_id" query:"session_id"`
}

type VerifyPaymentResponse struct {
	Status       string `json:"status"`
	CreditsAdded int64  `json:"credits_added"`
	Balance      int64  `json:"balance"`
}

func NewPaymentHandler(reconciler usecase.Reconciler, logger *zap.Logger) *PaymentHandler {
	return &PaymentHandler{
		reconciler: reconciler,
		logger:     logger,
	}
}

// VerifyPayment handles GET and POST /api/v1/payment/verify. The session id
// comes from the query string or the JSON body.
func (h *PaymentHandler) VerifyPayment(c echo.Context) error {
	user, err := auth.RequireAuth(c)
	if err != nil {
		return err // RequireAuth already returns the JSON error response
	}

	var req VerifyPaymentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	if req.SessionID == "" {
		// echo binds query params only for GET
		req.SessionID = c.QueryParam("session_id")
	}
	if req.SessionID == "" {
		return respondError(c, domainerrors.NewInvalidReferenceError("", "session_id is required"))
	}

	result, err := h.reconciler.Reconcile(c.Request().Context(), usecase.ReconcileRequest{
		SessionID: req.SessionID,
		Principal: user.UserID,
		Source:    model.SettledViaRedirect,
	})
	if err != nil {
		if domainerrors.IsKind(err, domainerrors.KindPaymentPending) {
			return c.JSON(http.StatusAccepted, echo.Map{
				"status": "processing",
				"retry":  true,
			})
		}
		h.logger.Warn("Payment verification failed",
			zap.String("user_id", user.UserID.String()),
			zap.String("session_id", req.SessionID),
			zap.Error(err))
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, VerifyPaymentResponse{
		Status:       string(result.Outcome),
		CreditsAdded: result.CreditsAdded,
		Balance:      result.Balance,
	})
}
