package http

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/cvtoletter/backend/internal/middleware/auth"
	"github.com/cvtoletter/backend/internal/usecase"
)

// CheckoutCreator starts a hosted checkout for a package.
type CheckoutCreator interface {
	CreateCheckout(ctx context.Context, principal usecase.Principal, packageID string) (*usecase.CheckoutResult, error)
}

type CheckoutHandler struct {
	checkout CheckoutCreator
	logger   *zap.Logger
}

type CreateCheckoutRequest struct {
	PackageID string `json:"package_id" validate:"required,max=50"`
}

func NewCheckoutHandler(checkout CheckoutCreator, logger *zap.Logger) *CheckoutHandler {
	return &CheckoutHandler{
		checkout: checkout,
		logger:   logger,
	}
}

// CreateCheckout handles POST /api/v1/checkout
func (h *CheckoutHandler) CreateCheckout(c echo.Context) error {
	user, err := auth.RequireAuth(c)
	if err != nil {
		return err // RequireAuth already returns the JSON error response
	}

	var req CreateCheckoutRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	result, err := h.checkout.CreateCheckout(c.Request().Context(), principalOf(user), req.PackageID)
	if err != nil {
		h.logger.Warn("Checkout creation failed",
			zap.String("user_id", user.UserID.String()),
			zap.String("package_id", req.PackageID),
			zap.Error(err))
		return respondError(c, err)
	}

	return c.JSON(http.StatusCreated, result)
}

func principalOf(user *auth.AuthUser) usecase.Principal {
	return usecase.Principal{ID: user.UserID, Email: user.Email}
}
