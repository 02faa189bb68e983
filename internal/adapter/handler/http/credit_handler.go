package http

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/cvtoletter/backend/internal/domain/dto"
	"github.com/cvtoletter/backend/internal/middleware/auth"
	"github.com/cvtoletter/backend/internal/usecase"
)

// CreditHandler handles account and credit HTTP requests
type CreditHandler struct {
	logger                   *zap.Logger
	creditService            *usecase.CreditService
	creditTransactionService *usecase.CreditTransactionService
}

// NewCreditHandler creates a new credit handler instance
func NewCreditHandler(
	logger *zap.Logger,
	creditService *usecase.CreditService,
	creditTransactionService *usecase.CreditTransactionService,
) *CreditHandler {
	return &CreditHandler{
		logger:                   logger,
		creditService:            creditService,
		creditTransactionService: creditTransactionService,
	}
}

// GetAccount handles GET /api/v1/account
func (h *CreditHandler) GetAccount(c echo.Context) error {
	user, err := auth.RequireAuth(c)
	if err != nil {
		return err
	}

	account, err := h.creditService.GetAccount(c.Request().Context(), principalOf(user))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, account)
}

// GetUserCredits handles GET /api/v1/credits
func (h *CreditHandler) GetUserCredits(c echo.Context) error {
	user, err := auth.RequireAuth(c)
	if err != nil {
		return err
	}

	credits, err := h.creditService.GetCredits(c.Request().Context(), principalOf(user))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, credits)
}

// GetTransactionHistory handles GET /api/v1/credits/transactions
func (h *CreditHandler) GetTransactionHistory(c echo.Context) error {
	user, err := auth.RequireAuth(c)
	if err != nil {
		return err
	}

	var filters dto.TransactionFilters
	for name, target := range map[string]*int{"limit": &filters.Limit, "offset": &filters.Offset} {
		raw := c.QueryParam(name)
		if raw == "" {
			continue
		}
		value, err := strconv.Atoi(raw)
		if err != nil || value < 0 {
			return c.JSON(http.StatusBadRequest, map[string]string{
				"error": "invalid " + name + " parameter",
			})
		}
		*target = value
	}

	response, err := h.creditTransactionService.GetTransactionHistory(c.Request().Context(), user.UserID, filters)
	if err != nil {
		h.logger.Error("Failed to get transaction history",
			zap.String("user_id", user.UserID.String()),
			zap.Error(err))
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"error": "failed to retrieve transaction history",
		})
	}

	return c.JSON(http.StatusOK, response)
}
