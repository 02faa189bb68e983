package http

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	domainerrors "github.com/cvtoletter/backend/internal/domain/errors"
	apperrors "github.com/cvtoletter/backend/pkg/errors"
)

// respondError writes ledger errors with their kind and retry hint. Anything
// else goes to the echo error handler.
func respondError(c echo.Context, err error) error {
	var le *domainerrors.LedgerError
	if !errors.As(err, &le) {
		return apperrors.ToHTTPError(err)
	}

	status := apperrors.ToHTTPStatus(le.Code())
	message := le.ClientMessage()
	if status >= http.StatusInternalServerError && status != http.StatusBadGateway {
		message = http.StatusText(status)
		c.Logger().Error(err)
	}

	return c.JSON(status, echo.Map{
		"error": message,
		"code":  string(le.Kind),
		"retry": le.Retriable(),
	})
}

// bindAndValidate binds the request and runs the echo validator.
func bindAndValidate(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	if err := c.Validate(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return nil
}
