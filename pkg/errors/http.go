package errors

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

type clientMessager interface {
	ClientMessage() string
}

// ToHTTPStatus 에러 코드를 HTTP 상태 코드로 변환합니다.
func ToHTTPStatus(code string) int {
	httpStatus, _ := GetCodeMapping(code)
	return httpStatus
}

// ToHTTPError 에러를 Echo HTTP 에러로 변환합니다. 5xx 는 내부 메시지를 노출하지 않습니다.
func ToHTTPError(err error) *echo.HTTPError {
	if err == nil {
		return nil
	}

	var echoErr *echo.HTTPError
	if As(err, &echoErr) {
		return echoErr
	}

	var coder Coder
	if As(err, &coder) {
		status := ToHTTPStatus(coder.Code())
		if status >= http.StatusInternalServerError && status != http.StatusBadGateway {
			return echo.NewHTTPError(status, http.StatusText(status)).SetInternal(err)
		}
		message := coder.Error()
		// 클라이언트용 메시지가 있으면 내부 원인은 숨김
		if cm, ok := coder.(clientMessager); ok {
			message = cm.ClientMessage()
		}
		return echo.NewHTTPError(status, message).SetInternal(err)
	}

	return echo.NewHTTPError(http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError)).SetInternal(err)
}

// FromHTTPStatus HTTP 상태 코드를 내부 에러 코드로 변환합니다.
func FromHTTPStatus(status int) string {
	switch status {
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusBadRequest:
		return ErrInvalidArgument
	case http.StatusUnauthorized:
		return ErrUnauthenticated
	case http.StatusForbidden:
		return ErrUnauthorized
	case http.StatusConflict:
		return ErrConflict
	case http.StatusPaymentRequired:
		return ErrPaymentRequired
	case http.StatusUnprocessableEntity:
		return ErrUnprocessable
	case http.StatusBadGateway:
		return ErrBadGateway
	case http.StatusServiceUnavailable:
		return ErrUnavailable
	case http.StatusGatewayTimeout:
		return ErrTimeout
	case http.StatusNotImplemented:
		return ErrNotImplemented
	default:
		return ErrInternal
	}
}
