package errors

// 공통 에러 코드
const (
	ErrInternal        = "INTERNAL"
	ErrNotFound        = "NOT_FOUND"
	ErrInvalidArgument = "INVALID_ARGUMENT"
	ErrUnauthenticated = "UNAUTHENTICATED"
	ErrUnauthorized    = "UNAUTHORIZED"
	ErrConflict        = "CONFLICT"
	ErrTimeout         = "TIMEOUT"
	ErrNotImplemented  = "NOT_IMPLEMENTED"

	// 결제/크레딧 관련
	ErrPaymentRequired = "PAYMENT_REQUIRED"
	ErrUnprocessable   = "UNPROCESSABLE"
	ErrBadGateway      = "BAD_GATEWAY"
	ErrUnavailable     = "UNAVAILABLE"
	ErrAccepted        = "ACCEPTED"
)
