package errors

// CodePair 에러 코드별 HTTP / gRPC 상태
type CodePair struct {
	HTTPStatus int
	GRPCCode   int
}

var codeMapping = map[string]CodePair{
	ErrInternal:        {500, 13}, // INTERNAL
	ErrNotFound:        {404, 5},  // NOT_FOUND
	ErrInvalidArgument: {400, 3},  // INVALID_ARGUMENT
	ErrUnauthenticated: {401, 16}, // UNAUTHENTICATED
	ErrUnauthorized:    {403, 7},  // PERMISSION_DENIED
	ErrConflict:        {409, 6},  // ALREADY_EXISTS
	ErrTimeout:         {504, 4},  // DEADLINE_EXCEEDED
	ErrNotImplemented:  {501, 12}, // UNIMPLEMENTED
	ErrPaymentRequired: {402, 9},  // FAILED_PRECONDITION
	ErrUnprocessable:   {422, 9},  // FAILED_PRECONDITION
	ErrBadGateway:      {502, 14}, // UNAVAILABLE
	ErrUnavailable:     {503, 14}, // UNAVAILABLE
	// 결제 확인 대기. 클라이언트가 다시 조회해야 함
	ErrAccepted: {202, 10}, // ABORTED
}

// GetCodeMapping 코드에 대응하는 HTTP, gRPC 상태를 반환합니다. 모르는 코드는 500/INTERNAL.
func GetCodeMapping(code string) (int, int) {
	if pair, ok := codeMapping[code]; ok {
		return pair.HTTPStatus, pair.GRPCCode
	}
	return 500, 13
}
