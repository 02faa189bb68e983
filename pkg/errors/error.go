package errors

import (
	"errors"
	"fmt"
)

// 표준 라이브러리 함수 재노출
var (
	New    = errors.New
	Unwrap = errors.Unwrap
	Is     = errors.Is
	As     = errors.As
)

// Coder 공통 에러 코드를 가진 에러. 도메인 에러도 이 인터페이스로 HTTP 상태에 매핑됩니다.
type Coder interface {
	error
	Code() string
}

// Error 코드와 내부 에러를 가진 에러
type Error interface {
	Coder
	Unwrap() error
}

// AppError 기본 에러 구현체
type AppError struct {
	code    string
	message string
	err     error
}

func (e *AppError) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %s", e.message, e.err.Error())
	}
	return e.message
}

func (e *AppError) Code() string {
	return e.code
}

// ClientMessage 내부 에러를 제외한 메시지. 클라이언트 응답에 사용합니다.
func (e *AppError) ClientMessage() string {
	return e.message
}

func (e *AppError) Unwrap() error {
	return e.err
}

func NewAppError(code string, message string, err error) *AppError {
	return &AppError{
		code:    code,
		message: message,
		err:     err,
	}
}

// Wrap 기존 에러를 래핑합니다. 코드가 있으면 유지합니다.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return NewAppError(CodeOf(err), message, err)
}

// CodeOf 에러 체인에서 첫 번째 코드를 찾습니다. 없으면 ErrInternal.
func CodeOf(err error) string {
	var coder Coder
	if As(err, &coder) {
		return coder.Code()
	}
	return ErrInternal
}
