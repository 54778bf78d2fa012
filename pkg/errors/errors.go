package errors

import (
	stderrors "errors"
	"fmt"
	"scalpbot/pkg/errors/ecode"
)

// Error 带错误码的错误，返回给客户端时由 DecodeErr 解析
type Error struct {
	Code    int
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.cause
}

func New(msg string) error {
	return stderrors.New(msg)
}

// WithCode 创建一个带错误码的错误
func WithCode(code int, msg string) error {
	return &Error{Code: code, Message: msg}
}

// Wrap 包装底层错误并附加错误码
func Wrap(err error, code int, msg string) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: msg, cause: err}
}

func Wrapf(err error, code int, format string, args ...any) error {
	return Wrap(err, code, fmt.Sprintf(format, args...))
}

func Is(err, target error) bool {
	return stderrors.Is(err, target)
}

func As(err error, target any) bool {
	return stderrors.As(err, target)
}

// DecodeErr 解析出错误码和提示信息，nil 表示成功
func DecodeErr(err error) (int, string) {
	if err == nil {
		return ecode.Success, ecode.Text(ecode.Success)
	}
	var e *Error
	if stderrors.As(err, &e) {
		return e.Code, e.Error()
	}
	return ecode.Unknown, err.Error()
}
