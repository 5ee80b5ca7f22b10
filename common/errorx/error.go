package errorx

import (
	"fmt"

	"github.com/pkg/errors"
)

// BizError 业务错误
// Message 直接返回给调用方；cause 只用于日志，不会序列化
type BizError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	// Field 参数校验失败时的字段名（其他错误为空）
	Field string `json:"field,omitempty"`

	cause error
}

func (e *BizError) Error() string {
	msg := fmt.Sprintf("BizError: code=%d", e.Code)
	if e.Field != "" {
		msg += ", field=" + e.Field
	}
	msg += ", message=" + e.Message
	if e.cause != nil {
		msg += ", cause=" + e.cause.Error()
	}
	return msg
}

// Unwrap 返回底层错误
func (e *BizError) Unwrap() error {
	return e.cause
}

// New 创建业务错误（使用默认消息）
func New(code int) *BizError {
	return &BizError{
		Code:    code,
		Message: GetMessage(code),
	}
}

// NewWithMessage 创建业务错误（自定义消息）
func NewWithMessage(code int, message string) *BizError {
	return &BizError{
		Code:    code,
		Message: message,
	}
}

// Wrap 用默认消息包装底层错误，底层错误不会暴露给调用方
func Wrap(code int, err error) *BizError {
	e := New(code)
	e.cause = err
	return e
}

// Is 判断错误链中是否有指定错误码的业务错误
func Is(err error, code int) bool {
	var bizErr *BizError
	return errors.As(err, &bizErr) && bizErr.Code == code
}

// FromError 转换为 BizError，非业务错误统一成内部错误（隐藏细节）
func FromError(err error) *BizError {
	if err == nil {
		return nil
	}

	var bizErr *BizError
	if errors.As(err, &bizErr) {
		return bizErr
	}
	return Wrap(CodeInternalError, errors.Cause(err))
}

// ============ 常用错误快捷方法 ============

// ErrInvalidParams 参数错误
func ErrInvalidParams(msg string) *BizError {
	if msg == "" {
		return New(CodeInvalidParams)
	}
	return NewWithMessage(CodeInvalidParams, msg)
}

// ErrInvalidField 字段级参数错误，错误信息中携带字段名
func ErrInvalidField(field, msg string) *BizError {
	return &BizError{
		Code:    CodeInvalidParams,
		Message: fmt.Sprintf("%s: %s", field, msg),
		Field:   field,
	}
}

// ErrUnauthorized 未登录
func ErrUnauthorized() *BizError {
	return New(CodeUnauthorized)
}

// ErrFailedPrecondition 状态不满足
func ErrFailedPrecondition(msg string) *BizError {
	if msg == "" {
		return New(CodeFailedPrecondition)
	}
	return NewWithMessage(CodeFailedPrecondition, msg)
}

// ErrTooManyRequests 请求过于频繁
func ErrTooManyRequests() *BizError {
	return New(CodeTooManyRequests)
}

// ErrDBError 数据库错误
func ErrDBError(err error) *BizError {
	return Wrap(CodeDBError, err)
}
