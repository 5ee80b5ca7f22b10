package response

import (
	"net/http"

	"event-platform/common/errorx"

	"github.com/zeromicro/go-zero/rest/httpx"
)

// Response 统一响应结构
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Field   string      `json:"field,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// Success 成功响应
func Success(w http.ResponseWriter, data interface{}) {
	resp := &Response{
		Code:    errorx.CodeSuccess,
		Message: "success",
		Data:    data,
	}
	httpx.OkJson(w, resp)
}

// Fail 失败响应（使用 BizError）
func Fail(w http.ResponseWriter, err error) {
	bizErr := errorx.FromError(err)
	resp := &Response{
		Code:    bizErr.Code,
		Message: bizErr.Message,
		Field:   bizErr.Field,
	}
	httpx.WriteJson(w, HttpStatus(err), resp)
}

// HttpStatus 根据错误分类映射 HTTP 状态码
func HttpStatus(err error) int {
	if err == nil {
		return http.StatusOK
	}
	switch errorx.KindOf(err) {
	case errorx.KindInvalidInput:
		return http.StatusBadRequest
	case errorx.KindUnauthenticated:
		return http.StatusUnauthorized
	case errorx.KindForbidden:
		return http.StatusForbidden
	case errorx.KindNotFound:
		return http.StatusNotFound
	case errorx.KindFailedPrecondition:
		return http.StatusConflict
	case errorx.KindTooManyRequests:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// HandleError 统一错误处理（用于 handler 层）
// 用法: response.HandleError(w, err, func() { response.Success(w, data) })
func HandleError(w http.ResponseWriter, err error, successFn func()) {
	if err != nil {
		Fail(w, err)
		return
	}
	successFn()
}
