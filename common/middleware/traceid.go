// Package middleware HTTP 中间件
package middleware

import (
	"net/http"

	"event-platform/common/ctxdata"

	"github.com/google/uuid"
	"github.com/zeromicro/go-zero/core/logx"
)

// TraceIDHeader 请求/响应中的追踪ID头
const TraceIDHeader = "X-Trace-ID"

// 客户端可能使用的请求ID头，按优先级读取
var traceHeaders = []string{TraceIDHeader, "X-Request-ID"}

// TraceID 为每个请求注入 trace_id
// 优先沿用客户端传入的ID，否则生成新的；同时写入 logx 字段，
// 之后 logx.WithContext 打出的日志都带 trace_id
//
//	server.Use(middleware.TraceID)
func TraceID(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		traceID := ""
		for _, h := range traceHeaders {
			if traceID = r.Header.Get(h); traceID != "" {
				break
			}
		}
		if traceID == "" {
			traceID = uuid.NewString()
		}

		ctx := ctxdata.WithTraceID(r.Context(), traceID)
		ctx = logx.ContextWithFields(ctx, logx.Field("trace_id", traceID))
		w.Header().Set(TraceIDHeader, traceID)

		next(w, r.WithContext(ctx))
	}
}
