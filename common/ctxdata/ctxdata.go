// Package ctxdata 请求上下文中的身份与追踪信息
package ctxdata

import (
	"context"
	"encoding/json"
	"strconv"
)

// ClaimUserID JWT 中的用户ID字段，go-zero 会以该字符串为 key 注入 context
const ClaimUserID = "userId"

type ctxKey int

const (
	userIDKey ctxKey = iota
	traceIDKey
)

// UserID 当前请求的用户ID，未登录或格式不对时返回 0
func UserID(ctx context.Context) int64 {
	if id, ok := ctx.Value(userIDKey).(int64); ok {
		return id
	}
	switch v := ctx.Value(ClaimUserID).(type) {
	case json.Number:
		id, _ := v.Int64()
		return id
	case float64:
		return int64(v)
	case int64:
		return v
	case string:
		id, _ := strconv.ParseInt(v, 10, 64)
		return id
	}
	return 0
}

// WithUserID 注入用户ID（后台任务、测试）
func WithUserID(ctx context.Context, userID int64) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// TraceID 当前请求的追踪ID
func TraceID(ctx context.Context) string {
	id, _ := ctx.Value(traceIDKey).(string)
	return id
}

// WithTraceID 注入追踪ID
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, traceIDKey, traceID)
}
