// Package aftercommit 事务提交后的副作用（任务调度、通知推送）
//
// 这些副作用失败只记录日志，不影响已提交的业务状态。
package aftercommit

import (
	"context"
	"fmt"

	"github.com/zeromicro/go-zero/core/logx"
)

type hook struct {
	name string
	fn   func(ctx context.Context) error
}

// Hooks 按登记顺序执行的提交后回调
type Hooks struct {
	hooks []hook
}

// Add 登记回调；事务内多次调用时只有事务成功提交后才会执行
func (h *Hooks) Add(name string, fn func(ctx context.Context) error) {
	h.hooks = append(h.hooks, hook{name: name, fn: fn})
}

// Len 已登记的回调数
func (h *Hooks) Len() int {
	return len(h.hooks)
}

// Reset 清空回调（事务重试前调用）
func (h *Hooks) Reset() {
	h.hooks = h.hooks[:0]
}

// Run 依次执行全部回调，单个失败或 panic 不影响后续回调，返回失败个数
func (h *Hooks) Run(ctx context.Context) int {
	failed := 0
	for _, hk := range h.hooks {
		if err := safeCall(ctx, hk.fn); err != nil {
			failed++
			hookFailedTotal.WithLabelValues(hk.name).Inc()
			logx.WithContext(ctx).Errorf("[AfterCommit] %s 执行失败: %v", hk.name, err)
		}
	}
	return failed
}

func safeCall(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return fn(ctx)
}
