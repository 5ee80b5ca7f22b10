// Package breakerx 基于错误率的熔断器
//
// 滑动窗口内请求数达到 MinRequests 且错误率不低于 ErrorRate 时熔断，
// 熔断期间请求直接返回 ErrOpen，OpenFor 之后自动放行并重新统计。
// 用于保护外部依赖（如七牛云归档上传），调用方配合降级路径使用。
package breakerx

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/zeromicro/go-zero/core/collection"
	"github.com/zeromicro/go-zero/core/logx"
)

// ErrOpen 熔断打开
var ErrOpen = errors.New("circuit breaker is open")

const (
	defaultWindow      = 10 * time.Second
	defaultBuckets     = 20
	defaultMinRequests = 5
	defaultErrorRate   = 0.5
	defaultOpenFor     = 30 * time.Second
)

// Config 熔断配置，零值字段使用默认值
type Config struct {
	Name        string        `json:",optional"`
	Window      time.Duration `json:",default=10s"`
	MinRequests int           `json:",default=5"`
	ErrorRate   float64       `json:",default=0.5"`
	OpenFor     time.Duration `json:",default=30s"`
}

// Breaker 错误率熔断器，并发安全
type Breaker struct {
	name        string
	minRequests int64
	errorRate   float64
	openFor     time.Duration
	window      *collection.RollingWindow[int64, *collection.Bucket[int64]]
	now         func() time.Time

	mu        sync.Mutex
	openUntil time.Time
}

// New 创建熔断器
func New(c Config) *Breaker {
	window := c.Window
	if window <= 0 {
		window = defaultWindow
	}
	minRequests := c.MinRequests
	if minRequests <= 0 {
		minRequests = defaultMinRequests
	}
	errorRate := c.ErrorRate
	if errorRate <= 0 || errorRate > 1 {
		errorRate = defaultErrorRate
	}
	openFor := c.OpenFor
	if openFor <= 0 {
		openFor = defaultOpenFor
	}

	return &Breaker{
		name:        c.Name,
		minRequests: int64(minRequests),
		errorRate:   errorRate,
		openFor:     openFor,
		window: collection.NewRollingWindow[int64, *collection.Bucket[int64]](
			func() *collection.Bucket[int64] {
				return &collection.Bucket[int64]{}
			},
			defaultBuckets,
			window/time.Duration(defaultBuckets),
		),
		now: time.Now,
	}
}

// WithClock 替换时钟（测试用）
func (b *Breaker) WithClock(now func() time.Time) *Breaker {
	b.now = now
	return b
}

// Name 熔断器名称
func (b *Breaker) Name() string {
	return b.name
}

// Open 当前是否处于熔断状态
func (b *Breaker) Open() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.openUntil.IsZero() {
		return false
	}
	if b.now().Before(b.openUntil) {
		return true
	}
	b.openUntil = time.Time{}
	return false
}

// DoCtx 执行请求并记录结果；熔断打开或 ctx 已结束时不执行 req
func (b *Breaker) DoCtx(ctx context.Context, req func() error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if b.Open() {
		return ErrOpen
	}

	err := req()
	// ctx 取消不是下游故障，不计入错误率
	if err != nil && ctx.Err() != nil {
		return err
	}
	b.record(ctx, err == nil)
	return err
}

func (b *Breaker) record(ctx context.Context, success bool) {
	if success {
		b.window.Add(0)
	} else {
		b.window.Add(1)
	}

	failures, total := b.history()
	if total < b.minRequests || float64(failures)/float64(total) < b.errorRate {
		return
	}

	b.mu.Lock()
	b.openUntil = b.now().Add(b.openFor)
	b.mu.Unlock()
	logx.WithContext(ctx).Errorf("[Breaker] %s 熔断打开: failures=%d, total=%d, openFor=%s",
		b.name, failures, total, b.openFor)
}

func (b *Breaker) history() (failures, total int64) {
	b.window.Reduce(func(bucket *collection.Bucket[int64]) {
		failures += bucket.Sum
		total += bucket.Count
	})
	return failures, total
}
