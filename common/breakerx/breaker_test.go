package breakerx

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errDownstream = errors.New("downstream")

func TestBreakerOpensOnErrorRate(t *testing.T) {
	now := time.Date(2026, 6, 1, 8, 0, 0, 0, time.UTC)
	b := New(Config{Name: "qiniu", MinRequests: 4, ErrorRate: 0.5, OpenFor: time.Minute}).
		WithClock(func() time.Time { return now })
	ctx := context.Background()

	require.NoError(t, b.DoCtx(ctx, func() error { return nil }))
	require.NoError(t, b.DoCtx(ctx, func() error { return nil }))
	assert.ErrorIs(t, b.DoCtx(ctx, func() error { return errDownstream }), errDownstream)
	assert.False(t, b.Open(), "样本不足时不熔断")

	assert.ErrorIs(t, b.DoCtx(ctx, func() error { return errDownstream }), errDownstream)
	assert.True(t, b.Open())

	called := false
	err := b.DoCtx(ctx, func() error { called = true; return nil })
	assert.ErrorIs(t, err, ErrOpen)
	assert.False(t, called)

	now = now.Add(time.Minute)
	err = b.DoCtx(ctx, func() error { called = true; return nil })
	assert.NoError(t, err)
	assert.True(t, called, "熔断到期后放行")
}

func TestBreakerBelowErrorRate(t *testing.T) {
	b := New(Config{MinRequests: 4, ErrorRate: 0.5})
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		require.NoError(t, b.DoCtx(ctx, func() error { return nil }))
	}
	_ = b.DoCtx(ctx, func() error { return errDownstream })
	assert.False(t, b.Open())
}

func TestBreakerCanceledContext(t *testing.T) {
	b := New(Config{MinRequests: 1, ErrorRate: 0.5})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := b.DoCtx(ctx, func() error { called = true; return nil })
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
	assert.False(t, b.Open())
}

func TestNewDefaults(t *testing.T) {
	b := New(Config{Name: "x"})
	assert.Equal(t, "x", b.Name())
	assert.Equal(t, int64(defaultMinRequests), b.minRequests)
	assert.Equal(t, defaultErrorRate, b.errorRate)
	assert.Equal(t, defaultOpenFor, b.openFor)
}
