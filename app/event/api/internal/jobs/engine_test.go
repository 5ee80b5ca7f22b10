package jobs

import (
	"context"
	"sync"
	"testing"
	"time"

	"event-platform/app/event/model"
	"event-platform/common/delayqueue"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zeromicro/go-zero/core/stores/redis/redistest"
)

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Set(t time.Time) {
	c.mu.Lock()
	c.now = t
	c.mu.Unlock()
}

var base = time.Date(2026, 6, 1, 8, 0, 0, 0, time.UTC)

func newTestEngine(t *testing.T) (*Engine, *delayqueue.Queue, *clock) {
	c := &clock{now: base}
	q := delayqueue.NewQueue(redistest.CreateRedis(t), delayqueue.Config{Prefix: "test:event:jobs"}).WithClock(c.Now)
	return NewEngine(q, time.Hour).WithClock(c.Now), q, c
}

func scheduled(t *testing.T, q *delayqueue.Queue, id string) (time.Time, bool) {
	t.Helper()
	at, ok, err := q.ScheduledAt(context.Background(), id)
	require.NoError(t, err)
	return at, ok
}

func TestEnqueueRemindersSkipsPastOffsets(t *testing.T) {
	engine, q, _ := newTestEngine(t)
	ctx := context.Background()

	// 开始时间在 2 小时后：24h/12h/6h/3h 已过
	startAt := base.Add(2 * time.Hour)
	n, err := engine.EnqueueReminders(ctx, 42, startAt.Unix())
	require.NoError(t, err)
	assert.Equal(t, len(ReminderOffsets)-4, n)

	_, ok := scheduled(t, q, ReminderJobID(42, 3*time.Hour))
	assert.False(t, ok)
	at, ok := scheduled(t, q, ReminderJobID(42, time.Hour))
	require.True(t, ok)
	assert.True(t, at.Equal(startAt.Add(-time.Hour)))

	// 重复入队不会产生重复任务
	_, err = engine.EnqueueReminders(ctx, 42, startAt.Unix())
	require.NoError(t, err)
	size, err := q.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, n, size)
}

func TestEnqueueRemindersMinLead(t *testing.T) {
	engine, q, _ := newTestEngine(t)
	ctx := context.Background()

	// 1 分钟档位距离现在正好 5 秒，不入队
	n, err := engine.EnqueueReminders(ctx, 7, base.Add(time.Minute+MinLead).Unix())
	require.NoError(t, err)
	assert.Zero(t, n)
	_, ok := scheduled(t, q, ReminderJobID(7, time.Minute))
	assert.False(t, ok)

	n, err = engine.EnqueueReminders(ctx, 7, base.Add(time.Minute+MinLead+time.Second).Unix())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	_, ok = scheduled(t, q, ReminderJobID(7, time.Minute))
	assert.True(t, ok)
}

func TestRescheduleMovesJobs(t *testing.T) {
	engine, q, _ := newTestEngine(t)
	ctx := context.Background()

	start := base.Add(48 * time.Hour)
	_, err := engine.EnqueueReminders(ctx, 42, start.Unix())
	require.NoError(t, err)
	_, err = engine.EnqueueFeedback(ctx, 42, start.Add(2*time.Hour).Unix())
	require.NoError(t, err)

	moved := start.Add(2 * time.Hour)
	_, err = engine.RescheduleReminders(ctx, 42, moved.Unix())
	require.NoError(t, err)
	_, err = engine.RescheduleFeedback(ctx, 42, moved.Add(2*time.Hour).Unix())
	require.NoError(t, err)

	for _, offset := range []time.Duration{24 * time.Hour, time.Hour} {
		at, ok := scheduled(t, q, ReminderJobID(42, offset))
		require.True(t, ok)
		assert.True(t, at.Equal(moved.Add(-offset)), "offset %s", offset)
	}
	at, ok := scheduled(t, q, engine.FeedbackJobID(42))
	require.True(t, ok)
	assert.True(t, at.Equal(moved.Add(3*time.Hour)))

	size, err := q.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, len(ReminderOffsets)+1, size)
}

func TestClearAll(t *testing.T) {
	engine, q, _ := newTestEngine(t)
	ctx := context.Background()

	start := base.Add(48 * time.Hour)
	_, err := engine.EnqueueReminders(ctx, 42, start.Unix())
	require.NoError(t, err)
	_, err = engine.EnqueueReminders(ctx, 43, start.Unix())
	require.NoError(t, err)
	_, err = engine.EnqueueFeedback(ctx, 42, start.Unix())
	require.NoError(t, err)

	require.NoError(t, engine.ClearAll(ctx, 42))
	// 没有任务时清理也不报错
	require.NoError(t, engine.ClearAll(ctx, 42))

	size, err := q.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, len(ReminderOffsets), size)
}

func TestEnqueueFeedbackInPast(t *testing.T) {
	engine, _, _ := newTestEngine(t)
	ok, err := engine.EnqueueFeedback(context.Background(), 42, base.Add(-2*time.Hour).Unix())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSyncClearsWhenNotPublished(t *testing.T) {
	engine, q, _ := newTestEngine(t)
	ctx := context.Background()

	event := &model.Event{
		ID:      42,
		Status:  model.EventStatusPublished,
		StartAt: base.Add(48 * time.Hour).Unix(),
		EndAt:   base.Add(50 * time.Hour).Unix(),
	}
	require.NoError(t, engine.Sync(ctx, event))
	size, err := q.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, len(ReminderOffsets)+1, size)

	event.CanceledAt = base.Unix()
	require.NoError(t, engine.Sync(ctx, event))
	size, err = q.Len(ctx)
	require.NoError(t, err)
	assert.Zero(t, size)
}
