package cron

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"event-platform/app/event/api/internal/archive"
	"event-platform/app/event/model"
	"event-platform/app/event/model/modeltest"
	"event-platform/common/constants"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zeromicro/go-zero/core/stores/redis/redistest"
)

type memStorage struct {
	mu   sync.Mutex
	keys []string
}

func (s *memStorage) Put(_ context.Context, key string, _ []byte) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.keys = append(s.keys, key)
	return "mem://" + key, nil
}

var now = time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)

func insertEvent(t *testing.T, store *modeltest.Store, e *model.Event) *model.Event {
	t.Helper()
	e.OwnerID = 1
	require.NoError(t, store.Events().Insert(context.Background(), e))
	return e
}

func TestRunOncePublishesDueAndArchives(t *testing.T) {
	rds := redistest.CreateRedis(t)
	store := modeltest.NewStore()
	ctx := context.Background()

	due := insertEvent(t, store, &model.Event{Status: model.EventStatusScheduled, PublishAt: now.Add(-time.Minute).Unix(), StartAt: now.Add(time.Hour).Unix(), EndAt: now.Add(2 * time.Hour).Unix()})
	broken := insertEvent(t, store, &model.Event{Status: model.EventStatusScheduled, PublishAt: now.Add(-time.Minute).Unix(), StartAt: now.Add(time.Hour).Unix(), EndAt: now.Add(2 * time.Hour).Unix()})
	insertEvent(t, store, &model.Event{Status: model.EventStatusScheduled, PublishAt: now.Add(time.Minute).Unix(), StartAt: now.Add(time.Hour).Unix(), EndAt: now.Add(2 * time.Hour).Unix()})

	old := insertEvent(t, store, &model.Event{StartAt: now.AddDate(0, 0, -60).Unix(), EndAt: now.AddDate(0, 0, -59).Unix(), CanceledAt: now.AddDate(0, 0, -40).Unix()})
	require.NoError(t, store.AuditLogs().Insert(ctx, &model.EventAuditLog{EventID: old.ID, Action: model.AuditActionCancel}))
	recent := insertEvent(t, store, &model.Event{StartAt: now.Add(time.Hour).Unix(), EndAt: now.Add(2 * time.Hour).Unix(), CanceledAt: now.AddDate(0, 0, -3).Unix()})

	var (
		mu        sync.Mutex
		published []int64
	)
	publish := func(ctx context.Context, eventID int64) error {
		if eventID == broken.ID {
			return errors.New("optimistic lock conflict")
		}
		mu.Lock()
		published = append(published, eventID)
		mu.Unlock()
		return nil
	}

	storage := &memStorage{}
	c := NewLifecycleCron(rds, store, publish, archive.NewArchiver(store, storage, 10), Config{}).
		WithClock(func() time.Time { return now })

	report := c.RunOnce(ctx)
	assert.Equal(t, 1, report.Published)
	assert.Equal(t, 1, report.Failed)
	assert.Equal(t, 1, report.Archived)
	assert.Equal(t, []int64{due.ID}, published)

	assert.NotZero(t, store.Event(old.ID).AuditArchivedAt)
	assert.Zero(t, store.Event(recent.ID).AuditArchivedAt)
	assert.Len(t, storage.keys, 1)

	// 锁已释放，可以再次执行；已归档的不再处理
	report = c.RunOnce(ctx)
	assert.Zero(t, report.Archived)
	assert.Len(t, storage.keys, 1)
}

func TestRunOnceSkipsWhenLocked(t *testing.T) {
	rds := redistest.CreateRedis(t)
	store := modeltest.NewStore()
	ctx := context.Background()

	insertEvent(t, store, &model.Event{Status: model.EventStatusScheduled, PublishAt: now.Add(-time.Minute).Unix(), StartAt: now.Add(time.Hour).Unix(), EndAt: now.Add(2 * time.Hour).Unix()})

	other := NewRedisLock(rds, constants.GetCronLockKey(sweepPublish), time.Minute)
	ok, err := other.TryLock(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	defer other.Unlock(ctx)

	calls := 0
	c := NewLifecycleCron(rds, store, func(ctx context.Context, eventID int64) error {
		calls++
		return nil
	}, archive.NewArchiver(store, &memStorage{}, 10), Config{}).WithClock(func() time.Time { return now })

	report := c.RunOnce(ctx)
	assert.Zero(t, report.Published)
	assert.Zero(t, calls)
}

func TestRedisLockOwnership(t *testing.T) {
	rds := redistest.CreateRedis(t)
	ctx := context.Background()

	a := NewRedisLock(rds, "test:lock", time.Minute)
	b := NewRedisLock(rds, "test:lock", time.Minute)

	ok, err := a.TryLock(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = b.TryLock(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	// 非持有者释放不会删除锁
	require.NoError(t, b.Unlock(ctx))
	exists, err := rds.ExistsCtx(ctx, "test:lock")
	require.NoError(t, err)
	assert.True(t, exists)

	require.NoError(t, a.Refresh(ctx))
	require.NoError(t, a.Unlock(ctx))
	exists, err = rds.ExistsCtx(ctx, "test:lock")
	require.NoError(t, err)
	assert.False(t, exists)
}
