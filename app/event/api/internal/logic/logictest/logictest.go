// Package logictest 为 logic 用例测试组装内存 Store + miniredis 的 ServiceContext
package logictest

import (
	"context"
	"sync"
	"testing"
	"time"

	"event-platform/app/event/api/internal/archive"
	"event-platform/app/event/api/internal/capacity"
	"event-platform/app/event/api/internal/jobs"
	"event-platform/app/event/api/internal/notify"
	"event-platform/app/event/api/internal/svc"
	"event-platform/app/event/model"
	"event-platform/app/event/model/modeltest"
	"event-platform/common/coldstore"
	"event-platform/common/ctxdata"
	"event-platform/common/delayqueue"

	"github.com/zeromicro/go-zero/core/stores/redis/redistest"
)

// Base 测试基准时间
var Base = time.Date(2026, 6, 1, 8, 0, 0, 0, time.UTC)

// Clock 可调时钟
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *Clock) Set(t time.Time) {
	c.mu.Lock()
	c.now = t
	c.mu.Unlock()
}

// Env 测试环境
type Env struct {
	Svc   *svc.ServiceContext
	Store *modeltest.Store
	Queue *delayqueue.Queue
	Clock *Clock
}

// New 组装测试用 ServiceContext：内存 Store、miniredis 延迟队列、本地目录归档、无推送
func New(t *testing.T) *Env {
	t.Helper()
	clock := &Clock{now: Base}
	store := modeltest.NewStore()
	rds := redistest.CreateRedis(t)

	notifier := notify.NewNotifier(store, nil)
	queue := delayqueue.NewQueue(rds, delayqueue.Config{Prefix: "test:event:jobs"}).WithClock(clock.Now)
	worker := jobs.NewWorker(store, notifier)
	queue.OnExecute(worker.Execute)

	return &Env{
		Svc: &svc.ServiceContext{
			Store:    store,
			Redis:    rds,
			Notifier: notifier,
			Queue:    queue,
			Jobs:     jobs.NewEngine(queue, time.Hour).WithClock(clock.Now),
			Worker:   worker,
			Capacity: capacity.NewManager(),
			Archiver: archive.NewArchiver(store, coldstore.NewLocalStorage(t.TempDir()), 0).WithClock(clock.Now),
			Now:      clock.Now,
		},
		Store: store,
		Queue: queue,
		Clock: clock,
	}
}

// As 以指定用户身份构造上下文
func As(userID int64) context.Context {
	return ctxdata.WithUserID(context.Background(), userID)
}

// Scheduled 任务是否在队列中
func (e *Env) Scheduled(t *testing.T, id string) bool {
	t.Helper()
	_, ok, err := e.Queue.ScheduledAt(context.Background(), id)
	if err != nil {
		t.Fatalf("scheduled %s: %v", id, err)
	}
	return ok
}

// Notifications 某用户某类通知
func (e *Env) Notifications(recipientID int64, kind string) []*model.Notification {
	var out []*model.Notification
	for _, n := range e.Store.NotificationList() {
		if n.RecipientID == recipientID && n.Kind == kind {
			out = append(out, n)
		}
	}
	return out
}

// Statuses 活动成员状态 userID -> status
func (e *Env) Statuses(eventID int64) map[int64]int8 {
	out := map[int64]int8{}
	for _, m := range e.Store.MemberList(eventID) {
		out[m.UserID] = m.Status
	}
	return out
}
