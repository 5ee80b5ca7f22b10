// Package jobs 活动提醒与反馈的定时任务
//
// 任务ID由 (活动ID, 类型, 偏移秒数) 确定，同一提醒重复入队只会覆盖；
// 改期 = 清理旧任务 + 按新时间入队，不需要内存中的定时器表。
package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"event-platform/app/event/model"
	"event-platform/common/utils/idgen"
)

const (
	KindReminder = "reminder"
	KindFeedback = "feedback"

	// MinLead 距离执行时间不足该值的任务不再入队
	MinLead = 5 * time.Second
	// DefaultFeedbackDelay 活动结束后多久发送反馈邀请
	DefaultFeedbackDelay = time.Hour
)

// ReminderOffsets 开始前提醒档位（从远到近）
var ReminderOffsets = []time.Duration{
	24 * time.Hour,
	12 * time.Hour,
	6 * time.Hour,
	3 * time.Hour,
	60 * time.Minute,
	30 * time.Minute,
	15 * time.Minute,
	9 * time.Minute,
	8 * time.Minute,
	7 * time.Minute,
	6 * time.Minute,
	5 * time.Minute,
	4 * time.Minute,
	3 * time.Minute,
	2 * time.Minute,
	1 * time.Minute,
}

// Queue 延迟队列（delayqueue.Queue 实现）
type Queue interface {
	EnqueueAt(ctx context.Context, id string, payload []byte, runAt time.Time) error
	Remove(ctx context.Context, ids ...string) error
}

// Payload 任务数据，执行时与活动当前时间比对以识别过期任务
type Payload struct {
	EventID       int64  `json:"event_id"`
	Kind          string `json:"kind"`
	OffsetSeconds int64  `json:"offset_seconds"`
	StartAt       int64  `json:"start_at,omitempty"`
	EndAt         int64  `json:"end_at,omitempty"`
}

// Engine 任务调度
type Engine struct {
	queue         Queue
	feedbackDelay time.Duration
	now           func() time.Time
}

// NewEngine 创建调度器，feedbackDelay<=0 使用默认值
func NewEngine(queue Queue, feedbackDelay time.Duration) *Engine {
	if feedbackDelay <= 0 {
		feedbackDelay = DefaultFeedbackDelay
	}
	return &Engine{
		queue:         queue,
		feedbackDelay: feedbackDelay,
		now:           time.Now,
	}
}

// WithClock 替换时钟（测试用）
func (e *Engine) WithClock(now func() time.Time) *Engine {
	e.now = now
	return e
}

// ReminderJobID 提醒任务ID
func ReminderJobID(eventID int64, offset time.Duration) string {
	return idgen.JobID(eventID, KindReminder, int64(offset/time.Second))
}

// FeedbackJobID 反馈任务ID
func (e *Engine) FeedbackJobID(eventID int64) string {
	return idgen.JobID(eventID, KindFeedback, int64(e.feedbackDelay/time.Second))
}

// EnqueueReminders 按提醒档位入队，已过或过近的档位跳过，返回入队数量
func (e *Engine) EnqueueReminders(ctx context.Context, eventID, startAt int64) (int, error) {
	now := e.now()
	start := time.Unix(startAt, 0)

	enqueued := 0
	for _, offset := range ReminderOffsets {
		runAt := start.Add(-offset)
		if runAt.Sub(now) <= MinLead {
			continue
		}
		payload, err := json.Marshal(Payload{
			EventID:       eventID,
			Kind:          KindReminder,
			OffsetSeconds: int64(offset / time.Second),
			StartAt:       startAt,
		})
		if err != nil {
			return enqueued, err
		}
		if err := e.queue.EnqueueAt(ctx, ReminderJobID(eventID, offset), payload, runAt); err != nil {
			return enqueued, fmt.Errorf("enqueue reminder %s: %w", offset, err)
		}
		enqueued++
	}
	return enqueued, nil
}

// ClearReminders 删除活动全部提醒任务（不存在的忽略）
func (e *Engine) ClearReminders(ctx context.Context, eventID int64) error {
	ids := make([]string, 0, len(ReminderOffsets))
	for _, offset := range ReminderOffsets {
		ids = append(ids, ReminderJobID(eventID, offset))
	}
	return e.queue.Remove(ctx, ids...)
}

// RescheduleReminders 清理后按新开始时间重新入队
func (e *Engine) RescheduleReminders(ctx context.Context, eventID, startAt int64) (int, error) {
	if err := e.ClearReminders(ctx, eventID); err != nil {
		return 0, err
	}
	return e.EnqueueReminders(ctx, eventID, startAt)
}

// EnqueueFeedback 结束后 feedbackDelay 发送反馈邀请，执行时间已过或过近时返回 false
func (e *Engine) EnqueueFeedback(ctx context.Context, eventID, endAt int64) (bool, error) {
	runAt := time.Unix(endAt, 0).Add(e.feedbackDelay)
	if runAt.Sub(e.now()) <= MinLead {
		return false, nil
	}
	payload, err := json.Marshal(Payload{
		EventID:       eventID,
		Kind:          KindFeedback,
		OffsetSeconds: int64(e.feedbackDelay / time.Second),
		EndAt:         endAt,
	})
	if err != nil {
		return false, err
	}
	if err := e.queue.EnqueueAt(ctx, e.FeedbackJobID(eventID), payload, runAt); err != nil {
		return false, fmt.Errorf("enqueue feedback: %w", err)
	}
	return true, nil
}

// ClearFeedback 删除反馈任务
func (e *Engine) ClearFeedback(ctx context.Context, eventID int64) error {
	return e.queue.Remove(ctx, e.FeedbackJobID(eventID))
}

// RescheduleFeedback 清理后按新结束时间重新入队
func (e *Engine) RescheduleFeedback(ctx context.Context, eventID, endAt int64) (bool, error) {
	if err := e.ClearFeedback(ctx, eventID); err != nil {
		return false, err
	}
	return e.EnqueueFeedback(ctx, eventID, endAt)
}

// ClearAll 删除活动的全部任务
func (e *Engine) ClearAll(ctx context.Context, eventID int64) error {
	if err := e.ClearReminders(ctx, eventID); err != nil {
		return err
	}
	return e.ClearFeedback(ctx, eventID)
}

// Sync 按活动当前状态对齐任务：已发布且未取消/删除时重排，否则全部清理
func (e *Engine) Sync(ctx context.Context, event *model.Event) error {
	if !event.IsPublished() || event.IsReadOnly() {
		return e.ClearAll(ctx, event.ID)
	}
	if _, err := e.RescheduleReminders(ctx, event.ID, event.StartAt); err != nil {
		return err
	}
	_, err := e.RescheduleFeedback(ctx, event.ID, event.EndAt)
	return err
}
