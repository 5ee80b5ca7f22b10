package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"event-platform/app/event/api/internal/notify"
	"event-platform/app/event/model"
	"event-platform/common/delayqueue"

	"github.com/zeromicro/go-zero/core/logx"
)

// Worker 执行到期任务
// 队列是至少一次投递，任务可能重复或已过期，执行前必须重新读取活动
type Worker struct {
	store    model.Store
	notifier *notify.Notifier
}

// NewWorker 创建任务执行器
func NewWorker(store model.Store, notifier *notify.Notifier) *Worker {
	return &Worker{store: store, notifier: notifier}
}

// Execute 实现 delayqueue.Handler，返回 error 时由队列退避重试
func (w *Worker) Execute(ctx context.Context, job delayqueue.Job) error {
	logger := logx.WithContext(ctx)

	var p Payload
	if err := json.Unmarshal(job.Payload, &p); err != nil {
		// 数据损坏，重试无意义
		logger.Errorf("[Jobs] 任务数据无效，丢弃: id=%s, err=%v", job.ID, err)
		return nil
	}

	event, err := w.store.Events().FindByID(ctx, p.EventID)
	if errors.Is(err, model.ErrEventNotFound) {
		logger.Infof("[Jobs] 活动不存在，跳过: id=%s", job.ID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("load event %d: %w", p.EventID, err)
	}

	if reason := skipReason(event, p); reason != "" {
		skippedTotal.WithLabelValues(p.Kind, reason).Inc()
		logger.Infof("[Jobs] 跳过任务: id=%s, reason=%s", job.ID, reason)
		return nil
	}

	switch p.Kind {
	case KindReminder:
		return w.remind(ctx, event, p)
	case KindFeedback:
		return w.requestFeedback(ctx, event)
	default:
		logger.Errorf("[Jobs] 未知任务类型，丢弃: id=%s, kind=%s", job.ID, p.Kind)
		return nil
	}
}

// skipReason 活动已不适合执行该任务时返回原因
func skipReason(event *model.Event, p Payload) string {
	switch {
	case event.IsDeleted():
		return "deleted"
	case event.IsCanceled():
		return "canceled"
	case !event.IsPublished():
		return "unpublished"
	case p.Kind == KindReminder && p.StartAt != event.StartAt:
		return "rescheduled"
	case p.Kind == KindFeedback && p.EndAt != event.EndAt:
		return "rescheduled"
	}
	return ""
}

func (w *Worker) remind(ctx context.Context, event *model.Event, p Payload) error {
	recipients, err := w.store.Members().ListUserIDsByStatuses(ctx, event.ID, []int8{model.MemberStatusJoined})
	if err != nil {
		return err
	}

	_, err = w.notifier.Notify(ctx, notify.Request{
		Recipients: recipients,
		Kind:       model.NotifyEventReminder,
		EntityType: model.EntityTypeEvent,
		EntityID:   event.ID,
		Version:    fmt.Sprintf("%d:%d", event.StartAt, p.OffsetSeconds),
		Data: notify.ReminderData{
			Title:         event.Title,
			StartAt:       event.StartAt,
			OffsetSeconds: p.OffsetSeconds,
		},
	})
	return err
}

func (w *Worker) requestFeedback(ctx context.Context, event *model.Event) error {
	joined, err := w.store.Members().ListUserIDsByStatuses(ctx, event.ID, []int8{model.MemberStatusJoined})
	if err != nil {
		return err
	}

	// 组织者不需要给自己的活动反馈
	recipients := make([]int64, 0, len(joined))
	for _, uid := range joined {
		if uid != event.OwnerID {
			recipients = append(recipients, uid)
		}
	}

	_, err = w.notifier.Notify(ctx, notify.Request{
		Recipients: recipients,
		Kind:       model.NotifyEventFeedback,
		EntityType: model.EntityTypeEvent,
		EntityID:   event.ID,
		Version:    event.EndAt,
		Data: notify.FeedbackData{
			Title: event.Title,
			EndAt: event.EndAt,
		},
	})
	return err
}
