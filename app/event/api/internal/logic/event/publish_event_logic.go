package event

import (
	"context"

	"event-platform/app/event/api/internal/aftercommit"
	"event-platform/app/event/api/internal/lifecycle"
	"event-platform/app/event/api/internal/logic"
	"event-platform/app/event/api/internal/svc"
	"event-platform/app/event/api/internal/types"
	"event-platform/app/event/model"

	"github.com/zeromicro/go-zero/core/logx"
)

type PublishEventLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

// 发布活动
func NewPublishEventLogic(ctx context.Context, svcCtx *svc.ServiceContext) *PublishEventLogic {
	return &PublishEventLogic{
		Logger: logx.WithContext(ctx),
		ctx:    ctx,
		svcCtx: svcCtx,
	}
}

// PublishEvent 发布活动，已发布时幂等返回
func (l *PublishEventLogic) PublishEvent(req *types.EventIdReq) (*types.EventInfo, error) {
	userID, err := logic.RequireUser(l.ctx)
	if err != nil {
		return nil, err
	}

	var result *model.Event
	err = logic.MutateEvent(l.ctx, l.svcCtx, req.Id, func(ctx context.Context, tx model.Store, e *model.Event, hooks *aftercommit.Hooks) error {
		if err := logic.EnsureOwner(e, userID); err != nil {
			return err
		}
		result = e
		_, err := publish(ctx, l.svcCtx, tx, e, hooks, userID, model.AuditActionPublish)
		return err
	})
	if err != nil {
		return nil, err
	}

	l.Infof("发布活动: eventId=%d, operator=%d", req.Id, userID)
	info := logic.ConvertEventToInfo(result)
	return &info, nil
}

// AutoPublish 定时发布到期：与手动发布走同一流程，操作人为系统
// 活动已不再处于定时发布状态（被下架或已发布）时跳过
func AutoPublish(svcCtx *svc.ServiceContext) func(ctx context.Context, eventID int64) error {
	return func(ctx context.Context, eventID int64) error {
		now := svcCtx.Now()
		published := false
		err := logic.MutateEvent(ctx, svcCtx, eventID, func(ctx context.Context, tx model.Store, e *model.Event, hooks *aftercommit.Hooks) error {
			if e.Status != model.EventStatusScheduled || e.IsReadOnly() || e.PublishAt > now.Unix() {
				return nil
			}
			var err error
			published, err = publish(ctx, svcCtx, tx, e, hooks, 0, model.AuditActionAutoPublish)
			return err
		})
		if err != nil {
			return err
		}
		if published {
			logx.WithContext(ctx).Infof("定时发布活动: eventId=%d", eventID)
		}
		return nil
	}
}

// publish 发布并登记提醒/反馈任务，返回是否发生变更
func publish(ctx context.Context, svcCtx *svc.ServiceContext, tx model.Store, e *model.Event, hooks *aftercommit.Hooks, actorID int64, action string) (bool, error) {
	t, err := lifecycle.Publish(e, svcCtx.Now())
	if err != nil {
		return false, err
	}
	if !t.Changed {
		return false, nil
	}
	if err := tx.Events().Save(ctx, e); err != nil {
		return false, err
	}
	if err := logic.AppendAudit(ctx, tx, e, action, t.From, actorID, nil); err != nil {
		return false, err
	}
	logic.AddSyncJobs(svcCtx, hooks, e)
	return true, nil
}
