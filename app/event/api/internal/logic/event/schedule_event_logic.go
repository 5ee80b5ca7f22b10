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

type ScheduleEventLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

// 设置定时发布
func NewScheduleEventLogic(ctx context.Context, svcCtx *svc.ServiceContext) *ScheduleEventLogic {
	return &ScheduleEventLogic{
		Logger: logx.WithContext(ctx),
		ctx:    ctx,
		svcCtx: svcCtx,
	}
}

// ScheduleEvent 设置定时发布，到期由 LifecycleCron 发布
func (l *ScheduleEventLogic) ScheduleEvent(req *types.ScheduleEventReq) (*types.EventInfo, error) {
	userID, err := logic.RequireUser(l.ctx)
	if err != nil {
		return nil, err
	}

	var result *model.Event
	err = logic.MutateEvent(l.ctx, l.svcCtx, req.Id, func(ctx context.Context, tx model.Store, e *model.Event, hooks *aftercommit.Hooks) error {
		if err := logic.EnsureOwner(e, userID); err != nil {
			return err
		}
		t, err := lifecycle.SchedulePublication(e, req.PublishAt, l.svcCtx.Now())
		if err != nil {
			return err
		}
		if err := tx.Events().Save(ctx, e); err != nil {
			return err
		}
		result = e
		return logic.AppendAudit(ctx, tx, e, model.AuditActionSchedule, t.From, userID, map[string]int64{"publish_at": req.PublishAt})
	})
	if err != nil {
		return nil, err
	}

	l.Infof("设置定时发布: eventId=%d, publishAt=%d", req.Id, req.PublishAt)
	info := logic.ConvertEventToInfo(result)
	return &info, nil
}
