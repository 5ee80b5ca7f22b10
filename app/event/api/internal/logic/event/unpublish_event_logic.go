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

type UnpublishEventLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

// 下架活动 / 取消定时发布
func NewUnpublishEventLogic(ctx context.Context, svcCtx *svc.ServiceContext) *UnpublishEventLogic {
	return &UnpublishEventLogic{
		Logger: logx.WithContext(ctx),
		ctx:    ctx,
		svcCtx: svcCtx,
	}
}

// UnpublishEvent 回到草稿并清理全部任务；已是草稿时幂等返回
func (l *UnpublishEventLogic) UnpublishEvent(req *types.EventIdReq) (*types.EventInfo, error) {
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
		t, err := lifecycle.Unpublish(e)
		if err != nil || !t.Changed {
			return err
		}
		if err := tx.Events().Save(ctx, e); err != nil {
			return err
		}
		if err := logic.AppendAudit(ctx, tx, e, model.AuditActionUnpublish, t.From, userID, nil); err != nil {
			return err
		}
		logic.AddClearJobs(l.svcCtx, hooks, e.ID)
		return nil
	})
	if err != nil {
		return nil, err
	}

	info := logic.ConvertEventToInfo(result)
	return &info, nil
}
