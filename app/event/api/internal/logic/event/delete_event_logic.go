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

type DeleteEventLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

// 删除活动（软删除）
func NewDeleteEventLogic(ctx context.Context, svcCtx *svc.ServiceContext) *DeleteEventLogic {
	return &DeleteEventLogic{
		Logger: logx.WithContext(ctx),
		ctx:    ctx,
		svcCtx: svcCtx,
	}
}

// DeleteEvent 软删除，要求活动已取消满 30 天
func (l *DeleteEventLogic) DeleteEvent(req *types.DeleteEventReq) (*types.EventInfo, error) {
	userID, err := logic.RequireUser(l.ctx)
	if err != nil {
		return nil, err
	}
	now := l.svcCtx.Now()

	var result *model.Event
	err = logic.MutateEvent(l.ctx, l.svcCtx, req.Id, func(ctx context.Context, tx model.Store, e *model.Event, hooks *aftercommit.Hooks) error {
		if err := logic.EnsureOwner(e, userID); err != nil {
			return err
		}
		t, err := lifecycle.SoftDelete(e, userID, req.Reason, now)
		if err != nil {
			return err
		}
		if err := tx.Events().Save(ctx, e); err != nil {
			return err
		}
		if err := logic.AppendAudit(ctx, tx, e, model.AuditActionDelete, t.From, userID, map[string]string{"reason": req.Reason}); err != nil {
			return err
		}
		logic.AddClearJobs(l.svcCtx, hooks, e.ID)
		result = e
		return nil
	})
	if err != nil {
		return nil, err
	}

	l.Infof("删除活动成功: eventId=%d, operator=%d", req.Id, userID)
	info := logic.ConvertEventToInfo(result)
	return &info, nil
}
