package event

import (
	"context"

	"event-platform/app/event/api/internal/aftercommit"
	"event-platform/app/event/api/internal/lifecycle"
	"event-platform/app/event/api/internal/logic"
	"event-platform/app/event/api/internal/notify"
	"event-platform/app/event/api/internal/svc"
	"event-platform/app/event/api/internal/types"
	"event-platform/app/event/model"

	"github.com/zeromicro/go-zero/core/logx"
)

// cancelRecipients 取消时需要通知的成员状态
var cancelRecipients = []int8{
	model.MemberStatusJoined,
	model.MemberStatusPending,
	model.MemberStatusInvited,
}

type CancelEventLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

// 取消活动
func NewCancelEventLogic(ctx context.Context, svcCtx *svc.ServiceContext) *CancelEventLogic {
	return &CancelEventLogic{
		Logger: logx.WithContext(ctx),
		ctx:    ctx,
		svcCtx: svcCtx,
	}
}

// CancelEvent 取消活动，重复取消直接返回当前状态，不产生副作用
func (l *CancelEventLogic) CancelEvent(req *types.CancelEventReq) (*types.EventInfo, error) {
	userID, err := logic.RequireUser(l.ctx)
	if err != nil {
		return nil, err
	}
	now := l.svcCtx.Now()

	var (
		result  *model.Event
		changed bool
	)
	err = logic.MutateEvent(l.ctx, l.svcCtx, req.Id, func(ctx context.Context, tx model.Store, e *model.Event, hooks *aftercommit.Hooks) error {
		if err := logic.EnsureOwner(e, userID); err != nil {
			return err
		}
		t, err := lifecycle.Cancel(e, userID, req.Reason, now)
		if err != nil {
			return err
		}
		result = e
		if !t.Changed {
			return nil
		}
		changed = true

		if err := tx.Events().Save(ctx, e); err != nil {
			return err
		}
		if err := logic.AppendAudit(ctx, tx, e, model.AuditActionCancel, t.From, userID, map[string]string{"reason": req.Reason}); err != nil {
			return err
		}
		recipients, err := tx.Members().ListUserIDsByStatuses(ctx, e.ID, cancelRecipients)
		if err != nil {
			return err
		}

		logic.AddClearJobs(l.svcCtx, hooks, e.ID)
		logic.AddNotify(l.svcCtx, hooks, notify.Request{
			Recipients: recipients,
			Kind:       model.NotifyEventCanceled,
			ActorID:    userID,
			EntityType: model.EntityTypeEvent,
			EntityID:   e.ID,
			Version:    e.CanceledAt,
			Data:       notify.CanceledData{Title: e.Title, Reason: req.Reason},
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	if changed {
		l.Infof("取消活动成功: eventId=%d, operator=%d", req.Id, userID)
	}
	info := logic.ConvertEventToInfo(result)
	return &info, nil
}
