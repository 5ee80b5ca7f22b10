package member

import (
	"context"

	"event-platform/app/event/api/internal/capacity"
	"event-platform/app/event/api/internal/logic"
	"event-platform/app/event/api/internal/svc"
	"event-platform/app/event/api/internal/types"
	"event-platform/app/event/model"

	"github.com/zeromicro/go-zero/core/logx"
)

type LeaveEventLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

// 退出活动
func NewLeaveEventLogic(ctx context.Context, svcCtx *svc.ServiceContext) *LeaveEventLogic {
	return &LeaveEventLogic{
		Logger: logx.WithContext(ctx),
		ctx:    ctx,
		svcCtx: svcCtx,
	}
}

// LeaveEvent 退出活动，释放的名额按 FIFO 转正候补
func (l *LeaveEventLogic) LeaveEvent(req *types.EventIdReq) (*types.MemberResp, error) {
	userID, err := logic.RequireUser(l.ctx)
	if err != nil {
		return nil, err
	}

	now := l.svcCtx.Now()
	resp, err := runMemberOp(l.ctx, l.svcCtx, memberCall{
		eventID: req.Id,
		actorID: userID,
		action:  model.AuditActionLeave,
		op: func(ctx context.Context, tx model.Store, e *model.Event) (*capacity.Outcome, error) {
			return l.svcCtx.Capacity.Leave(ctx, tx, e, userID, now)
		},
	})
	if err != nil {
		return nil, err
	}

	l.Infof("退出活动: eventId=%d, userId=%d, promoted=%v", req.Id, userID, resp.Promoted)
	return resp, nil
}
