package member

import (
	"context"

	"event-platform/app/event/api/internal/aftercommit"
	"event-platform/app/event/api/internal/capacity"
	"event-platform/app/event/api/internal/logic"
	"event-platform/app/event/api/internal/notify"
	"event-platform/app/event/api/internal/svc"
	"event-platform/app/event/api/internal/types"
	"event-platform/app/event/model"

	"github.com/zeromicro/go-zero/core/logx"
)

type InviteMemberLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

// 邀请成员
func NewInviteMemberLogic(ctx context.Context, svcCtx *svc.ServiceContext) *InviteMemberLogic {
	return &InviteMemberLogic{
		Logger: logx.WithContext(ctx),
		ctx:    ctx,
		svcCtx: svcCtx,
	}
}

// InviteMember 组织者/协管邀请用户，被邀请人接受（报名）时免审批
func (l *InviteMemberLogic) InviteMember(req *types.MemberReq) (*types.MemberResp, error) {
	actorID, err := logic.RequireUser(l.ctx)
	if err != nil {
		return nil, err
	}

	now := l.svcCtx.Now()
	return runMemberOp(l.ctx, l.svcCtx, memberCall{
		eventID: req.Id,
		actorID: actorID,
		action:  model.AuditActionInvite,
		staff:   true,
		op: func(ctx context.Context, tx model.Store, e *model.Event) (*capacity.Outcome, error) {
			return l.svcCtx.Capacity.Invite(ctx, tx, e, actorID, req.UserId, now)
		},
		after: func(ctx context.Context, tx model.Store, e *model.Event, out *capacity.Outcome, hooks *aftercommit.Hooks) error {
			logic.AddNotify(l.svcCtx, hooks, notify.Request{
				Recipients: []int64{req.UserId},
				Kind:       model.NotifyMemberInvited,
				ActorID:    actorID,
				EntityType: model.EntityTypeEvent,
				EntityID:   e.ID,
				Version:    out.Member.QueuedAt,
				Data:       notify.MemberData{Title: e.Title, UserID: actorID},
			})
			return nil
		},
	})
}
