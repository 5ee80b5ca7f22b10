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

type ReviewMemberLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

// 审批 / 拒绝 / 禁止成员
func NewReviewMemberLogic(ctx context.Context, svcCtx *svc.ServiceContext) *ReviewMemberLogic {
	return &ReviewMemberLogic{
		Logger: logx.WithContext(ctx),
		ctx:    ctx,
		svcCtx: svcCtx,
	}
}

// ApproveMember 审批通过；名额已满时进入候补
func (l *ReviewMemberLogic) ApproveMember(req *types.MemberReq) (*types.MemberResp, error) {
	actorID, err := logic.RequireUser(l.ctx)
	if err != nil {
		return nil, err
	}

	now := l.svcCtx.Now()
	return runMemberOp(l.ctx, l.svcCtx, memberCall{
		eventID: req.Id,
		actorID: actorID,
		action:  model.AuditActionApprove,
		staff:   true,
		op: func(ctx context.Context, tx model.Store, e *model.Event) (*capacity.Outcome, error) {
			return l.svcCtx.Capacity.Approve(ctx, tx, e, req.UserId, now)
		},
		after: l.notifyMember(actorID, model.NotifyMemberApproved, now.Unix()),
	})
}

// RejectMember 拒绝待审批/候补/已邀请的成员
func (l *ReviewMemberLogic) RejectMember(req *types.MemberReq) (*types.MemberResp, error) {
	actorID, err := logic.RequireUser(l.ctx)
	if err != nil {
		return nil, err
	}

	now := l.svcCtx.Now()
	return runMemberOp(l.ctx, l.svcCtx, memberCall{
		eventID: req.Id,
		actorID: actorID,
		action:  model.AuditActionReject,
		staff:   true,
		op: func(ctx context.Context, tx model.Store, e *model.Event) (*capacity.Outcome, error) {
			return l.svcCtx.Capacity.Reject(ctx, tx, e, req.UserId)
		},
		after: l.notifyMember(actorID, model.NotifyMemberRejected, now.Unix()),
	})
}

// BanMember 禁止用户参加，原为 JOINED 时释放名额并转正候补
func (l *ReviewMemberLogic) BanMember(req *types.MemberReq) (*types.MemberResp, error) {
	actorID, err := logic.RequireUser(l.ctx)
	if err != nil {
		return nil, err
	}

	now := l.svcCtx.Now()
	resp, err := runMemberOp(l.ctx, l.svcCtx, memberCall{
		eventID: req.Id,
		actorID: actorID,
		action:  model.AuditActionBan,
		staff:   true,
		op: func(ctx context.Context, tx model.Store, e *model.Event) (*capacity.Outcome, error) {
			return l.svcCtx.Capacity.Ban(ctx, tx, e, req.UserId, now)
		},
	})
	if err != nil {
		return nil, err
	}

	l.Infof("禁止成员: eventId=%d, userId=%d, operator=%d", req.Id, req.UserId, actorID)
	return resp, nil
}

func (l *ReviewMemberLogic) notifyMember(actorID int64, kind string, version int64) afterOp {
	return func(ctx context.Context, tx model.Store, e *model.Event, out *capacity.Outcome, hooks *aftercommit.Hooks) error {
		logic.AddNotify(l.svcCtx, hooks, notify.Request{
			Recipients: []int64{out.Member.UserID},
			Kind:       kind,
			ActorID:    actorID,
			EntityType: model.EntityTypeEvent,
			EntityID:   e.ID,
			Version:    version,
			Data:       notify.MemberData{Title: e.Title},
		})
		return nil
	}
}
