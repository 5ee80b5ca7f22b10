package member

import (
	"context"

	"event-platform/app/event/api/internal/aftercommit"
	"event-platform/app/event/api/internal/capacity"
	"event-platform/app/event/api/internal/logic"
	"event-platform/app/event/api/internal/notify"
	"event-platform/app/event/api/internal/svc"
	"event-platform/app/event/api/internal/types"
	"event-platform/app/event/api/internal/validate"
	"event-platform/app/event/model"
	"event-platform/common/errorx"

	"github.com/zeromicro/go-zero/core/logx"
)

type JoinEventLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

// 报名活动
func NewJoinEventLogic(ctx context.Context, svcCtx *svc.ServiceContext) *JoinEventLogic {
	return &JoinEventLogic{
		Logger: logx.WithContext(ctx),
		ctx:    ctx,
		svcCtx: svcCtx,
	}
}

// JoinEvent 报名
//
// 业务流程：
//  1. 全局令牌桶限流
//  2. 锁行后检查：已发布、未取消、在报名窗口内
//  3. 名额判断：JOINED / PENDING / WAITLIST / 名额已满
//  4. 需要审批时通知组织者
func (l *JoinEventLogic) JoinEvent(req *types.EventIdReq) (*types.MemberResp, error) {
	userID, err := logic.RequireUser(l.ctx)
	if err != nil {
		return nil, err
	}

	// 1. 限流
	if l.svcCtx.JoinLimiter != nil && !l.svcCtx.JoinLimiter.AllowCtx(l.ctx) {
		l.Infof("报名限流: eventId=%d, userId=%d", req.Id, userID)
		return nil, errorx.ErrTooManyRequests()
	}

	now := l.svcCtx.Now()
	resp, err := runMemberOp(l.ctx, l.svcCtx, memberCall{
		eventID: req.Id,
		actorID: userID,
		action:  model.AuditActionJoin,
		op: func(ctx context.Context, tx model.Store, e *model.Event) (*capacity.Outcome, error) {
			// 2. 前置检查
			if !e.IsPublished() {
				return nil, errorx.NewWithMessage(errorx.CodeEventStatusInvalid, "活动未发布，不能报名")
			}
			if err := validate.JoinOpen(e, now); err != nil {
				return nil, err
			}
			// 3. 名额判断
			return l.svcCtx.Capacity.Join(ctx, tx, e, userID, now)
		},
		after: func(ctx context.Context, tx model.Store, e *model.Event, out *capacity.Outcome, hooks *aftercommit.Hooks) error {
			// 4. 待审批通知组织者
			if out.Member.Status != model.MemberStatusPending {
				return nil
			}
			logic.AddNotify(l.svcCtx, hooks, notify.Request{
				Recipients: []int64{e.OwnerID},
				Kind:       model.NotifyJoinRequested,
				ActorID:    userID,
				EntityType: model.EntityTypeEvent,
				EntityID:   e.ID,
				Version:    out.Member.QueuedAt,
				Data:       notify.MemberData{Title: e.Title, UserID: userID},
			})
			return nil
		},
	})
	if err != nil {
		return nil, err
	}

	l.Infof("报名: eventId=%d, userId=%d, status=%d", req.Id, userID, resp.Status)
	return resp, nil
}
