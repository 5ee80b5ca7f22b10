package member

import (
	"context"

	"event-platform/app/event/api/internal/aftercommit"
	"event-platform/app/event/api/internal/capacity"
	"event-platform/app/event/api/internal/lifecycle"
	"event-platform/app/event/api/internal/logic"
	"event-platform/app/event/api/internal/svc"
	"event-platform/app/event/api/internal/types"
	"event-platform/app/event/model"
)

// memberOp 事务内执行的名额操作
type memberOp func(ctx context.Context, tx model.Store, e *model.Event) (*capacity.Outcome, error)

// afterOp 操作有变更时登记额外的提交后副作用
type afterOp func(ctx context.Context, tx model.Store, e *model.Event, out *capacity.Outcome, hooks *aftercommit.Hooks) error

// memberCall 一次成员操作
type memberCall struct {
	eventID int64
	actorID int64
	action  string
	// staff=true 要求操作人为组织者或协管
	staff bool
	op    memberOp
	after afterOp
}

// runMemberOp 锁行 -> 权限/只读检查 -> 名额操作 -> 审计日志 -> 转正通知
func runMemberOp(ctx context.Context, svcCtx *svc.ServiceContext, call memberCall) (*types.MemberResp, error) {
	var out *capacity.Outcome
	err := logic.MutateEvent(ctx, svcCtx, call.eventID, func(ctx context.Context, tx model.Store, e *model.Event, hooks *aftercommit.Hooks) error {
		if call.staff {
			if err := logic.EnsureStaff(ctx, tx, e, call.actorID); err != nil {
				return err
			}
		}
		if err := lifecycle.EnsureMutable(e); err != nil {
			return err
		}

		var err error
		out, err = call.op(ctx, tx, e)
		if err != nil {
			return err
		}
		if !out.Changed {
			return nil
		}

		if err := logic.AppendAudit(ctx, tx, e, call.action, e.Status, call.actorID, logic.LogOutcome(out)); err != nil {
			return err
		}
		logic.AddNotifyPromoted(svcCtx, hooks, e, out.Promoted)
		if call.after != nil {
			return call.after(ctx, tx, e, out, hooks)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return logic.ConvertOutcomeToMemberResp(out), nil
}
