package logic

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"event-platform/app/event/api/internal/aftercommit"
	"event-platform/app/event/api/internal/capacity"
	"event-platform/app/event/api/internal/notify"
	"event-platform/app/event/api/internal/svc"
	"event-platform/app/event/model"
	"event-platform/common/ctxdata"
	"event-platform/common/errorx"

	"github.com/zeromicro/go-zero/core/logx"
)

// MutateFunc 在事务内对已加锁的活动执行变更，提交后副作用登记到 hooks
type MutateFunc func(ctx context.Context, tx model.Store, e *model.Event, hooks *aftercommit.Hooks) error

// MutateEvent 开启事务并 SELECT ... FOR UPDATE 锁住活动行后执行 fn
// 事务提交后依次执行 hooks，hooks 失败只记日志
func MutateEvent(ctx context.Context, svcCtx *svc.ServiceContext, eventID int64, fn MutateFunc) error {
	var hooks aftercommit.Hooks
	err := svcCtx.Store.Transact(ctx, func(ctx context.Context, tx model.Store) error {
		hooks.Reset()
		e, err := tx.Events().FindByIDForUpdate(ctx, eventID)
		if err != nil {
			return err
		}
		return fn(ctx, tx, e, &hooks)
	})
	if err != nil {
		return MapError(ctx, err)
	}
	hooks.Run(ctx)
	return nil
}

// MapError 仓储错误转为业务错误，业务错误原样返回
func MapError(ctx context.Context, err error) error {
	var bizErr *errorx.BizError
	switch {
	case err == nil:
		return nil
	case errors.As(err, &bizErr):
		return bizErr
	case errors.Is(err, model.ErrEventNotFound):
		return errorx.New(errorx.CodeEventNotFound)
	case errors.Is(err, model.ErrEventConcurrentUpdate):
		return errorx.New(errorx.CodeEventConcurrentUpdate)
	case errors.Is(err, model.ErrMemberNotFound):
		return errorx.New(errorx.CodeMemberNotFound)
	}
	logx.WithContext(ctx).Errorf("数据库操作失败: %v", err)
	return errorx.ErrDBError(err)
}

// RequireUser 当前登录用户，未登录返回 Unauthenticated
func RequireUser(ctx context.Context) (int64, error) {
	userID := ctxdata.UserID(ctx)
	if userID <= 0 {
		return 0, errorx.ErrUnauthorized()
	}
	return userID, nil
}

// EnsureOwner 只有组织者可以操作
func EnsureOwner(e *model.Event, userID int64) error {
	if e.OwnerID != userID {
		return errorx.New(errorx.CodeEventPermissionDenied)
	}
	return nil
}

// EnsureStaff 组织者或已加入的协管可以操作
func EnsureStaff(ctx context.Context, tx model.Store, e *model.Event, userID int64) error {
	if e.OwnerID == userID {
		return nil
	}
	m, err := tx.Members().FindByEventUser(ctx, e.ID, userID)
	if errors.Is(err, model.ErrMemberNotFound) {
		return errorx.New(errorx.CodeEventPermissionDenied)
	}
	if err != nil {
		return err
	}
	if !m.IsStaff() || m.Status != model.MemberStatusJoined {
		return errorx.New(errorx.CodeEventPermissionDenied)
	}
	return nil
}

// AppendAudit 在同一事务内追加审计日志
// 活动已归档时同时清除归档标记，新日志由下一轮归档导出
func AppendAudit(ctx context.Context, tx model.Store, e *model.Event, action string, from int8, actorID int64, detail interface{}) error {
	if e.AuditArchivedAt > 0 {
		if err := tx.Events().ClearAuditArchived(ctx, e.ID); err != nil {
			return err
		}
		e.AuditArchivedAt = 0
	}

	var raw json.RawMessage
	if detail != nil {
		b, err := json.Marshal(detail)
		if err != nil {
			return fmt.Errorf("marshal audit detail: %w", err)
		}
		raw = b
	}
	return tx.AuditLogs().Insert(ctx, &model.EventAuditLog{
		EventID:    e.ID,
		Action:     action,
		FromStatus: from,
		ToStatus:   e.Status,
		ActorID:    actorID,
		Detail:     raw,
	})
}

// ==================== 提交后副作用 ====================

// AddSyncJobs 登记：按活动最新状态对齐提醒/反馈任务
func AddSyncJobs(svcCtx *svc.ServiceContext, hooks *aftercommit.Hooks, e *model.Event) {
	snapshot := e.Clone()
	hooks.Add("sync_jobs", func(ctx context.Context) error {
		return svcCtx.Jobs.Sync(ctx, snapshot)
	})
}

// AddClearJobs 登记：清理活动全部任务
func AddClearJobs(svcCtx *svc.ServiceContext, hooks *aftercommit.Hooks, eventID int64) {
	hooks.Add("clear_jobs", func(ctx context.Context) error {
		return svcCtx.Jobs.ClearAll(ctx, eventID)
	})
}

// AddNotify 登记：通知扇出
func AddNotify(svcCtx *svc.ServiceContext, hooks *aftercommit.Hooks, req notify.Request) {
	if len(req.Recipients) == 0 {
		return
	}
	hooks.Add("notify_"+req.Kind, func(ctx context.Context) error {
		_, err := svcCtx.Notifier.Notify(ctx, req)
		return err
	})
}

// AddNotifyPromoted 登记：通知候补转正的成员
func AddNotifyPromoted(svcCtx *svc.ServiceContext, hooks *aftercommit.Hooks, e *model.Event, promoted []*model.EventMember) {
	if len(promoted) == 0 {
		return
	}
	AddNotify(svcCtx, hooks, notify.Request{
		Recipients: MemberUserIDs(promoted),
		Kind:       model.NotifyMemberPromoted,
		EntityType: model.EntityTypeEvent,
		EntityID:   e.ID,
		Version:    promoted[0].JoinedAt,
		Data:       notify.MemberData{Title: e.Title},
	})
}

// PromoteAfterChange 事务内按剩余名额转正候补，并登记转正通知
func PromoteAfterChange(ctx context.Context, svcCtx *svc.ServiceContext, tx model.Store, e *model.Event, hooks *aftercommit.Hooks) ([]*model.EventMember, error) {
	promoted, err := svcCtx.Capacity.Promote(ctx, tx, e, 0, svcCtx.Now())
	if err != nil {
		return nil, err
	}
	AddNotifyPromoted(svcCtx, hooks, e, promoted)
	return promoted, nil
}

// LogOutcome 成员变更的审计明细
func LogOutcome(out *capacity.Outcome) map[string]interface{} {
	detail := map[string]interface{}{
		"user_id": out.Member.UserID,
		"status":  out.Member.Status,
	}
	if len(out.Promoted) > 0 {
		detail["promoted"] = MemberUserIDs(out.Promoted)
	}
	return detail
}
