package event

import (
	"context"

	"event-platform/app/event/api/internal/aftercommit"
	"event-platform/app/event/api/internal/lifecycle"
	"event-platform/app/event/api/internal/logic"
	"event-platform/app/event/api/internal/notify"
	"event-platform/app/event/api/internal/svc"
	"event-platform/app/event/api/internal/types"
	"event-platform/app/event/api/internal/validate"
	"event-platform/app/event/model"
	"event-platform/common/errorx"

	"github.com/zeromicro/go-zero/core/logx"
)

type UpdateEventLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

// 更新活动
func NewUpdateEventLogic(ctx context.Context, svcCtx *svc.ServiceContext) *UpdateEventLogic {
	return &UpdateEventLogic{
		Logger: logx.WithContext(ctx),
		ctx:    ctx,
		svcCtx: svcCtx,
	}
}

// UpdateEvent 局部更新活动
//
// 业务流程：
//  1. 锁行后校验权限、只读状态、乐观锁版本
//  2. 合并补丁，对合并后的完整活动做校验
//  3. 计算变更字段，无变化直接返回
//  4. 保存 -> 扩容时转正候补 -> 审计日志
//  5. 提交后：开始/结束时间变化时重排任务，通知已加入成员
func (l *UpdateEventLogic) UpdateEvent(req *types.UpdateEventReq) (*types.UpdateEventResp, error) {
	userID, err := logic.RequireUser(l.ctx)
	if err != nil {
		return nil, err
	}
	now := l.svcCtx.Now()

	var (
		result   *model.Event
		changed  []string
		promoted []*model.EventMember
	)
	err = logic.MutateEvent(l.ctx, l.svcCtx, req.Id, func(ctx context.Context, tx model.Store, e *model.Event, hooks *aftercommit.Hooks) error {
		// 1. 前置检查
		if err := logic.EnsureOwner(e, userID); err != nil {
			return err
		}
		if err := lifecycle.EnsureMutable(e); err != nil {
			return err
		}
		if req.Version > 0 && req.Version != e.Version {
			return errorx.New(errorx.CodeEventConcurrentUpdate)
		}

		// 2. 合并并校验
		before := e.Clone()
		applyPatch(e, req)
		if e.Mode == model.ModeOneToOne {
			e.MinCapacity, e.MaxCapacity = validate.NormalizeCapacity(e.Mode, req.MinCapacity, req.MaxCapacity)
		}
		if err := validate.Event(e, now, req.StartAt != nil && *req.StartAt != before.StartAt); err != nil {
			return err
		}
		if e.Status == model.EventStatusScheduled && e.PublishAt >= e.StartAt {
			return errorx.New(errorx.CodeEventPublishAtInvalid)
		}
		if maxCap, ok := e.Max(); ok && maxCap < e.JoinedCount {
			return errorx.ErrInvalidField("maxCapacity", "最多人数不能少于已加入人数")
		}

		// 3. 变更字段
		changed = changedFields(before, e)
		if len(changed) == 0 {
			result = e
			return nil
		}

		// 4. 保存、转正、审计
		if err := tx.Events().Save(ctx, e); err != nil {
			return err
		}
		if containsField(changed, "maxCapacity", "mode") {
			var err error
			if promoted, err = logic.PromoteAfterChange(ctx, l.svcCtx, tx, e, hooks); err != nil {
				return err
			}
		}
		if err := logic.AppendAudit(ctx, tx, e, model.AuditActionUpdate, before.Status, userID, map[string]interface{}{
			"changed_fields": changed,
			"promoted":       logic.MemberUserIDs(promoted),
		}); err != nil {
			return err
		}

		// 5. 提交后副作用
		if containsField(changed, "startAt", "endAt") {
			logic.AddSyncJobs(l.svcCtx, hooks, e)
		}
		if e.IsPublished() {
			recipients, err := tx.Members().ListUserIDsByStatuses(ctx, e.ID, []int8{model.MemberStatusJoined})
			if err != nil {
				return err
			}
			logic.AddNotify(l.svcCtx, hooks, notify.Request{
				Recipients: recipients,
				Kind:       model.NotifyEventUpdated,
				ActorID:    userID,
				EntityType: model.EntityTypeEvent,
				EntityID:   e.ID,
				Version:    e.Version,
				Data:       notify.UpdatedData{Title: e.Title, ChangedFields: changed},
			})
		}
		result = e
		return nil
	})
	if err != nil {
		return nil, err
	}

	if len(changed) > 0 {
		l.Infof("更新活动成功: eventId=%d, changed=%v, promoted=%d", req.Id, changed, len(promoted))
	}
	if changed == nil {
		changed = []string{}
	}
	return &types.UpdateEventResp{
		Event:         logic.ConvertEventToInfo(result),
		ChangedFields: changed,
		Promoted:      logic.MemberUserIDs(promoted),
	}, nil
}

// applyPatch 把请求中传入的字段合并到活动上
func applyPatch(e *model.Event, req *types.UpdateEventReq) {
	if req.Title != nil {
		e.Title = *req.Title
	}
	if req.Description != nil {
		e.Description = *req.Description
	}
	if req.StartAt != nil {
		e.StartAt = *req.StartAt
	}
	if req.EndAt != nil {
		e.EndAt = *req.EndAt
	}
	if req.Mode != nil {
		e.Mode = *req.Mode
	}
	if req.MinCapacity != nil {
		v := *req.MinCapacity
		e.MinCapacity = &v
	}
	if req.MaxCapacity != nil {
		v := *req.MaxCapacity
		e.MaxCapacity = &v
	}
	if req.MeetingKind != nil {
		e.MeetingKind = *req.MeetingKind
	}
	if req.MeetingUrl != nil {
		e.MeetingURL = *req.MeetingUrl
	}
	if req.Latitude != nil {
		v := *req.Latitude
		e.Latitude = &v
	}
	if req.Longitude != nil {
		v := *req.Longitude
		e.Longitude = &v
	}
	if req.JoinOpensMinutesBeforeStart != nil {
		v := *req.JoinOpensMinutesBeforeStart
		e.JoinOpensMinutesBeforeStart = &v
	}
	if req.JoinCutoffMinutesBeforeStart != nil {
		v := *req.JoinCutoffMinutesBeforeStart
		e.JoinCutoffMinutesBeforeStart = &v
	}
	if req.LateJoinCutoffMinutesAfterStart != nil {
		v := *req.LateJoinCutoffMinutesAfterStart
		e.LateJoinCutoffMinutesAfterStart = &v
	}
	if req.AllowJoinLate != nil {
		e.AllowJoinLate = *req.AllowJoinLate
	}
	if req.RequireApproval != nil {
		e.RequireApproval = *req.RequireApproval
	}
	if req.WaitlistEnabled != nil {
		e.WaitlistEnabled = *req.WaitlistEnabled
	}
}
