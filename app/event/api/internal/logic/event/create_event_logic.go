package event

import (
	"context"

	"event-platform/app/event/api/internal/aftercommit"
	"event-platform/app/event/api/internal/lifecycle"
	"event-platform/app/event/api/internal/logic"
	"event-platform/app/event/api/internal/svc"
	"event-platform/app/event/api/internal/types"
	"event-platform/app/event/api/internal/validate"
	"event-platform/app/event/model"

	"github.com/zeromicro/go-zero/core/logx"
)

type CreateEventLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

// 创建活动
func NewCreateEventLogic(ctx context.Context, svcCtx *svc.ServiceContext) *CreateEventLogic {
	return &CreateEventLogic{
		Logger: logx.WithContext(ctx),
		ctx:    ctx,
		svcCtx: svcCtx,
	}
}

// CreateEvent 创建活动
//
// 业务流程：
//  1. 补全一对一人数并校验全部字段
//  2. 事务内：写入活动 -> 组织者入座 -> 审计日志
//  3. 可选：立即发布或设置定时发布
//  4. 提交后：已发布的活动排入提醒/反馈任务
func (l *CreateEventLogic) CreateEvent(req *types.CreateEventReq) (*types.EventInfo, error) {
	userID, err := logic.RequireUser(l.ctx)
	if err != nil {
		return nil, err
	}
	now := l.svcCtx.Now()

	// 1. 构建并校验
	minCap, maxCap := validate.NormalizeCapacity(req.Mode, req.MinCapacity, req.MaxCapacity)
	waitlist := true
	if req.WaitlistEnabled != nil {
		waitlist = *req.WaitlistEnabled
	}
	e := &model.Event{
		OwnerID:                         userID,
		Title:                           req.Title,
		Description:                     req.Description,
		Status:                          model.EventStatusDraft,
		StartAt:                         req.StartAt,
		EndAt:                           req.EndAt,
		Mode:                            req.Mode,
		MinCapacity:                     minCap,
		MaxCapacity:                     maxCap,
		MeetingKind:                     req.MeetingKind,
		MeetingURL:                      req.MeetingUrl,
		Latitude:                        req.Latitude,
		Longitude:                       req.Longitude,
		JoinOpensMinutesBeforeStart:     req.JoinOpensMinutesBeforeStart,
		JoinCutoffMinutesBeforeStart:    req.JoinCutoffMinutesBeforeStart,
		LateJoinCutoffMinutesAfterStart: req.LateJoinCutoffMinutesAfterStart,
		AllowJoinLate:                   req.AllowJoinLate,
		RequireApproval:                 req.RequireApproval,
		WaitlistEnabled:                 waitlist,
	}
	if err := validate.Event(e, now, true); err != nil {
		return nil, err
	}

	// 2. 事务内写入
	var hooks aftercommit.Hooks
	err = l.svcCtx.Store.Transact(l.ctx, func(ctx context.Context, tx model.Store) error {
		hooks.Reset()
		if err := tx.Events().Insert(ctx, e); err != nil {
			return err
		}
		if _, err := l.svcCtx.Capacity.SeatOwner(ctx, tx, e, now); err != nil {
			return err
		}
		if err := logic.AppendAudit(ctx, tx, e, model.AuditActionCreate, model.EventStatusDraft, userID, nil); err != nil {
			return err
		}

		// 3. 立即发布 / 定时发布
		switch {
		case req.Publish:
			t, err := lifecycle.Publish(e, now)
			if err != nil {
				return err
			}
			if err := tx.Events().Save(ctx, e); err != nil {
				return err
			}
			if err := logic.AppendAudit(ctx, tx, e, model.AuditActionPublish, t.From, userID, nil); err != nil {
				return err
			}
			logic.AddSyncJobs(l.svcCtx, &hooks, e)
		case req.PublishAt > 0:
			t, err := lifecycle.SchedulePublication(e, req.PublishAt, now)
			if err != nil {
				return err
			}
			if err := tx.Events().Save(ctx, e); err != nil {
				return err
			}
			if err := logic.AppendAudit(ctx, tx, e, model.AuditActionSchedule, t.From, userID, map[string]int64{"publish_at": e.PublishAt}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, logic.MapError(l.ctx, err)
	}

	// 4. 提交后副作用
	hooks.Run(l.ctx)

	l.Infof("创建活动成功: eventId=%d, ownerId=%d, status=%d", e.ID, userID, e.Status)
	info := logic.ConvertEventToInfo(e)
	return &info, nil
}
