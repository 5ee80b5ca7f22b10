package event

import (
	"context"

	"event-platform/app/event/api/internal/logic"
	"event-platform/app/event/api/internal/svc"
	"event-platform/app/event/api/internal/types"
	"event-platform/common/errorx"

	"github.com/zeromicro/go-zero/core/logx"
)

type GetEventLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

// 活动详情
func NewGetEventLogic(ctx context.Context, svcCtx *svc.ServiceContext) *GetEventLogic {
	return &GetEventLogic{
		Logger: logx.WithContext(ctx),
		ctx:    ctx,
		svcCtx: svcCtx,
	}
}

// GetEvent 活动详情，未发布的活动只有组织者可见；已取消/已删除的活动仍可读
func (l *GetEventLogic) GetEvent(req *types.EventIdReq) (*types.EventInfo, error) {
	userID, err := logic.RequireUser(l.ctx)
	if err != nil {
		return nil, err
	}

	e, err := l.svcCtx.Store.Events().FindByID(l.ctx, req.Id)
	if err != nil {
		return nil, logic.MapError(l.ctx, err)
	}
	if !e.IsPublished() && e.OwnerID != userID {
		return nil, errorx.New(errorx.CodeEventNotFound)
	}

	info := logic.ConvertEventToInfo(e)
	return &info, nil
}
