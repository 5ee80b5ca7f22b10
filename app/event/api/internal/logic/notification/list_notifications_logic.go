package notification

import (
	"context"

	"event-platform/app/event/api/internal/logic"
	"event-platform/app/event/api/internal/svc"
	"event-platform/app/event/api/internal/types"
	"event-platform/app/event/model"

	"github.com/zeromicro/go-zero/core/logx"
)

type ListNotificationsLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

// 我的通知
func NewListNotificationsLogic(ctx context.Context, svcCtx *svc.ServiceContext) *ListNotificationsLogic {
	return &ListNotificationsLogic{
		Logger: logx.WithContext(ctx),
		ctx:    ctx,
		svcCtx: svcCtx,
	}
}

func (l *ListNotificationsLogic) ListNotifications(req *types.ListNotificationsReq) (*types.ListNotificationsResp, error) {
	userID, err := logic.RequireUser(l.ctx)
	if err != nil {
		return nil, err
	}

	page, pageSize := req.Page, req.PageSize
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = model.DefaultPageSize
	}
	if pageSize > model.MaxPageSize {
		pageSize = model.MaxPageSize
	}

	result, err := l.svcCtx.Notifier.List(l.ctx, userID, req.UnreadOnly, page, pageSize)
	if err != nil {
		return nil, logic.MapError(l.ctx, err)
	}

	return &types.ListNotificationsResp{
		List:     logic.ConvertNotificationsToInfo(result.List),
		Total:    result.Total,
		Unread:   result.Unread,
		Page:     page,
		PageSize: pageSize,
	}, nil
}
