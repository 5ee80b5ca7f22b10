package event

import (
	"context"

	"event-platform/app/event/api/internal/logic"
	"event-platform/app/event/api/internal/svc"
	"event-platform/app/event/api/internal/types"
	"event-platform/common/errorx"

	"github.com/zeromicro/go-zero/core/logx"
)

type ArchiveAuditLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

// 手动归档审计日志
func NewArchiveAuditLogic(ctx context.Context, svcCtx *svc.ServiceContext) *ArchiveAuditLogic {
	return &ArchiveAuditLogic{
		Logger: logx.WithContext(ctx),
		ctx:    ctx,
		svcCtx: svcCtx,
	}
}

// ArchiveAudit 归档审计日志，只允许已取消或已结束的活动
func (l *ArchiveAuditLogic) ArchiveAudit(req *types.EventIdReq) (*types.ArchiveAuditResp, error) {
	userID, err := logic.RequireUser(l.ctx)
	if err != nil {
		return nil, err
	}

	e, err := l.svcCtx.Store.Events().FindByID(l.ctx, req.Id)
	if err != nil {
		return nil, logic.MapError(l.ctx, err)
	}
	if err := logic.EnsureOwner(e, userID); err != nil {
		return nil, err
	}
	if !e.IsCanceled() && e.EndAt > l.svcCtx.Now().Unix() {
		return nil, errorx.ErrFailedPrecondition("活动尚未结束或取消，不能归档")
	}

	res, err := l.svcCtx.Archiver.Archive(l.ctx, req.Id)
	if err != nil {
		l.Errorf("归档审计日志失败: eventId=%d, err=%v", req.Id, err)
		return nil, logic.MapError(l.ctx, err)
	}

	return &types.ArchiveAuditResp{
		AlreadyArchived: res.AlreadyArchived,
		Archived:        res.Marked,
		Rows:            res.Rows,
		Location:        res.Location,
		Remaining:       res.Remaining,
	}, nil
}
