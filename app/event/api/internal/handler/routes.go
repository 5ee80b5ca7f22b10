// 路由注册
//
//	/api/v1/events                 活动生命周期
//	/api/v1/events/:id/members     成员与名额
//	/api/v1/notifications          站内通知
//
// 除健康检查外全部需要 JWT，用户ID取自 token 的 userId 字段
package handler

import (
	"net/http"

	"event-platform/app/event/api/internal/handler/event"
	"event-platform/app/event/api/internal/handler/member"
	"event-platform/app/event/api/internal/handler/notification"
	"event-platform/app/event/api/internal/svc"
	"event-platform/common/middleware"

	"github.com/zeromicro/go-zero/rest"
)

// RegisterHandlers 注册所有路由
func RegisterHandlers(server *rest.Server, serverCtx *svc.ServiceContext) {
	server.Use(middleware.TraceID)

	// ==================== 公开路由 ====================
	server.AddRoutes(
		[]rest.Route{
			{
				Method:  http.MethodGet,
				Path:    "/health",
				Handler: HealthHandler(serverCtx),
			},
		},
	)

	// ==================== 活动 ====================
	server.AddRoutes(
		[]rest.Route{
			{Method: http.MethodPost, Path: "", Handler: event.CreateEventHandler(serverCtx)},
			{Method: http.MethodGet, Path: "/:id", Handler: event.GetEventHandler(serverCtx)},
			{Method: http.MethodPut, Path: "/:id", Handler: event.UpdateEventHandler(serverCtx)},
			{Method: http.MethodPost, Path: "/:id/cancel", Handler: event.CancelEventHandler(serverCtx)},
			{Method: http.MethodDelete, Path: "/:id", Handler: event.DeleteEventHandler(serverCtx)},
			{Method: http.MethodPost, Path: "/:id/publish", Handler: event.PublishEventHandler(serverCtx)},
			{Method: http.MethodPost, Path: "/:id/schedule", Handler: event.ScheduleEventHandler(serverCtx)},
			{Method: http.MethodPost, Path: "/:id/unpublish", Handler: event.UnpublishEventHandler(serverCtx)},
			{Method: http.MethodPost, Path: "/:id/audit/archive", Handler: event.ArchiveAuditHandler(serverCtx)},
		},
		rest.WithJwt(serverCtx.Config.Auth.AccessSecret),
		rest.WithPrefix("/api/v1/events"),
	)

	// ==================== 成员 ====================
	server.AddRoutes(
		[]rest.Route{
			{Method: http.MethodPost, Path: "/:id/join", Handler: member.JoinEventHandler(serverCtx)},
			{Method: http.MethodPost, Path: "/:id/leave", Handler: member.LeaveEventHandler(serverCtx)},
			{Method: http.MethodPost, Path: "/:id/members/:userId/invite", Handler: member.InviteMemberHandler(serverCtx)},
			{Method: http.MethodPost, Path: "/:id/members/:userId/approve", Handler: member.ApproveMemberHandler(serverCtx)},
			{Method: http.MethodPost, Path: "/:id/members/:userId/reject", Handler: member.RejectMemberHandler(serverCtx)},
			{Method: http.MethodPost, Path: "/:id/members/:userId/ban", Handler: member.BanMemberHandler(serverCtx)},
		},
		rest.WithJwt(serverCtx.Config.Auth.AccessSecret),
		rest.WithPrefix("/api/v1/events"),
	)

	// ==================== 通知 ====================
	server.AddRoutes(
		[]rest.Route{
			{Method: http.MethodGet, Path: "", Handler: notification.ListNotificationsHandler(serverCtx)},
			{Method: http.MethodPost, Path: "/read", Handler: notification.MarkReadHandler(serverCtx)},
		},
		rest.WithJwt(serverCtx.Config.Auth.AccessSecret),
		rest.WithPrefix("/api/v1/notifications"),
	)
}
