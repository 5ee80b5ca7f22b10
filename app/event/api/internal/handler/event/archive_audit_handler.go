package event

import (
	"net/http"

	"event-platform/app/event/api/internal/logic/event"
	"event-platform/app/event/api/internal/svc"
	"event-platform/app/event/api/internal/types"
	"event-platform/common/errorx"
	"event-platform/common/response"

	"github.com/zeromicro/go-zero/rest/httpx"
)

// 归档审计日志
func ArchiveAuditHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req types.EventIdReq
		if err := httpx.Parse(r, &req); err != nil {
			response.Fail(w, errorx.ErrInvalidParams(err.Error()))
			return
		}

		l := event.NewArchiveAuditLogic(r.Context(), svcCtx)
		resp, err := l.ArchiveAudit(&req)
		response.HandleError(w, err, func() {
			response.Success(w, resp)
		})
	}
}
