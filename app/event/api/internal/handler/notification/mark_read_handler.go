package notification

import (
	"net/http"

	"event-platform/app/event/api/internal/logic/notification"
	"event-platform/app/event/api/internal/svc"
	"event-platform/app/event/api/internal/types"
	"event-platform/common/errorx"
	"event-platform/common/response"

	"github.com/zeromicro/go-zero/rest/httpx"
)

// 标记通知已读
func MarkReadHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req types.MarkReadReq
		if err := httpx.Parse(r, &req); err != nil {
			response.Fail(w, errorx.ErrInvalidParams(err.Error()))
			return
		}

		l := notification.NewMarkReadLogic(r.Context(), svcCtx)
		resp, err := l.MarkRead(&req)
		response.HandleError(w, err, func() {
			response.Success(w, resp)
		})
	}
}
