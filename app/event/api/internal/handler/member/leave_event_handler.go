package member

import (
	"net/http"

	"event-platform/app/event/api/internal/logic/member"
	"event-platform/app/event/api/internal/svc"
	"event-platform/app/event/api/internal/types"
	"event-platform/common/errorx"
	"event-platform/common/response"

	"github.com/zeromicro/go-zero/rest/httpx"
)

// 退出活动
func LeaveEventHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req types.EventIdReq
		if err := httpx.Parse(r, &req); err != nil {
			response.Fail(w, errorx.ErrInvalidParams(err.Error()))
			return
		}

		l := member.NewLeaveEventLogic(r.Context(), svcCtx)
		resp, err := l.LeaveEvent(&req)
		response.HandleError(w, err, func() {
			response.Success(w, resp)
		})
	}
}
