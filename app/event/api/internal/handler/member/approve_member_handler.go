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

// 审批通过
func ApproveMemberHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req types.MemberReq
		if err := httpx.Parse(r, &req); err != nil {
			response.Fail(w, errorx.ErrInvalidParams(err.Error()))
			return
		}

		l := member.NewReviewMemberLogic(r.Context(), svcCtx)
		resp, err := l.ApproveMember(&req)
		response.HandleError(w, err, func() {
			response.Success(w, resp)
		})
	}
}
