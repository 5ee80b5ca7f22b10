package handler

import (
	"net/http"
	"time"

	"event-platform/app/event/api/internal/svc"
	"event-platform/common/response"

	"github.com/zeromicro/go-zero/core/logx"
)

var startTime = time.Now()

// HealthHandler 健康检查，附带延迟队列积压数
// GET /health
func HealthHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data := map[string]interface{}{
			"status":    "healthy",
			"timestamp": time.Now().Format(time.RFC3339),
			"uptime":    time.Since(startTime).String(),
		}
		if svcCtx.Queue != nil {
			pending, err := svcCtx.Queue.Len(r.Context())
			if err != nil {
				logx.WithContext(r.Context()).Errorf("[Health] 读取任务队列长度失败: %v", err)
				data["status"] = "degraded"
			} else {
				data["pendingJobs"] = pending
			}
		}
		response.Success(w, data)
	}
}
