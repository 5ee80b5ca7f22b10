package notify

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	notifyTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "event_platform",
		Subsystem: "notify",
		Name:      "created_total",
		Help:      "新增通知数",
	}, []string{"kind"})

	pushFailedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "event_platform",
		Subsystem: "notify",
		Name:      "push_failed_total",
		Help:      "通知推送失败次数",
	})
)
