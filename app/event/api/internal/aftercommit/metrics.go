package aftercommit

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var hookFailedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "event_platform",
	Subsystem: "aftercommit",
	Name:      "failed_total",
	Help:      "提交后回调失败次数",
}, []string{"hook"})
