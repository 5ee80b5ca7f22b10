package jobs

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var skippedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "event_platform",
	Subsystem: "jobs",
	Name:      "skipped_total",
	Help:      "执行时发现已失效而跳过的任务数",
}, []string{"kind", "reason"})
