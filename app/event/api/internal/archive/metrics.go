package archive

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	archiveTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "event_platform",
		Subsystem: "archive",
		Name:      "runs_total",
		Help:      "审计归档执行次数",
	}, []string{"result"})

	archiveRows = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "event_platform",
		Subsystem: "archive",
		Name:      "rows_total",
		Help:      "已导出的审计日志行数",
	})

	archiveDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "event_platform",
		Subsystem: "archive",
		Name:      "duration_seconds",
		Help:      "单个活动归档耗时",
		Buckets:   prometheus.DefBuckets,
	})
)

func observe(res *Result, err error, elapsed time.Duration) {
	archiveDuration.Observe(elapsed.Seconds())
	switch {
	case err != nil:
		archiveTotal.WithLabelValues("error").Inc()
	case res.AlreadyArchived:
		archiveTotal.WithLabelValues("skipped").Inc()
	case res.Marked:
		archiveTotal.WithLabelValues("archived").Inc()
		archiveRows.Add(float64(res.Rows))
	default:
		archiveTotal.WithLabelValues("partial").Inc()
		archiveRows.Add(float64(res.Rows))
	}
}
