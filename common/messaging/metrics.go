package messaging

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	publishTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "event_platform",
			Subsystem: "messaging",
			Name:      "publish_total",
			Help:      "Total number of published messages",
		},
		[]string{"status"},
	)
	publishDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "event_platform",
			Subsystem: "messaging",
			Name:      "publish_duration_seconds",
			Help:      "Message publish duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
	)
)
