package delayqueue

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	jobsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "event_platform",
			Subsystem: "delayqueue",
			Name:      "jobs_total",
			Help:      "Delayed jobs processed by result",
		},
		[]string{"result"},
	)
	jobDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "event_platform",
			Subsystem: "delayqueue",
			Name:      "job_duration_seconds",
			Help:      "Delayed job handler duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
	)
)
