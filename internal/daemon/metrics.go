package daemon

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	metricRestoreAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "filekeeper",
		Subsystem: "restore",
		Name:      "attempts_total",
		Help:      "Total number of restore attempts by result",
	}, []string{"target", "result"})
	metricRestoreBytes = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "filekeeper",
		Subsystem: "restore",
		Name:      "bytes_total",
		Help:      "Total number of bytes written to targets",
	}, []string{"target"})
	metricRestoreSeconds = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "filekeeper",
		Subsystem: "restore",
		Name:      "seconds_total",
		Help:      "Total time spent restoring targets",
	}, []string{"target"})
	metricSubscriptionsLost = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "filekeeper",
		Subsystem: "watch",
		Name:      "subscriptions_lost_total",
		Help:      "Total number of lost change subscriptions",
	}, []string{"target"})
)
