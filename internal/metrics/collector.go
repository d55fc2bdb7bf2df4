// Package metrics provides Prometheus metrics collection for workflow runs.
// This package is internal and should not be imported by external projects.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

// Collector records workflow execution metrics. It implements
// workflow.StageObserver.
type Collector struct {
	stageExecutions *prometheus.CounterVec
	stageDuration   *prometheus.HistogramVec
	runsTotal       *prometheus.CounterVec
	runDuration     prometheus.Histogram

	logger *zap.Logger
}

// NewCollector creates a collector registered on reg. Pass
// prometheus.DefaultRegisterer to expose metrics on the default /metrics
// endpoint, or a fresh registry in tests.
func NewCollector(namespace string, reg prometheus.Registerer, logger *zap.Logger) *Collector {
	factory := promauto.With(reg)

	c := &Collector{
		logger: logger.With(zap.String("component", "metrics")),
	}

	c.stageExecutions = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stage_executions_total",
			Help:      "Total number of workflow stage executions",
		},
		[]string{"kind", "status"},
	)

	c.stageDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Workflow stage execution duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"kind"},
	)

	c.runsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Total number of workflow runs",
		},
		[]string{"status"},
	)

	c.runDuration = factory.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "End-to-end workflow run duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
	)

	return c
}

// RecordStage records one stage execution.
func (c *Collector) RecordStage(kind, status string, duration time.Duration) {
	c.stageExecutions.WithLabelValues(kind, status).Inc()
	c.stageDuration.WithLabelValues(kind).Observe(duration.Seconds())
}

// RecordRun records one complete workflow run.
func (c *Collector) RecordRun(status string, duration time.Duration) {
	c.runsTotal.WithLabelValues(status).Inc()
	c.runDuration.Observe(duration.Seconds())
}
