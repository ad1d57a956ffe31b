// Package metrics exposes internal forwarder health as Prometheus metrics,
// grounded on the teacher's promauto usage in internal/metrics. This is an
// operational surface only — spec.md's Non-goals exclude an interactive
// control surface, not observability of the forwarder's own health.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// BreakerState reports 0=closed, 1=half-open, 2=open per collector.
	BreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "aiseg2influx_breaker_state",
			Help: "Circuit breaker state per collector (0=closed, 1=half-open, 2=open)",
		},
		[]string{"collector"},
	)

	ShortCircuitedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aiseg2influx_short_circuited_total",
			Help: "Total number of ticks skipped because the breaker denied the call",
		},
		[]string{"collector"},
	)

	CollectorFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aiseg2influx_collector_failures_total",
			Help: "Total number of collector failures by kind",
		},
		[]string{"collector", "kind"},
	)

	CollectorDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "aiseg2influx_collector_duration_seconds",
			Help:    "Duration of a single collect() call",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"collector"},
	)

	WriteFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aiseg2influx_write_failures_total",
			Help: "Total number of InfluxDB write failures by kind",
		},
		[]string{"kind"},
	)

	PointsWrittenTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aiseg2influx_points_written_total",
			Help: "Total number of points successfully written to InfluxDB",
		},
		[]string{"cadence"},
	)
)
