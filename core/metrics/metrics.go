// Package metrics exports run counters in the Prometheus format.
package metrics

import (
	"net/http"
	"time"

	"ioc-sync/core/prevalence"
	"ioc-sync/core/reconcile"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "ioc_sync"

// Metrics holds the collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	runs            *prometheus.CounterVec
	runDuration     *prometheus.HistogramVec
	planned         *prometheus.GaugeVec
	batches         *prometheus.CounterVec
	snapshotRecords prometheus.Gauge
	duplicateKeys   prometheus.Gauge
	prevalenceHigh  prometheus.Gauge
	prevalenceTools prometheus.Gauge
}

// New creates and registers all collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		runs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "runs_total",
				Help:      "Runs by command and outcome",
			},
			[]string{"command", "outcome"},
		),
		runDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "run_duration_seconds",
				Help:      "Wall time of a run",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"command"},
		),
		planned: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "planned_operations",
				Help:      "Operations in the latest plan",
			},
			[]string{"stage", "operation"},
		),
		batches: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "batches_total",
				Help:      "Submitted batches by action and outcome",
			},
			[]string{"action", "outcome"},
		),
		snapshotRecords: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "managed_indicators",
			Help:      "Managed indicators in the latest snapshot",
		}),
		duplicateKeys: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "duplicate_keys",
			Help:      "Keys held by more than one managed indicator",
		}),
		prevalenceHigh: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "high_prevalence_domains",
			Help:      "Domains at or above the prevalence threshold",
		}),
		prevalenceTools: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "high_prevalence_tools",
			Help:      "Tools flagged for allowlist review",
		}),
	}

	m.registry.MustRegister(
		m.runs,
		m.runDuration,
		m.planned,
		m.batches,
		m.snapshotRecords,
		m.duplicateKeys,
		m.prevalenceHigh,
		m.prevalenceTools,
	)
	return m
}

// ObserveRun records a finished run.
func (m *Metrics) ObserveRun(command string, d time.Duration, err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	m.runs.WithLabelValues(command, outcome).Inc()
	m.runDuration.WithLabelValues(command).Observe(d.Seconds())
}

// ObservePlan records a computed plan.
func (m *Metrics) ObservePlan(stage string, plan *reconcile.ReconcilePlan) {
	m.planned.WithLabelValues(stage, "create").Set(float64(plan.Summary.Create))
	m.planned.WithLabelValues(stage, "update").Set(float64(plan.Summary.Update))
	m.planned.WithLabelValues(stage, "delete").Set(float64(plan.Summary.Delete))
	m.planned.WithLabelValues(stage, "unchanged").Set(float64(plan.Summary.Unchanged))
	m.snapshotRecords.Set(float64(plan.Existing))
	m.duplicateKeys.Set(float64(len(plan.Duplicates)))
}

// ObserveApply records submitted batches.
func (m *Metrics) ObserveApply(result *reconcile.ApplyResult) {
	if result == nil {
		return
	}
	for _, b := range result.Batches {
		outcome := "ok"
		if b.Failed() {
			outcome = "failed"
		}
		m.batches.WithLabelValues(string(b.Action), outcome).Inc()
	}
}

// ObservePrevalence records a prevalence report.
func (m *Metrics) ObservePrevalence(report *prevalence.Report) {
	if report == nil {
		return
	}
	m.prevalenceHigh.Set(float64(report.HighPrevalenceDomains))
	m.prevalenceTools.Set(float64(len(report.HighPrevalenceTools)))
}

// Handler serves the registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Gatherer exposes the registry.
func (m *Metrics) Gatherer() prometheus.Gatherer {
	return m.registry
}

// WriteTextfile writes the current values to path in the text format.
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.registry)
}
