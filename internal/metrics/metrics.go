// Package metrics exports reconciliation and HTTP metrics to Prometheus.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Recorder receives measurements from the pipeline, job queue and HTTP layer.
type Recorder interface {
	RecordRun(status string, duration time.Duration)
	RecordDiscrepancy(found bool)
	RecordTotals(physical, logical float64)
	RecordJob(status string)
	RecordHTTPRequest(route, method string, status int, duration time.Duration)
}

// NoOp discards everything.
type NoOp struct{}

func (NoOp) RecordRun(string, time.Duration) {}
func (NoOp) RecordDiscrepancy(bool) {}
func (NoOp) RecordTotals(float64, float64) {}
func (NoOp) RecordJob(string) {}
func (NoOp) RecordHTTPRequest(string, string, int, time.Duration) {}

// Collector implements Recorder with Prometheus vectors.
type Collector struct {
	runs         *prometheus.CounterVec
	runDuration  *prometheus.HistogramVec
	checks       *prometheus.CounterVec
	totals       *prometheus.GaugeVec
	jobs         *prometheus.CounterVec
	httpRequests *prometheus.CounterVec
	httpLatency  *prometheus.HistogramVec
}

// NewCollector creates a collector whose metric names are prefixed with namespace.
func NewCollector(namespace string) *Collector {
	return &Collector{
		runs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "reconciliation_runs_total",
				Help:      "Total number of reconciliation runs by final status",
			},
			[]string{"status"},
		),
		runDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "reconciliation_run_duration_seconds",
				Help:      "Reconciliation run latency",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"status"},
		),
		checks: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "discrepancy_checks_total",
				Help:      "Total number of discrepancy checks by outcome",
			},
			[]string{"outcome"},
		),
		totals: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "ledger_total",
				Help:      "Physical and logical totals from the latest reconciliation",
			},
			[]string{"kind"},
		),
		jobs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "jobs_total",
				Help:      "Total number of reconcile job state transitions",
			},
			[]string{"status"},
		),
		httpRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests by route, method and status code",
			},
			[]string{"route", "method", "code"},
		),
		httpLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request latency",
				Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
			},
			[]string{"route"},
		),
	}
}

// Register registers all metrics with the given registry.
func (c *Collector) Register(registry prometheus.Registerer) error {
	for _, collector := range []prometheus.Collector{
		c.runs, c.runDuration, c.checks, c.totals, c.jobs, c.httpRequests, c.httpLatency,
	} {
		if err := registry.Register(collector); err != nil {
			return err
		}
	}
	return nil
}

func (c *Collector) RecordRun(status string, duration time.Duration) {
	c.runs.WithLabelValues(status).Inc()
	c.runDuration.WithLabelValues(status).Observe(duration.Seconds())
}

func (c *Collector) RecordDiscrepancy(found bool) {
	outcome := "balanced"
	if found {
		outcome = "discrepancy"
	}
	c.checks.WithLabelValues(outcome).Inc()
}

func (c *Collector) RecordTotals(physical, logical float64) {
	c.totals.WithLabelValues("physical").Set(physical)
	c.totals.WithLabelValues("logical").Set(logical)
}

func (c *Collector) RecordJob(status string) {
	c.jobs.WithLabelValues(status).Inc()
}

func (c *Collector) RecordHTTPRequest(route, method string, status int, duration time.Duration) {
	c.httpRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	c.httpLatency.WithLabelValues(route).Observe(duration.Seconds())
}
