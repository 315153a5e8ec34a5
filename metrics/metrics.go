// Package metrics exposes Prometheus collectors for plan execution.
package metrics

import (
	"net/http"
	"time"

	"github.com/meikuraledutech/graphplan"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "graphplan"

// Outcome label values for plans_executed_total.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Metrics holds the collectors, registered on a private registry so several
// servers (or tests) can coexist in one process.
type Metrics struct {
	reg *prometheus.Registry

	// plansExecuted counts Execute calls.
	// Labels: outcome (success, failure)
	plansExecuted *prometheus.CounterVec

	// planPreviews counts Preview calls that produced a preview.
	planPreviews prometheus.Counter

	// planWarnings counts soft failures.
	// Labels: code (reference_missing, target_missing, ...)
	planWarnings *prometheus.CounterVec

	// executionSeconds measures Execute latency, commit included.
	executionSeconds prometheus.Histogram
}

// New creates and registers the collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Metrics{
		reg: reg,
		plansExecuted: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "plans_executed_total",
			Help:      "Total plan executions by outcome",
		}, []string{"outcome"}),
		planPreviews: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "plan_previews_total",
			Help:      "Total plan previews computed",
		}),
		planWarnings: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "plan_warnings_total",
			Help:      "Total soft failures reported by plan executions and previews",
		}, []string{"code"}),
		executionSeconds: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "plan_execution_seconds",
			Help:      "Plan execution latency in seconds",
			Buckets:   []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 1},
		}),
	}
}

// ObserveExecution records one Execute call that took d.
func (m *Metrics) ObserveExecution(res *graphplan.ExecutionResult, d time.Duration) {
	outcome := OutcomeSuccess
	if !res.Success {
		outcome = OutcomeFailure
	}
	m.plansExecuted.WithLabelValues(outcome).Inc()
	m.executionSeconds.Observe(d.Seconds())
	m.observeWarnings(res.Warnings)
}

// ObservePreview records one successful Preview call.
func (m *Metrics) ObservePreview(ps *graphplan.PreviewState) {
	m.planPreviews.Inc()
	m.observeWarnings(ps.Warnings)
}

func (m *Metrics) observeWarnings(ws []graphplan.Warning) {
	for _, w := range ws {
		m.planWarnings.WithLabelValues(w.Code).Inc()
	}
}

// TrackOpenWorkspaces exports count as a gauge sampled on every scrape.
func (m *Metrics) TrackOpenWorkspaces(count func() int) {
	promauto.With(m.reg).NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "workspaces_open",
		Help:      "Workspaces currently held in memory",
	}, func() float64 { return float64(count()) })
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{})
}
