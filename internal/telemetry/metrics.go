package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

var HTTPRequestDuration = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: "watchbill",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request duration in seconds.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"method", "route", "status"},
)

var SolverIterationsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "watchbill",
		Subsystem: "solver",
		Name:      "iterations_total",
		Help:      "Total number of candidate-generation solver iterations run, by status.",
	},
	[]string{"status"},
)

var SolverSolveDuration = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: "watchbill",
		Subsystem: "solver",
		Name:      "solve_duration_seconds",
		Help:      "Wall-clock duration of a single solver iteration.",
		Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 20, 30},
	},
	[]string{"status"},
)

var CandidatesGeneratedTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "watchbill",
		Subsystem: "candidates",
		Name:      "generated_total",
		Help:      "Total number of candidates persisted, by schedule.",
	},
	[]string{"schedule_id"},
)

var SolverInfeasibleTotal = prometheus.NewCounter(
	prometheus.CounterOpts{
		Namespace: "watchbill",
		Subsystem: "solver",
		Name:      "infeasible_total",
		Help:      "Total number of generate-candidates runs that failed the pre-flight feasibility check.",
	},
)

var CandidatesAppliedTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "watchbill",
		Subsystem: "candidates",
		Name:      "applied_total",
		Help:      "Total number of candidates applied to their schedule.",
	},
	[]string{"schedule_id"},
)

// All returns all watchbill-specific metrics for registration.
func All() []prometheus.Collector {
	return []prometheus.Collector{
		HTTPRequestDuration,
		SolverIterationsTotal,
		SolverSolveDuration,
		CandidatesGeneratedTotal,
		SolverInfeasibleTotal,
		CandidatesAppliedTotal,
	}
}

// NewMetricsRegistry creates a Prometheus registry with Go/process collectors
// and all watchbill-specific collectors.
func NewMetricsRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	for _, c := range All() {
		reg.MustRegister(c)
	}
	return reg
}
