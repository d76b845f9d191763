// Package metrics exposes prometheus instrumentation shared by the engine
// and the HTTP surface.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	AnalysesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "diagnoser_analyses_total",
		Help: "Capture analyses by result",
	}, []string{"status"})

	AnalysisDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "diagnoser_analysis_duration_seconds",
		Help:    "End-to-end capture analysis latency",
		Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
	})

	CallsByVerdict = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "diagnoser_calls_total",
		Help: "Analyzed calls by final verdict",
	}, []string{"verdict"})

	DecodeErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "diagnoser_decode_errors_total",
		Help: "External decoder failures by aspect",
	}, []string{"aspect"})

	ExportsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "diagnoser_exports_total",
		Help: "Failing-call subcapture exports by status",
	}, []string{"status"})
)
