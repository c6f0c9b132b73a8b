// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package metrics records extraction runs as Prometheus metrics and writes
// them in the node-exporter textfile format.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Run outcomes used for the outcome label.
const (
	OutcomeOK         = "ok"
	OutcomeLoadError  = "load_error"
	OutcomeError      = "extract_error"
	OutcomeUnresolved = "root_unresolved"
)

// Recorder holds the extraction collectors on a private registry, so
// several recorders can coexist in one process.
type Recorder struct {
	reg *prometheus.Registry

	runs       *prometheus.CounterVec
	rounds     prometheus.Histogram
	unresolved *prometheus.GaugeVec
	duration   prometheus.Histogram
}

// New returns a Recorder with its collectors registered.
func New() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Recorder{
		reg: reg,
		runs: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "egraph",
			Subsystem: "extract",
			Name:      "runs_total",
			Help:      "Extraction runs by outcome",
		}, []string{"outcome"}),
		rounds: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "egraph",
			Subsystem: "extract",
			Name:      "rounds",
			Help:      "Fixpoint rounds per extraction, including the final round without improvement",
			Buckets:   []float64{1, 2, 3, 4, 6, 8, 12, 16, 32, 64},
		}),
		unresolved: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "egraph",
			Subsystem: "extract",
			Name:      "unresolved_classes",
			Help:      "Classes left without a cost set by the last extraction of a source",
		}, []string{"source"}),
		duration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "egraph",
			Subsystem: "extract",
			Name:      "duration_seconds",
			Help:      "Wall time of one extraction in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 4, 10),
		}),
	}
}

// Failed counts a run that did not produce a result.
func (r *Recorder) Failed(outcome string) {
	r.runs.WithLabelValues(outcome).Inc()
}

// Completed records a finished extraction of source.
func (r *Recorder) Completed(outcome, source string, rounds, unresolved int, elapsed time.Duration) {
	r.runs.WithLabelValues(outcome).Inc()
	r.rounds.Observe(float64(rounds))
	r.unresolved.WithLabelValues(source).Set(float64(unresolved))
	r.duration.Observe(elapsed.Seconds())
}

// Registry exposes the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.reg
}

// WriteTextfile writes every collected metric to path atomically.
func (r *Recorder) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.reg); err != nil {
		return fmt.Errorf("writing metrics textfile: %w", err)
	}
	return nil
}
