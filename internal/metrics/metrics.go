// Package metrics exposes batch extraction counters to Prometheus.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"hardsub/internal/batch"
	"hardsub/internal/services"
)

const namespace = "hardsub"

// Metrics owns a private registry so several runs in one process (and tests)
// never collide on the global one.
type Metrics struct {
	Registry *prometheus.Registry

	JobsTotal           *prometheus.CounterVec
	JobDuration         *prometheus.HistogramVec
	CuesTotal           prometheus.Counter
	FramesInspected     prometheus.Counter
	RecognitionFailures prometheus.Counter
	BatchProgress       prometheus.Gauge
	RunsTotal           *prometheus.CounterVec
}

// New registers the hardsub collectors plus the Go and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		Registry: reg,
		JobsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "jobs_total",
			Help:      "Videos processed, by terminal status.",
		}, []string{"status"}),
		JobDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "job_duration_seconds",
			Help:      "Wall time spent extracting subtitles from one video.",
			Buckets:   []float64{1, 5, 10, 30, 60, 120, 300, 600, 1800},
		}, []string{"status"}),
		CuesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cues_total",
			Help:      "Subtitle cues written across all videos.",
		}),
		FramesInspected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frames_inspected_total",
			Help:      "Sampled frames passed to the recognition engine.",
		}),
		RecognitionFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "recognition_failures_total",
			Help:      "Frames whose recognition call failed and counted as empty.",
		}),
		BatchProgress: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "batch_progress_percent",
			Help:      "Overall progress of the current run.",
		}),
		RunsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Completed batch runs, by outcome.",
		}, []string{"outcome"}),
	}
	reg.MustRegister(
		m.JobsTotal,
		m.JobDuration,
		m.CuesTotal,
		m.FramesInspected,
		m.RecognitionFailures,
		m.BatchProgress,
		m.RunsTotal,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Observe implements batch.Observer.
func (m *Metrics) Observe(e batch.Event) {
	switch e.Kind {
	case batch.EventProgress:
		m.BatchProgress.Set(float64(e.Overall))
	case batch.EventJobFinished:
		m.BatchProgress.Set(float64(e.Overall))
		if e.Result == nil {
			return
		}
		jr := e.Result
		status := string(jr.Status)
		m.JobsTotal.WithLabelValues(status).Inc()
		m.JobDuration.WithLabelValues(status).Observe(jr.Duration().Seconds())
		m.FramesInspected.Add(float64(jr.Result.Stats.FramesInspected))
		m.RecognitionFailures.Add(float64(jr.Result.Stats.RecognitionFailures))
		if jr.Status == services.StatusSucceeded {
			m.CuesTotal.Add(float64(jr.Result.Cues))
		}
	}
}

// RecordRun counts a finished run.
func (m *Metrics) RecordRun(report batch.Report) {
	outcome := "completed"
	if report.Cancelled {
		outcome = "cancelled"
	}
	m.RunsTotal.WithLabelValues(outcome).Inc()
	m.BatchProgress.Set(float64(report.Progress))
}
