// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package benchmark

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics exports benchmark results as Prometheus metrics.
//
// Thread Safety: Safe for concurrent use.
type Metrics struct {
	trialDuration *prometheus.HistogramVec
	avgSeconds    *prometheus.GaugeVec
	totalSeconds  *prometheus.GaugeVec
	kernelsRun    *prometheus.CounterVec
	failures      *prometheus.CounterVec
}

// NewMetrics registers the benchmark metrics with reg.
//
// Example:
//
//	registry := prometheus.NewRegistry()
//	metrics := benchmark.NewMetrics(registry)
//	...
//	prometheus.WriteToTextfile("fieldbench.prom", registry)
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		trialDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "fieldbench_trial_duration_seconds",
			Help:    "Wall time of a single timed kernel invocation",
			Buckets: []float64{0.00001, 0.0001, 0.001, 0.01, 0.1, 1},
		}, []string{"kernel"}),
		avgSeconds: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "fieldbench_kernel_avg_seconds",
			Help: "Mean trial time of the last measurement",
		}, []string{"kernel"}),
		totalSeconds: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "fieldbench_kernel_total_seconds",
			Help: "Total timed loop duration of the last measurement",
		}, []string{"kernel"}),
		kernelsRun: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "fieldbench_kernels_measured_total",
			Help: "Kernels measured, by outcome",
		}, []string{"status"}),
		failures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "fieldbench_kernel_failures_total",
			Help: "Kernel failures by lifecycle stage",
		}, []string{"kernel", "stage"}),
	}
}

// Observe records one result. Called after the timed loop, never inside it.
func (m *Metrics) Observe(r *Result) {
	m.kernelsRun.WithLabelValues(string(r.Status)).Inc()
	if r.Failed() {
		m.failures.WithLabelValues(r.Name, string(r.Stage)).Inc()
		return
	}

	m.avgSeconds.WithLabelValues(r.Name).Set(r.AvgMillis / 1000)
	m.totalSeconds.WithLabelValues(r.Name).Set(r.TotalSeconds)

	hist := m.trialDuration.WithLabelValues(r.Name)
	for _, s := range r.Samples {
		hist.Observe(s.Seconds())
	}
}
