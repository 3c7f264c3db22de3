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
	"context"
	"fmt"
	"time"

	"github.com/AleutianAI/fieldbench/pkg/logging"
	"github.com/AleutianAI/fieldbench/services/fieldbench/fixture"
	"github.com/AleutianAI/fieldbench/services/fieldbench/kernel"
	"github.com/AleutianAI/fieldbench/services/fieldbench/profile"
)

// Recorder receives every result as it is produced, for telemetry export.
type Recorder interface {
	RecordBenchmark(ctx context.Context, r *Result) error
}

// Suite measures every registered kernel against one fixture.
//
// Thread Safety: Run must not be called concurrently; measurements are
// strictly sequential.
type Suite struct {
	timer     *Timer
	profiler  profile.Profiler
	logger    *logging.Logger
	metrics   *Metrics
	recorders []Recorder
	progress  func(*Result)
	now       func() time.Time
}

// Option configures a Suite.
type Option func(*Suite)

// WithProfiler enables a profiling pass after each successful measurement.
func WithProfiler(p profile.Profiler) Option {
	return func(s *Suite) { s.profiler = p }
}

// WithLogger sets the suite's logger.
func WithLogger(l *logging.Logger) Option {
	return func(s *Suite) { s.logger = l }
}

// WithMetrics records results into Prometheus metrics.
func WithMetrics(m *Metrics) Option {
	return func(s *Suite) { s.metrics = m }
}

// WithRecorder adds a telemetry recorder.
func WithRecorder(r Recorder) Option {
	return func(s *Suite) { s.recorders = append(s.recorders, r) }
}

// WithProgress registers a callback invoked after each kernel finishes.
func WithProgress(fn func(*Result)) Option {
	return func(s *Suite) { s.progress = fn }
}

// NewSuite creates a Suite.
//
// Outputs:
//   - *Suite: The suite. Profiling is off unless WithProfiler is given.
//   - error: ErrInvalidConfig if cfg fails validation.
func NewSuite(cfg *Config, opts ...Option) (*Suite, error) {
	timer, err := NewTimer(cfg)
	if err != nil {
		return nil, err
	}
	s := &Suite{
		timer:    timer,
		profiler: profile.Noop{},
		logger:   logging.Nop(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Run measures every kernel in registry order and aggregates the results.
//
// Description:
//
//	Kernels are measured one at a time. A kernel that fails setup or
//	process is recorded as failed and the run moves on. When profiling is
//	enabled each successfully measured kernel is profiled in a second,
//	separate pass. ctx carries telemetry spans only; measurement itself is
//	never cancelled.
//
// Inputs:
//   - ctx: Telemetry context.
//   - registry: Discovered kernels. Must not be nil.
//   - fx: Shared fixture. Must not be nil. Never mutated.
//
// Outputs:
//   - *Summary: Ranked results.
//   - error: ErrNilInput only. Kernel failures are reported in the summary.
func (s *Suite) Run(ctx context.Context, registry *kernel.Registry, fx *fixture.Fixture) (*Summary, error) {
	if registry == nil || fx == nil {
		return nil, fmt.Errorf("%w: registry and fixture are required", ErrNilInput)
	}

	startedAt := s.now()
	rows, cols := fx.Dims()
	cfg := s.timer.Config()
	kernels := registry.All()

	s.logger.Info("benchmark started",
		"kernels", len(kernels),
		"rows", rows,
		"cols", cols,
		"trials", cfg.Trials,
		"warmup", cfg.Warmup,
		"profiling", s.profiler.Enabled(),
	)

	results := make([]*Result, 0, len(kernels))
	profiles := make(map[string]*profile.Breakdown)
	for _, k := range kernels {
		result := s.measure(k, fx)
		results = append(results, result)

		if !result.Failed() && s.profiler.Enabled() {
			if b := s.profile(k, fx); b != nil {
				profiles[k.Name()] = b
			}
		}

		if s.metrics != nil {
			s.metrics.Observe(result)
		}
		for _, rec := range s.recorders {
			if err := rec.RecordBenchmark(ctx, result); err != nil {
				s.logger.Warn("telemetry record failed", "kernel", result.Name, "error", err)
			}
		}
		if s.progress != nil {
			s.progress(result)
		}
	}

	summary := NewSummary(rows, cols, cfg, startedAt, results)
	summary.Profiles = profiles

	s.logger.Info("benchmark finished",
		"run_id", summary.RunID,
		"failed", summary.Failed,
		"total_s", summary.Total,
		"elapsed", s.now().Sub(startedAt),
	)
	return summary, nil
}

func (s *Suite) measure(k kernel.Kernel, fx *fixture.Fixture) *Result {
	log := s.logger.With("kernel", k.Name())
	log.Debug("measuring kernel")

	result, err := s.timer.Measure(k, fx.Input, fx.Output)
	if err != nil {
		failed := FailedResult(k.Name(), err)
		log.Warn("kernel failed", "stage", failed.Stage, "error", err)
		return failed
	}

	log.Debug("kernel measured", "avg_ms", result.AvgMillis, "total_s", result.TotalSeconds)
	return result
}

func (s *Suite) profile(k kernel.Kernel, fx *fixture.Fixture) *profile.Breakdown {
	log := s.logger.With("kernel", k.Name())
	b, err := s.profiler.Profile(k, fx.Input, fx.Output)
	if err != nil {
		log.Warn("profiling failed", "error", err)
		return b
	}
	if b != nil {
		log.Debug("kernel profiled", "samples", b.Samples, "artifact", b.Artifact)
	}
	return b
}
