// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package telemetry

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/AleutianAI/fieldbench/services/fieldbench/benchmark"
)

const instrumentationName = "github.com/AleutianAI/fieldbench/services/fieldbench/telemetry"

// -----------------------------------------------------------------------------
// Errors
// -----------------------------------------------------------------------------

var (
	// ErrOTelInitFailed is returned when instrument creation fails.
	ErrOTelInitFailed = errors.New("opentelemetry initialization failed")

	// ErrInvalidOTelConfig is returned when the OTel configuration is invalid.
	ErrInvalidOTelConfig = errors.New("invalid opentelemetry configuration")

	// ErrNilContext is returned when a nil context is passed.
	ErrNilContext = errors.New("nil context")

	// ErrNilResult is returned when a nil result is passed.
	ErrNilResult = errors.New("nil benchmark result")

	// ErrSinkClosed is returned when recording on a closed sink.
	ErrSinkClosed = errors.New("telemetry sink closed")
)

// -----------------------------------------------------------------------------
// Configuration
// -----------------------------------------------------------------------------

// OTelConfig configures the OpenTelemetry sink.
//
// Thread Safety: Immutable after creation; safe for concurrent read access.
type OTelConfig struct {
	// ServiceName is the service name for telemetry.
	// Required.
	ServiceName string

	// ServiceVersion is the instrumentation version.
	ServiceVersion string

	// TracerProvider is the tracer provider to use.
	// If nil, uses the global tracer provider.
	TracerProvider trace.TracerProvider

	// MeterProvider is the meter provider to use.
	// If nil, uses the global meter provider.
	MeterProvider metric.MeterProvider

	// TraceEnabled enables span creation.
	// Default: true.
	TraceEnabled bool

	// MetricsEnabled enables metric recording.
	// Default: true.
	MetricsEnabled bool
}

// DefaultOTelConfig returns a configuration with tracing and metrics on.
//
// Example:
//
//	config := telemetry.DefaultOTelConfig()
//	config.TracerProvider = tp
//	sink, err := telemetry.NewOTelSink(config)
func DefaultOTelConfig() *OTelConfig {
	return &OTelConfig{
		ServiceName:    "fieldbench",
		ServiceVersion: "1.0.0",
		TraceEnabled:   true,
		MetricsEnabled: true,
	}
}

// Validate checks that the configuration is valid.
func (c *OTelConfig) Validate() error {
	if c.ServiceName == "" {
		return errors.New("service name is required")
	}
	return nil
}

// -----------------------------------------------------------------------------
// OpenTelemetry Sink
// -----------------------------------------------------------------------------

// OTelSink records benchmark results as spans and metrics.
//
// Description:
//
//	Each result becomes a "fieldbench.measure" span covering the timed
//	loop, back-dated from the result's completion timestamp. Failed
//	results get an Error status and bump the failure counter instead of
//	the latency instruments.
//
// Thread Safety: Safe for concurrent use.
type OTelSink struct {
	config *OTelConfig
	tracer trace.Tracer
	meter  metric.Meter

	avgLatency   metric.Float64Histogram
	loopDuration metric.Float64Histogram
	cpuTime      metric.Float64Histogram
	trials       metric.Int64Counter
	failures     metric.Int64Counter

	mu     sync.RWMutex
	closed bool
}

// NewOTelSink creates a sink from config.
//
// Inputs:
//   - config: Sink configuration. Must not be nil.
//
// Outputs:
//   - *OTelSink: The sink. Never nil on success.
//   - error: ErrInvalidOTelConfig or ErrOTelInitFailed.
//
// Assumptions:
//   - The caller owns the providers and shuts them down.
func NewOTelSink(config *OTelConfig) (*OTelSink, error) {
	if config == nil {
		return nil, ErrInvalidOTelConfig
	}
	if err := config.Validate(); err != nil {
		return nil, errors.Join(ErrInvalidOTelConfig, err)
	}

	cfg := *config

	tp := cfg.TracerProvider
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	mp := cfg.MeterProvider
	if mp == nil {
		mp = otel.GetMeterProvider()
	}

	sink := &OTelSink{
		config: &cfg,
		tracer: tp.Tracer(instrumentationName, trace.WithInstrumentationVersion(cfg.ServiceVersion)),
		meter:  mp.Meter(instrumentationName, metric.WithInstrumentationVersion(cfg.ServiceVersion)),
	}

	if cfg.MetricsEnabled {
		if err := sink.initializeMetrics(); err != nil {
			return nil, errors.Join(ErrOTelInitFailed, err)
		}
	}
	return sink, nil
}

func (s *OTelSink) initializeMetrics() error {
	var err error

	s.avgLatency, err = s.meter.Float64Histogram(
		"fieldbench.kernel.avg",
		metric.WithDescription("Mean trial time per kernel"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return err
	}

	s.loopDuration, err = s.meter.Float64Histogram(
		"fieldbench.kernel.total",
		metric.WithDescription("Duration of the timed loop per kernel"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return err
	}

	s.cpuTime, err = s.meter.Float64Histogram(
		"fieldbench.kernel.cpu",
		metric.WithDescription("Process CPU time consumed by the timed loop"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return err
	}

	s.trials, err = s.meter.Int64Counter(
		"fieldbench.kernel.trials",
		metric.WithDescription("Timed kernel invocations"),
		metric.WithUnit("{invocation}"),
	)
	if err != nil {
		return err
	}

	s.failures, err = s.meter.Int64Counter(
		"fieldbench.kernel.failures",
		metric.WithDescription("Kernels that failed setup or process"),
		metric.WithUnit("{kernel}"),
	)
	return err
}

// RecordBenchmark records one kernel's result.
//
// Inputs:
//   - ctx: Parent context for the span. Must not be nil.
//   - r: The result. Must not be nil.
//
// Outputs:
//   - error: ErrNilContext, ErrNilResult or ErrSinkClosed.
//
// Thread Safety: Safe for concurrent use.
func (s *OTelSink) RecordBenchmark(ctx context.Context, r *benchmark.Result) error {
	if ctx == nil {
		return ErrNilContext
	}
	if r == nil {
		return ErrNilResult
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrSinkClosed
	}

	attrs := []attribute.KeyValue{
		attribute.String("kernel.name", r.Name),
		attribute.String("kernel.status", string(r.Status)),
	}

	if s.config.TraceEnabled {
		s.recordSpan(ctx, r, attrs)
	}
	if s.config.MetricsEnabled {
		s.recordMetrics(ctx, r, attrs)
	}
	return nil
}

func (s *OTelSink) recordSpan(ctx context.Context, r *benchmark.Result, attrs []attribute.KeyValue) {
	end := time.UnixMilli(r.Timestamp)
	if r.Timestamp == 0 {
		end = time.Now()
	}
	start := end.Add(-r.Total)

	_, span := s.tracer.Start(ctx, "fieldbench.measure",
		trace.WithAttributes(attrs...),
		trace.WithTimestamp(start),
	)

	if r.Failed() {
		span.SetAttributes(attribute.String("kernel.stage", string(r.Stage)))
		msg := "kernel failed"
		if r.Err != nil {
			span.RecordError(r.Err)
			msg = r.Err.Error()
		}
		span.SetStatus(codes.Error, msg)
	} else {
		span.SetAttributes(
			attribute.Int("benchmark.trials", r.Trials),
			attribute.Int("benchmark.warmup", r.Warmup),
			attribute.Float64("benchmark.avg_ms", r.AvgMillis),
			attribute.Float64("benchmark.total_seconds", r.TotalSeconds),
			attribute.Float64("latency.p50_seconds", r.Latency.P50.Seconds()),
			attribute.Float64("latency.p99_seconds", r.Latency.P99.Seconds()),
			attribute.Float64("cpu.seconds", r.CPUTime.Seconds()),
		)
	}
	span.End(trace.WithTimestamp(end))
}

func (s *OTelSink) recordMetrics(ctx context.Context, r *benchmark.Result, attrs []attribute.KeyValue) {
	if r.Failed() {
		s.failures.Add(ctx, 1, metric.WithAttributes(
			attribute.String("kernel.name", r.Name),
			attribute.String("kernel.stage", string(r.Stage)),
		))
		return
	}

	attrSet := metric.WithAttributes(attrs...)
	s.avgLatency.Record(ctx, r.AvgMillis, attrSet)
	s.loopDuration.Record(ctx, r.TotalSeconds, attrSet)
	s.trials.Add(ctx, int64(r.Trials), attrSet)
	if r.CPUTime > 0 {
		s.cpuTime.Record(ctx, r.CPUTime.Seconds(), attrSet)
	}
}

// Close marks the sink closed. Providers are not shut down.
func (s *OTelSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

var _ benchmark.Recorder = (*OTelSink)(nil)
