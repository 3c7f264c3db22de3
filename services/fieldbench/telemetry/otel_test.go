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
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/AleutianAI/fieldbench/services/fieldbench/benchmark"
	"github.com/AleutianAI/fieldbench/services/fieldbench/kernel"
)

// -----------------------------------------------------------------------------
// Helpers
// -----------------------------------------------------------------------------

type testSink struct {
	sink   *OTelSink
	spans  *tracetest.SpanRecorder
	reader *sdkmetric.ManualReader
}

func newTestSink(t *testing.T) *testSink {
	t.Helper()
	spans := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(spans))
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() {
		_ = tp.Shutdown(context.Background())
		_ = mp.Shutdown(context.Background())
	})

	config := DefaultOTelConfig()
	config.TracerProvider = tp
	config.MeterProvider = mp
	sink, err := NewOTelSink(config)
	if err != nil {
		t.Fatalf("NewOTelSink failed: %v", err)
	}
	return &testSink{sink: sink, spans: spans, reader: reader}
}

func (ts *testSink) collect(t *testing.T) map[string]metricdata.Aggregation {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := ts.reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect failed: %v", err)
	}
	out := make(map[string]metricdata.Aggregation)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m.Data
		}
	}
	return out
}

func passedResult() *benchmark.Result {
	r := benchmark.NewResult("clip", 100, 1, 250*time.Millisecond)
	r.CPUTime = 240 * time.Millisecond
	return r
}

func failedResult() *benchmark.Result {
	return benchmark.FailedResult("broken", &kernel.SetupError{Kernel: "broken", Err: errors.New("no scratch")})
}

func attr(attrs []attribute.KeyValue, key string) (attribute.Value, bool) {
	for _, kv := range attrs {
		if string(kv.Key) == key {
			return kv.Value, true
		}
	}
	return attribute.Value{}, false
}

// -----------------------------------------------------------------------------
// Configuration Tests
// -----------------------------------------------------------------------------

func TestDefaultOTelConfig(t *testing.T) {
	config := DefaultOTelConfig()

	if config.ServiceName != "fieldbench" {
		t.Errorf("ServiceName = %s, want fieldbench", config.ServiceName)
	}
	if !config.TraceEnabled || !config.MetricsEnabled {
		t.Error("tracing and metrics should be enabled by default")
	}
}

func TestNewOTelSink_InvalidConfig(t *testing.T) {
	if _, err := NewOTelSink(nil); !errors.Is(err, ErrInvalidOTelConfig) {
		t.Errorf("nil config: got %v, want ErrInvalidOTelConfig", err)
	}
	if _, err := NewOTelSink(&OTelConfig{}); !errors.Is(err, ErrInvalidOTelConfig) {
		t.Errorf("empty service name: got %v, want ErrInvalidOTelConfig", err)
	}
}

func TestNewOTelSink_GlobalProviders(t *testing.T) {
	sink, err := NewOTelSink(DefaultOTelConfig())
	if err != nil {
		t.Fatalf("NewOTelSink failed: %v", err)
	}
	if err := sink.RecordBenchmark(context.Background(), passedResult()); err != nil {
		t.Errorf("RecordBenchmark with no-op providers failed: %v", err)
	}
}

// -----------------------------------------------------------------------------
// RecordBenchmark Tests
// -----------------------------------------------------------------------------

func TestOTelSink_RecordBenchmark_Passed(t *testing.T) {
	ts := newTestSink(t)
	r := passedResult()

	if err := ts.sink.RecordBenchmark(context.Background(), r); err != nil {
		t.Fatalf("RecordBenchmark failed: %v", err)
	}

	spans := ts.spans.Ended()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	span := spans[0]
	if span.Name() != "fieldbench.measure" {
		t.Errorf("span name = %s, want fieldbench.measure", span.Name())
	}
	if got := span.EndTime().Sub(span.StartTime()); got != r.Total {
		t.Errorf("span duration = %v, want %v", got, r.Total)
	}
	if v, ok := attr(span.Attributes(), "kernel.name"); !ok || v.AsString() != "clip" {
		t.Errorf("kernel.name = %v", v.AsString())
	}
	if v, ok := attr(span.Attributes(), "benchmark.trials"); !ok || v.AsInt64() != 100 {
		t.Errorf("benchmark.trials = %v", v.AsInt64())
	}
	if span.Status().Code == codes.Error {
		t.Error("passed result must not have error status")
	}

	data := ts.collect(t)
	trials, ok := data["fieldbench.kernel.trials"].(metricdata.Sum[int64])
	if !ok || len(trials.DataPoints) != 1 || trials.DataPoints[0].Value != 100 {
		t.Errorf("unexpected trials metric: %+v", data["fieldbench.kernel.trials"])
	}
	avg, ok := data["fieldbench.kernel.avg"].(metricdata.Histogram[float64])
	if !ok || len(avg.DataPoints) != 1 || avg.DataPoints[0].Count != 1 {
		t.Errorf("unexpected avg metric: %+v", data["fieldbench.kernel.avg"])
	}
	if _, ok := data["fieldbench.kernel.cpu"]; !ok {
		t.Error("cpu metric missing")
	}
	if _, ok := data["fieldbench.kernel.failures"]; ok {
		t.Error("failures metric recorded for a passed result")
	}
}

func TestOTelSink_RecordBenchmark_Failed(t *testing.T) {
	ts := newTestSink(t)

	if err := ts.sink.RecordBenchmark(context.Background(), failedResult()); err != nil {
		t.Fatalf("RecordBenchmark failed: %v", err)
	}

	span := ts.spans.Ended()[0]
	if span.Status().Code != codes.Error {
		t.Errorf("status = %v, want Error", span.Status().Code)
	}
	if !strings.Contains(span.Status().Description, "no scratch") {
		t.Errorf("status description = %q", span.Status().Description)
	}
	if v, _ := attr(span.Attributes(), "kernel.stage"); v.AsString() != "setup" {
		t.Errorf("kernel.stage = %q, want setup", v.AsString())
	}
	if len(span.Events()) == 0 {
		t.Error("expected the error to be recorded as a span event")
	}

	data := ts.collect(t)
	failures, ok := data["fieldbench.kernel.failures"].(metricdata.Sum[int64])
	if !ok || len(failures.DataPoints) != 1 || failures.DataPoints[0].Value != 1 {
		t.Errorf("unexpected failures metric: %+v", data["fieldbench.kernel.failures"])
	}
	if _, ok := data["fieldbench.kernel.avg"]; ok {
		t.Error("avg metric recorded for a failed result")
	}
}

func TestOTelSink_RecordBenchmark_Disabled(t *testing.T) {
	spans := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(spans))
	defer tp.Shutdown(context.Background())

	config := DefaultOTelConfig()
	config.TracerProvider = tp
	config.TraceEnabled = false
	config.MetricsEnabled = false
	sink, err := NewOTelSink(config)
	if err != nil {
		t.Fatalf("NewOTelSink failed: %v", err)
	}

	if err := sink.RecordBenchmark(context.Background(), passedResult()); err != nil {
		t.Fatalf("RecordBenchmark failed: %v", err)
	}
	if n := len(spans.Ended()); n != 0 {
		t.Errorf("expected no spans with tracing disabled, got %d", n)
	}
}

func TestOTelSink_RecordBenchmark_InvalidInput(t *testing.T) {
	ts := newTestSink(t)

	//nolint:staticcheck // nil context is the case under test
	if err := ts.sink.RecordBenchmark(nil, passedResult()); !errors.Is(err, ErrNilContext) {
		t.Errorf("nil ctx: got %v", err)
	}
	if err := ts.sink.RecordBenchmark(context.Background(), nil); !errors.Is(err, ErrNilResult) {
		t.Errorf("nil result: got %v", err)
	}

	_ = ts.sink.Close()
	if err := ts.sink.RecordBenchmark(context.Background(), passedResult()); !errors.Is(err, ErrSinkClosed) {
		t.Errorf("closed sink: got %v", err)
	}
}

// -----------------------------------------------------------------------------
// Provider Tests
// -----------------------------------------------------------------------------

func TestNewFileProviders_WritesOnShutdown(t *testing.T) {
	var buf bytes.Buffer
	cfg := DefaultProviderConfig()
	cfg.Pretty = false

	providers, err := NewFileProviders(context.Background(), &buf, cfg)
	if err != nil {
		t.Fatalf("NewFileProviders failed: %v", err)
	}

	config := DefaultOTelConfig()
	config.TracerProvider = providers.Tracer
	config.MeterProvider = providers.Meter
	sink, err := NewOTelSink(config)
	if err != nil {
		t.Fatalf("NewOTelSink failed: %v", err)
	}
	if err := sink.RecordBenchmark(context.Background(), passedResult()); err != nil {
		t.Fatalf("RecordBenchmark failed: %v", err)
	}

	if err := providers.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown failed: %v", err)
	}

	out := buf.String()
	for _, want := range []string{"fieldbench.measure", "fieldbench.kernel.trials", "service.name"} {
		if !strings.Contains(out, want) {
			t.Errorf("exported output missing %q", want)
		}
	}
}

func TestNewFileProviders_InvalidConfig(t *testing.T) {
	_, err := NewFileProviders(context.Background(), &bytes.Buffer{}, ProviderConfig{})
	if !errors.Is(err, ErrInvalidOTelConfig) {
		t.Errorf("got %v, want ErrInvalidOTelConfig", err)
	}
}
