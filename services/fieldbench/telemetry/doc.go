// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package telemetry exports benchmark measurements through OpenTelemetry.
//
// # Overview
//
// OTelSink turns each benchmark.Result into one span and a handful of
// metric points. It satisfies benchmark.Recorder, so a Suite can feed it
// directly:
//
//	providers, err := telemetry.NewFileProviders(ctx, f, telemetry.DefaultProviderConfig())
//	if err != nil {
//	    return err
//	}
//	defer providers.Shutdown(context.Background())
//
//	cfg := telemetry.DefaultOTelConfig()
//	cfg.TracerProvider = providers.Tracer
//	cfg.MeterProvider = providers.Meter
//	sink, err := telemetry.NewOTelSink(cfg)
//
//	suite, err := benchmark.NewSuite(benchCfg, benchmark.WithRecorder(sink))
//
// Spans and metrics are written as JSON by the stdout exporters, to any
// io.Writer. Nothing is recorded inside a timed loop; the sink runs after
// each kernel's measurement completes.
package telemetry
