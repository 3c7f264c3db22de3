// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/AleutianAI/fieldbench/cmd/fieldbench/config"
	"github.com/AleutianAI/fieldbench/pkg/grid"
	"github.com/AleutianAI/fieldbench/pkg/logging"
	"github.com/AleutianAI/fieldbench/pkg/ux"
	"github.com/AleutianAI/fieldbench/services/fieldbench/benchmark"
	"github.com/AleutianAI/fieldbench/services/fieldbench/fixture"
	"github.com/AleutianAI/fieldbench/services/fieldbench/kernel"
	"github.com/AleutianAI/fieldbench/services/fieldbench/kernel/kernels"
	"github.com/AleutianAI/fieldbench/services/fieldbench/profile"
	"github.com/AleutianAI/fieldbench/services/fieldbench/telemetry"
)

const telemetryShutdownTimeout = 5 * time.Second

// loadConfig reads the config file and applies flag overrides.
func loadConfig(cmd *cobra.Command, opts *cliOptions) (config.FieldbenchConfig, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return cfg, err
	}

	flags := cmd.Flags()
	if opts.debug {
		cfg.Debug.Enabled = true
	}
	if flags.Changed("rows") {
		cfg.Grid.Rows = opts.rows
	}
	if flags.Changed("cols") {
		cfg.Grid.Cols = opts.cols
	}
	if flags.Changed("trials") {
		// The profiler follows the timed sequence.
		cfg.Benchmark.Trials = opts.trials
		cfg.Debug.Invocations = 0
	}
	if flags.Changed("warmup") {
		cfg.Benchmark.Warmup = opts.warmup
	}
	if opts.metricsFile != "" {
		cfg.Telemetry.MetricsFile = opts.metricsFile
	}
	if opts.traceFile != "" {
		cfg.Telemetry.TraceFile = opts.traceFile
	}
	return cfg, config.Validate(&cfg)
}

func newLogger(cfg *config.FieldbenchConfig, stderr io.Writer) (*logging.Logger, error) {
	lc, err := cfg.LoggerSettings()
	if err != nil {
		return nil, err
	}
	lc.Output = stderr
	return logging.New(lc), nil
}

// harness is everything a command needs before invoking kernels.
type harness struct {
	cfg      config.FieldbenchConfig
	logger   *logging.Logger
	registry *kernel.Registry
	fx       *fixture.Fixture
}

// prepare loads config, discovers kernels and builds the fixture. Every
// failure here is fatal. The caller closes h.logger.
func prepare(cmd *cobra.Command, opts *cliOptions, stderr io.Writer) (*harness, error) {
	name := cmd.CommandPath()

	cfg, err := loadConfig(cmd, opts)
	if err != nil {
		return nil, NewCommandError(name, CLIExitError, "config", "", err)
	}
	logger, err := newLogger(&cfg, stderr)
	if err != nil {
		return nil, NewCommandError(name, CLIExitError, "config", "", err)
	}

	registry, err := kernel.Discover(kernels.Sources())
	if err != nil {
		logger.Error("kernel discovery failed", "error", err)
		logger.Close()
		return nil, WrapCommandError(err, name, "discovery")
	}

	source, err := fixture.NewPerlinSource(cfg.PerlinSettings())
	if err != nil {
		logger.Close()
		return nil, NewCommandError(name, CLIExitError, "fixture", "", err)
	}
	started := time.Now()
	spin := ux.NewSpinner(stderr, fmt.Sprintf("building %dx%d fixture", cfg.Grid.Rows, cfg.Grid.Cols))
	spin.Start()
	fx, err := fixture.NewBuilder(source).Build(cfg.Grid.Rows, cfg.Grid.Cols)
	spin.Stop()
	if err != nil {
		logger.Error("fixture build failed", "error", err)
		logger.Close()
		return nil, WrapCommandError(err, name, "fixture")
	}
	logger.Debug("fixture built",
		"rows", cfg.Grid.Rows,
		"cols", cfg.Grid.Cols,
		"seed", cfg.Noise.Seed,
		"octaves", cfg.Noise.Octaves,
		"elapsed", time.Since(started),
	)
	return &harness{cfg: cfg, logger: logger, registry: registry, fx: fx}, nil
}

// runBenchmark is the default command: measure every kernel and report.
func runBenchmark(cmd *cobra.Command, opts *cliOptions, stdout, stderr io.Writer) error {
	name := cmd.CommandPath()
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	h, err := prepare(cmd, opts, stderr)
	if err != nil {
		return err
	}
	defer h.logger.Close()
	cfg, logger := h.cfg, h.logger

	metricsRegistry := prometheus.NewRegistry()
	suiteOpts := []benchmark.Option{
		benchmark.WithLogger(logger),
		benchmark.WithMetrics(benchmark.NewMetrics(metricsRegistry)),
		benchmark.WithProfiler(profile.New(cfg.ProfileSettings())),
	}

	if cfg.Telemetry.TraceFile != "" {
		sink, shutdown, err := openTraceSink(ctx, &cfg)
		if err != nil {
			return NewCommandError(name, CLIExitError, "telemetry", "", err)
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), telemetryShutdownTimeout)
			defer cancel()
			if err := shutdown(shutdownCtx); err != nil {
				logger.Warn("telemetry shutdown failed", "error", err)
			}
		}()
		suiteOpts = append(suiteOpts, benchmark.WithRecorder(sink))
	}

	if opts.verbose && !opts.jsonOutput {
		progress := ux.NewPrinter(stderr)
		suiteOpts = append(suiteOpts, benchmark.WithProgress(func(r *benchmark.Result) {
			if r.Failed() {
				progress.Warning(fmt.Sprintf("%s failed during %s", r.Name, r.Stage))
				return
			}
			progress.Success(fmt.Sprintf("%s %.4f ms", r.Name, r.AvgMillis))
		}))
	}

	suite, err := benchmark.NewSuite(cfg.BenchmarkSettings(), suiteOpts...)
	if err != nil {
		return NewCommandError(name, CLIExitError, "config", "", err)
	}

	summary, err := suite.Run(ctx, h.registry, h.fx)
	if err != nil {
		return NewCommandError(name, CLIExitError, "benchmark", "", err)
	}

	var reporter benchmark.Reporter
	if opts.jsonOutput {
		reporter = benchmark.NewJSONReporter(stdout, true)
	} else {
		reporter = benchmark.NewConsoleReporter(stdout, opts.verbose).WithTop(cfg.Debug.Top)
	}
	if err := reporter.Report(summary); err != nil {
		return NewCommandError(name, CLIExitError, "report", "", err)
	}

	if path := cfg.Telemetry.MetricsFile; path != "" {
		if err := prometheus.WriteToTextfile(path, metricsRegistry); err != nil {
			return NewCommandError(name, CLIExitError, "metrics", "", err)
		}
		logger.Debug("metrics written", "path", path)
	}

	if summary.HasFailures() {
		return NewCommandError(name, CLIExitFindings, "benchmark", "",
			fmt.Errorf("%w: %d of %d", ErrKernelsFailed, summary.Failed, len(summary.Results)))
	}
	return nil
}

// openTraceSink creates the trace file, its providers and the OTel sink.
// The returned shutdown flushes the exporters and closes the file.
func openTraceSink(ctx context.Context, cfg *config.FieldbenchConfig) (*telemetry.OTelSink, func(context.Context) error, error) {
	f, err := os.Create(cfg.Telemetry.TraceFile)
	if err != nil {
		return nil, nil, fmt.Errorf("create trace file: %w", err)
	}

	pc := telemetry.DefaultProviderConfig()
	if cfg.Telemetry.Environment != "" {
		pc.Environment = cfg.Telemetry.Environment
	}
	providers, err := telemetry.NewFileProviders(ctx, f, pc)
	if err != nil {
		f.Close()
		return nil, nil, err
	}

	oc := telemetry.DefaultOTelConfig()
	oc.TracerProvider = providers.Tracer
	oc.MeterProvider = providers.Meter
	sink, err := telemetry.NewOTelSink(oc)
	if err != nil {
		_ = providers.Shutdown(ctx)
		f.Close()
		return nil, nil, err
	}

	shutdown := func(ctx context.Context) error {
		_ = sink.Close()
		err := providers.Shutdown(ctx)
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		return err
	}
	return sink, shutdown, nil
}

type kernelListing struct {
	Name       string `json:"name"`
	Standalone bool   `json:"standalone"`
}

// runList prints every discovered kernel in benchmark order.
func runList(opts *cliOptions, stdout io.Writer) error {
	registry, err := kernel.Discover(kernels.Sources())
	if err != nil {
		return WrapCommandError(err, "fieldbench list", "discovery")
	}

	listings := make([]kernelListing, 0, registry.Count())
	for _, k := range registry.All() {
		_, standalone := k.(kernel.Runner)
		listings = append(listings, kernelListing{Name: k.Name(), Standalone: standalone})
	}

	if opts.jsonOutput {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(listings)
	}

	p := ux.NewPrinter(stdout)
	p.Title(fmt.Sprintf("%d kernels", len(listings)))
	for _, l := range listings {
		if l.Standalone {
			p.Raw(fmt.Sprintf("  %s %s\n", l.Name, p.Styled(ux.Styles.Muted, "(standalone)")))
			continue
		}
		p.Raw(fmt.Sprintf("  %s\n", l.Name))
	}
	return nil
}

type singleRun struct {
	Kernel   string  `json:"kernel"`
	Rows     int     `json:"rows"`
	Cols     int     `json:"cols"`
	ElapsedS float64 `json:"elapsed_s"`
	Checksum string  `json:"checksum"`
}

// checkOutput rejects a missing or wrongly shaped standalone result.
func checkOutput(cmdName, kernelName string, got, want *grid.Raster) error {
	if got == nil {
		return NewCommandError(cmdName, CLIExitFindings, "process", kernelName,
			fmt.Errorf("%w: got nil raster", kernel.ErrShapeMismatch))
	}
	if !got.SameShape(want) {
		return NewCommandError(cmdName, CLIExitFindings, "process", kernelName,
			fmt.Errorf("%w: got %dx%d", kernel.ErrShapeMismatch, got.Rows, got.Cols))
	}
	return nil
}

// runSingle invokes one kernel once, untimed by the harness, for ad-hoc
// checks.
func runSingle(cmd *cobra.Command, opts *cliOptions, kernelName string, stdout, stderr io.Writer) error {
	name := cmd.CommandPath()

	h, err := prepare(cmd, opts, stderr)
	if err != nil {
		return err
	}
	defer h.logger.Close()

	k, err := h.registry.Find(kernelName)
	if err != nil {
		return NewCommandError(name, CLIExitError, "registry", kernelName, err)
	}

	started := time.Now()
	out, err := kernel.Run(k, h.fx.Input, h.fx.Output)
	elapsed := time.Since(started)
	if err != nil {
		return WrapCommandError(err, name, "kernel")
	}
	if err := checkOutput(name, kernelName, out, h.fx.Output); err != nil {
		return err
	}

	result := singleRun{
		Kernel:   k.Name(),
		Rows:     h.cfg.Grid.Rows,
		Cols:     h.cfg.Grid.Cols,
		ElapsedS: elapsed.Seconds(),
		Checksum: fmt.Sprintf("%016x", out.Checksum()),
	}
	if opts.jsonOutput {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}
	fmt.Fprintf(stdout, "%s (%dx%d): %.4f s, checksum %s\n",
		result.Kernel, result.Rows, result.Cols, result.ElapsedS, result.Checksum)
	return nil
}

// runConfigInit writes the default configuration file.
func runConfigInit(path string, force bool, stderr io.Writer) error {
	if path == "" {
		path = config.DefaultFile
	}
	if err := config.WriteDefault(path, force); err != nil {
		return NewCommandError("fieldbench config init", CLIExitError, "config", "", err)
	}
	ux.NewPrinter(stderr).Success(fmt.Sprintf("wrote %s", path))
	return nil
}
