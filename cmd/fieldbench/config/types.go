// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package config

import (
	"github.com/AleutianAI/fieldbench/pkg/logging"
	"github.com/AleutianAI/fieldbench/services/fieldbench/benchmark"
	"github.com/AleutianAI/fieldbench/services/fieldbench/fixture"
	"github.com/AleutianAI/fieldbench/services/fieldbench/profile"
)

// FieldbenchConfig is the on-disk configuration (fieldbench.yaml).
type FieldbenchConfig struct {
	// Grid: dimensions of the benchmark field
	Grid GridConfig `yaml:"grid"`

	// Benchmark: trial and warmup counts
	Benchmark BenchmarkConfig `yaml:"benchmark"`

	// Noise: Perlin parameters for the input field
	Noise NoiseConfig `yaml:"noise"`

	// Debug: the CPU profiling pass
	Debug DebugConfig `yaml:"debug"`

	Logging   LoggingConfig   `yaml:"logging"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

type GridConfig struct {
	Rows int `yaml:"rows" validate:"gt=0"` // e.g. 2560
	Cols int `yaml:"cols" validate:"gt=0"` // e.g. 1440
}

type BenchmarkConfig struct {
	Trials         int  `yaml:"trials" validate:"gt=0"`
	Warmup         int  `yaml:"warmup" validate:"gte=0"`
	CollectSamples bool `yaml:"collect_samples"`
	CollectCPU     bool `yaml:"collect_cpu"`
}

type NoiseConfig struct {
	Seed      int64   `yaml:"seed"`
	Octaves   int32   `yaml:"octaves" validate:"gt=0"`
	Alpha     float64 `yaml:"alpha" validate:"gt=0"`
	Beta      float64 `yaml:"beta" validate:"gt=0"`
	Frequency float64 `yaml:"frequency" validate:"gt=0"`
}

type DebugConfig struct {
	Enabled bool `yaml:"enabled"`

	// Invocations is how many process calls the profiler samples. Zero
	// follows Benchmark.Trials so the profiled sequence matches the timed one.
	Invocations int    `yaml:"invocations" validate:"gte=0"`
	ProfileDir  string `yaml:"profile_dir" validate:"required"`

	// Top limits the printed breakdown; 0 prints every function
	Top int `yaml:"top" validate:"gte=0"`
}

type LoggingConfig struct {
	Level string `yaml:"level" validate:"omitempty,oneof=debug info warn warning error"`
	Dir   string `yaml:"dir,omitempty"`
	JSON  bool   `yaml:"json"`
}

type TelemetryConfig struct {
	// MetricsFile receives a Prometheus textfile after the run
	MetricsFile string `yaml:"metrics_file,omitempty"`

	// TraceFile receives OTel spans and metrics as JSON
	TraceFile   string `yaml:"trace_file,omitempty"`
	Environment string `yaml:"environment,omitempty"`
}

// DefaultConfig returns the stock benchmark: a 2560x1440 field, 1000 trials,
// one warmup and seed 1337 with 25 octaves.
func DefaultConfig() FieldbenchConfig {
	bench := benchmark.DefaultConfig()
	noise := fixture.DefaultPerlinConfig()
	prof := profile.DefaultConfig()

	return FieldbenchConfig{
		Grid: GridConfig{Rows: 2560, Cols: 1440},
		Benchmark: BenchmarkConfig{
			Trials:         bench.Trials,
			Warmup:         bench.Warmup,
			CollectSamples: bench.CollectSamples,
			CollectCPU:     bench.CollectCPU,
		},
		Noise: NoiseConfig{
			Seed:      noise.Seed,
			Octaves:   noise.Octaves,
			Alpha:     noise.Alpha,
			Beta:      noise.Beta,
			Frequency: noise.Frequency,
		},
		Debug: DebugConfig{
			Enabled:    prof.Enabled,
			ProfileDir: prof.Dir,
			Top:        prof.Top,
		},
		Logging: LoggingConfig{Level: "info"},
		Telemetry: TelemetryConfig{
			Environment: "development",
		},
	}
}

// BenchmarkSettings converts the benchmark section for the Suite.
func (c *FieldbenchConfig) BenchmarkSettings() *benchmark.Config {
	return &benchmark.Config{
		Trials:         c.Benchmark.Trials,
		Warmup:         c.Benchmark.Warmup,
		CollectSamples: c.Benchmark.CollectSamples,
		CollectCPU:     c.Benchmark.CollectCPU,
	}
}

// PerlinSettings converts the noise section for the fixture builder.
func (c *FieldbenchConfig) PerlinSettings() fixture.PerlinConfig {
	return fixture.PerlinConfig{
		Seed:      c.Noise.Seed,
		Octaves:   c.Noise.Octaves,
		Alpha:     c.Noise.Alpha,
		Beta:      c.Noise.Beta,
		Frequency: c.Noise.Frequency,
	}
}

// ProfileSettings converts the debug section for the profiler.
func (c *FieldbenchConfig) ProfileSettings() profile.Config {
	return profile.Config{
		Enabled:     c.Debug.Enabled,
		Invocations: c.ProfileInvocations(),
		Dir:         c.Debug.ProfileDir,
		Top:         c.Debug.Top,
	}
}

// ProfileInvocations resolves Debug.Invocations, falling back to the
// timing trial count when it is unset.
func (c *FieldbenchConfig) ProfileInvocations() int {
	if c.Debug.Invocations > 0 {
		return c.Debug.Invocations
	}
	return c.Benchmark.Trials
}

// LoggerSettings converts the logging section. Debug mode forces the
// debug level.
func (c *FieldbenchConfig) LoggerSettings() (logging.Config, error) {
	level, err := logging.ParseLevel(c.Logging.Level)
	if err != nil {
		return logging.Config{}, err
	}
	if c.Debug.Enabled {
		level = logging.LevelDebug
	}
	return logging.Config{
		Level:   level,
		LogDir:  c.Logging.Dir,
		Service: "fieldbench",
		JSON:    c.Logging.JSON,
	}, nil
}
