// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package profile wraps a kernel's invocation sequence with the Go CPU
// profiler and reduces the result to a per-function time breakdown.
//
// Profiling is a separate pass from timing. The benchmark suite measures a
// kernel first and only then, when debug mode is on, profiles it again, so
// profiler overhead never leaks into reported timings.
package profile

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime/pprof"
	"time"

	"github.com/AleutianAI/fieldbench/pkg/grid"
	"github.com/AleutianAI/fieldbench/services/fieldbench/kernel"
)

var (
	// ErrProfilerBusy indicates CPU profiling is already active in this
	// process, for example under `go test -cpuprofile`.
	ErrProfilerBusy = errors.New("cpu profiler already in use")

	// ErrInvalidConfig indicates an unusable profiler configuration.
	ErrInvalidConfig = errors.New("invalid profiler configuration")
)

// Config controls the profiling pass.
type Config struct {
	// Enabled turns profiling on. When false New returns a Noop.
	Enabled bool

	// Invocations is the number of Process calls profiled. Matching the
	// timing trial count profiles the same sequence that was timed.
	// Default: 1000
	Invocations int

	// Dir receives raw pprof artifacts. Empty disables artifacts.
	// Default: "logs"
	Dir string

	// Top limits how many functions Format prints. Default: 25
	Top int
}

// DefaultConfig returns a disabled profiler configuration.
func DefaultConfig() Config {
	return Config{
		Enabled:     false,
		Invocations: 1000,
		Dir:         "logs",
		Top:         25,
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.Invocations <= 0 {
		return fmt.Errorf("%w: invocations must be positive, got %d", ErrInvalidConfig, c.Invocations)
	}
	if c.Top < 0 {
		return fmt.Errorf("%w: top must be non-negative, got %d", ErrInvalidConfig, c.Top)
	}
	return nil
}

// Profiler produces a call breakdown for one kernel.
type Profiler interface {
	// Profile runs setup plus an invocation sequence under the profiler.
	// A disabled profiler returns (nil, nil).
	Profile(k kernel.Kernel, in *grid.Field, out *grid.Raster) (*Breakdown, error)

	// Enabled reports whether Profile does any work.
	Enabled() bool
}

// New returns a CPUProfiler when cfg.Enabled, otherwise a Noop.
func New(cfg Config) Profiler {
	if !cfg.Enabled {
		return Noop{}
	}
	if cfg.Invocations <= 0 {
		cfg.Invocations = DefaultConfig().Invocations
	}
	return &CPUProfiler{cfg: cfg, now: time.Now}
}

// Noop is the profiler used when debug mode is off.
type Noop struct{}

// Profile does nothing.
func (Noop) Profile(kernel.Kernel, *grid.Field, *grid.Raster) (*Breakdown, error) {
	return nil, nil
}

// Enabled returns false.
func (Noop) Enabled() bool { return false }

// CPUProfiler samples kernel execution with runtime/pprof.
//
// Thread Safety: The Go runtime allows one CPU profile at a time per
// process. Concurrent Profile calls fail with ErrProfilerBusy.
type CPUProfiler struct {
	cfg Config
	now func() time.Time
}

// Enabled returns true.
func (p *CPUProfiler) Enabled() bool { return true }

// Profile runs the kernel under the CPU profiler.
//
// Description:
//
//	Builds a private namespace, runs Setup outside the profile, then
//	profiles cfg.Invocations Process calls. The raw profile is reduced with
//	Analyze and, when cfg.Dir is set, saved as
//	"{dir}/profiler-{kernel}-{HH_MM_SS}.pprof" for `go tool pprof`.
//
// Outputs:
//   - *Breakdown: Functions sorted by cumulative time, descending.
//   - error: *kernel.SetupError, *kernel.ProcessError, ErrProfilerBusy, or
//     an artifact write failure.
func (p *CPUProfiler) Profile(k kernel.Kernel, in *grid.Field, out *grid.Raster) (*Breakdown, error) {
	ns := kernel.NewNamespace(in, out)
	if err := kernel.Prepare(k, ns); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := pprof.StartCPUProfile(&buf); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrProfilerBusy, err)
	}
	runErr := p.invoke(k, ns)
	pprof.StopCPUProfile()
	if runErr != nil {
		return nil, runErr
	}

	raw := buf.Bytes()
	breakdown, err := Analyze(bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}
	breakdown.Kernel = k.Name()

	if p.cfg.Dir != "" {
		path, err := p.writeArtifact(k.Name(), raw)
		if err != nil {
			return breakdown, err
		}
		breakdown.Artifact = path
	}
	return breakdown, nil
}

func (p *CPUProfiler) invoke(k kernel.Kernel, ns *kernel.Namespace) error {
	for i := 0; i < p.cfg.Invocations; i++ {
		if err := invokeOnce(k, ns, i); err != nil {
			return err
		}
	}
	return nil
}

func invokeOnce(k kernel.Kernel, ns *kernel.Namespace, trial int) (err error) {
	defer kernel.Recover(k.Name(), kernel.PhaseTrial, trial, &err)
	if _, err := k.Process(ns, ns.Input, ns.Output); err != nil {
		return kernel.Classify(k.Name(), kernel.PhaseTrial, trial, err)
	}
	return nil
}

// ArtifactName returns the file name used for a kernel's profile taken at t.
func ArtifactName(kernelName string, t time.Time) string {
	return fmt.Sprintf("profiler-%s-%s.pprof", kernelName, t.Format("15_04_05"))
}

func (p *CPUProfiler) writeArtifact(kernelName string, raw []byte) (string, error) {
	if err := os.MkdirAll(p.cfg.Dir, 0750); err != nil {
		return "", fmt.Errorf("create profile dir: %w", err)
	}
	path := filepath.Join(p.cfg.Dir, ArtifactName(kernelName, p.now()))
	if err := os.WriteFile(path, raw, 0640); err != nil {
		return "", fmt.Errorf("write profile: %w", err)
	}
	return path, nil
}
