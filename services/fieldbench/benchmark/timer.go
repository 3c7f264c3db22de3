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
	"fmt"
	"time"

	"github.com/AleutianAI/fieldbench/pkg/grid"
	"github.com/AleutianAI/fieldbench/services/fieldbench/kernel"
)

// Timer measures one kernel at a time in an isolated namespace.
//
// Thread Safety: A Timer holds only configuration and may be shared, but
// concurrent Measure calls compete for CPU and invalidate comparisons.
type Timer struct {
	cfg   Config
	clock func() time.Time
}

// NewTimer creates a Timer.
//
// Outputs:
//   - *Timer: The timer.
//   - error: ErrInvalidConfig if cfg fails validation.
func NewTimer(cfg *Config) (*Timer, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Timer{cfg: *cfg, clock: time.Now}, nil
}

// Config returns a copy of the timer's configuration.
func (t *Timer) Config() Config {
	return t.cfg
}

// Measure times Trials invocations of k.
//
// Description:
//
//	 1. Build a namespace from private copies of in and out (untimed).
//	 2. Run k.Setup against it once (untimed).
//	 3. Run Warmup invocations (untimed, discarded).
//	 4. Run exactly Trials invocations. Without samples one start and one
//	    stop reading of the monotonic clock bracket the whole loop; with
//	    samples each call is bracketed and Total is their sum.
//	 5. Check the last returned raster has out's shape (untimed).
//
//	The timed region contains only Process calls. Any error or panic stops
//	measurement of this kernel.
//
// Inputs:
//   - k: The kernel. Must not be nil.
//   - in, out: The shared fixture. Never mutated.
//
// Outputs:
//   - *Result: A passed result with Total, AvgMillis and TotalSeconds.
//   - error: *kernel.SetupError or *kernel.ProcessError.
//
// Example:
//
//	timer, _ := benchmark.NewTimer(benchmark.DefaultConfig())
//	result, err := timer.Measure(k, fx.Input, fx.Output)
func (t *Timer) Measure(k kernel.Kernel, in *grid.Field, out *grid.Raster) (*Result, error) {
	name := k.Name()

	ns := kernel.NewNamespace(in, out)
	if err := kernel.Prepare(k, ns); err != nil {
		return nil, err
	}

	invoke := func(phase kernel.Phase, i int) (result *grid.Raster, err error) {
		defer kernel.Recover(name, phase, i, &err)
		result, err = k.Process(ns, ns.Input, ns.Output)
		if err != nil {
			return nil, kernel.Classify(name, phase, i, err)
		}
		return result, nil
	}

	for i := 0; i < t.cfg.Warmup; i++ {
		if _, err := invoke(kernel.PhaseWarmup, i); err != nil {
			return nil, err
		}
	}

	trials := t.cfg.Trials
	var samples []time.Duration
	if t.cfg.CollectSamples {
		samples = make([]time.Duration, trials)
	}

	var (
		last *grid.Raster
		err  error
		cpu  time.Duration
	)
	if t.cfg.CollectCPU {
		cpu = processCPUTime()
	}

	var total time.Duration
	if samples != nil {
		// Total is the sum of the samples, so sample bookkeeping between
		// trials stays outside the measurement.
		for i := 0; i < trials; i++ {
			trialStart := t.clock()
			last, err = invoke(kernel.PhaseTrial, i)
			samples[i] = t.clock().Sub(trialStart)
			if err != nil {
				return nil, err
			}
			total += samples[i]
		}
	} else {
		start := t.clock()
		for i := 0; i < trials; i++ {
			if last, err = invoke(kernel.PhaseTrial, i); err != nil {
				return nil, err
			}
		}
		total = t.clock().Sub(start)
	}

	if t.cfg.CollectCPU {
		cpu = processCPUTime() - cpu
	}

	if last == nil || !last.SameShape(out) {
		return nil, &kernel.ProcessError{
			Kernel: name,
			Phase:  kernel.PhaseValidate,
			Trial:  -1,
			Err:    fmt.Errorf("%w: %s", kernel.ErrShapeMismatch, describe(last, out)),
		}
	}

	// A measured kernel is never free, even on a coarse clock.
	if total <= 0 {
		total = time.Nanosecond
	}

	result := NewResult(name, trials, t.cfg.Warmup, total)
	result.CPUTime = cpu
	if samples != nil {
		result.Samples = samples
		if stats, err := CalculateLatencyStats(samples); err == nil {
			result.Latency = stats
		}
	}
	return result, nil
}

func describe(got, want *grid.Raster) string {
	if got == nil {
		return fmt.Sprintf("got nil, want %dx%dx%d", want.Rows, want.Cols, grid.Channels)
	}
	return fmt.Sprintf("got %dx%d (%d bytes), want %dx%dx%d",
		got.Rows, got.Cols, len(got.Pix), want.Rows, want.Cols, grid.Channels)
}
