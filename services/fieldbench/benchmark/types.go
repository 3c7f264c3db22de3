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
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"gonum.org/v1/gonum/floats"

	"github.com/AleutianAI/fieldbench/services/fieldbench/kernel"
)

// -----------------------------------------------------------------------------
// Errors
// -----------------------------------------------------------------------------

var (
	// ErrNoSamples indicates that no samples were collected.
	ErrNoSamples = errors.New("no samples collected")

	// ErrInvalidConfig indicates an invalid benchmark configuration.
	ErrInvalidConfig = errors.New("invalid benchmark configuration")

	// ErrNilInput indicates a nil registry or fixture was passed to Run.
	ErrNilInput = errors.New("nil benchmark input")
)

// -----------------------------------------------------------------------------
// Configuration
// -----------------------------------------------------------------------------

// Config holds benchmark configuration.
//
// Description:
//
//	Trials and Warmup are independent: Warmup untimed invocations run
//	first, then exactly Trials timed invocations.
//
// Thread Safety: Safe for concurrent read access after initialization.
type Config struct {
	// Trials is the number of timed invocations per kernel.
	// Default: 1000
	Trials int

	// Warmup is the number of untimed invocations before timing.
	// Default: 1
	Warmup int

	// CollectSamples records per-trial latency for LatencyStats.
	// Default: true
	CollectSamples bool

	// CollectCPU records process CPU time consumed by the timed trials.
	// Default: true
	CollectCPU bool
}

// DefaultConfig returns a configuration with default values.
//
// Example:
//
//	config := DefaultConfig()
//	config.Trials = 100
func DefaultConfig() *Config {
	return &Config{
		Trials:         1000,
		Warmup:         1,
		CollectSamples: true,
		CollectCPU:     true,
	}
}

// Validate checks that the configuration is valid.
//
// Outputs:
//   - error: ErrInvalidConfig naming the offending field.
func (c *Config) Validate() error {
	if c.Trials <= 0 {
		return fmt.Errorf("%w: trials must be positive, got %d", ErrInvalidConfig, c.Trials)
	}
	if c.Warmup < 0 {
		return fmt.Errorf("%w: warmup must be non-negative, got %d", ErrInvalidConfig, c.Warmup)
	}
	return nil
}

// -----------------------------------------------------------------------------
// Results
// -----------------------------------------------------------------------------

// Status is the outcome of measuring one kernel.
type Status string

const (
	StatusPassed Status = "passed"
	StatusFailed Status = "failed"
)

// Result holds one kernel's measurement.
//
// Description:
//
//	The reported tuple is (Name, AvgMillis, TotalSeconds), with
//	AvgMillis = TotalSeconds / Trials * 1000 by construction. A failed
//	result carries Stage and Err and zero timings.
//
// Thread Safety: Immutable after creation.
type Result struct {
	// Name is the kernel name.
	Name string

	// Status is passed or failed.
	Status Status

	// Trials and Warmup are the invocation counts used.
	Trials int
	Warmup int

	// Total is the wall time of the whole timed loop.
	Total time.Duration

	// AvgMillis is the mean trial time in milliseconds.
	AvgMillis float64

	// TotalSeconds is Total in seconds.
	TotalSeconds float64

	// Latency holds per-trial statistics when samples were collected.
	Latency LatencyStats

	// CPUTime is process CPU time consumed during the timed loop. Zero
	// when not collected or unsupported.
	CPUTime time.Duration

	// Stage and Err describe a failure.
	Stage kernel.Stage
	Err   error

	// Timestamp is when the measurement finished (Unix milliseconds UTC).
	Timestamp int64

	// Samples holds the raw per-trial latencies.
	Samples []time.Duration
}

// NewResult builds a passed result and derives the averages from total.
func NewResult(name string, trials, warmup int, total time.Duration) *Result {
	seconds := total.Seconds()
	return &Result{
		Name:         name,
		Status:       StatusPassed,
		Trials:       trials,
		Warmup:       warmup,
		Total:        total,
		TotalSeconds: seconds,
		AvgMillis:    seconds / float64(trials) * 1000,
		Timestamp:    time.Now().UTC().UnixMilli(),
	}
}

// FailedResult builds a failed result for err.
func FailedResult(name string, err error) *Result {
	return &Result{
		Name:      name,
		Status:    StatusFailed,
		Stage:     kernel.StageOf(err),
		Err:       err,
		Timestamp: time.Now().UTC().UnixMilli(),
	}
}

// Failed reports whether the kernel failed.
func (r *Result) Failed() bool {
	return r.Status == StatusFailed
}

// -----------------------------------------------------------------------------
// Latency Statistics
// -----------------------------------------------------------------------------

// LatencyStats holds per-trial latency statistics.
//
// All percentiles are calculated using linear interpolation.
type LatencyStats struct {
	Min    time.Duration
	Max    time.Duration
	Mean   time.Duration
	StdDev time.Duration
	P50    time.Duration
	P90    time.Duration
	P99    time.Duration
}

// CalculateLatencyStats computes statistics from samples.
//
// Inputs:
//   - samples: Duration samples. Must not be empty.
//
// Outputs:
//   - LatencyStats: Computed statistics.
//   - error: ErrNoSamples if samples is empty.
//
// Thread Safety: This function is stateless and safe for concurrent use.
func CalculateLatencyStats(samples []time.Duration) (LatencyStats, error) {
	if len(samples) == 0 {
		return LatencyStats{}, ErrNoSamples
	}

	values := make([]float64, len(samples))
	for i, s := range samples {
		values[i] = float64(s)
	}
	sort.Float64s(values)

	mean := floats.Sum(values) / float64(len(values))
	var sumSquaredDiff float64
	for _, v := range values {
		diff := v - mean
		sumSquaredDiff += diff * diff
	}

	return LatencyStats{
		Min:    time.Duration(floats.Min(values)),
		Max:    time.Duration(floats.Max(values)),
		Mean:   time.Duration(mean),
		StdDev: time.Duration(math.Sqrt(sumSquaredDiff / float64(len(values)))),
		P50:    time.Duration(percentile(values, 0.50)),
		P90:    time.Duration(percentile(values, 0.90)),
		P99:    time.Duration(percentile(values, 0.99)),
	}, nil
}

// percentile calculates the p-th percentile of sorted values using linear interpolation.
func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if len(sorted) == 1 {
		return sorted[0]
	}

	index := p * float64(len(sorted)-1)
	lower := int(math.Floor(index))
	upper := int(math.Ceil(index))
	if lower == upper {
		return sorted[lower]
	}

	fraction := index - float64(lower)
	return sorted[lower]*(1-fraction) + sorted[upper]*fraction
}
