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
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/AleutianAI/fieldbench/services/fieldbench/profile"
)

const (
	reportWidth  = 100
	reportBanner = "-> Benchmark started"
	reportFooter = "Total Runtime: "
	maxErrorText = 96
)

// Summary is the aggregated outcome of one benchmark run.
type Summary struct {
	// RunID uniquely identifies the run in logs, metrics and JSON output.
	RunID string

	// StartedAt is when the run began.
	StartedAt time.Time

	// Rows and Cols are the fixture dimensions.
	Rows int
	Cols int

	// Trials and Warmup are the per-kernel invocation counts.
	Trials int
	Warmup int

	// Results are ranked: passed ascending by AvgMillis, then failed.
	Results []*Result

	// Total is the sum of TotalSeconds over passed results.
	Total float64

	// Failed counts failed results.
	Failed int

	// Profiles holds call breakdowns keyed by kernel name, in debug mode.
	Profiles map[string]*profile.Breakdown
}

// NewSummary ranks results and computes run totals.
func NewSummary(rows, cols int, cfg Config, startedAt time.Time, results []*Result) *Summary {
	ranked := Rank(results)
	failed := 0
	for _, r := range ranked {
		if r.Failed() {
			failed++
		}
	}
	return &Summary{
		RunID:     uuid.NewString(),
		StartedAt: startedAt,
		Rows:      rows,
		Cols:      cols,
		Trials:    cfg.Trials,
		Warmup:    cfg.Warmup,
		Results:   ranked,
		Total:     GrandTotal(ranked),
		Failed:    failed,
		Profiles:  make(map[string]*profile.Breakdown),
	}
}

// HasFailures reports whether any kernel failed.
func (s *Summary) HasFailures() bool {
	return s.Failed > 0
}

// Rank returns results sorted ascending by AvgMillis.
//
// Description:
//
//	The sort is stable, so ties keep their input order. Failed results
//	follow every passed result, also in input order. The input slice is
//	not modified.
func Rank(results []*Result) []*Result {
	ranked := make([]*Result, len(results))
	copy(ranked, results)
	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.Failed() != b.Failed() {
			return !a.Failed()
		}
		if a.Failed() {
			return false
		}
		return a.AvgMillis < b.AvgMillis
	})
	return ranked
}

// GrandTotal sums TotalSeconds over passed results.
func GrandTotal(results []*Result) float64 {
	var total float64
	for _, r := range results {
		if !r.Failed() {
			total += r.TotalSeconds
		}
	}
	return total
}

// Render formats results as the benchmark table.
//
// Description:
//
//	Pure function: ranks a copy of results and returns text. Layout:
//
//	  ----------------------------------------------------------------
//	  -> Benchmark started                      2560x1440 | Runs: 1000
//	  ----------------------------------------------------------------
//	  nested_loop                              12.3456 ms     12.35 s
//	  broken                                   FAILED (process)
//	      error: ...
//	  ----------------------------------------------------------------
//	  Total Runtime:                                          12.35 s
//	  ----------------------------------------------------------------
//
//	Averages have 4 decimals in milliseconds, totals 2 decimals in
//	seconds. The footer sums passed kernels only.
//
// Inputs:
//   - rows, cols: Grid dimensions shown in the header.
//   - trials: Trial count shown in the header.
//   - results: Results in any order.
//
// Outputs:
//   - string: The table, newline-terminated.
func Render(rows, cols, trials int, results []*Result) string {
	ranked := Rank(results)
	separator := strings.Repeat("-", reportWidth)

	var b strings.Builder
	b.WriteString(separator + "\n")
	fmt.Fprintf(&b, "%-40s%60s\n", reportBanner, fmt.Sprintf("%dx%d | Runs: %d", rows, cols, trials))
	b.WriteString(separator + "\n")
	for _, r := range ranked {
		if r.Failed() {
			fmt.Fprintf(&b, "%-50s%35s\n", r.Name, fmt.Sprintf("FAILED (%s)", stageLabel(r)))
			if r.Err != nil {
				fmt.Fprintf(&b, "    error: %s\n", truncate(r.Err.Error(), maxErrorText))
			}
			continue
		}
		fmt.Fprintf(&b, "%-50s%35.4f ms%10.2f s\n", r.Name, r.AvgMillis, r.TotalSeconds)
	}
	b.WriteString(separator + "\n")
	fmt.Fprintf(&b, "%-50s%48.2f s\n", reportFooter, GrandTotal(ranked))
	b.WriteString(separator + "\n")
	return b.String()
}

func stageLabel(r *Result) string {
	if r.Stage == "" {
		return "unknown"
	}
	return string(r.Stage)
}

// truncate shortens s to max runes, marking the cut with "...".
func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	if max <= 3 {
		return string(runes[:max])
	}
	return string(runes[:max-3]) + "..."
}
