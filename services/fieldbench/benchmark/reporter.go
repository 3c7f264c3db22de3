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
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/AleutianAI/fieldbench/services/fieldbench/profile"
)

// Reporter writes a benchmark summary somewhere.
type Reporter interface {
	Report(s *Summary) error
}

// -----------------------------------------------------------------------------
// Console
// -----------------------------------------------------------------------------

// ConsoleReporter writes the Render table.
//
// When verbose, per-kernel latency percentiles, CPU time and any profile
// breakdowns follow the table.
type ConsoleReporter struct {
	out     io.Writer
	verbose bool
	top     int
}

// NewConsoleReporter creates a console reporter.
func NewConsoleReporter(out io.Writer, verbose bool) *ConsoleReporter {
	return &ConsoleReporter{out: out, verbose: verbose, top: 25}
}

// WithTop sets how many profile entries verbose output prints.
func (r *ConsoleReporter) WithTop(n int) *ConsoleReporter {
	r.top = n
	return r
}

// Report writes the table and, when verbose, the details.
func (r *ConsoleReporter) Report(s *Summary) error {
	if _, err := io.WriteString(r.out, Render(s.Rows, s.Cols, s.Trials, s.Results)); err != nil {
		return err
	}
	if r.verbose {
		if err := r.reportDetails(s); err != nil {
			return err
		}
	}
	return r.reportProfiles(s)
}

func (r *ConsoleReporter) reportDetails(s *Summary) error {
	fmt.Fprintf(r.out, "\nRun %s (warmup %d, started %s)\n", s.RunID, s.Warmup, s.StartedAt.Format(time.RFC3339))
	for _, res := range s.Results {
		if res.Failed() {
			continue
		}
		_, err := fmt.Fprintf(r.out, "  %-30s p50 %-12v p90 %-12v p99 %-12v cpu %v\n",
			res.Name, res.Latency.P50, res.Latency.P90, res.Latency.P99, res.CPUTime)
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *ConsoleReporter) reportProfiles(s *Summary) error {
	for _, name := range sortedProfileNames(s.Profiles) {
		fmt.Fprintln(r.out)
		if err := s.Profiles[name].Format(r.out, r.top); err != nil {
			return err
		}
	}
	return nil
}

func sortedProfileNames(profiles map[string]*profile.Breakdown) []string {
	names := make([]string, 0, len(profiles))
	for name, b := range profiles {
		if b != nil {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// -----------------------------------------------------------------------------
// JSON
// -----------------------------------------------------------------------------

// JSONReporter writes the summary as a single JSON document.
type JSONReporter struct {
	out    io.Writer
	pretty bool
}

// NewJSONReporter creates a JSON reporter.
func NewJSONReporter(out io.Writer, pretty bool) *JSONReporter {
	return &JSONReporter{out: out, pretty: pretty}
}

type jsonLatency struct {
	MinMs    float64 `json:"min_ms"`
	MaxMs    float64 `json:"max_ms"`
	MeanMs   float64 `json:"mean_ms"`
	StdDevMs float64 `json:"stddev_ms"`
	P50Ms    float64 `json:"p50_ms"`
	P90Ms    float64 `json:"p90_ms"`
	P99Ms    float64 `json:"p99_ms"`
}

type jsonResult struct {
	Name         string       `json:"name"`
	Status       Status       `json:"status"`
	AvgMs        float64      `json:"avg_ms"`
	TotalSeconds float64      `json:"total_s"`
	Trials       int          `json:"trials"`
	Warmup       int          `json:"warmup"`
	CPUMs        float64      `json:"cpu_ms,omitempty"`
	Latency      *jsonLatency `json:"latency,omitempty"`
	Stage        string       `json:"stage,omitempty"`
	Error        string       `json:"error,omitempty"`
	Timestamp    int64        `json:"timestamp"`
}

type jsonSummary struct {
	RunID        string                        `json:"run_id"`
	StartedAt    time.Time                     `json:"started_at"`
	Rows         int                           `json:"rows"`
	Cols         int                           `json:"cols"`
	Trials       int                           `json:"trials"`
	Warmup       int                           `json:"warmup"`
	TotalSeconds float64                       `json:"total_s"`
	Failed       int                           `json:"failed"`
	Results      []jsonResult                  `json:"results"`
	Profiles     map[string]*profile.Breakdown `json:"profiles,omitempty"`
}

// Report encodes s.
func (r *JSONReporter) Report(s *Summary) error {
	doc := jsonSummary{
		RunID:        s.RunID,
		StartedAt:    s.StartedAt,
		Rows:         s.Rows,
		Cols:         s.Cols,
		Trials:       s.Trials,
		Warmup:       s.Warmup,
		TotalSeconds: s.Total,
		Failed:       s.Failed,
		Results:      make([]jsonResult, 0, len(s.Results)),
	}
	if len(s.Profiles) > 0 {
		doc.Profiles = s.Profiles
	}
	for _, res := range s.Results {
		doc.Results = append(doc.Results, toJSONResult(res))
	}

	enc := json.NewEncoder(r.out)
	if r.pretty {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(doc)
}

func toJSONResult(r *Result) jsonResult {
	out := jsonResult{
		Name:         r.Name,
		Status:       r.Status,
		AvgMs:        r.AvgMillis,
		TotalSeconds: r.TotalSeconds,
		Trials:       r.Trials,
		Warmup:       r.Warmup,
		CPUMs:        millis(r.CPUTime),
		Stage:        string(r.Stage),
		Timestamp:    r.Timestamp,
	}
	if r.Err != nil {
		out.Error = r.Err.Error()
	}
	if len(r.Samples) > 0 {
		out.Latency = &jsonLatency{
			MinMs:    millis(r.Latency.Min),
			MaxMs:    millis(r.Latency.Max),
			MeanMs:   millis(r.Latency.Mean),
			StdDevMs: millis(r.Latency.StdDev),
			P50Ms:    millis(r.Latency.P50),
			P90Ms:    millis(r.Latency.P90),
			P99Ms:    millis(r.Latency.P99),
		}
	}
	return out
}

func millis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

var (
	_ Reporter = (*ConsoleReporter)(nil)
	_ Reporter = (*JSONReporter)(nil)
)
