// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package profile

import (
	"fmt"
	"io"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/google/pprof/profile"
)

// Entry is one function's share of a profile.
type Entry struct {
	// Function is the fully qualified function name.
	Function string `json:"function"`

	// Flat is time spent in the function itself.
	Flat time.Duration `json:"flat_ns"`

	// Cum is time spent in the function and everything it called.
	Cum time.Duration `json:"cum_ns"`

	// FlatPct and CumPct are percentages of Breakdown.Total.
	FlatPct float64 `json:"flat_pct"`
	CumPct  float64 `json:"cum_pct"`
}

// Breakdown is a profile reduced to per-function times, sorted by
// cumulative time descending with ties broken by name.
type Breakdown struct {
	Kernel   string        `json:"kernel"`
	Total    time.Duration `json:"total_ns"`
	Samples  int64         `json:"samples"`
	Entries  []Entry       `json:"entries"`
	Artifact string        `json:"artifact,omitempty"`
}

// Analyze parses a pprof-encoded CPU profile and computes its breakdown.
//
// Description:
//
//	Each sample's CPU time is charged flat to the innermost frame and
//	cumulatively to every distinct function on its stack, once per sample
//	even under recursion. When the profile has no "cpu" sample type the
//	last sample type is used.
//
// Inputs:
//   - r: A profile in the format written by runtime/pprof.
//
// Outputs:
//   - *Breakdown: The reduced profile. Kernel and Artifact are left empty.
//   - error: Non-nil if the profile cannot be parsed.
func Analyze(r io.Reader) (*Breakdown, error) {
	p, err := profile.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse profile: %w", err)
	}

	idx := valueIndex(p)
	flat := make(map[string]int64)
	cum := make(map[string]int64)
	breakdown := &Breakdown{}
	var total int64

	for _, s := range p.Sample {
		if idx < 0 || idx >= len(s.Value) {
			continue
		}
		v := s.Value[idx]
		total += v
		breakdown.Samples++

		seen := make(map[string]bool)
		for li, loc := range s.Location {
			for lj, line := range loc.Line {
				if line.Function == nil {
					continue
				}
				name := line.Function.Name
				if li == 0 && lj == 0 {
					flat[name] += v
				}
				if !seen[name] {
					seen[name] = true
					cum[name] += v
				}
			}
		}
	}

	breakdown.Total = time.Duration(total)
	breakdown.Entries = make([]Entry, 0, len(cum))
	for name, c := range cum {
		breakdown.Entries = append(breakdown.Entries, Entry{
			Function: name,
			Flat:     time.Duration(flat[name]),
			Cum:      time.Duration(c),
			FlatPct:  pct(flat[name], total),
			CumPct:   pct(c, total),
		})
	}
	sort.Slice(breakdown.Entries, func(i, j int) bool {
		a, b := breakdown.Entries[i], breakdown.Entries[j]
		if a.Cum != b.Cum {
			return a.Cum > b.Cum
		}
		return a.Function < b.Function
	})
	return breakdown, nil
}

// valueIndex locates the CPU-time column of a profile.
func valueIndex(p *profile.Profile) int {
	for i, st := range p.SampleType {
		if st.Type == "cpu" {
			return i
		}
	}
	return len(p.SampleType) - 1
}

func pct(part, total int64) float64 {
	if total == 0 {
		return 0
	}
	return float64(part) / float64(total) * 100
}

// Top returns at most n entries. n <= 0 returns all of them.
func (b *Breakdown) Top(n int) []Entry {
	if n <= 0 || n >= len(b.Entries) {
		return b.Entries
	}
	return b.Entries[:n]
}

// Format writes the breakdown as an aligned table of the top n functions.
func (b *Breakdown) Format(w io.Writer, n int) error {
	if _, err := fmt.Fprintf(w, "Profile %s: %d samples, %v total\n", b.Kernel, b.Samples, b.Total); err != nil {
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "cum\tcum%\tflat\tflat%\t\tfunction")
	for _, e := range b.Top(n) {
		fmt.Fprintf(tw, "%v\t%.2f%%\t%v\t%.2f%%\t\t%s\n", e.Cum, e.CumPct, e.Flat, e.FlatPct, e.Function)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	if b.Artifact != "" {
		_, err := fmt.Fprintf(w, "Profile written to %s\n", b.Artifact)
		return err
	}
	return nil
}
