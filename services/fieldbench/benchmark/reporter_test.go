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
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/fieldbench/services/fieldbench/profile"
)

func sampleSummary() *Summary {
	fast := NewResult("fast", 4, 1, 8*time.Millisecond)
	fast.Samples = []time.Duration{time.Millisecond, 2 * time.Millisecond, 2 * time.Millisecond, 3 * time.Millisecond}
	fast.Latency, _ = CalculateLatencyStats(fast.Samples)
	fast.CPUTime = 7 * time.Millisecond

	summary := NewSummary(16, 32, Config{Trials: 4, Warmup: 1},
		time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		[]*Result{failed("broken"), fast})
	summary.Profiles["fast"] = &profile.Breakdown{
		Kernel:  "fast",
		Total:   30 * time.Millisecond,
		Samples: 3,
		Entries: []profile.Entry{{Function: "kernels.fastProcess", Flat: 30 * time.Millisecond, Cum: 30 * time.Millisecond, FlatPct: 100, CumPct: 100}},
	}
	return summary
}

func TestConsoleReporter_Table(t *testing.T) {
	var buf bytes.Buffer
	s := sampleSummary()

	require.NoError(t, NewConsoleReporter(&buf, false).Report(s))

	out := buf.String()
	assert.Contains(t, out, Render(s.Rows, s.Cols, s.Trials, s.Results))
	assert.Contains(t, out, "16x32 | Runs: 4")
	assert.NotContains(t, out, "p50")
	assert.Contains(t, out, "Profile fast: 3 samples")
	assert.Contains(t, out, "kernels.fastProcess")
}

func TestConsoleReporter_Verbose(t *testing.T) {
	var buf bytes.Buffer
	s := sampleSummary()

	require.NoError(t, NewConsoleReporter(&buf, true).WithTop(5).Report(s))

	out := buf.String()
	assert.Contains(t, out, "Run "+s.RunID)
	assert.Contains(t, out, "p50 2ms")
	assert.Contains(t, out, "cpu 7ms")
	assert.NotContains(t, out, "broken                         p50", "failed kernels have no latency line")
}

func TestJSONReporter(t *testing.T) {
	var buf bytes.Buffer
	s := sampleSummary()

	require.NoError(t, NewJSONReporter(&buf, true).Report(s))

	var doc struct {
		RunID        string  `json:"run_id"`
		Rows         int     `json:"rows"`
		Cols         int     `json:"cols"`
		Trials       int     `json:"trials"`
		TotalSeconds float64 `json:"total_s"`
		Failed       int     `json:"failed"`
		Results      []struct {
			Name    string  `json:"name"`
			Status  string  `json:"status"`
			AvgMs   float64 `json:"avg_ms"`
			Stage   string  `json:"stage"`
			Error   string  `json:"error"`
			CPUMs   float64 `json:"cpu_ms"`
			Latency *struct {
				P50Ms float64 `json:"p50_ms"`
			} `json:"latency"`
		} `json:"results"`
		Profiles map[string]json.RawMessage `json:"profiles"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))

	assert.Equal(t, s.RunID, doc.RunID)
	assert.Equal(t, 16, doc.Rows)
	assert.Equal(t, 32, doc.Cols)
	assert.Equal(t, 4, doc.Trials)
	assert.Equal(t, 1, doc.Failed)
	assert.InDelta(t, 0.008, doc.TotalSeconds, 1e-12)

	require.Len(t, doc.Results, 2)
	assert.Equal(t, "fast", doc.Results[0].Name)
	assert.Equal(t, "passed", doc.Results[0].Status)
	assert.InDelta(t, 2.0, doc.Results[0].AvgMs, 1e-9)
	assert.InDelta(t, 7.0, doc.Results[0].CPUMs, 1e-9)
	require.NotNil(t, doc.Results[0].Latency)
	assert.InDelta(t, 2.0, doc.Results[0].Latency.P50Ms, 1e-9)

	assert.Equal(t, "broken", doc.Results[1].Name)
	assert.Equal(t, "failed", doc.Results[1].Status)
	assert.Equal(t, "process", doc.Results[1].Stage)
	assert.Contains(t, doc.Results[1].Error, "broken kernel")
	assert.Nil(t, doc.Results[1].Latency)

	assert.Contains(t, doc.Profiles, "fast")
}

func TestJSONReporter_Compact(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewJSONReporter(&buf, false).Report(sampleSummary()))
	assert.Equal(t, 1, bytes.Count(buf.Bytes(), []byte("\n")))
}
