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
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/fieldbench/pkg/grid"
	"github.com/AleutianAI/fieldbench/services/fieldbench/fixture"
	"github.com/AleutianAI/fieldbench/services/fieldbench/kernel"
)

var expectedKernels = []string{
	"clip", "flat_scratch", "heaviside", "list_comprehension",
	"nested_loop", "parallel", "piecewise", "where",
}

// smallArgs keeps CLI tests fast.
var smallArgs = []string{"--rows", "12", "--cols", "9", "--trials", "2", "--warmup", "1"}

func runCLI(t *testing.T, args ...string) (code int, stdout, stderr string) {
	t.Helper()
	t.Chdir(t.TempDir())
	t.Setenv("FIELDBENCH_DEBUG", "")

	var out, errOut bytes.Buffer
	code = run(context.Background(), args, &out, &errOut)
	return code, out.String(), errOut.String()
}

// =============================================================================
// Benchmark Command Tests
// =============================================================================

func TestRun_Benchmark(t *testing.T) {
	code, stdout, stderr := runCLI(t, smallArgs...)

	require.Equal(t, CLIExitSuccess, code, "stderr: %s", stderr)
	assert.Contains(t, stdout, "-> Benchmark started")
	assert.Contains(t, stdout, "12x9 | Runs: 2")
	assert.Contains(t, stdout, "Total Runtime: ")
	for _, name := range expectedKernels {
		assert.Contains(t, stdout, name+" ")
	}
	assert.NotContains(t, stdout, "level=", "logs must not reach stdout")
	assert.Contains(t, stderr, "benchmark finished")
}

func TestRun_BenchmarkJSON(t *testing.T) {
	code, stdout, _ := runCLI(t, append(smallArgs, "--json")...)
	require.Equal(t, CLIExitSuccess, code)

	var doc struct {
		Rows    int `json:"rows"`
		Cols    int `json:"cols"`
		Trials  int `json:"trials"`
		Results []struct {
			Name   string  `json:"name"`
			Status string  `json:"status"`
			AvgMs  float64 `json:"avg_ms"`
		} `json:"results"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &doc))
	assert.Equal(t, 12, doc.Rows)
	assert.Equal(t, 9, doc.Cols)
	assert.Equal(t, 2, doc.Trials)
	require.Len(t, doc.Results, len(expectedKernels))
	for i, r := range doc.Results {
		assert.Equal(t, "passed", r.Status)
		assert.Positive(t, r.AvgMs)
		if i > 0 {
			assert.LessOrEqual(t, doc.Results[i-1].AvgMs, r.AvgMs)
		}
	}
}

func TestRun_MetricsAndTraceFiles(t *testing.T) {
	dir := t.TempDir()
	metricsPath := filepath.Join(dir, "fieldbench.prom")
	tracePath := filepath.Join(dir, "trace.json")

	code, _, stderr := runCLI(t, append(smallArgs, "--metrics-file", metricsPath, "--trace-file", tracePath)...)
	require.Equal(t, CLIExitSuccess, code, "stderr: %s", stderr)

	metrics, err := os.ReadFile(metricsPath)
	require.NoError(t, err)
	assert.Contains(t, string(metrics), "fieldbench_kernels_measured_total")
	assert.Contains(t, string(metrics), `kernel="nested_loop"`)

	trace, err := os.ReadFile(tracePath)
	require.NoError(t, err)
	assert.Contains(t, string(trace), "fieldbench.measure")
	assert.Contains(t, string(trace), "fieldbench.kernel.avg")
}

func TestRun_InvalidConfig(t *testing.T) {
	code, stdout, stderr := runCLI(t, "--trials", "0")

	assert.Equal(t, CLIExitError, code)
	assert.Empty(t, stdout)
	assert.Contains(t, stderr, "config")
}

func TestRun_MissingConfigFile(t *testing.T) {
	code, _, stderr := runCLI(t, "--config", "does-not-exist.yaml")

	assert.Equal(t, CLIExitError, code)
	assert.Contains(t, stderr, "does-not-exist.yaml")
}

func TestRun_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bench.yaml")
	require.NoError(t, os.WriteFile(path, []byte("grid:\n  rows: 6\n  cols: 5\nbenchmark:\n  trials: 3\n"), 0644))

	code, stdout, _ := runCLI(t, "--config", path)
	require.Equal(t, CLIExitSuccess, code)
	assert.Contains(t, stdout, "6x5 | Runs: 3")
}

// =============================================================================
// Subcommand Tests
// =============================================================================

func TestRun_List(t *testing.T) {
	code, stdout, _ := runCLI(t, "list")

	require.Equal(t, CLIExitSuccess, code)
	assert.Contains(t, stdout, "8 kernels")
	for _, name := range expectedKernels {
		assert.Contains(t, stdout, "  "+name)
	}
	assert.Contains(t, stdout, "nested_loop (standalone)")
}

func TestRun_ListJSON(t *testing.T) {
	code, stdout, _ := runCLI(t, "list", "--json")
	require.Equal(t, CLIExitSuccess, code)

	var listings []kernelListing
	require.NoError(t, json.Unmarshal([]byte(stdout), &listings))
	names := make([]string, len(listings))
	for i, l := range listings {
		names[i] = l.Name
	}
	assert.Equal(t, expectedKernels, names)
}

func TestRun_SingleKernel(t *testing.T) {
	code, stdout, stderr := runCLI(t, "run", "nested_loop", "--rows", "4", "--cols", "4")

	require.Equal(t, CLIExitSuccess, code, "stderr: %s", stderr)
	assert.True(t, strings.HasPrefix(stdout, "nested_loop (4x4): "))
	assert.Contains(t, stdout, "checksum ")
}

func TestRun_SingleKernelChecksumsAgree(t *testing.T) {
	checksum := func(name string) string {
		code, stdout, _ := runCLI(t, "run", name, "--rows", "7", "--cols", "3", "--json")
		require.Equal(t, CLIExitSuccess, code)
		var res singleRun
		require.NoError(t, json.Unmarshal([]byte(stdout), &res))
		return res.Checksum
	}

	reference := checksum("nested_loop")
	for _, name := range []string{"where", "parallel", "list_comprehension"} {
		assert.Equal(t, reference, checksum(name), name)
	}
}

func TestRun_SingleKernelUnknown(t *testing.T) {
	code, _, stderr := runCLI(t, "run", "bogus", "--rows", "4", "--cols", "4")

	assert.Equal(t, CLIExitError, code)
	assert.Contains(t, stderr, "bogus")
}

func TestCheckOutput(t *testing.T) {
	want := grid.NewRaster(3, 2)

	assert.NoError(t, checkOutput("fieldbench run", "clip", grid.NewRaster(3, 2), want))

	tests := []struct {
		name string
		got  *grid.Raster
		msg  string
	}{
		{"nil raster", nil, "got nil raster"},
		{"wrong shape", grid.NewRaster(2, 3), "got 2x3"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := checkOutput("fieldbench run", "clip", tt.got, want)

			var cmdErr *CommandError
			require.ErrorAs(t, err, &cmdErr)
			assert.Equal(t, CLIExitFindings, cmdErr.ExitCode)
			assert.ErrorIs(t, err, kernel.ErrShapeMismatch)
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}

// =============================================================================
// Config Override Tests
// =============================================================================

func newFlagCmd(opts *cliOptions) *cobra.Command {
	cmd := &cobra.Command{Use: "fieldbench"}
	flags := cmd.Flags()
	flags.StringVar(&opts.configPath, "config", "", "")
	flags.BoolVar(&opts.debug, "debug", false, "")
	flags.IntVar(&opts.trials, "trials", 0, "")
	return cmd
}

func TestLoadConfig_ProfileFollowsTrials(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("FIELDBENCH_DEBUG", "")

	opts := &cliOptions{}
	cmd := newFlagCmd(opts)
	require.NoError(t, cmd.ParseFlags([]string{"--debug", "--trials", "3"}))

	cfg, err := loadConfig(cmd, opts)
	require.NoError(t, err)

	assert.Equal(t, 3, cfg.Benchmark.Trials)
	prof := cfg.ProfileSettings()
	assert.True(t, prof.Enabled)
	assert.Equal(t, cfg.Benchmark.Trials, prof.Invocations)
}

func TestLoadConfig_TrialsOverrideReplacesInvocations(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("FIELDBENCH_DEBUG", "")
	path := filepath.Join(dir, "bench.yaml")
	require.NoError(t, os.WriteFile(path, []byte("benchmark:\n  trials: 50\ndebug:\n  invocations: 7\n"), 0600))

	opts := &cliOptions{}
	cmd := newFlagCmd(opts)
	require.NoError(t, cmd.ParseFlags([]string{"--config", path}))
	cfg, err := loadConfig(cmd, opts)
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.ProfileSettings().Invocations, "explicit invocations kept without --trials")

	opts = &cliOptions{}
	cmd = newFlagCmd(opts)
	require.NoError(t, cmd.ParseFlags([]string{"--config", path, "--trials", "4"}))
	cfg, err = loadConfig(cmd, opts)
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.ProfileSettings().Invocations)
}

func TestRun_ConfigInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fieldbench.yaml")

	code, _, _ := runCLI(t, "config", "init", path)
	require.Equal(t, CLIExitSuccess, code)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "trials: 1000")

	code, _, stderr := runCLI(t, "config", "init", path)
	assert.Equal(t, CLIExitError, code)
	assert.Contains(t, stderr, "already exists")

	code, _, _ = runCLI(t, "config", "init", path, "--force")
	assert.Equal(t, CLIExitSuccess, code)
}

func TestRun_UnknownCommand(t *testing.T) {
	code, _, _ := runCLI(t, "frobnicate")
	assert.Equal(t, CLIExitError, code)
}

// =============================================================================
// CommandError Tests
// =============================================================================

func TestCommandError_Error(t *testing.T) {
	cause := errors.New("disk full")

	err := NewCommandError("fieldbench", CLIExitError, "metrics", "", cause)
	assert.Equal(t, "fieldbench: metrics: disk full", err.Error())
	assert.ErrorIs(t, err, cause)

	err = NewCommandError("fieldbench run", CLIExitFindings, "process", "clip", cause)
	assert.Equal(t, "fieldbench run: process (kernel clip): disk full", err.Error())

	err = NewCommandError("fieldbench", CLIExitFindings, "benchmark", "", nil)
	assert.Equal(t, "fieldbench: benchmark (exit 1)", err.Error())
}

func TestWrapCommandError(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		code      int
		component string
		kernel    string
	}{
		{
			name:      "discovery",
			err:       &kernel.DiscoveryError{Origin: "x/bad.go", Name: "bad", Err: kernel.ErrMissingProcess},
			code:      CLIExitError,
			component: "discovery",
			kernel:    "bad",
		},
		{
			name:      "fixture",
			err:       &fixture.FixtureError{Rows: 0, Cols: 1, Err: fixture.ErrInvalidDimensions},
			code:      CLIExitError,
			component: "fixture",
		},
		{
			name:      "setup",
			err:       &kernel.SetupError{Kernel: "where", Err: kernel.ErrUnbound},
			code:      CLIExitFindings,
			component: "setup",
			kernel:    "where",
		},
		{
			name:      "process",
			err:       &kernel.ProcessError{Kernel: "clip", Phase: kernel.PhaseRun, Trial: -1, Err: kernel.ErrKernelPanic},
			code:      CLIExitFindings,
			component: "process",
			kernel:    "clip",
		},
		{
			name:      "other",
			err:       errors.New("boom"),
			code:      CLIExitError,
			component: "fallback",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := WrapCommandError(tt.err, "fieldbench", "fallback")
			assert.Equal(t, tt.code, got.ExitCode)
			assert.Equal(t, tt.component, got.Component)
			assert.Equal(t, tt.kernel, got.Kernel)
			assert.ErrorIs(t, got, tt.err)
		})
	}

	assert.Nil(t, WrapCommandError(nil, "fieldbench", "x"))
	existing := NewCommandError("a", 1, "b", "", nil)
	assert.Same(t, existing, WrapCommandError(existing, "fieldbench", "x"))
}
