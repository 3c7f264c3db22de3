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
	"io"

	"github.com/spf13/cobra"
)

// cliOptions holds the global flags.
type cliOptions struct {
	configPath  string
	debug       bool
	jsonOutput  bool
	verbose     bool
	metricsFile string
	traceFile   string

	rows   int
	cols   int
	trials int
	warmup int
}

// newRootCmd builds the command tree. Reports go to stdout, diagnostics
// and logs to stderr.
func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	opts := &cliOptions{}

	rootCmd := &cobra.Command{
		Use:   "fieldbench",
		Short: "Benchmark field-to-raster transform kernels",
		Long: `fieldbench generates a deterministic Perlin noise field and times every
compiled-in kernel that converts it into an RGB raster, printing a ranked
report of average and total run times.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBenchmark(cmd, opts, stdout, stderr)
		},
	}
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "path to fieldbench.yaml (default ./fieldbench.yaml if present)")
	flags.BoolVar(&opts.debug, "debug", false, "profile each kernel after timing it")
	flags.BoolVar(&opts.jsonOutput, "json", false, "write the report as JSON")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "print latency percentiles and progress")
	flags.StringVar(&opts.metricsFile, "metrics-file", "", "write Prometheus metrics to this textfile")
	flags.StringVar(&opts.traceFile, "trace-file", "", "write OpenTelemetry spans and metrics as JSON to this file")
	flags.IntVar(&opts.rows, "rows", 0, "override grid rows")
	flags.IntVar(&opts.cols, "cols", 0, "override grid columns")
	flags.IntVar(&opts.trials, "trials", 0, "override timed trials per kernel")
	flags.IntVar(&opts.warmup, "warmup", 0, "override warmup invocations per kernel")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List the discovered kernels",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(opts, stdout)
		},
	}

	runCmd := &cobra.Command{
		Use:   "run <kernel>",
		Short: "Run one kernel once on the configured fixture",
		Long: `run builds the fixture and invokes a single kernel once through its
standalone entry point, printing elapsed time and an output checksum.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSingle(cmd, opts, args[0], stdout, stderr)
		},
	}

	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage fieldbench configuration",
	}

	var force bool
	configInitCmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Write the default configuration",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) == 1 {
				path = args[0]
			}
			return runConfigInit(path, force, stderr)
		},
	}
	configInitCmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")

	configCmd.AddCommand(configInitCmd)
	rootCmd.AddCommand(listCmd, runCmd, configCmd)
	return rootCmd
}
