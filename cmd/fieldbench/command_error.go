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
	"errors"
	"fmt"

	"github.com/AleutianAI/fieldbench/services/fieldbench/fixture"
	"github.com/AleutianAI/fieldbench/services/fieldbench/kernel"
)

// Exit codes for CLI commands.
const (
	CLIExitSuccess  = 0 // Benchmark completed and every kernel passed
	CLIExitFindings = 1 // Report printed, at least one kernel failed
	CLIExitError    = 2 // Configuration, fixture or discovery failure
)

// ErrKernelsFailed marks a run whose report lists failed kernels.
var ErrKernelsFailed = errors.New("kernels failed")

// CommandError carries the exit code and origin of a command failure.
//
// # Description
//
// Component names the part of the harness that failed ("config",
// "discovery", "fixture", "benchmark", ...). Kernel is set when one
// kernel is responsible. Implements error and supports unwrapping.
//
// # Example
//
//	err := NewCommandError("fieldbench run", CLIExitError, "fixture", "", fixtureErr)
//	fmt.Println(err.Error()) // "fieldbench run: fixture: build 4x4 fixture: ..."
//
//	var cmdErr *CommandError
//	if errors.As(err, &cmdErr) {
//	    os.Exit(cmdErr.ExitCode)
//	}
type CommandError struct {
	// Command is the CLI command that failed.
	Command string

	// ExitCode is the process exit code.
	ExitCode int

	// Component is the failing part of the harness.
	Component string

	// Kernel is the kernel involved, if any.
	Kernel string

	// Wrapped is the underlying error.
	Wrapped error
}

// Error returns "command: component[ (kernel k)]: cause".
func (e *CommandError) Error() string {
	where := e.Component
	if e.Kernel != "" {
		where = fmt.Sprintf("%s (kernel %s)", where, e.Kernel)
	}
	if e.Wrapped != nil {
		return fmt.Sprintf("%s: %s: %v", e.Command, where, e.Wrapped)
	}
	return fmt.Sprintf("%s: %s (exit %d)", e.Command, where, e.ExitCode)
}

// Unwrap returns the underlying error.
func (e *CommandError) Unwrap() error {
	return e.Wrapped
}

// NewCommandError creates a CommandError with full context.
func NewCommandError(cmd string, exitCode int, component, kernelName string, wrapped error) *CommandError {
	return &CommandError{
		Command:   cmd,
		ExitCode:  exitCode,
		Component: component,
		Kernel:    kernelName,
		Wrapped:   wrapped,
	}
}

// WrapCommandError classifies err as a fatal error of cmd.
//
// # Description
//
// An existing *CommandError is returned as-is. Discovery and fixture
// errors are tagged with their component, and the kernel name when the
// error carries one. Anything else is attributed to fallback.
func WrapCommandError(err error, cmd, fallback string) *CommandError {
	if err == nil {
		return nil
	}

	var cmdErr *CommandError
	if errors.As(err, &cmdErr) {
		return cmdErr
	}

	var discoveryErr *kernel.DiscoveryError
	if errors.As(err, &discoveryErr) {
		return NewCommandError(cmd, CLIExitError, "discovery", discoveryErr.Name, err)
	}
	var fixtureErr *fixture.FixtureError
	if errors.As(err, &fixtureErr) {
		return NewCommandError(cmd, CLIExitError, "fixture", "", err)
	}
	var setupErr *kernel.SetupError
	if errors.As(err, &setupErr) {
		return NewCommandError(cmd, CLIExitFindings, "setup", setupErr.Kernel, err)
	}
	var processErr *kernel.ProcessError
	if errors.As(err, &processErr) {
		return NewCommandError(cmd, CLIExitFindings, "process", processErr.Kernel, err)
	}
	return NewCommandError(cmd, CLIExitError, fallback, "", err)
}
