// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package kernel

import (
	"errors"
	"fmt"
)

// -----------------------------------------------------------------------------
// Sentinel Errors
// -----------------------------------------------------------------------------

var (
	// ErrNotFound indicates no kernel is registered under the name.
	ErrNotFound = errors.New("kernel not found")

	// ErrAlreadyRegistered indicates a name collision.
	ErrAlreadyRegistered = errors.New("kernel already registered")

	// ErrNilKernel indicates a nil kernel was passed to the registry.
	ErrNilKernel = errors.New("kernel is nil")

	// ErrInvalidName indicates a definition whose origin yields no usable name.
	ErrInvalidName = errors.New("invalid kernel name")

	// ErrMissingSetup indicates a definition without a setup function.
	ErrMissingSetup = errors.New("kernel definition missing setup")

	// ErrMissingProcess indicates a definition without a process function.
	ErrMissingProcess = errors.New("kernel definition missing process")

	// ErrUnbound indicates Process needed a binding that Setup never made.
	ErrUnbound = errors.New("namespace binding not established")

	// ErrKernelPanic indicates the kernel panicked.
	ErrKernelPanic = errors.New("kernel panicked")

	// ErrShapeMismatch indicates Process returned nil or a wrongly shaped raster.
	ErrShapeMismatch = errors.New("kernel output shape mismatch")
)

// Stage identifies which part of a kernel's lifecycle failed.
type Stage string

const (
	StageSetup   Stage = "setup"
	StageProcess Stage = "process"
)

// Phase identifies when during measurement a Process failure happened.
type Phase string

const (
	PhaseWarmup   Phase = "warmup"
	PhaseTrial    Phase = "trial"
	PhaseValidate Phase = "validate"
	PhaseRun      Phase = "run"
)

// -----------------------------------------------------------------------------
// Typed Errors
// -----------------------------------------------------------------------------

// DiscoveryError reports a kernel definition that could not be loaded.
//
// Any DiscoveryError aborts the whole benchmark run.
type DiscoveryError struct {
	// Origin is the defining source path.
	Origin string

	// Name is the derived kernel name, if one could be derived.
	Name string

	// Err is the underlying cause.
	Err error
}

func (e *DiscoveryError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("discover kernel %q (%s): %v", e.Name, e.Origin, e.Err)
	}
	return fmt.Sprintf("discover kernel from %q: %v", e.Origin, e.Err)
}

func (e *DiscoveryError) Unwrap() error { return e.Err }

// SetupError reports a kernel whose Setup failed or left a required
// binding unestablished.
type SetupError struct {
	Kernel string
	Err    error
}

func (e *SetupError) Error() string {
	return fmt.Sprintf("kernel %q setup: %v", e.Kernel, e.Err)
}

func (e *SetupError) Unwrap() error { return e.Err }

// ProcessError reports a kernel whose Process failed.
type ProcessError struct {
	Kernel string
	Phase  Phase

	// Trial is the zero-based invocation index within Phase, or -1 when
	// not applicable.
	Trial int

	Err error
}

func (e *ProcessError) Error() string {
	if e.Trial >= 0 {
		return fmt.Sprintf("kernel %q process (%s %d): %v", e.Kernel, e.Phase, e.Trial, e.Err)
	}
	return fmt.Sprintf("kernel %q process (%s): %v", e.Kernel, e.Phase, e.Err)
}

func (e *ProcessError) Unwrap() error { return e.Err }

// StageOf classifies a per-kernel failure. It returns "" for errors that
// are neither SetupError nor ProcessError.
func StageOf(err error) Stage {
	var setupErr *SetupError
	if errors.As(err, &setupErr) {
		return StageSetup
	}
	var processErr *ProcessError
	if errors.As(err, &processErr) {
		return StageProcess
	}
	return ""
}
