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

	"github.com/AleutianAI/fieldbench/pkg/grid"
)

// Run invokes a kernel once, standalone.
//
// Description:
//
//	Kernels implementing Runner use their own entry point. Others get a
//	fresh namespace, one Setup, and one Process call. Panics are recovered.
//	The caller's in and out are never mutated.
//
// Outputs:
//   - *grid.Raster: The kernel's output.
//   - error: *SetupError or *ProcessError.
func Run(k Kernel, in *grid.Field, out *grid.Raster) (result *grid.Raster, err error) {
	if r, ok := k.(Runner); ok {
		defer Recover(k.Name(), PhaseRun, -1, &err)
		result, err = r.Run(in.Clone(), out.Clone())
		if err != nil {
			return nil, Classify(k.Name(), PhaseRun, -1, err)
		}
		return result, nil
	}

	ns := NewNamespace(in, out)
	if err := Prepare(k, ns); err != nil {
		return nil, err
	}

	defer Recover(k.Name(), PhaseRun, -1, &err)
	result, err = k.Process(ns, ns.Input, ns.Output)
	if err != nil {
		return nil, Classify(k.Name(), PhaseRun, -1, err)
	}
	return result, nil
}

// Prepare runs k.Setup against ns, converting errors and panics into
// *SetupError.
func Prepare(k Kernel, ns *Namespace) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &SetupError{Kernel: k.Name(), Err: fmt.Errorf("%w: %v", ErrKernelPanic, r)}
		}
	}()
	if err := k.Setup(ns); err != nil {
		return &SetupError{Kernel: k.Name(), Err: err}
	}
	return nil
}

// Classify wraps a Process error. Missing bindings are a setup failure,
// anything else is a *ProcessError.
func Classify(name string, phase Phase, trial int, err error) error {
	var setupErr *SetupError
	var processErr *ProcessError
	switch {
	case errors.As(err, &setupErr), errors.As(err, &processErr):
		return err
	case errors.Is(err, ErrUnbound):
		return &SetupError{Kernel: name, Err: err}
	default:
		return &ProcessError{Kernel: name, Phase: phase, Trial: trial, Err: err}
	}
}

// Recover converts a panic in the enclosing function into a *ProcessError
// stored in *errp. It must be deferred directly.
func Recover(name string, phase Phase, trial int, errp *error) {
	if r := recover(); r != nil {
		*errp = &ProcessError{
			Kernel: name,
			Phase:  phase,
			Trial:  trial,
			Err:    fmt.Errorf("%w: %v", ErrKernelPanic, r),
		}
	}
}
