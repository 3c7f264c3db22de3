// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package kernels holds the compiled-in transform implementations.
//
// Each kernel lives in its own file and registers itself from init. The
// file name becomes the kernel name, so adding a kernel is a matter of
// adding a file:
//
//	func init() {
//	    register(mySetup, myProcess, nil)
//	}
//
// All kernels implement the same rule: channel 0 is trunc(255*v) for
// v > 0 (saturating at 255 for v >= 1), channels 1 and 2 are zero.
package kernels

import (
	"runtime"
	"sync"

	"github.com/AleutianAI/fieldbench/pkg/grid"
	"github.com/AleutianAI/fieldbench/services/fieldbench/kernel"
)

var (
	mu      sync.Mutex
	sources []kernel.Source
)

// register records the calling file as a kernel source.
func register(setup kernel.SetupFunc, process kernel.ProcessFunc, run kernel.RunFunc) {
	_, file, _, _ := runtime.Caller(1)

	mu.Lock()
	defer mu.Unlock()
	sources = append(sources, kernel.Source{
		Origin:  file,
		Setup:   setup,
		Process: process,
		Run:     run,
	})
}

// Sources returns a copy of every compiled-in kernel definition.
func Sources() []kernel.Source {
	mu.Lock()
	defer mu.Unlock()
	out := make([]kernel.Source, len(sources))
	copy(out, sources)
	return out
}

// standalone builds a RunFunc that performs setup and one process call
// against a private namespace.
func standalone(setup kernel.SetupFunc, process kernel.ProcessFunc) kernel.RunFunc {
	return func(in *grid.Field, out *grid.Raster) (*grid.Raster, error) {
		ns := kernel.NewNamespace(in, out)
		if err := setup(ns); err != nil {
			return nil, err
		}
		return process(ns, ns.Input, ns.Output)
	}
}
