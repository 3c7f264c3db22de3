// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package kernel defines the capability contract shared by every
// benchmarked transform, the per-kernel timing namespace, and the
// registry that discovers kernels from their definitions.
//
// A kernel maps an input grid.Field to a grid.Raster using the rule
//
//	out[r, c] = (uint8(255*v), 0, 0) if v > 0, else (0, 0, 0)
//
// Kernels are plain values. All per-run state lives in the Namespace
// that the caller builds for them.
package kernel

import (
	"github.com/AleutianAI/fieldbench/pkg/grid"
)

// Kernel is one interchangeable transform implementation under benchmark.
//
// Description:
//
//	Setup runs once per namespace, outside any timed region, and binds
//	whatever auxiliary state Process needs (scratch buffers, lookup tables).
//	Process is the measured call. It may write into out and return it, or
//	return a freshly allocated raster. Either way the returned raster must
//	have out's shape.
//
// Thread Safety: Implementations must be immutable after construction.
// Namespaces are never shared, so Process needs no locking.
type Kernel interface {
	// Name returns the unique identifier derived from the kernel's source.
	Name() string

	// Setup establishes namespace bindings used by Process.
	Setup(ns *Namespace) error

	// Process transforms in into a raster shaped like out.
	Process(ns *Namespace, in *grid.Field, out *grid.Raster) (*grid.Raster, error)
}

// Runner is implemented by kernels that can be invoked standalone,
// outside the harness, without a caller-built namespace.
type Runner interface {
	Run(in *grid.Field, out *grid.Raster) (*grid.Raster, error)
}

// SetupFunc binds auxiliary state into a namespace.
type SetupFunc func(ns *Namespace) error

// ProcessFunc is the measured transform.
type ProcessFunc func(ns *Namespace, in *grid.Field, out *grid.Raster) (*grid.Raster, error)

// RunFunc is an optional standalone entry point.
type RunFunc func(in *grid.Field, out *grid.Raster) (*grid.Raster, error)

// Source is one kernel definition as compiled into the binary.
//
// Origin is the path of the file that defines the kernel. The kernel's
// name is derived from it (see NameFromOrigin).
type Source struct {
	Origin  string
	Setup   SetupFunc
	Process ProcessFunc
	Run     RunFunc
}

// NoSetup is a SetupFunc for kernels that need no extra bindings.
func NoSetup(*Namespace) error { return nil }

// definition adapts a validated Source to the Kernel interface.
type definition struct {
	name    string
	setup   SetupFunc
	process ProcessFunc
}

func (d *definition) Name() string { return d.name }

func (d *definition) Setup(ns *Namespace) error { return d.setup(ns) }

func (d *definition) Process(ns *Namespace, in *grid.Field, out *grid.Raster) (*grid.Raster, error) {
	return d.process(ns, in, out)
}

// runnableDefinition is a definition that also carries a standalone entry.
type runnableDefinition struct {
	definition
	run RunFunc
}

func (d *runnableDefinition) Run(in *grid.Field, out *grid.Raster) (*grid.Raster, error) {
	return d.run(in, out)
}

var (
	_ Kernel = (*definition)(nil)
	_ Runner = (*runnableDefinition)(nil)
)
