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
	"fmt"
	"sort"

	"github.com/AleutianAI/fieldbench/pkg/grid"
)

// Namespace is the isolated set of bindings one kernel's trials run against.
//
// Description:
//
//	A Namespace owns independent copies of the shared fixture plus the grid
//	dimensions and whatever the kernel's Setup binds. It is built fresh for
//	each kernel, so no kernel can observe another kernel's bindings or
//	buffer writes.
//
// Thread Safety: Not safe for concurrent mutation. Bindings are expected to
// be written during Setup and only read afterwards.
type Namespace struct {
	// Input is this namespace's private copy of the input field.
	Input *grid.Field

	// Output is this namespace's private copy of the output template.
	Output *grid.Raster

	// Rows and Cols are the grid dimensions.
	Rows int
	Cols int

	bindings map[string]any
}

// NewNamespace builds a namespace from deep copies of in and out.
//
// Inputs:
//   - in: The shared input field. Not retained.
//   - out: The shared output template. Not retained.
//
// Outputs:
//   - *Namespace: A namespace with no bindings.
func NewNamespace(in *grid.Field, out *grid.Raster) *Namespace {
	rows, cols := in.Dims()
	return &Namespace{
		Input:    in.Clone(),
		Output:   out.Clone(),
		Rows:     rows,
		Cols:     cols,
		bindings: make(map[string]any),
	}
}

// Bind stores value under name, replacing any previous binding.
func (ns *Namespace) Bind(name string, value any) {
	ns.bindings[name] = value
}

// Value returns the raw binding for name.
func (ns *Namespace) Value(name string) (any, bool) {
	v, ok := ns.bindings[name]
	return v, ok
}

// Names returns the bound names in sorted order.
func (ns *Namespace) Names() []string {
	names := make([]string, 0, len(ns.bindings))
	for name := range ns.bindings {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Lookup returns the binding for name as a T.
//
// Outputs:
//   - T: The bound value.
//   - error: ErrUnbound if name is missing or holds a different type.
//
// Example:
//
//	scratch, err := kernel.Lookup[[]uint64](ns, "scratch")
//	if err != nil {
//	    return nil, err
//	}
func Lookup[T any](ns *Namespace, name string) (T, error) {
	var zero T
	raw, ok := ns.bindings[name]
	if !ok {
		return zero, fmt.Errorf("%w: %q", ErrUnbound, name)
	}
	v, ok := raw.(T)
	if !ok {
		return zero, fmt.Errorf("%w: %q holds %T, want %T", ErrUnbound, name, raw, zero)
	}
	return v, nil
}
