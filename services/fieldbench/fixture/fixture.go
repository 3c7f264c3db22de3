// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package fixture builds the shared input field and output template that
// every kernel in a run is measured against.
package fixture

import (
	"errors"
	"fmt"

	"github.com/AleutianAI/fieldbench/pkg/grid"
)

var (
	// ErrInvalidDimensions indicates non-positive rows or cols.
	ErrInvalidDimensions = errors.New("invalid fixture dimensions")

	// ErrNoiseFailed indicates the noise source returned an error.
	ErrNoiseFailed = errors.New("noise generation failed")

	// ErrShapeMismatch indicates the noise source returned a nil field or
	// one of the wrong shape.
	ErrShapeMismatch = errors.New("noise field shape mismatch")
)

// FixtureError reports a failure to build the benchmark fixture. It is
// always fatal: no kernel can be measured without valid input.
type FixtureError struct {
	Rows int
	Cols int
	Err  error
}

func (e *FixtureError) Error() string {
	return fmt.Sprintf("build %dx%d fixture: %v", e.Rows, e.Cols, e.Err)
}

func (e *FixtureError) Unwrap() error { return e.Err }

// Fixture is the shared data of a benchmark run. Consumers must copy it
// before handing it to a kernel (see kernel.NewNamespace).
type Fixture struct {
	// Input is the noise field.
	Input *grid.Field

	// Output is a zeroed rows x cols x 3 template.
	Output *grid.Raster
}

// Dims returns the fixture's grid dimensions.
func (f *Fixture) Dims() (rows, cols int) {
	return f.Input.Dims()
}

// Builder produces fixtures from a noise source.
type Builder struct {
	noise NoiseSource
}

// NewBuilder creates a Builder that draws fields from noise.
func NewBuilder(noise NoiseSource) *Builder {
	return &Builder{noise: noise}
}

// Build generates the input field and a zeroed output template.
//
// Description:
//
//	The field comes from the noise source and is checked against the
//	requested shape. The output template is freshly allocated.
//
// Inputs:
//   - rows, cols: Grid dimensions. Must be positive.
//
// Outputs:
//   - *Fixture: Input field and output template.
//   - error: *FixtureError wrapping ErrInvalidDimensions, ErrNoiseFailed
//     or ErrShapeMismatch.
func (b *Builder) Build(rows, cols int) (*Fixture, error) {
	if rows <= 0 || cols <= 0 {
		return nil, &FixtureError{Rows: rows, Cols: cols, Err: ErrInvalidDimensions}
	}

	input, err := b.noise.Generate(rows, cols)
	if err != nil {
		return nil, &FixtureError{Rows: rows, Cols: cols, Err: fmt.Errorf("%w: %w", ErrNoiseFailed, err)}
	}
	if input == nil {
		return nil, &FixtureError{Rows: rows, Cols: cols, Err: fmt.Errorf("%w: nil field", ErrShapeMismatch)}
	}
	if r, c := input.Dims(); r != rows || c != cols {
		return nil, &FixtureError{Rows: rows, Cols: cols, Err: fmt.Errorf("%w: got %dx%d", ErrShapeMismatch, r, c)}
	}

	return &Fixture{Input: input, Output: grid.NewRaster(rows, cols)}, nil
}
