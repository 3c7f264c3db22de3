// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package grid defines the two array types every benchmark kernel works on.
//
// A Field is the dense rows x cols float64 input, nominally in [-1, 1].
// A Raster is the rows x cols x 3 uint8 output.
package grid

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"
)

var (
	// ErrInvalidShape indicates non-positive dimensions or a data length
	// that does not match rows*cols.
	ErrInvalidShape = errors.New("invalid grid shape")
)

// Field is a dense 2D float64 grid backed by a gonum matrix.
//
// The backing storage is always contiguous row-major with stride equal to
// the column count, so Raw can be indexed as r*cols+c.
//
// # Thread Safety
//
// A Field is not safe for concurrent mutation. Concurrent reads are safe.
type Field struct {
	m *mat.Dense
}

// NewField creates a rows x cols field.
//
// # Inputs
//
//   - rows, cols: Dimensions. Must be positive.
//   - data: Row-major values of length rows*cols, or nil for zeros. The
//     slice is used directly, not copied.
//
// # Outputs
//
//   - *Field: The new field.
//   - error: ErrInvalidShape on bad dimensions or data length.
func NewField(rows, cols int, data []float64) (*Field, error) {
	if rows <= 0 || cols <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidShape, rows, cols)
	}
	if data != nil && len(data) != rows*cols {
		return nil, fmt.Errorf("%w: %d values for %dx%d", ErrInvalidShape, len(data), rows, cols)
	}
	return &Field{m: mat.NewDense(rows, cols, data)}, nil
}

// FieldFromRows builds a field from a rectangular slice of rows.
func FieldFromRows(values [][]float64) (*Field, error) {
	if len(values) == 0 || len(values[0]) == 0 {
		return nil, fmt.Errorf("%w: empty rows", ErrInvalidShape)
	}
	rows, cols := len(values), len(values[0])
	data := make([]float64, 0, rows*cols)
	for i, row := range values {
		if len(row) != cols {
			return nil, fmt.Errorf("%w: row %d has %d values, want %d", ErrInvalidShape, i, len(row), cols)
		}
		data = append(data, row...)
	}
	return NewField(rows, cols, data)
}

// Dims returns the number of rows and columns.
func (f *Field) Dims() (rows, cols int) {
	return f.m.Dims()
}

// At returns the value at (r, c).
func (f *Field) At(r, c int) float64 {
	return f.m.At(r, c)
}

// Set stores v at (r, c).
func (f *Field) Set(r, c int, v float64) {
	f.m.Set(r, c, v)
}

// Raw returns the row-major backing slice. Writes through it mutate the field.
func (f *Field) Raw() []float64 {
	return f.m.RawMatrix().Data
}

// Row returns the backing slice for row r.
func (f *Field) Row(r int) []float64 {
	_, cols := f.m.Dims()
	return f.Raw()[r*cols : (r+1)*cols]
}

// Matrix exposes the field as a read-only gonum matrix.
func (f *Field) Matrix() mat.Matrix {
	return f.m
}

// Clone returns an independent deep copy.
func (f *Field) Clone() *Field {
	return &Field{m: mat.DenseCopyOf(f.m)}
}

// Equal reports whether both fields have the same shape and bit-identical values.
func (f *Field) Equal(other *Field) bool {
	if f == nil || other == nil {
		return f == other
	}
	return mat.Equal(f.m, other.m)
}
