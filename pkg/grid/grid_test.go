// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package grid

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// Field Tests
// =============================================================================

func TestNewField(t *testing.T) {
	t.Run("zeros when data is nil", func(t *testing.T) {
		f, err := NewField(2, 3, nil)
		require.NoError(t, err)
		rows, cols := f.Dims()
		assert.Equal(t, 2, rows)
		assert.Equal(t, 3, cols)
		assert.Equal(t, make([]float64, 6), f.Raw())
	})

	t.Run("rejects bad shapes", func(t *testing.T) {
		cases := []struct {
			rows, cols int
			data       []float64
		}{
			{0, 3, nil},
			{3, -1, nil},
			{2, 2, []float64{1, 2, 3}},
		}
		for _, c := range cases {
			_, err := NewField(c.rows, c.cols, c.data)
			if !errors.Is(err, ErrInvalidShape) {
				t.Errorf("NewField(%d, %d, len=%d) error = %v, want ErrInvalidShape", c.rows, c.cols, len(c.data), err)
			}
		}
	})
}

func TestFieldFromRows(t *testing.T) {
	f, err := FieldFromRows([][]float64{{1, 2}, {3, 4}, {5, 6}})
	require.NoError(t, err)

	assert.Equal(t, 4.0, f.At(1, 1))
	assert.Equal(t, []float64{5, 6}, f.Row(2))

	_, err = FieldFromRows([][]float64{{1, 2}, {3}})
	assert.ErrorIs(t, err, ErrInvalidShape)

	_, err = FieldFromRows(nil)
	assert.ErrorIs(t, err, ErrInvalidShape)
}

func TestField_CloneIsIndependent(t *testing.T) {
	f, err := FieldFromRows([][]float64{{0.1, -0.2}, {0.3, 0.4}})
	require.NoError(t, err)

	c := f.Clone()
	require.True(t, f.Equal(c))

	c.Set(0, 0, 0.9)
	c.Raw()[3] = -1

	assert.Equal(t, 0.1, f.At(0, 0))
	assert.Equal(t, 0.4, f.At(1, 1))
	assert.False(t, f.Equal(c))

	rows, cols := c.Dims()
	assert.Len(t, c.Raw(), rows*cols, "clone must keep a contiguous stride")
}

// =============================================================================
// Raster Tests
// =============================================================================

func TestNewRaster_Zeroed(t *testing.T) {
	r := NewRaster(4, 5)
	assert.Len(t, r.Pix, 4*5*Channels)
	for _, v := range r.Pix {
		if v != 0 {
			t.Fatal("new raster must be zeroed")
		}
	}
}

func TestRaster_AtSetOffset(t *testing.T) {
	r := NewRaster(3, 4)
	r.Set(2, 1, Pixel{153, 0, 7})

	assert.Equal(t, Pixel{153, 0, 7}, r.At(2, 1))
	assert.Equal(t, (2*4+1)*Channels, r.Offset(2, 1))
	assert.Equal(t, uint8(153), r.Pix[r.Offset(2, 1)])
}

func TestRaster_CloneEqualMismatch(t *testing.T) {
	a := NewRaster(2, 2)
	a.Set(0, 1, Pixel{10, 0, 0})
	b := a.Clone()

	require.True(t, a.Equal(b))
	_, _, ok := a.FirstMismatch(b)
	assert.False(t, ok)
	assert.Equal(t, a.Checksum(), b.Checksum())

	b.Set(1, 0, Pixel{0, 0, 1})
	assert.False(t, a.Equal(b))
	row, col, ok := a.FirstMismatch(b)
	require.True(t, ok)
	assert.Equal(t, 1, row)
	assert.Equal(t, 0, col)
	assert.NotEqual(t, a.Checksum(), b.Checksum())
	assert.Equal(t, Pixel{10, 0, 0}, a.At(0, 1), "mutating the clone must not touch the original")
}

func TestRaster_SameShape(t *testing.T) {
	assert.True(t, NewRaster(2, 3).SameShape(NewRaster(2, 3)))
	assert.False(t, NewRaster(2, 3).SameShape(NewRaster(3, 2)))
	assert.False(t, NewRaster(2, 3).SameShape(nil))
	assert.False(t, NewRaster(2, 3).SameShape(&Raster{Rows: 2, Cols: 3, Pix: make([]uint8, 5)}))
}

func TestRaster_Zero(t *testing.T) {
	r := NewRaster(1, 2)
	r.Set(0, 0, Pixel{1, 2, 3})
	r.Zero()
	assert.True(t, r.Equal(NewRaster(1, 2)))
}
