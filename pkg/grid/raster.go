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
	"bytes"
	"hash/fnv"
)

// Channels is the number of uint8 channels per raster cell.
const Channels = 3

// Pixel is one raster cell.
type Pixel [Channels]uint8

// Raster is a dense rows x cols x 3 uint8 array.
//
// Cell (r, c) occupies Pix[(r*Cols+c)*3 : (r*Cols+c)*3+3].
type Raster struct {
	Rows int
	Cols int
	Pix  []uint8
}

// NewRaster returns a zeroed rows x cols x 3 raster.
func NewRaster(rows, cols int) *Raster {
	return &Raster{
		Rows: rows,
		Cols: cols,
		Pix:  make([]uint8, rows*cols*Channels),
	}
}

// Offset returns the index of channel 0 of cell (r, c) in Pix.
func (r *Raster) Offset(row, col int) int {
	return (row*r.Cols + col) * Channels
}

// At returns cell (row, col).
func (r *Raster) At(row, col int) Pixel {
	i := r.Offset(row, col)
	return Pixel{r.Pix[i], r.Pix[i+1], r.Pix[i+2]}
}

// Set stores px at cell (row, col).
func (r *Raster) Set(row, col int, px Pixel) {
	i := r.Offset(row, col)
	copy(r.Pix[i:i+Channels], px[:])
}

// Clone returns an independent deep copy.
func (r *Raster) Clone() *Raster {
	pix := make([]uint8, len(r.Pix))
	copy(pix, r.Pix)
	return &Raster{Rows: r.Rows, Cols: r.Cols, Pix: pix}
}

// Zero clears every channel of every cell.
func (r *Raster) Zero() {
	clear(r.Pix)
}

// SameShape reports whether other has the same dimensions and a correctly
// sized backing slice.
func (r *Raster) SameShape(other *Raster) bool {
	if r == nil || other == nil {
		return false
	}
	return r.Rows == other.Rows && r.Cols == other.Cols &&
		len(r.Pix) == r.Rows*r.Cols*Channels && len(other.Pix) == len(r.Pix)
}

// Equal reports whether both rasters have the same shape and contents.
func (r *Raster) Equal(other *Raster) bool {
	return r.SameShape(other) && bytes.Equal(r.Pix, other.Pix)
}

// FirstMismatch returns the first cell, in row-major order, whose pixels
// differ. ok is false when the rasters are equal or differently shaped.
func (r *Raster) FirstMismatch(other *Raster) (row, col int, ok bool) {
	if !r.SameShape(other) {
		return 0, 0, false
	}
	for i := 0; i < len(r.Pix); i += Channels {
		if r.Pix[i] != other.Pix[i] || r.Pix[i+1] != other.Pix[i+1] || r.Pix[i+2] != other.Pix[i+2] {
			cell := i / Channels
			return cell / r.Cols, cell % r.Cols, true
		}
	}
	return 0, 0, false
}

// Checksum returns a 64-bit FNV-1a digest of the pixel data.
func (r *Raster) Checksum() uint64 {
	h := fnv.New64a()
	_, _ = h.Write(r.Pix)
	return h.Sum64()
}
