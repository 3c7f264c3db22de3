// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package kernels

import (
	"github.com/AleutianAI/fieldbench/pkg/grid"
	"github.com/AleutianAI/fieldbench/services/fieldbench/kernel"
)

// nested_loop is the reference kernel: one cell at a time through the
// Field and Raster accessors, writing in place.

func init() {
	register(kernel.NoSetup, nestedLoopProcess, standalone(kernel.NoSetup, nestedLoopProcess))
}

func nestedLoopProcess(ns *kernel.Namespace, in *grid.Field, out *grid.Raster) (*grid.Raster, error) {
	for r := 0; r < ns.Rows; r++ {
		for c := 0; c < ns.Cols; c++ {
			v := in.At(r, c)
			switch {
			case v >= 1:
				out.Set(r, c, grid.Pixel{255, 0, 0})
			case v > 0:
				out.Set(r, c, grid.Pixel{uint8(v * 255), 0, 0})
			default:
				out.Set(r, c, grid.Pixel{})
			}
		}
	}
	return out, nil
}
