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

// list_comprehension builds every row as a slice of pixels by appending,
// then flattens the rows into a new raster.

func init() {
	register(kernel.NoSetup, listComprehensionProcess, nil)
}

func listComprehensionProcess(ns *kernel.Namespace, in *grid.Field, _ *grid.Raster) (*grid.Raster, error) {
	rows := make([][]grid.Pixel, 0, ns.Rows)
	for r := 0; r < ns.Rows; r++ {
		var row []grid.Pixel
		for _, v := range in.Row(r) {
			row = append(row, toPixel(v))
		}
		rows = append(rows, row)
	}

	result := grid.NewRaster(ns.Rows, ns.Cols)
	for r, row := range rows {
		for c, px := range row {
			result.Set(r, c, px)
		}
	}
	return result, nil
}

func toPixel(v float64) grid.Pixel {
	if !(v > 0) {
		return grid.Pixel{}
	}
	if v >= 1 {
		return grid.Pixel{255, 0, 0}
	}
	return grid.Pixel{uint8(v * 255), 0, 0}
}
