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
	"math"

	"github.com/AleutianAI/fieldbench/pkg/grid"
	"github.com/AleutianAI/fieldbench/services/fieldbench/kernel"
)

// heaviside multiplies each value by the unit step H(v), with H(0) = 0,
// and returns a freshly allocated raster on every call.

func init() {
	register(kernel.NoSetup, heavisideProcess, nil)
}

func heaviside(v float64) float64 {
	if v > 0 {
		return 1
	}
	return 0
}

func heavisideProcess(ns *kernel.Namespace, in *grid.Field, _ *grid.Raster) (*grid.Raster, error) {
	result := grid.NewRaster(ns.Rows, ns.Cols)
	for i, v := range in.Raw() {
		if h := heaviside(v); h > 0 {
			result.Pix[i*grid.Channels] = uint8(math.Min(v, 1) * 255 * h)
		}
	}
	return result, nil
}
