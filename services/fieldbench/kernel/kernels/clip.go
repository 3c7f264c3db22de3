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
	"gonum.org/v1/gonum/floats"

	"github.com/AleutianAI/fieldbench/pkg/grid"
	"github.com/AleutianAI/fieldbench/services/fieldbench/kernel"
)

// clip scales the whole field by 255 in a scratch vector, then clamps
// each value into [0, 255].

const clipScratch = "scaled"

func init() {
	register(clipSetup, clipProcess, nil)
}

func clipSetup(ns *kernel.Namespace) error {
	ns.Bind(clipScratch, make([]float64, ns.Rows*ns.Cols))
	return nil
}

func clipProcess(ns *kernel.Namespace, in *grid.Field, out *grid.Raster) (*grid.Raster, error) {
	scaled, err := kernel.Lookup[[]float64](ns, clipScratch)
	if err != nil {
		return nil, err
	}

	copy(scaled, in.Raw())
	floats.Scale(255, scaled)

	pix := out.Pix
	for i, s := range scaled {
		var level uint8
		switch {
		case !(s > 0):
			// negative, zero and NaN all clip to 0
		case s >= 255:
			level = 255
		default:
			level = uint8(s)
		}
		j := i * grid.Channels
		pix[j], pix[j+1], pix[j+2] = level, 0, 0
	}
	return out, nil
}
