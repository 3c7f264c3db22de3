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

// where computes a positive mask first, then selects between the scaled
// value and zero per cell.

const whereMask = "mask"

func init() {
	register(whereSetup, whereProcess, nil)
}

func whereSetup(ns *kernel.Namespace) error {
	ns.Bind(whereMask, make([]bool, ns.Rows*ns.Cols))
	return nil
}

func whereProcess(ns *kernel.Namespace, in *grid.Field, out *grid.Raster) (*grid.Raster, error) {
	mask, err := kernel.Lookup[[]bool](ns, whereMask)
	if err != nil {
		return nil, err
	}

	raw := in.Raw()
	for i, v := range raw {
		mask[i] = v > 0
	}

	pix := out.Pix
	for i, v := range raw {
		var level uint8
		if mask[i] {
			level = 255
			if v < 1 {
				level = uint8(v * 255)
			}
		}
		j := i * grid.Channels
		pix[j], pix[j+1], pix[j+2] = level, 0, 0
	}
	return out, nil
}
