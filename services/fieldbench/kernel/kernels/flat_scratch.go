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

// flat_scratch computes levels into a flat uint64 scratch buffer allocated
// once by setup, then narrows them into channel 0 in a second pass.

const flatScratch = "scratch"

func init() {
	register(flatScratchSetup, flatScratchProcess, standalone(flatScratchSetup, flatScratchProcess))
}

func flatScratchSetup(ns *kernel.Namespace) error {
	ns.Bind(flatScratch, make([]uint64, ns.Rows*ns.Cols))
	return nil
}

func flatScratchProcess(ns *kernel.Namespace, in *grid.Field, out *grid.Raster) (*grid.Raster, error) {
	scratch, err := kernel.Lookup[[]uint64](ns, flatScratch)
	if err != nil {
		return nil, err
	}

	for i, v := range in.Raw() {
		switch {
		case !(v > 0):
			scratch[i] = 0
		case v >= 1:
			scratch[i] = 255
		default:
			scratch[i] = uint64(v * 255)
		}
	}

	pix := out.Pix
	for i, level := range scratch {
		j := i * grid.Channels
		pix[j], pix[j+1], pix[j+2] = uint8(level), 0, 0
	}
	return out, nil
}
