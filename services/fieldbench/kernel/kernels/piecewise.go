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

// piecewise evaluates an ordered list of (condition, function) pieces and
// applies the first whose condition holds.

const piecewiseTable = "pieces"

type piece struct {
	when  func(v float64) bool
	apply func(v float64) uint8
}

func init() {
	register(piecewiseSetup, piecewiseProcess, nil)
}

func piecewiseSetup(ns *kernel.Namespace) error {
	ns.Bind(piecewiseTable, []piece{
		{when: func(v float64) bool { return !(v > 0) }, apply: func(float64) uint8 { return 0 }},
		{when: func(v float64) bool { return v >= 1 }, apply: func(float64) uint8 { return 255 }},
		{when: func(float64) bool { return true }, apply: func(v float64) uint8 { return uint8(v * 255) }},
	})
	return nil
}

func piecewiseProcess(ns *kernel.Namespace, in *grid.Field, out *grid.Raster) (*grid.Raster, error) {
	pieces, err := kernel.Lookup[[]piece](ns, piecewiseTable)
	if err != nil {
		return nil, err
	}

	pix := out.Pix
	for i, v := range in.Raw() {
		j := i * grid.Channels
		for _, p := range pieces {
			if p.when(v) {
				pix[j] = p.apply(v)
				break
			}
		}
		pix[j+1], pix[j+2] = 0, 0
	}
	return out, nil
}
