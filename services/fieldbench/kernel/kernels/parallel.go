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
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/AleutianAI/fieldbench/pkg/grid"
	"github.com/AleutianAI/fieldbench/services/fieldbench/kernel"
)

// parallel splits the rows into contiguous bands and maps each band on its
// own goroutine. Bands are disjoint, so writes into out never overlap.

func init() {
	register(kernel.NoSetup, parallelProcess, nil)
}

func parallelProcess(ns *kernel.Namespace, in *grid.Field, out *grid.Raster) (*grid.Raster, error) {
	workers := max(1, min(runtime.NumCPU(), ns.Rows))
	band := (ns.Rows + workers - 1) / workers

	var g errgroup.Group
	g.SetLimit(workers)
	for start := 0; start < ns.Rows; start += band {
		end := min(start+band, ns.Rows)
		g.Go(func() error {
			mapRows(in, out, start, end)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// mapRows transforms rows [start, end).
func mapRows(in *grid.Field, out *grid.Raster, start, end int) {
	raw := in.Raw()
	cols := out.Cols
	for i := start * cols; i < end*cols; i++ {
		v := raw[i]
		j := i * grid.Channels
		switch {
		case !(v > 0):
			out.Pix[j] = 0
		case v >= 1:
			out.Pix[j] = 255
		default:
			out.Pix[j] = uint8(v * 255)
		}
		out.Pix[j+1], out.Pix[j+2] = 0, 0
	}
}
