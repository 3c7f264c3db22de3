// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package benchmark

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/fieldbench/pkg/grid"
	"github.com/AleutianAI/fieldbench/services/fieldbench/fixture"
	"github.com/AleutianAI/fieldbench/services/fieldbench/kernel"
)

// fakeClock is a manually advanced clock.
type fakeClock struct {
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

// fakeKernel counts its lifecycle calls and can be told to fail.
type fakeKernel struct {
	name     string
	clock    *fakeClock
	cost     time.Duration
	setupErr error
	failAt   int
	failErr  error
	panicAt  int
	scribble bool
	wrongOut bool

	setups int
	calls  int
}

func newFakeKernel(name string) *fakeKernel {
	return &fakeKernel{name: name, failAt: -1, panicAt: -1}
}

func (f *fakeKernel) Name() string { return f.name }

func (f *fakeKernel) Setup(ns *kernel.Namespace) error {
	f.setups++
	if f.setupErr != nil {
		return f.setupErr
	}
	ns.Bind("calls", new(int))
	return nil
}

func (f *fakeKernel) Process(ns *kernel.Namespace, in *grid.Field, out *grid.Raster) (*grid.Raster, error) {
	call := f.calls
	f.calls++
	if f.clock != nil {
		f.clock.Advance(f.cost)
	}
	if call == f.panicAt {
		panic("boom")
	}
	if call == f.failAt {
		return nil, f.failErr
	}
	if f.scribble {
		in.Set(0, 0, 42)
		out.Pix[0] = 255
	}
	if f.wrongOut {
		return grid.NewRaster(1, 1), nil
	}
	return out, nil
}

func testFixture(t *testing.T) *fixture.Fixture {
	t.Helper()
	src, err := fixture.NewStaticSource([][]float64{
		{-1, 0.2, 0.4, 0.6},
		{0.8, 0.6, 1.0, -0.5},
		{0.1, 0.0, 0.5, 0.9},
	})
	require.NoError(t, err)
	fx, err := fixture.NewBuilder(src).Build(3, 4)
	require.NoError(t, err)
	return fx
}

func testRegistry(t *testing.T, kernels ...kernel.Kernel) *kernel.Registry {
	t.Helper()
	reg := kernel.NewRegistry()
	for _, k := range kernels {
		require.NoError(t, reg.Register(k))
	}
	return reg
}

var errBroken = errors.New("broken kernel")
