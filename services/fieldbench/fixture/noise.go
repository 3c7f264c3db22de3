// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package fixture

import (
	"errors"
	"fmt"
	"math"

	"github.com/aquilax/go-perlin"

	"github.com/AleutianAI/fieldbench/pkg/grid"
)

// NoiseSource produces the input field for a benchmark run.
//
// Implementations must be deterministic: the same configuration and the
// same (rows, cols) always yield bit-identical fields.
type NoiseSource interface {
	Generate(rows, cols int) (*grid.Field, error)
}

// SourceFunc adapts a function to NoiseSource.
type SourceFunc func(rows, cols int) (*grid.Field, error)

// Generate calls f.
func (f SourceFunc) Generate(rows, cols int) (*grid.Field, error) {
	return f(rows, cols)
}

// -----------------------------------------------------------------------------
// Perlin
// -----------------------------------------------------------------------------

// ErrInvalidNoiseConfig indicates an unusable PerlinConfig.
var ErrInvalidNoiseConfig = errors.New("invalid noise configuration")

// PerlinConfig configures fractal Perlin noise.
type PerlinConfig struct {
	// Seed fixes the permutation table. Default: 1337.
	Seed int64

	// Octaves is the number of fractal layers summed. Default: 25.
	Octaves int32

	// Alpha is the per-octave amplitude divisor. Default: 2.
	Alpha float64

	// Beta is the per-octave frequency multiplier. Default: 2.
	Beta float64

	// Frequency scales grid coordinates before sampling. Lattice points of
	// classic Perlin noise are always zero, so this must not be an integer
	// step. Default: 0.01.
	Frequency float64
}

// DefaultPerlinConfig returns the benchmark's standard noise settings.
func DefaultPerlinConfig() PerlinConfig {
	return PerlinConfig{
		Seed:      1337,
		Octaves:   25,
		Alpha:     2,
		Beta:      2,
		Frequency: 0.01,
	}
}

// Validate checks the configuration.
func (c PerlinConfig) Validate() error {
	switch {
	case c.Octaves <= 0:
		return fmt.Errorf("%w: octaves must be positive, got %d", ErrInvalidNoiseConfig, c.Octaves)
	case c.Alpha <= 0:
		return fmt.Errorf("%w: alpha must be positive, got %g", ErrInvalidNoiseConfig, c.Alpha)
	case c.Beta <= 0:
		return fmt.Errorf("%w: beta must be positive, got %g", ErrInvalidNoiseConfig, c.Beta)
	case !(c.Frequency > 0) || math.IsInf(c.Frequency, 0):
		return fmt.Errorf("%w: frequency must be positive and finite, got %g", ErrInvalidNoiseConfig, c.Frequency)
	}
	return nil
}

// PerlinSource generates fractal Perlin noise clamped to [-1, 1].
//
// Thread Safety: Safe for concurrent use; the generator is read-only after
// construction.
type PerlinSource struct {
	cfg   PerlinConfig
	noise *perlin.Perlin
}

// NewPerlinSource validates cfg and builds the generator.
//
// Example:
//
//	src, err := fixture.NewPerlinSource(fixture.DefaultPerlinConfig())
func NewPerlinSource(cfg PerlinConfig) (*PerlinSource, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &PerlinSource{
		cfg:   cfg,
		noise: perlin.NewPerlin(cfg.Alpha, cfg.Beta, cfg.Octaves, cfg.Seed),
	}, nil
}

// Config returns the source's configuration.
func (p *PerlinSource) Config() PerlinConfig {
	return p.cfg
}

// Generate samples noise at (col*Frequency, row*Frequency) for every cell.
func (p *PerlinSource) Generate(rows, cols int) (*grid.Field, error) {
	if rows <= 0 || cols <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", grid.ErrInvalidShape, rows, cols)
	}
	data := make([]float64, rows*cols)
	freq := p.cfg.Frequency
	for r := 0; r < rows; r++ {
		y := float64(r) * freq
		row := data[r*cols : (r+1)*cols]
		for c := range row {
			row[c] = clamp(p.noise.Noise2D(float64(c)*freq, y))
		}
	}
	return grid.NewField(rows, cols, data)
}

func clamp(v float64) float64 {
	return math.Max(-1, math.Min(1, v))
}

// -----------------------------------------------------------------------------
// Static
// -----------------------------------------------------------------------------

// StaticSource returns copies of a fixed field regardless of the requested
// shape. Build rejects the result when the shapes disagree.
type StaticSource struct {
	field *grid.Field
}

// NewStaticSource builds a source from rectangular rows of values.
func NewStaticSource(values [][]float64) (*StaticSource, error) {
	f, err := grid.FieldFromRows(values)
	if err != nil {
		return nil, err
	}
	return &StaticSource{field: f}, nil
}

// Generate returns a copy of the fixed field.
func (s *StaticSource) Generate(int, int) (*grid.Field, error) {
	return s.field.Clone(), nil
}
