// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/AleutianAI/fieldbench/pkg/logging"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, 2560, cfg.Grid.Rows)
	assert.Equal(t, 1440, cfg.Grid.Cols)
	assert.Equal(t, 1000, cfg.Benchmark.Trials)
	assert.Equal(t, 1, cfg.Benchmark.Warmup)
	assert.Equal(t, int64(1337), cfg.Noise.Seed)
	assert.Equal(t, int32(25), cfg.Noise.Octaves)
	assert.False(t, cfg.Debug.Enabled)
	assert.Equal(t, "logs", cfg.Debug.ProfileDir)
	assert.NoError(t, Validate(&cfg))
}

func TestLoad_NoFileUsesDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv(EnvDebug, "")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoad_WorkingDirectoryFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv(EnvDebug, "")
	require.NoError(t, os.WriteFile(filepath.Join(dir, DefaultFile), []byte("grid:\n  rows: 64\n  cols: 32\n"), 0644))

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 64, cfg.Grid.Rows)
	assert.Equal(t, 32, cfg.Grid.Cols)
	assert.Equal(t, 1000, cfg.Benchmark.Trials, "unset fields keep their defaults")
}

func TestLoad_ExplicitPathMissing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"zero trials", "benchmark:\n  trials: 0\n"},
		{"negative warmup", "benchmark:\n  warmup: -1\n"},
		{"zero rows", "grid:\n  rows: 0\n"},
		{"bad level", "logging:\n  level: loud\n"},
		{"zero octaves", "noise:\n  octaves: 0\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "cfg.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.yaml), 0644))

			_, err := Load(path)
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestLoad_MalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg.yaml")
	require.NoError(t, os.WriteFile(path, []byte("grid: [unterminated"), 0644))

	_, err := Load(path)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidConfig)
}

func TestLoad_DebugFromEnv(t *testing.T) {
	t.Chdir(t.TempDir())

	t.Setenv(EnvDebug, "true")
	cfg, err := Load("")
	require.NoError(t, err)
	assert.True(t, cfg.Debug.Enabled)

	t.Setenv(EnvDebug, "maybe")
	_, err = Load("")
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestWriteDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", DefaultFile)

	require.NoError(t, WriteDefault(path, false))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var cfg FieldbenchConfig
	require.NoError(t, yaml.Unmarshal(data, &cfg))
	assert.Equal(t, DefaultConfig(), cfg)

	assert.ErrorIs(t, WriteDefault(path, false), ErrConfigExists)
	assert.NoError(t, WriteDefault(path, true))
}

func TestConversions(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Benchmark.Trials = 7
	cfg.Noise.Seed = 42
	cfg.Debug.Invocations = 3

	assert.Equal(t, 7, cfg.BenchmarkSettings().Trials)
	assert.NoError(t, cfg.BenchmarkSettings().Validate())
	assert.Equal(t, int64(42), cfg.PerlinSettings().Seed)
	assert.NoError(t, cfg.PerlinSettings().Validate())
	assert.Equal(t, 3, cfg.ProfileSettings().Invocations)

	cfg.Debug.Invocations = 0
	assert.Equal(t, 7, cfg.ProfileSettings().Invocations, "unset invocations follow trials")
	assert.NoError(t, cfg.ProfileSettings().Validate())
}

func TestLoggerSettings(t *testing.T) {
	cfg := DefaultConfig()
	lc, err := cfg.LoggerSettings()
	require.NoError(t, err)
	assert.Equal(t, logging.LevelInfo, lc.Level)

	cfg.Debug.Enabled = true
	lc, err = cfg.LoggerSettings()
	require.NoError(t, err)
	assert.Equal(t, logging.LevelDebug, lc.Level)
}
