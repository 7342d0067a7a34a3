// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/AleutianLife/services/life/config"
	"github.com/AleutianAI/AleutianLife/services/life/engine"
	"github.com/AleutianAI/AleutianLife/services/life/grid"
)

// execute runs the CLI with a fresh app in an isolated home directory.
func execute(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	t.Setenv("OTEL_TRACES_EXPORTER", "")
	t.Setenv("OTEL_METRICS_EXPORTER", "")
	for _, key := range []string{"HASHLIFE_RULE", "HASHLIFE_LOG_LEVEL", "HASHLIFE_LOG_FORMAT", "HASHLIFE_INLINE"} {
		t.Setenv(key, "")
	}

	var stdout, stderr bytes.Buffer
	a := newApp()
	root := a.rootCmd()
	root.SetArgs(args)
	root.SetIn(strings.NewReader(stdin))
	root.SetOut(&stdout)
	root.SetErr(&stderr)

	err := root.ExecuteContext(context.Background())
	a.close()
	return stdout.String(), stderr.String(), err
}

func decodeOutcome(t *testing.T, stdout string) engine.Outcome {
	t.Helper()
	var out engine.Outcome
	require.NoError(t, json.Unmarshal([]byte(stdout), &out), stdout)
	return out
}

func TestRun_Pattern(t *testing.T) {
	for _, inline := range []bool{false, true} {
		args := []string{"run", "--pattern", "glider", "-n", "4"}
		if inline {
			args = append(args, "--inline")
		}
		stdout, _, err := execute(t, "", args...)
		require.NoError(t, err)

		out := decodeOutcome(t, stdout)
		assert.Equal(t, 4, out.Generations)
		assert.ElementsMatch(t, []grid.Cell{{X: 2, Y: 1}, {X: 3, Y: 2}, {X: 1, Y: 3}, {X: 2, Y: 3}, {X: 3, Y: 3}}, out.Cells)
		assert.Equal(t, 1, out.OriginX)
		assert.Equal(t, 1, out.OriginY)
	}
}

func TestRun_Stdin(t *testing.T) {
	stdout, _, err := execute(t, "[[0,0],[1,0],[2,0]]", "run", "-n", "1")
	require.NoError(t, err)

	out := decodeOutcome(t, stdout)
	assert.Equal(t, []grid.Cell{{X: 1, Y: -1}, {X: 1, Y: 0}, {X: 1, Y: 1}}, out.Cells)
}

func TestRun_InputFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "block.json")
	require.NoError(t, os.WriteFile(path, []byte(`[[0,0],[1,0],[0,1],[1,1]]`), 0644))

	stdout, _, err := execute(t, "", "run", "-n", "100", "--input", path)
	require.NoError(t, err)
	assert.Len(t, decodeOutcome(t, stdout).Cells, 4)
}

func TestRun_RuleOverride(t *testing.T) {
	// (1,1) is dead with six live neighbours: born under B36 only.
	stdin := "[[0,0],[1,0],[2,0],[0,1],[2,1],[0,2]]"
	conway, _, err := execute(t, stdin, "run", "-n", "1")
	require.NoError(t, err)
	highlife, _, err := execute(t, stdin, "run", "-n", "1", "--rule", "B36/S23")
	require.NoError(t, err)
	assert.NotEqual(t, decodeOutcome(t, conway).Cells, decodeOutcome(t, highlife).Cells)
}

func TestRun_Errors(t *testing.T) {
	t.Run("unknown pattern", func(t *testing.T) {
		_, _, err := execute(t, "", "run", "--pattern", "spaceship-zoo", "-n", "1")
		assert.ErrorIs(t, err, errUnknownPattern)
	})

	t.Run("bad input", func(t *testing.T) {
		_, _, err := execute(t, "not json", "run", "-n", "1")
		assert.Error(t, err)
	})

	t.Run("bad rule", func(t *testing.T) {
		_, _, err := execute(t, "[]", "run", "-n", "1", "--rule", "B0/S8")
		assert.ErrorIs(t, err, config.ErrInvalidConfig)
	})

	t.Run("generations required", func(t *testing.T) {
		_, _, err := execute(t, "", "run", "--pattern", "glider")
		assert.Error(t, err)
	})
}

func TestVerify(t *testing.T) {
	stdout, stderr, err := execute(t, "", "verify", "--pattern", "gosper", "-n", "100")
	require.NoError(t, err)

	var report verifyReport
	require.NoError(t, json.Unmarshal([]byte(stdout), &report))
	assert.True(t, report.Match)
	assert.Equal(t, 100, report.Generations)
	assert.Equal(t, report.HashlifeCells, report.BruteForceCells)
	assert.Contains(t, stderr, "verify finished")
}

func TestBench(t *testing.T) {
	stdout, _, err := execute(t, "", "bench", "--pattern", "acorn", "-n", "64")
	require.NoError(t, err)

	assert.Contains(t, stdout, "pattern acorn, 64 generations")
	for _, phase := range []string{"cold", "warm", "cleared"} {
		assert.Contains(t, stdout, phase)
	}
}

func TestConfigInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "hashlife.yaml")

	stdout, _, err := execute(t, "", "config", "init", "--config", path)
	require.NoError(t, err)
	assert.Contains(t, stdout, path)

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, config.DefaultConfig().Rule, cfg.Rule)

	_, _, err = execute(t, "", "config", "init", "--config", path)
	assert.ErrorIs(t, err, errConfigExists)

	_, _, err = execute(t, "", "config", "init", "--config", path, "--force")
	assert.NoError(t, err)
}

func TestConfigFlagIsUsed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hashlife.yaml")
	require.NoError(t, os.WriteFile(path, []byte("rule: B36/S23\n"), 0644))

	_, stderr, err := execute(t, "", "--config", path, "--log-level", "debug", "run", "--pattern", "block", "-n", "1")
	require.NoError(t, err)
	assert.Contains(t, stderr, "B36/S23")

	_, _, err = execute(t, "", "--config", filepath.Join(t.TempDir(), "missing.yaml"), "run", "--pattern", "block", "-n", "1")
	assert.Error(t, err)
}

func TestPatterns(t *testing.T) {
	for _, name := range patternNames() {
		cells, err := pattern(name)
		require.NoError(t, err, name)
		assert.NotEmpty(t, cells, name)
	}

	gun, err := pattern("gosper")
	require.NoError(t, err)
	assert.Len(t, gun, 36)

	// Diehard vanishes after 130 generations.
	diehard, err := pattern("diehard")
	require.NoError(t, err)
	out, err := engine.New(engine.Config{}).Advance(context.Background(), diehard, 130, nil)
	require.NoError(t, err)
	assert.Empty(t, out.Cells)
}
