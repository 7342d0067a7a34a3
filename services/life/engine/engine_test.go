// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package engine

import (
	"context"
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/AleutianLife/services/life/grid"
	"github.com/AleutianAI/AleutianLife/services/life/quadtree"
	"github.com/AleutianAI/AleutianLife/services/life/rule"
)

// =============================================================================
// Fixtures
// =============================================================================

func block() []grid.Cell {
	return []grid.Cell{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 0, Y: 1}, {X: 1, Y: 1}}
}

func blinker() []grid.Cell {
	return []grid.Cell{{X: 0, Y: 1}, {X: 1, Y: 1}, {X: 2, Y: 1}}
}

// glider travels +1,+1 every four generations.
func glider() []grid.Cell {
	return []grid.Cell{{X: 1, Y: 0}, {X: 2, Y: 1}, {X: 0, Y: 2}, {X: 1, Y: 2}, {X: 2, Y: 2}}
}

func gosperGun() []grid.Cell {
	coords := [][2]int{
		{0, 4}, {0, 5}, {1, 4}, {1, 5}, {10, 4}, {10, 5}, {10, 6}, {11, 3}, {11, 7},
		{12, 2}, {12, 8}, {13, 2}, {13, 8}, {14, 5}, {15, 3}, {15, 7}, {16, 4}, {16, 5},
		{16, 6}, {17, 5}, {20, 2}, {20, 3}, {20, 4}, {21, 2}, {21, 3}, {21, 4}, {22, 1},
		{22, 5}, {24, 0}, {24, 1}, {24, 5}, {24, 6}, {34, 2}, {34, 3}, {35, 2}, {35, 3},
	}
	cells := make([]grid.Cell, len(coords))
	for i, c := range coords {
		cells[i] = grid.Cell{X: c[0], Y: c[1]}
	}
	return cells
}

func soup(rng *rand.Rand, count, width, height int) []grid.Cell {
	cells := make([]grid.Cell, 0, count)
	for range count {
		cells = append(cells, grid.Cell{X: rng.Intn(width) - width/2, Y: rng.Intn(height) - height/2})
	}
	return cells
}

func translate(cells []grid.Cell, dx, dy int) []grid.Cell {
	out := make([]grid.Cell, len(cells))
	for i, c := range cells {
		out[i] = c.Add(dx, dy)
	}
	return out
}

func bruteForce(r rule.Rule, cells []grid.Cell, n int) []grid.Cell {
	return r.Run(grid.FromCells(cells), n).Cells()
}

func tree(t *testing.T, e *Engine, cells []grid.Cell) quadtree.Positioned {
	t.Helper()
	p, err := e.Tree(cells)
	require.NoError(t, err)
	return p
}

func advance(t *testing.T, e *Engine, cells []grid.Cell, n int) Outcome {
	t.Helper()
	out, err := e.Advance(context.Background(), cells, n, nil)
	require.NoError(t, err)
	return out
}

// =============================================================================
// Advance
// =============================================================================

func TestAdvance_StillLife(t *testing.T) {
	e := New(Config{})
	out := advance(t, e, block(), 100)

	assert.ElementsMatch(t, block(), out.Cells)
	assert.Equal(t, 100, out.Generations)
	assert.Equal(t, 0, out.OriginX)
	assert.Equal(t, 0, out.OriginY)
}

func TestAdvance_Oscillator(t *testing.T) {
	e := New(Config{})
	vertical := []grid.Cell{{X: 1, Y: 0}, {X: 1, Y: 1}, {X: 1, Y: 2}}

	assert.ElementsMatch(t, vertical, advance(t, e, blinker(), 1).Cells)
	assert.ElementsMatch(t, blinker(), advance(t, e, blinker(), 2).Cells)
	assert.ElementsMatch(t, blinker(), advance(t, e, blinker(), 1000).Cells)
	assert.ElementsMatch(t, vertical, advance(t, e, blinker(), 1001).Cells)
}

func TestAdvance_GliderTranslates(t *testing.T) {
	e := New(Config{})

	out := advance(t, e, glider(), 4)
	assert.ElementsMatch(t, translate(glider(), 1, 1), out.Cells)
	assert.Equal(t, 1, out.OriginX)
	assert.Equal(t, 1, out.OriginY)

	out = advance(t, e, glider(), 400)
	assert.ElementsMatch(t, translate(glider(), 100, 100), out.Cells)
}

func TestAdvance_Scenarios(t *testing.T) {
	e := New(Config{})

	t.Run("block is unchanged", func(t *testing.T) {
		square := []grid.Cell{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 0, Y: 1}, {X: 1, Y: 1}}
		assert.ElementsMatch(t, square, advance(t, e, square, 1).Cells)
	})

	t.Run("vertical blinker turns horizontal and back", func(t *testing.T) {
		vertical := []grid.Cell{{X: 0, Y: -1}, {X: 0, Y: 0}, {X: 0, Y: 1}}
		horizontal := []grid.Cell{{X: -1, Y: 0}, {X: 0, Y: 0}, {X: 1, Y: 0}}
		assert.ElementsMatch(t, horizontal, advance(t, e, vertical, 1).Cells)
		assert.ElementsMatch(t, vertical, advance(t, e, vertical, 2).Cells)
	})

	t.Run("glider repeats shifted after four generations", func(t *testing.T) {
		start := []grid.Cell{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 2, Y: 0}, {X: 2, Y: -1}, {X: 1, Y: -2}}
		out := advance(t, e, start, 4)
		require.Len(t, out.Cells, len(start))

		// Pair the bounding-box minima to find the shift.
		before := grid.FromCells(start).Bounds()
		after := grid.FromCells(out.Cells).Bounds()
		dx, dy := after.MinX-before.MinX, after.MinY-before.MinY
		assert.NotEqual(t, [2]int{0, 0}, [2]int{dx, dy})
		assert.ElementsMatch(t, translate(start, dx, dy), out.Cells)
	})
}

func TestAdvance_BeyondTreeRange(t *testing.T) {
	e := New(Config{})
	const far = 1<<62 + 5

	// No single tree covers both blocks; both must survive untouched.
	cells := append(translate(block(), -far, 0), translate(block(), far, 0)...)
	out := advance(t, e, cells, 4)
	assert.ElementsMatch(t, cells, out.Cells)
	assert.Equal(t, 4, out.Generations)
	assert.Equal(t, -far, out.OriginX)

	// A glider just inside MaxCoord cannot be padded; it is stepped directly.
	edge := translate(glider(), quadtree.MaxCoord-8, 0)
	out = advance(t, e, edge, 8)
	assert.ElementsMatch(t, translate(edge, 2, 2), out.Cells)

	_, err := e.Tree(cells)
	assert.ErrorIs(t, err, quadtree.ErrOutOfRange)
}

func TestAdvance_MatchesBruteForce(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	e := New(Config{})

	for trial := 0; trial < 6; trial++ {
		cells := soup(rng, 70, 16, 16)
		for _, n := range []int{1, 3, 4, 5, 17, 64, 130} {
			out := advance(t, e, cells, n)
			assert.ElementsMatch(t, bruteForce(rule.Conway, cells, n), out.Cells, "trial %d n=%d", trial, n)
			assert.Equal(t, n, out.Generations)
		}
	}
}

func TestAdvance_GosperGun(t *testing.T) {
	e := New(Config{})
	gun := gosperGun()

	t.Run("matches brute force", func(t *testing.T) {
		out := advance(t, e, gun, 150)
		assert.ElementsMatch(t, bruteForce(rule.Conway, gun, 150), out.Cells)
	})

	t.Run("composes", func(t *testing.T) {
		direct := advance(t, e, gun, 15)
		first := advance(t, e, gun, 10)
		second := advance(t, e, first.Cells, 5)
		assert.ElementsMatch(t, direct.Cells, second.Cells)
	})

	t.Run("composes across macro-steps", func(t *testing.T) {
		direct := advance(t, e, gun, 300)
		first := advance(t, e, gun, 128)
		second := advance(t, e, first.Cells, 172)
		assert.ElementsMatch(t, direct.Cells, second.Cells)
	})
}

func TestAdvance_OtherRule(t *testing.T) {
	highLife := rule.MustParse("B36/S23")
	e := New(Config{Rule: highLife})
	rng := rand.New(rand.NewSource(11))

	cells := soup(rng, 80, 20, 20)
	out := advance(t, e, cells, 90)
	assert.ElementsMatch(t, bruteForce(highLife, cells, 90), out.Cells)
}

func TestAdvance_EdgeCases(t *testing.T) {
	e := New(Config{})

	t.Run("zero generations", func(t *testing.T) {
		out := advance(t, e, glider(), 0)
		assert.ElementsMatch(t, glider(), out.Cells)
		assert.Equal(t, 0, out.Generations)
	})

	t.Run("negative generations behave as zero", func(t *testing.T) {
		out := advance(t, e, glider(), -5)
		assert.ElementsMatch(t, glider(), out.Cells)
		assert.Equal(t, 0, out.Generations)
	})

	t.Run("empty pattern", func(t *testing.T) {
		var seen []Progress
		out, err := e.Advance(context.Background(), nil, 1000, func(p Progress) {
			seen = append(seen, p)
		})
		require.NoError(t, err)
		assert.Empty(t, out.Cells)
		assert.NotNil(t, out.Cells)
		assert.Equal(t, 1000, out.Generations)
		require.Len(t, seen, 1)
		assert.Equal(t, 1000, seen[0].Generation)
	})

	t.Run("dying pattern", func(t *testing.T) {
		out := advance(t, e, []grid.Cell{{X: 5, Y: 5}, {X: 6, Y: 5}}, 77)
		assert.Empty(t, out.Cells)
		assert.Equal(t, 77, out.Generations)
		assert.Equal(t, 0, out.OriginX)
	})

	t.Run("duplicate input cells", func(t *testing.T) {
		cells := append(block(), block()...)
		assert.ElementsMatch(t, block(), advance(t, e, cells, 8).Cells)
	})

	t.Run("negative coordinates", func(t *testing.T) {
		start := translate(glider(), -1000, -3)
		out := advance(t, e, start, 20)
		assert.ElementsMatch(t, translate(glider(), -995, 2), out.Cells)
	})
}

func TestAdvance_Progress(t *testing.T) {
	e := New(Config{ProgressEvery: 5})

	var gens []int
	out, err := e.Advance(context.Background(), gosperGun(), 200, func(p Progress) {
		gens = append(gens, p.Generation)
	})
	require.NoError(t, err)

	require.NotEmpty(t, gens)
	assert.IsIncreasing(t, gens)
	assert.Equal(t, 200, gens[len(gens)-1])
	assert.Equal(t, 64, gens[0], "first macro-step covers the gun's level-6 tree")
	assert.Equal(t, 200, out.Generations)
}

func TestAdvance_Cancellation(t *testing.T) {
	t.Run("cancelled before start", func(t *testing.T) {
		e := New(Config{})
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		out, err := e.Advance(ctx, glider(), 100, nil)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrCancelled)
		assert.Equal(t, 0, out.Generations)
		assert.ElementsMatch(t, glider(), out.Cells)
	})

	t.Run("cancelled between macro-steps", func(t *testing.T) {
		e := New(Config{})
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		out, err := e.Advance(ctx, gosperGun(), 1000, func(Progress) { cancel() })
		assert.ErrorIs(t, err, ErrCancelled)
		assert.Equal(t, 64, out.Generations)
		assert.ElementsMatch(t, bruteForce(rule.Conway, gosperGun(), 64), out.Cells)
	})

	t.Run("cancelled while brute-forcing", func(t *testing.T) {
		e := New(Config{ProgressEvery: 1})
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		// A lone blinker's level-2 tree steps 4 at a time; 3 generations
		// are brute-forced.
		out, err := e.Advance(ctx, blinker(), 3, func(p Progress) {
			if p.Generation == 1 {
				cancel()
			}
		})
		assert.ErrorIs(t, err, ErrCancelled)
		assert.Equal(t, 1, out.Generations)
	})

	t.Run("deadline", func(t *testing.T) {
		e := New(Config{})
		ctx, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
		defer cancel()
		<-ctx.Done()

		_, err := e.Advance(ctx, glider(), 10, nil)
		assert.ErrorIs(t, err, ErrCancelled)
		assert.True(t, errors.Is(err, context.DeadlineExceeded))
	})
}

// =============================================================================
// Result and StepPow2
// =============================================================================

func TestResult_MatchesBruteForceCentre(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	e := New(Config{})

	for _, level := range []int{2, 3, 4, 5} {
		side := 1 << level
		for trial := 0; trial < 10; trial++ {
			idx := grid.FromCells(soup(rng, side*side/3, side, side))
			var p quadtree.Positioned
			var err error
			func() {
				e.mu.Lock()
				defer e.mu.Unlock()
				p, err = quadtree.BuildAt(e.factory, idx, level, -side/2, -side/2)
			}()
			require.NoError(t, err)

			r, err := e.Result(p)
			require.NoError(t, err)
			require.Equal(t, level-1, r.Level())

			gens := 1 << (level - 2)
			future := rule.Conway.Run(quadtree.ToIndex(p), gens)
			cx, cy := p.CenterOrigin()
			want := make([]grid.Cell, 0)
			future.ForEach(func(c grid.Cell) {
				if c.X >= cx && c.X < cx+side/2 && c.Y >= cy && c.Y < cy+side/2 {
					want = append(want, c)
				}
			})

			assert.Equal(t, cx, r.X)
			assert.Equal(t, cy, r.Y)
			assert.ElementsMatch(t, want, quadtree.Flatten(r), "level %d trial %d", level, trial)
		}
	}
}

func TestResult_Errors(t *testing.T) {
	e := New(Config{})

	_, err := e.Result(quadtree.Positioned{})
	assert.ErrorIs(t, err, ErrNilNode)

	_, err = e.Result(tree(t, e, block()))
	assert.ErrorIs(t, err, ErrLevelTooSmall)
}

func TestStepPow2_KeepsEscapingCells(t *testing.T) {
	e := New(Config{})
	rng := rand.New(rand.NewSource(5))

	for trial := 0; trial < 10; trial++ {
		cells := soup(rng, 40, 12, 12)
		p := tree(t, e, cells)

		stepped, err := e.StepPow2(p)
		require.NoError(t, err)
		assert.ElementsMatch(t, bruteForce(rule.Conway, cells, 1<<p.Level()), quadtree.Flatten(stepped), "trial %d", trial)
	}

	// A glider in a level-2 tree is brute-forced four generations.
	stepped, err := e.StepPow2(tree(t, e, glider()))
	require.NoError(t, err)
	assert.ElementsMatch(t, translate(glider(), 1, 1), quadtree.Flatten(stepped))
}

func TestStepPow2_RejectsTreesNearTheCoordinateLimit(t *testing.T) {
	e := New(Config{})

	far := tree(t, e, translate(glider(), quadtree.MaxCoord-8, 0))
	_, err := e.StepPow2(far)
	assert.ErrorIs(t, err, quadtree.ErrOutOfRange)
}

// =============================================================================
// Tables
// =============================================================================

func TestEngine_MemoReuse(t *testing.T) {
	e := New(Config{})

	advance(t, e, gosperGun(), 256)
	before := e.Stats()
	require.Positive(t, before.Results)
	require.Positive(t, before.Nodes)

	advance(t, e, gosperGun(), 256)
	after := e.Stats()
	assert.Equal(t, before.Results, after.Results)
	assert.Greater(t, after.ResultHits, before.ResultHits)
}

func TestEngine_ClearCache(t *testing.T) {
	e := New(Config{})
	want := advance(t, e, gosperGun(), 100).Cells

	e.ClearCache()
	stats := e.Stats()
	assert.Equal(t, Stats{}, stats)

	e.ClearCache()
	assert.Equal(t, Stats{}, e.Stats())

	assert.ElementsMatch(t, want, advance(t, e, gosperGun(), 100).Cells)
}

func TestDefaultEngine(t *testing.T) {
	require.Same(t, Default(), Default())

	out, err := Advance(context.Background(), glider(), 8, nil)
	require.NoError(t, err)
	assert.ElementsMatch(t, translate(glider(), 2, 2), out.Cells)

	ClearEngineCache()
	assert.Equal(t, 0, Default().Stats().Nodes)
}

func TestNew_RejectsBirthOnZero(t *testing.T) {
	assert.Panics(t, func() {
		New(Config{Rule: rule.Rule{Birth: 1, Survival: 1 << 2}})
	})
}
