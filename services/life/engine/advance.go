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
	"fmt"
	"log/slog"
	"time"

	"github.com/AleutianAI/AleutianLife/services/life/grid"
	"github.com/AleutianAI/AleutianLife/services/life/quadtree"
)

// maxStepLevel is the largest tree level Advance will macro-step.
const maxStepLevel = quadtree.MaxLevel - padLevels

// Progress is an intermediate snapshot emitted by Advance.
type Progress struct {
	Generation int         `json:"generation"`
	Cells      []grid.Cell `json:"cells"`
}

// ProgressFunc receives progress snapshots. It runs on the goroutine that
// called Advance, with the engine locked; it must not call back into the
// engine.
type ProgressFunc func(Progress)

// Outcome is the final state of an Advance.
type Outcome struct {
	// Cells is the live set after Generations generations.
	Cells []grid.Cell `json:"cells"`

	// Generations actually applied. Less than requested only on error.
	Generations int `json:"generations"`

	// OriginX and OriginY are the minimum corner of Cells' bounding box,
	// or zero for an empty set.
	OriginX int `json:"origin_x"`
	OriginY int `json:"origin_y"`
}

// Advance moves cells forward n generations.
//
// Description:
//
//	Repeatedly builds the smallest tree holding the pattern. While the
//	tree's side 2^L fits in the remaining generations, applies StepPow2
//	(2^L generations) and emits progress. Once it does not fit, the
//	remainder is brute-forced in a single pass with progress every
//	ProgressEvery generations.
//
// Inputs:
//   - ctx: Checked between macro-steps and between brute-force
//     generations.
//   - cells: The starting pattern. Duplicates are ignored; not modified.
//   - n: Generations to apply. Negative values are treated as 0.
//   - onProgress: Optional progress receiver.
//
// Outputs:
//   - Outcome: The final (or, on cancellation, partial) state.
//   - error: Wraps ErrCancelled when ctx ends before completion.
//
// Thread Safety: Serializes with other calls on the same engine.
func (e *Engine) Advance(ctx context.Context, cells []grid.Cell, n int, onProgress ProgressFunc) (Outcome, error) {
	n = max(n, 0)

	ctx, span := startAdvanceSpan(ctx, len(cells), n)
	defer span.End()
	start := time.Now()

	e.mu.Lock()
	defer e.mu.Unlock()

	hitsBefore, missesBefore := e.hits, e.misses
	run := advanceRun{e: e, onProgress: onProgress}
	idx, applied, err := run.advance(ctx, grid.FromCells(cells), n)

	out := Outcome{Cells: idx.Cells(), Generations: applied}
	if idx.Len() > 0 {
		b := idx.Bounds()
		out.OriginX, out.OriginY = b.MinX, b.MinY
	}

	stats := e.statsLocked()
	recordMemoCounters(e.hits-hitsBefore, e.misses-missesBefore)
	recordTableSizes(stats.Nodes, stats.Results)
	recordAdvanceMetrics(ctx, time.Since(start), applied, run.macroSteps, run.bruteGenerations, err == nil)
	setAdvanceSpanResult(span, out, run.macroSteps, run.bruteGenerations, err)

	e.logger.Debug("advance finished",
		slog.Int("requested", n),
		slog.Int("applied", applied),
		slog.Int("macro_steps", run.macroSteps),
		slog.Int("brute_generations", run.bruteGenerations),
		slog.Int("cells", len(out.Cells)),
		slog.Int("nodes", stats.Nodes),
		slog.Int("results", stats.Results),
		slog.Duration("duration", time.Since(start)),
	)
	return out, err
}

// advanceRun carries the bookkeeping of one Advance call.
type advanceRun struct {
	e                *Engine
	onProgress       ProgressFunc
	macroSteps       int
	bruteGenerations int
}

func (r *advanceRun) advance(ctx context.Context, cur *grid.Index, n int) (*grid.Index, int, error) {
	e := r.e
	applied := 0

	for applied < n {
		if err := ctx.Err(); err != nil {
			return cur, applied, cancelled(applied, n, err)
		}
		if cur.Len() == 0 {
			// Empty stays empty under rules without B0.
			r.emit(n, cur)
			return cur, n, nil
		}

		remaining := n - applied
		tree, err := quadtree.Build(e.factory, cur, 0)
		if err != nil || !steppable(tree) {
			e.logger.Debug("pattern beyond macro-step range, stepping directly",
				slog.Int("remaining", remaining))
			return r.bruteForce(ctx, cur, applied, remaining)
		}
		level := tree.Level()
		if 1<<level > remaining {
			return r.bruteForce(ctx, cur, applied, remaining)
		}

		stepped := e.stepPow2(tree)
		cur = quadtree.ToIndex(stepped)
		applied += 1 << level
		r.macroSteps++
		r.emit(applied, cur)
	}
	return cur, applied, nil
}

func (r *advanceRun) bruteForce(ctx context.Context, cur *grid.Index, applied, remaining int) (*grid.Index, int, error) {
	e := r.e
	every := e.progressEvery
	var progress func(int, []grid.Cell)
	if r.onProgress != nil && every > 0 {
		progress = func(gen int, cells []grid.Cell) {
			r.onProgress(Progress{Generation: applied + gen, Cells: cells})
		}
	}

	next, done, err := e.rule.Evolve(ctx, cur, remaining, every, progress)
	r.bruteGenerations += done
	total := applied + done
	if err != nil {
		return next, total, cancelled(total, applied+remaining, err)
	}
	return next, total, nil
}

func (r *advanceRun) emit(generation int, cur *grid.Index) {
	if r.onProgress == nil {
		return
	}
	r.onProgress(Progress{Generation: generation, Cells: cur.Cells()})
}

func cancelled(applied, requested int, cause error) error {
	if errors.Is(cause, context.DeadlineExceeded) {
		return fmt.Errorf("after %d of %d generations: %w: %w", applied, requested, ErrCancelled, cause)
	}
	return fmt.Errorf("after %d of %d generations: %w", applied, requested, ErrCancelled)
}

// Advance runs n generations on the process-wide engine.
func Advance(ctx context.Context, cells []grid.Cell, n int, onProgress ProgressFunc) (Outcome, error) {
	return Default().Advance(ctx, cells, n, onProgress)
}

// ClearEngineCache drops the process-wide engine's tables.
func ClearEngineCache() {
	Default().ClearCache()
}
