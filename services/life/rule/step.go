// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package rule

import (
	"context"

	"github.com/AleutianAI/AleutianLife/services/life/grid"
)

// ProgressFunc receives a snapshot after a number of generations.
//
// cells is owned by the receiver.
type ProgressFunc func(generation int, cells []grid.Cell)

// Step advances idx by one generation and returns the result as a new index.
//
// Description:
//
//	Counts live neighbours of every cell adjacent to a live cell, then
//	applies the rule. idx is not modified.
//
// Performance: O(N) in the number of live cells.
//
// Thread Safety: Safe for concurrent use if idx is not being mutated.
func (r Rule) Step(idx *grid.Index) *grid.Index {
	counts := make(map[grid.Cell]int, idx.Len()*8)
	idx.ForEach(func(c grid.Cell) {
		for dy := -1; dy <= 1; dy++ {
			for dx := -1; dx <= 1; dx++ {
				if dx == 0 && dy == 0 {
					continue
				}
				counts[c.Add(dx, dy)]++
			}
		}
	})

	next := grid.NewIndex()
	for c, n := range counts {
		if r.Next(idx.IsAlive(c), n) {
			next.SetAlive(c, true)
		}
	}
	// Live cells with zero neighbours never appear in counts.
	if r.Survival&1 != 0 {
		idx.ForEach(func(c grid.Cell) {
			if _, seen := counts[c]; !seen {
				next.SetAlive(c, true)
			}
		})
	}
	return next
}

// Run advances idx by n generations without cancellation or progress.
func (r Rule) Run(idx *grid.Index, n int) *grid.Index {
	out, _, _ := r.Evolve(context.Background(), idx, n, 0, nil)
	return out
}

// Evolve advances idx by up to n generations.
//
// Description:
//
//	Applies Step n times. The context is checked between generations, so a
//	cancelled context stops the loop at the next generation boundary. When
//	every > 0 and onProgress is set, a snapshot is emitted after each
//	multiple of every generations and after the final generation.
//
// Inputs:
//   - ctx: Cancellation context. Must not be nil.
//   - idx: Starting cells. Not modified.
//   - n: Generations to apply. Values <= 0 return a clone of idx.
//   - every: Progress interval in generations; 0 disables progress.
//   - onProgress: Optional progress receiver.
//
// Outputs:
//   - *grid.Index: Cells after the generations actually applied.
//   - int: Generations actually applied.
//   - error: ctx.Err() if the loop stopped early.
func (r Rule) Evolve(ctx context.Context, idx *grid.Index, n, every int, onProgress ProgressFunc) (*grid.Index, int, error) {
	cur := idx.Clone()
	for gen := 1; gen <= n; gen++ {
		if err := ctx.Err(); err != nil {
			return cur, gen - 1, err
		}
		cur = r.Step(cur)
		if onProgress != nil && every > 0 && (gen%every == 0 || gen == n) {
			onProgress(gen, cur.Cells())
		}
		if cur.Len() == 0 && gen < n {
			// Empty stays empty under rules without B0.
			if onProgress != nil && every > 0 {
				onProgress(n, []grid.Cell{})
			}
			return cur, n, nil
		}
	}
	return cur, max(n, 0), nil
}
