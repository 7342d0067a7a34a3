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
	"fmt"

	"github.com/AleutianAI/AleutianLife/services/life/grid"
	"github.com/AleutianAI/AleutianLife/services/life/quadtree"
)

// padLevels is how many times StepPow2 expands its input. Three levels
// leave a margin of 1.5 * 2^k empty cells on every side of a level-k
// pattern, which covers the 2^k cells it can travel in 2^k generations.
const padLevels = 3

// stepRange bounds the origin of a tree StepPow2 accepts. Padding a
// level-maxStepLevel tree anchored inside it stays within quadtree.MaxCoord.
const stepRange = quadtree.MaxCoord / 2

// Tree builds the canonical tree of cells in this engine's factory. It
// fails with quadtree.ErrOutOfRange for patterns no tree can hold.
func (e *Engine) Tree(cells []grid.Cell) (quadtree.Positioned, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return quadtree.Build(e.factory, grid.FromCells(cells), 0)
}

// steppable reports whether p can be padded and macro-stepped.
func steppable(p quadtree.Positioned) bool {
	return p.Level() <= maxStepLevel &&
		p.X >= -stepRange && p.X <= stepRange &&
		p.Y >= -stepRange && p.Y <= stepRange
}

// Result returns the centred half of p after 2^(level-2) generations.
//
// Description:
//
//	For a level-k node at origin (x, y) the result is the level-(k-1)
//	node covering [x + 2^(k-2), x + 3*2^(k-2)) on both axes, advanced by
//	2^(k-2) generations. That is the largest future the node's own cells
//	determine. Results are memoized by node identity.
//
// Inputs:
//   - p: A node of level >= 2 built by this engine.
//
// Outputs:
//   - quadtree.Positioned: The advanced centre with its absolute origin.
//   - error: ErrNilNode or ErrLevelTooSmall.
func (e *Engine) Result(p quadtree.Positioned) (quadtree.Positioned, error) {
	if p.Node == nil {
		return quadtree.Positioned{}, ErrNilNode
	}
	if p.Level() < 2 {
		return quadtree.Positioned{}, fmt.Errorf("result of level %d: %w", p.Level(), ErrLevelTooSmall)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	x, y := p.CenterOrigin()
	return quadtree.Positioned{Node: e.result(p.Node, p.Level()-2), X: x, Y: y}, nil
}

// StepPow2 advances the entire pattern held by p by 2^level generations.
//
// Description:
//
//	Unlike Result, nothing is lost at the edges: the node is padded with
//	empty space before stepping, so the returned tree contains every live
//	cell of the full pattern's future. Levels <= 2 are brute-forced.
//
// Inputs:
//   - p: A node built by this engine. Its level must leave room for
//     padding below quadtree.MaxLevel, and its origin must lie within
//     quadtree.MaxCoord/2 on both axes.
//
// Outputs:
//   - quadtree.Positioned: A tree holding the advanced pattern.
//   - error: ErrNilNode, ErrLevelTooLarge or quadtree.ErrOutOfRange.
func (e *Engine) StepPow2(p quadtree.Positioned) (quadtree.Positioned, error) {
	if p.Node == nil {
		return quadtree.Positioned{}, ErrNilNode
	}
	if p.Level()+padLevels > quadtree.MaxLevel {
		return quadtree.Positioned{}, fmt.Errorf("step of level %d: %w", p.Level(), ErrLevelTooLarge)
	}
	if !steppable(p) {
		return quadtree.Positioned{}, fmt.Errorf("step at (%d, %d): %w", p.X, p.Y, quadtree.ErrOutOfRange)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stepPow2(p), nil
}

func (e *Engine) stepPow2(p quadtree.Positioned) quadtree.Positioned {
	k := p.Level()
	if k <= 2 {
		next := e.rule.Run(quadtree.ToIndex(p), 1<<k)
		// p is steppable, so 4 generations of growth stay in range.
		out, _ := quadtree.Build(e.factory, next, 0)
		return out
	}

	padded := p
	for range padLevels {
		padded = e.factory.Expand(padded)
	}
	x, y := padded.CenterOrigin()
	return quadtree.Positioned{Node: e.result(padded.Node, k), X: x, Y: y}
}

// result returns the centred level-(k-1) node of n after 2^step
// generations, for 0 <= step <= k-2. Caller holds e.mu.
func (e *Engine) result(n *quadtree.Node, step int) *quadtree.Node {
	key := resultKey{id: n.ID(), step: step}
	if r, ok := e.results[key]; ok {
		e.hits++
		return r
	}
	e.misses++

	k := n.Level()
	if step < 0 || step > k-2 {
		panic(fmt.Sprintf("engine: step %d out of range for level %d", step, k))
	}

	var r *quadtree.Node
	switch {
	case n.IsEmpty():
		r = e.factory.Empty(k - 1)
	case k == 2:
		r = e.baseResult(n)
	default:
		r = e.recursiveResult(n, step)
	}
	e.results[key] = r
	return r
}

// baseResult brute-forces one generation of a 4x4 node and keeps its
// centre. The node is flattened at a local origin so the outcome depends
// only on its contents.
func (e *Engine) baseResult(n *quadtree.Node) *quadtree.Node {
	next := e.rule.Step(quadtree.ToIndex(quadtree.Positioned{Node: n}))
	centre, _ := quadtree.BuildAt(e.factory, next, 1, 1, 1)
	return centre.Node
}

// recursiveResult splits n into nine overlapping level-(k-1) blocks.
//
// At full speed (step == k-2) the blocks are advanced by 2^(k-3) twice: the
// nine sub-results are regrouped into four level-(k-1) nodes whose own
// results form the output. Below full speed the blocks are advanced once
// by 2^step and the output quadrants are assembled from the facing corners
// of the four sub-results around each quadrant.
func (e *Engine) recursiveResult(n *quadtree.Node, step int) *quadtree.Node {
	f := e.factory
	a, b, c, d := n.NW(), n.NE(), n.SW(), n.SE()

	n00 := a
	n01 := f.Join(a.NE(), b.NW(), a.SE(), b.SW())
	n02 := b
	n10 := f.Join(a.SW(), a.SE(), c.NW(), c.NE())
	n11 := f.Join(a.SE(), b.SW(), c.NE(), d.NW())
	n12 := f.Join(b.SW(), b.SE(), d.NW(), d.NE())
	n20 := c
	n21 := f.Join(c.NE(), d.NW(), c.SE(), d.SW())
	n22 := d

	if step == n.Level()-2 {
		half := step - 1
		r00, r01, r02 := e.result(n00, half), e.result(n01, half), e.result(n02, half)
		r10, r11, r12 := e.result(n10, half), e.result(n11, half), e.result(n12, half)
		r20, r21, r22 := e.result(n20, half), e.result(n21, half), e.result(n22, half)

		return f.Join(
			e.result(f.Join(r00, r01, r10, r11), half),
			e.result(f.Join(r01, r02, r11, r12), half),
			e.result(f.Join(r10, r11, r20, r21), half),
			e.result(f.Join(r11, r12, r21, r22), half),
		)
	}

	r00, r01, r02 := e.result(n00, step), e.result(n01, step), e.result(n02, step)
	r10, r11, r12 := e.result(n10, step), e.result(n11, step), e.result(n12, step)
	r20, r21, r22 := e.result(n20, step), e.result(n21, step), e.result(n22, step)

	return f.Join(
		f.Join(r00.SE(), r01.SW(), r10.NE(), r11.NW()),
		f.Join(r01.SE(), r02.SW(), r11.NE(), r12.NW()),
		f.Join(r10.SE(), r11.SW(), r20.NE(), r21.NW()),
		f.Join(r11.SE(), r12.SW(), r21.NE(), r22.NW()),
	)
}
