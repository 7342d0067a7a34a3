// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package quadtree

import (
	"fmt"
	"math/bits"

	"github.com/AleutianAI/AleutianLife/services/life/grid"
)

// MaxLevel bounds tree height so that sides and origins fit in an int.
const MaxLevel = 60

// MaxCoord bounds the coordinates a tree may cover. Any tree of level at
// most MaxLevel anchored inside [-MaxCoord, MaxCoord] keeps every derived
// origin, including those of padded ancestors, well inside int.
const MaxCoord = 1 << 61

// LevelFor returns the smallest level whose side covers size cells.
func LevelFor(size uint64) int {
	if size <= 1 {
		return 0
	}
	return bits.Len64(size - 1)
}

// Build converts a sparse cell set into a canonical tree.
//
// Description:
//
//	Builds the smallest power-of-two square containing the bounding box of
//	the live cells, anchored at the box's minimum corner. minLevel forces a
//	larger tree. An empty set yields an empty tree of level minLevel (level 0
//	by default) at (0, 0).
//
// Algorithm:
//
//	Top-down recursion over the four quadrant offsets. Cells are partitioned
//	as the recursion descends so empty quadrants become the canonical empty
//	node without visiting their area; leaves are tested against membership.
//
//	Time:  O(N * L) for N live cells and tree level L.
//
// Inputs:
//   - f: The factory to intern nodes in.
//   - idx: The live cells. Not modified.
//   - minLevel: Minimum tree level. Values < 0 are treated as 0.
//
// Outputs:
//   - Positioned: The tree and its origin.
//   - error: ErrOutOfRange when the tree would exceed MaxLevel or cover
//     coordinates beyond MaxCoord.
func Build(f *Factory, idx *grid.Index, minLevel int) (Positioned, error) {
	minLevel = max(minLevel, 0)
	if minLevel > MaxLevel {
		return Positioned{}, fmt.Errorf("%w: level %d", ErrOutOfRange, minLevel)
	}
	if idx.Len() == 0 {
		return Positioned{Node: f.Empty(minLevel)}, nil
	}

	b := idx.Bounds()
	level := max(LevelFor(max(b.Width(), b.Height())), minLevel)
	if err := checkRange(level, b.MinX, b.MinY); err != nil {
		return Positioned{}, err
	}
	return Positioned{
		Node: buildNode(f, level, b.MinX, b.MinY, idx.Cells()),
		X:    b.MinX,
		Y:    b.MinY,
	}, nil
}

// checkRange reports whether a level-k square at (x, y) lies inside
// [-MaxCoord, MaxCoord] on both axes.
func checkRange(level, x, y int) error {
	if level > MaxLevel {
		return fmt.Errorf("%w: level %d", ErrOutOfRange, level)
	}
	last := 1<<level - 1
	if x < -MaxCoord || y < -MaxCoord || x > MaxCoord-last || y > MaxCoord-last {
		return fmt.Errorf("%w: level %d at (%d, %d)", ErrOutOfRange, level, x, y)
	}
	return nil
}

// BuildAt builds a node of exactly the given level anchored at (x, y).
//
// Cells outside the square are ignored. The stepper uses this to cut a
// fixed-alignment region out of a brute-force result.
func BuildAt(f *Factory, idx *grid.Index, level, x, y int) (Positioned, error) {
	if err := checkRange(level, x, y); err != nil {
		return Positioned{}, err
	}
	side := 1 << level
	inside := make([]grid.Cell, 0, idx.Len())
	idx.ForEach(func(c grid.Cell) {
		if c.X >= x && c.X < x+side && c.Y >= y && c.Y < y+side {
			inside = append(inside, c)
		}
	})
	return Positioned{Node: buildNode(f, level, x, y, inside), X: x, Y: y}, nil
}

func buildNode(f *Factory, level, ox, oy int, cells []grid.Cell) *Node {
	if len(cells) == 0 {
		return f.Empty(level)
	}
	if level == 0 {
		// Partitioning guarantees every remaining cell is (ox, oy).
		return f.Leaf(true)
	}

	half := 1 << (level - 1)
	var nw, ne, sw, se []grid.Cell
	for _, c := range cells {
		east := c.X >= ox+half
		south := c.Y >= oy+half
		switch {
		case !east && !south:
			nw = append(nw, c)
		case east && !south:
			ne = append(ne, c)
		case !east && south:
			sw = append(sw, c)
		default:
			se = append(se, c)
		}
	}

	return f.Join(
		buildNode(f, level-1, ox, oy, nw),
		buildNode(f, level-1, ox+half, oy, ne),
		buildNode(f, level-1, ox, oy+half, sw),
		buildNode(f, level-1, ox+half, oy+half, se),
	)
}

// Flatten returns the live cells of a positioned tree.
//
// Subtrees whose cached population is zero are skipped without descending.
func Flatten(p Positioned) []grid.Cell {
	out := make([]grid.Cell, 0, p.Node.Population())
	flatten(p.Node, p.X, p.Y, func(c grid.Cell) {
		out = append(out, c)
	})
	return out
}

// FlattenInto adds the live cells of a positioned tree to idx.
func FlattenInto(p Positioned, idx *grid.Index) {
	flatten(p.Node, p.X, p.Y, func(c grid.Cell) {
		idx.SetAlive(c, true)
	})
}

// ToIndex returns the live cells of a positioned tree as a new index.
func ToIndex(p Positioned) *grid.Index {
	idx := grid.NewIndex()
	FlattenInto(p, idx)
	return idx
}

func flatten(n *Node, x, y int, emit func(grid.Cell)) {
	if n.Population() == 0 {
		return
	}
	if n.level == 0 {
		emit(grid.Cell{X: x, Y: y})
		return
	}
	half := 1 << (n.level - 1)
	flatten(n.nw, x, y, emit)
	flatten(n.ne, x+half, y, emit)
	flatten(n.sw, x, y+half, emit)
	flatten(n.se, x+half, y+half, emit)
}
