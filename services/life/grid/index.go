// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package grid

// Index is a column-grouped sparse set of live cells.
//
// Description:
//
//	Maps each x coordinate to the set of y coordinates alive in that column.
//	A coordinate is present iff the cell is alive; a column whose last cell
//	is removed is dropped so the index never accumulates empty sets.
//
// Invariants:
//   - size equals the total number of (x, y) pairs stored
//   - no column map is ever empty
//   - bounds is valid only while boundsDirty is false
//
// Thread Safety: NOT safe for concurrent mutation. See package docs.
type Index struct {
	columns     map[int]map[int]struct{}
	size        int
	bounds      Bounds
	boundsDirty bool
}

// NewIndex creates an empty index.
func NewIndex() *Index {
	return &Index{
		columns:     make(map[int]map[int]struct{}),
		boundsDirty: true,
	}
}

// FromCells builds an index from a cell list. Duplicates collapse.
func FromCells(cells []Cell) *Index {
	idx := NewIndex()
	for _, c := range cells {
		idx.SetAlive(c, true)
	}
	return idx
}

// Len returns the number of live cells.
func (idx *Index) Len() int {
	return idx.size
}

// SetAlive marks c alive or dead.
//
// Outputs:
//   - bool: True if the index changed.
func (idx *Index) SetAlive(c Cell, alive bool) bool {
	if alive {
		return idx.add(c)
	}
	return idx.remove(c)
}

// IsAlive reports whether c is alive.
func (idx *Index) IsAlive(c Cell) bool {
	col, ok := idx.columns[c.X]
	if !ok {
		return false
	}
	_, ok = col[c.Y]
	return ok
}

// Delete removes c. Returns true if it was alive.
func (idx *Index) Delete(c Cell) bool {
	return idx.remove(c)
}

// Clear removes every cell.
func (idx *Index) Clear() {
	idx.columns = make(map[int]map[int]struct{})
	idx.size = 0
	idx.boundsDirty = true
}

// ForEach calls fn once per live cell in unspecified order.
//
// fn must not mutate the index.
func (idx *Index) ForEach(fn func(Cell)) {
	for x, col := range idx.columns {
		for y := range col {
			fn(Cell{X: x, Y: y})
		}
	}
}

// Cells returns the live cells as a new slice in unspecified order.
func (idx *Index) Cells() []Cell {
	out := make([]Cell, 0, idx.size)
	idx.ForEach(func(c Cell) {
		out = append(out, c)
	})
	return out
}

// Bounds returns the bounding box of the live cells.
//
// Description:
//
//	An empty index yields the degenerate {0,0,0,0} box. Otherwise the box is
//	recomputed by a full scan only when a mutation has happened since the
//	last call, and cached until the next mutation.
func (idx *Index) Bounds() Bounds {
	if idx.size == 0 {
		return Bounds{}
	}
	if !idx.boundsDirty {
		return idx.bounds
	}

	first := true
	var b Bounds
	idx.ForEach(func(c Cell) {
		if first {
			b = Bounds{MinX: c.X, MinY: c.Y, MaxX: c.X, MaxY: c.Y}
			first = false
			return
		}
		b.MinX = min(b.MinX, c.X)
		b.MinY = min(b.MinY, c.Y)
		b.MaxX = max(b.MaxX, c.X)
		b.MaxY = max(b.MaxY, c.Y)
	})

	idx.bounds = b
	idx.boundsDirty = false
	return b
}

// Clone returns an independent copy, including the cached bounds.
func (idx *Index) Clone() *Index {
	cp := &Index{
		columns:     make(map[int]map[int]struct{}, len(idx.columns)),
		size:        idx.size,
		bounds:      idx.bounds,
		boundsDirty: idx.boundsDirty,
	}
	for x, col := range idx.columns {
		nc := make(map[int]struct{}, len(col))
		for y := range col {
			nc[y] = struct{}{}
		}
		cp.columns[x] = nc
	}
	return cp
}

// Equal reports whether both indexes hold the same live cells.
func (idx *Index) Equal(other *Index) bool {
	if other == nil || idx.size != other.size {
		return false
	}
	for x, col := range idx.columns {
		oc, ok := other.columns[x]
		if !ok || len(oc) != len(col) {
			return false
		}
		for y := range col {
			if _, ok := oc[y]; !ok {
				return false
			}
		}
	}
	return true
}

// Translate returns a new index with every cell shifted by (dx, dy).
func (idx *Index) Translate(dx, dy int) *Index {
	out := NewIndex()
	idx.ForEach(func(c Cell) {
		out.add(c.Add(dx, dy))
	})
	return out
}

func (idx *Index) add(c Cell) bool {
	col, ok := idx.columns[c.X]
	if !ok {
		col = make(map[int]struct{})
		idx.columns[c.X] = col
	}
	if _, exists := col[c.Y]; exists {
		return false
	}
	col[c.Y] = struct{}{}
	idx.size++
	idx.boundsDirty = true
	return true
}

func (idx *Index) remove(c Cell) bool {
	col, ok := idx.columns[c.X]
	if !ok {
		return false
	}
	if _, exists := col[c.Y]; !exists {
		return false
	}
	delete(col, c.Y)
	if len(col) == 0 {
		delete(idx.columns, c.X)
	}
	idx.size--
	idx.boundsDirty = true
	return true
}
