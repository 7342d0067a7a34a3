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

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
)

// Cell is a live cell coordinate on the unbounded grid.
//
// Cell marshals to {"x":…,"y":…}. It unmarshals from any of the equivalent
// JSON forms accepted by Coerce.
type Cell struct {
	X int `json:"x" yaml:"x"`
	Y int `json:"y" yaml:"y"`
}

// String returns the "x,y" form of the cell.
func (c Cell) String() string {
	return fmt.Sprintf("%d,%d", c.X, c.Y)
}

// Add returns the cell translated by (dx, dy).
func (c Cell) Add(dx, dy int) Cell {
	return Cell{X: c.X + dx, Y: c.Y + dy}
}

// UnmarshalJSON accepts {"x":1,"y":2}, [1,2] and "1,2".
func (c *Cell) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	cell, ok := Coerce(raw)
	if !ok {
		return fmt.Errorf("%w: %s", ErrInvalidCell, string(data))
	}
	*c = cell
	return nil
}

// Bounds is an inclusive bounding box over live cells.
type Bounds struct {
	MinX int `json:"min_x"`
	MinY int `json:"min_y"`
	MaxX int `json:"max_x"`
	MaxY int `json:"max_y"`
}

// Width returns the number of columns covered by the box. The span is
// computed in uint64 so boxes wider than math.MaxInt do not wrap; a box
// covering every int saturates at math.MaxUint64.
func (b Bounds) Width() uint64 { return span(b.MinX, b.MaxX) }

// Height returns the number of rows covered by the box, like Width.
func (b Bounds) Height() uint64 { return span(b.MinY, b.MaxY) }

func span(lo, hi int) uint64 {
	d := uint64(hi) - uint64(lo)
	if d == math.MaxUint64 {
		return d
	}
	return d + 1
}

// SortCells orders cells by row, then column, in place.
//
// Index iteration order is unspecified; SortCells gives callers (CLI output,
// tests) a stable order.
func SortCells(cells []Cell) {
	sort.Slice(cells, func(i, j int) bool {
		if cells[i].Y != cells[j].Y {
			return cells[i].Y < cells[j].Y
		}
		return cells[i].X < cells[j].X
	})
}
