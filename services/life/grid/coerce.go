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
	"errors"
	"math"
	"strconv"
	"strings"
)

// ErrInvalidCell is returned by Cell.UnmarshalJSON for input that is not a
// coordinate in any accepted form. Coerce itself never returns an error.
var ErrInvalidCell = errors.New("invalid cell coordinate")

// keySeparator separates x and y in the string form of a coordinate.
const keySeparator = ","

// Coerce converts a coordinate in any accepted external form into a Cell.
//
// Description:
//
//	Renderers, script engines and JSON payloads use different coordinate
//	conventions. Coerce is the single place those conventions are mapped to
//	Cell. Accepted forms:
//
//	| Form                         | Example              |
//	|------------------------------|----------------------|
//	| Cell, *Cell                  | Cell{X: 1, Y: 2}     |
//	| "x,y" string                 | "1,2"                |
//	| [2]int, []int, []int64       | []int{1, 2}          |
//	| []float64, []any             | []any{1.0, 2.0}      |
//	| map[string]any with x and y  | {"x": 1, "y": 2}     |
//
// Inputs:
//   - v: The value to convert.
//
// Outputs:
//   - Cell: The coordinate.
//   - bool: False if v is not a finite, integral coordinate pair.
//
// Thread Safety: Safe for concurrent use (pure function).
func Coerce(v any) (Cell, bool) {
	switch t := v.(type) {
	case Cell:
		return t, true
	case *Cell:
		if t == nil {
			return Cell{}, false
		}
		return *t, true
	case string:
		return parseKey(t)
	case [2]int:
		return Cell{X: t[0], Y: t[1]}, true
	case []int:
		if len(t) < 2 {
			return Cell{}, false
		}
		return Cell{X: t[0], Y: t[1]}, true
	case []int64:
		if len(t) < 2 {
			return Cell{}, false
		}
		return pair(t[0], t[1])
	case []float64:
		if len(t) < 2 {
			return Cell{}, false
		}
		return pair(t[0], t[1])
	case []any:
		if len(t) < 2 {
			return Cell{}, false
		}
		return pair(t[0], t[1])
	case map[string]any:
		x, okX := t["x"]
		y, okY := t["y"]
		if !okX || !okY {
			return Cell{}, false
		}
		return pair(x, y)
	default:
		return Cell{}, false
	}
}

// FromAny builds an index from heterogeneous coordinates, dropping any value
// Coerce rejects.
func FromAny(values []any) *Index {
	idx := NewIndex()
	for _, v := range values {
		if c, ok := Coerce(v); ok {
			idx.SetAlive(c, true)
		}
	}
	return idx
}

// ParseCells decodes a JSON array of coordinates in any accepted form.
//
// Entries that are not coordinates are dropped. A payload that is not a JSON
// array is an error.
func ParseCells(data []byte) ([]Cell, error) {
	var raw []any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	return FromAny(raw).Cells(), nil
}

func parseKey(s string) (Cell, bool) {
	parts := strings.Split(s, keySeparator)
	if len(parts) != 2 {
		return Cell{}, false
	}
	x, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return Cell{}, false
	}
	y, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return Cell{}, false
	}
	return pair(x, y)
}

func pair(x, y any) (Cell, bool) {
	cx, ok := toInt(x)
	if !ok {
		return Cell{}, false
	}
	cy, ok := toInt(y)
	if !ok {
		return Cell{}, false
	}
	return Cell{X: cx, Y: cy}, true
}

// toInt accepts integral finite numbers only.
func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int32:
		return int(n), true
	case int64:
		return int(n), true
	case float64:
		return floatToInt(n)
	case float32:
		return floatToInt(float64(n))
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return int(i), true
		}
		f, err := n.Float64()
		if err != nil {
			return 0, false
		}
		return floatToInt(f)
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, false
		}
		return floatToInt(f)
	default:
		return 0, false
	}
}

func floatToInt(f float64) (int, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, false
	}
	if f >= math.MaxInt64 || f < math.MinInt64 {
		return 0, false
	}
	return int(f), true
}
