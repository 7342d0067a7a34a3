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
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCoerce(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want Cell
		ok   bool
	}{
		{"cell", Cell{X: 1, Y: 2}, Cell{X: 1, Y: 2}, true},
		{"cell pointer", &Cell{X: -1, Y: 0}, Cell{X: -1, Y: 0}, true},
		{"nil cell pointer", (*Cell)(nil), Cell{}, false},
		{"key string", "3,-4", Cell{X: 3, Y: -4}, true},
		{"key string with spaces", " 3 , 4 ", Cell{X: 3, Y: 4}, true},
		{"key string with three parts", "1,2,3", Cell{}, false},
		{"key string not numeric", "a,b", Cell{}, false},
		{"array", [2]int{5, 6}, Cell{X: 5, Y: 6}, true},
		{"int slice", []int{7, 8}, Cell{X: 7, Y: 8}, true},
		{"short int slice", []int{7}, Cell{}, false},
		{"float slice", []float64{1, 2}, Cell{X: 1, Y: 2}, true},
		{"fractional float", []float64{1.5, 2}, Cell{}, false},
		{"NaN", []float64{math.NaN(), 2}, Cell{}, false},
		{"infinity", []any{math.Inf(1), 2.0}, Cell{}, false},
		{"any pair", []any{1.0, -2.0}, Cell{X: 1, Y: -2}, true},
		{"object", map[string]any{"x": 4.0, "y": 5.0}, Cell{X: 4, Y: 5}, true},
		{"object with string numbers", map[string]any{"x": "4", "y": "5"}, Cell{X: 4, Y: 5}, true},
		{"object missing y", map[string]any{"x": 4.0}, Cell{}, false},
		{"nil", nil, Cell{}, false},
		{"unsupported type", 42, Cell{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Coerce(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFromAny_DropsMalformed(t *testing.T) {
	idx := FromAny([]any{"0,0", []any{1.0, 1.0}, "junk", map[string]any{"x": 2.0, "y": 2.0}, nil, "0,0"})

	assert.Equal(t, 3, idx.Len())
	assert.True(t, idx.IsAlive(Cell{X: 0, Y: 0}))
	assert.True(t, idx.IsAlive(Cell{X: 1, Y: 1}))
	assert.True(t, idx.IsAlive(Cell{X: 2, Y: 2}))
}

func TestParseCells(t *testing.T) {
	t.Run("mixed forms", func(t *testing.T) {
		cells, err := ParseCells([]byte(`[{"x":1,"y":2},[3,4],"5,6",{"x":"bad"}]`))
		require.NoError(t, err)
		assert.ElementsMatch(t, []Cell{{X: 1, Y: 2}, {X: 3, Y: 4}, {X: 5, Y: 6}}, cells)
	})

	t.Run("not an array", func(t *testing.T) {
		_, err := ParseCells([]byte(`{"x":1}`))
		assert.Error(t, err)
	})
}

func TestCell_JSON(t *testing.T) {
	t.Run("marshal uses object form", func(t *testing.T) {
		data, err := json.Marshal(Cell{X: 1, Y: -2})
		require.NoError(t, err)
		assert.JSONEq(t, `{"x":1,"y":-2}`, string(data))
	})

	t.Run("unmarshal accepts every form", func(t *testing.T) {
		var cells []Cell
		require.NoError(t, json.Unmarshal([]byte(`[{"x":1,"y":2},[3,4],"5,6"]`), &cells))
		assert.Equal(t, []Cell{{X: 1, Y: 2}, {X: 3, Y: 4}, {X: 5, Y: 6}}, cells)
	})

	t.Run("unmarshal rejects garbage", func(t *testing.T) {
		var c Cell
		err := json.Unmarshal([]byte(`"nope"`), &c)
		assert.ErrorIs(t, err, ErrInvalidCell)
	})
}
