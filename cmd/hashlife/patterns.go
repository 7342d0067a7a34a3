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
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/AleutianAI/AleutianLife/services/life/grid"
)

var errUnknownPattern = errors.New("unknown pattern")

// patterns are drawn with '#' for live cells, y growing downward.
var patterns = map[string]string{
	"block": `
##
##`,
	"blinker": `
###`,
	"glider": `
.#.
..#
###`,
	"rpentomino": `
.##
##.
.#.`,
	"diehard": `
......#.
##......
.#...###`,
	"acorn": `
.#.....
...#...
##..###`,
	"gosper": `
........................#...........
......................#.#...........
............##......##............##
...........#...#....##............##
##........#.....#...##..............
##........#...#.##....#.#...........
..........#.....#.......#...........
...........#...#....................
............##......................`,
}

func patternNames() []string {
	names := make([]string, 0, len(patterns))
	for name := range patterns {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// pattern returns the live cells of a built-in pattern.
func pattern(name string) ([]grid.Cell, error) {
	art, ok := patterns[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("%w %q (known: %s)", errUnknownPattern, name, strings.Join(patternNames(), ", "))
	}
	var cells []grid.Cell
	for y, row := range strings.Split(strings.TrimPrefix(art, "\n"), "\n") {
		for x, ch := range row {
			if ch == '#' {
				cells = append(cells, grid.Cell{X: x, Y: y})
			}
		}
	}
	return cells, nil
}

// loadCells resolves the starting population from --pattern or --input.
// An input of "-" reads stdin.
func loadCells(patternName, input string, stdin io.Reader) ([]grid.Cell, error) {
	if patternName != "" {
		return pattern(patternName)
	}

	var data []byte
	var err error
	if input == "" || input == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(input)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read cells: %w", err)
	}
	cells, err := grid.ParseCells(data)
	if err != nil {
		return nil, fmt.Errorf("cells must be a JSON array of coordinates: %w", err)
	}
	return cells, nil
}
