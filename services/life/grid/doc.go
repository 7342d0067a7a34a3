// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package grid provides the flat, boundary-facing representation of a
// Life pattern: a sparse set of live cell coordinates.
//
// # Overview
//
// Index groups live cells by column (x) and stores each column as a set of
// row coordinates (y). It is the authoritative form at the system boundary:
// patterns arrive as cell lists, are seeded into quadtrees from an Index, and
// come back out of the engine as cell lists again.
//
// # Coordinates
//
// Inside the package every coordinate is a Cell. Callers that hold
// coordinates in other shapes ("x,y" strings, [x, y] pairs, {"x":…,"y":…}
// objects) convert them with Coerce or FromAny at the edge. Malformed input
// is dropped rather than reported; this is the documented normalization
// policy, not an error path.
//
// # Thread Safety
//
// Index is NOT safe for concurrent mutation. Readers may share an Index that
// is no longer being written; writers that need a private copy call Clone.
package grid
