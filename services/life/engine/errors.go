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

import "errors"

// Sentinel errors for engine operations.
var (
	// ErrCancelled is returned when Advance stops because its context was
	// cancelled. The accompanying Outcome holds the generations completed.
	ErrCancelled = errors.New("advance cancelled")

	// ErrNilNode is returned when a positioned node has no node.
	ErrNilNode = errors.New("node must not be nil")

	// ErrLevelTooSmall is returned by Result for nodes below level 2, which
	// have no centre that can be advanced.
	ErrLevelTooSmall = errors.New("node level too small")

	// ErrLevelTooLarge is returned when a tree would exceed quadtree.MaxLevel.
	ErrLevelTooLarge = errors.New("node level too large")
)
