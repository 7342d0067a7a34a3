// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package engine implements the Hashlife macro-step algorithm over canonical
// quadtrees.
//
// # Overview
//
// A level-k node covers a 2^k square. Its centred level-(k-1) square after
// 2^(k-2) generations depends only on the node's own contents (cells travel
// at most one cell per generation), so that future can be computed once per
// distinct node and cached by node identity. Result does exactly that,
// recursively:
//
//	+----+----+----+      nine overlapping level-(k-1) blocks,
//	| 00 | 01 | 02 |      each advanced by Result; the four
//	+----+----+----+      output quadrants are composed from
//	| 10 | 11 | 12 |      the adjoining parts of four
//	+----+----+----+      neighbouring sub-results
//	| 20 | 21 | 22 |
//	+----+----+----+
//
// Small nodes (level 2) are brute-forced with the rule package.
//
// # Memo Tables
//
// An Engine owns two tables: the node factory's hash-consing table and the
// result table. Result keys hold a node identity and a step exponent and
// never a position; origins of results are computed arithmetically by the
// caller. Tables grow until ClearCache. Call ClearCache between unrelated
// sessions.
//
// # Advancing Patterns
//
// Advance moves an arbitrary cell list forward n generations: it repeatedly
// builds the smallest tree holding the pattern and, while the tree's side
// fits in the remaining count, applies a full-region step of 2^level
// generations. The remainder is brute-forced in one pass.
//
// # Thread Safety
//
// Engine methods are safe for concurrent use; calls are serialized on the
// engine's lock. The stepper itself is single-threaded and never suspends.
// Default returns a process-wide engine.
package engine
