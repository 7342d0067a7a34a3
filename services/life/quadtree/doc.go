// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package quadtree provides canonical (hash-consed) quadtree nodes over a
// sparse Life grid, and conversion between cell lists and trees.
//
// # Canonical Nodes
//
// A Node of level k covers a square of side 2^k. Level 0 nodes are single
// cells. Nodes are created only through a Factory, which interns them by
// structural Key (level plus the identities of the four children), so two
// structurally identical subtrees are always the same *Node. Node equality is
// therefore pointer equality, and a node's identity is a valid memoization
// key for anything that depends only on its content.
//
// # Positions
//
// Nodes carry no position: the same canonical shape can occur anywhere on the
// grid. Positioned pairs a node with the absolute coordinates of its
// north-west corner. Origins of derived regions are always computed
// arithmetically from the parent's origin, never stored in a node.
//
// # Ownership Model
//
// Nodes are immutable once created and live as long as their Factory's
// table. After Factory.Clear, previously issued nodes must not be passed
// back to the factory: their identities may be reissued.
//
// # Thread Safety
//
// Factory is NOT safe for concurrent use. The engine confines each factory
// to a single goroutine at a time.
package quadtree
