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

import "fmt"

// NodeID is the identity assigned to a canonical node at creation.
// IDs are issued monotonically from 1; 0 never names a node.
type NodeID uint64

// Key is the structural key a node is interned under.
//
// For leaves only Alive is meaningful. For internal nodes the key holds the
// level and the identities of the four children, so keys are cheap to build
// and compare regardless of subtree size.
type Key struct {
	Level int
	Alive bool
	NW    NodeID
	NE    NodeID
	SW    NodeID
	SE    NodeID
}

// String renders the key the way logs and debug output show it.
func (k Key) String() string {
	if k.Level == 0 {
		if k.Alive {
			return "L0:1"
		}
		return "L0:0"
	}
	return fmt.Sprintf("L%d:%d,%d,%d,%d", k.Level, k.NW, k.NE, k.SW, k.SE)
}

// Node is a canonical quadtree node covering a square of side 2^Level.
//
// Invariants:
//   - Level 0 nodes have no children; Alive holds the cell state
//   - A level-k node's children are all level k-1
//   - Never mutated after creation, except for the lazily cached population
type Node struct {
	id    NodeID
	key   Key
	level int
	alive bool

	nw, ne, sw, se *Node

	population int64
	popKnown   bool
}

// ID returns the node's identity.
func (n *Node) ID() NodeID { return n.id }

// Key returns the structural key the node is interned under.
func (n *Node) Key() Key { return n.key }

// Level returns log2 of the node's side.
func (n *Node) Level() int { return n.level }

// Size returns the side of the square the node covers.
func (n *Node) Size() int { return 1 << n.level }

// IsLeaf reports whether the node is a single cell.
func (n *Node) IsLeaf() bool { return n.level == 0 }

// Alive reports the state of a leaf. Always false for internal nodes.
func (n *Node) Alive() bool { return n.alive }

// NW returns the north-west child, or nil for a leaf.
func (n *Node) NW() *Node { return n.nw }

// NE returns the north-east child, or nil for a leaf.
func (n *Node) NE() *Node { return n.ne }

// SW returns the south-west child, or nil for a leaf.
func (n *Node) SW() *Node { return n.sw }

// SE returns the south-east child, or nil for a leaf.
func (n *Node) SE() *Node { return n.se }

// Population returns the number of live cells under the node.
//
// Description:
//
//	Leaves answer directly. Internal nodes sum their children on first
//	access and cache the result on the node. Canonical sharing means each
//	distinct subtree is summed once.
//
// Thread Safety: NOT safe for concurrent first access. See package docs.
func (n *Node) Population() int64 {
	if n.popKnown {
		return n.population
	}
	if n.level == 0 {
		if n.alive {
			n.population = 1
		}
	} else {
		n.population = n.nw.Population() + n.ne.Population() + n.sw.Population() + n.se.Population()
	}
	n.popKnown = true
	return n.population
}

// IsEmpty reports whether no cell under the node is alive.
func (n *Node) IsEmpty() bool { return n.Population() == 0 }

// Positioned pairs a canonical node with the absolute coordinates of its
// north-west corner.
type Positioned struct {
	Node *Node
	X    int
	Y    int
}

// Level returns the level of the positioned node.
func (p Positioned) Level() int { return p.Node.level }

// Quadrants returns the four children positioned at their absolute origins.
// Must not be called on a leaf.
func (p Positioned) Quadrants() (nw, ne, sw, se Positioned) {
	half := 1 << (p.Node.level - 1)
	n := p.Node
	return Positioned{Node: n.nw, X: p.X, Y: p.Y},
		Positioned{Node: n.ne, X: p.X + half, Y: p.Y},
		Positioned{Node: n.sw, X: p.X, Y: p.Y + half},
		Positioned{Node: n.se, X: p.X + half, Y: p.Y + half}
}

// CenterOrigin returns the origin of the centred sub-square one level down:
// the parent's origin plus a quarter of its side. Level must be >= 2.
func (p Positioned) CenterOrigin() (int, int) {
	q := 1 << (p.Node.level - 2)
	return p.X + q, p.Y + q
}
