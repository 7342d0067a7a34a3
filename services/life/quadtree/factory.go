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

// Factory creates and interns canonical nodes.
//
// Description:
//
//	Every constructor computes the structural key from its inputs, returns
//	the interned node if one exists, and otherwise creates the node with the
//	next identity and stores it. Entries are never evicted individually;
//	Clear drops the whole table.
//
// Thread Safety: NOT safe for concurrent use.
type Factory struct {
	nodes   map[Key]*Node
	empties []*Node
	nextID  NodeID

	hits    int64
	created int64
}

// FactoryStats is a snapshot of interning activity since the last Clear.
type FactoryStats struct {
	Nodes   int   // Interned nodes currently in the table
	Hits    int64 // Constructor calls answered from the table
	Created int64 // Constructor calls that created a node
}

// NewFactory creates an empty factory.
func NewFactory() *Factory {
	f := &Factory{}
	f.Clear()
	return f
}

// Leaf returns the canonical level-0 node for the given state.
func (f *Factory) Leaf(alive bool) *Node {
	key := Key{Alive: alive}
	if n, ok := f.nodes[key]; ok {
		f.hits++
		return n
	}
	n := &Node{id: f.issue(), key: key, alive: alive, popKnown: true}
	if alive {
		n.population = 1
	}
	f.nodes[key] = n
	return n
}

// Join returns the canonical node with the given children.
//
// Description:
//
//	The level is derived from the children (one greater than theirs), so a
//	node can never disagree with its subtree about its size.
//
// Inputs:
//   - nw, ne, sw, se: Children. Must be non-nil and of equal level.
//
// Outputs:
//   - *Node: The canonical node. Never nil.
//
// Panics if a child is nil or the children's levels differ. Both are
// programming errors inside the engine, not reachable from user input.
func (f *Factory) Join(nw, ne, sw, se *Node) *Node {
	if nw == nil || ne == nil || sw == nil || se == nil {
		panic("quadtree: Join with nil child")
	}
	if nw.level != ne.level || nw.level != sw.level || nw.level != se.level {
		panic(fmt.Sprintf("quadtree: Join with mismatched levels %d,%d,%d,%d",
			nw.level, ne.level, sw.level, se.level))
	}

	key := Key{Level: nw.level + 1, NW: nw.id, NE: ne.id, SW: sw.id, SE: se.id}
	if n, ok := f.nodes[key]; ok {
		f.hits++
		return n
	}
	n := &Node{
		id:    f.issue(),
		key:   key,
		level: key.Level,
		nw:    nw,
		ne:    ne,
		sw:    sw,
		se:    se,
	}
	f.nodes[key] = n
	return n
}

// Empty returns the canonical all-dead node of the given level.
func (f *Factory) Empty(level int) *Node {
	if level < 0 {
		panic(fmt.Sprintf("quadtree: Empty with negative level %d", level))
	}
	for len(f.empties) <= level {
		if len(f.empties) == 0 {
			f.empties = append(f.empties, f.Leaf(false))
			continue
		}
		c := f.empties[len(f.empties)-1]
		f.empties = append(f.empties, f.Join(c, c, c, c))
	}
	return f.empties[level]
}

// Expand embeds p as the centre of a node one level larger, surrounded by
// empty space. The result's origin is p's origin minus half p's side.
// p must be at least level 1.
func (f *Factory) Expand(p Positioned) Positioned {
	n := p.Node
	if n.level < 1 {
		panic("quadtree: Expand on a leaf")
	}
	e := f.Empty(n.level - 1)
	half := 1 << (n.level - 1)
	return Positioned{
		Node: f.Join(
			f.Join(e, e, e, n.nw),
			f.Join(e, e, n.ne, e),
			f.Join(e, n.sw, e, e),
			f.Join(n.se, e, e, e),
		),
		X: p.X - half,
		Y: p.Y - half,
	}
}

// Clear drops every interned node and restarts identities at 1.
//
// Nodes issued before Clear must not be passed back to the factory.
func (f *Factory) Clear() {
	f.nodes = make(map[Key]*Node)
	f.empties = nil
	f.nextID = 0
	f.hits = 0
	f.created = 0
}

// Len returns the number of interned nodes.
func (f *Factory) Len() int {
	return len(f.nodes)
}

// Stats returns interning counters since the last Clear.
func (f *Factory) Stats() FactoryStats {
	return FactoryStats{Nodes: len(f.nodes), Hits: f.hits, Created: f.created}
}

func (f *Factory) issue() NodeID {
	f.nextID++
	f.created++
	return f.nextID
}
