// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package flo

import "github.com/luxfi/flo/ident"

// CuckooLink records a parent/child relationship between two Flos, named
// for the cuckoo's habit of placing its eggs in another bird's nest: a
// child Flo is nested under its parent, but the two remain independently
// addressable and independently stored objects.
type CuckooLink struct {
	Parent ident.ID256 `msgpack:"parent"`
	Child  ident.ID256 `msgpack:"child"`
}

// CuckooIndex tracks the parent/child links known locally, letting storage
// list a Flo's children without scanning every object in a realm.
type CuckooIndex struct {
	childrenOf map[ident.ID256][]ident.ID256
	parentOf   map[ident.ID256]ident.ID256
}

// NewCuckooIndex returns an empty index.
func NewCuckooIndex() *CuckooIndex {
	return &CuckooIndex{
		childrenOf: make(map[ident.ID256][]ident.ID256),
		parentOf:   make(map[ident.ID256]ident.ID256),
	}
}

// Link records that child is nested under parent. Re-linking a child to a
// new parent removes the old link.
func (c *CuckooIndex) Link(parent, child ident.ID256) {
	if oldParent, ok := c.parentOf[child]; ok {
		c.unlink(oldParent, child)
	}
	c.parentOf[child] = parent
	c.childrenOf[parent] = append(c.childrenOf[parent], child)
}

func (c *CuckooIndex) unlink(parent, child ident.ID256) {
	children := c.childrenOf[parent]
	for i, id := range children {
		if id == child {
			c.childrenOf[parent] = append(children[:i], children[i+1:]...)
			break
		}
	}
	if len(c.childrenOf[parent]) == 0 {
		delete(c.childrenOf, parent)
	}
}

// Children returns the direct children known for parent.
func (c *CuckooIndex) Children(parent ident.ID256) []ident.ID256 {
	children := c.childrenOf[parent]
	out := make([]ident.ID256, len(children))
	copy(out, children)
	return out
}

// Parent returns the parent of child and whether one is known.
func (c *CuckooIndex) Parent(child ident.ID256) (ident.ID256, bool) {
	parent, ok := c.parentOf[child]
	return parent, ok
}

// Descendants returns every Flo reachable from root by following Children
// links transitively, root itself excluded. Storage does not call it:
// removing a Flo leaves its descendants stored.
func (c *CuckooIndex) Descendants(root ident.ID256) []ident.ID256 {
	var out []ident.ID256
	queue := c.Children(root)
	for len(queue) > 0 {
		next := queue[0]
		queue = queue[1:]
		out = append(out, next)
		queue = append(queue, c.Children(next)...)
	}
	return out
}
