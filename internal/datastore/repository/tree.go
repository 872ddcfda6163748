package repository

import (
	"slices"

	"github.com/tphakala/lifelist/internal/datastore/entities"
)

// Arena is an in-memory view of a self-referencing hierarchy. Nodes are kept
// by id; edges live in parent and child id indexes rather than pointers, so
// the structure holds no reference cycles. A node may have several parents.
type Arena[T any] struct {
	nodes    map[uint]T
	order    []uint
	parents  map[uint][]uint
	children map[uint][]uint
}

// NewArena creates an empty arena.
func NewArena[T any]() *Arena[T] {
	return &Arena[T]{
		nodes:    make(map[uint]T),
		parents:  make(map[uint][]uint),
		children: make(map[uint][]uint),
	}
}

// Add stores a node. Re-adding an id replaces the node and keeps its edges.
func (a *Arena[T]) Add(id uint, node T) {
	if _, ok := a.nodes[id]; !ok {
		a.order = append(a.order, id)
	}
	a.nodes[id] = node
}

// Link records a parent to child edge. Repeated edges are ignored.
func (a *Arena[T]) Link(parentID, childID uint) {
	if slices.Contains(a.children[parentID], childID) {
		return
	}
	a.children[parentID] = append(a.children[parentID], childID)
	a.parents[childID] = append(a.parents[childID], parentID)
}

// Len returns the number of nodes.
func (a *Arena[T]) Len() int {
	return len(a.nodes)
}

// Node returns the node stored under id.
func (a *Arena[T]) Node(id uint) (T, bool) {
	n, ok := a.nodes[id]
	return n, ok
}

// Children returns the direct child ids of id in insertion order.
func (a *Arena[T]) Children(id uint) []uint {
	return slices.Clone(a.children[id])
}

// Parents returns the direct parent ids of id.
func (a *Arena[T]) Parents(id uint) []uint {
	return slices.Clone(a.parents[id])
}

// Roots returns the ids of nodes without a parent present in the arena.
func (a *Arena[T]) Roots() []uint {
	var roots []uint
	for _, id := range a.order {
		hasParent := false
		for _, p := range a.parents[id] {
			if _, ok := a.nodes[p]; ok {
				hasParent = true
				break
			}
		}
		if !hasParent {
			roots = append(roots, id)
		}
	}
	return roots
}

// Walk visits every node depth first from the roots, children in insertion
// order. Each node is visited once even when reachable along several paths
// or through a cycle. Returning false from fn stops the walk.
func (a *Arena[T]) Walk(fn func(id uint, node T, depth int) bool) {
	visited := make(map[uint]bool, len(a.nodes))

	var visit func(id uint, depth int) bool
	visit = func(id uint, depth int) bool {
		if visited[id] {
			return true
		}
		visited[id] = true
		node, ok := a.nodes[id]
		if !ok {
			return true
		}
		if !fn(id, node, depth) {
			return false
		}
		for _, child := range a.children[id] {
			if !visit(child, depth+1) {
				return false
			}
		}
		return true
	}

	for _, id := range a.Roots() {
		if !visit(id, 0) {
			return
		}
	}
	// nodes only reachable through a cycle have no root
	for _, id := range a.order {
		if !visit(id, 0) {
			return
		}
	}
}

// ClassificationTree is the arena of one classification's entries.
type ClassificationTree = Arena[*entities.ClassificationEntry]

// TagForest is the arena of all tags and their relations.
type TagForest = Arena[*entities.Tag]
