package tree

import (
	"fmt"
)

// --------------------------------------------------------------------------
// Helper Types
// --------------------------------------------------------------------------

// NodeID identifies a single node in a Tree. IDs are never reused
// for the lifetime of the tree.
type NodeID uint64

// RootID is the well-known ID of the root node of every tree.
const RootID NodeID = 1

// node is the internal arena entry. Nodes reference each other exclusively
// via NodeIDs so the structure can be mutated safely while iterating.
type node[V any] struct {
	value    V
	parent   NodeID
	segment  string
	children map[string]NodeID
}

// --------------------------------------------------------------------------
// Tree
// --------------------------------------------------------------------------

// Tree is an arena-allocated tree with string-labeled edges. Each node
// holds one value of type V. The zero Tree is not usable, create instances
// with New.
//
// Thread-safety: Tree performs no locking of its own. Callers are expected
// to serialize access (see the locksys package for how this is done).
type Tree[V any] struct {
	nodes  map[NodeID]*node[V]
	nextID NodeID
}

// New creates a new Tree with the given value stored at the root node.
func New[V any](rootValue V) *Tree[V] {
	t := &Tree[V]{
		nodes:  make(map[NodeID]*node[V]),
		nextID: RootID,
	}
	t.alloc(0, "", rootValue)
	return t
}

// alloc places a new node into the arena and returns its ID.
func (t *Tree[V]) alloc(parent NodeID, segment string, value V) NodeID {
	id := t.nextID
	t.nextID++
	t.nodes[id] = &node[V]{
		value:    value,
		parent:   parent,
		segment:  segment,
		children: make(map[string]NodeID),
	}
	return id
}

// get returns the arena entry for an ID. A missing entry for an ID handed
// out earlier is an internal invariant violation, callers that require the
// node to exist use mustGet instead.
func (t *Tree[V]) get(id NodeID) (*node[V], bool) {
	n, ok := t.nodes[id]
	return n, ok
}

// mustGet panics if the node does not exist. Used on paths where the ID was
// obtained from the tree itself and absence means corrupted state.
func (t *Tree[V]) mustGet(id NodeID) *node[V] {
	n, ok := t.nodes[id]
	if !ok {
		panic(fmt.Sprintf("tree: node %d does not exist", id))
	}
	return n
}

// --------------------------------------------------------------------------
// Lookup Operations
// --------------------------------------------------------------------------

// Child returns the ID of the child of parent reached via the given edge
// segment. The boolean indicates whether such a child exists.
func (t *Tree[V]) Child(parent NodeID, segment string) (NodeID, bool) {
	n, ok := t.get(parent)
	if !ok {
		return 0, false
	}
	id, ok := n.children[segment]
	return id, ok
}

// Value returns a mutable view of the value stored at the node.
// The boolean indicates whether the node exists.
func (t *Tree[V]) Value(id NodeID) (*V, bool) {
	n, ok := t.get(id)
	if !ok {
		return nil, false
	}
	return &n.value, true
}

// Children returns the (segment, NodeID) pairs of all children of the node.
// The returned map is a copy and safe to iterate while mutating the tree.
func (t *Tree[V]) Children(id NodeID) map[string]NodeID {
	n, ok := t.get(id)
	if !ok {
		return nil
	}
	children := make(map[string]NodeID, len(n.children))
	for seg, childID := range n.children {
		children[seg] = childID
	}
	return children
}

// Size returns the number of nodes in the tree (the root included).
func (t *Tree[V]) Size() int {
	return len(t.nodes)
}

// --------------------------------------------------------------------------
// Mutating Operations
// --------------------------------------------------------------------------

// AddChild creates a child of parent reachable via the given edge segment
// and returns its ID. If such a child already exists, the existing ID is
// returned and the value is left untouched (idempotent creation).
func (t *Tree[V]) AddChild(parent NodeID, segment string, value V) (NodeID, error) {
	n, ok := t.get(parent)
	if !ok {
		return 0, fmt.Errorf("tree: parent node %d does not exist", parent)
	}
	if id, ok := n.children[segment]; ok {
		return id, nil
	}
	id := t.alloc(parent, segment, value)
	n.children[segment] = id
	return id, nil
}

// DeleteNode removes a single leaf node from the tree. It refuses to remove
// the root and refuses to remove a node that still has children, the node is
// kept as a bare intermediate in that case.
func (t *Tree[V]) DeleteNode(id NodeID) error {
	if id == RootID {
		return fmt.Errorf("tree: cannot delete the root node")
	}
	n, ok := t.get(id)
	if !ok {
		return fmt.Errorf("tree: node %d does not exist", id)
	}
	if len(n.children) > 0 {
		return fmt.Errorf("tree: node %d still has children", id)
	}
	parent := t.mustGet(n.parent)
	delete(parent.children, n.segment)
	delete(t.nodes, id)
	return nil
}

// DeleteSubtree removes the node and everything beneath it, unconditionally.
// Deleting the subtree of the root clears the whole tree: all children are
// removed and the root value is reset to the zero value.
func (t *Tree[V]) DeleteSubtree(id NodeID) error {
	n, ok := t.get(id)
	if !ok {
		return fmt.Errorf("tree: node %d does not exist", id)
	}

	// Unlink first, then reap the subtree iteratively.
	if id == RootID {
		var zero V
		n.value = zero
	} else {
		parent := t.mustGet(n.parent)
		delete(parent.children, n.segment)
	}

	pending := make([]NodeID, 0, len(n.children))
	for _, childID := range n.children {
		pending = append(pending, childID)
	}
	if id != RootID {
		delete(t.nodes, id)
	} else {
		n.children = make(map[string]NodeID)
	}

	for len(pending) > 0 {
		curr := pending[len(pending)-1]
		pending = pending[:len(pending)-1]
		c := t.mustGet(curr)
		for _, childID := range c.children {
			pending = append(pending, childID)
		}
		delete(t.nodes, curr)
	}
	return nil
}
