// Package dbvt implements the C7 Dynamic Bounding Volume Tree: a binary
// tree of geom.AABB bounding volumes with online Insert/Remove and
// top-down visitor queries, amortising broad-phase cost across frames
// instead of rebuilding from scratch.
//
// The source's raw-pointer ownership graph (internal nodes holding
// @mut-references to parent/children, per original_source's
// partitioning/dbvt.rs) is replaced by the arena realisation §9's Design
// Notes call for: nodes live in a growing slice, a freelist recycles
// removed slots, and LeafId/internal indices are the stable "pointers".
// This keeps O(1) parent lookup without a garbage collector having to
// trace a cycle of back-references.
package dbvt

import (
	"errors"

	"github.com/dimforge/ncollide-go/geom"
)

// ErrUnknownLeaf is the fatal contract-violation error (§7) returned when
// a caller presents a LeafId that does not name a live leaf — e.g.
// because it was already removed.
var ErrUnknownLeaf = errors.New("dbvt: leaf id does not name a live leaf")

var (
	errContainment = errors.New("dbvt: internal node does not contain a child's bounding volume")
	errParenthood  = errors.New("dbvt: child's parent pointer does not reference its parent")
)

// LeafId is an opaque, stable handle to a leaf: valid from the moment
// Insert returns it until the matching Remove call, per §3.
type LeafId int32

const nilIndex int32 = -1

type nodeKind uint8

const (
	nodeFree nodeKind = iota
	nodeInternal
	nodeLeaf
)

// node is the arena slot shared by both internal and leaf nodes; kind
// discriminates which fields are meaningful, mirroring the source's
// DBVTNode enum without the pointer indirection.
type node[T any] struct {
	kind   nodeKind
	bv     geom.AABB
	parent int32

	// internal-only
	left, right int32
	needsShrink bool

	// leaf-only
	data T
}

// Tree is a Dynamic Bounding Volume Tree over payload type T, instantiated
// on geom.AABB per §3's "typical instantiation: axis-aligned box".
type Tree[T any] struct {
	nodes []node[T]
	free  []int32
	root  int32
	count int
}

// New returns an empty tree.
func New[T any]() *Tree[T] {
	return &Tree[T]{root: nilIndex}
}

// Len reports the number of leaves currently in the tree.
func (t *Tree[T]) Len() int { return t.count }

// Empty reports whether the tree holds no leaves.
func (t *Tree[T]) Empty() bool { return t.root == nilIndex }

func (t *Tree[T]) alloc() int32 {
	if n := len(t.free); n > 0 {
		idx := t.free[n-1]
		t.free = t.free[:n-1]
		return idx
	}
	t.nodes = append(t.nodes, node[T]{})
	return int32(len(t.nodes) - 1)
}

func (t *Tree[T]) release(idx int32) {
	var zero node[T]
	zero.kind = nodeFree
	t.nodes[idx] = zero
	t.free = append(t.free, idx)
}

func (t *Tree[T]) isLive(idx int32) bool {
	return idx >= 0 && int(idx) < len(t.nodes) && t.nodes[idx].kind != nodeFree
}

// Insert adds a new leaf with bounding volume bv and payload data,
// descending from the root and choosing at each internal node the child
// whose bounding volume centre is closest to bv's centre, merging bv into
// every internal node visited on the way down (§4.7 Insert). O(depth).
func (t *Tree[T]) Insert(bv geom.AABB, data T) LeafId {
	idx := t.alloc()
	t.nodes[idx] = node[T]{kind: nodeLeaf, bv: bv, parent: nilIndex, data: data}
	t.count++

	if t.root == nilIndex {
		t.root = idx
		return LeafId(idx)
	}

	cur := t.root
	for t.nodes[cur].kind == nodeInternal {
		n := &t.nodes[cur]
		n.bv.Merge(bv)
		leftBV, rightBV := t.nodes[n.left].bv, t.nodes[n.right].bv
		if leftBV.Center().Sub(bv.Center()).LenSqr() <= rightBV.Center().Sub(bv.Center()).LenSqr() {
			cur = n.left
		} else {
			cur = n.right
		}
	}

	// cur is a leaf: replace it with a new internal node holding the old
	// leaf and the new leaf as children, per §4.7.
	sibling := cur
	parent := t.nodes[sibling].parent
	merged := t.nodes[sibling].bv.Merged(bv)

	internalIdx := t.alloc()
	t.nodes[internalIdx] = node[T]{kind: nodeInternal, bv: merged, parent: parent, left: sibling, right: idx}
	t.nodes[sibling].parent = internalIdx
	t.nodes[idx].parent = internalIdx

	if parent == nilIndex {
		t.root = internalIdx
	} else {
		p := &t.nodes[parent]
		if p.left == sibling {
			p.left = internalIdx
		} else {
			p.right = internalIdx
		}
	}

	return LeafId(idx)
}

// Remove detaches the leaf id, returning its payload. The sibling takes
// the removed leaf's place in the grandparent, and the grandparent is
// marked needs-shrink so its bounding volume is lazily recomputed on the
// next visit that reaches it (§4.7 Remove, §9 "needs-shrink propagates
// lazily"). O(depth).
func (t *Tree[T]) Remove(id LeafId) (T, error) {
	idx := int32(id)
	var zero T
	if !t.isLive(idx) || t.nodes[idx].kind != nodeLeaf {
		return zero, ErrUnknownLeaf
	}

	data := t.nodes[idx].data
	parent := t.nodes[idx].parent
	t.release(idx)
	t.count--

	if parent == nilIndex {
		t.root = nilIndex
		return data, nil
	}

	p := t.nodes[parent]
	var sibling int32
	if p.left == idx {
		sibling = p.right
	} else {
		sibling = p.left
	}
	grandparent := p.parent
	t.nodes[sibling].parent = grandparent

	if grandparent == nilIndex {
		t.root = sibling
	} else {
		gp := &t.nodes[grandparent]
		if gp.left == parent {
			gp.left = sibling
		} else {
			gp.right = sibling
		}
		gp.needsShrink = true
	}
	t.release(parent)

	return data, nil
}

// LeafBV returns the current bounding volume of leaf id.
func (t *Tree[T]) LeafBV(id LeafId) (geom.AABB, bool) {
	idx := int32(id)
	if !t.isLive(idx) || t.nodes[idx].kind != nodeLeaf {
		return geom.AABB{}, false
	}
	return t.nodes[idx].bv, true
}

// LeafData returns the current payload of leaf id.
func (t *Tree[T]) LeafData(id LeafId) (T, bool) {
	idx := int32(id)
	var zero T
	if !t.isLive(idx) || t.nodes[idx].kind != nodeLeaf {
		return zero, false
	}
	return t.nodes[idx].data, true
}

// RootBV returns the bounding volume at the root, refreshing any pending
// shrink along the way, or false if the tree is empty.
func (t *Tree[T]) RootBV() (geom.AABB, bool) {
	if t.root == nilIndex {
		return geom.AABB{}, false
	}
	return t.refitAndBV(t.root), true
}

func (t *Tree[T]) refitAndBV(idx int32) geom.AABB {
	n := &t.nodes[idx]
	if n.kind == nodeInternal && n.needsShrink {
		n.bv = t.nodes[n.left].bv.Merged(t.nodes[n.right].bv)
		n.needsShrink = false
	}
	return n.bv
}
