package dbvt

import (
	"github.com/dimforge/ncollide-go/geom"
	"github.com/go-gl/mathgl/mgl64"
)

// Visitor is the top-down recursion contract of §4.7 "Visit": VisitInternal
// gates recursion into a subtree (returning false prunes it), VisitLeaf is
// called on every leaf whose ancestors all returned true.
type Visitor[T any] interface {
	VisitInternal(bv geom.AABB) bool
	VisitLeaf(data T, bv geom.AABB)
}

// Visit walks the tree top-down, lazily refitting any ancestor marked
// needs-shrink as it is reached (§9).
func (t *Tree[T]) Visit(v Visitor[T]) {
	if t.root == nilIndex {
		return
	}
	t.visit(t.root, v)
}

func (t *Tree[T]) visit(idx int32, v Visitor[T]) {
	n := &t.nodes[idx]
	if n.kind == nodeInternal {
		bv := t.refitAndBV(idx)
		if v.VisitInternal(bv) {
			left, right := n.left, n.right
			t.visit(left, v)
			t.visit(right, v)
		}
		return
	}
	v.VisitLeaf(n.data, n.bv)
}

// aabbOverlapVisitor collects every leaf whose bounding volume intersects
// a query bounding volume (§4.7 "AABB overlap" specialised visitor).
type aabbOverlapVisitor[T any] struct {
	query geom.AABB
	out   func(T)
}

func (v *aabbOverlapVisitor[T]) VisitInternal(bv geom.AABB) bool { return bv.Intersects(v.query) }
func (v *aabbOverlapVisitor[T]) VisitLeaf(data T, bv geom.AABB) {
	if bv.Intersects(v.query) {
		v.out(data)
	}
}

// VisitOverlapping calls out for every leaf whose bounding volume
// intersects bv.
func (t *Tree[T]) VisitOverlapping(bv geom.AABB, out func(T)) {
	t.Visit(&aabbOverlapVisitor[T]{query: bv, out: out})
}

// rayVisitor collects every leaf a ray may hit (§4.7 "ray interference").
type rayVisitor[T any] struct {
	ray    geom.Ray
	maxToi float64
	out    func(T)
}

func (v *rayVisitor[T]) VisitInternal(bv geom.AABB) bool {
	t, hit := bv.IntersectsRay(v.ray)
	return hit && t <= v.maxToi
}

func (v *rayVisitor[T]) VisitLeaf(data T, bv geom.AABB) {
	if t, hit := bv.IntersectsRay(v.ray); hit && t <= v.maxToi {
		v.out(data)
	}
}

// VisitRay calls out for every leaf whose bounding volume the ray may
// intersect within [0, maxToi].
func (t *Tree[T]) VisitRay(ray geom.Ray, maxToi float64, out func(T)) {
	t.Visit(&rayVisitor[T]{ray: ray, maxToi: maxToi, out: out})
}

// pointVisitor collects every leaf containing a point (§4.7 "point
// interference").
type pointVisitor[T any] struct {
	point mgl64.Vec3
	out   func(T)
}

func (v *pointVisitor[T]) VisitInternal(bv geom.AABB) bool { return bv.ContainsPoint(v.point) }
func (v *pointVisitor[T]) VisitLeaf(data T, bv geom.AABB) {
	if bv.ContainsPoint(v.point) {
		v.out(data)
	}
}

// VisitPoint calls out for every leaf whose bounding volume contains
// point.
func (t *Tree[T]) VisitPoint(point mgl64.Vec3, out func(T)) {
	t.Visit(&pointVisitor[T]{point: point, out: out})
}

// CheckInvariant verifies the two universally quantified DBVT properties
// of §8: every internal node's bounding volume contains both its
// children's, and every non-root node's parent references it as a child.
// Intended for tests, not the hot path.
func (t *Tree[T]) CheckInvariant() error {
	if t.root == nilIndex {
		return nil
	}
	return t.checkInvariant(t.root)
}

func (t *Tree[T]) checkInvariant(idx int32) error {
	n := &t.nodes[idx]
	if n.kind == nodeLeaf {
		return nil
	}
	leftBV, rightBV := t.nodes[n.left].bv, t.nodes[n.right].bv
	if !n.bv.Contains(leftBV) || !n.bv.Contains(rightBV) {
		return errContainment
	}
	if t.nodes[n.left].parent != idx || t.nodes[n.right].parent != idx {
		return errParenthood
	}
	if err := t.checkInvariant(n.left); err != nil {
		return err
	}
	return t.checkInvariant(n.right)
}
