// Package shape defines the support-map capability (C1 of the detection
// kernel): the contract every concrete shape fed into the core must
// satisfy, plus a small set of reference shapes (Box, Sphere, Plane) that
// exercise it. Concrete shape definitions are explicitly out of scope of
// the core proper — only the capability contracts below are required —
// but reference implementations are kept alongside them the way ncollide
// itself ships shape::Cuboid beside the traits it implements.
package shape

import "github.com/go-gl/mathgl/mgl64"

// FeatureKind tags which case of FeatureId is populated.
type FeatureKind int

const (
	FeatureUnknown FeatureKind = iota
	FeatureVertex
	FeatureEdge
	FeatureFace
)

// FeatureId is the tagged union {Vertex(u), Edge(u), Face(u), Unknown}
// required by §6: an opaque non-negative integer, stable for a given shape
// instance, identifying one of its vertices/edges/faces.
type FeatureId struct {
	Kind FeatureKind
	Idx  uint32
}

// Unknown is the zero-value "no feature" sentinel.
var Unknown = FeatureId{Kind: FeatureUnknown}

// Vertex constructs a vertex feature id.
func Vertex(idx uint32) FeatureId { return FeatureId{Kind: FeatureVertex, Idx: idx} }

// Edge constructs an edge feature id.
func Edge(idx uint32) FeatureId { return FeatureId{Kind: FeatureEdge, Idx: idx} }

// Face constructs a face feature id.
func Face(idx uint32) FeatureId { return FeatureId{Kind: FeatureFace, Idx: idx} }

// PolyhedralCone is the normal cone at a feature: the set of outward
// directions that select that feature as the support feature. A single
// generator (a unit vector) represents a face's cone (a single ray); two
// generators bound an edge's cone (a dihedral wedge); a vertex's cone is
// represented by its bounding face normals.
type PolyhedralCone struct {
	Generators []mgl64.Vec3
}

// Contains reports whether dir lies in the cone, within the given
// tolerance, implementing the "is_direction_in_normal_cone" contract of
// §6. A single-generator cone matches only directions whose dot product
// with the generator is at least 1-tol. A multi-generator cone (edge/vertex)
// matches every direction whose dot product with each generator is at
// least -tol. For three mutually orthogonal generators (a box vertex) that
// set is the non-negative span of the generators; for two generators (a
// box edge) it is wider than their span and also admits directions with a
// component along the edge.
func (c PolyhedralCone) Contains(dir mgl64.Vec3, tol float64) bool {
	if len(c.Generators) == 0 {
		return false
	}
	if len(c.Generators) == 1 {
		return dir.Dot(c.Generators[0]) >= 1.0-tol-epsConeSlop
	}
	for _, g := range c.Generators {
		if dir.Dot(g) < -tol {
			return false
		}
	}
	return true
}

const epsConeSlop = 1e-9

// PolarContains reports whether dir lies in the cone's polar: the set of
// directions whose dot product with every generator is non-positive
// (within tol), i.e. at 90 degrees or more from each generator. A separation
// direction landing in a contact feature's polar cone points into the
// shape rather than out of it, which is how the contact-kinematic update
// detects that two features have passed through each other. The empty
// cone has an empty polar here (a feature with no known normals can never
// force a flip).
func (c PolyhedralCone) PolarContains(dir mgl64.Vec3, tol float64) bool {
	if len(c.Generators) == 0 {
		return false
	}
	for _, g := range c.Generators {
		if dir.Dot(g) > tol {
			return false
		}
	}
	return true
}

// ConvexPolygonalFeature is a face of a convex polyhedron after
// support-feature extraction: vertices, per-edge outward normals, the face
// normal, a feature id, and per-vertex/per-edge ids. It is transient —
// cleared and repopulated by every SupportFaceToward/SupportFeatureToward
// call, matching §3's lifecycle note.
type ConvexPolygonalFeature struct {
	Vertices    []mgl64.Vec3
	VerticesId  []FeatureId
	EdgeNormals []mgl64.Vec3
	EdgesId     []FeatureId
	Normal      mgl64.Vec3
	FeatureId   FeatureId
}

// Clear empties the feature for reuse without releasing its backing
// arrays, matching the "allocate nothing per query after warm-up" design
// note (§9).
func (f *ConvexPolygonalFeature) Clear() {
	f.Vertices = f.Vertices[:0]
	f.VerticesId = f.VerticesId[:0]
	f.EdgeNormals = f.EdgeNormals[:0]
	f.EdgesId = f.EdgesId[:0]
	f.Normal = mgl64.Vec3{}
	f.FeatureId = Unknown
}

// Push appends a vertex and its feature id.
func (f *ConvexPolygonalFeature) Push(p mgl64.Vec3, id FeatureId) {
	f.Vertices = append(f.Vertices, p)
	f.VerticesId = append(f.VerticesId, id)
}

// PushEdgeNormal appends an outward edge normal and its feature id.
func (f *ConvexPolygonalFeature) PushEdgeNormal(n mgl64.Vec3, id FeatureId) {
	f.EdgeNormals = append(f.EdgeNormals, n)
	f.EdgesId = append(f.EdgesId, id)
}

// NVertices reports how many vertices the face currently holds.
func (f *ConvexPolygonalFeature) NVertices() int { return len(f.Vertices) }
