package shape

import "github.com/go-gl/mathgl/mgl64"

// Support is the C1 capability contract: "farthest point of shape in a
// direction", world-space, given an isometry m and world-space direction
// dir. Ties may be broken arbitrarily but deterministically.
type Support interface {
	SupportPoint(m Isometry, dir mgl64.Vec3) mgl64.Vec3
}

// ConvexPolyhedron is the additional capability §4.1 requires of shapes
// that participate in contact-manifold generation: feature enumeration,
// normal cones, and support-face/support-feature extraction.
type ConvexPolyhedron interface {
	Support

	// NVertices, NEdges, NFaces report the shape's fixed topology sizes.
	NVertices() int
	NEdges() int
	NFaces() int

	// Vertex returns the local-space position of vertex id.
	Vertex(id FeatureId) mgl64.Vec3

	// Edge returns the local-space endpoints of edge id.
	Edge(id FeatureId) (a, b mgl64.Vec3)

	// Face populates feature with face id's local-space polygon.
	Face(id FeatureId, feature *ConvexPolygonalFeature)

	// NormalCone returns the normal cone of the given feature, in local
	// space.
	NormalCone(id FeatureId) PolyhedralCone

	// IsDirectionInNormalCone reports whether dir (world space) lies in
	// the normal cone of feature id, under isometry m.
	IsDirectionInNormalCone(m Isometry, id FeatureId, dir mgl64.Vec3) bool

	// SupportFaceToward populates feature with the face (world space)
	// whose normal best aligns with dir, under isometry m.
	SupportFaceToward(m Isometry, dir mgl64.Vec3, feature *ConvexPolygonalFeature)

	// SupportFeatureToward populates feature with the face, edge, or
	// vertex (world space) that best matches dir within the given
	// angular tolerance, under isometry m.
	SupportFeatureToward(m Isometry, dir mgl64.Vec3, angle float64, feature *ConvexPolygonalFeature)
}

// Isometry is the minimal rigid-transform contract the shape package
// needs, satisfied by geom.Transform without importing it (avoids an
// import cycle since geom has no shape dependency, but keeps this package
// independently testable against a fake isometry).
type Isometry interface {
	TransformPoint(p mgl64.Vec3) mgl64.Vec3
	InverseTransformPoint(p mgl64.Vec3) mgl64.Vec3
	TransformVector(v mgl64.Vec3) mgl64.Vec3
	InverseTransformVector(v mgl64.Vec3) mgl64.Vec3
}
