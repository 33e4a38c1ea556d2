// Package cso implements the C2 Minkowski-sum view: an implicit support map
// over the configuration-space obstacle A(m1) ⊖ B(m2) built from two
// support maps, with no storage beyond references and a lifetime bounded
// by the query that uses it.
package cso

import (
	"github.com/dimforge/ncollide-go/shape"
	"github.com/go-gl/mathgl/mgl64"
)

// CSOPoint is a point of the Minkowski difference A ⊖ B, tagged with the
// two original support points that produced it so GJK's projection can be
// converted back into per-shape closest points after termination.
type CSOPoint struct {
	Point mgl64.Vec3 // P1 - P2, a point of the CSO
	P1    mgl64.Vec3 // originating support point on shape A, world space
	P2    mgl64.Vec3 // originating support point on shape B, world space
}

// Minkowski is the unannotated CSO support map: support(dir) = A.support(m1,
// dir) - B.support(m2, -dir).
type Minkowski struct {
	M1 shape.Isometry
	A  shape.Support
	M2 shape.Isometry
	B  shape.Support
}

// SupportPoint returns the CSO's support point along dir.
func (c Minkowski) SupportPoint(dir mgl64.Vec3) mgl64.Vec3 {
	p1 := c.A.SupportPoint(c.M1, dir)
	p2 := c.B.SupportPoint(c.M2, dir.Mul(-1))
	return p1.Sub(p2)
}

// SupportCSOPoint is the annotated variant: it also returns the originating
// supports from A and B so the final closest points can be recovered.
func (c Minkowski) SupportCSOPoint(dir mgl64.Vec3) CSOPoint {
	p1 := c.A.SupportPoint(c.M1, dir)
	p2 := c.B.SupportPoint(c.M2, dir.Mul(-1))
	return CSOPoint{Point: p1.Sub(p2), P1: p1, P2: p2}
}
