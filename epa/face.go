package epa

import (
	"github.com/dimforge/ncollide-go/cso"
	"github.com/go-gl/mathgl/mgl64"
)

// Face is a triangular face of the EPA polytope. Each vertex is an
// annotated CSO point so the final closest face can recover world-space
// points on the two original shapes, not just a point in CSO space.
type Face struct {
	Points   [3]cso.CSOPoint
	Normal   mgl64.Vec3
	Distance float64
}

// compareVec3 compares two vectors lexicographically (x, then y, then z),
// used by PolytopeBuilder for edge normalization and point deduplication.
func compareVec3(a, b mgl64.Vec3) int {
	if a[0] != b[0] {
		if a[0] < b[0] {
			return -1
		}
		return 1
	}
	if a[1] != b[1] {
		if a[1] < b[1] {
			return -1
		}
		return 1
	}
	if a[2] != b[2] {
		if a[2] < b[2] {
			return -1
		}
		return 1
	}
	return 0
}

func vec3Equal(a, b mgl64.Vec3) bool {
	return a[0] == b[0] && a[1] == b[1] && a[2] == b[2]
}

// barycentric returns the barycentric coordinates of p with respect to
// triangle (a,b,c), used to interpolate P1/P2 for the witness point on the
// EPA polytope's closest face.
func barycentric(p, a, b, c mgl64.Vec3) (u, v, w float64) {
	v0 := b.Sub(a)
	v1 := c.Sub(a)
	v2 := p.Sub(a)
	d00 := v0.Dot(v0)
	d01 := v0.Dot(v1)
	d11 := v1.Dot(v1)
	d20 := v2.Dot(v0)
	d21 := v2.Dot(v1)
	denom := d00*d11 - d01*d01
	if denom == 0 {
		return 1, 0, 0
	}
	v = (d11*d20 - d01*d21) / denom
	w = (d00*d21 - d01*d20) / denom
	u = 1 - v - w
	return
}

// witness interpolates the face's three CSOPoints at the given barycentric
// weights into a single annotated CSOPoint.
func (f Face) witness(u, v, w float64) cso.CSOPoint {
	return cso.CSOPoint{
		Point: f.Points[0].Point.Mul(u).Add(f.Points[1].Point.Mul(v)).Add(f.Points[2].Point.Mul(w)),
		P1:    f.Points[0].P1.Mul(u).Add(f.Points[1].P1.Mul(v)).Add(f.Points[2].P1.Mul(w)),
		P2:    f.Points[0].P2.Mul(u).Add(f.Points[1].P2.Mul(v)).Add(f.Points[2].P2.Mul(w)),
	}
}
