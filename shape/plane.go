package shape

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// planeHalfSize bounds the finite quad used to stand in for a
// mathematically infinite plane during face clipping, matching the
// teacher's reference implementation's approach of covering "enough" area
// for any realistic contact.
const planeHalfSize = 1000.0

// Plane is an infinite half-space: Normal . p + Distance = 0, in local
// space. It implements ConvexPolyhedron with a single synthetic face so it
// can participate in manifold generation like any other convex shape.
type Plane struct {
	Normal   mgl64.Vec3
	Distance float64
}

func (p *Plane) tangentBasis() (mgl64.Vec3, mgl64.Vec3) {
	var t1 mgl64.Vec3
	if math.Abs(p.Normal.X()) > 0.9 {
		t1 = mgl64.Vec3{0, 1, 0}
	} else {
		t1 = mgl64.Vec3{1, 0, 0}
	}
	t1 = t1.Sub(p.Normal.Mul(t1.Dot(p.Normal))).Normalize()
	t2 := p.Normal.Cross(t1).Normalize()
	return t1, t2
}

// SupportPoint returns the farthest point of the (finite stand-in for the)
// plane along dir.
func (p *Plane) SupportPoint(m Isometry, dir mgl64.Vec3) mgl64.Vec3 {
	local := m.InverseTransformVector(dir)
	planePoint := p.Normal.Mul(-p.Distance)
	t1, t2 := p.tangentBasis()
	s1, s2 := planeHalfSize, planeHalfSize
	if t1.Dot(local) < 0 {
		s1 = -s1
	}
	if t2.Dot(local) < 0 {
		s2 = -s2
	}
	inPlane := planePoint.Add(t1.Mul(s1)).Add(t2.Mul(s2))
	// If dir has a positive component along the normal, the farthest point
	// also sits at the plane's surface (a half-space has no extent along
	// its outward normal beyond the surface itself); if dir points into
	// the solid, any in-plane point is equally "farthest" in the
	// unbounded direction, so we keep the surface point deterministically.
	return m.TransformPoint(inPlane)
}

func (p *Plane) NVertices() int { return 4 }
func (p *Plane) NEdges() int    { return 4 }
func (p *Plane) NFaces() int    { return 1 }

func (p *Plane) corners() [4]mgl64.Vec3 {
	planePoint := p.Normal.Mul(-p.Distance)
	t1, t2 := p.tangentBasis()
	return [4]mgl64.Vec3{
		planePoint.Add(t1.Mul(-planeHalfSize)).Add(t2.Mul(-planeHalfSize)),
		planePoint.Add(t1.Mul(-planeHalfSize)).Add(t2.Mul(planeHalfSize)),
		planePoint.Add(t1.Mul(planeHalfSize)).Add(t2.Mul(planeHalfSize)),
		planePoint.Add(t1.Mul(planeHalfSize)).Add(t2.Mul(-planeHalfSize)),
	}
}

func (p *Plane) Vertex(id FeatureId) mgl64.Vec3 {
	return p.corners()[id.Idx%4]
}

func (p *Plane) Edge(id FeatureId) (a, b mgl64.Vec3) {
	c := p.corners()
	return c[id.Idx%4], c[(id.Idx+1)%4]
}

func (p *Plane) Face(id FeatureId, feature *ConvexPolygonalFeature) {
	feature.Clear()
	feature.Normal = p.Normal
	feature.FeatureId = Face(0)
	c := p.corners()
	for i, v := range c {
		feature.Push(v, Vertex(uint32(i)))
	}
	for i := 0; i < 4; i++ {
		edge := c[(i+1)%4].Sub(c[i])
		outward := edge.Cross(p.Normal).Normalize()
		feature.PushEdgeNormal(outward, Edge(uint32(i)))
	}
}

func (p *Plane) NormalCone(id FeatureId) PolyhedralCone {
	return PolyhedralCone{Generators: []mgl64.Vec3{p.Normal}}
}

func (p *Plane) IsDirectionInNormalCone(m Isometry, id FeatureId, dir mgl64.Vec3) bool {
	local := m.InverseTransformVector(dir).Normalize()
	return local.Dot(p.Normal) >= 1.0-1e-6
}

// SupportFaceToward always returns the plane's single face, whatever dir
// is: the plane has no other face to select.
func (p *Plane) SupportFaceToward(m Isometry, dir mgl64.Vec3, feature *ConvexPolygonalFeature) {
	p.Face(Face(0), feature)
	for i := range feature.Vertices {
		feature.Vertices[i] = m.TransformPoint(feature.Vertices[i])
	}
	for i := range feature.EdgeNormals {
		feature.EdgeNormals[i] = m.TransformVector(feature.EdgeNormals[i])
	}
	feature.Normal = m.TransformVector(feature.Normal).Normalize()
}

// SupportFeatureToward always resolves to the plane's face: a plane has no
// edges or vertices distinguishable by direction.
func (p *Plane) SupportFeatureToward(m Isometry, dir mgl64.Vec3, angle float64, feature *ConvexPolygonalFeature) {
	p.SupportFaceToward(m, dir, feature)
}

// ComputeAABB returns a large but finite world-space AABB standing in for
// the plane's mathematically infinite extent, per the teacher's approach.
func (p *Plane) ComputeAABB(m Isometry) (min, max mgl64.Vec3) {
	const thickness = 1.0
	const infinity = 1e10
	planePoint := m.TransformPoint(p.Normal.Mul(-p.Distance))
	worldNormal := m.TransformVector(p.Normal).Normalize()

	min = planePoint.Sub(worldNormal.Mul(thickness))
	max = planePoint
	for axis := 0; axis < 3; axis++ {
		if min[axis] > max[axis] {
			min[axis], max[axis] = max[axis], min[axis]
		}
	}

	absN := mgl64.Vec3{math.Abs(worldNormal.X()), math.Abs(worldNormal.Y()), math.Abs(worldNormal.Z())}
	for axis := 0; axis < 3; axis++ {
		if absN[axis] < 1.0 {
			min[axis] = -infinity
			max[axis] = infinity
		}
	}
	return min, max
}

// ComputeMass reports infinite mass: planes are always static.
func (p *Plane) ComputeMass(density float64) float64 {
	return math.Inf(1)
}

// ComputeInertia returns the zero tensor: an infinite-mass plane never
// rotates under a torque.
func (p *Plane) ComputeInertia(mass float64) mgl64.Mat3 {
	return mgl64.Mat3{}
}
