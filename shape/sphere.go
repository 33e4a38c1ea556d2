package shape

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Sphere is a round shape: it has a Support map but no polyhedral
// features, so the manifold generator always contacts it at a single
// point (its support point), never a face.
type Sphere struct {
	Radius float64
}

// SupportPoint returns the point on the sphere's surface along dir.
func (s *Sphere) SupportPoint(m Isometry, dir mgl64.Vec3) mgl64.Vec3 {
	local := m.InverseTransformVector(dir)
	n := local
	if ln := n.Len(); ln > 1e-12 {
		n = n.Mul(1.0 / ln)
	} else {
		n = mgl64.Vec3{0, 1, 0}
	}
	return m.TransformPoint(n.Mul(s.Radius))
}

// ComputeAABB returns the world-space AABB of the sphere under m.
func (s *Sphere) ComputeAABB(m Isometry) (min, max mgl64.Vec3) {
	center := m.TransformPoint(mgl64.Vec3{0, 0, 0})
	r := mgl64.Vec3{s.Radius, s.Radius, s.Radius}
	return center.Sub(r), center.Add(r)
}

// ComputeMass returns mass = density * volume.
func (s *Sphere) ComputeMass(density float64) float64 {
	return density * (4.0 / 3.0) * math.Pi * s.Radius * s.Radius * s.Radius
}

// ComputeInertia returns the sphere's (isotropic) local inertia tensor.
func (s *Sphere) ComputeInertia(mass float64) mgl64.Mat3 {
	i := (2.0 / 5.0) * mass * s.Radius * s.Radius
	return mgl64.Mat3{i, 0, 0, 0, i, 0, 0, 0, i}
}
