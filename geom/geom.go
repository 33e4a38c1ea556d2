// Package geom holds the linear-algebra adjacent data model shared by every
// core package: scalar tolerances, rigid transforms (isometries) and
// axis-aligned bounding volumes. It is a thin layer over mgl64 — the
// external collaborator the library treats vectors/isometries/units as
// belonging to.
package geom

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Epsilon is the machine epsilon used throughout the core, matching
// float64's IEEE-754 default epsilon.
const Epsilon = 2.220446049250313e-16

// EpsTol is the standard tolerance for affine-independence / degeneracy
// checks: 100*Epsilon.
const EpsTol = 100 * Epsilon

// EpsRel is the standard relative-convergence tolerance: sqrt(Epsilon).
var EpsRel = math.Sqrt(Epsilon)

// Transform is a rigid transform (rotation + translation) in 3D.
type Transform struct {
	Position        mgl64.Vec3
	Rotation        mgl64.Quat
	InverseRotation mgl64.Quat
}

// Identity3 returns the identity transform.
func Identity3() Transform {
	return Transform{
		Position:        mgl64.Vec3{0, 0, 0},
		Rotation:        mgl64.QuatIdent(),
		InverseRotation: mgl64.QuatIdent(),
	}
}

// TransformPoint maps a local-space point to world space.
func (t Transform) TransformPoint(p mgl64.Vec3) mgl64.Vec3 {
	return t.Rotation.Rotate(p).Add(t.Position)
}

// InverseTransformPoint maps a world-space point to local space.
func (t Transform) InverseTransformPoint(p mgl64.Vec3) mgl64.Vec3 {
	return t.Rotation.Conjugate().Rotate(p.Sub(t.Position))
}

// TransformVector rotates a direction into world space (no translation).
func (t Transform) TransformVector(v mgl64.Vec3) mgl64.Vec3 {
	return t.Rotation.Rotate(v)
}

// InverseTransformVector rotates a world-space direction back to local
// space (no translation). Used for inverse-transforming unit vectors, as
// required of an isometry by §3 of the specification.
func (t Transform) InverseTransformVector(v mgl64.Vec3) mgl64.Vec3 {
	return t.Rotation.Conjugate().Rotate(v)
}

// Transform2 is a rigid transform in 2D: rotation by an angle plus
// translation.
type Transform2 struct {
	Position mgl64.Vec2
	Angle    float64
}

// Identity2 returns the 2D identity transform.
func Identity2() Transform2 {
	return Transform2{Position: mgl64.Vec2{0, 0}, Angle: 0}
}

func (t Transform2) rotate(v mgl64.Vec2) mgl64.Vec2 {
	s, c := math.Sincos(t.Angle)
	return mgl64.Vec2{c*v.X() - s*v.Y(), s*v.X() + c*v.Y()}
}

// TransformPoint maps a local-space 2D point to world space.
func (t Transform2) TransformPoint(p mgl64.Vec2) mgl64.Vec2 {
	return t.rotate(p).Add(t.Position)
}

// InverseTransformPoint maps a world-space 2D point to local space.
func (t Transform2) InverseTransformPoint(p mgl64.Vec2) mgl64.Vec2 {
	d := p.Sub(t.Position)
	s, c := math.Sincos(-t.Angle)
	return mgl64.Vec2{c*d.X() - s*d.Y(), s*d.X() + c*d.Y()}
}

// TransformVector rotates a 2D direction into world space.
func (t Transform2) TransformVector(v mgl64.Vec2) mgl64.Vec2 {
	return t.rotate(v)
}

// Ray is a parametric ray: points are Origin + t*Dir for t >= 0.
type Ray struct {
	Origin mgl64.Vec3
	Dir    mgl64.Vec3
}

// PointAt evaluates the ray at parameter t.
func (r Ray) PointAt(t float64) mgl64.Vec3 {
	return r.Origin.Add(r.Dir.Mul(t))
}

// Embed lifts a 2D transform into the 3D kernel's Transform type, pinning
// z to 0 so that a planar query runs unmodified through the single 3D
// simplex/GJK/EPA/manifold implementation.
func (t Transform2) Embed() Transform {
	s, c := math.Sincos(t.Angle / 2)
	q := mgl64.Quat{W: c, V: mgl64.Vec3{0, 0, s}}
	return Transform{
		Position:        mgl64.Vec3{t.Position.X(), t.Position.Y(), 0},
		Rotation:        q,
		InverseRotation: q.Conjugate(),
	}
}

// Ray2 is the 2D analogue of Ray.
type Ray2 struct {
	Origin mgl64.Vec2
	Dir    mgl64.Vec2
}

// PointAt evaluates the 2D ray at parameter t.
func (r Ray2) PointAt(t float64) mgl64.Vec2 {
	return r.Origin.Add(r.Dir.Mul(t))
}
