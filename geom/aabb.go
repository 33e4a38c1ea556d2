package geom

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// AABB is the axis-aligned-box instantiation of the bounding-volume
// contract used throughout the DBVT and broad phase: Merge, Merged,
// Intersects, Contains, Loosen.
type AABB struct {
	Min mgl64.Vec3
	Max mgl64.Vec3
}

// NewAABB builds an AABB from two arbitrary corners, normalising order.
func NewAABB(a, b mgl64.Vec3) AABB {
	return AABB{
		Min: mgl64.Vec3{math.Min(a.X(), b.X()), math.Min(a.Y(), b.Y()), math.Min(a.Z(), b.Z())},
		Max: mgl64.Vec3{math.Max(a.X(), b.X()), math.Max(a.Y(), b.Y()), math.Max(a.Z(), b.Z())},
	}
}

// ContainsPoint reports whether point lies within the box, inclusive.
func (a AABB) ContainsPoint(point mgl64.Vec3) bool {
	return point.X() >= a.Min.X() && point.X() <= a.Max.X() &&
		point.Y() >= a.Min.Y() && point.Y() <= a.Max.Y() &&
		point.Z() >= a.Min.Z() && point.Z() <= a.Max.Z()
}

// Intersects reports whether the two boxes overlap on all three axes.
func (a AABB) Intersects(other AABB) bool {
	return a.Max.X() >= other.Min.X() && a.Min.X() <= other.Max.X() &&
		a.Max.Y() >= other.Min.Y() && a.Min.Y() <= other.Max.Y() &&
		a.Max.Z() >= other.Min.Z() && a.Min.Z() <= other.Max.Z()
}

// Contains reports whether other is entirely enclosed by a.
func (a AABB) Contains(other AABB) bool {
	return a.Min.X() <= other.Min.X() && a.Max.X() >= other.Max.X() &&
		a.Min.Y() <= other.Min.Y() && a.Max.Y() >= other.Max.Y() &&
		a.Min.Z() <= other.Min.Z() && a.Max.Z() >= other.Max.Z()
}

// Merge grows a in place to also enclose other.
func (a *AABB) Merge(other AABB) {
	a.Min[0] = math.Min(a.Min[0], other.Min[0])
	a.Min[1] = math.Min(a.Min[1], other.Min[1])
	a.Min[2] = math.Min(a.Min[2], other.Min[2])
	a.Max[0] = math.Max(a.Max[0], other.Max[0])
	a.Max[1] = math.Max(a.Max[1], other.Max[1])
	a.Max[2] = math.Max(a.Max[2], other.Max[2])
}

// Merged returns the smallest AABB enclosing both a and other, without
// mutating either.
func (a AABB) Merged(other AABB) AABB {
	out := a
	out.Merge(other)
	return out
}

// Loosen returns a copy of a expanded by margin on every side. The
// invariant required by §3 — after Loosen(m), the result strictly contains
// the original plus an m margin — holds for any margin >= 0.
func (a AABB) Loosen(margin float64) AABB {
	m := mgl64.Vec3{margin, margin, margin}
	return AABB{Min: a.Min.Sub(m), Max: a.Max.Add(m)}
}

// Center returns the midpoint of the box.
func (a AABB) Center() mgl64.Vec3 {
	return a.Min.Add(a.Max).Mul(0.5)
}

// HalfExtents returns half the box's dimensions along each axis.
func (a AABB) HalfExtents() mgl64.Vec3 {
	return a.Max.Sub(a.Min).Mul(0.5)
}

// Volume returns the box's volume. The DBVT descent does not use it; it
// compares centre distances.
func (a AABB) Volume() float64 {
	d := a.Max.Sub(a.Min)
	return d.X() * d.Y() * d.Z()
}

// SurfaceArea returns the box's surface area, an alternative DBVT descent
// cost metric matching the original ncollide heuristic more closely than
// raw volume for thin shapes.
func (a AABB) SurfaceArea() float64 {
	d := a.Max.Sub(a.Min)
	return 2.0 * (d.X()*d.Y() + d.Y()*d.Z() + d.Z()*d.X())
}

// IntersectsRay reports whether the ray hits the box and, if so, returns
// the entry parameter t (clamped to 0 if the origin is inside).
func (a AABB) IntersectsRay(ray Ray) (t float64, hit bool) {
	tmin, tmax := 0.0, math.Inf(1)
	for axis := 0; axis < 3; axis++ {
		origin, dir := ray.Origin[axis], ray.Dir[axis]
		lo, hi := a.Min[axis], a.Max[axis]
		if math.Abs(dir) < Epsilon {
			if origin < lo || origin > hi {
				return 0, false
			}
			continue
		}
		inv := 1.0 / dir
		t1 := (lo - origin) * inv
		t2 := (hi - origin) * inv
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		if t1 > tmin {
			tmin = t1
		}
		if t2 < tmax {
			tmax = t2
		}
		if tmin > tmax {
			return 0, false
		}
	}
	return tmin, true
}

// AABB2 is the 2D analogue of AABB, used by the planar instantiation of the
// kernel.
type AABB2 struct {
	Min mgl64.Vec2
	Max mgl64.Vec2
}

// Intersects reports whether the two 2D boxes overlap on both axes.
func (a AABB2) Intersects(other AABB2) bool {
	return a.Max.X() >= other.Min.X() && a.Min.X() <= other.Max.X() &&
		a.Max.Y() >= other.Min.Y() && a.Min.Y() <= other.Max.Y()
}

// Merge grows a in place to also enclose other.
func (a *AABB2) Merge(other AABB2) {
	a.Min[0] = math.Min(a.Min[0], other.Min[0])
	a.Min[1] = math.Min(a.Min[1], other.Min[1])
	a.Max[0] = math.Max(a.Max[0], other.Max[0])
	a.Max[1] = math.Max(a.Max[1], other.Max[1])
}

// Loosen returns a copy of a expanded by margin on every side.
func (a AABB2) Loosen(margin float64) AABB2 {
	m := mgl64.Vec2{margin, margin}
	return AABB2{Min: a.Min.Sub(m), Max: a.Max.Add(m)}
}

// Embed lifts a 2D AABB into 3D with a zero-thickness z slab, so it can be
// inserted into the same DBVT/broad-phase instantiation used for 3D
// queries.
func (a AABB2) Embed() AABB {
	return AABB{
		Min: mgl64.Vec3{a.Min.X(), a.Min.Y(), 0},
		Max: mgl64.Vec3{a.Max.X(), a.Max.Y(), 0},
	}
}
