package manifold

import (
	"github.com/dimforge/ncollide-go/shape"
	"github.com/go-gl/mathgl/mgl64"
)

// Primitive tags which geometric primitive a ContactKinematic's local
// feature reduces to: a single point, a line (with direction), or a plane
// (with normal).
type Primitive int

const (
	PrimPoint Primitive = iota
	PrimLine
	PrimPlane
)

// coneTol is the slack allowed when classifying a direction against a
// feature's polar normal cone.
const coneTol = 1e-6

// LocalFeature is one side of a ContactKinematic: the originating feature's
// geometric primitive in the local frame of its shape, the feature's normal
// cone (also local frame, used by the polar sign test below), the feature
// id it came from and a dilation margin.
type LocalFeature struct {
	Kind    Primitive
	Point   mgl64.Vec3 // Point: the point itself. Line/Plane: any point on the primitive.
	Dir     mgl64.Vec3 // Line: unit direction. Plane: unit outward normal. Point: unused.
	Normals shape.PolyhedralCone
	Id      shape.FeatureId
	Margin  float64
}

// ContactKinematic is the persistent description of a contact: for each of
// the two contacting features, one of {Point, Line, Plane} in the local
// frame of its shape. Re-evaluating it under updated isometries produces a
// contact consistent with the original up to the geometric primitive
// chosen.
type ContactKinematic struct {
	Feature1 LocalFeature
	Feature2 LocalFeature
}

// Update re-evaluates the kinematic under updated isometries m1, m2,
// producing a refreshed Contact. For primitive pairs with no inherent
// orientation (Point×Point, Line×Point and symmetric, Line×Line) the
// candidate normal is the separation direction between the re-evaluated
// witness points, and the polar normal-cone test decides its sign: a
// candidate lying in either feature's polar cone points into its shape,
// meaning the features have passed through each other, so the normal flips
// and the separation becomes a penetration. defaultNormal is used only
// when the separation is degenerate (near-coincident witness points); it
// is typically the previous frame's contact normal. The second return
// value is false for primitive pairs the table in §4.6 does not define, in
// which case the caller should drop the contact.
func (k ContactKinematic) Update(m1, m2 shape.Isometry, defaultNormal mgl64.Vec3) (Contact, bool) {
	p1 := m1.TransformPoint(k.Feature1.Point)
	p2 := m2.TransformPoint(k.Feature2.Point)
	d1 := m1.TransformVector(k.Feature1.Dir)
	d2 := m2.TransformVector(k.Feature2.Dir)

	margins := k.Feature1.Margin + k.Feature2.Margin

	switch {
	case k.Feature1.Kind == PrimPlane && k.Feature2.Kind == PrimPoint:
		return planePoint(p1, d1, p2, k.Feature1.Margin, k.Feature2.Margin), true

	case k.Feature1.Kind == PrimPoint && k.Feature2.Kind == PrimPlane:
		c := planePoint(p2, d2, p1, k.Feature2.Margin, k.Feature1.Margin)
		c.World1, c.World2 = c.World2, c.World1
		c.Normal = c.Normal.Mul(-1)
		return c, true

	case k.Feature1.Kind == PrimPoint && k.Feature2.Kind == PrimPoint:
		normal, depth := k.orient(m1, m2, p1, p2, defaultNormal)
		return Contact{World1: p1, World2: p2, Normal: normal, Depth: depth + margins}, true

	case k.Feature1.Kind == PrimLine && k.Feature2.Kind == PrimPoint:
		proj := closestOnLine(p1, d1, p2)
		normal, depth := k.orient(m1, m2, proj, p2, defaultNormal)
		return Contact{World1: proj, World2: p2, Normal: normal, Depth: depth + margins}, true

	case k.Feature1.Kind == PrimPoint && k.Feature2.Kind == PrimLine:
		c, ok := ContactKinematic{Feature1: k.Feature2, Feature2: k.Feature1}.Update(m2, m1, defaultNormal.Mul(-1))
		if !ok {
			return Contact{}, false
		}
		c.World1, c.World2 = c.World2, c.World1
		c.Normal = c.Normal.Mul(-1)
		return c, true

	case k.Feature1.Kind == PrimLine && k.Feature2.Kind == PrimLine:
		a1, a2 := closestPointsOnLines(p1, d1, p2, d2)
		normal, depth := k.orient(m1, m2, a1, a2, defaultNormal)
		return Contact{World1: a1, World2: a2, Normal: normal, Depth: depth + margins}, true

	default:
		return Contact{}, false
	}
}

// orient resolves the contact normal and signed depth for the
// orientation-free primitive pairs. The candidate normal is the direction
// from witness w1 to witness w2; if it lies in feature 1's polar normal
// cone, or its opposite lies in feature 2's, the features have passed
// through each other and both the normal and the depth sign flip.
// defaultNormal only matters in the degenerate near-zero-separation case.
func (k ContactKinematic) orient(m1, m2 shape.Isometry, w1, w2, defaultNormal mgl64.Vec3) (normal mgl64.Vec3, depth float64) {
	sep := w2.Sub(w1)
	l := sep.Len()
	if l < 1e-12 {
		n := defaultNormal
		if n.LenSqr() < 1e-12 {
			n = mgl64.Vec3{0, 1, 0}
		}
		return n.Normalize(), 0
	}

	normal = sep.Mul(1.0 / l)
	depth = -l

	localN1 := m1.InverseTransformVector(normal)
	localN2 := m2.InverseTransformVector(normal.Mul(-1))
	if k.Feature1.Normals.PolarContains(localN1, coneTol) || k.Feature2.Normals.PolarContains(localN2, coneTol) {
		normal = normal.Mul(-1)
		depth = l
	}
	return normal, depth
}

func planePoint(planePoint, planeNormal, point mgl64.Vec3, margin1, margin2 float64) Contact {
	dist := point.Sub(planePoint).Dot(planeNormal)
	onPlane := point.Sub(planeNormal.Mul(dist))
	return Contact{
		World1: onPlane,
		World2: point,
		Normal: planeNormal,
		Depth:  -dist + margin1 + margin2,
	}
}

func closestOnLine(linePoint, lineDir, p mgl64.Vec3) mgl64.Vec3 {
	t := p.Sub(linePoint).Dot(lineDir)
	return linePoint.Add(lineDir.Mul(t))
}

// closestPointsOnLines returns the closest points between two infinite
// lines, falling back to p1/p2 themselves if the lines are
// (near-)parallel.
func closestPointsOnLines(p1, d1, p2, d2 mgl64.Vec3) (c1, c2 mgl64.Vec3) {
	r := p1.Sub(p2)
	a := d1.Dot(d1)
	e := d2.Dot(d2)
	f := d2.Dot(r)

	denom := a*e - d1.Dot(d2)*d1.Dot(d2)
	if denom < 1e-12 {
		return p1, p2
	}
	b := d1.Dot(d2)
	c := d1.Dot(r)
	s := (b*f - c*e) / denom
	t := (a*f - b*c) / denom
	return p1.Add(d1.Mul(s)), p2.Add(d2.Mul(t))
}

// IdAllocator hands out stable, monotonically increasing contact ids,
// matching §4.6 step 6's "caller-provided id allocator".
type IdAllocator struct {
	next uint64
}

// Allocate returns the next unused id.
func (a *IdAllocator) Allocate() uint64 {
	id := a.next
	a.next++
	return id
}
