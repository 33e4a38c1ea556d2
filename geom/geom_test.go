package geom

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

func TestAABBLoosenStrictlyContains(t *testing.T) {
	a := AABB{Min: mgl64.Vec3{-1, -2, -3}, Max: mgl64.Vec3{1, 2, 3}}
	loose := a.Loosen(0.5)

	if !loose.Contains(a) {
		t.Fatalf("Loosen(0.5) = %+v does not contain the original %+v", loose, a)
	}
	for axis := 0; axis < 3; axis++ {
		if loose.Min[axis] >= a.Min[axis] || loose.Max[axis] <= a.Max[axis] {
			t.Fatalf("Loosen did not expand axis %d: %+v vs %+v", axis, loose, a)
		}
	}
}

func TestAABBMergeCommutes(t *testing.T) {
	a := AABB{Min: mgl64.Vec3{0, 0, 0}, Max: mgl64.Vec3{1, 1, 1}}
	b := AABB{Min: mgl64.Vec3{2, -1, 0}, Max: mgl64.Vec3{3, 0.5, 2}}

	ab := a.Merged(b)
	ba := b.Merged(a)
	if ab != ba {
		t.Fatalf("Merged is not commutative: %+v vs %+v", ab, ba)
	}
	if !ab.Contains(a) || !ab.Contains(b) {
		t.Fatalf("merged box %+v does not contain both inputs", ab)
	}
}

func TestAABBIntersectsRay(t *testing.T) {
	a := AABB{Min: mgl64.Vec3{1.5, -0.5, -0.5}, Max: mgl64.Vec3{2.5, 0.5, 0.5}}

	toi, hit := a.IntersectsRay(Ray{Origin: mgl64.Vec3{0, 0, 0}, Dir: mgl64.Vec3{1, 0, 0}})
	if !hit || math.Abs(toi-1.5) > 1e-12 {
		t.Fatalf("IntersectsRay = (%v, %v), want (1.5, true)", toi, hit)
	}

	if _, hit := a.IntersectsRay(Ray{Origin: mgl64.Vec3{0, 5, 0}, Dir: mgl64.Vec3{1, 0, 0}}); hit {
		t.Fatal("ray offset in y should miss the box")
	}

	// Origin inside: entry parameter clamps to 0.
	toi, hit = a.IntersectsRay(Ray{Origin: mgl64.Vec3{2, 0, 0}, Dir: mgl64.Vec3{1, 0, 0}})
	if !hit || toi != 0 {
		t.Fatalf("IntersectsRay from inside = (%v, %v), want (0, true)", toi, hit)
	}
}

func TestTransformRoundTrip(t *testing.T) {
	tr := Transform{
		Position:        mgl64.Vec3{1, 2, 3},
		Rotation:        mgl64.QuatRotate(0.7, mgl64.Vec3{1, 1, 0}.Normalize()),
		InverseRotation: mgl64.QuatRotate(0.7, mgl64.Vec3{1, 1, 0}.Normalize()).Inverse(),
	}

	p := mgl64.Vec3{0.3, -0.7, 2.1}
	back := tr.InverseTransformPoint(tr.TransformPoint(p))
	if back.Sub(p).Len() > 1e-12 {
		t.Fatalf("point round trip drifted: %v -> %v", p, back)
	}

	v := mgl64.Vec3{0, 1, 0}
	backV := tr.InverseTransformVector(tr.TransformVector(v))
	if backV.Sub(v).Len() > 1e-12 {
		t.Fatalf("vector round trip drifted: %v -> %v", v, backV)
	}
}

func TestTransform2EmbedMatchesPlanarTransform(t *testing.T) {
	t2 := Transform2{Position: mgl64.Vec2{1, 2}, Angle: 0.9}
	t3 := t2.Embed()

	p2 := mgl64.Vec2{0.5, -1.5}
	want := t2.TransformPoint(p2)
	got := t3.TransformPoint(mgl64.Vec3{p2.X(), p2.Y(), 0})

	if math.Abs(got.X()-want.X()) > 1e-12 || math.Abs(got.Y()-want.Y()) > 1e-12 {
		t.Fatalf("embedded transform disagrees with planar transform: %v vs %v", got, want)
	}
	if math.Abs(got.Z()) > 1e-12 {
		t.Fatalf("embedded transform left the z=0 plane: %v", got)
	}
}
