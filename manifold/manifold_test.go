package manifold

import (
	"math"
	"testing"

	"github.com/dimforge/ncollide-go/geom"
	"github.com/dimforge/ncollide-go/shape"
	"github.com/go-gl/mathgl/mgl64"
)

func isoAt(pos mgl64.Vec3) geom.Transform {
	t := geom.Identity3()
	t.Position = pos
	return t
}

func TestGenerateFaceToFaceBoxes(t *testing.T) {
	a := &shape.Box{HalfExtents: mgl64.Vec3{1, 1, 1}}
	b := &shape.Box{HalfExtents: mgl64.Vec3{1, 1, 1}}
	m1 := isoAt(mgl64.Vec3{0, 0, 0})
	m2 := isoAt(mgl64.Vec3{1.9, 0, 0})

	normal := mgl64.Vec3{1, 0, 0}
	depth := 0.1

	var man ContactManifold
	var ids IdAllocator
	Generate(m1, a, m2, b, normal, depth, Prediction{Linear: 0.05}, &man, &ids)

	if man.Len() != 4 {
		t.Fatalf("expected 4 contact points for a flush face-to-face overlap, got %d", man.Len())
	}
	for _, e := range man.Entries() {
		if math.Abs(e.Contact.Depth-depth) > 1e-9 {
			t.Fatalf("contact depth = %v, want %v", e.Contact.Depth, depth)
		}
		if e.Contact.Normal != normal {
			t.Fatalf("contact normal = %v, want %v", e.Contact.Normal, normal)
		}
	}
}

func TestContactManifoldPushReplacesShallowest(t *testing.T) {
	var man ContactManifold
	for i := 0; i < capacity; i++ {
		man.Push(Entry{Contact: Contact{Depth: float64(i)}, Id: uint64(i)})
	}
	if man.Len() != capacity {
		t.Fatalf("expected manifold full at capacity %d, got %d", capacity, man.Len())
	}
	man.Push(Entry{Contact: Contact{Depth: 100}, Id: 999})
	for _, e := range man.Entries() {
		if e.Contact.Depth == 0 {
			t.Fatalf("shallowest contact should have been evicted")
		}
	}
}

func TestContactKinematicPointPointSeparated(t *testing.T) {
	k := ContactKinematic{
		Feature1: LocalFeature{
			Kind:    PrimPoint,
			Point:   mgl64.Vec3{0, 0, 0},
			Normals: shape.PolyhedralCone{Generators: []mgl64.Vec3{{1, 0, 0}}},
		},
		Feature2: LocalFeature{
			Kind:    PrimPoint,
			Point:   mgl64.Vec3{0.5, 0, 0},
			Normals: shape.PolyhedralCone{Generators: []mgl64.Vec3{{-1, 0, 0}}},
		},
	}
	m := geom.Identity3()

	c, ok := k.Update(m, m, mgl64.Vec3{0, 1, 0})
	if !ok {
		t.Fatalf("expected Point x Point to be a defined update rule")
	}
	// Separation direction points out of both features: no flip.
	if c.Normal.Dot(mgl64.Vec3{1, 0, 0}) < 0.999 {
		t.Fatalf("normal = %v, want +X", c.Normal)
	}
	if math.Abs(c.Depth-(-0.5)) > 1e-9 {
		t.Fatalf("depth = %v, want -0.5 (separated)", c.Depth)
	}
}

// TestContactKinematicPointPointPolarFlip drives the polar normal-cone
// sign test: the witness points have passed through each other, so the raw
// separation direction lands inside feature 1's polar cone and both the
// normal and the depth sign must flip to report a penetration.
func TestContactKinematicPointPointPolarFlip(t *testing.T) {
	k := ContactKinematic{
		Feature1: LocalFeature{
			Kind:    PrimPoint,
			Point:   mgl64.Vec3{0.5, 0, 0},
			Normals: shape.PolyhedralCone{Generators: []mgl64.Vec3{{1, 0, 0}}},
		},
		Feature2: LocalFeature{
			Kind:    PrimPoint,
			Point:   mgl64.Vec3{0, 0, 0},
			Normals: shape.PolyhedralCone{Generators: []mgl64.Vec3{{-1, 0, 0}}},
		},
	}
	m := geom.Identity3()

	c, ok := k.Update(m, m, mgl64.Vec3{0, 1, 0})
	if !ok {
		t.Fatalf("expected Point x Point to be a defined update rule")
	}
	if c.Normal.Dot(mgl64.Vec3{1, 0, 0}) < 0.999 {
		t.Fatalf("normal = %v, want +X after the polar flip", c.Normal)
	}
	if math.Abs(c.Depth-0.5) > 1e-9 {
		t.Fatalf("depth = %v, want 0.5 (penetrating)", c.Depth)
	}
}

func TestContactKinematicPlanePoint(t *testing.T) {
	k := ContactKinematic{
		Feature1: LocalFeature{Kind: PrimPlane, Point: mgl64.Vec3{0, 0, 0}, Dir: mgl64.Vec3{0, 1, 0}},
		Feature2: LocalFeature{Kind: PrimPoint, Point: mgl64.Vec3{0, 0, 0}},
	}
	m1 := geom.Identity3()
	m2 := isoAt(mgl64.Vec3{0, 0.5, 0})

	c, ok := k.Update(m1, m2, mgl64.Vec3{0, 1, 0})
	if !ok {
		t.Fatalf("expected Plane x Point to be a defined update rule")
	}
	if math.Abs(c.Depth - (-0.5)) > 1e-9 {
		t.Fatalf("depth = %v, want -0.5 (separated)", c.Depth)
	}
}
