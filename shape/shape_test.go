package shape

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

func vec3Equal(a, b mgl64.Vec3, tolerance float64) bool {
	return math.Abs(a.X()-b.X()) < tolerance &&
		math.Abs(a.Y()-b.Y()) < tolerance &&
		math.Abs(a.Z()-b.Z()) < tolerance
}

// identityIso is a no-op isometry used to exercise shape geometry in local
// space without pulling in the geom package (kept dependency-free so this
// package can be tested in isolation).
type identityIso struct{}

func (identityIso) TransformPoint(p mgl64.Vec3) mgl64.Vec3         { return p }
func (identityIso) InverseTransformPoint(p mgl64.Vec3) mgl64.Vec3  { return p }
func (identityIso) TransformVector(v mgl64.Vec3) mgl64.Vec3        { return v }
func (identityIso) InverseTransformVector(v mgl64.Vec3) mgl64.Vec3 { return v }

func TestBoxSupportPoint(t *testing.T) {
	b := &Box{HalfExtents: mgl64.Vec3{1, 2, 3}}
	got := b.SupportPoint(identityIso{}, mgl64.Vec3{1, 1, 1})
	want := mgl64.Vec3{1, 2, 3}
	if !vec3Equal(got, want, 1e-9) {
		t.Fatalf("SupportPoint(+++) = %v, want %v", got, want)
	}
	got = b.SupportPoint(identityIso{}, mgl64.Vec3{-1, 1, -1})
	want = mgl64.Vec3{-1, 2, -3}
	if !vec3Equal(got, want, 1e-9) {
		t.Fatalf("SupportPoint(-+-) = %v, want %v", got, want)
	}
}

func TestBoxFaceToward(t *testing.T) {
	b := &Box{HalfExtents: mgl64.Vec3{1, 1, 1}}
	var f ConvexPolygonalFeature
	b.SupportFaceToward(identityIso{}, mgl64.Vec3{0, 1, 0}, &f)
	if f.NVertices() != 4 {
		t.Fatalf("expected 4 vertices on a box face, got %d", f.NVertices())
	}
	if !vec3Equal(f.Normal, mgl64.Vec3{0, 1, 0}, 1e-9) {
		t.Fatalf("expected +Y face normal, got %v", f.Normal)
	}
	for _, v := range f.Vertices {
		if math.Abs(v.Y()-1) > 1e-9 {
			t.Fatalf("face vertex %v not on y=1 plane", v)
		}
	}
}

func TestBoxSupportFeatureTowardClassifiesFace(t *testing.T) {
	b := &Box{HalfExtents: mgl64.Vec3{1, 1, 1}}
	var f ConvexPolygonalFeature
	b.SupportFeatureToward(identityIso{}, mgl64.Vec3{0, 0, 1}, 0.01, &f)
	if f.FeatureId.Kind != FeatureFace {
		t.Fatalf("expected a face feature straight along an axis, got %+v", f.FeatureId)
	}
}

func TestBoxSupportFeatureTowardClassifiesVertex(t *testing.T) {
	b := &Box{HalfExtents: mgl64.Vec3{1, 1, 1}}
	var f ConvexPolygonalFeature
	// exact corner direction: all three axes tied, must resolve to a vertex.
	b.SupportFeatureToward(identityIso{}, mgl64.Vec3{1, 1, 1}.Normalize(), 0.5, &f)
	if f.FeatureId.Kind != FeatureVertex {
		t.Fatalf("expected a vertex feature along a corner direction, got %+v", f.FeatureId)
	}
}

func TestBoxNormalConeContainsFaceNormal(t *testing.T) {
	b := &Box{HalfExtents: mgl64.Vec3{1, 1, 1}}
	cone := b.NormalCone(Face(0))
	if !cone.Contains(mgl64.Vec3{1, 0, 0}, 1e-6) {
		t.Fatalf("expected +X face cone to contain +X")
	}
	if cone.Contains(mgl64.Vec3{-1, 0, 0}, 1e-6) {
		t.Fatalf("expected +X face cone to reject -X")
	}
}

func TestSphereSupportPoint(t *testing.T) {
	s := &Sphere{Radius: 2}
	got := s.SupportPoint(identityIso{}, mgl64.Vec3{0, 1, 0})
	want := mgl64.Vec3{0, 2, 0}
	if !vec3Equal(got, want, 1e-9) {
		t.Fatalf("SupportPoint = %v, want %v", got, want)
	}
}

func TestPlaneFaceIsFlat(t *testing.T) {
	p := &Plane{Normal: mgl64.Vec3{0, 1, 0}, Distance: 0}
	var f ConvexPolygonalFeature
	p.Face(Face(0), &f)
	for _, v := range f.Vertices {
		if math.Abs(v.Y()) > 1e-9 {
			t.Fatalf("plane vertex %v not on y=0", v)
		}
	}
}
