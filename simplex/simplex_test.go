package simplex

import (
	"math"
	"testing"

	"github.com/dimforge/ncollide-go/cso"
	"github.com/go-gl/mathgl/mgl64"
)

func pt(v mgl64.Vec3) cso.CSOPoint {
	return cso.CSOPoint{Point: v, P1: v, P2: mgl64.Vec3{}}
}

func TestAddPointRejectsDuplicate(t *testing.T) {
	var s VoronoiSimplex
	s.Reset(pt(mgl64.Vec3{1, 0, 0}))
	if s.AddPoint(pt(mgl64.Vec3{1, 0, 0})) {
		t.Fatalf("expected AddPoint to reject a near-duplicate vertex")
	}
}

func TestAddPointRejectsColinear(t *testing.T) {
	var s VoronoiSimplex
	s.Reset(pt(mgl64.Vec3{0, 0, 0}))
	if !s.AddPoint(pt(mgl64.Vec3{1, 0, 0})) {
		t.Fatalf("expected second distinct point to be accepted")
	}
	if s.AddPoint(pt(mgl64.Vec3{2, 0, 0})) {
		t.Fatalf("expected a colinear third point to be rejected")
	}
}

func TestProjectOriginAndReduceLineVertexRegion(t *testing.T) {
	var s VoronoiSimplex
	s.Reset(pt(mgl64.Vec3{1, 1, 1}))
	s.AddPoint(pt(mgl64.Vec3{2, 2, 2}))
	proj := s.ProjectOriginAndReduce()
	if s.Dimension() != 0 {
		t.Fatalf("expected reduction to a single vertex, got dimension %d", s.Dimension())
	}
	want := mgl64.Vec3{1, 1, 1}
	if proj.Point.Sub(want).Len() > 1e-9 {
		t.Fatalf("projection = %v, want %v", proj.Point, want)
	}
}

func TestProjectOriginAndReduceLineEdgeRegion(t *testing.T) {
	var s VoronoiSimplex
	s.Reset(pt(mgl64.Vec3{-1, 1, 0}))
	s.AddPoint(pt(mgl64.Vec3{1, 1, 0}))
	proj := s.ProjectOriginAndReduce()
	if s.Dimension() != 1 {
		t.Fatalf("expected the edge to be kept, got dimension %d", s.Dimension())
	}
	if math.Abs(proj.Point.X()) > 1e-9 || math.Abs(proj.Point.Y()-1) > 1e-9 {
		t.Fatalf("projection = %v, want (0,1,0)", proj.Point)
	}
}

func TestProjectOriginAndReduceTetrahedronEnclosesOrigin(t *testing.T) {
	var s VoronoiSimplex
	s.Reset(pt(mgl64.Vec3{1, 1, 1}))
	s.AddPoint(pt(mgl64.Vec3{-1, 1, -1}))
	s.AddPoint(pt(mgl64.Vec3{1, -1, -1}))
	s.AddPoint(pt(mgl64.Vec3{-1, -1, 1}))
	proj := s.ProjectOriginAndReduce()
	if s.Dimension() != 3 {
		t.Fatalf("expected the full tetrahedron to be kept when it encloses the origin, got dimension %d", s.Dimension())
	}
	if proj.Point.LenSqr() > 1e-6 {
		t.Fatalf("expected near-zero projection when origin is enclosed, got %v", proj.Point)
	}
}

func TestMaxSqLen(t *testing.T) {
	var s VoronoiSimplex
	s.Reset(pt(mgl64.Vec3{1, 0, 0}))
	s.AddPoint(pt(mgl64.Vec3{0, 3, 0}))
	if got := s.MaxSqLen(); math.Abs(got-9) > 1e-9 {
		t.Fatalf("MaxSqLen() = %v, want 9", got)
	}
}
