package broadphase

import (
	"testing"

	"github.com/dimforge/ncollide-go/geom"
	"github.com/go-gl/mathgl/mgl64"
)

func box(center mgl64.Vec3, half float64) geom.AABB {
	h := mgl64.Vec3{half, half, half}
	return geom.AABB{Min: center.Sub(h), Max: center.Add(h)}
}

func allowAll(a, b int) bool { return true }

func TestTwoSeparatedBoxesNoOverlap(t *testing.T) {
	bp := New[int](0.1)
	bp.CreateProxy(box(mgl64.Vec3{0, 0, 0}, 0.5), 1)
	bp.CreateProxy(box(mgl64.Vec3{3, 0, 0}, 0.5), 2)

	started := 0
	bp.Update(allowAll, func(a, b int, s bool) {
		if s {
			started++
		}
	})

	if started != 0 {
		t.Fatalf("started = %d, want 0 for boxes separated by more than the margin", started)
	}
}

func TestOverlappingBoxesFireStartedOnce(t *testing.T) {
	bp := New[int](0.1)
	bp.CreateProxy(box(mgl64.Vec3{0, 0, 0}, 1), 1)
	bp.CreateProxy(box(mgl64.Vec3{1.5, 0, 0}, 1), 2)

	var events []bool
	handler := func(a, b int, s bool) { events = append(events, s) }
	bp.Update(allowAll, handler)

	if len(events) != 1 || !events[0] {
		t.Fatalf("events = %v, want a single started=true event", events)
	}

	// No change next frame: no duplicate started event.
	bp.Update(allowAll, handler)
	if len(events) != 1 {
		t.Fatalf("events = %v, want no further events once the pair is stable", events)
	}
}

func TestPairEndsWhenSeparated(t *testing.T) {
	bp := New[int](0.1)
	h1 := bp.CreateProxy(box(mgl64.Vec3{0, 0, 0}, 1), 1)
	h2 := bp.CreateProxy(box(mgl64.Vec3{1.5, 0, 0}, 1), 2)

	var events []bool
	bp.Update(allowAll, func(a, b int, s bool) { events = append(events, s) })
	if len(events) != 1 || !events[0] {
		t.Fatalf("expected one started event, got %v", events)
	}

	_ = bp.DeferredSetBoundingVolume(h2, box(mgl64.Vec3{20, 0, 0}, 1))
	bp.Update(allowAll, func(a, b int, s bool) { events = append(events, s) })

	if len(events) != 2 || events[1] {
		t.Fatalf("expected a started=false event once separated, got %v", events)
	}
	_ = h1
}

func TestPairEventBalanceOverLifetime(t *testing.T) {
	bp := New[int](0.1)
	h1 := bp.CreateProxy(box(mgl64.Vec3{0, 0, 0}, 1), 1)
	h2 := bp.CreateProxy(box(mgl64.Vec3{1.5, 0, 0}, 1), 2)

	started, ended := 0, 0
	handler := func(a, b int, s bool) {
		if s {
			started++
		} else {
			ended++
		}
	}

	bp.Update(allowAll, handler)
	_ = bp.DeferredSetBoundingVolume(h1, box(mgl64.Vec3{50, 0, 0}, 1))
	bp.Update(allowAll, handler)
	_ = bp.DeferredSetBoundingVolume(h1, box(mgl64.Vec3{0, 0, 0}, 1))
	bp.Update(allowAll, handler)

	if err := bp.Remove([]ProxyHandle{h1, h2}); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	bp.Update(allowAll, handler)

	if started != ended {
		t.Fatalf("started=%d ended=%d, want balanced pair events over the proxies' lifetime", started, ended)
	}
}

func TestTemporalCoherenceAndActivation(t *testing.T) {
	bp := New[int](0.1)
	bp.CreateProxy(box(mgl64.Vec3{0, 0, 0}, 0.5), 1)

	calls := 0
	handler := func(a, b int, s bool) { calls++ }

	bp.Update(allowAll, handler) // first frame: no peers, no events either way
	if calls != 0 {
		t.Fatalf("calls = %d after first frame with a single proxy, want 0", calls)
	}

	for i := 0; i < 200; i++ {
		bp.Update(allowAll, handler)
	}
	if calls != 0 {
		t.Fatalf("calls = %d after 200 static updates, want 0", calls)
	}

	p := bp.proxies[0]
	if p.status != statusOnStatic {
		t.Fatalf("proxy status = %v after %d frames, want statusOnStatic (deactivation threshold %d)", p.status, 1+200, DeactivationThreshold)
	}
}

func TestInterferencesWithRayThroughTwoBoxes(t *testing.T) {
	bp := New[int](0.1)
	bp.CreateProxy(box(mgl64.Vec3{2, 0, 0}, 0.5), 1)
	bp.CreateProxy(box(mgl64.Vec3{5, 0, 0}, 0.5), 2)
	bp.Update(allowAll, func(a, b int, s bool) {})

	var hit []int
	bp.InterferencesWithRay(geom.Ray{Origin: mgl64.Vec3{0, 0, 0}, Dir: mgl64.Vec3{1, 0, 0}}, 100, &hit)

	if len(hit) != 2 {
		t.Fatalf("hit = %v, want both boxes", hit)
	}
}

func TestRemoveUnknownProxyIsFatal(t *testing.T) {
	bp := New[int](0.1)
	h := bp.CreateProxy(box(mgl64.Vec3{0, 0, 0}, 1), 1)
	bp.Update(allowAll, func(a, b int, s bool) {})
	if err := bp.Remove([]ProxyHandle{h}); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	bp.Update(allowAll, func(a, b int, s bool) {})
	if err := bp.Remove([]ProxyHandle{h}); err != ErrUnknownProxy {
		t.Fatalf("Remove(already-removed) = %v, want ErrUnknownProxy", err)
	}
}
