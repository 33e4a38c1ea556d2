package broadphase

import (
	"math/rand"
	"testing"

	"github.com/dimforge/ncollide-go/geom"
	"github.com/go-gl/mathgl/mgl64"
)

// bruteForceOverlaps is an O(n^2) reference oracle: every index pair whose
// bounding volumes intersect, checked by direct comparison with no
// hashing or hierarchy at all. Adapted from the teacher's spatialgrid.go
// uniform-grid broad phase, itself an approximate, faster stand-in for
// exactly this exhaustive check — here kept in its most literal form
// since a test oracle should be as simple as possible to trust.
func bruteForceOverlaps(bvs []geom.AABB) map[[2]int]bool {
	out := make(map[[2]int]bool)
	for i := 0; i < len(bvs); i++ {
		for j := i + 1; j < len(bvs); j++ {
			if bvs[i].Intersects(bvs[j]) {
				out[[2]int{i, j}] = true
			}
		}
	}
	return out
}

// TestBroadPhaseMatchesBruteForceOracleOnRandomScene cross-checks the
// DBVT-based incremental broad phase against the brute-force oracle on a
// single frame of a random scene: with margin 0, CreateProxy's raw
// bounding volumes are exactly what both the tree and the oracle see, so
// the reported pair sets must agree exactly (§8's "testable properties"
// spirit, generalised from the two-box scenario to many random boxes).
func TestBroadPhaseMatchesBruteForceOracleOnRandomScene(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	const n = 60

	bvs := make([]geom.AABB, n)
	bp := New[int](0)
	for i := 0; i < n; i++ {
		center := mgl64.Vec3{
			rng.Float64()*20 - 10,
			rng.Float64()*20 - 10,
			rng.Float64()*20 - 10,
		}
		half := mgl64.Vec3{0.5 + rng.Float64(), 0.5 + rng.Float64(), 0.5 + rng.Float64()}
		bvs[i] = geom.AABB{Min: center.Sub(half), Max: center.Add(half)}
		bp.CreateProxy(bvs[i], i)
	}

	found := make(map[[2]int]bool)
	bp.Update(allowAll, func(a, b int, started bool) {
		if !started {
			return
		}
		if a > b {
			a, b = b, a
		}
		found[[2]int{a, b}] = true
	})

	want := bruteForceOverlaps(bvs)
	if len(found) != len(want) {
		t.Fatalf("broad phase found %d pairs, oracle found %d", len(found), len(want))
	}
	for k := range want {
		if !found[k] {
			t.Fatalf("oracle found overlap %v that the broad phase missed", k)
		}
	}
}
