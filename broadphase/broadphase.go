// Package broadphase implements the C8 two-tree incremental broad phase:
// a dynamic DBVT for moving proxies and a static DBVT for quiescent ones,
// a pair map tracking overlap freshness, and the deferred mutation API
// external code uses to drive it one frame at a time (§4.8).
//
// Grounded on original_source's
// pipeline/broad_phase/dbvt_broad_phase.rs, translated from its Slab<T> +
// raw DBVTLeafId handles into the dbvt package's arena-indexed Tree, with
// one deliberate deviation from the source: §4.8 step 5 describes Remove
// as populating a "removed-proxy buffer" that Update later drains,
// whereas the Rust source removes and fires pair-end events synchronously
// inside remove() itself. The specification's text governs here — Remove
// only marks a proxy Deleted and defers the actual tree detachment and
// pair-end events to the next Update call, keeping every externally
// observable mutation inside the single synchronous update() entry point
// per §5.
package broadphase

import (
	"errors"

	"github.com/dimforge/ncollide-go/dbvt"
	"github.com/dimforge/ncollide-go/geom"
	"github.com/dimforge/ncollide-go/internal/logging"
	"github.com/go-gl/mathgl/mgl64"
)

// ErrUnknownProxy is the fatal contract-violation error (§7) returned when
// a caller presents a handle that does not name a live proxy.
var ErrUnknownProxy = errors.New("broadphase: proxy handle does not name a live proxy")

// DeactivationThreshold is the activity value a proxy is given when it
// lands on the dynamic tree; it counts down to 1 before the proxy migrates
// to the static tree (§3).
const DeactivationThreshold = 100

// ProxyHandle is an opaque, stable token identifying a proxy; it must not
// be treated as an array index by external code even though it is one
// internally (§6).
type ProxyHandle uint32

type status uint8

const (
	statusDetached status = iota
	statusOnDynamic
	statusOnStatic
	statusDeleted
)

type proxy[T any] struct {
	data     T
	status   status
	leaf     dbvt.LeafId
	activity int
	updated  bool
}

type pairKey struct{ a, b ProxyHandle }

func sortedPair(a, b ProxyHandle) pairKey {
	if a > b {
		a, b = b, a
	}
	return pairKey{a, b}
}

func (k pairKey) other(h ProxyHandle) ProxyHandle {
	if k.a == h {
		return k.b
	}
	return k.a
}

type pendingUpdate struct {
	handle ProxyHandle
	bv     geom.AABB
}

// BroadPhase is the DBVT-based two-tree broad phase of §4.8.
type BroadPhase[T any] struct {
	proxies []proxy[T]
	free    []ProxyHandle

	dynamic *dbvt.Tree[ProxyHandle]
	static  *dbvt.Tree[ProxyHandle]

	pairs    map[pairKey]bool // freshness bit
	margin   float64
	purgeAll bool

	pending []pendingUpdate // absorbed at the start of the next Update
	leaves  []pendingUpdate // scratch: leaves detached this frame, pending reinsertion
	removed []ProxyHandle   // scratch: proxies Removed since the last Update

	pairsToRemove []pairKey // scratch, reused across purge passes
}

// New returns an empty broad phase. margin is the bounding-volume loosening
// distance applied by DeferredSetBoundingVolume — the temporal-coherence
// slack that lets a moving proxy's bounding volume go unchanged across
// several frames before the tree needs touching again.
func New[T any](margin float64) *BroadPhase[T] {
	return &BroadPhase[T]{
		dynamic: dbvt.New[ProxyHandle](),
		static:  dbvt.New[ProxyHandle](),
		pairs:   make(map[pairKey]bool),
		margin:  margin,
	}
}

// NumInterferences reports the number of pairs currently tracked.
func (bp *BroadPhase[T]) NumInterferences() int { return len(bp.pairs) }

func (bp *BroadPhase[T]) allocProxy(data T) ProxyHandle {
	if n := len(bp.free); n > 0 {
		h := bp.free[n-1]
		bp.free = bp.free[:n-1]
		bp.proxies[h] = proxy[T]{data: data, status: statusDetached, updated: true}
		return h
	}
	bp.proxies = append(bp.proxies, proxy[T]{data: data, status: statusDetached, updated: true})
	return ProxyHandle(len(bp.proxies) - 1)
}

// CreateProxy queues a new proxy for insertion, observable after the next
// Update call (§6).
func (bp *BroadPhase[T]) CreateProxy(bv geom.AABB, data T) ProxyHandle {
	h := bp.allocProxy(data)
	bp.pending = append(bp.pending, pendingUpdate{handle: h, bv: bv})
	return h
}

// Remove schedules each handle's proxy for removal; the pair-end events for
// every pair that referenced it fire inside the next Update call (§6, §4.8
// step 5).
func (bp *BroadPhase[T]) Remove(handles []ProxyHandle) error {
	for _, h := range handles {
		if int(h) >= len(bp.proxies) || bp.proxies[h].status == statusDeleted {
			return ErrUnknownProxy
		}
		bp.proxies[h].status = statusDeleted
		bp.removed = append(bp.removed, h)
	}
	return nil
}

func (bp *BroadPhase[T]) currentBV(h ProxyHandle) (geom.AABB, bool) {
	p := &bp.proxies[h]
	switch p.status {
	case statusOnStatic:
		bv, _ := bp.static.LeafBV(p.leaf)
		return bv, true
	case statusOnDynamic:
		bv, _ := bp.dynamic.LeafBV(p.leaf)
		return bv, true
	default:
		return geom.AABB{}, false
	}
}

// DeferredSetBoundingVolume queues a bounding-volume change for handle if
// its current tree bounding volume does not already contain bv — the
// central optimisation of §4.8 that justifies margin: an object that
// hasn't moved enough to escape its loosened box costs nothing. When an
// update is needed, the new tree entry is bv.Loosen(margin) (§4.8
// "reflects bv.loosened(margin)").
func (bp *BroadPhase[T]) DeferredSetBoundingVolume(h ProxyHandle, bv geom.AABB) error {
	if int(h) >= len(bp.proxies) {
		return ErrUnknownProxy
	}
	p := &bp.proxies[h]
	if p.status == statusDeleted {
		return ErrUnknownProxy
	}

	if cur, onTree := bp.currentBV(h); onTree && cur.Contains(bv) {
		return nil
	}

	bp.pending = append(bp.pending, pendingUpdate{handle: h, bv: bv.Loosen(bp.margin)})
	return nil
}

// DeferredRecomputeAllProximitiesWith forces a re-probe of handle against
// every other proxy on the next Update, without discarding other proxies'
// freshness state.
func (bp *BroadPhase[T]) DeferredRecomputeAllProximitiesWith(h ProxyHandle) error {
	if int(h) >= len(bp.proxies) || bp.proxies[h].status == statusDeleted {
		return ErrUnknownProxy
	}
	if bv, onTree := bp.currentBV(h); onTree {
		bp.pending = append(bp.pending, pendingUpdate{handle: h, bv: bv})
	}
	return nil
}

// DeferredRecomputeAllProximities forces a full re-probe of every proxy
// pair on the next Update, setting purgeAll so the purge pass re-verifies
// every tracked pair regardless of freshness (§6).
func (bp *BroadPhase[T]) DeferredRecomputeAllProximities() {
	userPending := bp.pending
	bp.pending = nil
	for h := range bp.proxies {
		handle := ProxyHandle(h)
		if bp.proxies[h].status == statusDeleted {
			continue
		}
		if bv, onTree := bp.currentBV(handle); onTree {
			bp.pending = append(bp.pending, pendingUpdate{handle: handle, bv: bv})
		}
	}
	bp.pending = append(bp.pending, userPending...)
	bp.purgeAll = true
}

// Update runs one full broad-phase frame per §4.8: absorb pending bounding
// volume changes, reinsert and probe for new overlaps, purge stale pairs,
// decay activity, and finalise scheduled removals. allow gates which pairs
// are tracked at all; handler is called once per pair transition, with
// started=true the first time a pair is observed and started=false when it
// ceases.
func (bp *BroadPhase[T]) Update(allow func(a, b T) bool, handler func(a, b T, started bool)) {
	bp.absorbPending()
	someUpdated := bp.reinsertAndProbe(allow, handler)
	if someUpdated || bp.purgeAll {
		bp.purgeStalePairs(allow, handler)
	}
	bp.purgeAll = false
	bp.decayActivity()
	bp.finalizeRemoves(handler)
}

func (bp *BroadPhase[T]) absorbPending() {
	for _, pu := range bp.pending {
		p := &bp.proxies[pu.handle]
		if p.status == statusDeleted {
			continue
		}
		switch p.status {
		case statusOnStatic:
			if _, err := bp.static.Remove(p.leaf); err != nil {
				logging.Logger().Debug().Err(err).Msg("broadphase: absorb pending on static tree")
			}
		case statusOnDynamic:
			if _, err := bp.dynamic.Remove(p.leaf); err != nil {
				logging.Logger().Debug().Err(err).Msg("broadphase: absorb pending on dynamic tree")
			}
		}
		bp.leaves = append(bp.leaves, pu)
		p.updated = true
		p.status = statusDetached
	}
	bp.pending = bp.pending[:0]
}

func (bp *BroadPhase[T]) reinsertAndProbe(allow func(a, b T) bool, handler func(a, b T, started bool)) bool {
	someUpdated := len(bp.leaves) != 0

	for _, lu := range bp.leaves {
		p1 := &bp.proxies[lu.handle]
		bp.forEachOverlap(lu.bv, func(h2 ProxyHandle) {
			if h2 == lu.handle {
				return
			}
			p2 := &bp.proxies[h2]
			if p2.status == statusDeleted || !allow(p1.data, p2.data) {
				return
			}
			key := sortedPair(lu.handle, h2)
			if _, exists := bp.pairs[key]; !exists {
				handler(p1.data, p2.data, true)
			}
			bp.pairs[key] = true
		})

		// Inserting right after the probe lets every later leaf of this
		// frame find this one.
		leafID := bp.dynamic.Insert(lu.bv, lu.handle)
		p1.leaf = leafID
		p1.status = statusOnDynamic
		p1.activity = DeactivationThreshold
	}
	bp.leaves = bp.leaves[:0]

	return someUpdated
}

// forEachOverlap reports every live proxy (on either tree) whose bounding
// volume intersects bv.
func (bp *BroadPhase[T]) forEachOverlap(bv geom.AABB, out func(ProxyHandle)) {
	bp.dynamic.VisitOverlapping(bv, out)
	bp.static.VisitOverlapping(bv, out)
}

func (bp *BroadPhase[T]) purgeStalePairs(allow func(a, b T) bool, handler func(a, b T, started bool)) {
	bp.pairsToRemove = bp.pairsToRemove[:0]

	for key, fresh := range bp.pairs {
		if bp.purgeAll || !fresh {
			p1, p2 := &bp.proxies[key.a], &bp.proxies[key.b]
			remove := true
			if p1.status != statusDeleted && p2.status != statusDeleted {
				if bp.purgeAll || p1.updated || p2.updated {
					if allow(p1.data, p2.data) {
						bv1, _ := bp.currentBV(key.a)
						bv2, _ := bp.currentBV(key.b)
						if bv1.Intersects(bv2) {
							remove = false
						}
					}
				} else {
					remove = false
				}
			}
			if remove {
				handler(p1.data, p2.data, false)
				bp.pairsToRemove = append(bp.pairsToRemove, key)
			}
		}
		bp.pairs[key] = false
	}

	for _, key := range bp.pairsToRemove {
		delete(bp.pairs, key)
	}
	for i := range bp.proxies {
		bp.proxies[i].updated = false
	}
}

func (bp *BroadPhase[T]) decayActivity() {
	for i := range bp.proxies {
		p := &bp.proxies[i]
		if p.status != statusOnDynamic {
			continue
		}
		if p.activity > 1 {
			p.activity--
			continue
		}
		bv, _ := bp.dynamic.LeafBV(p.leaf)
		if _, err := bp.dynamic.Remove(p.leaf); err != nil {
			logging.Logger().Debug().Err(err).Msg("broadphase: activity decay remove")
			continue
		}
		p.leaf = bp.static.Insert(bv, ProxyHandle(i))
		p.status = statusOnStatic
	}
}

func (bp *BroadPhase[T]) finalizeRemoves(handler func(a, b T, started bool)) {
	for _, h := range bp.removed {
		p := &bp.proxies[h]

		bp.pairsToRemove = bp.pairsToRemove[:0]
		for key := range bp.pairs {
			if key.a == h || key.b == h {
				other := &bp.proxies[key.other(h)]
				handler(p.data, other.data, false)
				bp.pairsToRemove = append(bp.pairsToRemove, key)
			}
		}
		for _, key := range bp.pairsToRemove {
			delete(bp.pairs, key)
		}

		// Remove already set the status to Deleted, so the tree still
		// holding this proxy's leaf is found by the leaf's payload.
		if d, ok := bp.dynamic.LeafData(p.leaf); ok && d == h {
			bp.dynamic.Remove(p.leaf)
		} else if d, ok := bp.static.LeafData(p.leaf); ok && d == h {
			bp.static.Remove(p.leaf)
		}

		var zero T
		*p = proxy[T]{data: zero, status: statusDeleted}
		bp.free = append(bp.free, h)
	}
	bp.removed = bp.removed[:0]
}

// InterferencesWithBoundingVolume reports every live proxy handle whose
// current bounding volume intersects bv.
func (bp *BroadPhase[T]) InterferencesWithBoundingVolume(bv geom.AABB, out func(ProxyHandle)) {
	bp.forEachOverlap(bv, out)
}

// InterferencesWithRay reports every live proxy whose bounding volume the
// ray may intersect within [0, maxToi].
func (bp *BroadPhase[T]) InterferencesWithRay(ray geom.Ray, maxToi float64, out *[]T) {
	collect := func(h ProxyHandle) { *out = append(*out, bp.proxies[h].data) }
	bp.dynamic.VisitRay(ray, maxToi, collect)
	bp.static.VisitRay(ray, maxToi, collect)
}

// InterferencesWithPoint reports every live proxy whose bounding volume
// contains point.
func (bp *BroadPhase[T]) InterferencesWithPoint(point mgl64.Vec3, out *[]T) {
	collect := func(h ProxyHandle) { *out = append(*out, bp.proxies[h].data) }
	bp.dynamic.VisitPoint(point, collect)
	bp.static.VisitPoint(point, collect)
}
