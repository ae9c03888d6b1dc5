package railpf

import (
	"strings"
	"sync"
	"sync/atomic"

	"github.com/danielpatrickdp/railpath/internal/rail"
)

// #region end-reason

// EndReason is the set of reasons a segment walk stopped.
type EndReason uint16

const (
	EndDeadEnd EndReason = 1 << iota
	EndRailType
	EndInfiniteLoop
	EndSegmentTooLong
	EndChoiceFollows
	EndDepot
	EndWaypoint
	EndStation
	EndSafeTile
	EndPathTooLong
	EndFirstTwoWayRed
	EndTarget
)

const (
	// possibleTarget are reasons worth asking the destination oracle about.
	possibleTarget = EndDepot | EndWaypoint | EndStation | EndSafeTile | EndTarget
	// cachedReasons depend only on topology and may be stored with a segment.
	cachedReasons = EndDeadEnd | EndRailType | EndInfiniteLoop | EndSegmentTooLong |
		EndChoiceFollows | EndDepot | EndWaypoint | EndStation | EndSafeTile
	// abortReasons drop the node unless it reached a destination.
	abortReasons = EndDeadEnd | EndPathTooLong | EndInfiniteLoop | EndFirstTwoWayRed
)

var endReasonNames = []string{
	"dead_end", "rail_type", "infinite_loop", "segment_too_long", "choice_follows",
	"depot", "waypoint", "station", "safe_tile", "path_too_long", "first_two_way_red",
	"target",
}

// Has reports whether any bit of o is set.
func (r EndReason) Has(o EndReason) bool { return r&o != 0 }

func (r EndReason) String() string {
	if r == 0 {
		return "none"
	}
	var parts []string
	for i, n := range endReasonNames {
		if r&(1<<i) != 0 {
			parts = append(parts, n)
		}
	}
	return strings.Join(parts, "|")
}

// #endregion end-reason

// #region segment

// Segment is the run of tiles a node covers, from its key up to the next
// decision point. A Segment with Cost >= 0 is complete and must not change.
type Segment struct {
	Cost          int
	EndReason     EndReason
	Last          Key
	LastSignal    Key
	HasLastSignal bool
	StationTiles  int // platform tiles charged the station penalty
	Steps         []Key
}

func newSegment(key Key) *Segment {
	return &Segment{Cost: -1, Last: key, LastSignal: InvalidKey}
}

// Cached reports whether the segment has been fully costed.
func (s *Segment) Cached() bool { return s.Cost >= 0 }

// CacheEligible reports whether a node's segment may be shared through the
// segment cache. Only segments that start beyond the signal look-ahead
// horizon qualify; closer ones carry cost terms that depend on the path.
// The whole horizon is used, not half of it: look-ahead entries past the
// midpoint are still non-zero.
func CacheEligible(hasParent bool, parentSignalsPassed, horizon int) bool {
	return hasParent && parentSignalsPassed >= horizon
}

// #endregion segment

// #region segment-cache

// SegmentCache shares completed segments between searches over the same
// topology and penalty set. Segments are kept apart per set of usable rail
// types, since those decide where a walk can go. It is safe for concurrent use.
type SegmentCache struct {
	mu       sync.RWMutex
	revision uint64
	segments map[cacheKey]*Segment
	hits     atomic.Uint64
	misses   atomic.Uint64
}

// NewSegmentCache creates an empty cache.
func NewSegmentCache() *SegmentCache {
	return &SegmentCache{segments: make(map[cacheKey]*Segment)}
}

type cacheKey struct {
	key    Key
	compat rail.RailTypes
}

// Sync flushes the cache when the network topology revision has moved.
func (c *SegmentCache) Sync(revision uint64) {
	c.mu.RLock()
	same := c.revision == revision
	c.mu.RUnlock()
	if same {
		return
	}
	c.mu.Lock()
	if c.revision != revision {
		c.segments = make(map[cacheKey]*Segment)
		c.revision = revision
	}
	c.mu.Unlock()
}

// Get returns the completed segment starting at key for a vehicle running on compat.
func (c *SegmentCache) Get(compat rail.RailTypes, key Key) (*Segment, bool) {
	c.mu.RLock()
	seg, ok := c.segments[cacheKey{key, compat}]
	c.mu.RUnlock()
	if ok {
		c.hits.Add(1)
	} else {
		c.misses.Add(1)
	}
	return seg, ok
}

// Put stores a completed segment computed against the given topology
// revision. Incomplete segments and stale revisions are ignored.
func (c *SegmentCache) Put(revision uint64, compat rail.RailTypes, key Key, seg *Segment) {
	if seg == nil || !seg.Cached() {
		return
	}
	ck := cacheKey{key, compat}
	c.mu.Lock()
	if _, ok := c.segments[ck]; !ok && c.revision == revision {
		c.segments[ck] = seg
	}
	c.mu.Unlock()
}

// Len returns the number of cached segments.
func (c *SegmentCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.segments)
}

// Stats returns lookup hit and miss counts since creation.
func (c *SegmentCache) Stats() (hits, misses uint64) {
	return c.hits.Load(), c.misses.Load()
}

// #endregion segment-cache
