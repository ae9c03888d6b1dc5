package railpf

import (
	"github.com/danielpatrickdp/railpath/internal/astar"
	"github.com/danielpatrickdp/railpath/internal/rail"
)

// #region types

// NodeState is the rail payload of a search node. Everything except Segment
// is inherited from the parent before the node's own segment is walked.
type NodeState struct {
	SignalsPassed int
	LastSignal    rail.SignalType
	LastRedSignal rail.SignalType
	LastSignalRed bool
	ChoiceSeen    bool
	Segment       *Segment

	shared bool // Segment came from, or goes to, the shared cache
}

type node = astar.Node[Key, NodeState]
type store = astar.Store[Key, NodeState]

// Stats counts the work one search did.
type Stats struct {
	Created   int `json:"created"`
	Expanded  int `json:"expanded"`
	CostCalcs int `json:"cost_calcs"`
	CacheHits int `json:"cache_hits"`
}

// costModel is the rail policy plugged into astar.Search. One instance serves
// exactly one search.
type costModel struct {
	net      Traversal
	cfg      Config
	la       LookAhead
	dest     Destination
	vehicle  Vehicle
	opts     FollowOptions
	maxCost  int
	eol      bool
	masking  bool
	onTrack  bool // destination may lie on plain track
	cache    *SegmentCache
	revision uint64

	waypoint    rail.StationID
	hasWaypoint bool

	stoppedOnFirstTwoWay bool
	stats                Stats
}

// #endregion types

// #region policy

func (m *costModel) Start(s *store, n *node, penalty int) bool {
	if !n.Key.Td.Valid() || !m.net.Tracks(n.Key.Tile).Has(n.Key.Td.Track()) {
		return false
	}
	n.Data = NodeState{LastSignal: rail.SignalBlock, LastRedSignal: rail.SignalBlock}
	m.attachSegment(s, n, nil)
	start := FollowResult{Tile: n.Key.Tile, Trackdirs: n.Key.Td.Bit()}
	if !m.calcCost(s, n, nil, start, penalty) {
		return false
	}
	m.setEstimate(n)
	return true
}

func (m *costModel) Expand(s *store, parent *node) []*node {
	m.stats.Expanded++
	last := parent.Data.Segment.Last
	f := m.net.Follow(last.Tile, last.Td, m.opts)
	if !f.OK() {
		return nil
	}
	isChoice := f.Trackdirs.Count() > 1
	var out []*node
	for bits := f.Trackdirs; bits != 0; bits = bits.KillFirst() {
		key := Key{Tile: f.Tile, Td: bits.First()}
		n, closed := s.GetOrCreate(key, parent.ID())
		if closed {
			continue
		}
		n.Data = NodeState{
			SignalsPassed: parent.Data.SignalsPassed,
			LastSignal:    parent.Data.LastSignal,
			LastRedSignal: parent.Data.LastRedSignal,
			LastSignalRed: parent.Data.LastSignalRed,
			ChoiceSeen:    parent.Data.ChoiceSeen || isChoice,
		}
		m.attachSegment(s, n, parent)
		if !m.calcCost(s, n, parent, f, 0) {
			s.Discard(n)
			continue
		}
		m.setEstimate(n)
		out = append(out, n)
	}
	return out
}

func (m *costModel) setEstimate(n *node) {
	if n.TargetSeen {
		n.Estimate = n.Cost
		return
	}
	last := n.Data.Segment.Last
	n.Estimate = n.Cost + m.dest.Estimate(last.Tile, last.Td)
}

// attachSegment gives n a segment: a completed one from the shared cache when
// n starts beyond the look-ahead horizon, else a fresh one.
func (m *costModel) attachSegment(s *store, n *node, parent *node) {
	m.stats.Created++
	if m.cache != nil && parent != nil &&
		CacheEligible(true, parent.Data.SignalsPassed, len(m.la)) {
		n.Data.shared = true
		if seg, ok := m.cache.Get(m.opts.Compatible, n.Key); ok {
			n.Data.Segment = seg
			return
		}
	}
	n.Data.Segment = newSegment(n.Key)
}

// #endregion policy

// #region calc-cost

// calcCost walks n's segment tile by tile from n.Key until a decision point
// and sets n.Cost. tf is the move that brought the train onto n.Key. It
// returns false when the node must be dropped.
func (m *costModel) calcCost(s *store, n *node, parent *node, tf FollowResult, base int) bool {
	m.stats.CostCalcs++
	seg := n.Data.Segment
	cached := seg.Cached()
	if cached {
		m.stats.CacheHits++
	}

	parentCost := base
	prev := InvalidKey
	if parent != nil {
		parentCost = parent.Cost
		prev = parent.Data.Segment.Last
	}

	cur := n.Key
	var (
		entryCost int
		segCost   int
		extraCost int
		reason    EndReason
		steps     []Key

		// station tiles charged in this segment; the origin tile never is
		stationTiles int
	)

	for first := true; ; first = false {
		if !first || parent != nil {
			transition := m.curveCost(prev.Td, cur.Td) + m.switchCost(prev.Tile, cur.Tile, prev.Td.Exitdir())
			if first {
				entryCost = transition
				if cached {
					segCost = seg.Cost
					reason = seg.EndReason
					stationTiles = seg.StationTiles
					if seg.HasLastSignal {
						red := m.net.SignalState(seg.LastSignal.Tile, seg.LastSignal.Td) == rail.SignalRed
						n.Data.LastSignalRed = red
						if red {
							n.Data.LastRedSignal = m.net.SignalType(seg.LastSignal.Tile, seg.LastSignal.Td.Track())
						}
					}
					cur = seg.Last
					if m.maxCost > 0 && parentCost+entryCost+segCost > m.maxCost {
						reason |= EndPathTooLong
					}
					break
				}
			} else {
				segCost += transition
			}
		}
		steps = append(steps, cur)
		kind := m.net.Kind(cur.Tile)

		segCost += m.oneTileCost(cur)
		segCost += TileLength * tf.TilesSkipped
		segCost += m.slopeCost(cur)
		sigCost, sigEnd := m.signalCost(s, n, cur)
		if sigEnd.Has(EndFirstTwoWayRed) {
			return false
		}
		segCost += sigCost
		reason |= sigEnd
		segCost += m.reservationCost(n, cur, tf.TilesSkipped)

		switch {
		case cur.Tile == prev.Tile:
			// reversing inside a depot
			segCost += m.cfg.DepotReverse
		case kind == rail.TileDepot:
			reason |= EndDepot
		case kind == rail.TileWaypoint:
			reason |= EndWaypoint
		case tf.Station:
			// priced as a pass-through until the destination check says otherwise
			stationTiles = tf.TilesSkipped + 1
			segCost += m.cfg.Station * stationTiles
			reason |= EndStation
		case m.masking && kind == rail.TileRail:
			if m.net.HasSignal(cur.Tile, cur.Td) && !m.net.SignalType(cur.Tile, cur.Td.Track()).IsPBS() {
				reason |= EndSafeTile
			}
		}

		if m.onTrack && m.dest.IsDestination(cur.Tile, cur.Td) {
			reason |= EndTarget
		}

		if n.Data.SignalsPassed < len(m.la) {
			extraCost += m.speedPenalty(cur.Tile, tf.TilesSkipped)
		}

		if m.maxCost > 0 && parentCost+entryCost+segCost > m.maxCost {
			reason |= EndPathTooLong
		}

		next := m.net.Follow(cur.Tile, cur.Td, m.opts)
		tf = next
		if !next.OK() {
			if next.Err == FollowRailType {
				reason |= EndRailType | EndDeadEnd
			} else {
				reason |= EndDeadEnd
			}
			if m.masking && !hasOnewayBlocking(m.net, cur.Tile, cur.Td) {
				reason |= EndSafeTile
			}
			break
		}
		if next.Trackdirs.Count() > 1 {
			reason |= EndChoiceFollows
			break
		}
		nextKey := Key{Tile: next.Tile, Td: next.Trackdirs.First()}

		if m.masking && m.net.Kind(nextKey.Tile) == rail.TileRail {
			if hasPBSSignal(m.net, nextKey.Tile, nextKey.Td) {
				reason |= EndSafeTile
			} else if m.net.HasSignal(nextKey.Tile, nextKey.Td.Reverse()) &&
				m.net.SignalType(nextKey.Tile, nextKey.Td.Track()) == rail.SignalPBSOneway {
				// back of a one-way path signal: usable, but only just
				reason |= EndSafeTile | EndDeadEnd
				extraCost += m.cfg.LastRedExit
			}
		}
		if m.net.RailType(nextKey.Tile) != m.net.RailType(cur.Tile) {
			reason |= EndRailType
			break
		}
		if nextKey == n.Key {
			reason |= EndInfiniteLoop
			break
		}
		if segCost > MaxSegmentCost && m.net.Kind(nextKey.Tile) == rail.TileRail {
			reason |= EndSegmentTooLong
			break
		}
		if reason != 0 {
			break
		}
		prev = cur
		cur = nextKey
	}

	if reason.Has(EndPathTooLong) {
		return false
	}

	targetSeen := reason.Has(possibleTarget) && m.dest.IsDestination(cur.Tile, cur.Td)

	if !cached {
		seg.Cost = segCost
		seg.EndReason = reason & cachedReasons
		seg.Last = cur
		seg.StationTiles = stationTiles
		seg.Steps = steps
		if n.Data.shared {
			m.cache.Put(m.revision, m.opts.Compatible, n.Key, seg)
		}
	}

	if !targetSeen && reason.Has(abortReasons) {
		return false
	}

	if reason.Has(EndWaypoint) && m.hasWaypoint && m.net.StationID(cur.Tile) == m.waypoint &&
		len(m.net.StationTiles(m.waypoint)) > 1 && !m.waypointHasFreeWait(cur) {
		// treat an occupied platform as a red signal so other platforms get a look
		extraCost += m.cfg.LastRed
	}

	if targetSeen {
		n.TargetSeen = true
		if n.Data.LastSignalRed {
			if n.Data.LastRedSignal == rail.SignalExit {
				extraCost += m.cfg.LastRedExit
			} else if !n.Data.LastRedSignal.IsPBS() {
				extraCost += m.cfg.LastRed
			}
		}
		if reason.Has(EndStation) {
			platformLen := m.net.PlatformLength(seg.Last.Tile, seg.Last.Td.Exitdir().Reverse())
			extraCost -= m.cfg.Station * stationTiles
			extraCost += m.cfg.PlatformLengthPenalty(platformLen, m.vehicle.Tiles)
		}
	}

	n.Cost = parentCost + entryCost + segCost + extraCost
	return true
}

// #endregion calc-cost

// #region tile-costs

func (m *costModel) curveCost(td1, td2 rail.Trackdir) int {
	if !td1.Valid() {
		return 0
	}
	if !m.cfg.Forbid90 && td1.Crossing().Has(td2) {
		return m.cfg.Curve90
	}
	if td2 != td1.Next() {
		return m.cfg.Curve45
	}
	return 0
}

// switchCost charges a double slip: both tiles offer more than one track at
// their shared edge.
func (m *costModel) switchCost(tile1, tile2 rail.Tile, exit rail.DiagDir) int {
	if tile1 == rail.InvalidTile || exit > rail.DiagDirNW {
		return 0
	}
	if m.net.Kind(tile1) != rail.TileRail || m.net.Kind(tile2) != rail.TileRail {
		return 0
	}
	t1 := m.net.Tracks(tile1) & rail.ReachableTracks(exit.Reverse())
	t2 := m.net.Tracks(tile2) & rail.ReachableTracks(exit)
	if t1.Count() > 1 && t2.Count() > 1 {
		return m.cfg.DoubleSlip
	}
	return 0
}

func (m *costModel) oneTileCost(k Key) int {
	if !k.Td.IsDiagonal() {
		return TileCornerLength
	}
	cost := TileLength
	if m.net.IsLevelCrossing(k.Tile) {
		cost += m.cfg.Crossing
	}
	return cost
}

func (m *costModel) slopeCost(k Key) int {
	if m.net.SlopeUphill(k.Tile, k.Td) {
		return m.cfg.Slope
	}
	return 0
}

func (m *costModel) speedPenalty(tile rail.Tile, skipped int) int {
	vmax := m.vehicle.MaxSpeed
	if vmax <= 0 {
		return 0
	}
	lo, hi := m.net.SpeedLimit(tile)
	cost := 0
	if hi > 0 && hi < vmax {
		cost += TileLength * (vmax - hi) * (4 + skipped) / vmax
	}
	if lo > vmax {
		cost += TileLength * (lo - vmax)
	}
	return cost
}

// #endregion tile-costs

// #region signal-cost

// signalCost prices the signals on k and updates the node's signal history.
// EndFirstTwoWayRed in the returned reason means the branch was pruned.
func (m *costModel) signalCost(s *store, n *node, k Key) (int, EndReason) {
	if m.net.Kind(k.Tile) != rail.TileRail {
		return 0, 0
	}
	along := m.net.HasSignal(k.Tile, k.Td)
	against := m.net.HasSignal(k.Tile, k.Td.Reverse())
	if !along && !against {
		return 0, 0
	}
	d := &n.Data
	typ := m.net.SignalType(k.Tile, k.Td.Track())
	cost := 0
	var reason EndReason

	if against && !along && typ.IsOneway() {
		reason |= EndDeadEnd
	}

	if along {
		d.LastSignal = typ
		look := m.la.At(d.SignalsPassed)
		if m.net.SignalState(k.Tile, k.Td) == rail.SignalGreen {
			d.LastSignalRed = false
			if look < 0 {
				cost -= look
			}
		} else {
			if !typ.IsPBS() && m.eol && d.ChoiceSeen && against && d.SignalsPassed == 0 {
				s.PruneBranch(n, func(x *node) bool {
					return x.Data.Segment != nil && x.Data.Segment.EndReason.Has(EndChoiceFollows)
				})
				m.stoppedOnFirstTwoWay = true
				return 0, EndDeadEnd | EndFirstTwoWayRed
			}
			d.LastRedSignal = typ
			d.LastSignalRed = true
			if !typ.IsPBS() && look > 0 {
				cost += look
			}
			if d.SignalsPassed == 0 {
				switch typ {
				case rail.SignalCombo, rail.SignalExit:
					cost += m.cfg.FirstRedExit
				case rail.SignalBlock, rail.SignalEntry:
					cost += m.cfg.FirstRed
				}
			}
		}
		d.SignalsPassed++
		d.Segment.LastSignal = k
		d.Segment.HasLastSignal = true
	}

	if against && typ.IsPBS() && d.SignalsPassed < len(m.la) {
		cost += m.cfg.SignalBack
	}
	return cost, reason
}

// reservationCost charges for running into track already reserved by another
// train. It only applies close to the train, behind a path signal.
func (m *costModel) reservationCost(n *node, k Key, skipped int) int {
	if n.Data.SignalsPassed >= len(m.la)/2 || !n.Data.LastSignal.IsPBS() {
		return 0
	}
	if m.net.Kind(k.Tile) == rail.TileStation && m.anyPlatformReserved(k, skipped) {
		return m.cfg.ReservedStation * (skipped + 1)
	}
	if m.net.ReservedTracks(k.Tile).OverlapsTrack(k.Td.Track()) {
		cost := m.cfg.ReservedCrossing
		if !k.Td.IsDiagonal() {
			cost = cost * TileCornerLength / TileLength
		}
		return cost * (skipped + 1)
	}
	return 0
}

// anyPlatformReserved checks the platform tiles walked over to reach k.
func (m *costModel) anyPlatformReserved(k Key, skipped int) bool {
	back := k.Td.Exitdir().Reverse()
	t := k.Tile
	for i := 0; i <= skipped && t != rail.InvalidTile; i++ {
		if m.net.StationReserved(t) {
			return true
		}
		t = t.Add(back)
	}
	return false
}

// #endregion signal-cost

// #region waypoint

// waypointHasFreeWait looks past a waypoint for a free place to wait, giving
// up at junctions, loops and after a fixed number of tiles.
func (m *costModel) waypointHasFreeWait(at Key) bool {
	t, td := at.Tile, at.Td
	found := true
	for left := waypointLookAheadTiles; ; {
		f := m.net.Follow(t, td, m.opts)
		if !f.OK() {
			break
		}
		t = f.Tile
		left--
		if t == at.Tile || left == 0 || f.Trackdirs.Count() > 1 {
			found = false
			break
		}
		td = f.Trackdirs.First()
		if IsSafeWaitingPosition(m.net, t, td, m.opts, true) {
			break
		}
	}
	return found &&
		IsSafeWaitingPosition(m.net, t, td, m.opts, true) &&
		IsWaitingPositionFree(m.net, t, td, m.opts)
}

// #endregion waypoint
