package railpf

import (
	"context"

	"github.com/danielpatrickdp/railpath/internal/astar"
	"github.com/danielpatrickdp/railpath/internal/rail"
)

// #region types

// Origin is a start position with an initial penalty, such as the cost of
// reversing the train before it departs.
type Origin struct {
	Key     Key
	Penalty int
}

// Request is one path query.
type Request struct {
	Origins []Origin
	Dest    Destination
	Vehicle Vehicle
	// MaxCost drops branches once they cost more than this. Zero means unlimited.
	MaxCost int
	// TreatFirstRedTwoWayAsEOL stops at the first red two-way block signal met
	// after a junction, if the config allows it.
	TreatFirstRedTwoWayAsEOL bool
	// SafeTile ends segments at every position a train could safely wait at.
	SafeTile bool
	// DisableCache skips the shared segment cache for this search.
	DisableCache bool
}

// Result is the outcome of a path query. A missing path is not an error.
type Result struct {
	Found                      bool  `json:"found"`
	Cost                       int   `json:"cost"`
	Steps                      []Key `json:"steps"`
	Closest                    []Key `json:"closest,omitempty"`
	StoppedOnFirstTwoWaySignal bool  `json:"stopped_on_first_two_way_signal"`
	Budget                     bool  `json:"budget"`
	Canceled                   bool  `json:"canceled,omitempty"`
	Stats                      Stats `json:"stats"`
}

// #endregion types

// #region finder

// Finder answers path queries over one network with one penalty set. It is
// safe for concurrent use; every query gets its own node store.
type Finder struct {
	net   Traversal
	cfg   Config
	la    LookAhead
	cache *SegmentCache
}

// NewFinder builds a finder with its own segment cache.
func NewFinder(net Traversal, cfg Config) *Finder {
	return &Finder{
		net:   net,
		cfg:   cfg,
		la:    NewLookAhead(cfg),
		cache: NewSegmentCache(),
	}
}

// Config returns the penalty set the finder was built with.
func (f *Finder) Config() Config { return f.cfg }

// Cache returns the finder's shared segment cache.
func (f *Finder) Cache() *SegmentCache { return f.cache }

// FindPath runs one search. It never fails: unreachable destinations, budget
// exhaustion and malformed origins all yield Found == false.
func (f *Finder) FindPath(req Request) Result {
	return f.FindPathContext(context.Background(), req)
}

// FindPathContext is FindPath with cancellation. A canceled search reports
// Canceled and no path.
func (f *Finder) FindPathContext(ctx context.Context, req Request) Result {
	if req.Dest == nil || len(req.Origins) == 0 {
		return Result{}
	}
	compat := req.Vehicle.Compatible
	if compat == 0 {
		compat = rail.AllRailTypes
	}
	m := &costModel{
		net:      f.net,
		cfg:      f.cfg,
		la:       f.la,
		dest:     req.Dest,
		vehicle:  req.Vehicle,
		opts:     FollowOptions{Compatible: compat, Forbid90: f.cfg.Forbid90},
		maxCost:  req.MaxCost,
		eol:      f.cfg.FirstRedTwoWayEOL && req.TreatFirstRedTwoWayAsEOL,
		masking:  req.SafeTile,
		revision: f.net.Revision(),
	}
	if wp, ok := req.Dest.(waypointDestination); ok {
		m.waypoint, m.hasWaypoint = wp.Waypoint(), true
	}
	if _, ok := req.Dest.(trackDestination); ok {
		m.onTrack = true
	}
	// masked walks and track targets end segments in different places, so
	// they never share
	if !req.DisableCache && !req.SafeTile && !m.onTrack {
		f.cache.Sync(m.revision)
		m.cache = f.cache
	}

	origins := make([]astar.Origin[Key], 0, len(req.Origins))
	for _, o := range req.Origins {
		origins = append(origins, astar.Origin[Key]{Key: o.Key, Penalty: o.Penalty})
	}

	s := astar.NewStore[Key, NodeState]()
	out := astar.Search[Key, NodeState](s, m, origins, astar.Limits{
		MaxNodes: f.cfg.MaxSearchNodes,
		Done:     ctx.Done(),
	})

	res := Result{
		Found:                      out.Found,
		StoppedOnFirstTwoWaySignal: m.stoppedOnFirstTwoWay,
		Budget:                     out.Budget,
		Canceled:                   out.Canceled,
		Stats:                      m.stats,
	}
	if out.Found {
		res.Cost = s.Node(out.Target).Cost
		res.Steps = collectSteps(s, out.Target)
	} else if out.Best != astar.NoParent {
		res.Closest = collectSteps(s, out.Best)
	}
	return res
}

// collectSteps concatenates the segment steps from the origin to id.
func collectSteps(s *store, id astar.NodeID) []Key {
	var steps []Key
	for _, nid := range s.Path(id) {
		steps = append(steps, s.Node(nid).Data.Segment.Steps...)
	}
	return steps
}

// #endregion finder
