package astar

// #region types

// Origin is a start key with an initial cost.
type Origin[K comparable] struct {
	Key     K
	Penalty int
}

// Policy supplies the domain half of a search: costing start nodes and
// producing costed successors. Nodes a policy rejects are never returned.
type Policy[K comparable, D any] interface {
	// Start costs an origin node. It returns false to drop the origin.
	Start(s *Store[K, D], n *Node[K, D], penalty int) bool
	// Expand returns the costed successors of n. Candidates must come from
	// s.GetOrCreate or s.NewNode with n as parent.
	Expand(s *Store[K, D], n *Node[K, D]) []*Node[K, D]
}

// Limits bounds a search. Zero values mean unbounded.
type Limits struct {
	MaxNodes int
	// Done, when closed, stops the search before its next expansion.
	Done <-chan struct{}
}

// Outcome describes how a search ended.
type Outcome struct {
	Found     bool
	Target    NodeID
	Best      NodeID
	Expanded  int
	Created   int
	Exhausted bool
	Budget    bool
	Canceled  bool
}

// #endregion types

// #region search

// Search runs a best-first search from origins. The open node with the lowest
// estimate is expanded next; ties go to the node discovered first. The search
// stops at the first popped node whose TargetSeen is set, when the open set is
// empty, when MaxNodes nodes have been expanded, or once lim.Done is closed.
func Search[K comparable, D any](s *Store[K, D], p Policy[K, D], origins []Origin[K], lim Limits) Outcome {
	s.trackBest = lim.MaxNodes > 0
	out := Outcome{Target: NoParent, Best: NoParent}

	for _, o := range origins {
		n := s.NewNode(o.Key, NoParent)
		if !p.Start(s, n, o.Penalty) {
			s.Discard(n)
			continue
		}
		s.push(n)
	}

	for {
		if isDone(lim.Done) {
			out.Canceled = true
			break
		}
		n, ok := s.pop()
		if !ok {
			out.Exhausted = true
			break
		}
		if n.TargetSeen {
			out.Found = true
			out.Target = n.id
			break
		}
		s.close(n)
		out.Expanded++
		for _, c := range p.Expand(s, n) {
			if c.closed {
				continue
			}
			if c.Parent != n.id {
				panic("astar: successor with foreign parent")
			}
			s.push(c)
		}
		if lim.MaxNodes > 0 && out.Expanded >= lim.MaxNodes {
			out.Budget = true
			break
		}
	}

	out.Best = s.best
	out.Created = s.count
	return out
}

func isDone(done <-chan struct{}) bool {
	select {
	case <-done:
		return true
	default:
		return false
	}
}

// #endregion search
