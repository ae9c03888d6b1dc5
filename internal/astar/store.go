package astar

import "container/heap"

// #region types

// NodeID indexes a node inside its Store's arena.
type NodeID int32

// NoParent is the parent of origin nodes.
const NoParent NodeID = -1

// Node is one search state. K is the node key, D the policy's payload.
type Node[K comparable, D any] struct {
	Key        K
	Parent     NodeID
	Cost       int
	Estimate   int
	TargetSeen bool
	Data       D

	id      NodeID
	seq     uint64
	heapIdx int
	closed  bool
}

// ID returns the node's arena index.
func (n *Node[K, D]) ID() NodeID { return n.id }

// Seq returns the discovery order of the node, assigned when it entered the open set.
func (n *Node[K, D]) Seq() uint64 { return n.seq }

// Closed reports whether the node has been expanded.
func (n *Node[K, D]) Closed() bool { return n.closed }

// Remaining is the estimated cost still to go.
func (n *Node[K, D]) Remaining() int { return n.Estimate - n.Cost }

// #endregion types

// #region store

const chunkSize = 256

// Store owns every node of one search. It is not safe for concurrent use;
// independent searches use independent stores.
type Store[K comparable, D any] struct {
	chunks [][]Node[K, D]
	count  int

	open   openList[K, D]
	opened map[K]NodeID
	closed map[K]NodeID
	seq    uint64

	trackBest bool
	best      NodeID
}

// NewStore creates an empty store.
func NewStore[K comparable, D any]() *Store[K, D] {
	s := &Store[K, D]{
		opened: make(map[K]NodeID),
		closed: make(map[K]NodeID),
		best:   NoParent,
	}
	s.open.s = s
	return s
}

// Node returns the node with the given id.
func (s *Store[K, D]) Node(id NodeID) *Node[K, D] {
	if id < 0 || int(id) >= s.count {
		return nil
	}
	return &s.chunks[int(id)/chunkSize][int(id)%chunkSize]
}

// Len returns the number of allocated nodes.
func (s *Store[K, D]) Len() int { return s.count }

// OpenLen returns the number of nodes waiting for expansion.
func (s *Store[K, D]) OpenLen() int { return len(s.open.ids) }

// ClosedLen returns the number of expanded nodes.
func (s *Store[K, D]) ClosedLen() int { return len(s.closed) }

// NewNode allocates a fresh candidate node. It is not yet part of the open set.
func (s *Store[K, D]) NewNode(key K, parent NodeID) *Node[K, D] {
	if s.count == len(s.chunks)*chunkSize {
		s.chunks = append(s.chunks, make([]Node[K, D], chunkSize))
	}
	id := NodeID(s.count)
	s.count++
	n := s.Node(id)
	*n = Node[K, D]{Key: key, Parent: parent, id: id, heapIdx: -1}
	return n
}

// GetOrCreate returns the closed node for key when key was already expanded in
// this search (closed == true), else a fresh candidate node.
func (s *Store[K, D]) GetOrCreate(key K, parent NodeID) (n *Node[K, D], closed bool) {
	if id, ok := s.closed[key]; ok {
		return s.Node(id), true
	}
	return s.NewNode(key, parent), false
}

// Discard returns a rejected candidate to the arena. Only the most recently
// allocated node can be reclaimed; others simply stay unreferenced.
func (s *Store[K, D]) Discard(n *Node[K, D]) {
	if n == nil || n.heapIdx >= 0 || n.closed {
		return
	}
	if int(n.id) == s.count-1 {
		s.count--
	}
}

// Path returns the ids from the origin to id, inclusive.
func (s *Store[K, D]) Path(id NodeID) []NodeID {
	var rev []NodeID
	for cur := id; cur != NoParent; cur = s.Node(cur).Parent {
		rev = append(rev, cur)
	}
	out := make([]NodeID, len(rev))
	for i, v := range rev {
		out[len(rev)-1-i] = v
	}
	return out
}

// Best returns the best intermediate node seen so far, or NoParent.
// Tracking is enabled by Search when Limits.MaxNodes > 0.
func (s *Store[K, D]) Best() NodeID { return s.best }

// PruneBranch walks from n towards the origin until stop accepts a node. When
// the best intermediate node lies on the walked stretch, the accepted node
// takes its place, so a cut-off branch is never reported as closest.
func (s *Store[K, D]) PruneBranch(n *Node[K, D], stop func(*Node[K, D]) bool) {
	onBranch := false
	cur := n
	for cur != nil && !stop(cur) {
		if cur.id == s.best {
			onBranch = true
		}
		cur = s.Node(cur.Parent)
	}
	if !onBranch {
		return
	}
	if cur == nil {
		s.best = NoParent
		return
	}
	s.best = cur.id
}

// push adds n to the open set, keeping the cheaper node when key is already open.
// Keys that are already closed are ignored.
func (s *Store[K, D]) push(n *Node[K, D]) {
	if n.Parent != NoParent {
		if p := s.Node(n.Parent); n.Cost < p.Cost {
			panic("astar: node cost decreased along parent chain")
		}
	}
	if _, ok := s.closed[n.Key]; ok {
		s.Discard(n)
		return
	}
	if id, ok := s.opened[n.Key]; ok {
		old := s.Node(id)
		if n.Estimate >= old.Estimate {
			s.Discard(n)
			return
		}
		idx := old.heapIdx
		*old = *n
		old.id = id
		old.heapIdx = idx
		s.seq++
		old.seq = s.seq
		heap.Fix(&s.open, idx)
		s.Discard(n)
		s.noteBest(old)
		return
	}
	s.seq++
	n.seq = s.seq
	s.opened[n.Key] = n.id
	heap.Push(&s.open, n.id)
	s.noteBest(n)
}

func (s *Store[K, D]) noteBest(n *Node[K, D]) {
	if !s.trackBest || n.TargetSeen {
		return
	}
	if s.best == NoParent || s.Node(s.best).Remaining() > n.Remaining() {
		s.best = n.id
	}
}

// pop removes and returns the open node with the lowest (estimate, seq).
func (s *Store[K, D]) pop() (*Node[K, D], bool) {
	if len(s.open.ids) == 0 {
		return nil, false
	}
	id := heap.Pop(&s.open).(NodeID)
	n := s.Node(id)
	delete(s.opened, n.Key)
	return n, true
}

func (s *Store[K, D]) close(n *Node[K, D]) {
	if n.closed {
		panic("astar: expanding a closed node")
	}
	n.closed = true
	s.closed[n.Key] = n.id
}

// #endregion store

// #region open-list

// openList is a container/heap over arena ids ordered by (estimate, seq).
type openList[K comparable, D any] struct {
	s   *Store[K, D]
	ids []NodeID
}

func (l openList[K, D]) Len() int { return len(l.ids) }

func (l openList[K, D]) Less(i, j int) bool {
	a, b := l.s.Node(l.ids[i]), l.s.Node(l.ids[j])
	if a.Estimate != b.Estimate {
		return a.Estimate < b.Estimate
	}
	return a.seq < b.seq
}

func (l openList[K, D]) Swap(i, j int) {
	l.ids[i], l.ids[j] = l.ids[j], l.ids[i]
	l.s.Node(l.ids[i]).heapIdx = i
	l.s.Node(l.ids[j]).heapIdx = j
}

func (l *openList[K, D]) Push(x any) {
	id := x.(NodeID)
	l.s.Node(id).heapIdx = len(l.ids)
	l.ids = append(l.ids, id)
}

func (l *openList[K, D]) Pop() any {
	old := l.ids
	id := old[len(old)-1]
	l.ids = old[:len(old)-1]
	l.s.Node(id).heapIdx = -1
	return id
}

// #endregion open-list
