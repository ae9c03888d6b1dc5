package layout

import (
	"errors"
	"fmt"
	"sync"

	"golang.org/x/exp/slices"

	"github.com/danielpatrickdp/railpath/internal/rail"
	"github.com/danielpatrickdp/railpath/internal/railpf"
)

// ErrUnknownTile is returned when an edit refers to a tile the network does not hold.
var ErrUnknownTile = errors.New("layout: unknown tile")

// #region types

type signal struct {
	typ     rail.SignalType
	present [2]bool // indexed by trackdir direction bit
	red     [2]bool
}

type tile struct {
	kind            rail.TileKind
	tracks          rail.TrackBits
	railType        rail.RailType
	signals         [6]*signal
	reserved        rail.TrackBits
	stationReserved bool
	station         rail.StationID
	dir             rail.DiagDir // depot door, or bridge heading towards otherEnd
	otherEnd        rail.Tile
	uphill          rail.DiagDir
	minSpeed        int
	maxSpeed        int
}

// Network is an in-memory tile rail network. Reads are safe to run
// concurrently with each other and with edits.
type Network struct {
	mu       sync.RWMutex
	Name     string
	tiles    map[rail.Tile]*tile
	revision uint64
}

var _ railpf.Traversal = (*Network)(nil)

// #endregion types

// #region constructor

// New creates an empty network.
func New(name string) *Network {
	return &Network{Name: name, tiles: make(map[rail.Tile]*tile), revision: 1}
}

// #endregion constructor

// #region edit

func (n *Network) touch(t rail.Tile) *tile {
	tl := n.tiles[t]
	if tl == nil {
		tl = &tile{station: rail.InvalidStation, dir: rail.InvalidDiagDir, otherEnd: rail.InvalidTile, uphill: rail.InvalidDiagDir}
		n.tiles[t] = tl
	}
	return tl
}

// SetRail adds plain track to a tile, turning it into a rail tile.
func (n *Network) SetRail(t rail.Tile, tracks rail.TrackBits, rt rail.RailType) {
	n.mu.Lock()
	defer n.mu.Unlock()
	tl := n.touch(t)
	if tl.kind != rail.TileRail {
		tl.kind = rail.TileRail
		tl.tracks = 0
	}
	tl.tracks |= tracks & rail.TrackBitAll
	tl.railType = rt
	n.revision++
}

// Straight lays length straight tiles starting at from and heading dir.
func (n *Network) Straight(from rail.Tile, dir rail.DiagDir, length int, rt rail.RailType) rail.Tile {
	t := from
	last := from
	for i := 0; i < length && t != rail.InvalidTile; i++ {
		n.SetRail(t, dir.AxisTrack().Bit(), rt)
		last = t
		t = t.Add(dir)
	}
	return last
}

// SetCrossing makes t a level crossing carrying one straight track.
func (n *Network) SetCrossing(t rail.Tile, axis rail.Track, rt rail.RailType) error {
	if !axis.IsDiagonal() {
		return fmt.Errorf("crossing at %s: track %s is not straight", t, axis)
	}
	n.setSpecial(t, rail.TileCrossing, axis, rt, rail.InvalidStation)
	return nil
}

// SetStation makes t a platform tile of station id.
func (n *Network) SetStation(t rail.Tile, axis rail.Track, id rail.StationID, rt rail.RailType) error {
	if !axis.IsDiagonal() {
		return fmt.Errorf("station at %s: track %s is not straight", t, axis)
	}
	n.setSpecial(t, rail.TileStation, axis, rt, id)
	return nil
}

// SetWaypoint makes t a waypoint tile of waypoint id.
func (n *Network) SetWaypoint(t rail.Tile, axis rail.Track, id rail.StationID, rt rail.RailType) error {
	if !axis.IsDiagonal() {
		return fmt.Errorf("waypoint at %s: track %s is not straight", t, axis)
	}
	n.setSpecial(t, rail.TileWaypoint, axis, rt, id)
	return nil
}

func (n *Network) setSpecial(t rail.Tile, kind rail.TileKind, axis rail.Track, rt rail.RailType, id rail.StationID) {
	n.mu.Lock()
	defer n.mu.Unlock()
	tl := n.touch(t)
	*tl = tile{
		kind:     kind,
		tracks:   axis.Bit(),
		railType: rt,
		station:  id,
		dir:      rail.InvalidDiagDir,
		otherEnd: rail.InvalidTile,
		uphill:   tl.uphill,
		minSpeed: tl.minSpeed,
		maxSpeed: tl.maxSpeed,
	}
	n.revision++
}

// SetDepot makes t a depot whose door faces door.
func (n *Network) SetDepot(t rail.Tile, door rail.DiagDir, rt rail.RailType) error {
	if door > rail.DiagDirNW {
		return fmt.Errorf("depot at %s: invalid door direction", t)
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	tl := n.touch(t)
	*tl = tile{
		kind:     rail.TileDepot,
		tracks:   door.AxisTrack().Bit(),
		railType: rt,
		station:  rail.InvalidStation,
		dir:      door,
		otherEnd: rail.InvalidTile,
		uphill:   rail.InvalidDiagDir,
	}
	n.revision++
	return nil
}

// SetBridge links two heads on the same row or column. Trains jump from one
// head to the other; the tiles between are not part of the network.
func (n *Network) SetBridge(a, b rail.Tile, rt rail.RailType) error {
	if a == b || (a.X() != b.X() && a.Y() != b.Y()) {
		return fmt.Errorf("bridge %s-%s: heads must be distinct and aligned", a, b)
	}
	dir := directionTo(a, b)
	n.mu.Lock()
	defer n.mu.Unlock()
	for _, end := range []struct {
		t, other rail.Tile
		d        rail.DiagDir
	}{{a, b, dir}, {b, a, dir.Reverse()}} {
		tl := n.touch(end.t)
		*tl = tile{
			kind:     rail.TileTunnelBridge,
			tracks:   end.d.AxisTrack().Bit(),
			railType: rt,
			station:  rail.InvalidStation,
			dir:      end.d,
			otherEnd: end.other,
			uphill:   tl.uphill,
			minSpeed: tl.minSpeed,
			maxSpeed: tl.maxSpeed,
		}
	}
	n.revision++
	return nil
}

func directionTo(a, b rail.Tile) rail.DiagDir {
	switch {
	case b.X() < a.X():
		return rail.DiagDirNE
	case b.X() > a.X():
		return rail.DiagDirSW
	case b.Y() > a.Y():
		return rail.DiagDirSE
	default:
		return rail.DiagDirNW
	}
}

// SetSignal places a signal of type typ facing along td. A track carries one
// signal type; setting a second direction overwrites the type.
func (n *Network) SetSignal(t rail.Tile, td rail.Trackdir, typ rail.SignalType, state rail.SignalState) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	tl := n.tiles[t]
	if tl == nil {
		return fmt.Errorf("signal at %s: %w", t, ErrUnknownTile)
	}
	if tl.kind != rail.TileRail || !tl.tracks.Has(td.Track()) {
		return fmt.Errorf("signal at %s: no plain %s track", t, td.Track())
	}
	sig := tl.signals[td.Track()]
	if sig == nil {
		sig = &signal{}
		tl.signals[td.Track()] = sig
	}
	sig.typ = typ
	sig.present[td>>3] = true
	sig.red[td>>3] = state == rail.SignalRed
	n.revision++
	return nil
}

// SetSignalState changes a signal's aspect. Aspects are not topology, so the
// revision stays put and cached segments remain valid.
func (n *Network) SetSignalState(t rail.Tile, td rail.Trackdir, state rail.SignalState) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	tl := n.tiles[t]
	if tl == nil {
		return fmt.Errorf("signal state at %s: %w", t, ErrUnknownTile)
	}
	sig := tl.signals[td.Track()]
	if sig == nil || !sig.present[td>>3] {
		return fmt.Errorf("signal state at %s: no signal along %s", t, td)
	}
	sig.red[td>>3] = state == rail.SignalRed
	return nil
}

// Reserve marks tracks on t as reserved by some other train.
func (n *Network) Reserve(t rail.Tile, tracks rail.TrackBits) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	tl := n.tiles[t]
	if tl == nil {
		return fmt.Errorf("reserve %s: %w", t, ErrUnknownTile)
	}
	tl.reserved |= tracks & tl.tracks
	if tl.kind == rail.TileStation && tracks != 0 {
		tl.stationReserved = true
	}
	return nil
}

// ClearReservations drops every reservation on the network.
func (n *Network) ClearReservations() {
	n.mu.Lock()
	defer n.mu.Unlock()
	for _, tl := range n.tiles {
		tl.reserved = 0
		tl.stationReserved = false
	}
}

// SetSlope makes td climb on t when it exits towards uphill.
func (n *Network) SetSlope(t rail.Tile, uphill rail.DiagDir) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	tl := n.tiles[t]
	if tl == nil {
		return fmt.Errorf("slope at %s: %w", t, ErrUnknownTile)
	}
	tl.uphill = uphill
	n.revision++
	return nil
}

// SetSpeedLimit sets the speed window on t; zero disables a bound.
func (n *Network) SetSpeedLimit(t rail.Tile, min, max int) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	tl := n.tiles[t]
	if tl == nil {
		return fmt.Errorf("speed limit at %s: %w", t, ErrUnknownTile)
	}
	tl.minSpeed, tl.maxSpeed = min, max
	n.revision++
	return nil
}

// Remove deletes a tile.
func (n *Network) Remove(t rail.Tile) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if _, ok := n.tiles[t]; ok {
		delete(n.tiles, t)
		n.revision++
	}
}

// #endregion edit

// #region follow

// Follow implements railpf.Traversal.
func (n *Network) Follow(t rail.Tile, td rail.Trackdir, opts railpf.FollowOptions) railpf.FollowResult {
	n.mu.RLock()
	defer n.mu.RUnlock()

	src := n.tiles[t]
	exit := td.Exitdir()
	if src == nil || exit > rail.DiagDirNW {
		return railpf.FollowResult{Tile: rail.InvalidTile, Err: railpf.FollowNoWay}
	}
	// depots are only left through the door; anything else turns round inside
	if src.kind == rail.TileDepot && exit != src.dir {
		return railpf.FollowResult{Tile: t, Trackdirs: td.Reverse().Bit()}
	}

	res := railpf.FollowResult{}
	jumped := false
	next := t.Add(exit)
	if src.kind == rail.TileTunnelBridge && exit == src.dir {
		next = src.otherEnd
		res.TilesSkipped = t.Distance(next) - 1
		jumped = true
	}
	dst := n.tiles[next]
	if next == rail.InvalidTile || dst == nil || dst.kind == rail.TileVoid {
		return railpf.FollowResult{Tile: next, Err: railpf.FollowNoWay}
	}
	switch dst.kind {
	case rail.TileDepot:
		if exit != dst.dir.Reverse() {
			return railpf.FollowResult{Tile: next, Err: railpf.FollowNoWay}
		}
	case rail.TileTunnelBridge:
		if !jumped && exit != dst.dir {
			return railpf.FollowResult{Tile: next, Err: railpf.FollowNoWay}
		}
	}
	if !opts.Compatible.Has(dst.railType) {
		return railpf.FollowResult{Tile: next, Err: railpf.FollowRailType}
	}

	bits := dst.tracks.Trackdirs() & rail.ReachableTrackdirs(exit)
	if bits == 0 {
		return railpf.FollowResult{Tile: next, Err: railpf.FollowNoWay}
	}
	if opts.Forbid90 {
		bits &^= td.Crossing()
		if bits == 0 {
			return railpf.FollowResult{Tile: next, Err: railpf.Follow90Deg}
		}
	}

	if dst.kind == rail.TileStation {
		length := n.platformLength(next, exit)
		for i := 1; i < length; i++ {
			next = next.Add(exit)
		}
		res.TilesSkipped += length - 1
		res.Station = true
	}
	res.Tile = next
	res.Trackdirs = bits
	return res
}

// #endregion follow

// #region queries

func (n *Network) get(t rail.Tile) *tile {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.tiles[t]
}

// Kind implements railpf.Traversal.
func (n *Network) Kind(t rail.Tile) rail.TileKind {
	if tl := n.get(t); tl != nil {
		return tl.kind
	}
	return rail.TileVoid
}

// Tracks implements railpf.Traversal.
func (n *Network) Tracks(t rail.Tile) rail.TrackBits {
	if tl := n.get(t); tl != nil {
		return tl.tracks
	}
	return rail.TrackBitNone
}

// RailType implements railpf.Traversal.
func (n *Network) RailType(t rail.Tile) rail.RailType {
	if tl := n.get(t); tl != nil {
		return tl.railType
	}
	return 0
}

// IsLevelCrossing implements railpf.Traversal.
func (n *Network) IsLevelCrossing(t rail.Tile) bool {
	return n.Kind(t) == rail.TileCrossing
}

// SlopeUphill implements railpf.Traversal. Only straight track can climb.
func (n *Network) SlopeUphill(t rail.Tile, td rail.Trackdir) bool {
	tl := n.get(t)
	return tl != nil && tl.uphill != rail.InvalidDiagDir && td.IsDiagonal() && td.Exitdir() == tl.uphill
}

// SpeedLimit implements railpf.Traversal.
func (n *Network) SpeedLimit(t rail.Tile) (min, max int) {
	if tl := n.get(t); tl != nil {
		return tl.minSpeed, tl.maxSpeed
	}
	return 0, 0
}

// HasSignal implements railpf.Traversal.
func (n *Network) HasSignal(t rail.Tile, td rail.Trackdir) bool {
	n.mu.RLock()
	defer n.mu.RUnlock()
	tl := n.tiles[t]
	if tl == nil || !td.Valid() {
		return false
	}
	sig := tl.signals[td.Track()]
	return sig != nil && sig.present[td>>3]
}

// SignalType implements railpf.Traversal.
func (n *Network) SignalType(t rail.Tile, track rail.Track) rail.SignalType {
	n.mu.RLock()
	defer n.mu.RUnlock()
	tl := n.tiles[t]
	if tl == nil || track > rail.TrackRight || tl.signals[track] == nil {
		return rail.SignalBlock
	}
	return tl.signals[track].typ
}

// SignalState implements railpf.Traversal. Missing signals read as green.
func (n *Network) SignalState(t rail.Tile, td rail.Trackdir) rail.SignalState {
	n.mu.RLock()
	defer n.mu.RUnlock()
	tl := n.tiles[t]
	if tl == nil || !td.Valid() {
		return rail.SignalGreen
	}
	sig := tl.signals[td.Track()]
	if sig == nil || !sig.present[td>>3] || !sig.red[td>>3] {
		return rail.SignalGreen
	}
	return rail.SignalRed
}

// ReservedTracks implements railpf.Traversal.
func (n *Network) ReservedTracks(t rail.Tile) rail.TrackBits {
	if tl := n.get(t); tl != nil {
		return tl.reserved
	}
	return rail.TrackBitNone
}

// StationReserved implements railpf.Traversal.
func (n *Network) StationReserved(t rail.Tile) bool {
	tl := n.get(t)
	return tl != nil && tl.kind == rail.TileStation && tl.stationReserved
}

// StationID implements railpf.Traversal.
func (n *Network) StationID(t rail.Tile) rail.StationID {
	if tl := n.get(t); tl != nil {
		return tl.station
	}
	return rail.InvalidStation
}

// PlatformLength implements railpf.Traversal.
func (n *Network) PlatformLength(t rail.Tile, dir rail.DiagDir) int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.platformLength(t, dir)
}

func (n *Network) platformLength(t rail.Tile, dir rail.DiagDir) int {
	start := n.tiles[t]
	if start == nil || start.kind != rail.TileStation {
		return 0
	}
	length := 0
	for cur := t; ; cur = cur.Add(dir) {
		tl := n.tiles[cur]
		if tl == nil || tl.kind != rail.TileStation || tl.station != start.station || tl.tracks != start.tracks {
			break
		}
		length++
	}
	return length
}

// StationTiles implements railpf.Traversal.
func (n *Network) StationTiles(id rail.StationID) []rail.Tile {
	n.mu.RLock()
	defer n.mu.RUnlock()
	var out []rail.Tile
	for t, tl := range n.tiles {
		if (tl.kind == rail.TileStation || tl.kind == rail.TileWaypoint) && tl.station == id {
			out = append(out, t)
		}
	}
	slices.Sort(out)
	return out
}

// Revision implements railpf.Traversal.
func (n *Network) Revision() uint64 {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.revision
}

// Len returns the number of tiles.
func (n *Network) Len() int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return len(n.tiles)
}

// #endregion queries
