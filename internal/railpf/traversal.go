package railpf

import (
	"fmt"

	"github.com/danielpatrickdp/railpath/internal/rail"
)

// #region key

// Key identifies a search node: a tile and the trackdir a train occupies on it.
type Key struct {
	Tile rail.Tile
	Td   rail.Trackdir
}

func (k Key) String() string { return fmt.Sprintf("%s/%s", k.Tile, k.Td) }

// InvalidKey is the zero position used before a node has a last tile.
var InvalidKey = Key{Tile: rail.InvalidTile, Td: rail.InvalidTrackdir}

// #endregion key

// #region follow

// FollowError says why a train cannot continue from a tile.
type FollowError uint8

const (
	FollowOK       FollowError = iota
	FollowNoWay                // map edge, blocked entry or no connecting track
	FollowRailType             // next tile's rail type is not usable by the vehicle
	Follow90Deg                // only 90 degree turns remain and they are forbidden
)

// FollowOptions carries the vehicle properties that limit where it may go.
type FollowOptions struct {
	Compatible rail.RailTypes
	Forbid90   bool
}

// FollowResult is where a train ends up when it leaves a tile along a trackdir.
type FollowResult struct {
	Tile         rail.Tile
	Trackdirs    rail.TrackdirBits
	TilesSkipped int  // tiles jumped over (platform interior, bridge, tunnel)
	Station      bool // the jump ended at the far end of a station platform
	Err          FollowError
}

// OK reports whether at least one trackdir can be taken.
func (f FollowResult) OK() bool { return f.Err == FollowOK && f.Trackdirs != 0 }

// #endregion follow

// #region traversal

// Traversal is the read-only view of the rail network a search needs.
// Implementations must be safe for concurrent readers.
type Traversal interface {
	// Follow moves from tile along td to the next tile the train can enter.
	Follow(tile rail.Tile, td rail.Trackdir, opts FollowOptions) FollowResult

	Kind(tile rail.Tile) rail.TileKind
	Tracks(tile rail.Tile) rail.TrackBits
	RailType(tile rail.Tile) rail.RailType
	IsLevelCrossing(tile rail.Tile) bool
	// SlopeUphill reports whether td climbs on tile.
	SlopeUphill(tile rail.Tile, td rail.Trackdir) bool
	// SpeedLimit returns the minimum and maximum speed on tile; 0 means no limit.
	SpeedLimit(tile rail.Tile) (min, max int)

	HasSignal(tile rail.Tile, td rail.Trackdir) bool
	SignalType(tile rail.Tile, track rail.Track) rail.SignalType
	SignalState(tile rail.Tile, td rail.Trackdir) rail.SignalState

	ReservedTracks(tile rail.Tile) rail.TrackBits
	StationReserved(tile rail.Tile) bool
	StationID(tile rail.Tile) rail.StationID
	// PlatformLength counts platform tiles from tile moving in dir, tile included.
	PlatformLength(tile rail.Tile, dir rail.DiagDir) int
	// StationTiles lists the tiles of a station or waypoint in ascending order.
	StationTiles(id rail.StationID) []rail.Tile

	// Revision changes whenever the topology changes. Signal aspects and
	// reservations are not topology.
	Revision() uint64
}

// #endregion traversal

// #region vehicle

// Vehicle describes the train the path is searched for.
type Vehicle struct {
	Compatible rail.RailTypes `json:"compatible"`
	MaxSpeed   int            `json:"max_speed"`
	Tiles      int            `json:"tiles"` // train length in whole tiles
}

// #endregion vehicle

// #region signal-helpers

// hasOnewayBlocking reports a one-way signal facing against td with none along it.
func hasOnewayBlocking(net Traversal, tile rail.Tile, td rail.Trackdir) bool {
	if net.Kind(tile) != rail.TileRail {
		return false
	}
	return net.HasSignal(tile, td.Reverse()) && !net.HasSignal(tile, td) &&
		net.SignalType(tile, td.Track()).IsOneway()
}

func hasPBSSignal(net Traversal, tile rail.Tile, td rail.Trackdir) bool {
	return net.Kind(tile) == rail.TileRail && net.HasSignal(tile, td) &&
		net.SignalType(tile, td.Track()).IsPBS()
}

// IsSafeWaitingPosition reports whether a train could stop at (tile, td)
// without blocking other paths: inside a depot, on a block signal, in front
// of a path signal, or at a line end when includeLineEnd is set.
func IsSafeWaitingPosition(net Traversal, tile rail.Tile, td rail.Trackdir, opts FollowOptions, includeLineEnd bool) bool {
	switch net.Kind(tile) {
	case rail.TileDepot:
		return true
	case rail.TileRail:
		if net.HasSignal(tile, td) && !net.SignalType(tile, td.Track()).IsPBS() {
			return true
		}
	}
	f := net.Follow(tile, td, opts)
	if !f.OK() {
		return includeLineEnd
	}
	if f.Trackdirs.Count() > 1 {
		return false
	}
	next := f.Trackdirs.First()
	if hasPBSSignal(net, f.Tile, next) {
		return true
	}
	// back of a one-way path signal
	if net.Kind(f.Tile) == rail.TileRail && net.HasSignal(f.Tile, next.Reverse()) &&
		net.SignalType(f.Tile, next.Track()) == rail.SignalPBSOneway {
		return includeLineEnd
	}
	return false
}

// IsWaitingPositionFree reports whether a train could wait at (tile, td)
// without touching a reservation, including the track just past a path signal.
func IsWaitingPositionFree(net Traversal, tile rail.Tile, td rail.Trackdir, opts FollowOptions) bool {
	if net.ReservedTracks(tile).OverlapsTrack(td.Track()) {
		return false
	}
	switch net.Kind(tile) {
	case rail.TileDepot:
		return true
	case rail.TileRail:
		if net.HasSignal(tile, td) && !net.SignalType(tile, td.Track()).IsPBS() {
			return true
		}
	}
	f := net.Follow(tile, td, opts)
	if !f.OK() {
		return true
	}
	return !net.ReservedTracks(f.Tile).Overlaps(f.Trackdirs.Tracks())
}

// #endregion signal-helpers
