package railpf

import "github.com/danielpatrickdp/railpath/internal/rail"

// #region interface

// Destination decides which segment ends satisfy a request and estimates
// the remaining cost from a segment end.
type Destination interface {
	IsDestination(tile rail.Tile, td rail.Trackdir) bool
	Estimate(tile rail.Tile, td rail.Trackdir) int
}

// waypointDestination is implemented by oracles that target a waypoint, so the
// cost model can look for a waiting position behind it.
type waypointDestination interface {
	Waypoint() rail.StationID
}

// trackDestination is implemented by oracles that can be met on plain track,
// so every walked tile is checked instead of segment ends only.
type trackDestination interface {
	onTrack()
}

// #endregion interface

// #region estimate

var exitDX = [4]int{-1, 0, 1, 0}
var exitDY = [4]int{0, 1, 0, -1}

// halfTileEstimate measures from the exit edge of (tile, td) to the centre of
// target on a half-tile grid: diagonal steps cost a corner length and the
// remaining straight half tiles half a tile each.
func halfTileEstimate(tile rail.Tile, td rail.Trackdir, target rail.Tile) int {
	exit := td.Exitdir()
	if exit > rail.DiagDirNW {
		return 0
	}
	x1 := 2*tile.X() + exitDX[exit]
	y1 := 2*tile.Y() + exitDY[exit]
	x2 := 2 * target.X()
	y2 := 2 * target.Y()
	dx, dy := absInt(x1-x2), absInt(y1-y2)
	dmin := min(dx, dy)
	dxy := absInt(dx - dy)
	return dmin*TileCornerLength + (dxy-1)*(TileLength/2)
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// #endregion estimate

// #region oracles

// DestTile targets one tile, optionally restricted to some trackdirs.
type DestTile struct {
	Tile      rail.Tile
	Trackdirs rail.TrackdirBits // zero accepts any trackdir
}

func (d DestTile) IsDestination(tile rail.Tile, td rail.Trackdir) bool {
	return tile == d.Tile && (d.Trackdirs == 0 || d.Trackdirs.Has(td))
}

func (d DestTile) Estimate(tile rail.Tile, td rail.Trackdir) int {
	return halfTileEstimate(tile, td, d.Tile)
}

func (DestTile) onTrack() {}

// DestStation targets any platform tile of a station.
type DestStation struct {
	net    Traversal
	ID     rail.StationID
	target rail.Tile
}

// NewDestStation targets station id. The estimate aims at the station tile
// closest to from.
func NewDestStation(net Traversal, id rail.StationID, from rail.Tile) *DestStation {
	return &DestStation{net: net, ID: id, target: closestTile(net.StationTiles(id), from)}
}

func (d *DestStation) IsDestination(tile rail.Tile, td rail.Trackdir) bool {
	return d.net.Kind(tile) == rail.TileStation && d.net.StationID(tile) == d.ID
}

func (d *DestStation) Estimate(tile rail.Tile, td rail.Trackdir) int {
	return halfTileEstimate(tile, td, d.target)
}

// DestWaypoint targets a waypoint.
type DestWaypoint struct {
	net    Traversal
	ID     rail.StationID
	target rail.Tile
}

// NewDestWaypoint targets waypoint id.
func NewDestWaypoint(net Traversal, id rail.StationID, from rail.Tile) *DestWaypoint {
	return &DestWaypoint{net: net, ID: id, target: closestTile(net.StationTiles(id), from)}
}

func (d *DestWaypoint) IsDestination(tile rail.Tile, td rail.Trackdir) bool {
	return d.net.Kind(tile) == rail.TileWaypoint && d.net.StationID(tile) == d.ID
}

func (d *DestWaypoint) Estimate(tile rail.Tile, td rail.Trackdir) int {
	return halfTileEstimate(tile, td, d.target)
}

func (d *DestWaypoint) Waypoint() rail.StationID { return d.ID }

// DestDepot targets one depot.
type DestDepot struct {
	Tile rail.Tile
}

func (d DestDepot) IsDestination(tile rail.Tile, td rail.Trackdir) bool { return tile == d.Tile }

func (d DestDepot) Estimate(tile rail.Tile, td rail.Trackdir) int {
	return halfTileEstimate(tile, td, d.Tile)
}

// DestAnyDepot accepts the first depot reached. The search degrades to
// uniform cost since any direction may lead to one.
type DestAnyDepot struct {
	net Traversal
}

func NewDestAnyDepot(net Traversal) DestAnyDepot { return DestAnyDepot{net: net} }

func (d DestAnyDepot) IsDestination(tile rail.Tile, td rail.Trackdir) bool {
	return d.net.Kind(tile) == rail.TileDepot
}

func (d DestAnyDepot) Estimate(tile rail.Tile, td rail.Trackdir) int { return 0 }

// DestSafeTile accepts the first free, safe waiting position.
type DestSafeTile struct {
	net  Traversal
	opts FollowOptions
}

func NewDestSafeTile(net Traversal, v Vehicle, forbid90 bool) DestSafeTile {
	return DestSafeTile{net: net, opts: FollowOptions{Compatible: v.Compatible, Forbid90: forbid90}}
}

func (d DestSafeTile) IsDestination(tile rail.Tile, td rail.Trackdir) bool {
	return IsSafeWaitingPosition(d.net, tile, td, d.opts, true) &&
		IsWaitingPositionFree(d.net, tile, td, d.opts)
}

func (d DestSafeTile) Estimate(tile rail.Tile, td rail.Trackdir) int { return 0 }

// #endregion oracles

// closestTile clamps from into the bounding box of tiles.
func closestTile(tiles []rail.Tile, from rail.Tile) rail.Tile {
	if len(tiles) == 0 {
		return from
	}
	minX, minY := tiles[0].X(), tiles[0].Y()
	maxX, maxY := minX, minY
	for _, t := range tiles[1:] {
		minX, maxX = min(minX, t.X()), max(maxX, t.X())
		minY, maxY = min(minY, t.Y()), max(maxY, t.Y())
	}
	x := min(max(from.X(), minX), maxX)
	y := min(max(from.Y(), minY), maxY)
	return rail.TileXY(x, y)
}
