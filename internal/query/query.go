package query

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/danielpatrickdp/railpath/internal/rail"
	"github.com/danielpatrickdp/railpath/internal/railpf"
)

// ErrBadRequest marks a query that cannot be resolved against a network.
var ErrBadRequest = errors.New("bad request")

// #region request-types
// Request is the JSON form of a path query. It is what the RPC and HTTP
// surfaces accept, what fixtures hold and what the search log stores.
type Request struct {
	Origins           []Origin `json:"origins"`
	Dest              Dest     `json:"dest"`
	Vehicle           Vehicle  `json:"vehicle"`
	MaxCost           int      `json:"max_cost,omitempty"`
	FirstRedTwoWayEOL bool     `json:"first_red_two_way_eol,omitempty"`
	DisableCache      bool     `json:"disable_cache,omitempty"`
}

// Origin is a start position. Penalty is added before the first tile, e.g.
// for reversing the train.
type Origin struct {
	X        int    `json:"x"`
	Y        int    `json:"y"`
	Trackdir string `json:"trackdir"`
	Penalty  int    `json:"penalty,omitempty"`
}

// Dest selects the destination oracle.
type Dest struct {
	Kind      string   `json:"kind"` // "tile" | "station" | "waypoint" | "depot" | "any_depot" | "safe_tile"
	X         int      `json:"x,omitempty"`
	Y         int      `json:"y,omitempty"`
	ID        int      `json:"id,omitempty"`
	Trackdirs []string `json:"trackdirs,omitempty"`
}

// Vehicle mirrors railpf.Vehicle. No rail types means any.
type Vehicle struct {
	RailTypes []int `json:"rail_types,omitempty"`
	MaxSpeed  int   `json:"max_speed,omitempty"`
	Tiles     int   `json:"tiles,omitempty"`
}
// #endregion request-types

// #region resolve
// Resolve turns q into a search request over net. forbid90 must match the
// finder's config so safe-tile checks follow the same track.
func (q Request) Resolve(net railpf.Traversal, forbid90 bool) (railpf.Request, error) {
	if len(q.Origins) == 0 {
		return railpf.Request{}, fmt.Errorf("%w: no origins", ErrBadRequest)
	}
	req := railpf.Request{
		MaxCost:                  q.MaxCost,
		TreatFirstRedTwoWayAsEOL: q.FirstRedTwoWayEOL,
		DisableCache:             q.DisableCache,
		Vehicle: railpf.Vehicle{
			Compatible: rail.AllRailTypes,
			MaxSpeed:   q.Vehicle.MaxSpeed,
			Tiles:      q.Vehicle.Tiles,
		},
	}
	if len(q.Vehicle.RailTypes) > 0 {
		types := make([]rail.RailType, 0, len(q.Vehicle.RailTypes))
		for _, rt := range q.Vehicle.RailTypes {
			if rt < 0 || rt > 31 {
				return railpf.Request{}, fmt.Errorf("%w: rail type %d out of range", ErrBadRequest, rt)
			}
			types = append(types, rail.RailType(rt))
		}
		req.Vehicle.Compatible = rail.RailTypesOf(types...)
	}

	for i, o := range q.Origins {
		td, err := rail.ParseTrackdir(o.Trackdir)
		if err != nil {
			return railpf.Request{}, fmt.Errorf("%w: origin %d: %v", ErrBadRequest, i, err)
		}
		req.Origins = append(req.Origins, railpf.Origin{
			Key:     railpf.Key{Tile: rail.TileXY(o.X, o.Y), Td: td},
			Penalty: o.Penalty,
		})
	}
	start := req.Origins[0].Key.Tile

	d := q.Dest
	target := rail.TileXY(d.X, d.Y)
	switch d.Kind {
	case "tile":
		var bits rail.TrackdirBits
		for _, name := range d.Trackdirs {
			td, err := rail.ParseTrackdir(name)
			if err != nil {
				return railpf.Request{}, fmt.Errorf("%w: dest: %v", ErrBadRequest, err)
			}
			bits |= td.Bit()
		}
		req.Dest = railpf.DestTile{Tile: target, Trackdirs: bits}
	case "station", "waypoint":
		id := rail.StationID(d.ID)
		if len(net.StationTiles(id)) == 0 {
			return railpf.Request{}, fmt.Errorf("%w: %s %d has no tiles", ErrBadRequest, d.Kind, d.ID)
		}
		if d.Kind == "station" {
			req.Dest = railpf.NewDestStation(net, id, start)
		} else {
			req.Dest = railpf.NewDestWaypoint(net, id, start)
		}
	case "depot":
		if net.Kind(target) != rail.TileDepot {
			return railpf.Request{}, fmt.Errorf("%w: no depot at %s", ErrBadRequest, target)
		}
		req.Dest = railpf.DestDepot{Tile: target}
	case "any_depot":
		req.Dest = railpf.NewDestAnyDepot(net)
	case "safe_tile":
		req.Dest = railpf.NewDestSafeTile(net, req.Vehicle, forbid90)
		req.SafeTile = true
	default:
		return railpf.Request{}, fmt.Errorf("%w: unknown destination kind %q", ErrBadRequest, d.Kind)
	}
	return req, nil
}
// #endregion resolve

// #region response
// Step is one (tile, trackdir) of a path.
type Step struct {
	X        int    `json:"x"`
	Y        int    `json:"y"`
	Trackdir string `json:"trackdir"`
}

// Response is the JSON form of a search result.
type Response struct {
	SearchID                   string       `json:"search_id,omitempty"`
	Found                      bool         `json:"found"`
	Cost                       int          `json:"cost"`
	Steps                      []Step       `json:"steps,omitempty"`
	Closest                    []Step       `json:"closest,omitempty"`
	StepsHash                  string       `json:"steps_hash,omitempty"`
	StoppedOnFirstTwoWaySignal bool         `json:"stopped_on_first_two_way_signal,omitempty"`
	Budget                     bool         `json:"budget,omitempty"`
	TimedOut                   bool         `json:"timed_out,omitempty"`
	Stats                      railpf.Stats `json:"stats"`
	Error                      string       `json:"error,omitempty"`
}

// NewResponse converts a search result.
func NewResponse(res railpf.Result) Response {
	r := Response{
		Found:                      res.Found,
		Cost:                       res.Cost,
		Steps:                      toSteps(res.Steps),
		Closest:                    toSteps(res.Closest),
		StoppedOnFirstTwoWaySignal: res.StoppedOnFirstTwoWaySignal,
		Budget:                     res.Budget,
		TimedOut:                   res.Canceled,
		Stats:                      res.Stats,
	}
	if res.Found {
		r.StepsHash = StepsHash(res.Steps)
	}
	return r
}

// Outcome names how the search ended.
func (r Response) Outcome() string {
	switch {
	case r.Error != "":
		return "error"
	case r.Found:
		return "found"
	case r.TimedOut:
		return "timeout"
	case r.Budget:
		return "budget"
	}
	return "no_path"
}

func toSteps(keys []railpf.Key) []Step {
	if len(keys) == 0 {
		return nil
	}
	out := make([]Step, len(keys))
	for i, k := range keys {
		out[i] = Step{X: k.Tile.X(), Y: k.Tile.Y(), Trackdir: k.Td.String()}
	}
	return out
}

// StepsHash is the hex SHA-256 of a step list. Two peers that computed the
// same path get the same hash.
func StepsHash(steps []railpf.Key) string {
	h := sha256.New()
	for _, k := range steps {
		fmt.Fprintf(h, "%d,%d,%d;", k.Tile.X(), k.Tile.Y(), k.Td)
	}
	return hex.EncodeToString(h.Sum(nil))
}
// #endregion response
