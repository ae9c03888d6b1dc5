package layout

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/danielpatrickdp/railpath/internal/rail"
)

// #region types

// Spec is the JSON form of a network.
type Spec struct {
	Name  string     `json:"name"`
	Lines []LineSpec `json:"lines,omitempty"`
	Tiles []TileSpec `json:"tiles,omitempty"`
}

// LineSpec lays a straight run of plain track.
type LineSpec struct {
	X        int    `json:"x"`
	Y        int    `json:"y"`
	Dir      string `json:"dir"`
	Length   int    `json:"length"`
	RailType int    `json:"rail_type,omitempty"`
}

// TileSpec describes one tile. Kind defaults to "rail". Station, waypoint
// and crossing tiles take their axis from the first entry of Tracks.
type TileSpec struct {
	X        int          `json:"x"`
	Y        int          `json:"y"`
	Kind     string       `json:"kind,omitempty"`
	Tracks   []string     `json:"tracks,omitempty"`
	RailType int          `json:"rail_type,omitempty"`
	Door     string       `json:"door,omitempty"`
	Station  int          `json:"station,omitempty"`
	OtherEnd *[2]int      `json:"other_end,omitempty"`
	Signals  []SignalSpec `json:"signals,omitempty"`
	Reserved []string     `json:"reserved,omitempty"`
	Uphill   string       `json:"uphill,omitempty"`
	MinSpeed int          `json:"min_speed,omitempty"`
	MaxSpeed int          `json:"max_speed,omitempty"`
}

// SignalSpec places one signal facing along Trackdir.
type SignalSpec struct {
	Trackdir string `json:"trackdir"`
	Type     string `json:"type"`
	Red      bool   `json:"red,omitempty"`
}

// #endregion types

// #region load

// Parse decodes a JSON layout.
func Parse(data []byte) (Spec, error) {
	var s Spec
	if err := json.Unmarshal(data, &s); err != nil {
		return Spec{}, fmt.Errorf("parse layout: %w", err)
	}
	return s, nil
}

// Load decodes and builds a network from r.
func Load(r io.Reader) (*Network, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read layout: %w", err)
	}
	s, err := Parse(data)
	if err != nil {
		return nil, err
	}
	return s.Build()
}

// LoadFile builds a network from a JSON file.
func LoadFile(path string) (*Network, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open layout: %w", err)
	}
	defer f.Close()
	return Load(f)
}

// Build creates the network described by s. Lines are laid first, then
// tiles in order, then signals, reservations, slopes and speed limits.
func (s Spec) Build() (*Network, error) {
	n := New(s.Name)
	for i, l := range s.Lines {
		dir, err := rail.ParseDiagDir(l.Dir)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", i, err)
		}
		if l.Length <= 0 {
			return nil, fmt.Errorf("line %d: length must be positive", i)
		}
		n.Straight(rail.TileXY(l.X, l.Y), dir, l.Length, rail.RailType(l.RailType))
	}
	for _, ts := range s.Tiles {
		if err := ts.place(n); err != nil {
			return nil, err
		}
	}
	for _, ts := range s.Tiles {
		if err := ts.decorate(n); err != nil {
			return nil, err
		}
	}
	return n, nil
}

func (ts TileSpec) tile() rail.Tile { return rail.TileXY(ts.X, ts.Y) }

func (ts TileSpec) trackBits() (rail.TrackBits, error) {
	var bits rail.TrackBits
	for _, name := range ts.Tracks {
		tr, err := rail.ParseTrack(name)
		if err != nil {
			return 0, fmt.Errorf("tile %s: %w", ts.tile(), err)
		}
		bits |= tr.Bit()
	}
	return bits, nil
}

func (ts TileSpec) axis() (rail.Track, error) {
	if len(ts.Tracks) == 0 {
		return rail.TrackX, nil
	}
	tr, err := rail.ParseTrack(ts.Tracks[0])
	if err != nil {
		return rail.InvalidTrack, fmt.Errorf("tile %s: %w", ts.tile(), err)
	}
	return tr, nil
}

func (ts TileSpec) place(n *Network) error {
	t := ts.tile()
	rt := rail.RailType(ts.RailType)
	kind := rail.TileRail
	if ts.Kind != "" {
		k, err := rail.ParseTileKind(ts.Kind)
		if err != nil {
			return fmt.Errorf("tile %s: %w", t, err)
		}
		kind = k
	}
	switch kind {
	case rail.TileRail:
		bits, err := ts.trackBits()
		if err != nil {
			return err
		}
		if bits != 0 {
			n.SetRail(t, bits, rt)
		}
		return nil
	case rail.TileCrossing, rail.TileStation, rail.TileWaypoint:
		axis, err := ts.axis()
		if err != nil {
			return err
		}
		switch kind {
		case rail.TileCrossing:
			return n.SetCrossing(t, axis, rt)
		case rail.TileStation:
			return n.SetStation(t, axis, rail.StationID(ts.Station), rt)
		default:
			return n.SetWaypoint(t, axis, rail.StationID(ts.Station), rt)
		}
	case rail.TileDepot:
		door, err := rail.ParseDiagDir(ts.Door)
		if err != nil {
			return fmt.Errorf("tile %s: depot door: %w", t, err)
		}
		return n.SetDepot(t, door, rt)
	case rail.TileTunnelBridge:
		if ts.OtherEnd == nil {
			return fmt.Errorf("tile %s: bridge needs other_end", t)
		}
		return n.SetBridge(t, rail.TileXY(ts.OtherEnd[0], ts.OtherEnd[1]), rt)
	}
	return fmt.Errorf("tile %s: kind %s cannot be placed", t, kind)
}

func (ts TileSpec) decorate(n *Network) error {
	t := ts.tile()
	for _, ss := range ts.Signals {
		td, err := rail.ParseTrackdir(ss.Trackdir)
		if err != nil {
			return fmt.Errorf("tile %s: %w", t, err)
		}
		typ, err := rail.ParseSignalType(ss.Type)
		if err != nil {
			return fmt.Errorf("tile %s: %w", t, err)
		}
		state := rail.SignalGreen
		if ss.Red {
			state = rail.SignalRed
		}
		if err := n.SetSignal(t, td, typ, state); err != nil {
			return err
		}
	}
	if len(ts.Reserved) > 0 {
		var bits rail.TrackBits
		for _, name := range ts.Reserved {
			tr, err := rail.ParseTrack(name)
			if err != nil {
				return fmt.Errorf("tile %s: reserved: %w", t, err)
			}
			bits |= tr.Bit()
		}
		if err := n.Reserve(t, bits); err != nil {
			return err
		}
	}
	if ts.Uphill != "" {
		d, err := rail.ParseDiagDir(ts.Uphill)
		if err != nil {
			return fmt.Errorf("tile %s: uphill: %w", t, err)
		}
		if err := n.SetSlope(t, d); err != nil {
			return err
		}
	}
	if ts.MinSpeed != 0 || ts.MaxSpeed != 0 {
		if err := n.SetSpeedLimit(t, ts.MinSpeed, ts.MaxSpeed); err != nil {
			return err
		}
	}
	return nil
}

// #endregion load
