package rail

import "fmt"

// TileKind classifies what a tile carries, as far as the path search cares.
type TileKind uint8

const (
	TileVoid         TileKind = iota // nothing a train can use
	TileRail                         // plain track, may carry signals
	TileCrossing                     // rail crossing a road
	TileStation                      // station platform
	TileWaypoint                     // waypoint platform
	TileDepot                        // train depot
	TileTunnelBridge                 // tunnel portal or bridge ramp
)

var tileKindNames = [...]string{"void", "rail", "crossing", "station", "waypoint", "depot", "bridge"}

func (k TileKind) String() string {
	if int(k) < len(tileKindNames) {
		return tileKindNames[k]
	}
	return fmt.Sprintf("kind(%d)", k)
}

// ParseTileKind parses the layout-file name of a tile kind.
// "tunnel" is accepted as an alias for "bridge".
func ParseTileKind(s string) (TileKind, error) {
	if s == "tunnel" {
		return TileTunnelBridge, nil
	}
	for i, n := range tileKindNames {
		if n == s {
			return TileKind(i), nil
		}
	}
	return TileVoid, fmt.Errorf("unknown tile kind %q", s)
}

// RailType is an index into the rail types a network defines.
type RailType uint8

// RailTypes is a set of rail types, typically those a vehicle can run on.
type RailTypes uint32

// AllRailTypes accepts every rail type.
const AllRailTypes RailTypes = 0xFFFFFFFF

// Has reports whether rt is in the set.
func (s RailTypes) Has(rt RailType) bool { return rt < 32 && s&(1<<rt) != 0 }

// RailTypesOf builds a set from individual types.
func RailTypesOf(types ...RailType) RailTypes {
	var s RailTypes
	for _, rt := range types {
		if rt < 32 {
			s |= 1 << rt
		}
	}
	return s
}

// SignalType is the behaviour class of a signal.
type SignalType uint8

const (
	SignalBlock     SignalType = iota // plain block signal
	SignalEntry                       // presignal entry
	SignalExit                        // presignal exit
	SignalCombo                       // presignal combo
	SignalPBS                         // path signal, passable from behind
	SignalPBSOneway                   // one-way path signal
)

var signalTypeNames = [...]string{"block", "entry", "exit", "combo", "pbs", "pbs_oneway"}

// IsPBS reports whether the signal is capacity based (a path signal).
func (s SignalType) IsPBS() bool { return s == SignalPBS || s == SignalPBSOneway }

// IsOneway reports whether the signal blocks trains approaching it from behind.
func (s SignalType) IsOneway() bool { return s != SignalPBS }

func (s SignalType) String() string {
	if int(s) < len(signalTypeNames) {
		return signalTypeNames[s]
	}
	return fmt.Sprintf("signal(%d)", s)
}

// ParseSignalType parses the layout-file name of a signal type.
func ParseSignalType(s string) (SignalType, error) {
	for i, n := range signalTypeNames {
		if n == s {
			return SignalType(i), nil
		}
	}
	return SignalBlock, fmt.Errorf("unknown signal type %q", s)
}

// SignalState is the aspect a signal currently shows.
type SignalState uint8

const (
	SignalRed SignalState = iota
	SignalGreen
)

func (s SignalState) String() string {
	if s == SignalGreen {
		return "green"
	}
	return "red"
}

// StationID identifies a station or waypoint.
type StationID uint16

// InvalidStation marks tiles that belong to no station.
const InvalidStation StationID = 0xFFFF
