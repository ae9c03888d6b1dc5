package rail

import "fmt"

// #region tile

// Tile identifies one map square. The low 16 bits hold X, the high 16 bits hold Y.
type Tile uint32

// InvalidTile marks "no tile".
const InvalidTile Tile = 0xFFFFFFFF

// TileXY packs map coordinates into a Tile.
func TileXY(x, y int) Tile {
	return Tile(uint32(y)<<16 | uint32(x)&0xFFFF)
}

// X returns the tile's column.
func (t Tile) X() int { return int(t & 0xFFFF) }

// Y returns the tile's row.
func (t Tile) Y() int { return int(t >> 16) }

// Add returns the neighbouring tile in direction d.
// The result may be off the map; callers must validate it against their network.
func (t Tile) Add(d DiagDir) Tile {
	x, y := t.X(), t.Y()
	switch d {
	case DiagDirNE:
		x--
	case DiagDirSE:
		y++
	case DiagDirSW:
		x++
	case DiagDirNW:
		y--
	default:
		return InvalidTile
	}
	if x < 0 || y < 0 || x > 0xFFFF || y > 0xFFFF {
		return InvalidTile
	}
	return TileXY(x, y)
}

// Distance returns the Manhattan distance between two tiles.
func (t Tile) Distance(o Tile) int {
	return abs(t.X()-o.X()) + abs(t.Y()-o.Y())
}

func (t Tile) String() string {
	if t == InvalidTile {
		return "(invalid)"
	}
	return fmt.Sprintf("(%d,%d)", t.X(), t.Y())
}

// #endregion tile

// #region diagdir

// DiagDir is one of the four tile edges, used as a direction of travel between tiles.
type DiagDir uint8

const (
	DiagDirNE      DiagDir = iota // towards decreasing X
	DiagDirSE                     // towards increasing Y
	DiagDirSW                     // towards increasing X
	DiagDirNW                     // towards decreasing Y
	InvalidDiagDir DiagDir = 0xFF
)

// Reverse returns the opposite direction.
func (d DiagDir) Reverse() DiagDir {
	if d > DiagDirNW {
		return InvalidDiagDir
	}
	return (d + 2) & 3
}

// AxisTrack returns the straight track running along d.
func (d DiagDir) AxisTrack() Track {
	if d == DiagDirNE || d == DiagDirSW {
		return TrackX
	}
	return TrackY
}

var diagDirNames = [4]string{"ne", "se", "sw", "nw"}

func (d DiagDir) String() string {
	if d > DiagDirNW {
		return "invalid"
	}
	return diagDirNames[d]
}

// ParseDiagDir parses the short lower-case name of a direction.
func ParseDiagDir(s string) (DiagDir, error) {
	for i, n := range diagDirNames {
		if n == s {
			return DiagDir(i), nil
		}
	}
	return InvalidDiagDir, fmt.Errorf("unknown direction %q", s)
}

// #endregion diagdir

// #region track

// Track is one of the six track pieces a tile can carry.
type Track uint8

const (
	TrackX       Track = iota // NE edge to SW edge
	TrackY                    // NW edge to SE edge
	TrackUpper                // near the north corner
	TrackLower                // near the south corner
	TrackLeft                 // near the west corner
	TrackRight                // near the east corner
	InvalidTrack Track = 0xFF
)

// TrackBits is a set of tracks on one tile.
type TrackBits uint8

const (
	TrackBitNone  TrackBits = 0
	TrackBitX     TrackBits = 1 << TrackX
	TrackBitY     TrackBits = 1 << TrackY
	TrackBitUpper TrackBits = 1 << TrackUpper
	TrackBitLower TrackBits = 1 << TrackLower
	TrackBitLeft  TrackBits = 1 << TrackLeft
	TrackBitRight TrackBits = 1 << TrackRight
	TrackBitAll   TrackBits = 0x3F
)

// Bit returns the single-track set for t.
func (t Track) Bit() TrackBits { return 1 << t }

// IsDiagonal reports whether t runs straight across the tile (X or Y).
func (t Track) IsDiagonal() bool { return t == TrackX || t == TrackY }

// Crosses returns the tracks that cross t at a right angle.
func (t Track) Crosses() TrackBits {
	switch t {
	case TrackX:
		return TrackBitY
	case TrackY:
		return TrackBitX
	case TrackUpper, TrackLower:
		return TrackBitLeft | TrackBitRight
	case TrackLeft, TrackRight:
		return TrackBitUpper | TrackBitLower
	}
	return TrackBitNone
}

var trackNames = [6]string{"x", "y", "upper", "lower", "left", "right"}

func (t Track) String() string {
	if t > TrackRight {
		return "invalid"
	}
	return trackNames[t]
}

// ParseTrack parses a track name as used in layout files.
func ParseTrack(s string) (Track, error) {
	for i, n := range trackNames {
		if n == s {
			return Track(i), nil
		}
	}
	return InvalidTrack, fmt.Errorf("unknown track %q", s)
}

// Has reports whether t is in the set.
func (b TrackBits) Has(t Track) bool { return t <= TrackRight && b&t.Bit() != 0 }

// Overlaps reports whether the two sets share a track.
func (b TrackBits) Overlaps(o TrackBits) bool { return b&o != 0 }

// Overlap reports whether the tracks of the set cannot be used at the same
// time. Only the two parallel corner pairs can coexist.
func (b TrackBits) Overlap() bool {
	if b.Count() <= 1 {
		return false
	}
	return b != TrackBitUpper|TrackBitLower && b != TrackBitLeft|TrackBitRight
}

// OverlapsTrack reports whether t is in the set or conflicts with it.
func (b TrackBits) OverlapsTrack(t Track) bool {
	if b.Has(t) {
		return true
	}
	return b != TrackBitNone && (b | t.Bit()).Overlap()
}

// Count returns the number of tracks in the set.
func (b TrackBits) Count() int {
	n := 0
	for ; b != 0; b &= b - 1 {
		n++
	}
	return n
}

// Trackdirs returns both directions of every track in the set.
func (b TrackBits) Trackdirs() TrackdirBits {
	return TrackdirBits(b) | TrackdirBits(b)<<8
}

// #endregion track

// #region trackdir

// Trackdir is a track together with a direction of travel along it.
// Values below 8 are the "eastbound" halves; Reverse flips bit 3.
type Trackdir uint8

const (
	TrackdirXNE     Trackdir = 0
	TrackdirYSE     Trackdir = 1
	TrackdirUpperE  Trackdir = 2
	TrackdirLowerE  Trackdir = 3
	TrackdirLeftS   Trackdir = 4
	TrackdirRightS  Trackdir = 5
	TrackdirXSW     Trackdir = 8
	TrackdirYNW     Trackdir = 9
	TrackdirUpperW  Trackdir = 10
	TrackdirLowerW  Trackdir = 11
	TrackdirLeftN   Trackdir = 12
	TrackdirRightN  Trackdir = 13
	InvalidTrackdir Trackdir = 0xFF
)

var trackdirExit = [14]DiagDir{
	DiagDirNE, DiagDirSE, DiagDirNE, DiagDirSE, DiagDirSW, DiagDirSE, InvalidDiagDir, InvalidDiagDir,
	DiagDirSW, DiagDirNW, DiagDirNW, DiagDirSW, DiagDirNW, DiagDirNE,
}

var trackdirNext = [14]Trackdir{
	TrackdirXNE, TrackdirYSE, TrackdirLowerE, TrackdirUpperE, TrackdirRightS, TrackdirLeftS, InvalidTrackdir, InvalidTrackdir,
	TrackdirXSW, TrackdirYNW, TrackdirLowerW, TrackdirUpperW, TrackdirRightN, TrackdirLeftN,
}

var trackdirNames = [14]string{
	"x_ne", "y_se", "upper_e", "lower_e", "left_s", "right_s", "", "",
	"x_sw", "y_nw", "upper_w", "lower_w", "left_n", "right_n",
}

// Valid reports whether td names one of the twelve real trackdirs.
func (td Trackdir) Valid() bool {
	return td <= TrackdirRightN && td&7 <= 5
}

// Track returns the track td runs along.
func (td Trackdir) Track() Track { return Track(td & 7) }

// Reverse returns the same track travelled the other way.
func (td Trackdir) Reverse() Trackdir { return td ^ 8 }

// Exitdir returns the tile edge a train leaves through when following td.
func (td Trackdir) Exitdir() DiagDir {
	if !td.Valid() {
		return InvalidDiagDir
	}
	return trackdirExit[td]
}

// IsDiagonal reports whether td runs along a straight (X or Y) track.
func (td Trackdir) IsDiagonal() bool { return td.Track().IsDiagonal() }

// Next returns the trackdir that continues straight ahead on the next tile.
func (td Trackdir) Next() Trackdir {
	if !td.Valid() {
		return InvalidTrackdir
	}
	return trackdirNext[td]
}

// Crossing returns the trackdirs that cross td at a right angle, in both directions.
func (td Trackdir) Crossing() TrackdirBits {
	return td.Track().Crosses().Trackdirs()
}

// Bit returns the single-trackdir set for td.
func (td Trackdir) Bit() TrackdirBits { return 1 << td }

func (td Trackdir) String() string {
	if !td.Valid() {
		return "invalid"
	}
	return trackdirNames[td]
}

// ParseTrackdir parses a trackdir name such as "x_ne".
func ParseTrackdir(s string) (Trackdir, error) {
	for i, n := range trackdirNames {
		if n != "" && n == s {
			return Trackdir(i), nil
		}
	}
	return InvalidTrackdir, fmt.Errorf("unknown trackdir %q", s)
}

// DiagDirToTrackdir returns the straight trackdir heading in direction d.
func DiagDirToTrackdir(d DiagDir) Trackdir {
	switch d {
	case DiagDirNE:
		return TrackdirXNE
	case DiagDirSE:
		return TrackdirYSE
	case DiagDirSW:
		return TrackdirXSW
	case DiagDirNW:
		return TrackdirYNW
	}
	return InvalidTrackdir
}

// TrackdirBits is a set of trackdirs.
type TrackdirBits uint16

const TrackdirBitNone TrackdirBits = 0

// Has reports whether td is in the set.
func (b TrackdirBits) Has(td Trackdir) bool { return td.Valid() && b&td.Bit() != 0 }

// Count returns the number of trackdirs in the set.
func (b TrackdirBits) Count() int {
	n := 0
	for ; b != 0; b &= b - 1 {
		n++
	}
	return n
}

// First returns the lowest trackdir in the set, or InvalidTrackdir when empty.
func (b TrackdirBits) First() Trackdir {
	if b == 0 {
		return InvalidTrackdir
	}
	for td := Trackdir(0); td <= TrackdirRightN; td++ {
		if b&td.Bit() != 0 {
			return td
		}
	}
	return InvalidTrackdir
}

// KillFirst removes the lowest trackdir from the set.
func (b TrackdirBits) KillFirst() TrackdirBits { return b & (b - 1) }

// Tracks returns the tracks touched by the set.
func (b TrackdirBits) Tracks() TrackBits {
	return TrackBits(b&0x3F) | TrackBits((b>>8)&0x3F)
}

// Each returns the trackdirs of the set in ascending order.
func (b TrackdirBits) Each() []Trackdir {
	out := make([]Trackdir, 0, b.Count())
	for ; b != 0; b = b.KillFirst() {
		out = append(out, b.First())
	}
	return out
}

// ReachableTrackdirs returns the trackdirs a train can take on a tile it enters
// while moving in direction d.
func ReachableTrackdirs(d DiagDir) TrackdirBits {
	if d > DiagDirNW {
		return TrackdirBitNone
	}
	entry := d.Reverse()
	var out TrackdirBits
	for td := Trackdir(0); td <= TrackdirRightN; td++ {
		if td.Valid() && td.Reverse().Exitdir() == entry {
			out |= td.Bit()
		}
	}
	return out
}

// ReachableTracks returns the tracks that touch the entry edge when moving in direction d.
func ReachableTracks(d DiagDir) TrackBits {
	return ReachableTrackdirs(d).Tracks()
}

// #endregion trackdir

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
