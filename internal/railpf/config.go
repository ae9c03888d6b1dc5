package railpf

// #region constants

const (
	// TileLength is the cost of one straight tile.
	TileLength = 100
	// TileCornerLength is the cost of one corner (half diagonal) tile.
	TileCornerLength = 71
	// MaxSegmentCost ends a segment on plain track once its interior cost passes it.
	MaxSegmentCost = 10000
	// waypointLookAheadTiles bounds the scan for a free waiting position past a waypoint.
	waypointLookAheadTiles = 20
)

// #endregion constants

// #region config

// Config holds every penalty of the rail cost model. It is treated as an
// immutable value: a Finder copies it on construction.
type Config struct {
	Curve45    int  `json:"curve45"`
	Curve90    int  `json:"curve90"`
	Forbid90   bool `json:"forbid_90deg"`
	DoubleSlip int  `json:"doubleslip"`
	Slope      int  `json:"slope"`
	Crossing   int  `json:"crossing"`

	FirstRed     int `json:"firstred"`
	FirstRedExit int `json:"firstred_exit"`
	LastRed      int `json:"lastred"`
	LastRedExit  int `json:"lastred_exit"`
	SignalBack   int `json:"pbs_signal_back"`

	LookAheadMaxSignals int `json:"look_ahead_max_signals"`
	LookAheadP0         int `json:"look_ahead_p0"`
	LookAheadP1         int `json:"look_ahead_p1"`
	LookAheadP2         int `json:"look_ahead_p2"`

	ReservedStation  int `json:"pbs_station"`
	ReservedCrossing int `json:"pbs_cross"`

	Station                int `json:"station"`
	LongerPlatform         int `json:"longer_platform"`
	LongerPlatformPerTile  int `json:"longer_platform_per_tile"`
	ShorterPlatform        int `json:"shorter_platform"`
	ShorterPlatformPerTile int `json:"shorter_platform_per_tile"`

	DepotReverse      int  `json:"depot_reverse"`
	FirstRedTwoWayEOL bool `json:"firstred_twoway_eol"`
	MaxSearchNodes    int  `json:"max_search_nodes"`
}

// DefaultConfig returns the stock penalty set.
func DefaultConfig() Config {
	return Config{
		Curve45:    100,
		Curve90:    600,
		DoubleSlip: 100,
		Slope:      200,
		Crossing:   300,

		FirstRed:     1000,
		FirstRedExit: 10000,
		LastRed:      1000,
		LastRedExit:  10000,
		SignalBack:   1500,

		LookAheadMaxSignals: 10,
		LookAheadP0:         500,
		LookAheadP1:         -100,
		LookAheadP2:         5,

		ReservedStation:  800,
		ReservedCrossing: 300,

		Station:                1000,
		LongerPlatform:         800,
		LongerPlatformPerTile:  0,
		ShorterPlatform:        4000,
		ShorterPlatformPerTile: 0,

		DepotReverse:      5000,
		FirstRedTwoWayEOL: true,
		MaxSearchNodes:    10000,
	}
}

// #endregion config

// #region look-ahead

// LookAhead is the per-signal penalty table: entry i applies to the i-th
// signal met along the path.
type LookAhead []int

// NewLookAhead derives the table p0 + i*(p1 + i*p2) for i < MaxSignals.
func NewLookAhead(cfg Config) LookAhead {
	if cfg.LookAheadMaxSignals <= 0 {
		return LookAhead{}
	}
	la := make(LookAhead, cfg.LookAheadMaxSignals)
	for i := range la {
		la[i] = cfg.LookAheadP0 + i*(cfg.LookAheadP1+i*cfg.LookAheadP2)
	}
	return la
}

// At returns the penalty for the n-th signal, or 0 beyond the horizon.
func (la LookAhead) At(n int) int {
	if n < 0 || n >= len(la) {
		return 0
	}
	return la[n]
}

// #endregion look-ahead

// PlatformLengthPenalty returns the cost of stopping a train that needs
// trainTiles of platform at a platform platformLen tiles long.
func (c Config) PlatformLengthPenalty(platformLen, trainTiles int) int {
	missing := trainTiles - platformLen
	switch {
	case missing < 0:
		return c.LongerPlatform + c.LongerPlatformPerTile*(-missing)
	case missing > 0:
		return c.ShorterPlatform + c.ShorterPlatformPerTile*missing
	}
	return 0
}
