package railpf

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/danielpatrickdp/railpath/internal/rail"
)

func TestLookAheadTable(t *testing.T) {
	la := NewLookAhead(DefaultConfig())
	want := LookAhead{500, 405, 320, 245, 180, 125, 80, 45, 20, 5}
	if diff := cmp.Diff(want, la); diff != "" {
		t.Fatalf("look-ahead table (-want +got):\n%s", diff)
	}
	if la.At(10) != 0 || la.At(-1) != 0 {
		t.Fatal("entries beyond the horizon must be zero")
	}

	cfg := DefaultConfig()
	cfg.LookAheadMaxSignals = 0
	if got := NewLookAhead(cfg); len(got) != 0 {
		t.Fatalf("expected empty table, got %v", got)
	}
}

func TestCacheEligible(t *testing.T) {
	cases := []struct {
		name      string
		hasParent bool
		passed    int
		horizon   int
		want      bool
	}{
		{"origin", false, 50, 10, false},
		{"inside horizon", true, 0, 10, false},
		{"half horizon", true, 5, 10, false},
		{"one short", true, 9, 10, false},
		{"at horizon", true, 10, 10, true},
		{"beyond horizon", true, 14, 10, true},
		{"no look-ahead", true, 0, 0, true},
	}
	for _, tc := range cases {
		if got := CacheEligible(tc.hasParent, tc.passed, tc.horizon); got != tc.want {
			t.Errorf("%s: CacheEligible = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestPlatformLengthPenalty(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LongerPlatformPerTile = 10
	cfg.ShorterPlatformPerTile = 20

	if got := cfg.PlatformLengthPenalty(4, 4); got != 0 {
		t.Fatalf("exact fit should be free, got %d", got)
	}
	if got := cfg.PlatformLengthPenalty(6, 4); got != 800+2*10 {
		t.Fatalf("longer platform penalty = %d", got)
	}
	if got := cfg.PlatformLengthPenalty(2, 5); got != 4000+3*20 {
		t.Fatalf("shorter platform penalty = %d", got)
	}
}

func TestEndReasonString(t *testing.T) {
	r := EndDeadEnd | EndStation
	if got := r.String(); got != "dead_end|station" {
		t.Fatalf("String() = %q", got)
	}
	if !r.Has(possibleTarget) || !r.Has(abortReasons) {
		t.Fatal("mask membership mismatch")
	}
	if EndPathTooLong&cachedReasons != 0 {
		t.Fatal("path-too-long depends on the request and must not be cached")
	}
	if EndTarget&cachedReasons != 0 || !EndTarget.Has(possibleTarget) {
		t.Fatal("target ends depend on the request and must not be cached")
	}
}

func TestSegmentCacheRevision(t *testing.T) {
	c := NewSegmentCache()
	c.Sync(1)
	key := Key{Tile: rail.TileXY(1, 1), Td: rail.TrackdirXSW}
	seg := &Segment{Cost: 300, Last: key}

	c.Put(1, rail.AllRailTypes, key, &Segment{Cost: -1})
	if c.Len() != 0 {
		t.Fatal("incomplete segment was cached")
	}
	c.Put(1, rail.AllRailTypes, key, seg)
	if got, ok := c.Get(rail.AllRailTypes, key); !ok || got != seg {
		t.Fatal("expected cached segment")
	}
	if _, ok := c.Get(rail.RailTypesOf(0), key); ok {
		t.Fatal("segments must not leak across rail type sets")
	}

	c.Sync(2)
	if c.Len() != 0 {
		t.Fatal("revision change must flush the cache")
	}
	c.Put(1, rail.AllRailTypes, key, seg)
	if c.Len() != 0 {
		t.Fatal("stale revision was cached")
	}
	hits, misses := c.Stats()
	if hits != 1 || misses != 1 {
		t.Fatalf("expected 1 hit and 1 miss, got %d/%d", hits, misses)
	}
}

func TestHalfTileEstimate(t *testing.T) {
	// heading SW along a row, k tiles short of the target
	from := rail.TileXY(2, 0)
	target := rail.TileXY(7, 0)
	if got := halfTileEstimate(from, rail.TrackdirXSW, target); got != 400 {
		t.Fatalf("estimate = %d, want 400", got)
	}
	if got := halfTileEstimate(target, rail.TrackdirXNE, target); got != 0 {
		t.Fatalf("estimate from the target's own edge = %d, want 0", got)
	}
}
