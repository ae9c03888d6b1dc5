package query

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/danielpatrickdp/railpath/internal/layout"
	"github.com/danielpatrickdp/railpath/internal/rail"
	"github.com/danielpatrickdp/railpath/internal/railpf"
)

func stationLine(t *testing.T) *layout.Network {
	t.Helper()
	n := layout.New("query")
	n.Straight(rail.TileXY(0, 0), rail.DiagDirSW, 3, 0)
	for x := 3; x < 5; x++ {
		if err := n.SetStation(rail.TileXY(x, 0), rail.TrackX, 4, 0); err != nil {
			t.Fatal(err)
		}
	}
	return n
}

func TestResolveAndRun(t *testing.T) {
	n := stationLine(t)
	raw := `{
		"origins": [{"x": 0, "y": 0, "trackdir": "x_sw"}],
		"dest": {"kind": "station", "id": 4},
		"vehicle": {"rail_types": [0], "tiles": 2}
	}`
	var q Request
	if err := json.Unmarshal([]byte(raw), &q); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	req, err := q.Resolve(n, false)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if !req.Vehicle.Compatible.Has(0) || req.Vehicle.Compatible.Has(1) {
		t.Fatalf("unexpected rail types %b", req.Vehicle.Compatible)
	}

	resp := NewResponse(railpf.NewFinder(n, railpf.DefaultConfig()).FindPath(req))
	if resp.Outcome() != "found" || resp.Cost != 500 {
		t.Fatalf("expected found at cost 500, got %s/%d", resp.Outcome(), resp.Cost)
	}
	want := []Step{
		{0, 0, "x_sw"}, {1, 0, "x_sw"}, {2, 0, "x_sw"}, {4, 0, "x_sw"},
	}
	if diff := cmp.Diff(want, resp.Steps); diff != "" {
		t.Fatalf("steps (-want +got):\n%s", diff)
	}
	if resp.StepsHash == "" || len(resp.StepsHash) != 64 {
		t.Fatalf("expected hex sha-256, got %q", resp.StepsHash)
	}
}

func TestTileDestination(t *testing.T) {
	n := stationLine(t)
	req, err := Request{
		Origins: []Origin{{X: 0, Y: 0, Trackdir: "x_sw"}},
		Dest:    Dest{Kind: "tile", X: 1, Y: 0, Trackdirs: []string{"x_sw"}},
	}.Resolve(n, false)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	resp := NewResponse(railpf.NewFinder(n, railpf.DefaultConfig()).FindPath(req))
	if resp.Outcome() != "found" || resp.Cost != 2*railpf.TileLength {
		t.Fatalf("expected found at cost 200, got %s/%d", resp.Outcome(), resp.Cost)
	}
	want := []Step{{0, 0, "x_sw"}, {1, 0, "x_sw"}}
	if diff := cmp.Diff(want, resp.Steps); diff != "" {
		t.Fatalf("steps (-want +got):\n%s", diff)
	}
}

func TestResolveErrors(t *testing.T) {
	n := stationLine(t)
	origin := []Origin{{X: 0, Y: 0, Trackdir: "x_sw"}}
	cases := []struct {
		name string
		q    Request
	}{
		{"no origins", Request{Dest: Dest{Kind: "any_depot"}}},
		{"bad trackdir", Request{Origins: []Origin{{Trackdir: "sideways"}}, Dest: Dest{Kind: "any_depot"}}},
		{"unknown kind", Request{Origins: origin, Dest: Dest{Kind: "moon"}}},
		{"unknown station", Request{Origins: origin, Dest: Dest{Kind: "station", ID: 99}}},
		{"no depot", Request{Origins: origin, Dest: Dest{Kind: "depot", X: 1}}},
		{"bad rail type", Request{Origins: origin, Dest: Dest{Kind: "any_depot"}, Vehicle: Vehicle{RailTypes: []int{40}}}},
	}
	for _, tc := range cases {
		if _, err := tc.q.Resolve(n, false); !errors.Is(err, ErrBadRequest) {
			t.Errorf("%s: expected ErrBadRequest, got %v", tc.name, err)
		}
	}
}

func TestSafeTileKindEnablesMasking(t *testing.T) {
	n := stationLine(t)
	req, err := Request{
		Origins: []Origin{{X: 0, Y: 0, Trackdir: "x_sw"}},
		Dest:    Dest{Kind: "safe_tile"},
	}.Resolve(n, false)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if !req.SafeTile {
		t.Fatal("safe_tile destination must turn on masking")
	}
}

func TestStepsHashIsOrderSensitive(t *testing.T) {
	a := railpf.Key{Tile: rail.TileXY(1, 2), Td: rail.TrackdirXSW}
	b := railpf.Key{Tile: rail.TileXY(2, 2), Td: rail.TrackdirXSW}
	if StepsHash([]railpf.Key{a, b}) != StepsHash([]railpf.Key{a, b}) {
		t.Fatal("hash must be stable")
	}
	if StepsHash([]railpf.Key{a, b}) == StepsHash([]railpf.Key{b, a}) {
		t.Fatal("hash must depend on order")
	}
}

func TestOutcome(t *testing.T) {
	cases := map[string]Response{
		"found":   {Found: true},
		"timeout": {TimedOut: true},
		"budget":  {Budget: true},
		"no_path": {},
		"error":   {Error: "boom"},
	}
	for want, r := range cases {
		if got := r.Outcome(); got != want {
			t.Errorf("Outcome() = %s, want %s", got, want)
		}
	}
}
