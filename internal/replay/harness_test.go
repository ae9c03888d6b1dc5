package replay

import (
	"testing"

	"github.com/danielpatrickdp/railpath/internal/layout"
	"github.com/danielpatrickdp/railpath/internal/query"
	"github.com/danielpatrickdp/railpath/internal/rail"
)

// helper: a main line with twelve green signals followed by three short
// spurs, so the segments after the spurs lie past the look-ahead horizon
// and get cached.
func signalledLine(t *testing.T) *layout.Network {
	t.Helper()
	n := layout.New("signalled")
	n.Straight(rail.TileXY(0, 0), rail.DiagDirSW, 41, 0)
	if err := n.SetDepot(rail.TileXY(41, 0), rail.DiagDirNE, 0); err != nil {
		t.Fatal(err)
	}
	for x := 1; x < 25; x += 2 {
		if err := n.SetSignal(rail.TileXY(x, 0), rail.TrackdirXSW, rail.SignalBlock, rail.SignalGreen); err != nil {
			t.Fatal(err)
		}
	}
	for _, x := range []int{26, 30, 34} {
		n.SetRail(rail.TileXY(x, 0), rail.TrackBitRight, 0)
		n.SetRail(rail.TileXY(x, 1), rail.TrackBitLeft, 0)
	}
	return n
}

func depotQuery(id string, x int) Query {
	return Query{ID: id, Request: query.Request{
		Origins: []query.Origin{{X: x, Y: 0, Trackdir: "x_sw"}},
		Dest:    query.Dest{Kind: "any_depot"},
	}}
}

func TestReplay_CachedAndUncachedAgree(t *testing.T) {
	net := signalledLine(t)
	results := Replay(net, []Query{depotQuery("a", 0), depotQuery("b", 0), depotQuery("c", 1)}, DefaultReplayConfig())

	for _, r := range results {
		if !r.Consistent {
			t.Errorf("%s: %s", r.QueryID, r.Reason)
		}
		if r.Outcome != "found" {
			t.Errorf("%s: expected found, got %s", r.QueryID, r.Outcome)
		}
	}
	if results[0].Cost != 4200 {
		t.Errorf("expected cost 4200, got %d", results[0].Cost)
	}
	if results[0].Cost != results[1].Cost || results[0].StepsHash != results[1].StepsHash {
		t.Error("identical queries must give identical results")
	}
	if s := Summarize(results); s.CacheHits == 0 {
		t.Error("expected the repeated query to reuse cached segments")
	}
}

func TestReplay_BadQueryIsAnError(t *testing.T) {
	net := signalledLine(t)
	results := Replay(net, []Query{{ID: "bad", Request: query.Request{Dest: query.Dest{Kind: "any_depot"}}}}, DefaultReplayConfig())
	if len(results) != 1 || results[0].Outcome != "error" || results[0].Reason == "" {
		t.Fatalf("expected an error result, got %+v", results)
	}
}

func TestSummarize(t *testing.T) {
	results := []ReplayResult{
		{Outcome: "found", Consistent: true},
		{Outcome: "found", Consistent: false},
		{Outcome: "no_path", Consistent: true},
		{Outcome: "budget", Consistent: true},
		{Outcome: "error", Consistent: true},
	}
	s := Summarize(results)
	if s.TotalQueries != 5 || s.Found != 2 || s.NoPath != 2 || s.Errors != 1 || s.Inconsistent != 1 {
		t.Fatalf("unexpected summary %+v", s)
	}
}

func TestMatches(t *testing.T) {
	cases := []struct {
		name string
		r    ReplayResult
		e    FixtureExpectedResult
		want bool
	}{
		{"same cost", ReplayResult{Outcome: "found", Cost: 800, Consistent: true}, FixtureExpectedResult{Outcome: "found", Cost: 800}, true},
		{"cost drift", ReplayResult{Outcome: "found", Cost: 900, Consistent: true}, FixtureExpectedResult{Outcome: "found", Cost: 800}, false},
		{"no path ignores cost", ReplayResult{Outcome: "no_path", Cost: 7, Consistent: true}, FixtureExpectedResult{Outcome: "no_path"}, true},
		{"inconsistent", ReplayResult{Outcome: "found", Cost: 800}, FixtureExpectedResult{Outcome: "found", Cost: 800}, false},
	}
	for _, tc := range cases {
		if got := tc.r.Matches(tc.e); got != tc.want {
			t.Errorf("%s: Matches = %v, want %v", tc.name, got, tc.want)
		}
	}
}
