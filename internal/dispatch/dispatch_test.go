package dispatch

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/danielpatrickdp/railpath/internal/layout"
	"github.com/danielpatrickdp/railpath/internal/logging"
	"github.com/danielpatrickdp/railpath/internal/netstore"
	"github.com/danielpatrickdp/railpath/internal/query"
	"github.com/danielpatrickdp/railpath/internal/railpf"
)

// #region helpers
// depotSpec is plain track on x = 0..length-2 of row 0 with a depot at the end.
func depotSpec(length int) layout.Spec {
	return layout.Spec{
		Name:  "depot-line",
		Lines: []layout.LineSpec{{X: 0, Y: 0, Dir: "sw", Length: length - 1}},
		Tiles: []layout.TileSpec{{X: length - 1, Y: 0, Kind: "depot", Door: "ne"}},
	}
}

func build(t *testing.T, spec layout.Spec) *layout.Network {
	t.Helper()
	n, err := spec.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return n
}

func toDepot(x, depotX int) query.Request {
	return query.Request{
		Origins: []query.Origin{{X: x, Y: 0, Trackdir: "x_sw"}},
		Dest:    query.Dest{Kind: "depot", X: depotX, Y: 0},
	}
}
// #endregion helpers

func TestFindWithoutLayout(t *testing.T) {
	d := New(DefaultConfig(), railpf.DefaultConfig(), nil)
	if _, err := d.Find(context.Background(), toDepot(0, 9)); !errors.Is(err, ErrNoLayout) {
		t.Fatalf("expected ErrNoLayout, got %v", err)
	}
	if _, err := d.Batch(context.Background(), nil); !errors.Is(err, ErrNoLayout) {
		t.Fatalf("expected ErrNoLayout from Batch, got %v", err)
	}
}

func TestBatchKeepsInputOrder(t *testing.T) {
	d := New(Config{Workers: 2}, railpf.DefaultConfig(), nil)
	d.Load("v1", build(t, depotSpec(10)))

	qs := []query.Request{toDepot(0, 9), toDepot(1, 9), {Dest: query.Dest{Kind: "any_depot"}}, toDepot(3, 9), toDepot(4, 9)}
	resps, err := d.Batch(context.Background(), qs)
	if err != nil {
		t.Fatalf("Batch: %v", err)
	}
	if len(resps) != len(qs) {
		t.Fatalf("expected %d responses, got %d", len(qs), len(resps))
	}

	seen := map[string]bool{}
	for i, r := range resps {
		if r.SearchID == "" || seen[r.SearchID] {
			t.Fatalf("response %d: missing or duplicate search id %q", i, r.SearchID)
		}
		seen[r.SearchID] = true
		if i == 2 {
			if r.Outcome() != "error" {
				t.Errorf("response 2: expected error outcome, got %s", r.Outcome())
			}
			continue
		}
		want := (10 - i) * railpf.TileLength
		if !r.Found || r.Cost != want {
			t.Errorf("response %d: found=%v cost=%d, want cost %d", i, r.Found, r.Cost, want)
		}
	}
}

func TestBatchWithSingleWorker(t *testing.T) {
	d := New(Config{Workers: 1}, railpf.DefaultConfig(), nil)
	d.Load("v1", build(t, depotSpec(10)))

	qs := make([]query.Request, 40)
	for i := range qs {
		qs[i] = toDepot(i%9, 9)
	}
	resps, err := d.Batch(context.Background(), qs)
	if err != nil {
		t.Fatalf("Batch: %v", err)
	}
	for i, r := range resps {
		if want := (10 - i%9) * railpf.TileLength; !r.Found || r.Cost != want {
			t.Fatalf("response %d: found=%v cost=%d, want cost %d", i, r.Found, r.Cost, want)
		}
	}
}

func TestLoadSwapsLayout(t *testing.T) {
	d := New(DefaultConfig(), railpf.DefaultConfig(), nil)
	d.Load("long", build(t, depotSpec(10)))
	old := d.Current()

	d.Load("short", build(t, depotSpec(6)))
	if d.Current().VersionID != "short" {
		t.Fatalf("expected short layout, got %s", d.Current().VersionID)
	}

	resp, err := d.Find(context.Background(), toDepot(0, 5))
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if !resp.Found || resp.Cost != 6*railpf.TileLength {
		t.Fatalf("expected cost 600 on the new layout, got %+v", resp)
	}

	// the old snapshot stays usable for anyone still holding it
	req, err := toDepot(0, 9).Resolve(old.Net, false)
	if err != nil {
		t.Fatalf("Resolve on old snapshot: %v", err)
	}
	if res := old.Finder.FindPath(req); !res.Found || res.Cost != 10*railpf.TileLength {
		t.Fatalf("old snapshot: found=%v cost=%d", res.Found, res.Cost)
	}
}

func TestCanceledSearchReportsTimeout(t *testing.T) {
	d := New(DefaultConfig(), railpf.DefaultConfig(), nil)
	d.Load("v1", build(t, depotSpec(10)))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	resp, err := d.Find(ctx, toDepot(0, 9))
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if resp.Found || !resp.TimedOut || resp.Outcome() != "timeout" {
		t.Fatalf("expected timeout, got %+v", resp)
	}
}

func TestSearchesAreLogged(t *testing.T) {
	s, err := netstore.NewStore(filepath.Join(t.TempDir(), "pathd.db"))
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	defer s.Close()
	rec, err := s.CommitLayout(depotSpec(10), "")
	if err != nil {
		t.Fatalf("CommitLayout: %v", err)
	}

	d := New(DefaultConfig(), railpf.DefaultConfig(), s.DB())
	d.Load(rec.VersionID, build(t, rec.Spec))
	resp, err := d.Find(context.Background(), toDepot(0, 9))
	if err != nil {
		t.Fatalf("Find: %v", err)
	}

	entry, err := logging.GetSearch(s.DB(), resp.SearchID)
	if err != nil {
		t.Fatalf("GetSearch: %v", err)
	}
	if entry.VersionID != rec.VersionID || entry.Outcome != "found" || entry.Cost != 1000 {
		t.Fatalf("unexpected log entry %+v", entry)
	}
	if entry.StepsHash != resp.StepsHash {
		t.Fatalf("logged hash %s, response hash %s", entry.StepsHash, resp.StepsHash)
	}
}
