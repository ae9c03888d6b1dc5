package replay

import (
	"path/filepath"
	"testing"
)

// #region fixture-tests

// TestFixture_DepotLine loads the depot_line fixture, runs Replay() and
// compares each query against its expected outcome and cost.
func TestFixture_DepotLine(t *testing.T) {
	f, err := LoadFixture(filepath.Join("testdata", "depot_line.json"))
	if err != nil {
		t.Fatalf("LoadFixture: %v", err)
	}
	net, err := f.Layout.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	results := Replay(net, f.ToQueries(), f.Config.ToReplayConfig())

	if len(results) != len(f.ExpectedResults) {
		t.Fatalf("expected %d results, got %d", len(f.ExpectedResults), len(results))
	}
	for i, expected := range f.ExpectedResults {
		actual := results[i]
		if actual.QueryID != expected.QueryID {
			t.Errorf("query %d: expected query_id=%s, got %s", i, expected.QueryID, actual.QueryID)
		}
		if !actual.Matches(expected) {
			t.Errorf("query %d (%s): expected %s/%d, got %s/%d (reason: %s)",
				i, expected.QueryID, expected.Outcome, expected.Cost, actual.Outcome, actual.Cost, actual.Reason)
		}
	}

	if results[0].StepsHash != results[4].StepsHash {
		t.Error("repeated query should produce the same steps")
	}
}

func TestLoadFixture_Missing(t *testing.T) {
	if _, err := LoadFixture(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestFixtureConfig_Overrides(t *testing.T) {
	curve := 250
	forbid := true
	fc := FixtureConfig{Curve90: &curve, Forbid90: &forbid}

	cfg := fc.ToReplayConfig()
	def := DefaultReplayConfig()
	if cfg.Penalties.Curve90 != 250 || !cfg.Penalties.Forbid90 {
		t.Fatalf("overrides not applied: %+v", cfg.Penalties)
	}
	if cfg.Penalties.Curve45 != def.Penalties.Curve45 || cfg.Penalties.Station != def.Penalties.Station {
		t.Fatal("unset fields must keep their defaults")
	}
}

// #endregion fixture-tests
