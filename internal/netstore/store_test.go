package netstore

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/danielpatrickdp/railpath/internal/layout"
	"github.com/danielpatrickdp/railpath/internal/rail"
)

func tempDB(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()
	s, err := NewStore(filepath.Join(dir, "test.db"))
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func lineSpec(name string, length int) layout.Spec {
	return layout.Spec{
		Name:  name,
		Lines: []layout.LineSpec{{X: 0, Y: 0, Dir: "sw", Length: length}},
		Tiles: []layout.TileSpec{{X: length, Y: 0, Kind: "depot", Door: "ne"}},
	}
}

func TestEmptyStoreHasNoActiveLayout(t *testing.T) {
	s := tempDB(t)
	if _, err := s.GetCurrent(); !errors.Is(err, ErrNoActiveLayout) {
		t.Fatalf("expected ErrNoActiveLayout, got %v", err)
	}
}

func TestCommitAndGetCurrent(t *testing.T) {
	s := tempDB(t)

	rec, err := s.CommitLayout(lineSpec("yard", 4), "first")
	if err != nil {
		t.Fatalf("CommitLayout: %v", err)
	}
	if rec.VersionID == "" {
		t.Fatal("expected non-empty version ID")
	}
	if rec.ParentID != "" {
		t.Fatalf("expected empty parent, got %s", rec.ParentID)
	}

	cur, err := s.GetCurrent()
	if err != nil {
		t.Fatalf("GetCurrent: %v", err)
	}
	if cur.VersionID != rec.VersionID || cur.Name != "yard" || cur.Note != "first" {
		t.Fatalf("unexpected current version %+v", cur)
	}

	n, err := cur.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if n.Kind(rail.TileXY(4, 0)) != rail.TileDepot {
		t.Fatal("expected the depot to survive the round trip")
	}
}

func TestCommitChainsParentsAndRollback(t *testing.T) {
	s := tempDB(t)

	v1, err := s.CommitLayout(lineSpec("yard", 4), "")
	if err != nil {
		t.Fatalf("CommitLayout v1: %v", err)
	}
	v2, err := s.CommitLayout(lineSpec("yard", 6), "longer")
	if err != nil {
		t.Fatalf("CommitLayout v2: %v", err)
	}
	if v2.ParentID != v1.VersionID {
		t.Fatalf("expected parent %s, got %s", v1.VersionID, v2.ParentID)
	}

	cur, _ := s.GetCurrent()
	if cur.VersionID != v2.VersionID {
		t.Fatalf("expected %s, got %s", v2.VersionID, cur.VersionID)
	}

	if err := s.Rollback(v1.VersionID); err != nil {
		t.Fatalf("Rollback: %v", err)
	}
	cur, _ = s.GetCurrent()
	if cur.VersionID != v1.VersionID {
		t.Fatalf("expected %s after rollback, got %s", v1.VersionID, cur.VersionID)
	}
}

func TestRollbackNonExistent(t *testing.T) {
	s := tempDB(t)
	s.CommitLayout(lineSpec("yard", 2), "")

	if err := s.Rollback("nonexistent-id"); err == nil {
		t.Fatal("expected error for non-existent version")
	}
}

func TestCommitRejectsInvalidLayout(t *testing.T) {
	s := tempDB(t)
	bad := layout.Spec{Name: "bad", Lines: []layout.LineSpec{{Dir: "up", Length: 2}}}
	if _, err := s.CommitLayout(bad, ""); err == nil {
		t.Fatal("expected validation error")
	}
	if _, err := s.GetCurrent(); !errors.Is(err, ErrNoActiveLayout) {
		t.Fatalf("invalid layout must not become active, got %v", err)
	}
}

func TestListVersions(t *testing.T) {
	s := tempDB(t)
	for i := 2; i <= 4; i++ {
		if _, err := s.CommitLayout(lineSpec("yard", i), ""); err != nil {
			t.Fatalf("CommitLayout: %v", err)
		}
	}

	versions, err := s.ListVersions(2)
	if err != nil {
		t.Fatalf("ListVersions: %v", err)
	}
	if len(versions) != 2 {
		t.Fatalf("expected 2 versions, got %d", len(versions))
	}
	if got := versions[0].Spec.Lines[0].Length; got != 4 {
		t.Fatalf("expected newest first, got line length %d", got)
	}
}
