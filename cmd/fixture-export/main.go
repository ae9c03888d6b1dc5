package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/danielpatrickdp/railpath/internal/logging"
	"github.com/danielpatrickdp/railpath/internal/netstore"
	"github.com/danielpatrickdp/railpath/internal/query"
	"github.com/danielpatrickdp/railpath/internal/replay"
)

// #region main

func main() {
	dbPath := flag.String("db", "", "path to railpath.db")
	last := flag.Int("last", 20, "number of most recent logged searches to export")
	outPath := flag.String("out", "", "output fixture JSON path")
	flag.Parse()

	if *dbPath == "" || *outPath == "" {
		fmt.Fprintln(os.Stderr, "usage: fixture-export --db path/to/db --out path/to/fixture.json [--last N]")
		os.Exit(2)
	}

	if err := run(*dbPath, *last, *outPath); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// #endregion main

// #region extract

// run writes a fixture holding the active layout and the most recent logged
// searches made against it, with their logged outcomes as expectations.
func run(dbPath string, last int, outPath string) error {
	store, err := netstore.NewStore(dbPath)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer store.Close()

	rec, err := store.GetCurrent()
	if err != nil {
		return fmt.Errorf("get active layout: %w", err)
	}

	entries, err := logging.ListSearches(store.DB(), last)
	if err != nil {
		return err
	}

	f := replay.Fixture{
		Description: fmt.Sprintf("Exported from %s: layout %q (%s)", dbPath, rec.Name, rec.VersionID),
		Layout:      rec.Spec,
	}
	// newest first from the store; fixtures run in chronological order
	for i := len(entries) - 1; i >= 0; i-- {
		e := entries[i]
		if e.VersionID != rec.VersionID || e.Outcome == "timeout" {
			continue
		}
		var req query.Request
		if err := json.Unmarshal([]byte(e.RequestJSON), &req); err != nil {
			continue
		}
		f.Queries = append(f.Queries, replay.FixtureQuery{QueryID: e.SearchID, Request: req})
		f.ExpectedResults = append(f.ExpectedResults, replay.FixtureExpectedResult{
			QueryID: e.SearchID,
			Outcome: e.Outcome,
			Cost:    e.Cost,
		})
	}

	if len(f.Queries) == 0 {
		return fmt.Errorf("no replayable searches on the active layout in the last %d entries", last)
	}

	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal fixture: %w", err)
	}
	if err := os.WriteFile(outPath, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write fixture: %w", err)
	}

	fmt.Printf("Exported %d searches to %s\n", len(f.Queries), outPath)
	return nil
}

// #endregion extract
