package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/danielpatrickdp/railpath/internal/layout"
	"github.com/danielpatrickdp/railpath/internal/logging"
	"github.com/danielpatrickdp/railpath/internal/netstore"
	"github.com/danielpatrickdp/railpath/internal/query"
	"github.com/danielpatrickdp/railpath/internal/replay"
)

// #region main

func main() {
	dbPath := flag.String("db", "", "path to railpath.db (DB mode)")
	fixturePath := flag.String("fixture", "", "path to fixture JSON (fixture mode)")
	last := flag.Int("last", 100, "number of most recent logged searches to re-run (DB mode)")
	flag.Parse()

	if (*dbPath == "" && *fixturePath == "") || (*dbPath != "" && *fixturePath != "") {
		fmt.Fprintln(os.Stderr, "usage: replay --db path/to/railpath.db [--last N]")
		fmt.Fprintln(os.Stderr, "       replay --fixture path/to/fixture.json")
		os.Exit(2)
	}

	var exitCode int
	if *fixturePath != "" {
		exitCode = runFixtureMode(*fixturePath)
	} else {
		exitCode = runDBMode(*dbPath, *last)
	}
	os.Exit(exitCode)
}

// #endregion main

// #region comparison

// comparison is one row of the output table.
type comparison struct {
	ID       string
	Expected string
	Replayed string
	Match    string // "OK" | "DIFF" | "SKIP"
}

func describe(outcome string, cost int) string {
	if outcome == "found" {
		return fmt.Sprintf("found/%d", cost)
	}
	return outcome
}

// #endregion comparison

// #region db-mode

// runDBMode re-runs logged searches on the layout version that answered them
// and compares outcomes and step hashes.
func runDBMode(dbPath string, last int) int {
	store, err := netstore.NewStore(dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open db: %v\n", err)
		return 2
	}
	defer store.Close()

	entries, err := logging.ListSearches(store.DB(), last)
	if err != nil {
		fmt.Fprintf(os.Stderr, "list searches: %v\n", err)
		return 2
	}
	if len(entries) == 0 {
		fmt.Fprintln(os.Stderr, "no searches found in search_log")
		return 2
	}

	networks := map[string]*layout.Network{}
	config := replay.DefaultReplayConfig()
	rows := make([]comparison, 0, len(entries))

	// ListSearches returns newest first; replay in the order they ran
	for i := len(entries) - 1; i >= 0; i-- {
		e := entries[i]
		row := comparison{ID: shortID(e.SearchID), Expected: describe(e.Outcome, e.Cost)}

		if e.Outcome == "timeout" || e.Outcome == "error" {
			row.Replayed, row.Match = "-", "SKIP"
			rows = append(rows, row)
			continue
		}

		net, ok := networks[e.VersionID]
		if !ok {
			rec, err := store.GetVersion(e.VersionID)
			if err != nil {
				fmt.Fprintf(os.Stderr, "search %s: %v\n", e.SearchID, err)
				return 2
			}
			if net, err = rec.Build(); err != nil {
				fmt.Fprintf(os.Stderr, "search %s: build layout: %v\n", e.SearchID, err)
				return 2
			}
			networks[e.VersionID] = net
		}

		var req query.Request
		if err := json.Unmarshal([]byte(e.RequestJSON), &req); err != nil {
			fmt.Fprintf(os.Stderr, "search %s: parse request: %v\n", e.SearchID, err)
			return 2
		}

		r := replay.Replay(net, []replay.Query{{ID: e.SearchID, Request: req}}, config)[0]
		row.Replayed = describe(r.Outcome, r.Cost)
		row.Match = "DIFF"
		if r.Consistent && r.Outcome == e.Outcome && r.StepsHash == e.StepsHash {
			row.Match = "OK"
		}
		rows = append(rows, row)
	}

	return printComparison(rows, 0)
}

// #endregion db-mode

// #region fixture-mode

func runFixtureMode(path string) int {
	f, err := replay.LoadFixture(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load fixture: %v\n", err)
		return 2
	}
	net, err := f.Layout.Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "build layout: %v\n", err)
		return 2
	}

	results := replay.Replay(net, f.ToQueries(), f.Config.ToReplayConfig())

	total := len(results)
	if len(f.ExpectedResults) < total {
		total = len(f.ExpectedResults)
	}
	rows := make([]comparison, total)
	for i := 0; i < total; i++ {
		exp, got := f.ExpectedResults[i], results[i]
		rows[i] = comparison{
			ID:       got.QueryID,
			Expected: describe(exp.Outcome, exp.Cost),
			Replayed: describe(got.Outcome, got.Cost),
			Match:    "DIFF",
		}
		if got.Matches(exp) {
			rows[i].Match = "OK"
		}
	}

	return printComparison(rows, replay.Summarize(results).Inconsistent)
}

// #endregion fixture-mode

// #region output

// printComparison outputs a comparison table and returns the exit code.
func printComparison(rows []comparison, inconsistent int) int {
	fmt.Printf("%-12s| %-15s| %-15s| %s\n", "Search", "Expected", "Replayed", "Match")
	fmt.Printf("%-12s+%-15s+%-15s+%s\n",
		"------------", "----------------", "----------------", "------")

	matches, skipped := 0, 0
	for _, r := range rows {
		switch r.Match {
		case "OK":
			matches++
		case "SKIP":
			skipped++
		}
		fmt.Printf("%-12s| %-15s| %-15s| %s\n", r.ID, r.Expected, r.Replayed, r.Match)
	}

	diverge := len(rows) - matches - skipped
	fmt.Printf("\nSummary: %d total, %d match, %d diverge, %d skipped\n", len(rows), matches, diverge, skipped)
	if inconsistent > 0 {
		fmt.Printf("Cache: %d queries differ between cached and uncached runs\n", inconsistent)
	}

	if diverge > 0 || inconsistent > 0 {
		return 1
	}
	return 0
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// #endregion output
