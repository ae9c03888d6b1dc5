package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/danielpatrickdp/railpath/internal/logging"
	"github.com/danielpatrickdp/railpath/internal/netstore"
	"github.com/danielpatrickdp/railpath/internal/railpf"
)

// #region main

func main() {
	dbPath := flag.String("db", "", "path to railpath.db")
	last := flag.Int("last", 20, "show N most recent searches")
	search := flag.String("search", "", "show single search detail (ID or unique prefix)")
	versions := flag.Bool("versions", false, "list layout versions instead of searches")
	jsonOut := flag.Bool("json", false, "output as JSON instead of table")
	flag.Parse()

	if *dbPath == "" {
		fmt.Fprintln(os.Stderr, "usage: inspect --db path/to/railpath.db [--last N] [--search id] [--versions] [--json]")
		os.Exit(2)
	}

	store, err := netstore.NewStore(*dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open db: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	switch {
	case *search != "":
		err = runDetailMode(store, *search, *jsonOut)
	case *versions:
		err = runVersionsMode(store, *last, *jsonOut)
	default:
		err = runListMode(store, *last, *jsonOut)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// #endregion main

// #region list-mode

type listRow struct {
	SearchID   string `json:"search_id"`
	VersionID  string `json:"version_id"`
	Outcome    string `json:"outcome"`
	Cost       int    `json:"cost"`
	Expanded   int    `json:"expanded"`
	CacheHits  int    `json:"cache_hits"`
	DurationUS int64  `json:"duration_us"`
	CreatedAt  string `json:"created_at"`
}

func runListMode(store *netstore.Store, last int, jsonOut bool) error {
	entries, err := logging.ListSearches(store.DB(), last)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Fprintln(os.Stderr, "no searches found")
		return nil
	}

	// store returns DESC, reverse for chronological
	rows := make([]listRow, len(entries))
	for i, e := range entries {
		stats := parseStats(e.StatsJSON)
		rows[len(entries)-1-i] = listRow{
			SearchID:   e.SearchID,
			VersionID:  e.VersionID,
			Outcome:    e.Outcome,
			Cost:       e.Cost,
			Expanded:   stats.Expanded,
			CacheHits:  stats.CacheHits,
			DurationUS: e.DurationUS,
			CreatedAt:  e.CreatedAt.Format("2006-01-02T15:04:05Z"),
		}
	}

	if jsonOut {
		return printJSON(rows)
	}

	fmt.Printf("%-10s  %-10s  %-8s  %8s  %8s  %6s  %10s  %s\n",
		"Search", "Layout", "Outcome", "Cost", "Expanded", "Hits", "Time (us)", "Created")
	fmt.Printf("%-10s+-%-10s+-%-8s+-%8s+-%8s+-%6s+-%10s+-%s\n",
		"----------", "----------", "--------", "--------", "--------", "------", "----------", "--------------------")
	outcomes := map[string]int{}
	for _, r := range rows {
		outcomes[r.Outcome]++
		fmt.Printf("%-10s  %-10s  %-8s  %8d  %8d  %6d  %10d  %s\n",
			shortID(r.SearchID), shortID(r.VersionID), r.Outcome, r.Cost, r.Expanded, r.CacheHits, r.DurationUS, r.CreatedAt)
	}

	fmt.Printf("\nOutcomes:\n")
	for _, name := range []string{"found", "no_path", "budget", "timeout", "error"} {
		if outcomes[name] > 0 {
			fmt.Printf("  %-10s %d\n", name, outcomes[name])
		}
	}
	return nil
}

// #endregion list-mode

// #region detail-mode

type detailOutput struct {
	SearchID   string          `json:"search_id"`
	VersionID  string          `json:"version_id"`
	Layout     string          `json:"layout"`
	CreatedAt  string          `json:"created_at"`
	Outcome    string          `json:"outcome"`
	Cost       int             `json:"cost"`
	StepsHash  string          `json:"steps_hash,omitempty"`
	DurationUS int64           `json:"duration_us"`
	Stats      railpf.Stats    `json:"stats"`
	Request    json.RawMessage `json:"request"`
}

func runDetailMode(store *netstore.Store, id string, jsonOut bool) error {
	e, err := logging.FindByPrefix(store.DB(), id)
	if err != nil {
		return fmt.Errorf("search %s: %w", id, err)
	}

	out := detailOutput{
		SearchID:   e.SearchID,
		VersionID:  e.VersionID,
		CreatedAt:  e.CreatedAt.Format("2006-01-02T15:04:05Z"),
		Outcome:    e.Outcome,
		Cost:       e.Cost,
		StepsHash:  e.StepsHash,
		DurationUS: e.DurationUS,
		Stats:      parseStats(e.StatsJSON),
		Request:    json.RawMessage(e.RequestJSON),
	}
	if rec, err := store.GetVersion(e.VersionID); err == nil {
		out.Layout = rec.Name
	}

	if jsonOut {
		return printJSON(out)
	}

	fmt.Printf("Search:     %s\n", out.SearchID)
	fmt.Printf("Layout:     %s (%s)\n", out.Layout, out.VersionID)
	fmt.Printf("Created:    %s\n", out.CreatedAt)
	fmt.Printf("Outcome:    %s\n", out.Outcome)
	fmt.Printf("Cost:       %d\n", out.Cost)
	fmt.Printf("Steps Hash: %s\n", out.StepsHash)
	fmt.Printf("Duration:   %dus\n", out.DurationUS)

	fmt.Printf("\nStats:\n")
	fmt.Printf("  Created:     %d\n", out.Stats.Created)
	fmt.Printf("  Expanded:    %d\n", out.Stats.Expanded)
	fmt.Printf("  Cost Calcs:  %d\n", out.Stats.CostCalcs)
	fmt.Printf("  Cache Hits:  %d\n", out.Stats.CacheHits)

	fmt.Printf("\nRequest:\n")
	return printJSON(out.Request)
}

// #endregion detail-mode

// #region versions-mode

type versionRow struct {
	VersionID string `json:"version_id"`
	ParentID  string `json:"parent_id,omitempty"`
	Name      string `json:"name"`
	Note      string `json:"note,omitempty"`
	Active    bool   `json:"active"`
	CreatedAt string `json:"created_at"`
}

func runVersionsMode(store *netstore.Store, last int, jsonOut bool) error {
	recs, err := store.ListVersions(last)
	if err != nil {
		return err
	}
	active := ""
	if cur, err := store.GetCurrent(); err == nil {
		active = cur.VersionID
	}

	rows := make([]versionRow, len(recs))
	for i, r := range recs {
		rows[i] = versionRow{
			VersionID: r.VersionID,
			ParentID:  r.ParentID,
			Name:      r.Name,
			Note:      r.Note,
			Active:    r.VersionID == active,
			CreatedAt: r.CreatedAt.Format("2006-01-02T15:04:05Z"),
		}
	}

	if jsonOut {
		return printJSON(rows)
	}
	fmt.Printf("%-10s  %-10s  %-20s  %-6s  %s\n", "Version", "Parent", "Name", "Active", "Created")
	for _, r := range rows {
		mark := ""
		if r.Active {
			mark = "*"
		}
		fmt.Printf("%-10s  %-10s  %-20s  %-6s  %s\n", shortID(r.VersionID), shortID(r.ParentID), r.Name, mark, r.CreatedAt)
	}
	return nil
}

// #endregion versions-mode

// #region output

func parseStats(statsJSON string) railpf.Stats {
	var s railpf.Stats
	if statsJSON != "" {
		json.Unmarshal([]byte(statsJSON), &s)
	}
	return s
}

func printJSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}
	fmt.Println(string(data))
	return nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// #endregion output
