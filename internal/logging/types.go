package logging

import "time"

// #region search-entry
// SearchEntry is one row of the search log: which layout version answered
// a query, how it ended and how long it took.
type SearchEntry struct {
	SearchID    string
	VersionID   string
	RequestJSON string
	Outcome     string // "found" | "no_path" | "budget" | "timeout" | "error"
	Cost        int
	StepsHash   string
	StatsJSON   string
	DurationUS  int64
	CreatedAt   time.Time
}
// #endregion search-entry
