package replay

import (
	"github.com/danielpatrickdp/railpath/internal/query"
	"github.com/danielpatrickdp/railpath/internal/railpf"
)

// #region types
// Query is a single recorded query for replay.
type Query struct {
	ID      string
	Request query.Request
}

// ReplayConfig holds the penalty set the replay runs with.
type ReplayConfig struct {
	Penalties railpf.Config
}

// DefaultReplayConfig returns the stock penalties.
func DefaultReplayConfig() ReplayConfig {
	return ReplayConfig{Penalties: railpf.DefaultConfig()}
}

// ReplayResult captures the outcome of replaying one query.
type ReplayResult struct {
	QueryID   string
	Outcome   string // "found" | "no_path" | "budget" | "timeout" | "error"
	Cost      int
	StepsHash string
	Reason    string

	// Consistent is false when the run through the shared segment cache
	// and the run without it disagree.
	Consistent bool
	Stats      railpf.Stats
}

// ReplaySummary provides aggregate stats from a replay run.
type ReplaySummary struct {
	TotalQueries int
	Found        int
	NoPath       int
	Errors       int
	Inconsistent int
	CacheHits    int
}

// #endregion types

// #region replay
// Replay runs every query against net twice, once with the shared segment
// cache and once without, in order. Queries share one finder, so later
// queries see segments cached by earlier ones.
func Replay(net railpf.Traversal, queries []Query, config ReplayConfig) []ReplayResult {
	finder := railpf.NewFinder(net, config.Penalties)
	results := make([]ReplayResult, 0, len(queries))

	for _, q := range queries {
		req, err := q.Request.Resolve(net, config.Penalties.Forbid90)
		if err != nil {
			results = append(results, ReplayResult{
				QueryID:    q.ID,
				Outcome:    "error",
				Reason:     err.Error(),
				Consistent: true,
			})
			continue
		}

		cached := query.NewResponse(finder.FindPath(req))
		req.DisableCache = true
		plain := query.NewResponse(finder.FindPath(req))

		r := ReplayResult{
			QueryID:    q.ID,
			Outcome:    cached.Outcome(),
			Cost:       cached.Cost,
			StepsHash:  cached.StepsHash,
			Consistent: sameResult(cached, plain),
			Stats:      cached.Stats,
		}
		if !r.Consistent {
			r.Reason = "cached and uncached searches disagree"
		}
		results = append(results, r)
	}

	return results
}

func sameResult(a, b query.Response) bool {
	return a.Found == b.Found && a.Cost == b.Cost && a.StepsHash == b.StepsHash
}

// Summarize computes aggregate stats from replay results.
func Summarize(results []ReplayResult) ReplaySummary {
	s := ReplaySummary{TotalQueries: len(results)}
	for _, r := range results {
		switch r.Outcome {
		case "found":
			s.Found++
		case "error":
			s.Errors++
		default:
			s.NoPath++
		}
		if !r.Consistent {
			s.Inconsistent++
		}
		s.CacheHits += r.Stats.CacheHits
	}
	return s
}

// Matches reports whether r agrees with the expectation.
func (r ReplayResult) Matches(e FixtureExpectedResult) bool {
	if r.Outcome != e.Outcome || !r.Consistent {
		return false
	}
	return r.Outcome != "found" || r.Cost == e.Cost
}

// #endregion replay
