// Package dispatch runs path queries against the active layout snapshot.
package dispatch

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"log"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/danielpatrickdp/railpath/internal/logging"
	"github.com/danielpatrickdp/railpath/internal/metrics"
	"github.com/danielpatrickdp/railpath/internal/query"
	"github.com/danielpatrickdp/railpath/internal/railpf"
)

// ErrNoLayout is returned while no layout has been loaded.
var ErrNoLayout = errors.New("no layout loaded")

// #region config
// Config bounds how searches are run.
type Config struct {
	Workers int           // concurrent searches per batch
	Timeout time.Duration // wall-clock budget per search, zero for none
}

// DefaultConfig returns one worker per CPU and a two second budget.
func DefaultConfig() Config {
	return Config{
		Workers: runtime.NumCPU(),
		Timeout: 2 * time.Second,
	}
}
// #endregion config

// #region snapshot
// Snapshot is one loaded layout with the finder that searches it. The
// network must not change once loaded.
type Snapshot struct {
	VersionID string
	Net       railpf.Traversal
	Finder    *railpf.Finder
}
// #endregion snapshot

// #region dispatcher
// Dispatcher answers queries over the current snapshot. Swapping in a new
// layout never disturbs searches already running on the old one.
type Dispatcher struct {
	cfg  Config
	pf   railpf.Config
	db   *sql.DB
	snap atomic.Pointer[Snapshot]
}

// New creates a dispatcher. db may be nil, in which case searches are not
// written to the search log.
func New(cfg Config, pf railpf.Config, db *sql.DB) *Dispatcher {
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	return &Dispatcher{cfg: cfg, pf: pf, db: db}
}

// Load makes net the active layout.
func (d *Dispatcher) Load(versionID string, net railpf.Traversal) {
	d.snap.Store(&Snapshot{
		VersionID: versionID,
		Net:       net,
		Finder:    railpf.NewFinder(net, d.pf),
	})
	metrics.LayoutSwapped()
	log.Printf("[DISPATCH] loaded layout %s (revision %d)", versionID, net.Revision())
}

// Current returns the active snapshot, or nil before the first Load.
func (d *Dispatcher) Current() *Snapshot {
	return d.snap.Load()
}

// VersionID names the active layout, or returns "" before the first Load.
func (d *Dispatcher) VersionID() string {
	if snap := d.snap.Load(); snap != nil {
		return snap.VersionID
	}
	return ""
}
// #endregion dispatcher

// #region find
// Find runs a single query. Unresolvable queries come back as a Response
// with Error set; the returned error is reserved for ErrNoLayout.
func (d *Dispatcher) Find(ctx context.Context, q query.Request) (query.Response, error) {
	snap := d.snap.Load()
	if snap == nil {
		return query.Response{}, ErrNoLayout
	}
	return d.run(ctx, snap, q), nil
}

// Batch runs independent queries concurrently, at most cfg.Workers at a
// time, and returns the responses in input order. All queries of a batch see
// the same snapshot.
func (d *Dispatcher) Batch(ctx context.Context, qs []query.Request) ([]query.Response, error) {
	snap := d.snap.Load()
	if snap == nil {
		return nil, ErrNoLayout
	}

	type result struct {
		idx  int
		resp query.Response
	}
	out := make([]query.Response, len(qs))
	resultChan := make(chan result, len(qs))
	semaphore := make(chan struct{}, d.cfg.Workers)

	for i := range qs {
		semaphore <- struct{}{}
		go func(idx int) {
			defer func() { <-semaphore }()
			resultChan <- result{idx: idx, resp: d.run(ctx, snap, qs[idx])}
		}(i)
	}
	for range qs {
		r := <-resultChan
		out[r.idx] = r.resp
	}
	return out, nil
}

func (d *Dispatcher) run(ctx context.Context, snap *Snapshot, q query.Request) query.Response {
	id := uuid.New().String()
	start := time.Now()

	req, err := q.Resolve(snap.Net, snap.Finder.Config().Forbid90)
	var resp query.Response
	if err != nil {
		resp = query.Response{Error: err.Error()}
	} else {
		done := metrics.SearchStarted()
		sctx, cancel := d.searchContext(ctx)
		resp = query.NewResponse(snap.Finder.FindPathContext(sctx, req))
		cancel()
		done()
	}
	resp.SearchID = id
	elapsed := time.Since(start)

	metrics.ObserveSearch(resp.Outcome(), elapsed, resp.Stats)
	if resp.TimedOut {
		log.Printf("[DISPATCH] search %s timed out after %s", shortID(id), elapsed)
	}
	d.record(snap, q, resp, elapsed)
	return resp
}

func (d *Dispatcher) searchContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if d.cfg.Timeout > 0 {
		return context.WithTimeout(ctx, d.cfg.Timeout)
	}
	return context.WithCancel(ctx)
}
// #endregion find

// #region record
func (d *Dispatcher) record(snap *Snapshot, q query.Request, resp query.Response, elapsed time.Duration) {
	if d.db == nil {
		return
	}
	reqJSON, err := json.Marshal(q)
	if err != nil {
		log.Printf("[DISPATCH] marshal request %s: %v", shortID(resp.SearchID), err)
		return
	}
	statsJSON, _ := json.Marshal(resp.Stats)
	err = logging.LogSearch(d.db, logging.SearchEntry{
		SearchID:    resp.SearchID,
		VersionID:   snap.VersionID,
		RequestJSON: string(reqJSON),
		Outcome:     resp.Outcome(),
		Cost:        resp.Cost,
		StepsHash:   resp.StepsHash,
		StatsJSON:   string(statsJSON),
		DurationUS:  elapsed.Microseconds(),
	})
	if err != nil {
		log.Printf("[DISPATCH] %v", err)
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
// #endregion record
