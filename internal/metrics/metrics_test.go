package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/danielpatrickdp/railpath/internal/railpf"
)

func TestObserveSearch(t *testing.T) {
	before := testutil.ToFloat64(searchesTotal.WithLabelValues("found"))
	hits := testutil.ToFloat64(segmentCacheHits)

	ObserveSearch("found", 3*time.Millisecond, railpf.Stats{Expanded: 12, CacheHits: 4})

	if got := testutil.ToFloat64(searchesTotal.WithLabelValues("found")); got != before+1 {
		t.Errorf("searches_total{found} = %v, want %v", got, before+1)
	}
	if got := testutil.ToFloat64(segmentCacheHits); got != hits+4 {
		t.Errorf("cache hits = %v, want %v", got, hits+4)
	}
}

func TestSearchStartedBalancesGauge(t *testing.T) {
	base := testutil.ToFloat64(inFlight)
	done := SearchStarted()
	if got := testutil.ToFloat64(inFlight); got != base+1 {
		t.Fatalf("in flight = %v, want %v", got, base+1)
	}
	done()
	if got := testutil.ToFloat64(inFlight); got != base {
		t.Fatalf("in flight = %v after done, want %v", got, base)
	}
}
