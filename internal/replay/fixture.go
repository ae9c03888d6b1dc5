package replay

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/danielpatrickdp/railpath/internal/layout"
	"github.com/danielpatrickdp/railpath/internal/query"
)

// #region fixture-types

// Fixture is the top-level JSON structure for a replay fixture: a layout,
// the queries to run on it and what each should produce.
type Fixture struct {
	Description     string                  `json:"description"`
	Layout          layout.Spec             `json:"layout"`
	Config          FixtureConfig           `json:"config"`
	Queries         []FixtureQuery          `json:"queries"`
	ExpectedResults []FixtureExpectedResult `json:"expected_results"`
}

// FixtureQuery is one named query.
type FixtureQuery struct {
	QueryID string        `json:"query_id"`
	Request query.Request `json:"request"`
}

// FixtureExpectedResult captures the expected outcome per query. Cost is
// only compared when the outcome is "found".
type FixtureExpectedResult struct {
	QueryID string `json:"query_id"`
	Outcome string `json:"outcome"`
	Cost    int    `json:"cost"`
}

// FixtureConfig overrides selected penalties of the default set. Absent
// fields keep their defaults.
type FixtureConfig struct {
	Curve45           *int  `json:"curve45,omitempty"`
	Curve90           *int  `json:"curve90,omitempty"`
	Forbid90          *bool `json:"forbid_90deg,omitempty"`
	FirstRed          *int  `json:"firstred,omitempty"`
	LastRed           *int  `json:"lastred,omitempty"`
	Station           *int  `json:"station,omitempty"`
	FirstRedTwoWayEOL *bool `json:"firstred_twoway_eol,omitempty"`
	MaxSearchNodes    *int  `json:"max_search_nodes,omitempty"`
}

// #endregion fixture-types

// #region fixture-loader

// LoadFixture reads and parses a JSON fixture file.
func LoadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture %s: %w", path, err)
	}
	var f Fixture
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse fixture %s: %w", path, err)
	}
	return &f, nil
}

// ToQueries converts the fixture queries to replay queries.
func (f *Fixture) ToQueries() []Query {
	qs := make([]Query, len(f.Queries))
	for i, fq := range f.Queries {
		qs[i] = Query{ID: fq.QueryID, Request: fq.Request}
	}
	return qs
}

// ToReplayConfig applies the overrides to DefaultReplayConfig.
func (fc *FixtureConfig) ToReplayConfig() ReplayConfig {
	cfg := DefaultReplayConfig()
	p := &cfg.Penalties
	setInt(&p.Curve45, fc.Curve45)
	setInt(&p.Curve90, fc.Curve90)
	setInt(&p.FirstRed, fc.FirstRed)
	setInt(&p.LastRed, fc.LastRed)
	setInt(&p.Station, fc.Station)
	setInt(&p.MaxSearchNodes, fc.MaxSearchNodes)
	if fc.Forbid90 != nil {
		p.Forbid90 = *fc.Forbid90
	}
	if fc.FirstRedTwoWayEOL != nil {
		p.FirstRedTwoWayEOL = *fc.FirstRedTwoWayEOL
	}
	return cfg
}

func setInt(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}

// #endregion fixture-loader
