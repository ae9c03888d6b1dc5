package netstore

import (
	"time"

	"github.com/danielpatrickdp/railpath/internal/layout"
)

// #region layout-record
// LayoutRecord is one stored version of a network layout.
type LayoutRecord struct {
	VersionID string
	ParentID  string
	Name      string
	Spec      layout.Spec
	Note      string
	CreatedAt time.Time
}

// Build creates the in-memory network for the record.
func (r LayoutRecord) Build() (*layout.Network, error) {
	return r.Spec.Build()
}
// #endregion layout-record
