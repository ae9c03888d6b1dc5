package httpapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/danielpatrickdp/railpath/internal/dispatch"
	"github.com/danielpatrickdp/railpath/internal/layout"
	"github.com/danielpatrickdp/railpath/internal/query"
	"github.com/danielpatrickdp/railpath/internal/railpf"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// #region helpers
func newServer(t *testing.T, loaded bool) *gin.Engine {
	t.Helper()
	d := dispatch.New(dispatch.DefaultConfig(), railpf.DefaultConfig(), nil)
	if loaded {
		n, err := layout.Spec{
			Name:  "http",
			Lines: []layout.LineSpec{{X: 0, Y: 0, Dir: "sw", Length: 9}},
			Tiles: []layout.TileSpec{{X: 9, Y: 0, Kind: "depot", Door: "ne"}},
		}.Build()
		if err != nil {
			t.Fatalf("Build: %v", err)
		}
		d.Load("v1", n)
	}
	return NewRouter(d)
}

func do(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

const toDepot = `{"origins":[{"x":0,"y":0,"trackdir":"x_sw"}],"dest":{"kind":"depot","x":9,"y":0}}`
// #endregion helpers

func TestFindPath(t *testing.T) {
	w := do(newServer(t, true), http.MethodPost, "/v1/path", toDepot)
	if w.Code != http.StatusOK {
		t.Fatalf("status %d: %s", w.Code, w.Body)
	}
	var resp query.Response
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !resp.Found || resp.Cost != 1000 {
		t.Fatalf("expected cost 1000, got %+v", resp)
	}
}

func TestFindPathErrors(t *testing.T) {
	cases := []struct {
		name   string
		loaded bool
		body   string
		want   int
	}{
		{"malformed json", true, `{"origins":`, http.StatusBadRequest},
		{"unknown dest", true, `{"origins":[{"x":0,"y":0,"trackdir":"x_sw"}],"dest":{"kind":"moon"}}`, http.StatusBadRequest},
		{"no layout", false, toDepot, http.StatusServiceUnavailable},
	}
	for _, tc := range cases {
		w := do(newServer(t, tc.loaded), http.MethodPost, "/v1/path", tc.body)
		if w.Code != tc.want {
			t.Errorf("%s: status %d, want %d (%s)", tc.name, w.Code, tc.want, w.Body)
		}
	}
}

func TestBatch(t *testing.T) {
	body := `{"requests":[` + toDepot + `,{"origins":[{"x":5,"y":0,"trackdir":"x_sw"}],"dest":{"kind":"any_depot"}}]}`
	w := do(newServer(t, true), http.MethodPost, "/v1/batch", body)
	if w.Code != http.StatusOK {
		t.Fatalf("status %d: %s", w.Code, w.Body)
	}
	var out struct {
		Responses []query.Response `json:"responses"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out.Responses) != 2 || out.Responses[0].Cost != 1000 || out.Responses[1].Cost != 500 {
		t.Fatalf("unexpected responses %+v", out.Responses)
	}
}

func TestHealthAndMetrics(t *testing.T) {
	if w := do(newServer(t, false), http.MethodGet, "/healthz", ""); w.Code != http.StatusServiceUnavailable {
		t.Errorf("healthz without layout: status %d", w.Code)
	}
	r := newServer(t, true)
	w := do(r, http.MethodGet, "/healthz", "")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"layout":"v1"`) {
		t.Errorf("healthz: %d %s", w.Code, w.Body)
	}

	do(r, http.MethodPost, "/v1/path", toDepot)
	w = do(r, http.MethodGet, "/metrics", "")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "railpath_searches_total") {
		t.Errorf("metrics endpoint missing search counter: %d", w.Code)
	}
}
