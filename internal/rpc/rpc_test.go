package rpc

import (
	"context"
	"errors"
	"net"
	"testing"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/danielpatrickdp/railpath/internal/dispatch"
	"github.com/danielpatrickdp/railpath/internal/layout"
	"github.com/danielpatrickdp/railpath/internal/query"
	"github.com/danielpatrickdp/railpath/internal/railpf"
)

// #region mock
type mockPathService struct {
	PathServiceClient

	findResp *structpb.Struct
	findErr  error
	lastIn   *structpb.Struct
}

func (m *mockPathService) FindPath(_ context.Context, in *structpb.Struct, _ ...grpc.CallOption) (*structpb.Struct, error) {
	m.lastIn = in
	return m.findResp, m.findErr
}
// #endregion mock

// #region helpers
func depotLine(t *testing.T) *layout.Network {
	t.Helper()
	n, err := layout.Spec{
		Name:  "rpc",
		Lines: []layout.LineSpec{{X: 0, Y: 0, Dir: "sw", Length: 9}},
		Tiles: []layout.TileSpec{{X: 9, Y: 0, Kind: "depot", Door: "ne"}},
	}.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return n
}

// serve starts a PathService on an in-memory listener and returns a client.
func serve(t *testing.T, s Searcher) *Client {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	srv := grpc.NewServer()
	RegisterPathServiceServer(srv, NewServer(s))
	go srv.Serve(lis)
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return NewClientWithService(NewPathServiceClient(conn))
}

var toDepot = query.Request{
	Origins: []query.Origin{{X: 0, Y: 0, Trackdir: "x_sw"}},
	Dest:    query.Dest{Kind: "depot", X: 9, Y: 0},
}
// #endregion helpers

// #region client-tests
func TestClientDecodesResponse(t *testing.T) {
	out, _ := structpb.NewStruct(map[string]any{
		"found":     true,
		"cost":      1200,
		"search_id": "abc",
		"steps":     []any{map[string]any{"x": 1, "y": 2, "trackdir": "x_sw"}},
	})
	mock := &mockPathService{findResp: out}
	c := NewClientWithService(mock)

	resp, err := c.FindPath(context.Background(), toDepot)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !resp.Found || resp.Cost != 1200 || resp.SearchID != "abc" || len(resp.Steps) != 1 {
		t.Fatalf("unexpected response %+v", resp)
	}
	if got := mock.lastIn.Fields["dest"].GetStructValue().Fields["kind"].GetStringValue(); got != "depot" {
		t.Errorf("expected dest kind to be sent, got %q", got)
	}
}

func TestClientWrapsError(t *testing.T) {
	c := NewClientWithService(&mockPathService{findErr: errors.New("connection refused")})
	if _, err := c.FindPath(context.Background(), toDepot); err == nil {
		t.Fatal("expected error")
	}
}

func TestCloseWithoutConn(t *testing.T) {
	if err := NewClientWithService(&mockPathService{}).Close(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
// #endregion client-tests

// #region end-to-end-tests
func TestFindPathOverGRPC(t *testing.T) {
	d := dispatch.New(dispatch.DefaultConfig(), railpf.DefaultConfig(), nil)
	d.Load("v1", depotLine(t))
	c := serve(t, d)

	resp, err := c.FindPath(context.Background(), toDepot)
	if err != nil {
		t.Fatalf("FindPath: %v", err)
	}
	if !resp.Found || resp.Cost != 1000 || len(resp.Steps) != 10 {
		t.Fatalf("expected 10 steps at cost 1000, got %+v", resp)
	}
	if resp.SearchID == "" || resp.StepsHash == "" {
		t.Fatalf("expected search id and steps hash, got %+v", resp)
	}
}

func TestFindPathsOverGRPC(t *testing.T) {
	d := dispatch.New(dispatch.DefaultConfig(), railpf.DefaultConfig(), nil)
	d.Load("v1", depotLine(t))
	c := serve(t, d)

	second := toDepot
	second.Origins = []query.Origin{{X: 4, Y: 0, Trackdir: "x_sw"}}
	resps, err := c.FindPaths(context.Background(), []query.Request{toDepot, second, {}})
	if err != nil {
		t.Fatalf("FindPaths: %v", err)
	}
	if len(resps) != 3 {
		t.Fatalf("expected 3 responses, got %d", len(resps))
	}
	if resps[0].Cost != 1000 || resps[1].Cost != 600 {
		t.Errorf("unexpected costs %d, %d", resps[0].Cost, resps[1].Cost)
	}
	if resps[2].Outcome() != "error" {
		t.Errorf("expected the empty query to fail, got %s", resps[2].Outcome())
	}
}

func TestStatusCodes(t *testing.T) {
	empty := serve(t, dispatch.New(dispatch.DefaultConfig(), railpf.DefaultConfig(), nil))
	if _, err := empty.FindPath(context.Background(), toDepot); status.Code(err) != codes.FailedPrecondition {
		t.Errorf("no layout: expected FailedPrecondition, got %v", err)
	}

	d := dispatch.New(dispatch.DefaultConfig(), railpf.DefaultConfig(), nil)
	d.Load("v1", depotLine(t))
	c := serve(t, d)
	bad := query.Request{Origins: toDepot.Origins, Dest: query.Dest{Kind: "moon"}}
	if _, err := c.FindPath(context.Background(), bad); status.Code(err) != codes.InvalidArgument {
		t.Errorf("bad request: expected InvalidArgument, got %v", err)
	}
}
// #endregion end-to-end-tests
