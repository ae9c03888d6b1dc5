package rpc

import (
	"context"
	"errors"
	"log"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/danielpatrickdp/railpath/internal/dispatch"
	"github.com/danielpatrickdp/railpath/internal/query"
)

// #region searcher
// Searcher runs queries. *dispatch.Dispatcher implements it.
type Searcher interface {
	Find(ctx context.Context, q query.Request) (query.Response, error)
	Batch(ctx context.Context, qs []query.Request) ([]query.Response, error)
}

type batchRequest struct {
	Requests []query.Request `json:"requests"`
}

type batchResponse struct {
	Responses []query.Response `json:"responses"`
}
// #endregion searcher

// #region server
// Server implements PathServiceServer over a Searcher.
type Server struct {
	searcher Searcher
}

// NewServer creates a Server.
func NewServer(s Searcher) *Server {
	return &Server{searcher: s}
}

// FindPath answers one query. A query that does not resolve against the
// layout fails with InvalidArgument; a server without a layout fails with
// FailedPrecondition.
func (s *Server) FindPath(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var q query.Request
	if err := fromStruct(in, &q); err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "decode request: %v", err)
	}
	resp, err := s.searcher.Find(ctx, q)
	if err != nil {
		return nil, toStatus(err)
	}
	if resp.Error != "" {
		return nil, status.Error(codes.InvalidArgument, resp.Error)
	}
	return encode(resp)
}

// FindPaths answers a batch. Per-query failures are reported inside the
// matching response.
func (s *Server) FindPaths(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var br batchRequest
	if err := fromStruct(in, &br); err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "decode batch: %v", err)
	}
	resps, err := s.searcher.Batch(ctx, br.Requests)
	if err != nil {
		return nil, toStatus(err)
	}
	return encode(batchResponse{Responses: resps})
}

func encode(v any) (*structpb.Struct, error) {
	st, err := toStruct(v)
	if err != nil {
		log.Printf("[RPC] encode response: %v", err)
		return nil, status.Error(codes.Internal, err.Error())
	}
	return st, nil
}

func toStatus(err error) error {
	if errors.Is(err, dispatch.ErrNoLayout) {
		return status.Error(codes.FailedPrecondition, err.Error())
	}
	return status.Error(codes.Internal, err.Error())
}
// #endregion server
