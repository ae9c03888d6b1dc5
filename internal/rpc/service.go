// Package rpc exposes path search as the gRPC service railpath.v1.PathService.
// Messages are google.protobuf.Struct values carrying the JSON forms of
// query.Request and query.Response.
package rpc

import (
	"context"
	"encoding/json"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	serviceName     = "railpath.v1.PathService"
	findPathMethod  = "/" + serviceName + "/FindPath"
	findPathsMethod = "/" + serviceName + "/FindPaths"
)

// #region server-api
// PathServiceServer is the server API for PathService.
type PathServiceServer interface {
	FindPath(context.Context, *structpb.Struct) (*structpb.Struct, error)
	FindPaths(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

// RegisterPathServiceServer registers srv on s.
func RegisterPathServiceServer(s grpc.ServiceRegistrar, srv PathServiceServer) {
	s.RegisterService(&pathServiceDesc, srv)
}

var pathServiceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*PathServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "FindPath", Handler: unaryHandler(findPathMethod, PathServiceServer.FindPath)},
		{MethodName: "FindPaths", Handler: unaryHandler(findPathsMethod, PathServiceServer.FindPaths)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "railpath/v1/path.proto",
}

type unaryMethod func(PathServiceServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unaryHandler(fullMethod string, call unaryMethod) func(any, context.Context, func(any) error, grpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(PathServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(PathServiceServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}
// #endregion server-api

// #region client-api
// PathServiceClient is the client API for PathService.
type PathServiceClient interface {
	FindPath(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	FindPaths(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
}

type pathServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewPathServiceClient binds the client API to a connection.
func NewPathServiceClient(cc grpc.ClientConnInterface) PathServiceClient {
	return &pathServiceClient{cc: cc}
}

func (c *pathServiceClient) FindPath(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, findPathMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *pathServiceClient) FindPaths(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, findPathsMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
// #endregion client-api

// #region struct-codec
// toStruct converts any JSON-encodable value to a Struct.
func toStruct(v any) (*structpb.Struct, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal: %w", err)
	}
	st := new(structpb.Struct)
	if err := protojson.Unmarshal(b, st); err != nil {
		return nil, fmt.Errorf("to struct: %w", err)
	}
	return st, nil
}

// fromStruct decodes st into v through its JSON form.
func fromStruct(st *structpb.Struct, v any) error {
	b, err := protojson.Marshal(st)
	if err != nil {
		return fmt.Errorf("from struct: %w", err)
	}
	if err := json.Unmarshal(b, v); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	return nil
}
// #endregion struct-codec
