package rpc

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/danielpatrickdp/railpath/internal/query"
)

// #region client-struct
// Client is a typed PathService client.
type Client struct {
	conn   *grpc.ClientConn
	client PathServiceClient
}
// #endregion client-struct

// #region constructor
// NewClient connects to a path server.
func NewClient(addr string) (*Client, error) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("grpc dial %s: %w", addr, err)
	}
	return &Client{conn: conn, client: NewPathServiceClient(conn)}, nil
}

// NewClientWithService creates a Client with an injected service
// implementation.
func NewClientWithService(svc PathServiceClient) *Client {
	return &Client{client: svc}
}
// #endregion constructor

// Close shuts down the connection, if the client owns one.
func (c *Client) Close() error {
	if c.conn == nil {
		return nil
	}
	return c.conn.Close()
}

// #region find-path
// FindPath sends one query.
func (c *Client) FindPath(ctx context.Context, q query.Request) (query.Response, error) {
	in, err := toStruct(q)
	if err != nil {
		return query.Response{}, err
	}
	out, err := c.client.FindPath(ctx, in)
	if err != nil {
		return query.Response{}, fmt.Errorf("find path rpc: %w", err)
	}
	var resp query.Response
	if err := fromStruct(out, &resp); err != nil {
		return query.Response{}, err
	}
	return resp, nil
}

// FindPaths sends a batch of queries and returns the responses in order.
func (c *Client) FindPaths(ctx context.Context, qs []query.Request) ([]query.Response, error) {
	in, err := toStruct(batchRequest{Requests: qs})
	if err != nil {
		return nil, err
	}
	out, err := c.client.FindPaths(ctx, in)
	if err != nil {
		return nil, fmt.Errorf("find paths rpc: %w", err)
	}
	var br batchResponse
	if err := fromStruct(out, &br); err != nil {
		return nil, err
	}
	return br.Responses, nil
}
// #endregion find-path
