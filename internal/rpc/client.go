package rpc

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"

	"github.com/banshee-data/dbscan/internal/dbscan"
	"github.com/banshee-data/dbscan/internal/job"
)

// Client calls a remote Clusterer service.
type Client struct {
	conn *grpc.ClientConn
	own  bool
}

// Dial connects to target without transport security.
func Dial(target string, opts ...grpc.DialOption) (*Client, error) {
	opts = append([]grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}, opts...)
	conn, err := grpc.NewClient(target, opts...)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", target, err)
	}
	return &Client{conn: conn, own: true}, nil
}

// NewClient wraps an existing connection. Close leaves conn open.
func NewClient(conn *grpc.ClientConn) *Client {
	return &Client{conn: conn}
}

// Cluster submits req and returns the decoded response. RunID and Algorithm
// are filled from the response header when the server provides them.
func (c *Client) Cluster(ctx context.Context, req *job.Request, opts ...grpc.CallOption) (*job.Response, error) {
	var header metadata.MD
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName), grpc.Header(&header)}, opts...)

	resp := new(job.Response)
	if err := c.conn.Invoke(ctx, ClusterMethod, req, resp, opts...); err != nil {
		return nil, err
	}
	if v := header.Get(MetadataRunID); len(v) > 0 {
		resp.RunID = v[0]
	}
	if v := header.Get(MetadataAlgorithm); len(v) > 0 {
		resp.Algorithm = dbscan.Algorithm(v[0])
	}
	return resp, nil
}

// Close closes the connection if the client opened it.
func (c *Client) Close() error {
	if !c.own {
		return nil
	}
	return c.conn.Close()
}
