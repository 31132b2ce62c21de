package api

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/solatis/stemkeeper/internal/core/auth"
)

// Client calls a remote Warehouse service.
type Client struct {
	conn   *grpc.ClientConn
	apiKey string
}

// NewClient connects to target without transport security. apiKey may be
// empty when the server does not require authentication.
func NewClient(target, apiKey string, opts ...grpc.DialOption) (*Client, error) {
	opts = append([]grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}, opts...)
	conn, err := grpc.NewClient(target, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create client for %s: %w", target, err)
	}
	return &Client{conn: conn, apiKey: apiKey}, nil
}

// Conn exposes the underlying connection, e.g. for health checks.
func (c *Client) Conn() *grpc.ClientConn {
	return c.conn
}

// Close releases the connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

func (c *Client) outgoing(ctx context.Context) context.Context {
	if c.apiKey == "" {
		return ctx
	}
	return metadata.AppendToOutgoingContext(ctx, auth.MetadataKey, c.apiKey)
}

// AddStem sends one stem record and returns the bouquet record, or "".
func (c *Client) AddStem(ctx context.Context, record string) (string, error) {
	out := new(wrapperspb.StringValue)
	if err := c.conn.Invoke(c.outgoing(ctx), MethodAddStem, wrapperspb.String(record), out); err != nil {
		return "", err
	}
	return out.GetValue(), nil
}

// GetStock fetches the counters of the S or L pool.
func (c *Client) GetStock(ctx context.Context, size string) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.conn.Invoke(c.outgoing(ctx), MethodGetStock, wrapperspb.String(size), out); err != nil {
		return nil, err
	}
	return out, nil
}
