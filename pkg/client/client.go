// Package client provides a small gRPC client for the StoreService,
// used by the probe command and by integration tests.
package client

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/marmos91/dittostore/pkg/api/storepb"
)

// ErrNotFound is returned by Read when the server has no entry for the
// requested identifier.
var ErrNotFound = errors.New("request id not found")

// Client talks to a StoreService endpoint.
type Client struct {
	conn *grpc.ClientConn
	rpc  storepb.StoreServiceClient
}

// New connects to the given address. The connection is plaintext; the service
// is meant to sit behind trusted transport.
func New(address string) (*Client, error) {
	conn, err := grpc.NewClient(address,
		grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("connect to %s: %w", address, err)
	}

	return &Client{
		conn: conn,
		rpc:  storepb.NewStoreServiceClient(conn),
	}, nil
}

// Write stores data under requestID and returns the byte offset the server
// assigned to it.
func (c *Client) Write(ctx context.Context, requestID string, data []byte) (uint64, error) {
	resp, err := c.rpc.Write(ctx, &storepb.WriteRequest{
		RequestId: requestID,
		Data:      data,
	})
	if err != nil {
		return 0, fmt.Errorf("write %q: %w", requestID, err)
	}
	if !resp.Success {
		return 0, fmt.Errorf("write %q rejected: %s", requestID, resp.ErrorMessage)
	}
	return resp.Offset, nil
}

// Read returns the payload stored under requestID. A missing identifier
// yields ErrNotFound.
func (c *Client) Read(ctx context.Context, requestID string) ([]byte, error) {
	resp, err := c.rpc.Read(ctx, &storepb.ReadRequest{RequestId: requestID})
	if err != nil {
		return nil, fmt.Errorf("read %q: %w", requestID, err)
	}
	if !resp.Success {
		if strings.Contains(resp.ErrorMessage, "not found") {
			return nil, fmt.Errorf("read %q: %w", requestID, ErrNotFound)
		}
		return nil, fmt.Errorf("read %q rejected: %s", requestID, resp.ErrorMessage)
	}
	return resp.Data, nil
}

// Close tears down the underlying connection.
func (c *Client) Close() error {
	return c.conn.Close()
}
