// Package rpcclient provides a JSON-RPC 2.0 client for Klayr nodes over
// IPC, WebSocket or HTTP.
package rpcclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	klog "github.com/Klingon-tech/klayr-reg/internal/log"
	"github.com/mitchellh/go-homedir"
)

// ErrNoEndpoint is returned by Dial when neither an IPC path nor a
// WebSocket URL is configured.
var ErrNoEndpoint = errors.New("no node endpoint configured")

// ipcSocketPath is the socket location inside a node data directory.
var ipcSocketPath = filepath.Join("tmp", "sockets", "ipc_server.rpc")

// Endpoint identifies one node. IPC takes precedence over WS.
type Endpoint struct {
	// Name labels the chain in errors and logs (e.g. "mainchain").
	Name string
	// IPC is a ZeroMQ RPC socket path or a node data directory.
	IPC string
	// WS is a ws://, wss://, http:// or https:// URL.
	WS string
}

// request is a JSON-RPC 2.0 request.
type request struct {
	JSONRPC string      `json:"jsonrpc"`
	Method  string      `json:"method"`
	Params  interface{} `json:"params,omitempty"`
	ID      int64       `json:"id"`
}

// response is a JSON-RPC 2.0 response. ID is nil for notifications.
type response struct {
	JSONRPC string          `json:"jsonrpc"`
	Method  string          `json:"method,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *rpcError       `json:"error,omitempty"`
	ID      *int64          `json:"id"`
}

// rpcError is a JSON-RPC 2.0 error.
type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// RPCError is returned when the server responds with an error.
type RPCError struct {
	Code    int
	Message string
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

// transport exchanges one request for its response.
type transport interface {
	roundTrip(ctx context.Context, req *request) (*response, error)
	close() error
}

// Client is a JSON-RPC 2.0 client bound to one node.
type Client struct {
	name   string
	target string
	t      transport
	nextID atomic.Int64
}

// New creates an HTTP client targeting the given endpoint URL.
func New(endpoint string) *Client {
	return &Client{target: endpoint, t: newHTTPTransport(endpoint)}
}

// Dial opens a connection to the node described by ep.
func Dial(ctx context.Context, ep Endpoint) (*Client, error) {
	c := &Client{name: ep.Name}
	switch {
	case ep.IPC != "":
		path, err := resolveIPCPath(ep.IPC)
		if err != nil {
			return nil, err
		}
		t, err := dialIPC(ctx, path)
		if err != nil {
			return nil, fmt.Errorf("%s: dial ipc %s: %w", ep.Name, path, err)
		}
		c.target, c.t = "ipc://"+path, t
	case ep.WS != "":
		switch {
		case strings.HasPrefix(ep.WS, "ws://"), strings.HasPrefix(ep.WS, "wss://"):
			t, err := dialWS(ctx, ep.WS)
			if err != nil {
				return nil, fmt.Errorf("%s: dial ws %s: %w", ep.Name, ep.WS, err)
			}
			c.target, c.t = ep.WS, t
		case strings.HasPrefix(ep.WS, "http://"), strings.HasPrefix(ep.WS, "https://"):
			c.target, c.t = ep.WS, newHTTPTransport(ep.WS)
		default:
			return nil, fmt.Errorf("%s: unsupported endpoint scheme %q", ep.Name, ep.WS)
		}
	default:
		return nil, fmt.Errorf("%s: %w", ep.Name, ErrNoEndpoint)
	}

	klog.Client.Debug().Str("chain", ep.Name).Str("endpoint", c.target).Msg("Connected to node")
	return c, nil
}

// resolveIPCPath expands ~ and maps a data directory to its socket.
func resolveIPCPath(p string) (string, error) {
	path, err := homedir.Expand(p)
	if err != nil {
		return "", fmt.Errorf("expand ipc path: %w", err)
	}
	if fi, err := os.Stat(path); err == nil && fi.IsDir() {
		path = filepath.Join(path, ipcSocketPath)
	}
	return path, nil
}

// Name returns the chain label the client was dialed with.
func (c *Client) Name() string {
	return c.name
}

// Target returns the resolved endpoint.
func (c *Client) Target() string {
	return c.target
}

// Call invokes a JSON-RPC method and unmarshals the result into the provided pointer.
// If result is nil, the response result is discarded.
func (c *Client) Call(ctx context.Context, method string, params, result interface{}) error {
	req := &request{
		JSONRPC: "2.0",
		Method:  method,
		Params:  params,
		ID:      c.nextID.Add(1),
	}

	resp, err := c.t.roundTrip(ctx, req)
	if err != nil {
		return fmt.Errorf("%s: %w", method, err)
	}

	if resp.Error != nil {
		return &RPCError{
			Code:    resp.Error.Code,
			Message: resp.Error.Message,
		}
	}

	if result != nil && resp.Result != nil {
		if err := json.Unmarshal(resp.Result, result); err != nil {
			return fmt.Errorf("%s: decode result: %w", method, err)
		}
	}

	return nil
}

// Close releases the underlying connection.
func (c *Client) Close() error {
	return c.t.close()
}
