package ipc

import (
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"time"

	"streampay/internal/ledger"
)

// Client provides RPC access to the daemon.
type Client struct {
	conn   net.Conn
	client *rpc.Client
}

// Dial connects to the IPC server at the given socket path.
func Dial(path string) (*Client, error) {
	conn, err := net.DialTimeout("unix", path, 2*time.Second)
	if err != nil {
		return nil, err
	}
	rpcClient := rpc.NewClientWithCodec(jsonrpc.NewClientCodec(conn))
	return &Client{conn: conn, client: rpcClient}, nil
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	if c.client != nil {
		_ = c.client.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// call invokes an RPC method and rehydrates ledger error kinds so callers can
// use errors.Is across the socket boundary.
func (c *Client) call(method string, req, resp any) error {
	if err := c.client.Call(method, req, resp); err != nil {
		return ledger.DecodeError(err.Error())
	}
	return nil
}

// Status retrieves the daemon status.
func (c *Client) Status() (*StatusResponse, error) {
	var resp StatusResponse
	if err := c.call("StreamPay.Status", StatusRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Shutdown asks the daemon process to exit.
func (c *Client) Shutdown() (*ShutdownResponse, error) {
	var resp ShutdownResponse
	if err := c.call("StreamPay.Shutdown", ShutdownRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// StreamCreate opens a new payment stream.
func (c *Client) StreamCreate(req StreamCreateRequest) (*StreamCreateResponse, error) {
	var resp StreamCreateResponse
	if err := c.call("StreamPay.StreamCreate", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// StreamClose settles and deactivates a stream.
func (c *Client) StreamClose(id uint64, caller string) (*StreamCloseResponse, error) {
	var resp StreamCloseResponse
	req := StreamCloseRequest{ID: id, Caller: caller}
	if err := c.call("StreamPay.StreamClose", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// StreamDescribe returns details for a single stream.
func (c *Client) StreamDescribe(id uint64) (*StreamDescribeResponse, error) {
	var resp StreamDescribeResponse
	req := StreamDescribeRequest{ID: id}
	if err := c.call("StreamPay.StreamDescribe", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// StreamList returns streams, optionally restricted to active ones.
func (c *Client) StreamList(activeOnly bool) (*StreamListResponse, error) {
	var resp StreamListResponse
	req := StreamListRequest{ActiveOnly: activeOnly}
	if err := c.call("StreamPay.StreamList", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// NextStreamID reports the id the next created stream will receive.
func (c *Client) NextStreamID() (*NextStreamIDResponse, error) {
	var resp NextStreamIDResponse
	if err := c.call("StreamPay.NextStreamID", NextStreamIDRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// TransferList returns the journal for a stream.
func (c *Client) TransferList(streamID uint64) (*TransferListResponse, error) {
	var resp TransferListResponse
	req := TransferListRequest{StreamID: streamID}
	if err := c.call("StreamPay.TransferList", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// LogTail reads lines from the daemon's log file.
func (c *Client) LogTail(req LogTailRequest) (*LogTailResponse, error) {
	var resp LogTailResponse
	if err := c.call("StreamPay.LogTail", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
