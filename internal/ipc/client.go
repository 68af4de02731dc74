package ipc

import (
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"time"
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

// Start requests the daemon to start processing.
func (c *Client) Start() (*StartResponse, error) {
	var resp StartResponse
	if err := c.client.Call("Soundlab.Start", StartRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Stop requests the daemon to stop processing.
func (c *Client) Stop() (*StopResponse, error) {
	var resp StopResponse
	if err := c.client.Call("Soundlab.Stop", StopRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Status retrieves the daemon status.
func (c *Client) Status() (*StatusResponse, error) {
	var resp StatusResponse
	if err := c.client.Call("Soundlab.Status", StatusRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// SessionList returns the saved sessions.
func (c *Client) SessionList() (*SessionListResponse, error) {
	var resp SessionListResponse
	if err := c.client.Call("Soundlab.SessionList", SessionListRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// SessionDescribe returns details for a single session.
func (c *Client) SessionDescribe(id int64) (*SessionDescribeResponse, error) {
	var resp SessionDescribeResponse
	if err := c.client.Call("Soundlab.SessionDescribe", SessionDescribeRequest{ID: id}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// SessionDelete removes a saved session.
func (c *Client) SessionDelete(id int64) (*SessionDeleteResponse, error) {
	var resp SessionDeleteResponse
	if err := c.client.Call("Soundlab.SessionDelete", SessionDeleteRequest{ID: id}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// RenderStart queues an offline mixdown of a saved session.
func (c *Client) RenderStart(req RenderStartRequest) (*RenderStartResponse, error) {
	var resp RenderStartResponse
	if err := c.client.Call("Soundlab.RenderStart", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// RenderList returns render jobs optionally filtered by statuses.
func (c *Client) RenderList(statuses []string) (*RenderListResponse, error) {
	var resp RenderListResponse
	if err := c.client.Call("Soundlab.RenderList", RenderListRequest{Statuses: statuses}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// RenderDescribe returns details for a single render job.
func (c *Client) RenderDescribe(id string) (*RenderDescribeResponse, error) {
	var resp RenderDescribeResponse
	if err := c.client.Call("Soundlab.RenderDescribe", RenderDescribeRequest{ID: id}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
