package rpc

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"

	"github.com/nekoproto/nekogo/internal/logging"
	"github.com/nekoproto/nekogo/internal/rpcerr"
	"github.com/nekoproto/nekogo/internal/transport"
)

// Client is one RPC peer's caller side: it owns a Transport exclusively and
// allows at most one outstanding request at a time, per spec.md §4.9/§5's
// ordering guarantee.
type Client struct {
	transport transport.Transport
	logger    logging.Logger

	peer   *peerState
	mu     sync.Mutex // held from encode through receive, serializing calls
	nextID int64
}

// NewClient wraps transport in a ready (READY-state) Client.
func NewClient(t transport.Transport, logger logging.Logger) (*Client, error) {
	if logger == nil {
		logger = logging.GetNoopLogger()
	}
	p, err := newPeerState(logger)
	if err != nil {
		return nil, err
	}
	if err := p.setTransport(); err != nil {
		return nil, err
	}
	return &Client{transport: t, logger: logger.WithField("component", "rpc_client"), peer: p}, nil
}

// Call sends a Request for method with args and blocks until its Response
// arrives, decoding the result into result (which may be nil to discard
// it).
func (c *Client) Call(ctx context.Context, method string, args []interface{}, result interface{}) error {
	params, err := encodeParams(args)
	if err != nil {
		return err
	}
	return c.doCall(ctx, method, params, result)
}

// Notify sends a Request without an id; no response is awaited.
func (c *Client) Notify(ctx context.Context, method string, args []interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	params, err := encodeParams(args)
	if err != nil {
		return err
	}
	req, err := NewRequest(nil, method, params)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(req)
	if err != nil {
		return rpcerr.New(err, rpcerr.CategoryRPC, rpcerr.CodeInternalError, "marshal notification", nil)
	}
	return c.transport.WriteMessage(ctx, raw)
}

// CallRemote is Call's dynamic variant: method is a runtime string and
// paramNames, if non-nil, overrides the default array-shaped encoding with
// an object keyed by those names. It is the caller's responsibility to know
// the server-advertised parameter-name list (e.g. via rpc.get_method_info)
// for paramNames to line up; a count mismatch fails before anything is
// sent.
func (c *Client) CallRemote(ctx context.Context, method string, paramNames []string, args []interface{}, result interface{}) error {
	if paramNames == nil {
		return c.Call(ctx, method, args, result)
	}
	params, err := encodeNamedParams(paramNames, args)
	if err != nil {
		return err
	}
	return c.doCall(ctx, method, params, result)
}

// doCall serializes one request/response round trip under the
// single-outstanding-request mutex: encode, send, receive, and match the
// response id against the request just issued, per spec.md's ordering
// guarantee.
func (c *Client) doCall(ctx context.Context, method string, params json.RawMessage, result interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	call, err := newCallFSM(c.logger)
	if err != nil {
		return err
	}

	id := atomic.AddInt64(&c.nextID, 1)
	req, err := NewRequest(id, method, params)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(req)
	if err != nil {
		return rpcerr.New(err, rpcerr.CategoryRPC, rpcerr.CodeInternalError, "marshal request", nil)
	}
	if err := c.transport.WriteMessage(ctx, raw); err != nil {
		_ = call.Transition(ctx, CallEventTransportFail, nil)
		return rpcerr.New(err, rpcerr.CategoryRPC, rpcerr.CodeInternalError, "write request", nil)
	}

	respBytes, err := c.transport.ReadMessage(ctx)
	if err != nil {
		_ = call.Transition(ctx, CallEventTransportFail, nil)
		return rpcerr.New(err, rpcerr.CategoryRPC, rpcerr.CodeInternalError, "read response", nil)
	}
	var resp Response
	if err := json.Unmarshal(respBytes, &resp); err != nil {
		_ = call.Transition(ctx, CallEventTransportFail, nil)
		return rpcerr.New(err, rpcerr.CategoryRPC, rpcerr.CodeParseError, "parse response", nil)
	}
	if idString(resp.ID) != idString(req.ID) {
		_ = call.Transition(ctx, CallEventTransportFail, nil)
		return rpcerr.WithDetails(rpcerr.ErrInvalidParams, rpcerr.CategoryRPC, rpcerr.CodeResponseIDNotMatch,
			map[string]interface{}{"expected": idString(req.ID), "got": idString(resp.ID)})
	}
	if resp.Error != nil {
		_ = call.Transition(ctx, CallEventErrorReceived, nil)
		return resp.Error
	}
	_ = call.Transition(ctx, CallEventIDMatched, nil)
	if result == nil || len(resp.Result) == 0 {
		return nil
	}
	return json.Unmarshal(resp.Result, result)
}

// Close transitions the peer to DONE and closes the underlying transport.
func (c *Client) Close() error {
	_ = c.peer.close()
	return c.transport.Close()
}
