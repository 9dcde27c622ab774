package rpc

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/nekoproto/nekogo/internal/fsm"
	"github.com/nekoproto/nekogo/internal/logging"
	"github.com/nekoproto/nekogo/internal/rpcerr"
	"github.com/nekoproto/nekogo/internal/transport"
)

// pendingRequest tracks one in-flight server-side request: its RECEIVED ->
// RUNNING -> RESPONSE/ABORTED state machine and the cancel func for its
// derived context, so Cancel(id) can stop it independently of the rest of
// the batch.
type pendingRequest struct {
	machine fsm.FSM
	cancel  context.CancelFunc
}

// Server is one RPC peer's callee side: it reads whole messages (single
// Request, batch array, or garbage) off a Transport, dispatches each to the
// MethodRegistry under its own cooperative task, and writes back the
// Response (or batch of Responses, input order preserved).
type Server struct {
	transport transport.Transport
	registry  *MethodRegistry
	logger    logging.Logger

	peer  *peerState
	scope *taskScope

	mu      sync.Mutex
	pending map[string]*pendingRequest
}

// NewServer wraps transport and dispatches against registry. parentCtx
// bounds the lifetime of every handler task spawned for this connection;
// autoCancel controls whether Close aborts in-flight handlers (spec.md's
// default) or lets them drain.
func NewServer(t transport.Transport, registry *MethodRegistry, parentCtx context.Context, autoCancel bool, logger logging.Logger) (*Server, error) {
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
	return &Server{
		transport: t,
		registry:  registry,
		logger:    logger.WithField("component", "rpc_server"),
		peer:      p,
		scope:     newTaskScope(parentCtx, autoCancel),
		pending:   make(map[string]*pendingRequest),
	}, nil
}

// ServeOne reads one message, dispatches it (single Request, batch, or a
// parse-error response for garbage), and writes the Response(es) back.
// Notifications produce no reply and, if the whole message was a
// notification (or a batch of only notifications), ServeOne writes
// nothing.
func (s *Server) ServeOne(ctx context.Context) error {
	raw, err := s.transport.ReadMessage(ctx)
	if err != nil {
		return err
	}

	trimmed := firstNonSpace(raw)
	if trimmed == '[' {
		return s.serveBatch(ctx, raw)
	}

	var req Request
	if err := json.Unmarshal(raw, &req); err != nil {
		return s.writeResponse(ctx, NewErrorResponse(nil, &Error{
			Code: rpcerr.CodeParseError, Message: rpcerr.UserFacingMessage(rpcerr.CodeParseError),
		}))
	}
	resp := s.handleOne(ctx, &req)
	if resp == nil {
		return nil // notification: no reply
	}
	return s.writeResponse(ctx, resp)
}

func (s *Server) serveBatch(ctx context.Context, raw json.RawMessage) error {
	var reqs []Request
	if err := json.Unmarshal(raw, &reqs); err != nil {
		return s.writeResponse(ctx, NewErrorResponse(nil, &Error{
			Code: rpcerr.CodeParseError, Message: rpcerr.UserFacingMessage(rpcerr.CodeParseError),
		}))
	}

	results := make([]*Response, len(reqs))
	g, gctx := errgroup.WithContext(ctx)
	for i := range reqs {
		i := i
		req := reqs[i]
		g.Go(func() error {
			results[i] = s.handleOne(gctx, &req)
			return nil
		})
	}
	_ = g.Wait()

	batch := make([]*Response, 0, len(results))
	for _, r := range results {
		if r != nil {
			batch = append(batch, r)
		}
	}
	if len(batch) == 0 {
		return nil
	}
	out, err := json.Marshal(batch)
	if err != nil {
		return rpcerr.New(err, rpcerr.CategoryRPC, rpcerr.CodeInternalError, "marshal batch response", nil)
	}
	return s.transport.WriteMessage(ctx, out)
}

// handleOne runs one Request through the method registry, driving its
// RECEIVED -> ERROR_RESPONSE / RUNNING -> RESPONSE/ABORTED state machine,
// and returns its Response, or nil if req is a notification (no reply
// expected).
func (s *Server) handleOne(ctx context.Context, req *Request) *Response {
	machine, err := newRequestFSM(s.logger)
	if err != nil {
		return NewErrorResponse(req.ID, ToWireError(rpcerr.New(err, rpcerr.CategoryRPC, rpcerr.CodeInternalError, "build request state machine", nil)))
	}

	entry, ok := s.registry.Lookup(req.Method)
	if !ok || !entry.Bound {
		_ = machine.Transition(ctx, RequestEventMethodUnknown, nil)
		if req.IsNotification() {
			return nil
		}
		return NewErrorResponse(req.ID, ToWireError(rpcerr.NewMethodNotFound(req.Method)))
	}

	reqCtx, cancel := context.WithCancel(ctx)
	// Tie the request to the connection's task scope, so a cancelled
	// parentCtx, or Close with autoCancel, also aborts the handler.
	stopScopeCancel := context.AfterFunc(s.scope.ctx, cancel)
	defer stopScopeCancel()
	reqCtx = logging.WithCorrelationID(reqCtx, uuid.NewString())
	reqLogger := s.logger.WithContext(reqCtx)
	key := idString(req.ID)
	if !req.IsNotification() {
		s.mu.Lock()
		s.pending[key] = &pendingRequest{machine: machine, cancel: cancel}
		s.mu.Unlock()
		defer func() {
			s.mu.Lock()
			delete(s.pending, key)
			s.mu.Unlock()
		}()
	} else {
		defer cancel()
	}

	_ = machine.Transition(reqCtx, RequestEventSpawned, nil)
	result, handlerErr := s.registry.Dispatch(reqCtx, req.Method, req.Params)

	if reqCtx.Err() != nil {
		_ = machine.Transition(context.Background(), RequestEventCancelled, nil)
		return nil // cancelled: spec.md says no response is ever emitted for it
	}
	_ = machine.Transition(context.Background(), RequestEventCompleted, nil)

	if req.IsNotification() {
		return nil
	}
	if handlerErr != nil {
		reqLogger.Warn("rpc: handler returned an error", "method", req.Method, "error", handlerErr.Error())
		return NewErrorResponse(req.ID, ToWireError(handlerErr))
	}
	resultJSON, merr := json.Marshal(result)
	if merr != nil {
		return NewErrorResponse(req.ID, ToWireError(rpcerr.New(merr, rpcerr.CategoryRPC, rpcerr.CodeInternalError, "marshal result", nil)))
	}
	return NewResultResponse(req.ID, resultJSON)
}

func (s *Server) writeResponse(ctx context.Context, resp *Response) error {
	raw, err := json.Marshal(resp)
	if err != nil {
		return rpcerr.New(err, rpcerr.CategoryRPC, rpcerr.CodeInternalError, "marshal response", nil)
	}
	return s.transport.WriteMessage(ctx, raw)
}

// Cancel stops the task bound to request id, if still in flight. No
// response is emitted for it, per spec.md: "the request simply never
// completes."
func (s *Server) Cancel(id json.RawMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.pending[idString(id)]; ok {
		p.cancel()
	}
}

// CancelAll stops every in-flight request on this connection.
func (s *Server) CancelAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.pending {
		p.cancel()
	}
}

// Close tears down the task scope and transport.
func (s *Server) Close() error {
	s.scope.Close()
	_ = s.peer.close()
	return s.transport.Close()
}

func firstNonSpace(b []byte) byte {
	for _, c := range b {
		switch c {
		case ' ', '\t', '\n', '\r':
			continue
		default:
			return c
		}
	}
	return 0
}
