// Package rpc implements a JSON-RPC 2.0 peer: request/response/notification
// framing, a method registry, and the client/server engines that drive them
// over an internal/transport.Transport.
package rpc

import (
	"encoding/json"
	"fmt"

	"github.com/nekoproto/nekogo/internal/rpcerr"
)

// Version is the JSON-RPC protocol version every message on the wire
// carries.
const Version = "2.0"

// Error is the wire shape of a JSON-RPC error object.
type Error struct {
	Code    int               `json:"code"`
	Message string            `json:"message"`
	Data    map[string]string `json:"data,omitempty"`
}

// Error implements the error interface so an *Error can be returned and
// compared directly by callers that don't need the wire shape.
func (e *Error) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

// ToWireError builds the client-safe error object for a response,
// translating a package-internal error into its numeric code and stripping
// any sensitive-looking detail keys via rpcerr.WireData.
func ToWireError(err error) *Error {
	if err == nil {
		return nil
	}
	code := rpcerr.GetCode(err)
	return &Error{
		Code:    code,
		Message: rpcerr.UserFacingMessage(code),
		Data:    rpcerr.WireData(err),
	}
}

// Request is a JSON-RPC request message. A nil ID marks a notification.
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// IsNotification reports whether this Request carries no id and therefore
// expects no Response.
func (r *Request) IsNotification() bool {
	return len(r.ID) == 0
}

// Response is a JSON-RPC response message. Exactly one of Result or Error
// is set.
type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *Error          `json:"error,omitempty"`
}

// NewRequest builds a Request with an encoded id and params. A nil id
// produces a notification.
func NewRequest(id interface{}, method string, encodedParams json.RawMessage) (*Request, error) {
	var idJSON json.RawMessage
	if id != nil {
		b, err := json.Marshal(id)
		if err != nil {
			return nil, rpcerr.New(err, rpcerr.CategoryRPC, rpcerr.CodeInternalError, "marshal request id", nil)
		}
		idJSON = b
	}
	return &Request{JSONRPC: Version, ID: idJSON, Method: method, Params: encodedParams}, nil
}

// NewResultResponse builds a successful Response.
func NewResultResponse(id json.RawMessage, result json.RawMessage) *Response {
	return &Response{JSONRPC: Version, ID: id, Result: result}
}

// NewErrorResponse builds a failed Response. A nil id is valid for
// parse-error responses, per spec: the peer could not determine one.
func NewErrorResponse(id json.RawMessage, err *Error) *Response {
	return &Response{JSONRPC: Version, ID: id, Error: err}
}

// idString renders a raw JSON id (string, number, or null) as a comparable
// Go string, used for pending-request bookkeeping.
func idString(id json.RawMessage) string {
	return string(id)
}
