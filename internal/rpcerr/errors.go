package rpcerr

import (
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"
)

// Sentinel errors usable with errors.Is, mirroring the teacher's
// internal/mcperror base sentinels.
var (
	ErrNotFound       = errors.New("not found")
	ErrInvalidParams  = errors.New("invalid parameters")
	ErrTimeout        = errors.New("operation timed out")
	ErrCancelled      = errors.New("operation cancelled")
	ErrClosed         = errors.New("closed")
	ErrTooLarge       = errors.New("message too large")
	ErrAlreadyPending = errors.New("a request is already pending on this client")
)

// WithDetails marks err with a category and wire code, then attaches
// additional key/value detail pairs. Mirrors the teacher's
// mcperror.ErrorWithDetails.
func WithDetails(err error, category string, code int, details map[string]interface{}) error {
	err = errors.WithDetail(err, fmt.Sprintf("category:%s", category))
	err = errors.WithDetail(err, fmt.Sprintf("code:%d", code))
	for k, v := range details {
		err = errors.WithDetail(err, fmt.Sprintf("%s:%v", k, v))
	}
	return err
}

// New builds a categorized, coded error from a message and optional cause.
func New(cause error, category string, code int, msg string, details map[string]interface{}) error {
	var err error
	if cause == nil {
		err = errors.Newf("%s", msg)
	} else {
		err = errors.Wrapf(cause, "%s", msg)
	}
	return WithDetails(err, category, code, details)
}

// NewMethodNotFound builds the error returned by the RPC dispatcher when an
// incoming request names an unregistered method.
func NewMethodNotFound(method string) error {
	err := errors.Newf("method %q not found", method)
	err = errors.Mark(err, ErrNotFound)
	return WithDetails(err, CategoryRPC, CodeMethodNotFound, map[string]interface{}{"method": method})
}

// NewInvalidParams builds the error returned when request parameters fail to
// decode or validate against a method's declared schema.
func NewInvalidParams(method string, cause error) error {
	var err error
	if cause == nil {
		err = errors.Newf("invalid params for method %q", method)
	} else {
		err = errors.Wrapf(cause, "invalid params for method %q", method)
	}
	err = errors.Mark(err, ErrInvalidParams)
	return WithDetails(err, CategoryRPC, CodeInvalidParams, map[string]interface{}{"method": method})
}

// NewInternal wraps an unexpected handler/internal failure.
func NewInternal(cause error, where string) error {
	err := errors.Wrapf(cause, "internal error in %s", where)
	return WithDetails(err, CategoryRPC, CodeInternalError, nil)
}

// NewTimeout builds the error surfaced when a handler exceeds its deadline.
func NewTimeout(method string) error {
	err := errors.Newf("handler for %q exceeded its deadline", method)
	err = errors.Mark(err, ErrTimeout)
	return WithDetails(err, CategoryRPC, CodeRequestTimeout, map[string]interface{}{"method": method})
}

// NewCancelled builds the error surfaced to a client whose pending call was
// cancelled (either locally or by a server-side Cancel(id)).
func NewCancelled(method string) error {
	err := errors.Newf("request for %q was cancelled", method)
	err = errors.Mark(err, ErrCancelled)
	return WithDetails(err, CategoryRPC, CodeRequestCancelled, map[string]interface{}{"method": method})
}

// GetCode extracts the wire code a WithDetails-tagged error carries,
// defaulting to CodeInternalError.
func GetCode(err error) int {
	for _, d := range errors.GetAllDetails(err) {
		if strings.HasPrefix(d, "code:") {
			var code int
			if _, scanErr := fmt.Sscanf(d, "code:%d", &code); scanErr == nil {
				return code
			}
		}
	}
	return CodeInternalError
}

// GetCategory extracts the category a WithDetails-tagged error carries.
func GetCategory(err error) string {
	for _, d := range errors.GetAllDetails(err) {
		if strings.HasPrefix(d, "category:") {
			return strings.TrimPrefix(d, "category:")
		}
	}
	return ""
}

// sensitiveKeywords are substrings that disqualify a detail key from being
// echoed to a remote peer, mirroring the teacher's containsSensitiveKeyword.
var sensitiveKeywords = []string{"token", "password", "secret", "key", "auth", "credential", "session"}

func isSensitive(key string) bool {
	lower := strings.ToLower(key)
	for _, kw := range sensitiveKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// WireData builds the safe "data" map for a JSON-RPC error response: every
// detail attached via WithDetails except category/code/stack and anything
// matching a sensitive keyword.
func WireData(err error) map[string]string {
	if err == nil {
		return nil
	}
	out := make(map[string]string)
	for _, d := range errors.GetAllDetails(err) {
		k, v, ok := strings.Cut(d, ":")
		if !ok || k == "category" || k == "code" || k == "stack" || isSensitive(k) {
			continue
		}
		out[k] = v
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
