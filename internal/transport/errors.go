package transport

import (
	"fmt"

	"github.com/nekoproto/nekogo/internal/rpcerr"
)

// errClosed builds the error returned by an operation attempted on a
// transport/listener after Close.
func errClosed(operation string) error {
	return rpcerr.WithDetails(rpcerr.ErrClosed, rpcerr.CategoryTransport, rpcerr.CodeInternalError,
		map[string]interface{}{"operation": operation})
}

// errTooLarge builds the error returned when a message exceeds a
// transport's size limit (MaxMessageSize generally, or UDPTransport's
// 1500-byte datagram ceiling specifically).
func errTooLarge(size, max int) error {
	return rpcerr.WithDetails(rpcerr.ErrTooLarge, rpcerr.CategoryTransport, rpcerr.CodeMessageTooLarge,
		map[string]interface{}{"size": fmt.Sprintf("%d", size), "max": fmt.Sprintf("%d", max)})
}
