package transport

import (
	"fmt"
	"strings"

	"github.com/nekoproto/nekogo/internal/rpcerr"
)

// Endpoint is a parsed transport address: a scheme ("tcp" or "udp") plus
// the address(es) needed to dial or listen on it.
type Endpoint struct {
	Scheme string
	Addr   string // "tcp": HOST:PORT to dial/listen. "udp": the bind HOST:PORT.
	Remote string // "udp" only: the peer HOST:PORT to send to.
}

// ParseEndpoint parses "tcp://HOST:PORT" and
// "udp://BIND_HOST:BIND_PORT-REMOTE_HOST:REMOTE_PORT", adapted from
// pkg/util/url's scheme-split idiom (splitting on "://" rather than relying
// on net/url, since these addresses aren't well-formed URLs — a bare
// HOST:PORT isn't a valid URL authority without a userinfo-free rewrite).
func ParseEndpoint(s string) (Endpoint, error) {
	parts := strings.SplitN(s, "://", 2)
	if len(parts) != 2 {
		return Endpoint{}, rpcerr.WithDetails(rpcerr.ErrInvalidParams, rpcerr.CategoryTransport, rpcerr.CodeInvalidParams,
			map[string]interface{}{"endpoint": s, "reason": "missing scheme://"})
	}
	scheme, rest := parts[0], parts[1]

	switch scheme {
	case "tcp":
		return Endpoint{Scheme: scheme, Addr: rest}, nil
	case "udp":
		hp := strings.SplitN(rest, "-", 2)
		if len(hp) != 2 {
			return Endpoint{}, rpcerr.WithDetails(rpcerr.ErrInvalidParams, rpcerr.CategoryTransport, rpcerr.CodeInvalidParams,
				map[string]interface{}{"endpoint": s, "reason": "udp endpoint requires BIND-REMOTE"})
		}
		return Endpoint{Scheme: scheme, Addr: hp[0], Remote: hp[1]}, nil
	default:
		return Endpoint{}, rpcerr.WithDetails(rpcerr.ErrInvalidParams, rpcerr.CategoryTransport, rpcerr.CodeInvalidParams,
			map[string]interface{}{"endpoint": s, "reason": fmt.Sprintf("unsupported scheme %q", scheme)})
	}
}
