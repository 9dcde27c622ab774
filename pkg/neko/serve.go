package neko

import (
	"context"

	"github.com/nekoproto/nekogo/internal/config"
	"github.com/nekoproto/nekogo/internal/logging"
	"github.com/nekoproto/nekogo/internal/transport"
)

// Listen binds cfg's configured network/address and returns a Listener
// accepting new peer connections.
func Listen(cfg *config.Settings, logger logging.Logger) (transport.Listener, error) {
	switch cfg.Server.Network {
	case "udp":
		return transport.ListenUDP(cfg.Server.Address, logger)
	default:
		return transport.ListenTCP(cfg.Server.Address, logger)
	}
}

// Serve accepts connections from ln until ctx is cancelled, handing each one
// to a Server bound to reg and driving it with repeated ServeOne calls on
// its own goroutine until the peer disconnects or ctx is done.
func Serve(ctx context.Context, ln transport.Listener, reg *MethodRegistry, logger logging.Logger) error {
	for {
		t, err := ln.Accept(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		srv, err := ServeConn(ctx, t, reg, true, logger)
		if err != nil {
			_ = t.Close()
			continue
		}
		go serveUntilDone(ctx, srv)
	}
}

func serveUntilDone(ctx context.Context, srv *Server) {
	defer func() { _ = srv.Close() }()
	for {
		if err := srv.ServeOne(ctx); err != nil {
			return
		}
		if ctx.Err() != nil {
			return
		}
	}
}
