package transport

import (
	"context"
	"net"
	"sync"

	"github.com/cockroachdb/errors"

	"github.com/nekoproto/nekogo/internal/logging"
)

// MaxUDPDatagramSize is the per-message ceiling for UDPTransport.WriteMessage, per
// spec.md §5/§6.2: one JSON-RPC message per datagram, no fragmentation.
const MaxUDPDatagramSize = 1500

// UDPTransport sends and receives one message per UDP datagram. Unlike
// TCPTransport it has no persistent stream to read from directly; either it
// owns a connected net.Conn (client side, via DialUDP) or it's fed
// datagrams by a UDPListener that demultiplexes a shared socket by source
// address (server side).
type UDPTransport struct {
	conn       net.Conn      // client-dialed connection, nil on the listener-owned server side
	remoteAddr net.Addr      // server side: the peer this logical transport represents
	sharedConn net.PacketConn // server side: the listener's shared socket, used to write back
	inbox      chan []byte    // server side: datagrams the listener routed to this peer

	logger logging.Logger
	closeGuard
	writeLock sync.Mutex
}

// DialUDP connects to addr ("HOST:PORT") and returns a client-side
// UDPTransport.
func DialUDP(addr string, logger logging.Logger) (*UDPTransport, error) {
	conn, err := net.Dial("udp", addr)
	if err != nil {
		return nil, errors.Wrapf(err, "transport: dial udp %s", addr)
	}
	if logger == nil {
		logger = logging.GetNoopLogger()
	}
	return &UDPTransport{conn: conn, logger: logger.WithField("component", "udp_transport")}, nil
}

func (t *UDPTransport) ReadMessage(ctx context.Context) ([]byte, error) {
	if t.isClosed() {
		return nil, errClosed("read")
	}

	if t.conn != nil {
		return t.readFromConn(ctx)
	}
	return t.readFromInbox(ctx)
}

func (t *UDPTransport) readFromConn(ctx context.Context) ([]byte, error) {
	type result struct {
		data []byte
		err  error
	}
	ch := make(chan result, 1)
	go func() {
		buf := make([]byte, MaxUDPDatagramSize)
		n, err := t.conn.Read(buf)
		if err != nil {
			ch <- result{nil, errors.Wrap(err, "transport: read udp datagram")}
			return
		}
		ch <- result{buf[:n], nil}
	}()

	select {
	case <-ctx.Done():
		return nil, errors.Wrap(ctx.Err(), "transport: context cancelled during read")
	case r := <-ch:
		return r.data, r.err
	}
}

func (t *UDPTransport) readFromInbox(ctx context.Context) ([]byte, error) {
	select {
	case <-ctx.Done():
		return nil, errors.Wrap(ctx.Err(), "transport: context cancelled during read")
	case msg, ok := <-t.inbox:
		if !ok {
			return nil, errClosed("read from closed peer channel")
		}
		return msg, nil
	}
}

func (t *UDPTransport) WriteMessage(ctx context.Context, message []byte) error {
	t.writeLock.Lock()
	defer t.writeLock.Unlock()

	if t.isClosed() {
		return errClosed("write")
	}
	if len(message) > MaxUDPDatagramSize {
		return errTooLarge(len(message), MaxUDPDatagramSize)
	}

	ch := make(chan error, 1)
	go func() {
		var err error
		if t.conn != nil {
			_, err = t.conn.Write(message)
		} else {
			_, err = t.sharedConn.WriteTo(message, t.remoteAddr)
		}
		ch <- err
	}()

	select {
	case <-ctx.Done():
		return errors.Wrap(ctx.Err(), "transport: context cancelled during write")
	case err := <-ch:
		if err != nil {
			return errors.Wrap(err, "transport: write udp datagram")
		}
		return nil
	}
}

func (t *UDPTransport) Close() error {
	if !t.markClosed() {
		return nil
	}
	if t.conn != nil {
		return t.conn.Close()
	}
	return nil
}

// UDPListener demultiplexes a single shared net.PacketConn by source
// address: UDP has no native "accept", so the first datagram seen from a
// new peer address spawns a logical Transport for that peer, and every
// subsequent datagram from the same address is routed to its inbox rather
// than surfaced as a new connection. This is the idiomatic Go way of giving
// a connectionless protocol connection-shaped framing.
type UDPListener struct {
	conn net.PacketConn

	mu    sync.Mutex
	peers map[string]*UDPTransport

	pending chan *UDPTransport
	logger  logging.Logger
	closeGuard
}

// ListenUDP binds addr and starts the demultiplexing read loop.
func ListenUDP(addr string, logger logging.Logger) (*UDPListener, error) {
	conn, err := net.ListenPacket("udp", addr)
	if err != nil {
		return nil, errors.Wrapf(err, "transport: listen udp %s", addr)
	}
	if logger == nil {
		logger = logging.GetNoopLogger()
	}
	l := &UDPListener{
		conn:    conn,
		peers:   make(map[string]*UDPTransport),
		pending: make(chan *UDPTransport, 16),
		logger:  logger.WithField("component", "udp_listener"),
	}
	go l.readLoop()
	return l, nil
}

func (l *UDPListener) readLoop() {
	buf := make([]byte, MaxUDPDatagramSize)
	for {
		n, addr, err := l.conn.ReadFrom(buf)
		if err != nil {
			if l.isClosed() {
				return
			}
			l.logger.Warn("transport: udp listener read error", "error", err)
			return
		}
		msg := make([]byte, n)
		copy(msg, buf[:n])

		l.mu.Lock()
		peer, known := l.peers[addr.String()]
		if !known {
			peer = &UDPTransport{
				sharedConn: l.conn,
				remoteAddr: addr,
				inbox:      make(chan []byte, 64),
				logger:     l.logger,
			}
			l.peers[addr.String()] = peer
		}
		l.mu.Unlock()

		select {
		case peer.inbox <- msg:
		default:
			l.logger.Warn("transport: udp peer inbox full, dropping datagram", "peer", addr.String())
		}
		if !known {
			select {
			case l.pending <- peer:
			default:
				l.logger.Warn("transport: udp listener pending queue full, dropping new peer", "peer", addr.String())
			}
		}
	}
}

func (l *UDPListener) Accept(ctx context.Context) (Transport, error) {
	select {
	case <-ctx.Done():
		return nil, errors.Wrap(ctx.Err(), "transport: context cancelled during accept")
	case peer, ok := <-l.pending:
		if !ok {
			return nil, errClosed("accept")
		}
		return peer, nil
	}
}

func (l *UDPListener) Close() error {
	if !l.markClosed() {
		return nil
	}
	return l.conn.Close()
}

var (
	_ Transport = (*UDPTransport)(nil)
	_ Listener  = (*UDPListener)(nil)
)
