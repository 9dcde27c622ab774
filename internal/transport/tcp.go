package transport

import (
	"bufio"
	"context"
	"encoding/binary"
	"io"
	"net"
	"sync"

	"github.com/cockroachdb/errors"

	"github.com/nekoproto/nekogo/internal/logging"
)

// TCPTransport frames messages with a 4-byte big-endian length prefix over
// a net.Conn, the wire format spec.md §6.2 specifies.
type TCPTransport struct {
	conn   net.Conn
	reader *bufio.Reader
	logger logging.Logger

	closeGuard
	readLock  sync.Mutex
	writeLock sync.Mutex
}

// NewTCPTransport wraps an already-established net.Conn (from Dial or
// Listener.Accept).
func NewTCPTransport(conn net.Conn, logger logging.Logger) *TCPTransport {
	if logger == nil {
		logger = logging.GetNoopLogger()
	}
	return &TCPTransport{conn: conn, reader: bufio.NewReader(conn), logger: logger.WithField("component", "tcp_transport")}
}

// DialTCP connects to addr ("HOST:PORT") and returns a ready TCPTransport.
func DialTCP(ctx context.Context, addr string, logger logging.Logger) (*TCPTransport, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, errors.Wrapf(err, "transport: dial tcp %s", addr)
	}
	return NewTCPTransport(conn, logger), nil
}

func (t *TCPTransport) ReadMessage(ctx context.Context) ([]byte, error) {
	t.readLock.Lock()
	defer t.readLock.Unlock()

	if t.isClosed() {
		return nil, errClosed("read")
	}

	type result struct {
		data []byte
		err  error
	}
	ch := make(chan result, 1)
	go func() {
		var lenBuf [4]byte
		if _, err := io.ReadFull(t.reader, lenBuf[:]); err != nil {
			ch <- result{nil, errors.Wrap(err, "transport: read length prefix")}
			return
		}
		n := binary.BigEndian.Uint32(lenBuf[:])
		if int(n) > MaxMessageSize {
			ch <- result{nil, errTooLarge(int(n), MaxMessageSize)}
			return
		}
		buf := make([]byte, n)
		if _, err := io.ReadFull(t.reader, buf); err != nil {
			ch <- result{nil, errors.Wrap(err, "transport: read message body")}
			return
		}
		ch <- result{buf, nil}
	}()

	select {
	case <-ctx.Done():
		return nil, errors.Wrap(ctx.Err(), "transport: context cancelled during read")
	case r := <-ch:
		return r.data, r.err
	}
}

func (t *TCPTransport) WriteMessage(ctx context.Context, message []byte) error {
	t.writeLock.Lock()
	defer t.writeLock.Unlock()

	if t.isClosed() {
		return errClosed("write")
	}
	if len(message) > MaxMessageSize {
		return errTooLarge(len(message), MaxMessageSize)
	}

	ch := make(chan error, 1)
	go func() {
		var lenBuf [4]byte
		binary.BigEndian.PutUint32(lenBuf[:], uint32(len(message)))
		if _, err := t.conn.Write(lenBuf[:]); err != nil {
			ch <- errors.Wrap(err, "transport: write length prefix")
			return
		}
		_, err := t.conn.Write(message)
		ch <- err
	}()

	select {
	case <-ctx.Done():
		return errors.Wrap(ctx.Err(), "transport: context cancelled during write")
	case err := <-ch:
		if err != nil {
			return errors.Wrap(err, "transport: write message body")
		}
		return nil
	}
}

func (t *TCPTransport) Close() error {
	if !t.markClosed() {
		return nil
	}
	return t.conn.Close()
}

// TCPListener wraps net.Listener, producing a TCPTransport per accepted
// connection.
type TCPListener struct {
	ln     net.Listener
	logger logging.Logger
}

// ListenTCP binds addr and returns a Listener.
func ListenTCP(addr string, logger logging.Logger) (*TCPListener, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, errors.Wrapf(err, "transport: listen tcp %s", addr)
	}
	return &TCPListener{ln: ln, logger: logger}, nil
}

func (l *TCPListener) Accept(ctx context.Context) (Transport, error) {
	type result struct {
		conn net.Conn
		err  error
	}
	ch := make(chan result, 1)
	go func() {
		conn, err := l.ln.Accept()
		ch <- result{conn, err}
	}()

	select {
	case <-ctx.Done():
		return nil, errors.Wrap(ctx.Err(), "transport: context cancelled during accept")
	case r := <-ch:
		if r.err != nil {
			return nil, errors.Wrap(r.err, "transport: accept tcp connection")
		}
		return NewTCPTransport(r.conn, l.logger), nil
	}
}

func (l *TCPListener) Close() error {
	return l.ln.Close()
}

var (
	_ Transport = (*TCPTransport)(nil)
	_ Listener  = (*TCPListener)(nil)
)
