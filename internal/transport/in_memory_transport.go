package transport

import (
	"context"
	"sync"

	"github.com/cockroachdb/errors"
)

// InMemoryTransport implements Transport over in-memory channels, letting a
// paired client/server exercise the RPC engine without a real socket.
type InMemoryTransport struct {
	incoming chan []byte
	outgoing chan []byte

	closeGuard
	readLock  sync.Mutex
	writeLock sync.Mutex
}

// InMemoryTransportPair holds two linked InMemoryTransport endpoints.
type InMemoryTransportPair struct {
	ClientTransport *InMemoryTransport
	ServerTransport *InMemoryTransport
}

// NewInMemoryTransportPair returns two Transports wired to each other:
// messages written to one are read from the other.
func NewInMemoryTransportPair() *InMemoryTransportPair {
	clientToServer := make(chan []byte, 100)
	serverToClient := make(chan []byte, 100)

	return &InMemoryTransportPair{
		ClientTransport: &InMemoryTransport{incoming: serverToClient, outgoing: clientToServer},
		ServerTransport: &InMemoryTransport{incoming: clientToServer, outgoing: serverToClient},
	}
}

func (t *InMemoryTransport) ReadMessage(ctx context.Context) ([]byte, error) {
	t.readLock.Lock()
	defer t.readLock.Unlock()

	if t.isClosed() {
		return nil, errClosed("read")
	}

	select {
	case <-ctx.Done():
		return nil, errors.Wrap(ctx.Err(), "context cancelled during read")
	case msg, ok := <-t.incoming:
		if !ok {
			return nil, errClosed("read from closed channel")
		}
		return msg, nil
	}
}

func (t *InMemoryTransport) WriteMessage(ctx context.Context, message []byte) error {
	t.writeLock.Lock()
	defer t.writeLock.Unlock()

	if t.isClosed() {
		return errClosed("write")
	}
	if len(message) > MaxMessageSize {
		return errTooLarge(len(message), MaxMessageSize)
	}

	select {
	case <-ctx.Done():
		return errors.Wrap(ctx.Err(), "context cancelled during write")
	case t.outgoing <- message:
		return nil
	}
}

// Close marks the transport closed. The channels themselves are left open
// since the paired transport may still be draining them; closing a channel
// the peer could still be receiving from would panic on a second Close.
// A ReadMessage already blocked waiting for a message is not woken by
// Close; it returns once CloseChannels closes the channel or its ctx ends.
func (t *InMemoryTransport) Close() error {
	t.markClosed()
	return nil
}

// CloseChannels closes both channels in the pair, for use during test
// cleanup once both sides are done reading.
func (p *InMemoryTransportPair) CloseChannels() {
	close(p.ServerTransport.outgoing)
	close(p.ClientTransport.outgoing)
}
