package transport

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryTransportRoundTrip(t *testing.T) {
	pair := NewInMemoryTransportPair()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	require.NoError(t, pair.ClientTransport.WriteMessage(ctx, []byte(`{"jsonrpc":"2.0","method":"ping"}`)))

	got, err := pair.ServerTransport.ReadMessage(ctx)
	require.NoError(t, err)
	assert.Equal(t, `{"jsonrpc":"2.0","method":"ping"}`, string(got))
}

func TestInMemoryTransportClosedReturnsError(t *testing.T) {
	pair := NewInMemoryTransportPair()
	require.NoError(t, pair.ClientTransport.Close())

	ctx := context.Background()
	_, err := pair.ClientTransport.ReadMessage(ctx)
	assert.Error(t, err)
}

func TestInMemoryTransportTooLarge(t *testing.T) {
	pair := NewInMemoryTransportPair()
	big := make([]byte, MaxMessageSize+1)
	err := pair.ClientTransport.WriteMessage(context.Background(), big)
	assert.Error(t, err)
}

func TestParseEndpointTCP(t *testing.T) {
	ep, err := ParseEndpoint("tcp://localhost:9000")
	require.NoError(t, err)
	assert.Equal(t, "tcp", ep.Scheme)
	assert.Equal(t, "localhost:9000", ep.Addr)
}

func TestParseEndpointUDP(t *testing.T) {
	ep, err := ParseEndpoint("udp://0.0.0.0:9000-203.0.113.5:9001")
	require.NoError(t, err)
	assert.Equal(t, "udp", ep.Scheme)
	assert.Equal(t, "0.0.0.0:9000", ep.Addr)
	assert.Equal(t, "203.0.113.5:9001", ep.Remote)
}

func TestParseEndpointRejectsMissingScheme(t *testing.T) {
	_, err := ParseEndpoint("localhost:9000")
	assert.Error(t, err)
}

func TestTCPTransportRoundTrip(t *testing.T) {
	ln, err := ListenTCP("127.0.0.1:0", nil)
	require.NoError(t, err)
	defer ln.Close()

	addr := ln.ln.Addr().String()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	serverCh := make(chan Transport, 1)
	go func() {
		s, err := ln.Accept(ctx)
		if err == nil {
			serverCh <- s
		}
	}()

	client, err := DialTCP(ctx, addr, nil)
	require.NoError(t, err)
	defer client.Close()

	server := <-serverCh
	defer server.Close()

	require.NoError(t, client.WriteMessage(ctx, []byte("hello")))
	got, err := server.ReadMessage(ctx)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(got))
}
