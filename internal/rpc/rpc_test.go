package rpc

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nekoproto/nekogo/internal/logging"
	"github.com/nekoproto/nekogo/internal/transport"
)

// newTestPair wires a Client/Server over an InMemoryTransport pair and spawns
// the server's accept loop under t.Cleanup, so each test only has to drive
// the client side.
func newTestPair(t *testing.T, registry *MethodRegistry) *Client {
	t.Helper()
	pair := transport.NewInMemoryTransportPair()
	logger := logging.GetNoopLogger()

	srv, err := NewServer(pair.ServerTransport, registry, context.Background(), true, logger)
	require.NoError(t, err)

	client, err := NewClient(pair.ClientTransport, logger)
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if err := srv.ServeOne(context.Background()); err != nil {
				return
			}
		}
	}()

	t.Cleanup(func() {
		_ = client.Close()
		_ = srv.Close()
		pair.CloseChannels()
		<-done
	})
	return client
}

func TestClientCallEchoesResult(t *testing.T) {
	reg := NewMethodRegistry(nil)
	reg.Register("echo", []string{"msg"}, nil, nil, func(_ context.Context, params json.RawMessage) (interface{}, error) {
		var args []string
		require.NoError(t, json.Unmarshal(params, &args))
		return args[0], nil
	})

	client := newTestPair(t, reg)

	var result string
	err := client.Call(context.Background(), "echo", []interface{}{"hello"}, &result)
	require.NoError(t, err)
	assert.Equal(t, "hello", result)
}

func TestClientCallUnknownMethod(t *testing.T) {
	reg := NewMethodRegistry(nil)
	client := newTestPair(t, reg)

	err := client.Call(context.Background(), "nope", nil, nil)
	require.Error(t, err)
	var wireErr *Error
	require.ErrorAs(t, err, &wireErr)
	assert.NotZero(t, wireErr.Code)
}

func TestClientNotifyGetsNoResponse(t *testing.T) {
	reg := NewMethodRegistry(nil)
	called := make(chan struct{}, 1)
	reg.Register("ping", nil, nil, nil, func(context.Context, json.RawMessage) (interface{}, error) {
		called <- struct{}{}
		return nil, nil
	})

	client := newTestPair(t, reg)
	require.NoError(t, client.Notify(context.Background(), "ping", nil))

	select {
	case <-called:
	case <-time.After(time.Second):
		t.Fatal("notification handler never ran")
	}
}

func TestCallRemoteNamedParams(t *testing.T) {
	reg := NewMethodRegistry(nil)
	reg.Register("add", []string{"a", "b"}, nil, nil, func(_ context.Context, params json.RawMessage) (interface{}, error) {
		var a, b int
		require.NoError(t, decodeParamsInto(params, []string{"a", "b"}, []interface{}{&a, &b}))
		return a + b, nil
	})

	client := newTestPair(t, reg)

	var sum int
	err := client.CallRemote(context.Background(), "add", []string{"b", "a"}, []interface{}{2, 40}, &sum)
	require.NoError(t, err)
	assert.Equal(t, 42, sum)
}

func TestMethodRegistryIntrospection(t *testing.T) {
	reg := NewMethodRegistry(nil)
	reg.Register("greet", []string{"name"}, nil, nil, func(context.Context, json.RawMessage) (interface{}, error) {
		return "hi", nil
	})
	reg.Declare("future.method", nil, nil, nil)

	client := newTestPair(t, reg)

	var bound []string
	require.NoError(t, client.Call(context.Background(), "rpc.get_bind_method_list", nil, &bound))
	assert.Contains(t, bound, "greet")
	assert.NotContains(t, bound, "future.method")

	var all []string
	require.NoError(t, client.Call(context.Background(), "rpc.get_method_list", nil, &all))
	assert.Contains(t, all, "future.method")

	var info Info
	require.NoError(t, client.Call(context.Background(), "rpc.get_method_info", []interface{}{"greet"}, &info))
	assert.Equal(t, "greet", info.Name)
	assert.True(t, info.Bound)
}

func TestServerHandlesBatch(t *testing.T) {
	reg := NewMethodRegistry(nil)
	reg.Register("double", []string{"n"}, nil, nil, func(_ context.Context, params json.RawMessage) (interface{}, error) {
		var n int
		require.NoError(t, decodeParamsInto(params, []string{"n"}, []interface{}{&n}))
		return n * 2, nil
	})

	pair := transport.NewInMemoryTransportPair()
	logger := logging.GetNoopLogger()
	srv, err := NewServer(pair.ServerTransport, reg, context.Background(), true, logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = srv.Close() })

	reqs := []*Request{}
	for i, n := range []int{1, 2, 3} {
		params, encErr := encodeParams([]interface{}{n})
		require.NoError(t, encErr)
		req, reqErr := NewRequest(i+1, "double", params)
		require.NoError(t, reqErr)
		reqs = append(reqs, req)
	}
	raw, err := json.Marshal(reqs)
	require.NoError(t, err)
	require.NoError(t, pair.ClientTransport.WriteMessage(context.Background(), raw))

	require.NoError(t, srv.ServeOne(context.Background()))

	respRaw, err := pair.ClientTransport.ReadMessage(context.Background())
	require.NoError(t, err)
	var resps []*Response
	require.NoError(t, json.Unmarshal(respRaw, &resps))
	require.Len(t, resps, 3)
	for _, r := range resps {
		assert.Nil(t, r.Error)
	}
}

func TestServerCancelStopsBlockedHandler(t *testing.T) {
	reg := NewMethodRegistry(nil)
	started := make(chan struct{})
	reg.Register("block", nil, nil, nil, func(ctx context.Context, _ json.RawMessage) (interface{}, error) {
		close(started)
		<-ctx.Done()
		return nil, ctx.Err()
	})

	pair := transport.NewInMemoryTransportPair()
	logger := logging.GetNoopLogger()
	srv, err := NewServer(pair.ServerTransport, reg, context.Background(), true, logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = srv.Close() })

	req, err := NewRequest(1, "block", nil)
	require.NoError(t, err)
	raw, err := json.Marshal(req)
	require.NoError(t, err)
	require.NoError(t, pair.ClientTransport.WriteMessage(context.Background(), raw))

	done := make(chan error, 1)
	go func() { done <- srv.ServeOne(context.Background()) }()

	select {
	case <-started:
	case <-time.After(time.Second):
		t.Fatal("handler never started")
	}

	idJSON, err := json.Marshal(1)
	require.NoError(t, err)
	srv.Cancel(idJSON)

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("ServeOne never returned after cancel")
	}
}
