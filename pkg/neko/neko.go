// Package neko is the public, ergonomic entry point to NekoProtoTools:
// registering protocol types, encoding/decoding them, and standing up a
// JSON-RPC 2.0 client or server over a transport. It wraps internal/rpc,
// internal/registry, and internal/serde behind a smaller surface so a
// caller doesn't have to wire those packages together by hand.
package neko

import (
	"context"
	"reflect"

	"github.com/nekoproto/nekogo/internal/config"
	"github.com/nekoproto/nekogo/internal/logging"
	"github.com/nekoproto/nekogo/internal/registry"
	"github.com/nekoproto/nekogo/internal/rpc"
	"github.com/nekoproto/nekogo/internal/serde"
	"github.com/nekoproto/nekogo/internal/serde/jsonenc"
	"github.com/nekoproto/nekogo/internal/transport"
)

// IProto is re-exported so callers registering a protocol type don't need
// to import internal/registry directly.
type IProto = registry.IProto

// Register associates name with a zero-arg constructor in the package-level
// protocol registry, returning its assigned TypeID. See
// internal/registry.Register for the reserved-vs-auto id distinction.
func Register[T IProto](name string, ctor func() T, opts ...registry.Option) registry.TypeID {
	return registry.Register(registry.Default, name, ctor, opts...)
}

// MakeProto constructs a fresh instance of the protocol type registered
// under name.
func MakeProto(name string) (IProto, error) {
	return registry.Default.Create(name)
}

// EncodeJSON serializes v (a struct, pointer, slice, map, or primitive) to
// compact JSON using the reflective serializer protocol.
func EncodeJSON(v interface{}) ([]byte, error) {
	w := jsonenc.NewWriter(jsonenc.Options{})
	if err := serde.Encode(context.Background(), w, v); err != nil {
		return nil, err
	}
	return w.Bytes()
}

// DecodeJSON deserializes data into target (a non-nil pointer) using the
// reflective serializer protocol.
func DecodeJSON(data []byte, target interface{}) error {
	r, err := jsonenc.NewDOMReader(data, jsonenc.ReaderOptions{})
	if err != nil {
		return err
	}
	return serde.Decode(context.Background(), r, target)
}

// MethodRegistry re-exports internal/rpc's registry type so callers can
// declare methods without importing internal/rpc.
type MethodRegistry = rpc.MethodRegistry

// NewMethodRegistry returns an empty MethodRegistry wired with the built-in
// rpc.* introspection methods.
func NewMethodRegistry(logger logging.Logger) *MethodRegistry {
	return rpc.NewMethodRegistry(logger)
}

// Client is a JSON-RPC peer's caller side.
type Client = rpc.Client

// Server is a JSON-RPC peer's callee side.
type Server = rpc.Server

// DialClient dials cfg's configured network/address and returns a ready
// Client.
func DialClient(ctx context.Context, cfg *config.Settings, logger logging.Logger) (*Client, error) {
	t, err := dial(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	return rpc.NewClient(t, logger)
}

// ServeConn wraps an already-accepted connection in a Server bound to reg,
// with handlers running under a task scope derived from ctx.
func ServeConn(ctx context.Context, t transport.Transport, reg *MethodRegistry, autoCancel bool, logger logging.Logger) (*Server, error) {
	return rpc.NewServer(t, reg, ctx, autoCancel, logger)
}

func dial(ctx context.Context, cfg *config.Settings, logger logging.Logger) (transport.Transport, error) {
	switch cfg.Server.Network {
	case "udp":
		return transport.DialUDP(cfg.Server.Address, logger)
	default:
		return transport.DialTCP(ctx, cfg.Server.Address, logger)
	}
}

// Handler is re-exported so callers registering RPC methods don't need to
// import internal/rpc directly.
type Handler = rpc.Handler

// ParamType is a convenience for building a MethodRegistry.Register call's
// ParamTypes slice from Go values rather than reflect.Type literals.
func ParamType(v interface{}) reflect.Type {
	if v == nil {
		return nil
	}
	return reflect.TypeOf(v)
}

// BindHandler re-exports internal/rpc.BindHandler so callers can register a
// method from a plain func(context.Context, *T) (R, error) without decoding
// params by hand.
func BindHandler(fn interface{}) Handler {
	return rpc.BindHandler(fn)
}
