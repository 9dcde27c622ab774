// Command nekoserver runs a JSON-RPC 2.0 server exposing an example set of
// methods over the configured transport (TCP by default, or UDP).
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/nekoproto/nekogo/internal/config"
	"github.com/nekoproto/nekogo/internal/logging"
	"github.com/nekoproto/nekogo/pkg/neko"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file; flags below override its server.* fields")
	addr := flag.String("addr", "", "listen address, e.g. :4477 (overrides config)")
	network := flag.String("network", "", "tcp or udp (overrides config)")
	flag.Parse()

	cfg := config.New()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "nekoserver: %v\n", err)
			os.Exit(1)
		}
		cfg = loaded
	}
	if *addr != "" {
		cfg.Server.Address = *addr
	}
	if *network != "" {
		cfg.Server.Network = *network
	}

	level, err := zerolog.ParseLevel(cfg.Log.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	logger := logging.NewZerologLogger(os.Stderr, level, true)
	logging.SetDefaultLogger(logger)

	reg := registerExampleMethods(neko.NewMethodRegistry(logger))

	ln, err := neko.Listen(cfg, logger)
	if err != nil {
		logger.Error("failed to bind listener", "error", err.Error())
		os.Exit(1)
	}
	defer ln.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	logger.Info("nekoserver listening", "network", cfg.Server.Network, "address", cfg.Server.Address)
	if err := neko.Serve(ctx, ln, reg, logger); err != nil {
		logger.Error("server stopped with error", "error", err.Error())
		os.Exit(1)
	}
}

// registerExampleMethods wires a few demonstration RPC methods so a client
// has something to call out of the box: echo and add (array params) and
// greet (named/object params), exercising both shapes of spec.md's
// parameter table.
func registerExampleMethods(reg *neko.MethodRegistry) *neko.MethodRegistry {
	reg.Register("echo", []string{"message"}, nil, neko.ParamType(""),
		func(_ context.Context, params json.RawMessage) (interface{}, error) {
			var args []string
			if err := neko.DecodeJSON(params, &args); err != nil {
				return nil, err
			}
			if len(args) != 1 {
				return nil, fmt.Errorf("echo: expected exactly one argument, got %d", len(args))
			}
			return args[0], nil
		})

	reg.Register("add", []string{"a", "b"}, nil, neko.ParamType(float64(0)),
		func(_ context.Context, params json.RawMessage) (interface{}, error) {
			var args []float64
			if err := neko.DecodeJSON(params, &args); err != nil {
				return nil, err
			}
			if len(args) != 2 {
				return nil, fmt.Errorf("add: expected exactly two arguments, got %d", len(args))
			}
			return args[0] + args[1], nil
		})

	reg.Register("greet", []string{"name", "loud"}, nil, neko.ParamType(""),
		neko.BindHandler(greet))
	return reg
}

// greetArgs is bound from the object-shaped "greet" params via the
// reflection backend (internal/serde/reflectenc), rather than decoded by
// hand the way echo/add are above.
type greetArgs struct {
	Name string `neko:"name"`
	Loud bool   `neko:"loud"`
}

func greet(_ context.Context, args *greetArgs) (string, error) {
	if args.Name == "" {
		return "", fmt.Errorf("greet: name must not be empty")
	}
	msg := "hello, " + args.Name
	if args.Loud {
		msg = fmt.Sprintf("%s!!!", msg)
	}
	return msg, nil
}
