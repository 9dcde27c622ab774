// Command nekoclient dials a nekoserver instance and issues one RPC call,
// printing the result. It exists as a runnable demonstration of pkg/neko's
// client surface, not a general-purpose CLI.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/nekoproto/nekogo/internal/config"
	"github.com/nekoproto/nekogo/internal/logging"
	"github.com/nekoproto/nekogo/pkg/neko"
)

func main() {
	addr := flag.String("addr", ":4477", "server address to dial")
	network := flag.String("network", "tcp", "tcp or udp")
	method := flag.String("method", "echo", "RPC method to call")
	argsFlag := flag.String("args", "hello", "comma-separated positional arguments")
	timeout := flag.Duration("timeout", 5*time.Second, "call timeout")
	flag.Parse()

	cfg := config.New()
	cfg.Server.Network = *network
	cfg.Server.Address = *addr

	logger := logging.NewZerologLogger(os.Stderr, zerolog.WarnLevel, true)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	client, err := neko.DialClient(ctx, cfg, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "nekoclient: dial failed: %v\n", err)
		os.Exit(1)
	}
	defer client.Close()

	args := splitArgs(*argsFlag)

	var result interface{}
	if err := client.Call(ctx, *method, args, &result); err != nil {
		fmt.Fprintf(os.Stderr, "nekoclient: call %q failed: %v\n", *method, err)
		os.Exit(1)
	}
	fmt.Printf("%v\n", result)
}

func splitArgs(raw string) []interface{} {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]interface{}, len(parts))
	for i, p := range parts {
		out[i] = p
	}
	return out
}
