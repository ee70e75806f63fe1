// Package colonybot parses colonybot flags and serves the reference
// decision unit on the bus.
package colonybot

import (
	"context"
	"flag"
	"fmt"
	"strings"

	entrypoint "github.com/wasmColonies/core/internal/platform/cmd"
	"github.com/wasmColonies/core/internal/platform/timeouts"
	"github.com/wasmColonies/core/internal/services/decisionunit"
	"github.com/wasmColonies/core/internal/services/shard/bus"
	"github.com/wasmColonies/core/internal/services/shard/lattice"
)

// Config holds colonybot command configuration.
type Config struct {
	NATSURL   string `env:"BOT_NATS_URL" envDefault:"nats://127.0.0.1:4222"`
	ActorKey  string `env:"BOT_ACTOR_KEY"`
	Namespace string `env:"BOT_RPC_NAMESPACE" envDefault:"wasmbus"`
	Prefix    string `env:"BOT_RPC_PREFIX"`
	Verify    bool   `env:"BOT_VERIFY" envDefault:"true"`
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.StringVar(&cfg.NATSURL, "nats-url", cfg.NATSURL, "The NATS server URL")
	fs.StringVar(&cfg.ActorKey, "actor-key", cfg.ActorKey, "The actor key this unit answers for")
	fs.StringVar(&cfg.Namespace, "rpc-namespace", cfg.Namespace, "The bus namespace to listen under")
	fs.StringVar(&cfg.Prefix, "rpc-prefix", cfg.Prefix, "The lattice prefix in RPC subjects")
	fs.BoolVar(&cfg.Verify, "verify", cfg.Verify, "Verify invocation claims before answering")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	cfg.ActorKey = strings.TrimSpace(cfg.ActorKey)
	if cfg.ActorKey == "" {
		return Config{}, fmt.Errorf("actor key is required")
	}
	return cfg, nil
}

// Subject returns the RPC subject the unit subscribes to.
func (cfg Config) Subject() string {
	return lattice.RPCSubject(cfg.Namespace, cfg.Prefix, cfg.ActorKey)
}

// Run connects to the bus and answers invocations until ctx ends.
func Run(ctx context.Context, cfg Config) error {
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceColonybot, func(ctx context.Context) error {
		handler, err := decisionunit.NewHandler(decisionunit.Builder{}, decisionunit.Options{Verify: cfg.Verify})
		if err != nil {
			return err
		}
		conn, err := bus.Connect(ctx, cfg.NATSURL, bus.ConnectOptions{Name: "colonybot-" + cfg.ActorKey, MaxElapsed: timeouts.BusConnect})
		if err != nil {
			return err
		}
		defer conn.Close()
		return decisionunit.Serve(ctx, conn, cfg.Subject(), handler)
	})
}
