// Package shard parses shard command flags and launches the shard runtime.
package shard

import (
	"context"
	"flag"
	"time"

	entrypoint "github.com/wasmColonies/core/internal/platform/cmd"
	shardapp "github.com/wasmColonies/core/internal/services/shard/app"
)

// Config holds shard command configuration.
type Config struct {
	NATSURL      string        `env:"SHARD_NATS_URL" envDefault:"nats://127.0.0.1:4222"`
	Namespace    string        `env:"SHARD_RPC_NAMESPACE" envDefault:"wasmbus"`
	Prefix       string        `env:"SHARD_RPC_PREFIX"`
	RPCTimeout   time.Duration `env:"SHARD_RPC_TIMEOUT" envDefault:"1s"`
	TickInterval time.Duration `env:"SHARD_TICK_INTERVAL" envDefault:"1s"`
	BatchSize    int           `env:"SHARD_BATCH_SIZE" envDefault:"10"`
	ParamsPath   string        `env:"SHARD_PARAMS_PATH" envDefault:"default_params.json"`
	RosterDB     string        `env:"SHARD_ROSTER_DB" envDefault:"data/roster.db"`
	SeedPlayers  string        `env:"SHARD_SEED_PLAYERS"`
	HealthPort   int           `env:"SHARD_HEALTH_PORT" envDefault:"8095"`
	HostSeed     string        `env:"HOST_SEED"`
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.StringVar(&cfg.NATSURL, "nats-url", cfg.NATSURL, "The NATS server URL")
	fs.StringVar(&cfg.Namespace, "rpc-namespace", cfg.Namespace, "The bus namespace decision units listen under")
	fs.StringVar(&cfg.Prefix, "rpc-prefix", cfg.Prefix, "The lattice prefix in RPC subjects")
	fs.DurationVar(&cfg.RPCTimeout, "rpc-timeout", cfg.RPCTimeout, "Per-player invocation timeout")
	fs.DurationVar(&cfg.TickInterval, "tick-interval", cfg.TickInterval, "Tick cadence")
	fs.IntVar(&cfg.BatchSize, "batch-size", cfg.BatchSize, "Maximum concurrent invocations per tick")
	fs.StringVar(&cfg.ParamsPath, "params", cfg.ParamsPath, "The parameter file (JSON or YAML)")
	fs.StringVar(&cfg.RosterDB, "roster-db", cfg.RosterDB, "The roster SQLite database path")
	fs.StringVar(&cfg.SeedPlayers, "seed-players", cfg.SeedPlayers, "Players to enroll at startup, as id=actor_key,...")
	fs.IntVar(&cfg.HealthPort, "health-port", cfg.HealthPort, "The health gRPC server port")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run starts the shard runtime.
func Run(ctx context.Context, cfg Config) error {
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceShard, func(ctx context.Context) error {
		return shardapp.Run(ctx, shardapp.RuntimeConfig{
			NATSURL:      cfg.NATSURL,
			Namespace:    cfg.Namespace,
			Prefix:       cfg.Prefix,
			RPCTimeout:   cfg.RPCTimeout,
			TickInterval: cfg.TickInterval,
			BatchSize:    cfg.BatchSize,
			ParamsPath:   cfg.ParamsPath,
			RosterDB:     cfg.RosterDB,
			SeedPlayers:  cfg.SeedPlayers,
			HostSeed:     cfg.HostSeed,
			HealthPort:   cfg.HealthPort,
		})
	})
}
