package shard

import (
	"flag"
	"testing"
	"time"
)

func TestParseConfig_Defaults(t *testing.T) {
	fs := flag.NewFlagSet("shard", flag.ContinueOnError)

	cfg, err := ParseConfig(fs, nil)
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.NATSURL != "nats://127.0.0.1:4222" {
		t.Fatalf("nats url = %q", cfg.NATSURL)
	}
	if cfg.Namespace != "wasmbus" || cfg.Prefix != "" {
		t.Fatalf("subject parts = %q, %q", cfg.Namespace, cfg.Prefix)
	}
	if cfg.RPCTimeout != time.Second || cfg.TickInterval != time.Second {
		t.Fatalf("timing = %s, %s", cfg.RPCTimeout, cfg.TickInterval)
	}
	if cfg.BatchSize != 10 || cfg.HealthPort != 8095 {
		t.Fatalf("batch size = %d, health port = %d", cfg.BatchSize, cfg.HealthPort)
	}
	if cfg.ParamsPath != "default_params.json" || cfg.RosterDB != "data/roster.db" {
		t.Fatalf("paths = %q, %q", cfg.ParamsPath, cfg.RosterDB)
	}
}

func TestParseConfig_EnvThenFlags(t *testing.T) {
	fs := flag.NewFlagSet("shard", flag.ContinueOnError)
	t.Setenv("COLONIES_SHARD_NATS_URL", "nats://bus:4222")
	t.Setenv("COLONIES_SHARD_BATCH_SIZE", "4")
	t.Setenv("COLONIES_SHARD_SEED_PLAYERS", "p1=MKEY")
	t.Setenv("COLONIES_HOST_SEED", "SNSEED")

	cfg, err := ParseConfig(fs, []string{"-batch-size", "2", "-tick-interval", "250ms"})
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.NATSURL != "nats://bus:4222" {
		t.Fatalf("nats url = %q, want %q", cfg.NATSURL, "nats://bus:4222")
	}
	if cfg.BatchSize != 2 {
		t.Fatalf("batch size = %d, want 2", cfg.BatchSize)
	}
	if cfg.TickInterval != 250*time.Millisecond {
		t.Fatalf("tick interval = %s, want 250ms", cfg.TickInterval)
	}
	if cfg.SeedPlayers != "p1=MKEY" || cfg.HostSeed != "SNSEED" {
		t.Fatalf("seed = %q, host seed = %q", cfg.SeedPlayers, cfg.HostSeed)
	}
}

func TestParseConfig_RejectsBadEnv(t *testing.T) {
	fs := flag.NewFlagSet("shard", flag.ContinueOnError)
	t.Setenv("COLONIES_SHARD_RPC_TIMEOUT", "soon")

	if _, err := ParseConfig(fs, nil); err == nil {
		t.Fatal("expected env parse error")
	}
}
