// Package app assembles and runs the shard process.
package app

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	platformgrpc "github.com/wasmColonies/core/internal/platform/grpc"
	"github.com/wasmColonies/core/internal/platform/timeouts"
	"github.com/wasmColonies/core/internal/services/shard/bus"
	"github.com/wasmColonies/core/internal/services/shard/domain/aggregate"
	"github.com/wasmColonies/core/internal/services/shard/domain/construction"
	"github.com/wasmColonies/core/internal/services/shard/domain/engine"
	"github.com/wasmColonies/core/internal/services/shard/domain/journal"
	"github.com/wasmColonies/core/internal/services/shard/invoker"
	"github.com/wasmColonies/core/internal/services/shard/lattice"
	"github.com/wasmColonies/core/internal/services/shard/orchestrator"
	"github.com/wasmColonies/core/internal/services/shard/params"
	"github.com/wasmColonies/core/internal/services/shard/roster"
	rostersqlite "github.com/wasmColonies/core/internal/services/shard/roster/sqlite"
)

// HealthService is the gRPC health service name reported once the loop runs.
const HealthService = "shard.orchestrator"

const (
	defaultHealthPort = 8095
	defaultRosterDB   = "data/roster.db"
	defaultParamsPath = "default_params.json"
)

// RuntimeConfig controls shard startup and tick behavior.
type RuntimeConfig struct {
	NATSURL      string
	Namespace    string
	Prefix       string
	RPCTimeout   time.Duration
	TickInterval time.Duration
	BatchSize    int
	ParamsPath   string
	RosterDB     string
	// SeedPlayers is an "id=actor_key,..." list upserted into the roster at
	// startup.
	SeedPlayers string
	// HostSeed is the nkeys server seed that signs invocations. Empty
	// generates an ephemeral key.
	HostSeed   string
	HealthPort int
}

func (cfg RuntimeConfig) normalized() RuntimeConfig {
	if cfg.RPCTimeout <= 0 {
		cfg.RPCTimeout = timeouts.RPCRequest
	}
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = orchestrator.DefaultInterval
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = orchestrator.DefaultBatchSize
	}
	if strings.TrimSpace(cfg.ParamsPath) == "" {
		cfg.ParamsPath = defaultParamsPath
	}
	if strings.TrimSpace(cfg.RosterDB) == "" {
		cfg.RosterDB = defaultRosterDB
	}
	if cfg.HealthPort <= 0 {
		cfg.HealthPort = defaultHealthPort
	}
	return cfg
}

// Shard is an assembled shard ready to run ticks.
type Shard struct {
	Loop    *orchestrator.Loop
	Engine  *engine.Handler
	Roster  *rostersqlite.Store
	HostKey *lattice.HostKey
}

// Close releases the shard's storage.
func (s *Shard) Close() error {
	if s == nil || s.Roster == nil {
		return nil
	}
	return s.Roster.Close()
}

// Build wires the shard's components around requester.
func Build(ctx context.Context, cfg RuntimeConfig, requester bus.Requester) (*Shard, error) {
	cfg = cfg.normalized()

	parameters, err := params.Load(cfg.ParamsPath)
	if err != nil {
		return nil, err
	}
	key, err := hostKey(cfg.HostSeed)
	if err != nil {
		return nil, err
	}
	seed, err := roster.ParseSeed(cfg.SeedPlayers)
	if err != nil {
		return nil, fmt.Errorf("parse seed players: %w", err)
	}

	store, err := rostersqlite.Open(ctx, cfg.RosterDB)
	if err != nil {
		return nil, fmt.Errorf("open roster store: %w", err)
	}
	for _, player := range seed {
		if err := store.UpsertPlayer(ctx, player); err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("seed player %s: %w", player.PlayerID, err)
		}
	}

	handler, err := engine.NewHandler(journal.NewMemory(), aggregate.NewStore(), construction.Decider{Schedule: parameters})
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	inv, err := invoker.New(requester, key, invoker.Config{
		Namespace: cfg.Namespace,
		Prefix:    cfg.Prefix,
		Timeout:   cfg.RPCTimeout,
	})
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	loop, err := orchestrator.New(store, inv, handler, orchestrator.Config{
		BatchSize: cfg.BatchSize,
		Interval:  cfg.TickInterval,
	})
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	return &Shard{Loop: loop, Engine: handler, Roster: store, HostKey: key}, nil
}

func hostKey(seed string) (*lattice.HostKey, error) {
	seed = strings.TrimSpace(seed)
	if seed == "" {
		key, err := lattice.NewHostKey()
		if err != nil {
			return nil, err
		}
		log.Printf("no host seed configured, signing with ephemeral key %s", key.PublicKey())
		return key, nil
	}
	return lattice.ParseHostKey(seed)
}

// Run connects to the bus, assembles the shard and ticks until ctx ends.
func Run(ctx context.Context, cfg RuntimeConfig) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg = cfg.normalized()

	conn, err := bus.Connect(ctx, cfg.NATSURL, bus.ConnectOptions{Name: "colonies-shard", MaxElapsed: timeouts.BusConnect})
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := conn.Close(); closeErr != nil {
			log.Printf("close bus connection: %v", closeErr)
		}
	}()

	shard, err := Build(ctx, cfg, conn)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := shard.Close(); closeErr != nil {
			log.Printf("close roster store: %v", closeErr)
		}
	}()

	healthServer, err := platformgrpc.NewHealthServer(fmt.Sprintf(":%d", cfg.HealthPort), HealthService)
	if err != nil {
		return err
	}
	log.Printf("shard health server listening at %v", healthServer.Addr())
	log.Printf("shard host %s ticking every %s", shard.HostKey.PublicKey(), cfg.TickInterval)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(runCtx)
	g.Go(func() error {
		return healthServer.Serve(gctx)
	})
	g.Go(func() error {
		defer cancel()
		healthServer.SetServing()
		return shard.Loop.Run(gctx)
	})
	runErr := g.Wait()

	verifyCtx, verifyCancel := context.WithTimeout(context.Background(), timeouts.Shutdown)
	defer verifyCancel()
	if err := shard.Engine.Verify(verifyCtx); err != nil {
		log.Printf("journal verification failed: %v", err)
	}
	return runErr
}
