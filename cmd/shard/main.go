// Package main starts the shard process lifecycle.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	shardcmd "github.com/wasmColonies/core/internal/cmd/shard"
)

func main() {
	log.SetPrefix("[SHARD] ")
	cfg, err := shardcmd.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		log.Fatalf("parse flags: %v", err)
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := shardcmd.Run(ctx, cfg); err != nil {
		log.Fatalf("shard stopped: %v", err)
	}
}
