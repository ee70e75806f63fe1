// Package main runs the reference decision unit.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	colonybotcmd "github.com/wasmColonies/core/internal/cmd/colonybot"
)

func main() {
	log.SetPrefix("[COLONYBOT] ")
	cfg, err := colonybotcmd.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		log.Fatalf("parse flags: %v", err)
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := colonybotcmd.Run(ctx, cfg); err != nil {
		log.Fatalf("colonybot stopped: %v", err)
	}
}
