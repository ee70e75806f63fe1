// Package main administers the shard's player roster.
package main

import (
	"context"
	"flag"
	"os"

	"github.com/wasmColonies/core/internal/platform/config"
	"github.com/wasmColonies/core/internal/tools/rosteradmin"
)

func main() {
	cfg, err := rosteradmin.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		config.Exitf("%v", err)
	}
	if err := rosteradmin.Run(context.Background(), os.Stdout, cfg); err != nil {
		config.Exitf("roster %s: %v", cfg.Command, err)
	}
}
