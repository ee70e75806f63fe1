// Package rosteradmin manages the shard's player roster from the command
// line.
package rosteradmin

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"

	entrypoint "github.com/wasmColonies/core/internal/platform/cmd"
	"github.com/wasmColonies/core/internal/services/shard/roster"
	rostersqlite "github.com/wasmColonies/core/internal/services/shard/roster/sqlite"
)

// Config holds roster tool configuration.
type Config struct {
	RosterDB string `env:"SHARD_ROSTER_DB" envDefault:"data/roster.db"`
	Command  string
	Args     []string
}

// ParseConfig parses environment and flags into a Config. The first
// positional argument names the command.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.StringVar(&cfg.RosterDB, "db", cfg.RosterDB, "The roster SQLite database path")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	rest := fs.Args()
	if len(rest) == 0 {
		return Config{}, errors.New("usage: roster [-db path] list|enroll id=key...|enable id|disable id")
	}
	cfg.Command, cfg.Args = rest[0], rest[1:]
	return cfg, nil
}

// Run executes one roster command against the configured store.
func Run(ctx context.Context, out io.Writer, cfg Config) error {
	if out == nil {
		return errors.New("output is required")
	}
	store, err := rostersqlite.Open(ctx, cfg.RosterDB)
	if err != nil {
		return fmt.Errorf("open roster: %w", err)
	}
	defer store.Close()

	switch cfg.Command {
	case "list":
		return list(ctx, out, store)
	case "enroll":
		for _, arg := range cfg.Args {
			players, err := roster.ParseSeed(arg)
			if err != nil {
				return err
			}
			for _, player := range players {
				if err := store.UpsertPlayer(ctx, player); err != nil {
					return fmt.Errorf("enroll %s: %w", player.PlayerID, err)
				}
				fmt.Fprintf(out, "enrolled %s\n", player.PlayerID)
			}
		}
		return nil
	case "enable", "disable":
		if len(cfg.Args) != 1 {
			return fmt.Errorf("%s takes one player id", cfg.Command)
		}
		if err := store.SetActive(ctx, cfg.Args[0], cfg.Command == "enable"); err != nil {
			return err
		}
		fmt.Fprintf(out, "%sd %s\n", cfg.Command, cfg.Args[0])
		return nil
	default:
		return fmt.Errorf("unknown command %q", cfg.Command)
	}
}

func list(ctx context.Context, out io.Writer, store *rostersqlite.Store) error {
	players, err := store.ListPlayers(ctx)
	if err != nil {
		return err
	}
	tw := table.NewWriter()
	tw.SetOutputMirror(out)
	tw.AppendHeader(table.Row{"Player", "Actor Key", "Active", "Enrolled"})
	for _, p := range players {
		tw.AppendRow(table.Row{p.PlayerID, p.ActorKey, p.Active, p.CreatedAt.UTC().Format(time.RFC3339)})
	}
	tw.Render()
	return nil
}
