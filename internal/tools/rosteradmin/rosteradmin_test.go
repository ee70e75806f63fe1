package rosteradmin

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"path/filepath"
	"strings"
	"testing"

	rostersqlite "github.com/wasmColonies/core/internal/services/shard/roster/sqlite"
)

func run(t *testing.T, db string, args ...string) (string, error) {
	t.Helper()
	fs := flag.NewFlagSet("roster", flag.ContinueOnError)
	cfg, err := ParseConfig(fs, append([]string{"-db", db}, args...))
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	buf := &bytes.Buffer{}
	err = Run(context.Background(), buf, cfg)
	return buf.String(), err
}

func TestParseConfigRequiresCommand(t *testing.T) {
	fs := flag.NewFlagSet("roster", flag.ContinueOnError)
	if _, err := ParseConfig(fs, []string{"-db", "x.db"}); err == nil {
		t.Fatal("expected usage error")
	}
}

func TestParseConfigReadsEnv(t *testing.T) {
	t.Setenv("COLONIES_SHARD_ROSTER_DB", "env.db")
	fs := flag.NewFlagSet("roster", flag.ContinueOnError)
	cfg, err := ParseConfig(fs, []string{"enable", "p1"})
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.RosterDB != "env.db" || cfg.Command != "enable" || len(cfg.Args) != 1 {
		t.Fatalf("cfg = %+v", cfg)
	}
}

func TestEnrollDisableList(t *testing.T) {
	db := filepath.Join(t.TempDir(), "roster.db")

	out, err := run(t, db, "enroll", "alice=MALICE,bob=MBOB")
	if err != nil {
		t.Fatalf("enroll: %v", err)
	}
	if !strings.Contains(out, "enrolled alice") || !strings.Contains(out, "enrolled bob") {
		t.Fatalf("enroll output = %q", out)
	}
	if _, err := run(t, db, "disable", "bob"); err != nil {
		t.Fatalf("disable: %v", err)
	}

	out, err = run(t, db, "list")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	for _, want := range []string{"alice", "MALICE", "bob", "MBOB", "false"} {
		if !strings.Contains(out, want) {
			t.Fatalf("list output missing %q:\n%s", want, out)
		}
	}
	if strings.Index(out, "alice") > strings.Index(out, "bob") {
		t.Fatalf("list not in enrollment order:\n%s", out)
	}
}

func TestSetActiveUnknownPlayer(t *testing.T) {
	db := filepath.Join(t.TempDir(), "roster.db")
	_, err := run(t, db, "enable", "nobody")
	if !errors.Is(err, rostersqlite.ErrPlayerNotFound) {
		t.Fatalf("err = %v, want ErrPlayerNotFound", err)
	}
}

func TestUnknownCommand(t *testing.T) {
	db := filepath.Join(t.TempDir(), "roster.db")
	if _, err := run(t, db, "evict", "p1"); err == nil {
		t.Fatal("expected unknown command error")
	}
}
