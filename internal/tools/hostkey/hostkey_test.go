package hostkey

import (
	"bytes"
	"strings"
	"testing"

	"github.com/wasmColonies/core/internal/services/shard/lattice"
)

func TestRunRequiresOutput(t *testing.T) {
	if err := Run(nil, bytes.NewReader(bytes.Repeat([]byte{1}, 32))); err == nil {
		t.Fatal("expected error when output is nil")
	}
}

func TestRunWritesLoadableSeed(t *testing.T) {
	buf := &bytes.Buffer{}
	if err := Run(buf, bytes.NewReader(bytes.Repeat([]byte{7}, 32))); err != nil {
		t.Fatalf("run: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %q", buf.String())
	}
	seed := strings.TrimPrefix(lines[0], "export COLONIES_HOST_SEED=")
	public := strings.TrimPrefix(lines[1], "# public key: ")
	if seed == lines[0] || public == lines[1] {
		t.Fatalf("unexpected output format: %q", buf.String())
	}
	if !strings.HasPrefix(seed, "SN") || !strings.HasPrefix(public, "N") {
		t.Fatalf("seed = %q, public = %q", seed, public)
	}

	key, err := lattice.ParseHostKey(seed)
	if err != nil {
		t.Fatalf("parse seed: %v", err)
	}
	if key.PublicKey() != public {
		t.Fatalf("public key = %q, want %q", key.PublicKey(), public)
	}
}

func TestRunIsDeterministicForReader(t *testing.T) {
	first, second := &bytes.Buffer{}, &bytes.Buffer{}
	if err := Run(first, bytes.NewReader(bytes.Repeat([]byte{3}, 32))); err != nil {
		t.Fatalf("first run: %v", err)
	}
	if err := Run(second, bytes.NewReader(bytes.Repeat([]byte{3}, 32))); err != nil {
		t.Fatalf("second run: %v", err)
	}
	if first.String() != second.String() {
		t.Fatalf("outputs differ:\n%s\n%s", first, second)
	}
}

func TestRunFailsOnShortEntropy(t *testing.T) {
	if err := Run(&bytes.Buffer{}, bytes.NewReader([]byte{1, 2})); err == nil {
		t.Fatal("expected error for short entropy")
	}
}
