package lattice

import (
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/nats-io/nkeys"
	"github.com/wasmColonies/core/internal/services/shard/protocol"
)

const player1Key = "MDVVUGY5RK7TMJGJOOCOTFY6QA3M3W4ODENO43HWEKLO5OMTVKF5KAWJ"

func newTestKey(t *testing.T) *HostKey {
	t.Helper()
	key, err := NewHostKey()
	if err != nil {
		t.Fatalf("new host key: %v", err)
	}
	return key
}

func newTestInvocation(t *testing.T, key *HostKey, msg []byte) Invocation {
	t.Helper()
	inv, err := NewInvocation(key, Actor(SystemActor), Actor(player1Key), protocol.OpPlayerTick, msg)
	if err != nil {
		t.Fatalf("new invocation: %v", err)
	}
	return inv
}

func TestInvocationHashKnownVector(t *testing.T) {
	// Payload is the msgpack map {"tick": 5}.
	msg := []byte{0x81, 0xa4, 't', 'i', 'c', 'k', 0x05}
	got := InvocationHash("wasmbus://system", "wasmbus://"+player1Key+"/PlayerTick", msg)
	want := "A890EF0A981833E3277453AFD4F3C9A71A3840363A9587D4869A00180D8CCBE0"
	if got != want {
		t.Fatalf("InvocationHash() = %s, want %s", got, want)
	}
}

func TestInvocationHashRecomputes(t *testing.T) {
	key := newTestKey(t)
	msg := []byte("payload")
	inv := newTestInvocation(t, key, msg)

	claims, err := Verify(inv)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	recomputed := InvocationHash(Actor(SystemActor).Address(), TargetURL(Actor(player1Key), protocol.OpPlayerTick), msg)
	if claims.Invocation.Hash != recomputed {
		t.Fatalf("signed hash %s, recomputed %s", claims.Invocation.Hash, recomputed)
	}
}

func TestNewInvocationFields(t *testing.T) {
	key := newTestKey(t)
	inv := newTestInvocation(t, key, []byte{1, 2, 3})

	if inv.HostID != key.PublicKey() || !nkeys.IsValidPublicServerKey(inv.HostID) {
		t.Fatalf("host id = %q, want server key %q", inv.HostID, key.PublicKey())
	}
	if len(inv.ID) != 36 {
		t.Fatalf("id = %q, want uuid", inv.ID)
	}
	if inv.Operation != protocol.OpPlayerTick {
		t.Fatalf("operation = %q", inv.Operation)
	}
	if strings.Count(inv.EncodedClaims, ".") != 2 {
		t.Fatalf("claims = %q, want compact JWS", inv.EncodedClaims)
	}
	other := newTestInvocation(t, key, []byte{1, 2, 3})
	if other.ID == inv.ID {
		t.Fatal("expected unique invocation ids")
	}
}

func TestNewInvocationRequiresKey(t *testing.T) {
	if _, err := NewInvocation(nil, Actor(SystemActor), Actor(player1Key), protocol.OpPlayerTick, nil); err == nil {
		t.Fatal("expected missing key error")
	}
}

func TestInvocationRoundTrip(t *testing.T) {
	key := newTestKey(t)
	want, err := newInvocation(key, Actor(SystemActor), Capability("V1", "wasmcloud:keyvalue", "default"), "Get", []byte("k"), time.Unix(1700000000, 0))
	if err != nil {
		t.Fatalf("new invocation: %v", err)
	}
	data, err := protocol.Encode(want)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	var got Invocation
	if err := protocol.Decode(data, &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("round trip = %+v, want %+v", got, want)
	}
	if _, err := Verify(got); err != nil {
		t.Fatalf("verify decoded invocation: %v", err)
	}
}

func TestInvocationResponseRoundTrip(t *testing.T) {
	inv := Invocation{ID: "abc"}
	for _, want := range []InvocationResponse{Respond(inv, []byte{9}), RespondError(inv, "no handler")} {
		data, err := protocol.Encode(want)
		if err != nil {
			t.Fatalf("encode: %v", err)
		}
		var got InvocationResponse
		if err := protocol.Decode(data, &got); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if !reflect.DeepEqual(got, want) {
			t.Fatalf("round trip = %+v, want %+v", got, want)
		}
	}
}

func TestVerifyRejectsTampering(t *testing.T) {
	key := newTestKey(t)
	otherKey := newTestKey(t)

	tests := []struct {
		name   string
		mutate func(*Invocation)
		want   error
	}{
		{name: "payload", mutate: func(inv *Invocation) { inv.Msg = []byte("forged") }, want: ErrHashMismatch},
		{name: "id", mutate: func(inv *Invocation) { inv.ID = "other" }, want: ErrClaimsMismatch},
		{name: "operation", mutate: func(inv *Invocation) { inv.Operation = "Shutdown" }, want: ErrClaimsMismatch},
		{name: "origin", mutate: func(inv *Invocation) { inv.Origin = Actor("Mintruder") }, want: ErrClaimsMismatch},
		{name: "target", mutate: func(inv *Invocation) { inv.Target = Actor("Mother") }, want: ErrClaimsMismatch},
		{name: "host", mutate: func(inv *Invocation) { inv.HostID = otherKey.PublicKey() }, want: ErrClaimsInvalid},
		{name: "garbage host", mutate: func(inv *Invocation) { inv.HostID = "not-a-key" }, want: ErrClaimsInvalid},
		{name: "claims", mutate: func(inv *Invocation) { inv.EncodedClaims += "x" }, want: ErrClaimsInvalid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inv := newTestInvocation(t, key, []byte("payload"))
			tt.mutate(&inv)
			if _, err := Verify(inv); !errors.Is(err, tt.want) {
				t.Fatalf("Verify() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestHostKeySeedRoundTrip(t *testing.T) {
	key := newTestKey(t)
	seed, err := key.Seed()
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	if !strings.HasPrefix(seed, "SN") {
		t.Fatalf("seed = %q, want server seed", seed)
	}
	parsed, err := ParseHostKey(seed)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if parsed.PublicKey() != key.PublicKey() {
		t.Fatalf("public key = %s, want %s", parsed.PublicKey(), key.PublicKey())
	}

	inv := newTestInvocation(t, parsed, []byte("x"))
	if _, err := Verify(inv); err != nil {
		t.Fatalf("verify with parsed key: %v", err)
	}
}

func TestParseHostKeyRejectsNonServerSeed(t *testing.T) {
	user, err := nkeys.CreateUser()
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	seed, err := user.Seed()
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	if _, err := ParseHostKey(string(seed)); err == nil {
		t.Fatal("expected user seed to be rejected")
	}
	if _, err := ParseHostKey(""); err == nil {
		t.Fatal("expected empty seed to be rejected")
	}
}
