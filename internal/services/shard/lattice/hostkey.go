package lattice

import (
	"crypto/ed25519"
	"fmt"
	"io"
	"strings"

	"github.com/nats-io/nkeys"
)

// HostKey is the signing identity of a shard host. Its public key is the
// issuer of every invocation the host sends.
type HostKey struct {
	pair    nkeys.KeyPair
	public  string
	private ed25519.PrivateKey
}

// NewHostKey generates a fresh server key pair.
func NewHostKey() (*HostKey, error) {
	pair, err := nkeys.CreateServer()
	if err != nil {
		return nil, fmt.Errorf("create server key: %w", err)
	}
	return hostKeyFromPair(pair)
}

// NewHostKeyFromRand generates a server key pair from rr's entropy.
func NewHostKeyFromRand(rr io.Reader) (*HostKey, error) {
	pair, err := nkeys.CreatePairWithRand(nkeys.PrefixByteServer, rr)
	if err != nil {
		return nil, fmt.Errorf("create server key: %w", err)
	}
	return hostKeyFromPair(pair)
}

// ParseHostKey loads a host key from an encoded server seed ("SN...").
func ParseHostKey(seed string) (*HostKey, error) {
	seed = strings.TrimSpace(seed)
	if seed == "" {
		return nil, fmt.Errorf("host seed is required")
	}
	pair, err := nkeys.FromSeed([]byte(seed))
	if err != nil {
		return nil, fmt.Errorf("parse host seed: %w", err)
	}
	return hostKeyFromPair(pair)
}

func hostKeyFromPair(pair nkeys.KeyPair) (*HostKey, error) {
	public, err := pair.PublicKey()
	if err != nil {
		return nil, fmt.Errorf("host public key: %w", err)
	}
	if !nkeys.IsValidPublicServerKey(public) {
		return nil, fmt.Errorf("host key %s is not a server key", public)
	}
	seed, err := pair.Seed()
	if err != nil {
		return nil, fmt.Errorf("host seed: %w", err)
	}
	_, raw, err := nkeys.DecodeSeed(seed)
	if err != nil {
		return nil, fmt.Errorf("decode host seed: %w", err)
	}
	return &HostKey{pair: pair, public: public, private: ed25519.NewKeyFromSeed(raw)}, nil
}

// PublicKey returns the encoded public key ("N...").
func (k *HostKey) PublicKey() string {
	return k.public
}

// Seed returns the encoded private seed.
func (k *HostKey) Seed() (string, error) {
	seed, err := k.pair.Seed()
	if err != nil {
		return "", err
	}
	return string(seed), nil
}

// issuerPublicKey decodes an encoded server public key for signature checks.
func issuerPublicKey(public string) (ed25519.PublicKey, error) {
	raw, err := nkeys.Decode(nkeys.PrefixByteServer, []byte(public))
	if err != nil {
		return nil, fmt.Errorf("decode issuer %q: %w", public, err)
	}
	if len(raw) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("issuer key has %d bytes", len(raw))
	}
	return ed25519.PublicKey(raw), nil
}
