// Package hostkey generates the nkeys server seed a shard signs invocations
// with.
package hostkey

import (
	"crypto/rand"
	"errors"
	"fmt"
	"io"

	"github.com/wasmColonies/core/internal/services/shard/lattice"
)

// Run generates a host key and writes the seed export and public key.
func Run(out io.Writer, reader io.Reader) error {
	if out == nil {
		return errors.New("output is required")
	}
	if reader == nil {
		reader = rand.Reader
	}
	key, err := lattice.NewHostKeyFromRand(reader)
	if err != nil {
		return fmt.Errorf("generate host key: %w", err)
	}
	seed, err := key.Seed()
	if err != nil {
		return fmt.Errorf("encode host seed: %w", err)
	}
	if _, err := fmt.Fprintf(out, "export COLONIES_HOST_SEED=%s\n", seed); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(out, "# public key: %s\n", key.PublicKey()); err != nil {
		return err
	}
	return nil
}
