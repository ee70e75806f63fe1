package event

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/fxamacker/cbor/v2"
)

const (
	// Source identifies the stream family in every record hash.
	Source = "events://wasmcolonies/colony"
	// Version is the event schema version.
	Version = "1.0"
)

var hashEncoding = mustEncMode()

func mustEncMode() cbor.EncMode {
	mode, err := cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("cbor deterministic mode: %v", err))
	}
	return mode
}

// Record is a journaled event. Seq counts from 1 within an aggregate stream;
// PrevHash is the ChainHash of the previous record in that stream.
type Record struct {
	AggregateID string
	Seq         uint64
	Event       ColonyEvent
	Timestamp   time.Time
	Hash        string
	PrevHash    string
	ChainHash   string
}

type hashedContent struct {
	Source      string      `cbor:"source"`
	Version     string      `cbor:"version"`
	AggregateID string      `cbor:"aggregate_id"`
	Seq         uint64      `cbor:"seq"`
	Timestamp   int64       `cbor:"timestamp"`
	Event       ColonyEvent `cbor:"event"`
}

// ContentHash returns the hex SHA-256 of the record's deterministic CBOR
// encoding. Hash fields are excluded.
func ContentHash(r Record) (string, error) {
	data, err := hashEncoding.Marshal(hashedContent{
		Source:      Source,
		Version:     Version,
		AggregateID: r.AggregateID,
		Seq:         r.Seq,
		Timestamp:   r.Timestamp.UTC().UnixNano(),
		Event:       r.Event,
	})
	if err != nil {
		return "", fmt.Errorf("encode event content: %w", err)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// ChainHash links a record hash to the chain hash before it.
func ChainHash(prevChainHash, hash string) string {
	sum := sha256.Sum256([]byte(prevChainHash + ":" + hash))
	return hex.EncodeToString(sum[:])
}
