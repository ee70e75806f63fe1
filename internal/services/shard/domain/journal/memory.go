// Package journal keeps the append-only, hash-chained log of colony events.
package journal

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/wasmColonies/core/internal/services/shard/domain/event"
)

// ErrAggregateIDRequired indicates a missing aggregate id.
var ErrAggregateIDRequired = errors.New("aggregate id is required")

// Memory stores event streams in process memory, one stream per aggregate.
type Memory struct {
	mu      sync.RWMutex
	streams map[string][]event.Record
	now     func() time.Time
}

// NewMemory creates an empty journal.
func NewMemory() *Memory {
	return &Memory{streams: make(map[string][]event.Record), now: time.Now}
}

// Append assigns the next sequence number, timestamp and hashes to evt and
// stores it at the end of aggregateID's stream.
func (m *Memory) Append(ctx context.Context, aggregateID string, evt event.ColonyEvent) (event.Record, error) {
	if err := ctx.Err(); err != nil {
		return event.Record{}, err
	}
	aggregateID = strings.TrimSpace(aggregateID)
	if aggregateID == "" {
		return event.Record{}, ErrAggregateIDRequired
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	stream := m.streams[aggregateID]
	record := event.Record{
		AggregateID: aggregateID,
		Seq:         uint64(len(stream)) + 1,
		Event:       evt,
		Timestamp:   m.now().UTC(),
	}
	if len(stream) > 0 {
		record.PrevHash = stream[len(stream)-1].ChainHash
	}
	hash, err := event.ContentHash(record)
	if err != nil {
		return event.Record{}, err
	}
	record.Hash = hash
	record.ChainHash = event.ChainHash(record.PrevHash, hash)
	m.streams[aggregateID] = append(stream, record)
	return record, nil
}

// ListEvents returns up to limit records of aggregateID with Seq > afterSeq.
// A non-positive limit returns the rest of the stream.
func (m *Memory) ListEvents(ctx context.Context, aggregateID string, afterSeq uint64, limit int) ([]event.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	stream := m.streams[aggregateID]
	if afterSeq >= uint64(len(stream)) {
		return nil, nil
	}
	tail := stream[afterSeq:]
	if limit > 0 && len(tail) > limit {
		tail = tail[:limit]
	}
	return append([]event.Record(nil), tail...), nil
}

// AggregateIDs returns every stream id in sorted order.
func (m *Memory) AggregateIDs() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]string, 0, len(m.streams))
	for id := range m.streams {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// VerifyChain recomputes every hash in aggregateID's stream.
func (m *Memory) VerifyChain(ctx context.Context, aggregateID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	prev := ""
	for i, record := range m.streams[aggregateID] {
		if record.Seq != uint64(i)+1 {
			return fmt.Errorf("stream %s: record %d has seq %d", aggregateID, i, record.Seq)
		}
		if record.PrevHash != prev {
			return fmt.Errorf("stream %s seq %d: prev hash mismatch", aggregateID, record.Seq)
		}
		hash, err := event.ContentHash(record)
		if err != nil {
			return err
		}
		if hash != record.Hash {
			return fmt.Errorf("stream %s seq %d: content hash mismatch", aggregateID, record.Seq)
		}
		if event.ChainHash(prev, hash) != record.ChainHash {
			return fmt.Errorf("stream %s seq %d: chain hash mismatch", aggregateID, record.Seq)
		}
		prev = record.ChainHash
	}
	return nil
}
