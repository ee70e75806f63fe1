// Package replay rebuilds construction sites from their journaled events.
package replay

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/wasmColonies/core/internal/services/shard/domain/construction"
	"github.com/wasmColonies/core/internal/services/shard/domain/event"
)

const defaultPageSize = 200

var (
	// ErrEventStoreRequired indicates a missing event store.
	ErrEventStoreRequired = errors.New("event store is required")
	// ErrAggregateIDRequired indicates a missing aggregate id.
	ErrAggregateIDRequired = errors.New("aggregate id is required")
)

// EventStore lists the records of one aggregate stream.
type EventStore interface {
	ListEvents(ctx context.Context, aggregateID string, afterSeq uint64, limit int) ([]event.Record, error)
}

// Options configures replay behavior.
type Options struct {
	// UntilSeq stops replay after this sequence number when positive.
	UntilSeq uint64
	PageSize int
}

// Result captures replay outcomes.
type Result struct {
	State   construction.State
	LastSeq uint64
	Applied int
}

// Replay folds aggregateID's stream from the initial state in sequence
// order. A gap in sequence numbers aborts the replay.
func Replay(ctx context.Context, store EventStore, aggregateID string, options Options) (Result, error) {
	if store == nil {
		return Result{}, ErrEventStoreRequired
	}
	aggregateID = strings.TrimSpace(aggregateID)
	if aggregateID == "" {
		return Result{}, ErrAggregateIDRequired
	}
	pageSize := options.PageSize
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}

	result := Result{State: construction.New(aggregateID)}
	for {
		records, err := store.ListEvents(ctx, aggregateID, result.LastSeq, pageSize)
		if err != nil {
			return result, err
		}
		if len(records) == 0 {
			return result, nil
		}
		for _, record := range records {
			if options.UntilSeq > 0 && record.Seq > options.UntilSeq {
				return result, nil
			}
			if expected := result.LastSeq + 1; record.Seq != expected {
				return result, fmt.Errorf("event sequence gap: expected %d got %d", expected, record.Seq)
			}
			result.State = construction.Fold(result.State, record.Event)
			result.LastSeq = record.Seq
			result.Applied++
		}
	}
}
