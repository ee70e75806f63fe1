package replay

import (
	"context"
	"errors"
	"testing"

	"github.com/wasmColonies/core/internal/services/shard/domain/event"
	"github.com/wasmColonies/core/internal/services/shard/protocol"
)

type fakeStore struct {
	records []event.Record
	err     error
	calls   int
}

func (s *fakeStore) ListEvents(_ context.Context, _ string, afterSeq uint64, limit int) ([]event.Record, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	var out []event.Record
	for _, record := range s.records {
		if record.Seq > afterSeq {
			out = append(out, record)
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func stream(events ...event.ColonyEvent) *fakeStore {
	store := &fakeStore{}
	for i, evt := range events {
		store.records = append(store.records, event.Record{AggregateID: "player1", Seq: uint64(i) + 1, Event: evt})
	}
	return store
}

func TestReplayFoldsInOrder(t *testing.T) {
	store := stream(event.UnitConstructionBegan(5, protocol.UnitMine, 1000), event.TickFinished(6))
	result, err := Replay(context.Background(), store, "player1", Options{PageSize: 1})
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if result.State.Remaining != 999 || result.State.Began != 5 || result.State.Yields != protocol.UnitMine {
		t.Fatalf("state = %+v", result.State)
	}
	if result.Applied != 2 || result.LastSeq != 2 || result.State.Generation != 2 {
		t.Fatalf("result = %+v", result)
	}
	if store.calls != 3 {
		t.Fatalf("list calls = %d, want 3 with page size 1", store.calls)
	}
}

func TestReplayStopsAtUntilSeq(t *testing.T) {
	store := stream(event.TickFinished(1), event.TickFinished(2), event.TickFinished(3))
	result, err := Replay(context.Background(), store, "player1", Options{UntilSeq: 2})
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if result.LastSeq != 2 || result.Applied != 2 {
		t.Fatalf("result = %+v, want stop at seq 2", result)
	}
}

func TestReplayDetectsGap(t *testing.T) {
	store := stream(event.TickFinished(1), event.TickFinished(2))
	store.records[1].Seq = 3
	if _, err := Replay(context.Background(), store, "player1", Options{}); err == nil {
		t.Fatal("expected sequence gap error")
	}
}

func TestReplayValidatesInputs(t *testing.T) {
	if _, err := Replay(context.Background(), nil, "player1", Options{}); !errors.Is(err, ErrEventStoreRequired) {
		t.Fatalf("err = %v, want ErrEventStoreRequired", err)
	}
	if _, err := Replay(context.Background(), stream(), " ", Options{}); !errors.Is(err, ErrAggregateIDRequired) {
		t.Fatalf("err = %v, want ErrAggregateIDRequired", err)
	}
	boom := errors.New("boom")
	if _, err := Replay(context.Background(), &fakeStore{err: boom}, "player1", Options{}); !errors.Is(err, boom) {
		t.Fatalf("err = %v, want store error", err)
	}
}
