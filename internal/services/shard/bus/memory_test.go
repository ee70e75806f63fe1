package bus

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"
)

func echo(_ context.Context, data []byte) ([]byte, error) {
	return append([]byte("re:"), data...), nil
}

func TestMemoryRequestReply(t *testing.T) {
	m := NewMemory()
	if _, err := m.Subscribe("wasmbus.rpc.default.Mkey", echo); err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	reply, err := m.Request(context.Background(), "wasmbus.rpc.default.Mkey", []byte("hi"))
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if !bytes.Equal(reply, []byte("re:hi")) {
		t.Fatalf("reply = %q, want re:hi", reply)
	}
}

func TestMemoryNoResponders(t *testing.T) {
	m := NewMemory()
	_, err := m.Request(context.Background(), "nobody", nil)
	if !errors.Is(err, ErrNoResponders) {
		t.Fatalf("err = %v, want ErrNoResponders", err)
	}
}

func TestMemoryRequestTimesOutAndDropsLateReply(t *testing.T) {
	m := NewMemory()
	release := make(chan struct{})
	replied := make(chan struct{})
	if _, err := m.Subscribe("slow", func(context.Context, []byte) ([]byte, error) {
		<-release
		defer close(replied)
		return []byte("late"), nil
	}); err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	start := time.Now()
	_, err := m.Request(ctx, "slow", nil)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err = %v, want deadline exceeded", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Fatalf("request took %s after a 30ms deadline", elapsed)
	}
	if m.TimedOut() != 1 {
		t.Fatalf("timed out = %d, want 1", m.TimedOut())
	}

	close(release)
	select {
	case <-replied:
	case <-time.After(time.Second):
		t.Fatal("late handler never finished")
	}
	deadline := time.Now().Add(time.Second)
	for m.LateReplies() != 1 {
		if time.Now().After(deadline) {
			t.Fatalf("late replies = %d, want 1", m.LateReplies())
		}
		time.Sleep(time.Millisecond)
	}
}

func TestMemoryNilReplyTimesOut(t *testing.T) {
	m := NewMemory()
	if _, err := m.Subscribe("silent", func(context.Context, []byte) ([]byte, error) { return nil, nil }); err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := m.Request(ctx, "silent", nil); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err = %v, want deadline exceeded", err)
	}
}

func TestMemoryHandlerErrorSendsNoReply(t *testing.T) {
	m := NewMemory()
	logged := make(chan string, 1)
	m.logf = func(format string, args ...any) { logged <- format }
	if _, err := m.Subscribe("broken", func(context.Context, []byte) ([]byte, error) {
		return nil, errors.New("boom")
	}); err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := m.Request(ctx, "broken", nil); err == nil {
		t.Fatal("expected timeout")
	}
	select {
	case <-logged:
	case <-time.After(time.Second):
		t.Fatal("expected handler failure to be logged")
	}
}

func TestMemoryUnsubscribe(t *testing.T) {
	m := NewMemory()
	sub, err := m.Subscribe("s", echo)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	replacement, err := m.Subscribe("s", echo)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	if err := sub.Unsubscribe(); err != nil {
		t.Fatalf("unsubscribe stale: %v", err)
	}
	if _, err := m.Request(context.Background(), "s", nil); err != nil {
		t.Fatalf("replacement handler should still answer: %v", err)
	}
	if err := replacement.Unsubscribe(); err != nil {
		t.Fatalf("unsubscribe: %v", err)
	}
	if _, err := m.Request(context.Background(), "s", nil); !errors.Is(err, ErrNoResponders) {
		t.Fatalf("err = %v, want ErrNoResponders", err)
	}
}

func TestMemoryClosed(t *testing.T) {
	m := NewMemory()
	m.Close()
	if _, err := m.Request(context.Background(), "s", nil); !errors.Is(err, ErrClosed) {
		t.Fatalf("request err = %v, want ErrClosed", err)
	}
	if _, err := m.Subscribe("s", echo); !errors.Is(err, ErrClosed) {
		t.Fatalf("subscribe err = %v, want ErrClosed", err)
	}
}
