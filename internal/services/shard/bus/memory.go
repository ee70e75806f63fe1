package bus

import (
	"context"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
)

// Memory is an in-process bus. Each request runs its handler on a new
// goroutine so a slow handler never blocks the requester past its deadline.
// A handler that never returns keeps its goroutine alive for the life of the
// process, so Memory is meant for tests and single-process runs.
type Memory struct {
	mu       sync.RWMutex
	handlers map[string]*memorySubscription
	closed   atomic.Bool
	logf     func(string, ...any)

	timedOut    atomic.Int64
	lateReplies atomic.Int64
}

// NewMemory returns an empty in-process bus.
func NewMemory() *Memory {
	return &Memory{handlers: make(map[string]*memorySubscription), logf: log.Printf}
}

type memorySubscription struct {
	bus     *Memory
	subject string
	handler Handler
}

// Subscribe registers handler for subject, replacing any earlier handler.
func (m *Memory) Subscribe(subject string, handler Handler) (Subscription, error) {
	if handler == nil {
		return nil, fmt.Errorf("handler is required")
	}
	if m.closed.Load() {
		return nil, ErrClosed
	}
	sub := &memorySubscription{bus: m, subject: subject, handler: handler}
	m.mu.Lock()
	m.handlers[subject] = sub
	m.mu.Unlock()
	return sub, nil
}

func (s *memorySubscription) Unsubscribe() error {
	s.bus.mu.Lock()
	defer s.bus.mu.Unlock()
	if current, ok := s.bus.handlers[s.subject]; ok && current == s {
		delete(s.bus.handlers, s.subject)
	}
	return nil
}

// Request runs the subject's handler and waits for its reply or ctx.
func (m *Memory) Request(ctx context.Context, subject string, data []byte) ([]byte, error) {
	if m.closed.Load() {
		return nil, ErrClosed
	}
	m.mu.RLock()
	sub, ok := m.handlers[subject]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrNoResponders
	}

	replyCh := make(chan []byte)
	done := make(chan struct{})
	defer close(done)
	payload := append([]byte(nil), data...)
	go func() {
		reply, err := sub.handler(context.Background(), payload)
		if err != nil {
			m.logf("bus: handler for %s failed: %v", subject, err)
			return
		}
		if reply == nil {
			return
		}
		select {
		case replyCh <- reply:
		case <-done:
			m.lateReplies.Add(1)
		}
	}()

	select {
	case <-ctx.Done():
		m.timedOut.Add(1)
		return nil, ctx.Err()
	case reply := <-replyCh:
		return reply, nil
	}
}

// TimedOut returns how many requests ended before a reply arrived.
func (m *Memory) TimedOut() int64 {
	return m.timedOut.Load()
}

// LateReplies returns how many replies arrived after their requester stopped
// waiting and were discarded.
func (m *Memory) LateReplies() int64 {
	return m.lateReplies.Load()
}

// Close rejects further requests and subscriptions.
func (m *Memory) Close() {
	m.closed.Store(true)
	m.mu.Lock()
	m.handlers = make(map[string]*memorySubscription)
	m.mu.Unlock()
}
