// Package bus carries request/reply traffic between the shard and decision
// units. NATS is the production transport; Memory serves tests and
// single-process runs.
package bus

import (
	"context"
	"errors"
)

var (
	// ErrNoResponders indicates nothing is subscribed to the subject.
	ErrNoResponders = errors.New("bus: no responders")
	// ErrClosed indicates the bus connection has been closed.
	ErrClosed = errors.New("bus: closed")
)

// Handler answers one request. A nil reply with a nil error sends nothing,
// leaving the requester to time out.
type Handler func(ctx context.Context, data []byte) ([]byte, error)

// Requester publishes a request and waits for the correlated reply. The wait
// ends when ctx is done; a reply arriving afterwards is dropped.
type Requester interface {
	Request(ctx context.Context, subject string, data []byte) ([]byte, error)
}

// Subscriber registers handlers for request subjects.
type Subscriber interface {
	Subscribe(subject string, handler Handler) (Subscription, error)
}

// Subscription is an active handler registration.
type Subscription interface {
	Unsubscribe() error
}
