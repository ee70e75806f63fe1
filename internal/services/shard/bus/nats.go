package bus

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/nats-io/nats.go"
)

// NATS adapts a NATS connection to the bus interfaces.
type NATS struct {
	conn *nats.Conn
	logf func(string, ...any)
}

// ConnectOptions tunes Connect.
type ConnectOptions struct {
	// Name identifies the client to the NATS server.
	Name string
	// MaxElapsed caps the total time spent retrying the first connection.
	MaxElapsed time.Duration
	// Logf receives connection lifecycle diagnostics. Defaults to log.Printf.
	Logf func(string, ...any)
}

// Connect dials url, retrying with exponential backoff until it succeeds,
// ctx ends, or MaxElapsed passes.
func Connect(ctx context.Context, url string, options ConnectOptions) (*NATS, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return nil, errors.New("nats url is required")
	}
	logf := options.Logf
	if logf == nil {
		logf = log.Printf
	}
	natsOptions := []nats.Option{
		nats.Name(options.Name),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logf("nats disconnected: %v", err)
			}
		}),
		nats.ReconnectHandler(func(conn *nats.Conn) {
			logf("nats reconnected to %s", conn.ConnectedUrl())
		}),
	}

	retryOptions := []backoff.RetryOption{
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithNotify(func(err error, next time.Duration) {
			logf("nats connect to %s failed, retrying in %s: %v", url, next.Round(time.Millisecond), err)
		}),
	}
	if options.MaxElapsed > 0 {
		retryOptions = append(retryOptions, backoff.WithMaxElapsedTime(options.MaxElapsed))
	}
	conn, err := backoff.Retry(ctx, func() (*nats.Conn, error) {
		return nats.Connect(url, natsOptions...)
	}, retryOptions...)
	if err != nil {
		return nil, fmt.Errorf("connect nats %s: %w", url, err)
	}
	return &NATS{conn: conn, logf: logf}, nil
}

// NewNATS wraps an established connection.
func NewNATS(conn *nats.Conn) *NATS {
	return &NATS{conn: conn, logf: log.Printf}
}

// Request sends data on subject and waits for a reply until ctx is done.
func (n *NATS) Request(ctx context.Context, subject string, data []byte) ([]byte, error) {
	msg, err := n.conn.RequestWithContext(ctx, subject, data)
	if err != nil {
		switch {
		case errors.Is(err, nats.ErrNoResponders):
			return nil, fmt.Errorf("%w: %s", ErrNoResponders, subject)
		case errors.Is(err, nats.ErrConnectionClosed):
			return nil, ErrClosed
		}
		return nil, err
	}
	return msg.Data, nil
}

// Subscribe runs handler for each request on subject and sends its reply.
func (n *NATS) Subscribe(subject string, handler Handler) (Subscription, error) {
	if handler == nil {
		return nil, errors.New("handler is required")
	}
	sub, err := n.conn.Subscribe(subject, func(msg *nats.Msg) {
		reply, err := handler(context.Background(), msg.Data)
		if err != nil {
			n.logf("bus: handler for %s failed: %v", subject, err)
			return
		}
		if reply == nil || msg.Reply == "" {
			return
		}
		if err := msg.Respond(reply); err != nil {
			n.logf("bus: respond on %s: %v", subject, err)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("subscribe %s: %w", subject, err)
	}
	return sub, nil
}

// Connected reports whether the underlying connection is up.
func (n *NATS) Connected() bool {
	return n.conn != nil && n.conn.IsConnected()
}

// Close drains subscriptions and closes the connection.
func (n *NATS) Close() error {
	if n.conn == nil {
		return nil
	}
	if err := n.conn.Drain(); err != nil {
		n.conn.Close()
		return err
	}
	return nil
}
