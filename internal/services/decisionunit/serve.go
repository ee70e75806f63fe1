package decisionunit

import (
	"context"
	"fmt"
	"log"

	"github.com/wasmColonies/core/internal/services/shard/bus"
)

// Serve subscribes h on subject and blocks until ctx ends.
func Serve(ctx context.Context, subscriber bus.Subscriber, subject string, h *Handler) error {
	if h == nil {
		return fmt.Errorf("handler is required")
	}
	sub, err := subscriber.Subscribe(subject, h.Handle)
	if err != nil {
		return err
	}
	log.Printf("decision unit listening on %s", subject)
	<-ctx.Done()
	if err := sub.Unsubscribe(); err != nil {
		return fmt.Errorf("unsubscribe %s: %w", subject, err)
	}
	return nil
}
