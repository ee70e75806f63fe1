package bus

import (
	"context"
	"testing"
	"time"
)

func TestConnectRequiresURL(t *testing.T) {
	if _, err := Connect(context.Background(), " ", ConnectOptions{}); err == nil {
		t.Fatal("expected missing url error")
	}
}

func TestConnectGivesUpAfterMaxElapsed(t *testing.T) {
	var attempts int
	start := time.Now()
	_, err := Connect(context.Background(), "nats://127.0.0.1:1", ConnectOptions{
		Name:       "test",
		MaxElapsed: 2 * time.Second,
		Logf:       func(string, ...any) { attempts++ },
	})
	if err == nil {
		t.Fatal("expected connect to fail")
	}
	if elapsed := time.Since(start); elapsed > 10*time.Second {
		t.Fatalf("connect retried for %s", elapsed)
	}
	if attempts == 0 {
		t.Fatal("expected retry notifications")
	}
}

func TestConnectStopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := Connect(ctx, "nats://127.0.0.1:1", ConnectOptions{Logf: func(string, ...any) {}}); err == nil {
		t.Fatal("expected cancelled connect to fail")
	}
}
