package engine

import (
	"errors"
	"fmt"
	"testing"
)

func TestIsNonRetryable(t *testing.T) {
	if IsNonRetryable(errors.New("plain")) {
		t.Fatal("plain errors are retryable")
	}
	if wrapNonRetryable(nil) != nil {
		t.Fatal("wrapping nil should stay nil")
	}
	wrapped := fmt.Errorf("tick 3: %w", wrapNonRetryable(errors.New("journal down")))
	if !IsNonRetryable(wrapped) {
		t.Fatal("expected wrapped non-retryable error to be detected")
	}
}
