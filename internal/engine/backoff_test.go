package engine

import (
	"errors"
	"testing"
	"time"

	"github.com/petrijr/stepflow/pkg/api"
)

func TestBackoffDelay_Constant(t *testing.T) {
	cfg := &api.RetryConfig{Limit: 5, Delay: 100, Backoff: api.BackoffConstant}

	for attempt := 0; attempt < 5; attempt++ {
		d, err := BackoffDelay(cfg, attempt)
		if err != nil {
			t.Fatalf("BackoffDelay failed on attempt %d: %v", attempt, err)
		}
		if d != 100*time.Millisecond {
			t.Fatalf("attempt %d: expected 100ms, got %v", attempt, d)
		}
	}
}

// Linear delays grow by exactly one base unit per attempt.
func TestBackoffDelay_LinearGrowth(t *testing.T) {
	base := 50 * time.Millisecond
	cfg := &api.RetryConfig{Limit: 5, Delay: base, Backoff: api.BackoffLinear}

	prev, err := BackoffDelay(cfg, 0)
	if err != nil {
		t.Fatalf("BackoffDelay failed: %v", err)
	}
	if prev != base {
		t.Fatalf("attempt 0: expected %v, got %v", base, prev)
	}

	for attempt := 1; attempt < 6; attempt++ {
		d, err := BackoffDelay(cfg, attempt)
		if err != nil {
			t.Fatalf("BackoffDelay failed on attempt %d: %v", attempt, err)
		}
		if d-prev != base {
			t.Fatalf("attempt %d: expected growth of %v, got %v -> %v", attempt, base, prev, d)
		}
		prev = d
	}
}

// Exponential delays double each attempt.
func TestBackoffDelay_ExponentialDoubling(t *testing.T) {
	base := 10 * time.Millisecond
	cfg := &api.RetryConfig{Limit: 6, Delay: base, Backoff: api.BackoffExponential}

	prev, err := BackoffDelay(cfg, 0)
	if err != nil {
		t.Fatalf("BackoffDelay failed: %v", err)
	}
	if prev != base {
		t.Fatalf("attempt 0: expected %v, got %v", base, prev)
	}

	for attempt := 1; attempt < 7; attempt++ {
		d, err := BackoffDelay(cfg, attempt)
		if err != nil {
			t.Fatalf("BackoffDelay failed on attempt %d: %v", attempt, err)
		}
		if d != 2*prev {
			t.Fatalf("attempt %d: expected %v, got %v", attempt, 2*prev, d)
		}
		prev = d
	}
}

func TestBackoffDelay_EmptyModeMeansConstant(t *testing.T) {
	cfg := &api.RetryConfig{Limit: 3, Delay: "1 second"}

	d, err := BackoffDelay(cfg, 4)
	if err != nil {
		t.Fatalf("BackoffDelay failed: %v", err)
	}
	if d != time.Second {
		t.Fatalf("expected 1s, got %v", d)
	}
}

func TestBackoffDelay_NilConfigAndNilDelay(t *testing.T) {
	d, err := BackoffDelay(nil, 0)
	if err != nil || d != 0 {
		t.Fatalf("expected zero delay for nil config, got %v, %v", d, err)
	}

	d, err = BackoffDelay(&api.RetryConfig{Limit: 2}, 1)
	if err != nil || d != 0 {
		t.Fatalf("expected zero delay for nil Delay, got %v, %v", d, err)
	}
}

func TestBackoffDelay_InvalidInputs(t *testing.T) {
	if _, err := BackoffDelay(&api.RetryConfig{Delay: "5 fortnights"}, 0); !errors.Is(err, api.ErrInvalidDuration) {
		t.Fatalf("expected ErrInvalidDuration, got %v", err)
	}
	if _, err := BackoffDelay(&api.RetryConfig{Delay: 100, Backoff: "fibonacci"}, 0); !errors.Is(err, ErrInvalidBackoff) {
		t.Fatalf("expected ErrInvalidBackoff, got %v", err)
	}
}
