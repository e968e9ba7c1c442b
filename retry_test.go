package stepflow

import (
	"testing"
	"time"
)

func TestRetryBuilderDefaults(t *testing.T) {
	cfg := Retry(3).Config()
	if cfg.Limit != 3 {
		t.Fatalf("expected limit 3, got %d", cfg.Limit)
	}
	if cfg.Backoff != BackoffConstant {
		t.Fatalf("expected constant backoff, got %q", cfg.Backoff)
	}
	if cfg.Delay != nil {
		t.Fatalf("expected nil delay, got %v", cfg.Delay)
	}
}

func TestRetryBuilderNegativeLimit(t *testing.T) {
	cfg := Retry(-5).Config()
	if cfg.Limit != 0 {
		t.Fatalf("expected negative limit clamped to 0, got %d", cfg.Limit)
	}
}

func TestRetryBuilderBackoffModes(t *testing.T) {
	cases := []struct {
		name string
		cfg  *RetryConfig
		want Backoff
	}{
		{"constant", Retry(2).WithConstantDelay("1 second").Config(), BackoffConstant},
		{"linear", Retry(2).WithLinearBackoff("1 second").Config(), BackoffLinear},
		{"exponential", Retry(2).WithExponentialBackoff("1 second").Config(), BackoffExponential},
	}
	for _, tc := range cases {
		if tc.cfg.Backoff != tc.want {
			t.Errorf("%s: expected backoff %q, got %q", tc.name, tc.want, tc.cfg.Backoff)
		}
		d, err := ParseDuration(tc.cfg.Delay)
		if err != nil {
			t.Errorf("%s: delay did not parse: %v", tc.name, err)
		}
		if d != time.Second {
			t.Errorf("%s: expected 1s delay, got %v", tc.name, d)
		}
	}
}

func TestRetryBuilderImmediate(t *testing.T) {
	cfg := Retry(4).WithExponentialBackoff("2 seconds").Immediate().Config()
	if cfg.Delay != nil {
		t.Fatalf("expected Immediate to clear the delay, got %v", cfg.Delay)
	}
	if cfg.Backoff != BackoffConstant {
		t.Fatalf("expected Immediate to reset backoff to constant, got %q", cfg.Backoff)
	}
	if cfg.Limit != 4 {
		t.Fatalf("expected limit preserved, got %d", cfg.Limit)
	}
}

func TestRetryBuilderConfigReturnsCopy(t *testing.T) {
	b := Retry(1).WithConstantDelay("1 second")
	first := b.Config()
	second := b.Config()
	if first == second {
		t.Fatal("expected Config to return distinct copies")
	}
	first.Limit = 99
	if second.Limit != 1 {
		t.Fatalf("mutating one copy leaked into the other: %d", second.Limit)
	}
}

func TestRetryBuilderChainingIsImmutable(t *testing.T) {
	base := Retry(2)
	a := base.WithConstantDelay("1 second")
	b := base.WithExponentialBackoff("5 seconds")

	if got := a.Config().Backoff; got != BackoffConstant {
		t.Fatalf("first chain changed: %q", got)
	}
	if got := b.Config().Backoff; got != BackoffExponential {
		t.Fatalf("second chain changed: %q", got)
	}
	if got := base.Config().Delay; got != nil {
		t.Fatalf("base builder mutated: %v", got)
	}
}
