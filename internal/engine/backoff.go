package engine

import (
	"errors"
	"fmt"
	"time"

	"github.com/petrijr/stepflow/pkg/api"
)

// ErrInvalidBackoff is returned for an unknown backoff mode. Like a
// malformed duration, this is a programmer error and is never retried.
var ErrInvalidBackoff = errors.New("invalid backoff mode")

// BackoffDelay computes the delay before the next attempt given a retry
// config and the 0-indexed attempt that just failed:
//
//	constant:    delay
//	linear:      delay * (attempt + 1)
//	exponential: delay * 2^attempt
//
// An empty mode means constant. No jitter is applied, so retry timing
// stays deterministic and testable. The retry loop owns the
// attempt-limit boundary; BackoffDelay is never consulted after the
// final allowed attempt.
func BackoffDelay(cfg *api.RetryConfig, attempt int) (time.Duration, error) {
	if cfg == nil {
		return 0, nil
	}

	var base time.Duration
	if cfg.Delay != nil {
		var err error
		base, err = api.ParseDuration(cfg.Delay)
		if err != nil {
			return 0, err
		}
	}

	switch cfg.Backoff {
	case api.BackoffConstant, "":
		return base, nil
	case api.BackoffLinear:
		return base * time.Duration(attempt+1), nil
	case api.BackoffExponential:
		return base << uint(attempt), nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidBackoff, cfg.Backoff)
	}
}
