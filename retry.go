package stepflow

// RetryBuilder provides a fluent way to construct RetryConfig values
// for use in StepConfig.Retries.
type RetryBuilder struct {
	cfg RetryConfig
}

// Retry creates a RetryBuilder allowing up to limit retries after the
// initial attempt.
//
// limit < 0 is treated as 0 (no retries).
func Retry(limit int) RetryBuilder {
	if limit < 0 {
		limit = 0
	}
	return RetryBuilder{
		cfg: RetryConfig{
			Limit:   limit,
			Backoff: BackoffConstant,
		},
	}
}

// WithConstantDelay waits the same delay before every retry.
//
// Example:
//
//	Retry(3).WithConstantDelay("1 second")
func (r RetryBuilder) WithConstantDelay(delay Duration) RetryBuilder {
	c := r.cfg
	c.Delay = delay
	c.Backoff = BackoffConstant
	return RetryBuilder{cfg: c}
}

// WithLinearBackoff grows the delay by one base unit per attempt:
// delay, 2*delay, 3*delay, ...
func (r RetryBuilder) WithLinearBackoff(delay Duration) RetryBuilder {
	c := r.cfg
	c.Delay = delay
	c.Backoff = BackoffLinear
	return RetryBuilder{cfg: c}
}

// WithExponentialBackoff doubles the delay each attempt:
// delay, 2*delay, 4*delay, ...
func (r RetryBuilder) WithExponentialBackoff(delay Duration) RetryBuilder {
	c := r.cfg
	c.Delay = delay
	c.Backoff = BackoffExponential
	return RetryBuilder{cfg: c}
}

// Immediate disables any delay between retries.
// Retries still respect the limit.
func (r RetryBuilder) Immediate() RetryBuilder {
	c := r.cfg
	c.Delay = nil
	c.Backoff = BackoffConstant
	return RetryBuilder{cfg: c}
}

// Config returns the underlying RetryConfig for StepConfig.Retries.
func (r RetryBuilder) Config() *RetryConfig {
	// Copy so callers can keep chaining from the same builder.
	c := r.cfg
	return &c
}
