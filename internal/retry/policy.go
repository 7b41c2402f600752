package retry

import (
	"context"
	"fmt"
	"time"

	"git.home.luguber.info/inful/previewnote/internal/config"
	"git.home.luguber.info/inful/previewnote/internal/foundation/errors"
)

// Policy encapsulates retry/backoff settings for transient failures.
// It is immutable after construction.
type Policy struct {
	Mode       config.RetryBackoffMode // fixed|linear|exponential
	Initial    time.Duration           // base delay
	Max        time.Duration           // cap for growth
	MaxRetries int                     // retry attempts after the first failure
}

// DefaultPolicy returns a single-attempt policy (linear, 1s initial, 30s cap, 0 retries).
func DefaultPolicy() Policy {
	return Policy{Mode: config.RetryBackoffLinear, Initial: time.Second, Max: 30 * time.Second}
}

// NewPolicy builds a policy from raw fields; zero/invalid values fall back to defaults.
func NewPolicy(mode config.RetryBackoffMode, initial, maxDuration time.Duration, maxRetries int) Policy {
	p := DefaultPolicy()
	if maxRetries > 0 {
		p.MaxRetries = maxRetries
	}
	if initial > 0 {
		p.Initial = initial
	}
	if maxDuration > 0 {
		p.Max = maxDuration
	}
	switch mode {
	case config.RetryBackoffFixed, config.RetryBackoffLinear, config.RetryBackoffExponential:
		p.Mode = mode
	}
	if p.Initial > p.Max {
		p.Initial = p.Max
	}
	return p
}

// FromConfig builds a policy from the retry section of the configuration.
// Unlike NewPolicy it rejects non-positive durations and negative retries
// instead of silently falling back to defaults.
func FromConfig(c config.RetryConfig) (Policy, error) {
	raw := Policy{Mode: c.Backoff, Initial: c.Initial, Max: c.Max, MaxRetries: c.MaxRetries}
	if err := raw.Validate(); err != nil {
		return Policy{}, errors.WrapError(err, errors.CategoryConfig, "invalid retry policy").
			WithContext("max_retries", c.MaxRetries).
			Build()
	}
	return NewPolicy(c.Backoff, c.Initial, c.Max, c.MaxRetries), nil
}

// Delay returns the backoff delay for the given retry attempt number (1-based: first retry => 1).
func (p Policy) Delay(retryCount int) time.Duration {
	if retryCount <= 0 {
		return 0
	}
	switch p.Mode {
	case config.RetryBackoffFixed:
		return p.Initial
	case config.RetryBackoffExponential:
		d := p.Initial
		for i := 1; i < retryCount && d < p.Max; i++ {
			d *= 2
		}
		if d > p.Max {
			return p.Max
		}
		return d
	default: // linear
		d := time.Duration(retryCount) * p.Initial
		if d > p.Max {
			return p.Max
		}
		return d
	}
}

// Validate ensures invariants; returns error if policy impossible to apply.
func (p Policy) Validate() error {
	if p.Initial <= 0 {
		return fmt.Errorf("initial must be >0")
	}
	if p.Max <= 0 {
		return fmt.Errorf("max must be >0")
	}
	if p.MaxRetries < 0 {
		return fmt.Errorf("max retries cannot be negative")
	}
	return nil
}

// Sleeper waits for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

// Sleep is the default Sleeper.
func Sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Do calls fn until it succeeds, shouldRetry rejects the error, or retries are
// exhausted. onRetry, when set, is called before each wait with the 1-based retry
// number and the error that caused it. The last error is returned.
func (p Policy) Do(ctx context.Context, sleep Sleeper, fn func(context.Context) error, shouldRetry func(error) bool, onRetry func(int, error)) error {
	if sleep == nil {
		sleep = Sleep
	}
	var err error
	for attempt := 0; ; attempt++ {
		if err = fn(ctx); err == nil {
			return nil
		}
		if attempt >= p.MaxRetries || !shouldRetry(err) {
			return err
		}
		if onRetry != nil {
			onRetry(attempt+1, err)
		}
		if sErr := sleep(ctx, p.Delay(attempt+1)); sErr != nil {
			return err
		}
	}
}
