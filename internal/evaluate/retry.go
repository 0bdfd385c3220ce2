package evaluate

import (
	"errors"
	"math"
	"math/rand/v2"
	"time"
)

// maxBackoff leaves headroom for jitter on top of a saturated delay.
const maxBackoff = time.Duration(math.MaxInt64 / 4)

// Default retry settings: two retries after the first attempt.
const (
	DefaultMaxRetries    = 2
	DefaultBaseDelay     = 1 * time.Second
	DefaultMaxDelay      = 10 * time.Second
	DefaultJitterPercent = 0.1
)

// RetryConfig bounds how often a failed oracle call is repeated.
type RetryConfig struct {
	// MaxRetries is the number of retries after the first attempt. 0 disables retrying.
	MaxRetries int
	// BaseDelay is the wait before the first retry; it doubles per attempt.
	BaseDelay time.Duration
	// MaxDelay caps the backoff.
	MaxDelay time.Duration
	// JitterPercent randomizes each delay by up to ± this fraction.
	JitterPercent float64
}

// DefaultRetryConfig returns the default bounded backoff.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:    DefaultMaxRetries,
		BaseDelay:     DefaultBaseDelay,
		MaxDelay:      DefaultMaxDelay,
		JitterPercent: DefaultJitterPercent,
	}
}

// delay returns the backoff before retry number attempt (0-based).
func (c RetryConfig) delay(attempt int) time.Duration {
	if c.BaseDelay <= 0 {
		return 0
	}
	delay := maxBackoff
	if shift := max(attempt, 0); shift < 62 && c.BaseDelay <= maxBackoff>>shift {
		delay = c.BaseDelay << shift
	}
	if c.MaxDelay > 0 && delay > c.MaxDelay {
		delay = c.MaxDelay
	}

	jitter := int64(float64(delay) * min(c.JitterPercent, 1))
	if jitter > 0 {
		//nolint:gosec // math/rand is fine for backoff jitter
		delay += time.Duration(rand.Int64N(2*jitter) - jitter)
	}

	if delay < c.BaseDelay {
		return c.BaseDelay
	}
	return delay
}

// retryable is implemented by errors that know whether repeating the call can help,
// such as provider errors classified by HTTP status.
type retryable interface {
	IsRetryable() bool
}

// shouldRetry treats every failure as transient unless the error says otherwise.
// Timeouts, malformed responses and unreachable services are all retried.
func shouldRetry(err error) bool {
	var r retryable
	if errors.As(err, &r) {
		return r.IsRetryable()
	}
	return true
}
