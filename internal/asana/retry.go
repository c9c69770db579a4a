package asana

import (
	"context"
	"math/rand"
	"strconv"
	"sync"
	"time"
)

// RetryPolicy controls backoff for transient remote failures.
type RetryPolicy struct {
	// MaxAttempts is the total number of tries before surfacing the error.
	MaxAttempts int
	// BaseDelay is the delay before the first retry; doubles per attempt.
	BaseDelay time.Duration
	// MaxDelay caps a single sleep.
	MaxDelay time.Duration
}

// DefaultRetryPolicy returns the policy used when none is configured.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 6,
		BaseDelay:   time.Second,
		MaxDelay:    30 * time.Second,
	}
}

// Delay computes the backoff before retry number attempt (0-based), with
// ±20% jitter. A server-supplied Retry-After wins when positive.
func (p RetryPolicy) Delay(attempt int, retryAfter time.Duration, rng *rand.Rand) time.Duration {
	if retryAfter > 0 {
		return retryAfter
	}

	base := p.BaseDelay
	if base <= 0 {
		base = time.Second
	}

	// exponential: base * 2^attempt
	delay := base << uint(attempt)
	if p.MaxDelay > 0 && delay > p.MaxDelay {
		delay = p.MaxDelay
	}

	// ±20% jitter
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	jitter := time.Duration(rng.Int63n(int64(delay)/5*2+1)) - delay/5

	return delay + jitter
}

// retryableStatus reports whether an HTTP status warrants a retry.
func retryableStatus(status int) bool {
	switch status {
	case 429, 500, 502, 503, 504:
		return true
	}
	return false
}

// parseRetryAfter interprets a Retry-After header value as whole seconds.
// Returns 0 when absent or malformed.
func parseRetryAfter(v string) time.Duration {
	if v == "" {
		return 0
	}
	secs, err := strconv.Atoi(v)
	if err != nil || secs <= 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}

// pacer serializes backoff across all fetch workers. The remote enforces
// workspace-wide rate limits, so when one worker is told to slow down,
// every worker must hold off until the same deadline.
type pacer struct {
	mu    sync.Mutex
	until time.Time
	sleep func(context.Context, time.Duration) error
}

func newPacer() *pacer {
	return &pacer{sleep: sleepCtx}
}

// Wait blocks until any shared hold-off deadline has passed.
func (p *pacer) Wait(ctx context.Context) error {
	p.mu.Lock()
	d := time.Until(p.until)
	p.mu.Unlock()

	if d <= 0 {
		return nil
	}
	return p.sleep(ctx, d)
}

// Backoff extends the shared hold-off deadline and blocks the caller for
// the given delay.
func (p *pacer) Backoff(ctx context.Context, delay time.Duration) error {
	deadline := time.Now().Add(delay)

	p.mu.Lock()
	if deadline.After(p.until) {
		p.until = deadline
	}
	p.mu.Unlock()

	return p.sleep(ctx, delay)
}

// sleepCtx sleeps for d or until ctx is done, whichever comes first.
func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
