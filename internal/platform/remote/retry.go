package remote

import (
	"math"
	"math/rand"
	"net/http"
	"strconv"
	"time"
)

// RetryConfig configures RetryTransport.
type RetryConfig struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// DefaultRetryConfig returns the retry policy used when none is configured.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts: 4,
		BaseDelay:   200 * time.Millisecond,
		MaxDelay:    5 * time.Second,
	}
}

// RetryTransport retries GET requests answered with 429 or 503 using
// exponential backoff with jitter. Every source read shares one instance.
type RetryTransport struct {
	next  http.RoundTripper
	cfg   RetryConfig
	sleep func(*http.Request, time.Duration) error
}

// NewRetryTransport decorates next with the retry policy.
func NewRetryTransport(next http.RoundTripper, cfg RetryConfig) *RetryTransport {
	def := DefaultRetryConfig()
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = def.MaxAttempts
	}
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = def.BaseDelay
	}
	if cfg.MaxDelay <= 0 {
		cfg.MaxDelay = def.MaxDelay
	}
	if next == nil {
		next = http.DefaultTransport
	}
	return &RetryTransport{next: next, cfg: cfg, sleep: sleepCtx}
}

// RoundTrip implements http.RoundTripper.
func (t *RetryTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	var (
		resp *http.Response
		err  error
	)
	for attempt := 1; ; attempt++ {
		resp, err = t.next.RoundTrip(req)
		if err != nil || !retryable(resp.StatusCode) || attempt >= t.cfg.MaxAttempts || req.Body != nil {
			return resp, err
		}
		delay := t.backoff(attempt, resp.Header.Get("Retry-After"))
		_ = resp.Body.Close()
		if err := t.sleep(req, delay); err != nil {
			return nil, err
		}
	}
}

func retryable(status int) bool {
	return status == http.StatusTooManyRequests || status == http.StatusServiceUnavailable
}

func (t *RetryTransport) backoff(attempt int, retryAfter string) time.Duration {
	if secs, err := strconv.Atoi(retryAfter); err == nil && secs >= 0 {
		d := time.Duration(secs) * time.Second
		if d > t.cfg.MaxDelay {
			d = t.cfg.MaxDelay
		}
		return d
	}
	delay := float64(t.cfg.BaseDelay) * math.Pow(2, float64(attempt-1))
	if delay > float64(t.cfg.MaxDelay) {
		delay = float64(t.cfg.MaxDelay)
	}
	// up to 20% jitter
	jitter := delay * 0.2 * rand.Float64()
	return time.Duration(delay - jitter)
}

func sleepCtx(req *http.Request, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-req.Context().Done():
		return req.Context().Err()
	case <-timer.C:
		return nil
	}
}
