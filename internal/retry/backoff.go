package retry

import (
	"math"
	"math/rand"
	"time"

	"github.com/vvka-141/ddlstore/pkg/ddlstore"
)

// ExponentialBackoff waits initialDelay*multiplier^attempt, spread by
// +/- jitter and never longer than maxDelay.
type ExponentialBackoff struct {
	initialDelay time.Duration
	maxDelay     time.Duration
	multiplier   float64
	jitter       float64
	maxAttempts  int
	random       func() float64
}

type BackoffOption func(*ExponentialBackoff)

func WithInitialDelay(d time.Duration) BackoffOption {
	return func(b *ExponentialBackoff) { b.initialDelay = d }
}

func WithMaxDelay(d time.Duration) BackoffOption {
	return func(b *ExponentialBackoff) { b.maxDelay = d }
}

func WithMultiplier(m float64) BackoffOption {
	return func(b *ExponentialBackoff) { b.multiplier = m }
}

// WithJitter sets the spread as a fraction of the delay, kept within [0, 1].
func WithJitter(j float64) BackoffOption {
	return func(b *ExponentialBackoff) { b.jitter = math.Max(0, math.Min(1, j)) }
}

// WithRandom replaces the [0,1) source behind the jitter.
func WithRandom(f func() float64) BackoffOption {
	return func(b *ExponentialBackoff) { b.random = f }
}

// NewExponentialBackoff allows maxAttempts retries, -1 for no limit. Delays
// start at ddlstore.DefaultRetryInitialDelay, double each time and stop
// growing at ddlstore.DefaultRetryMaxDelay, with 10% jitter.
func NewExponentialBackoff(maxAttempts int, opts ...BackoffOption) *ExponentialBackoff {
	b := &ExponentialBackoff{
		initialDelay: ddlstore.DefaultRetryInitialDelay,
		maxDelay:     ddlstore.DefaultRetryMaxDelay,
		multiplier:   2,
		jitter:       0.1,
		maxAttempts:  maxAttempts,
		random:       rand.Float64,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *ExponentialBackoff) NextDelay(attempt int) time.Duration {
	n := float64(max(attempt, 0))
	d := float64(b.initialDelay) * math.Pow(b.multiplier, n)
	if b.jitter > 0 {
		d += d * b.jitter * (2*b.random() - 1)
	}

	switch {
	case math.IsNaN(d), math.IsInf(d, 0), d > float64(b.maxDelay):
		return b.maxDelay
	case d < 0:
		return 0
	}
	return time.Duration(d)
}

func (b *ExponentialBackoff) MaxAttempts() int { return b.maxAttempts }
