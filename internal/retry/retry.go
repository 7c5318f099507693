// Package retry runs fallible external calls under a bounded, randomized
// exponential backoff.
package retry

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/juparave/researchnote/internal/config"
)

// Policy is the retry shape shared by every external call
type Policy struct {
	MaxAttempts     int
	InitialInterval time.Duration
	MaxInterval     time.Duration

	// Permanent reports errors that must not be retried. Nil retries everything.
	Permanent func(error) bool
	// OnRetry is called before each backoff wait. Optional.
	OnRetry func(err error, wait time.Duration)
}

// FromConfig builds a Policy from the retry section of the config
func FromConfig(cfg config.RetryConfig) Policy {
	return Policy{
		MaxAttempts:     cfg.MaxAttempts,
		InitialInterval: cfg.InitialInterval,
		MaxInterval:     cfg.MaxInterval,
	}
}

// WithPermanent returns a copy of p that stops retrying when fn matches
func (p Policy) WithPermanent(fn func(error) bool) Policy {
	p.Permanent = fn
	return p
}

// WithOnRetry returns a copy of p that reports each retry to fn
func (p Policy) WithOnRetry(fn func(err error, wait time.Duration)) Policy {
	p.OnRetry = fn
	return p
}

func (p Policy) backOff() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	if p.InitialInterval > 0 {
		b.InitialInterval = p.InitialInterval
	}
	if p.MaxInterval > 0 {
		b.MaxInterval = p.MaxInterval
	}
	if b.MaxInterval < b.InitialInterval {
		b.MaxInterval = b.InitialInterval
	}
	return b
}

// Do invokes op until it succeeds, a permanent error is returned, the
// attempt budget is spent or ctx is done. The last error is returned as is.
func Do[T any](ctx context.Context, p Policy, op func() (T, error)) (T, error) {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	operation := func() (T, error) {
		v, err := op()
		if err != nil && p.Permanent != nil && p.Permanent(err) {
			return v, backoff.Permanent(err)
		}
		return v, err
	}

	opts := []backoff.RetryOption{
		backoff.WithBackOff(p.backOff()),
		backoff.WithMaxTries(uint(attempts)),
	}
	if p.OnRetry != nil {
		opts = append(opts, backoff.WithNotify(backoff.Notify(p.OnRetry)))
	}

	return backoff.Retry(ctx, operation, opts...)
}
