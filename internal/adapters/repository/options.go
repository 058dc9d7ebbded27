package repository

import "time"

type options struct {
	ttl           time.Duration
	sweepInterval time.Duration
	keyPrefix     string
	maxRetries    int
	now           func() time.Time
}

func defaultOptions() options {
	return options{
		sweepInterval: 5 * time.Second,
		keyPrefix:     "kickoff:",
		maxRetries:    8,
		now:           time.Now,
	}
}

// Option applies a configuration option to a Store.
type Option func(*options)

// WithTTL expires matches ttl after their last update. Zero disables expiry.
func WithTTL(ttl time.Duration) Option {
	return func(o *options) {
		if ttl >= 0 {
			o.ttl = ttl
		}
	}
}

// WithSweepInterval sets how often background expiry and metrics run.
func WithSweepInterval(interval time.Duration) Option {
	return func(o *options) {
		if interval > 0 {
			o.sweepInterval = interval
		}
	}
}

// WithKeyPrefix namespaces Redis keys.
func WithKeyPrefix(prefix string) Option {
	return func(o *options) {
		o.keyPrefix = prefix
	}
}

// WithMaxRetries bounds optimistic transaction retries on the Redis store.
func WithMaxRetries(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxRetries = n
		}
	}
}

// WithClock overrides the time source used for expiry.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}
