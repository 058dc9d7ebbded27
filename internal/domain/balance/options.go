package balance

import (
	"math/rand"
	"time"
)

// Option applies a configuration option to a single Balance call.
type Option func(*engine)

// WithSeed makes random tie-breaking reproducible.
func WithSeed(seed int64) Option {
	return func(e *engine) {
		e.rng = rand.New(rand.NewSource(seed)) //nolint:gosec // shuffling, not security
	}
}

// WithRand supplies the random source. The caller must not share it
// between concurrent calls.
func WithRand(r *rand.Rand) Option {
	return func(e *engine) {
		if r != nil {
			e.rng = r
		}
	}
}

// WithMaxStates stops the search with ErrSearchTooLarge once more than n
// (count, sum) states are reachable. n <= 0 removes the limit.
func WithMaxStates(n int) Option {
	return func(e *engine) {
		e.maxStates = n
	}
}

type engine struct {
	rng       *rand.Rand
	maxStates int
}

func newEngine(opts ...Option) *engine {
	e := &engine{}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *engine) random() *rand.Rand {
	if e.rng == nil {
		e.rng = rand.New(rand.NewSource(time.Now().UnixNano())) //nolint:gosec // shuffling, not security
	}
	return e.rng
}
