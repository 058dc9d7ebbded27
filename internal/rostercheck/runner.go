package rostercheck

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"runtime"
	"sync"
	"time"

	"github.com/okian/kickoff/pkg/logger"
	"go.uber.org/multierr"
)

// ErrCheckFailed is returned when at least one answer was wrong or refused.
var ErrCheckFailed = errors.New("roster check failed")

const (
	defaultWorkerMultiplier = 2
	maxReportedFailures     = 10
	percentageMultiplier    = 100
)

type outcome struct {
	c   Case
	err error
}

// Run generates rosters, submits them concurrently and verifies every
// answer. It returns the statistics together with ErrCheckFailed when any
// roster was refused or answered wrongly.
func Run(ctx context.Context, cfg *Config) (*Stats, error) {
	log := logger.Get().Named("rostercheck")
	stats := &Stats{StartTime: time.Now()}

	if cfg.Size <= 0 || cfg.Size%2 != 0 {
		return stats, fmt.Errorf("roster size must be even and positive, got %d", cfg.Size)
	}
	workers := cfg.Workers
	if workers < 1 {
		workers = runtime.NumCPU() * defaultWorkerMultiplier
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	log.Info(ctx, "starting roster check",
		logger.String("baseURL", cfg.BaseURL),
		logger.Int("rosters", cfg.Rosters),
		logger.Int("size", cfg.Size),
		logger.Float64("lockRate", cfg.LockRate),
		logger.Int("workers", workers),
		logger.Any("seed", seed),
	)

	client := NewHTTPClient(cfg.BaseURL, cfg.Timeout)
	if err := client.Health(ctx); err != nil {
		return stats, fmt.Errorf("service health check failed: %w", err)
	}

	cases := Generate(rand.New(rand.NewSource(seed)), cfg.Rosters, cfg.Size, cfg.LockRate) //nolint:gosec // reproducible test data
	stats.Generated = len(cases)

	jobs := make(chan Case, workers*defaultWorkerMultiplier)
	results := make(chan outcome, workers*defaultWorkerMultiplier)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for c := range jobs {
				res, err := client.Balance(ctx, c)
				if err == nil {
					err = Verify(c, res)
				} else {
					err = fmt.Errorf("submit: %w", err)
				}
				results <- outcome{c: c, err: err}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, c := range cases {
			select {
			case <-ctx.Done():
				return
			case jobs <- c:
			}
		}
	}()
	go func() {
		wg.Wait()
		close(results)
	}()

	var failures error
	for o := range results {
		stats.Submitted++
		var statusErr *StatusError
		switch {
		case o.err == nil:
			stats.Verified++
			if cfg.Verbose {
				log.Info(ctx, "roster verified", logger.Int("case", o.c.ID))
			}
			continue
		case errors.As(o.err, &statusErr):
			stats.Rejected++
		default:
			stats.Failed++
		}
		log.Warn(ctx, "roster check failed", logger.Int("case", o.c.ID), logger.Error(o.err))
		if len(multierr.Errors(failures)) < maxReportedFailures {
			failures = multierr.Append(failures, fmt.Errorf("case %d: %w", o.c.ID, o.err))
		}
	}

	stats.Duration = time.Since(stats.StartTime)
	displayFinalStats(ctx, log, stats)

	if err := ctx.Err(); err != nil {
		return stats, err
	}
	if failures != nil {
		return stats, fmt.Errorf("%w: %w", ErrCheckFailed, failures)
	}
	return stats, nil
}

// displayFinalStats logs the final run statistics.
func displayFinalStats(ctx context.Context, log logger.Logger, stats *Stats) {
	var successRate, perSecond float64
	if stats.Submitted > 0 {
		successRate = float64(stats.Verified) / float64(stats.Submitted) * percentageMultiplier
	}
	if stats.Duration > 0 {
		perSecond = float64(stats.Submitted) / stats.Duration.Seconds()
	}

	log.Info(ctx, "final statistics",
		logger.Int("generated", stats.Generated),
		logger.Int("submitted", stats.Submitted),
		logger.Int("verified", stats.Verified),
		logger.Int("rejected", stats.Rejected),
		logger.Int("failed", stats.Failed),
		logger.Duration("duration", stats.Duration),
		logger.Float64("successRate", successRate),
		logger.Float64("rostersPerSecond", perSecond),
	)
}
