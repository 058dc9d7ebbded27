package service

import (
	"time"

	"github.com/okian/kickoff/internal/adapters/repository"
	"github.com/okian/kickoff/internal/domain/balance"
	"github.com/okian/kickoff/internal/domain/notify"
	"github.com/okian/kickoff/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithStore sets the match store. The service closes it on Stop.
// Defaults to an in-memory store.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithNotifier sets where lineup notifications are delivered.
// Defaults to the structured log.
func WithNotifier(n notify.Notifier) Option {
	return func(s *Service) {
		if n != nil {
			s.notifier = n
		}
	}
}

// WithWorkerCount sets the number of delivery workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the maximum size of the notification queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets how many delivered notification keys are remembered.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithMaxRosterSize caps the normalized roster size accepted for balancing.
func WithMaxRosterSize(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxRosterSize = n
		}
	}
}

// WithMaxSearchStates bounds the engine's (count, sum) table. Rosters with
// widely spread scores fail with balance.ErrSearchTooLarge past it.
func WithMaxSearchStates(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxSearchStates = n
		}
	}
}

// WithTeamNames sets the names used when a request leaves them empty.
func WithTeamNames(a, b string) Option {
	return func(s *Service) {
		if a != "" {
			s.teamAName = a
		}
		if b != "" {
			s.teamBName = b
		}
	}
}

// WithPreferRandomTies sets the default tie-breaking mode.
func WithPreferRandomTies(random bool) Option {
	return func(s *Service) {
		s.preferRandomTies = random
	}
}

// WithBalanceOptions passes options to every engine call, e.g.
// balance.WithSeed for reproducible runs.
func WithBalanceOptions(opts ...balance.Option) Option {
	return func(s *Service) {
		s.balanceOpts = append(s.balanceOpts, opts...)
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock overrides the time source for match timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}
