// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"
	eventqueue "github.com/okian/kickoff/internal/adapters/mq/queue"
	workerpool "github.com/okian/kickoff/internal/adapters/mq/worker"
	"github.com/okian/kickoff/internal/adapters/repository"
	"github.com/okian/kickoff/internal/domain/balance"
	"github.com/okian/kickoff/internal/domain/dedupe"
	"github.com/okian/kickoff/internal/domain/model"
	"github.com/okian/kickoff/internal/domain/notify"
	"github.com/okian/kickoff/internal/domain/types"
	"github.com/okian/kickoff/pkg/logger"
	"github.com/okian/kickoff/pkg/metrics"
	"go.uber.org/multierr"
)

// Service implements the API dependencies for the balancing system.
type Service struct {
	mu sync.RWMutex

	// Core components
	store    repository.Store
	deduper  dedupe.Deduper
	queue    eventqueue.Queue
	notifier notify.Notifier
	pool     *workerpool.Pool

	// Configuration
	workerCount      int
	queueSize        int
	dedupeSize       int
	maxRosterSize    int
	maxSearchStates  int
	teamAName        string
	teamBName        string
	preferRandomTies bool
	balanceOpts      []balance.Option
	now              func() time.Time

	// State
	started bool

	logger logger.Logger
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount:      runtime.NumCPU() * 2,
		queueSize:        10_000,
		dedupeSize:       100_000,
		maxRosterSize:    64,
		maxSearchStates:  2_000_000,
		teamAName:        "Team A",
		teamBName:        "Team B",
		preferRandomTies: true,
		now:              time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start initializes and starts the service components.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Named("service")
	}
	s.logger.Info(ctx, "starting balancing service...")

	if s.store == nil {
		s.store = repository.NewMemoryStore(ctx)
		s.logger.Info(ctx, "using in-memory match store")
	}
	if s.notifier == nil {
		s.notifier = notify.NewLogNotifier(logger.Named("notify"))
	}
	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))
	s.queue = eventqueue.NewInMemoryQueue(eventqueue.WithCapacity(s.queueSize))
	s.pool = workerpool.NewPool(s.workerCount, s.queue, s.notifier, s.deduper)
	s.pool.Start(ctx)

	s.started = true
	s.logger.Info(ctx, "balancing service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.Int("maxRosterSize", s.maxRosterSize),
		logger.Bool("preferRandomTies", s.preferRandomTies),
	)
	return nil
}

// Stop drains pending notifications until ctx expires, then closes the
// store. Errors from both steps are combined.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return nil
	}
	s.logger.Info(ctx, "stopping balancing service...")

	var err error
	if s.pool != nil {
		err = multierr.Append(err, s.pool.Shutdown(ctx))
	}
	if s.store != nil {
		err = multierr.Append(err, s.store.Close())
	}

	s.started = false
	if err != nil {
		s.logger.Warn(ctx, "balancing service stopped with errors", logger.Error(err))
		return err
	}
	s.logger.Info(ctx, "balancing service stopped")
	return nil
}

func (s *Service) ready() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return ErrNotStarted
	}
	return nil
}

// Balance runs the engine on a roster that is not stored anywhere.
func (s *Service) Balance(ctx context.Context, in types.BalanceInput) (balance.PartitionResult, error) {
	random := s.preferRandomTies
	if in.PreferRandomTies != nil {
		random = *in.PreferRandomTies
	}
	return s.run(ctx, balance.Request{
		Players:          model.NormalizeRoster(in.Roster),
		Locks:            in.Locks,
		TeamAName:        s.nameOr(in.TeamAName, s.teamAName),
		TeamBName:        s.nameOr(in.TeamBName, s.teamBName),
		PreferRandomTies: random,
	})
}

func (s *Service) nameOr(name, fallback string) string {
	if name == "" {
		return fallback
	}
	return name
}

// run applies the roster size guard, calls the engine and records the
// outcome.
func (s *Service) run(ctx context.Context, req balance.Request) (balance.PartitionResult, error) {
	log := s.log()
	if n := len(req.Players); n > s.maxRosterSize {
		metrics.RecordBalance(metrics.OutcomeInvalid)
		log.Warn(ctx, "roster too large", logger.Int("players", n), logger.Int("max", s.maxRosterSize))
		return balance.PartitionResult{}, fmt.Errorf("%w: %d players, limit %d", ErrRosterTooLarge, n, s.maxRosterSize)
	}

	start := time.Now()
	opts := append([]balance.Option{balance.WithMaxStates(s.maxSearchStates)}, s.balanceOpts...)
	res, stats, err := balance.BalanceWithStats(req, opts...)
	metrics.RecordBalanceLatency(float64(time.Since(start).Microseconds()) / 1000)

	if err != nil {
		outcome := metrics.OutcomeInternal
		if IsInvalidRoster(err) {
			outcome = metrics.OutcomeInvalid
		}
		metrics.RecordBalance(outcome)
		log.Warn(ctx, "balance failed",
			logger.Int("players", stats.Players),
			logger.Int("states", stats.States),
			logger.String("outcome", outcome),
			logger.Error(err),
		)
		return balance.PartitionResult{}, err
	}

	metrics.RecordBalance(metrics.OutcomeOK)
	metrics.RecordBalanceResult(stats.Players, res.Diff, stats.States, stats.Ties)
	log.Debug(ctx, "balanced roster",
		logger.Int("players", stats.Players),
		logger.Int("locked", stats.Locked),
		logger.Int("states", stats.States),
		logger.Int("ties", stats.Ties),
		logger.Float64("diff", res.Diff),
		logger.Duration("took", time.Since(start)),
	)
	return res, nil
}

// IsInvalidRoster reports whether err is the caller's fault rather than
// an engine failure. A roster whose score spread exceeds the search budget
// counts as the caller's fault.
func IsInvalidRoster(err error) bool {
	return errors.Is(err, balance.ErrInvalidRosterSize) ||
		errors.Is(err, balance.ErrOverlockedTeam) ||
		errors.Is(err, balance.ErrSearchTooLarge) ||
		errors.Is(err, ErrRosterTooLarge)
}

func (s *Service) log() logger.Logger {
	s.mu.RLock()
	l := s.logger
	s.mu.RUnlock()
	if l == nil {
		return logger.Nop()
	}
	return l
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats(ctx context.Context) map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]any{
		"started":          s.started,
		"workerCount":      s.workerCount,
		"queueSize":        s.queueSize,
		"dedupeSize":       s.dedupeSize,
		"maxRosterSize":    s.maxRosterSize,
		"maxSearchStates":  s.maxSearchStates,
		"preferRandomTies": s.preferRandomTies,
	}
	if !s.started {
		return stats
	}

	stats["queueLength"] = s.queue.Len(ctx)
	stats["deliveredKeys"] = s.deduper.Size()
	if n, err := s.store.Count(ctx); err == nil {
		stats["matches"] = n
		metrics.UpdateMatchCount(n)
	} else {
		s.logger.Warn(ctx, "count matches", logger.Error(err))
	}
	return stats
}

func newMatchID() string {
	return uuid.NewString()
}
