package service

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"

	eventqueue "github.com/okian/kickoff/internal/adapters/mq/queue"
	"github.com/okian/kickoff/internal/adapters/repository"
	"github.com/okian/kickoff/internal/domain/balance"
	"github.com/okian/kickoff/internal/domain/model"
	"github.com/okian/kickoff/internal/domain/notify"
	"github.com/okian/kickoff/internal/domain/types"
	"github.com/okian/kickoff/pkg/logger"
	"github.com/okian/kickoff/pkg/metrics"
)

// CreateMatch stores a new match at revision 1. Locks naming players not
// on the roster are dropped.
func (s *Service) CreateMatch(ctx context.Context, in types.MatchInput) (*model.Match, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	now := s.now()
	m := &model.Match{
		ID:        newMatchID(),
		Name:      in.Name,
		Roster:    slices.Clone(in.Roster),
		Locks:     maps.Clone(in.Locks),
		TeamAName: s.nameOr(in.TeamAName, s.teamAName),
		TeamBName: s.nameOr(in.TeamBName, s.teamBName),
		Revision:  1,
		CreatedAt: now,
		UpdatedAt: now,
	}
	m.PruneLocks()

	if err := s.store.Create(ctx, m); err != nil {
		metrics.RecordMatchOperation("create", metrics.OutcomeInternal)
		return nil, fmt.Errorf("create match: %w", err)
	}
	metrics.RecordMatchOperation("create", metrics.OutcomeOK)
	s.log().Info(ctx, "match created",
		logger.String("match", m.ID),
		logger.Int("players", len(m.Players())),
		logger.Int("locks", len(m.Locks)),
	)
	return m, nil
}

// GetMatch returns the stored match.
func (s *Service) GetMatch(ctx context.Context, id string) (*model.Match, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	m, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get match %s: %w", id, err)
	}
	return m, nil
}

// UpdateRoster replaces the roster of an open match. The stored partition
// is cleared and locks for removed players are dropped.
func (s *Service) UpdateRoster(ctx context.Context, id string, roster []model.RosterEntry) (*model.Match, error) {
	return s.mutate(ctx, "roster", id, func(m *model.Match) error {
		m.Roster = slices.Clone(roster)
		m.PruneLocks()
		return nil
	})
}

// SetLocks replaces the lock map of an open match. Keys that are not on
// the roster are ignored.
func (s *Service) SetLocks(ctx context.Context, id string, locks map[string]balance.Side) (*model.Match, error) {
	for key, side := range locks {
		if !side.Valid() {
			return nil, fmt.Errorf("%w: lock %q has side %q", ErrInvalidLock, key, side)
		}
	}
	return s.mutate(ctx, "locks", id, func(m *model.Match) error {
		m.Locks = maps.Clone(locks)
		m.PruneLocks()
		return nil
	})
}

// mutate applies an edit that invalidates the current partition.
func (s *Service) mutate(ctx context.Context, op, id string, edit func(*model.Match) error) (*model.Match, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	m, err := s.store.Update(ctx, id, func(m *model.Match) error {
		if err := m.CheckMutable(); err != nil {
			return err
		}
		if err := edit(m); err != nil {
			return err
		}
		m.Partition = nil
		m.Revision++
		m.UpdatedAt = s.now()
		return nil
	})
	if err != nil {
		metrics.RecordMatchOperation(op, outcomeOf(err))
		return nil, fmt.Errorf("update %s of match %s: %w", op, id, err)
	}
	metrics.RecordMatchOperation(op, metrics.OutcomeOK)
	return m, nil
}

// BalanceMatch partitions the stored roster and saves the result. With
// random ties the previous partition is avoided when another optimal one
// exists. The search runs on a snapshot; if the match changed meanwhile
// the result is discarded with repository.ErrConflict.
func (s *Service) BalanceMatch(ctx context.Context, id string, preferRandomTies *bool) (*model.Match, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	random := s.preferRandomTies
	if preferRandomTies != nil {
		random = *preferRandomTies
	}

	m, err := s.balanceSnapshot(ctx, id, random)
	if err != nil {
		metrics.RecordMatchOperation("balance", outcomeOf(err))
		return nil, fmt.Errorf("balance match %s: %w", id, err)
	}
	metrics.RecordMatchOperation("balance", metrics.OutcomeOK)
	return m, nil
}

func (s *Service) balanceSnapshot(ctx context.Context, id string, random bool) (*model.Match, error) {
	snap, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := snap.CheckMutable(); err != nil {
		return nil, err
	}
	req := balance.Request{
		Players:          snap.Players(),
		Locks:            snap.LockMap(),
		TeamAName:        snap.TeamAName,
		TeamBName:        snap.TeamBName,
		PreferRandomTies: random,
	}
	if random {
		req.Previous = snap.Partition
	}
	res, err := s.run(ctx, req)
	if err != nil {
		return nil, err
	}

	// Stores may retry the callback, so it only checks and assigns.
	return s.store.Update(ctx, id, func(m *model.Match) error {
		if err := m.CheckMutable(); err != nil {
			return err
		}
		if m.Revision != snap.Revision {
			return fmt.Errorf("%w: revision %d became %d during balancing",
				repository.ErrConflict, snap.Revision, m.Revision)
		}
		m.Partition = &res
		m.Revision++
		m.UpdatedAt = s.now()
		return nil
	})
}

// FinalizeMatch freezes the match and queues one notification per player.
// Finalizing again re-queues the lineup; already delivered notifications
// are suppressed by the workers.
func (s *Service) FinalizeMatch(ctx context.Context, id string) (*model.Match, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	m, err := s.store.Update(ctx, id, func(m *model.Match) error {
		if m.Partition == nil {
			return model.ErrNotBalanced
		}
		if !m.Finalized {
			m.Finalized = true
			m.UpdatedAt = s.now()
		}
		return nil
	})
	if err != nil {
		metrics.RecordMatchOperation("finalize", outcomeOf(err))
		return nil, fmt.Errorf("finalize match %s: %w", id, err)
	}

	batch, err := notify.FanOut(m, s.now())
	if err != nil {
		metrics.RecordMatchOperation("finalize", metrics.OutcomeInternal)
		return nil, fmt.Errorf("finalize match %s: %w", id, err)
	}
	if err := s.queue.EnqueueAll(ctx, batch); err != nil {
		if errors.Is(err, eventqueue.ErrQueueFull) {
			err = fmt.Errorf("%w: %w", ErrBackpressure, err)
		}
		metrics.RecordMatchOperation("finalize", outcomeOf(err))
		return nil, fmt.Errorf("finalize match %s: %w", id, err)
	}
	metrics.RecordMatchOperation("finalize", metrics.OutcomeOK)
	s.log().Info(ctx, "match finalized",
		logger.String("match", m.ID),
		logger.Int("revision", m.Revision),
		logger.Int("notifications", len(batch)),
	)
	return m, nil
}

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeOK
	case IsInvalidRoster(err),
		errors.Is(err, model.ErrMatchFinalized),
		errors.Is(err, model.ErrNotBalanced),
		errors.Is(err, ErrInvalidLock),
		errors.Is(err, repository.ErrConflict):
		return metrics.OutcomeInvalid
	default:
		return metrics.OutcomeInternal
	}
}
