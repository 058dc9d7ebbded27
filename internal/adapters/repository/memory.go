package repository

import (
	"context"
	"sync"
	"time"

	"github.com/okian/kickoff/internal/domain/model"
	"github.com/okian/kickoff/pkg/metrics"
)

const backendMemory = "memory"

// MemoryStore keeps matches in a map guarded by a RWMutex.
type MemoryStore struct {
	mu   sync.RWMutex
	byID map[string]*model.Match
	opts options

	wg       sync.WaitGroup
	stopChan chan struct{}
	stopOnce sync.Once
}

// NewMemoryStore constructs a memory store and starts its sweeper, which
// expires stale matches and refreshes store metrics until ctx is done or
// Close is called.
func NewMemoryStore(ctx context.Context, opts ...Option) *MemoryStore {
	s := &MemoryStore{
		byID:     make(map[string]*model.Match),
		opts:     defaultOptions(),
		stopChan: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(&s.opts)
	}
	s.startSweeper(ctx)
	return s
}

func (s *MemoryStore) startSweeper(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.opts.sweepInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-s.stopChan:
				return
			case <-ticker.C:
				s.sweep()
			}
		}
	}()
}

// sweep drops expired matches and publishes the live count.
func (s *MemoryStore) sweep() {
	s.mu.Lock()
	if s.opts.ttl > 0 {
		now := s.opts.now()
		for id, m := range s.byID {
			if s.expired(m, now) {
				delete(s.byID, id)
			}
		}
	}
	count := len(s.byID)
	s.mu.Unlock()

	metrics.UpdateMatchCount(count)
}

func (s *MemoryStore) expired(m *model.Match, now time.Time) bool {
	return s.opts.ttl > 0 && now.Sub(m.UpdatedAt) > s.opts.ttl
}

// Close stops the sweeper.
func (s *MemoryStore) Close() error {
	s.stopOnce.Do(func() { close(s.stopChan) })
	s.wg.Wait()
	return nil
}

// Create implements Store.Create.
func (s *MemoryStore) Create(_ context.Context, m *model.Match) error {
	start := time.Now()
	defer observe(backendMemory, "create", start)

	if m == nil || m.ID == "" {
		return ErrInvalidMatch
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if cur, ok := s.byID[m.ID]; ok && !s.expired(cur, s.opts.now()) {
		return ErrAlreadyExists
	}
	s.byID[m.ID] = m.Clone()
	return nil
}

// Get implements Store.Get.
func (s *MemoryStore) Get(_ context.Context, id string) (*model.Match, error) {
	start := time.Now()
	defer observe(backendMemory, "get", start)

	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.byID[id]
	if !ok || s.expired(m, s.opts.now()) {
		return nil, ErrNotFound
	}
	return m.Clone(), nil
}

// Update implements Store.Update. fn runs under the write lock.
func (s *MemoryStore) Update(_ context.Context, id string, fn MutateFunc) (*model.Match, error) {
	start := time.Now()
	defer observe(backendMemory, "update", start)

	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.byID[id]
	if !ok || s.expired(cur, s.opts.now()) {
		return nil, ErrNotFound
	}
	next := cur.Clone()
	if err := fn(next); err != nil {
		return nil, err
	}
	next.ID = id
	s.byID[id] = next
	return next.Clone(), nil
}

// Count implements Store.Count.
func (s *MemoryStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.opts.ttl == 0 {
		return len(s.byID), nil
	}
	now := s.opts.now()
	n := 0
	for _, m := range s.byID {
		if !s.expired(m, now) {
			n++
		}
	}
	return n, nil
}

func observe(backend, op string, start time.Time) {
	metrics.RecordRepositoryLatency(backend, op, float64(time.Since(start).Microseconds())/1000)
}
