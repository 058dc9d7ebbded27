package repository

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/okian/kickoff/internal/domain/balance"
	"github.com/okian/kickoff/internal/domain/model"
	"github.com/okian/kickoff/pkg/logger"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

func sampleMatch(id string) *model.Match {
	now := time.Now().UTC().Truncate(time.Second)
	return &model.Match{
		ID:   id,
		Name: "Thursday five-a-side",
		Roster: []model.RosterEntry{
			{ID: "a", Score: 8.0},
			{ID: "b", Score: "2"},
			{Name: "Cy", Score: 5.0},
			{ID: "d", Score: 5.0},
		},
		Locks:     map[string]balance.Side{"a": balance.SideA},
		TeamAName: "Bibs",
		TeamBName: "Shirts",
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// runStoreContract checks behavior every Store must share.
func runStoreContract(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	t.Run("create and get", func(t *testing.T) {
		m := sampleMatch("m-create")
		if err := s.Create(ctx, m); err != nil {
			t.Fatalf("create: %v", err)
		}
		got, err := s.Get(ctx, "m-create")
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if diff := cmp.Diff(m.Locks, got.Locks); diff != "" {
			t.Errorf("locks mismatch (-want +got):\n%s", diff)
		}
		if len(got.Roster) != 4 || got.Name != m.Name || got.TeamAName != "Bibs" {
			t.Errorf("unexpected match: %+v", got)
		}
		if err := s.Create(ctx, m); !errors.Is(err, ErrAlreadyExists) {
			t.Errorf("expected ErrAlreadyExists, got %v", err)
		}
	})

	t.Run("missing", func(t *testing.T) {
		if _, err := s.Get(ctx, "nope"); !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
		_, err := s.Update(ctx, "nope", func(*model.Match) error { return nil })
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound on update, got %v", err)
		}
		if err := s.Create(ctx, &model.Match{}); !errors.Is(err, ErrInvalidMatch) {
			t.Errorf("expected ErrInvalidMatch, got %v", err)
		}
	})

	t.Run("update", func(t *testing.T) {
		if err := s.Create(ctx, sampleMatch("m-update")); err != nil {
			t.Fatalf("create: %v", err)
		}
		part := &balance.PartitionResult{Teams: [2]balance.TeamResult{
			{ID: "A", Name: "Bibs", Players: []string{"a", "b"}, Score: 10},
			{ID: "B", Name: "Shirts", Players: []string{"name:cy", "d"}, Score: 10},
		}}
		out, err := s.Update(ctx, "m-update", func(m *model.Match) error {
			m.Partition = part
			m.Revision++
			return nil
		})
		if err != nil {
			t.Fatalf("update: %v", err)
		}
		if out.Revision != 1 {
			t.Errorf("expected revision 1, got %d", out.Revision)
		}
		got, _ := s.Get(ctx, "m-update")
		if diff := cmp.Diff(part, got.Partition); diff != "" {
			t.Errorf("partition mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("failed mutation leaves match untouched", func(t *testing.T) {
		if err := s.Create(ctx, sampleMatch("m-abort")); err != nil {
			t.Fatalf("create: %v", err)
		}
		boom := errors.New("boom")
		_, err := s.Update(ctx, "m-abort", func(m *model.Match) error {
			m.Name = "changed"
			return boom
		})
		if !errors.Is(err, boom) {
			t.Fatalf("expected mutation error, got %v", err)
		}
		got, _ := s.Get(ctx, "m-abort")
		if got.Name == "changed" {
			t.Error("aborted mutation was persisted")
		}
	})

	t.Run("returned matches are private copies", func(t *testing.T) {
		if err := s.Create(ctx, sampleMatch("m-copy")); err != nil {
			t.Fatalf("create: %v", err)
		}
		got, _ := s.Get(ctx, "m-copy")
		got.Roster[0].ID = "mutated"
		got.Locks["zzz"] = balance.SideB
		again, _ := s.Get(ctx, "m-copy")
		if again.Roster[0].ID != "a" || len(again.Locks) != 1 {
			t.Errorf("store state leaked through a returned copy: %+v", again)
		}
	})

	t.Run("concurrent updates are not lost", func(t *testing.T) {
		if err := s.Create(ctx, sampleMatch("m-race")); err != nil {
			t.Fatalf("create: %v", err)
		}
		const writers = 16
		var wg sync.WaitGroup
		errs := make(chan error, writers)
		for i := 0; i < writers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := s.Update(ctx, "m-race", func(m *model.Match) error {
					m.Revision++
					return nil
				})
				errs <- err
			}()
		}
		wg.Wait()
		close(errs)
		applied := 0
		for err := range errs {
			switch {
			case err == nil:
				applied++
			case errors.Is(err, ErrConflict):
			default:
				t.Errorf("unexpected update error: %v", err)
			}
		}
		got, _ := s.Get(ctx, "m-race")
		if got.Revision != applied {
			t.Errorf("expected revision %d, got %d", applied, got.Revision)
		}
	})

	t.Run("count", func(t *testing.T) {
		before, err := s.Count(ctx)
		if err != nil {
			t.Fatalf("count: %v", err)
		}
		for i := 0; i < 3; i++ {
			if err := s.Create(ctx, sampleMatch(fmt.Sprintf("m-count-%d", i))); err != nil {
				t.Fatalf("create: %v", err)
			}
		}
		after, _ := s.Count(ctx)
		if after-before != 3 {
			t.Errorf("expected 3 more matches, got %d -> %d", before, after)
		}
	})
}

func TestMemoryStore(t *testing.T) {
	s := NewMemoryStore(context.Background())
	defer func() { _ = s.Close() }()
	runStoreContract(t, s)
}

func TestMemoryStore_Expiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	var mu sync.Mutex
	clock := func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return now
	}
	advance := func(d time.Duration) {
		mu.Lock()
		now = now.Add(d)
		mu.Unlock()
	}

	s := NewMemoryStore(ctx, WithTTL(time.Hour), WithClock(clock), WithSweepInterval(time.Hour))
	defer func() { _ = s.Close() }()

	m := sampleMatch("m-ttl")
	m.UpdatedAt = clock()
	if err := s.Create(ctx, m); err != nil {
		t.Fatalf("create: %v", err)
	}

	advance(30 * time.Minute)
	if _, err := s.Get(ctx, "m-ttl"); err != nil {
		t.Fatalf("match expired early: %v", err)
	}

	advance(31 * time.Minute)
	if _, err := s.Get(ctx, "m-ttl"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected expired match to be gone, got %v", err)
	}
	if n, _ := s.Count(ctx); n != 0 {
		t.Errorf("expected count 0 after expiry, got %d", n)
	}

	s.sweep()
	s.mu.RLock()
	held := len(s.byID)
	s.mu.RUnlock()
	if held != 0 {
		t.Errorf("sweep should drop expired matches, %d left", held)
	}

	// An expired id can be reused.
	m.UpdatedAt = clock()
	if err := s.Create(ctx, m); err != nil {
		t.Errorf("re-create after expiry: %v", err)
	}
}

func TestMemoryStore_CloseIsIdempotent(t *testing.T) {
	s := NewMemoryStore(context.Background(), WithSweepInterval(time.Millisecond))
	time.Sleep(5 * time.Millisecond)
	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
}
