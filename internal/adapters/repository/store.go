// Package repository persists matches.
package repository

import (
	"context"

	"github.com/okian/kickoff/internal/domain/model"
)

// MutateFunc edits a private copy of a stored match. Returning an error
// aborts the update and leaves the stored match untouched.
type MutateFunc func(m *model.Match) error

// Store provides read/write access to matches. Implementations are safe
// for concurrent use and never hand out shared state.
type Store interface {
	// Create stores a new match. Returns ErrAlreadyExists when the id is taken.
	Create(ctx context.Context, m *model.Match) error

	// Get returns a copy of the match or ErrNotFound.
	Get(ctx context.Context, id string) (*model.Match, error)

	// Update applies fn atomically with respect to other updates of the
	// same match and returns the stored result.
	Update(ctx context.Context, id string, fn MutateFunc) (*model.Match, error)

	// Count returns the number of live matches.
	Count(ctx context.Context) (int, error)

	// Close releases background resources.
	Close() error
}
