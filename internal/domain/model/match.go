// Package model contains domain models passed between layers.
package model

import (
	"maps"
	"slices"
	"time"

	"github.com/okian/kickoff/internal/domain/balance"
)

// RosterEntry is a player record as clients submit it. Score may be a
// number or a numeric string; ID may be empty when Name is set.
type RosterEntry struct {
	ID    string `json:"id,omitempty"`
	Name  string `json:"name,omitempty"`
	Score any    `json:"score"`
}

// RosterAccessors resolve identity and score for the balance normalizer.
var RosterAccessors = balance.Accessors[RosterEntry]{
	Key:   func(e RosterEntry) string { return e.ID },
	Score: func(e RosterEntry) any { return e.Score },
	Name:  func(e RosterEntry) string { return e.Name },
}

// NormalizeRoster returns the unique, keyed players of entries.
func NormalizeRoster(entries []RosterEntry) []balance.Player {
	return balance.Normalize(entries, RosterAccessors)
}

// Match is a stored game with its roster, locks and latest partition.
type Match struct {
	ID        string                  `json:"id"`
	Name      string                  `json:"name"`
	Roster    []RosterEntry           `json:"roster"`
	Locks     map[string]balance.Side `json:"locks,omitempty"`
	TeamAName string                  `json:"team_a_name"`
	TeamBName string                  `json:"team_b_name"`

	Partition *balance.PartitionResult `json:"partition,omitempty"`
	Revision  int                      `json:"revision"`
	Finalized bool                     `json:"finalized"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Players is the normalized roster.
func (m *Match) Players() []balance.Player {
	return NormalizeRoster(m.Roster)
}

// LockMap returns the match locks as a balance.LockMap.
func (m *Match) LockMap() balance.LockMap {
	return balance.LockMap(m.Locks)
}

// PruneLocks drops locks whose player is no longer on the roster.
func (m *Match) PruneLocks() {
	if len(m.Locks) == 0 {
		return
	}
	onRoster := make(map[string]struct{}, len(m.Roster))
	for _, p := range m.Players() {
		onRoster[p.Key] = struct{}{}
	}
	for key := range m.Locks {
		if _, ok := onRoster[key]; !ok {
			delete(m.Locks, key)
		}
	}
}

// Clone returns a deep copy so stores never hand out shared state.
func (m *Match) Clone() *Match {
	if m == nil {
		return nil
	}
	c := *m
	c.Roster = slices.Clone(m.Roster)
	c.Locks = maps.Clone(m.Locks)
	if m.Partition != nil {
		p := *m.Partition
		for i := range p.Teams {
			p.Teams[i].Players = slices.Clone(m.Partition.Teams[i].Players)
		}
		c.Partition = &p
	}
	return &c
}
