// Package types contains common types used across the application
package types

import (
	"time"

	"github.com/okian/kickoff/internal/domain/balance"
	"github.com/okian/kickoff/internal/domain/model"
)

// PlayerView is one normalized roster row as the API returns it.
type PlayerView struct {
	Key    string  `json:"key"`
	Score  float64 `json:"score"`
	Locked string  `json:"locked,omitempty"`
	Side   string  `json:"side,omitempty"`
}

// MatchView is the read shape of a stored match.
type MatchView struct {
	ID        string                   `json:"id"`
	Name      string                   `json:"name"`
	TeamAName string                   `json:"team_a_name"`
	TeamBName string                   `json:"team_b_name"`
	Players   []PlayerView             `json:"players"`
	Partition *balance.PartitionResult `json:"partition,omitempty"`
	Revision  int                      `json:"revision"`
	Finalized bool                     `json:"finalized"`
	CreatedAt time.Time                `json:"created_at"`
	UpdatedAt time.Time                `json:"updated_at"`
}

// NewMatchView builds the API view of m.
func NewMatchView(m *model.Match) MatchView {
	players := m.Players()
	views := make([]PlayerView, len(players))
	for i, p := range players {
		v := PlayerView{Key: p.Key, Score: p.Score}
		if side, ok := m.LockMap().Lookup(p.Key); ok {
			v.Locked = string(side)
		}
		if m.Partition != nil {
			if side, ok := m.Partition.SideOf(p.Key); ok {
				v.Side = string(side)
			}
		}
		views[i] = v
	}
	return MatchView{
		ID:        m.ID,
		Name:      m.Name,
		TeamAName: m.TeamAName,
		TeamBName: m.TeamBName,
		Players:   views,
		Partition: m.Partition,
		Revision:  m.Revision,
		Finalized: m.Finalized,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

// BalanceInput is a stateless balancing request.
type BalanceInput struct {
	Roster    []model.RosterEntry
	Locks     balance.Locker
	TeamAName string
	TeamBName string

	// PreferRandomTies overrides the configured default when set.
	PreferRandomTies *bool
}

// MatchInput describes a match to create.
type MatchInput struct {
	Name      string
	Roster    []model.RosterEntry
	Locks     map[string]balance.Side
	TeamAName string
	TeamBName string
}
