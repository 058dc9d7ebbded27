// Package balance splits a roster into two equal-size teams whose total
// scores are as close as possible.
//
// The pipeline is Normalize -> ResolveLocks -> optimize -> assemble. Every
// stage is a pure function of its inputs: a call allocates its own tables,
// holds no package state and is safe to run from many goroutines at once.
package balance

import "strings"

// Side identifies one of the two teams.
type Side string

// The two sides a player can be locked to.
const (
	SideA Side = "A"
	SideB Side = "B"
)

// ParseSide accepts "A"/"B" in any case, with surrounding whitespace.
func ParseSide(s string) (Side, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "A":
		return SideA, true
	case "B":
		return SideB, true
	default:
		return "", false
	}
}

// Valid reports whether s is SideA or SideB.
func (s Side) Valid() bool { return s == SideA || s == SideB }

// Player is a normalized roster entry.
type Player struct {
	Key   string  `json:"key"`
	Score float64 `json:"score"`
}

// Locker resolves the side a player is pinned to. Unmapped keys are free.
type Locker interface {
	Lookup(key string) (Side, bool)
}

// LockMap is the plain-map Locker.
type LockMap map[string]Side

// Lookup implements Locker.
func (m LockMap) Lookup(key string) (Side, bool) {
	side, ok := m[key]
	if !ok || !side.Valid() {
		return "", false
	}
	return side, true
}

// LockerFunc adapts a function to Locker.
type LockerFunc func(key string) (Side, bool)

// Lookup implements Locker.
func (f LockerFunc) Lookup(key string) (Side, bool) { return f(key) }

// TeamResult is one side of a partition.
type TeamResult struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Players []string `json:"players"`
	Score   float64  `json:"score"`
}

// PartitionResult is the engine output. Teams[0] is side A, Teams[1] side B.
type PartitionResult struct {
	Diff  float64       `json:"diff"`
	Teams [2]TeamResult `json:"teams"`
}

// Team returns the result for side.
func (r PartitionResult) Team(side Side) TeamResult {
	if side == SideB {
		return r.Teams[1]
	}
	return r.Teams[0]
}

// SideOf reports which side key landed on.
func (r PartitionResult) SideOf(key string) (Side, bool) {
	for i, team := range r.Teams {
		for _, k := range team.Players {
			if k == key {
				if i == 0 {
					return SideA, true
				}
				return SideB, true
			}
		}
	}
	return "", false
}

// Request is the full input of a balancing call.
type Request struct {
	Players          []Player
	Locks            Locker
	TeamAName        string
	TeamBName        string
	PreferRandomTies bool

	// Previous, when set, is the partition the caller last produced for
	// this roster. Among equally optimal partitions one that differs from
	// it is preferred.
	Previous *PartitionResult
}
