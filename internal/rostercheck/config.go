// Package rostercheck drives a running service with random rosters and
// checks every answer against brute-force enumeration.
package rostercheck

import (
	"time"

	"github.com/okian/kickoff/internal/domain/model"
)

// Config holds configuration for a check run.
type Config struct {
	BaseURL  string        // Base URL of the service
	Rosters  int           // Number of rosters to generate
	Size     int           // Players per roster
	LockRate float64       // Chance that a player is locked to a side
	Workers  int           // Number of concurrent workers
	Timeout  time.Duration // HTTP request timeout
	Seed     int64         // Generator seed; 0 picks one from the clock
	Verbose  bool          // Log every verified roster
}

// Case is one generated roster and the request sent for it.
type Case struct {
	ID      int                 `json:"-"`
	Players []model.RosterEntry `json:"players"`
	Locks   map[string]string   `json:"locks,omitempty"`
}

// Stats holds run statistics.
type Stats struct {
	Generated int
	Submitted int
	Verified  int
	Rejected  int // answered with a non-200 status
	Failed    int // answered, but the answer is wrong
	StartTime time.Time
	Duration  time.Duration
}
