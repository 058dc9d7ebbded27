package balance

import "errors"

// Sentinel error kinds for this package. Callers match them with errors.Is.
var (
	ErrInvalidRosterSize         = errors.New("need an even, non-zero number of players")
	ErrOverlockedTeam            = errors.New("more players locked to one side than that side has slots")
	ErrNoFeasiblePartition       = errors.New("no feasible partition")
	ErrBackpointerReconstruction = errors.New("backpointer reconstruction failed")
	ErrSearchTooLarge            = errors.New("score spread makes the exact search too large")
)
