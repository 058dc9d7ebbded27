package balance

import "fmt"

// Pools is a roster split by lock state. Each slice keeps roster order.
type Pools struct {
	LockedA []Player
	LockedB []Player
	Free    []Player

	TeamSize   int
	FreeSlotsA int
	FreeSlotsB int
}

// ResolveLocks splits roster into locked and free pools and checks that
// both sides can still be filled. Lock entries for keys that are not on
// the roster are ignored. A nil Locker leaves every player free.
func ResolveLocks(roster []Player, locks Locker) (Pools, error) {
	total := len(roster)
	if total == 0 || total%2 != 0 {
		return Pools{}, fmt.Errorf("%w: got %d", ErrInvalidRosterSize, total)
	}

	p := Pools{TeamSize: total / 2}
	for _, pl := range roster {
		side, ok := Side(""), false
		if locks != nil {
			side, ok = locks.Lookup(pl.Key)
		}
		switch {
		case ok && side == SideA:
			p.LockedA = append(p.LockedA, pl)
		case ok && side == SideB:
			p.LockedB = append(p.LockedB, pl)
		default:
			p.Free = append(p.Free, pl)
		}
	}

	if len(p.LockedA) > p.TeamSize {
		return Pools{}, fmt.Errorf("%w: %d locked to A, team size %d", ErrOverlockedTeam, len(p.LockedA), p.TeamSize)
	}
	if len(p.LockedB) > p.TeamSize {
		return Pools{}, fmt.Errorf("%w: %d locked to B, team size %d", ErrOverlockedTeam, len(p.LockedB), p.TeamSize)
	}

	p.FreeSlotsA = p.TeamSize - len(p.LockedA)
	p.FreeSlotsB = p.TeamSize - len(p.LockedB)
	return p, nil
}
