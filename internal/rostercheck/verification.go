package rostercheck

import (
	"errors"
	"fmt"
	"math"
	"math/bits"
	"strings"

	"github.com/okian/kickoff/internal/domain/balance"
	"go.uber.org/multierr"
)

// MaxBruteForceSize is the largest roster whose optimum is enumerated.
// Larger rosters are only checked for completeness and locks.
const MaxBruteForceSize = 20

// Verification failures.
var (
	ErrIncomplete = errors.New("players missing or repeated")
	ErrUnbalanced = errors.New("teams differ in size")
	ErrLockBroken = errors.New("locked player on the wrong side")
	ErrBadTotals  = errors.New("reported totals do not add up")
	ErrNotOptimal = errors.New("a smaller difference exists")
)

// Verify checks res against c. Every failed property is reported.
func Verify(c Case, res balance.PartitionResult) error {
	scores := make(map[string]int64, len(c.Players))
	for _, p := range c.Players {
		scores[p.ID] = tenths(balance.CoerceScore(p.Score))
	}

	var err error
	seen := make(map[string]int, len(scores))
	var totals [2]int64
	for i, team := range res.Teams {
		for _, key := range team.Players {
			seen[key]++
			totals[i] += scores[key]
			want := "A"
			if i == 1 {
				want = "B"
			}
			if side, ok := c.Locks[key]; ok && !strings.EqualFold(side, want) {
				err = multierr.Append(err, fmt.Errorf("%w: %s locked to %s", ErrLockBroken, key, side))
			}
		}
	}
	for key := range scores {
		if seen[key] != 1 {
			err = multierr.Append(err, fmt.Errorf("%w: %s appears %d times", ErrIncomplete, key, seen[key]))
		}
	}
	if len(seen) != len(scores) {
		err = multierr.Append(err, fmt.Errorf("%w: %d keys for %d players", ErrIncomplete, len(seen), len(scores)))
	}
	if len(res.Teams[0].Players) != len(res.Teams[1].Players) {
		err = multierr.Append(err, fmt.Errorf("%w: %d vs %d", ErrUnbalanced,
			len(res.Teams[0].Players), len(res.Teams[1].Players)))
	}

	got := abs(totals[0] - totals[1])
	if tenths(res.Diff) != got ||
		tenths(res.Teams[0].Score) != totals[0] ||
		tenths(res.Teams[1].Score) != totals[1] {
		err = multierr.Append(err, fmt.Errorf("%w: diff %.1f, teams %.1f/%.1f", ErrBadTotals,
			res.Diff, res.Teams[0].Score, res.Teams[1].Score))
	}

	if len(c.Players) <= MaxBruteForceSize {
		if best, ok := BestDiff(c); ok && best < got {
			err = multierr.Append(err, fmt.Errorf("%w: got %.1f, best %.1f", ErrNotOptimal,
				float64(got)/10, float64(best)/10))
		}
	}
	return err
}

// BestDiff enumerates every lock-respecting split of c and returns the
// smallest difference in tenths. ok is false when no split exists.
func BestDiff(c Case) (best int64, ok bool) {
	n := len(c.Players)
	if n == 0 || n%2 != 0 || n > 62 {
		return 0, false
	}
	var lockA, lockB uint64
	var total int64
	scores := make([]int64, n)
	for i, p := range c.Players {
		scores[i] = tenths(balance.CoerceScore(p.Score))
		total += scores[i]
		switch strings.ToUpper(c.Locks[p.ID]) {
		case "A":
			lockA |= 1 << i
		case "B":
			lockB |= 1 << i
		}
	}

	best = math.MaxInt64
	for mask := uint64(0); mask < 1<<n; mask++ {
		if bits.OnesCount64(mask) != n/2 || mask&lockA != lockA || mask&lockB != 0 {
			continue
		}
		var sideA int64
		for i := 0; i < n; i++ {
			if mask&(1<<i) != 0 {
				sideA += scores[i]
			}
		}
		if d := abs(2*sideA - total); d < best {
			best = d
		}
	}
	return best, best != math.MaxInt64
}

func tenths(x float64) int64 {
	return int64(math.Round(x * 10))
}

func abs(x int64) int64 {
	if x < 0 {
		return -x
	}
	return x
}
