package balance

import (
	"fmt"
	"math"
	"math/rand"
	"slices"
)

// scoreScale is the fixed-point factor applied before any sum comparison.
// One decimal digit of precision is kept.
const scoreScale = 10

// maxScaled bounds a single scaled score so that sums of a few thousand
// players cannot overflow int64.
const maxScaled = int64(1) << 50

func toScaled(x float64) int64 {
	if math.IsNaN(x) {
		return 0
	}
	scaled := math.Round(x * scoreScale)
	if scaled > float64(maxScaled) {
		return maxScaled
	}
	if scaled < -float64(maxScaled) {
		return -maxScaled
	}
	return int64(scaled)
}

func fromScaled(x int64) float64 {
	return float64(x) / scoreScale
}

// backpointer records how a sum at count c was first reached: by adding
// candidate index to prevSum at count c-1.
type backpointer struct {
	prevSum int64
	index   int
}

// searchInput is everything the optimizer needs. It knows nothing about
// keys or sides.
type searchInput struct {
	scores  []int64 // scaled free-pool scores
	slots   int     // how many of them go to side A
	lockedA int64   // scaled total already on side A
	total   int64   // scaled total of the whole roster

	rng    *rand.Rand       // nil means deterministic
	reject func([]int) bool // optional veto over a reconstructed choice

	maxStates int // 0 means unbounded
}

type searchResult struct {
	chosen []int // indices into scores, ascending
	gap    int64 // |2*sideA - total|, scaled
	states int   // reachable (count, sum) pairs
	ties   int   // distinct optimal sums
}

// search runs the bounded-count subset-sum DP. table[c] maps every sum
// reachable by picking exactly c of the candidates processed so far to the
// backpointer that first produced it.
func search(in searchInput) (searchResult, error) {
	n := len(in.scores)
	if in.slots < 0 || in.slots > n {
		return searchResult{}, fmt.Errorf("%w: %d slots for %d free players", ErrNoFeasiblePartition, in.slots, n)
	}

	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	if in.rng != nil {
		in.rng.Shuffle(n, func(i, j int) { order[i], order[j] = order[j], order[i] })
	}

	table := make([]map[int64]backpointer, in.slots+1)
	for c := range table {
		table[c] = make(map[int64]backpointer)
	}
	table[0][0] = backpointer{index: -1}
	states := 1

	for processed, idx := range order {
		v := in.scores[idx]
		// Descending c so that table[c-1] still holds only states built
		// from earlier candidates.
		for c := min(processed+1, in.slots); c >= 1; c-- {
			cur := table[c]
			for sum := range table[c-1] {
				next := sum + v
				if _, ok := cur[next]; !ok {
					cur[next] = backpointer{prevSum: sum, index: idx}
					states++
				}
			}
			// One pass adds at most len(table[c-1]) states, so the table
			// never exceeds twice the budget.
			if in.maxStates > 0 && states > in.maxStates {
				return searchResult{states: states}, fmt.Errorf("%w: over %d states after %d of %d candidates",
					ErrSearchTooLarge, in.maxStates, processed+1, n)
			}
		}
	}

	res := searchResult{states: states}

	final := table[in.slots]
	if len(final) == 0 {
		return searchResult{}, fmt.Errorf("%w: nothing reachable with %d of %d", ErrNoFeasiblePartition, in.slots, n)
	}

	best := int64(-1)
	var ties []int64
	for sum := range final {
		gap := abs64(2*(in.lockedA+sum) - in.total)
		switch {
		case best < 0 || gap < best:
			best = gap
			ties = append(ties[:0], sum)
		case gap == best:
			ties = append(ties, sum)
		}
	}
	// Map iteration order is random; sort so the deterministic path really is.
	slices.Sort(ties)
	if in.rng != nil {
		in.rng.Shuffle(len(ties), func(i, j int) { ties[i], ties[j] = ties[j], ties[i] })
	}

	res.gap = best
	res.ties = len(ties)

	var first []int
	for i, sum := range ties {
		chosen, err := reconstruct(table, in.slots, sum)
		if err != nil {
			return searchResult{}, err
		}
		if i == 0 {
			first = chosen
		}
		if in.reject == nil || !in.reject(chosen) {
			res.chosen = chosen
			return res, nil
		}
	}
	// Every optimal sum was vetoed; optimality wins over novelty.
	res.chosen = first
	return res, nil
}

// reconstruct walks backpointers from (count, sum) down to (0, 0).
func reconstruct(table []map[int64]backpointer, count int, sum int64) ([]int, error) {
	chosen := make([]int, 0, count)
	used := make(map[int]struct{}, count)
	for c := count; c > 0; c-- {
		bp, ok := table[c][sum]
		if !ok || bp.index < 0 {
			return nil, fmt.Errorf("%w: no entry at count %d sum %d", ErrBackpointerReconstruction, c, sum)
		}
		if _, dup := used[bp.index]; dup {
			return nil, fmt.Errorf("%w: candidate %d picked twice", ErrBackpointerReconstruction, bp.index)
		}
		used[bp.index] = struct{}{}
		chosen = append(chosen, bp.index)
		sum = bp.prevSum
	}
	if sum != 0 {
		return nil, fmt.Errorf("%w: chain ends at sum %d", ErrBackpointerReconstruction, sum)
	}
	slices.Sort(chosen)
	return chosen, nil
}

func abs64(x int64) int64 {
	if x < 0 {
		return -x
	}
	return x
}
