package balance

// Stats describes the work done by one Balance call.
type Stats struct {
	Players int // after normalization
	Locked  int
	Free    int
	States  int // reachable (count, sum) DP states
	Ties    int // distinct optimal side-A sums
}

// Balance partitions req.Players into two equal teams with the smallest
// achievable score gap, honoring req.Locks.
func Balance(req Request, opts ...Option) (PartitionResult, error) {
	res, _, err := BalanceWithStats(req, opts...)
	return res, err
}

// BalanceWithStats is Balance plus search statistics.
func BalanceWithStats(req Request, opts ...Option) (PartitionResult, Stats, error) {
	e := newEngine(opts...)

	roster := NormalizePlayers(req.Players)
	pools, err := ResolveLocks(roster, req.Locks)
	if err != nil {
		return PartitionResult{}, Stats{Players: len(roster)}, err
	}

	var lockedA, total int64
	for _, p := range pools.LockedA {
		lockedA += toScaled(p.Score)
	}
	for _, p := range roster {
		total += toScaled(p.Score)
	}
	scores := make([]int64, len(pools.Free))
	for i, p := range pools.Free {
		scores[i] = toScaled(p.Score)
	}

	in := searchInput{
		scores:  scores,
		slots:   pools.FreeSlotsA,
		lockedA: lockedA,
		total:   total,
		reject:  repeatsPrevious(req.Previous, pools),

		maxStates: e.maxStates,
	}
	if req.PreferRandomTies {
		in.rng = e.random()
	}

	found, err := search(in)
	stats := Stats{
		Players: len(roster),
		Locked:  len(pools.LockedA) + len(pools.LockedB),
		Free:    len(pools.Free),
		States:  found.states,
		Ties:    found.ties,
	}
	if err != nil {
		return PartitionResult{}, stats, err
	}

	return assemble(roster, pools, found.chosen, req.TeamAName, req.TeamBName), stats, nil
}

// repeatsPrevious returns a veto that rejects a choice reproducing prev,
// in either orientation. A nil prev yields a nil veto.
func repeatsPrevious(prev *PartitionResult, pools Pools) func([]int) bool {
	if prev == nil {
		return nil
	}
	a := keySet(prev.Teams[0].Players)
	b := keySet(prev.Teams[1].Players)
	return func(chosen []int) bool {
		side := make([]string, 0, len(pools.LockedA)+len(chosen))
		for _, p := range pools.LockedA {
			side = append(side, p.Key)
		}
		for _, i := range chosen {
			side = append(side, pools.Free[i].Key)
		}
		return sameKeys(side, a) || sameKeys(side, b)
	}
}

func keySet(keys []string) map[string]struct{} {
	m := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		m[k] = struct{}{}
	}
	return m
}

func sameKeys(keys []string, set map[string]struct{}) bool {
	if len(keys) != len(set) {
		return false
	}
	for _, k := range keys {
		if _, ok := set[k]; !ok {
			return false
		}
	}
	return true
}
