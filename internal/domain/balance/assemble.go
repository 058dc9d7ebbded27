package balance

// assemble merges locked players with the optimizer's choice and computes
// the per-side totals. Players appear in roster order on each side.
func assemble(roster []Player, pools Pools, chosen []int, nameA, nameB string) PartitionResult {
	onA := make(map[string]struct{}, pools.TeamSize)
	for _, p := range pools.LockedA {
		onA[p.Key] = struct{}{}
	}
	for _, i := range chosen {
		onA[pools.Free[i].Key] = struct{}{}
	}

	a := TeamResult{ID: string(SideA), Name: nameA, Players: make([]string, 0, pools.TeamSize)}
	b := TeamResult{ID: string(SideB), Name: nameB, Players: make([]string, 0, pools.TeamSize)}
	var sumA, sumB int64
	for _, p := range roster {
		if _, ok := onA[p.Key]; ok {
			a.Players = append(a.Players, p.Key)
			sumA += toScaled(p.Score)
			continue
		}
		b.Players = append(b.Players, p.Key)
		sumB += toScaled(p.Score)
	}
	a.Score = fromScaled(sumA)
	b.Score = fromScaled(sumB)

	return PartitionResult{
		Diff:  fromScaled(abs64(sumA - sumB)),
		Teams: [2]TeamResult{a, b},
	}
}
