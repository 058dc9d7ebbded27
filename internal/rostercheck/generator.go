package rostercheck

import (
	"math/rand"
	"strconv"

	"github.com/okian/kickoff/internal/domain/model"
)

const maxScoreTenths = 100

// Generate builds n rosters of size players each. Scores have one decimal
// in [0, 10]; locks never exceed the team size on either side, so every
// case has a valid answer when size is even.
func Generate(rng *rand.Rand, n, size int, lockRate float64) []Case {
	cases := make([]Case, n)
	for i := range cases {
		cases[i] = generateOne(rng, i, size, lockRate)
	}
	return cases
}

func generateOne(rng *rand.Rand, id, size int, lockRate float64) Case {
	c := Case{ID: id, Players: make([]model.RosterEntry, size)}
	for i := range c.Players {
		score := float64(rng.Intn(maxScoreTenths+1)) / 10
		c.Players[i] = model.RosterEntry{ID: "p" + strconv.Itoa(i), Score: score}
	}

	team := size / 2
	lockedA, lockedB := 0, 0
	for _, p := range c.Players {
		if rng.Float64() >= lockRate {
			continue
		}
		side := "A"
		if rng.Intn(2) == 1 {
			side = "B"
		}
		switch {
		case side == "A" && lockedA < team:
			lockedA++
		case side == "B" && lockedB < team:
			lockedB++
		default:
			continue
		}
		if c.Locks == nil {
			c.Locks = make(map[string]string)
		}
		c.Locks[p.ID] = side
	}
	return c
}
