package balance_test

import (
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/okian/kickoff/internal/domain/balance"
	. "github.com/smartystreets/goconvey/convey"
)

type rawPlayer struct {
	ID    string
	Name  string
	Score any
}

var rawAccessors = balance.Accessors[rawPlayer]{
	Key:   func(r rawPlayer) string { return r.ID },
	Score: func(r rawPlayer) any { return r.Score },
	Name:  func(r rawPlayer) string { return r.Name },
}

func TestNormalize(t *testing.T) {
	Convey("Given raw player records", t, func() {
		Convey("When ids repeat", func() {
			out := balance.Normalize([]rawPlayer{
				{ID: "u1", Score: 4},
				{ID: "u2", Score: 6},
				{ID: "u1", Score: 9},
			}, rawAccessors)

			Convey("Then the first occurrence wins", func() {
				So(out, ShouldResemble, []balance.Player{{Key: "u1", Score: 4}, {Key: "u2", Score: 6}})
			})
		})

		Convey("When a record has no id", func() {
			out := balance.Normalize([]rawPlayer{
				{Name: "  Ana   Lima ", Score: 3},
				{Name: "ana lima", Score: 8},
			}, rawAccessors)

			Convey("Then the normalized name is the key and dedupes", func() {
				So(out, ShouldResemble, []balance.Player{{Key: "name:ana lima", Score: 3}})
			})
		})

		Convey("When a record has neither id nor name", func() {
			out := balance.Normalize([]rawPlayer{{Score: 5}, {ID: "  ", Name: " "}}, rawAccessors)

			Convey("Then it is dropped", func() {
				So(out, ShouldBeEmpty)
			})
		})

		Convey("When scores come in assorted shapes", func() {
			out := balance.Normalize([]rawPlayer{
				{ID: "a", Score: "7.5"},
				{ID: "b", Score: " 3 "},
				{ID: "c", Score: "abc"},
				{ID: "d", Score: math.NaN()},
				{ID: "e", Score: math.Inf(1)},
				{ID: "f", Score: nil},
				{ID: "g", Score: json.Number("2.5")},
				{ID: "h", Score: int64(-4)},
			}, rawAccessors)

			Convey("Then they are coerced to finite numbers or zero", func() {
				got := map[string]float64{}
				for _, p := range out {
					got[p.Key] = p.Score
				}
				So(got, ShouldResemble, map[string]float64{
					"a": 7.5, "b": 3, "c": 0, "d": 0, "e": 0, "f": 0, "g": 2.5, "h": -4,
				})
			})
		})

		Convey("When accessors are missing", func() {
			out := balance.Normalize([]rawPlayer{{ID: "a", Score: 1}}, balance.Accessors[rawPlayer]{})

			Convey("Then nothing can be keyed", func() {
				So(out, ShouldBeEmpty)
			})
		})
	})

	Convey("Given an already normalized roster", t, func() {
		first := balance.Normalize([]rawPlayer{
			{ID: "x", Score: "1.5"},
			{Name: "Bo", Score: 2},
			{ID: "x", Score: 4},
		}, rawAccessors)
		second := balance.NormalizePlayers(first)

		Convey("Then normalizing again is a no-op", func() {
			So(second, ShouldResemble, first)
		})
	})
}

func TestLocks(t *testing.T) {
	Convey("Given side identifiers", t, func() {
		for _, in := range []string{"A", "a", " A "} {
			side, ok := balance.ParseSide(in)
			So(ok, ShouldBeTrue)
			So(side, ShouldEqual, balance.SideA)
		}
		side, ok := balance.ParseSide("b")
		So(ok, ShouldBeTrue)
		So(side, ShouldEqual, balance.SideB)
		_, ok = balance.ParseSide("C")
		So(ok, ShouldBeFalse)
	})

	Convey("Given a lock map with stray entries", t, func() {
		players := roster(1, 2, 3, 4)
		pools, err := balance.ResolveLocks(players, balance.LockMap{
			"p1":      balance.SideA,
			"p2":      balance.Side("X"),
			"missing": balance.SideB,
		})

		Convey("Then unknown keys and invalid sides are ignored", func() {
			So(err, ShouldBeNil)
			So(pools.LockedA, ShouldResemble, []balance.Player{players[0]})
			So(pools.LockedB, ShouldBeEmpty)
			So(len(pools.Free), ShouldEqual, 3)
			So(pools.TeamSize, ShouldEqual, 2)
			So(pools.FreeSlotsA, ShouldEqual, 1)
			So(pools.FreeSlotsB, ShouldEqual, 2)
			So(pools.FreeSlotsA+pools.FreeSlotsB, ShouldEqual, len(pools.Free))
		})
	})

	Convey("Given a function-backed locker", t, func() {
		locker := balance.LockerFunc(func(key string) (balance.Side, bool) {
			if key == "p2" || key == "p3" {
				return balance.SideB, true
			}
			return "", false
		})
		pools, err := balance.ResolveLocks(roster(1, 2, 3, 4), locker)

		Convey("Then it is honored like a map", func() {
			So(err, ShouldBeNil)
			So(len(pools.LockedB), ShouldEqual, 2)
			So(pools.FreeSlotsB, ShouldEqual, 0)
		})
	})

	Convey("Given three players locked to B out of four", t, func() {
		_, err := balance.ResolveLocks(roster(1, 2, 3, 4), balance.LockMap{
			"p1": balance.SideB, "p2": balance.SideB, "p3": balance.SideB,
		})

		Convey("Then B is overlocked", func() {
			So(errors.Is(err, balance.ErrOverlockedTeam), ShouldBeTrue)
		})
	})
}
