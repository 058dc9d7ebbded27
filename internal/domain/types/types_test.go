package types_test

import (
	"testing"

	"github.com/okian/kickoff/internal/domain/balance"
	"github.com/okian/kickoff/internal/domain/model"
	types "github.com/okian/kickoff/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

func TestNewMatchView(t *testing.T) {
	Convey("Given a balanced match with a lock", t, func() {
		m := &model.Match{
			ID:        "m1",
			Name:      "Tuesday five-a-side",
			TeamAName: "Reds",
			TeamBName: "Blues",
			Roster:    []model.RosterEntry{{ID: "a", Score: 3}, {ID: "b", Score: "4"}},
			Locks:     map[string]balance.Side{"b": balance.SideB},
			Partition: &balance.PartitionResult{
				Diff: 1,
				Teams: [2]balance.TeamResult{
					{ID: "A", Players: []string{"a"}, Score: 3},
					{ID: "B", Players: []string{"b"}, Score: 4},
				},
			},
			Revision: 2,
		}

		view := types.NewMatchView(m)

		Convey("Then players carry lock and side", func() {
			So(view.Players, ShouldResemble, []types.PlayerView{
				{Key: "a", Score: 3, Side: "A"},
				{Key: "b", Score: 4, Locked: "B", Side: "B"},
			})
			So(view.Revision, ShouldEqual, 2)
			So(view.Partition.Diff, ShouldEqual, 1)
		})
	})

	Convey("Given an unbalanced match", t, func() {
		view := types.NewMatchView(&model.Match{ID: "m2", Roster: []model.RosterEntry{{ID: "a", Score: 1}}})

		Convey("Then no side is reported", func() {
			So(view.Players[0].Side, ShouldBeEmpty)
			So(view.Partition, ShouldBeNil)
		})
	})
}
