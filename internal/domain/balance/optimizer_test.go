package balance

import (
	"errors"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestSearch(t *testing.T) {
	Convey("Given more slots than candidates", t, func() {
		_, err := search(searchInput{scores: []int64{10, 20}, slots: 3})

		Convey("Then no partition is feasible", func() {
			So(errors.Is(err, ErrNoFeasiblePartition), ShouldBeTrue)
		})
	})

	Convey("Given a negative slot count", t, func() {
		_, err := search(searchInput{scores: []int64{10, 20}, slots: -1})

		Convey("Then no partition is feasible", func() {
			So(errors.Is(err, ErrNoFeasiblePartition), ShouldBeTrue)
		})
	})

	Convey("Given a state budget smaller than the table", t, func() {
		res, err := search(searchInput{scores: []int64{1, 2, 4, 8}, slots: 2, total: 15, maxStates: 3})

		Convey("Then the search stops with ErrSearchTooLarge", func() {
			So(errors.Is(err, ErrSearchTooLarge), ShouldBeTrue)
			So(res.states, ShouldBeGreaterThan, 3)
			So(res.chosen, ShouldBeNil)
		})
	})

	Convey("Given a balanced candidate set", t, func() {
		scores := []int64{30, 10, 20, 20}
		res, err := search(searchInput{scores: scores, slots: 2, total: 80})

		Convey("Then the chosen indices reach the optimum", func() {
			So(err, ShouldBeNil)
			So(res.gap, ShouldEqual, 0)
			So(len(res.chosen), ShouldEqual, 2)
			So(scores[res.chosen[0]]+scores[res.chosen[1]], ShouldEqual, 40)
		})
	})
}

func TestReconstruct(t *testing.T) {
	root := map[int64]backpointer{0: {index: -1}}

	Convey("Given a table without the requested sum", t, func() {
		table := []map[int64]backpointer{root, {}}
		_, err := reconstruct(table, 1, 50)

		Convey("Then reconstruction fails", func() {
			So(errors.Is(err, ErrBackpointerReconstruction), ShouldBeTrue)
		})
	})

	Convey("Given a root marker above count zero", t, func() {
		table := []map[int64]backpointer{root, {50: {index: -1}}}
		_, err := reconstruct(table, 1, 50)

		Convey("Then reconstruction fails", func() {
			So(errors.Is(err, ErrBackpointerReconstruction), ShouldBeTrue)
		})
	})

	Convey("Given a chain that picks the same candidate twice", t, func() {
		table := []map[int64]backpointer{
			root,
			{50: {prevSum: 0, index: 0}},
			{100: {prevSum: 50, index: 0}},
		}
		_, err := reconstruct(table, 2, 100)

		Convey("Then reconstruction fails", func() {
			So(errors.Is(err, ErrBackpointerReconstruction), ShouldBeTrue)
		})
	})

	Convey("Given a chain that ends away from sum zero", t, func() {
		table := []map[int64]backpointer{root, {50: {prevSum: 30, index: 1}}}
		_, err := reconstruct(table, 1, 50)

		Convey("Then reconstruction fails", func() {
			So(errors.Is(err, ErrBackpointerReconstruction), ShouldBeTrue)
		})
	})

	Convey("Given an intact chain", t, func() {
		table := []map[int64]backpointer{
			root,
			{20: {prevSum: 0, index: 2}},
			{50: {prevSum: 20, index: 0}},
		}
		chosen, err := reconstruct(table, 2, 50)

		Convey("Then the indices come back sorted", func() {
			So(err, ShouldBeNil)
			So(chosen, ShouldResemble, []int{0, 2})
		})
	})
}
