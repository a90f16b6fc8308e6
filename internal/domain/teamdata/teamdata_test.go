package teamdata_test

import (
	"context"
	"errors"
	"testing"

	"github.com/okian/draftrank/internal/domain/model"
	"github.com/okian/draftrank/internal/domain/teamdata"
	"github.com/okian/draftrank/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

type staticSource struct {
	records []model.TeamRecord
	err     error
}

func (s *staticSource) AllTeamRecords(context.Context) ([]model.TeamRecord, error) {
	return s.records, s.err
}

func dataset() *staticSource {
	return &staticSource{records: []model.TeamRecord{
		{TeamNumber: 100, Nickname: "Alpha", Metrics: map[string]float64{"auto_points": 10}},
		{TeamNumber: 200, Nickname: "Bravo", Metrics: map[string]float64{"auto_points": 12}},
		{TeamNumber: 300, Nickname: "Charlie", Metrics: map[string]float64{"auto_points": 8}},
		{TeamNumber: 400, Nickname: "Delta"},
	}}
}

func TestPrepare(t *testing.T) {
	Convey("Given a dataset of four teams", t, func() {
		svc := teamdata.New(dataset(), teamdata.WithLogger(logger.Get()))
		ctx := context.Background()

		Convey("When preparing teams in a non-natural order", func() {
			records, index, err := svc.Prepare(ctx, []int{300, 100, 200})

			Convey("Then records should follow the requested order", func() {
				So(err, ShouldBeNil)
				So(len(records), ShouldEqual, 3)
				So(records[0].TeamNumber, ShouldEqual, 300)
				So(records[1].TeamNumber, ShouldEqual, 100)
				So(records[2].TeamNumber, ShouldEqual, 200)
			})

			Convey("And the index map should be contiguous from 1", func() {
				So(index.Len(), ShouldEqual, 3)
				for i, want := range []int{300, 100, 200} {
					got, ok := index.Lookup(i + 1)
					So(ok, ShouldBeTrue)
					So(got, ShouldEqual, want)
				}
				_, ok := index.Lookup(0)
				So(ok, ShouldBeFalse)
				_, ok = index.Lookup(4)
				So(ok, ShouldBeFalse)
			})

			Convey("And the records should be copies", func() {
				records[0].Metrics["auto_points"] = 99
				again, _, err := svc.Prepare(ctx, []int{300, 100})
				So(err, ShouldBeNil)
				So(again[0].Metrics["auto_points"], ShouldEqual, 8)
			})
		})

		Convey("When a requested team is absent", func() {
			_, _, err := svc.Prepare(ctx, []int{100, 200, 999, 300, 555})

			Convey("Then it should name exactly the missing numbers in order", func() {
				var missing *teamdata.MissingTeamsError
				So(errors.As(err, &missing), ShouldBeTrue)
				So(missing.Missing, ShouldResemble, []int{999, 555})
				So(errors.Is(err, teamdata.ErrMissingTeams), ShouldBeTrue)
				So(err.Error(), ShouldContainSubstring, "999, 555")
			})
		})

		Convey("When comparing 100 and an absent 200", func() {
			src := &staticSource{records: []model.TeamRecord{{TeamNumber: 100}}}
			_, _, err := teamdata.New(src).Prepare(ctx, []int{100, 200})

			Convey("Then the error should name only 200", func() {
				var missing *teamdata.MissingTeamsError
				So(errors.As(err, &missing), ShouldBeTrue)
				So(missing.Missing, ShouldResemble, []int{200})
			})

			Convey("Then a nil logger option should keep the default logger", func() {
				svc := teamdata.New(src, teamdata.WithLogger(nil))
				So(func() { _, _, _ = svc.Prepare(ctx, []int{100, 200}) }, ShouldNotPanic)
			})
		})

		Convey("When the request repeats a team", func() {
			records, index, err := svc.Prepare(ctx, []int{200, 100, 200})
			So(err, ShouldBeNil)
			So(len(records), ShouldEqual, 2)
			So(index.Len(), ShouldEqual, 2)
		})

		Convey("When the dataset source fails", func() {
			boom := errors.New("disk on fire")
			_, _, err := teamdata.New(&staticSource{err: boom}).Prepare(ctx, []int{1, 2})
			So(errors.Is(err, boom), ShouldBeTrue)
		})
	})
}

func TestDistinct(t *testing.T) {
	Convey("Given a list with repeats", t, func() {
		So(teamdata.Distinct([]int{3, 1, 3, 2, 1}), ShouldResemble, []int{3, 1, 2})
		So(teamdata.Distinct(nil), ShouldBeEmpty)
	})
}
