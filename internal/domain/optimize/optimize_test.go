package optimize_test

import (
	"math"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/okian/draftrank/internal/domain/model"
	"github.com/okian/draftrank/internal/domain/optimize"
	. "github.com/smartystreets/goconvey/convey"
)

func rawRecord() model.TeamRecord {
	return model.TeamRecord{
		TeamNumber: 254,
		Nickname:   "Poofs",
		Metrics:    map[string]float64{"auto_points": 10.456, "teleop_points": 20, "defense_rating": 3.333},
		Rating:     map[string]float64{"epa": 55.557},
		Matches: []map[string]float64{
			{"auto_points": 4, "teleop_points": 20},
			{"auto_points": 10, "teleop_points": 31},
			{"auto_points": 100},
		},
		Notes: []string{"  ", strings.Repeat("é", 150), "second note"},
		Extra: map[string]any{"matches_played": 12, "region": "west", "climb_rate": "0.8"},
	}
}

func TestCondense(t *testing.T) {
	Convey("Given a record with match history, ratings and notes", t, func() {
		o := optimize.New()
		out := o.Condense([]model.TeamRecord{rawRecord()})
		So(len(out), ShouldEqual, 1)
		c := out[0]

		Convey("Then identity fields should be kept", func() {
			So(c.TeamNumber, ShouldEqual, 254)
			So(c.Nickname, ShouldEqual, "Poofs")
		})

		Convey("Then three or more samples should reduce to the median", func() {
			So(c.Metrics["auto_points"], ShouldEqual, 10)
		})

		Convey("Then fewer samples should reduce to the mean", func() {
			So(c.Metrics["teleop_points"], ShouldEqual, 25.5)
		})

		Convey("Then plain metrics should be rounded to two decimals", func() {
			So(c.Metrics["defense_rating"], ShouldEqual, 3.33)
		})

		Convey("Then ratings should be flattened under the rating prefix", func() {
			So(c.Ratings["rating_epa"], ShouldEqual, 55.56)
		})

		Convey("Then only numeric non-identity extras should be kept", func() {
			So(c.Extra, ShouldResemble, map[string]float64{"climb_rate": 0.8})
		})

		Convey("Then at most one note of at most 100 characters should remain", func() {
			So(len(c.Notes), ShouldEqual, 1)
			So(utf8.RuneCountInString(c.Notes[0]), ShouldEqual, 100)
			So(utf8.ValidString(c.Notes[0]), ShouldBeTrue)
		})

		Convey("Then the flat view should expose every citable field", func() {
			flat := c.Flat()
			So(flat["team_number"], ShouldEqual, 254)
			So(flat["rating_epa"], ShouldEqual, 55.56)
			So(flat["climb_rate"], ShouldEqual, 0.8)
			So(flat["auto_points"], ShouldEqual, 10)
		})

		Convey("Then condensing twice should give identical output", func() {
			So(o.Condense([]model.TeamRecord{rawRecord()}), ShouldResemble, out)
		})

		Convey("Then the source record should be untouched", func() {
			r := rawRecord()
			o.Condense([]model.TeamRecord{r})
			So(r.Metrics["auto_points"], ShouldEqual, 10.456)
			So(len(r.Notes), ShouldEqual, 3)
		})
	})

	Convey("Given a custom note limit", t, func() {
		o := optimize.New(optimize.WithNoteLimit(5))
		out := o.Condense([]model.TeamRecord{{TeamNumber: 1, Notes: []string{"abcdefgh"}}})
		So(out[0].Notes, ShouldResemble, []string{"abcde"})
	})
}

func TestCalculateWeightedScore(t *testing.T) {
	Convey("Given a condensed record", t, func() {
		o := optimize.New()
		c := o.Condense([]model.TeamRecord{rawRecord()})[0]

		Convey("When priorities resolve through metrics and ratings", func() {
			score := o.CalculateWeightedScore(c, []model.Priority{
				{ID: "auto_points", Weight: 2},
				{ID: "epa", Weight: 1},
			})
			So(score, ShouldEqual, 25.19)
		})

		Convey("When a priority uses a prefixed rating name", func() {
			So(o.CalculateWeightedScore(c, []model.Priority{{ID: "rating_epa", Weight: 1}}), ShouldEqual, 55.56)
		})

		Convey("When a priority resolves through an extra field", func() {
			So(o.CalculateWeightedScore(c, []model.Priority{{ID: "climb_rate", Weight: 3}}), ShouldEqual, 0.8)
		})

		Convey("When a priority is a generic alias", func() {
			So(o.CalculateWeightedScore(c, []model.Priority{{ID: "teleop", Weight: 1}}), ShouldEqual, 25.5)
		})

		Convey("When unresolvable priorities are mixed in", func() {
			score := o.CalculateWeightedScore(c, []model.Priority{
				{ID: "auto_points", Weight: 1},
				{ID: "velocity", Weight: 5},
			})
			So(score, ShouldEqual, 10)
		})

		Convey("When nothing resolves", func() {
			So(o.CalculateWeightedScore(c, nil), ShouldEqual, 0.0)
			So(o.CalculateWeightedScore(c, []model.Priority{{ID: "velocity", Weight: 1}}), ShouldEqual, 0.0)
			So(o.CalculateWeightedScore(c, []model.Priority{{ID: "auto_points", Weight: 0}}), ShouldEqual, 0.0)
		})
	})
}

func TestEstimateTokenUsage(t *testing.T) {
	Convey("Given the token cost model", t, func() {
		Convey("When estimating a compact payload without context", func() {
			u := optimize.EstimateTokenUsage(10, 3, true, false)
			So(u.InputTokens, ShouldEqual, 595)
			So(u.OutputTokens, ShouldEqual, 80)
			So(u.TotalTokens, ShouldEqual, 675)
			So(u.TotalWithMargin, ShouldEqual, 743)
			So(u.WithinLimit, ShouldBeTrue)
		})

		Convey("When estimating a standard payload with context", func() {
			u := optimize.EstimateTokenUsage(10, 3, false, true)
			So(u.InputTokens, ShouldEqual, 1095)
			So(u.OutputTokens, ShouldEqual, 150)
			So(u.TotalTokens, ShouldEqual, 1245)
			So(u.TotalWithMargin, ShouldEqual, 1370)
		})

		Convey("When the estimate is huge", func() {
			So(optimize.EstimateTokenUsage(5000, 0, false, false).WithinLimit, ShouldBeFalse)
		})

		Convey("Then it should be monotonic in team and priority count", func() {
			for _, compact := range []bool{true, false} {
				for _, ctx := range []bool{true, false} {
					for teams := 0; teams < 60; teams++ {
						for prios := 0; prios < 12; prios++ {
							base := optimize.EstimateTokenUsage(teams, prios, compact, ctx).TotalWithMargin
							So(optimize.EstimateTokenUsage(teams+1, prios, compact, ctx).TotalWithMargin, ShouldBeGreaterThanOrEqualTo, base)
							So(optimize.EstimateTokenUsage(teams, prios+1, compact, ctx).TotalWithMargin, ShouldBeGreaterThanOrEqualTo, base)
						}
					}
				}
			}
		})
	})
}

func TestShouldBatch(t *testing.T) {
	Convey("Given batching thresholds", t, func() {
		Convey("Then more than twenty teams always batches", func() {
			for prios := 0; prios < 10; prios++ {
				So(optimize.ShouldBatch(21, prios), ShouldBeTrue)
			}
		})

		Convey("Then more than six priorities batches", func() {
			So(optimize.ShouldBatch(5, 7), ShouldBeTrue)
		})

		Convey("Then a small request is single-shot", func() {
			So(optimize.ShouldBatch(20, 6), ShouldBeFalse)
			So(optimize.ShouldBatch(2, 0), ShouldBeFalse)
		})
	})
}

func TestPlanStrategy(t *testing.T) {
	Convey("Given a processing plan request", t, func() {
		Convey("When many teams are compared with four priorities", func() {
			p := optimize.PlanStrategy(45, 4, nil)
			So(p.UseBatching, ShouldBeTrue)
			So(p.BatchSize, ShouldEqual, 19)
			So(p.EstimatedBatches, ShouldEqual, 3)
			So(p.Source, ShouldEqual, model.PlanAutoDetermined)
		})

		Convey("When six priorities are used", func() {
			p := optimize.PlanStrategy(45, 6, nil)
			So(p.BatchSize, ShouldEqual, 18)
			So(p.EstimatedBatches, ShouldEqual, 3)
		})

		Convey("When the request is small", func() {
			p := optimize.PlanStrategy(10, 2, nil)
			So(p.UseBatching, ShouldBeFalse)
			So(p.BatchSize, ShouldEqual, 10)
			So(p.EstimatedBatches, ShouldEqual, 1)
		})

		Convey("When the caller overrides the decision", func() {
			off, on := false, true
			p := optimize.PlanStrategy(45, 2, &off)
			So(p.UseBatching, ShouldBeFalse)
			So(p.BatchSize, ShouldEqual, 45)
			So(p.Source, ShouldEqual, model.PlanUserSpecified)

			p = optimize.PlanStrategy(10, 2, &on)
			So(p.UseBatching, ShouldBeTrue)
			So(p.BatchSize, ShouldEqual, 20)
			So(p.EstimatedBatches, ShouldEqual, 1)
			So(p.Source, ShouldEqual, model.PlanUserSpecified)
		})
	})
}

func TestFingerprint(t *testing.T) {
	Convey("Given a normalized request", t, func() {
		base := optimize.FingerprintInput{
			Requester:    254,
			PickPosition: 3,
			Priorities: []model.Priority{
				{ID: "auto", Weight: 2},
				{ID: "defense", Weight: 1, Reason: "we need a blocker"},
			},
			Excluded:  []int{900, 100},
			TeamCount: 8,
			Extra:     map[string]string{"teams": "1,2,3"},
		}
		key := optimize.Fingerprint(base)

		Convey("Then it should be a SHA-256 hex digest", func() {
			So(len(key), ShouldEqual, 64)
		})

		Convey("Then priority and exclusion order should not matter", func() {
			other := base
			other.Priorities = []model.Priority{base.Priorities[1], base.Priorities[0]}
			other.Excluded = []int{100, 900}
			So(optimize.Fingerprint(other), ShouldEqual, key)
		})

		Convey("Then it should not mutate the input", func() {
			So(base.Excluded, ShouldResemble, []int{900, 100})
			So(base.Priorities[0].ID, ShouldEqual, "auto")
		})

		Convey("Then requester, pick position and team count should matter", func() {
			changes := []func(*optimize.FingerprintInput){
				func(in *optimize.FingerprintInput) { in.Requester = 1114 },
				func(in *optimize.FingerprintInput) { in.PickPosition = 4 },
				func(in *optimize.FingerprintInput) { in.TeamCount = 9 },
				func(in *optimize.FingerprintInput) { in.Extra = map[string]string{"teams": "1,2"} },
			}
			for _, change := range changes {
				other := base
				change(&other)
				So(optimize.Fingerprint(other), ShouldNotEqual, key)
			}
		})

		Convey("Then non-finite weights should still produce distinct digests", func() {
			const emptyDigest = "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"
			nan, inf := base, base
			nan.Priorities = []model.Priority{{ID: "auto", Weight: math.NaN()}}
			inf.Priorities = []model.Priority{{ID: "auto", Weight: math.Inf(1)}}

			So(optimize.Fingerprint(nan), ShouldNotEqual, emptyDigest)
			So(optimize.Fingerprint(inf), ShouldNotEqual, emptyDigest)
			So(optimize.Fingerprint(nan), ShouldNotEqual, optimize.Fingerprint(inf))
			So(optimize.Fingerprint(nan), ShouldNotEqual, key)
		})
	})
}
