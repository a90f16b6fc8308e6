package extraction_test

import (
	"fmt"
	"testing"

	"github.com/okian/draftrank/internal/domain/extraction"
	"github.com/okian/draftrank/internal/domain/model"
	"github.com/okian/draftrank/internal/domain/vocab"
	. "github.com/smartystreets/goconvey/convey"
)

func sampleRecords() []model.TeamRecord {
	return []model.TeamRecord{
		{
			TeamNumber: 100,
			Nickname:   "Alpha",
			Metrics:    map[string]float64{"auto_points": 10, "teleop_avg_points": 30, "defense_rating": 4},
			Rating:     map[string]float64{"epa": 55},
			Extra:      map[string]any{"matches_played": 12, "region": "west", "climb_rate": "0.8"},
		},
		{
			TeamNumber: 200,
			Nickname:   "Bravo",
			Metrics:    map[string]float64{"auto_points": 12, "teleop_avg_points": 25, "endgame_points": 8},
			Extra:      map[string]any{"region": "east", "climb_rate": "n/a"},
		},
	}
}

func availableSet(e *extraction.Extractor, records []model.TeamRecord) map[string]struct{} {
	set := make(map[string]struct{})
	for _, f := range e.AvailableFields(records) {
		set[f] = struct{}{}
	}
	return set
}

func TestFieldDiscovery(t *testing.T) {
	Convey("Given two team records", t, func() {
		e := extraction.New()
		records := sampleRecords()

		Convey("Then available fields should exclude identity fields", func() {
			So(e.AvailableFields(records), ShouldResemble, []string{
				"auto_points", "climb_rate", "defense_rating", "endgame_points", "rating_epa", "region", "teleop_avg_points",
			})
		})

		Convey("Then numeric fields should drop fields with no numeric value", func() {
			So(e.NumericFields(records), ShouldResemble, []string{
				"auto_points", "climb_rate", "defense_rating", "endgame_points", "rating_epa", "teleop_avg_points",
			})
		})
	})
}

func TestFindMatchingField(t *testing.T) {
	Convey("Given two team records", t, func() {
		e := extraction.New()
		records := sampleRecords()
		available := availableSet(e, records)

		Convey("When the candidate is an exact field", func() {
			f, ok := e.FindMatchingField("teleop_avg_points", available, records)
			So(ok, ShouldBeTrue)
			So(f, ShouldEqual, "teleop_avg_points")
		})

		Convey("When the candidate is a synonym", func() {
			f, ok := e.FindMatchingField("auto", available, records)
			So(ok, ShouldBeTrue)
			So(f, ShouldEqual, "auto_points")
		})

		Convey("When the synonym matches several fields", func() {
			f, ok := e.FindMatchingField("endgame", available, records)
			Convey("Then the first numeric field in lexicographic order wins", func() {
				So(ok, ShouldBeTrue)
				So(f, ShouldEqual, "climb_rate")
			})
		})

		Convey("When the candidate matches a flattened rating field", func() {
			f, ok := e.FindMatchingField("epa", available, records)
			So(ok, ShouldBeTrue)
			So(f, ShouldEqual, "rating_epa")
		})

		Convey("When the field exists but is never numeric", func() {
			_, ok := e.FindMatchingField("region", available, records)
			So(ok, ShouldBeFalse)
		})

		Convey("When the candidate is an identity field or empty", func() {
			_, ok := e.FindMatchingField("rank", available, records)
			So(ok, ShouldBeFalse)
			_, ok = e.FindMatchingField("  ", available, records)
			So(ok, ShouldBeFalse)
		})

		Convey("When nothing matches", func() {
			_, ok := e.FindMatchingField("velocity", available, records)
			So(ok, ShouldBeFalse)
		})
	})
}

func TestCustomVocabulary(t *testing.T) {
	Convey("Given an extractor with its own synonym table", t, func() {
		v, err := vocab.Parse([]byte("version: test\nsynonyms:\n  brawn: [defense]\n"))
		So(err, ShouldBeNil)
		e := extraction.New(extraction.WithVocabulary(v))
		records := sampleRecords()

		Convey("Then its synonyms should resolve", func() {
			f, ok := e.FindMatchingField("brawn", availableSet(e, records), records)
			So(ok, ShouldBeTrue)
			So(f, ShouldEqual, "defense_rating")
		})

		Convey("Then the embedded table should not know them", func() {
			d := extraction.New(extraction.WithVocabulary(nil))
			_, ok := d.FindMatchingField("brawn", availableSet(d, records), records)
			So(ok, ShouldBeFalse)
		})
	})
}

func TestExtractMetricsFromNarrative(t *testing.T) {
	Convey("Given two team records", t, func() {
		e := extraction.New()
		records := sampleRecords()

		Convey("When the narrative names a field verbatim", func() {
			got := e.ExtractMetricsFromNarrative("Team A outranks Team B on teleop_avg_points", records)
			So(got, ShouldContain, "teleop_avg_points")
		})

		Convey("When the narrative mentions autonomous play and defense", func() {
			got := e.ExtractMetricsFromNarrative("Alpha has the stronger Autonomous routine, Bravo plays better defense.", records)
			So(got, ShouldResemble, []string{"auto_points", "defense_rating"})
		})

		Convey("When field names contain punctuation", func() {
			punct := []model.TeamRecord{{TeamNumber: 1, Extra: map[string]any{
				"zq-index":  4.0,
				"Avg.Zq":    2.5,
				"zq-index2": 1.0,
			}}}
			got := e.ExtractMetricsFromNarrative("Bravo leads on zq-index and avg.zq overall.", punct)
			So(got, ShouldContain, "zq-index")
			So(got, ShouldContain, "Avg.Zq")
			So(got, ShouldNotContain, "zq-index2")
		})

		Convey("When the narrative is empty", func() {
			So(e.ExtractMetricsFromNarrative("", records), ShouldBeEmpty)
		})

		Convey("When many fields qualify", func() {
			metrics := make(map[string]float64)
			for i := 0; i < 12; i++ {
				metrics[fmt.Sprintf("auto_stat_%02d", i)] = float64(i)
			}
			wide := []model.TeamRecord{{TeamNumber: 1, Metrics: metrics}}
			got := e.ExtractMetricsFromNarrative("autonomous", wide)
			So(len(got), ShouldEqual, 8)
			So(got[0], ShouldEqual, "auto_stat_00")
		})
	})
}

func TestExtractComparisonStats(t *testing.T) {
	Convey("Given two team records", t, func() {
		e := extraction.New()
		records := sampleRecords()

		Convey("When no metrics are suggested", func() {
			stats := e.ExtractComparisonStats(records, nil)

			Convey("Then priority metrics come first and the rest follow sorted", func() {
				So(stats.Metrics, ShouldResemble, []string{
					"auto_points", "endgame_points", "rating_epa", "defense_rating", "climb_rate", "teleop_avg_points",
				})
			})

			Convey("And missing values are omitted rather than zero-filled", func() {
				So(len(stats.Teams), ShouldEqual, 2)
				_, has := stats.Teams[0].Stats["endgame_points"]
				So(has, ShouldBeFalse)
				So(stats.Teams[0].Stats["climb_rate"], ShouldEqual, 0.8)
				_, has = stats.Teams[1].Stats["climb_rate"]
				So(has, ShouldBeFalse)
				So(stats.Teams[1].Stats["endgame_points"], ShouldEqual, 8)
			})

			Convey("And every metric is backed by a value", func() {
				for _, m := range stats.Metrics {
					backed := false
					for _, team := range stats.Teams {
						if _, ok := team.Stats[m]; ok {
							backed = true
						}
					}
					So(backed, ShouldBeTrue)
				}
			})
		})

		Convey("When metrics are suggested", func() {
			stats := e.ExtractComparisonStats(records, []string{"auto", "teleop_avg_points", "auto_points", "bogus"})

			Convey("Then matches keep suggestion order without duplicates", func() {
				So(stats.Metrics, ShouldResemble, []string{"auto_points", "teleop_avg_points"})
				So(stats.Teams[1].Stats["auto_points"], ShouldEqual, 12)
			})
		})

		Convey("When suggestions resolve to nothing", func() {
			stats := e.ExtractComparisonStats(records, []string{"rank"})
			So(stats.Metrics, ShouldBeEmpty)
			So(stats.Metrics, ShouldNotBeNil)
		})

		Convey("When many unprioritized fields exist", func() {
			metrics := make(map[string]float64)
			for i := 0; i < 15; i++ {
				metrics[fmt.Sprintf("stat_%02d", i)] = float64(i)
			}
			metrics["total_points"] = 99
			stats := e.ExtractComparisonStats([]model.TeamRecord{{TeamNumber: 1, Metrics: metrics}}, nil)

			Convey("Then at most ten of them are added after the priority list", func() {
				So(len(stats.Metrics), ShouldEqual, 11)
				So(stats.Metrics[0], ShouldEqual, "total_points")
				So(stats.Metrics[10], ShouldEqual, "stat_09")
			})
		})
	})
}
