package comparison_test

import (
	"testing"

	"github.com/okian/draftrank/internal/domain/comparison"
	. "github.com/smartystreets/goconvey/convey"
)

func TestDecodeReply(t *testing.T) {
	Convey("Given raw oracle replies", t, func() {
		Convey("When the reply has the ranking shape", func() {
			r := comparison.DecodeReply(`{
				"ranking": [
					{"team_number": 200, "rank": 2, "score": 71.5, "brief_reason": "solid"},
					{"team_number": "100", "rank": 1, "score": "88", "brief_reason": " best auto "},
					{"team_number": 300, "score": 10},
					{"team_number": "abc", "rank": 3}
				],
				"summary": "  Alpha leads.  ",
				"key_metrics": ["auto_points", 7, "", "defense_rating"]
			}`, false)

			Convey("Then entries should be decoded leniently and ordered by rank", func() {
				So(r.Kind, ShouldEqual, comparison.ReplyRanked)
				So(r.Summary, ShouldEqual, "Alpha leads.")
				So(len(r.Ranking), ShouldEqual, 3)
				So(r.Ranking[0].TeamNumber, ShouldEqual, 100)
				So(r.Ranking[0].Score, ShouldEqual, 88)
				So(r.Ranking[0].BriefReason, ShouldEqual, "best auto")
				So(r.Ranking[1].TeamNumber, ShouldEqual, 200)
				So(r.Ranking[2].TeamNumber, ShouldEqual, 300)
				So(r.Ranking[2].Rank, ShouldEqual, 0)
			})

			Convey("And key metrics should keep only non-empty strings", func() {
				So(r.KeyMetrics, ShouldResemble, []string{"auto_points", "defense_rating"})
			})
		})

		Convey("When the JSON is wrapped in a fenced block with prose", func() {
			r := comparison.DecodeReply("Here you go:\n```json\n{\"ranking\": [], \"summary\": \"ok\"}\n```\nThanks!", false)
			So(r.Kind, ShouldEqual, comparison.ReplyRanked)
			So(r.Summary, ShouldEqual, "ok")
			So(r.Ranking, ShouldBeEmpty)
			So(r.KeyMetrics, ShouldBeNil)
		})

		Convey("When the JSON is embedded in prose without a fence", func() {
			r := comparison.DecodeReply(`Sure! {"summary": "embedded", "ranking": []} Hope that helps.`, false)
			So(r.Kind, ShouldEqual, comparison.ReplyRanked)
			So(r.Summary, ShouldEqual, "embedded")
		})

		Convey("When the reply has no ranking key", func() {
			r := comparison.DecodeReply(`{"summary": "older format", "teams": [
				{"index": 2, "score": 9.5, "reasoning": "fast"},
				{"index": "1", "reason": "steady"},
				{"index": 0},
				{"team": 5}
			]}`, false)

			Convey("Then it should decode as the legacy shape", func() {
				So(r.Kind, ShouldEqual, comparison.ReplyLegacy)
				So(len(r.Legacy), ShouldEqual, 2)
				So(r.Legacy[0].Index, ShouldEqual, 2)
				So(*r.Legacy[0].Score, ShouldEqual, 9.5)
				So(r.Legacy[1].Index, ShouldEqual, 1)
				So(r.Legacy[1].Score, ShouldBeNil)
				So(r.Legacy[1].Reasoning, ShouldEqual, "steady")
			})
		})

		Convey("When the reply has no summary", func() {
			raw := `{"ranking": [{"team_number": 1, "rank": 1}]}`
			r := comparison.DecodeReply(raw, false)
			So(r.Kind, ShouldEqual, comparison.ReplyMalformed)
			So(r.Summary, ShouldEqual, raw)
		})

		Convey("When the reply is not JSON at all", func() {
			r := comparison.DecodeReply("  I think team 100 is best.  ", false)
			So(r.Kind, ShouldEqual, comparison.ReplyMalformed)
			So(r.Summary, ShouldEqual, "I think team 100 is best.")
		})

		Convey("When a follow-up reply is free text", func() {
			r := comparison.DecodeReply("Team 200 should be ranked first now.", true)
			So(r.Kind, ShouldEqual, comparison.ReplyFollowUp)
			So(r.Summary, ShouldEqual, "Team 200 should be ranked first now.")
			So(r.Ranking, ShouldBeNil)
		})

		Convey("When a follow-up reply follows the summary-only format", func() {
			r := comparison.DecodeReply(`{"summary": "Team 300 climbs more.", "ranking": [{"team_number": 300, "rank": 1}]}`, true)
			So(r.Kind, ShouldEqual, comparison.ReplyFollowUp)
			So(r.Summary, ShouldEqual, "Team 300 climbs more.")
			So(r.Ranking, ShouldBeNil)
		})

		Convey("Then kinds should have stable names", func() {
			So(comparison.ReplyRanked.String(), ShouldEqual, "ranked")
			So(comparison.ReplyLegacy.String(), ShouldEqual, "legacy")
			So(comparison.ReplyFollowUp.String(), ShouldEqual, "follow_up")
			So(comparison.ReplyMalformed.String(), ShouldEqual, "malformed")
		})
	})
}
