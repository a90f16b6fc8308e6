package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/smartystreets/goconvey/convey"

	"github.com/okian/draftrank/internal/config"
	"github.com/okian/draftrank/internal/domain/model"
)

func execute(args ...string) (string, error) {
	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&bytes.Buffer{})
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestRootCommand(t *testing.T) {
	convey.Convey("Given the root command", t, func() {
		root := newRootCmd()

		convey.Convey("Then it should expose every subcommand", func() {
			names := map[string]bool{}
			for _, c := range root.Commands() {
				names[c.Name()] = true
			}
			convey.So(names["serve"], convey.ShouldBeTrue)
			convey.So(names["compare"], convey.ShouldBeTrue)
			convey.So(names["plan"], convey.ShouldBeTrue)
		})

		convey.Convey("And the shared flags should be persistent", func() {
			convey.So(root.PersistentFlags().Lookup("config"), convey.ShouldNotBeNil)
			convey.So(root.PersistentFlags().Lookup("dataset"), convey.ShouldNotBeNil)
			convey.So(root.PersistentFlags().Lookup("log-level"), convey.ShouldNotBeNil)
		})
	})
}

func TestParsePriority(t *testing.T) {
	convey.Convey("Given priority flag values", t, func() {
		convey.Convey("When only an id is given", func() {
			p, err := parsePriority("auto_points")
			convey.So(err, convey.ShouldBeNil)
			convey.So(p, convey.ShouldResemble, model.Priority{ID: "auto_points", Weight: 1})
		})

		convey.Convey("When a weight and reason are given", func() {
			p, err := parsePriority("defense_rating:2.5:needs a defender")
			convey.So(err, convey.ShouldBeNil)
			convey.So(p.ID, convey.ShouldEqual, "defense_rating")
			convey.So(p.Weight, convey.ShouldEqual, 2.5)
			convey.So(p.Reason, convey.ShouldEqual, "needs a defender")
		})

		convey.Convey("When the reason contains colons", func() {
			p, err := parsePriority("climb:3:endgame: deep climb")
			convey.So(err, convey.ShouldBeNil)
			convey.So(p.Reason, convey.ShouldEqual, "endgame: deep climb")
		})

		convey.Convey("When the weight is not a number", func() {
			_, err := parsePriority("auto:heavy")
			convey.So(err, convey.ShouldNotBeNil)
		})

		convey.Convey("When the id is empty", func() {
			_, err := parsePriority(":2")
			convey.So(err, convey.ShouldNotBeNil)
		})
	})
}

func TestCompareRequest(t *testing.T) {
	convey.Convey("Given compare flags", t, func() {
		co := &compareOptions{
			teams:      []int{254, 1678},
			excluded:   []int{971},
			priorities: []string{"auto:2"},
			pick:       3,
			requester:  118,
			batch:      true,
		}

		convey.Convey("When batching was not set explicitly", func() {
			req, err := co.request(false)
			convey.So(err, convey.ShouldBeNil)
			convey.So(req.TeamNumbers, convey.ShouldResemble, []int{254, 1678})
			convey.So(req.Excluded, convey.ShouldResemble, []int{971})
			convey.So(req.PickPosition, convey.ShouldEqual, 3)
			convey.So(req.Requester, convey.ShouldEqual, 118)
			convey.So(req.Priorities, convey.ShouldResemble, []model.Priority{{ID: "auto", Weight: 2}})
			convey.So(req.Batch, convey.ShouldBeNil)
		})

		convey.Convey("When batching was set explicitly", func() {
			req, err := co.request(true)
			convey.So(err, convey.ShouldBeNil)
			convey.So(req.Batch, convey.ShouldNotBeNil)
			convey.So(*req.Batch, convey.ShouldBeTrue)
		})

		convey.Convey("When a priority is malformed", func() {
			co.priorities = []string{"auto:x"}
			_, err := co.request(false)
			convey.So(err, convey.ShouldNotBeNil)
		})
	})
}

func TestPlanCommand(t *testing.T) {
	convey.Convey("Given the plan command", t, func() {
		_ = os.Unsetenv(config.EnvConfigFile)

		convey.Convey("When planning a large workload", func() {
			out, err := execute("plan", "--teams", "45", "--priorities", "4")

			convey.Convey("Then the plan should be printed as JSON", func() {
				convey.So(err, convey.ShouldBeNil)
				var got planOutput
				convey.So(json.Unmarshal([]byte(out), &got), convey.ShouldBeNil)
				convey.So(got.Plan.UseBatching, convey.ShouldBeTrue)
				convey.So(got.Plan.Source, convey.ShouldEqual, model.PlanAutoDetermined)
				convey.So(got.Usage.TotalTokens, convey.ShouldBeGreaterThan, 0)
			})
		})

		convey.Convey("When batching is forced off", func() {
			out, err := execute("plan", "--teams", "45", "--priorities", "4", "--batch=false")
			convey.So(err, convey.ShouldBeNil)
			var got planOutput
			convey.So(json.Unmarshal([]byte(out), &got), convey.ShouldBeNil)
			convey.So(got.Plan.UseBatching, convey.ShouldBeFalse)
			convey.So(got.Plan.Source, convey.ShouldEqual, model.PlanUserSpecified)
		})

		convey.Convey("When no teams are given", func() {
			_, err := execute("plan")
			convey.So(err, convey.ShouldNotBeNil)
		})
	})
}

func TestCompareCommand(t *testing.T) {
	convey.Convey("Given the compare command", t, func() {
		_ = os.Unsetenv(config.EnvConfigFile)

		convey.Convey("When --teams is missing", func() {
			_, err := execute("compare")
			convey.So(err, convey.ShouldNotBeNil)
		})

		convey.Convey("When a priority cannot be parsed", func() {
			_, err := execute("compare", "--teams", "1,2", "--priority", "auto:lots")
			convey.So(err, convey.ShouldNotBeNil)
		})

		convey.Convey("When the dataset does not exist", func() {
			missing := filepath.Join(t.TempDir(), "teams.json")
			_, err := execute("compare", "--teams", "1,2", "--dataset", missing)
			convey.So(err, convey.ShouldNotBeNil)
		})
	})
}

func TestServeCommand(t *testing.T) {
	convey.Convey("Given the serve command", t, func() {
		_ = os.Unsetenv(config.EnvConfigFile)

		convey.Convey("When the config file does not exist", func() {
			_, err := execute("serve", "--config", "/non/existent/draftrank.yaml")
			convey.So(err, convey.ShouldNotBeNil)
			_ = os.Unsetenv(config.EnvConfigFile)
		})

		convey.Convey("When the dataset cannot be loaded", func() {
			missing := filepath.Join(t.TempDir(), "teams.json")
			err := runServe(context.Background(), &rootOptions{datasetPath: missing})
			convey.So(err, convey.ShouldNotBeNil)
		})
	})
}
