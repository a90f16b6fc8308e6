package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cast"
	"github.com/spf13/cobra"

	app "github.com/okian/draftrank/internal/app"
	"github.com/okian/draftrank/internal/domain/comparison"
	"github.com/okian/draftrank/internal/domain/model"
	"github.com/okian/draftrank/pkg/logger"
)

type compareOptions struct {
	teams      []int
	excluded   []int
	priorities []string
	pick       int
	requester  int
	question   string
	batch      bool
}

func compareCmd(opts *rootOptions) *cobra.Command {
	co := &compareOptions{}
	cmd := &cobra.Command{
		Use:   "compare",
		Short: "Rank teams once and print the result as JSON",
		RunE: func(cmd *cobra.Command, _ []string) error {
			req, err := co.request(cmd.Flags().Changed("batch"))
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			cfg, err := setup(ctx, opts)
			if err != nil {
				return err
			}
			svc := app.New(append(app.FromConfig(cfg), app.WithLogger(logger.Get()))...)
			if err := svc.Start(ctx); err != nil {
				return err
			}
			defer svc.Stop()

			res, err := svc.Compare(ctx, req)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), res)
		},
	}
	cmd.Flags().IntSliceVar(&co.teams, "teams", nil, "team numbers to compare, e.g. 254,1678")
	cmd.Flags().IntSliceVar(&co.excluded, "exclude", nil, "team numbers to leave out")
	cmd.Flags().StringArrayVar(&co.priorities, "priority", nil, "priority as id:weight[:reason], repeatable")
	cmd.Flags().IntVar(&co.pick, "pick", 1, "draft pick position")
	cmd.Flags().IntVar(&co.requester, "requester", 0, "team number making the pick")
	cmd.Flags().StringVar(&co.question, "question", "", "ask a follow-up question instead of ranking")
	cmd.Flags().BoolVar(&co.batch, "batch", false, "force batching on or off")
	_ = cmd.MarkFlagRequired("teams")
	return cmd
}

func (co *compareOptions) request(batchSet bool) (comparison.Request, error) {
	req := comparison.Request{
		Requester:    co.requester,
		PickPosition: co.pick,
		TeamNumbers:  co.teams,
		Excluded:     co.excluded,
		Question:     co.question,
	}
	for _, raw := range co.priorities {
		p, err := parsePriority(raw)
		if err != nil {
			return comparison.Request{}, err
		}
		req.Priorities = append(req.Priorities, p)
	}
	if batchSet {
		b := co.batch
		req.Batch = &b
	}
	return req, nil
}

// parsePriority reads "id:weight[:reason]". The weight defaults to 1.
func parsePriority(raw string) (model.Priority, error) {
	parts := strings.SplitN(raw, ":", 3)
	p := model.Priority{ID: strings.TrimSpace(parts[0]), Weight: 1}
	if p.ID == "" {
		return model.Priority{}, fmt.Errorf("priority %q: missing id", raw)
	}
	if len(parts) > 1 && strings.TrimSpace(parts[1]) != "" {
		w, err := cast.ToFloat64E(strings.TrimSpace(parts[1]))
		if err != nil {
			return model.Priority{}, fmt.Errorf("priority %q: weight: %w", raw, err)
		}
		p.Weight = w
	}
	if len(parts) > 2 {
		p.Reason = strings.TrimSpace(parts[2])
	}
	return p, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
