package main

import (
	"fmt"

	"github.com/spf13/cobra"

	app "github.com/okian/draftrank/internal/app"
	"github.com/okian/draftrank/internal/domain/model"
)

type planOutput struct {
	Plan  model.ProcessingPlan `json:"plan"`
	Usage model.UsageEstimate  `json:"usage"`
}

func planCmd(opts *rootOptions) *cobra.Command {
	var teams, priorities int
	var batch bool
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Show the processing plan and token estimate for a workload",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if teams < 1 {
				return fmt.Errorf("--teams must be at least 1")
			}
			if priorities < 0 {
				return fmt.Errorf("--priorities must not be negative")
			}
			cfg, err := setup(cmd.Context(), opts)
			if err != nil {
				return err
			}

			var override *bool
			if cmd.Flags().Changed("batch") {
				override = &batch
			}
			plan, usage := app.New(app.FromConfig(cfg)...).Plan(teams, priorities, override)
			return printJSON(cmd.OutOrStdout(), planOutput{Plan: plan, Usage: usage})
		},
	}
	cmd.Flags().IntVar(&teams, "teams", 0, "number of teams")
	cmd.Flags().IntVar(&priorities, "priorities", 0, "number of priorities")
	cmd.Flags().BoolVar(&batch, "batch", false, "force batching on or off")
	return cmd
}
