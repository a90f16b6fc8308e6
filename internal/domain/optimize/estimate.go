package optimize

import (
	"math"

	"github.com/okian/draftrank/internal/domain/model"
)

// Token cost model.
const (
	baseSystemCompact  = 200
	baseSystemStandard = 400
	baseUser           = 100
	perTeamCompact     = 25
	perTeamStandard    = 45
	perPriority        = 15
	contextCost        = 100
	outputCompact      = 8
	outputStandard     = 15
	safetyMargin       = 1.1

	// TokenCeiling is the hard limit of a single oracle call.
	TokenCeiling = 100_000
)

// Batching thresholds.
const (
	batchTeamLimit     = 20
	batchPriorityLimit = 6
	batchTokenLimit    = TokenCeiling * 8 / 10
)

// EstimateTokenUsage estimates the token cost of one oracle call.
func EstimateTokenUsage(teamCount, priorityCount int, compact, hasContext bool) model.UsageEstimate {
	system, perTeam, perOutput := baseSystemStandard, perTeamStandard, outputStandard
	if compact {
		system, perTeam, perOutput = baseSystemCompact, perTeamCompact, outputCompact
	}
	input := system + baseUser + teamCount*perTeam + priorityCount*perPriority
	if hasContext {
		input += contextCost
	}
	output := teamCount * perOutput
	total := input + output
	margin := int(math.Round(float64(total) * safetyMargin))
	return model.UsageEstimate{
		InputTokens:     input,
		OutputTokens:    output,
		TotalTokens:     total,
		TotalWithMargin: margin,
		WithinLimit:     margin < TokenCeiling,
	}
}

// ShouldBatch reports whether the workload should be split into batches:
// too many teams, too many priorities, or an estimate above 80% of the ceiling.
func ShouldBatch(teamCount, priorityCount int) bool {
	if teamCount > batchTeamLimit || priorityCount > batchPriorityLimit {
		return true
	}
	return EstimateTokenUsage(teamCount, priorityCount, true, false).TotalWithMargin > batchTokenLimit
}

// PlanStrategy decides single-shot vs batched processing. A non-nil override
// wins over the automatic decision.
func PlanStrategy(teamCount, priorityCount int, override *bool) model.ProcessingPlan {
	plan := model.ProcessingPlan{Source: model.PlanAutoDetermined}
	if override != nil {
		plan.UseBatching = *override
		plan.Source = model.PlanUserSpecified
	} else {
		plan.UseBatching = ShouldBatch(teamCount, priorityCount)
	}

	if !plan.UseBatching {
		plan.BatchSize = teamCount
		plan.EstimatedBatches = 1
		return plan
	}

	switch {
	case priorityCount > 5:
		plan.BatchSize = 18
	case priorityCount > 3:
		plan.BatchSize = 19
	default:
		plan.BatchSize = 20
	}
	plan.EstimatedBatches = (teamCount + plan.BatchSize - 1) / plan.BatchSize
	if plan.EstimatedBatches < 1 {
		plan.EstimatedBatches = 1
	}
	return plan
}
