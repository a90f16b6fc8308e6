package api

import (
	"errors"
	"net/http"

	"github.com/okian/draftrank/internal/domain/model"
	"github.com/okian/draftrank/internal/domain/teamdata"
)

// planRequest is the body of POST /api/v1/compare/plan. Counts may be given
// directly or derived from team_numbers and priorities.
type planRequest struct {
	TeamCount     *int             `json:"team_count"`
	PriorityCount *int             `json:"priority_count"`
	TeamNumbers   []int            `json:"team_numbers"`
	Priorities    []model.Priority `json:"priorities"`
	Batch         *bool            `json:"batch"`
}

func (p planRequest) counts() (int, int, error) {
	teams := len(teamdata.Distinct(p.TeamNumbers))
	if p.TeamCount != nil {
		teams = *p.TeamCount
	}
	prios := len(p.Priorities)
	if p.PriorityCount != nil {
		prios = *p.PriorityCount
	}
	switch {
	case teams < 1:
		return 0, 0, errors.New("team count must be at least 1")
	case prios < 0:
		return 0, 0, errors.New("priority count must not be negative")
	}
	return teams, prios, nil
}

type planResponse struct {
	Plan  model.ProcessingPlan `json:"plan"`
	Usage model.UsageEstimate  `json:"usage"`
}

// PlanHandler answers batching and token-usage questions without calling the oracle.
type PlanHandler struct {
	deps         Comparer
	maxBodyBytes int64
}

// NewPlanHandler creates a new plan handler.
func NewPlanHandler(deps Comparer, maxBodyBytes int64) *PlanHandler {
	return &PlanHandler{deps: deps, maxBodyBytes: maxBodyBytes}
}

// HandlePlan handles POST /api/v1/compare/plan requests.
func (h *PlanHandler) HandlePlan(w http.ResponseWriter, r *http.Request) {
	var body planRequest
	if err := decodeBody(w, r, h.maxBodyBytes, &body); err != nil {
		writeDecodeError(w, err)
		return
	}
	teams, prios, err := body.counts()
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	plan, usage := h.deps.Plan(teams, prios, body.Batch)
	writeJSON(w, http.StatusOK, planResponse{Plan: plan, Usage: usage})
}
