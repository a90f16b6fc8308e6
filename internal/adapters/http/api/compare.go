package api

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/okian/draftrank/internal/domain/cache"
	"github.com/okian/draftrank/internal/domain/comparison"
	"github.com/okian/draftrank/internal/domain/model"
	"github.com/okian/draftrank/internal/domain/teamdata"
	"github.com/okian/draftrank/pkg/logger"
)

// compareRequest is the body of POST /api/v1/compare.
type compareRequest struct {
	Requester    int              `json:"requester"`
	PickPosition int              `json:"pick_position"`
	TeamNumbers  []int            `json:"team_numbers"`
	Priorities   []model.Priority `json:"priorities"`
	Excluded     []int            `json:"excluded"`
	Question     string           `json:"question"`
	History      []model.ChatTurn `json:"history"`
	Batch        *bool            `json:"batch"`
}

func (c compareRequest) validate() error {
	switch {
	case len(c.TeamNumbers) == 0:
		return errors.New("missing team_numbers")
	case c.PickPosition < 0:
		return errors.New("pick_position must not be negative")
	}
	for _, turn := range c.History {
		if strings.TrimSpace(turn.Question) == "" {
			return errors.New("history entries need a question")
		}
	}
	return nil
}

func (c compareRequest) toDomain() comparison.Request {
	return comparison.Request{
		Requester:    c.Requester,
		PickPosition: c.PickPosition,
		TeamNumbers:  c.TeamNumbers,
		Priorities:   c.Priorities,
		Excluded:     c.Excluded,
		Question:     c.Question,
		History:      c.History,
		Batch:        c.Batch,
	}
}

// CompareHandler handles comparison requests.
type CompareHandler struct {
	deps         Comparer
	maxBodyBytes int64
	logger       logger.Logger
}

// NewCompareHandler creates a new compare handler.
func NewCompareHandler(deps Comparer, maxBodyBytes int64, l logger.Logger) *CompareHandler {
	return &CompareHandler{deps: deps, maxBodyBytes: maxBodyBytes, logger: l}
}

// HandleCompare handles POST /api/v1/compare requests.
func (h *CompareHandler) HandleCompare(w http.ResponseWriter, r *http.Request) {
	var body compareRequest
	if err := decodeBody(w, r, h.maxBodyBytes, &body); err != nil {
		writeDecodeError(w, err)
		return
	}
	if err := body.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}

	res, err := h.deps.Compare(r.Context(), body.toDomain())
	if err != nil {
		h.writeComparisonError(r.Context(), w, err)
		return
	}
	w.Header().Set("X-Request-Id", res.RequestID)
	writeJSON(w, http.StatusOK, res)
}

func (h *CompareHandler) writeComparisonError(ctx context.Context, w http.ResponseWriter, err error) {
	var (
		missing *teamdata.MissingTeamsError
		budget  *comparison.BudgetExceededError
	)
	switch {
	case errors.Is(err, comparison.ErrValidation):
		writeError(w, http.StatusBadRequest, "bad_request", err)
	case errors.As(err, &missing):
		writeJSON(w, http.StatusNotFound, errorResponse{Code: "teams_not_found", Message: err.Error(), Missing: missing.Missing})
	case errors.As(err, &budget):
		writeError(w, http.StatusRequestEntityTooLarge, "budget_exceeded", err)
	case errors.Is(err, cache.ErrInProgress):
		writeError(w, http.StatusConflict, "in_progress", err)
	case errors.Is(err, comparison.ErrOracleTransport):
		h.logger.Error(ctx, "oracle call failed", logger.Error(err))
		writeError(w, http.StatusBadGateway, "oracle_unavailable", nil)
	default:
		h.logger.Error(ctx, "comparison failed", logger.Error(err))
		writeError(w, http.StatusInternalServerError, "internal_error", nil)
	}
}

func writeDecodeError(w http.ResponseWriter, err error) {
	if errors.Is(err, ErrBodyTooBig) {
		writeError(w, http.StatusRequestEntityTooLarge, "body_too_large", err)
		return
	}
	writeError(w, http.StatusBadRequest, "bad_request", err)
}
