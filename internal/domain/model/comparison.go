package model

// Message roles understood by the oracle.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one role-tagged turn of an oracle conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatTurn is a prior follow-up question and the oracle's answer.
type ChatTurn struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// RankingEntry is one parsed line of an oracle ranking.
type RankingEntry struct {
	TeamNumber  int     `json:"team_number"`
	Rank        int     `json:"rank"`
	Score       float64 `json:"score"`
	BriefReason string  `json:"brief_reason"`
}

// RankedTeam is a copy of a team record annotated by the ranking.
// Score and Rank are nil when the teams are returned unranked.
type RankedTeam struct {
	TeamRecord
	Rank      *int     `json:"rank,omitempty"`
	Score     *float64 `json:"score,omitempty"`
	Reasoning string   `json:"reasoning,omitempty"`
}

// TeamStats holds the numeric comparison values of one team.
type TeamStats struct {
	TeamNumber int                `json:"team_number"`
	Nickname   string             `json:"nickname"`
	Stats      map[string]float64 `json:"stats"`
}

// ComparisonStatistics is the human-facing comparison table.
type ComparisonStatistics struct {
	Teams   []TeamStats `json:"teams"`
	Metrics []string    `json:"metrics"`
}

// PlanSource tells whether a processing plan was requested or derived.
type PlanSource string

// Plan sources.
const (
	PlanUserSpecified  PlanSource = "user_specified"
	PlanAutoDetermined PlanSource = "auto_determined"
)

// ProcessingPlan describes single-shot vs batched processing.
type ProcessingPlan struct {
	UseBatching      bool       `json:"use_batching"`
	BatchSize        int        `json:"batch_size"`
	EstimatedBatches int        `json:"estimated_batches"`
	Source           PlanSource `json:"source"`
}

// UsageEstimate is a token cost estimate for one oracle call.
type UsageEstimate struct {
	InputTokens     int  `json:"input_tokens"`
	OutputTokens    int  `json:"output_tokens"`
	TotalTokens     int  `json:"total_tokens"`
	TotalWithMargin int  `json:"total_with_margin"`
	WithinLimit     bool `json:"within_limit"`
}

// ComparisonResult is the outcome of one comparison request.
type ComparisonResult struct {
	RequestID      string               `json:"request_id"`
	OrderedTeams   []RankedTeam         `json:"ordered_teams"`
	Summary        string               `json:"summary"`
	ComparisonData ComparisonStatistics `json:"comparison_data"`
	Plan           ProcessingPlan       `json:"plan"`
	Usage          UsageEstimate        `json:"usage"`
	Degraded       bool                 `json:"degraded,omitempty"`
}
