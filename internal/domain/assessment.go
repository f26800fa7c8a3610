package domain

import "time"

// Assessment status values.
const (
	StatusAlert = "ALRT"
	StatusClear = "NALT"
)

// Assessment is the composite outcome of evaluating all alert rules
// against one ranked vessel.
type Assessment struct {
	ID          string       `json:"id"`
	VesselMMSI  string       `json:"vesselMmsi"`
	Timestamp   time.Time    `json:"timestamp"`
	Status      string       `json:"status"` // ALRT or NALT
	Score       float64      `json:"score"`
	RuleResults []RuleResult `json:"ruleResults"`

	Metadata AssessmentMetadata `json:"metadata"`
}

// AssessmentMetadata carries evaluation diagnostics.
type AssessmentMetadata struct {
	TraceID        string `json:"traceId,omitempty"`
	RulesEvaluated int    `json:"rulesEvaluated"`
	DecisionMs     int64  `json:"decisionMs"`
	TotalMs        int64  `json:"totalMs"`
	EngineVersion  string `json:"engineVersion"`
}
