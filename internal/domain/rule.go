package domain

// AlertRule defines a vessel flagging rule configuration. The expression
// is a CEL program evaluated against one ranking row at a time.
type AlertRule struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Version     string `json:"version"`

	// CEL expression to evaluate
	Expression string `json:"expression"`

	// Outcome bands for score-to-outcome mapping
	Bands []RuleBand `json:"bands"`

	// Rule weight in the composite vessel assessment
	Weight float64 `json:"weight"`

	// Whether rule is active
	Enabled bool `json:"enabled"`
}

// RuleBand maps a score range to an outcome.
type RuleBand struct {
	LowerLimit *float64 `json:"lowerLimit,omitempty"`
	UpperLimit *float64 `json:"upperLimit,omitempty"`
	Outcome    string   `json:"outcome"` // e.g., ".clear", ".alert"
	Reason     string   `json:"reason"`
}

// RuleResult is the output of evaluating one rule against one vessel.
type RuleResult struct {
	RuleID     string  `json:"ruleId"`
	VesselMMSI string  `json:"vesselMmsi"`
	Outcome    string  `json:"outcome"`
	Score      float64 `json:"score"`
	Reason     string  `json:"reason"`
	Weight     float64 `json:"weight"`
	ProcessMs  int64   `json:"processMs"`
}

// Predefined rule outcomes
const (
	OutcomeClear  = ".clear"
	OutcomeReview = ".review"
	OutcomeAlert  = ".alert"
	OutcomeError  = ".err"
)
