// Package assess aggregates rule results into a composite vessel
// assessment and the final alert/clear decision.
package assess

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/opensource-ocean/reefwatch/internal/domain"
)

// Processor aggregates rule results and produces a final decision.
type Processor struct {
	// Threshold above which a vessel is flagged as ALERT
	AlertThreshold float64

	// Weight configuration for rule aggregation
	UseWeightedScoring bool
}

// NewProcessor creates a new assessment processor with default settings.
func NewProcessor(alertThreshold float64) *Processor {
	if alertThreshold <= 0 {
		alertThreshold = 0.7
	}
	return &Processor{
		AlertThreshold:     alertThreshold,
		UseWeightedScoring: true,
	}
}

// DecisionInput contains all data needed for a decision.
type DecisionInput struct {
	VesselMMSI  string
	TraceID     string
	RuleResults []domain.RuleResult
	StartTime   time.Time
}

// Process evaluates rule results and produces a final assessment.
func (p *Processor) Process(ctx context.Context, input *DecisionInput) *domain.Assessment {
	start := time.Now()

	assessment := &domain.Assessment{
		ID:          uuid.New().String(),
		VesselMMSI:  input.VesselMMSI,
		Timestamp:   time.Now().UTC(),
		RuleResults: input.RuleResults,
	}

	agg := p.aggregate(input.RuleResults)

	if agg.HasAlertOutcome || agg.AggregateScore >= p.AlertThreshold {
		assessment.Status = domain.StatusAlert
	} else {
		assessment.Status = domain.StatusClear
	}
	assessment.Score = agg.AggregateScore

	decisionMs := time.Since(start).Milliseconds()
	totalMs := time.Since(input.StartTime).Milliseconds()

	assessment.Metadata = domain.AssessmentMetadata{
		TraceID:        input.TraceID,
		RulesEvaluated: len(input.RuleResults),
		DecisionMs:     decisionMs,
		TotalMs:        totalMs,
		EngineVersion:  "reefwatch-1.0",
	}

	return assessment
}

// AggregateResult holds the aggregated scoring results.
type AggregateResult struct {
	AggregateScore  float64
	TotalWeight     float64
	RulesTriggered  int
	HasAlertOutcome bool
}

// aggregate computes the weighted aggregate score from rule results.
func (p *Processor) aggregate(results []domain.RuleResult) *AggregateResult {
	if len(results) == 0 {
		return &AggregateResult{}
	}

	agg := &AggregateResult{}

	for _, r := range results {
		weight := r.Weight
		if weight <= 0 {
			weight = 1.0
		}

		if r.Outcome == domain.OutcomeAlert {
			agg.HasAlertOutcome = true
			agg.RulesTriggered++
		} else if r.Outcome == domain.OutcomeReview {
			agg.RulesTriggered++
		}

		if p.UseWeightedScoring {
			agg.AggregateScore += r.Score * weight
			agg.TotalWeight += weight
		} else {
			agg.AggregateScore += r.Score
			agg.TotalWeight += 1.0
		}
	}

	// Normalize score
	if agg.TotalWeight > 0 {
		agg.AggregateScore = agg.AggregateScore / agg.TotalWeight
	}

	return agg
}

// ShouldAlert returns true if the assessment should trigger an alert.
func ShouldAlert(a *domain.Assessment) bool {
	return a.Status == domain.StatusAlert
}

// GetReasons extracts human-readable reasons from an assessment.
func GetReasons(a *domain.Assessment) []string {
	var reasons []string
	for _, r := range a.RuleResults {
		if r.Outcome == domain.OutcomeAlert || r.Outcome == domain.OutcomeReview {
			if r.Reason != "" {
				reasons = append(reasons, r.Reason)
			}
		}
	}
	return reasons
}
