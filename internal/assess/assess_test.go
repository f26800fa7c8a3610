package assess

import (
	"context"
	"testing"
	"time"

	"github.com/opensource-ocean/reefwatch/internal/domain"
)

func result(outcome string, score, weight float64, reason string) domain.RuleResult {
	return domain.RuleResult{
		RuleID:     "r",
		VesselMMSI: "100",
		Outcome:    outcome,
		Score:      score,
		Weight:     weight,
		Reason:     reason,
	}
}

func TestProcessAlertOutcomeWins(t *testing.T) {
	p := NewProcessor(0.7)

	// One alerting rule among clears flags the vessel even though the
	// weighted score sits below the threshold.
	a := p.Process(context.Background(), &DecisionInput{
		VesselMMSI: "100",
		TraceID:    "trace-1",
		RuleResults: []domain.RuleResult{
			result(domain.OutcomeAlert, 1.0, 1.0, "predominantly dark meetings"),
			result(domain.OutcomeClear, 0.0, 1.0, ""),
			result(domain.OutcomeClear, 0.0, 1.0, ""),
		},
		StartTime: time.Now(),
	})

	if a.Status != domain.StatusAlert {
		t.Errorf("expected %s, got %s", domain.StatusAlert, a.Status)
	}
	if !ShouldAlert(a) {
		t.Error("ShouldAlert should agree with the status")
	}
	want := 1.0 / 3.0
	if a.Score < want-1e-9 || a.Score > want+1e-9 {
		t.Errorf("expected score %.3f, got %.3f", want, a.Score)
	}
	if a.VesselMMSI != "100" || a.ID == "" {
		t.Errorf("assessment identity incomplete: %+v", a)
	}
	if a.Metadata.TraceID != "trace-1" || a.Metadata.RulesEvaluated != 3 {
		t.Errorf("metadata incomplete: %+v", a.Metadata)
	}
}

func TestProcessThresholdAlert(t *testing.T) {
	p := NewProcessor(0.7)

	// No rule alerts outright, but the weighted score crosses the line.
	a := p.Process(context.Background(), &DecisionInput{
		VesselMMSI: "100",
		RuleResults: []domain.RuleResult{
			result(domain.OutcomeReview, 0.8, 1.0, "unauthorized meetings far offshore"),
			result(domain.OutcomeReview, 0.7, 1.0, "half dark"),
		},
		StartTime: time.Now(),
	})

	if a.Status != domain.StatusAlert {
		t.Errorf("expected threshold alert, got %s with score %.3f", a.Status, a.Score)
	}
}

func TestProcessClear(t *testing.T) {
	p := NewProcessor(0.7)

	a := p.Process(context.Background(), &DecisionInput{
		VesselMMSI: "100",
		RuleResults: []domain.RuleResult{
			result(domain.OutcomeClear, 0.0, 1.0, ""),
			result(domain.OutcomeReview, 0.3, 1.0, "borderline"),
		},
		StartTime: time.Now(),
	})

	if a.Status != domain.StatusClear {
		t.Errorf("expected %s, got %s", domain.StatusClear, a.Status)
	}
	if ShouldAlert(a) {
		t.Error("clear assessment must not alert")
	}
}

func TestProcessNoResults(t *testing.T) {
	p := NewProcessor(0.7)

	a := p.Process(context.Background(), &DecisionInput{
		VesselMMSI: "100",
		StartTime:  time.Now(),
	})

	if a.Status != domain.StatusClear || a.Score != 0 {
		t.Errorf("empty results should clear with score 0, got %s %.3f", a.Status, a.Score)
	}
}

func TestAggregateWeighted(t *testing.T) {
	p := NewProcessor(0.7)

	agg := p.aggregate([]domain.RuleResult{
		result(domain.OutcomeAlert, 1.0, 1.0, ""),
		result(domain.OutcomeReview, 1.0, 0.5, ""),
		result(domain.OutcomeClear, 0.0, 1.0, ""),
	})

	// (1*1 + 1*0.5 + 0*1) / (1 + 0.5 + 1) = 0.6
	if agg.AggregateScore != 0.6 {
		t.Errorf("expected weighted score 0.6, got %g", agg.AggregateScore)
	}
	if agg.TotalWeight != 2.5 {
		t.Errorf("expected total weight 2.5, got %g", agg.TotalWeight)
	}
	if agg.RulesTriggered != 2 {
		t.Errorf("expected 2 triggered rules, got %d", agg.RulesTriggered)
	}
	if !agg.HasAlertOutcome {
		t.Error("expected alert outcome flagged")
	}
}

func TestAggregateUnweighted(t *testing.T) {
	p := NewProcessor(0.7)
	p.UseWeightedScoring = false

	agg := p.aggregate([]domain.RuleResult{
		result(domain.OutcomeClear, 1.0, 0.5, ""),
		result(domain.OutcomeClear, 0.0, 2.0, ""),
	})

	if agg.AggregateScore != 0.5 {
		t.Errorf("expected unweighted mean 0.5, got %g", agg.AggregateScore)
	}
}

func TestAggregateZeroWeightDefaultsToOne(t *testing.T) {
	p := NewProcessor(0.7)

	agg := p.aggregate([]domain.RuleResult{
		result(domain.OutcomeClear, 1.0, 0, ""),
	})
	if agg.TotalWeight != 1.0 || agg.AggregateScore != 1.0 {
		t.Errorf("zero weight should count as 1.0: weight %g score %g", agg.TotalWeight, agg.AggregateScore)
	}
}

func TestDefaultThreshold(t *testing.T) {
	p := NewProcessor(0)
	if p.AlertThreshold != 0.7 {
		t.Errorf("expected default threshold 0.7, got %g", p.AlertThreshold)
	}
}

func TestGetReasons(t *testing.T) {
	a := &domain.Assessment{
		RuleResults: []domain.RuleResult{
			result(domain.OutcomeAlert, 1.0, 1.0, "predominantly dark meetings"),
			result(domain.OutcomeReview, 0.6, 1.0, "unauthorized meetings far offshore"),
			result(domain.OutcomeReview, 0.6, 1.0, ""),
			result(domain.OutcomeClear, 0.0, 1.0, "clear anyway"),
		},
	}

	reasons := GetReasons(a)
	if len(reasons) != 2 {
		t.Fatalf("expected 2 reasons, got %d: %v", len(reasons), reasons)
	}
	if reasons[0] != "predominantly dark meetings" {
		t.Errorf("unexpected first reason: %q", reasons[0])
	}
}
