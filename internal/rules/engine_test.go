package rules

import (
	"context"
	"strings"
	"testing"

	"github.com/opensource-ocean/reefwatch/internal/domain"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	engine, err := NewEngine(4)
	if err != nil {
		t.Fatalf("failed to create engine: %v", err)
	}
	t.Cleanup(func() { engine.Close() })
	return engine
}

func boolRule(id, expr string) *domain.AlertRule {
	return &domain.AlertRule{
		ID:         id,
		Name:       id,
		Version:    "1",
		Expression: expr,
		Weight:     1.0,
		Enabled:    true,
		Bands: []domain.RuleBand{
			{LowerLimit: ptr(1.0), Outcome: domain.OutcomeAlert, Reason: "matched"},
			{UpperLimit: ptr(1.0), Outcome: domain.OutcomeClear, Reason: "not matched"},
		},
	}
}

func darkVessel() *EvaluateInput {
	return &EvaluateInput{
		Row: domain.RankingRow{
			VesselMMSI:       "273000000",
			VesselName:       "REEFER 273",
			VesselFlag:       "RUS",
			TotalMeetings:    12,
			TrackedCount:     2,
			DarkCount:        10,
			TrackedRatio:     2.0 / 12.0,
			AuthorizedRatio:  0.4,
			MedianDistanceNM: 140,
		},
		Score: domain.SuspicionScore{MeetingCount: 12, Percentile: 0.95},
	}
}

func TestLoadAndValidate(t *testing.T) {
	engine := newTestEngine(t)

	t.Run("ValidExpression", func(t *testing.T) {
		if err := engine.ValidateRule(boolRule("r1", "tracked_ratio < 0.25")); err != nil {
			t.Errorf("valid rule rejected: %v", err)
		}
		// Validation must not load the rule.
		if engine.RulesCount() != 0 {
			t.Errorf("validate loaded a rule: count %d", engine.RulesCount())
		}
	})

	t.Run("SyntaxError", func(t *testing.T) {
		err := engine.ValidateRule(boolRule("r2", "tracked_ratio <"))
		if err == nil {
			t.Error("expected a compile error")
		}
	})

	t.Run("UnknownVariable", func(t *testing.T) {
		err := engine.ValidateRule(boolRule("r3", "velocity > 10.0"))
		if err == nil {
			t.Error("expected an error for an undeclared variable")
		}
	})

	t.Run("WrongOutputType", func(t *testing.T) {
		err := engine.ValidateRule(boolRule("r4", `"always"`))
		if err == nil || !strings.Contains(err.Error(), "must return bool") {
			t.Errorf("expected an output type error, got %v", err)
		}
	})

	t.Run("NilRule", func(t *testing.T) {
		if err := engine.ValidateRule(nil); err == nil {
			t.Error("expected an error for a nil rule")
		}
	})

	t.Run("LoadAndCount", func(t *testing.T) {
		if err := engine.LoadRule(boolRule("r5", "percentile >= 0.9")); err != nil {
			t.Fatalf("load failed: %v", err)
		}
		if engine.RulesCount() != 1 {
			t.Errorf("expected 1 loaded rule, got %d", engine.RulesCount())
		}
	})
}

func TestLoadRulesSkipsDisabled(t *testing.T) {
	engine := newTestEngine(t)

	disabled := boolRule("off", "dark_count > 0")
	disabled.Enabled = false

	err := engine.LoadRules([]*domain.AlertRule{
		boolRule("on", "dark_count > 0"),
		disabled,
	})
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if engine.RulesCount() != 1 {
		t.Errorf("expected only the enabled rule loaded, got %d", engine.RulesCount())
	}
}

func TestEvaluateAll(t *testing.T) {
	engine := newTestEngine(t)
	ctx := context.Background()

	t.Run("NoRulesLoaded", func(t *testing.T) {
		results, err := engine.EvaluateAll(ctx, darkVessel())
		if err != nil {
			t.Fatalf("evaluate failed: %v", err)
		}
		if results != nil {
			t.Errorf("expected no results with no rules, got %v", results)
		}
	})

	if err := engine.LoadRules([]*domain.AlertRule{
		boolRule("mostly-dark", "total_meetings >= 10 && tracked_ratio < 0.25"),
		boolRule("top-decile", "percentile >= 0.9"),
		boolRule("nearshore", "median_distance_nm < 12.0"),
	}); err != nil {
		t.Fatalf("load failed: %v", err)
	}

	results, err := engine.EvaluateAll(ctx, darkVessel())
	if err != nil {
		t.Fatalf("evaluate failed: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}

	outcomes := map[string]domain.RuleResult{}
	for _, r := range results {
		outcomes[r.RuleID] = r
		if r.VesselMMSI != "273000000" {
			t.Errorf("rule %s: wrong vessel on result: %s", r.RuleID, r.VesselMMSI)
		}
	}

	if outcomes["mostly-dark"].Outcome != domain.OutcomeAlert {
		t.Errorf("mostly-dark: expected alert, got %s", outcomes["mostly-dark"].Outcome)
	}
	if outcomes["top-decile"].Outcome != domain.OutcomeAlert {
		t.Errorf("top-decile: expected alert, got %s", outcomes["top-decile"].Outcome)
	}
	if outcomes["nearshore"].Outcome != domain.OutcomeClear {
		t.Errorf("nearshore: expected clear, got %s", outcomes["nearshore"].Outcome)
	}
	if outcomes["mostly-dark"].Score != 1.0 || outcomes["nearshore"].Score != 0.0 {
		t.Errorf("bool scores wrong: %g, %g", outcomes["mostly-dark"].Score, outcomes["nearshore"].Score)
	}
}

func TestEvaluateNumericExpression(t *testing.T) {
	engine := newTestEngine(t)
	ctx := context.Background()

	rule := &domain.AlertRule{
		ID:         "dark-share",
		Name:       "Dark share",
		Version:    "1",
		Expression: "1.0 - tracked_ratio",
		Weight:     1.0,
		Enabled:    true,
		Bands: []domain.RuleBand{
			{LowerLimit: ptr(0.8), Outcome: domain.OutcomeAlert, Reason: "mostly dark"},
			{LowerLimit: ptr(0.5), UpperLimit: ptr(0.8), Outcome: domain.OutcomeReview, Reason: "half dark"},
			{UpperLimit: ptr(0.5), Outcome: domain.OutcomeClear, Reason: "mostly tracked"},
		},
	}
	if err := engine.LoadRule(rule); err != nil {
		t.Fatalf("load failed: %v", err)
	}

	cases := []struct {
		name         string
		trackedRatio float64
		wantOutcome  string
		wantReason   string
	}{
		{"MostlyDark", 0.1, domain.OutcomeAlert, "mostly dark"},
		{"HalfDark", 0.4, domain.OutcomeReview, "half dark"},
		{"BandLowerInclusive", 0.2, domain.OutcomeAlert, "mostly dark"},
		{"BandUpperExclusive", 0.5, domain.OutcomeReview, "half dark"},
		{"MostlyTracked", 0.9, domain.OutcomeClear, "mostly tracked"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			input := darkVessel()
			input.Row.TrackedRatio = tc.trackedRatio
			results, err := engine.EvaluateAll(ctx, input)
			if err != nil {
				t.Fatalf("evaluate failed: %v", err)
			}
			if len(results) != 1 {
				t.Fatalf("expected 1 result, got %d", len(results))
			}
			if results[0].Outcome != tc.wantOutcome {
				t.Errorf("expected %s, got %s (score %g)", tc.wantOutcome, results[0].Outcome, results[0].Score)
			}
			if results[0].Reason != tc.wantReason {
				t.Errorf("expected reason %q, got %q", tc.wantReason, results[0].Reason)
			}
		})
	}
}

func TestMatchBandDefaultsToClear(t *testing.T) {
	outcome, reason := matchBand(0.3, []domain.RuleBand{
		{LowerLimit: ptr(0.5), Outcome: domain.OutcomeAlert, Reason: "high"},
	})
	if outcome != domain.OutcomeClear {
		t.Errorf("expected clear fallback, got %s", outcome)
	}
	if reason != "no matching band" {
		t.Errorf("unexpected fallback reason: %q", reason)
	}
}

func TestReloadRules(t *testing.T) {
	engine := newTestEngine(t)

	if err := engine.LoadRules([]*domain.AlertRule{
		boolRule("a", "dark_count > 0"),
		boolRule("b", "percentile >= 0.9"),
	}); err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if err := engine.ReloadRules([]*domain.AlertRule{
		boolRule("c", "total_meetings >= 10"),
	}); err != nil {
		t.Fatalf("reload failed: %v", err)
	}

	if engine.RulesCount() != 1 {
		t.Fatalf("expected 1 rule after reload, got %d", engine.RulesCount())
	}
	loaded := engine.GetLoadedRules()
	if len(loaded) != 1 || loaded[0].ID != "c" {
		t.Errorf("expected only rule c loaded, got %v", loaded)
	}

	// A bad rule in the batch leaves the previous set untouched.
	err := engine.ReloadRules([]*domain.AlertRule{
		boolRule("d", "this is not CEL"),
	})
	if err == nil {
		t.Fatal("expected reload to fail on a bad rule")
	}
	if engine.RulesCount() != 1 || engine.GetLoadedRules()[0].ID != "c" {
		t.Error("failed reload should not clobber the loaded rules")
	}
}

func TestBuiltinRulesCompile(t *testing.T) {
	engine := newTestEngine(t)

	builtins := BuiltinRules()
	if len(builtins) == 0 {
		t.Fatal("expected a non-empty builtin rule set")
	}
	if err := engine.LoadRules(builtins); err != nil {
		t.Fatalf("builtin rules failed to load: %v", err)
	}
	if engine.RulesCount() != len(builtins) {
		t.Errorf("expected %d loaded builtins, got %d", len(builtins), engine.RulesCount())
	}

	// The dark-ratio builtin should fire on a heavily dark vessel.
	results, err := engine.EvaluateAll(context.Background(), darkVessel())
	if err != nil {
		t.Fatalf("evaluate failed: %v", err)
	}
	fired := false
	for _, r := range results {
		if r.Outcome == domain.OutcomeAlert {
			fired = true
		}
	}
	if !fired {
		t.Error("expected at least one builtin to alert on a dark vessel")
	}
}
