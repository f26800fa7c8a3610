package rules

import "github.com/opensource-ocean/reefwatch/internal/domain"

func ptr(f float64) *float64 { return &f }

// BuiltinRules returns the default alert rules loaded when the rules
// table is empty. Operators override these via the rule CRUD endpoints.
func BuiltinRules() []*domain.AlertRule {
	return []*domain.AlertRule{
		{
			ID:          "dark-meeting-ratio",
			Name:        "Dark meeting ratio",
			Description: "Most meetings are with vessels that never appear in the tracked fleet",
			Version:     "1.0.0",
			Expression:  "total_meetings >= 10 && tracked_ratio < 0.25",
			Bands: []domain.RuleBand{
				{LowerLimit: ptr(0.0), UpperLimit: ptr(1.0), Outcome: domain.OutcomeClear, Reason: "tracked ratio acceptable"},
				{LowerLimit: ptr(1.0), Outcome: domain.OutcomeAlert, Reason: "predominantly dark meetings"},
			},
			Weight:  1.0,
			Enabled: true,
		},
		{
			ID:          "high-percentile",
			Name:        "High suspicion percentile",
			Description: "Vessel sits in the top decile of meeting counts",
			Version:     "1.0.0",
			Expression:  "percentile >= 0.9",
			Bands: []domain.RuleBand{
				{LowerLimit: ptr(0.0), UpperLimit: ptr(1.0), Outcome: domain.OutcomeClear, Reason: "percentile below threshold"},
				{LowerLimit: ptr(1.0), Outcome: domain.OutcomeAlert, Reason: "top decile meeting count"},
			},
			Weight:  1.0,
			Enabled: true,
		},
		{
			ID:          "unauthorized-far-offshore",
			Name:        "Unauthorized far offshore",
			Description: "Low authorization ratio combined with operations far from shore",
			Version:     "1.0.0",
			Expression:  "authorized_ratio < 0.5 && median_distance_nm > 100.0",
			Bands: []domain.RuleBand{
				{LowerLimit: ptr(0.0), UpperLimit: ptr(1.0), Outcome: domain.OutcomeClear, Reason: "authorization profile acceptable"},
				{LowerLimit: ptr(1.0), Outcome: domain.OutcomeReview, Reason: "unauthorized meetings far offshore"},
			},
			Weight:  0.5,
			Enabled: true,
		},
	}
}
