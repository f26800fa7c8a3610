// Package jurisdiction resolves enforcement-scope selectors into sets of
// ISO3 country codes and applies them to ranking rows.
//
// Flag-state jurisdiction (the state a vessel is registered to) and
// territorial-waters jurisdiction (the EEZ a vessel currently sits in)
// are independently meaningful tests and are kept strictly separate.
package jurisdiction

import (
	"errors"
	"fmt"

	"github.com/opensource-ocean/reefwatch/internal/domain"
)

// ErrUnknownSelector is returned for selector kinds the resolver does
// not recognize.
var ErrUnknownSelector = errors.New("unknown jurisdiction selector")

// Kind enumerates the supported selector kinds.
type Kind string

const (
	// KindCountry scopes to a single ISO3 code.
	KindCountry Kind = "country"

	// KindNATO scopes to the NATO membership roster.
	KindNATO Kind = "alliance-nato"

	// KindFiveEyes scopes to the Five Eyes intelligence alliance.
	KindFiveEyes Kind = "alliance-five-eyes"

	// KindAny places no jurisdiction restriction.
	KindAny Kind = "any"
)

// Selector is an enforcement-scope choice made explicitly by the caller.
type Selector struct {
	Kind    Kind   `json:"kind"`
	Country string `json:"country,omitempty"`
}

// Any returns the unrestricted selector.
func Any() Selector { return Selector{Kind: KindAny} }

// natoRoster is the static NATO membership roster as shipped with the
// input tables. Partner entries that are not members appear in the raw
// roster and are removed during resolution.
var natoRoster = []string{
	"ALB", "BEL", "BGR", "CAN", "HRV", "CZE", "DNK", "EST", "FIN",
	"FRA", "DEU", "GRC", "HUN", "ISL", "ITA", "LVA", "LTU", "LUX",
	"MNE", "NLD", "MKD", "NOR", "POL", "PRT", "ROU", "SVK", "SVN",
	"ESP", "SWE", "TUR", "GBR", "USA",
	// partner programme entries carried in the source roster
	"AUT", "IRL", "CHE",
}

// notNATO lists roster entries that are partners, not members.
var notNATO = map[string]bool{
	"AUT": true,
	"IRL": true,
	"CHE": true,
}

// fiveEyes is the fixed Five Eyes code set.
var fiveEyes = []string{"AUS", "CAN", "GBR", "NZL", "USA"}

// Resolve maps a selector to a set of ISO3 codes. The universe argument
// supplies the full set of observed flag/EEZ codes for KindAny; empty
// and unknown codes are excluded from it.
func Resolve(sel Selector, universe []string) (map[string]bool, error) {
	switch sel.Kind {
	case KindCountry:
		if sel.Country == "" {
			return nil, fmt.Errorf("%w: country selector requires a code", ErrUnknownSelector)
		}
		return map[string]bool{sel.Country: true}, nil

	case KindNATO:
		set := make(map[string]bool, len(natoRoster))
		for _, c := range natoRoster {
			if notNATO[c] {
				continue
			}
			set[c] = true
		}
		return set, nil

	case KindFiveEyes:
		set := make(map[string]bool, len(fiveEyes))
		for _, c := range fiveEyes {
			set[c] = true
		}
		return set, nil

	case KindAny:
		set := make(map[string]bool, len(universe))
		for _, c := range universe {
			if c == "" || c == "unknown" {
				continue
			}
			set[c] = true
		}
		return set, nil

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownSelector, sel.Kind)
	}
}

// FilterByFlag keeps rows whose flag state is in the code set.
// Flag-state jurisdiction.
func FilterByFlag(rows []domain.RankingRow, codes map[string]bool) []domain.RankingRow {
	out := make([]domain.RankingRow, 0, len(rows))
	for _, r := range rows {
		if codes[r.VesselFlag] {
			out = append(out, r)
		}
	}
	return out
}

// FilterByEEZ keeps rows whose vessel currently sits within an EEZ in
// the code set. Territorial-waters jurisdiction; requires a live status.
func FilterByEEZ(rows []domain.RankingRow, codes map[string]bool) []domain.RankingRow {
	out := make([]domain.RankingRow, 0, len(rows))
	for _, r := range rows {
		if r.Status != nil && codes[r.Status.EEZ] {
			out = append(out, r)
		}
	}
	return out
}
