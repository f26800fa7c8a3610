package jurisdiction

import (
	"errors"
	"testing"

	"github.com/opensource-ocean/reefwatch/internal/domain"
)

func TestResolve(t *testing.T) {
	universe := []string{"PAN", "RUS", "FRA", "unknown", ""}

	t.Run("Country", func(t *testing.T) {
		set, err := Resolve(Selector{Kind: KindCountry, Country: "FRA"}, universe)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(set) != 1 || !set["FRA"] {
			t.Errorf("expected {FRA}, got %v", set)
		}
	})

	t.Run("CountryMissingCode", func(t *testing.T) {
		_, err := Resolve(Selector{Kind: KindCountry}, universe)
		if !errors.Is(err, ErrUnknownSelector) {
			t.Errorf("expected ErrUnknownSelector, got %v", err)
		}
	})

	t.Run("NATOExcludesPartners", func(t *testing.T) {
		set, err := Resolve(Selector{Kind: KindNATO}, universe)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !set["FRA"] || !set["TUR"] || !set["FIN"] {
			t.Error("expected members FRA, TUR, FIN in NATO set")
		}
		for _, partner := range []string{"AUT", "IRL", "CHE"} {
			if set[partner] {
				t.Errorf("partner %s must not resolve as a member", partner)
			}
		}
		if len(set) != 32 {
			t.Errorf("expected 32 members, got %d", len(set))
		}
	})

	t.Run("FiveEyes", func(t *testing.T) {
		set, err := Resolve(Selector{Kind: KindFiveEyes}, universe)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(set) != 5 {
			t.Errorf("expected 5 codes, got %d", len(set))
		}
		if !set["NZL"] || !set["AUS"] {
			t.Error("expected NZL and AUS in five-eyes set")
		}
	})

	t.Run("AnyUsesUniverse", func(t *testing.T) {
		set, err := Resolve(Any(), universe)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(set) != 3 {
			t.Errorf("expected 3 codes (empty and unknown excluded), got %v", set)
		}
	})

	t.Run("UnknownKind", func(t *testing.T) {
		_, err := Resolve(Selector{Kind: "warsaw-pact"}, universe)
		if !errors.Is(err, ErrUnknownSelector) {
			t.Errorf("expected ErrUnknownSelector, got %v", err)
		}
	})
}

func TestFlagVersusEEZFiltering(t *testing.T) {
	// A Russian-flagged vessel sitting inside the French EEZ: flag and
	// territorial-waters jurisdiction must answer differently.
	rows := []domain.RankingRow{
		{
			VesselMMSI: "100",
			VesselFlag: "RUS",
			Status:     &domain.VesselStatus{MMSI: "100", EEZ: "FRA"},
		},
		{
			VesselMMSI: "200",
			VesselFlag: "FRA",
			Status:     &domain.VesselStatus{MMSI: "200", EEZ: "RUS"},
		},
		{
			VesselMMSI: "300",
			VesselFlag: "FRA",
			// No live status: EEZ test cannot pass.
		},
	}

	fra := map[string]bool{"FRA": true}

	byFlag := FilterByFlag(rows, fra)
	if len(byFlag) != 2 {
		t.Fatalf("expected 2 FRA-flagged rows, got %d", len(byFlag))
	}
	if byFlag[0].VesselMMSI != "200" || byFlag[1].VesselMMSI != "300" {
		t.Errorf("unexpected flag-filter result: %v", byFlag)
	}

	byEEZ := FilterByEEZ(rows, fra)
	if len(byEEZ) != 1 || byEEZ[0].VesselMMSI != "100" {
		t.Errorf("expected only vessel 100 inside the FRA EEZ, got %v", byEEZ)
	}
}
