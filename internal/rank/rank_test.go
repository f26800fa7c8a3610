package rank

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/opensource-ocean/reefwatch/internal/domain"
	"github.com/opensource-ocean/reefwatch/internal/jurisdiction"
	"github.com/opensource-ocean/reefwatch/internal/store"
)

func meeting(id, mmsi, flag string, tracked bool, auth domain.AuthorizationStatus, start time.Time, distNM float64) []domain.EncounterRecord {
	rec := domain.EncounterRecord{
		ID:                 id,
		VesselMMSI:         mmsi,
		VesselName:         "REEFER " + mmsi,
		VesselFlag:         flag,
		Start:              start,
		End:                start.Add(6 * time.Hour),
		DistanceFromShoreM: distNM * domain.MetersPerNauticalMile,
		Authorization:      auth,
	}
	if tracked {
		enc := rec
		enc.Type = domain.EventEncounter
		enc.OtherVesselName = "FISHING 001"
		enc.OtherVesselFlag = "CHN"
		mirror := rec
		mirror.Type = domain.EventLoitering
		return []domain.EncounterRecord{enc, mirror}
	}
	rec.Type = domain.EventLoitering
	return []domain.EncounterRecord{rec}
}

func day(d int) time.Time {
	return time.Date(2023, 3, d, 0, 0, 0, 0, time.UTC)
}

func fixtureStore() *store.EventStore {
	var events []domain.EncounterRecord

	// Vessel 200: 4 meetings, 3 tracked, all authorized.
	events = append(events, meeting("a-1", "200", "RUS", true, domain.AuthAuthorized, day(1), 20)...)
	events = append(events, meeting("a-2", "200", "RUS", true, domain.AuthAuthorized, day(2), 40)...)
	events = append(events, meeting("a-3", "200", "RUS", true, domain.AuthAuthorized, day(3), 60)...)
	events = append(events, meeting("a-4", "200", "RUS", false, domain.AuthAuthorized, day(4), 80)...)

	// Vessel 300: 2 meetings, both dark, unauthorized, far offshore.
	events = append(events, meeting("b-1", "300", "PAN", false, domain.AuthUnauthorized, day(5), 150)...)
	events = append(events, meeting("b-2", "300", "PAN", false, domain.AuthUnauthorized, day(6), 180)...)

	// Vessel 400: 6 meetings in 2021, nearshore.
	for i := 0; i < 6; i++ {
		id := fmt.Sprintf("c-%d", i)
		start := time.Date(2021, 5, 1+i, 0, 0, 0, 0, time.UTC)
		events = append(events, meeting(id, "400", "FRA", true, domain.AuthUnknown, start, 5)...)
	}

	return store.Load(events, nil, nil)
}

func fixtureStatuses() map[string]*domain.VesselStatus {
	return LatestStatuses([]*domain.VesselStatus{
		{MMSI: "200", Flag: "RUS", EEZ: "FRA", NavigationStatus: "under way using engine", LastTransmission: day(10)},
		{MMSI: "300", Flag: "PAN", EEZ: "PAN", NavigationStatus: domain.NavStatusMoored, LastTransmission: day(10)},
	})
}

func TestRankAggregation(t *testing.T) {
	rows, err := Rank(fixtureStore(), fixtureStatuses(), DefaultQuery())
	if err != nil {
		t.Fatalf("rank failed: %v", err)
	}

	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}

	// Descending by total meetings: 400 (6), 200 (4), 300 (2).
	if rows[0].VesselMMSI != "400" || rows[1].VesselMMSI != "200" || rows[2].VesselMMSI != "300" {
		t.Fatalf("unexpected order: %s, %s, %s", rows[0].VesselMMSI, rows[1].VesselMMSI, rows[2].VesselMMSI)
	}

	v200 := rows[1]
	if v200.TotalMeetings != 4 || v200.TrackedCount != 3 || v200.DarkCount != 1 {
		t.Errorf("vessel 200 counts: total=%d tracked=%d dark=%d", v200.TotalMeetings, v200.TrackedCount, v200.DarkCount)
	}
	if v200.TrackedRatio != 0.75 {
		t.Errorf("vessel 200 tracked ratio: expected 0.75, got %g", v200.TrackedRatio)
	}
	if v200.AuthorizedRatio != 1.0 {
		t.Errorf("vessel 200 authorized ratio: expected 1.0, got %g", v200.AuthorizedRatio)
	}
	if v200.MedianDistanceNM != 50 {
		t.Errorf("vessel 200 median distance: expected 50, got %g", v200.MedianDistanceNM)
	}
	if v200.Status == nil || v200.Status.EEZ != "FRA" {
		t.Error("vessel 200 should carry its live status")
	}

	for _, r := range rows {
		if r.TrackedRatio < 0 || r.TrackedRatio > 1 || r.AuthorizedRatio < 0 || r.AuthorizedRatio > 1 {
			t.Errorf("vessel %s: ratios out of [0,1]: %g, %g", r.VesselMMSI, r.TrackedRatio, r.AuthorizedRatio)
		}
	}
}

func TestRankYearFilter(t *testing.T) {
	q := DefaultQuery()
	q.YearFrom = 2021
	q.YearTo = 2021

	rows, err := Rank(fixtureStore(), fixtureStatuses(), q)
	if err != nil {
		t.Fatalf("rank failed: %v", err)
	}
	if len(rows) != 1 || rows[0].VesselMMSI != "400" {
		t.Errorf("expected only vessel 400 in 2021, got %v", rows)
	}
}

func TestRankDistanceBand(t *testing.T) {
	q := DefaultQuery()
	q.MinNM = 100
	q.MaxNM = 200

	rows, err := Rank(fixtureStore(), fixtureStatuses(), q)
	if err != nil {
		t.Fatalf("rank failed: %v", err)
	}
	if len(rows) != 1 || rows[0].VesselMMSI != "300" {
		t.Errorf("expected only vessel 300 offshore, got %v", rows)
	}
}

func TestRankMinMeetings(t *testing.T) {
	s := fixtureStore()
	statuses := fixtureStatuses()

	unrestricted, err := Rank(s, statuses, DefaultQuery())
	if err != nil {
		t.Fatalf("rank failed: %v", err)
	}

	q := DefaultQuery()
	q.MinMeetings = 4
	restricted, err := Rank(s, statuses, q)
	if err != nil {
		t.Fatalf("rank failed: %v", err)
	}
	if len(restricted) != 2 {
		t.Errorf("expected 2 rows with >= 4 meetings, got %d", len(restricted))
	}

	// min_meetings=0 must reproduce the unrestricted table.
	q.MinMeetings = 0
	roundTrip, err := Rank(s, statuses, q)
	if err != nil {
		t.Fatalf("rank failed: %v", err)
	}
	if len(roundTrip) != len(unrestricted) {
		t.Errorf("min_meetings=0 changed row count: %d vs %d", len(roundTrip), len(unrestricted))
	}
}

func TestRankJurisdiction(t *testing.T) {
	s := fixtureStore()
	statuses := fixtureStatuses()

	t.Run("AnyKeepsEveryRow", func(t *testing.T) {
		rows, err := Rank(s, statuses, DefaultQuery())
		if err != nil {
			t.Fatalf("rank failed: %v", err)
		}
		// Vessel 400 has no live status and must still appear.
		if len(rows) != 3 {
			t.Errorf("any-jurisdiction dropped rows: got %d", len(rows))
		}
	})

	t.Run("FlagView", func(t *testing.T) {
		q := DefaultQuery()
		q.Jurisdiction = jurisdiction.Selector{Kind: jurisdiction.KindCountry, Country: "RUS"}
		rows, err := Rank(s, statuses, q)
		if err != nil {
			t.Fatalf("rank failed: %v", err)
		}
		if len(rows) != 1 || rows[0].VesselMMSI != "200" {
			t.Errorf("expected only the RUS-flagged vessel, got %v", rows)
		}
	})

	t.Run("EEZView", func(t *testing.T) {
		q := DefaultQuery()
		q.View = domain.ViewEEZ
		q.Jurisdiction = jurisdiction.Selector{Kind: jurisdiction.KindCountry, Country: "FRA"}
		rows, err := Rank(s, statuses, q)
		if err != nil {
			t.Fatalf("rank failed: %v", err)
		}
		// The RUS-flagged vessel currently sits in the FRA EEZ.
		if len(rows) != 1 || rows[0].VesselMMSI != "200" {
			t.Errorf("expected the vessel inside the FRA EEZ, got %v", rows)
		}
	})

	t.Run("PortViewRequiresMoored", func(t *testing.T) {
		q := DefaultQuery()
		q.View = domain.ViewPort
		q.Jurisdiction = jurisdiction.Selector{Kind: jurisdiction.KindCountry, Country: "PAN"}
		rows, err := Rank(s, statuses, q)
		if err != nil {
			t.Fatalf("rank failed: %v", err)
		}
		if len(rows) != 1 || rows[0].VesselMMSI != "300" {
			t.Errorf("expected the moored vessel in the PAN EEZ, got %v", rows)
		}

		// The same selector under the plain EEZ view also matches 300;
		// port view must not admit anything EEZ view rejects.
		q.View = domain.ViewEEZ
		eezRows, err := Rank(s, statuses, q)
		if err != nil {
			t.Fatalf("rank failed: %v", err)
		}
		if len(rows) > len(eezRows) {
			t.Error("port view admitted more rows than EEZ view")
		}
	})

	t.Run("NATOFlagView", func(t *testing.T) {
		q := DefaultQuery()
		q.Jurisdiction = jurisdiction.Selector{Kind: jurisdiction.KindNATO}
		rows, err := Rank(s, statuses, q)
		if err != nil {
			t.Fatalf("rank failed: %v", err)
		}
		if len(rows) != 1 || rows[0].VesselMMSI != "400" {
			t.Errorf("expected only the FRA-flagged vessel, got %v", rows)
		}
	})
}

func TestRankValidation(t *testing.T) {
	s := fixtureStore()
	statuses := fixtureStatuses()

	cases := []struct {
		name   string
		mutate func(*Query)
	}{
		{"YearFromAfterYearTo", func(q *Query) { q.YearFrom = 2023; q.YearTo = 2020 }},
		{"NegativeDistance", func(q *Query) { q.MinNM = -1 }},
		{"InvertedDistanceBand", func(q *Query) { q.MinNM = 50; q.MaxNM = 10 }},
		{"NegativeMinMeetings", func(q *Query) { q.MinMeetings = -1 }},
		{"UnknownView", func(q *Query) { q.View = "harbor" }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			q := DefaultQuery()
			tc.mutate(&q)
			_, err := Rank(s, statuses, q)
			if !errors.Is(err, ErrInvalidFilterRange) {
				t.Errorf("expected ErrInvalidFilterRange, got %v", err)
			}
		})
	}
}

func TestLatestStatuses(t *testing.T) {
	old := day(1)
	newer := day(5)
	statuses := LatestStatuses([]*domain.VesselStatus{
		{MMSI: "100", Destination: "BUSAN", LastTransmission: newer},
		{MMSI: "100", Destination: "CALLAO", LastTransmission: old},
	})
	if len(statuses) != 1 {
		t.Fatalf("expected 1 vessel, got %d", len(statuses))
	}
	if statuses["100"].Destination != "BUSAN" {
		t.Errorf("expected the later transmission to win, got %s", statuses["100"].Destination)
	}
}

func TestMedian(t *testing.T) {
	cases := []struct {
		name   string
		values []float64
		want   float64
	}{
		{"Empty", nil, 0},
		{"Single", []float64{7}, 7},
		{"Odd", []float64{9, 1, 5}, 5},
		{"Even", []float64{4, 1, 3, 2}, 2.5},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Median(tc.values); got != tc.want {
				t.Errorf("expected %g, got %g", tc.want, got)
			}
		})
	}
}
