package store

import (
	"testing"
	"time"

	"github.com/opensource-ocean/reefwatch/internal/domain"
)

func at(day int, hour int) time.Time {
	return time.Date(2023, 1, day, hour, 0, 0, 0, time.UTC)
}

func enc(id, mmsi string, typ domain.EventType, start time.Time, distNM float64) domain.EncounterRecord {
	return domain.EncounterRecord{
		ID:                 id,
		VesselMMSI:         mmsi,
		VesselName:         "REEFER " + mmsi,
		VesselFlag:         "PAN",
		Start:              start,
		End:                start.Add(4 * time.Hour),
		Type:               typ,
		DistanceFromShoreM: distNM * domain.MetersPerNauticalMile,
	}
}

func TestLoadCanonicalOrder(t *testing.T) {
	// Deliberately unsorted input: later start first, id tie reversed.
	encounters := []domain.EncounterRecord{
		enc("m-3", "100", domain.EventEncounter, at(5, 0), 10),
		enc("m-2", "100", domain.EventEncounter, at(1, 0), 10),
	}
	loiterings := []domain.EncounterRecord{
		enc("m-1", "100", domain.EventLoitering, at(1, 0), 10),
	}

	s := Load(encounters, loiterings, nil)
	events := s.Events()

	if len(events) != 3 {
		t.Fatalf("expected 3 events, got %d", len(events))
	}
	want := []string{"m-1", "m-2", "m-3"}
	for i, id := range want {
		if events[i].ID != id {
			t.Errorf("position %d: expected %s, got %s", i, id, events[i].ID)
		}
	}
}

func TestDistinctMeetingsMirroredPair(t *testing.T) {
	// One physical meeting recorded as a mirrored encounter/loitering
	// pair under the same id must count once, tracked.
	s := Load(
		[]domain.EncounterRecord{enc("m-1", "100", domain.EventEncounter, at(1, 0), 10)},
		[]domain.EncounterRecord{enc("m-1", "100", domain.EventLoitering, at(1, 0), 10)},
		nil,
	)

	meetings := DistinctMeetings(s.Events())
	if len(meetings) != 1 {
		t.Fatalf("expected 1 meeting, got %d", len(meetings))
	}
	if !meetings[0].Tracked {
		t.Error("mirrored pair containing an encounter should be tracked")
	}
}

func TestDistinctMeetingsDarkOnly(t *testing.T) {
	s := Load(nil,
		[]domain.EncounterRecord{enc("m-1", "100", domain.EventLoitering, at(1, 0), 10)},
		nil,
	)

	meetings := DistinctMeetings(s.Events())
	if len(meetings) != 1 {
		t.Fatalf("expected 1 meeting, got %d", len(meetings))
	}
	if meetings[0].Tracked {
		t.Error("loitering-only meeting should be dark")
	}
}

func TestFilters(t *testing.T) {
	s := Load([]domain.EncounterRecord{
		enc("m-1", "100", domain.EventEncounter, time.Date(2020, 6, 1, 0, 0, 0, 0, time.UTC), 1),
		enc("m-2", "100", domain.EventEncounter, time.Date(2022, 6, 1, 0, 0, 0, 0, time.UTC), 50),
		enc("m-3", "200", domain.EventEncounter, time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC), 200),
	}, nil, nil)

	t.Run("ByVessel", func(t *testing.T) {
		got := s.Events(ByVessel("100"))
		if len(got) != 2 {
			t.Errorf("expected 2 events for vessel 100, got %d", len(got))
		}
	})

	t.Run("ByYearRangeInclusive", func(t *testing.T) {
		got := s.Events(ByYearRange(2020, 2022))
		if len(got) != 2 {
			t.Errorf("expected 2 events in [2020, 2022], got %d", len(got))
		}
	})

	t.Run("ByDistanceBandBoundary", func(t *testing.T) {
		// Row m-1 sits at exactly 1 nm (1852 m); inclusive on both ends.
		got := s.Events(ByDistanceBandNM(1, 50))
		if len(got) != 2 {
			t.Errorf("expected 2 events in [1, 50] nm, got %d", len(got))
		}
	})

	t.Run("Conjunction", func(t *testing.T) {
		got := s.Events(ByVessel("100"), ByYearRange(2022, 2022))
		if len(got) != 1 || got[0].ID != "m-2" {
			t.Errorf("expected only m-2, got %v", got)
		}
	})

	t.Run("FilterIdempotent", func(t *testing.T) {
		once := s.Events(ByDistanceBandNM(0, 100))
		twice := s.Events(ByDistanceBandNM(0, 100), ByDistanceBandNM(0, 100))
		if len(once) != len(twice) {
			t.Errorf("re-applying a filter changed the result: %d vs %d", len(once), len(twice))
		}
	})
}

func TestQualifying(t *testing.T) {
	var encounters []domain.EncounterRecord
	// Vessel 100: 10 distinct meetings, each as a mirrored pair.
	for i := 0; i < 10; i++ {
		id := string(rune('a' + i))
		encounters = append(encounters,
			enc("q-"+id, "100", domain.EventEncounter, at(1+i, 0), 10))
		encounters = append(encounters,
			enc("q-"+id, "100", domain.EventLoitering, at(1+i, 0), 10))
	}
	// Vessel 200: 9 distinct meetings, below the floor.
	for i := 0; i < 9; i++ {
		id := string(rune('a' + i))
		encounters = append(encounters,
			enc("r-"+id, "200", domain.EventEncounter, at(1+i, 6), 10))
	}

	visits := []domain.PortVisitRecord{
		{VesselMMSI: "100", Start: at(20, 0), End: at(22, 0), PortName: "BUSAN", PortCountry: "South Korea"},
		{VesselMMSI: "200", Start: at(20, 0), End: at(22, 0), PortName: "BUSAN", PortCountry: "South Korea"},
	}

	s := Load(encounters, nil, visits)
	q := s.Qualifying(10)

	vessels := q.Vessels()
	if len(vessels) != 1 || vessels[0] != "100" {
		t.Fatalf("expected only vessel 100 to qualify, got %v", vessels)
	}
	if len(q.PortVisits("200")) != 0 {
		t.Error("non-qualifying vessel's port visits should be dropped")
	}
	if len(q.PortVisits("100")) != 1 {
		t.Error("qualifying vessel's port visits should survive")
	}
}

func TestFlagUniverse(t *testing.T) {
	e1 := enc("m-1", "100", domain.EventEncounter, at(1, 0), 10)
	e1.VesselFlag = "RUS"
	e2 := enc("m-2", "200", domain.EventEncounter, at(2, 0), 10)
	e2.VesselFlag = "unknown"
	e3 := enc("m-3", "300", domain.EventEncounter, at(3, 0), 10)
	e3.VesselFlag = ""
	e4 := enc("m-4", "400", domain.EventEncounter, at(4, 0), 10)
	e4.VesselFlag = "RUS"

	s := Load([]domain.EncounterRecord{e1, e2, e3, e4}, nil, nil)
	universe := s.FlagUniverse()
	if len(universe) != 1 || universe[0] != "RUS" {
		t.Errorf("expected universe [RUS], got %v", universe)
	}
}
