// Package store holds the immutable in-memory event snapshot and its
// pure, composable filters. All analytic components read from here.
package store

import (
	"sort"
	"time"

	"github.com/opensource-ocean/reefwatch/internal/domain"
)

// EventStore is an immutable snapshot of encounter/loitering rows and
// port-visit rows. Rows are kept in canonical order: ascending start,
// ties broken by id, so that "first occurrence" statistics are
// deterministic regardless of input order.
type EventStore struct {
	events []domain.EncounterRecord
	visits []domain.PortVisitRecord
}

// Filter is a pure predicate over encounter rows. Filters compose by
// conjunction.
type Filter func(*domain.EncounterRecord) bool

// Load builds a snapshot from encounter rows, loitering rows and port
// visits. Inputs are copied; the store never mutates after Load.
func Load(encounters, loiterings []domain.EncounterRecord, visits []domain.PortVisitRecord) *EventStore {
	events := make([]domain.EncounterRecord, 0, len(encounters)+len(loiterings))
	events = append(events, encounters...)
	events = append(events, loiterings...)

	sort.SliceStable(events, func(i, j int) bool {
		if !events[i].Start.Equal(events[j].Start) {
			return events[i].Start.Before(events[j].Start)
		}
		return events[i].ID < events[j].ID
	})

	vs := make([]domain.PortVisitRecord, len(visits))
	copy(vs, visits)
	sort.SliceStable(vs, func(i, j int) bool {
		return vs[i].Start.Before(vs[j].Start)
	})

	return &EventStore{events: events, visits: vs}
}

// ByVessel keeps rows belonging to one vessel.
func ByVessel(mmsi string) Filter {
	return func(r *domain.EncounterRecord) bool {
		return r.VesselMMSI == mmsi
	}
}

// ByYearRange keeps rows whose start falls within [from, to] at
// calendar-year granularity, inclusive on both ends.
func ByYearRange(from, to int) Filter {
	return func(r *domain.EncounterRecord) bool {
		y := r.Start.Year()
		return y >= from && y <= to
	}
}

// ByDateRange keeps rows whose start falls within [from, to] inclusive.
func ByDateRange(from, to time.Time) Filter {
	return func(r *domain.EncounterRecord) bool {
		return !r.Start.Before(from) && !r.Start.After(to)
	}
}

// ByDistanceBandNM keeps rows whose distance from shore falls within
// [minNM, maxNM]. Inputs are nautical miles; rows store meters, so the
// conversion happens here at the boundary.
func ByDistanceBandNM(minNM, maxNM float64) Filter {
	minM := minNM * domain.MetersPerNauticalMile
	maxM := maxNM * domain.MetersPerNauticalMile
	return func(r *domain.EncounterRecord) bool {
		return r.DistanceFromShoreM >= minM && r.DistanceFromShoreM <= maxM
	}
}

// Events returns the rows satisfying every filter, in canonical order.
// With no filters it returns all rows.
func (s *EventStore) Events(filters ...Filter) []domain.EncounterRecord {
	out := make([]domain.EncounterRecord, 0, len(s.events))
	for i := range s.events {
		keep := true
		for _, f := range filters {
			if !f(&s.events[i]) {
				keep = false
				break
			}
		}
		if keep {
			out = append(out, s.events[i])
		}
	}
	return out
}

// PortVisits returns one vessel's port visits ordered by start.
func (s *EventStore) PortVisits(mmsi string) []domain.PortVisitRecord {
	var out []domain.PortVisitRecord
	for _, v := range s.visits {
		if v.VesselMMSI == mmsi {
			out = append(out, v)
		}
	}
	return out
}

// AllPortVisits returns every port visit in the snapshot.
func (s *EventStore) AllPortVisits() []domain.PortVisitRecord {
	out := make([]domain.PortVisitRecord, len(s.visits))
	copy(out, s.visits)
	return out
}

// Meeting is one physical meeting: the mirrored encounter/loitering rows
// sharing an id collapsed to their first canonical row. Tracked is true
// when any row of the meeting is an encounter.
type Meeting struct {
	domain.EncounterRecord
	Tracked bool
}

// DistinctMeetings dedupes rows by id, preserving first-occurrence
// order. An encounter and its mirrored loitering entry count once.
func DistinctMeetings(events []domain.EncounterRecord) []Meeting {
	byID := make(map[string]int)
	var out []Meeting
	for _, e := range events {
		if idx, ok := byID[e.ID]; ok {
			if e.Type == domain.EventEncounter {
				out[idx].Tracked = true
			}
			continue
		}
		byID[e.ID] = len(out)
		out = append(out, Meeting{
			EncounterRecord: e,
			Tracked:         e.Type == domain.EventEncounter,
		})
	}
	return out
}

// Vessels returns the distinct vessel ids present in the event rows, in
// first-occurrence order.
func (s *EventStore) Vessels() []string {
	seen := make(map[string]bool)
	var out []string
	for i := range s.events {
		m := s.events[i].VesselMMSI
		if !seen[m] {
			seen[m] = true
			out = append(out, m)
		}
	}
	return out
}

// FlagUniverse returns the distinct non-empty vessel flags observed in
// the snapshot, excluding the unknown marker.
func (s *EventStore) FlagUniverse() []string {
	seen := make(map[string]bool)
	var out []string
	for i := range s.events {
		f := s.events[i].VesselFlag
		if f == "" || f == "unknown" || seen[f] {
			continue
		}
		seen[f] = true
		out = append(out, f)
	}
	return out
}

// Qualifying returns a sub-store containing only vessels with at least
// minMeetings distinct lifetime meeting ids. This is the selectable
// vessel universe upstream of scoring; vessels below the floor are
// excluded entirely.
func (s *EventStore) Qualifying(minMeetings int) *EventStore {
	counts := make(map[string]map[string]bool)
	for i := range s.events {
		e := &s.events[i]
		if counts[e.VesselMMSI] == nil {
			counts[e.VesselMMSI] = make(map[string]bool)
		}
		counts[e.VesselMMSI][e.ID] = true
	}

	keep := func(mmsi string) bool {
		return len(counts[mmsi]) >= minMeetings
	}

	var events []domain.EncounterRecord
	for i := range s.events {
		if keep(s.events[i].VesselMMSI) {
			events = append(events, s.events[i])
		}
	}
	var visits []domain.PortVisitRecord
	for _, v := range s.visits {
		if keep(v.VesselMMSI) {
			visits = append(visits, v)
		}
	}
	return &EventStore{events: events, visits: visits}
}

// Len returns the number of event rows in the snapshot.
func (s *EventStore) Len() int {
	return len(s.events)
}
