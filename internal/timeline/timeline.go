// Package timeline reconstructs a single vessel's chronological history:
// meetings and port visits merged into one ordered sequence with
// human-readable descriptions.
package timeline

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/opensource-ocean/reefwatch/internal/domain"
	"github.com/opensource-ocean/reefwatch/internal/rank"
	"github.com/opensource-ocean/reefwatch/internal/store"
)

// dayThreshold is the fixed branch point between hour and day rendering.
const dayThreshold = 48 * time.Hour

// Build merges one vessel's distinct meetings and port visits into one
// sequence ordered by start ascending, stable on ties. An unknown vessel
// yields an empty timeline, not an error.
func Build(s *store.EventStore, mmsi string) []domain.TimelineEvent {
	meetings := store.DistinctMeetings(s.Events(store.ByVessel(mmsi)))
	visits := s.PortVisits(mmsi)

	events := make([]domain.TimelineEvent, 0, len(meetings)+len(visits))
	for _, m := range meetings {
		nm := m.DistanceFromShoreNM()
		events = append(events, domain.TimelineEvent{
			Kind:                meetingKind(m),
			Start:               m.Start,
			End:                 m.End,
			Description:         meetingDescription(m),
			Duration:            DurationPhrase(m.Start, m.End),
			DistanceFromShoreNM: &nm,
		})
	}
	for _, v := range visits {
		events = append(events, domain.TimelineEvent{
			Kind:        domain.TimelinePortVisit,
			Start:       v.Start,
			End:         v.End,
			Description: fmt.Sprintf("%s in %s", TitleCase(v.PortName), v.PortCountry),
			Duration:    DurationPhrase(v.Start, v.End),
		})
	}

	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Start.Before(events[j].Start)
	})
	return events
}

func meetingKind(m store.Meeting) domain.TimelineKind {
	if m.Tracked {
		return domain.TimelineTrackedMeeting
	}
	return domain.TimelineDarkMeeting
}

func meetingDescription(m store.Meeting) string {
	if m.Tracked && m.OtherVesselName != "" {
		return fmt.Sprintf("with %s, flagged to %s", TitleCase(m.OtherVesselName), m.OtherVesselFlag)
	}
	return "with unknown fishing vessel"
}

// DurationPhrase renders end-start as rounded whole days when the span
// reaches two days, rounded whole hours otherwise. The threshold is
// fixed, not configurable.
func DurationPhrase(start, end time.Time) string {
	d := end.Sub(start)
	if d < 0 {
		d = 0
	}
	if d >= dayThreshold {
		days := int(math.Round(d.Hours() / 24))
		if days == 1 {
			return "1 day"
		}
		return fmt.Sprintf("%d days", days)
	}
	hours := int(math.Round(d.Hours()))
	if hours == 1 {
		return "1 hour"
	}
	return fmt.Sprintf("%d hours", hours)
}

// TitleCase lowercases a name and capitalizes the first letter of each
// word. Port and vessel names arrive fully upper-cased from the input
// tables.
func TitleCase(s string) string {
	words := strings.Fields(strings.ToLower(s))
	for i, w := range words {
		r := []rune(w)
		r[0] = []rune(strings.ToUpper(string(r[0])))[0]
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}

// Summarize computes one vessel's modal name, flag and destination-port
// country plus the median distance from shore across its distinct
// meetings. Modal ties break by first occurrence in canonical order.
func Summarize(s *store.EventStore, mmsi string) domain.DescriptiveSummary {
	meetings := store.DistinctMeetings(s.Events(store.ByVessel(mmsi)))

	names := make([]string, 0, len(meetings))
	flags := make([]string, 0, len(meetings))
	countries := make([]string, 0, len(meetings))
	distances := make([]float64, 0, len(meetings))
	for _, m := range meetings {
		names = append(names, m.VesselName)
		flags = append(flags, m.VesselFlag)
		countries = append(countries, m.DestinationPortCountry)
		distances = append(distances, m.DistanceFromShoreNM())
	}

	return domain.DescriptiveSummary{
		VesselMMSI:              mmsi,
		ModalName:               Modal(names),
		ModalFlag:               Modal(flags),
		ModalDestinationCountry: Modal(countries),
		MedianDistanceNM:        rank.Median(distances),
		MeetingCount:            len(meetings),
	}
}

// Modal returns the most frequent non-empty value, ties broken by first
// occurrence order. Empty for an empty input.
func Modal(values []string) string {
	counts := make(map[string]int)
	first := make(map[string]int)
	for i, v := range values {
		if v == "" {
			continue
		}
		if _, ok := first[v]; !ok {
			first[v] = i
		}
		counts[v]++
	}

	best := ""
	for v, n := range counts {
		if best == "" {
			best = v
			continue
		}
		if n > counts[best] || (n == counts[best] && first[v] < first[best]) {
			best = v
		}
	}
	return best
}
