package score

import (
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/opensource-ocean/reefwatch/internal/domain"
)

func meetingRows(mmsi string, n int) []domain.EncounterRecord {
	rows := make([]domain.EncounterRecord, 0, n)
	for i := 0; i < n; i++ {
		rows = append(rows, domain.EncounterRecord{
			ID:         fmt.Sprintf("%s-%d", mmsi, i),
			VesselMMSI: mmsi,
			Type:       domain.EventEncounter,
			Start:      time.Date(2023, 1, 1+i, 0, 0, 0, 0, time.UTC),
		})
	}
	return rows
}

func TestPercentileTieInclusive(t *testing.T) {
	// Counts: 1, 2, 2, 3 over four vessels. The tied vessels at 2 both
	// rank at 3/4; the top vessel at 4/4; the bottom at 1/4.
	var events []domain.EncounterRecord
	events = append(events, meetingRows("a", 1)...)
	events = append(events, meetingRows("b", 2)...)
	events = append(events, meetingRows("c", 2)...)
	events = append(events, meetingRows("d", 3)...)

	scores := Score(events)

	cases := []struct {
		mmsi string
		want float64
	}{
		{"a", 0.25},
		{"b", 0.75},
		{"c", 0.75},
		{"d", 1.0},
	}
	for _, tc := range cases {
		if got := scores[tc.mmsi].Percentile; got != tc.want {
			t.Errorf("vessel %s: expected percentile %.2f, got %.2f", tc.mmsi, tc.want, got)
		}
	}
}

func TestMirroredPairCountsOnce(t *testing.T) {
	events := []domain.EncounterRecord{
		{ID: "m-1", VesselMMSI: "100", Type: domain.EventEncounter},
		{ID: "m-1", VesselMMSI: "100", Type: domain.EventLoitering},
	}

	scores := Score(events)
	if scores["100"].MeetingCount != 1 {
		t.Errorf("expected meeting count 1 for mirrored pair, got %d", scores["100"].MeetingCount)
	}
}

func TestPercentileMonotonic(t *testing.T) {
	var events []domain.EncounterRecord
	counts := []int{3, 7, 1, 7, 12, 2, 5}
	for i, n := range counts {
		events = append(events, meetingRows(fmt.Sprintf("v%d", i), n)...)
	}

	scores := Score(events)

	ordered := make([]domain.SuspicionScore, 0, len(scores))
	for _, sc := range scores {
		ordered = append(ordered, sc)
	}
	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].MeetingCount < ordered[j].MeetingCount
	})

	for i := 1; i < len(ordered); i++ {
		if ordered[i].Percentile < ordered[i-1].Percentile {
			t.Fatalf("percentile decreased with count: %v after %v", ordered[i], ordered[i-1])
		}
		if ordered[i].MeetingCount == ordered[i-1].MeetingCount && ordered[i].Percentile != ordered[i-1].Percentile {
			t.Fatalf("tied counts got different percentiles: %v vs %v", ordered[i], ordered[i-1])
		}
	}

	top := ordered[len(ordered)-1]
	if top.Percentile != 1.0 {
		t.Errorf("highest count should rank 1.0, got %.2f", top.Percentile)
	}
}

func TestEmptyInput(t *testing.T) {
	scores := Score(nil)
	if len(scores) != 0 {
		t.Errorf("expected no scores for empty input, got %d", len(scores))
	}
}

func TestBucketsNesting(t *testing.T) {
	var events []domain.EncounterRecord
	for i := 0; i < 20; i++ {
		events = append(events, meetingRows(fmt.Sprintf("v%02d", i), 1+i)...)
	}

	scores := Score(events)
	buckets := Buckets(scores, 0.5, 0.9)

	if len(buckets.Low) != 20 {
		t.Fatalf("Low should hold every scored vessel, got %d", len(buckets.Low))
	}

	inMedium := make(map[string]bool)
	for _, m := range buckets.Medium {
		inMedium[m] = true
	}
	inLow := make(map[string]bool)
	for _, m := range buckets.Low {
		inLow[m] = true
	}

	for _, m := range buckets.High {
		if !inMedium[m] {
			t.Errorf("high vessel %s missing from medium", m)
		}
	}
	for _, m := range buckets.Medium {
		if !inLow[m] {
			t.Errorf("medium vessel %s missing from low", m)
		}
	}

	if len(buckets.High) == 0 {
		t.Error("expected at least one high-bucket vessel")
	}
	if len(buckets.Medium) <= len(buckets.High) {
		t.Errorf("medium (%d) should be larger than high (%d) here", len(buckets.Medium), len(buckets.High))
	}
}
