// Package score computes per-vessel suspicion scores: distinct meeting
// counts and tie-inclusive percentile ranks over the qualifying vessel
// universe.
package score

import (
	"sort"

	"github.com/opensource-ocean/reefwatch/internal/domain"
	"github.com/opensource-ocean/reefwatch/internal/store"
)

// Score groups events by vessel, counts distinct meeting ids (a mirrored
// encounter/loitering pair counts once) and assigns each vessel the
// fraction of vessels with a meeting count at or below its own.
func Score(events []domain.EncounterRecord) map[string]domain.SuspicionScore {
	meetings := make(map[string]map[string]bool)
	for i := range events {
		e := &events[i]
		if meetings[e.VesselMMSI] == nil {
			meetings[e.VesselMMSI] = make(map[string]bool)
		}
		meetings[e.VesselMMSI][e.ID] = true
	}

	total := len(meetings)
	scores := make(map[string]domain.SuspicionScore, total)
	if total == 0 {
		return scores
	}

	counts := make([]int, 0, total)
	for _, ids := range meetings {
		counts = append(counts, len(ids))
	}
	sort.Ints(counts)

	for mmsi, ids := range meetings {
		n := len(ids)
		// Vessels with count <= n: first index with count > n.
		atOrBelow := sort.SearchInts(counts, n+1)
		scores[mmsi] = domain.SuspicionScore{
			VesselMMSI:   mmsi,
			MeetingCount: n,
			Percentile:   float64(atOrBelow) / float64(total),
		}
	}
	return scores
}

// ScoreStore scores every vessel in the snapshot.
func ScoreStore(s *store.EventStore) map[string]domain.SuspicionScore {
	return Score(s.Events())
}

// Buckets partitions scored vessels into Low/Medium/High sets. Low holds
// every vessel; Medium those with percentile >= medium; High those with
// percentile >= high. The thresholds use the same tie-inclusive
// percentile as Score, so High ⊆ Medium ⊆ Low always holds.
func Buckets(scores map[string]domain.SuspicionScore, medium, high float64) domain.ScoreBuckets {
	var b domain.ScoreBuckets
	mmsis := make([]string, 0, len(scores))
	for m := range scores {
		mmsis = append(mmsis, m)
	}
	sort.Strings(mmsis)

	for _, m := range mmsis {
		sc := scores[m]
		b.Low = append(b.Low, m)
		if sc.Percentile >= medium {
			b.Medium = append(b.Medium, m)
		}
		if sc.Percentile >= high {
			b.High = append(b.High, m)
		}
	}
	return b
}
